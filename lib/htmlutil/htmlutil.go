package htmlutil

import (
	"bytes"
	"context"
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

var tracer = otel.Tracer("nesdc.lib.htmlutil")

// Load decodes markup to UTF-8 using the content type and <meta> hints, then parses it.
// The HTML5 parser recovers from malformed markup, so only decoding or read
// failures produce an error.
func Load(ctx context.Context, data []byte, contentType string) (*goquery.Document, error) {
	_, span := tracer.Start(ctx, "Load")
	defer span.End()

	enc, name, _ := charset.DetermineEncoding(data, contentType)
	span.SetAttributes(
		attribute.Int("bytes", len(data)),
		attribute.String("encoding", name),
	)

	decoded, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to decode markup, parsing raw bytes")
		decoded = data
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(decoded))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse markup")
		return nil, err
	}
	return doc, nil
}

// LoadString parses markup that is already UTF-8.
func LoadString(markup string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(markup))
}

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	if node.Type == html.ElementNode {
		switch node.Data {
		case "script", "style", "noscript":
			return
		}
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

var innerWhitespace = regexp.MustCompile(`\s+`)

func removeNonPrintable(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) || unicode.IsSpace(c) {
			newStr.WriteRune(c)
		}
	}
	return newStr.String()
}

// CleanText trims s and collapses every run of whitespace into a single space.
func CleanText(s string) string {
	s = removeNonPrintable(s)
	s = innerWhitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Text returns the cleaned text of every node in the selection.
func Text(sel *goquery.Selection) string {
	var out strings.Builder
	for _, n := range sel.Nodes {
		out.WriteString(GetText(n))
	}
	return CleanText(out.String())
}

// Next returns the element immediately following sel if it is a `tag` element.
func Next(sel *goquery.Selection, tag string) *goquery.Selection {
	return sel.NextFiltered(tag)
}

// Texts returns the cleaned, non-empty text of each element in the selection, in document order.
func Texts(sel *goquery.Selection) []string {
	var out []string
	sel.Each(func(_ int, s *goquery.Selection) {
		text := Text(s)
		if text != "" {
			out = append(out, text)
		}
	})
	return out
}

// Lines returns the text of the selection with every line cleaned and empty lines dropped.
func Lines(sel *goquery.Selection) string {
	var raw strings.Builder
	for _, n := range sel.Nodes {
		raw.WriteString(GetText(n))
	}

	var lines []string
	for _, line := range strings.Split(raw.String(), "\n") {
		line = CleanText(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

// Resolve resolves href against base, returning false if href cannot be parsed.
func Resolve(base *url.URL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	link, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	return base.ResolveReference(link).String(), true
}
