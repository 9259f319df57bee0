package nesdc

import (
	"context"
	"nesdc-backend/lib/htmlutil"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// TextExtractor extracts the text of a result document, false means no text could be recovered.
type TextExtractor interface {
	Extract(ctx context.Context, rawUrl string) (string, bool)
}

// labeledPair is one markup shape that pairs a label element with the value element after it.
type labeledPair struct {
	label cascadia.Selector
	value string
}

var labeledPairs = []labeledPair{
	{label: cascadia.MustCompile("th"), value: "td"},
	{label: cascadia.MustCompile("dt"), value: "dd"},
}

var (
	bodySelector      = cascadia.MustCompile("body")
	tableRowSelector  = cascadia.MustCompile("table tr")
	tableCellSelector = cascadia.MustCompile("th, td")
)

// ParseFields collects every labeled pair with a non-empty value, a repeated
// label keeps its last non-empty value.
func ParseFields(doc *goquery.Document) FieldMap {
	fields := FieldMap{}
	for _, pair := range labeledPairs {
		doc.FindMatcher(pair.label).Each(func(_ int, label *goquery.Selection) {
			key := htmlutil.Text(label)
			if key == "" {
				return
			}
			value := htmlutil.Next(label, pair.value)
			if value.Length() == 0 {
				return
			}
			text := htmlutil.Text(value)
			if text == "" {
				return
			}
			fields[key] = text
		})
	}
	return fields
}

// TableText renders every table row as its non-empty cell texts joined by
// spaces, one row per line.
func TableText(doc *goquery.Document) string {
	var lines []string
	doc.FindMatcher(tableRowSelector).Each(func(_ int, row *goquery.Selection) {
		cells := htmlutil.Texts(row.FindMatcher(tableCellSelector))
		if len(cells) > 0 {
			lines = append(lines, strings.Join(cells, " "))
		}
	})
	return strings.Join(lines, "\n")
}

// DetailText is the page text followed by the table reconstruction, nil if both are empty.
func DetailText(doc *goquery.Document) *string {
	var parts []string
	if body := strings.TrimSpace(htmlutil.Lines(doc.FindMatcher(bodySelector))); body != "" {
		parts = append(parts, body)
	}
	if table := strings.TrimSpace(TableText(doc)); table != "" {
		parts = append(parts, table)
	}
	if len(parts) == 0 {
		return nil
	}
	text := strings.Join(parts, "\n")
	return &text
}

type DetailParser struct {
	base      *url.URL
	extractor TextExtractor
}

// NewDetailParser creates a DetailParser, extractor may be nil in which case
// result documents are never read.
func NewDetailParser(base *url.URL, extractor TextExtractor) DetailParser {
	return DetailParser{base: base, extractor: extractor}
}

// Parse builds the DetailRecord of a detail page. Page text and result
// document text are only collected when includeText is set, field inference
// falls back to the page text only in that case.
func (p DetailParser) Parse(ctx context.Context, doc *goquery.Document, includeText bool) DetailRecord {
	record := DetailRecord{
		Fields: ParseFields(doc),
	}
	if includeText {
		record.DetailText = DetailText(doc)
	}

	fallback := ""
	if record.DetailText != nil {
		fallback = *record.DetailText
	}
	record.SurveyDate = SurveyDate(record.Fields, fallback)
	record.SampleSize = SampleSize(record.Fields, fallback)
	record.MarginOfError = MarginOfError(record.Fields, fallback)

	resultFileUrl, ok := FindResultFileUrl(doc, p.base)
	if !ok {
		return record
	}
	record.ResultFileUrl = &resultFileUrl

	if includeText && p.extractor != nil {
		text, ok := p.extractor.Extract(ctx, resultFileUrl)
		if ok {
			record.ResultText = &text
		}
	}
	return record
}
