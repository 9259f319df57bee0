package pdftext

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/ledongthuc/pdf"
)

// Document is a fetched attachment.
type Document struct {
	Url  string
	Data []byte
}

// Strategy is one tier of the extraction fallback chain.
type Strategy interface {
	Name() string
	// Extract returns the text it found, an empty string means the next tier should be tried.
	Extract(ctx context.Context, doc Document) (string, error)
}

// safely turns panics raised by the pdf reader on malformed documents into errors.
func safely(fn func() (string, error)) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("pdf reader panic: %v", r)
		}
	}()
	return fn()
}

func openReader(data []byte) (*pdf.Reader, error) {
	return pdf.NewReader(bytes.NewReader(data), int64(len(data)))
}

// LayoutStrategy reconstructs lines from the position of each shown glyph.
type LayoutStrategy struct {
	LineTolerance float64
}

func (LayoutStrategy) Name() string {
	return "layout"
}

func (s LayoutStrategy) Extract(ctx context.Context, doc Document) (string, error) {
	return safely(func() (string, error) {
		reader, err := openReader(doc.Data)
		if err != nil {
			return "", err
		}

		tolerance := s.LineTolerance
		if tolerance <= 0 {
			tolerance = DefaultLineTolerance
		}

		var pages []string
		for i := 1; i <= reader.NumPage(); i++ {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}

			page := reader.Page(i)
			if page.V.IsNull() {
				continue
			}
			var glyphs []Glyph
			for _, text := range page.Content().Text {
				glyphs = append(glyphs, Glyph{
					X:        text.X,
					Y:        text.Y,
					W:        text.W,
					FontSize: text.FontSize,
					S:        text.S,
				})
			}
			fragments := MergeGlyphs(glyphs, tolerance)
			pages = append(pages, AssembleLines(fragments, tolerance))
		}

		return strings.Join(pages, "\n\n"), nil
	})
}

// PlainStrategy uses the reader's own content stream order.
type PlainStrategy struct{}

func (PlainStrategy) Name() string {
	return "plain"
}

func (PlainStrategy) Extract(ctx context.Context, doc Document) (string, error) {
	return safely(func() (string, error) {
		reader, err := openReader(doc.Data)
		if err != nil {
			return "", err
		}
		plain, err := reader.GetPlainText()
		if err != nil {
			return "", err
		}
		text, err := io.ReadAll(plain)
		if err != nil {
			return "", err
		}
		return string(text), nil
	})
}

// OCRStrategy posts the raw document to an external OCR service and uses the response body.
type OCRStrategy struct {
	Endpoint string
	Http     *resty.Client
}

func (OCRStrategy) Name() string {
	return "ocr"
}

func (s OCRStrategy) Extract(ctx context.Context, doc Document) (string, error) {
	if s.Endpoint == "" {
		return "", nil
	}

	res, err := s.Http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/pdf").
		SetBody(doc.Data).
		Post(s.Endpoint)
	if err != nil {
		return "", fmt.Errorf("ocr request: %w", err)
	}
	if !res.IsSuccess() {
		return "", fmt.Errorf("ocr request: %w: %s", ErrUnexpectedStatus, res.Status())
	}
	return res.String(), nil
}
