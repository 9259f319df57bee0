package pdftext

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAssembleLines(t *testing.T) {
	testCases := []struct {
		name      string
		fragments []Fragment
		expected  string
	}{
		{
			name:      "empty",
			fragments: nil,
			expected:  "",
		},
		{
			name: "sorts fragments left to right within a line",
			fragments: []Fragment{
				{X: 300, Y: 700, Text: "3.5%p"},
				{X: 50, Y: 700, Text: "표본오차"},
				{X: 50, Y: 680, Text: "응답자 1,004명"},
			},
			expected: "표본오차 3.5%p\n응답자 1,004명",
		},
		{
			name: "fragments within tolerance share a line",
			fragments: []Fragment{
				{X: 10, Y: 500, Text: "a"},
				{X: 30, Y: 501.5, Text: "c"},
				{X: 20, Y: 498, Text: "b"},
				{X: 10, Y: 497.9, Text: "d"},
			},
			expected: "a b c\nd",
		},
		{
			name: "blank fragments are skipped and text is trimmed",
			fragments: []Fragment{
				{X: 10, Y: 100, Text: "  "},
				{X: 20, Y: 100, Text: " 조사기간 "},
				{X: 10, Y: 50, Text: ""},
			},
			expected: "조사기간",
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			require.Equal(t, test.expected, AssembleLines(test.fragments, DefaultLineTolerance))
		})
	}
}

func glyphs(x, y, w float64, text string) []Glyph {
	var out []Glyph
	for _, r := range text {
		out = append(out, Glyph{X: x, Y: y, W: w, FontSize: 12, S: string(r)})
		x += w
	}
	return out
}

func TestMergeGlyphs(t *testing.T) {
	testCases := []struct {
		name     string
		glyphs   []Glyph
		expected []Fragment
	}{
		{
			name:     "empty",
			glyphs:   nil,
			expected: nil,
		},
		{
			name:   "adjacent glyphs form one run",
			glyphs: glyphs(100, 700, 6, "Second line"),
			expected: []Fragment{
				{X: 100, Y: 700, Text: "Second line"},
			},
		},
		{
			name:   "glyphs without widths stay together",
			glyphs: glyphs(100, 700, 0, "Right"),
			expected: []Fragment{
				{X: 100, Y: 700, Text: "Right"},
			},
		},
		{
			name: "jumping back on the same baseline starts a new run",
			glyphs: append(
				glyphs(340, 785, 6, "Right"),
				glyphs(56, 785, 6, "Left")...,
			),
			expected: []Fragment{
				{X: 340, Y: 785, Text: "Right"},
				{X: 56, Y: 785, Text: "Left"},
			},
		},
		{
			name: "a wide gap starts a new run",
			glyphs: append(
				glyphs(50, 700, 6, "표본오차"),
				glyphs(300, 700, 6, "3.5%p")...,
			),
			expected: []Fragment{
				{X: 50, Y: 700, Text: "표본오차"},
				{X: 300, Y: 700, Text: "3.5%p"},
			},
		},
		{
			name: "a new baseline starts a new run",
			glyphs: append(
				glyphs(50, 700, 6, "ab"),
				glyphs(62, 680, 6, "cd")...,
			),
			expected: []Fragment{
				{X: 50, Y: 700, Text: "ab"},
				{X: 62, Y: 680, Text: "cd"},
			},
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			require.Equal(t, test.expected, MergeGlyphs(test.glyphs, DefaultLineTolerance))
		})
	}
}

func TestMergedGlyphsAssembleInReadingOrder(t *testing.T) {
	input := append(glyphs(340, 785, 0, "Right"), glyphs(56, 785, 0, "Left")...)
	input = append(input, glyphs(56, 728, 0, "Second line")...)

	text := AssembleLines(MergeGlyphs(input, DefaultLineTolerance), DefaultLineTolerance)
	require.Equal(t, "Left Right\nSecond line", text)
}
