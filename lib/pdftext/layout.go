package pdftext

import (
	"math"
	"sort"
	"strings"
)

// DefaultLineTolerance is the vertical distance under which two fragments are read as one line.
const DefaultLineTolerance = 2

// Fragment is a run of text placed at a position on a page.
type Fragment struct {
	X    float64
	Y    float64
	Text string
}

// Glyph is a single shown character as reported by the pdf reader.
type Glyph struct {
	X        float64
	Y        float64
	W        float64
	FontSize float64
	S        string
}

// maxGlyphGap is the horizontal gap, in units of font size, above which two
// glyphs on the same baseline belong to different runs.
const maxGlyphGap = 0.25

// MergeGlyphs joins consecutive glyphs into runs of text. A glyph continues the
// current run when it sits on the same baseline, within `tolerance`, and starts
// where the previous glyph ends.
func MergeGlyphs(glyphs []Glyph, tolerance float64) []Fragment {
	var runs []Fragment
	var run strings.Builder
	var start, prev Glyph
	open := false

	flush := func() {
		if open {
			runs = append(runs, Fragment{X: start.X, Y: start.Y, Text: run.String()})
		}
		run.Reset()
		open = false
	}

	for _, g := range glyphs {
		if open {
			gap := g.X - (prev.X + prev.W)
			maxGap := math.Max(prev.FontSize*maxGlyphGap, 1)
			if math.Abs(g.Y-prev.Y) > tolerance || gap > maxGap || g.X < prev.X-maxGap {
				flush()
			}
		}
		if !open {
			start = g
			open = true
		}
		run.WriteString(g.S)
		prev = g
	}
	flush()

	return runs
}

// AssembleLines rebuilds reading order from positioned fragments.
//
// Fragments are consumed in the order given. A fragment whose vertical position is
// within `tolerance` of the first fragment of the current line joins that line,
// otherwise it starts a new one. Each line is sorted left to right and joined
// with spaces, lines are joined with newlines.
func AssembleLines(fragments []Fragment, tolerance float64) string {
	var lines []string
	var line []Fragment
	var currentY float64
	started := false

	flush := func() {
		if len(line) == 0 {
			return
		}
		sort.SliceStable(line, func(i, j int) bool {
			return line[i].X < line[j].X
		})
		parts := make([]string, len(line))
		for i, f := range line {
			parts[i] = f.Text
		}
		lines = append(lines, strings.Join(parts, " "))
		line = nil
	}

	for _, f := range fragments {
		text := strings.TrimSpace(f.Text)
		if text == "" {
			continue
		}
		if !started || math.Abs(f.Y-currentY) > tolerance {
			flush()
			currentY = f.Y
			started = true
		}
		line = append(line, Fragment{X: f.X, Y: f.Y, Text: text})
	}
	flush()

	return strings.Join(lines, "\n")
}
