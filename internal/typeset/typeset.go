// Package typeset lays out the three text blocks of the frame: the auto-fit
// name label, the centre-wrapped role line and the justified message body.
//
// Layout is separated from drawing: every function returns positioned words
// that a renderer paints, so the arithmetic can be checked without fonts.
package typeset

import "strings"

// Measurer reports the rendered size of a string in the current font.
// *gg.Context satisfies it.
type Measurer interface {
	MeasureString(s string) (w, h float64)
}

// Word is a run of text drawn with its left edge at X.
type Word struct {
	Text string
	X    float64
}

// Line is a row of words sharing the baseline Y.
type Line struct {
	Y     float64
	Words []Word
}

// Text joins the words of the line with single spaces.
func (l Line) Text() string {
	parts := make([]string, len(l.Words))
	for i, w := range l.Words {
		parts[i] = w.Text
	}
	return strings.Join(parts, " ")
}

// Wrap greedily breaks text into lines no wider than maxWidth.
// A word wider than maxWidth is put on a line of its own.
func Wrap(m Measurer, text string, maxWidth float64) []string {
	var lines []string
	line := ""
	for _, w := range strings.Fields(text) {
		if line == "" {
			line = w
			continue
		}
		test := line + " " + w
		if width(m, test) > maxWidth {
			lines = append(lines, line)
			line = w
			continue
		}
		line = test
	}
	if line != "" {
		lines = append(lines, line)
	}
	return lines
}

// FitSize returns the largest size, stepping down from maxSize by step, at
// which measureAt(size) fits in maxWidth. It stops at minSize.
func FitSize(maxWidth, maxSize, minSize, step float64, measureAt func(size float64) float64) float64 {
	size := maxSize
	for size > minSize {
		if measureAt(size) <= maxWidth {
			return size
		}
		size -= step
	}
	return minSize
}

// CenterBlock wraps text and centres the block on (cx, cy). Word X values are
// line centres; draw them with a 0.5 horizontal anchor.
func CenterBlock(m Measurer, text string, cx, cy, maxWidth, lineHeight float64) []Line {
	wrapped := Wrap(m, text, maxWidth)
	y := cy - float64(len(wrapped))*lineHeight/2
	out := make([]Line, 0, len(wrapped))
	for _, l := range wrapped {
		out = append(out, Line{Y: y, Words: []Word{{Text: l, X: cx}}})
		y += lineHeight
	}
	return out
}

// Justify lays out paragraphs separated by '\n'. Every wrapped line except a
// paragraph's last is stretched to maxWidth by widening the gaps between
// words; single-word lines and last lines stay left-aligned at x.
// paragraphGap is added after each paragraph.
func Justify(m Measurer, text string, x, y, maxWidth, lineHeight, paragraphGap float64) []Line {
	if text == "" {
		return nil
	}
	var out []Line
	for _, para := range strings.Split(text, "\n") {
		wrapped := Wrap(m, para, maxWidth)
		for i, l := range wrapped {
			words := strings.Fields(l)
			last := i == len(wrapped)-1
			if last || len(words) < 2 {
				out = append(out, Line{Y: y, Words: []Word{{Text: l, X: x}}})
				y += lineHeight
				continue
			}

			sum := 0.0
			widths := make([]float64, len(words))
			for j, w := range words {
				widths[j] = width(m, w)
				sum += widths[j]
			}
			spacing := (maxWidth - sum) / float64(len(words)-1)

			line := Line{Y: y, Words: make([]Word, len(words))}
			cursor := x
			for j, w := range words {
				line.Words[j] = Word{Text: w, X: cursor}
				cursor += widths[j] + spacing
			}
			out = append(out, line)
			y += lineHeight
		}
		y += paragraphGap
	}
	return out
}

func width(m Measurer, s string) float64 {
	w, _ := m.MeasureString(s)
	return w
}
