package tui

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

const tabWidth = 4

type styledRune struct {
	s       string
	width   int
	isSpace bool
	newline bool
	caret   bool
}

// buildStyledRunes lays out document text for display. Tabs expand to the
// next tab stop and carriage returns are dropped. When caret >= 0 the rune at
// the caret (or a trailing cell) is highlighted.
func buildStyledRunes(runes []rune, caret int) []styledRune {
	out := make([]styledRune, 0, len(runes)+1)
	col := 0
	for i, r := range runes {
		atCaret := i == caret
		switch r {
		case '\n':
			if atCaret {
				out = append(out, styledRune{s: cursorStyle.Render(" "), width: 1, caret: true})
			}
			out = append(out, styledRune{newline: true})
			col = 0
			continue
		case '\r':
			continue
		case '\t':
			n := tabWidth - col%tabWidth
			for j := 0; j < n; j++ {
				style := textStyle
				if atCaret && j == 0 {
					style = cursorStyle
				}
				out = append(out, styledRune{
					s:       style.Render(" "),
					width:   1,
					isSpace: true,
					caret:   atCaret && j == 0,
				})
			}
			col += n
			continue
		}
		style := textStyle
		if atCaret {
			style = cursorStyle
		}
		w := runewidth.RuneWidth(r)
		out = append(out, styledRune{
			s:       style.Render(string(r)),
			width:   w,
			isSpace: r == ' ',
			caret:   atCaret,
		})
		col += w
	}
	if caret >= len(runes) {
		out = append(out, styledRune{s: cursorStyle.Render(" "), width: 1, caret: true})
	}
	return out
}

func renderStyledRunes(runes []styledRune) string {
	var b strings.Builder
	for _, item := range runes {
		b.WriteString(item.s)
	}
	return b.String()
}

// wrapStyledRunes breaks runes into lines no wider than width, preferring
// the last space on the line. It returns the text and the line holding the
// caret, or -1.
func wrapStyledRunes(runes []styledRune, width int) (string, int) {
	var lines []string
	caretLine := -1
	flush := func(part []styledRune) {
		for _, item := range part {
			if item.caret {
				caretLine = len(lines)
				break
			}
		}
		lines = append(lines, renderStyledRunes(part))
	}

	line := make([]styledRune, 0, len(runes))
	lineWidth := 0
	lastSpaceIdx := -1

	for i := 0; i < len(runes); {
		item := runes[i]
		if item.newline {
			flush(line)
			line = line[:0]
			lineWidth = 0
			lastSpaceIdx = -1
			i++
			continue
		}
		if width > 0 && lineWidth+item.width > width && len(line) > 0 {
			if lastSpaceIdx >= 0 {
				flush(line[:lastSpaceIdx+1])
				rest := append([]styledRune{}, line[lastSpaceIdx+1:]...)
				line = append(line[:0], rest...)
				lineWidth = lineWidthOf(line)
				lastSpaceIdx = lastSpaceIndex(line)
			} else {
				flush(line)
				line = line[:0]
				lineWidth = 0
				lastSpaceIdx = -1
			}
			continue
		}
		line = append(line, item)
		lineWidth += item.width
		if item.isSpace {
			lastSpaceIdx = len(line) - 1
		}
		i++
	}
	flush(line)
	return strings.Join(lines, "\n"), caretLine
}

func lineWidthOf(line []styledRune) int {
	total := 0
	for _, item := range line {
		total += item.width
	}
	return total
}

func lastSpaceIndex(line []styledRune) int {
	for i := len(line) - 1; i >= 0; i-- {
		if line[i].isSpace {
			return i
		}
	}
	return -1
}
