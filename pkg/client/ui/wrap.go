// ABOUTME: ANSI-aware line wrapping for the chat pane
// ABOUTME: Escape sequences count as zero width and are carried through in place
package ui

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// wrapLine breaks s into display lines no wider than width visible cells.
// ANSI escape sequences are copied through without counting toward the
// width, so styled text keeps its styling across the break. Breaks happen
// at the last space on the line when that space sits past a quarter of the
// width; otherwise the line is broken mid-word so that pathological tokens
// (long URLs, minified blobs) cannot push a line past the pane edge.
func wrapLine(s string, width int) []string {
	if width <= 0 {
		return []string{s}
	}
	if visibleWidth(s) <= width {
		return []string{s}
	}

	var lines []string
	var line strings.Builder
	col := 0
	spaceAt := -1 // byte offset of the last space written to line
	spaceCol := 0 // visible column of that space

	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r == '\x1b' {
			end := skipEscape(runes, i)
			for ; i <= end; i++ {
				line.WriteRune(runes[i])
			}
			i = end
			continue
		}

		w := runewidth.RuneWidth(r)
		if col+w > width && col > 0 {
			if spaceAt >= 0 && spaceCol > width/4 {
				// Break at the space and carry the tail over.
				full := line.String()
				lines = append(lines, full[:spaceAt])
				tail := full[spaceAt+1:]
				line.Reset()
				line.WriteString(tail)
				col = col - spaceCol - 1
			} else {
				lines = append(lines, line.String())
				line.Reset()
				col = 0
			}
			spaceAt = -1
		}

		if r == ' ' {
			spaceAt = line.Len()
			spaceCol = col
		}
		line.WriteRune(r)
		col += w
	}

	if line.Len() > 0 || len(lines) == 0 {
		lines = append(lines, line.String())
	}
	return lines
}

// visibleWidth returns the number of terminal cells s occupies, skipping
// ANSI escape sequences and counting wide runes as two cells.
func visibleWidth(s string) int {
	runes := []rune(s)
	w := 0
	for i := 0; i < len(runes); i++ {
		if runes[i] == '\x1b' {
			i = skipEscape(runes, i)
			continue
		}
		w += runewidth.RuneWidth(runes[i])
	}
	return w
}

// skipEscape returns the index of the final rune of the escape sequence
// starting at runes[i] (which must be ESC). Handles CSI sequences (ESC [
// ... final byte) and OSC sequences (ESC ] ... BEL or ESC \); anything
// else is treated as a two-rune sequence.
func skipEscape(runes []rune, i int) int {
	if i+1 >= len(runes) {
		return i
	}
	switch runes[i+1] {
	case '[':
		for j := i + 2; j < len(runes); j++ {
			if runes[j] >= '@' && runes[j] <= '~' {
				return j
			}
		}
		return len(runes) - 1
	case ']':
		for j := i + 2; j < len(runes); j++ {
			if runes[j] == '\a' {
				return j
			}
			if runes[j] == '\x1b' && j+1 < len(runes) && runes[j+1] == '\\' {
				return j + 1
			}
		}
		return len(runes) - 1
	default:
		return i + 1
	}
}

// maxScrollOffset returns the largest scrollback offset for a pane showing
// paneHeight of totalLines wrapped lines. Zero when everything fits.
func maxScrollOffset(totalLines, paneHeight int) int {
	if totalLines <= paneHeight {
		return 0
	}
	return totalLines - paneHeight
}
