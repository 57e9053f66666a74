// ABOUTME: Filesystem path completion for @-prefixed image sends
// ABOUTME: Candidates track the typed path and render as a popup above the input line
package ui

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/aeolun/parley/pkg/protocol"
)

// maxVisibleCandidates caps how many completion rows the popup shows at
// once; longer candidate lists scroll within the popup.
const maxVisibleCandidates = 8

// pathCompletion drives the @path completion popup. The input buffer owns
// the text; this struct only tracks the candidate list derived from it.
type pathCompletion struct {
	active     bool
	candidates []string // path portion to place after "@"; dirs end in "/"
	selected   int
	home       string // resolved lazily, overridable in tests
}

// homeDir returns the directory relative paths resolve against.
func (c *pathCompletion) homeDir() string {
	if c.home == "" {
		if home, err := os.UserHomeDir(); err == nil {
			c.home = home
		} else {
			c.home = "."
		}
	}
	return c.home
}

// Refresh rebuilds the candidate list from the current input buffer. Any
// buffer not starting with "@" deactivates completion. A bare "@" seeds
// the list with image files from the home directory; once a path is typed
// the list holds the entries of its directory matching the typed prefix,
// directories included so the user can descend.
func (c *pathCompletion) Refresh(buffer string) {
	if !strings.HasPrefix(buffer, "@") {
		c.Deactivate()
		return
	}
	c.active = true
	path := buffer[1:]

	prev := ""
	if c.selected < len(c.candidates) {
		prev = c.candidates[c.selected]
	}

	if path == "" {
		c.candidates = c.seedHome()
	} else {
		c.candidates = c.listDir(path)
	}

	// Keep the selection on the same candidate when it survives a refresh.
	c.selected = 0
	for i, cand := range c.candidates {
		if cand == prev {
			c.selected = i
			break
		}
	}
}

// seedHome lists image files directly under the home directory.
func (c *pathCompletion) seedHome() []string {
	entries, err := os.ReadDir(c.homeDir())
	if err != nil {
		return nil
	}
	var out []string
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if protocol.IsImagePath(entry.Name()) {
			out = append(out, entry.Name())
		}
	}
	sort.Strings(out)
	return out
}

// listDir lists entries of the typed path's directory that match its last
// segment as a prefix. The typed directory part is preserved verbatim in
// the candidates so applying one keeps the user's own spelling.
func (c *pathCompletion) listDir(path string) []string {
	dirPart, base := splitPathPrefix(path)
	entries, err := os.ReadDir(c.resolve(dirPart))
	if err != nil {
		return nil
	}
	var out []string
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, base) {
			continue
		}
		if strings.HasPrefix(name, ".") && !strings.HasPrefix(base, ".") {
			continue
		}
		if entry.IsDir() {
			out = append(out, dirPart+name+"/")
		} else if protocol.IsImagePath(name) {
			out = append(out, dirPart+name)
		}
	}
	sort.Strings(out)
	return out
}

// resolve maps a typed directory part to the filesystem directory to read.
// "~" and relative paths resolve against the home directory.
func (c *pathCompletion) resolve(dirPart string) string {
	switch {
	case dirPart == "":
		return c.homeDir()
	case dirPart == "~" || strings.HasPrefix(dirPart, "~/"):
		return filepath.Join(c.homeDir(), strings.TrimPrefix(dirPart[1:], "/"))
	case filepath.IsAbs(dirPart):
		return dirPart
	default:
		return filepath.Join(c.homeDir(), dirPart)
	}
}

// splitPathPrefix splits a typed path into its directory part (kept as
// typed, trailing separator included) and the final segment used as the
// match prefix.
func splitPathPrefix(path string) (dirPart, base string) {
	idx := strings.LastIndex(path, "/")
	if idx < 0 {
		return "", path
	}
	return path[:idx+1], path[idx+1:]
}

// ExpandPath turns a candidate or typed path into the filesystem path to
// open. Relative paths and "~" resolve against the home directory.
func (c *pathCompletion) ExpandPath(path string) string {
	switch {
	case path == "":
		return c.homeDir()
	case path == "~" || strings.HasPrefix(path, "~/"):
		return filepath.Join(c.homeDir(), strings.TrimPrefix(path[1:], "/"))
	case filepath.IsAbs(path):
		return path
	default:
		return filepath.Join(c.homeDir(), path)
	}
}

// Deactivate hides the popup and drops the candidates.
func (c *pathCompletion) Deactivate() {
	c.active = false
	c.candidates = nil
	c.selected = 0
}

// HasCandidates reports whether the popup has anything to offer.
func (c *pathCompletion) HasCandidates() bool {
	return c.active && len(c.candidates) > 0
}

// Selected returns the currently selected candidate, or "".
func (c *pathCompletion) Selected() string {
	if !c.active || c.selected >= len(c.candidates) {
		return ""
	}
	return c.candidates[c.selected]
}

// Next moves the selection down, wrapping at the end.
func (c *pathCompletion) Next() {
	if len(c.candidates) == 0 {
		return
	}
	c.selected = (c.selected + 1) % len(c.candidates)
}

// Prev moves the selection up, wrapping at the start.
func (c *pathCompletion) Prev() {
	if len(c.candidates) == 0 {
		return
	}
	c.selected--
	if c.selected < 0 {
		c.selected = len(c.candidates) - 1
	}
}

// visibleRange returns the candidate window to draw, keeping the selected
// entry centered once the list outgrows the popup.
func (c *pathCompletion) visibleRange() (start, end int) {
	start = 0
	end = len(c.candidates)
	if len(c.candidates) > maxVisibleCandidates {
		start = c.selected - maxVisibleCandidates/2
		if start < 0 {
			start = 0
		}
		end = start + maxVisibleCandidates
		if end > len(c.candidates) {
			end = len(c.candidates)
			start = end - maxVisibleCandidates
			if start < 0 {
				start = 0
			}
		}
	}
	return start, end
}

// Height returns the number of terminal rows the popup occupies, border
// included. Zero when the popup is hidden.
func (c *pathCompletion) Height() int {
	if !c.active {
		return 0
	}
	rows := len(c.candidates)
	if rows == 0 {
		rows = 1 // "(no matches)"
	}
	if rows > maxVisibleCandidates {
		rows = maxVisibleCandidates
	}
	return rows + 2 // rounded border
}

// Render draws the popup box. An active popup with no candidates renders
// a "(no matches)" hint so the user sees why Tab does nothing.
func (c *pathCompletion) Render(width int) string {
	if !c.active {
		return ""
	}
	boxWidth := width - 2
	if boxWidth < 20 {
		boxWidth = 20
	}

	if len(c.candidates) == 0 {
		return PopupStyle.Width(boxWidth).Render(MutedTextStyle.Render("(no matches)"))
	}

	start, end := c.visibleRange()
	var items []string
	for i := start; i < end; i++ {
		label := candidateLabel(c.candidates[i])
		if i == c.selected {
			items = append(items, PopupSelectedStyle.Render("> "+label))
		} else {
			items = append(items, PopupItemStyle.Render("  "+label))
		}
	}
	if len(c.candidates) > maxVisibleCandidates {
		items[len(items)-1] += MutedTextStyle.Render(
			"  (" + strconv.Itoa(c.selected+1) + "/" + strconv.Itoa(len(c.candidates)) + ")")
	}
	return PopupStyle.Width(boxWidth).Render(strings.Join(items, "\n"))
}

// candidateLabel shortens a candidate to its final path segment for
// display; directories keep their trailing slash.
func candidateLabel(cand string) string {
	trimmed := strings.TrimSuffix(cand, "/")
	idx := strings.LastIndex(trimmed, "/")
	label := trimmed
	if idx >= 0 {
		label = trimmed[idx+1:]
	}
	if strings.HasSuffix(cand, "/") {
		label += "/"
	}
	return label
}
