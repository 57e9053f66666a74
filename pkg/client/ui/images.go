// ABOUTME: Inline image rendering via the iTerm2 OSC 1337 escape protocol
// ABOUTME: Terminals without support get a text placeholder and a one-time hint
package ui

import (
	"encoding/base64"
	"os"
	"strconv"

	"github.com/aeolun/parley/pkg/client"
	"github.com/aeolun/parley/pkg/protocol"
)

// supportsInlineImages reports whether the running terminal understands
// the iTerm2 inline-image escape sequence. Detection is by environment
// only; there is no reliable in-band query.
func supportsInlineImages() bool {
	switch os.Getenv("TERM_PROGRAM") {
	case "iTerm.app", "WezTerm", "mintty":
		return true
	}
	return os.Getenv("TERM") == "xterm-kitty"
}

// inlineImage encodes image bytes as an OSC 1337 sequence. The sequence
// occupies zero visible cells as far as layout code is concerned, so it
// bypasses line wrapping and is emitted as its own display line.
func inlineImage(data []byte) string {
	encoded := base64.StdEncoding.EncodeToString(data)
	return "\x1b]1337;File=inline=1;size=" + strconv.Itoa(len(data)) + ":" + encoded + "\a"
}

// imagePlaceholder is the fallback line shown in place of an image on
// terminals without inline support.
func imagePlaceholder(format protocol.ImageFormat, size int) string {
	return MutedTextStyle.Render("[image: " + format.String() + ", " + client.FormatBytes(uint64(size)) + "]")
}

// imageHint is appended to the active room once, the first time an image
// cannot be rendered inline.
const imageHint = "this terminal cannot show images inline; try iTerm2, WezTerm or kitty"
