package ui

// lineEditor is the single-line input buffer at the bottom of the screen.
// It operates on runes so multi-byte input edits cleanly.
type lineEditor struct {
	buffer []rune
	cursor int
}

// String returns the buffer contents.
func (e *lineEditor) String() string {
	return string(e.buffer)
}

// Empty reports whether the buffer has no content.
func (e *lineEditor) Empty() bool {
	return len(e.buffer) == 0
}

// Len returns the buffer length in runes.
func (e *lineEditor) Len() int {
	return len(e.buffer)
}

// Insert places runes at the cursor and advances it.
func (e *lineEditor) Insert(runes []rune) {
	if len(runes) == 0 {
		return
	}
	e.buffer = append(e.buffer[:e.cursor], append(append([]rune{}, runes...), e.buffer[e.cursor:]...)...)
	e.cursor += len(runes)
}

// Backspace removes the rune before the cursor.
func (e *lineEditor) Backspace() {
	if e.cursor == 0 {
		return
	}
	e.buffer = append(e.buffer[:e.cursor-1], e.buffer[e.cursor:]...)
	e.cursor--
}

// Delete removes the rune under the cursor.
func (e *lineEditor) Delete() {
	if e.cursor >= len(e.buffer) {
		return
	}
	e.buffer = append(e.buffer[:e.cursor], e.buffer[e.cursor+1:]...)
}

// Left moves the cursor one rune left.
func (e *lineEditor) Left() {
	if e.cursor > 0 {
		e.cursor--
	}
}

// Right moves the cursor one rune right.
func (e *lineEditor) Right() {
	if e.cursor < len(e.buffer) {
		e.cursor++
	}
}

// Home moves the cursor to the start of the buffer.
func (e *lineEditor) Home() {
	e.cursor = 0
}

// End moves the cursor past the last rune.
func (e *lineEditor) End() {
	e.cursor = len(e.buffer)
}

// Clear empties the buffer and resets the cursor.
func (e *lineEditor) Clear() {
	e.buffer = e.buffer[:0]
	e.cursor = 0
}

// Set replaces the buffer contents and places the cursor at the end.
func (e *lineEditor) Set(s string) {
	e.buffer = []rune(s)
	e.cursor = len(e.buffer)
}

// Render returns the buffer with a block cursor at the insertion point.
func (e *lineEditor) Render() string {
	if e.cursor >= len(e.buffer) {
		return string(e.buffer) + "█"
	}
	return string(e.buffer[:e.cursor]) + "█" + string(e.buffer[e.cursor+1:])
}

// RenderMasked renders the buffer as asterisks for password entry.
func (e *lineEditor) RenderMasked() string {
	masked := make([]rune, len(e.buffer))
	for i := range masked {
		masked[i] = '*'
	}
	if e.cursor >= len(masked) {
		return string(masked) + "█"
	}
	return string(masked[:e.cursor]) + "█" + string(masked[e.cursor+1:])
}
