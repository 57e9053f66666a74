package ui

import (
	"fmt"
	"strings"

	"github.com/76creates/stickers/flexbox"
	"github.com/aeolun/parley/pkg/client"
	"github.com/charmbracelet/lipgloss"
)

// View renders the current frame
func (m Model) View() string {
	// Don't render until we have dimensions
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	if m.connState == client.StateTerminated {
		return m.renderTerminatedOverlay()
	}

	if m.showHelp {
		return m.renderHelp()
	}

	header := m.renderHeader()
	body := m.panes.content
	if !m.paneCacheFresh() {
		// The cache is refreshed inside Update; this path covers frames
		// where a footer change resized the body between refreshes.
		body = m.buildPanes()
	}
	footer := m.renderFooter()

	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

// refreshPanes rebuilds the cached pane block when it no longer matches
// the store revision, the layout, the active room, or the scroll offset.
func (m *Model) refreshPanes() {
	if m.width == 0 || m.height == 0 {
		return
	}
	if m.paneCacheFresh() {
		return
	}
	m.panes = paneCache{
		content:  m.buildPanes(),
		revision: m.rooms.Revision(),
		width:    m.width,
		height:   m.bodyHeight(),
		room:     m.rooms.Active(),
		scroll:   m.scroll,
		ok:       true,
	}
}

func (m Model) paneCacheFresh() bool {
	return m.panes.ok &&
		m.panes.revision == m.rooms.Revision() &&
		m.panes.width == m.width &&
		m.panes.height == m.bodyHeight() &&
		m.panes.room == m.rooms.Active() &&
		m.panes.scroll == m.scroll
}

// footerHeight is the rows below the pane block: completion popup when
// visible, the input line, and the hint line.
func (m Model) footerHeight() int {
	return m.completion.Height() + 2
}

func (m Model) bodyHeight() int {
	return max(3, m.height-1-m.footerHeight())
}

// chatPageSize is the number of message lines the chat pane shows: the
// body minus the pane border and the room title line.
func (m Model) chatPageSize() int {
	return max(1, m.bodyHeight()-3)
}

// paneWidths splits the terminal width across the visible panes. Narrow
// terminals get chat only, medium ones add the room list, wide ones the
// user list as well.
func (m Model) paneWidths() (rooms, chat, users int) {
	switch {
	case m.width < narrowWidth:
		return 0, m.width, 0
	case m.width < wideWidth:
		rooms = m.width / 4
		return rooms, m.width - rooms, 0
	default:
		rooms = m.width / 5
		users = m.width / 5
		return rooms, m.width - rooms - users, users
	}
}

// buildPanes renders the pane block using flexbox for stable layout.
func (m Model) buildPanes() string {
	bodyH := m.bodyHeight()
	roomsW, chatW, usersW := m.paneWidths()

	layout := flexbox.NewHorizontal(m.width, bodyH)

	var columns []*flexbox.Column
	if roomsW > 0 {
		columns = append(columns, layout.NewColumn().AddCells(
			flexbox.NewCell(1, 1).
				SetStyle(RoomPaneStyle).
				SetContent(m.buildRoomPane(bodyH-2)),
		))
	}

	chatRatio := 3
	if roomsW == 0 && usersW == 0 {
		chatRatio = 1
	}
	columns = append(columns, layout.NewColumn().AddCells(
		flexbox.NewCell(chatRatio, 1).
			SetStyle(ChatPaneStyle).
			SetContent(m.buildChatPane(bodyH-2, chatW-4)),
	))

	if usersW > 0 {
		columns = append(columns, layout.NewColumn().AddCells(
			flexbox.NewCell(1, 1).
				SetStyle(UserPaneStyle).
				SetContent(m.buildUserPane(bodyH-2)),
		))
	}

	layout.AddColumns(columns)
	return layout.Render()
}

// buildRoomPane renders the joined-room list with switch indices and
// unread markers, followed by the discoverable catalog.
func (m Model) buildRoomPane(height int) string {
	var items []string
	items = append(items, RoomTitleStyle.Render("Rooms"))

	active := m.rooms.Active()
	for i, room := range m.rooms.Joined() {
		label := fmt.Sprintf("%d #%s", i+1, room)
		if users := m.rooms.UserCount(room); users > 0 {
			label += fmt.Sprintf(" (%d)", users)
		}
		switch {
		case room == active:
			items = append(items, SelectedItemStyle.Render("▶ "+label))
		case m.rooms.HasUnread(room):
			items = append(items, UnreadRoomStyle.Render("  "+label+" ●"))
		default:
			items = append(items, UnselectedItemStyle.Render("  "+label))
		}
	}

	var discover []string
	for _, cat := range m.rooms.Catalog() {
		if m.rooms.IsJoined(cat.Name) {
			continue
		}
		label := "  #" + cat.Name
		if cat.Private {
			label += " (p)"
		}
		discover = append(discover, MutedTextStyle.Render(label))
	}
	if len(discover) > 0 {
		items = append(items, "", RoomTitleStyle.Render("Discover"))
		items = append(items, discover...)
	}

	if len(items) > height && height > 0 {
		items = items[:height]
	}
	return strings.Join(items, "\n")
}

// buildUserPane renders the nicknames seen in the active room.
func (m Model) buildUserPane(height int) string {
	room := m.rooms.Active()
	users := m.rooms.KnownUsers(room)
	count := m.rooms.UserCount(room)
	if count < len(users) {
		count = len(users)
	}

	var items []string
	items = append(items, UserTitleStyle.Render(fmt.Sprintf("Users (%d)", count)))
	for _, user := range users {
		if user == m.nickname {
			items = append(items, MessageOwnSenderStyle.Render("  "+user))
		} else {
			items = append(items, UnselectedItemStyle.Render("  "+user))
		}
	}
	if len(users) == 0 {
		items = append(items, MutedTextStyle.Render("  (nobody seen yet)"))
	}

	if len(items) > height && height > 0 {
		items = items[:height]
	}
	return strings.Join(items, "\n")
}

// buildChatPane renders the active room's title and the scroll window of
// its wrapped history.
func (m Model) buildChatPane(height, width int) string {
	room := m.rooms.Active()

	title := RoomTitleStyle.Render("#" + room)
	if users := m.rooms.UserCount(room); users > 0 {
		title += MutedTextStyle.Render(fmt.Sprintf("  %d online", users))
	}

	lines := m.chatLines(width)
	page := max(1, height-1) // minus the title line
	total := len(lines)

	end := total - m.scroll
	if end > total {
		end = total
	}
	if end < 0 {
		end = 0
	}
	start := end - page
	if start < 0 {
		start = 0
	}
	window := lines[start:end]

	var b strings.Builder
	b.WriteString(title)
	b.WriteString("\n")
	if total == 0 {
		b.WriteString(MutedTextStyle.Render("  (no messages yet)"))
	} else {
		b.WriteString(strings.Join(window, "\n"))
	}
	if m.scroll > 0 {
		b.WriteString("\n")
		b.WriteString(MutedTextStyle.Render(fmt.Sprintf("↓ %d lines below", m.scroll)))
	}
	return b.String()
}

// chatLines flattens the active room's history into wrapped display
// lines at the given width.
func (m Model) chatLines(width int) []string {
	if width < 10 {
		width = 10
	}
	var lines []string
	for _, msg := range m.rooms.History(m.rooms.Active()) {
		lines = append(lines, m.formatMessage(msg, width)...)
	}
	return lines
}

// formatMessage renders one stored message into display lines:
// [time] sender content, continuations indented under the content column.
func (m Model) formatMessage(msg client.Message, width int) []string {
	if msg.Kind == client.KindSystem {
		return m.formatSystemLines(msg.Content, width)
	}

	prefix := ""
	if m.showTimestamps {
		prefix += MessageTimeStyle.Render("["+client.FormatClock(msg.Timestamp, m.timestampFormat)+"]") + " "
	}
	sender := msg.Sender
	if sender == "" {
		sender = "?"
	}
	if msg.Own {
		prefix += MessageOwnSenderStyle.Render(sender)
	} else {
		prefix += MessageSenderStyle.Render(sender)
	}
	if msg.Location != nil && msg.Location.CountryCode != "" {
		prefix += MutedTextStyle.Render(" (" + msg.Location.CountryCode + ")")
	}
	prefix += " "
	prefixWidth := lipgloss.Width(prefix)

	if msg.Kind == client.KindImage {
		if m.inlineImages {
			// The escape sequence renders the image itself; keep it on
			// its own line so wrapping never slices it.
			return []string{strings.TrimRight(prefix, " "), inlineImage(msg.Image)}
		}
		return []string{prefix + imagePlaceholder(msg.ImageFormat, len(msg.Image))}
	}

	contentWidth := width - prefixWidth
	if contentWidth < 10 {
		contentWidth = 10
	}

	var out []string
	indent := strings.Repeat(" ", min(prefixWidth, width/2))
	for i, raw := range strings.Split(msg.Content, "\n") {
		wrapped := wrapLine(raw, contentWidth)
		for j, line := range wrapped {
			rendered := MessageContentStyle.Render(line)
			if i == 0 && j == 0 {
				out = append(out, prefix+rendered)
			} else {
				out = append(out, indent+rendered)
			}
		}
	}
	if len(out) == 0 {
		out = []string{strings.TrimRight(prefix, " ")}
	}
	return out
}

// formatSystemLines renders a system notice, wrapped and muted.
func (m Model) formatSystemLines(content string, width int) []string {
	contentWidth := width - 2
	if contentWidth < 10 {
		contentWidth = 10
	}
	var out []string
	for _, raw := range strings.Split(content, "\n") {
		for _, line := range wrapLine(raw, contentWidth) {
			out = append(out, SystemNoticeStyle.Render("· "+line))
		}
	}
	return out
}

// renderHeader shows the product name, connection state, identity, and
// traffic counters.
func (m Model) renderHeader() string {
	left := HeaderStyle.Render("parley " + m.currentVersion)

	var status string
	switch m.connState {
	case client.StateConnected:
		status = "Connected"
		if m.nickname != "" {
			status = "Connected: " + m.nickname
		}
		sent := client.FormatBytes(m.conn.GetBytesSent())
		recv := client.FormatBytes(m.conn.GetBytesReceived())
		status += MutedTextStyle.Render(fmt.Sprintf("  ↑%s ↓%s", sent, recv))
	case client.StateConnecting:
		status = m.spinner.View() + " Connecting…"
	case client.StateReconnecting:
		status = WarningStyle.Render(fmt.Sprintf("%s Reconnecting (attempt %d, next in %s)",
			m.spinner.View(), m.reconnectAttempt, m.reconnectDelay))
	case client.StateDisconnected:
		status = ErrorStyle.Render("Disconnected")
	}

	right := StatusStyle.Render(status)
	spacer := strings.Repeat(" ", max(0, m.width-lipgloss.Width(left)-lipgloss.Width(right)))

	return left + spacer + right
}

// renderFooter stacks the completion popup, the input line, and the hint
// line.
func (m Model) renderFooter() string {
	var parts []string
	if popup := m.completion.Render(m.width); popup != "" {
		parts = append(parts, popup)
	}
	parts = append(parts, m.renderInputLine())
	parts = append(parts, m.renderHintLine())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// renderInputLine renders the prompt and the live buffer, keeping the
// cursor visible when the buffer outgrows the width.
func (m Model) renderInputLine() string {
	var prompt string
	buffer := m.editor.Render()
	if m.flow != nil {
		prompt = FlowPromptStyle.Render(m.flow.Prompt())
		if m.flow.Masked() {
			buffer = m.editor.RenderMasked()
		}
	} else {
		prompt = MutedTextStyle.Render("[#"+m.rooms.Active()+"]") + " "
	}

	avail := m.width - lipgloss.Width(prompt) - 2
	if avail > 0 && lipgloss.Width(buffer) > avail {
		// Show the tail; that is where the cursor lives.
		runes := []rune(buffer)
		if len(runes) > avail {
			buffer = string(runes[len(runes)-avail:])
		}
	}
	return " " + prompt + buffer
}

// renderHintLine picks the one most relevant line of feedback: errors,
// then flow guidance, then status, then command hints, then shortcuts.
func (m Model) renderHintLine() string {
	content := ""
	switch {
	case m.errorMessage != "":
		content = RenderError(m.errorMessage)
	case m.flow != nil:
		content = m.flow.Hint()
	case m.statusMessage != "":
		content = RenderSuccess(m.statusMessage)
	case strings.HasPrefix(m.editor.String(), "/"):
		content = commandHint(m.editor.String())
	default:
		content = strings.Join([]string{
			RenderShortcut("/help", "commands"),
			RenderShortcut("@", "send image"),
			RenderShortcut("PgUp", "scroll"),
		}, "  ")
	}

	// Truncate with a fade when the line is too wide (padding eats 2).
	maxWidth := m.width - 2
	if lipgloss.Width(content) > maxWidth {
		content = fadeTruncate(content, maxWidth)
	}
	return FooterStyle.Render(content)
}

// fadeTruncate cuts content to maxWidth visible cells, fading the last
// characters out instead of a hard chop.
func fadeTruncate(content string, maxWidth int) string {
	fadeLength := 3
	truncateAt := maxWidth - fadeLength - 1
	if truncateAt < 1 {
		return truncateVisible(content, maxWidth)
	}
	trimmed := strings.TrimRight(truncateVisible(content, truncateAt), " ")
	remaining := visibleSlice(content, lipgloss.Width(trimmed), fadeLength)

	fadeColors := []string{"#666666", "#444444", "#222222"}
	var faded strings.Builder
	for i, r := range []rune(remaining) {
		if i < len(fadeColors) {
			faded.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(fadeColors[i])).Render(string(r)))
		} else {
			faded.WriteRune(r)
		}
	}
	return trimmed + faded.String() + "…"
}

// truncateVisible cuts s to maxWidth visible cells, keeping escape
// sequences intact.
func truncateVisible(s string, maxWidth int) string {
	if visibleWidth(s) <= maxWidth {
		return s
	}
	var out strings.Builder
	col := 0
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		if runes[i] == '\x1b' {
			end := skipEscape(runes, i)
			for ; i <= end; i++ {
				out.WriteRune(runes[i])
			}
			i = end
			continue
		}
		if col >= maxWidth {
			break
		}
		out.WriteRune(runes[i])
		col++
	}
	return out.String()
}

// visibleSlice returns up to length visible characters of s starting at
// visible position start, dropping escape sequences.
func visibleSlice(s string, start, length int) string {
	var out strings.Builder
	pos := 0
	taken := 0
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		if runes[i] == '\x1b' {
			i = skipEscape(runes, i)
			continue
		}
		if pos >= start {
			out.WriteRune(runes[i])
			taken++
			if taken >= length {
				break
			}
		}
		pos++
	}
	return out.String()
}

// renderHelp renders the full-screen help overlay.
func (m Model) renderHelp() string {
	title := HelpTitleStyle.Render("Keyboard Shortcuts & Commands")
	footer := MutedTextStyle.Render("[Press Esc to close, ↑/↓ to scroll]")
	body := m.helpViewport.View()

	content := lipgloss.JoinVertical(lipgloss.Left, title, body, "", footer)
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(PrimaryColor).
		Padding(1, 2).
		Render(content)

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

// buildHelpText builds the scrollable help content.
func (m Model) buildHelpText() string {
	row := func(key, desc string) string {
		return HelpKeyStyle.Render(key) + HelpDescStyle.Render(desc)
	}

	var lines []string
	lines = append(lines, HelpTitleStyle.Render("Commands"))
	for _, cmd := range slashCommands {
		lines = append(lines, row(cmd.usage, cmd.desc))
	}
	lines = append(lines, row("/1../9", "switch to the Nth joined room"))

	lines = append(lines, "", HelpTitleStyle.Render("Keys"))
	lines = append(lines, row("Enter", "send the typed line"))
	lines = append(lines, row("@path", "send an image file, Tab completes the path"))
	lines = append(lines, row("Tab", "complete commands and paths"))
	lines = append(lines, row("PgUp/PgDn", "scroll the chat pane"))
	lines = append(lines, row("↑/↓", "scroll one line (when the input is empty)"))
	lines = append(lines, row("Esc", "dismiss prompts and popups"))
	lines = append(lines, row("Ctrl+C", "quit"))

	lines = append(lines, "", HelpTitleStyle.Render("About"))
	lines = append(lines, HelpDescStyle.Render("parley "+m.currentVersion))
	if m.updateAvailable {
		lines = append(lines, RenderWarning("update available: "+m.latestVersion))
	}

	return strings.Join(lines, "\n")
}

// renderTerminatedOverlay renders the fatal connection-lost screen.
func (m Model) renderTerminatedOverlay() string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(ErrorColor).
		Align(lipgloss.Center).
		MarginBottom(2).
		Render("⚠  CONNECTION LOST  ⚠")

	message := lipgloss.NewStyle().
		Foreground(lipgloss.Color("252")).
		Align(lipgloss.Center).
		MarginBottom(1).
		Render("The connection to the server could not be restored.")

	info := lipgloss.NewStyle().
		Foreground(MutedColor).
		Align(lipgloss.Center).
		Render("Press [q] or [Enter] to exit, then start parley again.")

	content := lipgloss.JoinVertical(lipgloss.Center, "", title, message, info, "")

	box := lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(ErrorColor).
		Padding(2, 4).
		Render(content)

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
