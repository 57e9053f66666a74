package ui

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/aeolun/parley/pkg/client"
	"github.com/aeolun/parley/pkg/protocol"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// Update handles incoming messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.helpViewport = viewport.New(max(20, m.width-8), max(5, m.height-6))
		m.helpViewport.SetContent(m.buildHelpText())
		m.clampScroll()
		m.panes.ok = false
		m.refreshPanes()
		return m, nil

	case ConnEventMsg:
		return m.handleConnEvent(msg.Event)

	case spinner.TickMsg:
		if m.connState == client.StateConnecting || m.connState == client.StateReconnecting {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case VersionCheckMsg:
		m.latestVersion = msg.LatestVersion
		m.updateAvailable = msg.UpdateAvailable
		if msg.UpdateAvailable {
			m.appendNotice(client.LobbyRoom, "parley "+msg.LatestVersion+" is available (you have "+m.currentVersion+")")
		}
		return m, nil

	case SendErrMsg:
		m.errorMessage = msg.Err.Error()
		return m, nil
	}

	return m, nil
}

// handleConnEvent folds one connection event into the model: session
// state first, then the room store via the router, then any follow-up
// sends and desktop notifications the router asked for.
func (m Model) handleConnEvent(ev client.Event) (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{listenForEvents(m.conn)}

	switch e := ev.(type) {
	case client.ConnectedEvent:
		m.connState = client.StateConnected
		m.reconnectAttempt = 0
	case client.ReconnectingEvent:
		m.connState = client.StateReconnecting
		m.reconnectAttempt = e.Attempt
		m.reconnectDelay = e.Delay
		cmds = append(cmds, m.spinner.Tick)
	case client.ReconnectedEvent:
		m.connState = client.StateConnected
		m.reconnectAttempt = 0
		m.statusMessage = "reconnected"
	case client.DisconnectedEvent:
		m.connState = client.StateDisconnected
	case client.TerminatedEvent:
		m.connState = client.StateTerminated
	}

	res := m.router.Apply(ev)

	if _, isImage := ev.(client.ImageEvent); isImage && !m.inlineImages {
		m.noteImageHintOnce()
	}

	for _, out := range res.Outbound {
		cmds = append(cmds, m.sendCmd(out))
	}
	if res.Join != nil {
		m.applyJoinOutcome(*res.Join)
	}
	if m.notifier != nil {
		for _, n := range res.Notifications {
			cmds = append(cmds, m.notifyCmd(n))
		}
	}

	m.panes.ok = false
	m.refreshPanes()
	return m, tea.Batch(cmds...)
}

// noteImageHintOnce appends the inline-image hint to the active room the
// first time an image cannot be rendered inline.
func (m *Model) noteImageHintOnce() {
	if m.imageHintShown {
		return
	}
	m.imageHintShown = true
	m.rooms.AppendMessage(client.Message{
		Kind:      client.KindSystem,
		Room:      m.rooms.Active(),
		Content:   imageHint,
		Timestamp: time.Now(),
	})
}

// applyJoinOutcome resolves a join answer against whatever UI was waiting
// on it: a password flow, a /join, or a room creation.
func (m *Model) applyJoinOutcome(j client.JoinOutcome) {
	if j.OK {
		m.scroll = 0
		m.errorMessage = ""
		m.statusMessage = "joined #" + j.Room
		if m.pendingJoin == j.Room {
			m.pendingJoin = ""
		}
		if f, ok := m.flow.(*RoomJoinFlow); ok && f.Room == j.Room {
			m.flow = nil
			m.editor.Clear()
		}
		if m.state != nil {
			m.state.TouchRoom(j.Room)
		}
		return
	}

	if m.pendingJoin == j.Room {
		m.pendingJoin = ""
	}

	if f, ok := m.flow.(*RoomJoinFlow); ok && f.Room == j.Room {
		if j.WrongPassword {
			// Re-open the password prompt instead of failing the flow.
			f.Waiting = false
			f.Err = "incorrect password, try again"
			m.editor.Clear()
			return
		}
		m.flow = nil
		m.editor.Clear()
	} else if j.WrongPassword {
		// The server wants a password we never prompted for (stale
		// rejoin password, or /join on a private room missing from the
		// catalog).
		m.flow = &RoomJoinFlow{Room: j.Room, Err: "password required"}
		m.editor.Clear()
		return
	}

	reason := j.Reason
	if reason == "" {
		reason = "could not join #" + j.Room
	}
	m.errorMessage = reason
}

// handleKeyPress routes a keystroke by precedence: quit, help overlay,
// active flow, then the regular editor.
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	if m.connState == client.StateTerminated {
		// Nothing left to do but leave.
		switch msg.String() {
		case "q", "enter", "esc":
			return m, tea.Quit
		}
		return m, nil
	}

	if m.showHelp {
		return m.handleHelpKeys(msg)
	}

	if m.flow != nil {
		return m.handleFlowKeys(msg)
	}

	return m.handleEditorKeys(msg)
}

// handleHelpKeys drives the help overlay.
func (m Model) handleHelpKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		m.showHelp = false
		return m, nil
	}
	var cmd tea.Cmd
	m.helpViewport, cmd = m.helpViewport.Update(msg)
	return m, cmd
}

// handleFlowKeys forwards keys to the active guided flow.
func (m Model) handleFlowKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch f := m.flow.(type) {
	case *RoomCreateFlow:
		return m.handleCreateFlowKeys(f, msg)
	case *RoomJoinFlow:
		return m.handleJoinFlowKeys(f, msg)
	}
	return m, nil
}

// handleCreateFlowKeys walks the room-creation flow.
func (m Model) handleCreateFlowKeys(f *RoomCreateFlow, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.flow = nil
		m.editor.Clear()
		m.statusMessage = "room creation cancelled"
		return m, nil

	case "enter":
		switch f.Step {
		case stepRoomName:
			name, err := validateRoomName(m.editor.String())
			if err != nil {
				f.Err = err.Error()
				return m, nil
			}
			if m.rooms.RoomExists(name) {
				f.Err = "a room called #" + name + " already exists"
				return m, nil
			}
			f.Name = name
			f.Err = ""
			f.Step = stepRoomPrivacy
			m.editor.Clear()
			return m, nil

		case stepRoomPassword:
			password := m.editor.String()
			if password == "" {
				f.Err = "password cannot be empty"
				return m, nil
			}
			m.router.RegisterPassword(f.Name, password)
			return m.finishCreateFlow(f, password)
		}
		return m, nil
	}

	if f.Step == stepRoomPrivacy {
		switch msg.String() {
		case "y", "Y":
			f.Private = true
			f.Err = ""
			f.Step = stepRoomPassword
			m.editor.Clear()
		case "n", "N":
			return m.finishCreateFlow(f, "")
		}
		return m, nil
	}

	m.applyEditorKey(msg)
	return m, nil
}

// finishCreateFlow sends the create request and hands the join handling
// over to the pending-join path; the server answers with the usual join
// messages.
func (m Model) finishCreateFlow(f *RoomCreateFlow, password string) (tea.Model, tea.Cmd) {
	if m.connState != client.StateConnected {
		f.Err = "not connected"
		return m, nil
	}
	m.pendingJoin = f.Name
	m.statusMessage = "creating #" + f.Name + "…"
	m.flow = nil
	m.editor.Clear()
	return m, m.sendCmd(&protocol.CreateRoom{
		Room:     f.Name,
		Private:  f.Private,
		Password: password,
	})
}

// handleJoinFlowKeys drives the password prompt for a private room.
func (m Model) handleJoinFlowKeys(f *RoomJoinFlow, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.flow = nil
		m.editor.Clear()
		m.statusMessage = "join cancelled"
		return m, nil

	case "enter":
		if f.Waiting {
			return m, nil
		}
		password := m.editor.String()
		if password == "cancel" {
			m.flow = nil
			m.editor.Clear()
			m.statusMessage = "join cancelled"
			return m, nil
		}
		if password == "" {
			f.Err = "password cannot be empty"
			return m, nil
		}
		if m.connState != client.StateConnected {
			f.Err = "not connected"
			return m, nil
		}
		f.Waiting = true
		f.Err = ""
		m.editor.Clear()
		m.router.RegisterPassword(f.Room, password)
		return m, m.sendCmd(&protocol.JoinRoom{Room: f.Room, Password: password})
	}

	if !f.Waiting {
		m.applyEditorKey(msg)
	}
	return m, nil
}

// handleEditorKeys is the default key handler: completion popup, scroll
// keys, then plain line editing.
func (m Model) handleEditorKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		return m.submit()

	case "tab":
		m.handleTabKey()
		m.refreshPanes()
		return m, nil

	case "esc":
		if m.completion.active {
			m.completion.Deactivate()
			m.refreshPanes()
			return m, nil
		}
		m.errorMessage = ""
		m.statusMessage = ""
		return m, nil

	case "up":
		if m.completion.HasCandidates() {
			m.completion.Prev()
			return m, nil
		}
		if m.editor.Empty() {
			m.scrollBy(1)
		}
		return m, nil

	case "down":
		if m.completion.HasCandidates() {
			m.completion.Next()
			return m, nil
		}
		if m.editor.Empty() {
			m.scrollBy(-1)
		}
		return m, nil

	case "pgup":
		m.scrollBy(m.chatPageSize())
		return m, nil

	case "pgdown":
		m.scrollBy(-m.chatPageSize())
		return m, nil
	}

	if m.applyEditorKey(msg) {
		// Typing clears stale feedback and retunes path completion.
		m.errorMessage = ""
		m.completion.Refresh(m.editor.String())
		m.refreshPanes()
	}
	return m, nil
}

// handleTabKey completes paths in @-mode and command names in /-mode.
func (m *Model) handleTabKey() {
	buffer := m.editor.String()
	switch {
	case strings.HasPrefix(buffer, "@"):
		if !m.completion.active {
			m.completion.Refresh(buffer)
		}
		if len(m.completion.candidates) == 1 {
			m.editor.Set("@" + m.completion.candidates[0])
			m.completion.Refresh(m.editor.String())
		} else {
			m.completion.Next()
		}
	case strings.HasPrefix(buffer, "/"):
		if completed, ok := completeCommand(buffer); ok {
			m.editor.Set(completed)
		}
	}
}

// applyEditorKey applies one basic editing key to the shared line editor,
// reporting whether it consumed the key.
func (m *Model) applyEditorKey(msg tea.KeyMsg) bool {
	if msg.Type == tea.KeyRunes {
		m.editor.Insert(msg.Runes)
		return true
	}
	switch msg.String() {
	case " ":
		m.editor.Insert([]rune{' '})
	case "backspace":
		m.editor.Backspace()
	case "delete":
		m.editor.Delete()
	case "left":
		m.editor.Left()
	case "right":
		m.editor.Right()
	case "home", "ctrl+a":
		m.editor.Home()
	case "end", "ctrl+e":
		m.editor.End()
	case "ctrl+u":
		m.editor.Clear()
	default:
		return false
	}
	return true
}

// submit dispatches the Enter key: apply a highlighted completion, run a
// command, send an image, or send the buffer as chat.
func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.completion.HasCandidates() {
		if cand := m.completion.Selected(); cand != "" && "@"+cand != m.editor.String() {
			m.editor.Set("@" + cand)
			m.completion.Refresh(m.editor.String())
			m.refreshPanes()
			return m, nil
		}
	}

	text := strings.TrimSpace(m.editor.String())
	if text == "" {
		return m, nil
	}

	if strings.HasPrefix(text, "/") {
		return m.runCommand(text)
	}
	if strings.HasPrefix(text, "@") {
		return m.sendImagePath(strings.TrimPrefix(text, "@"))
	}
	return m.sendChat(text)
}

// sendChat sends a chat line with an optimistic local echo. The echo
// registry makes sure the server's copy of our own message is dropped.
func (m Model) sendChat(text string) (tea.Model, tea.Cmd) {
	if m.connState != client.StateConnected {
		m.errorMessage = "not connected"
		return m, nil
	}
	room := m.rooms.Active()
	m.router.RegisterEcho(room, text)
	m.rooms.AppendMessage(client.Message{
		Kind:      client.KindText,
		Room:      room,
		Sender:    m.nickname,
		Content:   text,
		Timestamp: time.Now(),
		Location:  m.location,
		Own:       true,
	})
	m.editor.Clear()
	m.completion.Deactivate()
	m.scroll = 0
	m.panes.ok = false
	m.refreshPanes()
	return m, m.sendCmd(&protocol.SendMessage{
		Room:     room,
		Message:  text,
		Location: m.location,
	})
}

// sendImagePath validates and sends the image at the typed path, with an
// optimistic local copy in the active room.
func (m Model) sendImagePath(path string) (tea.Model, tea.Cmd) {
	path = strings.TrimSpace(path)
	if path == "" {
		m.errorMessage = "usage: @<path-to-image>"
		return m, nil
	}
	full := m.completion.ExpandPath(path)
	data, err := os.ReadFile(full)
	if err != nil {
		m.errorMessage = "cannot read " + full
		return m, nil
	}
	format, ok := protocol.SniffImage(data)
	if !ok {
		m.errorMessage = filepath.Base(full) + " is not a supported image (png, jpeg, gif, webp)"
		return m, nil
	}
	if len(data) > protocol.MaxImageBytes {
		m.errorMessage = filepath.Base(full) + " exceeds the 10MB image limit"
		return m, nil
	}
	if m.connState != client.StateConnected {
		m.errorMessage = "not connected"
		return m, nil
	}

	m.rooms.AppendMessage(client.Message{
		Kind:        client.KindImage,
		Room:        m.rooms.Active(),
		Sender:      m.nickname,
		Image:       data,
		ImageFormat: format,
		Timestamp:   time.Now(),
		Own:         true,
	})
	if !m.inlineImages {
		m.noteImageHintOnce()
	}
	m.editor.Clear()
	m.completion.Deactivate()
	m.scroll = 0
	m.panes.ok = false
	m.refreshPanes()

	conn := m.conn
	return m, func() tea.Msg {
		if err := conn.SendImage(data); err != nil {
			return SendErrMsg{Err: err}
		}
		return nil
	}
}

// runCommand dispatches a parsed /command.
func (m Model) runCommand(input string) (tea.Model, tea.Cmd) {
	name, args, ok := parseCommand(input)
	if !ok {
		return m, nil
	}
	m.editor.Clear()
	m.completion.Deactivate()

	if isRoomDigit(name) {
		return m.switchToIndex(int(name[0] - '0'))
	}

	cmd := lookupCommand(name)
	if cmd == nil {
		m.errorMessage = "unknown command /" + name + " (try /help)"
		return m, nil
	}

	switch cmd.name {
	case "help":
		m.showHelp = true
		m.helpViewport.GotoTop()
		return m, nil
	case "create":
		m.flow = &RoomCreateFlow{}
		return m, nil
	case "join":
		return m.joinRoomByName(args)
	case "leave":
		return m.leaveActiveRoom()
	case "users":
		return m.listUsers()
	case "rooms":
		return m.listRooms()
	case "clear":
		m.rooms.ClearHistory(m.rooms.Active())
		m.scroll = 0
		m.panes.ok = false
		m.refreshPanes()
		return m, nil
	case "quit":
		return m, tea.Quit
	}
	return m, nil
}

// joinRoomByName handles /join: switch when already joined, prompt for a
// password when the catalog says the room is private, otherwise ask the
// server directly.
func (m Model) joinRoomByName(args string) (tea.Model, tea.Cmd) {
	name := strings.TrimPrefix(strings.TrimSpace(args), "#")
	if name == "" {
		m.errorMessage = "usage: /join <room>"
		return m, nil
	}

	if m.rooms.IsJoined(name) {
		m.switchRoom(name)
		return m, nil
	}

	if cat, ok := m.rooms.CatalogRoom(name); ok && cat.Private {
		m.flow = &RoomJoinFlow{Room: name}
		m.editor.Clear()
		return m, nil
	}

	if m.connState != client.StateConnected {
		m.errorMessage = "not connected"
		return m, nil
	}
	m.pendingJoin = name
	m.statusMessage = "joining #" + name + "…"
	return m, m.sendCmd(&protocol.JoinRoom{Room: name})
}

// switchToIndex switches to the Nth joined room, 1-based as shown in the
// room pane.
func (m Model) switchToIndex(i int) (tea.Model, tea.Cmd) {
	room, ok := m.rooms.RoomByIndex(i)
	if !ok {
		m.errorMessage = "no room at position " + strconv.Itoa(i)
		return m, nil
	}
	m.switchRoom(room)
	return m, nil
}

// switchRoom makes a joined room active and resets the scroll position.
func (m *Model) switchRoom(room string) {
	if err := m.rooms.SwitchRoom(room); err != nil {
		m.errorMessage = err.Error()
		return
	}
	m.scroll = 0
	m.statusMessage = "#" + room
	if m.state != nil {
		m.state.TouchRoom(room)
	}
	m.panes.ok = false
	m.refreshPanes()
}

// leaveActiveRoom handles /leave. The store removes the room immediately;
// the server is told in parallel.
func (m Model) leaveActiveRoom() (tea.Model, tea.Cmd) {
	room := m.rooms.Active()
	if room == client.LobbyRoom {
		m.errorMessage = "you can't leave the lobby"
		return m, nil
	}
	if err := m.rooms.RemoveRoom(room); err != nil {
		m.errorMessage = err.Error()
		return m, nil
	}
	m.scroll = 0
	m.statusMessage = "left #" + room
	m.panes.ok = false
	m.refreshPanes()
	if m.connState != client.StateConnected {
		return m, nil
	}
	return m, m.sendCmd(&protocol.LeaveRoom{Room: room})
}

// listUsers prints the known members of the active room as a notice.
func (m Model) listUsers() (tea.Model, tea.Cmd) {
	room := m.rooms.Active()
	users := m.rooms.KnownUsers(room)
	count := m.rooms.UserCount(room)

	var text string
	if len(users) == 0 {
		text = "no users seen in #" + room + " yet"
	} else {
		text = "in #" + room + ": " + strings.Join(users, ", ")
	}
	if count > len(users) {
		text += " (" + strconv.Itoa(count) + " online)"
	}
	m.appendNotice(room, text)
	return m, nil
}

// listRooms prints the server's room catalog plus recently visited rooms.
func (m Model) listRooms() (tea.Model, tea.Cmd) {
	room := m.rooms.Active()
	catalog := m.rooms.Catalog()

	var b strings.Builder
	if len(catalog) == 0 {
		b.WriteString("no rooms announced by the server yet")
	} else {
		b.WriteString("rooms:")
		for _, cat := range catalog {
			b.WriteString("\n  #" + cat.Name)
			if cat.Private {
				b.WriteString(" (private)")
			}
			if cat.Users > 0 {
				b.WriteString(" - " + strconv.Itoa(cat.Users) + " online")
			}
			if m.rooms.IsJoined(cat.Name) {
				b.WriteString(" [joined]")
			}
		}
	}
	if m.state != nil {
		if recent, err := m.state.RecentRooms(5); err == nil && len(recent) > 0 {
			b.WriteString("\nrecently visited: #" + strings.Join(recent, " #"))
		}
	}
	m.appendNotice(room, b.String())
	return m, nil
}

// appendNotice adds a local system line to a room and refreshes the
// panes.
func (m *Model) appendNotice(room, text string) {
	m.rooms.AppendMessage(client.Message{
		Kind:      client.KindSystem,
		Room:      room,
		Content:   text,
		Timestamp: time.Now(),
	})
	m.scroll = 0
	m.panes.ok = false
	m.refreshPanes()
}

// scrollBy moves the chat scrollback by delta wrapped lines, clamped to
// the available history. Positive deltas scroll toward older content.
func (m *Model) scrollBy(delta int) {
	m.scroll += delta
	m.clampScroll()
	m.panes.ok = false
	m.refreshPanes()
}

// clampScroll pins the scrollback offset into the valid range for the
// current layout. The range shrinks when the terminal does, so resizes
// re-clamp too.
func (m *Model) clampScroll() {
	_, chatWidth, _ := m.paneWidths()
	lines := m.chatLines(chatWidth - 4)
	limit := maxScrollOffset(len(lines), m.chatPageSize())
	if m.scroll > limit {
		m.scroll = limit
	}
	if m.scroll < 0 {
		m.scroll = 0
	}
}

// sendCmd wraps an outbound protocol message as a command so the send
// happens off the update loop.
func (m Model) sendCmd(msg protocol.ClientMessage) tea.Cmd {
	conn := m.conn
	return func() tea.Msg {
		if err := conn.Send(msg); err != nil {
			return SendErrMsg{Err: err}
		}
		return nil
	}
}

// notifyCmd fires a desktop notification in the background.
func (m Model) notifyCmd(n client.Notification) tea.Cmd {
	notifier := m.notifier
	return func() tea.Msg {
		notifier.Notify(n.Room, n.Sender, n.Body)
		return nil
	}
}
