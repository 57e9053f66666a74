package ui

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aeolun/parley/pkg/client"
	"github.com/aeolun/parley/pkg/protocol"
	tea "github.com/charmbracelet/bubbletea"
)

// Test keyboard handling: editing, commands, and the guided flows

func TestKeyboard_CtrlCQuits(t *testing.T) {
	m := SetupTestModelWithDimensions(100, 30)

	_, cmd := pressKey(t, m, tea.KeyCtrlC)

	if cmd == nil {
		t.Fatal("Ctrl+C should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("Ctrl+C should quit")
	}
}

func TestKeyboard_BasicEditing(t *testing.T) {
	m := SetupTestModelWithDimensions(100, 30)

	m = typeText(t, m, "hello")
	if m.editor.String() != "hello" {
		t.Fatalf("editor = %q, want %q", m.editor.String(), "hello")
	}

	m, _ = pressKey(t, m, tea.KeyHome)
	m = typeText(t, m, "say ")
	if m.editor.String() != "say hello" {
		t.Fatalf("editor after Home+insert = %q, want %q", m.editor.String(), "say hello")
	}

	m, _ = pressKey(t, m, tea.KeyEnd)
	m, _ = pressKey(t, m, tea.KeyBackspace)
	if m.editor.String() != "say hell" {
		t.Fatalf("editor after Backspace = %q", m.editor.String())
	}

	m, _ = pressKey(t, m, tea.KeyLeft)
	m, _ = pressKey(t, m, tea.KeyDelete)
	if m.editor.String() != "say hel" {
		t.Fatalf("editor after Left+Delete = %q", m.editor.String())
	}

	m, _ = pressKey(t, m, tea.KeyCtrlU)
	if !m.editor.Empty() {
		t.Error("Ctrl+U should clear the buffer")
	}
}

func TestKeyboard_EscClearsFeedback(t *testing.T) {
	m := SetupTestModelWithDimensions(100, 30)
	m.errorMessage = "boom"
	m.statusMessage = "old news"

	m, _ = pressKey(t, m, tea.KeyEsc)

	if m.errorMessage != "" || m.statusMessage != "" {
		t.Error("Esc should clear error and status messages")
	}
}

func TestKeyboard_EnterSendsChat(t *testing.T) {
	m := SetupTestModelWithDimensions(100, 30)
	m = typeText(t, m, "hello room")

	m, cmd := pressKey(t, m, tea.KeyEnter)
	runCmd(cmd)

	history := m.rooms.History("lobby")
	if len(history) != 1 {
		t.Fatalf("history holds %d messages, want 1", len(history))
	}
	if !history[0].Own || history[0].Content != "hello room" {
		t.Errorf("local echo = %+v", history[0])
	}
	if !m.editor.Empty() {
		t.Error("Send should clear the input buffer")
	}

	conn := testConn(t, m)
	if len(conn.sent) != 1 {
		t.Fatalf("connection saw %d sends, want 1", len(conn.sent))
	}
	sent, ok := conn.sent[0].(*protocol.SendMessage)
	if !ok {
		t.Fatalf("sent message is %T, want *protocol.SendMessage", conn.sent[0])
	}
	if sent.Room != "lobby" || sent.Message != "hello room" {
		t.Errorf("sent = %+v", sent)
	}
}

func TestKeyboard_OwnEchoNotDuplicated(t *testing.T) {
	m := SetupTestModelWithDimensions(100, 30)
	m = typeText(t, m, "hello room")
	m, cmd := pressKey(t, m, tea.KeyEnter)
	runCmd(cmd)

	// The server echoes our message back; it must not append again.
	m, _ = deliverEvent(t, m, serverMsg(&protocol.ChatMessage{
		Room: "lobby", Nickname: "casper", Message: "hello room",
	}))

	if got := len(m.rooms.History("lobby")); got != 1 {
		t.Errorf("history holds %d messages after echo, want 1", got)
	}
}

func TestKeyboard_SendWhileDisconnected(t *testing.T) {
	m := SetupTestModelWithDimensions(100, 30)
	m.connState = client.StateDisconnected
	m = typeText(t, m, "hello")

	m, _ = pressKey(t, m, tea.KeyEnter)

	if m.errorMessage != "not connected" {
		t.Errorf("errorMessage = %q, want 'not connected'", m.errorMessage)
	}
	if len(m.rooms.History("lobby")) != 0 {
		t.Error("Nothing should be appended while disconnected")
	}
}

func TestKeyboard_EmptyEnterIsNoop(t *testing.T) {
	m := SetupTestModelWithDimensions(100, 30)

	m, cmd := pressKey(t, m, tea.KeyEnter)

	if cmd != nil {
		t.Error("Enter on an empty buffer should do nothing")
	}
	if len(m.rooms.History("lobby")) != 0 {
		t.Error("Enter on an empty buffer should not append")
	}
}

func TestCommand_JoinPublicRoom(t *testing.T) {
	m := SetupTestModelWithDimensions(100, 30)
	m = typeText(t, m, "/join dev")

	m, cmd := pressKey(t, m, tea.KeyEnter)
	runCmd(cmd)

	if m.pendingJoin != "dev" {
		t.Errorf("pendingJoin = %q, want dev", m.pendingJoin)
	}
	conn := testConn(t, m)
	if len(conn.sent) != 1 {
		t.Fatalf("connection saw %d sends, want 1", len(conn.sent))
	}
	join, ok := conn.sent[0].(*protocol.JoinRoom)
	if !ok || join.Room != "dev" || join.Password != "" {
		t.Errorf("sent = %#v, want public JoinRoom for dev", conn.sent[0])
	}

	// Server confirms; the room becomes active.
	m, _ = deliverEvent(t, m, serverMsg(&protocol.JoinSuccess{Room: "dev"}))
	if m.rooms.Active() != "dev" {
		t.Errorf("active room = %q after join-success, want dev", m.rooms.Active())
	}
	if m.pendingJoin != "" {
		t.Error("join-success should clear the pending join")
	}
}

func TestCommand_JoinAlreadyJoinedSwitches(t *testing.T) {
	m := SetupTestModelWithDimensions(100, 30)
	m.rooms.MarkJoined("dev")
	m = typeText(t, m, "/join dev")

	m, cmd := pressKey(t, m, tea.KeyEnter)

	if cmd != nil {
		t.Error("Joining an already-joined room should not hit the server")
	}
	if m.rooms.Active() != "dev" {
		t.Errorf("active room = %q, want dev", m.rooms.Active())
	}
}

func TestCommand_JoinPrivateRoomPromptsForPassword(t *testing.T) {
	m := SetupTestModelWithDimensions(100, 30)
	m.rooms.SetCatalog([]client.CatalogRoom{{Name: "vault", Private: true}})
	m = typeText(t, m, "/join vault")

	m, cmd := pressKey(t, m, tea.KeyEnter)

	if cmd != nil {
		t.Error("Private join should wait for the password before sending")
	}
	flow, ok := m.flow.(*RoomJoinFlow)
	if !ok || flow.Room != "vault" {
		t.Fatalf("flow = %#v, want RoomJoinFlow for vault", m.flow)
	}

	// Type the password and submit.
	m = typeText(t, m, "letmein")
	m, cmd = pressKey(t, m, tea.KeyEnter)
	runCmd(cmd)

	flow = m.flow.(*RoomJoinFlow)
	if !flow.Waiting {
		t.Error("flow should be waiting on the server answer")
	}
	conn := testConn(t, m)
	join, ok := conn.sent[len(conn.sent)-1].(*protocol.JoinRoom)
	if !ok || join.Room != "vault" || join.Password != "letmein" {
		t.Errorf("sent = %#v, want JoinRoom with password", conn.sent[len(conn.sent)-1])
	}
}

func TestCommand_WrongPasswordReopensPrompt(t *testing.T) {
	m := SetupTestModelWithDimensions(100, 30)
	m.flow = &RoomJoinFlow{Room: "vault", Waiting: true}

	m, _ = deliverEvent(t, m, serverMsg(&protocol.JoinError{
		Room: "vault", Reason: "invalid password", Code: protocol.CodeInvalidPassword,
	}))

	flow, ok := m.flow.(*RoomJoinFlow)
	if !ok {
		t.Fatal("wrong password should keep the join flow open")
	}
	if flow.Waiting {
		t.Error("flow should accept input again")
	}
	if !strings.Contains(flow.Err, "incorrect password") {
		t.Errorf("flow.Err = %q", flow.Err)
	}
}

func TestCommand_JoinFlowEscCancels(t *testing.T) {
	m := SetupTestModelWithDimensions(100, 30)
	m.flow = &RoomJoinFlow{Room: "vault"}
	m = typeText(t, m, "half-typed")

	m, _ = pressKey(t, m, tea.KeyEsc)

	if m.flow != nil {
		t.Error("Esc should cancel the join flow")
	}
	if !m.editor.Empty() {
		t.Error("Cancel should clear the buffer")
	}
}

func TestCommand_JoinFlowCancelWord(t *testing.T) {
	m := SetupTestModelWithDimensions(100, 30)
	m.flow = &RoomJoinFlow{Room: "vault"}
	m = typeText(t, m, "cancel")

	m, _ = pressKey(t, m, tea.KeyEnter)

	if m.flow != nil {
		t.Error("Typing 'cancel' should abort the join flow")
	}
}

func TestCommand_CreateRoomWalkthrough(t *testing.T) {
	m := SetupTestModelWithDimensions(100, 30)
	m = typeText(t, m, "/create")
	m, _ = pressKey(t, m, tea.KeyEnter)

	flow, ok := m.flow.(*RoomCreateFlow)
	if !ok {
		t.Fatal("/create should open the room-creation flow")
	}
	if flow.Step != stepRoomName {
		t.Fatalf("flow starts at step %d, want name step", flow.Step)
	}

	// Name, then private with a password.
	m = typeText(t, m, "games")
	m, _ = pressKey(t, m, tea.KeyEnter)
	if flow.Step != stepRoomPrivacy || flow.Name != "games" {
		t.Fatalf("after name: step %d name %q", flow.Step, flow.Name)
	}

	m = typeText(t, m, "y")
	if flow.Step != stepRoomPassword {
		t.Fatalf("after privacy: step %d, want password step", flow.Step)
	}

	m = typeText(t, m, "s3cret")
	m, cmd := pressKey(t, m, tea.KeyEnter)
	runCmd(cmd)

	if m.flow != nil {
		t.Error("Finished flow should close")
	}
	if m.pendingJoin != "games" {
		t.Errorf("pendingJoin = %q, want games", m.pendingJoin)
	}
	conn := testConn(t, m)
	create, ok := conn.sent[len(conn.sent)-1].(*protocol.CreateRoom)
	if !ok {
		t.Fatalf("sent = %T, want *protocol.CreateRoom", conn.sent[len(conn.sent)-1])
	}
	if create.Room != "games" || !create.Private || create.Password != "s3cret" {
		t.Errorf("create = %+v", create)
	}
}

func TestCommand_CreatePublicRoomSkipsPassword(t *testing.T) {
	m := SetupTestModelWithDimensions(100, 30)
	m.flow = &RoomCreateFlow{Step: stepRoomPrivacy, Name: "games"}

	newModel, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'n'}})
	m = newModel.(Model)
	runCmd(cmd)

	if m.flow != nil {
		t.Error("Public room creation should finish at the privacy step")
	}
	if m.pendingJoin != "games" {
		t.Errorf("pendingJoin = %q, want games", m.pendingJoin)
	}
	conn := testConn(t, m)
	create, ok := conn.sent[len(conn.sent)-1].(*protocol.CreateRoom)
	if !ok {
		t.Fatalf("sent = %T, want *protocol.CreateRoom", conn.sent[len(conn.sent)-1])
	}
	if create.Private || create.Password != "" {
		t.Errorf("create = %+v, want a public room", create)
	}
}

func TestCommand_CreateRoomNameValidation(t *testing.T) {
	m := SetupTestModelWithDimensions(100, 30)
	m.flow = &RoomCreateFlow{}

	// Empty name
	m, _ = pressKey(t, m, tea.KeyEnter)
	flow := m.flow.(*RoomCreateFlow)
	if flow.Err == "" || flow.Step != stepRoomName {
		t.Error("Empty room name should be rejected at the name step")
	}

	// Name with spaces
	m = typeText(t, m, "two words")
	m, _ = pressKey(t, m, tea.KeyEnter)
	if !strings.Contains(flow.Err, "spaces") {
		t.Errorf("flow.Err = %q, want a spaces complaint", flow.Err)
	}

	// Existing room
	m, _ = pressKey(t, m, tea.KeyCtrlU)
	m = typeText(t, m, "lobby")
	m, _ = pressKey(t, m, tea.KeyEnter)
	if !strings.Contains(flow.Err, "already exists") {
		t.Errorf("flow.Err = %q, want an already-exists complaint", flow.Err)
	}
}

func TestCommand_CreateFlowEscCancels(t *testing.T) {
	m := SetupTestModelWithDimensions(100, 30)
	m.flow = &RoomCreateFlow{Step: stepRoomPassword, Name: "games", Private: true}

	m, _ = pressKey(t, m, tea.KeyEsc)

	if m.flow != nil {
		t.Error("Esc should cancel the create flow")
	}
	if m.statusMessage != "room creation cancelled" {
		t.Errorf("status = %q", m.statusMessage)
	}
}

func TestCommand_NumericRoomSwitch(t *testing.T) {
	m := SetupTestModelWithDimensions(100, 30)
	m.rooms.MarkJoined("dev")

	m = typeText(t, m, "/2")
	m, _ = pressKey(t, m, tea.KeyEnter)

	if m.rooms.Active() != "dev" {
		t.Errorf("active room = %q, want dev", m.rooms.Active())
	}

	m = typeText(t, m, "/9")
	m, _ = pressKey(t, m, tea.KeyEnter)
	if !strings.Contains(m.errorMessage, "no room at position 9") {
		t.Errorf("errorMessage = %q", m.errorMessage)
	}
}

func TestCommand_LeaveActiveRoom(t *testing.T) {
	m := SetupTestModelWithDimensions(100, 30)
	m.rooms.MarkJoined("dev")
	if err := m.rooms.SwitchRoom("dev"); err != nil {
		t.Fatalf("SwitchRoom: %v", err)
	}

	m = typeText(t, m, "/leave")
	m, cmd := pressKey(t, m, tea.KeyEnter)
	runCmd(cmd)

	if m.rooms.IsJoined("dev") {
		t.Error("/leave should remove the room")
	}
	if m.rooms.Active() != client.LobbyRoom {
		t.Errorf("active room = %q, want lobby", m.rooms.Active())
	}
	conn := testConn(t, m)
	leave, ok := conn.sent[len(conn.sent)-1].(*protocol.LeaveRoom)
	if !ok || leave.Room != "dev" {
		t.Errorf("sent = %#v, want LeaveRoom for dev", conn.sent[len(conn.sent)-1])
	}
}

func TestCommand_LeaveLobbyRefused(t *testing.T) {
	m := SetupTestModelWithDimensions(100, 30)

	m = typeText(t, m, "/leave")
	m, _ = pressKey(t, m, tea.KeyEnter)

	if !strings.Contains(m.errorMessage, "lobby") {
		t.Errorf("errorMessage = %q, want a lobby complaint", m.errorMessage)
	}
}

func TestCommand_ClearHistory(t *testing.T) {
	m := SetupTestModelWithDimensions(100, 30)
	m.rooms.AppendMessage(CreateTestMessage("lobby", "bob", "old noise"))

	m = typeText(t, m, "/clear")
	m, _ = pressKey(t, m, tea.KeyEnter)

	if len(m.rooms.History("lobby")) != 0 {
		t.Error("/clear should wipe the active room's history")
	}
}

func TestCommand_HelpToggle(t *testing.T) {
	m := SetupTestModelWithDimensions(100, 30)

	m = typeText(t, m, "/help")
	m, _ = pressKey(t, m, tea.KeyEnter)
	if !m.showHelp {
		t.Fatal("/help should open the help overlay")
	}

	m, _ = pressKey(t, m, tea.KeyEsc)
	if m.showHelp {
		t.Error("Esc should close the help overlay")
	}
}

func TestCommand_QuitAndAlias(t *testing.T) {
	for _, input := range []string{"/quit", "/exit"} {
		m := SetupTestModelWithDimensions(100, 30)
		m = typeText(t, m, input)
		_, cmd := pressKey(t, m, tea.KeyEnter)
		if cmd == nil {
			t.Fatalf("%s should return a command", input)
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Errorf("%s should quit", input)
		}
	}
}

func TestCommand_Unknown(t *testing.T) {
	m := SetupTestModelWithDimensions(100, 30)

	m = typeText(t, m, "/bogus")
	m, _ = pressKey(t, m, tea.KeyEnter)

	if !strings.Contains(m.errorMessage, "unknown command /bogus") {
		t.Errorf("errorMessage = %q", m.errorMessage)
	}
}

func TestCommand_UsersNotice(t *testing.T) {
	m := SetupTestModelWithDimensions(100, 30)
	m.rooms.AddKnownUser("lobby", "bob")
	m.rooms.AddKnownUser("lobby", "alice")
	m.rooms.SetUserCount("lobby", 5)

	m = typeText(t, m, "/users")
	m, _ = pressKey(t, m, tea.KeyEnter)

	history := m.rooms.History("lobby")
	notice := history[len(history)-1]
	if notice.Kind != client.KindSystem {
		t.Fatal("/users should append a system notice")
	}
	if !strings.Contains(notice.Content, "alice, bob") {
		t.Errorf("notice = %q, want sorted users", notice.Content)
	}
	if !strings.Contains(notice.Content, "5 online") {
		t.Errorf("notice = %q, want the server count", notice.Content)
	}
}

func TestCommand_RoomsNotice(t *testing.T) {
	m := SetupTestModelWithDimensions(100, 30)
	m.rooms.SetCatalog([]client.CatalogRoom{
		{Name: "games", Users: 3},
		{Name: "vault", Private: true},
	})

	m = typeText(t, m, "/rooms")
	m, _ = pressKey(t, m, tea.KeyEnter)

	history := m.rooms.History("lobby")
	notice := history[len(history)-1]
	if !strings.Contains(notice.Content, "#games") {
		t.Errorf("notice = %q, want the catalog rooms", notice.Content)
	}
	if !strings.Contains(notice.Content, "(private)") {
		t.Errorf("notice = %q, want the private marker", notice.Content)
	}
}

func TestKeyboard_ScrollKeys(t *testing.T) {
	m := SetupTestModelWithDimensions(100, 30)
	for i := 0; i < 60; i++ {
		m.rooms.AppendMessage(CreateTestMessage("lobby", "bob", "line"))
	}

	page := m.chatPageSize()
	m, _ = pressKey(t, m, tea.KeyPgUp)
	if m.scroll != page {
		t.Fatalf("scroll after PgUp = %d, want %d", m.scroll, page)
	}

	m, _ = pressKey(t, m, tea.KeyUp)
	if m.scroll != page+1 {
		t.Errorf("scroll after Up = %d, want %d", m.scroll, page+1)
	}

	m, _ = pressKey(t, m, tea.KeyDown)
	if m.scroll != page {
		t.Errorf("scroll after Down = %d, want %d", m.scroll, page)
	}

	m, _ = pressKey(t, m, tea.KeyPgDown)
	if m.scroll != 0 {
		t.Errorf("scroll after PgDn = %d, want 0", m.scroll)
	}

	// Arrows edit history only while the buffer is empty.
	m = typeText(t, m, "typing")
	m, _ = pressKey(t, m, tea.KeyUp)
	if m.scroll != 0 {
		t.Error("Up with a non-empty buffer should not scroll")
	}
}

func TestKeyboard_TabCompletesCommand(t *testing.T) {
	m := SetupTestModelWithDimensions(100, 30)

	m = typeText(t, m, "/jo")
	m, _ = pressKey(t, m, tea.KeyTab)
	if m.editor.String() != "/join " {
		t.Errorf("editor = %q, want %q", m.editor.String(), "/join ")
	}

	// Ambiguous prefix stays put.
	m, _ = pressKey(t, m, tea.KeyCtrlU)
	m = typeText(t, m, "/c")
	m, _ = pressKey(t, m, tea.KeyTab)
	if m.editor.String() != "/c" {
		t.Errorf("editor = %q, ambiguous prefix should not complete", m.editor.String())
	}
}

func TestKeyboard_TabCompletesImagePath(t *testing.T) {
	home := t.TempDir()
	if err := os.WriteFile(filepath.Join(home, "cat.png"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	m := SetupTestModelWithDimensions(100, 30)
	m.completion.home = home

	m = typeText(t, m, "@c")
	if !m.completion.HasCandidates() {
		t.Fatal("typing @c should list matching files")
	}

	m, _ = pressKey(t, m, tea.KeyTab)
	if m.editor.String() != "@cat.png" {
		t.Errorf("editor = %q, want %q", m.editor.String(), "@cat.png")
	}
}

func TestKeyboard_SendImageByPath(t *testing.T) {
	pngData := append([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}, make([]byte, 64)...)
	home := t.TempDir()
	if err := os.WriteFile(filepath.Join(home, "cat.png"), pngData, 0o644); err != nil {
		t.Fatal(err)
	}

	m := SetupTestModelWithDimensions(100, 30)
	m.completion.home = home
	m = typeText(t, m, "@cat.png")

	m, cmd := pressKey(t, m, tea.KeyEnter)
	runCmd(cmd)

	history := m.rooms.History("lobby")
	if len(history) != 1 || history[0].Kind != client.KindImage || !history[0].Own {
		t.Fatalf("history = %+v, want one own image message", history)
	}
	conn := testConn(t, m)
	if len(conn.images) != 1 || len(conn.images[0]) != len(pngData) {
		t.Errorf("connection saw %d image sends", len(conn.images))
	}
}

func TestKeyboard_SendImageRejectsNonImage(t *testing.T) {
	home := t.TempDir()
	if err := os.WriteFile(filepath.Join(home, "notes.png"), []byte("plain text"), 0o644); err != nil {
		t.Fatal(err)
	}

	m := SetupTestModelWithDimensions(100, 30)
	m.completion.home = home
	m = typeText(t, m, "@notes.png")

	m, _ = pressKey(t, m, tea.KeyEnter)

	if !strings.Contains(m.errorMessage, "not a supported image") {
		t.Errorf("errorMessage = %q", m.errorMessage)
	}
	conn := testConn(t, m)
	if len(conn.images) != 0 {
		t.Error("Rejected file must not reach the connection")
	}
}

func TestKeyboard_CompletionNavigation(t *testing.T) {
	m := SetupTestModelWithDimensions(100, 30)
	m.completion.home = t.TempDir()
	m.completion.active = true
	m.completion.candidates = []string{"a.png", "b.png"}

	m, _ = pressKey(t, m, tea.KeyDown)
	if m.completion.Selected() != "b.png" {
		t.Errorf("selected = %q after Down", m.completion.Selected())
	}

	m, _ = pressKey(t, m, tea.KeyUp)
	if m.completion.Selected() != "a.png" {
		t.Errorf("selected = %q after Up", m.completion.Selected())
	}

	// Enter applies the highlighted candidate to the buffer.
	m, _ = pressKey(t, m, tea.KeyEnter)
	if m.editor.String() != "@a.png" {
		t.Errorf("editor = %q after Enter", m.editor.String())
	}

	m.completion.active = true
	m.completion.candidates = []string{"a.png"}
	m, _ = pressKey(t, m, tea.KeyEsc)
	if m.completion.active {
		t.Error("Esc should dismiss the completion popup")
	}
}

func TestKeyboard_TerminatedStateOnlyExits(t *testing.T) {
	m := SetupTestModelWithDimensions(100, 30)
	m.connState = client.StateTerminated

	// Regular keys are dead.
	m = typeText(t, m, "x")
	if !m.editor.Empty() {
		t.Error("Typing after termination should be ignored")
	}

	for _, key := range []tea.KeyType{tea.KeyEnter, tea.KeyEsc} {
		_, cmd := pressKey(t, m, key)
		if cmd == nil {
			t.Fatalf("key %v should quit after termination", key)
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Errorf("key %v should quit after termination", key)
		}
	}

	newModel, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	m = newModel.(Model)
	if cmd == nil {
		t.Fatal("q should quit after termination")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit after termination")
	}
}
