package ui

import (
	"context"
	"testing"
	"time"

	"github.com/aeolun/parley/pkg/client"
	"github.com/aeolun/parley/pkg/protocol"
	tea "github.com/charmbracelet/bubbletea"
)

// Shared scaffolding for the ui tests: a fake connection, model
// constructors, and keystroke helpers.

// fakeConn implements client.ConnectionInterface without a network. Sent
// messages are recorded for assertions. The events channel starts closed
// so an executed event-pump command returns immediately instead of
// blocking the test.
type fakeConn struct {
	state  client.SessionState
	events chan client.Event
	sent   []protocol.ClientMessage
	images [][]byte
	closed bool
}

func newFakeConn() *fakeConn {
	events := make(chan client.Event)
	close(events)
	return &fakeConn{state: client.StateConnected, events: events}
}

func (c *fakeConn) Connect(ctx context.Context) error { return nil }
func (c *fakeConn) Close()                            { c.closed = true }
func (c *fakeConn) State() client.SessionState        { return c.state }
func (c *fakeConn) IsConnected() bool                 { return c.state == client.StateConnected }
func (c *fakeConn) GetAddress() string                { return "ws://localhost:8080/ws" }

func (c *fakeConn) Send(msg protocol.ClientMessage) error {
	c.sent = append(c.sent, msg)
	return nil
}

func (c *fakeConn) SendImage(data []byte) error {
	c.images = append(c.images, data)
	return nil
}

func (c *fakeConn) Events() <-chan client.Event { return c.events }
func (c *fakeConn) GetBytesSent() uint64        { return 2048 }
func (c *fakeConn) GetBytesReceived() uint64    { return 4096 }
func (c *fakeConn) DisableAutoReconnect()       {}

// NewTestModel builds a model over a fake connection and in-memory state.
// The fake is reachable through m.conn for send assertions.
func NewTestModel() Model {
	return NewModel(newFakeConn(), client.NewMockState(), Options{
		Nickname: "casper",
		Version:  "1.0.0",
	})
}

// SetupTestModelWithDimensions builds a test model and delivers the
// initial window size so View() renders the full frame.
func SetupTestModelWithDimensions(width, height int) Model {
	m := NewTestModel()
	newModel, _ := m.Update(tea.WindowSizeMsg{Width: width, Height: height})
	return newModel.(Model)
}

// testConn returns the fake connection behind a test model.
func testConn(t *testing.T, m Model) *fakeConn {
	t.Helper()
	conn, ok := m.conn.(*fakeConn)
	if !ok {
		t.Fatalf("model connection is %T, not the test fake", m.conn)
	}
	return conn
}

// typeText feeds s to the model one rune keypress at a time.
func typeText(t *testing.T, m Model, s string) Model {
	t.Helper()
	for _, r := range s {
		newModel, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = newModel.(Model)
	}
	return m
}

// pressKey sends one special key through Update.
func pressKey(t *testing.T, m Model, key tea.KeyType) (Model, tea.Cmd) {
	t.Helper()
	newModel, cmd := m.Update(tea.KeyMsg{Type: key})
	return newModel.(Model), cmd
}

// runCmd executes a command tree synchronously, flattening batches, and
// returns every non-nil message produced. Safe on a nil command.
func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var msgs []tea.Msg
		for _, c := range batch {
			msgs = append(msgs, runCmd(c)...)
		}
		return msgs
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

// CreateTestMessage builds a plain chat message with a fixed timestamp.
func CreateTestMessage(room, sender, content string) client.Message {
	return client.Message{
		Kind:      client.KindText,
		Room:      room,
		Sender:    sender,
		Content:   content,
		Timestamp: time.Date(2026, 3, 14, 13, 45, 0, 0, time.UTC),
	}
}

// deliverEvent routes a connection event through Update the way the event
// pump would.
func deliverEvent(t *testing.T, m Model, ev client.Event) (Model, tea.Cmd) {
	t.Helper()
	newModel, cmd := m.Update(ConnEventMsg{Event: ev})
	return newModel.(Model), cmd
}

// serverMsg wraps a decoded server message as a connection event.
func serverMsg(msg protocol.ServerMessage) client.Event {
	return client.ServerEvent{Message: msg}
}
