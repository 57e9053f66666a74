package client

import (
	"fmt"
	"log"
	"time"

	"github.com/aeolun/parley/pkg/protocol"
)

// maxPendingEchoes bounds the optimistic-echo registry so an echo the
// server never returns cannot leak entries forever.
const maxPendingEchoes = 32

type echoKey struct {
	room    string
	content string
}

type echoRegistry struct {
	keys []echoKey
}

func (e *echoRegistry) add(k echoKey) {
	e.keys = append(e.keys, k)
	if len(e.keys) > maxPendingEchoes {
		e.keys = e.keys[len(e.keys)-maxPendingEchoes:]
	}
}

// consume removes the oldest matching key and reports whether one existed.
func (e *echoRegistry) consume(k echoKey) bool {
	for i, key := range e.keys {
		if key == k {
			e.keys = append(e.keys[:i], e.keys[i+1:]...)
			return true
		}
	}
	return false
}

func (e *echoRegistry) clear() {
	e.keys = e.keys[:0]
}

// Notification is a desktop-notification request produced by the router
// for a message that set an unread flag.
type Notification struct {
	Room   string
	Sender string
	Body   string
}

// JoinOutcome reports the resolution of a join attempt.
type JoinOutcome struct {
	Room          string
	OK            bool
	WrongPassword bool
	Reason        string
}

// RouterResult collects what the UI loop must do after an event was
// applied to the store.
type RouterResult struct {
	Notifications []Notification
	Join          *JoinOutcome
	Outbound      []protocol.ClientMessage
}

// Router translates connection events into room-store mutations and
// user-visible notices. It runs on the UI loop; all its effects are
// synchronous store writes plus the returned RouterResult.
type Router struct {
	rooms    *Rooms
	nickname string

	echoes         echoRegistry
	passwords      map[string]string // private rooms joined this session, for rejoin
	ownJoinNoticed bool

	logger *log.Logger
}

// NewRouter creates a router for the given store and own nickname.
func NewRouter(rooms *Rooms, nickname string) *Router {
	return &Router{
		rooms:     rooms,
		nickname:  nickname,
		passwords: make(map[string]string),
	}
}

// SetLogger sets a logger for debugging routing decisions
func (rt *Router) SetLogger(logger *log.Logger) {
	rt.logger = logger
}

func (rt *Router) logf(format string, args ...interface{}) {
	if rt.logger != nil {
		rt.logger.Printf(format, args...)
	}
}

// RegisterEcho records an optimistic local append so the server's echo of
// the same message is recognized and dropped.
func (rt *Router) RegisterEcho(room, content string) {
	rt.echoes.add(echoKey{room: room, content: content})
}

// RegisterPassword remembers the password used to enter a private room so
// reconnection can silently rejoin it.
func (rt *Router) RegisterPassword(room, password string) {
	rt.passwords[room] = password
}

// Apply folds one connection event into the store.
func (rt *Router) Apply(ev Event) RouterResult {
	var res RouterResult

	switch e := ev.(type) {
	case ConnectedEvent:
		// The server joins us to the initial room itself; nothing to do
		// until its envelopes arrive.

	case ServerEvent:
		rt.applyServer(e.Message, &res)

	case ImageEvent:
		// Binary frames carry no room or sender metadata, so an inbound
		// image lands in the active room.
		rt.rooms.AppendMessage(Message{
			Kind:        KindImage,
			Room:        rt.rooms.Active(),
			Image:       e.Data,
			ImageFormat: e.Format,
			Timestamp:   time.Now(),
		})

	case ParseErrorEvent:
		rt.logf("Parse error surfaced to user: %v", e.Err)
		rt.notice(rt.rooms.Active(), "received a malformed message from the server", time.Time{})

	case DisconnectedEvent:
		rt.echoes.clear()
		if e.Clean {
			rt.notice(rt.rooms.Active(), "the server closed the connection", time.Time{})
		}

	case ReconnectingEvent:
		// The status bar reflects this; no history entry per attempt.

	case ReconnectedEvent:
		rt.notice(rt.rooms.Active(), "reconnected to the server", time.Time{})
		for _, room := range rt.rooms.Joined() {
			res.Outbound = append(res.Outbound, &protocol.JoinRoom{
				Room:     room,
				Password: rt.passwords[room],
			})
		}

	case TerminatedEvent:
		rt.notice(rt.rooms.Active(),
			fmt.Sprintf("connection lost after %d reconnect attempts; restart to reconnect", e.Attempts),
			time.Time{})
	}

	return res
}

func (rt *Router) applyServer(msg protocol.ServerMessage, res *RouterResult) {
	switch m := msg.(type) {
	case *protocol.ChatMessage:
		own := m.Nickname == rt.nickname
		if own && rt.echoes.consume(echoKey{room: m.Room, content: m.Message}) {
			rt.logf("Dropping echoed own message in %s", m.Room)
			return
		}
		rt.rooms.AppendMessage(Message{
			Kind:      KindText,
			Room:      m.Room,
			Sender:    m.Nickname,
			Content:   m.Message,
			Timestamp: m.Timestamp,
			Location:  m.Location,
			Own:       own,
		})
		if !own && rt.rooms.HasUnread(m.Room) {
			res.Notifications = append(res.Notifications, Notification{
				Room:   m.Room,
				Sender: m.Nickname,
				Body:   m.Message,
			})
		}

	case *protocol.UserJoined:
		isNew := rt.rooms.AddKnownUser(m.Room, m.Nickname)
		if m.Nickname == rt.nickname {
			if !rt.ownJoinNoticed {
				rt.ownJoinNoticed = true
				rt.notice(m.Room, fmt.Sprintf("you joined #%s", m.Room), m.Timestamp)
			}
			return
		}
		if isNew {
			rt.notice(m.Room, fmt.Sprintf("%s joined #%s", m.Nickname, m.Room), m.Timestamp)
		}

	case *protocol.UserLeft:
		rt.rooms.RemoveKnownUser(m.Room, m.Nickname)
		if m.Nickname != rt.nickname {
			rt.notice(m.Room, fmt.Sprintf("%s left #%s", m.Nickname, m.Room), m.Timestamp)
		}

	case *protocol.RoomList:
		catalog := make([]CatalogRoom, 0, len(m.Rooms))
		for _, room := range m.Rooms {
			catalog = append(catalog, CatalogRoom{Name: room.Name, Private: room.Private, Users: room.Users})
		}
		rt.rooms.SetCatalog(catalog)

	case *protocol.RoomCreated:
		rt.rooms.UpsertCatalogRoom(CatalogRoom{Name: m.Room, Private: m.Private})

	case *protocol.RoomDeleted:
		rt.rooms.DropCatalogRoom(m.Room)
		if rt.rooms.IsJoined(m.Room) {
			rt.rooms.RemoveRoom(m.Room)
			rt.notice(rt.rooms.Active(), fmt.Sprintf("#%s was deleted by the server", m.Room), time.Time{})
		}

	case *protocol.UserCount:
		rt.rooms.SetUserCount(m.Room, m.Users)

	case *protocol.JoinSuccess:
		rt.rooms.MarkJoined(m.Room)
		rt.rooms.SwitchRoom(m.Room)
		rt.rooms.AddKnownUser(m.Room, rt.nickname)
		res.Join = &JoinOutcome{Room: m.Room, OK: true}

	case *protocol.JoinError:
		delete(rt.passwords, m.Room)
		res.Join = &JoinOutcome{
			Room:          m.Room,
			WrongPassword: m.Code == protocol.CodeInvalidPassword,
			Reason:        m.Reason,
		}

	case *protocol.ServerError:
		rt.notice(rt.rooms.Active(), "server error: "+m.Message, time.Time{})

	case *protocol.SystemNotice:
		room := m.Room
		if room == "" {
			room = rt.rooms.Active()
		}
		rt.notice(room, m.Message, m.Timestamp)

	case *protocol.UnknownServerMessage:
		rt.logf("Unknown server message type %q", m.Tag)
		rt.notice(rt.rooms.Active(), fmt.Sprintf("the server sent an unfamiliar %q message", m.Tag), time.Time{})
	}
}

func (rt *Router) notice(room, text string, ts time.Time) {
	if ts.IsZero() {
		ts = time.Now()
	}
	rt.rooms.AppendMessage(Message{
		Kind:      KindSystem,
		Room:      room,
		Content:   text,
		Timestamp: ts,
	})
}
