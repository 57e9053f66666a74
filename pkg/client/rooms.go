package client

import (
	"errors"
	"sort"
	"time"

	"github.com/aeolun/parley/pkg/protocol"
)

// LobbyRoom is the always-present default room. It cannot be left, and it
// is where the active-room pointer falls back to.
const LobbyRoom = "lobby"

// HistoryLimit caps each room's message history. Older messages fall off
// the front.
const HistoryLimit = 100

var (
	ErrNotJoined        = errors.New("room is not joined")
	ErrCannotLeaveLobby = errors.New("the lobby cannot be left")
)

// MessageKind discriminates history entries.
type MessageKind int

const (
	KindText MessageKind = iota
	KindImage
	KindSystem
)

// Message is one entry in a room's history.
type Message struct {
	Kind        MessageKind
	Room        string
	Sender      string
	Content     string
	Image       []byte
	ImageFormat protocol.ImageFormat
	Timestamp   time.Time
	Location    *protocol.Location
	Own         bool
}

// CatalogRoom is one discoverable room as reported by the server.
type CatalogRoom struct {
	Name    string
	Private bool
	Users   int
}

// Rooms is the authoritative client-side room state: joined rooms, the
// active-room pointer, per-room history with unread flags, and the catalog
// of discoverable rooms. It is owned by the UI loop and is not safe for
// concurrent use.
type Rooms struct {
	joined   []string
	active   string
	history  map[string][]Message
	unread   map[string]bool
	catalog  []CatalogRoom
	users    map[string]int
	known    map[string]map[string]bool
	revision uint64
}

// NewRooms creates the store with the lobby joined and active.
func NewRooms() *Rooms {
	return &Rooms{
		joined:  []string{LobbyRoom},
		active:  LobbyRoom,
		history: make(map[string][]Message),
		unread:  make(map[string]bool),
		users:   make(map[string]int),
		known:   make(map[string]map[string]bool),
	}
}

// Revision increases on every visible mutation. The render layer uses it
// to decide whether cached pane output is still valid.
func (r *Rooms) Revision() uint64 {
	return r.revision
}

func (r *Rooms) bump() {
	r.revision++
}

// Active returns the name of the active room.
func (r *Rooms) Active() string {
	return r.active
}

// Joined returns the joined rooms in insertion order.
func (r *Rooms) Joined() []string {
	out := make([]string, len(r.joined))
	copy(out, r.joined)
	return out
}

// IsJoined reports whether the user is a member of room.
func (r *Rooms) IsJoined(room string) bool {
	for _, name := range r.joined {
		if name == room {
			return true
		}
	}
	return false
}

// RoomByIndex returns the 1-based entry of the joined list, for the
// numeric switch commands.
func (r *Rooms) RoomByIndex(i int) (string, bool) {
	if i < 1 || i > len(r.joined) {
		return "", false
	}
	return r.joined[i-1], true
}

// MarkJoined adds room to the joined set. Appending is idempotent.
func (r *Rooms) MarkJoined(room string) {
	if r.IsJoined(room) {
		return
	}
	r.joined = append(r.joined, room)
	r.bump()
}

// SwitchRoom makes a joined room active and clears its unread flag.
func (r *Rooms) SwitchRoom(room string) error {
	if !r.IsJoined(room) {
		return ErrNotJoined
	}
	r.active = room
	r.unread[room] = false
	r.bump()
	return nil
}

// RemoveRoom drops a room from the joined set. Removing the active room
// re-points active to the lobby, re-inserting the lobby if needed. The
// lobby itself cannot be removed.
func (r *Rooms) RemoveRoom(room string) error {
	if room == LobbyRoom {
		return ErrCannotLeaveLobby
	}
	if !r.IsJoined(room) {
		return ErrNotJoined
	}

	next := r.joined[:0]
	for _, name := range r.joined {
		if name != room {
			next = append(next, name)
		}
	}
	r.joined = next

	delete(r.history, room)
	delete(r.unread, room)
	delete(r.users, room)
	delete(r.known, room)

	if r.active == room {
		if !r.IsJoined(LobbyRoom) {
			r.joined = append([]string{LobbyRoom}, r.joined...)
		}
		r.active = LobbyRoom
		r.unread[LobbyRoom] = false
	}
	r.bump()
	return nil
}

// AppendMessage adds a message to its room's history, creating the history
// lazily. Chat and image messages set the unread flag unless they are the
// user's own or the room is currently active; system notices never do.
// History never exceeds HistoryLimit.
func (r *Rooms) AppendMessage(msg Message) {
	room := msg.Room
	if room == "" {
		room = r.active
	}

	msgs := append(r.history[room], msg)
	if len(msgs) > HistoryLimit {
		msgs = msgs[len(msgs)-HistoryLimit:]
	}
	r.history[room] = msgs

	if !msg.Own && msg.Kind != KindSystem && room != r.active {
		r.unread[room] = true
	}
	r.bump()
}

// History returns a room's messages, oldest first. The returned slice is
// owned by the store and must not be mutated.
func (r *Rooms) History(room string) []Message {
	return r.history[room]
}

// ClearHistory wipes a room's messages.
func (r *Rooms) ClearHistory(room string) {
	delete(r.history, room)
	r.bump()
}

// HasUnread reports whether a room holds messages the user hasn't seen.
func (r *Rooms) HasUnread(room string) bool {
	return r.unread[room]
}

// SetCatalog replaces the discoverable-room catalog. Joined membership is
// untouched.
func (r *Rooms) SetCatalog(rooms []CatalogRoom) {
	r.catalog = append([]CatalogRoom(nil), rooms...)
	r.bump()
}

// Catalog returns the discoverable rooms as last reported by the server.
func (r *Rooms) Catalog() []CatalogRoom {
	out := make([]CatalogRoom, len(r.catalog))
	copy(out, r.catalog)
	return out
}

// CatalogRoom looks a room up in the catalog.
func (r *Rooms) CatalogRoom(name string) (CatalogRoom, bool) {
	for _, room := range r.catalog {
		if room.Name == name {
			return room, true
		}
	}
	return CatalogRoom{}, false
}

// UpsertCatalogRoom inserts or updates one catalog entry.
func (r *Rooms) UpsertCatalogRoom(room CatalogRoom) {
	for i := range r.catalog {
		if r.catalog[i].Name == room.Name {
			r.catalog[i] = room
			r.bump()
			return
		}
	}
	r.catalog = append(r.catalog, room)
	r.bump()
}

// DropCatalogRoom removes one catalog entry.
func (r *Rooms) DropCatalogRoom(name string) {
	for i := range r.catalog {
		if r.catalog[i].Name == name {
			r.catalog = append(r.catalog[:i], r.catalog[i+1:]...)
			r.bump()
			return
		}
	}
}

// RoomExists reports whether a name is taken, either joined or listed in
// the catalog. Used to validate new room names.
func (r *Rooms) RoomExists(name string) bool {
	if r.IsJoined(name) {
		return true
	}
	_, ok := r.CatalogRoom(name)
	return ok
}

// SetUserCount updates a room's occupancy.
func (r *Rooms) SetUserCount(room string, users int) {
	r.users[room] = users
	for i := range r.catalog {
		if r.catalog[i].Name == room {
			r.catalog[i].Users = users
		}
	}
	r.bump()
}

// UserCount returns a room's last reported occupancy.
func (r *Rooms) UserCount(room string) int {
	return r.users[room]
}

// AddKnownUser records a nickname as present in a room. It returns false
// when the user was already known, which suppresses duplicate join notices.
func (r *Rooms) AddKnownUser(room, nickname string) bool {
	set := r.known[room]
	if set == nil {
		set = make(map[string]bool)
		r.known[room] = set
	}
	if set[nickname] {
		return false
	}
	set[nickname] = true
	r.bump()
	return true
}

// RemoveKnownUser drops a nickname from a room's presence set.
func (r *Rooms) RemoveKnownUser(room, nickname string) {
	if set := r.known[room]; set[nickname] {
		delete(set, nickname)
		r.bump()
	}
}

// KnownUsers returns the nicknames seen in a room, sorted.
func (r *Rooms) KnownUsers(room string) []string {
	set := r.known[room]
	out := make([]string, 0, len(set))
	for nickname := range set {
		out = append(out, nickname)
	}
	sort.Strings(out)
	return out
}
