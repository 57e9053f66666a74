package client

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"pgregory.net/rapid"
)

func textMsg(room, sender, content string) Message {
	return Message{
		Kind:      KindText,
		Room:      room,
		Sender:    sender,
		Content:   content,
		Timestamp: time.Now(),
	}
}

func TestNewRoomsStartsInLobby(t *testing.T) {
	r := NewRooms()
	if r.Active() != LobbyRoom {
		t.Fatalf("active = %s, want lobby", r.Active())
	}
	if !r.IsJoined(LobbyRoom) {
		t.Fatal("lobby not joined on startup")
	}
}

func TestHistoryKeepsOnlyTheLastHundred(t *testing.T) {
	r := NewRooms()
	for i := 0; i < HistoryLimit+25; i++ {
		r.AppendMessage(textMsg("lobby", "bob", fmt.Sprintf("message %d", i)))
	}

	history := r.History("lobby")
	if len(history) != HistoryLimit {
		t.Fatalf("history length %d, want %d", len(history), HistoryLimit)
	}
	// Oldest entries evicted first
	if got := history[0].Content; got != "message 25" {
		t.Fatalf("oldest surviving message = %q, want \"message 25\"", got)
	}
	if got := history[len(history)-1].Content; got != fmt.Sprintf("message %d", HistoryLimit+24) {
		t.Fatalf("newest message = %q", got)
	}
}

func TestHistoryEvictionProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		r := NewRooms()
		n := rapid.IntRange(0, 3*HistoryLimit).Draw(t, "appends")
		for i := 0; i < n; i++ {
			r.AppendMessage(textMsg("lobby", "bob", fmt.Sprintf("m%d", i)))
		}

		history := r.History("lobby")
		want := n
		if want > HistoryLimit {
			want = HistoryLimit
		}
		if len(history) != want {
			t.Fatalf("after %d appends history holds %d, want %d", n, len(history), want)
		}
		// Whatever survives is the newest suffix, still in order
		for i, msg := range history {
			expected := fmt.Sprintf("m%d", n-len(history)+i)
			if msg.Content != expected {
				t.Fatalf("history[%d] = %q, want %q", i, msg.Content, expected)
			}
		}
	})
}

func TestUnreadFlagRules(t *testing.T) {
	r := NewRooms()
	r.MarkJoined("dev")

	// Someone else, inactive room: unread
	r.AppendMessage(textMsg("dev", "bob", "hello"))
	if !r.HasUnread("dev") {
		t.Fatal("background message did not set unread")
	}

	// Own message never sets unread
	own := textMsg("dev", "casper", "mine")
	own.Own = true
	r2 := NewRooms()
	r2.MarkJoined("dev")
	r2.AppendMessage(own)
	if r2.HasUnread("dev") {
		t.Fatal("own message set unread")
	}

	// System notices never set unread
	r3 := NewRooms()
	r3.MarkJoined("dev")
	r3.AppendMessage(Message{Kind: KindSystem, Room: "dev", Content: "notice"})
	if r3.HasUnread("dev") {
		t.Fatal("system notice set unread")
	}

	// Active room is by definition read
	r.AppendMessage(textMsg("lobby", "bob", "hi"))
	if r.HasUnread("lobby") {
		t.Fatal("active room set unread")
	}

	// Switching clears the flag
	if err := r.SwitchRoom("dev"); err != nil {
		t.Fatalf("SwitchRoom: %v", err)
	}
	if r.HasUnread("dev") {
		t.Fatal("switch did not clear unread")
	}
}

func TestSwitchRoomRequiresMembership(t *testing.T) {
	r := NewRooms()
	if err := r.SwitchRoom("dev"); !errors.Is(err, ErrNotJoined) {
		t.Fatalf("switch to unjoined room = %v, want ErrNotJoined", err)
	}
}

func TestRemoveRoomFallsBackToLobby(t *testing.T) {
	r := NewRooms()
	r.MarkJoined("dev")
	if err := r.SwitchRoom("dev"); err != nil {
		t.Fatalf("SwitchRoom: %v", err)
	}
	r.AppendMessage(textMsg("dev", "bob", "bye"))

	if err := r.RemoveRoom("dev"); err != nil {
		t.Fatalf("RemoveRoom: %v", err)
	}
	if r.Active() != LobbyRoom {
		t.Fatalf("active = %s after leaving, want lobby", r.Active())
	}
	if r.IsJoined("dev") {
		t.Fatal("room still joined after removal")
	}
	if len(r.History("dev")) != 0 {
		t.Fatal("history survived room removal")
	}
}

func TestLobbyCannotBeLeft(t *testing.T) {
	r := NewRooms()
	if err := r.RemoveRoom(LobbyRoom); !errors.Is(err, ErrCannotLeaveLobby) {
		t.Fatalf("RemoveRoom(lobby) = %v, want ErrCannotLeaveLobby", err)
	}
}

func TestRoomByIndexIsOneBased(t *testing.T) {
	r := NewRooms()
	r.MarkJoined("dev")
	r.MarkJoined("games")

	if room, ok := r.RoomByIndex(1); !ok || room != LobbyRoom {
		t.Fatalf("index 1 = %q/%v, want lobby", room, ok)
	}
	if room, ok := r.RoomByIndex(3); !ok || room != "games" {
		t.Fatalf("index 3 = %q/%v, want games", room, ok)
	}
	if _, ok := r.RoomByIndex(0); ok {
		t.Fatal("index 0 should not resolve")
	}
	if _, ok := r.RoomByIndex(4); ok {
		t.Fatal("index past the end should not resolve")
	}
}

func TestMarkJoinedIsIdempotent(t *testing.T) {
	r := NewRooms()
	r.MarkJoined("dev")
	r.MarkJoined("dev")
	if got := len(r.Joined()); got != 2 {
		t.Fatalf("joined rooms = %d, want 2 (lobby, dev)", got)
	}
}

func TestRevisionMovesOnVisibleMutations(t *testing.T) {
	r := NewRooms()
	rev := r.Revision()

	r.AppendMessage(textMsg("lobby", "bob", "hi"))
	if r.Revision() == rev {
		t.Fatal("append did not bump the revision")
	}
	rev = r.Revision()

	if r.Revision() != rev {
		t.Fatal("read moved the revision")
	}
}

func TestCatalogUpsertAndDrop(t *testing.T) {
	r := NewRooms()
	r.SetCatalog([]CatalogRoom{{Name: "dev", Users: 2}})

	r.UpsertCatalogRoom(CatalogRoom{Name: "dev", Private: true, Users: 5})
	got, ok := r.CatalogRoom("dev")
	if !ok || !got.Private || got.Users != 5 {
		t.Fatalf("upsert did not update in place: %+v", got)
	}
	if len(r.Catalog()) != 1 {
		t.Fatal("upsert duplicated the entry")
	}

	r.UpsertCatalogRoom(CatalogRoom{Name: "games"})
	if len(r.Catalog()) != 2 {
		t.Fatal("upsert did not insert the new entry")
	}

	r.DropCatalogRoom("dev")
	if _, ok := r.CatalogRoom("dev"); ok {
		t.Fatal("drop left the entry behind")
	}
}

func TestRoomExistsChecksJoinedAndCatalog(t *testing.T) {
	r := NewRooms()
	r.SetCatalog([]CatalogRoom{{Name: "dev"}})

	if !r.RoomExists(LobbyRoom) {
		t.Fatal("joined room not reported as existing")
	}
	if !r.RoomExists("dev") {
		t.Fatal("cataloged room not reported as existing")
	}
	if r.RoomExists("ghost") {
		t.Fatal("unknown room reported as existing")
	}
}

func TestKnownUsersAreSortedAndDeduplicated(t *testing.T) {
	r := NewRooms()
	if !r.AddKnownUser("lobby", "zoe") {
		t.Fatal("first sighting reported as known")
	}
	if r.AddKnownUser("lobby", "zoe") {
		t.Fatal("second sighting reported as new")
	}
	r.AddKnownUser("lobby", "adam")

	users := r.KnownUsers("lobby")
	if len(users) != 2 || users[0] != "adam" || users[1] != "zoe" {
		t.Fatalf("users = %v, want [adam zoe]", users)
	}

	r.RemoveKnownUser("lobby", "zoe")
	users = r.KnownUsers("lobby")
	if len(users) != 1 || users[0] != "adam" {
		t.Fatalf("users after removal = %v, want [adam]", users)
	}
}

func TestSetUserCountSyncsCatalog(t *testing.T) {
	r := NewRooms()
	r.SetCatalog([]CatalogRoom{{Name: "dev", Users: 1}})

	r.SetUserCount("dev", 9)
	if r.UserCount("dev") != 9 {
		t.Fatalf("UserCount = %d, want 9", r.UserCount("dev"))
	}
	if got, _ := r.CatalogRoom("dev"); got.Users != 9 {
		t.Fatalf("catalog user count = %d, want 9", got.Users)
	}
}

func TestClearHistory(t *testing.T) {
	r := NewRooms()
	r.AppendMessage(textMsg("lobby", "bob", "hi"))
	r.ClearHistory("lobby")
	if len(r.History("lobby")) != 0 {
		t.Fatal("history not cleared")
	}
}

func TestEmptyRoomFallsBackToActive(t *testing.T) {
	r := NewRooms()
	r.AppendMessage(Message{Kind: KindSystem, Content: "global notice"})
	if len(r.History(LobbyRoom)) != 1 {
		t.Fatal("roomless message did not land in the active room")
	}
}
