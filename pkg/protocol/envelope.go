package protocol

import (
	"encoding/json"
	"fmt"
	"time"
)

// Message type tags carried in the envelope "type" field.
const (
	// Server → client
	TypeChatMessage = "chat-message"
	TypeRoomList    = "room-list"
	TypeRoomCreated = "room-created"
	TypeRoomDeleted = "room-deleted"
	TypeUserCount   = "user-count"
	TypeUserJoined  = "user-joined"
	TypeUserLeft    = "user-left"
	TypeJoinSuccess = "join-success"
	TypeJoinError   = "join-error"
	TypeError       = "error"
	TypeSystem      = "system"

	// Client → server
	TypeJoinRoom    = "join-room"
	TypeLeaveRoom   = "leave-room"
	TypeSendMessage = "send-message"
	TypeCreateRoom  = "create-room"
)

// Error codes carried in a join-error payload.
const (
	CodeInvalidPassword = "invalid-password"
	CodeRoomNotFound    = "room-not-found"
)

// Location is the optional origin tag attached to chat messages.
type Location struct {
	CountryCode string `json:"countryCode"`
	Country     string `json:"country"`
}

// Envelope is the wire form shared by every JSON text frame. Which fields
// are meaningful depends on Type; DecodeServerMessage narrows an inbound
// envelope to exactly one typed variant.
type Envelope struct {
	Type      string          `json:"type"`
	Room      string          `json:"room,omitempty"`
	Nickname  string          `json:"nickname,omitempty"`
	Message   string          `json:"message,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"timestamp,omitempty"`
	Location  *Location       `json:"location,omitempty"`
}

// ServerMessage is a decoded server-to-client message. The implementation
// set is closed: DecodeServerMessage returns exactly one of the variants
// below, with unrecognized type tags mapping to UnknownServerMessage.
type ServerMessage interface {
	serverMessage()
}

// RoomInfo describes one discoverable room in a room-list payload.
type RoomInfo struct {
	Name    string `json:"name"`
	Private bool   `json:"private"`
	Users   int    `json:"users"`
}

// ChatMessage is a chat line broadcast to a room.
type ChatMessage struct {
	Room      string
	Nickname  string
	Message   string
	Timestamp time.Time
	Location  *Location
}

// RoomList replaces the catalog of discoverable rooms.
type RoomList struct {
	Rooms []RoomInfo
}

// RoomCreated announces a new discoverable room.
type RoomCreated struct {
	Room    string
	Private bool
}

// RoomDeleted announces a room removed on the server.
type RoomDeleted struct {
	Room string
}

// UserCount updates the occupancy of one room.
type UserCount struct {
	Room  string
	Users int
}

// UserJoined announces a user entering a room.
type UserJoined struct {
	Room      string
	Nickname  string
	Timestamp time.Time
}

// UserLeft announces a user leaving a room.
type UserLeft struct {
	Room      string
	Nickname  string
	Timestamp time.Time
}

// JoinSuccess confirms a join-room request.
type JoinSuccess struct {
	Room    string
	Private bool
}

// JoinError reports a failed join-room request. Code distinguishes the
// wrong-password path (CodeInvalidPassword) from generic failures.
type JoinError struct {
	Room   string
	Reason string
	Code   string
}

// ServerError is a generic server-reported error.
type ServerError struct {
	Message string
}

// SystemNotice is free-form informational text, optionally scoped to a room.
type SystemNotice struct {
	Room      string
	Message   string
	Timestamp time.Time
}

// UnknownServerMessage preserves the tag of a message this client does not
// understand. It is not an error; newer servers may speak newer types.
type UnknownServerMessage struct {
	Tag string
}

func (*ChatMessage) serverMessage()          {}
func (*RoomList) serverMessage()             {}
func (*RoomCreated) serverMessage()          {}
func (*RoomDeleted) serverMessage()          {}
func (*UserCount) serverMessage()            {}
func (*UserJoined) serverMessage()           {}
func (*UserLeft) serverMessage()             {}
func (*JoinSuccess) serverMessage()          {}
func (*JoinError) serverMessage()            {}
func (*ServerError) serverMessage()          {}
func (*SystemNotice) serverMessage()         {}
func (*UnknownServerMessage) serverMessage() {}

type roomListPayload struct {
	Rooms []RoomInfo `json:"rooms"`
}

type privatePayload struct {
	Private bool `json:"private"`
}

type usersPayload struct {
	Users int `json:"users"`
}

type codePayload struct {
	Code string `json:"code"`
}

type passwordPayload struct {
	Password string `json:"password,omitempty"`
	Private  bool   `json:"private,omitempty"`
}

// DecodeServerMessage parses an inbound text frame into its typed variant.
// A JSON-level failure is the only error path; unknown tags decode cleanly.
func DecodeServerMessage(data []byte) (ServerMessage, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("malformed envelope: %w", err)
	}

	switch env.Type {
	case TypeChatMessage:
		return &ChatMessage{
			Room:      env.Room,
			Nickname:  env.Nickname,
			Message:   env.Message,
			Timestamp: envTime(env.Timestamp),
			Location:  env.Location,
		}, nil

	case TypeRoomList:
		var pl roomListPayload
		if len(env.Payload) > 0 {
			if err := json.Unmarshal(env.Payload, &pl); err != nil {
				return nil, fmt.Errorf("malformed room-list payload: %w", err)
			}
		}
		return &RoomList{Rooms: pl.Rooms}, nil

	case TypeRoomCreated:
		var pl privatePayload
		if len(env.Payload) > 0 {
			if err := json.Unmarshal(env.Payload, &pl); err != nil {
				return nil, fmt.Errorf("malformed room-created payload: %w", err)
			}
		}
		return &RoomCreated{Room: env.Room, Private: pl.Private}, nil

	case TypeRoomDeleted:
		return &RoomDeleted{Room: env.Room}, nil

	case TypeUserCount:
		var pl usersPayload
		if len(env.Payload) > 0 {
			if err := json.Unmarshal(env.Payload, &pl); err != nil {
				return nil, fmt.Errorf("malformed user-count payload: %w", err)
			}
		}
		return &UserCount{Room: env.Room, Users: pl.Users}, nil

	case TypeUserJoined:
		return &UserJoined{Room: env.Room, Nickname: env.Nickname, Timestamp: envTime(env.Timestamp)}, nil

	case TypeUserLeft:
		return &UserLeft{Room: env.Room, Nickname: env.Nickname, Timestamp: envTime(env.Timestamp)}, nil

	case TypeJoinSuccess:
		var pl privatePayload
		if len(env.Payload) > 0 {
			if err := json.Unmarshal(env.Payload, &pl); err != nil {
				return nil, fmt.Errorf("malformed join-success payload: %w", err)
			}
		}
		return &JoinSuccess{Room: env.Room, Private: pl.Private}, nil

	case TypeJoinError:
		var pl codePayload
		if len(env.Payload) > 0 {
			if err := json.Unmarshal(env.Payload, &pl); err != nil {
				return nil, fmt.Errorf("malformed join-error payload: %w", err)
			}
		}
		return &JoinError{Room: env.Room, Reason: env.Message, Code: pl.Code}, nil

	case TypeError:
		return &ServerError{Message: env.Message}, nil

	case TypeSystem:
		return &SystemNotice{Room: env.Room, Message: env.Message, Timestamp: envTime(env.Timestamp)}, nil

	default:
		return &UnknownServerMessage{Tag: env.Type}, nil
	}
}

func envTime(ms int64) time.Time {
	if ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

// ClientMessage is an outbound client-to-server message.
type ClientMessage interface {
	// Tag returns the wire type tag, used for dispatch and metrics labels.
	Tag() string
	// Encode produces the envelope JSON, stamping the current time.
	Encode() ([]byte, error)
}

// JoinRoom requests membership in a room. Password is required only for
// private rooms and travels in the payload.
type JoinRoom struct {
	Room     string
	Password string
}

// LeaveRoom gives up membership in a room.
type LeaveRoom struct {
	Room string
}

// SendMessage posts a chat line to a joined room.
type SendMessage struct {
	Room     string
	Message  string
	Location *Location
}

// CreateRoom asks the server to create (and implicitly join) a room.
type CreateRoom struct {
	Room     string
	Private  bool
	Password string
}

func (m *JoinRoom) Tag() string    { return TypeJoinRoom }
func (m *LeaveRoom) Tag() string   { return TypeLeaveRoom }
func (m *SendMessage) Tag() string { return TypeSendMessage }
func (m *CreateRoom) Tag() string  { return TypeCreateRoom }

func (m *JoinRoom) Encode() ([]byte, error) {
	env := Envelope{Type: TypeJoinRoom, Room: m.Room, Timestamp: nowMillis()}
	if m.Password != "" {
		pl, err := json.Marshal(passwordPayload{Password: m.Password})
		if err != nil {
			return nil, err
		}
		env.Payload = pl
	}
	return json.Marshal(&env)
}

func (m *LeaveRoom) Encode() ([]byte, error) {
	return json.Marshal(&Envelope{Type: TypeLeaveRoom, Room: m.Room, Timestamp: nowMillis()})
}

func (m *SendMessage) Encode() ([]byte, error) {
	return json.Marshal(&Envelope{
		Type:      TypeSendMessage,
		Room:      m.Room,
		Message:   m.Message,
		Timestamp: nowMillis(),
		Location:  m.Location,
	})
}

func (m *CreateRoom) Encode() ([]byte, error) {
	pl, err := json.Marshal(passwordPayload{Password: m.Password, Private: m.Private})
	if err != nil {
		return nil, err
	}
	return json.Marshal(&Envelope{Type: TypeCreateRoom, Room: m.Room, Payload: pl, Timestamp: nowMillis()})
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}
