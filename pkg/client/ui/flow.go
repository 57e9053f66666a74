package ui

import (
	"errors"
	"strings"
)

// maxRoomNameLen bounds room names typed into the create flow.
const maxRoomNameLen = 15

// Flow is a guided multi-step prompt that takes over the input line until
// it completes or is cancelled with Esc.
type Flow interface {
	// Prompt is the label drawn before the input buffer.
	Prompt() string
	// Hint is the footer line shown beneath the input while the flow is
	// active. Validation errors surface here.
	Hint() string
	// Masked reports whether typed input renders as asterisks.
	Masked() bool
}

type createStep int

const (
	stepRoomName createStep = iota
	stepRoomPrivacy
	stepRoomPassword
)

// RoomCreateFlow walks the user through room creation: name, then privacy,
// then a password when the room is private.
type RoomCreateFlow struct {
	Step    createStep
	Name    string
	Private bool
	Err     string
}

func (f *RoomCreateFlow) Prompt() string {
	switch f.Step {
	case stepRoomName:
		return "room name: "
	case stepRoomPrivacy:
		return "private room? (y/n): "
	default:
		return "room password: "
	}
}

func (f *RoomCreateFlow) Hint() string {
	if f.Err != "" {
		return RenderError(f.Err)
	}
	switch f.Step {
	case stepRoomName:
		return "pick a short name, [Esc] cancels"
	case stepRoomPrivacy:
		return "private rooms need a password to join, [Esc] cancels"
	default:
		return "members will need this password, [Esc] cancels"
	}
}

func (f *RoomCreateFlow) Masked() bool {
	return f.Step == stepRoomPassword
}

// RoomJoinFlow prompts for a private room's password. Waiting is set after
// the join request goes out and cleared when the server answers; a
// wrong-password answer re-opens the prompt with Err set.
type RoomJoinFlow struct {
	Room    string
	Waiting bool
	Err     string
}

func (f *RoomJoinFlow) Prompt() string {
	if f.Waiting {
		return "joining #" + f.Room + "… "
	}
	return "password for #" + f.Room + ": "
}

func (f *RoomJoinFlow) Hint() string {
	if f.Err != "" {
		return RenderError(f.Err)
	}
	return "type the room password, \"cancel\" or [Esc] aborts"
}

func (f *RoomJoinFlow) Masked() bool {
	return true
}

// validateRoomName checks a typed room name before it goes to the server.
// Names are bare tokens: a leading # is stripped, spaces are rejected.
func validateRoomName(name string) (string, error) {
	name = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(name), "#"))
	if name == "" {
		return "", errors.New("room name cannot be empty")
	}
	if len([]rune(name)) > maxRoomNameLen {
		return "", errors.New("room name must be 15 characters or fewer")
	}
	if strings.ContainsAny(name, " \t") {
		return "", errors.New("room name cannot contain spaces")
	}
	return name, nil
}
