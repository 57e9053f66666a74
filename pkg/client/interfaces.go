package client

import (
	"context"

	"github.com/aeolun/parley/pkg/protocol"
)

// ConnectionInterface defines the interface for the chat connection
// This allows for mocking in tests while the real Connection implements all these methods
type ConnectionInterface interface {
	// Connection management
	Connect(ctx context.Context) error
	Close()
	State() SessionState
	IsConnected() bool
	GetAddress() string

	// Message sending
	Send(msg protocol.ClientMessage) error
	SendImage(data []byte) error

	// Event delivery
	Events() <-chan Event

	// Traffic counters
	GetBytesSent() uint64
	GetBytesReceived() uint64

	// Configuration
	DisableAutoReconnect()
}

// StateInterface defines the interface for client state persistence
// This allows for mocking in tests while the real State implements all these methods
type StateInterface interface {
	// Configuration
	GetConfig(key string) (string, error)
	SetConfig(key, value string) error

	// Nickname management
	GetLastNickname() string
	SetLastNickname(nickname string) error

	// First run tracking
	GetFirstRun() bool
	SetFirstRunComplete() error

	// Room visit history
	TouchRoom(room string) error
	RecentRooms(limit int) ([]string, error)

	// State directory
	GetStateDir() string

	// Close the state
	Close() error
}

var _ ConnectionInterface = (*Connection)(nil)
var _ StateInterface = (*State)(nil)
