package client

import (
	"sort"
	"sync"
)

// MockState is an in-memory test implementation of StateInterface
type MockState struct {
	mu sync.RWMutex

	// In-memory storage
	config map[string]string
	visits map[string]int64
	seq    int64
	dir    string

	// Error injection
	getConfigErr error
	setConfigErr error
	touchRoomErr error
}

// NewMockState creates a new mock state
func NewMockState() *MockState {
	return &MockState{
		config: make(map[string]string),
		visits: make(map[string]int64),
		dir:    "/tmp/mock-state",
	}
}

// GetConfig retrieves a configuration value
func (s *MockState) GetConfig(key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.getConfigErr != nil {
		return "", s.getConfigErr
	}

	return s.config[key], nil
}

// SetConfig stores a configuration value
func (s *MockState) SetConfig(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.setConfigErr != nil {
		return s.setConfigErr
	}

	s.config[key] = value
	return nil
}

// GetLastNickname returns the last used nickname
func (s *MockState) GetLastNickname() string {
	nickname, _ := s.GetConfig("last_nickname")
	return nickname
}

// SetLastNickname stores the last used nickname
func (s *MockState) SetLastNickname(nickname string) error {
	return s.SetConfig("last_nickname", nickname)
}

// GetFirstRun checks if this is the first time running the client
func (s *MockState) GetFirstRun() bool {
	val, _ := s.GetConfig("first_run_complete")
	return val != "true"
}

// SetFirstRunComplete marks first run as complete
func (s *MockState) SetFirstRunComplete() error {
	return s.SetConfig("first_run_complete", "true")
}

// TouchRoom records a visit to a room
func (s *MockState) TouchRoom(room string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.touchRoomErr != nil {
		return s.touchRoomErr
	}

	s.seq++
	s.visits[room] = s.seq
	return nil
}

// RecentRooms returns up to limit room names ordered by most recent visit
func (s *MockState) RecentRooms(limit int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rooms := make([]string, 0, len(s.visits))
	for room := range s.visits {
		rooms = append(rooms, room)
	}
	sort.Slice(rooms, func(i, j int) bool {
		return s.visits[rooms[i]] > s.visits[rooms[j]]
	})
	if limit > 0 && len(rooms) > limit {
		rooms = rooms[:limit]
	}
	return rooms, nil
}

// GetStateDir returns the directory where state is stored
func (s *MockState) GetStateDir() string {
	return s.dir
}

// Close closes the mock state (no-op for in-memory)
func (s *MockState) Close() error {
	return nil
}

// Test helpers

// SetGetConfigError sets an error to return from GetConfig()
func (s *MockState) SetGetConfigError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getConfigErr = err
}

// SetSetConfigError sets an error to return from SetConfig()
func (s *MockState) SetSetConfigError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setConfigErr = err
}

// SetTouchRoomError sets an error to return from TouchRoom()
func (s *MockState) SetTouchRoomError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchRoomErr = err
}

// SetFirstRun sets the first run state
func (s *MockState) SetFirstRun(firstRun bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if firstRun {
		delete(s.config, "first_run_complete")
	} else {
		s.config["first_run_complete"] = "true"
	}
}

// Clear clears all state (for testing)
func (s *MockState) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config = make(map[string]string)
	s.visits = make(map[string]int64)
}

// Verify that MockState implements StateInterface
var _ StateInterface = (*MockState)(nil)
