package client

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// State manages client-side persistent state: the last used nickname,
// first-run marker, and a small history of visited rooms.
type State struct {
	db  *sql.DB
	dir string // Directory where state is stored
}

// OpenState opens or creates the client state database
func OpenState(path string) (*State, error) {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}

	// Configure for better reliability
	db.SetMaxOpenConns(1) // Client only needs one connection
	db.SetMaxIdleConns(1)

	// Enable WAL mode
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Set busy timeout
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate state database: %w", err)
	}

	return &State{db: db, dir: dir}, nil
}

// Close closes the state database
func (s *State) Close() error {
	return s.db.Close()
}

// GetConfig retrieves a configuration value
func (s *State) GetConfig(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM config WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// SetConfig stores a configuration value
func (s *State) SetConfig(key, value string) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO config (key, value) VALUES (?, ?)
	`, key, value)
	return err
}

// GetLastNickname returns the last used nickname
func (s *State) GetLastNickname() string {
	nickname, _ := s.GetConfig("last_nickname")
	return nickname
}

// SetLastNickname stores the last used nickname
func (s *State) SetLastNickname(nickname string) error {
	return s.SetConfig("last_nickname", nickname)
}

// GetFirstRun checks if this is the first time running the client
func (s *State) GetFirstRun() bool {
	val, _ := s.GetConfig("first_run_complete")
	return val != "true"
}

// SetFirstRunComplete marks first run as complete
func (s *State) SetFirstRunComplete() error {
	return s.SetConfig("first_run_complete", "true")
}

// TouchRoom records a visit to a room
func (s *State) TouchRoom(room string) error {
	now := time.Now().Unix()
	_, err := s.db.Exec(`
		INSERT INTO room_visits (room, visits, last_seen_at) VALUES (?, 1, ?)
		ON CONFLICT(room) DO UPDATE SET visits = visits + 1, last_seen_at = excluded.last_seen_at
	`, room, now)
	return err
}

// RecentRooms returns up to limit room names ordered by most recent visit
func (s *State) RecentRooms(limit int) ([]string, error) {
	rows, err := s.db.Query(`
		SELECT room FROM room_visits ORDER BY last_seen_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rooms []string
	for rows.Next() {
		var room string
		if err := rows.Scan(&room); err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}

// GetStateDir returns the directory where state is stored
func (s *State) GetStateDir() string {
	return s.dir
}
