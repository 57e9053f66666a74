package ui

import (
	"log"
	"time"

	"github.com/aeolun/parley/pkg/client"
	"github.com/aeolun/parley/pkg/protocol"
	"github.com/aeolun/parley/pkg/updater"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// Layout thresholds in terminal columns. Below narrowWidth only the chat
// pane renders; from narrowWidth the room list appears; from wideWidth the
// user list appears as well.
const (
	narrowWidth = 60
	wideWidth   = 100
)

// paneCache holds the rendered pane block between frames. It is rebuilt
// when the store revision, the layout, the active room, or the scroll
// offset changes, and reused for keystroke-only frames.
type paneCache struct {
	content  string
	revision uint64
	width    int
	height   int
	room     string
	scroll   int
	ok       bool
}

// Model is the top-level application state for the terminal UI.
type Model struct {
	// Connection and state
	conn   client.ConnectionInterface
	state  client.StateInterface
	rooms  *client.Rooms
	router *client.Router

	connState        client.SessionState
	reconnectAttempt int
	reconnectDelay   time.Duration

	// Identity
	nickname string
	location *protocol.Location

	// UI state
	width        int
	height       int
	scroll       int
	panes        paneCache
	showHelp     bool
	helpViewport viewport.Model
	spinner      spinner.Model

	// Input state
	editor     lineEditor
	flow       Flow
	completion pathCompletion

	// A join requested outside a password flow (public /join, create,
	// numeric switch to a catalog room) awaiting the server's answer.
	pendingJoin string

	// Image rendering
	inlineImages   bool
	imageHintShown bool

	// Presentation
	showTimestamps  bool
	timestampFormat string

	// Error and status
	errorMessage  string
	statusMessage string

	// Desktop notifications, nil when disabled
	notifier *client.Notifier

	// Version tracking
	currentVersion  string
	latestVersion   string
	updateAvailable bool

	logger *log.Logger
}

// Options carries the startup configuration into NewModel.
type Options struct {
	Nickname        string
	Location        *protocol.Location
	ShowTimestamps  bool
	TimestampFormat string
	Version         string
	Notifier        *client.Notifier
	Logger          *log.Logger
}

// NewModel creates the application model. The connection is expected to be
// established already; its event channel drives everything from here.
func NewModel(conn client.ConnectionInterface, state client.StateInterface, opts Options) Model {
	rooms := client.NewRooms()
	router := client.NewRouter(rooms, opts.Nickname)
	router.SetLogger(opts.Logger)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	format := opts.TimestampFormat
	if format == "" {
		format = "15:04"
	}

	return Model{
		conn:            conn,
		state:           state,
		rooms:           rooms,
		router:          router,
		connState:       conn.State(),
		nickname:        opts.Nickname,
		location:        opts.Location,
		spinner:         s,
		inlineImages:    supportsInlineImages(),
		showTimestamps:  opts.ShowTimestamps,
		timestampFormat: format,
		notifier:        opts.Notifier,
		currentVersion:  opts.Version,
		logger:          opts.Logger,
	}
}

// ConnEventMsg wraps one connection event for the update loop.
type ConnEventMsg struct {
	Event client.Event
}

// SendErrMsg reports a failed outbound send.
type SendErrMsg struct {
	Err error
}

// VersionCheckMsg delivers the result of the background update check.
type VersionCheckMsg struct {
	LatestVersion   string
	UpdateAvailable bool
}

// Init starts the event pump, the spinner, and the background update
// check.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		listenForEvents(m.conn),
		m.spinner.Tick,
		checkForUpdates(m.currentVersion),
	)
}

// listenForEvents waits for the next connection event. The update loop
// re-issues it after handling each one, so the channel is always drained.
func listenForEvents(conn client.ConnectionInterface) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-conn.Events()
		if !ok {
			return nil
		}
		return ConnEventMsg{Event: ev}
	}
}

// checkForUpdates checks for a newer release in the background.
func checkForUpdates(currentVersion string) tea.Cmd {
	return func() tea.Msg {
		latestVersion, err := updater.CheckLatestVersion()
		if err != nil {
			// Silently fail - don't bother the user with update check failures
			return nil
		}
		return VersionCheckMsg{
			LatestVersion:   latestVersion,
			UpdateAvailable: updater.CompareVersions(currentVersion, latestVersion),
		}
	}
}
