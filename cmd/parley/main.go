package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/aeolun/parley/pkg/client"
	"github.com/aeolun/parley/pkg/client/assets"
	"github.com/aeolun/parley/pkg/client/ui"
	"github.com/aeolun/parley/pkg/protocol"
)

var (
	// Version is set at build time via ldflags
	Version = "dev"
)

func main() {
	// Command line flags
	configPath := flag.String("config", client.DefaultConfigPath(), "Path to config file")
	server := flag.String("server", "", "Server URL or host:port (overrides config)")
	nick := flag.String("nick", "", "Nickname to chat as (overrides config)")
	room := flag.String("room", client.LobbyRoom, "Room to join on connect")
	metricsAddr := flag.String("metrics", "", "Serve Prometheus metrics on this host:port (overrides config)")
	logFile := flag.String("log", "", "Write debug logs to this file (overrides config)")
	noGeo := flag.Bool("no-geo", false, "Skip the location lookup, send no origin tag")
	version := flag.Bool("version", false, "Show version information")
	flag.Parse()

	// Handle --version flag
	if *version {
		fmt.Printf("parley %s\n", Version)
		os.Exit(0)
	}

	// Load configuration (creates default if not found)
	config, err := client.LoadClientConfig(*configPath)
	if err != nil {
		if client.HandleConfigError(*configPath, err) {
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Command-line flags override config file
	if *server != "" {
		config.Connection.ServerURL = *server
	}
	if *nick != "" {
		config.User.Nickname = *nick
	}
	if *metricsAddr != "" {
		config.Diagnostics.MetricsAddr = *metricsAddr
	}
	if *logFile != "" {
		config.Diagnostics.LogFile = *logFile
	}

	// Debug logging goes to a file; stdout and stderr belong to the TUI
	var logger *log.Logger
	if path := config.Diagnostics.LogFile; path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		logger = log.New(f, "", log.Ldate|log.Ltime|log.Lmicroseconds)
	}

	// Open state database
	statePath, err := config.GetStateDBPath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to resolve state path: %v\n", err)
		os.Exit(1)
	}
	if err := os.MkdirAll(filepath.Dir(statePath), 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create data directory: %v\n", err)
		os.Exit(1)
	}
	state, err := client.OpenState(statePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open state database: %v\n", err)
		os.Exit(1)
	}
	defer state.Close()

	// Resolve the nickname: flag/config beats the last-used one, and a
	// first run without either asks on stdin before the TUI starts.
	nickname := strings.TrimSpace(config.User.Nickname)
	if nickname == "" {
		nickname = state.GetLastNickname()
	}
	if nickname == "" {
		nickname, err = promptNickname()
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
	}
	if err := state.SetLastNickname(nickname); err != nil && logger != nil {
		logger.Printf("Failed to store nickname: %v", err)
	}
	if state.GetFirstRun() {
		_ = state.SetFirstRunComplete()
	}

	// Optional location tag for outgoing messages
	var location *protocol.Location
	if !*noGeo && config.User.ShareLocation {
		loc, err := client.LookupLocation(context.Background())
		if err != nil {
			if logger != nil {
				logger.Printf("Location lookup failed: %v", err)
			}
		} else {
			location = loc
		}
	}

	// Metrics are only exported when an address is configured
	var metrics *client.Metrics
	if addr := config.Diagnostics.MetricsAddr; addr != "" {
		metrics = client.NewMetrics()
		go func() {
			if err := client.ServeMetrics(addr); err != nil && logger != nil {
				logger.Printf("Metrics listener failed: %v", err)
			}
		}()
	}

	// Desktop notifications need the icon on disk
	var notifier *client.Notifier
	if config.UI.Notifications {
		iconPath, err := assets.GetIconPath(filepath.Dir(statePath), state)
		if err != nil {
			if logger != nil {
				logger.Printf("Failed to write notification icon: %v", err)
			}
			iconPath = ""
		}
		notifier = client.NewNotifier(iconPath, logger)
	}

	// Create connection
	serverURL := config.GetServerURL()
	conn, err := client.NewWebSocketConnection(serverURL, nickname, *room)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	conn.SetLogger(logger)
	conn.SetMetrics(metrics)
	if !config.Connection.AutoReconnect {
		conn.DisableAutoReconnect()
	}

	// The first dial is synchronous: a wrong address should fail fast on
	// the terminal, not inside the TUI
	if err := conn.Connect(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to %s: %v\n", conn.GetAddress(), err)
		os.Exit(1)
	}
	defer conn.Close()

	// Create bubbletea program
	model := ui.NewModel(conn, state, ui.Options{
		Nickname:        nickname,
		Location:        location,
		ShowTimestamps:  config.UI.ShowTimestamps,
		TimestampFormat: config.UI.TimestampFormat,
		Version:         Version,
		Notifier:        notifier,
		Logger:          logger,
	})
	p := tea.NewProgram(model, tea.WithAltScreen())

	// Run the program
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error running program: %v\n", err)
		os.Exit(1)
	}
}

// promptNickname asks for a nickname on stdin before the TUI starts.
// Only reached on a first run with no -nick flag and no config value.
func promptNickname() (string, error) {
	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("Choose a nickname: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read nickname: %w", err)
		}
		nickname := strings.TrimSpace(line)
		switch {
		case nickname == "":
			fmt.Println("Nickname cannot be empty.")
		case strings.Contains(nickname, " "):
			fmt.Println("Nickname cannot contain spaces.")
		case len([]rune(nickname)) > 20:
			fmt.Println("Nickname must be 20 characters or fewer.")
		default:
			return nickname, nil
		}
	}
}
