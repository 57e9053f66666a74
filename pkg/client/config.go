package client

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// TOMLConfig represents the structure of the client config file
type TOMLConfig struct {
	Connection  ConnectionSection  `toml:"connection"`
	User        UserSection        `toml:"user"`
	UI          UISection          `toml:"ui"`
	Diagnostics DiagnosticsSection `toml:"diagnostics"`
}

type ConnectionSection struct {
	ServerURL     string `toml:"server_url"`
	AutoReconnect bool   `toml:"auto_reconnect"`
}

type UserSection struct {
	Nickname      string `toml:"nickname"`
	ShareLocation bool   `toml:"share_location"`
	StateDB       string `toml:"state_db"`
}

type UISection struct {
	ShowTimestamps  bool   `toml:"show_timestamps"`
	TimestampFormat string `toml:"timestamp_format"`
	Notifications   bool   `toml:"notifications"`
}

type DiagnosticsSection struct {
	MetricsAddr string `toml:"metrics_addr"`
	LogFile     string `toml:"log_file"`
}

// ConfigError represents a structured configuration error
type ConfigError struct {
	Path       string
	Message    string
	LineNumber int // 0 if not a parse error
}

func (e *ConfigError) Error() string {
	if e.LineNumber > 0 {
		return fmt.Sprintf("%s (line %d)", e.Message, e.LineNumber)
	}
	return e.Message
}

// getXDGConfigHome returns the XDG config directory
func getXDGConfigHome() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return xdg
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".config")
}

// getXDGDataHome returns the XDG data directory
func getXDGDataHome() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return xdg
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".local", "share")
}

// DefaultConfigPath returns the XDG location of the client config file
func DefaultConfigPath() string {
	return filepath.Join(getXDGConfigHome(), "parley", "config.toml")
}

// DefaultDataDir returns the XDG directory for the state database and
// other local data
func DefaultDataDir() string {
	return filepath.Join(getXDGDataHome(), "parley")
}

// DefaultTOMLConfig returns the default TOML configuration
func DefaultTOMLConfig() TOMLConfig {
	return TOMLConfig{
		Connection: ConnectionSection{
			ServerURL:     "wss://parley.chat/ws",
			AutoReconnect: true,
		},
		User: UserSection{
			Nickname:      "",
			ShareLocation: true,
			StateDB:       filepath.Join(DefaultDataDir(), "state.db"),
		},
		UI: UISection{
			ShowTimestamps:  true,
			TimestampFormat: "15:04",
			Notifications:   true,
		},
		Diagnostics: DiagnosticsSection{
			MetricsAddr: "",
			LogFile:     "",
		},
	}
}

// LoadClientConfig loads configuration from a TOML file, creates default if not found
func LoadClientConfig(path string) (TOMLConfig, error) {
	// Expand ~ in path
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return TOMLConfig{}, fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	// Check if file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		// File doesn't exist, create default config
		config := DefaultTOMLConfig()
		if err := writeDefaultConfig(path, config); err != nil {
			// If we can't write, just return defaults without error
			// (might be a permissions issue, but we can still run)
			return config, nil
		}
		return config, nil
	}

	// Load from file
	var config TOMLConfig
	if _, err := toml.DecodeFile(path, &config); err != nil {
		// Try to extract line number from TOML error
		lineNum := extractLineNumber(err.Error())
		return TOMLConfig{}, &ConfigError{
			Path:       path,
			Message:    cleanErrorMessage(err.Error()),
			LineNumber: lineNum,
		}
	}

	// Validate config values
	if err := validateConfig(&config); err != nil {
		return TOMLConfig{}, &ConfigError{
			Path:       path,
			Message:    err.Error(),
			LineNumber: 0,
		}
	}

	return config, nil
}

// extractLineNumber tries to extract a line number from a TOML parse error
func extractLineNumber(errMsg string) int {
	// TOML errors typically format like "line 12: ..." or "at line 12"
	re := regexp.MustCompile(`line (\d+)`)
	matches := re.FindStringSubmatch(errMsg)
	if len(matches) > 1 {
		if num, err := strconv.Atoi(matches[1]); err == nil {
			return num
		}
	}
	return 0
}

// cleanErrorMessage removes redundant parts from error messages
func cleanErrorMessage(errMsg string) string {
	// Remove "toml: " prefix if present
	errMsg = strings.TrimPrefix(errMsg, "toml: ")
	return errMsg
}

// validateConfig validates configuration values
func validateConfig(config *TOMLConfig) error {
	var errors []string

	if server := NormalizeServerURL(config.Connection.ServerURL); server != "" {
		u, err := url.Parse(server)
		if err != nil {
			errors = append(errors, fmt.Sprintf("Invalid server URL: %v", err))
		} else if u.Scheme != "ws" && u.Scheme != "wss" {
			errors = append(errors, fmt.Sprintf("Invalid server URL scheme: %q (must be ws or wss)", u.Scheme))
		}
	}

	if addr := strings.TrimSpace(config.Diagnostics.MetricsAddr); addr != "" {
		if _, _, err := net.SplitHostPort(addr); err != nil {
			errors = append(errors, fmt.Sprintf("Invalid metrics address: %q (must be host:port)", addr))
		}
	}

	if strings.TrimSpace(config.User.StateDB) == "" {
		errors = append(errors, "State database path cannot be empty")
	}

	if len(errors) > 0 {
		return fmt.Errorf("Configuration validation failed:\n  • %s", strings.Join(errors, "\n  • "))
	}

	return nil
}

// writeDefaultConfig writes the default config to a file
func writeDefaultConfig(path string, config TOMLConfig) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Create file
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	// Write header comment
	header := `# Parley Client Configuration
# This file was auto-generated with default values
# Edit as needed - changes take effect on next client start

`
	if _, err := f.WriteString(header); err != nil {
		return err
	}

	// Encode config as TOML
	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(config); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// ResetConfigToDefault resets the config file to default values
// If backup is true, creates a backup with timestamp
func ResetConfigToDefault(path string, backup bool) error {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if backup {
		backupPath := fmt.Sprintf("%s.backup-%s", path, time.Now().Format("2006-01-02"))
		if err := copyFile(path, backupPath); err != nil {
			return fmt.Errorf("failed to create backup: %w", err)
		}
	}

	config := DefaultTOMLConfig()
	if err := writeDefaultConfig(path, config); err != nil {
		return fmt.Errorf("failed to write default config: %w", err)
	}

	return nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0644)
}

// GetStateDBPath returns the state database path with ~ expanded
func (c *TOMLConfig) GetStateDBPath() (string, error) {
	path := c.User.StateDB
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}
	return path, nil
}

// GetServerURL returns the configured server URL, normalizing bare
// host[:port] values into a ws:// URL with the default /ws path
func (c *TOMLConfig) GetServerURL() string {
	return NormalizeServerURL(c.Connection.ServerURL)
}
