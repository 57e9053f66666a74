// ABOUTME: Formatting utilities for the client UI
// ABOUTME: Shared helpers for sizes, timestamps, and notification text
package client

import (
	"fmt"
	"time"
)

// FormatBytes formats bytes into human-readable form (B, KB, MB, etc.)
func FormatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%dB", bytes)
	}
	div, exp := uint64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f%cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// FormatClock renders a message timestamp using the configured layout.
// A zero time (messages that arrived without one) falls back to now.
func FormatClock(t time.Time, layout string) string {
	if layout == "" {
		layout = "15:04"
	}
	if t.IsZero() {
		t = time.Now()
	}
	return t.Format(layout)
}

// FormatRelativeTime formats a timestamp relative to now
// Returns strings like "just now", "5m ago", "2h ago", "3d ago"
func FormatRelativeTime(t time.Time) string {
	now := time.Now()
	diff := now.Sub(t)

	if diff < time.Minute {
		return "just now"
	}
	if diff < time.Hour {
		mins := int(diff.Minutes())
		return fmt.Sprintf("%dm ago", mins)
	}
	if diff < 24*time.Hour {
		hours := int(diff.Hours())
		return fmt.Sprintf("%dh ago", hours)
	}
	days := int(diff.Hours() / 24)
	return fmt.Sprintf("%dd ago", days)
}

// TruncateText shortens s to at most max runes, appending an ellipsis when
// anything was cut. Used for notification bodies and narrow list entries.
func TruncateText(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max == 1 {
		return "…"
	}
	return string(runes[:max-1]) + "…"
}
