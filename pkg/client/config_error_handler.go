// ABOUTME: Standalone TUI shown when the config file fails to parse or
// ABOUTME: validate, offering a reset-to-defaults path before exit
package client

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ConfigErrorHandler is a minimal bubbletea program that explains a
// broken config file and lets the user reset it to defaults. It runs
// instead of the chat UI, never alongside it.
type ConfigErrorHandler struct {
	configPath       string
	errorMessage     string
	lineNumber       int
	fileContent      []string
	showBackupOption bool
	resultMessage    string
	width            int
	height           int
}

// NewConfigErrorHandler creates a handler for the given config error
func NewConfigErrorHandler(configPath string, err *ConfigError) *ConfigErrorHandler {
	h := &ConfigErrorHandler{
		configPath:   configPath,
		errorMessage: err.Message,
		lineNumber:   err.LineNumber,
		width:        80,
		height:       24,
	}

	// Only bother loading the file when we can point at a line
	if err.LineNumber > 0 {
		h.fileContent = readFileLines(configPath)
	}

	return h
}

func readFileLines(path string) []string {
	file, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines
}

// Init initializes the handler
func (h *ConfigErrorHandler) Init() tea.Cmd {
	return nil
}

// Update processes messages
func (h *ConfigErrorHandler) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		h.width = msg.Width
		h.height = msg.Height
		return h, nil

	case tea.KeyMsg:
		if h.showBackupOption {
			switch msg.String() {
			case "y", "Y":
				return h, h.resetCmd(true)
			case "n", "N":
				return h, h.resetCmd(false)
			case "esc", "c", "C":
				h.showBackupOption = false
			}
			return h, nil
		}

		switch msg.String() {
		case "r", "R":
			h.showBackupOption = true
			return h, nil
		case "q", "Q", "esc", "ctrl+c":
			return h, tea.Quit
		}
		return h, nil

	case resetCompleteMsg:
		h.resultMessage = "Configuration reset to defaults. Restart parley to continue."
		return h, tea.Quit

	case resetErrorMsg:
		h.resultMessage = fmt.Sprintf("Failed to reset config: %v", msg.err)
		return h, tea.Quit
	}

	return h, nil
}

func (h *ConfigErrorHandler) resetCmd(backup bool) tea.Cmd {
	path := h.configPath
	return func() tea.Msg {
		if err := ResetConfigToDefault(path, backup); err != nil {
			return resetErrorMsg{err: err}
		}
		return resetCompleteMsg{}
	}
}

// View renders the handler
func (h *ConfigErrorHandler) View() string {
	if h.showBackupOption {
		return h.renderBackupPrompt()
	}
	return h.renderError()
}

func (h *ConfigErrorHandler) renderError() string {
	errorColor := lipgloss.Color("196")
	mutedColor := lipgloss.Color("240")

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(errorColor).
		Align(lipgloss.Center).
		MarginBottom(1).
		Render("⚠  Configuration File Error")

	filePath := lipgloss.NewStyle().
		Foreground(mutedColor).
		Align(lipgloss.Center).
		Render("File: " + h.configPath)

	errorMsg := lipgloss.NewStyle().
		Foreground(errorColor).
		Width(64).
		MarginTop(1).
		MarginBottom(1).
		Render(h.errorMessage)

	options := lipgloss.NewStyle().
		Foreground(mutedColor).
		Align(lipgloss.Center).
		MarginTop(1).
		Render("[R] Reset to default  [Q] Quit")

	parts := []string{"", title, filePath, errorMsg}
	if ctx := h.renderLineContext(); ctx != "" {
		parts = append(parts, ctx)
	}
	parts = append(parts, "", options, "")

	content := lipgloss.JoinVertical(lipgloss.Center, parts...)

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(errorColor).
		Padding(1, 3).
		Width(70).
		Render(content)

	return lipgloss.Place(h.width, h.height, lipgloss.Center, lipgloss.Center, box)
}

func (h *ConfigErrorHandler) renderBackupPrompt() string {
	primaryColor := lipgloss.Color("39")
	mutedColor := lipgloss.Color("240")

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(primaryColor).
		Align(lipgloss.Center).
		MarginBottom(1).
		Render("Backup Configuration?")

	message := lipgloss.NewStyle().
		Foreground(lipgloss.Color("252")).
		Align(lipgloss.Center).
		MarginBottom(1).
		Render("Do you want to backup the current config before resetting?")

	options := lipgloss.NewStyle().
		Foreground(mutedColor).
		Align(lipgloss.Center).
		MarginTop(1).
		Render("[Y] Yes, backup first  [N] No, just reset  [C] Cancel")

	content := lipgloss.JoinVertical(lipgloss.Center, "", title, message, options, "")

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(primaryColor).
		Padding(1, 3).
		Width(70).
		Render(content)

	return lipgloss.Place(h.width, h.height, lipgloss.Center, lipgloss.Center, box)
}

// renderLineContext shows the failing line with two lines of context
func (h *ConfigErrorHandler) renderLineContext() string {
	if h.lineNumber <= 0 || len(h.fileContent) == 0 {
		return ""
	}

	mutedColor := lipgloss.Color("240")
	errorColor := lipgloss.Color("196")
	lineNumStyle := lipgloss.NewStyle().Foreground(mutedColor).Width(4)
	errorLineStyle := lipgloss.NewStyle().Foreground(errorColor).Bold(true)
	normalLineStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("252"))

	start := h.lineNumber - 3
	if start < 0 {
		start = 0
	}
	end := h.lineNumber + 2
	if end > len(h.fileContent) {
		end = len(h.fileContent)
	}

	var lines []string
	for i := start; i < end; i++ {
		lineNum := i + 1
		lineText := h.fileContent[i]
		if len(lineText) > 60 {
			lineText = lineText[:57] + "..."
		}

		prefix := lineNumStyle.Render(fmt.Sprintf("%3d", lineNum))
		if lineNum == h.lineNumber {
			lines = append(lines, prefix+errorLineStyle.Render("▶ "+lineText))
		} else {
			lines = append(lines, prefix+normalLineStyle.Render("  "+lineText))
		}
	}

	return strings.Join(lines, "\n")
}

type resetCompleteMsg struct{}
type resetErrorMsg struct{ err error }

// HandleConfigError shows a TUI for a broken config file. Returns true
// when the error was a ConfigError and has been presented; the caller
// should exit without further output.
func HandleConfigError(configPath string, err error) bool {
	configErr, ok := err.(*ConfigError)
	if !ok {
		return false
	}

	handler := NewConfigErrorHandler(configPath, configErr)
	p := tea.NewProgram(handler)
	finalModel, runErr := p.Run()
	if runErr != nil {
		fmt.Printf("Error displaying config error: %v\n", runErr)
		return true
	}

	if h, ok := finalModel.(*ConfigErrorHandler); ok && h.resultMessage != "" {
		fmt.Println(h.resultMessage)
	}

	return true
}
