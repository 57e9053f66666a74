package ui

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	// Color scheme (exported for reuse by callers embedding the UI)
	PrimaryColor   = lipgloss.Color("39")  // Blue
	SecondaryColor = lipgloss.Color("213") // Pink
	SuccessColor   = lipgloss.Color("42")  // Green
	ErrorColor     = lipgloss.Color("196") // Red
	WarningColor   = lipgloss.Color("214") // Orange
	MutedColor     = lipgloss.Color("243") // Gray
	BorderColor    = lipgloss.Color("238") // Dark gray

	// Base styles
	BaseStyle = lipgloss.NewStyle()

	// Header styles
	HeaderStyle = BaseStyle.Copy().
			Bold(true).
			Foreground(PrimaryColor).
			Padding(0, 1)

	StatusStyle = BaseStyle.Copy().
			Foreground(MutedColor).
			Padding(0, 1)

	// Footer styles
	FooterStyle = BaseStyle.Copy().
			Foreground(MutedColor).
			Padding(0, 1)

	ShortcutKeyStyle = BaseStyle.Copy().
				Foreground(PrimaryColor).
				Bold(true)

	ShortcutDescStyle = BaseStyle.Copy().
				Foreground(lipgloss.Color("252"))

	// List styles
	SelectedItemStyle = BaseStyle.Copy().
				Foreground(PrimaryColor).
				Bold(true)

	UnselectedItemStyle = BaseStyle.Copy().
				Foreground(lipgloss.Color("252"))

	// Room list styles
	RoomPaneStyle = BaseStyle.Copy().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(BorderColor).
			Padding(0, 1)

	RoomTitleStyle = BaseStyle.Copy().
			Bold(true).
			Foreground(PrimaryColor)

	UnreadRoomStyle = BaseStyle.Copy().
			Foreground(WarningColor).
			Bold(true)

	// Chat pane styles
	ChatPaneStyle = BaseStyle.Copy().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(BorderColor).
			Padding(0, 1)

	// User list styles
	UserPaneStyle = BaseStyle.Copy().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(BorderColor).
			Padding(0, 1)

	UserTitleStyle = BaseStyle.Copy().
			Bold(true).
			Foreground(PrimaryColor)

	// Message styles
	MessageSenderStyle = BaseStyle.Copy().
				Foreground(SecondaryColor)

	MessageOwnSenderStyle = BaseStyle.Copy().
				Foreground(SuccessColor).
				Bold(true)

	MessageTimeStyle = BaseStyle.Copy().
				Foreground(MutedColor).
				Italic(true)

	MessageContentStyle = BaseStyle.Copy().
				Foreground(lipgloss.Color("252"))

	SystemNoticeStyle = BaseStyle.Copy().
				Foreground(MutedColor).
				Italic(true)

	// Flow prompt styles (room creation / password entry on the input line)
	FlowPromptStyle = BaseStyle.Copy().
			Bold(true).
			Foreground(SecondaryColor)

	// Completion popup styles
	PopupStyle = BaseStyle.Copy().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(PrimaryColor).
			Padding(0, 1)

	PopupSelectedStyle = BaseStyle.Copy().
				Foreground(PrimaryColor).
				Bold(true)

	PopupItemStyle = BaseStyle.Copy().
			Foreground(lipgloss.Color("252"))

	// Error/success styles
	ErrorStyle = BaseStyle.Copy().
			Foreground(ErrorColor).
			Bold(true)

	SuccessStyle = BaseStyle.Copy().
			Foreground(SuccessColor).
			Bold(true)

	WarningStyle = BaseStyle.Copy().
			Foreground(WarningColor).
			Bold(true)

	// Help styles
	HelpTitleStyle = BaseStyle.Copy().
			Bold(true).
			Foreground(PrimaryColor).
			MarginBottom(1)

	HelpKeyStyle = BaseStyle.Copy().
			Foreground(PrimaryColor).
			Bold(true).
			Width(12)

	HelpDescStyle = BaseStyle.Copy().
			Foreground(lipgloss.Color("252"))

	// Muted text style
	MutedTextStyle = BaseStyle.Copy().
			Foreground(MutedColor)

	// Spinner style
	SpinnerStyle = BaseStyle.Copy().
			Foreground(PrimaryColor)
)

// RenderShortcut renders a keyboard shortcut
func RenderShortcut(key, desc string) string {
	return ShortcutKeyStyle.Render("["+key+"]") + " " + ShortcutDescStyle.Render(desc)
}

// RenderError renders an error message
func RenderError(msg string) string {
	return ErrorStyle.Render("✗ " + msg)
}

// RenderSuccess renders a success message
func RenderSuccess(msg string) string {
	return SuccessStyle.Render("✓ " + msg)
}

// RenderWarning renders a warning message
func RenderWarning(msg string) string {
	return WarningStyle.Render("⚠ " + msg)
}
