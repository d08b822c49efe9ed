package display

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Color palette
var (
	PrimaryColor   = lipgloss.Color("#7D56F4") // Purple - headers, borders
	SecondaryColor = lipgloss.Color("#43BF6D") // Green - live status
	WarningColor   = lipgloss.Color("#FFA500") // Orange - waiting, skipped frames
	ErrorColor     = lipgloss.Color("#FF5555") // Red
	TextColor      = lipgloss.Color("#FFFFFF")
	SubtleColor    = lipgloss.Color("#626262")
	HighlightColor = lipgloss.Color("#43BF6D")
)

// Layout constants
const (
	MinTerminalWidth  = 40
	MinTerminalHeight = 12
	MaxContentWidth   = 120

	// chromeHeight is the number of lines the header, status line and
	// help take up around the image.
	chromeHeight = 6
)

var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Bold(true)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(SubtleColor).
			Italic(true)

	HeaderKeyStyle = lipgloss.NewStyle().
			Foreground(SubtleColor)

	HeaderValueStyle = lipgloss.NewStyle().
				Foreground(TextColor)

	LiveStyle = lipgloss.NewStyle().
			Foreground(SecondaryColor).
			Bold(true)

	WaitingStyle = lipgloss.NewStyle().
			Foreground(WarningColor).
			Bold(true)

	StatusBarStyle = lipgloss.NewStyle().
			Foreground(SubtleColor).
			Padding(0, 1)

	SpinnerStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor)

	ErrorTextStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)

	SelectedItemStyle = lipgloss.NewStyle().
				Foreground(HighlightColor).
				Bold(true)

	CardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(PrimaryColor).
			Padding(0, 2).
			MarginLeft(2)

	HelpStyle = lipgloss.NewStyle().
			Foreground(SubtleColor).
			PaddingLeft(1)
)

// GetTerminalSize returns the current terminal width and height, with a
// fallback when stdout is not a terminal.
func GetTerminalSize() (int, int) {
	width, height, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 80, 24
	}
	if width < MinTerminalWidth {
		width = MinTerminalWidth
	}
	if height < MinTerminalHeight {
		height = MinTerminalHeight
	}
	return width, height
}

// IsTerminal reports whether stdout is attached to a terminal.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// contentWidth caps width for text blocks.
func contentWidth(width int) int {
	if width <= 0 {
		width = 80
	}
	if width > MaxContentWidth {
		return MaxContentWidth
	}
	return width
}
