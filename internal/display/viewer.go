package display

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/image/draw"

	"github.com/muurk/tc2frames/internal/pipeline"
	"github.com/muurk/tc2frames/internal/receiver"
	"github.com/muurk/tc2frames/internal/thermal"
)

// FrameSource is the consumer side of the frame path.
type FrameSource interface {
	TryTakeReadyFrame() (*thermal.Image, bool)
	Stats() pipeline.Stats
}

// StatsSource reports what the receiver has seen.
type StatsSource interface {
	Stats() receiver.Stats
}

type tickMsg time.Time

func tick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// viewerKeyMap defines key bindings for the live view
type viewerKeyMap struct {
	Help key.Binding
	Quit key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k viewerKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k viewerKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Help, k.Quit}}
}

// ViewerOptions configures the live view.
type ViewerOptions struct {
	ListenAddr   string // shown in the header
	Advertised   string // mDNS name, empty when not advertising
	Gradient     string
	PollInterval time.Duration
	Scaler       draw.Scaler
}

// Viewer is a Bubble Tea model that shows the newest frame in the
// terminal. It polls the frame source on every tick and keeps showing the
// previous frame when nothing new is ready.
type Viewer struct {
	source FrameSource
	stats  StatsSource
	opts   ViewerOptions

	frame     *thermal.Image
	presented int

	width   int
	height  int
	spinner spinner.Model
	help    help.Model
	keys    viewerKeyMap
}

// NewViewer creates the live view. stats may be nil.
func NewViewer(source FrameSource, stats StatsSource, opts ViewerOptions) Viewer {
	if opts.PollInterval <= 0 {
		opts.PollInterval = pipeline.DefaultPollInterval
	}
	if opts.Scaler == nil {
		opts.Scaler = draw.BiLinear
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	width, height := GetTerminalSize()

	return Viewer{
		source:  source,
		stats:   stats,
		opts:    opts,
		width:   width,
		height:  height,
		spinner: s,
		help:    help.New(),
		keys: viewerKeyMap{
			Help: key.NewBinding(
				key.WithKeys("?"),
				key.WithHelp("?", "toggle help"),
			),
			Quit: key.NewBinding(
				key.WithKeys("q", "esc", "ctrl+c"),
				key.WithHelp("q/esc", "quit"),
			),
		},
	}
}

// Init implements tea.Model
func (m Viewer) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tick(m.opts.PollInterval))
}

// Update implements tea.Model
func (m Viewer) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case tickMsg:
		if img, ok := m.source.TryTakeReadyFrame(); ok {
			m.frame = img
			m.presented++
		}
		return m, tick(m.opts.PollInterval)

	case spinner.TickMsg:
		if m.frame != nil {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View implements tea.Model
func (m Viewer) View() string {
	clip := lipgloss.NewStyle().MaxWidth(m.width)
	header := clip.Render(m.renderHeader())
	status := clip.Render(m.renderStatus())
	helpView := clip.Render(HelpStyle.Render(m.help.View(m.keys)))

	var body string
	if m.frame == nil {
		body = lipgloss.Place(m.width, 3, lipgloss.Center, lipgloss.Center,
			fmt.Sprintf("%s %s", m.spinner.View(), WaitingStyle.Render("Waiting for camera...")))
	} else {
		maxRows := m.height - chromeHeight
		cols, rows := FitCells(m.frame.Width, m.frame.Height, m.width, maxRows)
		body = lipgloss.PlaceHorizontal(m.width, lipgloss.Center,
			RenderHalfBlocks(m.frame, cols, rows, m.opts.Scaler))
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, "", body, "", status, helpView)
}

func (m Viewer) renderHeader() string {
	parts := []string{TitleStyle.Render("TC2 FRAMES")}
	if m.opts.ListenAddr != "" {
		parts = append(parts, HeaderKeyStyle.Render("listening")+" "+HeaderValueStyle.Render(m.opts.ListenAddr))
	}
	if m.opts.Advertised != "" {
		parts = append(parts, HeaderKeyStyle.Render("mdns")+" "+HeaderValueStyle.Render(m.opts.Advertised))
	}
	if m.opts.Gradient != "" {
		parts = append(parts, HeaderKeyStyle.Render("palette")+" "+HeaderValueStyle.Render(m.opts.Gradient))
	}
	return strings.Join(parts, "  ")
}

func (m Viewer) renderStatus() string {
	var parts []string

	if m.stats != nil {
		rs := m.stats.Stats()
		if rs.RemoteAddr != "" {
			parts = append(parts, LiveStyle.Render("● "+rs.RemoteAddr))
		} else {
			parts = append(parts, WaitingStyle.Render("○ no camera"))
		}
		parts = append(parts, fmt.Sprintf("received %d", rs.Frames))
		if rs.ShortReads > 0 {
			parts = append(parts, fmt.Sprintf("short %d", rs.ShortReads))
		}
		if rs.LastTelemetry != nil {
			parts = append(parts, rs.LastTelemetry.String())
		}
	}

	ps := m.source.Stats()
	parts = append(parts, fmt.Sprintf("shown %d", m.presented))
	if ps.SkippedSwaps > 0 {
		parts = append(parts, WaitingStyle.Render(fmt.Sprintf("skipped %d", ps.SkippedSwaps)))
	}
	if ps.DecodeErrors > 0 {
		parts = append(parts, ErrorTextStyle.Render(fmt.Sprintf("errors %d", ps.DecodeErrors)))
	}

	if m.frame != nil {
		parts = append(parts, fmt.Sprintf("range %d-%d", m.frame.Range.Min, m.frame.Range.Max))
	}

	return StatusBarStyle.Render(strings.Join(parts, " · "))
}

// Presented returns how many frames the viewer has taken from the source.
func (m Viewer) Presented() int {
	return m.presented
}

// RunViewer runs the live view full screen until the user quits or ctx is
// done.
func RunViewer(ctx context.Context, m Viewer) error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil && errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("viewer failed: %w", err)
	}
	return nil
}
