package display

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/tc2frames/internal/discovery"
)

// EndpointScanner browses for frame receivers.
type EndpointScanner interface {
	Scan(ctx context.Context) ([]*discovery.Endpoint, error)
}

// Messages for async operations
type scanStartMsg struct{}
type scanCompleteMsg struct {
	endpoints []*discovery.Endpoint
	err       error
}

// pickerKeyMap defines key bindings for the receiver list
type pickerKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Enter  key.Binding
	Rescan key.Binding
	Manual key.Binding
	Quit   key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k pickerKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Enter, k.Rescan, k.Manual, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k pickerKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Enter},
		{k.Rescan, k.Manual, k.Quit},
	}
}

// manualKeyMap defines key bindings for manual address entry
type manualKeyMap struct {
	Confirm key.Binding
	Cancel  key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (m manualKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{m.Confirm, m.Cancel}
}

// FullHelp returns keybindings for the expanded help view
func (m manualKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{m.Confirm, m.Cancel}}
}

// endpointItem wraps an Endpoint for use with bubbles/list
type endpointItem struct {
	endpoint *discovery.Endpoint
}

func (e endpointItem) FilterValue() string {
	return e.endpoint.Instance + " " + e.endpoint.IP + " " + e.endpoint.Hostname
}

func (e endpointItem) Title() string {
	if e.endpoint.Instance == manualInstance {
		return "Manual: " + e.endpoint.Addr()
	}
	return e.endpoint.Instance
}

func (e endpointItem) Description() string {
	return fmt.Sprintf("%s • %s", e.endpoint.Addr(), e.endpoint.Hostname)
}

// endpointDelegate renders each receiver as a small card
type endpointDelegate struct{}

func (d endpointDelegate) Height() int { return 4 }

func (d endpointDelegate) Spacing() int { return 1 }

func (d endpointDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d endpointDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(endpointItem)
	if !ok {
		return
	}
	selected := index == m.Index()

	var content strings.Builder
	if selected {
		content.WriteString(SelectedItemStyle.Render("→ " + it.Title()))
	} else {
		content.WriteString("  " + it.Title())
	}
	content.WriteString("\n")
	content.WriteString(fmt.Sprintf("  Address: %s", it.endpoint.Addr()))

	style := CardStyle
	if selected {
		style = style.BorderForeground(HighlightColor)
	}
	fmt.Fprint(w, style.Render(content.String()))
}

const manualInstance = "manual"

// Picker is a Bubble Tea model that scans for receivers and lets the user
// choose one, or type an address by hand.
type Picker struct {
	scanner     EndpointScanner
	timeout     time.Duration
	defaultPort int

	scanning   bool
	scanStart  time.Time
	endpoints  list.Model
	selected   *discovery.Endpoint
	err        error
	manualMode bool
	manualErr  string
	addrInput  textinput.Model

	width       int
	height      int
	spinner     spinner.Model
	progressBar progress.Model
	help        help.Model
	keys        pickerKeyMap
	manualKeys  manualKeyMap
}

// NewPicker creates a picker. timeout is only used to draw scan progress;
// the scanner enforces its own deadline. defaultPort is used for manual
// entries without a port.
func NewPicker(scanner EndpointScanner, timeout time.Duration, defaultPort int) Picker {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	input := textinput.New()
	input.Placeholder = "192.168.1.20:" + strconv.Itoa(defaultPort)
	input.CharLimit = 64
	input.Width = 30

	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 40

	endpoints := list.New([]list.Item{}, endpointDelegate{}, 0, 0)
	endpoints.Title = "Frame Receivers"
	endpoints.SetShowStatusBar(false)
	endpoints.SetFilteringEnabled(true)
	endpoints.SetShowHelp(false)
	endpoints.Styles.Title = TitleStyle

	return Picker{
		scanner:     scanner,
		timeout:     timeout,
		defaultPort: defaultPort,
		endpoints:   endpoints,
		addrInput:   input,
		spinner:     s,
		progressBar: bar,
		help:        help.New(),
		keys: pickerKeyMap{
			Up: key.NewBinding(
				key.WithKeys("up", "k"),
				key.WithHelp("↑/k", "move up"),
			),
			Down: key.NewBinding(
				key.WithKeys("down", "j"),
				key.WithHelp("↓/j", "move down"),
			),
			Enter: key.NewBinding(
				key.WithKeys("enter"),
				key.WithHelp("enter", "stream here"),
			),
			Rescan: key.NewBinding(
				key.WithKeys("r"),
				key.WithHelp("r", "rescan"),
			),
			Manual: key.NewBinding(
				key.WithKeys("m"),
				key.WithHelp("m", "enter address"),
			),
			Quit: key.NewBinding(
				key.WithKeys("q", "esc", "ctrl+c"),
				key.WithHelp("q", "quit"),
			),
		},
		manualKeys: manualKeyMap{
			Confirm: key.NewBinding(
				key.WithKeys("enter"),
				key.WithHelp("enter", "confirm"),
			),
			Cancel: key.NewBinding(
				key.WithKeys("esc"),
				key.WithHelp("esc", "cancel"),
			),
		},
	}
}

// Init starts the first scan.
func (m Picker) Init() tea.Cmd {
	return tea.Batch(
		func() tea.Msg { return scanStartMsg{} },
		m.scan,
		m.spinner.Tick,
	)
}

func (m Picker) scan() tea.Msg {
	endpoints, err := m.scanner.Scan(context.Background())
	return scanCompleteMsg{endpoints: endpoints, err: err}
}

// Update implements tea.Model
func (m Picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.manualMode {
			return m.updateManualMode(msg)
		}
		return m.updateListMode(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.endpoints.SetWidth(msg.Width - 4)
		m.endpoints.SetHeight(msg.Height - 6)

	case scanStartMsg:
		m.scanning = true
		m.scanStart = time.Now()

	case scanCompleteMsg:
		m.scanning = false
		m.err = msg.err
		items := make([]list.Item, len(msg.endpoints))
		for i, ep := range msg.endpoints {
			items[i] = endpointItem{endpoint: ep}
		}
		m.endpoints.SetItems(items)

	case spinner.TickMsg:
		if !m.scanning {
			return m, nil
		}
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if !m.manualMode && !m.scanning {
		m.endpoints, cmd = m.endpoints.Update(msg)
	}
	return m, cmd
}

// updateListMode handles keyboard input while the receiver list is shown
func (m Picker) updateListMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// While filtering, every key belongs to the list.
	if m.endpoints.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.endpoints, cmd = m.endpoints.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Enter):
		if m.scanning {
			return m, nil
		}
		if item, ok := m.endpoints.SelectedItem().(endpointItem); ok {
			m.selected = item.endpoint
			return m, tea.Quit
		}
		return m, nil

	case key.Matches(msg, m.keys.Rescan):
		if m.scanning {
			return m, nil
		}
		m.endpoints.SetItems([]list.Item{})
		m.err = nil
		return m, tea.Batch(
			func() tea.Msg { return scanStartMsg{} },
			m.scan,
			m.spinner.Tick,
		)

	case key.Matches(msg, m.keys.Manual):
		m.manualMode = true
		m.manualErr = ""
		m.addrInput.SetValue("")
		return m, m.addrInput.Focus()
	}

	if m.scanning {
		return m, nil
	}
	var cmd tea.Cmd
	m.endpoints, cmd = m.endpoints.Update(msg)
	return m, cmd
}

// updateManualMode handles keyboard input in manual address entry mode
func (m Picker) updateManualMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.manualKeys.Cancel):
		m.manualMode = false
		m.addrInput.Blur()
		return m, nil

	case key.Matches(msg, m.manualKeys.Confirm):
		ep, err := ParseManualAddr(m.addrInput.Value(), m.defaultPort)
		if err != nil {
			m.manualErr = err.Error()
			return m, nil
		}
		m.selected = ep
		m.manualMode = false
		m.addrInput.Blur()
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.addrInput, cmd = m.addrInput.Update(msg)
	return m, cmd
}

// View implements tea.Model
func (m Picker) View() string {
	width := contentWidth(m.width)

	var content, helpText string
	switch {
	case m.manualMode:
		content = m.renderManualEntry()
		helpText = m.help.View(m.manualKeys)
	case m.scanning:
		content = m.renderScanning(width)
		helpText = m.help.View(m.keys)
	default:
		content = m.renderResults()
		helpText = m.help.View(m.keys)
	}

	return lipgloss.JoinVertical(lipgloss.Left, content, "", HelpStyle.Render(helpText))
}

func (m Picker) renderScanning(width int) string {
	elapsed := time.Since(m.scanStart)
	fraction := 1.0
	if m.timeout > 0 {
		fraction = min(1.0, float64(elapsed)/float64(m.timeout))
	}

	content := lipgloss.JoinVertical(lipgloss.Center,
		"",
		TitleStyle.Render(fmt.Sprintf("%s SEARCHING FOR RECEIVERS", m.spinner.View())),
		"",
		SubtitleStyle.Render("Browsing "+discovery.ServiceType+"."+discovery.ServiceDomain),
		"",
		m.progressBar.ViewAs(fraction),
		"",
		SubtitleStyle.Render(fmt.Sprintf("Elapsed: %ds", int(elapsed.Seconds()))),
	)
	return lipgloss.Place(width, 0, lipgloss.Center, lipgloss.Top, content)
}

func (m Picker) renderResults() string {
	var b strings.Builder
	b.WriteString("\n")

	switch {
	case m.err != nil:
		b.WriteString(ErrorTextStyle.Render(fmt.Sprintf("  Scan failed: %v", m.err)))
		b.WriteString("\n\n")
		b.WriteString(troubleshooting)
	case len(m.endpoints.Items()) == 0:
		b.WriteString("  ")
		b.WriteString(WaitingStyle.Render("⚠ No receivers found on your network"))
		b.WriteString("\n\n")
		b.WriteString(troubleshooting)
	default:
		b.WriteString(m.endpoints.View())
	}
	return b.String()
}

const troubleshooting = `  Troubleshooting:
    • Ensure tc2frames view is running on the receiving machine
    • Check both machines are on the same network segment
    • Check the firewall allows mDNS (UDP port 5353)
    • Press 'm' to enter the address by hand
`

func (m Picker) renderManualEntry() string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(TitleStyle.Render("  Enter receiver address"))
	b.WriteString("\n\n  Address: ")
	b.WriteString(m.addrInput.View())
	b.WriteString("\n")
	if m.manualErr != "" {
		b.WriteString("\n  ")
		b.WriteString(ErrorTextStyle.Render(m.manualErr))
		b.WriteString("\n")
	}
	return b.String()
}

// Selected returns the chosen receiver, or nil if the user quit.
func (m Picker) Selected() *discovery.Endpoint {
	return m.selected
}

// ParseManualAddr turns "host" or "host:port" into an endpoint.
func ParseManualAddr(value string, defaultPort int) (*discovery.Endpoint, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, errors.New("address is required")
	}

	host, portStr, err := net.SplitHostPort(value)
	if err != nil {
		// No port given
		host = value
		portStr = strconv.Itoa(defaultPort)
	}
	if host == "" {
		return nil, fmt.Errorf("invalid address %q: missing host", value)
	}

	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		return nil, fmt.Errorf("invalid port %q", portStr)
	}

	return &discovery.Endpoint{
		Instance:     manualInstance,
		Hostname:     host,
		IP:           host,
		Port:         port,
		Metadata:     map[string]string{},
		DiscoveredAt: time.Now(),
	}, nil
}

// RunPicker shows the picker and returns the chosen receiver, or nil if
// the user quit without choosing.
func RunPicker(ctx context.Context, scanner EndpointScanner, timeout time.Duration, defaultPort int) (*discovery.Endpoint, error) {
	p := tea.NewProgram(NewPicker(scanner, timeout, defaultPort), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("receiver picker failed: %w", err)
	}
	picker, ok := final.(Picker)
	if !ok {
		return nil, nil
	}
	return picker.Selected(), nil
}
