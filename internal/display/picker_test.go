package display

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/muurk/tc2frames/internal/discovery"
)

type fakeScanner struct {
	endpoints []*discovery.Endpoint
	err       error
}

func (f fakeScanner) Scan(ctx context.Context) ([]*discovery.Endpoint, error) {
	return f.endpoints, f.err
}

func newTestPicker(scanner EndpointScanner) Picker {
	lipgloss.SetColorProfile(termenv.Ascii)
	p := NewPicker(scanner, 0, 34254)
	m, _ := p.Update(tea.WindowSizeMsg{Width: 80, Height: 30})
	return m.(Picker)
}

func runScan(t *testing.T, p Picker) Picker {
	t.Helper()
	m, _ := p.Update(scanStartMsg{})
	p = m.(Picker)
	m, _ = p.Update(p.scan())
	return m.(Picker)
}

func TestParseManualAddr(t *testing.T) {
	tests := []struct {
		input    string
		wantAddr string
		wantErr  bool
	}{
		{"192.168.1.20:40000", "192.168.1.20:40000", false},
		{"192.168.1.20", "192.168.1.20:34254", false},
		{"  camhost  ", "camhost:34254", false},
		{"[::1]:5000", "[::1]:5000", false},
		{"", "", true},
		{":5000", "", true},
		{"host:notaport", "", true},
		{"host:70000", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			ep, err := ParseManualAddr(tt.input, 34254)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseManualAddr(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err == nil && ep.Addr() != tt.wantAddr {
				t.Errorf("ParseManualAddr(%q).Addr() = %q, want %q", tt.input, ep.Addr(), tt.wantAddr)
			}
		})
	}
}

func TestPicker_SelectsScannedReceiver(t *testing.T) {
	scanner := fakeScanner{endpoints: []*discovery.Endpoint{
		{Instance: "tc2-frames", Hostname: "192.168.1.20.local.", IP: "192.168.1.20", Port: 34254},
		{Instance: "tc2-frames", Hostname: "192.168.1.21.local.", IP: "192.168.1.21", Port: 34254},
	}}
	p := runScan(t, newTestPicker(scanner))

	if p.scanning {
		t.Fatal("picker still scanning after scan completed")
	}
	if !strings.Contains(p.View(), "192.168.1.20:34254") {
		t.Errorf("View() should list the receiver, got:\n%s", p.View())
	}

	m, _ := p.Update(tea.KeyMsg{Type: tea.KeyDown})
	m, cmd := m.(Picker).Update(tea.KeyMsg{Type: tea.KeyEnter})
	p = m.(Picker)

	if cmd == nil {
		t.Fatal("enter should quit the picker")
	}
	if p.Selected() == nil || p.Selected().IP != "192.168.1.21" {
		t.Errorf("Selected() = %v, want 192.168.1.21", p.Selected())
	}
}

func TestPicker_NoReceivers(t *testing.T) {
	p := runScan(t, newTestPicker(fakeScanner{}))

	if !strings.Contains(p.View(), "No receivers found") {
		t.Errorf("View() should say nothing was found, got:\n%s", p.View())
	}

	// Enter with nothing listed does not quit.
	m, _ := p.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.(Picker).Selected() != nil {
		t.Error("Selected() should be nil with no receivers")
	}
}

func TestPicker_ScanError(t *testing.T) {
	p := runScan(t, newTestPicker(fakeScanner{err: errors.New("no multicast")}))
	if !strings.Contains(p.View(), "Scan failed: no multicast") {
		t.Errorf("View() should show the scan error, got:\n%s", p.View())
	}
}

func TestPicker_ManualEntry(t *testing.T) {
	p := runScan(t, newTestPicker(fakeScanner{}))

	m, _ := p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("m")})
	p = m.(Picker)
	if !p.manualMode {
		t.Fatal("'m' should switch to manual entry")
	}

	m, _ = p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("10.0.0.5:4000")})
	m, cmd := m.(Picker).Update(tea.KeyMsg{Type: tea.KeyEnter})
	p = m.(Picker)

	if cmd == nil {
		t.Fatal("confirming a valid address should quit the picker")
	}
	if p.Selected() == nil || p.Selected().Addr() != "10.0.0.5:4000" {
		t.Errorf("Selected() = %v, want 10.0.0.5:4000", p.Selected())
	}
}

func TestPicker_ManualEntryInvalid(t *testing.T) {
	p := runScan(t, newTestPicker(fakeScanner{}))

	m, _ := p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("m")})
	m, _ = m.(Picker).Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("host:99999")})
	m, _ = m.(Picker).Update(tea.KeyMsg{Type: tea.KeyEnter})
	p = m.(Picker)

	if p.Selected() != nil {
		t.Error("invalid address should not be selected")
	}
	if !p.manualMode {
		t.Error("picker should stay in manual mode after an invalid address")
	}
	if !strings.Contains(p.View(), "invalid port") {
		t.Errorf("View() should show the validation error, got:\n%s", p.View())
	}

	m, _ = p.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.(Picker).manualMode {
		t.Error("esc should leave manual mode")
	}
}
