package thermal

import (
	"fmt"
	"image/color"
	"math"
	"testing"
)

func TestGradientByName(t *testing.T) {
	for _, name := range []string{"viridis", "inferno", "magma", "grayscale", ""} {
		t.Run(name, func(t *testing.T) {
			if _, err := GradientByName(name); err != nil {
				t.Errorf("GradientByName(%q) error = %v", name, err)
			}
		})
	}

	if _, err := GradientByName("rainbow"); err == nil {
		t.Error("GradientByName(rainbow) should fail")
	}
}

func TestGradientNames(t *testing.T) {
	names := GradientNames()
	want := []string{"grayscale", "inferno", "magma", "viridis"}
	if len(names) != len(want) {
		t.Fatalf("GradientNames() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("GradientNames()[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestGradient_Endpoints(t *testing.T) {
	tests := []struct {
		name  string
		t     float64
		want  color.RGBA
		label string
	}{
		{"viridis", 0, color.RGBA{0x44, 0x01, 0x54, 0xff}, "start"},
		{"viridis", 1, color.RGBA{0xfd, 0xe7, 0x25, 0xff}, "end"},
		{"viridis", 0.5, color.RGBA{0x21, 0x91, 0x8c, 0xff}, "middle stop"},
		{"grayscale", 0.5, color.RGBA{0x80, 0x80, 0x80, 0xff}, "midpoint"},
		{"viridis", -3, color.RGBA{0x44, 0x01, 0x54, 0xff}, "below range"},
		{"viridis", 655.36, color.RGBA{0xfd, 0xe7, 0x25, 0xff}, "above range"},
		{"viridis", math.NaN(), color.RGBA{0x44, 0x01, 0x54, 0xff}, "NaN"},
	}

	for _, tt := range tests {
		t.Run(tt.name+"/"+tt.label, func(t *testing.T) {
			g, err := GradientByName(tt.name)
			if err != nil {
				t.Fatalf("GradientByName() error = %v", err)
			}
			if got := g.At(tt.t); got != tt.want {
				t.Errorf("At(%v) = %v, want %v", tt.t, got, tt.want)
			}
		})
	}
}

func TestGradient_ViridisStops(t *testing.T) {
	// matplotlib viridis at t = 0, 0.1, ..., 1
	want := []string{
		"#440154", "#482475", "#414487", "#355f8d", "#2a788e", "#21918c",
		"#22a884", "#44bf70", "#7ad151", "#bddf26", "#fde725",
	}
	g, _ := GradientByName("viridis")
	for i, hex := range want {
		c := g.At(float64(i) / 10)
		if got := fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B); got != hex {
			t.Errorf("viridis.At(%.1f) = %s, want %s", float64(i)/10, got, hex)
		}
	}
}

func TestGradient_Monotonic(t *testing.T) {
	g, _ := GradientByName("grayscale")
	prev := -1
	for i := 0; i <= 100; i++ {
		c := g.At(float64(i) / 100)
		if int(c.R) < prev {
			t.Fatalf("grayscale not monotonic at %d: %d < %d", i, c.R, prev)
		}
		prev = int(c.R)
	}
}

func TestPackUnpack(t *testing.T) {
	c := color.RGBA{R: 0x12, G: 0x34, B: 0x56, A: 0x00}
	p := Pack(c)
	if p != 0xff123456 {
		t.Errorf("Pack() = %08x, want ff123456", p)
	}
	if got := Unpack(p); got != (color.RGBA{0x12, 0x34, 0x56, 0xff}) {
		t.Errorf("Unpack() = %v", got)
	}
}
