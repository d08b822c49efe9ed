package thermal

import (
	"fmt"
	"image/color"
	"math"
	"sort"

	"github.com/lucasb-eyer/go-colorful"
)

// DefaultGradient is the gradient used when none is configured.
const DefaultGradient = "viridis"

// Gradient maps a normalized value onto a color. Values outside [0,1] are
// clamped.
type Gradient interface {
	At(t float64) color.RGBA
}

// stopGradient interpolates linearly in sRGB between evenly spaced stops.
type stopGradient struct {
	name  string
	stops []colorful.Color
}

func newStopGradient(name string, hexes ...string) *stopGradient {
	stops := make([]colorful.Color, len(hexes))
	for i, h := range hexes {
		c, err := colorful.Hex(h)
		if err != nil {
			panic(fmt.Sprintf("thermal: bad stop %q in gradient %s: %v", h, name, err))
		}
		stops[i] = c
	}
	return &stopGradient{name: name, stops: stops}
}

// At implements Gradient.
func (g *stopGradient) At(t float64) color.RGBA {
	switch {
	case math.IsNaN(t) || t < 0:
		t = 0
	case t > 1:
		t = 1
	}

	last := len(g.stops) - 1
	pos := t * float64(last)
	i := int(pos)
	if i >= last {
		i = last - 1
	}

	c := g.stops[i].BlendRgb(g.stops[i+1], pos-float64(i))
	r, gr, b := c.Clamped().RGB255()
	return color.RGBA{R: r, G: gr, B: b, A: 0xff}
}

// String returns the gradient's name
func (g *stopGradient) String() string {
	return g.name
}

// Perceptual colormaps sampled at eleven evenly spaced points of the
// matplotlib 256-entry tables. At the stops the colors are exact; between
// them they are linear sRGB blends, so a mid-segment pixel can differ from
// the full table by a few units per channel. That is below what the
// half-block renderer and the bilinear scaler preserve anyway.
var gradients = map[string]Gradient{
	"viridis": newStopGradient("viridis",
		"#440154", "#482475", "#414487", "#355f8d", "#2a788e", "#21918c",
		"#22a884", "#44bf70", "#7ad151", "#bddf26", "#fde725"),
	"inferno": newStopGradient("inferno",
		"#000004", "#160b39", "#420a68", "#6a176e", "#932667", "#bc3754",
		"#dd513a", "#f37819", "#fca50a", "#f6d746", "#fcffa4"),
	"magma": newStopGradient("magma",
		"#000004", "#140e36", "#3b0f70", "#641a80", "#8c2981", "#b73779",
		"#de4968", "#f7705c", "#fe9f6d", "#fecf92", "#fcfdbf"),
	"grayscale": newStopGradient("grayscale", "#000000", "#ffffff"),
}

// GradientByName looks up one of the built-in gradients.
func GradientByName(name string) (Gradient, error) {
	if name == "" {
		name = DefaultGradient
	}
	g, ok := gradients[name]
	if !ok {
		return nil, fmt.Errorf("unknown gradient %q (available: %v)", name, GradientNames())
	}
	return g, nil
}

// GradientNames lists the built-in gradients in sorted order.
func GradientNames() []string {
	names := make([]string, 0, len(gradients))
	for name := range gradients {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Pack packs a color into an opaque 0xAARRGGBB pixel.
func Pack(c color.RGBA) uint32 {
	return 0xff<<24 | uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}

// Unpack is the inverse of Pack. Alpha is taken from the pixel.
func Unpack(p uint32) color.RGBA {
	return color.RGBA{
		R: uint8(p >> 16),
		G: uint8(p >> 8),
		B: uint8(p),
		A: uint8(p >> 24),
	}
}
