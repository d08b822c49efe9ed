package display

import (
	"fmt"
	"image"
	"image/color"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/image/draw"

	"github.com/muurk/tc2frames/internal/thermal"
)

// halfBlock paints the top half of a cell in the foreground color and the
// bottom half in the background color, giving two pixels per cell.
const halfBlock = "▀"

var scalers = map[string]draw.Scaler{
	"nearest":    draw.NearestNeighbor,
	"bilinear":   draw.BiLinear,
	"catmullrom": draw.CatmullRom,
}

// DefaultScaler is used when no scaler is named.
const DefaultScaler = "bilinear"

// ScalerByName returns the interpolator with the given name.
func ScalerByName(name string) (draw.Scaler, error) {
	if name == "" {
		name = DefaultScaler
	}
	s, ok := scalers[name]
	if !ok {
		return nil, fmt.Errorf("unknown scaler %q (valid: %v)", name, ScalerNames())
	}
	return s, nil
}

// ScalerNames lists the valid scaler names in sorted order.
func ScalerNames() []string {
	names := make([]string, 0, len(scalers))
	for name := range scalers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Scale resizes src to width x height.
func Scale(src image.Image, width, height int, scaler draw.Scaler) *image.RGBA {
	if scaler == nil {
		scaler = draw.BiLinear
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	scaler.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

// FitCells returns the largest cell grid that fits within maxCols x maxRows
// and keeps the aspect ratio of a srcW x srcH image. Each cell holds one
// column and two rows of pixels.
func FitCells(srcW, srcH, maxCols, maxRows int) (cols, rows int) {
	if srcW <= 0 || srcH <= 0 || maxCols <= 0 || maxRows <= 0 {
		return 0, 0
	}

	cols = maxCols
	rows = (cols*srcH/srcW + 1) / 2
	if rows > maxRows {
		rows = maxRows
		cols = rows * 2 * srcW / srcH
	}
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	return cols, rows
}

// RenderHalfBlocks draws img as cols x rows terminal cells. Runs of cells
// with the same colors share one style.
func RenderHalfBlocks(img *thermal.Image, cols, rows int, scaler draw.Scaler) string {
	if img == nil || cols <= 0 || rows <= 0 {
		return ""
	}

	scaled := Scale(img.RGBA(), cols, rows*2, scaler)

	var b strings.Builder
	for y := 0; y < rows; y++ {
		if y > 0 {
			b.WriteByte('\n')
		}

		runStart := 0
		var runTop, runBottom color.RGBA
		for x := 0; x <= cols; x++ {
			var top, bottom color.RGBA
			if x < cols {
				top = scaled.RGBAAt(x, 2*y)
				bottom = scaled.RGBAAt(x, 2*y+1)
				if x > runStart && top == runTop && bottom == runBottom {
					continue
				}
			}
			if x > runStart {
				style := lipgloss.NewStyle().
					Foreground(hexColor(runTop)).
					Background(hexColor(runBottom))
				b.WriteString(style.Render(strings.Repeat(halfBlock, x-runStart)))
			}
			runStart, runTop, runBottom = x, top, bottom
		}
	}
	return b.String()
}

func hexColor(c color.RGBA) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B))
}
