package thermal

import (
	"encoding/binary"
	"fmt"
	"image"
	"math"
)

// Range is the normalization range of one frame.
type Range struct {
	Min uint16
	Max uint16
}

// FullRange is used when a frame has no non-zero sample.
var FullRange = Range{Min: 0, Max: math.MaxUint16}

// Span returns Max-Min, at least 1.
func (r Range) Span() uint16 {
	if r.Max <= r.Min {
		return 1
	}
	return r.Max - r.Min
}

// Normalize maps v into the range. The subtraction wraps, so a zero sample
// under a non-zero Min lands far above 1 and is clamped by the gradient.
func (r Range) Normalize(v uint16) float64 {
	return float64(v-r.Min) / float64(r.Span())
}

// ComputeRange finds min and max over the non-zero samples. Zero means "no
// reading" and is ignored. With no non-zero sample it returns FullRange.
func ComputeRange(samples []uint16) Range {
	var (
		r     Range
		found bool
	)
	for _, s := range samples {
		if s == 0 {
			continue
		}
		if !found {
			r = Range{Min: s, Max: s}
			found = true
			continue
		}
		if s < r.Min {
			r.Min = s
		}
		if s > r.Max {
			r.Max = s
		}
	}
	if !found {
		return FullRange
	}
	return r
}

// Samples decodes the first n big-endian samples of frame.
func Samples(frame []byte, n int) ([]uint16, error) {
	if n < 0 || len(frame) < n*2 {
		return nil, fmt.Errorf("frame has %d bytes, need %d for %d samples", len(frame), n*2, n)
	}
	out := make([]uint16, n)
	for i := range out {
		out[i] = binary.BigEndian.Uint16(frame[i*2 : i*2+2])
	}
	return out, nil
}

// Image is a decoded frame of packed 0xAARRGGBB pixels in row-major order.
type Image struct {
	Width  int
	Height int
	Pixels []uint32
	Range  Range
}

// PixelAt returns the packed pixel at (x, y).
func (img *Image) PixelAt(x, y int) uint32 {
	return img.Pixels[y*img.Width+x]
}

// RGBA converts the image for use with the image/draw packages.
func (img *Image) RGBA() *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, img.Width, img.Height))
	for i, p := range img.Pixels {
		c := Unpack(p)
		o := i * 4
		out.Pix[o] = c.R
		out.Pix[o+1] = c.G
		out.Pix[o+2] = c.B
		out.Pix[o+3] = c.A
	}
	return out
}

// Decoder turns raw frames into false-color images. It holds no per-frame
// state and is safe for concurrent use.
type Decoder struct {
	width    int
	height   int
	gradient Gradient
}

// NewDecoder creates a decoder for width x height frames.
func NewDecoder(width, height int, gradient Gradient) *Decoder {
	if gradient == nil {
		gradient = gradients[DefaultGradient]
	}
	return &Decoder{
		width:    width,
		height:   height,
		gradient: gradient,
	}
}

// Width returns the frame width in pixels
func (d *Decoder) Width() int { return d.width }

// Height returns the frame height in pixels
func (d *Decoder) Height() int { return d.height }

// Decode converts the first width*height samples of frame into an image.
// Extra trailing bytes are ignored; a frame that is too short is an error.
func (d *Decoder) Decode(frame []byte) (*Image, error) {
	samples, err := Samples(frame, d.width*d.height)
	if err != nil {
		return nil, fmt.Errorf("failed to decode frame: %w", err)
	}

	r := ComputeRange(samples)
	pixels := make([]uint32, len(samples))
	for i, s := range samples {
		pixels[i] = Pack(d.gradient.At(r.Normalize(s)))
	}

	return &Image{
		Width:  d.width,
		Height: d.height,
		Pixels: pixels,
		Range:  r,
	}, nil
}
