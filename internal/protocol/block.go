package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Reference frame geometry of the TC2 camera stream.
const (
	DefaultWidth  = 160
	DefaultHeight = 120

	// BytesPerSample is the size of one big-endian thermal sample.
	BytesPerSample = 2

	// TelemetryLength is the opaque telemetry prefix of every block.
	TelemetryLength = 640

	// SegmentLength is the size of one quarter-frame segment as the camera
	// reads them off the sensor. Blocks on the wire always carry a whole
	// frame, so the receiver never reads by segment.
	SegmentLength = 9760

	// FrameBytes is the size of the thermal payload of one block.
	FrameBytes = DefaultWidth * DefaultHeight * BytesPerSample

	// TotalBlockBytes is the size of one block on the wire.
	TotalBlockBytes = TelemetryLength + FrameBytes
)

// ErrShortBlock is returned when a connection ends partway through a block.
var ErrShortBlock = errors.New("short block")

// Geometry describes the frame layout of a stream.
type Geometry struct {
	Width           int
	Height          int
	TelemetryLength int
}

// DefaultGeometry returns the 160x120 layout with a 640 byte telemetry header.
func DefaultGeometry() Geometry {
	return Geometry{
		Width:           DefaultWidth,
		Height:          DefaultHeight,
		TelemetryLength: TelemetryLength,
	}
}

// Samples returns the number of thermal samples per frame.
func (g Geometry) Samples() int {
	return g.Width * g.Height
}

// FrameBytes returns the size of the thermal payload.
func (g Geometry) FrameBytes() int {
	return g.Samples() * BytesPerSample
}

// BlockBytes returns the size of one block on the wire.
func (g Geometry) BlockBytes() int {
	return g.TelemetryLength + g.FrameBytes()
}

// Validate checks the geometry for impossible values.
func (g Geometry) Validate() error {
	if g.Width <= 0 || g.Height <= 0 {
		return fmt.Errorf("invalid frame size %dx%d", g.Width, g.Height)
	}
	if g.TelemetryLength < 0 {
		return fmt.Errorf("invalid telemetry length %d", g.TelemetryLength)
	}
	return nil
}

// String returns a debug representation of the geometry
func (g Geometry) String() string {
	return fmt.Sprintf("%dx%d+%d", g.Width, g.Height, g.TelemetryLength)
}

// Block is one received block. Telemetry and Payload alias the reader's
// internal buffer and are only valid until the next call to Next.
type Block struct {
	Telemetry []byte
	Payload   []byte
}

// BlockReader reads fixed-size blocks from a byte stream.
type BlockReader struct {
	r    io.Reader
	geom Geometry
	buf  []byte
}

// NewBlockReader creates a reader for blocks of the given geometry.
func NewBlockReader(r io.Reader, geom Geometry) *BlockReader {
	return &BlockReader{
		r:    r,
		geom: geom,
		buf:  make([]byte, geom.BlockBytes()),
	}
}

// Next reads exactly one block. It returns io.EOF if the stream ended
// cleanly on a block boundary and an error wrapping ErrShortBlock if it
// ended partway through one. Other read errors are returned wrapped.
func (br *BlockReader) Next() (Block, error) {
	n, err := io.ReadFull(br.r, br.buf)
	switch {
	case err == nil:
	case errors.Is(err, io.EOF) && n == 0:
		return Block{}, io.EOF
	case errors.Is(err, io.ErrUnexpectedEOF):
		return Block{}, fmt.Errorf("%w: got %d of %d bytes", ErrShortBlock, n, len(br.buf))
	default:
		return Block{}, fmt.Errorf("failed to read block (%d of %d bytes): %w", n, len(br.buf), err)
	}

	return Block{
		Telemetry: br.buf[:br.geom.TelemetryLength],
		Payload:   br.buf[br.geom.TelemetryLength:],
	}, nil
}

// EncodeBlock builds one wire block from a telemetry header and samples.
// telemetry is truncated or zero padded to the geometry's telemetry length.
func EncodeBlock(geom Geometry, telemetry []byte, samples []uint16) ([]byte, error) {
	if len(samples) != geom.Samples() {
		return nil, fmt.Errorf("got %d samples, geometry %s needs %d", len(samples), geom, geom.Samples())
	}

	block := make([]byte, geom.BlockBytes())
	copy(block[:geom.TelemetryLength], telemetry)
	PutSamples(block[geom.TelemetryLength:], samples)
	return block, nil
}

// PutSamples writes samples into dst in big-endian order. dst must hold
// at least 2*len(samples) bytes.
func PutSamples(dst []byte, samples []uint16) {
	for i, s := range samples {
		binary.BigEndian.PutUint16(dst[i*BytesPerSample:], s)
	}
}
