package camsim

import (
	"context"
	"fmt"
	"io"
	"net"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/tc2frames/internal/logging"
	"github.com/muurk/tc2frames/internal/protocol"
)

const (
	// DefaultRate is the default number of blocks sent per second
	DefaultRate = 9

	// DefaultDialTimeout bounds a single connection attempt
	DefaultDialTimeout = 5 * time.Second

	// DefaultMaxRetries is the default number of extra connection attempts
	DefaultMaxRetries = 3

	// DefaultRetryDelay is the delay before the first retry
	DefaultRetryDelay = 500 * time.Millisecond

	// DefaultMaxRetryDelay caps the backoff between connection attempts
	DefaultMaxRetryDelay = 5 * time.Second
)

// Pattern names the synthetic image a Sender produces.
type Pattern string

const (
	// PatternGradient is a horizontal ramp that scrolls one column per frame
	PatternGradient Pattern = "gradient"

	// PatternHotspot is a flat 100 field with a single 1000 sample in the centre
	PatternHotspot Pattern = "hotspot"

	// PatternZeros is an all-zero frame
	PatternZeros Pattern = "zeros"
)

const (
	hotspotBackground uint16 = 100
	hotspotPeak       uint16 = 1000
	rampBase          uint16 = 2000
	rampStep          uint16 = 20
)

var patterns = map[Pattern]bool{
	PatternGradient: true,
	PatternHotspot:  true,
	PatternZeros:    true,
}

// ParsePattern validates a pattern name.
func ParsePattern(name string) (Pattern, error) {
	p := Pattern(name)
	if !patterns[p] {
		return "", fmt.Errorf("unknown pattern %q (valid: %v)", name, PatternNames())
	}
	return p, nil
}

// PatternNames lists the valid pattern names in sorted order.
func PatternNames() []string {
	names := make([]string, 0, len(patterns))
	for p := range patterns {
		names = append(names, string(p))
	}
	sort.Strings(names)
	return names
}

// Sender plays the camera: it connects to a receiver and streams blocks
// in the wire format.
type Sender struct {
	// Addr is the receiver's host:port
	Addr string

	// Geometry is the block layout to produce
	Geometry protocol.Geometry

	// Pattern selects the synthetic image
	Pattern Pattern

	// Rate is blocks per second (0 = as fast as the connection allows)
	Rate float64

	// DialTimeout bounds each connection attempt
	DialTimeout time.Duration

	// MaxRetries is the number of extra connection attempts
	MaxRetries int

	// RetryDelay is the initial delay between attempts; it doubles up to MaxRetryDelay
	RetryDelay    time.Duration
	MaxRetryDelay time.Duration

	started time.Time
}

// NewSender creates a sender for addr with default settings.
func NewSender(addr string) *Sender {
	return &Sender{
		Addr:          addr,
		Geometry:      protocol.DefaultGeometry(),
		Pattern:       PatternGradient,
		Rate:          DefaultRate,
		DialTimeout:   DefaultDialTimeout,
		MaxRetries:    DefaultMaxRetries,
		RetryDelay:    DefaultRetryDelay,
		MaxRetryDelay: DefaultMaxRetryDelay,
	}
}

// Samples returns the payload of frame n.
func (s *Sender) Samples(n uint32) []uint16 {
	w, h := s.Geometry.Width, s.Geometry.Height
	out := make([]uint16, w*h)

	switch s.Pattern {
	case PatternHotspot:
		for i := range out {
			out[i] = hotspotBackground
		}
		out[(h/2)*w+w/2] = hotspotPeak
	case PatternZeros:
	default:
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				col := (x + int(n)) % w
				out[y*w+x] = rampBase + uint16(col)*rampStep
			}
		}
	}
	return out
}

// Block returns the complete wire block for frame n.
func (s *Sender) Block(n uint32) ([]byte, error) {
	samples := s.Samples(n)

	var sum uint64
	for _, v := range samples {
		sum += uint64(v)
	}
	var mean uint16
	if len(samples) > 0 {
		mean = uint16(sum / uint64(len(samples)))
	}

	var uptime time.Duration
	if !s.started.IsZero() {
		uptime = time.Since(s.started)
	}

	header := protocol.EncodeTelemetry(protocol.Telemetry{
		TimeOn:       uptime,
		FFCState:     protocol.FFCComplete,
		FrameCount:   n,
		FrameMean:    mean,
		TempC:        30,
		LastFFCTempC: 30,
	}, s.Geometry.TelemetryLength)

	return protocol.EncodeBlock(s.Geometry, header, samples)
}

// WriteBlocks writes count blocks to w, pacing them at Rate. A count of
// zero writes until ctx is done. It returns the number of blocks written.
func (s *Sender) WriteBlocks(ctx context.Context, w io.Writer, count int) (int, error) {
	if err := s.Geometry.Validate(); err != nil {
		return 0, err
	}
	if s.started.IsZero() {
		s.started = time.Now()
	}

	var tick <-chan time.Time
	if s.Rate > 0 {
		ticker := time.NewTicker(time.Duration(float64(time.Second) / s.Rate))
		defer ticker.Stop()
		tick = ticker.C
	}

	sent := 0
	for count == 0 || sent < count {
		if err := ctx.Err(); err != nil {
			return sent, nil
		}

		block, err := s.Block(uint32(sent))
		if err != nil {
			return sent, err
		}
		if _, err := w.Write(block); err != nil {
			if ctx.Err() != nil {
				return sent, nil
			}
			return sent, fmt.Errorf("failed to write block %d: %w", sent, err)
		}
		sent++

		if tick != nil && (count == 0 || sent < count) {
			select {
			case <-ctx.Done():
				return sent, nil
			case <-tick:
			}
		}
	}
	return sent, nil
}

// Send connects to the receiver and streams count blocks, or until ctx is
// done when count is zero.
func (s *Sender) Send(ctx context.Context, count int) (int, error) {
	conn, err := s.dial(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Close()

	// Unblock a pending Write on cancellation.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	logging.LogConnection(conn.RemoteAddr().String(), "connected")
	sent, err := s.WriteBlocks(ctx, conn, count)
	logging.Info("Simulator finished",
		zap.Int("blocks", sent),
		zap.String("pattern", string(s.Pattern)),
	)
	return sent, err
}

func (s *Sender) dial(ctx context.Context) (net.Conn, error) {
	dialer := net.Dialer{Timeout: s.DialTimeout}

	var lastErr error
	delay := s.RetryDelay

	for attempt := 0; attempt <= s.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}

			delay *= 2
			if s.MaxRetryDelay > 0 && delay > s.MaxRetryDelay {
				delay = s.MaxRetryDelay
			}
		}

		conn, err := dialer.DialContext(ctx, "tcp", s.Addr)
		if err == nil {
			return conn, nil
		}
		lastErr = err
		logging.Debug("Connection attempt failed",
			zap.String("addr", s.Addr),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("failed to connect to %s: %w", s.Addr, lastErr)
}
