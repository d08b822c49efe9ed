// Package pipeline is the consumer side of the frame path: it turns "frame
// ready" notifications into decoded images.
//
// The pipeline owns the swap. Nothing else may call Swap on the buffer, so
// the receiver only ever writes the back slot and the pipeline only ever
// reads the front one.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/tc2frames/internal/framebuffer"
	"github.com/muurk/tc2frames/internal/logging"
	"github.com/muurk/tc2frames/internal/thermal"
)

// DefaultPollInterval is how long the consumer sleeps when no frame is
// ready, about one display refresh.
const DefaultPollInterval = 16 * time.Millisecond

// Swapper is the reader's view of the frame buffer.
type Swapper interface {
	Swap() framebuffer.SwapStatus
	TrySwap() framebuffer.SwapStatus
	ReadFront() []byte
	Poisoned() bool
}

// Surface is a display driver.
type Surface interface {
	Present(img *thermal.Image) error
}

// SurfaceFunc adapts a function to the Surface interface.
type SurfaceFunc func(img *thermal.Image) error

// Present implements Surface.
func (f SurfaceFunc) Present(img *thermal.Image) error { return f(img) }

// Stats counts what the pipeline did with ready notifications.
type Stats struct {
	Decoded      uint64
	SkippedSwaps uint64
	DecodeErrors uint64
}

// Pipeline decodes the latest frame whenever the receiver signals one.
// It is meant to be driven by a single consumer goroutine.
type Pipeline struct {
	buf     Swapper
	ready   <-chan struct{}
	decoder *thermal.Decoder
	stats   Stats

	// pending is set when a notification was taken but its swap was
	// skipped. The frame is still in back, so the next call retries.
	pending bool
}

// New creates a pipeline reading from buf whenever ready fires.
func New(buf Swapper, ready <-chan struct{}, decoder *thermal.Decoder) *Pipeline {
	return &Pipeline{
		buf:     buf,
		ready:   ready,
		decoder: decoder,
	}
}

// TryTakeReadyFrame returns the newest frame if the receiver has signalled
// one since the last call. It never blocks, not even on the buffer lock: if
// the receiver is mid-write the swap is skipped and retried on the next
// call. A skipped swap or a decode failure yields no image; the caller keeps
// showing what it had.
func (p *Pipeline) TryTakeReadyFrame() (*thermal.Image, bool) {
	return p.take(p.buf.TrySwap)
}

// TakeReadyFrame is TryTakeReadyFrame for a dedicated consumer goroutine:
// it waits for the receiver to finish a write in progress before swapping.
func (p *Pipeline) TakeReadyFrame() (*thermal.Image, bool) {
	return p.take(p.buf.Swap)
}

func (p *Pipeline) take(swap func() framebuffer.SwapStatus) (*thermal.Image, bool) {
	// A notification that arrives while a retry is pending is for the same
	// back slot, so it is consumed here rather than causing a second swap.
	select {
	case <-p.ready:
	default:
		if !p.pending {
			return nil, false
		}
	}

	if status := swap(); status != framebuffer.Swapped {
		p.stats.SkippedSwaps++
		if !p.pending {
			logging.Warn("Frame swap skipped, keeping previous frame",
				zap.Stringer("status", status),
				zap.Bool("poisoned", p.buf.Poisoned()),
			)
		}
		p.pending = true
		return nil, false
	}
	p.pending = false

	img, err := p.decoder.Decode(p.buf.ReadFront())
	if err != nil {
		p.stats.DecodeErrors++
		logging.Error("Failed to decode frame", zap.Error(err))
		return nil, false
	}

	p.stats.Decoded++
	return img, true
}

// Stats returns the pipeline counters. Call it from the consumer goroutine.
func (p *Pipeline) Stats() Stats {
	return p.stats
}

// Run polls for frames every interval and hands each one to surface. It
// returns nil when ctx is done, or the first error from surface.
func (p *Pipeline) Run(ctx context.Context, interval time.Duration, surface Surface) error {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if img, ok := p.TakeReadyFrame(); ok {
			if err := surface.Present(img); err != nil {
				return fmt.Errorf("failed to present frame: %w", err)
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
