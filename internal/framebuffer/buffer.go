package framebuffer

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// SwapStatus reports what a swap did.
type SwapStatus int

const (
	// Swapped means front and back exchanged contents.
	Swapped SwapStatus = iota
	// SkippedBusy means a slot could not be acquired (poisoned, or held by
	// the writer for TrySwap) and the contents were left untouched.
	SkippedBusy
)

// String returns a human-readable name for the status
func (s SwapStatus) String() string {
	switch s {
	case Swapped:
		return "swapped"
	case SkippedBusy:
		return "skipped_busy"
	default:
		return fmt.Sprintf("SwapStatus(%d)", int(s))
	}
}

// slot is one half of the double buffer.
type slot struct {
	mu       sync.Mutex
	data     []byte
	poisoned atomic.Bool // holder panicked while the lock was held
}

// DoubleBuffer holds a front frame for the reader and a back frame for the
// writer. Lock order is always front, then back.
type DoubleBuffer struct {
	front slot
	back  slot
	size  int
}

// New creates a double buffer whose slots are size bytes each, zeroed.
func New(size int) *DoubleBuffer {
	if size <= 0 {
		panic(fmt.Sprintf("framebuffer: invalid slot size %d", size))
	}
	return &DoubleBuffer{
		front: slot{data: make([]byte, size)},
		back:  slot{data: make([]byte, size)},
		size:  size,
	}
}

// Size returns the slot size in bytes.
func (b *DoubleBuffer) Size() int {
	return b.size
}

// Swap exchanges the contents of front and back. It waits for the writer to
// finish any WriteBack in progress, so the frame promoted to front is always
// complete. A poisoned slot makes Swap return SkippedBusy without touching
// either slot.
func (b *DoubleBuffer) Swap() SwapStatus {
	b.front.mu.Lock()
	defer b.front.mu.Unlock()
	if b.front.poisoned.Load() {
		return SkippedBusy
	}

	b.back.mu.Lock()
	defer b.back.mu.Unlock()
	if b.back.poisoned.Load() {
		return SkippedBusy
	}

	b.front.data, b.back.data = b.back.data, b.front.data
	return Swapped
}

// TrySwap is Swap without waiting: if either lock is held it returns
// SkippedBusy immediately.
func (b *DoubleBuffer) TrySwap() SwapStatus {
	if !b.front.mu.TryLock() {
		return SkippedBusy
	}
	defer b.front.mu.Unlock()
	if b.front.poisoned.Load() {
		return SkippedBusy
	}

	if !b.back.mu.TryLock() {
		return SkippedBusy
	}
	defer b.back.mu.Unlock()
	if b.back.poisoned.Load() {
		return SkippedBusy
	}

	b.front.data, b.back.data = b.back.data, b.front.data
	return Swapped
}

// WriteBack copies p into the back slot. p must be exactly Size() bytes;
// anything else is a programming error and panics before any lock is taken.
func (b *DoubleBuffer) WriteBack(p []byte) {
	if len(p) != b.size {
		panic(fmt.Sprintf("framebuffer: WriteBack got %d bytes, slot holds %d", len(p), b.size))
	}
	b.WriteBackFunc(func(back []byte) {
		copy(back, p)
	})
}

// WriteBackFunc runs fn with the back slot locked so a producer can fill it
// in place. If fn panics the slot is marked poisoned and the panic is
// propagated. A later successful write clears the mark, since it rewrote
// the slot.
func (b *DoubleBuffer) WriteBackFunc(fn func(back []byte)) {
	b.back.mu.Lock()
	completed := false
	defer func() {
		b.back.poisoned.Store(!completed)
		b.back.mu.Unlock()
	}()

	fn(b.back.data)
	completed = true
}

// ReadFront returns a copy of the front slot. The front lock is held only
// for the duration of the copy.
func (b *DoubleBuffer) ReadFront() []byte {
	b.front.mu.Lock()
	defer b.front.mu.Unlock()

	out := make([]byte, len(b.front.data))
	copy(out, b.front.data)
	return out
}

// Poisoned reports whether the back slot is poisoned. It does not take the
// lock, so it is safe to call while the writer holds back.
func (b *DoubleBuffer) Poisoned() bool {
	return b.back.poisoned.Load()
}
