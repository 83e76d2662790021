// Package frame owns the brightness buffer read by the refresh handler.
package frame

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/coreman2200/funtimes-charlieplex/internal/wiring"
)

// Max is the brightness of a fully lit LED.
const Max = 255

// ErrSize reports raw frame data whose length is not a whole number of frames.
var ErrSize = errors.New("frame: data is not a multiple of the frame size")

// Frame is one brightness value per LED, in wiring order.
type Frame [wiring.Count]uint8

// FromBytes splits contiguous frame data into frames. The data is copied.
func FromBytes(b []byte) ([]Frame, error) {
	if len(b)%wiring.Count != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrSize, len(b))
	}
	out := make([]Frame, len(b)/wiring.Count)
	for i := range out {
		copy(out[i][:], b[i*wiring.Count:])
	}
	return out, nil
}

// FromPixels copies a row-major bitmap into a frame. Short input leaves the
// tail dark, extra input is ignored.
func FromPixels(px []uint8) Frame {
	var f Frame
	copy(f[:], px)
	return f
}

// Buffer publishes immutable frames to the refresh handler through an atomic
// pointer, so a reader always sees one whole frame.
//
// Published frames must not be written afterwards. Foreground edits go
// through Set and Store, which copy.
type Buffer struct {
	cur atomic.Pointer[Frame]
}

// NewBuffer returns a dark buffer.
func NewBuffer() *Buffer {
	b := &Buffer{}
	b.cur.Store(new(Frame))
	return b
}

// Load returns the current frame. Callers must treat it as read only.
func (b *Buffer) Load() *Frame { return b.cur.Load() }

// Publish makes f current without copying.
func (b *Buffer) Publish(f *Frame) { b.cur.Store(f) }

// Store copies f and publishes the copy.
func (b *Buffer) Store(f Frame) { b.cur.Store(&f) }

// Set changes a single LED of whatever frame is current, retrying when a
// concurrent Publish lands between the copy and the swap. idx outside
// [0, wiring.Count) panics.
func (b *Buffer) Set(idx int, v uint8) {
	for {
		old := b.cur.Load()
		next := *old
		next[idx] = v
		if b.cur.CompareAndSwap(old, &next) {
			return
		}
	}
}

// At reads a single LED.
func (b *Buffer) At(idx int) uint8 { return b.cur.Load()[idx] }

// Snapshot returns a copy of the current frame.
func (b *Buffer) Snapshot() Frame { return *b.cur.Load() }

// Clear publishes a dark frame.
func (b *Buffer) Clear() { b.Store(Frame{}) }
