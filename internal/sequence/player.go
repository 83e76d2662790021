// Package sequence plays frame animations into a frame.Buffer.
package sequence

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/coreman2200/funtimes-charlieplex/internal/frame"
)

// Status is a snapshot of the playback state.
type Status struct {
	Frames   int
	Cursor   int
	Loop     bool
	Interval time.Duration
}

// Player owns the current animation and advances it into a frame buffer.
//
// Advancing publishes a pointer to the sequence frame, so loaded sequences
// must not be modified while they are playing.
type Player struct {
	out *frame.Buffer

	mu     sync.Mutex
	frames []frame.Frame
	cur    int
	loop   bool

	interval    atomic.Int64
	done        atomic.Bool
	callback    atomic.Pointer[func()]
	advances    atomic.Uint64
	completions atomic.Uint64
}

// NewPlayer returns a player with nothing loaded.
func NewPlayer(out *frame.Buffer) *Player {
	return &Player{out: out}
}

// Load replaces the current sequence and rewinds to frame 0. The frame
// buffer is left untouched.
func (p *Player) Load(frames []frame.Frame) {
	p.mu.Lock()
	p.frames = frames
	p.cur = 0
	p.mu.Unlock()
}

// LoadFrame shows f as a one-frame sequence and stops auto-advance. The
// single advance wraps, so the completion callback fires.
func (p *Player) LoadFrame(f frame.Frame) {
	p.mu.Lock()
	p.frames = []frame.Frame{f}
	p.cur = 0
	wrapped := p.advance()
	p.interval.Store(0)
	p.mu.Unlock()
	p.complete(wrapped)
}

// Render shows frame n modulo the sequence length and stops auto-advance.
// It is a no-op when nothing is loaded.
func (p *Player) Render(n int) {
	p.mu.Lock()
	c := len(p.frames)
	if c == 0 {
		p.mu.Unlock()
		return
	}
	p.cur = ((n % c) + c) % c
	wrapped := p.advance()
	p.interval.Store(0)
	p.mu.Unlock()
	p.complete(wrapped)
}

// Play clears the done flag, sets loop mode and advances once.
func (p *Player) Play(loop bool) {
	p.mu.Lock()
	p.loop = loop
	p.done.Store(false)
	wrapped := p.advance()
	p.mu.Unlock()
	p.complete(wrapped)
}

// Next advances one frame.
func (p *Player) Next() {
	p.mu.Lock()
	wrapped := p.advance()
	p.mu.Unlock()
	p.complete(wrapped)
}

// TryNext advances one frame unless a foreground call holds the player, in
// which case it returns false without waiting.
func (p *Player) TryNext() bool {
	if !p.mu.TryLock() {
		return false
	}
	wrapped := p.advance()
	p.mu.Unlock()
	p.complete(wrapped)
	return true
}

// advance publishes the frame under the cursor and moves the cursor. On a
// wrap it records the completion and reports true so the caller runs the
// callback once p.mu is released. p.mu must be held.
func (p *Player) advance() bool {
	c := len(p.frames)
	if c == 0 {
		return false
	}
	p.out.Publish(&p.frames[p.cur])
	p.advances.Add(1)
	p.cur = (p.cur + 1) % c
	if p.cur != 0 {
		return false
	}
	if !p.loop {
		p.interval.Store(0)
	}
	p.completions.Add(1)
	p.done.Store(true)
	return true
}

// complete runs the callback outside the lock so it may call back into the
// player.
func (p *Player) complete(wrapped bool) {
	if !wrapped {
		return
	}
	if cb := p.callback.Load(); cb != nil {
		(*cb)()
	}
}

// Done reports a completed pass once; reading clears it.
func (p *Player) Done() bool { return p.done.Swap(false) }

// SetCallback registers fn to run on every completed pass, replacing any
// previous callback. fn runs on the refresh handler and must return quickly.
func (p *Player) SetCallback(fn func()) {
	if fn == nil {
		p.callback.Store(nil)
		return
	}
	p.callback.Store(&fn)
}

// SetInterval sets the auto-advance interval; 0 disables it.
func (p *Player) SetInterval(d time.Duration) { p.interval.Store(int64(d)) }

// Interval is the auto-advance interval.
func (p *Player) Interval() time.Duration { return time.Duration(p.interval.Load()) }

func (p *Player) Advances() uint64    { return p.advances.Load() }
func (p *Player) Completions() uint64 { return p.completions.Load() }

func (p *Player) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Status{
		Frames:   len(p.frames),
		Cursor:   p.cur,
		Loop:     p.loop,
		Interval: p.Interval(),
	}
}
