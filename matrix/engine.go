// Package matrix drives a 12x8 charlieplexed LED matrix with software PWM.
//
// An Engine owns the frame buffer, the animation player and the refresh
// handler. Once Begin arms the timer, the handler services one LED per tick
// and advances the animation when autoscroll is enabled. Foreground calls
// never block the handler.
package matrix

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"periph.io/x/conn/v3/physic"

	"github.com/coreman2200/funtimes-charlieplex/internal/frame"
	"github.com/coreman2200/funtimes-charlieplex/internal/led"
	"github.com/coreman2200/funtimes-charlieplex/internal/pwm"
	"github.com/coreman2200/funtimes-charlieplex/internal/sequence"
	"github.com/coreman2200/funtimes-charlieplex/internal/timer"
	"github.com/coreman2200/funtimes-charlieplex/internal/wiring"
)

// Frame is one brightness value per LED in wiring order.
type Frame = frame.Frame

const (
	// NumLEDs is the number of LEDs on the matrix.
	NumLEDs = wiring.Count
	// Max is full brightness.
	Max = frame.Max
	// Width and Height are the canvas size.
	Width  = wiring.Cols
	Height = wiring.Rows
)

// ErrStarted is returned by Begin on an engine that is already running.
var ErrStarted = errors.New("matrix: already started")

// Stats are cumulative engine counters.
type Stats struct {
	Started     bool
	Ticks       uint64
	Lit         uint64
	Faults      uint64
	Advances    uint64
	Completions uint64
	Frames      int
	Interval    time.Duration
}

type Engine struct {
	log     zerolog.Logger
	timer   timer.Timer
	refresh physic.Frequency
	clock   func() time.Time
	fault   func(error)

	drv     *led.Driver
	fb      *frame.Buffer
	player  *sequence.Player
	sched   *pwm.Scheduler
	surface *Surface

	mu      sync.Mutex
	started bool
}

// New wires an engine to a pin bank. Nothing touches the pins until Begin.
func New(bank led.Bank, opts ...Option) *Engine {
	e := &Engine{
		log:     zerolog.Nop(),
		refresh: DefaultRefresh,
		clock:   time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	if e.timer == nil {
		e.timer = timer.NewTicker()
	}
	if e.fault == nil {
		e.fault = e.defaultFault
	}

	e.drv = led.NewDriver(bank)
	e.fb = frame.NewBuffer()
	e.player = sequence.NewPlayer(e.fb)
	e.sched = pwm.New(e.drv, e.fb, e.player, pwm.WithClock(e.clock), pwm.WithFault(e.fault))
	e.surface = NewSurface(e.LoadFrame)
	e.surface.clear = e.fb.Clear
	return e
}

// defaultFault stops the process on a pin fault. A disabled logger would
// exit without a word, so without one the fault panics instead.
func (e *Engine) defaultFault(err error) {
	if e.log.GetLevel() == zerolog.Disabled {
		panic(fmt.Errorf("matrix: refresh handler pin fault: %w", err))
	}
	e.log.Fatal().Err(err).Msg("refresh handler pin fault")
}

// Begin releases all pins and arms the refresh timer. If the timer cannot be
// armed the engine stays inert and the error is returned.
func (e *Engine) Begin() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		return ErrStarted
	}
	if err := e.drv.Reset(); err != nil {
		return fmt.Errorf("matrix: reset pins: %w", err)
	}
	if err := e.timer.Start(e.refresh, e.sched.Tick); err != nil {
		return fmt.Errorf("matrix: arm refresh timer: %w", err)
	}
	e.started = true
	e.log.Info().Stringer("refresh", e.refresh).Int("leds", NumLEDs).Msg("matrix started")
	return nil
}

// Close stops the refresh handler, darkens the matrix and closes the bank.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		if err := e.timer.Stop(); err != nil {
			e.log.Warn().Err(err).Msg("stop refresh timer")
		}
		e.started = false
	}
	if err := e.drv.Close(); err != nil {
		return fmt.Errorf("matrix: close pins: %w", err)
	}
	e.log.Info().Msg("matrix stopped")
	return nil
}

// On sets LED idx to full brightness. idx outside [0, NumLEDs) panics.
func (e *Engine) On(idx int) { e.fb.Set(idx, Max) }

// Off darkens LED idx. idx outside [0, NumLEDs) panics.
func (e *Engine) Off(idx int) { e.fb.Set(idx, 0) }

// Clear darkens the frame buffer and the drawing canvas.
func (e *Engine) Clear() {
	e.fb.Clear()
	e.surface.clearCanvas()
}

// LoadFrame shows f and stops auto-advance.
func (e *Engine) LoadFrame(f Frame) { e.player.LoadFrame(f) }

// LoadPixels shows a row-major bitmap as a single frame.
func (e *Engine) LoadPixels(px []uint8) { e.LoadFrame(frame.FromPixels(px)) }

// LoadSequence sets the animation and rewinds it without rendering. The
// frames must not be modified while loaded.
func (e *Engine) LoadSequence(frames []Frame) { e.player.Load(frames) }

// LoadBytes loads contiguous frame data, NumLEDs bytes per frame.
func (e *Engine) LoadBytes(b []byte) error {
	frames, err := frame.FromBytes(b)
	if err != nil {
		return err
	}
	e.LoadSequence(frames)
	return nil
}

// RenderFrame shows frame n modulo the sequence length and stops
// auto-advance.
func (e *Engine) RenderFrame(n int) { e.player.Render(n) }

// Play restarts completion tracking and shows the next frame. With loop set,
// auto-advance keeps running past the last frame.
func (e *Engine) Play(loop bool) { e.player.Play(loop) }

// Next advances the animation one frame.
func (e *Engine) Next() { e.player.Next() }

// Autoscroll sets the interval at which the refresh handler advances the
// animation. 0 stops auto-advance.
func (e *Engine) Autoscroll(d time.Duration) { e.player.SetInterval(d) }

// SequenceDone reports a completed pass once.
func (e *Engine) SequenceDone() bool { return e.player.Done() }

// SetCallback registers fn to run after each completed pass. It usually runs
// on the refresh handler and must return quickly without blocking.
func (e *Engine) SetCallback(fn func()) { e.player.SetCallback(fn) }

// Frame returns a copy of what is on the matrix.
func (e *Engine) Frame() Frame { return e.fb.Snapshot() }

// Surface is the drawing surface rendering into this engine.
func (e *Engine) Surface() *Surface { return e.surface }

func (e *Engine) Stats() Stats {
	e.mu.Lock()
	started := e.started
	e.mu.Unlock()
	st := e.player.Status()
	return Stats{
		Started:     started,
		Ticks:       e.sched.Ticks(),
		Lit:         e.sched.Lit(),
		Faults:      e.sched.Faults(),
		Advances:    e.player.Advances(),
		Completions: e.player.Completions(),
		Frames:      st.Frames,
		Interval:    st.Interval,
	}
}
