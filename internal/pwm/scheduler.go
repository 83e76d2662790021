// Package pwm implements the refresh handler: software PWM over the
// charlieplexed matrix, one LED per tick.
package pwm

import (
	"sync/atomic"
	"time"

	"github.com/coreman2200/funtimes-charlieplex/internal/frame"
	"github.com/coreman2200/funtimes-charlieplex/internal/wiring"
)

// Asserter lights or darkens a single LED.
type Asserter interface {
	Assert(idx int, on bool) error
}

// Advancer is the playback side the scheduler advances on a timer.
type Advancer interface {
	Interval() time.Duration
	// TryNext advances unless playback is busy; false means retry later.
	TryNext() bool
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock replaces time.Now for the playback gate.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.clock = now }
}

// WithFault sets the handler for pin errors. The default panics.
func WithFault(fn func(error)) Option {
	return func(s *Scheduler) { s.fault = fn }
}

// Scheduler steps through the LEDs round-robin. Each tick it bumps a PWM
// counter, lights the current LED if its brightness is above the counter and
// moves to the next LED, so every LED sees a full 256-step PWM period once
// every 256 of its own visits.
//
// Tick is not safe for concurrent use; the timer guarantees ticks never
// overlap. The LED index, counter and last advance time live only here.
type Scheduler struct {
	drv   Asserter
	fb    *frame.Buffer
	adv   Advancer
	clock func() time.Time
	fault func(error)

	led     int
	counter int
	last    time.Time

	ticks  atomic.Uint64
	lit    atomic.Uint64
	faults atomic.Uint64
}

// New builds a scheduler reading fb. adv may be nil.
func New(drv Asserter, fb *frame.Buffer, adv Advancer, opts ...Option) *Scheduler {
	s := &Scheduler{
		drv:   drv,
		fb:    fb,
		adv:   adv,
		clock: time.Now,
		fault: func(err error) { panic(err) },
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Tick services one LED and, when the playback interval has elapsed,
// advances the animation.
func (s *Scheduler) Tick() {
	s.counter = (s.counter + 1) % (frame.Max + 1)
	on := int(s.fb.Load()[s.led]) > s.counter
	if err := s.drv.Assert(s.led, on); err != nil {
		s.faults.Add(1)
		s.fault(err)
	}
	if on {
		s.lit.Add(1)
	}
	s.led = (s.led + 1) % wiring.Count
	s.ticks.Add(1)

	if s.adv == nil {
		return
	}
	iv := s.adv.Interval()
	if iv == 0 {
		return
	}
	now := s.clock()
	if now.Sub(s.last) > iv && s.adv.TryNext() {
		s.last = now
	}
}

// Ticks is the number of ticks serviced.
func (s *Scheduler) Ticks() uint64 { return s.ticks.Load() }

// Lit is the number of ticks that energized an LED.
func (s *Scheduler) Lit() uint64 { return s.lit.Load() }

// Faults is the number of pin errors seen.
func (s *Scheduler) Faults() uint64 { return s.faults.Load() }
