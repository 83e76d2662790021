package matrix

import (
	"time"

	"github.com/rs/zerolog"
	"periph.io/x/conn/v3/physic"

	"github.com/coreman2200/funtimes-charlieplex/internal/timer"
)

// DefaultRefresh is the refresh handler frequency: one LED per tick.
const DefaultRefresh = 65535 * physic.Hertz

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for lifecycle events.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithTimer replaces the default goroutine ticker.
func WithTimer(t timer.Timer) Option {
	return func(e *Engine) { e.timer = t }
}

// WithRefresh sets the refresh handler frequency.
func WithRefresh(f physic.Frequency) Option {
	return func(e *Engine) { e.refresh = f }
}

// WithClock replaces time.Now for the auto-advance gate.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.clock = now }
}

// WithFaultHandler is called when the refresh handler fails to drive the
// pins. The default logs at fatal level, which exits the process, or panics
// when no logger was set.
func WithFaultHandler(fn func(error)) Option {
	return func(e *Engine) { e.fault = fn }
}
