// Package timer provides the periodic callback that drives the refresh handler.
package timer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3/physic"
)

var (
	// ErrBusy is returned by Start when the timer is already armed.
	ErrBusy = errors.New("timer: already running")
	// ErrUnavailable is returned when no timer resource can be obtained.
	ErrUnavailable = errors.New("timer: no timer available")
)

// Timer invokes a callback at a fixed frequency. Callbacks never overlap.
type Timer interface {
	Start(freq physic.Frequency, fn func()) error
	Stop() error
}

// Ticker runs the callback on its own goroutine from a time.Ticker. Ticks
// the callback cannot keep up with are dropped.
type Ticker struct {
	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewTicker() *Ticker { return &Ticker{} }

func (t *Ticker) Start(freq physic.Frequency, fn func()) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		return ErrBusy
	}
	period := freq.Period()
	if freq <= 0 || period <= 0 {
		return fmt.Errorf("timer: invalid frequency %s", freq)
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel
	t.wg.Add(1)
	go t.loop(ctx, period, fn)
	return nil
}

func (t *Ticker) loop(ctx context.Context, period time.Duration, fn func()) {
	defer t.wg.Done()
	tk := time.NewTicker(period)
	defer tk.Stop()
	for {
		select {
		case <-tk.C:
			fn()
		case <-ctx.Done():
			return
		}
	}
}

// Stop disarms the timer and waits for an in-flight callback to return.
func (t *Ticker) Stop() error {
	t.mu.Lock()
	cancel := t.cancel
	t.cancel = nil
	t.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	t.wg.Wait()
	return nil
}

// Manual fires only when told to. Tests use it to step the refresh handler.
type Manual struct {
	// Unavailable makes Start fail with ErrUnavailable.
	Unavailable bool

	mu   sync.Mutex
	fn   func()
	freq physic.Frequency
}

func (m *Manual) Start(freq physic.Frequency, fn func()) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Unavailable {
		return ErrUnavailable
	}
	if m.fn != nil {
		return ErrBusy
	}
	m.fn, m.freq = fn, freq
	return nil
}

func (m *Manual) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fn = nil
	return nil
}

// Fire runs the callback n times and returns how many ran.
func (m *Manual) Fire(n int) int {
	m.mu.Lock()
	fn := m.fn
	m.mu.Unlock()
	if fn == nil {
		return 0
	}
	for i := 0; i < n; i++ {
		fn()
	}
	return n
}

// Armed reports whether Start succeeded and Stop has not been called.
func (m *Manual) Armed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fn != nil
}

// Frequency is the frequency passed to Start.
func (m *Manual) Frequency() physic.Frequency {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.freq
}
