// Package fake provides a recording pin bank for headless runs and tests.
package fake

import (
	"strings"
	"sync"

	"periph.io/x/conn/v3/gpio"

	"github.com/coreman2200/funtimes-charlieplex/internal/wiring"
)

// Mode is the electrical state of one pin.
type Mode uint8

const (
	HiZ Mode = iota
	High
	Low
)

func (m Mode) String() string {
	switch m {
	case High:
		return "H"
	case Low:
		return "L"
	default:
		return "-"
	}
}

// Bank records pin modes instead of touching hardware. It counts every
// moment where more than one pin is driven high or low, which on a real
// charlieplexed matrix would light a second LED.
type Bank struct {
	mu         sync.Mutex
	fail       error
	modes      [wiring.Pins]Mode
	releases   uint64
	drives     uint64
	violations uint64
	closed     bool
}

func New() *Bank { return &Bank{} }

// SetFail makes every later Release and Drive return err. nil heals the bank.
func (b *Bank) SetFail(err error) {
	b.mu.Lock()
	b.fail = err
	b.mu.Unlock()
}

func (b *Bank) Release(mask wiring.Mask) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fail != nil {
		return b.fail
	}
	for p := wiring.Pin(0); p < wiring.Pins; p++ {
		if mask.Has(p) {
			b.modes[p] = HiZ
		}
	}
	b.releases++
	return nil
}

func (b *Bank) Drive(p wiring.Pin, l gpio.Level) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fail != nil {
		return b.fail
	}
	if l == gpio.High {
		b.modes[p] = High
	} else {
		b.modes[p] = Low
	}
	b.drives++
	var hi, lo int
	for _, m := range b.modes {
		switch m {
		case High:
			hi++
		case Low:
			lo++
		}
	}
	if hi > 1 || lo > 1 {
		b.violations++
	}
	return nil
}

func (b *Bank) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

// Mode reports the current mode of p.
func (b *Bank) Mode(p wiring.Pin) Mode {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.modes[p]
}

// Lit returns the LED currently energized, if any.
func (b *Bank) Lit() (int, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var anode, cathode wiring.Pin
	var hi, lo int
	for p, m := range b.modes {
		switch m {
		case High:
			anode = wiring.Pin(p)
			hi++
		case Low:
			cathode = wiring.Pin(p)
			lo++
		}
	}
	if hi != 1 || lo != 1 {
		return 0, false
	}
	return wiring.Lookup(anode, cathode)
}

func (b *Bank) Violations() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.violations
}

// Counts returns how many Release and Drive calls succeeded.
func (b *Bank) Counts() (releases, drives uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.releases, b.drives
}

func (b *Bank) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// String renders the pin modes, e.g. "---H---L---".
func (b *Bank) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var sb strings.Builder
	for _, m := range b.modes {
		sb.WriteString(m.String())
	}
	return sb.String()
}
