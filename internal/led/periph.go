package led

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"

	"github.com/coreman2200/funtimes-charlieplex/internal/wiring"
)

// Periph drives the matrix through periph.io GPIO pins.
//
// Releasing a pin reconfigures it as a floating input. Only pins that were
// driven since the last release are touched.
type Periph struct {
	pins   [wiring.Pins]gpio.PinIO
	driven wiring.Mask
}

// NewPeriph looks up the matrix pins by name in the periph registry, in
// wiring pin order. host.Init must have been called.
func NewPeriph(names []string) (*Periph, error) {
	if len(names) != wiring.Pins {
		return nil, fmt.Errorf("led: need %d pin names, got %d", wiring.Pins, len(names))
	}
	pins := make([]gpio.PinIO, len(names))
	for i, n := range names {
		p := gpioreg.ByName(n)
		if p == nil {
			return nil, fmt.Errorf("led: no GPIO pin named %q", n)
		}
		pins[i] = p
	}
	return NewPeriphPins(pins)
}

// NewPeriphPins wraps already resolved pins.
func NewPeriphPins(pins []gpio.PinIO) (*Periph, error) {
	if len(pins) != wiring.Pins {
		return nil, fmt.Errorf("led: need %d pins, got %d", wiring.Pins, len(pins))
	}
	b := &Periph{}
	for i, p := range pins {
		if p == nil {
			return nil, fmt.Errorf("led: pin %d is nil", i)
		}
		b.pins[i] = p
		// state unknown until the first release
		b.driven = b.driven.With(wiring.Pin(i))
	}
	return b, nil
}

func (b *Periph) Release(mask wiring.Mask) error {
	for p := wiring.Pin(0); p < wiring.Pins; p++ {
		if !mask.Has(p) || !b.driven.Has(p) {
			continue
		}
		if err := b.pins[p].In(gpio.Float, gpio.NoEdge); err != nil {
			return err
		}
		b.driven = b.driven.Without(p)
	}
	return nil
}

func (b *Periph) Drive(p wiring.Pin, l gpio.Level) error {
	if err := b.pins[p].Out(l); err != nil {
		return err
	}
	b.driven = b.driven.With(p)
	return nil
}

func (b *Periph) Close() error {
	var errs []error
	for _, p := range b.pins {
		if err := p.Halt(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p, err))
		}
	}
	return errors.Join(errs...)
}
