package led

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"

	"github.com/coreman2200/funtimes-charlieplex/internal/wiring"
)

// Bank abstracts the matrix pins.
type Bank interface {
	// Release puts every pin in mask into high impedance.
	Release(mask wiring.Mask) error
	// Drive configures p as an output at level l.
	Drive(p wiring.Pin, l gpio.Level) error
	// Close releases resources.
	Close() error
}

// Driver lights one LED at a time through a Bank.
type Driver struct {
	bank Bank
	mask wiring.Mask
}

func NewDriver(b Bank) *Driver {
	return &Driver{bank: b, mask: wiring.Participating()}
}

// Assert de-energizes the matrix and, when on is set, drives the anode of LED
// idx high and its cathode low. Only one LED is ever lit. An index outside
// [0, wiring.Count) panics.
//
// Assert runs in the refresh handler: it must not block or allocate on the
// success path.
func (d *Driver) Assert(idx int, on bool) error {
	e := wiring.At(idx)
	if err := d.bank.Release(d.mask); err != nil {
		return fmt.Errorf("led: release: %w", err)
	}
	if !on {
		return nil
	}
	if err := d.bank.Drive(e.Anode, gpio.High); err != nil {
		return fmt.Errorf("led: anode %d: %w", e.Anode, err)
	}
	if err := d.bank.Drive(e.Cathode, gpio.Low); err != nil {
		return fmt.Errorf("led: cathode %d: %w", e.Cathode, err)
	}
	return nil
}

// Reset releases every participating pin.
func (d *Driver) Reset() error {
	return d.bank.Release(d.mask)
}

// Close resets the pins and closes the bank.
func (d *Driver) Close() error {
	rerr := d.Reset()
	if err := d.bank.Close(); err != nil {
		return err
	}
	return rerr
}
