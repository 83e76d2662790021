//go:build linux

package led

import (
	"errors"
	"fmt"

	"github.com/warthog618/go-gpiocdev"
	"periph.io/x/conn/v3/gpio"

	"github.com/coreman2200/funtimes-charlieplex/internal/wiring"
)

const consumer = "charlieplex"

// Cdev drives the matrix through the Linux GPIO character device. Every line
// is requested once and switched between input and output.
type Cdev struct {
	lines  [wiring.Pins]*gpiocdev.Line
	driven wiring.Mask
}

// NewCdev requests offsets on chip (e.g. "gpiochip0"), in wiring pin order.
func NewCdev(chip string, offsets []int) (*Cdev, error) {
	if len(offsets) != wiring.Pins {
		return nil, fmt.Errorf("led: need %d line offsets, got %d", wiring.Pins, len(offsets))
	}
	c := &Cdev{}
	for i, off := range offsets {
		l, err := gpiocdev.RequestLine(chip, off, gpiocdev.AsInput, gpiocdev.WithConsumer(consumer))
		if err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("led: request %s line %d: %w", chip, off, err)
		}
		c.lines[i] = l
	}
	return c, nil
}

func (c *Cdev) Release(mask wiring.Mask) error {
	for p := wiring.Pin(0); p < wiring.Pins; p++ {
		if !mask.Has(p) || !c.driven.Has(p) {
			continue
		}
		if err := c.lines[p].Reconfigure(gpiocdev.AsInput); err != nil {
			return err
		}
		c.driven = c.driven.Without(p)
	}
	return nil
}

func (c *Cdev) Drive(p wiring.Pin, l gpio.Level) error {
	v := 0
	if l {
		v = 1
	}
	if err := c.lines[p].Reconfigure(gpiocdev.AsOutput(v)); err != nil {
		return err
	}
	c.driven = c.driven.With(p)
	return nil
}

func (c *Cdev) Close() error {
	var errs []error
	for i, l := range c.lines {
		if l == nil {
			continue
		}
		if err := l.Close(); err != nil {
			errs = append(errs, err)
		}
		c.lines[i] = nil
	}
	return errors.Join(errs...)
}
