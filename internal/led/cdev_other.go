//go:build !linux

package led

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"

	"github.com/coreman2200/funtimes-charlieplex/internal/wiring"
)

type Cdev struct{}

func NewCdev(chip string, offsets []int) (*Cdev, error) {
	return nil, fmt.Errorf("gpiocdev bank not supported on this platform")
}

func (c *Cdev) Release(mask wiring.Mask) error {
	return fmt.Errorf("gpiocdev bank not supported on this platform")
}

func (c *Cdev) Drive(p wiring.Pin, l gpio.Level) error {
	return fmt.Errorf("gpiocdev bank not supported on this platform")
}

func (c *Cdev) Close() error { return nil }
