package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"periph.io/x/host/v3"

	"github.com/coreman2200/funtimes-charlieplex/internal/config"
	"github.com/coreman2200/funtimes-charlieplex/internal/driver/fake"
	"github.com/coreman2200/funtimes-charlieplex/internal/led"
)

// openBank opens the pin backend named by the config.
func openBank(c *config.Config) (led.Bank, error) {
	switch c.Backend {
	case config.BackendSim:
		return fake.New(), nil

	case config.BackendPeriph:
		if _, err := host.Init(); err != nil {
			return nil, fmt.Errorf("periph host init: %w", err)
		}
		b, err := led.NewPeriph(c.Pins)
		if err != nil {
			return nil, err
		}
		log.Info().Strs("pins", c.Pins).Msg("periph pin bank ready")
		return b, nil

	case config.BackendCdev:
		b, err := led.NewCdev(c.Cdev.Chip, c.Cdev.Offsets)
		if err != nil {
			return nil, err
		}
		log.Info().Str("chip", c.Cdev.Chip).Ints("offsets", c.Cdev.Offsets).Msg("gpiocdev pin bank ready")
		return b, nil

	default:
		return nil, fmt.Errorf("unknown backend %q", c.Backend)
	}
}
