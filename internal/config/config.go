package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/coreman2200/funtimes-charlieplex/internal/wiring"
)

// Pin backends.
const (
	BackendPeriph = "periph"
	BackendCdev   = "cdev"
	BackendSim    = "sim"
)

// Cdev addresses the pins through a Linux GPIO character device.
type Cdev struct {
	Chip    string `yaml:"chip"`    // e.g. gpiochip0
	Offsets []int  `yaml:"offsets"` // one line offset per matrix pin
}

type Text struct {
	Message string `yaml:"message,omitempty"`
	Scroll  string `yaml:"scroll,omitempty"` // none | left | right | up | down
}

type Config struct {
	Backend string   `yaml:"backend"` // "periph" | "cdev" | "sim"
	Pins    []string `yaml:"pins,omitempty"`
	Cdev    Cdev     `yaml:"cdev,omitempty"`

	RefreshHz     int `yaml:"refresh_hz"`
	AutoscrollMs  int `yaml:"autoscroll_ms"`
	ScrollSpeedMs int `yaml:"scroll_speed_ms"`

	Animation string `yaml:"animation"`
	Loop      bool   `yaml:"loop"`
	Text      Text   `yaml:"text,omitempty"`

	Listen   string `yaml:"listen"`
	LogLevel string `yaml:"log_level"`
}

// Default pins for a Raspberry Pi header, in matrix pin order.
var DefaultPins = []string{
	"GPIO4", "GPIO17", "GPIO27", "GPIO22", "GPIO5", "GPIO6",
	"GPIO13", "GPIO19", "GPIO26", "GPIO20", "GPIO21",
}

func Default() *Config {
	return &Config{
		Backend:       BackendSim,
		Pins:          append([]string(nil), DefaultPins...),
		Cdev:          Cdev{Chip: "gpiochip0", Offsets: []int{4, 17, 27, 22, 5, 6, 13, 19, 26, 20, 21}},
		RefreshHz:     65535,
		AutoscrollMs:  100,
		ScrollSpeedMs: 100,
		Animation:     "sweep",
		Loop:          true,
		Listen:        ":8080",
		LogLevel:      "info",
	}
}

// Load reads path over the defaults, so a partial file only overrides the
// fields it names.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

func (c *Config) Validate() error {
	var errs []error
	switch c.Backend {
	case BackendPeriph:
		if len(c.Pins) != wiring.Pins {
			errs = append(errs, fmt.Errorf("pins: want %d names, got %d", wiring.Pins, len(c.Pins)))
		}
	case BackendCdev:
		if c.Cdev.Chip == "" {
			errs = append(errs, errors.New("cdev.chip is empty"))
		}
		if len(c.Cdev.Offsets) != wiring.Pins {
			errs = append(errs, fmt.Errorf("cdev.offsets: want %d, got %d", wiring.Pins, len(c.Cdev.Offsets)))
		}
	case BackendSim:
	default:
		errs = append(errs, fmt.Errorf("backend %q: want periph, cdev or sim", c.Backend))
	}
	if c.RefreshHz <= 0 {
		errs = append(errs, fmt.Errorf("refresh_hz must be positive, got %d", c.RefreshHz))
	}
	if c.AutoscrollMs < 0 {
		errs = append(errs, fmt.Errorf("autoscroll_ms must not be negative, got %d", c.AutoscrollMs))
	}
	if c.ScrollSpeedMs < 0 {
		errs = append(errs, fmt.Errorf("scroll_speed_ms must not be negative, got %d", c.ScrollSpeedMs))
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}
	return errors.Join(errs...)
}

func (c *Config) Autoscroll() time.Duration {
	return time.Duration(c.AutoscrollMs) * time.Millisecond
}

func (c *Config) ScrollSpeed() time.Duration {
	return time.Duration(c.ScrollSpeedMs) * time.Millisecond
}

// Level is the configured log level, info when unset or invalid.
func (c *Config) Level() zerolog.Level {
	l, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || l == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return l
}
