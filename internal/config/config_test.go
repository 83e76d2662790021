package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
}

func TestDefaultIsValid(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	assert.Equal(t, BackendSim, c.Backend)
	assert.Equal(t, 65535, c.RefreshHz)
	assert.Equal(t, 100*time.Millisecond, c.ScrollSpeed())
	assert.Equal(t, zerolog.InfoLevel, c.Level())
	assert.Len(t, c.Pins, 11)
	assert.Len(t, c.Cdev.Offsets, 11)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "backend: cdev\nautoscroll_ms: 40\nlog_level: debug\nloop: false\n")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, BackendCdev, c.Backend)
	assert.Equal(t, 40*time.Millisecond, c.Autoscroll())
	assert.Equal(t, zerolog.DebugLevel, c.Level())
	assert.False(t, c.Loop)
	assert.Equal(t, "gpiochip0", c.Cdev.Chip, "unset fields keep defaults")
	assert.Equal(t, ":8080", c.Listen)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.True(t, errors.Is(err, os.ErrNotExist))

	bad := filepath.Join(dir, "bad.yaml")
	writeFile(t, bad, "backend: [nope\n")
	_, err = Load(bad)
	assert.Error(t, err)

	invalid := filepath.Join(dir, "invalid.yaml")
	writeFile(t, invalid, "backend: serial\n")
	_, err = Load(invalid)
	assert.ErrorContains(t, err, "backend")
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	c := Default()
	c.Animation = "heart"
	c.Text = Text{Message: "HI", Scroll: "left"}
	require.NoError(t, Save(path, c))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, c, got)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"periph needs every pin", func(c *Config) { c.Backend = BackendPeriph; c.Pins = c.Pins[:3] }, "pins"},
		{"cdev needs a chip", func(c *Config) { c.Backend = BackendCdev; c.Cdev.Chip = "" }, "cdev.chip"},
		{"cdev needs offsets", func(c *Config) { c.Backend = BackendCdev; c.Cdev.Offsets = nil }, "cdev.offsets"},
		{"refresh", func(c *Config) { c.RefreshHz = 0 }, "refresh_hz"},
		{"autoscroll", func(c *Config) { c.AutoscrollMs = -1 }, "autoscroll_ms"},
		{"scroll speed", func(c *Config) { c.ScrollSpeedMs = -5 }, "scroll_speed_ms"},
		{"log level", func(c *Config) { c.LogLevel = "loud" }, "log_level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)
			assert.ErrorContains(t, c.Validate(), tt.want)
		})
	}
}

func TestWatcherReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, Save(path, Default()))

	w := NewWatcher(path, zerolog.Nop(), WithDebounce(20*time.Millisecond))
	got := make(chan *Config, 4)
	w.OnReload(func(c *Config) { got <- c })
	removed := w.OnReload(func(*Config) { t.Error("removed handler called") })
	removed()

	require.NoError(t, w.Start())
	defer w.Stop()

	writeFile(t, path, "animation: heart\n")
	select {
	case c := <-got:
		assert.Equal(t, "heart", c.Animation)
	case <-time.After(5 * time.Second):
		t.Fatal("no reload")
	}
}

func TestWatcherReportsBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, Save(path, Default()))

	errs := make(chan error, 4)
	w := NewWatcher(path, zerolog.Nop(),
		WithDebounce(20*time.Millisecond),
		WithErrorHandler(func(err error) { errs <- err }))
	w.OnReload(func(*Config) { t.Error("handler called for an invalid file") })
	require.NoError(t, w.Start())
	defer w.Stop()

	writeFile(t, path, "refresh_hz: -1\n")
	select {
	case err := <-errs:
		assert.ErrorContains(t, err, "refresh_hz")
	case <-time.After(5 * time.Second):
		t.Fatal("no error reported")
	}
}

func TestWatcherStartMissingFile(t *testing.T) {
	w := NewWatcher(filepath.Join(t.TempDir(), "nope.yaml"), zerolog.Nop())
	assert.Error(t, w.Start())
	assert.NoError(t, w.Stop())
}
