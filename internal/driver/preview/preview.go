// Package preview prints the frame buffer at the console, for running the
// engine without a matrix attached.
package preview

import (
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"sync"
	"time"

	"periph.io/x/conn/v3/display"
	"periph.io/x/extra/devices/screen"

	"github.com/coreman2200/funtimes-charlieplex/internal/frame"
	"github.com/coreman2200/funtimes-charlieplex/internal/wiring"
)

// Source is sampled by Run.
type Source interface {
	Frame() frame.Frame
}

// Driver draws each matrix row on a one-line display and moves the cursor
// back up so the next frame overwrites it.
type Driver struct {
	drawer   display.Drawer
	out      io.Writer
	throttle time.Duration

	mu       sync.Mutex
	lastEmit time.Time
	img      *image.Gray
}

// New previews on drawer, which must be at least wiring.Cols wide. Line
// breaks and cursor moves go to out.
func New(drawer display.Drawer, out io.Writer) *Driver {
	return &Driver{
		drawer:   drawer,
		out:      out,
		throttle: 50 * time.Millisecond, // ~20 FPS
		img:      image.NewGray(image.Rect(0, 0, wiring.Cols, wiring.Rows)),
	}
}

// NewConsole previews on stdout through periph's ANSI screen device.
func NewConsole() *Driver {
	return New(screen.New(wiring.Cols), os.Stdout)
}

// Write draws f unless the previous frame went out less than the throttle
// interval ago.
func (d *Driver) Write(f frame.Frame) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := time.Now()
	if d.lastEmit.Add(d.throttle).After(now) {
		return nil
	}
	d.lastEmit = now

	for y := 0; y < wiring.Rows; y++ {
		copy(d.img.Pix[y*d.img.Stride:], f[y*wiring.Cols:(y+1)*wiring.Cols])
	}
	r := image.Rect(0, 0, wiring.Cols, 1)
	for y := 0; y < wiring.Rows; y++ {
		if err := d.drawer.Draw(r, d.img, image.Pt(0, y)); err != nil {
			return fmt.Errorf("preview: row %d: %w", y, err)
		}
		fmt.Fprint(d.out, "\n")
	}
	fmt.Fprintf(d.out, "\033[%dA", wiring.Rows)
	return nil
}

// Run samples src fps times a second until ctx is done, then blanks the
// display.
func (d *Driver) Run(ctx context.Context, src Source, fps int) error {
	ticker := time.NewTicker(time.Second / time.Duration(max(1, fps)))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			fmt.Fprintf(d.out, "\033[%dB", wiring.Rows)
			return d.drawer.Halt()
		case <-ticker.C:
			if err := d.Write(src.Frame()); err != nil {
				return err
			}
		}
	}
}
