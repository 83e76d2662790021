package main

import (
	"fmt"
	"os"

	"github.com/coreman2200/funtimes-charlieplex/internal/config"
	"github.com/coreman2200/funtimes-charlieplex/internal/frame"
	"github.com/coreman2200/funtimes-charlieplex/internal/gallery"
	"github.com/coreman2200/funtimes-charlieplex/matrix"
)

// program is an animation ready to load into an engine.
type program struct {
	name   string
	frames []matrix.Frame
}

// textFrames records a marquee of msg. Scrolling text starts just off the
// canvas on the side it enters from.
func textFrames(msg string, dir matrix.Scroll) []matrix.Frame {
	s := matrix.NewSurface(nil)
	x, y := 0, 0
	switch dir {
	case matrix.ScrollLeft, matrix.ScrollRight:
		x = matrix.Width
	case matrix.ScrollUp, matrix.ScrollDown:
		y = matrix.Height
	}
	s.BeginText(x, y, nil)
	s.Print(msg)
	buf := make([]matrix.Frame, len(msg)*6+matrix.Width+matrix.Height+1)
	n := s.EndTextToAnimation(dir, buf)
	return buf[:n]
}

// selectProgram picks, in order: a raw frame file, the configured text, or a
// gallery animation.
func selectProgram(c *config.Config, framesPath string) (program, error) {
	if framesPath != "" {
		b, err := os.ReadFile(framesPath)
		if err != nil {
			return program{}, err
		}
		frames, err := frame.FromBytes(b)
		if err != nil {
			return program{}, fmt.Errorf("%s: %w", framesPath, err)
		}
		return program{name: framesPath, frames: frames}, nil
	}
	if c.Text.Message != "" {
		dir, ok := matrix.ParseScroll(c.Text.Scroll)
		if !ok && c.Text.Scroll != "" {
			return program{}, fmt.Errorf("unknown scroll direction %q", c.Text.Scroll)
		}
		if c.Text.Scroll == "" {
			dir = matrix.ScrollLeft
		}
		return program{name: "text", frames: textFrames(c.Text.Message, dir)}, nil
	}
	frames, ok := gallery.Get(c.Animation)
	if !ok {
		return program{}, fmt.Errorf("unknown animation %q (have %v)", c.Animation, gallery.Names())
	}
	return program{name: c.Animation, frames: frames}, nil
}
