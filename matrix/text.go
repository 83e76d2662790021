package matrix

import (
	"context"
	"image"
	"image/color"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// Scroll is the direction text moves while it is shown.
type Scroll int

const (
	NoScroll Scroll = iota
	ScrollLeft
	ScrollRight
	ScrollUp
	ScrollDown
)

func (d Scroll) String() string {
	switch d {
	case ScrollLeft:
		return "left"
	case ScrollRight:
		return "right"
	case ScrollUp:
		return "up"
	case ScrollDown:
		return "down"
	default:
		return "none"
	}
}

// ParseScroll maps a direction name to a Scroll.
func ParseScroll(s string) (Scroll, bool) {
	for d := NoScroll; d <= ScrollDown; d++ {
		if d.String() == s {
			return d, true
		}
	}
	return NoScroll, false
}

type textState struct {
	s    string
	x, y int
	col  color.Color
}

// BeginText starts buffering text to be shown at (x, y), the top left of
// the first glyph.
func (s *Surface) BeginText(x, y int, c color.Color) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.text = textState{x: x, y: y, col: c}
}

// Print appends to the buffered text.
func (s *Surface) Print(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.text.s += text
}

// Write appends p to the buffered text.
func (s *Surface) Write(p []byte) (int, error) {
	s.Print(string(p))
	return len(p), nil
}

// Text draws text onto the canvas at (x, y) without finalizing.
func (s *Surface) Text(text string, x, y int, c color.Color) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cv.drawText(text, x, y, c)
}

// EndText shows the buffered text, scrolling it one pixel per frame in dir
// with ScrollSpeed between frames, then renders the final canvas. It returns
// early with ctx's error if ctx is cancelled mid-scroll.
func (s *Surface) EndText(ctx context.Context, dir Scroll) error {
	err := s.scrollText(ctx, dir)
	f := s.Canvas()
	if s.render != nil {
		s.render(f)
	}
	return err
}

// EndTextToAnimation records the scroll of the buffered text into dst
// instead of the display, without delays, and returns the number of frames
// recorded. Frames beyond len(dst) are dropped.
func (s *Surface) EndTextToAnimation(dir Scroll, dst []Frame) int {
	s.BeginCapture(dst)
	speed := s.ScrollSpeed()
	s.SetScrollSpeed(0)
	_ = s.scrollText(context.Background(), dir)
	s.SetScrollSpeed(speed)
	return s.EndCapture()
}

func (s *Surface) scrollText(ctx context.Context, dir Scroll) error {
	s.mu.Lock()
	t := s.text
	s.text = textState{}
	speed := s.speed
	s.mu.Unlock()

	text := normalize(t.s)
	col := t.col
	if col == nil {
		col = color.White
	}

	var n int
	var at func(i int) (int, int)
	switch dir {
	case ScrollLeft:
		n = textWidth(text) + t.x
		at = func(i int) (int, int) { return t.x - i, t.y }
	case ScrollRight:
		n = textWidth(text) + t.x
		at = func(i int) (int, int) { return t.x - (n - i - 1), t.y }
	case ScrollUp:
		n = glyphHeight + t.y
		at = func(i int) (int, int) { return t.x, t.y - i }
	case ScrollDown:
		n = glyphHeight + t.y
		at = func(i int) (int, int) { return t.x, t.y - (n - i - 1) }
	default:
		s.step(text, t.x, t.y, col)
		return nil
	}

	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		x, y := at(i)
		s.step(text, x, y, col)
		if err := sleep(ctx, speed); err != nil {
			return err
		}
	}
	return nil
}

// step redraws the text alone at (x, y) and finalizes it.
func (s *Surface) step(text string, x, y int, c color.Color) {
	s.mu.Lock()
	s.cv = canvas{}
	s.cv.drawText(text, x, y, c)
	s.mu.Unlock()
	s.EndDraw()
}

func (c *canvas) drawText(text string, x, y int, col color.Color) {
	d := font.Drawer{
		Dst:  c,
		Src:  image.NewUniform(col),
		Face: Font,
		Dot:  fixed.P(x, y+glyphHeight),
	}
	d.DrawString(normalize(text))
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
