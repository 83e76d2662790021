package matrix

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"
	"time"

	"periph.io/x/conn/v3/display"
	"tinygo.org/x/drivers"

	"github.com/coreman2200/funtimes-charlieplex/internal/frame"
	"github.com/coreman2200/funtimes-charlieplex/internal/wiring"
)

// DefaultScrollSpeed is the delay between text scroll steps.
const DefaultScrollSpeed = 100 * time.Millisecond

// canvas is the 2-D brightness grid, row-major like the LED order. It is a
// draw.Image so image and font rasterizers can target it directly.
type canvas [wiring.Rows][wiring.Cols]uint8

func (c *canvas) ColorModel() color.Model { return color.GrayModel }

func (c *canvas) Bounds() image.Rectangle { return image.Rect(0, 0, wiring.Cols, wiring.Rows) }

func (c *canvas) At(x, y int) color.Color {
	if !c.in(x, y) {
		return color.Gray{}
	}
	return color.Gray{Y: c[y][x]}
}

func (c *canvas) Set(x, y int, col color.Color) {
	r, g, b, _ := col.RGBA()
	c.setRGB(x, y, uint8(r>>8), uint8(g>>8), uint8(b>>8))
}

// setRGB stores the plain channel average. Out-of-range writes are dropped.
func (c *canvas) setRGB(x, y int, r, g, b uint8) {
	if !c.in(x, y) {
		return
	}
	c[y][x] = uint8((uint16(r) + uint16(g) + uint16(b)) / 3)
}

func (c *canvas) in(x, y int) bool {
	return x >= 0 && y >= 0 && x < wiring.Cols && y < wiring.Rows
}

func (c *canvas) frame() frame.Frame {
	var f frame.Frame
	for y := range c {
		copy(f[y*wiring.Cols:], c[y][:])
	}
	return f
}

// capture records finalized canvases into a caller buffer.
type capture struct {
	active bool
	dst    []Frame
	n      int
}

// Surface rasterizes drawing calls into a 12x8 brightness canvas and, on
// EndDraw, either renders it or appends it to an active capture.
//
// Surface satisfies tinygo's drivers.Displayer, image/draw.Image and
// periph's display.Drawer.
type Surface struct {
	render func(Frame)
	clear  func()

	mu    sync.Mutex
	cv    canvas
	rec   capture
	speed time.Duration
	text  textState
}

var (
	_ drivers.Displayer = (*Surface)(nil)
	_ draw.Image        = (*Surface)(nil)
	_ display.Drawer    = (*Surface)(nil)
)

// NewSurface returns a surface that hands finalized frames to render.
func NewSurface(render func(Frame)) *Surface {
	return &Surface{render: render, speed: DefaultScrollSpeed}
}

func (s *Surface) String() string {
	return fmt.Sprintf("charlieplex %dx%d", wiring.Cols, wiring.Rows)
}

// Size reports the canvas size.
func (s *Surface) Size() (int16, int16) { return wiring.Cols, wiring.Rows }

// SetPixel stores the channel average of c at (x, y).
func (s *Surface) SetPixel(x, y int16, c color.RGBA) {
	s.SetRGB(int(x), int(y), c.R, c.G, c.B)
}

// Display finalizes the current drawing.
func (s *Surface) Display() error {
	s.EndDraw()
	return nil
}

func (s *Surface) ColorModel() color.Model { return color.GrayModel }

func (s *Surface) Bounds() image.Rectangle { return s.cv.Bounds() }

func (s *Surface) At(x, y int) color.Color {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cv.At(x, y)
}

func (s *Surface) Set(x, y int, c color.Color) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cv.Set(x, y, c)
}

// SetRGB stores (r+g+b)/3 at (x, y). Coordinates outside the canvas are
// ignored.
func (s *Surface) SetRGB(x, y int, r, g, b uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cv.setRGB(x, y, r, g, b)
}

// Brightness reads one canvas cell; outside the canvas it is 0.
func (s *Surface) Brightness(x, y int) uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.cv.in(x, y) {
		return 0
	}
	return s.cv[y][x]
}

// Canvas returns the canvas flattened in LED order.
func (s *Surface) Canvas() Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cv.frame()
}

// Draw copies src into the canvas and finalizes it.
func (s *Surface) Draw(dst image.Rectangle, src image.Image, sp image.Point) error {
	s.mu.Lock()
	draw.Draw(&s.cv, dst, src, sp, draw.Src)
	s.mu.Unlock()
	s.EndDraw()
	return nil
}

// Halt blanks the canvas and the display.
func (s *Surface) Halt() error {
	s.Clear()
	return nil
}

// Clear zeroes the canvas and, when attached to an engine, its frame buffer.
func (s *Surface) Clear() {
	s.clearCanvas()
	if s.clear != nil {
		s.clear()
	}
}

func (s *Surface) clearCanvas() {
	s.mu.Lock()
	s.cv = canvas{}
	s.mu.Unlock()
}

// BeginDraw starts a drawing pass. The canvas keeps its content between
// passes; call Clear for a blank start.
func (s *Surface) BeginDraw() {}

// EndDraw finalizes the canvas. Outside a capture it is rendered as a single
// frame. During a capture it is appended to the capture buffer, or dropped
// once the buffer is full.
func (s *Surface) EndDraw() {
	s.mu.Lock()
	f := s.cv.frame()
	if s.rec.active {
		if s.rec.n < len(s.rec.dst) {
			s.rec.dst[s.rec.n] = f
			s.rec.n++
		}
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	if s.render != nil {
		s.render(f)
	}
}

// BeginCapture starts recording finalized canvases into dst; len(dst) is
// the capacity. A capture already in progress is discarded.
func (s *Surface) BeginCapture(dst []Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec = capture{active: true, dst: dst}
}

// EndCapture stops recording and returns how many frames were captured.
func (s *Surface) EndCapture() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.rec.n
	s.rec = capture{}
	return n
}

// Capturing reports whether a capture is in progress.
func (s *Surface) Capturing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rec.active
}

// SetScrollSpeed sets the delay between text scroll steps.
func (s *Surface) SetScrollSpeed(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.speed = d
}

func (s *Surface) ScrollSpeed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.speed
}
