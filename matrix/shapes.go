package matrix

import (
	"fmt"
	"image/color"
	"io"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/math/fixed"

	"github.com/coreman2200/funtimes-charlieplex/internal/wiring"
)

// Shapes are rasterized with anti-aliasing; partial coverage becomes partial
// brightness. None of them finalize the canvas.

func (c *canvas) filler(col color.Color) *rasterx.Filler {
	sc := rasterx.NewScannerGV(wiring.Cols, wiring.Rows, c, c.Bounds())
	f := rasterx.NewFiller(wiring.Cols, wiring.Rows, sc)
	f.SetColor(col)
	return f
}

func (c *canvas) dasher(col color.Color, width float64) *rasterx.Dasher {
	sc := rasterx.NewScannerGV(wiring.Cols, wiring.Rows, c, c.Bounds())
	d := rasterx.NewDasher(wiring.Cols, wiring.Rows, sc)
	d.SetStroke(fixed.Int26_6(width*64), 4*64, rasterx.ButtCap, nil, rasterx.FlatGap, rasterx.Miter, nil, 0)
	d.SetColor(col)
	return d
}

// FillRect fills the rectangle spanning (x0, y0) to (x1, y1).
func (s *Surface) FillRect(x0, y0, x1, y1 float64, col color.Color) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := s.cv.filler(col)
	rasterx.AddRect(x0, y0, x1, y1, 0, f)
	f.Draw()
}

// StrokeRect outlines the rectangle with a line of the given width.
func (s *Surface) StrokeRect(x0, y0, x1, y1, width float64, col color.Color) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.cv.dasher(col, width)
	rasterx.AddRect(x0, y0, x1, y1, 0, d)
	d.Draw()
}

// Circle draws a circle centred on (cx, cy), filled or outlined.
func (s *Surface) Circle(cx, cy, r float64, col color.Color, fill bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fill {
		f := s.cv.filler(col)
		rasterx.AddCircle(cx, cy, r, f)
		f.Draw()
		return
	}
	d := s.cv.dasher(col, 1)
	rasterx.AddCircle(cx, cy, r, d)
	d.Draw()
}

// Line strokes a segment from (x0, y0) to (x1, y1).
func (s *Surface) Line(x0, y0, x1, y1, width float64, col color.Color) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.cv.dasher(col, width)
	d.Start(rasterx.ToFixedP(x0, y0))
	d.Line(rasterx.ToFixedP(x1, y1))
	d.Stop(false)
	d.Draw()
}

// DrawSVG renders an SVG icon scaled to the whole canvas.
func (s *Surface) DrawSVG(r io.Reader) error {
	icon, err := oksvg.ReadIconStream(r)
	if err != nil {
		return fmt.Errorf("matrix: svg: %w", err)
	}
	icon.SetTarget(0, 0, wiring.Cols, wiring.Rows)

	s.mu.Lock()
	defer s.mu.Unlock()
	sc := rasterx.NewScannerGV(wiring.Cols, wiring.Rows, &s.cv, s.cv.Bounds())
	icon.Draw(rasterx.NewDasher(wiring.Cols, wiring.Rows, sc), 1)
	return nil
}
