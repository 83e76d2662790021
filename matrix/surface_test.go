package matrix

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	frames []Frame
}

func (r *recorder) render(f Frame) { r.frames = append(r.frames, f) }

func newSurface() (*Surface, *recorder) {
	r := &recorder{}
	return NewSurface(r.render), r
}

func TestSetRGBAveragesChannels(t *testing.T) {
	tests := []struct {
		name    string
		r, g, b uint8
		want    uint8
	}{
		{"white", 255, 255, 255, 255},
		{"black", 0, 0, 0, 0},
		{"red", 255, 0, 0, 85},
		{"mixed", 30, 60, 90, 60},
		{"truncates", 1, 1, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newSurface()
			s.SetRGB(4, 2, tt.r, tt.g, tt.b)
			assert.Equal(t, tt.want, s.Brightness(4, 2))
			assert.Equal(t, tt.want, s.Canvas()[2*Width+4])
		})
	}
}

func TestOutOfRangeWritesIgnored(t *testing.T) {
	s, _ := newSurface()
	for _, p := range []image.Point{{-1, 0}, {0, -1}, {Width, 0}, {0, Height}, {100, 100}} {
		s.SetRGB(p.X, p.Y, 255, 255, 255)
		s.SetPixel(int16(p.X), int16(p.Y), color.RGBA{255, 255, 255, 255})
		assert.Zero(t, s.Brightness(p.X, p.Y))
	}
	assert.Equal(t, Frame{}, s.Canvas())
}

func TestEndDrawRenders(t *testing.T) {
	s, r := newSurface()
	s.BeginDraw()
	s.SetPixel(11, 7, color.RGBA{R: 255, G: 255, B: 255, A: 255})
	s.EndDraw()

	require.Len(t, r.frames, 1)
	assert.Equal(t, uint8(255), r.frames[0][NumLEDs-1])

	// The canvas persists across passes.
	s.SetRGB(0, 0, 255, 255, 255)
	require.NoError(t, s.Display())
	require.Len(t, r.frames, 2)
	assert.Equal(t, uint8(255), r.frames[1][0])
	assert.Equal(t, uint8(255), r.frames[1][NumLEDs-1])
}

func TestCapture(t *testing.T) {
	s, r := newSurface()
	dst := make([]Frame, 2)
	s.BeginCapture(dst)
	assert.True(t, s.Capturing())

	for i := 0; i < 4; i++ {
		s.SetRGB(i, 0, 255, 255, 255)
		s.EndDraw()
	}
	assert.Empty(t, r.frames, "nothing renders while capturing")

	assert.Equal(t, 2, s.EndCapture())
	assert.False(t, s.Capturing())
	assert.Equal(t, uint8(255), dst[0][0])
	assert.Zero(t, dst[0][1])
	assert.Equal(t, uint8(255), dst[1][1])

	s.EndDraw()
	assert.Len(t, r.frames, 1, "renders again after the capture")
}

func TestCaptureRestartDiscards(t *testing.T) {
	s, _ := newSurface()
	first := make([]Frame, 3)
	s.BeginCapture(first)
	s.EndDraw()

	second := make([]Frame, 3)
	s.BeginCapture(second)
	s.EndDraw()
	s.EndDraw()
	assert.Equal(t, 2, s.EndCapture())
	assert.Zero(t, s.EndCapture())
}

func TestDrawImage(t *testing.T) {
	s, r := newSurface()
	src := image.NewUniform(color.RGBA{R: 30, G: 60, B: 90, A: 255})
	require.NoError(t, s.Draw(image.Rect(0, 0, 2, 1), src, image.Point{}))

	require.Len(t, r.frames, 1)
	assert.Equal(t, uint8(60), r.frames[0][0])
	assert.Equal(t, uint8(60), r.frames[0][1])
	assert.Zero(t, r.frames[0][2])
}

func TestSurfaceImageMethods(t *testing.T) {
	s, _ := newSurface()
	x, y := s.Size()
	assert.Equal(t, int16(Width), x)
	assert.Equal(t, int16(Height), y)
	assert.Equal(t, image.Rect(0, 0, Width, Height), s.Bounds())
	assert.Equal(t, color.GrayModel, s.ColorModel())
	assert.Equal(t, "charlieplex 12x8", s.String())

	s.Set(3, 3, color.Gray{Y: 100})
	assert.Equal(t, color.Gray{Y: 100}, s.At(3, 3))
	assert.Equal(t, color.Gray{}, s.At(-5, 3))
}

func TestStandaloneClear(t *testing.T) {
	s, r := newSurface()
	s.SetRGB(1, 1, 255, 255, 255)
	s.Clear()
	assert.Equal(t, Frame{}, s.Canvas())
	assert.Empty(t, r.frames)
}
