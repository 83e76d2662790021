package preview

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/funtimes-charlieplex/internal/frame"
	"github.com/coreman2200/funtimes-charlieplex/internal/wiring"
)

type lineDrawer struct {
	rows   [][]uint8
	fail   error
	halted bool
}

func (l *lineDrawer) String() string { return "line" }

func (l *lineDrawer) Halt() error {
	l.halted = true
	return nil
}

func (l *lineDrawer) ColorModel() color.Model { return color.GrayModel }

func (l *lineDrawer) Bounds() image.Rectangle { return image.Rect(0, 0, wiring.Cols, 1) }

func (l *lineDrawer) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	if l.fail != nil {
		return l.fail
	}
	row := make([]uint8, r.Dx())
	for x := range row {
		row[x] = color.GrayModel.Convert(src.At(sp.X+x, sp.Y)).(color.Gray).Y
	}
	l.rows = append(l.rows, row)
	return nil
}

type staticSource frame.Frame

func (s staticSource) Frame() frame.Frame { return frame.Frame(s) }

func TestWriteDrawsEveryRow(t *testing.T) {
	ld := &lineDrawer{}
	var out bytes.Buffer
	d := New(ld, &out)

	var f frame.Frame
	f[wiring.Index(3, 2)] = 200
	f[wiring.Index(11, 7)] = 9
	require.NoError(t, d.Write(f))

	require.Len(t, ld.rows, wiring.Rows)
	assert.Equal(t, uint8(200), ld.rows[2][3])
	assert.Equal(t, uint8(9), ld.rows[7][11])
	assert.Zero(t, ld.rows[0][0])
	assert.Equal(t, wiring.Rows, strings.Count(out.String(), "\n"))
	assert.True(t, strings.HasSuffix(out.String(), "\033[8A"))
}

func TestWriteThrottles(t *testing.T) {
	ld := &lineDrawer{}
	d := New(ld, &bytes.Buffer{})
	d.throttle = time.Hour

	require.NoError(t, d.Write(frame.Frame{}))
	require.NoError(t, d.Write(frame.Frame{}))
	assert.Len(t, ld.rows, wiring.Rows)
}

func TestWriteError(t *testing.T) {
	boom := errors.New("boom")
	d := New(&lineDrawer{fail: boom}, &bytes.Buffer{})
	assert.ErrorIs(t, d.Write(frame.Frame{}), boom)
}

func TestRunHaltsOnCancel(t *testing.T) {
	ld := &lineDrawer{}
	d := New(ld, &bytes.Buffer{})
	d.throttle = 0

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	var f frame.Frame
	f[0] = 1
	require.NoError(t, d.Run(ctx, staticSource(f), 100))
	assert.True(t, ld.halted)
	assert.NotEmpty(t, ld.rows)
}
