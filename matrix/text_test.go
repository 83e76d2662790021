package matrix

import (
	"context"
	"image/color"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lit lists the lit cells of f as rows of '#' and '.'.
func lit(f Frame) string {
	var b strings.Builder
	for y := 0; y < Height; y++ {
		for x := 0; x < Width; x++ {
			if f[y*Width+x] > 0 {
				b.WriteByte('#')
			} else {
				b.WriteByte('.')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func TestTextGlyph(t *testing.T) {
	s, r := newSurface()
	s.Text("I", 0, 0, color.White)
	assert.Empty(t, r.frames)

	want := "" +
		".###........\n" +
		"..#.........\n" +
		"..#.........\n" +
		"..#.........\n" +
		"..#.........\n" +
		"..#.........\n" +
		".###........\n" +
		"............\n"
	assert.Equal(t, want, lit(s.Canvas()))
	assert.Equal(t, uint8(255), s.Brightness(2, 3))
}

func TestTextNormalizes(t *testing.T) {
	upper, _ := newSurface()
	upper.Text("HI", 0, 1, color.White)

	lower, _ := newSurface()
	lower.Text("hi", 0, 1, color.White)
	assert.Equal(t, upper.Canvas(), lower.Canvas())

	assert.Equal(t, "A B", normalize("a~b"))
	assert.Equal(t, "  ", normalize("é{"))
	assert.Equal(t, 12, textWidth("ab"))
}

func TestTextColor(t *testing.T) {
	s, _ := newSurface()
	s.Text("I", 0, 0, color.RGBA{R: 90, A: 255})
	assert.Equal(t, uint8(30), s.Brightness(2, 3))
}

func TestEndTextNoScroll(t *testing.T) {
	s, r := newSurface()
	s.BeginText(6, 0, nil)
	s.Print("I")
	require.NoError(t, s.EndText(context.Background(), NoScroll))

	require.NotEmpty(t, r.frames)
	last := r.frames[len(r.frames)-1]
	assert.Equal(t, uint8(255), last[3*Width+8])
	assert.Zero(t, last[3*Width+2])
}

func TestEndTextScrollFrameCounts(t *testing.T) {
	tests := []struct {
		dir  Scroll
		x, y int
		want int
	}{
		{ScrollLeft, 0, 0, 12},
		{ScrollLeft, 3, 0, 15},
		{ScrollRight, 0, 0, 12},
		{ScrollUp, 0, 0, 7},
		{ScrollDown, 0, 1, 8},
	}
	for _, tt := range tests {
		t.Run(tt.dir.String(), func(t *testing.T) {
			s, r := newSurface()
			s.SetScrollSpeed(0)
			s.BeginText(tt.x, tt.y, color.White)
			_, err := s.Write([]byte("HI"))
			require.NoError(t, err)
			require.NoError(t, s.EndText(context.Background(), tt.dir))
			// One frame per step plus the final render.
			assert.Len(t, r.frames, tt.want+1)
		})
	}
}

func TestScrollLeftMovesOffCanvas(t *testing.T) {
	s, r := newSurface()
	s.SetScrollSpeed(0)
	s.BeginText(0, 0, color.White)
	s.Print("HI")
	require.NoError(t, s.EndText(context.Background(), ScrollLeft))

	first := r.frames[0]
	for y := 0; y < 7; y++ {
		assert.Equal(t, uint8(255), first[y*Width], "H stem row %d", y)
	}
	// The stem of the H has moved one column left.
	assert.Zero(t, r.frames[1][0])
	assert.Equal(t, Frame{}, r.frames[len(r.frames)-1])
}

func TestScrollRightEndsInPlace(t *testing.T) {
	s, r := newSurface()
	s.SetScrollSpeed(0)
	s.BeginText(0, 0, color.White)
	s.Print("HI")
	require.NoError(t, s.EndText(context.Background(), ScrollRight))

	assert.Equal(t, Frame{}, r.frames[0])
	want, _ := newSurface()
	want.Text("HI", 0, 0, color.White)
	assert.Equal(t, want.Canvas(), r.frames[len(r.frames)-1])
}

func TestScrollUpLastRow(t *testing.T) {
	s, r := newSurface()
	s.SetScrollSpeed(0)
	s.BeginText(0, 0, color.White)
	s.Print("I")
	require.NoError(t, s.EndText(context.Background(), ScrollUp))

	last := r.frames[len(r.frames)-1]
	assert.Equal(t, ".###........\n"+strings.Repeat("............\n", 7), lit(last))
}

func TestEndTextCancelled(t *testing.T) {
	s, r := newSurface()
	s.BeginText(0, 0, color.White)
	s.Print("HELLO")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := s.EndText(ctx, ScrollLeft)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, r.frames, 1, "only the final render")
}

func TestEndTextToAnimation(t *testing.T) {
	s, r := newSurface()
	s.BeginText(0, 0, color.White)
	s.Print("HI")

	dst := make([]Frame, 20)
	n := s.EndTextToAnimation(ScrollLeft, dst)
	assert.Equal(t, 12, n)
	assert.Empty(t, r.frames, "recording does not touch the display")
	assert.Equal(t, uint8(255), dst[0][0])
	assert.Equal(t, Frame{}, dst[n], "unused slots stay dark")
	assert.Equal(t, DefaultScrollSpeed, s.ScrollSpeed())
	assert.False(t, s.Capturing())
}

func TestEndTextToAnimationTruncates(t *testing.T) {
	s, _ := newSurface()
	s.BeginText(0, 0, color.White)
	s.Print("HELLO")

	dst := make([]Frame, 5)
	assert.Equal(t, 5, s.EndTextToAnimation(ScrollLeft, dst))
}

func TestParseScroll(t *testing.T) {
	for _, d := range []Scroll{NoScroll, ScrollLeft, ScrollRight, ScrollUp, ScrollDown} {
		got, ok := ParseScroll(d.String())
		require.True(t, ok)
		assert.Equal(t, d, got)
	}
	_, ok := ParseScroll("sideways")
	assert.False(t, ok)
}
