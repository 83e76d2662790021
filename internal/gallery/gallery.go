// Package gallery holds the built-in animations.
package gallery

import (
	"sort"

	"github.com/coreman2200/funtimes-charlieplex/internal/frame"
	"github.com/coreman2200/funtimes-charlieplex/internal/wiring"
)

type Kind string

const (
	Sweep   Kind = "sweep"
	Breathe Kind = "breathe"
	Heart   Kind = "heart"
	Checker Kind = "checker"
	Rows    Kind = "rows"
)

var builders = map[Kind]func() []frame.Frame{
	Sweep:   sweep,
	Breathe: breathe,
	Heart:   heart,
	Checker: checker,
	Rows:    rows,
}

// Get builds the named animation. Every call returns fresh frames, so the
// caller may hand them to a player without copying.
func Get(name string) ([]frame.Frame, bool) {
	b, ok := builders[Kind(name)]
	if !ok {
		return nil, false
	}
	return b(), true
}

func Names() []string {
	out := make([]string, 0, len(builders))
	for k := range builders {
		out = append(out, string(k))
	}
	sort.Strings(out)
	return out
}

// sweep lights each LED in wiring order, one per frame.
func sweep() []frame.Frame {
	out := make([]frame.Frame, wiring.Count)
	for i := range out {
		out[i][i] = frame.Max
	}
	return out
}

const breatheSteps = 16

// breathe ramps the whole matrix up and back down.
func breathe() []frame.Frame {
	out := make([]frame.Frame, 0, 2*breatheSteps)
	level := func(s int) uint8 { return uint8(s * frame.Max / breatheSteps) }
	for s := 1; s <= breatheSteps; s++ {
		out = append(out, fill(level(s)))
	}
	for s := breatheSteps - 1; s >= 0; s-- {
		out = append(out, fill(level(s)))
	}
	return out
}

func fill(v uint8) frame.Frame {
	var f frame.Frame
	for i := range f {
		f[i] = v
	}
	return f
}

var heartBitmap = [wiring.Rows]string{
	"............",
	"...##..##...",
	"..########..",
	"..########..",
	"...######...",
	"....####....",
	".....##.....",
	"............",
}

// heart beats twice then rests.
func heart() []frame.Frame {
	dim := bitmap(heartBitmap, 64)
	full := bitmap(heartBitmap, frame.Max)
	return []frame.Frame{dim, full, dim, full, dim, dim, {}, {}}
}

func bitmap(rows [wiring.Rows]string, v uint8) frame.Frame {
	var f frame.Frame
	for y, row := range rows {
		for x := 0; x < wiring.Cols && x < len(row); x++ {
			if row[x] == '#' {
				f[wiring.Index(x, y)] = v
			}
		}
	}
	return f
}

// checker alternates the two checkerboard phases.
func checker() []frame.Frame {
	out := make([]frame.Frame, 2)
	for y := 0; y < wiring.Rows; y++ {
		for x := 0; x < wiring.Cols; x++ {
			out[(x+y)%2][wiring.Index(x, y)] = frame.Max
		}
	}
	return out
}

// rows lights one row at a time, top to bottom.
func rows() []frame.Frame {
	out := make([]frame.Frame, wiring.Rows)
	for y := range out {
		for x := 0; x < wiring.Cols; x++ {
			out[y][wiring.Index(x, y)] = frame.Max
		}
	}
	return out
}
