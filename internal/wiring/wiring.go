// Package wiring holds the fixed charlieplex wiring of the 12x8 matrix.
package wiring

import "fmt"

const (
	// Count is the number of LEDs on the matrix.
	Count = 96
	// Cols and Rows describe the logical canvas layout.
	Cols = 12
	Rows = 8
	// Pins is the number of physical pins shared by all LEDs.
	Pins = 11
)

// Pin identifies one of the matrix pins, 0..Pins-1.
type Pin uint8

// Entry is the electrical path of one LED.
type Entry struct {
	Anode   Pin
	Cathode Pin
}

func (e Entry) String() string {
	return fmt.Sprintf("%d->%d", e.Anode, e.Cathode)
}

// Mask is a bit set of pins.
type Mask uint16

// Has reports whether p is in the mask.
func (m Mask) Has(p Pin) bool { return m&(1<<p) != 0 }

// With returns m with p added.
func (m Mask) With(p Pin) Mask { return m | 1<<p }

// Without returns m with p removed.
func (m Mask) Without(p Pin) Mask { return m &^ (1 << p) }

// Len is the number of pins in the mask.
func (m Mask) Len() int {
	n := 0
	for p := Pin(0); p < Pins; p++ {
		if m.Has(p) {
			n++
		}
	}
	return n
}

var table = [Count]Entry{
	{7, 3}, {3, 7}, {7, 4}, {4, 7}, {3, 4}, {4, 3}, {7, 8}, {8, 7}, {3, 8}, {8, 3},
	{4, 8}, {8, 4}, {7, 0}, {0, 7}, {3, 0}, {0, 3}, {4, 0}, {0, 4}, {8, 0}, {0, 8},
	{7, 6}, {6, 7}, {3, 6}, {6, 3}, {4, 6}, {6, 4}, {8, 6}, {6, 8}, {0, 6}, {6, 0},
	{7, 5}, {5, 7}, {3, 5}, {5, 3}, {4, 5}, {5, 4}, {8, 5}, {5, 8}, {0, 5}, {5, 0},
	{6, 5}, {5, 6}, {7, 1}, {1, 7}, {3, 1}, {1, 3}, {4, 1}, {1, 4}, {8, 1}, {1, 8},
	{0, 1}, {1, 0}, {6, 1}, {1, 6}, {5, 1}, {1, 5}, {7, 2}, {2, 7}, {3, 2}, {2, 3},
	{4, 2}, {2, 4}, {8, 2}, {2, 8}, {0, 2}, {2, 0}, {6, 2}, {2, 6}, {5, 2}, {2, 5},
	{1, 2}, {2, 1}, {7, 10}, {10, 7}, {3, 10}, {10, 3}, {4, 10}, {10, 4}, {8, 10}, {10, 8},
	{0, 10}, {10, 0}, {6, 10}, {10, 6}, {5, 10}, {10, 5}, {1, 10}, {10, 1}, {2, 10}, {10, 2},
	{7, 9}, {9, 7}, {3, 9}, {9, 3}, {4, 9}, {9, 4},
}

var (
	participating Mask
	reverse       = map[Entry]int{}
)

func init() {
	if err := Validate(table[:]); err != nil {
		panic(err)
	}
	for i, e := range table {
		participating = participating.With(e.Anode).With(e.Cathode)
		reverse[e] = i
	}
}

// Validate checks that every entry uses two distinct in-range pins and that
// no ordered (anode, cathode) pair appears twice.
func Validate(entries []Entry) error {
	seen := make(map[Entry]int, len(entries))
	for i, e := range entries {
		if e.Anode >= Pins || e.Cathode >= Pins {
			return fmt.Errorf("wiring: entry %d (%s) uses a pin outside 0..%d", i, e, Pins-1)
		}
		if e.Anode == e.Cathode {
			return fmt.Errorf("wiring: entry %d (%s) shorts a pin to itself", i, e)
		}
		if j, ok := seen[e]; ok {
			return fmt.Errorf("wiring: entry %d (%s) aliases entry %d", i, e, j)
		}
		seen[e] = i
	}
	return nil
}

// At returns the wiring of LED idx. An index outside [0, Count) panics.
func At(idx int) Entry { return table[idx] }

// Table returns a copy of the full wiring table.
func Table() [Count]Entry { return table }

// Lookup finds the LED wired between anode and cathode.
func Lookup(anode, cathode Pin) (int, bool) {
	i, ok := reverse[Entry{anode, cathode}]
	return i, ok
}

// Participating is the set of pins any LED uses; all of them are released
// before a new LED is asserted.
func Participating() Mask { return participating }

// Index maps a canvas coordinate to its LED, row-major.
func Index(x, y int) int { return y*Cols + x }
