// Package keymatrix samples a row/column key matrix through a pin backend.
//
// Columns are strobed one at a time; while a column is driven high every row
// is read, so one full pass yields a Rows x Cols snapshot of pressed keys.
package keymatrix

import "fmt"

const (
	Rows = 4
	Cols = 4
)

// Cells is the number of cells in the matrix.
const Cells = Rows * Cols

// Logical key indices with a fixed role.
const (
	KeyOctaveDown = 0
	KeyOctaveUp   = 1
	KeyUnused     = 15
)

// Cell addresses one matrix position.
type Cell struct {
	Row, Col int
}

func (c Cell) String() string {
	return fmt.Sprintf("(%d,%d)", c.Row, c.Col)
}

// Matrix is one boolean grid; true means the key at [row][col] is down.
type Matrix [Rows][Cols]bool

// At returns the state of c.
func (m Matrix) At(c Cell) bool { return m[c.Row][c.Col] }

// Set sets the state of c.
func (m *Matrix) Set(c Cell, v bool) { m[c.Row][c.Col] = v }

// Count returns the number of true cells.
func (m Matrix) Count() int {
	n := 0
	for r := 0; r < Rows; r++ {
		for c := 0; c < Cols; c++ {
			if m[r][c] {
				n++
			}
		}
	}
	return n
}

// KeyMap assigns every cell a logical key index.
type KeyMap [Rows][Cols]int

// DefaultKeyMap is the wiring of the instrument: row-major 0..15.
// 0 and 1 shift the octave, 2..14 are chromatic keys, 15 is padding.
var DefaultKeyMap = KeyMap{
	{0, 1, 2, 3},
	{4, 5, 6, 7},
	{8, 9, 10, 11},
	{12, 13, 14, 15},
}

// Key returns the logical index of c.
func (k KeyMap) Key(c Cell) int { return k[c.Row][c.Col] }

// EachCell calls fn for every cell in row-major order.
func EachCell(fn func(Cell)) {
	for r := 0; r < Rows; r++ {
		for c := 0; c < Cols; c++ {
			fn(Cell{Row: r, Col: c})
		}
	}
}
