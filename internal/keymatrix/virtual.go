package keymatrix

import (
	"fmt"
	"sync"
)

// Virtual is an in-memory key matrix wired to the default pins. Keys are
// pressed with Press/Release from any goroutine; Read behaves like the real
// board, returning true only for rows whose key sits in a driven column.
type Virtual struct {
	mu      sync.Mutex
	pressed Matrix
	levels  map[int]bool
	rowOf   map[int]int
	colOf   map[int]int
}

// NewVirtual returns a board with no keys down.
func NewVirtual() *Virtual {
	v := &Virtual{levels: map[int]bool{}, rowOf: map[int]int{}, colOf: map[int]int{}}
	for r, p := range DefaultRowPins {
		v.rowOf[p] = r
	}
	for c, p := range DefaultColumnPins {
		v.colOf[p] = c
	}
	return v
}

// Press holds the key at c down.
func (v *Virtual) Press(c Cell) { v.set(c, true) }

// Release lets the key at c up.
func (v *Virtual) Release(c Cell) { v.set(c, false) }

// Toggle flips the key at c and returns its new state.
func (v *Virtual) Toggle(c Cell) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.pressed[c.Row][c.Col] = !v.pressed[c.Row][c.Col]
	return v.pressed[c.Row][c.Col]
}

// ReleaseAll lets every key up.
func (v *Virtual) ReleaseAll() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.pressed = Matrix{}
}

// Pressed returns the keys currently down.
func (v *Virtual) Pressed() Matrix {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.pressed
}

func (v *Virtual) set(c Cell, down bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.pressed[c.Row][c.Col] = down
}

func (v *Virtual) SetMode(pin int, mode Mode) error { return nil }

func (v *Virtual) Write(pin int, high bool) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.levels[pin] = high
	return nil
}

func (v *Virtual) Read(pin int) (bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	row, ok := v.rowOf[pin]
	if !ok {
		return false, fmt.Errorf("pin %d is not a row input", pin)
	}
	for p, high := range v.levels {
		c, isCol := v.colOf[p]
		if high && isCol && v.pressed[row][c] {
			return true, nil
		}
	}
	return false, nil
}
