package keymatrix

import (
	"fmt"
	"time"
)

// Mode is a pin direction.
type Mode int

const (
	Input Mode = iota
	Output
)

func (m Mode) String() string {
	if m == Output {
		return "OUT"
	}
	return "IN"
}

// PinIO is the pin-level backend the scanner drives. Implementations must
// have completed any privileged initialisation before the first call.
type PinIO interface {
	SetMode(pin int, mode Mode) error
	Write(pin int, high bool) error
	Read(pin int) (bool, error)
}

// Default BCM pin assignment.
var (
	DefaultRowPins    = [Rows]int{11, 13, 19, 26}
	DefaultColumnPins = [Cols]int{12, 16, 20, 21}
)

// DefaultSettle is how long a driven column needs before the rows reflect it.
// Reading faster than this returns stale levels.
const DefaultSettle = 3 * time.Millisecond

// Scanner produces snapshots of the physical matrix.
type Scanner struct {
	io      PinIO
	rows    [Rows]int
	columns [Cols]int
	settle  time.Duration

	// Wait blocks for d. Defaults to a busy wait so the strobe timing is not
	// subject to scheduler wakeup latency.
	Wait func(d time.Duration)
}

// NewScanner returns a scanner using the default pin assignment.
func NewScanner(io PinIO) *Scanner {
	return &Scanner{
		io:      io,
		rows:    DefaultRowPins,
		columns: DefaultColumnPins,
		settle:  DefaultSettle,
		Wait:    BusyWait,
	}
}

// WithSettle overrides the per-column settle time.
func (s *Scanner) WithSettle(d time.Duration) *Scanner {
	s.settle = d
	return s
}

// Init sets row pins as inputs and column pins as outputs driven low.
func (s *Scanner) Init() error {
	for _, pin := range s.rows {
		if err := s.io.SetMode(pin, Input); err != nil {
			return fmt.Errorf("row pin %d: %w", pin, err)
		}
	}
	for _, pin := range s.columns {
		if err := s.io.SetMode(pin, Output); err != nil {
			return fmt.Errorf("column pin %d: %w", pin, err)
		}
		if err := s.io.Write(pin, false); err != nil {
			return fmt.Errorf("column pin %d: %w", pin, err)
		}
	}
	return nil
}

// Scan strobes each column in order and returns the snapshot. Every column
// line is low again when Scan returns, even on error.
func (s *Scanner) Scan() (Matrix, error) {
	var snap Matrix
	for c, colPin := range s.columns {
		if err := s.io.Write(colPin, true); err != nil {
			_ = s.io.Write(colPin, false)
			return snap, fmt.Errorf("strobe column %d: %w", c, err)
		}
		s.Wait(s.settle)
		for r, rowPin := range s.rows {
			v, err := s.io.Read(rowPin)
			if err != nil {
				_ = s.io.Write(colPin, false)
				return snap, fmt.Errorf("read row %d column %d: %w", r, c, err)
			}
			snap[r][c] = v
		}
		if err := s.io.Write(colPin, false); err != nil {
			return snap, fmt.Errorf("release column %d: %w", c, err)
		}
	}
	return snap, nil
}

// BusyWait spins until d has elapsed.
func BusyWait(d time.Duration) {
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
	}
}
