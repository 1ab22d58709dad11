// Package gpio is the Raspberry Pi pin backend, using BCM numbering.
package gpio

import (
	"fmt"
	"sync"

	"github.com/stianeikeland/go-rpio/v4"

	"github.com/chase3718/pi-ano/internal/keymatrix"
)

// RPi drives pins through /dev/gpiomem. Input pins get pull-downs so an
// open row reads low unless a key connects it to the strobed column.
type RPi struct {
	mu sync.Mutex
}

// Open maps the GPIO registers. It must be called once, before any pin
// operation, and usually requires root.
func Open() (*RPi, error) {
	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("gpio: %w", err)
	}
	return &RPi{}, nil
}

func (g *RPi) SetMode(pin int, mode keymatrix.Mode) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	p := rpio.Pin(pin)
	switch mode {
	case keymatrix.Output:
		p.Output()
	default:
		p.Input()
		p.PullDown()
	}
	return nil
}

// Write is called concurrently by the matrix scan and the tone generators,
// which touch disjoint pins; the lock only serialises register access.
func (g *RPi) Write(pin int, high bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if high {
		rpio.Pin(pin).High()
	} else {
		rpio.Pin(pin).Low()
	}
	return nil
}

func (g *RPi) Read(pin int) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return rpio.Pin(pin).Read() == rpio.High, nil
}

// Close unmaps the registers.
func (g *RPi) Close() error {
	return rpio.Close()
}
