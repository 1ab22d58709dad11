// Package tone implements the instrument's tone backends.
package tone

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chase3718/pi-ano/internal/keymatrix"
)

// MaxSoftHz is the highest frequency the software generator will produce.
const MaxSoftHz = 5000

// PinWriter is the part of the GPIO backend a software tone needs.
type PinWriter interface {
	SetMode(pin int, mode keymatrix.Mode) error
	Write(pin int, high bool) error
}

// Soft toggles GPIO pins from one goroutine per pin to make square waves
// for piezo buzzers.
type Soft struct {
	io   PinWriter
	mu   sync.Mutex
	gens map[int]*softGen
	wg   sync.WaitGroup
}

type softGen struct {
	hz   atomic.Int64
	stop chan struct{}
}

// NewSoft returns a software tone backend over io.
func NewSoft(io PinWriter) *Soft {
	return &Soft{io: io, gens: make(map[int]*softGen)}
}

// CreateTone makes pin an output and starts its generator, silent.
func (s *Soft) CreateTone(pin int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.gens[pin]; ok {
		return fmt.Errorf("tone already created on pin %d", pin)
	}
	if err := s.io.SetMode(pin, keymatrix.Output); err != nil {
		return fmt.Errorf("pin %d: %w", pin, err)
	}
	if err := s.io.Write(pin, false); err != nil {
		return fmt.Errorf("pin %d: %w", pin, err)
	}
	g := &softGen{stop: make(chan struct{})}
	s.gens[pin] = g
	s.wg.Add(1)
	go s.run(pin, g)
	return nil
}

// SetTone sets the frequency on pin; values above MaxSoftHz are clamped.
func (s *Soft) SetTone(pin, hz int) error {
	s.mu.Lock()
	g, ok := s.gens[pin]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("no tone on pin %d", pin)
	}
	if hz < 0 {
		hz = 0
	}
	if hz > MaxSoftHz {
		hz = MaxSoftHz
	}
	g.hz.Store(int64(hz))
	return nil
}

// Close stops every generator and leaves the pins low.
func (s *Soft) Close() error {
	s.mu.Lock()
	for pin, g := range s.gens {
		close(g.stop)
		delete(s.gens, pin)
	}
	s.mu.Unlock()
	s.wg.Wait()
	return nil
}

func (s *Soft) run(pin int, g *softGen) {
	defer s.wg.Done()
	defer s.io.Write(pin, false)
	for {
		select {
		case <-g.stop:
			return
		default:
		}
		hz := g.hz.Load()
		if hz == 0 {
			time.Sleep(time.Millisecond)
			continue
		}
		half := time.Second / time.Duration(2*hz)
		_ = s.io.Write(pin, true)
		time.Sleep(half)
		_ = s.io.Write(pin, false)
		time.Sleep(half)
	}
}
