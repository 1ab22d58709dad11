// Package instrument turns key matrix snapshots into notes.
//
// State owns the retained key matrix, the voice pool and the octave counter.
// It is driven from a single loop goroutine and does no locking.
package instrument

import (
	"fmt"
	"log/slog"

	"github.com/chase3718/pi-ano/internal/keymatrix"
	"github.com/chase3718/pi-ano/internal/pitch"
)

// ToneBackend drives square-wave outputs.
type ToneBackend interface {
	// CreateTone prepares pin for output. Called once per voice pin.
	CreateTone(pin int) error
	// SetTone sounds hz on pin; 0 silences it.
	SetTone(pin int, hz int) error
}

// Octave bounds accepted from the octave keys.
const (
	DefaultMinOctave = 1
	DefaultMaxOctave = 4
	DefaultOctave    = 4
)

// Options configures a State.
type Options struct {
	InitialOctave int
	MinOctave     int
	MaxOctave     int
	KeyMap        keymatrix.KeyMap
	VoicePins     [Capacity]int
}

// DefaultOptions returns the wiring and bounds of the instrument.
func DefaultOptions() Options {
	return Options{
		InitialOctave: DefaultOctave,
		MinOctave:     DefaultMinOctave,
		MaxOctave:     DefaultMaxOctave,
		KeyMap:        keymatrix.DefaultKeyMap,
		VoicePins:     DefaultVoicePins,
	}
}

// State is the key/voice state machine.
type State struct {
	tones  ToneBackend
	keys   keymatrix.KeyMap
	pool   *VoicePool
	logger *slog.Logger

	minOctave, maxOctave int
	octave               int

	// active marks cells for which a press was acted on.
	active keymatrix.Matrix
	// sounded holds the octave each bound note was started in.
	sounded [keymatrix.Rows][keymatrix.Cols]int
}

// New returns a State with every voice free and no key active.
func New(tones ToneBackend, opts Options, logger *slog.Logger) (*State, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.MinOctave < pitch.MinOctave || opts.MaxOctave > pitch.MaxOctave || opts.MinOctave > opts.MaxOctave {
		return nil, fmt.Errorf("octave bounds [%d,%d] outside [%d,%d]",
			opts.MinOctave, opts.MaxOctave, pitch.MinOctave, pitch.MaxOctave)
	}
	if opts.InitialOctave < opts.MinOctave || opts.InitialOctave > opts.MaxOctave {
		return nil, fmt.Errorf("initial octave %d outside [%d,%d]",
			opts.InitialOctave, opts.MinOctave, opts.MaxOctave)
	}
	return &State{
		tones:     tones,
		keys:      opts.KeyMap,
		pool:      NewVoicePool(opts.VoicePins),
		logger:    logger,
		minOctave: opts.MinOctave,
		maxOctave: opts.MaxOctave,
		octave:    opts.InitialOctave,
	}, nil
}

// Init creates a tone generator on every voice pin.
func (s *State) Init() error {
	for _, pin := range s.pool.Pins() {
		if err := s.tones.CreateTone(pin); err != nil {
			return fmt.Errorf("create tone on pin %d: %w", pin, err)
		}
	}
	return nil
}

// Octave returns the current octave.
func (s *State) Octave() int { return s.octave }

// Active returns the cells currently marked active.
func (s *State) Active() keymatrix.Matrix { return s.active }

// FreeVoices returns the number of unbound voices.
func (s *State) FreeVoices() int { return s.pool.Free() }

// Voices returns a copy of the voice pool.
func (s *State) Voices() [Capacity]Voice { return s.pool.Voices() }

// Update diffs snap against the retained matrix in row-major order and
// returns the events produced. Feeding the same snapshot twice produces no
// events the second time.
func (s *State) Update(snap keymatrix.Matrix) []Event {
	var events []Event
	keymatrix.EachCell(func(c keymatrix.Cell) {
		down := snap.At(c)
		wasActive := s.active.At(c)
		switch {
		case down && !wasActive:
			if ev, ok := s.press(c); ok {
				s.active.Set(c, true)
				events = append(events, ev)
			}
		case !down && wasActive:
			if ev, ok := s.release(c); ok {
				events = append(events, ev)
			}
			s.active.Set(c, false)
		}
	})
	return events
}

func (s *State) press(c keymatrix.Cell) (Event, bool) {
	key := s.keys.Key(c)
	switch {
	case key == keymatrix.KeyOctaveUp:
		if s.octave >= s.maxOctave {
			return Event{}, false
		}
		s.octave++
		return Event{Kind: OctaveChange, Cell: c, Key: key, Octave: s.octave}, true
	case key == keymatrix.KeyOctaveDown:
		if s.octave <= s.minOctave {
			return Event{}, false
		}
		s.octave--
		return Event{Kind: OctaveChange, Cell: c, Key: key, Octave: s.octave}, true
	case pitch.IsChromatic(key):
		return s.noteOn(c, key)
	}
	return Event{}, false
}

func (s *State) noteOn(c keymatrix.Cell, key int) (Event, bool) {
	hz, ok := pitch.Frequency(key, s.octave)
	if !ok {
		return Event{}, false
	}
	pin, ok := s.pool.Acquire(c)
	if !ok {
		s.logger.Debug("no free voice, press dropped", "cell", c, "key", key)
		return Event{}, false
	}
	if err := s.tones.SetTone(pin, hz); err != nil {
		s.logger.Warn("set tone failed, press dropped", "pin", pin, "hz", hz, "err", err)
		s.pool.Release(c)
		return Event{}, false
	}
	s.sounded[c.Row][c.Col] = s.octave
	return Event{Kind: NoteOn, Cell: c, Key: key, Pin: pin, Frequency: hz, Octave: s.octave}, true
}

func (s *State) release(c keymatrix.Cell) (Event, bool) {
	key := s.keys.Key(c)
	if !pitch.IsChromatic(key) {
		return Event{}, false
	}
	pin, ok := s.pool.Release(c)
	if !ok {
		return Event{}, false
	}
	if err := s.tones.SetTone(pin, 0); err != nil {
		s.logger.Warn("silence failed", "pin", pin, "err", err)
	}
	return Event{Kind: NoteOff, Cell: c, Key: key, Pin: pin, Octave: s.sounded[c.Row][c.Col]}, true
}

// SilenceAll releases every bound voice and clears all active marks, as if
// every key had been released.
func (s *State) SilenceAll() []Event {
	return s.Update(keymatrix.Matrix{})
}
