package instrument

import (
	"fmt"

	"github.com/chase3718/pi-ano/internal/keymatrix"
	"github.com/chase3718/pi-ano/internal/pitch"
)

// EventKind classifies an Event.
type EventKind int

const (
	NoteOn EventKind = iota
	NoteOff
	OctaveChange
)

func (k EventKind) String() string {
	switch k {
	case NoteOn:
		return "NOTE_ON"
	case NoteOff:
		return "NOTE_OFF"
	case OctaveChange:
		return "OCTAVE"
	}
	return "UNKNOWN"
}

// Event is one musical consequence of a matrix edge.
type Event struct {
	Kind      EventKind
	Cell      keymatrix.Cell
	Key       int
	Pin       int // voice pin; NoteOn/NoteOff only
	Frequency int // Hz; NoteOn only
	Octave    int // octave the note sounded in, or the new octave
}

// Note returns the MIDI note number of a NoteOn/NoteOff event.
func (e Event) Note() int {
	return pitch.MIDINote(e.Key, e.Octave)
}

// Message is the human readable log line for e.
func (e Event) Message() string {
	switch e.Kind {
	case NoteOn:
		return fmt.Sprintf("Played frequency %d to buzzer pin %d", e.Frequency, e.Pin)
	case NoteOff:
		return fmt.Sprintf("Stopped playing on buzzer pin %d", e.Pin)
	case OctaveChange:
		return fmt.Sprintf("Octave changed to %d", e.Octave)
	}
	return e.Kind.String()
}

// EventSink receives events after each update.
type EventSink interface {
	HandleEvent(e Event)
}
