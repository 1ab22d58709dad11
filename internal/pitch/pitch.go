// Package pitch maps logical piano keys to equal-temperament frequencies.
package pitch

import (
	"fmt"
	"math"
)

const (
	// ReferenceHz is the pitch of the reference key at the reference octave (A4).
	ReferenceHz = 440.0
	// ReferenceKey is the logical key index that sounds A.
	ReferenceKey = 11
	// ReferenceOctave is the octave ReferenceKey is tuned to ReferenceHz in.
	ReferenceOctave = 4

	// MinOctave and MaxOctave bound what the tone hardware can reproduce.
	// Above octave 7 the buzzers would be driven past ~5 kHz.
	MinOctave = 1
	MaxOctave = 7

	// FirstKey is the lowest chromatic key index; it sounds C.
	FirstKey = 2
	// LastKey is the highest chromatic key index; it sounds the C above FirstKey.
	LastKey = 14

	semitones = 12
	middleC   = 60 // MIDI note for key FirstKey at ReferenceOctave
)

var noteNames = [semitones]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// Frequency returns the integer frequency of key at octave, rounded half up.
// ok is false (and the frequency 0) when octave is outside [MinOctave, MaxOctave].
func Frequency(key, octave int) (hz int, ok bool) {
	if octave < MinOctave || octave > MaxOctave {
		return 0, false
	}
	semitoneOffset := float64(key - ReferenceKey)
	octaveOffset := float64(octave - ReferenceOctave)
	f := ReferenceHz * math.Pow(2, semitoneOffset/semitones) * math.Pow(2, octaveOffset)
	// +0.5 then truncate: half-up, not banker's rounding.
	return int(f + 0.5), true
}

// IsChromatic reports whether key is a playable note.
func IsChromatic(key int) bool {
	return key >= FirstKey && key <= LastKey
}

// MIDINote returns the MIDI note number for key at octave.
func MIDINote(key, octave int) int {
	return middleC + (key - FirstKey) + (octave-ReferenceOctave)*semitones
}

// Name returns a note name such as "A4" for a MIDI note number.
func Name(note int) string {
	if note < 0 {
		return fmt.Sprintf("?\"%d\"", note)
	}
	return fmt.Sprintf("%s%d", noteNames[note%semitones], (note/semitones)-1)
}
