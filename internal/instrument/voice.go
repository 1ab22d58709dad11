package instrument

import "github.com/chase3718/pi-ano/internal/keymatrix"

// Capacity is the number of physical tone outputs.
const Capacity = 4

// DefaultVoicePins are the buzzer pins (BCM) in allocation order.
var DefaultVoicePins = [Capacity]int{14, 15, 18, 23}

// Voice is one monophonic tone output.
type Voice struct {
	Pin   int
	InUse bool
	Cell  keymatrix.Cell // valid only while InUse
}

// VoicePool hands out voices first-free in fixed pin order.
type VoicePool struct {
	voices [Capacity]Voice
}

// NewVoicePool creates a pool over pins, all free.
func NewVoicePool(pins [Capacity]int) *VoicePool {
	p := &VoicePool{}
	for i, pin := range pins {
		p.voices[i] = Voice{Pin: pin}
	}
	return p
}

// Acquire binds the first free voice to cell. ok is false when all voices are
// in use.
func (p *VoicePool) Acquire(cell keymatrix.Cell) (pin int, ok bool) {
	for i := range p.voices {
		if !p.voices[i].InUse {
			p.voices[i].InUse = true
			p.voices[i].Cell = cell
			return p.voices[i].Pin, true
		}
	}
	return 0, false
}

// Release frees the voice bound to cell and returns its pin.
func (p *VoicePool) Release(cell keymatrix.Cell) (pin int, ok bool) {
	for i := range p.voices {
		if p.voices[i].InUse && p.voices[i].Cell == cell {
			p.voices[i].InUse = false
			p.voices[i].Cell = keymatrix.Cell{}
			return p.voices[i].Pin, true
		}
	}
	return 0, false
}

// Free returns the number of unbound voices.
func (p *VoicePool) Free() int {
	n := 0
	for _, v := range p.voices {
		if !v.InUse {
			n++
		}
	}
	return n
}

// Voices returns a copy of the pool in allocation order.
func (p *VoicePool) Voices() [Capacity]Voice {
	return p.voices
}

// Pins returns every voice pin in allocation order.
func (p *VoicePool) Pins() []int {
	pins := make([]int, 0, Capacity)
	for _, v := range p.voices {
		pins = append(pins, v.Pin)
	}
	return pins
}
