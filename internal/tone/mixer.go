package tone

import (
	"fmt"
	"math"
	"sync"
)

// DefaultSampleRate suits every common sound card.
const DefaultSampleRate = 44100

// SquareMixer renders every voice as a square wave into mono 16-bit
// little-endian PCM. It is the io.Reader behind the audio player.
type SquareMixer struct {
	mu         sync.Mutex
	sampleRate float64
	amplitude  float64
	voices     map[int]*squareVoice
	order      []int
}

type squareVoice struct {
	hz    float64
	phase float64
}

// NewSquareMixer returns a mixer where each voice peaks at amplitude
// (0..1 of full scale).
func NewSquareMixer(sampleRate int, amplitude float64) *SquareMixer {
	return &SquareMixer{
		sampleRate: float64(sampleRate),
		amplitude:  amplitude,
		voices:     make(map[int]*squareVoice),
	}
}

func (m *SquareMixer) CreateTone(pin int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.voices[pin]; ok {
		return fmt.Errorf("tone already created on pin %d", pin)
	}
	m.voices[pin] = &squareVoice{}
	m.order = append(m.order, pin)
	return nil
}

func (m *SquareMixer) SetTone(pin, hz int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.voices[pin]
	if !ok {
		return fmt.Errorf("no tone on pin %d", pin)
	}
	if hz <= 0 {
		v.hz, v.phase = 0, 0
		return nil
	}
	v.hz = float64(hz)
	return nil
}

// Read fills p with whole samples.
func (m *SquareMixer) Read(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(p) &^ 1
	for i := 0; i < n; i += 2 {
		var sum float64
		for _, pin := range m.order {
			v := m.voices[pin]
			if v.hz == 0 {
				continue
			}
			if v.phase < 0.5 {
				sum += m.amplitude
			} else {
				sum -= m.amplitude
			}
			v.phase += v.hz / m.sampleRate
			if v.phase >= 1 {
				v.phase -= math.Floor(v.phase)
			}
		}
		sum = math.Max(-1, math.Min(1, sum))
		s := int16(sum * math.MaxInt16)
		p[i] = byte(s)
		p[i+1] = byte(uint16(s) >> 8)
	}
	return n, nil
}
