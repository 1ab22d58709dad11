// Package midiout mirrors played notes to a MIDI output port.
package midiout

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"github.com/chase3718/pi-ano/internal/instrument"
)

// ExcludedPatterns are virtual/system ports that are never auto-connected.
var ExcludedPatterns = []string{"Midi Through", "Through Port", "Dummy"}

const (
	rescanInterval = 1000 * time.Millisecond
	noteVelocity   = 100
)

// Driver lists output ports. *rtmididrv.Driver satisfies it.
type Driver interface {
	Outs() ([]drivers.Out, error)
	Close() error
}

// Mirror keeps a connection to the preferred MIDI output and forwards every
// NoteOn/NoteOff to it. Ports can come and go while the instrument runs.
type Mirror struct {
	mu           sync.Mutex
	drv          Driver
	out          drivers.Out
	send         func(midi.Message) error
	connected    bool
	selectedName string
	lastRescanAt time.Time
	closed       bool

	preferred []string
	channel   uint8
	sounding  map[uint8]int // note -> count of cells holding it
	logger    *slog.Logger
}

// New builds a mirror over drv. Close closes drv.
func New(drv Driver, preferred []string, channel uint8, logger *slog.Logger) *Mirror {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mirror{
		drv:       drv,
		preferred: preferred,
		channel:   channel,
		sounding:  make(map[uint8]int),
		logger:    logger,
	}
}

// Run rescans ports until ctx is done.
func (m *Mirror) Run(ctx context.Context) {
	ticker := time.NewTicker(rescanInterval / 4)
	defer ticker.Stop()
	m.Tick()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Tick()
		}
	}
}

// Tick connects to a preferred port if none is connected and detects
// disappearance of the current one. Rescans are rate limited. Ports are
// listed and opened without holding the lock, so HandleEvent never waits on
// the driver.
func (m *Mirror) Tick() {
	m.mu.Lock()
	now := time.Now()
	if m.closed || (!m.lastRescanAt.IsZero() && now.Sub(m.lastRescanAt) < rescanInterval) {
		m.mu.Unlock()
		return
	}
	m.lastRescanAt = now
	connected, selected := m.connected, m.selectedName
	m.mu.Unlock()

	outs := m.listOutputs()

	if connected {
		for _, o := range outs {
			if o.String() == selected {
				return
			}
		}
		m.mu.Lock()
		var gone drivers.Out
		if m.connected && m.selectedName == selected {
			m.logger.Warn("midi: output disappeared", "device", selected)
			gone = m.detach()
			m.lastRescanAt = time.Time{}
		}
		m.mu.Unlock()
		if gone != nil {
			_ = gone.Close()
		}
		return
	}

	if len(outs) == 0 {
		return
	}
	cand, ok := m.pickPreferred(outs)
	if !ok {
		return
	}
	send, err := midi.SendTo(cand)
	if err != nil {
		m.logger.Error("midi: connect failed", "device", cand.String(), "err", err)
		return
	}

	m.mu.Lock()
	if m.closed || m.connected {
		m.mu.Unlock()
		_ = cand.Close()
		return
	}
	m.out = cand
	m.send = send
	m.connected = true
	m.selectedName = cand.String()
	m.mu.Unlock()
	m.logger.Info("midi: output connected", "device", cand.String())
}

// HandleEvent forwards note events. Octave changes are not sent.
func (m *Mirror) HandleEvent(e instrument.Event) {
	if e.Kind != instrument.NoteOn && e.Kind != instrument.NoteOff {
		return
	}
	n := e.Note()
	if n < 0 || n > 127 {
		return
	}
	note := uint8(n)

	m.mu.Lock()
	defer m.mu.Unlock()

	var msg midi.Message
	if e.Kind == instrument.NoteOn {
		m.sounding[note]++
		msg = midi.NoteOn(m.channel, note, noteVelocity)
	} else {
		if m.sounding[note] > 1 {
			// another cell still holds the same note
			m.sounding[note]--
			return
		}
		delete(m.sounding, note)
		msg = midi.NoteOff(m.channel, note)
	}
	if !m.connected {
		return
	}
	if err := m.send(msg); err != nil {
		m.logger.Warn("midi: send failed", "device", m.selectedName, "msg", msg.String(), "err", err)
	}
}

// Connected reports whether an output port is open, and which.
func (m *Mirror) Connected() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.selectedName, m.connected
}

// Close releases sounding notes on the port and shuts the driver down.
func (m *Mirror) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.connected {
		for note := range m.sounding {
			_ = m.send(midi.NoteOff(m.channel, note))
		}
	}
	m.sounding = make(map[uint8]int)
	m.closed = true
	if out := m.detach(); out != nil {
		_ = out.Close()
	}
	return m.drv.Close()
}

// -------------------- internal --------------------

func (m *Mirror) listOutputs() []drivers.Out {
	outs, err := m.drv.Outs()
	if err != nil {
		m.logger.Error("midi: list outputs failed", "err", err)
		return nil
	}
	var usable []drivers.Out
	var names []string
	for _, o := range outs {
		name := o.String()
		if matchesAny(name, ExcludedPatterns) {
			m.logger.Debug("midi: output excluded", "device", name)
			continue
		}
		usable = append(usable, o)
		names = append(names, name)
	}
	m.logger.Debug("midi: outputs found", "count", len(usable), "devices", strings.Join(names, ", "))
	return usable
}

func (m *Mirror) pickPreferred(outs []drivers.Out) (drivers.Out, bool) {
	for _, pat := range m.preferred {
		for _, o := range outs {
			if containsCI(o.String(), pat) {
				return o, true
			}
		}
	}
	if len(outs) == 1 {
		return outs[0], true
	}
	return nil, false
}

// detach forgets the current port and returns it for closing. Caller holds mu.
func (m *Mirror) detach() drivers.Out {
	out := m.out
	m.out = nil
	m.send = nil
	m.connected = false
	m.selectedName = ""
	return out
}

func matchesAny(s string, patterns []string) bool {
	for _, pat := range patterns {
		if containsCI(s, pat) {
			return true
		}
	}
	return false
}

func containsCI(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
