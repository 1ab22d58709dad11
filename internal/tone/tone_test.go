package tone

import (
	"bytes"
	"encoding/binary"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/chase3718/pi-ano/internal/keymatrix"
)

func TestFrameEncode(t *testing.T) {
	f := Frame{Cmd: CmdSetTone, Pin: 14, Hz: 262}
	got := f.Encode()
	length := byte(4)
	cks := length ^ CmdSetTone ^ 14 ^ 0x01 ^ 0x06
	want := []byte{SOF0, SOF1, length, CmdSetTone, 14, 0x01, 0x06, cks}
	if !bytes.Equal(got, want) {
		t.Fatalf("frame mismatch: got=% x want=% x", got, want)
	}
}

type nopCloser struct{ bytes.Buffer }

func (nopCloser) Close() error { return nil }

func TestSerialSendsFrames(t *testing.T) {
	var port nopCloser
	s := NewSerial(&port, nil)
	if err := s.CreateTone(18); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.SetTone(18, 440); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.SetTone(18, 0); err != nil {
		t.Fatalf("silence: %v", err)
	}
	data := port.Bytes()
	if len(data) != 3*8 {
		t.Fatalf("expected three 8-byte frames, got %d bytes", len(data))
	}
	if data[3] != CmdCreateTone || data[8+3] != CmdSetTone {
		t.Fatalf("unexpected commands: % x", data)
	}
	if hz := binary.BigEndian.Uint16(data[8+5 : 8+7]); hz != 440 {
		t.Fatalf("expected 440 Hz in second frame, got %d", hz)
	}
	if hz := binary.BigEndian.Uint16(data[16+5 : 16+7]); hz != 0 {
		t.Fatalf("expected silence in third frame, got %d", hz)
	}
	if err := s.SetTone(18, 70000); err == nil {
		t.Fatalf("expected out of range error")
	}
}

func TestSquareMixerWaveform(t *testing.T) {
	m := NewSquareMixer(800, 0.5)
	if err := m.CreateTone(14); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := m.SetTone(14, 100); err != nil {
		t.Fatalf("set: %v", err)
	}
	buf := make([]byte, 2*16)
	n, err := m.Read(buf)
	if err != nil || n != len(buf) {
		t.Fatalf("read: n=%d err=%v", n, err)
	}
	for i := 0; i < 16; i++ {
		s := int16(binary.LittleEndian.Uint16(buf[2*i:]))
		wantPositive := i%8 < 4
		if (s > 0) != wantPositive || s == 0 {
			t.Fatalf("sample %d: got %d, want positive=%v", i, s, wantPositive)
		}
	}

	_ = m.SetTone(14, 0)
	n, _ = m.Read(buf[:5])
	if n != 4 {
		t.Fatalf("expected whole samples only, got %d", n)
	}
	if buf[0] != 0 || buf[1] != 0 {
		t.Fatalf("expected silence after SetTone 0")
	}
}

func TestSquareMixerUnknownPin(t *testing.T) {
	m := NewSquareMixer(DefaultSampleRate, 0.2)
	if err := m.SetTone(3, 440); err == nil {
		t.Fatalf("expected error for pin without tone")
	}
	_ = m.CreateTone(3)
	if err := m.CreateTone(3); err == nil {
		t.Fatalf("expected error creating a tone twice")
	}
}

type recordingPins struct {
	mu      sync.Mutex
	modes   map[int]keymatrix.Mode
	toggles map[int]int
	level   map[int]bool
	fail    bool
}

func newRecordingPins() *recordingPins {
	return &recordingPins{modes: map[int]keymatrix.Mode{}, toggles: map[int]int{}, level: map[int]bool{}}
}

func (r *recordingPins) SetMode(pin int, mode keymatrix.Mode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errors.New("no such pin")
	}
	r.modes[pin] = mode
	return nil
}

func (r *recordingPins) Write(pin int, high bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if high {
		r.toggles[pin]++
	}
	r.level[pin] = high
	return nil
}

func (r *recordingPins) snapshot(pin int) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.toggles[pin], r.level[pin]
}

func TestSoftToneToggles(t *testing.T) {
	pins := newRecordingPins()
	s := NewSoft(pins)
	if err := s.CreateTone(15); err != nil {
		t.Fatalf("create: %v", err)
	}
	if pins.modes[15] != keymatrix.Output {
		t.Fatalf("expected pin 15 to be an output")
	}
	if err := s.CreateTone(15); err == nil {
		t.Fatalf("expected error creating a tone twice")
	}
	if err := s.SetTone(23, 440); err == nil {
		t.Fatalf("expected error for pin without tone")
	}

	if err := s.SetTone(15, 1000); err != nil {
		t.Fatalf("set: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for {
		if n, _ := pins.snapshot(15); n >= 3 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected the pin to toggle")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, high := pins.snapshot(15); high {
		t.Fatalf("expected pin low after close")
	}
}

func TestSoftToneCreateFailure(t *testing.T) {
	pins := newRecordingPins()
	pins.fail = true
	if err := NewSoft(pins).CreateTone(14); err == nil {
		t.Fatalf("expected mode error to surface")
	}
}
