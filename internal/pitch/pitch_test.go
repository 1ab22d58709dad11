package pitch

import "testing"

func TestFrequencyReference(t *testing.T) {
	got, ok := Frequency(ReferenceKey, ReferenceOctave)
	if !ok || got != 440 {
		t.Fatalf("expected 440 Hz at reference: got=%d ok=%v", got, ok)
	}
}

func TestFrequencyOctaveDoubling(t *testing.T) {
	base, _ := Frequency(ReferenceKey, ReferenceOctave)
	up, _ := Frequency(ReferenceKey+12, ReferenceOctave)
	if diff := up - 880; diff < -1 || diff > 1 {
		t.Fatalf("expected key+12 to be 880 Hz (+-1): got=%d", up)
	}
	next, _ := Frequency(ReferenceKey, ReferenceOctave+1)
	if diff := next - 2*base; diff < -1 || diff > 1 {
		t.Fatalf("expected octave+1 to double: got=%d base=%d", next, base)
	}
}

func TestFrequencyTable(t *testing.T) {
	tests := []struct {
		name        string
		key, octave int
		want        int
	}{
		{"C4", 2, 4, 262},
		{"C#4", 3, 4, 277},
		{"G4", 9, 4, 392},
		{"C5", 14, 4, 523},
		{"C1", 2, 1, 33},
		{"A1", 11, 1, 55},
		{"A7", 11, 7, 3520},
		{"C3", 2, 3, 131},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Frequency(tt.key, tt.octave)
			if !ok {
				t.Fatalf("expected octave %d to be accepted", tt.octave)
			}
			if got != tt.want {
				t.Fatalf("frequency mismatch: got=%d want=%d", got, tt.want)
			}
		})
	}
}

func TestFrequencyRejectsOctaveOutOfRange(t *testing.T) {
	for _, octave := range []int{-1, 0, 8, 12} {
		if hz, ok := Frequency(ReferenceKey, octave); ok || hz != 0 {
			t.Fatalf("expected octave %d to be rejected: got=%d ok=%v", octave, hz, ok)
		}
	}
}

func TestMIDINoteAndName(t *testing.T) {
	if n := MIDINote(FirstKey, 4); n != 60 || Name(n) != "C4" {
		t.Fatalf("expected key 2 octave 4 to be C4/60: got=%d %s", n, Name(n))
	}
	if n := MIDINote(ReferenceKey, ReferenceOctave); n != 69 || Name(n) != "A4" {
		t.Fatalf("expected reference to be A4/69: got=%d %s", n, Name(n))
	}
	if n := MIDINote(LastKey, 2); Name(n) != "C3" {
		t.Fatalf("expected key 14 octave 2 to be C3: got=%s", Name(n))
	}
}

func TestIsChromatic(t *testing.T) {
	for key := 0; key < 16; key++ {
		want := key >= 2 && key <= 14
		if IsChromatic(key) != want {
			t.Fatalf("IsChromatic(%d) = %v, want %v", key, !want, want)
		}
	}
}
