package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParseValidFile(t *testing.T) {
	cfg := Parse([]byte(`# comment line
initialOctave: 2
watchDogTimer: 15
logFileLocation: /var/log/pi_ano.log
toneBackend: serial
serialDevice: /dev/ttyUSB0
serialBaud: 57600
midiOut: true
midiPreferred: [Digitone]
midiChannel: 9
`))
	if len(cfg.Warnings) != 0 {
		t.Fatalf("expected no warnings, got %v", cfg.Warnings)
	}
	if cfg.InitialOctave != 2 || cfg.WatchdogTimeout != 15*time.Second {
		t.Fatalf("unexpected octave/timeout: %d %v", cfg.InitialOctave, cfg.WatchdogTimeout)
	}
	if cfg.LogFile != "/var/log/pi_ano.log" {
		t.Fatalf("log file: got=%q", cfg.LogFile)
	}
	if cfg.ToneBackend != ToneSerial || cfg.SerialDevice != "/dev/ttyUSB0" || cfg.SerialBaud != 57600 {
		t.Fatalf("serial settings: %+v", cfg)
	}
	if !cfg.MIDIOut || cfg.MIDIChannel != 9 || len(cfg.MIDIPreferred) != 1 || cfg.MIDIPreferred[0] != "Digitone" {
		t.Fatalf("midi settings: %+v", cfg)
	}
}

func TestParseOutOfRangeFallsBack(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		octave  int
		timeout time.Duration
		warns   int
	}{
		{"octave too high", "initialOctave: 7\nwatchDogTimer: 5\n", DefaultOctave, 5 * time.Second, 1},
		{"octave zero", "initialOctave: 0\nwatchDogTimer: 5\n", DefaultOctave, 5 * time.Second, 1},
		{"timer too long", "initialOctave: 3\nwatchDogTimer: 16\n", 3, DefaultWatchdogSecs * time.Second, 1},
		{"not numbers", "initialOctave: high\nwatchDogTimer: soon\n", DefaultOctave, DefaultWatchdogSecs * time.Second, 2},
		{"missing keys", "# only a comment\n", DefaultOctave, DefaultWatchdogSecs * time.Second, 2},
		{"stray line keeps valid keys", "initialOctave: 2\nwatchDogTimer: 5\nlogFileLocation: /tmp/x.log\nthis line is junk\n", 2, 5 * time.Second, 1},
		{"unknown key keeps valid keys", "initialOctave: 2\nwatchDogTimr: 5\nwatchDogTimer: 6\n", 2, 6 * time.Second, 1},
		{"duplicate key keeps last value", "initialOctave: 2\nwatchDogTimer: 5\nwatchDogTimer: 7\n", 2, 7 * time.Second, 0},
		{"trailing comment", "initialOctave: 3 # low\nwatchDogTimer: 5\n", 3, 5 * time.Second, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Parse([]byte(tt.data))
			if cfg.InitialOctave != tt.octave || cfg.WatchdogTimeout != tt.timeout {
				t.Fatalf("got octave=%d timeout=%v want %d %v", cfg.InitialOctave, cfg.WatchdogTimeout, tt.octave, tt.timeout)
			}
			if len(cfg.Warnings) != tt.warns {
				t.Fatalf("expected %d warnings, got %v", tt.warns, cfg.Warnings)
			}
		})
	}
}

func TestParseMalformedValuesOnlyResetTheirKey(t *testing.T) {
	cfg := Parse([]byte("initialOctave: [1, 2\nwatchDogTimer: {\nlogFileLocation: /tmp/keep.log\n"))
	if cfg.InitialOctave != DefaultOctave || cfg.WatchdogTimeout != DefaultWatchdogSecs*time.Second {
		t.Fatalf("expected default octave and timeout, got %+v", cfg)
	}
	if cfg.LogFile != "/tmp/keep.log" {
		t.Fatalf("log file: got=%q want=%q", cfg.LogFile, "/tmp/keep.log")
	}
	if len(cfg.Warnings) != 2 || !strings.Contains(cfg.Warnings[0], "Initial octave") {
		t.Fatalf("expected one warning per bad key, got %v", cfg.Warnings)
	}
}

func TestParseStrayLineKeepsLogLocation(t *testing.T) {
	cfg := Parse([]byte("initialOctave: 2\nwatchDogTimer: 5\nlogFileLocation: /tmp/x.log\nthis line is junk\n"))
	if cfg.LogFile != "/tmp/x.log" {
		t.Fatalf("log file: got=%q want=%q", cfg.LogFile, "/tmp/x.log")
	}
	if len(cfg.Warnings) != 1 || !strings.Contains(cfg.Warnings[0], "Line 4") {
		t.Fatalf("expected a warning naming line 4, got %v", cfg.Warnings)
	}
}

func TestParseMIDIPreferredList(t *testing.T) {
	cfg := Parse([]byte("initialOctave: 4\nwatchDogTimer: 10\nmidiPreferred: [Digitone, \"Key Step\"]\n"))
	if len(cfg.MIDIPreferred) != 2 || cfg.MIDIPreferred[1] != "Key Step" {
		t.Fatalf("midiPreferred: got=%v", cfg.MIDIPreferred)
	}
	bad := Parse([]byte("initialOctave: 4\nwatchDogTimer: 10\nmidiPreferred: [Digitone\n"))
	if len(bad.MIDIPreferred) != 2 || bad.MIDIPreferred[0] != "Launchkey" || len(bad.Warnings) != 1 {
		t.Fatalf("expected default list with one warning, got %v %v", bad.MIDIPreferred, bad.Warnings)
	}
}

func TestParseStripsSpacesFromLogLocation(t *testing.T) {
	cfg := Parse([]byte("initialOctave: 4\nwatchDogTimer: 10\nlogFileLocation: \"/home/pi/my log.txt\"\n"))
	if cfg.LogFile != "/home/pi/mylog.txt" {
		t.Fatalf("log file: got=%q", cfg.LogFile)
	}
}

func TestParseUnknownToneBackend(t *testing.T) {
	cfg := Parse([]byte("initialOctave: 4\nwatchDogTimer: 10\ntoneBackend: theremin\n"))
	if cfg.ToneBackend != ToneGPIO || len(cfg.Warnings) != 1 {
		t.Fatalf("expected gpio fallback with one warning, got %q %v", cfg.ToneBackend, cfg.Warnings)
	}
}

func TestLoadMissingGeneratesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pi", "pi_ano.cfg")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.Generated || len(cfg.Warnings) != 0 {
		t.Fatalf("expected generated default config, got %+v", cfg)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected file to be written: %v", err)
	}

	again, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if again.Generated || len(again.Warnings) != 0 {
		t.Fatalf("expected generated file to load cleanly, got %+v", again)
	}
	if again.InitialOctave != DefaultOctave || again.WatchdogTimeout != DefaultWatchdogSecs*time.Second || again.LogFile != DefaultLogFile {
		t.Fatalf("expected default values from generated file, got %+v", again)
	}
}
