// Package config loads the instrument's line-oriented settings file.
//
// The file is a flat list of "key: value" lines with "#" comments. Each value
// is decoded on its own as a YAML scalar (or flow list), so a bad line only
// costs its own key. Bad values never fail the load: they fall back to
// defaults and leave a warning in Config.Warnings.
package config

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Tone backend names.
const (
	ToneGPIO   = "gpio"
	ToneSerial = "serial"
)

// Defaults.
const (
	DefaultPath          = "/home/pi/pi_ano.cfg"
	DefaultLogFile       = "/home/pi/pi_ano.log"
	DefaultOctave        = 4
	DefaultWatchdogSecs  = 10
	DefaultSerialDevice  = "/dev/ttyACM0"
	DefaultSerialBaud    = 115200
	MinOctave, MaxOctave = 1, 4
	MinWatchdogSecs      = 1
	MaxWatchdogSecs      = 15
)

// Config is the effective configuration.
type Config struct {
	InitialOctave   int
	WatchdogTimeout time.Duration
	LogFile         string

	ToneBackend  string
	SerialDevice string
	SerialBaud   int

	MIDIOut       bool
	MIDIPreferred []string
	MIDIChannel   uint8

	// Warnings lists every value that was replaced by its default.
	Warnings []string
	// Generated is set when the file was missing and a default one was written.
	Generated bool
}

// Keys of the settings file.
const (
	keyInitialOctave   = "initialOctave"
	keyWatchDogTimer   = "watchDogTimer"
	keyLogFileLocation = "logFileLocation"
	keyToneBackend     = "toneBackend"
	keySerialDevice    = "serialDevice"
	keySerialBaud      = "serialBaud"
	keyMIDIOut         = "midiOut"
	keyMIDIPreferred   = "midiPreferred"
	keyMIDIChannel     = "midiChannel"
)

var knownKeys = map[string]bool{
	keyInitialOctave: true, keyWatchDogTimer: true, keyLogFileLocation: true,
	keyToneBackend: true, keySerialDevice: true, keySerialBaud: true,
	keyMIDIOut: true, keyMIDIPreferred: true, keyMIDIChannel: true,
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		InitialOctave:   DefaultOctave,
		WatchdogTimeout: DefaultWatchdogSecs * time.Second,
		LogFile:         DefaultLogFile,
		ToneBackend:     ToneGPIO,
		SerialDevice:    DefaultSerialDevice,
		SerialBaud:      DefaultSerialBaud,
		MIDIPreferred:   []string{"Launchkey", "Novation"},
	}
}

const defaultFile = `#This configuration file is to store the program's octave (1-4), the timeout of the watchdog timer (1-15 seconds), and the log file location.
#Note: The log file's location will ignore colons and spaces.
initialOctave: 4
watchDogTimer: 10
logFileLocation: /home/pi/pi_ano.log
#Tone output: gpio (buzzers on the Pi) or serial (tone microcontroller).
toneBackend: gpio
serialDevice: /dev/ttyACM0
serialBaud: 115200
#Mirror played notes to a MIDI output port.
midiOut: false
midiChannel: 0
`

// Load reads path. A missing file is replaced by a freshly generated default
// file. Only I/O failures other than "not found" are returned as errors.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		cfg := Default()
		if err := Generate(path); err != nil {
			cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("could not write default configuration file: %v", err))
		} else {
			cfg.Generated = true
		}
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(data), nil
}

// Generate writes the default configuration file to path.
func Generate(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(defaultFile), 0644)
}

// Parse builds a Config from file contents. A key given twice keeps its last
// value.
func Parse(data []byte) *Config {
	cfg := Default()
	raw := cfg.readLines(data)

	if n, ok := intInRange(cfg.scalar(raw, keyInitialOctave), MinOctave, MaxOctave); ok {
		cfg.InitialOctave = n
	} else {
		cfg.warn("Initial octave in the configuration file was invalid. Using default (%d) instead!", DefaultOctave)
	}

	if n, ok := intInRange(cfg.scalar(raw, keyWatchDogTimer), MinWatchdogSecs, MaxWatchdogSecs); ok {
		cfg.WatchdogTimeout = time.Duration(n) * time.Second
	} else {
		cfg.warn("Watchdog Timer value in the configuration file was invalid. Using default (%d) instead!", DefaultWatchdogSecs)
	}

	if loc := cleanPath(cfg.scalar(raw, keyLogFileLocation)); loc != "" {
		cfg.LogFile = loc
	}

	backend := cfg.scalar(raw, keyToneBackend)
	switch b := strings.ToLower(strings.TrimSpace(backend)); b {
	case "":
	case ToneGPIO, ToneSerial:
		cfg.ToneBackend = b
	default:
		cfg.warn("Tone backend %q is unknown. Using default (%s) instead!", backend, ToneGPIO)
	}

	if dev := strings.TrimSpace(cfg.scalar(raw, keySerialDevice)); dev != "" {
		cfg.SerialDevice = dev
	}
	if baud := cfg.scalar(raw, keySerialBaud); baud != "" {
		if n, ok := intInRange(baud, 1, 4000000); ok {
			cfg.SerialBaud = n
		} else {
			cfg.warn("Serial baud rate %q is invalid. Using default (%d) instead!", baud, DefaultSerialBaud)
		}
	}

	if v := cfg.scalar(raw, keyMIDIOut); v != "" {
		on, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			cfg.warn("midiOut %q is not a boolean. MIDI output stays disabled!", v)
		}
		cfg.MIDIOut = on
	}
	if v, ok := raw[keyMIDIPreferred]; ok && v != "" {
		var names []string
		if err := yaml.Unmarshal([]byte(v), &names); err != nil {
			cfg.warn("midiPreferred %q is not a list. Using default instead!", v)
		} else if len(names) > 0 {
			cfg.MIDIPreferred = names
		}
	}
	if ch := cfg.scalar(raw, keyMIDIChannel); ch != "" {
		if n, ok := intInRange(ch, 0, 15); ok {
			cfg.MIDIChannel = uint8(n)
		} else {
			cfg.warn("MIDI channel %q is invalid. Using default (0) instead!", ch)
		}
	}
	return cfg
}

// readLines splits data into raw values by key. Blank lines and "#" comments
// are skipped; a line without a colon or with an unknown key is reported and
// ignored.
func (c *Config) readLines(data []byte) map[string]string {
	raw := make(map[string]string)
	sc := bufio.NewScanner(bytes.NewReader(data))
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			c.warn("Line %d of the configuration file was not understood and was ignored.", n)
			continue
		}
		key = strings.TrimSpace(key)
		if !knownKeys[key] {
			c.warn("Unknown key %q on line %d of the configuration file was ignored.", key, n)
			continue
		}
		raw[key] = strings.TrimSpace(value)
	}
	return raw
}

// scalar decodes the value of key as a YAML scalar so quoting and trailing
// comments behave as expected. A value that is not a scalar decodes to its
// raw text, which then fails validation for that key alone.
func (c *Config) scalar(raw map[string]string, key string) string {
	v, ok := raw[key]
	if !ok || v == "" {
		return ""
	}
	var s string
	if err := yaml.Unmarshal([]byte(v), &s); err != nil {
		return v
	}
	return s
}

func (c *Config) warn(format string, args ...any) {
	c.Warnings = append(c.Warnings, fmt.Sprintf(format, args...))
}

func intInRange(s string, lo, hi int) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < lo || n > hi {
		return 0, false
	}
	return n, true
}

// cleanPath drops colons and spaces, which the file format does not allow in
// the log location.
func cleanPath(s string) string {
	return strings.Map(func(r rune) rune {
		if r == ':' || r == ' ' || r == '\t' {
			return -1
		}
		return r
	}, s)
}
