//go:build linux

// Command pi-ano plays a 4x4 key matrix through piezo buzzers on a
// Raspberry Pi, feeding the hardware watchdog while it runs.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
	"golang.org/x/sys/unix"

	"github.com/chase3718/pi-ano/internal/config"
	"github.com/chase3718/pi-ano/internal/engine"
	"github.com/chase3718/pi-ano/internal/gpio"
	"github.com/chase3718/pi-ano/internal/instrument"
	"github.com/chase3718/pi-ano/internal/keymatrix"
	"github.com/chase3718/pi-ano/internal/logging"
	"github.com/chase3718/pi-ano/internal/midiout"
	"github.com/chase3718/pi-ano/internal/tone"
	"github.com/chase3718/pi-ano/internal/watchdog"
)

const programName = "pi_ano"

// -------------------- Logger --------------------

// logger is the process-wide logger. Console only until the log file is open.
var logger = slog.New(logging.Console(os.Stderr, false))

func initLogger(debug bool, file *logging.File) {
	logger = logging.New(logging.Console(os.Stderr, debug), file.Handler)
}

func fatal(msg string, args ...any) {
	logger.Error(msg, args...)
	os.Exit(1)
}

// -------------------- Tone backend --------------------

type toneBackend interface {
	instrument.ToneBackend
	Close() error
}

func openTones(cfg *config.Config, pins *gpio.RPi) (toneBackend, error) {
	if cfg.ToneBackend == config.ToneSerial {
		return tone.OpenSerial(cfg.SerialDevice, cfg.SerialBaud, logger)
	}
	return tone.NewSoft(pins), nil
}

// raisePriority mirrors running the scan at real-time-ish priority; the
// loop still works at normal priority, only with more strobe jitter.
func raisePriority() {
	if err := unix.Setpriority(unix.PRIO_PROCESS, 0, -20); err != nil {
		logger.Warn("could not raise process priority", "err", err)
	}
}

// -------------------- Main --------------------

func main() {
	configPath := flag.String("config", config.DefaultPath, "configuration file")
	watchdogPath := flag.String("watchdog", watchdog.DefaultPath, "watchdog device")
	debug := flag.Bool("debug", false, "enable debug logging (adds source location)")
	flag.Parse()

	// The handler only flips the flag; the loop notices between cycles.
	var stop atomic.Bool
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		stop.Store(true)
	}()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fatal("configuration could not be read", "path", *configPath, "err", err)
	}
	if cfg.Generated {
		logger.Info("configuration file not found, wrote defaults", "path", *configPath)
	}

	logFile, err := logging.OpenFile(cfg.LogFile, programName)
	if err != nil {
		fatal("Log file was not loaded properly. Exiting! (are you running the program with sudo?)", "err", err)
	}
	defer logFile.Close()
	initLogger(*debug, logFile)
	for _, w := range cfg.Warnings {
		logger.Warn(w)
	}

	pins, err := gpio.Open()
	if err != nil {
		fatal("GPIO could not be initialized", "err", err)
	}
	defer pins.Close()
	logger.Info("GPIO successfully initialized")

	scanner := keymatrix.NewScanner(pins)
	if err := scanner.Init(); err != nil {
		fatal("matrix pins could not be initialized", "err", err)
	}

	tones, err := openTones(cfg, pins)
	if err != nil {
		fatal("tone backend could not be opened", "backend", cfg.ToneBackend, "err", err)
	}
	defer tones.Close()

	opts := instrument.DefaultOptions()
	opts.InitialOctave = cfg.InitialOctave
	state, err := instrument.New(tones, opts, logger)
	if err != nil {
		fatal("instrument could not be created", "err", err)
	}
	if err := state.Init(); err != nil {
		fatal("tone pins could not be initialized", "err", err)
	}
	logger.Info("All GPIO pins successfully initialized")

	sinks := []instrument.EventSink{engine.LogSink{Logger: logger}}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if cfg.MIDIOut {
		drv, err := rtmididrv.New()
		if err != nil {
			logger.Warn("MIDI output disabled", "err", err)
		} else {
			mirror := midiout.New(drv, cfg.MIDIPreferred, cfg.MIDIChannel, logger)
			defer mirror.Close()
			go mirror.Run(ctx)
			sinks = append(sinks, mirror)
		}
	}

	dog, err := watchdog.Open(*watchdogPath)
	if err != nil {
		fatal("Couldn't open watchdog device!", "err", err)
	}
	logger.Info("Watchdog file was successfully opened")

	eng := engine.New(scanner, state, dog, logger, sinks...)
	if err := eng.Arm(cfg.WatchdogTimeout); err != nil {
		dog.Disarm()
		dog.Close()
		fatal("watchdog could not be armed", "err", err)
	}

	logger.Info("Pi_ano successfully launched", "octave", cfg.InitialOctave, "watchdog", cfg.WatchdogTimeout, "tones", cfg.ToneBackend)
	raisePriority()
	logger.Info("Pi_ano is running... Press Ctrl + C to exit.")

	eng.Run(&stop)

	if err := eng.Shutdown(); err != nil {
		logger.Error("watchdog shutdown failed", "err", err)
	}
	logger.Info("Pi_ano successfully shutdown")
}
