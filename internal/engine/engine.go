// Package engine runs the instrument's poll loop: scan the matrix, update
// the key/voice state, fan events out, and keep the watchdog fed.
package engine

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/chase3718/pi-ano/internal/instrument"
	"github.com/chase3718/pi-ano/internal/keymatrix"
	"github.com/chase3718/pi-ano/internal/pitch"
	"github.com/chase3718/pi-ano/internal/watchdog"
)

// Scanner produces one matrix snapshot per call.
type Scanner interface {
	Scan() (keymatrix.Matrix, error)
}

// Engine owns one instrument and its loop.
type Engine struct {
	scanner   Scanner
	state     *instrument.State
	dog       watchdog.Device
	heartbeat *watchdog.Heartbeat
	sinks     []instrument.EventSink
	logger    *slog.Logger

	// Now is the clock used to measure cycle time.
	Now func() time.Time

	cycles uint64
}

// New wires an engine. The watchdog must be armed with Arm before Run.
func New(scanner Scanner, state *instrument.State, dog watchdog.Device, logger *slog.Logger, sinks ...instrument.EventSink) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		scanner: scanner,
		state:   state,
		dog:     dog,
		sinks:   sinks,
		logger:  logger,
		Now:     time.Now,
	}
}

// Arm requests timeout from the watchdog and sizes the heartbeat from the
// timeout the device actually granted.
func (e *Engine) Arm(timeout time.Duration) error {
	if err := e.dog.SetTimeout(timeout); err != nil {
		return err
	}
	e.logger.Info("Watchdog time limit successfully set", "requested", timeout)
	effective, err := e.dog.Timeout()
	if err != nil {
		return err
	}
	if effective <= 0 {
		return fmt.Errorf("watchdog reported timeout %v", effective)
	}
	if effective != timeout {
		e.logger.Warn("watchdog clamped timeout", "requested", timeout, "effective", effective)
	}
	e.heartbeat = watchdog.NewHeartbeat(effective)
	e.logger.Debug("watchdog heartbeat sized", "timeout", effective, "pulseEvery", e.heartbeat.Threshold())
	return nil
}

// PulseInterval is the accumulated loop time between keepalives. Zero before
// Arm.
func (e *Engine) PulseInterval() time.Duration {
	if e.heartbeat == nil {
		return 0
	}
	return e.heartbeat.Threshold()
}

// Step runs one scan/update/heartbeat cycle.
func (e *Engine) Step() {
	start := e.Now()

	snap, err := e.scanner.Scan()
	if err != nil {
		e.logger.Warn("scan failed", "err", err)
	} else {
		e.dispatch(e.state.Update(snap))
	}
	e.cycles++

	if e.heartbeat != nil && e.heartbeat.Advance(e.Now().Sub(start)) {
		if err := e.dog.Keepalive(); err != nil {
			e.logger.Error("watchdog keepalive failed", "err", err)
		} else {
			e.logger.Info("Watchdog updated")
		}
	}
}

// Run steps until stop is set. The flag is only checked between cycles, so
// a scan is never abandoned with a column line driven.
func (e *Engine) Run(stop *atomic.Bool) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	for !stop.Load() {
		e.Step()
	}
	e.logger.Debug("loop stopped", "cycles", e.cycles)
}

// Shutdown silences every voice and disarms the watchdog.
func (e *Engine) Shutdown() error {
	e.dispatch(e.state.SilenceAll())
	if err := e.dog.Disarm(); err != nil {
		e.dog.Close()
		return err
	}
	if err := e.dog.Close(); err != nil {
		return fmt.Errorf("close watchdog: %w", err)
	}
	e.logger.Info("Watchdog device successfully shut down")
	return nil
}

// Cycles returns the number of completed steps.
func (e *Engine) Cycles() uint64 { return e.cycles }

func (e *Engine) dispatch(events []instrument.Event) {
	for _, ev := range events {
		for _, s := range e.sinks {
			s.HandleEvent(ev)
		}
	}
}

// LogSink writes one event log line per event.
type LogSink struct {
	Logger *slog.Logger
}

func (l LogSink) HandleEvent(ev instrument.Event) {
	switch ev.Kind {
	case instrument.NoteOn, instrument.NoteOff:
		l.Logger.Info(ev.Message(), "note", pitch.Name(ev.Note()))
	default:
		l.Logger.Info(ev.Message())
	}
}
