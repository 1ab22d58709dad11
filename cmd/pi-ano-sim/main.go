// Command pi-ano-sim runs the instrument against a virtual key matrix in the
// terminal, playing the voices on the host sound card.
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/chase3718/pi-ano/internal/engine"
	"github.com/chase3718/pi-ano/internal/instrument"
	"github.com/chase3718/pi-ano/internal/keymatrix"
	"github.com/chase3718/pi-ano/internal/logging"
	"github.com/chase3718/pi-ano/internal/simui"
	"github.com/chase3718/pi-ano/internal/tone"
	"github.com/chase3718/pi-ano/internal/watchdog"
)

// quietTones stands in for the sound card with -mute.
type quietTones struct{}

func (quietTones) CreateTone(int) error   { return nil }
func (quietTones) SetTone(int, int) error { return nil }
func (quietTones) Close() error           { return nil }

type toneBackend interface {
	instrument.ToneBackend
	Close() error
}

func main() {
	octave := flag.Int("octave", instrument.DefaultOctave, "initial octave (1-4)")
	mute := flag.Bool("mute", false, "do not open the sound card")
	logPath := flag.String("log", "", "append the event log to this file")
	settle := flag.Duration("settle", keymatrix.DefaultSettle, "per-column settle time")
	flag.Parse()

	var handler slog.Handler = slog.NewTextHandler(io.Discard, nil)
	if *logPath != "" {
		f, err := logging.OpenFile(*logPath, "pi_ano_sim")
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		defer f.Close()
		handler = f.Handler
	}
	logger := logging.New(handler)

	var tones toneBackend = quietTones{}
	if !*mute {
		audio, err := openAudio(tone.DefaultSampleRate)
		if err != nil {
			fmt.Fprintf(os.Stderr, "audio unavailable (%v), running muted\n", err)
		} else {
			tones = audio
		}
	}
	defer tones.Close()

	opts := instrument.DefaultOptions()
	opts.InitialOctave = *octave
	state, err := instrument.New(tones, opts, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := state.Init(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	board := keymatrix.NewVirtual()
	scanner := keymatrix.NewScanner(board).WithSettle(*settle)
	scanner.Wait = time.Sleep
	if err := scanner.Init(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	m := simui.NewModel(board, *octave)
	p := tea.NewProgram(m, tea.WithAltScreen())

	dog := &watchdog.Nop{}
	eng := engine.New(scanner, state, dog, logger, engine.LogSink{Logger: logger}, simui.Sink{P: p})
	if err := eng.Arm(10 * time.Second); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var stop atomic.Bool
	done := make(chan struct{})
	go func() {
		defer close(done)
		eng.Run(&stop)
	}()

	_, runErr := p.Run()
	stop.Store(true)
	<-done
	if err := eng.Shutdown(); err != nil {
		logger.Error("shutdown", "err", err)
	}
	if runErr != nil {
		fmt.Printf("Error: %v\n", runErr)
		os.Exit(1)
	}
}
