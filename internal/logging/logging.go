// Package logging sets up the process logger: a slog text handler on the
// console plus an append-only event log file in the
// "[program][MM-DD-YYYY | HH:MM:SS]: message" format.
package logging

import (
	"context"
	"fmt"
	"io"
	"errors"
	"log/slog"
	"math"
	"os"
	"strings"
	"sync"
	"time"
)

// TimeFormat is the timestamp layout of the event log.
const TimeFormat = "01-02-2006 | 15:04:05"

// LineHandler writes one "[program][timestamp]: message k=v" line per record.
type LineHandler struct {
	mu      *sync.Mutex
	w       io.Writer
	program string
	level   slog.Leveler
	prefix  string // rendered WithAttrs attributes
	group   string
	// attrsFrom is the lowest level whose records carry their attributes.
	attrsFrom slog.Level
}

// NewLineHandler returns a handler writing records at or above level to w.
func NewLineHandler(w io.Writer, program string, level slog.Leveler) *LineHandler {
	if level == nil {
		level = slog.LevelInfo
	}
	return &LineHandler{mu: &sync.Mutex{}, w: w, program: program, level: level, attrsFrom: math.MinInt}
}

// AttrsFrom returns a copy of h that writes attributes only for records at
// or above l. Lower records are exactly "[program][timestamp]: message".
func (h *LineHandler) AttrsFrom(l slog.Level) *LineHandler {
	h2 := *h
	h2.attrsFrom = l
	return &h2
}

func (h *LineHandler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.level.Level()
}

func (h *LineHandler) Handle(_ context.Context, r slog.Record) error {
	t := r.Time
	if t.IsZero() {
		t = time.Now()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "[%s][%s]: %s", h.program, t.Format(TimeFormat), r.Message)
	if r.Level >= h.attrsFrom {
		b.WriteString(h.prefix)
		r.Attrs(func(a slog.Attr) bool {
			writeAttr(&b, h.group, a)
			return true
		})
	}
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

func (h *LineHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h2 := *h
	var b strings.Builder
	b.WriteString(h.prefix)
	for _, a := range attrs {
		writeAttr(&b, h.group, a)
	}
	h2.prefix = b.String()
	return &h2
}

func (h *LineHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := *h
	h2.group = h.group + name + "."
	return &h2
}

func writeAttr(b *strings.Builder, group string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		for _, ga := range a.Value.Group() {
			writeAttr(b, group+a.Key+".", ga)
		}
		return
	}
	fmt.Fprintf(b, " %s%s=%v", group, a.Key, a.Value.Any())
}

// Tee fans each record out to every handler that accepts its level.
type Tee []slog.Handler

func (t Tee) Enabled(ctx context.Context, l slog.Level) bool {
	for _, h := range t {
		if h.Enabled(ctx, l) {
			return true
		}
	}
	return false
}

func (t Tee) Handle(ctx context.Context, r slog.Record) error {
	var first error
	for _, h := range t {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (t Tee) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(Tee, len(t))
	for i, h := range t {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (t Tee) WithGroup(name string) slog.Handler {
	out := make(Tee, len(t))
	for i, h := range t {
		out[i] = h.WithGroup(name)
	}
	return out
}

// Console returns the text handler used for terminal output. Debug mode
// lowers the level and includes file:line.
func Console(w io.Writer, debug bool) slog.Handler {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: debug,
	})
}

// File is an open event log. Every line is handed to the kernel as it is
// written; the disk sync happens on Close.
type File struct {
	*os.File
	Handler *LineHandler
}

// OpenFile opens path for appending and wraps it in a LineHandler. Info lines
// carry the message only, warnings and errors keep their attributes.
func OpenFile(path, program string) (*File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	h := NewLineHandler(f, program, slog.LevelInfo).AttrsFrom(slog.LevelWarn)
	return &File{File: f, Handler: h}, nil
}

// Close syncs and closes the log.
func (f *File) Close() error {
	return errors.Join(f.File.Sync(), f.File.Close())
}

// New builds the process logger from handlers and installs it as the slog
// default so the stdlib log package routes through it too.
func New(handlers ...slog.Handler) *slog.Logger {
	var h slog.Handler
	if len(handlers) == 1 {
		h = handlers[0]
	} else {
		h = Tee(handlers)
	}
	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger
}
