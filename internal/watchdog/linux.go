//go:build linux

package watchdog

import (
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// magicClose disarms the driver when written before close.
const magicClose = "V"

// Linux drives /dev/watchdog through the WDIOC ioctls.
type Linux struct {
	f *os.File
}

// Open opens the watchdog device at path. Opening arms the timer.
func Open(path string) (*Linux, error) {
	f, err := os.OpenFile(path, os.O_RDWR|unix.O_NOCTTY, 0)
	if err != nil {
		return nil, fmt.Errorf("open watchdog %s: %w", path, err)
	}
	return &Linux{f: f}, nil
}

func (w *Linux) fd() int { return int(w.f.Fd()) }

func (w *Linux) SetTimeout(d time.Duration) error {
	secs := int(d / time.Second)
	if err := unix.IoctlSetPointerInt(w.fd(), unix.WDIOC_SETTIMEOUT, secs); err != nil {
		return fmt.Errorf("WDIOC_SETTIMEOUT %d: %w", secs, err)
	}
	return nil
}

func (w *Linux) Timeout() (time.Duration, error) {
	secs, err := unix.IoctlGetInt(w.fd(), unix.WDIOC_GETTIMEOUT)
	if err != nil {
		return 0, fmt.Errorf("WDIOC_GETTIMEOUT: %w", err)
	}
	return time.Duration(secs) * time.Second, nil
}

func (w *Linux) Keepalive() error {
	if err := unix.IoctlSetInt(w.fd(), unix.WDIOC_KEEPALIVE, 0); err != nil {
		return fmt.Errorf("WDIOC_KEEPALIVE: %w", err)
	}
	return nil
}

func (w *Linux) Disarm() error {
	if _, err := w.f.WriteString(magicClose); err != nil {
		return fmt.Errorf("disarm watchdog: %w", err)
	}
	return nil
}

func (w *Linux) Close() error {
	return w.f.Close()
}
