package watchdog

import "time"

// DefaultPath is the Linux watchdog character device.
const DefaultPath = "/dev/watchdog"

// Device is a supervisory timer that reboots the machine unless pulsed.
type Device interface {
	// SetTimeout requests a timeout; the device may clamp it.
	SetTimeout(d time.Duration) error
	// Timeout returns the timeout the device actually uses.
	Timeout() (time.Duration, error)
	// Keepalive pulses the device.
	Keepalive() error
	// Disarm tells the device a clean shutdown is in progress.
	Disarm() error
	Close() error
}

// Nop is a Device that accepts everything and never fires.
type Nop struct {
	timeout time.Duration
	Pulses  int
}

func (n *Nop) SetTimeout(d time.Duration) error {
	n.timeout = d
	return nil
}

func (n *Nop) Timeout() (time.Duration, error) { return n.timeout, nil }

func (n *Nop) Keepalive() error {
	n.Pulses++
	return nil
}

func (n *Nop) Disarm() error { return nil }
func (n *Nop) Close() error  { return nil }
