// Package watchdog keeps a hardware watchdog fed from the scan loop.
package watchdog

import "time"

// Heartbeat accumulates loop time and signals when a keepalive is due.
// A pulse is due once half of the timeout window has accumulated.
type Heartbeat struct {
	threshold time.Duration
	elapsed   time.Duration
	pulses    int
}

// NewHeartbeat returns a heartbeat for a device with the given timeout.
func NewHeartbeat(timeout time.Duration) *Heartbeat {
	return &Heartbeat{threshold: timeout / 2}
}

// Advance adds d to the accumulator. It returns true when the caller must
// pulse the device now; the accumulator is reset in that case.
func (h *Heartbeat) Advance(d time.Duration) bool {
	h.elapsed += d
	if h.elapsed < h.threshold {
		return false
	}
	h.elapsed = 0
	h.pulses++
	return true
}

// Elapsed is the time accumulated since the last pulse.
func (h *Heartbeat) Elapsed() time.Duration { return h.elapsed }

// Threshold is the accumulated time that triggers a pulse.
func (h *Heartbeat) Threshold() time.Duration { return h.threshold }

// Pulses is the number of pulses signalled so far.
func (h *Heartbeat) Pulses() int { return h.pulses }
