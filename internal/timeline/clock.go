// Package timeline maintains play-time and maps timeline time onto the
// active sequence.
package timeline

import "time"

// Clock tracks the play-time of one timeline. Output is monotonically
// non-decreasing within a playing epoch; an override lets the exporter
// drive deterministic time.
type Clock struct {
	playing  bool
	t0       time.Time
	lastStep time.Time
}

// Start begins a playing epoch anchored at now. The caller resets any
// per-object video pacers alongside.
func (c *Clock) Start(now time.Time) {
	c.playing = true
	c.t0 = now
	c.lastStep = time.Time{}
}

// Stop halts the clock without rewinding.
func (c *Clock) Stop() {
	c.playing = false
}

// Playing reports whether a playing epoch is active.
func (c *Clock) Playing() bool {
	return c.playing
}

// SampleTime returns the elapsed play-time in seconds. When override is
// non-nil its value is returned instead of wall-clock time.
func (c *Clock) SampleTime(now time.Time, override *float64) float64 {
	if override != nil {
		return *override
	}
	c.lastStep = now
	return now.Sub(c.t0).Seconds()
}
