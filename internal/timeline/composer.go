package timeline

import "github.com/ivlev/animforge/internal/model"

// Composer resolves timeline time to the active sequence and detects
// crossings between sequences so the engine can swap object visibility.
type Composer struct {
	activeSequenceID string
}

// Resolution is the result of mapping a timeline instant.
type Resolution struct {
	SequenceID  string
	LocalTimeMs model.TimeMs
	// Changed is set when the active sequence differs from the previous
	// resolution; the engine reacts by toggling visibility and resetting
	// runtimes.
	Changed bool
}

// Resolve walks video-track entries in declaration order and picks the
// first whose [start, start+duration) window contains tMs. Overlapping
// entries never merge: first declared wins. The bool result is false when
// no entry is active at tMs.
func (c *Composer) Resolve(state *model.TimelineState, tMs model.TimeMs) (Resolution, bool) {
	for _, entry := range state.Entries {
		if entry.TrackKind != model.TrackVideo {
			continue
		}
		if tMs < entry.StartTimeMs || tMs >= entry.StartTimeMs+entry.DurationMs {
			continue
		}
		res := Resolution{
			SequenceID:  entry.SequenceID,
			LocalTimeMs: tMs - entry.StartTimeMs,
			Changed:     entry.SequenceID != c.activeSequenceID,
		}
		c.activeSequenceID = entry.SequenceID
		return res, true
	}
	return Resolution{}, false
}

// ActiveSequenceID returns the most recently resolved sequence id.
func (c *Composer) ActiveSequenceID() string {
	return c.activeSequenceID
}

// Reset clears the crossing detector, e.g. on rewind.
func (c *Composer) Reset() {
	c.activeSequenceID = ""
}
