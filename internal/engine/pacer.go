package engine

import "time"

// maxCatchUpFrames caps how many source frames one step may pull when the
// animation clock has run ahead of the decode cursor.
const maxCatchUpFrames = 5

// FramePacer decouples animation time from video decode cadence. The
// frames-drawn counter is the authoritative cursor; wall-clock instants
// are never compared frame-to-frame.
type FramePacer struct {
	numFramesDrawn uint32
}

// Plan returns how many source frames to decode for this step: 1 when the
// animation clock sits inside the current frame interval, up to
// maxCatchUpFrames when it has run ahead, 0 otherwise. Advancement is
// suppressed within the last second of the source so the video never
// draws past its final frame.
func (p *FramePacer) Plan(currentTime time.Duration, frameRate float64, sourceDurationMs uint64) int {
	if frameRate <= 0 {
		return 0
	}

	frameInterval := 1.0 / frameRate
	currentFrameTime := float64(p.numFramesDrawn) * frameInterval
	t := currentTime.Seconds()
	withinSource := t+1.0 < float64(sourceDurationMs)/1000.0

	if t >= currentFrameTime && t < currentFrameTime+frameInterval && withinSource {
		return 1
	}

	// Catch up to the largest cursor whose frame starts strictly before
	// the clock. Compared as k*1000 < ms*rate, which is exact for integer
	// milliseconds, so a clock sitting exactly on a frame boundary does
	// not count that frame as owed.
	scaled := float64(currentTime.Milliseconds()) * frameRate
	target := int(scaled / 1000.0)
	if float64(target)*1000.0 >= scaled {
		target--
	}
	n := target - int(p.numFramesDrawn)
	if n > 0 && withinSource {
		if n > maxCatchUpFrames {
			n = maxCatchUpFrames
		}
		return n
	}

	return 0
}

// Commit advances the cursor by the number of frames actually decoded.
// Decoder stalls therefore never desynchronize the cursor.
func (p *FramePacer) Commit(frames int) {
	if frames > 0 {
		p.numFramesDrawn += uint32(frames)
	}
}

// Frames returns the authoritative decode cursor.
func (p *FramePacer) Frames() uint32 {
	return p.numFramesDrawn
}

// Reset rewinds the cursor, e.g. on sequence rewind.
func (p *FramePacer) Reset() {
	p.numFramesDrawn = 0
}
