// Package follow computes the zoom window of a video object by smoothing
// a recorded mouse trajectory with look-ahead. One Controller belongs to
// exactly one video runtime; nothing else reads or writes its state.
package follow

import (
	"math"
	"sort"

	"github.com/ivlev/animforge/internal/model"
)

// Tuned constants. These are exact values, not knobs: the retarget cadence,
// the lead between playhead and sampled mouse, the retarget hysteresis and
// the blend-weight response were dialed in together.
const (
	// autofollowDelayMs is the look-ahead window between the tracked pair
	// of mouse samples, and the minimum interval between retargets.
	autofollowDelayMs = 150
	// delayOffsetMs is the constant latency between the playhead and the
	// sampled mouse positions, creating a lead over the cursor.
	delayOffsetMs = 500
	// minShiftDistance is the retarget hysteresis in capture pixels.
	minShiftDistance = 100.0

	baseAlpha     = 0.01
	maxAlpha      = 0.1
	scalingFactor = 0.01
)

// GridSize is the vertex resolution of the video quad mesh on each axis.
const GridSize = 20

type vec2 struct {
	x, y float64
}

// Controller holds the per-video follow state.
type Controller struct {
	lastCenter   *vec2
	lastStart    *model.MousePosition
	lastEnd      *model.MousePosition
	lastShiftMs  uint64
	hasShift     bool
	dynamicAlpha float64
}

// NewController returns a controller in its initial state.
func NewController() *Controller {
	return &Controller{dynamicAlpha: baseAlpha}
}

// Reset restores the initial state, e.g. on sequence rewind.
func (c *Controller) Reset() {
	*c = Controller{dynamicAlpha: baseAlpha}
}

// Input is everything one follow step needs.
type Input struct {
	ElapsedMs        uint64
	Positions        []model.MousePosition // sorted by timestamp
	Source           model.SourceData
	SourceDurationMs uint64
	// Zoom is the interpolated zoom value in hundredths (100 == 1x).
	Zoom float64
	// DisplayW/H are the video object's current display dimensions.
	DisplayW, DisplayH float64
}

// UVRect is the texture subregion shown on the video quad.
type UVRect struct {
	UMin, VMin float64
	UMax, VMax float64
}

// Step advances the controller and returns the zoom window for this frame.
// With an empty recording the window is centered on the display and
// model.ErrFollowUninitialized is returned alongside the usable rect.
func (c *Controller) Step(in Input) (UVRect, error) {
	zoom := in.Zoom / 100.0

	if len(in.Positions) == 0 {
		return centeredWindow(zoom), model.ErrFollowUninitialized
	}

	if c.lastStart == nil {
		// First call: latch the initial sample pair, no shift yet.
		start := sampleAt(in.Positions, in.ElapsedMs)
		end := sampleAt(in.Positions, in.ElapsedMs+autofollowDelayMs)
		if start == nil || end == nil {
			return centeredWindow(zoom), model.ErrFollowUninitialized
		}
		c.lastStart, c.lastEnd = start, end
		c.lastShiftMs = in.ElapsedMs
		c.hasShift = true
	} else if c.hasShift && in.ElapsedMs > c.lastShiftMs+autofollowDelayMs {
		c.retarget(in)
	}

	target := c.interpolateTarget(in.ElapsedMs)

	// Remap capture pixels into display coordinates.
	newCenter := vec2{
		x: (target.x - float64(in.Source.X)) / float64(in.Source.Width) * in.DisplayW,
		y: (target.y - float64(in.Source.Y)) / float64(in.Source.Height) * in.DisplayH,
	}

	// Exponential blend toward the retargeted center.
	if c.lastCenter != nil {
		a := c.dynamicAlpha
		newCenter = vec2{
			x: c.lastCenter.x*(1-a) + newCenter.x*a,
			y: c.lastCenter.y*(1-a) + newCenter.y*a,
		}
	}
	c.lastCenter = &newCenter

	cu := newCenter.x / in.DisplayW
	cv := newCenter.y / in.DisplayH
	return windowAt(cu, cv, zoom), nil
}

// retarget fetches a fresh sample pair ahead of the playhead and commits
// it only when the trajectory moved far enough to defeat the hysteresis.
func (c *Controller) retarget(in Input) {
	startTs := in.ElapsedMs - autofollowDelayMs + delayOffsetMs
	endTs := in.ElapsedMs + delayOffsetMs

	newStart := sampleAt(in.Positions, startTs)
	newEnd := sampleAt(in.Positions, endTs)
	if newStart == nil || newEnd == nil {
		return
	}
	if newStart.TimestampMs >= in.SourceDurationMs || newEnd.TimestampMs >= in.SourceDurationMs {
		return
	}

	dStart := dist(newStart, c.lastStart)
	dEnd := dist(newEnd, c.lastEnd)
	maxD := math.Max(dStart, dEnd)
	if maxD < minShiftDistance {
		return
	}

	c.lastStart, c.lastEnd = newStart, newEnd
	c.lastShiftMs = in.ElapsedMs
	c.dynamicAlpha = baseAlpha + (maxAlpha-baseAlpha)*(1-math.Exp(-scalingFactor*maxD))
}

// interpolateTarget positions the follow target between the committed
// sample pair, clamping the playhead into the pair's time span.
func (c *Controller) interpolateTarget(elapsedMs uint64) vec2 {
	start, end := c.lastStart, c.lastEnd

	t := float64(elapsedMs)
	t0 := float64(start.TimestampMs)
	t1 := float64(end.TimestampMs)
	if t < t0 {
		t = t0
	}
	if t > t1 {
		t = t1
	}

	tau := 0.0
	if t1 > t0 {
		tau = (t - t0) / (t1 - t0)
	}
	return vec2{
		x: float64(start.X) + tau*float64(end.X-start.X),
		y: float64(start.Y) + tau*float64(end.Y-start.Y),
	}
}

// sampleAt returns the first recorded sample at or after ts, or nil.
func sampleAt(positions []model.MousePosition, ts uint64) *model.MousePosition {
	i := sort.Search(len(positions), func(i int) bool {
		return positions[i].TimestampMs >= ts
	})
	if i == len(positions) {
		return nil
	}
	return &positions[i]
}

func dist(a, b *model.MousePosition) float64 {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	return math.Hypot(dx, dy)
}

func centeredWindow(zoom float64) UVRect {
	return windowAt(0.5, 0.5, zoom)
}

// windowAt builds the UV window of size 1/zoom centered at (cu, cv). A
// side exceeding [0,1] translates the window back inside without
// shrinking it, so the zoom factor is preserved at the edges.
func windowAt(cu, cv, zoom float64) UVRect {
	if zoom <= 0 {
		return UVRect{UMin: 0, VMin: 0, UMax: 1, VMax: 1}
	}
	half := 0.5 / zoom

	uMin, uMax := translateSpan(cu-half, cu+half)
	vMin, vMax := translateSpan(cv-half, cv+half)
	return UVRect{UMin: uMin, VMin: vMin, UMax: uMax, VMax: vMax}
}

func translateSpan(lo, hi float64) (float64, float64) {
	if lo < 0 {
		hi -= lo
		lo = 0
	}
	if hi > 1 {
		lo -= hi - 1
		hi = 1
	}
	return clamp01(lo), clamp01(hi)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Mesh expands the rect into the (GridSize+1)² vertex UV grid of the
// video quad, rows top to bottom.
func (r UVRect) Mesh() [][2]float32 {
	verts := make([][2]float32, 0, (GridSize+1)*(GridSize+1))
	for row := 0; row <= GridSize; row++ {
		v := r.VMin + (r.VMax-r.VMin)*float64(row)/GridSize
		for col := 0; col <= GridSize; col++ {
			u := r.UMin + (r.UMax-r.UMin)*float64(col)/GridSize
			verts = append(verts, [2]float32{float32(u), float32(v)})
		}
	}
	return verts
}
