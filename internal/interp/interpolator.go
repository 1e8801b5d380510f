// Package interp evaluates property tracks at arbitrary times. It is a
// pure function over the keyframe data: it never mutates the store.
package interp

import (
	"fmt"
	"math"

	"github.com/ivlev/animforge/internal/model"
)

// Sample computes the value of a track at local time t.
//
// Times before the first keyframe yield the first keyframe's value, times
// past the last yield the last (no wrap-around). Range keyframes hold
// their value over [Time, EndTime) and the following segment interpolates
// from EndTime. Tracks with fewer than two keyframes return
// model.ErrSparseTrack and the caller keeps the current value.
func Sample(track *model.PropertyTrack, t model.TimeMs) (model.KeyValue, error) {
	kfs := track.Keyframes
	if len(kfs) < 2 {
		return model.KeyValue{}, model.ErrSparseTrack
	}

	if t <= kfs[0].Time {
		return kfs[0].Value, nil
	}
	last := kfs[len(kfs)-1]
	if t >= last.Time {
		return last.Value, nil
	}

	left, right := bracket(kfs, t)

	// Inside the hold interval of a range keyframe the value is exact.
	if left.Kind == model.KindRange && t < left.EndTime {
		return left.Value, nil
	}
	if left.Kind == model.KindRange {
		// Interpolation toward the next keyframe starts at the end of
		// the hold, not at the keyframe itself.
		left = virtualFrame(left)
	}

	return interpolate(left, right, t)
}

// bracket finds the surrounding keyframe pair for t. Callers guarantee
// kfs[0].Time < t < kfs[len-1].Time.
func bracket(kfs []model.Keyframe, t model.TimeMs) (model.Keyframe, model.Keyframe) {
	for i := 1; i < len(kfs); i++ {
		if kfs[i].Time > t {
			return kfs[i-1], kfs[i]
		}
	}
	return kfs[len(kfs)-2], kfs[len(kfs)-1]
}

// virtualFrame turns a range keyframe into the synthetic left endpoint of
// its outgoing segment: same value, easing and path, anchored at EndTime.
func virtualFrame(kf model.Keyframe) model.Keyframe {
	kf.Time = kf.EndTime
	kf.Kind = model.KindFrame
	kf.EndTime = 0
	return kf
}

func interpolate(left, right model.Keyframe, t model.TimeMs) (model.KeyValue, error) {
	if left.Value.Kind != right.Value.Kind {
		return model.KeyValue{}, fmt.Errorf("mixed-variant bracket: %s vs %s", left.Value.Kind, right.Value.Kind)
	}

	span := right.Time - left.Time
	u := 0.0
	if span > 0 {
		u = float64(t-left.Time) / float64(span)
	}
	u = clamp01(u)
	u = ease(left.Easing, u)

	switch left.Value.Kind {
	case model.ValuePosition:
		x, y := positionAt(left, right, u)
		return model.PositionValue(roundI32(x), roundI32(y)), nil
	default:
		v := lerp(float64(left.Value.Scalar), float64(right.Value.Scalar), u)
		out := left.Value
		out.Scalar = roundI32(v)
		return out, nil
	}
}

// positionAt evaluates the motion path between two position keyframes at
// eased progress u. The path spec of the left keyframe decides the shape.
func positionAt(left, right model.Keyframe, u float64) (float64, float64) {
	p0x, p0y := float64(left.Value.X), float64(left.Value.Y)
	p3x, p3y := float64(right.Value.X), float64(right.Value.Y)

	if left.Path.Kind != model.PathBezier {
		return lerp(p0x, p3x, u), lerp(p0y, p3y, u)
	}

	// Default control points sit at the thirds of the straight segment,
	// which degenerates to a linear path.
	c1x := p0x + (p3x-p0x)/3
	c1y := p0y + (p3y-p0y)/3
	if left.Path.Ctrl1 != nil {
		c1x, c1y = float64(left.Path.Ctrl1.X), float64(left.Path.Ctrl1.Y)
	}
	c2x := p0x + (p3x-p0x)*2/3
	c2y := p0y + (p3y-p0y)*2/3
	if left.Path.Ctrl2 != nil {
		c2x, c2y = float64(left.Path.Ctrl2.X), float64(left.Path.Ctrl2.Y)
	}

	return cubicBezier(p0x, c1x, c2x, p3x, u), cubicBezier(p0y, c1y, c2y, p3y, u)
}

// cubicBezier evaluates a 1D cubic Bézier at parameter u.
func cubicBezier(p0, p1, p2, p3, u float64) float64 {
	inv := 1 - u
	return inv*inv*inv*p0 + 3*inv*inv*u*p1 + 3*inv*u*u*p2 + u*u*u*p3
}

// ease maps linear progress through the segment's easing curve.
func ease(e model.Easing, u float64) float64 {
	switch e {
	case model.EasingEaseIn:
		return u * u
	case model.EasingEaseOut:
		return 1 - (1-u)*(1-u)
	case model.EasingEaseInOut:
		if u < 0.5 {
			return 2 * u * u
		}
		v := -2*u + 2
		return 1 - v*v/2
	default:
		return u
	}
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
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

func roundI32(v float64) int32 {
	return int32(math.Round(v))
}
