package interp

import (
	"errors"
	"testing"

	"github.com/ivlev/animforge/internal/model"
)

func positionTrack(kfs ...model.Keyframe) *model.PropertyTrack {
	return &model.PropertyTrack{
		Name:         "Position",
		PropertyPath: model.PropPosition,
		Keyframes:    kfs,
	}
}

func frameKf(t model.TimeMs, x, y int32) model.Keyframe {
	return model.Keyframe{
		Time:   t,
		Value:  model.PositionValue(x, y),
		Easing: model.EasingLinear,
		Path:   model.PathSpec{Kind: model.PathLinear},
		Kind:   model.KindFrame,
	}
}

func TestSampleHoldInTheMiddle(t *testing.T) {
	hold := frameKf(1000, 100, 0)
	hold.Kind = model.KindRange
	hold.EndTime = 3000

	track := positionTrack(
		frameKf(0, 0, 0),
		hold,
		frameKf(4000, 200, 0),
	)

	tests := []struct {
		time model.TimeMs
		x    int32
	}{
		{500, 50},
		{1000, 100},
		{2000, 100}, // inside the hold
		{3000, 100}, // hold boundary: new segment at progress 0
		{3500, 150},
		{4000, 200},
	}

	for _, tt := range tests {
		v, err := Sample(track, tt.time)
		if err != nil {
			t.Fatalf("Sample(%d) failed: %v", tt.time, err)
		}
		if v.X != tt.x || v.Y != 0 {
			t.Errorf("Sample(%d) = (%d,%d), want (%d,0)", tt.time, v.X, v.Y, tt.x)
		}
	}
}

func TestSampleBezierEaseInOut(t *testing.T) {
	left := frameKf(0, 0, 0)
	left.Easing = model.EasingEaseInOut
	left.Path = model.PathSpec{Kind: model.PathBezier}

	track := positionTrack(left, frameKf(1000, 100, 100))

	// Eased progress at the midpoint is exactly 0.5; default third-point
	// controls make the curve coincide with the straight segment.
	v, err := Sample(track, 500)
	if err != nil {
		t.Fatalf("Sample failed: %v", err)
	}
	if v.X != 50 || v.Y != 50 {
		t.Errorf("Sample(500) = (%d,%d), want (50,50)", v.X, v.Y)
	}
}

func TestSampleAtKeyframeTimes(t *testing.T) {
	track := positionTrack(
		frameKf(0, 10, 20),
		frameKf(1000, 30, 40),
		frameKf(2500, 50, 60),
	)

	for _, kf := range track.Keyframes {
		v, err := Sample(track, kf.Time)
		if err != nil {
			t.Fatalf("Sample(%d) failed: %v", kf.Time, err)
		}
		if !v.Equal(kf.Value) {
			t.Errorf("Sample(%d) = %+v, want keyframe value %+v", kf.Time, v, kf.Value)
		}
	}
}

func TestSampleOutsideTrack(t *testing.T) {
	track := positionTrack(frameKf(1000, 10, 10), frameKf(2000, 20, 20))

	before, _ := Sample(track, 0)
	if before.X != 10 {
		t.Errorf("before first keyframe: got %+v, want first value", before)
	}

	after, _ := Sample(track, 9000)
	if after.X != 20 {
		t.Errorf("after last keyframe: got %+v, want last value", after)
	}
}

func TestSampleSparseTrack(t *testing.T) {
	track := positionTrack(frameKf(0, 1, 1))
	if _, err := Sample(track, 100); !errors.Is(err, model.ErrSparseTrack) {
		t.Errorf("expected ErrSparseTrack, got %v", err)
	}
}

func TestSampleScalarEasings(t *testing.T) {
	tests := []struct {
		easing model.Easing
		want   int32 // value at u = 0.5 between 0 and 100
	}{
		{model.EasingLinear, 50},
		{model.EasingEaseIn, 25},
		{model.EasingEaseOut, 75},
		{model.EasingEaseInOut, 50},
	}

	for _, tt := range tests {
		t.Run(string(tt.easing), func(t *testing.T) {
			track := &model.PropertyTrack{
				PropertyPath: model.PropOpacity,
				Keyframes: []model.Keyframe{
					{Time: 0, Value: model.OpacityValue(0), Easing: tt.easing, Kind: model.KindFrame},
					{Time: 1000, Value: model.OpacityValue(100), Kind: model.KindFrame},
				},
			}
			v, err := Sample(track, 500)
			if err != nil {
				t.Fatalf("Sample failed: %v", err)
			}
			if v.Scalar != tt.want {
				t.Errorf("got %d, want %d", v.Scalar, tt.want)
			}
		})
	}
}

func TestSampleLinearMonotonicity(t *testing.T) {
	track := positionTrack(frameKf(0, 0, 0), frameKf(1000, 240, 0))

	prev := int32(-1)
	for ts := model.TimeMs(0); ts <= 1000; ts += 50 {
		v, err := Sample(track, ts)
		if err != nil {
			t.Fatalf("Sample(%d) failed: %v", ts, err)
		}
		if v.X < prev {
			t.Fatalf("x decreased at t=%d: %d < %d", ts, v.X, prev)
		}
		prev = v.X
	}
}
