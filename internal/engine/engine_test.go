package engine

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ivlev/animforge/internal/model"
	"github.com/ivlev/animforge/internal/store"
)

type fakeDecoder struct {
	frames int
	resets int
	stall  bool
}

func (d *fakeDecoder) DecodeNextFrame(objectID string) ([]byte, error) {
	if d.stall {
		return nil, errors.New("no frame available")
	}
	d.frames++
	return []byte{0, 0, 0, 255}, nil
}

func (d *fakeDecoder) Reset(objectID string) error {
	d.resets = d.resets + 1
	return nil
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func linearPositionTrack(endTime model.TimeMs, endX int32) model.PropertyTrack {
	return model.PropertyTrack{
		Name:         "Position",
		PropertyPath: model.PropPosition,
		Keyframes: []model.Keyframe{
			{Time: 0, Value: model.PositionValue(0, 0), Easing: model.EasingLinear, Kind: model.KindFrame},
			{Time: endTime, Value: model.PositionValue(endX, 0), Kind: model.KindFrame},
		},
	}
}

func polygonSequence() *model.Sequence {
	return &model.Sequence{
		ID:         "seq-1",
		DurationMs: 4000,
		Background: "#101018",
		ActivePolygons: []model.ObjectConfig{
			{ID: "poly-1", Width: 100, Height: 100, Position: model.Point{X: 10, Y: 20}, Layer: 1},
		},
		Animations: []model.AnimationData{
			{
				ObjectID:   "poly-1",
				ObjectKind: model.KindPolygon,
				Duration:   4000,
				Position:   model.Point{X: 5, Y: 0},
				Tracks: []model.PropertyTrack{
					linearPositionTrack(4000, 400),
					{
						PropertyPath: model.PropOpacity,
						Keyframes: []model.Keyframe{
							{Time: 0, Value: model.OpacityValue(0), Easing: model.EasingLinear, Kind: model.KindFrame},
							{Time: 4000, Value: model.OpacityValue(100), Kind: model.KindFrame},
						},
					},
				},
			},
		},
	}
}

func videoSequence() *model.Sequence {
	return &model.Sequence{
		ID:         "seq-vid",
		DurationMs: 10000,
		ActiveVideos: []model.ObjectConfig{
			{
				ID: "vid-1", Width: 960, Height: 540,
				SourceDurationMs: 10000, FrameRate: 30,
			},
		},
		Animations: []model.AnimationData{
			{
				ObjectID:   "vid-1",
				ObjectKind: model.KindVideo,
				Duration:   10000,
				Tracks: []model.PropertyTrack{
					linearPositionTrack(1000, 100),
					{
						PropertyPath: model.PropZoom,
						Keyframes: []model.Keyframe{
							{Time: 0, Value: model.ZoomValue(100), Easing: model.EasingLinear, Kind: model.KindFrame},
							{Time: 10000, Value: model.ZoomValue(100), Kind: model.KindFrame},
						},
					},
				},
			},
		},
	}
}

func loadStore(t *testing.T, seqs ...*model.Sequence) *store.Store {
	t.Helper()
	s := store.New()
	var entries []model.TimelineEntry
	offset := model.TimeMs(0)
	for _, seq := range seqs {
		if err := s.AddSequence(seq); err != nil {
			t.Fatalf("AddSequence %s failed: %v", seq.ID, err)
		}
		entries = append(entries, model.TimelineEntry{
			SequenceID:  seq.ID,
			TrackKind:   model.TrackVideo,
			StartTimeMs: offset,
			DurationMs:  seq.DurationMs,
		})
		offset += seq.DurationMs
	}
	s.SetTimeline(model.TimelineState{Entries: entries})
	return s
}

func stepAt(t *testing.T, e *Engine, sec float64) {
	t.Helper()
	if err := e.Step(time.Now(), &sec); err != nil {
		t.Fatalf("Step at %fs failed: %v", sec, err)
	}
}

func TestStepWritesTransforms(t *testing.T) {
	s := loadStore(t, polygonSequence())
	e := New(s, nil, nil, nil, quietLogger())

	stepAt(t, e, 2.0)

	rt := e.Runtime("poly-1")
	if rt == nil {
		t.Fatal("runtime not created on activation")
	}
	// Midpoint of the position track plus the group offset.
	if rt.Transform.X != 205 || rt.Transform.Y != 0 {
		t.Errorf("position = (%f,%f), want (205,0)", rt.Transform.X, rt.Transform.Y)
	}
	if rt.Transform.Opacity != 0.5 {
		t.Errorf("opacity = %f, want 0.5", rt.Transform.Opacity)
	}
	if e.Background() != "#101018" {
		t.Errorf("background = %q", e.Background())
	}
}

func TestVideoSkipsPropertiesWithoutFrameAdvance(t *testing.T) {
	dec := &fakeDecoder{}
	s := loadStore(t, videoSequence())
	e := New(s, dec, nil, nil, quietLogger())

	// First step decodes frame 0 and applies properties.
	stepAt(t, e, 0.0)
	rt := e.Runtime("vid-1")
	if rt.Pacer.Frames() != 1 {
		t.Fatalf("expected 1 frame decoded, got %d", rt.Pacer.Frames())
	}
	x0 := rt.Transform.X

	// 5ms later the pacer declines; the position must not move even
	// though the track has advanced.
	stepAt(t, e, 0.005)
	if rt.Pacer.Frames() != 1 {
		t.Errorf("pacer advanced unexpectedly: %d", rt.Pacer.Frames())
	}
	if rt.Transform.X != x0 {
		t.Errorf("property updated on a non-advance step: %f -> %f", x0, rt.Transform.X)
	}

	// At the next frame boundary both resume.
	stepAt(t, e, 0.034)
	if rt.Pacer.Frames() != 2 {
		t.Errorf("expected cursor 2, got %d", rt.Pacer.Frames())
	}
	if rt.Transform.X == x0 {
		t.Error("property should update once a frame advances")
	}
}

func TestVideoStallIsNonAdvance(t *testing.T) {
	dec := &fakeDecoder{stall: true}
	s := loadStore(t, videoSequence())
	e := New(s, dec, nil, nil, quietLogger())

	stepAt(t, e, 0.0)
	rt := e.Runtime("vid-1")
	if rt.Pacer.Frames() != 0 {
		t.Errorf("stall advanced the cursor: %d", rt.Pacer.Frames())
	}
	if rt.Transform.X != 0 {
		t.Errorf("stall step wrote properties: %f", rt.Transform.X)
	}
}

func TestSequenceCrossingTogglesVisibility(t *testing.T) {
	s := loadStore(t, polygonSequence(), videoSequence())
	e := New(s, &fakeDecoder{}, nil, nil, quietLogger())

	stepAt(t, e, 1.0)
	if e.ActiveSequenceID() != "seq-1" {
		t.Fatalf("expected seq-1 active, got %s", e.ActiveSequenceID())
	}

	// Cross into the second sequence at 4s.
	stepAt(t, e, 5.0)
	if e.ActiveSequenceID() != "seq-vid" {
		t.Fatalf("expected seq-vid active, got %s", e.ActiveSequenceID())
	}
	if rt := e.Runtime("poly-1"); rt == nil || !rt.Hidden {
		t.Error("previous sequence's object should be hidden after crossing")
	}
	if rt := e.Runtime("vid-1"); rt == nil || rt.Hidden {
		t.Error("new sequence's object should be visible")
	}
}

func TestRewindRestoresInitialState(t *testing.T) {
	s := loadStore(t, polygonSequence())
	e := New(s, nil, nil, nil, quietLogger())

	stepAt(t, e, 3.0)
	rt := e.Runtime("poly-1")
	if rt.Transform.X == float64(rt.Config.Position.X) {
		t.Fatal("transform should have moved before rewind")
	}

	e.Rewind()
	if rt.Transform.X != 10 || rt.Transform.Y != 20 {
		t.Errorf("position not restored: (%f,%f)", rt.Transform.X, rt.Transform.Y)
	}
	if rt.Transform.Opacity != 1 || rt.Transform.ScaleX != 1 || rt.Transform.Rotation != 0 {
		t.Errorf("transform not restored: %+v", rt.Transform)
	}
}
