package store

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/ivlev/animforge/internal/model"
)

func testSequence() *model.Sequence {
	return &model.Sequence{
		ID:         "seq-1",
		DurationMs: 4000,
		ActivePolygons: []model.ObjectConfig{
			{ID: "poly-1", Width: 100, Height: 100, Position: model.Point{X: 50, Y: 50}},
		},
		Animations: []model.AnimationData{
			{
				ObjectID:   "poly-1",
				ObjectKind: model.KindPolygon,
				Duration:   4000,
				Tracks: []model.PropertyTrack{
					{
						Name:         "Position",
						PropertyPath: model.PropPosition,
						Keyframes: []model.Keyframe{
							{Time: 0, Value: model.PositionValue(0, 0), Kind: model.KindFrame},
							{Time: 4000, Value: model.PositionValue(200, 0), Kind: model.KindFrame},
						},
					},
				},
			},
		},
	}
}

func TestAddSequenceAndTrackLookup(t *testing.T) {
	s := New()
	if err := s.AddSequence(testSequence()); err != nil {
		t.Fatalf("AddSequence failed: %v", err)
	}

	track, err := s.Track("seq-1", "poly-1", model.PropPosition)
	if err != nil {
		t.Fatalf("Track failed: %v", err)
	}
	if len(track.Keyframes) != 2 {
		t.Errorf("expected 2 keyframes, got %d", len(track.Keyframes))
	}

	if _, err := s.Track("seq-1", "poly-1", model.PropRotation); !errors.Is(err, model.ErrMissingTrack) {
		t.Errorf("expected ErrMissingTrack, got %v", err)
	}
	if _, err := s.Track("seq-1", "ghost", model.PropPosition); !errors.Is(err, model.ErrMissingTrack) {
		t.Errorf("expected ErrMissingTrack for unknown object, got %v", err)
	}
}

func TestAddSequenceRejectsRangeOverlap(t *testing.T) {
	seq := testSequence()
	seq.Animations[0].Tracks[0].Keyframes = []model.Keyframe{
		{Time: 0, Value: model.PositionValue(0, 0), Kind: model.KindFrame},
		{Time: 1000, Value: model.PositionValue(100, 0), Kind: model.KindRange, EndTime: 3500},
		{Time: 3000, Value: model.PositionValue(200, 0), Kind: model.KindFrame},
	}

	s := New()
	err := s.AddSequence(seq)
	if !errors.Is(err, model.ErrRangeInvariant) {
		t.Fatalf("expected ErrRangeInvariant, got %v", err)
	}
}

func TestReplaceAnimation(t *testing.T) {
	s := New()
	if err := s.AddSequence(testSequence()); err != nil {
		t.Fatalf("AddSequence failed: %v", err)
	}

	replacement := model.AnimationData{
		ObjectID:   "poly-1",
		ObjectKind: model.KindPolygon,
		Duration:   2000,
		Tracks: []model.PropertyTrack{
			{PropertyPath: model.PropOpacity, Keyframes: []model.Keyframe{
				{Time: 0, Value: model.OpacityValue(0), Kind: model.KindFrame},
				{Time: 2000, Value: model.OpacityValue(100), Kind: model.KindFrame},
			}},
		},
	}

	if err := s.ReplaceAnimation("seq-1", replacement); err != nil {
		t.Fatalf("ReplaceAnimation failed: %v", err)
	}

	if _, err := s.Track("seq-1", "poly-1", model.PropPosition); err == nil {
		t.Error("old tracks should be gone after replacement")
	}
	if _, err := s.Track("seq-1", "poly-1", model.PropOpacity); err != nil {
		t.Errorf("new track missing: %v", err)
	}
}

func TestProjectWriteRead(t *testing.T) {
	project := &Project{
		Version:   "1.0",
		Sequences: []model.Sequence{*testSequence()},
		Timeline: model.TimelineState{Entries: []model.TimelineEntry{
			{SequenceID: "seq-1", TrackKind: model.TrackVideo, StartTimeMs: 0, DurationMs: 4000},
		}},
	}

	path := filepath.Join(t.TempDir(), "project.yaml")
	if err := WriteProject(project, path); err != nil {
		t.Fatalf("WriteProject failed: %v", err)
	}

	got, err := ReadProject(path)
	if err != nil {
		t.Fatalf("ReadProject failed: %v", err)
	}

	if len(got.Sequences) != 1 || got.Sequences[0].ID != "seq-1" {
		t.Fatalf("sequence round-trip mismatch: %+v", got.Sequences)
	}
	kf := got.Sequences[0].Animations[0].Tracks[0].Keyframes[1]
	if !kf.Value.Equal(model.PositionValue(200, 0)) {
		t.Errorf("keyframe value mismatch after round-trip: %+v", kf.Value)
	}
	if len(got.Timeline.Entries) != 1 || got.Timeline.Entries[0].TrackKind != model.TrackVideo {
		t.Errorf("timeline round-trip mismatch: %+v", got.Timeline)
	}

	loaded, err := Load(got)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Sequence("seq-1") == nil {
		t.Error("loaded store missing sequence")
	}
}
