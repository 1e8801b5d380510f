package capture

import (
	"path/filepath"
	"testing"

	"github.com/ivlev/animforge/internal/model"
)

func TestReplayRoundTrip(t *testing.T) {
	replay := &Replay{
		Version: "1.0",
		Recordings: []Recording{
			{
				ObjectID: "vid-1",
				Source:   model.SourceData{X: 100, Y: 50, Width: 1920, Height: 1080},
				Positions: []model.MousePosition{
					// Deliberately unsorted: load must order them.
					{X: 30, Y: 40, TimestampMs: 500},
					{X: 10, Y: 20, TimestampMs: 0},
				},
			},
		},
	}

	path := filepath.Join(t.TempDir(), "capture.yaml")
	if err := WriteReplay(replay, path); err != nil {
		t.Fatalf("WriteReplay failed: %v", err)
	}

	got, err := ReadReplay(path)
	if err != nil {
		t.Fatalf("ReadReplay failed: %v", err)
	}

	positions := got.MousePositions("vid-1")
	if len(positions) != 2 {
		t.Fatalf("expected 2 positions, got %d", len(positions))
	}
	if positions[0].TimestampMs != 0 || positions[1].TimestampMs != 500 {
		t.Errorf("positions not sorted by timestamp: %+v", positions)
	}

	src, ok := got.SourceData("vid-1")
	if !ok || src.Width != 1920 {
		t.Errorf("source data mismatch: %+v ok=%v", src, ok)
	}

	if got.MousePositions("ghost") != nil {
		t.Error("unknown object should have no positions")
	}
}

func TestAt(t *testing.T) {
	positions := []model.MousePosition{
		{TimestampMs: 0}, {TimestampMs: 100}, {TimestampMs: 250},
	}

	tests := []struct {
		ts   uint64
		want int64 // expected timestamp, -1 for nil
	}{
		{0, 0},
		{1, 100},
		{100, 100},
		{101, 250},
		{251, -1},
	}

	for _, tt := range tests {
		got := At(positions, tt.ts)
		if tt.want == -1 {
			if got != nil {
				t.Errorf("At(%d) = %+v, want nil", tt.ts, got)
			}
			continue
		}
		if got == nil || int64(got.TimestampMs) != tt.want {
			t.Errorf("At(%d) = %+v, want ts %d", tt.ts, got, tt.want)
		}
	}
}
