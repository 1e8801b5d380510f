// Package capture replays recorded screen-capture sessions: the mouse
// position stream and the captured window geometry per video object. The
// core only consumes recordings, it never produces them.
package capture

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/animforge/internal/model"
)

// Recording is one video object's captured session.
type Recording struct {
	ObjectID  string                `yaml:"object_id"`
	Source    model.SourceData      `yaml:"source_data"`
	Positions []model.MousePosition `yaml:"mouse_positions"`
}

// Replay holds the recordings of a project and implements the engine's
// CaptureSource contract.
type Replay struct {
	Version    string      `yaml:"version"`
	Recordings []Recording `yaml:"recordings"`

	byObject map[string]*Recording
}

// ReadReplay loads a capture replay from a YAML file. Position streams
// are sorted by timestamp on load so lookups can binary search.
func ReadReplay(path string) (*Replay, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var replay Replay
	if err := yaml.Unmarshal(data, &replay); err != nil {
		return nil, fmt.Errorf("capture replay %s: %w", path, err)
	}
	replay.index()
	return &replay, nil
}

// WriteReplay writes a replay to a YAML file.
func WriteReplay(replay *Replay, path string) error {
	data, err := yaml.Marshal(replay)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (r *Replay) index() {
	r.byObject = make(map[string]*Recording, len(r.Recordings))
	for i := range r.Recordings {
		rec := &r.Recordings[i]
		sort.SliceStable(rec.Positions, func(a, b int) bool {
			return rec.Positions[a].TimestampMs < rec.Positions[b].TimestampMs
		})
		r.byObject[rec.ObjectID] = rec
	}
}

// MousePositions returns the recorded stream for an object, or nil.
func (r *Replay) MousePositions(objectID string) []model.MousePosition {
	if rec, ok := r.byObject[objectID]; ok {
		return rec.Positions
	}
	return nil
}

// SourceData returns the captured window geometry for an object.
func (r *Replay) SourceData(objectID string) (model.SourceData, bool) {
	if rec, ok := r.byObject[objectID]; ok {
		return rec.Source, true
	}
	return model.SourceData{}, false
}

// At returns the first recorded sample at or after ts, or nil.
func At(positions []model.MousePosition, ts uint64) *model.MousePosition {
	i := sort.Search(len(positions), func(i int) bool {
		return positions[i].TimestampMs >= ts
	})
	if i == len(positions) {
		return nil
	}
	return &positions[i]
}
