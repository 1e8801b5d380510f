// Package store owns the loaded sequences and the timeline, and gives the
// engine read-only access to property tracks. Mutations happen only
// between engine steps: editor operations or the synthesizer replacing an
// object's animation data.
package store

import (
	"fmt"
	"sync"

	"github.com/ivlev/animforge/internal/model"
)

// Store holds sequences keyed by id.
type Store struct {
	mu        sync.RWMutex
	sequences map[string]*model.Sequence
	timeline  model.TimelineState
}

// New returns an empty store.
func New() *Store {
	return &Store{sequences: make(map[string]*model.Sequence)}
}

// AddSequence validates and registers a sequence. A sequence violating the
// range-keyframe invariant is rejected here, at load.
func (s *Store) AddSequence(seq *model.Sequence) error {
	if err := seq.Validate(); err != nil {
		return fmt.Errorf("sequence %s rejected: %w", seq.ID, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sequences[seq.ID] = seq
	return nil
}

// Sequence returns the sequence with the given id, or nil.
func (s *Store) Sequence(id string) *model.Sequence {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sequences[id]
}

// SetTimeline replaces the timeline state.
func (s *Store) SetTimeline(state model.TimelineState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timeline = state
}

// Timeline returns the current timeline state.
func (s *Store) Timeline() model.TimelineState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.timeline
}

// Track resolves a property track for an object within a sequence.
func (s *Store) Track(sequenceID, objectID, propertyPath string) (*model.PropertyTrack, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seq := s.sequences[sequenceID]
	if seq == nil {
		return nil, fmt.Errorf("sequence %s: %w", sequenceID, model.ErrMissingTrack)
	}
	anim := seq.Animation(objectID)
	if anim == nil {
		return nil, fmt.Errorf("object %s: %w", objectID, model.ErrMissingTrack)
	}
	track := anim.Track(propertyPath)
	if track == nil {
		return nil, fmt.Errorf("object %s property %q: %w", objectID, propertyPath, model.ErrMissingTrack)
	}
	return track, nil
}

// ReplaceAnimation swaps one object's animation data atomically. The
// synthesizer calls this after emitting new tracks; a missing object slot
// is appended.
func (s *Store) ReplaceAnimation(sequenceID string, anim model.AnimationData) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seq := s.sequences[sequenceID]
	if seq == nil {
		return fmt.Errorf("sequence %s not found", sequenceID)
	}
	for i := range seq.Animations {
		if seq.Animations[i].ObjectID == anim.ObjectID {
			seq.Animations[i] = anim
			return nil
		}
	}
	seq.Animations = append(seq.Animations, anim)
	return nil
}
