package model

import "fmt"

// Validate checks the load-time invariants of a sequence. A violation of
// the range-keyframe invariant rejects the whole sequence; everything the
// engine can recover from locally is not checked here.
func (s *Sequence) Validate() error {
	if s.DurationMs <= 0 {
		return fmt.Errorf("sequence %s: non-positive duration %d", s.ID, s.DurationMs)
	}

	if err := s.validateObjectIDs(); err != nil {
		return err
	}

	for i := range s.Animations {
		anim := &s.Animations[i]
		for j := range anim.Tracks {
			track := &anim.Tracks[j]
			if err := validateTrack(track); err != nil {
				return fmt.Errorf("object %s track %q: %w", anim.ObjectID, track.PropertyPath, err)
			}
		}
		if err := validateZoomTrack(anim); err != nil {
			return err
		}
	}
	return nil
}

// validateTrack checks ordering and the range invariant within one track.
func validateTrack(track *PropertyTrack) error {
	kfs := track.Keyframes
	for i := range kfs {
		if i > 0 && kfs[i].Time <= kfs[i-1].Time {
			return fmt.Errorf("keyframe %d at %dms not after previous at %dms", i, kfs[i].Time, kfs[i-1].Time)
		}
		if kfs[i].Kind != KindRange {
			continue
		}
		if kfs[i].EndTime <= kfs[i].Time {
			return fmt.Errorf("keyframe %d: %w", i, ErrRangeInvariant)
		}
		if i+1 < len(kfs) && kfs[i].EndTime >= kfs[i+1].Time {
			return fmt.Errorf("keyframe %d: %w", i, ErrRangeInvariant)
		}
	}
	return nil
}

// validateZoomTrack enforces that a zoom track exists exactly on video
// objects: non-videos must not carry one, videos must.
func validateZoomTrack(anim *AnimationData) error {
	hasZoom := anim.Track(PropZoom) != nil
	if hasZoom && anim.ObjectKind != KindVideo {
		return fmt.Errorf("object %s: zoom track on non-video kind %s", anim.ObjectID, anim.ObjectKind)
	}
	if !hasZoom && anim.ObjectKind == KindVideo {
		return fmt.Errorf("object %s: video animation without a zoom track", anim.ObjectID)
	}
	return nil
}

func (s *Sequence) validateObjectIDs() error {
	seen := make(map[string]bool)
	for _, list := range [][]ObjectConfig{s.ActivePolygons, s.ActiveTextItems, s.ActiveImages, s.ActiveVideos} {
		for i := range list {
			id := list[i].ID
			if seen[id] {
				return fmt.Errorf("sequence %s: duplicate object id %s", s.ID, id)
			}
			seen[id] = true
		}
	}
	return nil
}
