package model

import "errors"

// Sentinel errors shared across the animation core. Only ErrRangeInvariant
// is fatal (a sequence carrying it is rejected at load); the rest are
// recovered locally and logged once per object per sequence activation.
var (
	// ErrMissingTrack: a requested property track does not exist on the
	// object. The property keeps its current value.
	ErrMissingTrack = errors.New("property track not found")

	// ErrSparseTrack: a track has fewer than two keyframes. Same recovery
	// as ErrMissingTrack.
	ErrSparseTrack = errors.New("track has fewer than two keyframes")

	// ErrOutOfRange: a query time fell outside the sequence duration.
	ErrOutOfRange = errors.New("query time outside sequence duration")

	// ErrRangeInvariant: a range keyframe's end time overlaps the next
	// keyframe or does not extend past its own time.
	ErrRangeInvariant = errors.New("range keyframe overlaps next keyframe")

	// ErrAssignInfeasible: the assignment cost matrix has no finite
	// solution; callers fall back to the identity assignment.
	ErrAssignInfeasible = errors.New("assignment cost matrix infeasible")

	// ErrVideoStall: the decoder returned no frame for a valid request.
	ErrVideoStall = errors.New("video decoder returned no frame")

	// ErrFollowUninitialized: follow was requested with an empty mouse
	// recording; zoom is applied centered on the display instead.
	ErrFollowUninitialized = errors.New("mouse recording empty")
)
