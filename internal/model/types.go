package model

// TimeMs is an integer count of milliseconds. All stored times use this
// unit; sub-millisecond precision only exists inside interpolation math.
type TimeMs int64

// Point is a position on the logical 2D canvas (origin top-left, +y down).
type Point struct {
	X int32 `yaml:"x"`
	Y int32 `yaml:"y"`
}

// Easing selects the progress curve applied to a segment.
type Easing string

const (
	EasingLinear    Easing = "linear"
	EasingEaseIn    Easing = "ease_in"
	EasingEaseOut   Easing = "ease_out"
	EasingEaseInOut Easing = "ease_in_out"
)

// PathKind selects how positions travel between two keyframes.
type PathKind string

const (
	PathLinear PathKind = "linear"
	PathBezier PathKind = "bezier"
)

// PathSpec describes the motion path carried by the left keyframe of a
// segment. Control points are optional; missing points default to the
// thirds of the straight segment.
type PathSpec struct {
	Kind  PathKind `yaml:"kind"`
	Ctrl1 *Point   `yaml:"ctrl1,omitempty"`
	Ctrl2 *Point   `yaml:"ctrl2,omitempty"`
}

// KeyframeKind distinguishes point keyframes from range-hold keyframes.
type KeyframeKind string

const (
	// KindFrame is a plain time-anchored value.
	KindFrame KeyframeKind = "frame"
	// KindRange holds the keyframe value over [Time, EndTime) before the
	// next segment starts interpolating at EndTime.
	KindRange KeyframeKind = "range"
)

// ValueKind tags the variant stored in a KeyValue.
type ValueKind string

const (
	ValuePosition     ValueKind = "position"
	ValueRotation     ValueKind = "rotation"
	ValueScale        ValueKind = "scale"
	ValueOpacity      ValueKind = "opacity"
	ValueZoom         ValueKind = "zoom"
	ValuePerspectiveX ValueKind = "perspective_x"
	ValuePerspectiveY ValueKind = "perspective_y"
	ValueCustom       ValueKind = "custom"
)

// KeyValue is the tagged variant a keyframe animates. Values are stored as
// integers so equality and serialization stay exact; scale, opacity and
// zoom are hundredths (100 == 1.0), rotation is whole degrees.
type KeyValue struct {
	Kind   ValueKind `yaml:"kind"`
	X      int32     `yaml:"x,omitempty"`
	Y      int32     `yaml:"y,omitempty"`
	Scalar int32     `yaml:"scalar,omitempty"`
	Custom []int32   `yaml:"custom,omitempty"`
}

// PositionValue builds a Position KeyValue.
func PositionValue(x, y int32) KeyValue {
	return KeyValue{Kind: ValuePosition, X: x, Y: y}
}

// RotationValue builds a Rotation KeyValue in whole degrees.
func RotationValue(deg int32) KeyValue {
	return KeyValue{Kind: ValueRotation, Scalar: deg}
}

// ScaleValue builds a Scale KeyValue in hundredths (100 == 1.0).
func ScaleValue(pct int32) KeyValue {
	return KeyValue{Kind: ValueScale, Scalar: pct}
}

// OpacityValue builds an Opacity KeyValue in hundredths (100 == 1.0).
func OpacityValue(pct int32) KeyValue {
	return KeyValue{Kind: ValueOpacity, Scalar: pct}
}

// ZoomValue builds a Zoom KeyValue in hundredths (100 == 1x).
func ZoomValue(pct int32) KeyValue {
	return KeyValue{Kind: ValueZoom, Scalar: pct}
}

// Equal reports whether two values match exactly. Values are integers,
// so no tolerance is involved. The Custom slice makes KeyValue
// non-comparable with ==.
func (v KeyValue) Equal(o KeyValue) bool {
	if v.Kind != o.Kind || v.X != o.X || v.Y != o.Y || v.Scalar != o.Scalar {
		return false
	}
	if len(v.Custom) != len(o.Custom) {
		return false
	}
	for i := range v.Custom {
		if v.Custom[i] != o.Custom[i] {
			return false
		}
	}
	return true
}

// Keyframe is a time-anchored value in a property track.
type Keyframe struct {
	ID     string       `yaml:"id"`
	Time   TimeMs       `yaml:"time"`
	Value  KeyValue     `yaml:"value"`
	Easing Easing       `yaml:"easing"`
	Path   PathSpec     `yaml:"path"`
	Kind   KeyframeKind `yaml:"kind"`
	// EndTime is only meaningful when Kind == KindRange.
	EndTime TimeMs `yaml:"end_time,omitempty"`
}

// PropertyTrack is an ordered run of keyframes for one animated property.
type PropertyTrack struct {
	Name         string     `yaml:"name"`
	PropertyPath string     `yaml:"property_path"`
	Keyframes    []Keyframe `yaml:"keyframes"`
	// Depth is a UI grouping hint; the core ignores it.
	Depth int `yaml:"depth,omitempty"`
}

// Well-known property paths.
const (
	PropPosition = "position"
	PropRotation = "rotation"
	PropScale    = "scale"
	PropOpacity  = "opacity"
	PropZoom     = "zoom"
)

// ObjectKind enumerates the animated object kinds.
type ObjectKind string

const (
	KindPolygon ObjectKind = "polygon"
	KindText    ObjectKind = "text"
	KindImage   ObjectKind = "image"
	KindVideo   ObjectKind = "video"
)

// AnimationData holds one object's full animation within a sequence.
type AnimationData struct {
	ObjectID    string          `yaml:"object_id"`
	ObjectKind  ObjectKind      `yaml:"object_kind"`
	Duration    TimeMs          `yaml:"duration"`
	StartTimeMs TimeMs          `yaml:"start_time_ms"`
	// Position is a group offset added to every sampled position.
	Position Point           `yaml:"position"`
	Tracks   []PropertyTrack `yaml:"properties"`
}

// Track returns the track with the given property path, or nil.
func (a *AnimationData) Track(propertyPath string) *PropertyTrack {
	for i := range a.Tracks {
		if a.Tracks[i].PropertyPath == propertyPath {
			return &a.Tracks[i]
		}
	}
	return nil
}

// Color is a stored RGBA color, each channel 0-255.
type Color [4]int32

// ObjectConfig describes one placed object of a sequence.
type ObjectConfig struct {
	ID        string `yaml:"id"`
	Name      string `yaml:"name,omitempty"`
	Width     int32  `yaml:"width"`
	Height    int32  `yaml:"height"`
	Position  Point  `yaml:"position"`
	Layer     int32  `yaml:"layer"`
	Fill      Color  `yaml:"fill,omitempty"`
	// Text objects only.
	Content  string `yaml:"content,omitempty"`
	FontSize int32  `yaml:"font_size,omitempty"`
	// Image and video objects only.
	Path string `yaml:"path,omitempty"`
	// Video objects only.
	SourceDurationMs TimeMs  `yaml:"source_duration_ms,omitempty"`
	FrameRate        float64 `yaml:"frame_rate,omitempty"`
}

// Sequence is one scene: its objects, their animations and a background.
type Sequence struct {
	ID              string          `yaml:"id"`
	Name            string          `yaml:"name,omitempty"`
	DurationMs      TimeMs          `yaml:"duration_ms"`
	Background      string          `yaml:"background,omitempty"`
	Animations      []AnimationData `yaml:"animations"`
	ActivePolygons  []ObjectConfig  `yaml:"active_polygons,omitempty"`
	ActiveTextItems []ObjectConfig  `yaml:"active_text_items,omitempty"`
	ActiveImages    []ObjectConfig  `yaml:"active_image_items,omitempty"`
	ActiveVideos    []ObjectConfig  `yaml:"active_video_items,omitempty"`
}

// Animation returns the AnimationData for an object id, or nil.
func (s *Sequence) Animation(objectID string) *AnimationData {
	for i := range s.Animations {
		if s.Animations[i].ObjectID == objectID {
			return &s.Animations[i]
		}
	}
	return nil
}

// Object returns the ObjectConfig and kind for an object id.
func (s *Sequence) Object(objectID string) (*ObjectConfig, ObjectKind) {
	lists := []struct {
		items []ObjectConfig
		kind  ObjectKind
	}{
		{s.ActivePolygons, KindPolygon},
		{s.ActiveTextItems, KindText},
		{s.ActiveImages, KindImage},
		{s.ActiveVideos, KindVideo},
	}
	for _, l := range lists {
		for i := range l.items {
			if l.items[i].ID == objectID {
				return &l.items[i], l.kind
			}
		}
	}
	return nil, ""
}

// TrackKind is the timeline track a sequence entry sits on.
type TrackKind string

const (
	TrackVideo TrackKind = "video"
	TrackAudio TrackKind = "audio"
)

// TimelineEntry schedules one sequence on the timeline.
type TimelineEntry struct {
	SequenceID  string    `yaml:"sequence_id"`
	TrackKind   TrackKind `yaml:"track_kind"`
	StartTimeMs TimeMs    `yaml:"start_time_ms"`
	DurationMs  TimeMs    `yaml:"duration_ms"`
}

// TimelineState is the ordered list of scheduled entries. Order is
// significant: when entries overlap, the first declared wins.
type TimelineState struct {
	Entries []TimelineEntry `yaml:"timeline_entries"`
}

// MousePosition is one recorded cursor sample in capture pixel space.
type MousePosition struct {
	X           float32 `yaml:"x"`
	Y           float32 `yaml:"y"`
	TimestampMs uint64  `yaml:"timestamp_ms"`
}

// SourceData records the captured window's origin and size at capture
// time, used to remap mouse pixels into video texture coordinates.
type SourceData struct {
	X      float32 `yaml:"x"`
	Y      float32 `yaml:"y"`
	Width  float32 `yaml:"width"`
	Height float32 `yaml:"height"`
}
