// Package synth converts raw predicted waypoints into full keyframe
// tracks: it assigns predicted paths to objects, anchors each path to its
// object's current position, inserts a range-hold in the middle and emits
// the constant companion tracks.
package synth

import (
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ivlev/animforge/internal/assign"
	"github.com/ivlev/animforge/internal/model"
)

// Prediction layout constants. The predictor emits a flat float array of
// numObjects × PredSlots × PredFeatures, with percent coordinates relative
// to the logical training canvas.
const (
	PredSlots    = 6
	PredFeatures = 7

	CanvasWidth  = 800
	CanvasHeight = 450
)

// Feature column indices within one predicted keyframe row.
const (
	featObjectIndex = 0
	featTimeSlot    = 1
	featWidth       = 2
	featHeight      = 3
	featX           = 4
	featY           = 5
	featDirection   = 6
)

// Options mirror the generation configuration switches.
type Options struct {
	// Count is the number of keyframes to emit, 4 or 6.
	Count int
	// Choreographed reuses the longest predicted path for every object.
	Choreographed bool
	// Curved replaces straight segments with default cubic Bézier paths.
	Curved bool
	// Fade zeroes opacity at the first and last slot.
	Fade bool
}

// Object is the current state of one animated object, collected in the
// fixed polygon → text → image → video order.
type Object struct {
	ID         string
	Kind       model.ObjectKind
	Center     model.Point
	DurationMs model.TimeMs
}

// defaultDurationMs is used for every non-video object.
const defaultDurationMs = 20000

// CollectObjects lists a sequence's objects in synthesis order. Videos
// animate over their source duration, everything else over the default.
func CollectObjects(seq *model.Sequence) []Object {
	var out []Object
	add := func(items []model.ObjectConfig, kind model.ObjectKind) {
		for i := range items {
			o := Object{
				ID:         items[i].ID,
				Kind:       kind,
				Center:     items[i].Position,
				DurationMs: defaultDurationMs,
			}
			if kind == model.KindVideo && items[i].SourceDurationMs > 0 {
				o.DurationMs = items[i].SourceDurationMs
			}
			out = append(out, o)
		}
	}
	add(seq.ActivePolygons, model.KindPolygon)
	add(seq.ActiveTextItems, model.KindText)
	add(seq.ActiveImages, model.KindImage)
	add(seq.ActiveVideos, model.KindVideo)
	return out
}

type pointF struct {
	x, y float64
}

// Synthesize builds one AnimationData per object from the prediction
// array. The number of predicted paths is len(predictions)/(6·7); extra
// objects reuse their own index modulo that count.
func Synthesize(predictions []float32, objects []Object, opts Options, log *logrus.Logger) ([]model.AnimationData, error) {
	if log == nil {
		log = logrus.New()
	}
	if len(objects) == 0 {
		return nil, nil
	}
	if len(predictions)%(PredSlots*PredFeatures) != 0 {
		return nil, fmt.Errorf("prediction array length %d is not a multiple of %d",
			len(predictions), PredSlots*PredFeatures)
	}
	numPaths := len(predictions) / (PredSlots * PredFeatures)
	if numPaths == 0 {
		return nil, fmt.Errorf("prediction array too short: %d floats", len(predictions))
	}
	if opts.Count != 4 && opts.Count != 6 {
		return nil, fmt.Errorf("unsupported keyframe count %d", opts.Count)
	}

	paths := decodePaths(predictions, numPaths)
	sources := pickSources(paths, objects, opts, log)

	out := make([]model.AnimationData, 0, len(objects))
	for i, obj := range objects {
		path := paths[sources[i]]
		out = append(out, synthesizeObject(obj, path, opts))
	}
	return out, nil
}

// decodePaths denormalizes every predicted keyframe to canvas pixels.
func decodePaths(predictions []float32, numPaths int) [][PredSlots]pointF {
	paths := make([][PredSlots]pointF, numPaths)
	for k := 0; k < numPaths; k++ {
		for slot := 0; slot < PredSlots; slot++ {
			base := (k*PredSlots + slot) * PredFeatures
			paths[k][slot] = pointF{
				x: float64(predictions[base+featX]) / 100 * CanvasWidth,
				y: float64(predictions[base+featY]) / 100 * CanvasHeight,
			}
		}
	}
	return paths
}

// pickSources decides which predicted path each object follows.
// Choreographed mode reuses the longest path everywhere; otherwise paths
// are matched to objects by minimum total third-keyframe distance, with
// the identity assignment as fallback when the solver has no solution.
func pickSources(paths [][PredSlots]pointF, objects []Object, opts Options, log *logrus.Logger) []int {
	sources := make([]int, len(objects))

	if opts.Choreographed {
		best := 0
		bestLen := -1.0
		for k := range paths {
			l := pathLength(paths[k])
			if l > bestLen {
				bestLen = l
				best = k
			}
		}
		for i := range sources {
			sources[i] = best
		}
		return sources
	}

	cost := make([][]float64, len(objects))
	for i, obj := range objects {
		cost[i] = make([]float64, len(paths))
		for k := range paths {
			dx := float64(obj.Center.X) - paths[k][2].x
			dy := float64(obj.Center.Y) - paths[k][2].y
			cost[i][k] = math.Hypot(dx, dy)
		}
	}

	sigma, err := assign.Solve(cost)
	if err != nil {
		log.Warnf("[!] path assignment failed, using identity: %v", err)
		sigma = nil
	}
	for i := range sources {
		if sigma != nil && sigma[i] >= 0 {
			sources[i] = sigma[i]
		} else {
			sources[i] = i % len(paths)
		}
	}
	return sources
}

func pathLength(path [PredSlots]pointF) float64 {
	total := 0.0
	for i := 1; i < PredSlots; i++ {
		total += math.Hypot(path[i].x-path[i-1].x, path[i].y-path[i-1].y)
	}
	return total
}

// slotTimes anchors the first three slots to the start and the last three
// to the end of the object's duration.
func slotTimes(duration model.TimeMs) [PredSlots]model.TimeMs {
	return [PredSlots]model.TimeMs{
		0, 2500, 5000,
		duration - 5000, duration - 2500, duration,
	}
}

func synthesizeObject(obj Object, path [PredSlots]pointF, opts Options) model.AnimationData {
	times := slotTimes(obj.DurationMs)

	// Offset the whole path so the predicted third keyframe lands on the
	// object's current center.
	offset := pointF{
		x: float64(obj.Center.X) - path[2].x,
		y: float64(obj.Center.Y) - path[2].y,
	}

	kfs := make([]model.Keyframe, 0, PredSlots)
	for slot := 0; slot < PredSlots; slot++ {
		kfs = append(kfs, model.Keyframe{
			ID:     uuid.NewString(),
			Time:   times[slot],
			Value:  model.PositionValue(roundI32(path[slot].x+offset.x), roundI32(path[slot].y+offset.y)),
			Easing: model.EasingEaseInOut,
			Path:   model.PathSpec{Kind: model.PathLinear},
			Kind:   model.KindFrame,
		})
	}

	if opts.Count == 4 {
		// Keep slots {0,2,3,5}.
		kfs = []model.Keyframe{kfs[0], kfs[2], kfs[3], kfs[5]}
	}

	kfs = convertRangeHold(kfs)
	if opts.Curved {
		applyAutoBezier(kfs)
	}

	tracks := []model.PropertyTrack{
		{Name: "Position", PropertyPath: model.PropPosition, Keyframes: kfs},
		constantTrack("Rotation", model.PropRotation, times, func(int) model.KeyValue {
			return model.RotationValue(0)
		}),
		constantTrack("Scale", model.PropScale, times, func(int) model.KeyValue {
			return model.ScaleValue(100)
		}),
		constantTrack("Opacity", model.PropOpacity, times, func(slot int) model.KeyValue {
			if opts.Fade && (slot == 0 || slot == PredSlots-1) {
				return model.OpacityValue(0)
			}
			return model.OpacityValue(100)
		}),
	}
	if obj.Kind == model.KindVideo {
		tracks = append(tracks, constantTrack("Zoom", model.PropZoom, times, func(int) model.KeyValue {
			return model.ZoomValue(100)
		}))
	}

	return model.AnimationData{
		ObjectID:    obj.ID,
		ObjectKind:  obj.Kind,
		Duration:    obj.DurationMs,
		StartTimeMs: 0,
		Tracks:      tracks,
	}
}

// convertRangeHold turns the middle of the path into a hold interval: the
// keyframe before the midpoint becomes a range ending where its successor
// sat, and the successor disappears.
func convertRangeHold(kfs []model.Keyframe) []model.Keyframe {
	switch len(kfs) {
	case 6:
		kfs[2].Kind = model.KindRange
		kfs[2].EndTime = kfs[3].Time
		return append(kfs[:3], kfs[4:]...)
	case 4:
		kfs[1].Kind = model.KindRange
		kfs[1].EndTime = kfs[2].Time
		return append(kfs[:2], kfs[3:]...)
	default:
		return kfs
	}
}

// autoBezierBulge is the perpendicular displacement of the default control
// points, as a fraction of the segment length.
const autoBezierBulge = 0.2

// applyAutoBezier replaces each segment's path with a symmetric cubic
// Bézier bowing toward the perpendicular of the segment midpoint.
func applyAutoBezier(kfs []model.Keyframe) {
	for i := 0; i+1 < len(kfs); i++ {
		p0 := kfs[i].Value
		p1 := kfs[i+1].Value
		dx := float64(p1.X - p0.X)
		dy := float64(p1.Y - p0.Y)
		length := math.Hypot(dx, dy)
		if length == 0 {
			continue
		}

		// Unit perpendicular (rotate the chord direction by 90°).
		px := -dy / length
		py := dx / length
		bulge := length * autoBezierBulge

		c1 := model.Point{
			X: roundI32(float64(p0.X) + dx/3 + px*bulge),
			Y: roundI32(float64(p0.Y) + dy/3 + py*bulge),
		}
		c2 := model.Point{
			X: roundI32(float64(p0.X) + dx*2/3 + px*bulge),
			Y: roundI32(float64(p0.Y) + dy*2/3 + py*bulge),
		}
		kfs[i].Path = model.PathSpec{Kind: model.PathBezier, Ctrl1: &c1, Ctrl2: &c2}
	}
}

func constantTrack(name, path string, times [PredSlots]model.TimeMs, value func(slot int) model.KeyValue) model.PropertyTrack {
	kfs := make([]model.Keyframe, 0, PredSlots)
	for slot := 0; slot < PredSlots; slot++ {
		kfs = append(kfs, model.Keyframe{
			ID:     uuid.NewString(),
			Time:   times[slot],
			Value:  value(slot),
			Easing: model.EasingEaseInOut,
			Path:   model.PathSpec{Kind: model.PathLinear},
			Kind:   model.KindFrame,
		})
	}
	return model.PropertyTrack{Name: name, PropertyPath: path, Keyframes: kfs}
}

func roundI32(v float64) int32 {
	return int32(math.Round(v))
}
