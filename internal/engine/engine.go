// Package engine drives the keyframe store and interpolator to write
// per-object transforms each step, gates video objects on their frame
// pacer, and delegates zoom windows to the follow controller.
package engine

import (
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ivlev/animforge/internal/follow"
	"github.com/ivlev/animforge/internal/interp"
	"github.com/ivlev/animforge/internal/model"
	"github.com/ivlev/animforge/internal/store"
	"github.com/ivlev/animforge/internal/timeline"
)

// VideoDecoder is the host-supplied decode collaborator. Frames must come
// back in monotonically advancing order; the engine never seeks except via
// Reset on rewind or sequence activation.
type VideoDecoder interface {
	DecodeNextFrame(objectID string) ([]byte, error)
	Reset(objectID string) error
}

// Renderer is the host-supplied render sink. The engine only hands off
// transform matrices, UV quads and decoded frames; no GPU work happens
// here.
type Renderer interface {
	UploadTexture(objectID string, data []byte, w, h int)
	SetTransform(objectID string, m [16]float32)
	SetUVQuad(objectID string, uv follow.UVRect)
}

// CaptureSource gives read-only access to the recorded mouse stream and
// captured window geometry of a video object.
type CaptureSource interface {
	MousePositions(objectID string) []model.MousePosition
	SourceData(objectID string) (model.SourceData, bool)
}

// Engine owns the per-object runtimes of the active sequence.
type Engine struct {
	store    *store.Store
	composer timeline.Composer
	clock    timeline.Clock
	decoder  VideoDecoder
	capture  CaptureSource
	renderer Renderer
	log      *logrus.Logger

	runtimes   map[string]*ObjectRuntime
	background string
	// warned dedups non-fatal error logs per object per activation.
	warned map[string]bool
}

// New builds an engine over a loaded store. decoder, capture and renderer
// may be nil for sequences without video objects or for headless tests.
func New(s *store.Store, decoder VideoDecoder, capture CaptureSource, renderer Renderer, log *logrus.Logger) *Engine {
	if log == nil {
		log = logrus.New()
	}
	return &Engine{
		store:    s,
		decoder:  decoder,
		capture:  capture,
		renderer: renderer,
		log:      log,
		runtimes: make(map[string]*ObjectRuntime),
		warned:   make(map[string]bool),
	}
}

// Start begins a playing epoch and rewinds every video pacer.
func (e *Engine) Start(now time.Time) {
	e.clock.Start(now)
	for _, rt := range e.runtimes {
		if rt.Pacer != nil {
			rt.Pacer.Reset()
		}
	}
}

// Stop halts future steps without rewinding.
func (e *Engine) Stop() {
	e.clock.Stop()
}

// Playing reports whether the engine clock is running.
func (e *Engine) Playing() bool {
	return e.clock.Playing()
}

// Step advances the animation to the instant described by now, or by the
// override time in seconds when non-nil (the export path). It resolves the
// timeline, samples every active track and writes the results into object
// runtimes. The only other side effects are bounded decode requests.
func (e *Engine) Step(now time.Time, override *float64) error {
	tSec := e.clock.SampleTime(now, override)
	tMs := model.TimeMs(tSec * 1000)

	state := e.store.Timeline()
	res, ok := e.composer.Resolve(&state, tMs)
	if !ok {
		return nil
	}
	if res.Changed {
		if err := e.activateSequence(res.SequenceID); err != nil {
			return err
		}
	}

	seq := e.store.Sequence(res.SequenceID)
	if seq == nil {
		return fmt.Errorf("active sequence %s not in store", res.SequenceID)
	}

	wrapped := res.LocalTimeMs % seq.DurationMs
	for i := range seq.Animations {
		anim := &seq.Animations[i]
		animLocal := wrapped - anim.StartTimeMs
		if animLocal < 0 || animLocal > anim.Duration {
			continue
		}
		rt := e.runtimes[anim.ObjectID]
		if rt == nil || rt.Hidden {
			continue
		}

		if rt.Kind == model.KindVideo {
			// Property samples stay locked to displayed frames: a step
			// that advances no frame updates no properties either.
			if !e.advanceVideo(rt, animLocal) {
				continue
			}
		}

		e.applyTracks(rt, anim, animLocal)

		if e.renderer != nil {
			e.renderer.SetTransform(rt.ID, rt.Matrix())
		}
	}
	return nil
}

// activateSequence swaps the live object set on a timeline crossing:
// runtimes of the new sequence are built fresh and visible, everything
// else is hidden. Video decoders rewind with their pacers.
func (e *Engine) activateSequence(sequenceID string) error {
	seq := e.store.Sequence(sequenceID)
	if seq == nil {
		return fmt.Errorf("sequence %s not in store", sequenceID)
	}

	for _, rt := range e.runtimes {
		rt.Hidden = true
	}
	e.warned = make(map[string]bool)
	e.background = seq.Background

	add := func(items []model.ObjectConfig, kind model.ObjectKind) {
		for i := range items {
			rt := newRuntime(items[i], kind)
			e.runtimes[rt.ID] = rt
			if kind == model.KindVideo && e.decoder != nil {
				if err := e.decoder.Reset(rt.ID); err != nil {
					e.warnOnce(rt.ID, "decoder reset", err)
				}
			}
		}
	}
	add(seq.ActivePolygons, model.KindPolygon)
	add(seq.ActiveTextItems, model.KindText)
	add(seq.ActiveImages, model.KindImage)
	add(seq.ActiveVideos, model.KindVideo)

	e.log.WithField("sequence", sequenceID).Info("[*] sequence activated")
	return nil
}

// Rewind restores every runtime to its sequence-declared initial state.
func (e *Engine) Rewind() {
	for _, rt := range e.runtimes {
		rt.reset()
		if rt.Kind == model.KindVideo && e.decoder != nil {
			if err := e.decoder.Reset(rt.ID); err != nil {
				e.log.WithField("object", rt.ID).Warnf("[!] decoder reset failed: %v", err)
			}
		}
	}
	e.composer.Reset()
	e.warned = make(map[string]bool)
}

// advanceVideo asks the pacer for this step's decode budget and pulls that
// many frames. A stalled decoder counts as a non-advance.
func (e *Engine) advanceVideo(rt *ObjectRuntime, animLocal model.TimeMs) bool {
	plan := rt.Pacer.Plan(
		time.Duration(animLocal)*time.Millisecond,
		rt.Config.FrameRate,
		uint64(rt.Config.SourceDurationMs),
	)
	if plan == 0 {
		return false
	}
	if e.decoder == nil {
		rt.Pacer.Commit(plan)
		return true
	}

	decoded := 0
	for i := 0; i < plan; i++ {
		frame, err := e.decoder.DecodeNextFrame(rt.ID)
		if err != nil || len(frame) == 0 {
			e.warnOnce(rt.ID, "decode", model.ErrVideoStall)
			break
		}
		decoded++
		if e.renderer != nil {
			e.renderer.UploadTexture(rt.ID, frame, int(rt.Config.Width), int(rt.Config.Height))
		}
	}
	rt.Pacer.Commit(decoded)
	return decoded > 0
}

// applyTracks samples every property track at the object-local time and
// writes the results into the runtime transform. Missing or sparse tracks
// leave the property at its current value.
func (e *Engine) applyTracks(rt *ObjectRuntime, anim *model.AnimationData, animLocal model.TimeMs) {
	for j := range anim.Tracks {
		track := &anim.Tracks[j]
		value, err := interp.Sample(track, animLocal)
		if err != nil {
			e.warnOnce(rt.ID, track.PropertyPath, err)
			continue
		}

		switch track.PropertyPath {
		case model.PropPosition:
			rt.Transform.X = float64(value.X + anim.Position.X)
			rt.Transform.Y = float64(value.Y + anim.Position.Y)
		case model.PropRotation:
			rt.Transform.Rotation = float64(value.Scalar) * math.Pi / 180
		case model.PropScale:
			s := float64(value.Scalar) / 100
			rt.Transform.ScaleX = s
			rt.Transform.ScaleY = s
		case model.PropOpacity:
			rt.Transform.Opacity = float64(value.Scalar) / 100
		case model.PropZoom:
			e.applyFollow(rt, animLocal, float64(value.Scalar))
		}
	}
}

// applyFollow runs the follow controller for a video object's zoom track.
func (e *Engine) applyFollow(rt *ObjectRuntime, animLocal model.TimeMs, zoomPct float64) {
	in := follow.Input{
		ElapsedMs:        uint64(animLocal),
		SourceDurationMs: uint64(rt.Config.SourceDurationMs),
		Zoom:             zoomPct,
		DisplayW:         float64(rt.Config.Width),
		DisplayH:         float64(rt.Config.Height),
	}
	if e.capture != nil {
		if src, ok := e.capture.SourceData(rt.ID); ok {
			in.Source = src
			in.Positions = e.capture.MousePositions(rt.ID)
		}
	}

	rect, err := rt.Follow.Step(in)
	if err != nil {
		e.warnOnce(rt.ID, "follow", err)
	}
	rt.UV = rect
	rt.MeshUV = rect.Mesh()
	if e.renderer != nil {
		e.renderer.SetUVQuad(rt.ID, rect)
	}
}

// warnOnce logs a recoverable error once per object per activation.
func (e *Engine) warnOnce(objectID, what string, err error) {
	key := objectID + "/" + what
	if e.warned[key] {
		return
	}
	e.warned[key] = true
	e.log.WithFields(logrus.Fields{
		"object": objectID,
		"where":  what,
	}).Warnf("[!] %v", err)
}

// Runtime returns one object's live state, or nil.
func (e *Engine) Runtime(objectID string) *ObjectRuntime {
	return e.runtimes[objectID]
}

// Runtimes returns the live object set.
func (e *Engine) Runtimes() map[string]*ObjectRuntime {
	return e.runtimes
}

// Background returns the active sequence's background color string.
func (e *Engine) Background() string {
	return e.background
}

// ActiveSequenceID returns the most recent timeline resolution.
func (e *Engine) ActiveSequenceID() string {
	return e.composer.ActiveSequenceID()
}
