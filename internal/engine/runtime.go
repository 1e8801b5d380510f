package engine

import (
	"math"

	"github.com/ivlev/animforge/internal/follow"
	"github.com/ivlev/animforge/internal/model"
)

// Transform is the uniform per-object render state the engine writes.
type Transform struct {
	X, Y     float64
	Rotation float64 // radians
	ScaleX   float64
	ScaleY   float64
	Opacity  float64 // 0..1
	Layer    int32
}

// ObjectRuntime is the live state of one animated object. Video objects
// additionally carry a decode pacer and a follow controller; that state is
// owned here and nowhere else.
type ObjectRuntime struct {
	ID        string
	Kind      model.ObjectKind
	Config    model.ObjectConfig
	Transform Transform
	Hidden    bool

	// Video objects only.
	Pacer  *FramePacer
	Follow *follow.Controller
	UV     follow.UVRect
	MeshUV [][2]float32
}

func newRuntime(cfg model.ObjectConfig, kind model.ObjectKind) *ObjectRuntime {
	rt := &ObjectRuntime{
		ID:     cfg.ID,
		Kind:   kind,
		Config: cfg,
	}
	rt.resetTransform()
	if kind == model.KindVideo {
		rt.Pacer = &FramePacer{}
		rt.Follow = follow.NewController()
		rt.UV = follow.UVRect{UMax: 1, VMax: 1}
	}
	return rt
}

// resetTransform restores the sequence-declared initial state: configured
// position, rotation 0, scale 1, opacity 1.
func (rt *ObjectRuntime) resetTransform() {
	rt.Transform = Transform{
		X:       float64(rt.Config.Position.X),
		Y:       float64(rt.Config.Position.Y),
		ScaleX:  1,
		ScaleY:  1,
		Opacity: 1,
		Layer:   rt.Config.Layer,
	}
}

// reset rewinds all per-object playback state.
func (rt *ObjectRuntime) reset() {
	rt.resetTransform()
	if rt.Pacer != nil {
		rt.Pacer.Reset()
	}
	if rt.Follow != nil {
		rt.Follow.Reset()
		rt.UV = follow.UVRect{UMax: 1, VMax: 1}
		rt.MeshUV = nil
	}
}

// Matrix builds the column-major model matrix handed to the renderer:
// scale, then rotation, then translation, with z derived from the layer.
func (rt *ObjectRuntime) Matrix() [16]float32 {
	tr := rt.Transform
	cos := math.Cos(tr.Rotation)
	sin := math.Sin(tr.Rotation)

	var m [16]float32
	m[0] = float32(cos * tr.ScaleX)
	m[1] = float32(sin * tr.ScaleX)
	m[4] = float32(-sin * tr.ScaleY)
	m[5] = float32(cos * tr.ScaleY)
	m[10] = 1
	m[12] = float32(tr.X)
	m[13] = float32(tr.Y)
	m[14] = float32(tr.Layer) * -0.001
	m[15] = 1
	return m
}
