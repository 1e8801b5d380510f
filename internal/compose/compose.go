// Package compose is the software render sink: it rasterizes the
// engine's per-object transforms into RGBA frames suitable for piping
// to an encoder. Logical canvas coordinates are mapped to output pixels
// by a uniform scale.
package compose

import (
	"image"
	"image/color"
	"math"
	"sort"
	"sync"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/math/fixed"

	"github.com/ivlev/animforge/internal/engine"
	"github.com/ivlev/animforge/internal/follow"
	"github.com/ivlev/animforge/internal/model"
	"github.com/ivlev/animforge/internal/system"
)

// Compositor implements engine.Renderer and turns the accumulated state
// into frames. It is safe for the engine goroutine and the encoder
// goroutine to share one.
type Compositor struct {
	outW, outH       int
	canvasW, canvasH float64

	mu       sync.Mutex
	textures map[string]*image.RGBA
	uv       map[string]follow.UVRect
	assets   map[string]image.Image
	sprites  map[string]*image.RGBA
}

// New builds a compositor rendering a canvasW×canvasH logical canvas
// into outW×outH output frames.
func New(outW, outH, canvasW, canvasH int) *Compositor {
	return &Compositor{
		outW:     outW,
		outH:     outH,
		canvasW:  float64(canvasW),
		canvasH:  float64(canvasH),
		textures: make(map[string]*image.RGBA),
		uv:       make(map[string]follow.UVRect),
		assets:   make(map[string]image.Image),
		sprites:  make(map[string]*image.RGBA),
	}
}

// UploadTexture stores a decoded video frame. The engine reuses frame
// buffers, so the pixels are copied.
func (c *Compositor) UploadTexture(objectID string, data []byte, w, h int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	tex := c.textures[objectID]
	if tex == nil || tex.Rect.Dx() != w || tex.Rect.Dy() != h {
		tex = image.NewRGBA(image.Rect(0, 0, w, h))
		c.textures[objectID] = tex
	}
	copy(tex.Pix, data)
}

// SetTransform is part of engine.Renderer. Transforms are read back from
// the runtimes at render time, so nothing is kept here.
func (c *Compositor) SetTransform(objectID string, m [16]float32) {}

// SetUVQuad stores the zoom window for a video object.
func (c *Compositor) SetUVQuad(objectID string, uv follow.UVRect) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.uv[objectID] = uv
}

// RegisterImage attaches a decoded asset to an image object.
func (c *Compositor) RegisterImage(objectID string, img image.Image) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.assets[objectID] = img
	delete(c.sprites, objectID)
}

// Render rasterizes the current state into a frame. Objects draw back
// to front: higher layers sit behind lower ones. Frames come from the
// shared image pool; callers done with a frame should hand it to
// system.PutImage.
func (c *Compositor) Render(background string, runtimes map[string]*engine.ObjectRuntime) *image.RGBA {
	c.mu.Lock()
	defer c.mu.Unlock()

	frame := system.GetImage(image.Rect(0, 0, c.outW, c.outH))
	draw.Draw(frame, frame.Bounds(), image.NewUniform(parseBackground(background)), image.Point{}, draw.Src)

	visible := make([]*engine.ObjectRuntime, 0, len(runtimes))
	for _, rt := range runtimes {
		if !rt.Hidden {
			visible = append(visible, rt)
		}
	}
	sort.Slice(visible, func(i, j int) bool {
		if visible[i].Transform.Layer != visible[j].Transform.Layer {
			return visible[i].Transform.Layer > visible[j].Transform.Layer
		}
		return visible[i].ID < visible[j].ID
	})

	for _, rt := range visible {
		sprite := c.sprite(rt)
		if sprite == nil {
			continue
		}
		c.blit(frame, sprite, rt.Transform)
	}
	return frame
}

// sprite returns the object's source pixels in its own coordinate space.
func (c *Compositor) sprite(rt *engine.ObjectRuntime) *image.RGBA {
	w, h := int(rt.Config.Width), int(rt.Config.Height)
	if w <= 0 || h <= 0 {
		return nil
	}

	switch rt.Kind {
	case model.KindVideo:
		return c.videoSprite(rt, w, h)
	case model.KindImage:
		return c.imageSprite(rt, w, h)
	case model.KindText:
		return c.cachedSprite(rt.ID, w, h, func(dst *image.RGBA) {
			drawText(dst, rt.Config.Content, fillColor(rt.Config.Fill))
		})
	default: // polygon
		return c.cachedSprite(rt.ID, w, h, func(dst *image.RGBA) {
			draw.Draw(dst, dst.Bounds(), image.NewUniform(fillColor(rt.Config.Fill)), image.Point{}, draw.Src)
		})
	}
}

// cachedSprite builds a static sprite once and reuses it.
func (c *Compositor) cachedSprite(id string, w, h int, paint func(*image.RGBA)) *image.RGBA {
	if s := c.sprites[id]; s != nil && s.Rect.Dx() == w && s.Rect.Dy() == h {
		return s
	}
	s := image.NewRGBA(image.Rect(0, 0, w, h))
	paint(s)
	c.sprites[id] = s
	return s
}

// videoSprite crops the latest decoded frame through the zoom window.
// Without a decoded frame yet the object stays invisible.
func (c *Compositor) videoSprite(rt *engine.ObjectRuntime, w, h int) *image.RGBA {
	tex := c.textures[rt.ID]
	if tex == nil {
		return nil
	}
	uv, ok := c.uv[rt.ID]
	if !ok {
		uv = follow.UVRect{UMax: 1, VMax: 1}
	}

	tw, th := float64(tex.Rect.Dx()), float64(tex.Rect.Dy())
	crop := image.Rect(
		int(float64(uv.UMin)*tw), int(float64(uv.VMin)*th),
		int(float64(uv.UMax)*tw), int(float64(uv.VMax)*th),
	).Intersect(tex.Rect)
	if crop.Empty() {
		return nil
	}

	out := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(out, out.Bounds(), tex, crop, draw.Src, nil)
	return out
}

func (c *Compositor) imageSprite(rt *engine.ObjectRuntime, w, h int) *image.RGBA {
	asset := c.assets[rt.ID]
	if asset == nil {
		return nil
	}
	return c.cachedSprite(rt.ID, w, h, func(dst *image.RGBA) {
		draw.ApproxBiLinear.Scale(dst, dst.Bounds(), asset, asset.Bounds(), draw.Src, nil)
	})
}

// blit draws a sprite centered at the transform position with the
// transform's scale, rotation and opacity applied.
func (c *Compositor) blit(dst *image.RGBA, src *image.RGBA, tr engine.Transform) {
	if tr.Opacity <= 0 {
		return
	}

	k := float64(c.outW) / c.canvasW
	w := float64(src.Rect.Dx())
	h := float64(src.Rect.Dy())

	// output scale * translate * rotate * scale * center
	m := mul(f64.Aff3{k, 0, 0, 0, k, 0}, f64.Aff3{1, 0, tr.X, 0, 1, tr.Y})
	m = mul(m, rotation(tr.Rotation))
	m = mul(m, f64.Aff3{tr.ScaleX, 0, 0, 0, tr.ScaleY, 0})
	m = mul(m, f64.Aff3{1, 0, -w / 2, 0, 1, -h / 2})

	var opts *draw.Options
	if tr.Opacity < 1 {
		alpha := uint8(tr.Opacity*255 + 0.5)
		opts = &draw.Options{SrcMask: image.NewUniform(color.Alpha{A: alpha})}
	}
	draw.ApproxBiLinear.Transform(dst, m, src, src.Bounds(), draw.Over, opts)
}

func rotation(rad float64) f64.Aff3 {
	if rad == 0 {
		return f64.Aff3{1, 0, 0, 0, 1, 0}
	}
	sin, cos := math.Sincos(rad)
	return f64.Aff3{cos, -sin, 0, sin, cos, 0}
}

func mul(a, b f64.Aff3) f64.Aff3 {
	return f64.Aff3{
		a[0]*b[0] + a[1]*b[3], a[0]*b[1] + a[1]*b[4], a[0]*b[2] + a[1]*b[5] + a[2],
		a[3]*b[0] + a[4]*b[3], a[3]*b[1] + a[4]*b[4], a[3]*b[2] + a[4]*b[5] + a[5],
	}
}

// drawText renders content with the built-in 7x13 face, centered
// vertically, left-padded a glyph width.
func drawText(dst *image.RGBA, content string, col color.Color) {
	face := basicfont.Face7x13
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(col),
		Face: face,
		Dot: fixed.P(
			face.Advance,
			dst.Rect.Dy()/2+face.Ascent/2,
		),
	}
	d.DrawString(content)
}

// parseBackground accepts "#rrggbb" hex colors; anything unparseable
// falls back to black.
func parseBackground(s string) color.Color {
	if s == "" {
		return color.Black
	}
	col, err := colorful.Hex(s)
	if err != nil {
		return color.Black
	}
	r, g, b := col.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

func fillColor(f model.Color) color.Color {
	return color.RGBA{
		R: clamp255(f[0]),
		G: clamp255(f[1]),
		B: clamp255(f[2]),
		A: clamp255(f[3]),
	}
}

func clamp255(v int32) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
