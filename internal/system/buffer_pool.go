package system

import (
	"image"
	"sync"
)

// ImagePool reuses image.RGBA frame buffers between export frames to
// keep GC pressure flat during long renders.
type ImagePool struct {
	pools map[string]*sync.Pool
	mu    sync.RWMutex
}

var globalPool = &ImagePool{
	pools: make(map[string]*sync.Pool),
}

// GetImage returns a pooled *image.RGBA for rect, allocating when the
// pool has none of that size. Pixels may hold stale data.
func GetImage(rect image.Rectangle) *image.RGBA {
	return globalPool.Get(rect)
}

// PutImage returns a frame buffer to the pool.
func PutImage(img *image.RGBA) {
	globalPool.Put(img)
}

func (p *ImagePool) Get(rect image.Rectangle) *image.RGBA {
	key := rect.String()
	p.mu.RLock()
	pool, exists := p.pools[key]
	p.mu.RUnlock()

	if !exists {
		p.mu.Lock()
		// Double check
		pool, exists = p.pools[key]
		if !exists {
			pool = &sync.Pool{
				New: func() interface{} {
					return image.NewRGBA(rect)
				},
			}
			p.pools[key] = pool
		}
		p.mu.Unlock()
	}

	return pool.Get().(*image.RGBA)
}

func (p *ImagePool) Put(img *image.RGBA) {
	if img == nil {
		return
	}
	key := img.Rect.String()
	p.mu.RLock()
	pool, exists := p.pools[key]
	p.mu.RUnlock()

	if exists {
		pool.Put(img)
	}
}
