package source

import "fmt"

// DecoderSet routes engine decode requests to per-object frame sources.
// It satisfies the engine's VideoDecoder contract.
type DecoderSet struct {
	sources map[string]FrameSource
}

// NewDecoderSet returns an empty set.
func NewDecoderSet() *DecoderSet {
	return &DecoderSet{sources: make(map[string]FrameSource)}
}

// Add registers a frame source for an object id.
func (d *DecoderSet) Add(objectID string, src FrameSource) {
	d.sources[objectID] = src
}

// DecodeNextFrame pulls the next frame of an object's source.
func (d *DecoderSet) DecodeNextFrame(objectID string) ([]byte, error) {
	src, ok := d.sources[objectID]
	if !ok {
		return nil, fmt.Errorf("no frame source for object %s", objectID)
	}
	return src.NextFrame()
}

// Reset rewinds an object's source to its first frame.
func (d *DecoderSet) Reset(objectID string) error {
	src, ok := d.sources[objectID]
	if !ok {
		return fmt.Errorf("no frame source for object %s", objectID)
	}
	return src.Reset()
}

// Close releases every underlying source.
func (d *DecoderSet) Close() {
	for _, src := range d.sources {
		src.Close()
	}
}
