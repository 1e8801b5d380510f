// Package source loads the media assets animated objects display: still
// images for image objects and decoded RGBA frame streams for video
// objects. Video decoding is delegated to an external ffmpeg process.
package source

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
)

// LoadImage decodes a PNG or JPEG asset for an image object.
func LoadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// ImageDimensions reads an asset's size without decoding the pixels.
func ImageDimensions(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("decode config %s: %w", path, err)
	}
	return cfg.Width, cfg.Height, nil
}
