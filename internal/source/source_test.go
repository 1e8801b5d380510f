package source

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func TestParseRational(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"30/1", 30},
		{"30000/1001", 29.97002997002997},
		{"25", 25},
		{"0/0", 0},
		{"bogus", 0},
	}

	for _, tt := range tests {
		if got := parseRational(tt.in); got != tt.want {
			t.Errorf("parseRational(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLoadImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "asset.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create temp image: %v", err)
	}
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, 8, 6))); err != nil {
		t.Fatalf("encode temp image: %v", err)
	}
	f.Close()

	img, err := LoadImage(path)
	if err != nil {
		t.Fatalf("LoadImage failed: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 8 || b.Dy() != 6 {
		t.Errorf("unexpected bounds %v", b)
	}

	w, h, err := ImageDimensions(path)
	if err != nil {
		t.Fatalf("ImageDimensions failed: %v", err)
	}
	if w != 8 || h != 6 {
		t.Errorf("dimensions = %dx%d, want 8x6", w, h)
	}
}

func TestLoadImageMissing(t *testing.T) {
	if _, err := LoadImage(filepath.Join(t.TempDir(), "nope.png")); err == nil {
		t.Error("expected error for missing file")
	}
}
