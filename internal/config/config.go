// Package config carries the flag-level settings of one export run.
package config

// Config is populated by the CLI and threaded through the export
// pipeline. Canvas dimensions are the logical coordinate space projects
// are authored in; Width and Height are output pixels.
type Config struct {
	ProjectPath  string
	CapturePath  string
	OutputVideo  string
	Width        int
	Height       int
	CanvasWidth  int
	CanvasHeight int
	FPS          int
	VideoEncoder string
	Quality      int
	ShowStats    bool
	BuildVersion string
}

// GenerationOptions are the flag-level settings of track synthesis.
type GenerationOptions struct {
	PredictionsPath string
	SequenceID      string
	Count           int
	Choreographed   bool
	Curved          bool
	Fade            bool
	OutputPath      string
}
