package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/ivlev/animforge/internal/capture"
	"github.com/ivlev/animforge/internal/compose"
	"github.com/ivlev/animforge/internal/config"
	"github.com/ivlev/animforge/internal/engine"
	"github.com/ivlev/animforge/internal/export"
	"github.com/ivlev/animforge/internal/model"
	"github.com/ivlev/animforge/internal/source"
	"github.com/ivlev/animforge/internal/store"
	"github.com/ivlev/animforge/internal/synth"
	"github.com/ivlev/animforge/internal/system"
)

var buildVersion = "dev"

func main() {
	system.InitResourceLimits()

	dirs := []string{"input/projects", "input/captures", "output"}
	for _, d := range dirs {
		os.MkdirAll(d, 0755)
	}

	projectPtr := flag.String("project", "", "Project YAML path (default: latest file in input/projects/)")
	capturePtr := flag.String("capture", "", "Capture replay path (default: latest file in input/captures/, optional)")
	outputPtr := flag.String("output", "", "Output video path (default: generated in output/)")
	widthPtr := flag.Int("width", 1280, "Output width")
	heightPtr := flag.Int("height", 720, "Output height")
	presetPtr := flag.String("preset", "", "Format preset: 16:9, 9:16 (Shorts/TikTok), 4:5 (Instagram)")
	fpsPtr := flag.Int("fps", 30, "Output frame rate")
	canvasWPtr := flag.Int("canvas-width", 800, "Logical canvas width projects are authored in")
	canvasHPtr := flag.Int("canvas-height", 450, "Logical canvas height projects are authored in")
	qualityPtr := flag.Int("quality", 0, "Video quality (0 is auto, x264: CRF 1-51, VideoToolbox: bitrate = Q*100kbit/s)")
	statsPtr := flag.Bool("stats", false, "Print a performance report after export")
	verbosePtr := flag.Bool("verbose", false, "Debug logging")

	synthPtr := flag.Bool("synth", false, "Synthesize animations from a predictions file instead of exporting")
	predictionsPtr := flag.String("predictions", "", "Predictions YAML (flat float list, 7 features per slot, 6 slots per path)")
	sequencePtr := flag.String("sequence", "", "Sequence id to synthesize into (default: first sequence)")
	synthCountPtr := flag.Int("synth-count", 6, "Keyframes per synthesized track: 6 or 4")
	choreographedPtr := flag.Bool("choreographed", false, "All objects share the longest predicted path")
	curvedPtr := flag.Bool("curved", false, "Bend synthesized segments with auto control points")
	fadePtr := flag.Bool("synth-fade", false, "Fade synthesized objects out at the end")

	flag.Parse()

	logger := logrus.New()
	if *verbosePtr {
		logger.SetLevel(logrus.DebugLevel)
	}

	projectPath := *projectPtr
	if projectPath == "" {
		latest, err := system.FindLatestProject("input/projects")
		if err != nil {
			log.Fatalf("[-] Error: %v. Put a project YAML in input/projects/", err)
		}
		projectPath = latest
		fmt.Printf("[*] Selected project: %s\n", projectPath)
	}

	project, err := store.ReadProject(projectPath)
	if err != nil {
		log.Fatalf("[-] Failed to read project: %v", err)
	}
	s, err := store.Load(project)
	if err != nil {
		log.Fatalf("[-] Failed to load project: %v", err)
	}

	if *synthPtr {
		opts := config.GenerationOptions{
			PredictionsPath: *predictionsPtr,
			SequenceID:      *sequencePtr,
			Count:           *synthCountPtr,
			Choreographed:   *choreographedPtr,
			Curved:          *curvedPtr,
			Fade:            *fadePtr,
			OutputPath:      *outputPtr,
		}
		if opts.OutputPath == "" {
			opts.OutputPath = projectPath
		}
		if err := runSynth(project, s, opts, logger); err != nil {
			log.Fatalf("[-] Synthesis error: %v", err)
		}
		fmt.Printf("[+++] Done! Project written: %s\n", opts.OutputPath)
		return
	}

	width, height := *widthPtr, *heightPtr
	switch *presetPtr {
	case "16:9":
		width, height = 1280, 720
	case "9:16":
		width, height = 720, 1280
	case "4:5":
		width, height = 1080, 1350
	}

	finalOutput := *outputPtr
	if finalOutput == "" {
		baseName := filepath.Base(projectPath)
		nameOnly := strings.TrimSuffix(baseName, filepath.Ext(baseName))
		cleanName := strings.ReplaceAll(nameOnly, " ", "_")
		timestamp := time.Now().Format("2006-01-02_15-04-05")
		finalOutput = filepath.Join("output", fmt.Sprintf("%s_%s.mp4", cleanName, timestamp))
	}

	encoderName, _ := system.GetBestH264Encoder()
	if encoderName != "libx264" {
		fmt.Printf("[*] Hardware encoder detected: %s\n", encoderName)
	}

	quality := *qualityPtr
	if quality == 0 {
		switch encoderName {
		case "h264_videotoolbox":
			quality = 75
		case "h264_nvenc":
			quality = 28
		default:
			quality = 23
		}
	}

	cfg := config.Config{
		ProjectPath:  projectPath,
		CapturePath:  *capturePtr,
		OutputVideo:  finalOutput,
		Width:        width,
		Height:       height,
		CanvasWidth:  *canvasWPtr,
		CanvasHeight: *canvasHPtr,
		FPS:          *fpsPtr,
		VideoEncoder: encoderName,
		Quality:      quality,
		ShowStats:    *statsPtr,
		BuildVersion: buildVersion,
	}

	if err := runExport(cfg, project, s, logger); err != nil {
		log.Fatalf("[-] Export error: %v", err)
	}
	fmt.Printf("[+++] Done! Output: %s\n", cfg.OutputVideo)
}

func runExport(cfg config.Config, project *store.Project, s *store.Store, logger *logrus.Logger) error {
	comp := compose.New(cfg.Width, cfg.Height, cfg.CanvasWidth, cfg.CanvasHeight)

	decoders := source.NewDecoderSet()
	defer decoders.Close()

	for i := range project.Sequences {
		seq := &project.Sequences[i]

		for j := range seq.ActiveImages {
			obj := &seq.ActiveImages[j]
			if obj.Path == "" {
				continue
			}
			img, err := source.LoadImage(obj.Path)
			if err != nil {
				logger.Warnf("[!] Image %s: %v", obj.ID, err)
				continue
			}
			comp.RegisterImage(obj.ID, img)
		}

		for j := range seq.ActiveVideos {
			obj := &seq.ActiveVideos[j]
			if obj.Path == "" {
				continue
			}
			if obj.SourceDurationMs == 0 || obj.FrameRate == 0 {
				durMs, rate, err := source.ProbeVideo(obj.Path)
				if err != nil {
					logger.Warnf("[!] Probe %s: %v", obj.ID, err)
				} else {
					obj.SourceDurationMs = model.TimeMs(durMs)
					obj.FrameRate = rate
				}
			}
			decoders.Add(obj.ID, source.NewFFmpegFrameSource(obj.Path, int(obj.Width), int(obj.Height)))
		}
	}

	var capSource engine.CaptureSource
	capturePath := cfg.CapturePath
	if capturePath == "" {
		if latest, err := system.FindLatestCapture("input/captures"); err == nil {
			capturePath = latest
			fmt.Printf("[*] Selected capture: %s\n", capturePath)
		}
	}
	if capturePath != "" {
		replay, err := capture.ReadReplay(capturePath)
		if err != nil {
			return fmt.Errorf("read capture: %w", err)
		}
		capSource = replay
	}

	eng := engine.New(s, decoders, capSource, comp, logger)
	exp := export.New(cfg, s, eng, comp, logger)
	return exp.Run(context.Background())
}

func runSynth(project *store.Project, s *store.Store, opts config.GenerationOptions, logger *logrus.Logger) error {
	if opts.PredictionsPath == "" {
		return fmt.Errorf("-predictions is required with -synth")
	}
	data, err := os.ReadFile(opts.PredictionsPath)
	if err != nil {
		return err
	}
	var predictions []float32
	if err := yaml.Unmarshal(data, &predictions); err != nil {
		return fmt.Errorf("predictions %s: %w", opts.PredictionsPath, err)
	}

	sequenceID := opts.SequenceID
	if sequenceID == "" {
		if len(project.Sequences) == 0 {
			return fmt.Errorf("project has no sequences")
		}
		sequenceID = project.Sequences[0].ID
	}
	seq := s.Sequence(sequenceID)
	if seq == nil {
		return fmt.Errorf("sequence %s not found", sequenceID)
	}

	objects := synth.CollectObjects(seq)
	if len(objects) == 0 {
		return fmt.Errorf("sequence %s has no objects", sequenceID)
	}

	anims, err := synth.Synthesize(predictions, objects, synth.Options{
		Count:         opts.Count,
		Choreographed: opts.Choreographed,
		Curved:        opts.Curved,
		Fade:          opts.Fade,
	}, logger)
	if err != nil {
		return err
	}

	for _, anim := range anims {
		if err := s.ReplaceAnimation(sequenceID, anim); err != nil {
			return err
		}
	}

	fmt.Printf("[*] Synthesized %d animations in sequence %s\n", len(anims), sequenceID)
	return store.WriteProject(project, opts.OutputPath)
}
