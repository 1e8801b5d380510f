// Package export renders a project to a video file. The engine is
// driven with deterministic override times, one per output frame, and
// the composited RGBA frames stream into ffmpeg over stdin.
package export

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ivlev/animforge/internal/compose"
	"github.com/ivlev/animforge/internal/config"
	"github.com/ivlev/animforge/internal/engine"
	"github.com/ivlev/animforge/internal/model"
	"github.com/ivlev/animforge/internal/store"
	"github.com/ivlev/animforge/internal/system"
)

// Exporter renders one project end to end.
type Exporter struct {
	cfg   config.Config
	store *store.Store
	eng   *engine.Engine
	comp  *compose.Compositor
	log   *logrus.Logger
}

// New assembles an exporter over already-built collaborators.
func New(cfg config.Config, s *store.Store, eng *engine.Engine, comp *compose.Compositor, log *logrus.Logger) *Exporter {
	if log == nil {
		log = logrus.New()
	}
	return &Exporter{cfg: cfg, store: s, eng: eng, comp: comp, log: log}
}

// Run renders every timeline frame and encodes the result.
func (e *Exporter) Run(ctx context.Context) error {
	startTime := time.Now()

	timeline := e.store.Timeline()
	durationMs := timelineEnd(&timeline)
	if durationMs == 0 {
		return fmt.Errorf("timeline is empty, nothing to export")
	}
	totalFrames := int(math.Ceil(float64(durationMs) / 1000 * float64(e.cfg.FPS)))

	e.log.WithFields(logrus.Fields{
		"output":   e.cfg.OutputVideo,
		"frames":   totalFrames,
		"fps":      e.cfg.FPS,
		"encoder":  e.cfg.VideoEncoder,
		"duration": time.Duration(durationMs) * time.Millisecond,
	}).Info("[*] export started")

	cmd := exec.CommandContext(ctx, "ffmpeg", buildFFmpegArgs(e.cfg)...)
	var ffmpegLog bytes.Buffer
	cmd.Stdout = &ffmpegLog
	cmd.Stderr = &ffmpegLog

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe error: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("ffmpeg start error: %w", err)
	}

	pipeErr := e.pipeline(ctx, stdin, totalFrames)
	stdin.Close()
	waitErr := cmd.Wait()

	if pipeErr != nil {
		return pipeErr
	}
	if waitErr != nil {
		return fmt.Errorf("ffmpeg wait error: %w\nLog: %s", waitErr, ffmpegLog.String())
	}

	e.report(startTime, totalFrames)
	return nil
}

// pipeline renders frames on one goroutine and writes them on another,
// so the encoder can consume while the next frame composites.
func (e *Exporter) pipeline(ctx context.Context, sink io.Writer, totalFrames int) error {
	g, ctx := errgroup.WithContext(ctx)
	frames := make(chan *image.RGBA, 4)

	g.Go(func() error {
		defer close(frames)
		for i := 0; i < totalFrames; i++ {
			t := float64(i) / float64(e.cfg.FPS)
			if err := e.eng.Step(time.Time{}, &t); err != nil {
				return fmt.Errorf("step frame %d: %w", i, err)
			}
			frame := e.comp.Render(e.eng.Background(), e.eng.Runtimes())

			select {
			case frames <- frame:
			case <-ctx.Done():
				return ctx.Err()
			}

			if e.cfg.FPS > 0 && (i+1)%e.cfg.FPS == 0 {
				e.log.Infof("[>] Ready: %d/%d", i+1, totalFrames)
			}
		}
		return nil
	})

	g.Go(func() error {
		for frame := range frames {
			_, err := sink.Write(frame.Pix)
			system.PutImage(frame)
			if err != nil {
				return fmt.Errorf("write raw error: %w", err)
			}
		}
		return nil
	})

	return g.Wait()
}

// report prints and appends the performance summary when stats are on.
func (e *Exporter) report(startTime time.Time, totalFrames int) {
	if !e.cfg.ShowStats {
		return
	}

	totalTime := time.Since(startTime)
	fps := float64(totalFrames) / totalTime.Seconds()
	usage := system.SnapshotUsage()

	report := fmt.Sprintf(
		"--- [PERFORMANCE REPORT] ---\n"+
			"Build: %s\n"+
			"Total Time: %.2fs\n"+
			"Frames: %d\n"+
			"Effective FPS: %.2f\n"+
			"CPU: %d cores @ %.1f%%\n"+
			"Memory: %d/%d MB (process RSS %d MB)\n"+
			"----------------------------\n",
		e.cfg.BuildVersion, totalTime.Seconds(), totalFrames, fps,
		usage.CPUCores, usage.CPUPercent,
		usage.MemUsedMB, usage.MemTotalMB, usage.ProcessRSSMB,
	)
	fmt.Print(report)

	logEntry := fmt.Sprintf("[%s] Build: %s | Output: %s | Frames: %d | Total: %.2fs | FPS: %.2f | RSS: %dMB\n",
		time.Now().Format("2006-01-02 15:04:05"),
		e.cfg.BuildVersion,
		filepath.Base(e.cfg.OutputVideo),
		totalFrames,
		totalTime.Seconds(),
		fps,
		usage.ProcessRSSMB,
	)

	f, err := os.OpenFile("benchmark.log", os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err == nil {
		f.WriteString(logEntry)
		f.Close()
	} else {
		e.log.Warnf("[!] Failed to write benchmark.log: %v", err)
	}
}

// timelineEnd returns the end of the last video-track entry.
func timelineEnd(state *model.TimelineState) model.TimeMs {
	var end model.TimeMs
	for _, entry := range state.Entries {
		if entry.TrackKind != model.TrackVideo {
			continue
		}
		if e := entry.StartTimeMs + entry.DurationMs; e > end {
			end = e
		}
	}
	return end
}

// buildFFmpegArgs assembles the encode command: rawvideo RGBA on stdin,
// yuv420p out, quality flags per encoder family.
func buildFFmpegArgs(cfg config.Config) []string {
	args := []string{
		"-y",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", cfg.Width, cfg.Height),
		"-framerate", fmt.Sprintf("%d", cfg.FPS),
		"-i", "-",
		"-r", fmt.Sprintf("%d", cfg.FPS),
		"-pix_fmt", "yuv420p",
		"-c:v", cfg.VideoEncoder,
	}

	switch cfg.VideoEncoder {
	case "h264_videotoolbox":
		bitrate := cfg.Quality * 100
		args = append(args, "-b:v", fmt.Sprintf("%dk", bitrate))
	case "h264_nvenc":
		args = append(args, "-cq", fmt.Sprintf("%d", cfg.Quality))
	default: // libx264
		args = append(args, "-crf", fmt.Sprintf("%d", cfg.Quality), "-preset", "medium")
	}

	args = append(args, cfg.OutputVideo)
	return args
}
