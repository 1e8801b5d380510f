package source

import (
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"
)

// FrameSource yields decoded RGBA frames in presentation order.
type FrameSource interface {
	// NextFrame returns the next frame's pixels, or io.EOF at the end.
	NextFrame() ([]byte, error)
	Reset() error
	Close() error
}

// FFmpegFrameSource streams rawvideo RGBA from an ffmpeg child process.
// Frames arrive strictly in order; Reset restarts the process from the
// beginning of the file.
type FFmpegFrameSource struct {
	path   string
	width  int
	height int

	mu    sync.Mutex
	cmd   *exec.Cmd
	out   io.ReadCloser
	frame []byte
}

// NewFFmpegFrameSource prepares a decoder scaled to width×height. The
// process starts lazily on the first NextFrame call.
func NewFFmpegFrameSource(path string, width, height int) *FFmpegFrameSource {
	return &FFmpegFrameSource{
		path:   path,
		width:  width,
		height: height,
		frame:  make([]byte, width*height*4),
	}
}

func (s *FFmpegFrameSource) start() error {
	cmd := exec.Command("ffmpeg",
		"-i", s.path,
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-vf", fmt.Sprintf("scale=%d:%d", s.width, s.height),
		"-",
	)
	out, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("ffmpeg stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("ffmpeg start: %w", err)
	}
	s.cmd = cmd
	s.out = out
	return nil
}

// NextFrame reads one full RGBA frame. The returned slice is reused on
// the next call; callers keeping frames must copy.
func (s *FFmpegFrameSource) NextFrame() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cmd == nil {
		if err := s.start(); err != nil {
			return nil, err
		}
	}

	if _, err := io.ReadFull(s.out, s.frame); err != nil {
		if err == io.ErrUnexpectedEOF {
			err = io.EOF
		}
		return nil, err
	}
	return s.frame, nil
}

// Reset stops the running decoder so the next frame starts from zero.
func (s *FFmpegFrameSource) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stop()
}

// Close terminates the decoder process.
func (s *FFmpegFrameSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stop()
}

func (s *FFmpegFrameSource) stop() error {
	if s.cmd == nil {
		return nil
	}
	s.out.Close()
	s.cmd.Process.Kill()
	s.cmd.Wait()
	s.cmd = nil
	s.out = nil
	return nil
}

// ProbeVideo returns a file's duration in milliseconds and its average
// frame rate using ffprobe.
func ProbeVideo(path string) (durationMs int64, frameRate float64, err error) {
	cmd := exec.Command("ffprobe",
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=avg_frame_rate:format=duration",
		"-of", "default=noprint_wrappers=1:nokey=0",
		path,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return 0, 0, fmt.Errorf("ffprobe %s: %w", path, err)
	}

	for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		key, value, found := strings.Cut(strings.TrimSpace(line), "=")
		if !found {
			continue
		}
		switch key {
		case "duration":
			seconds, perr := strconv.ParseFloat(value, 64)
			if perr == nil {
				durationMs = int64(seconds * 1000)
			}
		case "avg_frame_rate":
			frameRate = parseRational(value)
		}
	}

	if durationMs == 0 || frameRate == 0 {
		return durationMs, frameRate, fmt.Errorf("ffprobe %s: incomplete stream info", path)
	}
	return durationMs, frameRate, nil
}

// parseRational parses ffprobe's "num/den" frame rate form.
func parseRational(s string) float64 {
	num, den, found := strings.Cut(s, "/")
	if !found {
		v, _ := strconv.ParseFloat(s, 64)
		return v
	}
	n, err1 := strconv.ParseFloat(num, 64)
	d, err2 := strconv.ParseFloat(den, 64)
	if err1 != nil || err2 != nil || d == 0 {
		return 0
	}
	return n / d
}
