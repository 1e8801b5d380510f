// Package system holds host-facing helpers: resource limits, encoder
// probing, project discovery and resource usage snapshots.
package system

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// InitResourceLimits raises the open-file limit. Export runs keep an
// ffmpeg pipe plus one decoder process per video object alive.
func InitResourceLimits() {
	var rLimit syscall.Rlimit
	err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		log.Printf("[!] Failed to read file limit: %v", err)
		return
	}

	rLimit.Cur = 2048
	if rLimit.Cur > rLimit.Max {
		rLimit.Cur = rLimit.Max
	}

	err = syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		log.Printf("[!] Failed to raise file limit: %v", err)
	} else {
		fmt.Printf("[*] Open file limit raised to %d\n", rLimit.Cur)
	}
}

// FindLatestProject returns the most recently modified project YAML in
// dir.
func FindLatestProject(dir string) (string, error) {
	return findLatest(dir, []string{".yaml", ".yml"}, "project files")
}

// FindLatestCapture returns the most recently modified capture replay
// in dir.
func FindLatestCapture(dir string) (string, error) {
	return findLatest(dir, []string{".capture.yaml", ".capture.yml"}, "capture replays")
}

func findLatest(dir string, extensions []string, what string) (string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	var latestFile string
	var latestTime time.Time

	for _, f := range files {
		if f.IsDir() {
			continue
		}
		matched := false
		for _, ext := range extensions {
			if strings.HasSuffix(strings.ToLower(f.Name()), ext) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(latestTime) {
			latestTime = info.ModTime()
			latestFile = filepath.Join(dir, f.Name())
		}
	}

	if latestFile == "" {
		return "", fmt.Errorf("no %s found in %s", what, dir)
	}
	return latestFile, nil
}

// GetBestH264Encoder probes ffmpeg for a hardware encoder, preferring
// VideoToolbox then NVENC, falling back to libx264.
func GetBestH264Encoder() (string, string) {
	encoders := []struct {
		name string
		args string
	}{
		{"h264_videotoolbox", ""},
		{"h264_nvenc", ""},
	}

	for _, enc := range encoders {
		cmd := exec.Command("ffmpeg", "-encoders")
		out, err := cmd.CombinedOutput()
		if err == nil && strings.Contains(string(out), enc.name) {
			return enc.name, enc.args
		}
	}

	return "libx264", ""
}

// UsageSnapshot is a point-in-time view of host and process load.
type UsageSnapshot struct {
	CPUCores     int
	CPUPercent   float64
	MemUsedMB    uint64
	MemTotalMB   uint64
	ProcessRSSMB uint64
}

// SnapshotUsage collects host CPU and memory figures plus this
// process's resident set. Fields that cannot be read stay zero.
func SnapshotUsage() UsageSnapshot {
	var snap UsageSnapshot

	if cores, err := cpu.Counts(true); err == nil {
		snap.CPUCores = cores
	}
	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		snap.CPUPercent = percents[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		snap.MemUsedMB = vm.Used / 1024 / 1024
		snap.MemTotalMB = vm.Total / 1024 / 1024
	}
	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if info, err := proc.MemoryInfo(); err == nil {
			snap.ProcessRSSMB = info.RSS / 1024 / 1024
		}
	}
	return snap
}
