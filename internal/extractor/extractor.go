// Package extractor provides still-frame sampling from video files using ffmpeg.
package extractor

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/perchlab/birdwatch/internal/errors"
	"github.com/perchlab/birdwatch/internal/util"
)

// sampleMergeWindowSecs collapses sample points whose actual times land
// within this many seconds of an earlier point. Clamped requests frequently
// resolve to the same timestamp; decoding the same frame twice is wasted work.
const sampleMergeWindowSecs = 0.1

// DefaultTimeout bounds a single ffmpeg invocation.
const DefaultTimeout = 60 * time.Second

// SamplePoint is a resolved sampling timestamp for one video.
type SamplePoint struct {
	// RequestedTime is the configured timestamp in seconds.
	RequestedTime float64
	// ActualTime is where the frame is decoded. Differs from RequestedTime
	// when the request exceeds the video duration.
	ActualTime float64
}

// Frame is a still image sampled from a video. The path points at a scratch
// file owned by the caller; remove it with Cleanup when done.
type Frame struct {
	Path          string
	RequestedTime float64
	ActualTime    float64
}

// Cleanup removes the frame's scratch file.
func (f *Frame) Cleanup() {
	if f != nil {
		util.RemoveQuietly(f.Path)
	}
}

// SamplePoints resolves configured frame times against a video duration.
// Requests beyond the duration fall back to half the duration. An empty
// request list yields a single fallback sample at half the duration.
// Near-duplicate actual times collapse to the first occurrence.
func SamplePoints(duration float64, frameTimes []float64) []SamplePoint {
	if len(frameTimes) == 0 {
		half := duration * 0.5
		return []SamplePoint{{RequestedTime: half, ActualTime: half}}
	}

	var points []SamplePoint
	for _, requested := range frameTimes {
		actual := requested
		if requested >= duration {
			actual = duration * 0.5
		}

		duplicate := false
		for _, p := range points {
			if math.Abs(p.ActualTime-actual) < sampleMergeWindowSecs {
				duplicate = true
				break
			}
		}
		if duplicate {
			continue
		}

		points = append(points, SamplePoint{RequestedTime: requested, ActualTime: actual})
	}

	return points
}

// Extractor samples still frames from video files.
type Extractor struct {
	scratchDir string
	timeout    time.Duration
}

// Option configures the extractor.
type Option func(*Extractor)

// WithScratchDir sets the directory for temporary frame files.
func WithScratchDir(dir string) Option {
	return func(e *Extractor) { e.scratchDir = dir }
}

// WithTimeout sets the per-invocation ffmpeg timeout.
func WithTimeout(d time.Duration) Option {
	return func(e *Extractor) { e.timeout = d }
}

// New creates a frame extractor.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		scratchDir: os.TempDir(),
		timeout:    DefaultTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract decodes a single frame at the given sample point into a scratch
// JPEG. The frame file is removed on every failure path; on success the
// caller owns it.
func (e *Extractor) Extract(ctx context.Context, videoPath string, point SamplePoint) (*Frame, error) {
	framePath := filepath.Join(e.scratchDir, fmt.Sprintf("frame-%s.jpg", uuid.NewString()))

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-y",
		"-ss", fmt.Sprintf("%.3f", point.ActualTime),
		"-i", videoPath,
		"-frames:v", "1",
		"-q:v", "2",
		framePath,
	)

	var stderr strings.Builder
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		util.RemoveQuietly(framePath)
		if ctx.Err() != nil {
			return nil, errors.NewExtractionError(
				fmt.Sprintf("frame extraction at %.2fs timed out", point.ActualTime), ctx.Err())
		}
		return nil, errors.NewExtractionError(
			fmt.Sprintf("ffmpeg failed at %.2fs", point.ActualTime),
			errors.WrapExecError("ffmpeg", err, stderr.String()))
	}

	info, err := os.Stat(framePath)
	if err != nil || info.Size() == 0 {
		util.RemoveQuietly(framePath)
		return nil, errors.NewExtractionError(
			fmt.Sprintf("ffmpeg produced no output at %.2fs", point.ActualTime), nil)
	}

	return &Frame{
		Path:          framePath,
		RequestedTime: point.RequestedTime,
		ActualTime:    point.ActualTime,
	}, nil
}
