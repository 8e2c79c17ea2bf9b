// Package ffprobe provides media information probing using ffprobe.
package ffprobe

import (
	"context"
	"encoding/json"
	"os/exec"
	"strconv"

	"github.com/perchlab/birdwatch/internal/errors"
)

// MediaInfo contains basic media information for a video file.
type MediaInfo struct {
	Duration float64
	Width    int64
	Height   int64
}

// ffprobeOutput represents the JSON output from ffprobe.
type ffprobeOutput struct {
	Format  ffprobeFormat   `json:"format"`
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeFormat struct {
	Duration string `json:"duration"`
}

type ffprobeStream struct {
	CodecType string `json:"codec_type"`
	Width     int64  `json:"width"`
	Height    int64  `json:"height"`
}

// Probe returns media information for a video file. The duration is probed
// once per video by the caller and reused for every sampled frame.
func Probe(ctx context.Context, inputPath string) (*MediaInfo, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		inputPath,
	)

	output, err := cmd.Output()
	if err != nil {
		var stderr string
		if exitErr, ok := err.(*exec.ExitError); ok {
			stderr = string(exitErr.Stderr)
		}
		return nil, errors.WrapExecError("ffprobe", err, stderr)
	}

	return parseMediaInfo(output)
}

// parseMediaInfo parses ffprobe JSON output into MediaInfo.
func parseMediaInfo(output []byte) (*MediaInfo, error) {
	var probe ffprobeOutput
	if err := json.Unmarshal(output, &probe); err != nil {
		return nil, errors.NewJSONParseError("cannot parse ffprobe output", err)
	}

	if probe.Format.Duration == "" {
		return nil, errors.NewFFprobeParseError("no duration in ffprobe output")
	}

	duration, err := strconv.ParseFloat(probe.Format.Duration, 64)
	if err != nil {
		return nil, errors.NewFFprobeParseError("cannot parse duration " + probe.Format.Duration)
	}

	info := &MediaInfo{Duration: duration}

	for _, stream := range probe.Streams {
		if stream.CodecType == "video" {
			info.Width = stream.Width
			info.Height = stream.Height
			break
		}
	}

	return info, nil
}
