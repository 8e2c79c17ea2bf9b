package processing

import (
	"time"

	"github.com/perchlab/birdwatch/internal/detector"
)

// Pick identifies the representative detection behind a positive decision,
// so the caller can annotate the frame it came from.
type Pick struct {
	// FrameIndex is the position within the aggregated frames slice.
	FrameIndex int
	Detection  detector.Detection
}

// Aggregate reduces per-frame detections to a single decision for the video.
// The representative detection is the one covering the largest share of its
// frame across all sampled frames; ties keep the earliest frame. With no
// detections anywhere the decision is negative and carries the first sampled
// frame time.
func Aggregate(filename string, duration float64, frames []FrameDetections, now time.Time) (Decision, *Pick) {
	decision := Decision{
		Filename:      filename,
		VideoDuration: duration,
		ProcessedAt:   now,
	}
	if len(frames) > 0 {
		decision.FrameTime = frames[0].FrameTime
	}

	var pick *Pick
	for i, frame := range frames {
		for _, d := range frame.Detections {
			if pick != nil && d.AreaPercent <= pick.Detection.AreaPercent {
				continue
			}
			pick = &Pick{FrameIndex: i, Detection: d}
		}
	}

	if pick != nil {
		decision.HasBird = true
		decision.Confidence = pick.Detection.Confidence
		decision.BirdAreaPercent = pick.Detection.AreaPercent
		decision.FrameTime = frames[pick.FrameIndex].FrameTime
	}

	return decision, pick
}
