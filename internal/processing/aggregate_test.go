package processing

import (
	"image"
	"testing"
	"time"

	"github.com/perchlab/birdwatch/internal/detector"
)

func bird(conf, area float64) detector.Detection {
	return detector.Detection{
		Label:       detector.BirdLabel,
		Confidence:  conf,
		Box:         image.Rect(0, 0, 10, 10),
		AreaPercent: area,
	}
}

func TestAggregateKeepsDetectionFromLaterFrame(t *testing.T) {
	now := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	frames := []FrameDetections{
		{FrameTime: 6.0},
		{FrameTime: 8.0, Detections: []detector.Detection{bird(0.82, 3.1)}},
	}

	decision, pick := Aggregate("clip.mp4", 10.0, frames, now)

	if !decision.HasBird {
		t.Fatal("HasBird = false, want true")
	}
	if decision.Confidence != 0.82 || decision.BirdAreaPercent != 3.1 {
		t.Errorf("got confidence %g area %g, want 0.82 and 3.1",
			decision.Confidence, decision.BirdAreaPercent)
	}
	if decision.FrameTime != 8.0 {
		t.Errorf("FrameTime = %g, want 8.0", decision.FrameTime)
	}
	if decision.VideoDuration != 10.0 {
		t.Errorf("VideoDuration = %g, want 10.0", decision.VideoDuration)
	}
	if !decision.ProcessedAt.Equal(now) {
		t.Errorf("ProcessedAt = %v, want %v", decision.ProcessedAt, now)
	}
	if pick == nil || pick.FrameIndex != 1 {
		t.Errorf("pick = %+v, want frame index 1", pick)
	}
}

func TestAggregateNoDetections(t *testing.T) {
	frames := []FrameDetections{{FrameTime: 2.5}}

	decision, pick := Aggregate("short.mp4", 5.0, frames, time.Now())

	if decision.HasBird {
		t.Error("HasBird = true, want false")
	}
	if decision.Confidence != 0 || decision.BirdAreaPercent != 0 {
		t.Errorf("got confidence %g area %g, want zeros",
			decision.Confidence, decision.BirdAreaPercent)
	}
	if decision.FrameTime != 2.5 {
		t.Errorf("FrameTime = %g, want the sampled frame time 2.5", decision.FrameTime)
	}
	if pick != nil {
		t.Errorf("pick = %+v, want nil", pick)
	}
}

func TestAggregateLargestAreaWins(t *testing.T) {
	// Higher confidence does not beat larger area.
	frames := []FrameDetections{
		{FrameTime: 2.0, Detections: []detector.Detection{bird(0.95, 1.2)}},
		{FrameTime: 4.0, Detections: []detector.Detection{bird(0.60, 8.5)}},
	}

	decision, pick := Aggregate("clip.mp4", 10.0, frames, time.Now())

	if decision.Confidence != 0.60 || decision.BirdAreaPercent != 8.5 {
		t.Errorf("got confidence %g area %g, want the larger-area detection",
			decision.Confidence, decision.BirdAreaPercent)
	}
	if decision.FrameTime != 4.0 {
		t.Errorf("FrameTime = %g, want 4.0", decision.FrameTime)
	}
	if pick == nil || pick.FrameIndex != 1 {
		t.Errorf("pick = %+v, want frame index 1", pick)
	}
}

func TestAggregateTieKeepsEarliestFrame(t *testing.T) {
	frames := []FrameDetections{
		{FrameTime: 2.0, Detections: []detector.Detection{bird(0.7, 5.0)}},
		{FrameTime: 4.0, Detections: []detector.Detection{bird(0.9, 5.0)}},
	}

	decision, pick := Aggregate("clip.mp4", 10.0, frames, time.Now())

	if decision.FrameTime != 2.0 {
		t.Errorf("FrameTime = %g, want the earlier frame 2.0", decision.FrameTime)
	}
	if pick == nil || pick.FrameIndex != 0 {
		t.Errorf("pick = %+v, want frame index 0", pick)
	}
}

func TestAggregateIsDeterministic(t *testing.T) {
	now := time.Now()
	frames := []FrameDetections{
		{FrameTime: 2.0, Detections: []detector.Detection{bird(0.7, 3.0), bird(0.8, 6.0)}},
		{FrameTime: 4.0, Detections: []detector.Detection{bird(0.9, 4.0)}},
	}

	first, _ := Aggregate("clip.mp4", 10.0, frames, now)
	second, _ := Aggregate("clip.mp4", 10.0, frames, now)

	if first != second {
		t.Errorf("repeated aggregation differs: %+v vs %+v", first, second)
	}
}

func TestAggregateEmptyFrames(t *testing.T) {
	decision, pick := Aggregate("clip.mp4", 10.0, nil, time.Now())
	if decision.HasBird || pick != nil {
		t.Errorf("got %+v with pick %+v, want negative decision and nil pick", decision, pick)
	}
}
