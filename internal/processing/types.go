// Package processing contains the batch pipeline that turns videos into
// per-video bird decisions.
package processing

import (
	"context"
	"time"

	"github.com/perchlab/birdwatch/internal/detector"
	"github.com/perchlab/birdwatch/internal/extractor"
	"github.com/perchlab/birdwatch/internal/ffprobe"
)

// VideoItem is one video known to the source.
type VideoItem struct {
	// Filename identifies the video and keys the result store.
	Filename string
	// Locator is the source-specific reference used to fetch the bytes.
	Locator string
	// DownloadName is the preferred name when saving a copy of the video.
	// Empty falls back to Filename.
	DownloadName string
}

// SaveName returns the name under which a copy of the video is saved.
func (v VideoItem) SaveName() string {
	if v.DownloadName != "" {
		return v.DownloadName
	}
	return v.Filename
}

// VideoSource lists available videos and fetches them to local files.
type VideoSource interface {
	// List returns the videos available for processing.
	List(ctx context.Context) ([]VideoItem, error)
	// Fetch downloads the item to a local file. The caller must invoke
	// cleanup when done with the file.
	Fetch(ctx context.Context, item VideoItem) (localPath string, cleanup func(), err error)
}

// Decision is the per-video verdict persisted to the result store.
type Decision struct {
	Filename        string
	HasBird         bool
	Confidence      float64
	BirdAreaPercent float64
	VideoDuration   float64
	FrameTime       float64
	ProcessedAt     time.Time
}

// StoreStats summarizes the result store contents.
type StoreStats struct {
	Total   int64
	Birds   int64
	NoBirds int64
}

// ResultStore persists decisions keyed by filename.
type ResultStore interface {
	// Upsert inserts or replaces the decision for its filename.
	Upsert(ctx context.Context, d Decision) error
	// IsProcessed reports whether a decision exists for the filename.
	IsProcessed(ctx context.Context, filename string) (bool, error)
	// Stats returns cumulative store statistics.
	Stats(ctx context.Context) (StoreStats, error)
}

// Prober reads media information for a local video file.
type Prober interface {
	Probe(ctx context.Context, path string) (*ffprobe.MediaInfo, error)
}

// ProbeFunc adapts a probing function to the Prober interface.
type ProbeFunc func(ctx context.Context, path string) (*ffprobe.MediaInfo, error)

func (f ProbeFunc) Probe(ctx context.Context, path string) (*ffprobe.MediaInfo, error) {
	return f(ctx, path)
}

// FrameSampler extracts a still frame at a resolved sample point.
type FrameSampler interface {
	Extract(ctx context.Context, videoPath string, point extractor.SamplePoint) (*extractor.Frame, error)
}

// FrameDetections pairs one sampled frame with the detections that survived
// filtering on it.
type FrameDetections struct {
	// FrameTime is the actual decode timestamp in seconds.
	FrameTime  float64
	Detections []detector.Detection
}

// ItemResult is the outcome for one video in a batch. Exactly one of
// Decision and Err is meaningful: Err is nil when the video was analyzed.
type ItemResult struct {
	Item     VideoItem
	Decision Decision
	Err      error
}

// Counters accumulates batch outcomes.
type Counters struct {
	Processed  int
	BirdsFound int
	Failed     int
	// Unsaved counts videos whose decision could not be persisted.
	Unsaved int
}
