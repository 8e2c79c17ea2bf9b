// Package birdwatch provides a Go library for detecting birds in IP camera
// videos.
//
// Birdwatch samples still frames from each video with ffmpeg, runs a YOLO
// object detector over them, and reduces the per-frame detections to one
// decision per video. Decisions are persisted in SQLite so a video is only
// analyzed once.
//
// Basic usage:
//
//	proc, err := birdwatch.New(
//	    birdwatch.WithBaseURL("http://camera.local:8080"),
//	    birdwatch.WithModel("yolov5s.onnx"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := proc.Run(ctx, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Printf("Processed %d videos, %d with birds\n",
//	    result.Processed, result.BirdsFound)
package birdwatch

import (
	"context"
	"time"

	"github.com/perchlab/birdwatch/internal/config"
	"github.com/perchlab/birdwatch/internal/detector"
	"github.com/perchlab/birdwatch/internal/extractor"
	"github.com/perchlab/birdwatch/internal/ffprobe"
	"github.com/perchlab/birdwatch/internal/processing"
	"github.com/perchlab/birdwatch/internal/reporter"
	"github.com/perchlab/birdwatch/internal/source"
	"github.com/perchlab/birdwatch/internal/store"
)

// Reporter receives progress events during processing.
type Reporter = reporter.Reporter

// Decision is the per-video verdict.
type Decision = processing.Decision

// ItemResult is the outcome for one video in a batch.
type ItemResult = processing.ItemResult

// BatchResult summarizes a batch run.
type BatchResult struct {
	// Results holds one entry per video attempted, in processing order.
	Results    []ItemResult
	Processed  int
	BirdsFound int
	Failed     int
	Unsaved    int
}

// Processor is the main entry point for bird detection.
type Processor struct {
	cfg *config.Config
}

// Option configures the processor.
type Option func(*config.Config)

// New creates a new Processor with the given options.
func New(opts ...Option) (*Processor, error) {
	cfg := config.NewConfig()

	for _, opt := range opts {
		opt(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Processor{cfg: cfg}, nil
}

// WithBaseURL sets the camera API base URL.
func WithBaseURL(url string) Option {
	return func(c *config.Config) {
		c.API.BaseURL = url
	}
}

// WithAPITimeout sets the camera API request timeout in seconds.
func WithAPITimeout(secs int) Option {
	return func(c *config.Config) {
		c.API.TimeoutSecs = secs
	}
}

// WithModel sets the detection model file.
func WithModel(path string) Option {
	return func(c *config.Config) {
		c.Detection.Model = path
	}
}

// WithConfidenceThreshold sets the minimum detection confidence kept.
func WithConfidenceThreshold(threshold float64) Option {
	return func(c *config.Config) {
		c.Detection.ConfidenceThreshold = threshold
	}
}

// WithFrameTimes sets the timestamps (seconds) sampled from each video.
func WithFrameTimes(times []float64) Option {
	return func(c *config.Config) {
		c.Detection.FrameTimes = times
	}
}

// WithAreaBounds restricts detections to a bounding-box area range, in
// percent of the frame. Either bound may be nil to leave it open.
func WithAreaBounds(minPercent, maxPercent *float64) Option {
	return func(c *config.Config) {
		c.Detection.MinAreaPercent = minPercent
		c.Detection.MaxAreaPercent = maxPercent
	}
}

// WithDatabasePath sets the SQLite database file.
func WithDatabasePath(path string) Option {
	return func(c *config.Config) {
		c.Database.Path = path
	}
}

// WithOutputDir enables saving bird videos and annotated frames into dir.
func WithOutputDir(dir string) Option {
	return func(c *config.Config) {
		c.Outputs.Directory = dir
	}
}

// Run processes every new video from the camera API. Individual video
// failures appear in the per-item results, not as the returned error, which
// is non-nil only when the batch could not run at all.
func (p *Processor) Run(ctx context.Context, rep Reporter) (*BatchResult, error) {
	if err := p.cfg.ValidateAPI(); err != nil {
		return nil, err
	}

	yolo, err := detector.NewYOLO(p.cfg.Detection.Model, "")
	if err != nil {
		return nil, err
	}
	defer func() { _ = yolo.Close() }()

	db, err := store.Open(p.cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()

	client := source.NewClient(p.cfg.API.BaseURL,
		time.Duration(p.cfg.API.TimeoutSecs)*time.Second)

	pipe := processing.New(
		p.cfg,
		processing.ProbeFunc(ffprobe.Probe),
		extractor.New(extractor.WithTimeout(config.ExtractionTimeoutSecs*time.Second)),
		detector.NewFiltered(yolo, filterOptions(p.cfg)),
		client,
		db,
		rep,
	)

	results, counters, err := pipe.Run(ctx)
	if err != nil {
		return nil, err
	}

	return &BatchResult{
		Results:    results,
		Processed:  counters.Processed,
		BirdsFound: counters.BirdsFound,
		Failed:     counters.Failed,
		Unsaved:    counters.Unsaved,
	}, nil
}

// Test runs detection on a single local video file. Nothing is persisted.
func (p *Processor) Test(ctx context.Context, videoPath string, rep Reporter) (*Decision, error) {
	yolo, err := detector.NewYOLO(p.cfg.Detection.Model, "")
	if err != nil {
		return nil, err
	}
	defer func() { _ = yolo.Close() }()

	pipe := processing.New(
		p.cfg,
		processing.ProbeFunc(ffprobe.Probe),
		extractor.New(extractor.WithTimeout(config.ExtractionTimeoutSecs*time.Second)),
		detector.NewFiltered(yolo, filterOptions(p.cfg)),
		nil,
		nil,
		rep,
	)

	decision, err := pipe.Test(ctx, videoPath)
	if err != nil {
		return nil, err
	}
	return &decision, nil
}

func filterOptions(cfg *config.Config) detector.FilterOptions {
	return detector.FilterOptions{
		Label:               detector.BirdLabel,
		ConfidenceThreshold: cfg.Detection.ConfidenceThreshold,
		MinAreaPercent:      cfg.Detection.MinAreaPercent,
		MaxAreaPercent:      cfg.Detection.MaxAreaPercent,
	}
}
