package processing

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/perchlab/birdwatch/internal/config"
	"github.com/perchlab/birdwatch/internal/detector"
	"github.com/perchlab/birdwatch/internal/errors"
	"github.com/perchlab/birdwatch/internal/extractor"
	"github.com/perchlab/birdwatch/internal/logging"
	"github.com/perchlab/birdwatch/internal/reporter"
	"github.com/perchlab/birdwatch/internal/util"
)

// Pipeline runs videos through frame sampling, detection, and aggregation,
// and persists the resulting decisions.
type Pipeline struct {
	cfg      *config.Config
	prober   Prober
	sampler  FrameSampler
	detector detector.Detector
	source   VideoSource
	store    ResultStore
	reporter reporter.Reporter
	log      *logging.Logger
	now      func() time.Time
}

// New creates a pipeline. Source and store may be nil for single-file test
// runs; reporter may be nil to discard progress output.
func New(
	cfg *config.Config,
	prober Prober,
	sampler FrameSampler,
	det detector.Detector,
	source VideoSource,
	store ResultStore,
	rep reporter.Reporter,
) *Pipeline {
	if rep == nil {
		rep = reporter.NullReporter{}
	}
	return &Pipeline{
		cfg:      cfg,
		prober:   prober,
		sampler:  sampler,
		detector: det,
		source:   source,
		store:    store,
		reporter: rep,
		log:      logging.Global().WithPrefix("pipeline"),
		now:      time.Now,
	}
}

// ProcessVideo samples frames from a local video file, runs detection on each,
// and aggregates the results into one decision. Individual frame failures are
// reported and skipped; the video fails only when every frame does.
func (p *Pipeline) ProcessVideo(ctx context.Context, localPath, filename string) (Decision, error) {
	probeCtx, cancel := context.WithTimeout(ctx, config.ExtractionTimeoutSecs*time.Second)
	info, err := p.prober.Probe(probeCtx, localPath)
	cancel()
	if err != nil {
		return Decision{}, err
	}

	points := extractor.SamplePoints(info.Duration, p.cfg.Detection.FrameTimes)
	p.log.Debug("sampling frames", "video", filename, "duration", info.Duration, "points", len(points))

	var (
		frames []FrameDetections
		// framePaths stays index-aligned with frames for annotation.
		framePaths []string
		scratch    []string
		lastErr    error
	)
	defer func() {
		for _, path := range scratch {
			util.RemoveQuietly(path)
		}
	}()

	for _, point := range points {
		if ctx.Err() != nil {
			return Decision{}, errors.NewCancelledError()
		}

		frame, err := p.sampler.Extract(ctx, localPath, point)
		if err != nil {
			lastErr = err
			p.reporter.Warning(fmt.Sprintf("%s: skipping frame at %.2fs: %v", filename, point.ActualTime, err))
			continue
		}
		scratch = append(scratch, frame.Path)

		detections, err := p.detector.Detect(ctx, frame.Path)
		if err != nil {
			lastErr = err
			p.reporter.Warning(fmt.Sprintf("%s: detection failed at %.2fs: %v", filename, frame.ActualTime, err))
			continue
		}
		framePaths = append(framePaths, frame.Path)

		p.reporter.Verbose(fmt.Sprintf("frame at %.2fs: %d detections", frame.ActualTime, len(detections)))
		frames = append(frames, FrameDetections{FrameTime: frame.ActualTime, Detections: detections})
	}

	if len(frames) == 0 {
		return Decision{}, errors.NewExtractionError(
			fmt.Sprintf("no frame from %s could be analyzed", filename), lastErr)
	}

	decision, pick := Aggregate(filename, info.Duration, frames, p.now())

	if pick != nil && p.cfg.Outputs.Directory != "" {
		p.saveAnnotatedFrame(filename, framePaths[pick.FrameIndex], pick.Detection)
	}

	return decision, nil
}

// saveAnnotatedFrame writes the representative frame with its bounding box
// into the outputs directory. Failures only produce a warning.
func (p *Pipeline) saveAnnotatedFrame(filename, framePath string, det detector.Detection) {
	if err := util.EnsureDirectory(p.cfg.Outputs.Directory); err != nil {
		p.reporter.Warning(fmt.Sprintf("cannot create outputs directory: %v", err))
		return
	}

	outPath := filepath.Join(p.cfg.Outputs.Directory, util.GetFileStem(filename)+"_detection.jpg")
	if err := detector.SaveAnnotated(framePath, outPath, det); err != nil {
		p.reporter.Warning(fmt.Sprintf("%s: cannot save annotated frame: %v", filename, err))
		return
	}
	p.log.Debug("saved annotated frame", "path", outPath)
}

// Test runs detection on a single local video file. Nothing is persisted and
// nothing is written to the outputs directory.
func (p *Pipeline) Test(ctx context.Context, videoPath string) (Decision, error) {
	filename := util.GetFilename(videoPath)

	cfg := *p.cfg
	cfg.Outputs.Directory = ""
	tp := *p
	tp.cfg = &cfg

	decision, err := tp.ProcessVideo(ctx, videoPath, filename)
	if err != nil {
		return Decision{}, errors.NewProcessingError(filename, err)
	}

	p.reporter.TestResult(decisionSummary(decision, ""))
	return decision, nil
}

// Run lists videos from the source, skips the ones already decided, and
// processes the rest. One failing video never stops the batch: its result
// carries the processing error and the loop moves on. The returned error is
// non-nil only when the batch could not run at all.
func (p *Pipeline) Run(ctx context.Context) ([]ItemResult, Counters, error) {
	var counters Counters
	start := p.now()

	items, err := p.source.List(ctx)
	if err != nil {
		if errors.IsKind(err, errors.KindNoVideosFound) {
			p.reporter.OperationComplete("no videos to process")
			return nil, counters, nil
		}
		return nil, counters, errors.NewFetchError("cannot list videos", err)
	}

	pending, skipped := p.filterProcessed(ctx, items)

	p.reporter.BatchStarted(reporter.BatchStartInfo{
		TotalVideos:  len(pending),
		SkippedCount: skipped,
		OutputDir:    p.cfg.Outputs.Directory,
		DatabasePath: p.cfg.Database.Path,
	})

	if len(pending) == 0 {
		p.reporter.OperationComplete("nothing to do, all videos already processed")
		return nil, counters, nil
	}

	results := make([]ItemResult, 0, len(pending))
	for i, item := range pending {
		if ctx.Err() != nil {
			return results, counters, errors.NewCancelledError()
		}

		p.reporter.ItemStarted(reporter.ItemProgress{
			CurrentItem: i + 1,
			TotalItems:  len(pending),
			Filename:    item.Filename,
		})

		decision, err := p.processItem(ctx, item, &counters)
		if err != nil {
			if errors.IsCancelled(err) {
				return results, counters, err
			}
			counters.Failed++
			p.log.Error("video failed", "video", item.Filename, "error", err)
			p.reporter.Error(reporter.ReporterError{
				Title:   "Processing failed",
				Message: err.Error(),
				Context: fmt.Sprintf("video %d of %d", i+1, len(pending)),
			})
			results = append(results, ItemResult{Item: item, Err: err})
			continue
		}
		results = append(results, ItemResult{Item: item, Decision: decision})
	}

	p.reporter.BatchComplete(reporter.BatchSummary{
		Processed:   counters.Processed,
		BirdsFound:  counters.BirdsFound,
		Failed:      counters.Failed,
		Unsaved:     counters.Unsaved,
		TotalVideos: len(pending),
		Elapsed:     p.now().Sub(start),
		Totals:      p.storeTotals(ctx),
	})

	return results, counters, nil
}

// filterProcessed drops items the store has already decided. Lookup failures
// degrade to processing the item again.
func (p *Pipeline) filterProcessed(ctx context.Context, items []VideoItem) (pending []VideoItem, skipped int) {
	for _, item := range items {
		done, err := p.store.IsProcessed(ctx, item.Filename)
		if err != nil {
			p.reporter.Warning(fmt.Sprintf("cannot check %s in store: %v", item.Filename, err))
		}
		if done {
			skipped++
			p.log.Debug("already processed", "video", item.Filename)
			continue
		}
		pending = append(pending, item)
	}
	return pending, skipped
}

// processItem fetches, analyzes, persists, and optionally archives one video.
func (p *Pipeline) processItem(ctx context.Context, item VideoItem, counters *Counters) (Decision, error) {
	localPath, cleanup, err := p.source.Fetch(ctx, item)
	if err != nil {
		return Decision{}, errors.NewProcessingError(item.Filename, err)
	}
	defer cleanup()

	decision, err := p.ProcessVideo(ctx, localPath, item.Filename)
	if err != nil {
		if errors.IsCancelled(err) {
			return Decision{}, err
		}
		return Decision{}, errors.NewProcessingError(item.Filename, err)
	}

	savedTo := ""
	if decision.HasBird && p.cfg.Outputs.Directory != "" {
		savedTo = p.saveVideoCopy(localPath, item)
	}

	if err := p.store.Upsert(ctx, decision); err != nil {
		counters.Unsaved++
		p.reporter.Warning(fmt.Sprintf("%s: decision not saved: %v", item.Filename, err))
	}

	counters.Processed++
	if decision.HasBird {
		counters.BirdsFound++
	}

	p.reporter.ItemComplete(decisionSummary(decision, savedTo))
	return decision, nil
}

// saveVideoCopy copies the fetched video into the outputs directory. Failures
// only produce a warning; the decision stands either way.
func (p *Pipeline) saveVideoCopy(localPath string, item VideoItem) string {
	if err := util.EnsureDirectory(p.cfg.Outputs.Directory); err != nil {
		p.reporter.Warning(fmt.Sprintf("cannot create outputs directory: %v", err))
		return ""
	}

	dest := filepath.Join(p.cfg.Outputs.Directory, item.SaveName())
	if err := util.CopyFile(localPath, dest); err != nil {
		p.reporter.Warning(fmt.Sprintf("%s: cannot save video copy: %v", item.Filename, err))
		return ""
	}
	return dest
}

// storeTotals reads cumulative statistics for the batch summary.
func (p *Pipeline) storeTotals(ctx context.Context) *reporter.StoreTotals {
	stats, err := p.store.Stats(ctx)
	if err != nil {
		p.reporter.Warning(fmt.Sprintf("cannot read store statistics: %v", err))
		return nil
	}
	return &reporter.StoreTotals{Total: stats.Total, Birds: stats.Birds, NoBirds: stats.NoBirds}
}

func decisionSummary(d Decision, savedTo string) reporter.DecisionSummary {
	return reporter.DecisionSummary{
		Filename:        d.Filename,
		HasBird:         d.HasBird,
		Confidence:      d.Confidence,
		BirdAreaPercent: d.BirdAreaPercent,
		VideoDuration:   d.VideoDuration,
		FrameTime:       d.FrameTime,
		SavedTo:         savedTo,
	}
}
