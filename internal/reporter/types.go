// Package reporter provides progress reporting interfaces and implementations.
package reporter

import "time"

// SystemSummary contains host information shown at startup.
type SystemSummary struct {
	Hostname string
	NumCPU   int
}

// BatchStartInfo contains batch start metadata.
type BatchStartInfo struct {
	TotalVideos  int
	SkippedCount int
	OutputDir    string
	DatabasePath string
}

// ItemProgress identifies the current video within a batch.
type ItemProgress struct {
	CurrentItem int
	TotalItems  int
	Filename    string
}

// DecisionSummary describes the outcome for one video.
type DecisionSummary struct {
	Filename        string
	HasBird         bool
	Confidence      float64
	BirdAreaPercent float64
	VideoDuration   float64
	FrameTime       float64
	SavedTo         string
}

// ReporterError contains error information.
type ReporterError struct {
	Title      string
	Message    string
	Context    string
	Suggestion string
}

// StoreTotals contains cumulative database statistics.
type StoreTotals struct {
	Total   int64
	Birds   int64
	NoBirds int64
}

// BatchSummary contains batch completion information.
type BatchSummary struct {
	Processed   int
	BirdsFound  int
	Failed      int
	Unsaved     int
	TotalVideos int
	Elapsed     time.Duration
	// Totals holds database statistics when a store was in use.
	Totals *StoreTotals
}
