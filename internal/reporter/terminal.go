package reporter

import (
	"fmt"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/perchlab/birdwatch/internal/util"
)

// timeRounding is the granularity used when printing elapsed times.
const timeRounding = 100 * time.Millisecond

// TerminalReporter outputs human-friendly text to the terminal.
type TerminalReporter struct {
	mu       sync.Mutex
	progress *progressbar.ProgressBar
	verbose  bool
	cyan     *color.Color
	green    *color.Color
	yellow   *color.Color
	red      *color.Color
	faint    *color.Color
	bold     *color.Color
}

// NewTerminalReporter creates a new terminal reporter. When verbose is set,
// Verbose messages are printed instead of discarded.
func NewTerminalReporter(verbose bool) *TerminalReporter {
	return &TerminalReporter{
		verbose: verbose,
		cyan:    color.New(color.FgCyan, color.Bold),
		green:   color.New(color.FgGreen),
		yellow:  color.New(color.FgYellow, color.Bold),
		red:     color.New(color.FgRed, color.Bold),
		faint:   color.New(color.Faint),
		bold:    color.New(color.Bold),
	}
}

// printLabel prints a bold label with fixed width padding followed by a value.
func (r *TerminalReporter) printLabel(width int, label, value string) {
	paddedLabel := fmt.Sprintf("%-*s", width, label)
	fmt.Printf("  %s %s\n", r.bold.Sprint(paddedLabel), value)
}

func (r *TerminalReporter) finishProgress() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.progress != nil {
		_ = r.progress.Finish()
		r.progress = nil
	}
}

func (r *TerminalReporter) SystemInfo(summary SystemSummary) {
	fmt.Println()
	_, _ = r.cyan.Println("SYSTEM")
	r.printLabel(10, "Hostname:", summary.Hostname)
	r.printLabel(10, "CPUs:", fmt.Sprintf("%d", summary.NumCPU))
}

func (r *TerminalReporter) BatchStarted(info BatchStartInfo) {
	fmt.Println()
	_, _ = r.cyan.Println("BATCH")
	r.printLabel(10, "Videos:", fmt.Sprintf("%d", info.TotalVideos))
	if info.SkippedCount > 0 {
		r.printLabel(10, "Skipped:", fmt.Sprintf("%d already processed", info.SkippedCount))
	}
	r.printLabel(10, "Database:", info.DatabasePath)
	if info.OutputDir != "" {
		r.printLabel(10, "Outputs:", info.OutputDir)
	}
	fmt.Println()

	r.mu.Lock()
	defer r.mu.Unlock()
	if info.TotalVideos > 1 {
		r.progress = progressbar.NewOptions(info.TotalVideos,
			progressbar.OptionSetDescription("processing"),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionShowCount(),
		)
	}
}

func (r *TerminalReporter) ItemStarted(progress ItemProgress) {
	r.mu.Lock()
	if r.progress != nil {
		_ = r.progress.Clear()
	}
	r.mu.Unlock()

	fmt.Printf("%s %s\n",
		r.faint.Sprintf("[%d/%d]", progress.CurrentItem, progress.TotalItems),
		progress.Filename)
}

func (r *TerminalReporter) ItemComplete(summary DecisionSummary) {
	if summary.HasBird {
		fmt.Printf("  %s confidence %.2f, area %.1f%% of frame at %s\n",
			r.green.Sprint("bird"),
			summary.Confidence,
			summary.BirdAreaPercent,
			util.FormatSeconds(summary.FrameTime))
		if summary.SavedTo != "" {
			fmt.Printf("  %s\n", r.faint.Sprintf("saved to %s", summary.SavedTo))
		}
	} else {
		fmt.Printf("  %s\n", r.faint.Sprint("no bird"))
	}

	r.mu.Lock()
	if r.progress != nil {
		_ = r.progress.Add(1)
	}
	r.mu.Unlock()
}

func (r *TerminalReporter) TestResult(summary DecisionSummary) {
	fmt.Println()
	_, _ = r.cyan.Println("DETECTION RESULT")
	r.printLabel(12, "File:", summary.Filename)
	r.printLabel(12, "Duration:", util.FormatDuration(summary.VideoDuration))
	r.printLabel(12, "Frame time:", util.FormatSeconds(summary.FrameTime))
	if summary.HasBird {
		r.printLabel(12, "Bird:", r.green.Sprint("yes"))
		r.printLabel(12, "Confidence:", fmt.Sprintf("%.3f", summary.Confidence))
		r.printLabel(12, "Area:", fmt.Sprintf("%.2f%% of frame", summary.BirdAreaPercent))
	} else {
		r.printLabel(12, "Bird:", r.faint.Sprint("no"))
	}
}

func (r *TerminalReporter) Warning(message string) {
	r.mu.Lock()
	if r.progress != nil {
		_ = r.progress.Clear()
	}
	r.mu.Unlock()
	fmt.Printf("%s %s\n", r.yellow.Sprint("Warning:"), message)
}

func (r *TerminalReporter) Error(e ReporterError) {
	r.mu.Lock()
	if r.progress != nil {
		_ = r.progress.Clear()
	}
	r.mu.Unlock()

	fmt.Println()
	_, _ = r.red.Printf("%s\n", e.Title)
	fmt.Printf("  %s\n", e.Message)
	if e.Context != "" {
		fmt.Printf("  %s\n", r.faint.Sprint(e.Context))
	}
	if e.Suggestion != "" {
		fmt.Printf("  %s\n", e.Suggestion)
	}
}

func (r *TerminalReporter) OperationComplete(message string) {
	r.finishProgress()
	fmt.Printf("%s %s\n", r.green.Sprint("✓"), message)
}

func (r *TerminalReporter) BatchComplete(summary BatchSummary) {
	r.finishProgress()

	fmt.Println()
	_, _ = r.cyan.Println("SUMMARY")
	r.printLabel(12, "Processed:", fmt.Sprintf("%d of %d", summary.Processed, summary.TotalVideos))
	r.printLabel(12, "Birds:", fmt.Sprintf("%d", summary.BirdsFound))
	if summary.Failed > 0 {
		r.printLabel(12, "Failed:", r.red.Sprintf("%d", summary.Failed))
	} else {
		r.printLabel(12, "Failed:", "0")
	}
	if summary.Unsaved > 0 {
		r.printLabel(12, "Unsaved:", r.yellow.Sprintf("%d", summary.Unsaved))
	}
	r.printLabel(12, "Elapsed:", summary.Elapsed.Round(timeRounding).String())

	if summary.Totals != nil {
		r.printLabel(12, "Database:", fmt.Sprintf("%d total, %d with birds, %d without",
			summary.Totals.Total, summary.Totals.Birds, summary.Totals.NoBirds))
	}
}

func (r *TerminalReporter) Verbose(message string) {
	if !r.verbose {
		return
	}
	fmt.Printf("  %s\n", r.faint.Sprint(message))
}
