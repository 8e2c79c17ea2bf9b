// Package main provides the CLI entry point for birdwatch.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/perchlab/birdwatch/internal/config"
	"github.com/perchlab/birdwatch/internal/detector"
	"github.com/perchlab/birdwatch/internal/extractor"
	"github.com/perchlab/birdwatch/internal/ffprobe"
	"github.com/perchlab/birdwatch/internal/logging"
	"github.com/perchlab/birdwatch/internal/processing"
	"github.com/perchlab/birdwatch/internal/reporter"
	"github.com/perchlab/birdwatch/internal/source"
	"github.com/perchlab/birdwatch/internal/store"
	"github.com/perchlab/birdwatch/internal/util"
)

const (
	appName    = "birdwatch"
	appVersion = "0.1.0"

	defaultConfigPath = "./config.yaml"
)

func main() {
	// A .env file is optional; the variables it sets feed the
	// BIRDWATCH_* configuration overrides.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "run":
		if err := runBatch(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "test":
		if err := runTest(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "version", "--version", "-v":
		fmt.Printf("%s version %s\n", appName, appVersion)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf(`%s - Detect birds in IP camera videos

Usage:
  %s <command> [options]

Commands:
  run       Process all new videos from the camera API
  test      Run detection on a local video file without storing the result
  version   Print version information
  help      Show this help message

Run '%s run --help' or '%s test --help' for command options.
`, appName, appName, appName, appName)
}

// commonArgs holds arguments shared by the run and test commands.
type commonArgs struct {
	configPath string
	verbose    bool
}

func addCommonFlags(fs *flag.FlagSet, ca *commonArgs) {
	fs.StringVar(&ca.configPath, "c", defaultConfigPath, "Path to YAML configuration file")
	fs.StringVar(&ca.configPath, "config", defaultConfigPath, "Path to YAML configuration file")
	fs.BoolVar(&ca.verbose, "v", false, "Enable verbose output")
	fs.BoolVar(&ca.verbose, "verbose", false, "Enable verbose output")
}

// loadConfig reads the configuration file and initializes logging.
func loadConfig(ca commonArgs) (*config.Config, error) {
	level := slog.LevelInfo
	if ca.verbose {
		level = slog.LevelDebug
	}
	logging.Init(level, os.Stderr)

	cfg, err := config.Load(ca.configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	return ctx, cancel
}

func runBatch(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Process all new videos from the camera API.

Usage:
  %s run [options]

Options:
  -c, --config <PATH>   Path to YAML configuration file. Default: %s
  -v, --verbose         Enable verbose output
`, appName, defaultConfigPath)
	}

	var ca commonArgs
	addCommonFlags(fs, &ca)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(ca)
	if err != nil {
		return err
	}
	if err := cfg.ValidateAPI(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logging.Info("starting batch",
		"api", cfg.API.BaseURL,
		"database", cfg.Database.Path,
		"model", cfg.Detection.Model)

	rep := reporter.NewTerminalReporter(ca.verbose)
	rep.SystemInfo(systemSummary())

	yolo, err := detector.NewYOLO(cfg.Detection.Model, "")
	if err != nil {
		return err
	}
	defer func() { _ = yolo.Close() }()

	db, err := store.Open(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	client := source.NewClient(cfg.API.BaseURL,
		time.Duration(cfg.API.TimeoutSecs)*time.Second)

	pipe := processing.New(
		cfg,
		processing.ProbeFunc(ffprobe.Probe),
		extractor.New(extractor.WithTimeout(config.ExtractionTimeoutSecs*time.Second)),
		detector.NewFiltered(yolo, filterOptions(cfg)),
		client,
		db,
		rep,
	)

	ctx, cancel := signalContext()
	defer cancel()

	_, _, err = pipe.Run(ctx)
	return err
}

func runTest(args []string) error {
	fs := flag.NewFlagSet("test", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Run detection on a local video file. The result is shown but not stored.

Usage:
  %s test [options] <video>

Options:
  -c, --config <PATH>   Path to YAML configuration file. Default: %s
  -v, --verbose         Enable verbose output
`, appName, defaultConfigPath)
	}

	var ca commonArgs
	addCommonFlags(fs, &ca)
	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("expected exactly one video file")
	}
	videoPath := fs.Arg(0)
	if !util.FileExists(videoPath) {
		return fmt.Errorf("video file does not exist: %s", videoPath)
	}
	if !util.IsVideoFile(videoPath) {
		return fmt.Errorf("not a video file: %s", videoPath)
	}

	cfg, err := loadConfig(ca)
	if err != nil {
		return err
	}

	rep := reporter.NewTerminalReporter(ca.verbose)

	yolo, err := detector.NewYOLO(cfg.Detection.Model, "")
	if err != nil {
		return err
	}
	defer func() { _ = yolo.Close() }()

	pipe := processing.New(
		cfg,
		processing.ProbeFunc(ffprobe.Probe),
		extractor.New(extractor.WithTimeout(config.ExtractionTimeoutSecs*time.Second)),
		detector.NewFiltered(yolo, filterOptions(cfg)),
		nil,
		nil,
		rep,
	)

	ctx, cancel := signalContext()
	defer cancel()

	_, err = pipe.Test(ctx, videoPath)
	return err
}

func filterOptions(cfg *config.Config) detector.FilterOptions {
	return detector.FilterOptions{
		Label:               detector.BirdLabel,
		ConfidenceThreshold: cfg.Detection.ConfidenceThreshold,
		MinAreaPercent:      cfg.Detection.MinAreaPercent,
		MaxAreaPercent:      cfg.Detection.MaxAreaPercent,
	}
}

func systemSummary() reporter.SystemSummary {
	info := util.GetSystemInfo()
	return reporter.SystemSummary{Hostname: info.Hostname, NumCPU: info.NumCPU}
}
