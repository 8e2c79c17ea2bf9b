// Package store persists per-video decisions in SQLite.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/perchlab/birdwatch/internal/errors"
	"github.com/perchlab/birdwatch/internal/logging"
	"github.com/perchlab/birdwatch/internal/processing"
	"github.com/perchlab/birdwatch/internal/util"
)

const schema = `
CREATE TABLE IF NOT EXISTS detections (
	filename          TEXT PRIMARY KEY,
	has_bird          INTEGER NOT NULL,
	confidence        REAL NOT NULL,
	bird_area_percent REAL NOT NULL,
	video_duration    REAL NOT NULL,
	frame_time        REAL NOT NULL,
	processed_at      TEXT NOT NULL
)`

// SQLite is a decision store backed by a SQLite database file.
type SQLite struct {
	db  *sql.DB
	log *logging.Logger
}

// Open creates or opens the database at path and ensures the schema exists.
func Open(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := util.EnsureDirectory(dir); err != nil {
			return nil, errors.NewStoreError(fmt.Sprintf("cannot create database directory %s", dir), err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.NewStoreError(fmt.Sprintf("cannot open database %s", path), err)
	}

	// A single writer avoids SQLITE_BUSY on concurrent upserts.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, errors.NewStoreError("cannot create detections table", err)
	}

	return &SQLite{
		db:  db,
		log: logging.Global().WithPrefix("store"),
	}, nil
}

// Close releases the database handle.
func (s *SQLite) Close() error {
	if err := s.db.Close(); err != nil {
		return errors.NewStoreError("cannot close database", err)
	}
	return nil
}

// Upsert inserts or replaces the decision for its filename.
func (s *SQLite) Upsert(ctx context.Context, d processing.Decision) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO detections
			(filename, has_bird, confidence, bird_area_percent, video_duration, frame_time, processed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(filename) DO UPDATE SET
			has_bird          = excluded.has_bird,
			confidence        = excluded.confidence,
			bird_area_percent = excluded.bird_area_percent,
			video_duration    = excluded.video_duration,
			frame_time        = excluded.frame_time,
			processed_at      = excluded.processed_at`,
		d.Filename,
		boolToInt(d.HasBird),
		d.Confidence,
		d.BirdAreaPercent,
		d.VideoDuration,
		d.FrameTime,
		d.ProcessedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return errors.NewStoreError(fmt.Sprintf("cannot save decision for %s", d.Filename), err)
	}

	s.log.Debug("saved decision", "video", d.Filename, "has_bird", d.HasBird)
	return nil
}

// Get returns the stored decision for a filename, or sql.ErrNoRows wrapped
// as a store error when none exists.
func (s *SQLite) Get(ctx context.Context, filename string) (processing.Decision, error) {
	var (
		d           processing.Decision
		hasBird     int
		processedAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT filename, has_bird, confidence, bird_area_percent, video_duration, frame_time, processed_at
		FROM detections WHERE filename = ?`, filename).
		Scan(&d.Filename, &hasBird, &d.Confidence, &d.BirdAreaPercent,
			&d.VideoDuration, &d.FrameTime, &processedAt)
	if err != nil {
		return processing.Decision{}, errors.NewStoreError(
			fmt.Sprintf("cannot load decision for %s", filename), err)
	}

	d.HasBird = hasBird != 0
	if t, err := time.Parse(time.RFC3339, processedAt); err == nil {
		d.ProcessedAt = t
	}
	return d, nil
}

// IsProcessed reports whether a decision exists for the filename.
func (s *SQLite) IsProcessed(ctx context.Context, filename string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM detections WHERE filename = ?`, filename).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, errors.NewStoreError(fmt.Sprintf("cannot check %s", filename), err)
	}
	return true, nil
}

// Stats returns cumulative counts over all stored decisions.
func (s *SQLite) Stats(ctx context.Context) (processing.StoreStats, error) {
	var stats processing.StoreStats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(has_bird), 0),
			COALESCE(SUM(1 - has_bird), 0)
		FROM detections`).
		Scan(&stats.Total, &stats.Birds, &stats.NoBirds)
	if err != nil {
		return processing.StoreStats{}, errors.NewStoreError("cannot read statistics", err)
	}
	return stats, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
