// Package detector provides bird detection over still images.
//
// The detection backend is an opaque capability behind the Detector
// interface; the pipeline never depends on a concrete model binding. The
// package also owns the filtering policy: a confidence threshold and
// optional area bounds applied as an order-independent predicate.
package detector

import (
	"context"
	"image"
)

// Detection is a single labeled bounding box found in a frame.
type Detection struct {
	Label      string
	Confidence float64
	// Box is the bounding box in pixel coordinates of the source image.
	Box image.Rectangle
	// AreaPercent is the box area as a percentage of the image area.
	AreaPercent float64
}

// Area returns the raw box area in pixels.
func (d Detection) Area() int {
	return d.Box.Dx() * d.Box.Dy()
}

// Detector produces labeled detections for a still image on disk.
// Zero detections is success with an empty slice, not an error.
type Detector interface {
	Detect(ctx context.Context, imagePath string) ([]Detection, error)
}

// FilterOptions is the declarative filtering policy applied to raw
// detections. The predicate is pure: whether a detection survives never
// depends on any other detection or on ordering.
type FilterOptions struct {
	// Label keeps only detections with this label. Empty keeps all labels.
	Label string
	// ConfidenceThreshold drops detections below this confidence.
	ConfidenceThreshold float64
	// MinAreaPercent drops detections covering less than this share of the
	// frame. Nil disables the bound.
	MinAreaPercent *float64
	// MaxAreaPercent drops detections covering more than this share of the
	// frame. Nil disables the bound.
	MaxAreaPercent *float64
}

// Keep reports whether a single detection passes the filter.
func (o FilterOptions) Keep(d Detection) bool {
	if o.Label != "" && d.Label != o.Label {
		return false
	}
	if d.Confidence < o.ConfidenceThreshold {
		return false
	}
	if o.MinAreaPercent != nil && d.AreaPercent < *o.MinAreaPercent {
		return false
	}
	if o.MaxAreaPercent != nil && d.AreaPercent > *o.MaxAreaPercent {
		return false
	}
	return true
}

// Filter returns the detections passing the filter, preserving input order.
func Filter(detections []Detection, opts FilterOptions) []Detection {
	var kept []Detection
	for _, d := range detections {
		if opts.Keep(d) {
			kept = append(kept, d)
		}
	}
	return kept
}

// Filtered wraps a backend detector with a filtering policy.
type Filtered struct {
	backend Detector
	opts    FilterOptions
}

// NewFiltered creates a filtering detector over the given backend.
func NewFiltered(backend Detector, opts FilterOptions) *Filtered {
	return &Filtered{backend: backend, opts: opts}
}

// Detect runs the backend and applies the filter. Backend failures pass
// through unchanged; an empty filtered result is success.
func (f *Filtered) Detect(ctx context.Context, imagePath string) ([]Detection, error) {
	raw, err := f.backend.Detect(ctx, imagePath)
	if err != nil {
		return nil, err
	}
	return Filter(raw, f.opts), nil
}
