package detector

import (
	"context"
	"image"
	"testing"

	"github.com/perchlab/birdwatch/internal/errors"
)

func pct(v float64) *float64 { return &v }

func det(label string, conf, area float64) Detection {
	return Detection{
		Label:       label,
		Confidence:  conf,
		Box:         image.Rect(0, 0, 10, 10),
		AreaPercent: area,
	}
}

func TestFilterConfidenceThreshold(t *testing.T) {
	opts := FilterOptions{Label: BirdLabel, ConfidenceThreshold: 0.5}

	in := []Detection{
		det("bird", 0.49, 1.0),
		det("bird", 0.5, 2.0),
		det("bird", 0.9, 3.0),
	}

	got := Filter(in, opts)
	if len(got) != 2 {
		t.Fatalf("Filter() kept %d, want 2", len(got))
	}
	for _, d := range got {
		if d.Confidence < 0.5 {
			t.Errorf("kept detection below threshold: %+v", d)
		}
	}
}

func TestFilterLabel(t *testing.T) {
	opts := FilterOptions{Label: BirdLabel, ConfidenceThreshold: 0.0}

	in := []Detection{
		det("cat", 0.9, 1.0),
		det("bird", 0.8, 1.0),
		det("person", 0.95, 1.0),
	}

	got := Filter(in, opts)
	if len(got) != 1 || got[0].Label != "bird" {
		t.Errorf("Filter() = %v, want only bird", got)
	}
}

func TestFilterAreaBounds(t *testing.T) {
	tests := []struct {
		name string
		opts FilterOptions
		area float64
		keep bool
	}{
		{"no bounds keeps all", FilterOptions{}, 0.01, true},
		{"below min dropped", FilterOptions{MinAreaPercent: pct(0.5)}, 0.4, false},
		{"at min kept", FilterOptions{MinAreaPercent: pct(0.5)}, 0.5, true},
		{"above max dropped", FilterOptions{MaxAreaPercent: pct(50)}, 60, false},
		{"at max kept", FilterOptions{MaxAreaPercent: pct(50)}, 50, true},
		{"within both bounds kept", FilterOptions{MinAreaPercent: pct(1), MaxAreaPercent: pct(50)}, 25, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter([]Detection{det("bird", 0.9, tt.area)}, tt.opts)
			if (len(got) == 1) != tt.keep {
				t.Errorf("keep = %v, want %v", len(got) == 1, tt.keep)
			}
		})
	}
}

func TestFilterIsOrderIndependent(t *testing.T) {
	opts := FilterOptions{
		Label:               BirdLabel,
		ConfidenceThreshold: 0.5,
		MinAreaPercent:      pct(1),
		MaxAreaPercent:      pct(50),
	}

	a := det("bird", 0.9, 5)
	b := det("bird", 0.4, 5)  // fails threshold
	c := det("bird", 0.8, 60) // fails max area
	d := det("bird", 0.7, 2)

	forward := Filter([]Detection{a, b, c, d}, opts)
	reversed := Filter([]Detection{d, c, b, a}, opts)

	if len(forward) != 2 || len(reversed) != 2 {
		t.Fatalf("kept %d and %d, want 2 each", len(forward), len(reversed))
	}

	// The same set survives regardless of input order.
	survivors := map[float64]bool{}
	for _, x := range forward {
		survivors[x.Confidence] = true
	}
	for _, x := range reversed {
		if !survivors[x.Confidence] {
			t.Errorf("order changed the surviving set: %+v", x)
		}
	}
}

func TestFilterEmptyResultIsNotError(t *testing.T) {
	opts := FilterOptions{Label: BirdLabel, ConfidenceThreshold: 0.99}
	got := Filter([]Detection{det("bird", 0.5, 1)}, opts)
	if len(got) != 0 {
		t.Errorf("Filter() = %v, want empty", got)
	}
}

// stubBackend is a canned-response detection backend.
type stubBackend struct {
	detections []Detection
	err        error
}

func (s *stubBackend) Detect(_ context.Context, _ string) ([]Detection, error) {
	return s.detections, s.err
}

func TestFilteredDetect(t *testing.T) {
	backend := &stubBackend{
		detections: []Detection{
			det("bird", 0.9, 5),
			det("cat", 0.9, 5),
			det("bird", 0.2, 5),
		},
	}

	f := NewFiltered(backend, FilterOptions{Label: BirdLabel, ConfidenceThreshold: 0.5})

	got, err := f.Detect(context.Background(), "frame.jpg")
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if len(got) != 1 || got[0].Confidence != 0.9 || got[0].Label != "bird" {
		t.Errorf("Detect() = %v, want single bird at 0.9", got)
	}
}

func TestFilteredDetectPropagatesBackendError(t *testing.T) {
	backend := &stubBackend{err: errors.NewDetectionError("inference failed", nil)}
	f := NewFiltered(backend, FilterOptions{})

	_, err := f.Detect(context.Background(), "frame.jpg")
	if !errors.IsDetection(err) {
		t.Errorf("Detect() error = %v, want detection error", err)
	}
}

func TestDetectionArea(t *testing.T) {
	d := Detection{Box: image.Rect(10, 10, 30, 50)}
	if d.Area() != 20*40 {
		t.Errorf("Area() = %d, want %d", d.Area(), 20*40)
	}
}

func TestLoadLabelsBuiltin(t *testing.T) {
	labels, err := LoadLabels("")
	if err != nil {
		t.Fatalf("LoadLabels() error = %v", err)
	}
	if len(labels) != 80 {
		t.Errorf("len(labels) = %d, want 80", len(labels))
	}
	if labels[14] != BirdLabel {
		t.Errorf("labels[14] = %q, want %q", labels[14], BirdLabel)
	}
}
