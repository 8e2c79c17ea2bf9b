package extractor

import (
	"testing"
)

func TestSamplePoints(t *testing.T) {
	tests := []struct {
		name       string
		duration   float64
		frameTimes []float64
		want       []SamplePoint
	}{
		{
			name:       "requests below duration pass through",
			duration:   10,
			frameTimes: []float64{6.0, 8.0},
			want: []SamplePoint{
				{RequestedTime: 6.0, ActualTime: 6.0},
				{RequestedTime: 8.0, ActualTime: 8.0},
			},
		},
		{
			name:       "requests beyond duration clamp to half duration and collapse",
			duration:   5,
			frameTimes: []float64{6.0, 8.0},
			want: []SamplePoint{
				{RequestedTime: 6.0, ActualTime: 2.5},
			},
		},
		{
			name:       "request equal to duration clamps",
			duration:   10,
			frameTimes: []float64{10.0},
			want: []SamplePoint{
				{RequestedTime: 10.0, ActualTime: 5.0},
			},
		},
		{
			name:       "mixed requests keep order",
			duration:   7,
			frameTimes: []float64{2.0, 9.0, 5.0},
			want: []SamplePoint{
				{RequestedTime: 2.0, ActualTime: 2.0},
				{RequestedTime: 9.0, ActualTime: 3.5},
				{RequestedTime: 5.0, ActualTime: 5.0},
			},
		},
		{
			name:       "near-duplicate actual times collapse to the first",
			duration:   10,
			frameTimes: []float64{5.0, 5.05, 6.0},
			want: []SamplePoint{
				{RequestedTime: 5.0, ActualTime: 5.0},
				{RequestedTime: 6.0, ActualTime: 6.0},
			},
		},
		{
			name:       "empty frame times fall back to half duration",
			duration:   8,
			frameTimes: nil,
			want: []SamplePoint{
				{RequestedTime: 4.0, ActualTime: 4.0},
			},
		},
		{
			name:       "clamped and direct requests landing together collapse",
			duration:   10,
			frameTimes: []float64{5.0, 12.0},
			want: []SamplePoint{
				{RequestedTime: 5.0, ActualTime: 5.0},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SamplePoints(tt.duration, tt.frameTimes)

			if len(got) != len(tt.want) {
				t.Fatalf("SamplePoints() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("point[%d] = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestSamplePointsDeterministic(t *testing.T) {
	first := SamplePoints(10, []float64{6.0, 8.0, 12.0})
	second := SamplePoints(10, []float64{6.0, 8.0, 12.0})

	if len(first) != len(second) {
		t.Fatal("expected identical results across runs")
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("run mismatch at %d: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestNewDefaults(t *testing.T) {
	e := New()
	if e.scratchDir == "" {
		t.Error("expected scratch directory default")
	}
	if e.timeout != DefaultTimeout {
		t.Errorf("timeout = %v, want %v", e.timeout, DefaultTimeout)
	}

	e2 := New(WithScratchDir("/tmp/frames"), WithTimeout(DefaultTimeout/2))
	if e2.scratchDir != "/tmp/frames" {
		t.Errorf("scratchDir = %q", e2.scratchDir)
	}
	if e2.timeout != DefaultTimeout/2 {
		t.Errorf("timeout = %v", e2.timeout)
	}
}
