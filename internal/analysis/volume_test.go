package analysis

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
)

// TestVolumeRatio tests the basic ratio calculation against a rolling average
func TestVolumeRatio(t *testing.T) {
	// Constant volume of 100, then a 200 spike
	volumes := []float64{100, 100, 100, 100, 200}
	vs := ComputeVolumeSeries(volumes, 20)

	r := vs.Ratio(4)
	if r == nil {
		t.Fatal("Expected ratio at spike bar, got nil")
	}
	// Average of the preceding four bars is 100, so the ratio must be exactly 2
	if !r.Equal(decimal.NewFromInt(2)) {
		t.Errorf("Expected ratio 2, got %s", r.String())
	}

	r = vs.Ratio(2)
	if r == nil {
		t.Fatal("Expected ratio at bar 2, got nil")
	}
	if !r.Equal(decimal.NewFromInt(1)) {
		t.Errorf("Expected ratio 1 for constant volume, got %s", r.String())
	}
}

// TestVolumeRatioFirstBar tests that the first bar has no ratio (no history)
func TestVolumeRatioFirstBar(t *testing.T) {
	vs := ComputeVolumeSeries([]float64{100, 100}, 20)
	if vs.Ratio(0) != nil {
		t.Error("First bar should have nil ratio")
	}
}

// TestVolumeRatioZeroAverage tests that a zero average yields nil, not a panic or Inf
func TestVolumeRatioZeroAverage(t *testing.T) {
	vs := ComputeVolumeSeries([]float64{0, 0, 100}, 20)
	if vs.Ratio(2) != nil {
		t.Error("Zero average should yield nil ratio")
	}
}

// TestVolumeRatioNaN tests that NaN input never produces a ratio
func TestVolumeRatioNaN(t *testing.T) {
	vs := ComputeVolumeSeries([]float64{100, math.NaN(), 100}, 20)
	if vs.Ratio(1) != nil {
		t.Error("NaN volume should yield nil ratio")
	}
	if vs.Ratio(2) != nil {
		t.Error("NaN inside the averaging window should yield nil ratio")
	}
}

// TestVolumeRatioWindow tests that only the trailing window feeds the average
func TestVolumeRatioWindow(t *testing.T) {
	// Window of 2: bar 4's average covers bars 2 and 3 only
	volumes := []float64{1000, 1000, 100, 100, 150}
	vs := ComputeVolumeSeries(volumes, 2)

	r := vs.Ratio(4)
	if r == nil {
		t.Fatal("Expected ratio, got nil")
	}
	if r.InexactFloat64() != 1.5 {
		t.Errorf("Expected ratio 1.5 over trailing window, got %s", r.String())
	}

	if vs.Ratio(7) != nil {
		t.Error("Out-of-range index should yield nil")
	}
}
