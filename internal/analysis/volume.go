package analysis

import (
	"math"

	"github.com/shopspring/decimal"
)

// VolumeSeries holds per-bar volume ratios against a rolling average.
// A nil ratio means the ratio could not be computed for that bar (no
// history yet, zero average, or non-finite input) — callers must treat
// nil as missing evidence, never as a passing value.
type VolumeSeries struct {
	ratios []*decimal.Decimal
}

// ComputeVolumeSeries calculates the volume ratio for every bar: the bar's
// volume divided by the simple average of the preceding window of volumes.
// The average is computed fresh per invocation and never cached.
func ComputeVolumeSeries(volumes []float64, window int) *VolumeSeries {
	if window <= 0 {
		window = 20
	}

	ratios := make([]*decimal.Decimal, len(volumes))
	for i := range volumes {
		ratios[i] = ratioAt(volumes, i, window)
	}

	return &VolumeSeries{ratios: ratios}
}

func ratioAt(volumes []float64, i, window int) *decimal.Decimal {
	if i == 0 {
		return nil
	}
	if !isFinite(volumes[i]) {
		return nil
	}

	start := i - window
	if start < 0 {
		start = 0
	}

	sum := 0.0
	count := 0
	for j := start; j < i; j++ {
		if !isFinite(volumes[j]) {
			return nil
		}
		sum += volumes[j]
		count++
	}
	if count == 0 || sum == 0 {
		return nil
	}

	avg := decimal.NewFromFloat(sum).Div(decimal.NewFromInt(int64(count)))
	if avg.IsZero() {
		return nil
	}

	r := decimal.NewFromFloat(volumes[i]).Div(avg)
	return &r
}

// Ratio returns the volume ratio at bar index i, or nil when unavailable.
func (vs *VolumeSeries) Ratio(i int) *decimal.Decimal {
	if i < 0 || i >= len(vs.ratios) {
		return nil
	}
	return vs.ratios[i]
}

// Len returns the number of bars in the series.
func (vs *VolumeSeries) Len() int {
	return len(vs.ratios)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
