package rangedetect

import (
	"testing"
	"time"

	"wyckoff-trading-bot/internal/wyckoff"
)

func bar(i int, high, low float64) wyckoff.OHLCVBar {
	return wyckoff.OHLCVBar{
		Timestamp: time.Unix(1700000000, 0).Add(time.Duration(i) * time.Hour),
		Open:      (high + low) / 2,
		High:      high,
		Low:       low,
		Close:     (high + low) / 2,
		Volume:    100,
	}
}

// TestDetectClimaxAndRally tests that the range spans the climax low and
// the rally high that follows it
func TestDetectClimaxAndRally(t *testing.T) {
	bars := []wyckoff.OHLCVBar{
		bar(0, 100, 98),
		bar(1, 98, 96),
		bar(2, 96, 89.5), // climax low
		bar(3, 92, 90),
		bar(4, 94, 92), // rally high
		bar(5, 93, 91),
		bar(6, 93.5, 91.5),
	}

	rng := Detect(bars)
	if rng == nil {
		t.Fatal("Expected a range")
	}
	if rng.Support != 89.5 {
		t.Errorf("Expected support 89.5, got %v", rng.Support)
	}
	if rng.Resistance != 94 {
		t.Errorf("Expected resistance 94, got %v", rng.Resistance)
	}
}

// TestDetectTooFewBars tests the short-window guard
func TestDetectTooFewBars(t *testing.T) {
	bars := []wyckoff.OHLCVBar{bar(0, 100, 98), bar(1, 99, 97)}
	if Detect(bars) != nil {
		t.Error("Expected nil range for a short window")
	}
}

// TestDetectLowAtWindowEnd tests that a low with no rally yields no range
func TestDetectLowAtWindowEnd(t *testing.T) {
	bars := []wyckoff.OHLCVBar{
		bar(0, 100, 98),
		bar(1, 99, 97),
		bar(2, 98, 96),
		bar(3, 97, 95),
		bar(4, 96, 94),
		bar(5, 95, 89.5), // low on the final bar, nothing after it
	}
	if Detect(bars) != nil {
		t.Error("Expected nil range when the low has no rally after it")
	}
}
