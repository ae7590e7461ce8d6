package confidence

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"wyckoff-trading-bot/internal/wyckoff"
)

func candidate(conf int, ratio string) wyckoff.PatternCandidate {
	c := wyckoff.PatternCandidate{
		PatternType: "SPRING",
		Symbol:      "BTCUSDT",
		Confidence:  conf,
		Timestamp:   time.Unix(1700000000, 0),
	}
	if ratio != "" {
		r := decimal.RequireFromString(ratio)
		c.VolumeRatio = &r
	}
	return c
}

func fixedPenalty(p int) SessionPenaltyFunc {
	return func(time.Time) int { return p }
}

// TestFloorUsesFinalNotBase tests that the penalty applies before the floor check
func TestFloorUsesFinalNotBase(t *testing.T) {
	e := NewEngine(0, fixedPenalty(-25))
	d, err := e.Score(candidate(85, ""))
	if err != nil {
		t.Fatalf("Score returned error: %v", err)
	}
	if d.Accepted {
		t.Errorf("base=85 penalty=-25 gives final=60, must be rejected; got accepted with %d", d.Confidence)
	}
	if d.Confidence != 60 || d.Base != 85 || d.Penalty != -25 {
		t.Errorf("Decision must carry the full chain: got final=%d base=%d penalty=%d", d.Confidence, d.Base, d.Penalty)
	}

	e = NewEngine(0, fixedPenalty(0))
	d, err = e.Score(candidate(85, ""))
	if err != nil {
		t.Fatalf("Score returned error: %v", err)
	}
	if !d.Accepted || d.Confidence != 85 {
		t.Errorf("base=85 penalty=0 must be accepted at 85, got accepted=%v conf=%d", d.Accepted, d.Confidence)
	}
}

// TestFloorIsStrictLessThan tests that final=70 is accepted and 69 rejected
func TestFloorIsStrictLessThan(t *testing.T) {
	e := NewEngine(0, nil)

	d, err := e.Score(candidate(70, ""))
	if err != nil {
		t.Fatalf("Score returned error: %v", err)
	}
	if !d.Accepted {
		t.Error("final=70 must be accepted (strict <, not <=)")
	}

	d, err = e.Score(candidate(69, ""))
	if err != nil {
		t.Fatalf("Score returned error: %v", err)
	}
	if d.Accepted {
		t.Error("final=69 must be rejected")
	}
}

// TestConfiguredFloorIsHonored tests that a per-run floor replaces the default
func TestConfiguredFloorIsHonored(t *testing.T) {
	e := NewEngine(90, nil)

	d, err := e.Score(candidate(85, ""))
	if err != nil {
		t.Fatalf("Score returned error: %v", err)
	}
	if d.Accepted {
		t.Errorf("final=85 must be rejected under a floor of 90, got accepted with %d", d.Confidence)
	}

	d, err = e.Score(candidate(90, ""))
	if err != nil {
		t.Fatalf("Score returned error: %v", err)
	}
	if !d.Accepted {
		t.Error("final=90 must be accepted under a floor of 90 (strict <)")
	}

	// Zero floor falls back to the default
	e = NewEngine(0, nil)
	d, _ = e.Score(candidate(70, ""))
	if !d.Accepted {
		t.Error("zero floor must fall back to the default of 70")
	}
}

// TestCapAppliedAfterFloor tests that the 95 cap never masks a rejection
func TestCapAppliedAfterFloor(t *testing.T) {
	e := NewEngine(0, fixedPenalty(20))
	d, err := e.Score(candidate(90, ""))
	if err != nil {
		t.Fatalf("Score returned error: %v", err)
	}
	if !d.Accepted || d.Confidence != 95 {
		t.Errorf("final=110 must be capped to 95, got %d", d.Confidence)
	}
}

// TestDerivedBaseFromVolume tests the volume-derived base formula
func TestDerivedBaseFromVolume(t *testing.T) {
	e := NewEngine(0, nil)

	// ratio 0.7: 95 - (0.7/0.7)*25 = 70 exactly
	d, err := e.Score(candidate(0, "0.7"))
	if err != nil {
		t.Fatalf("Score returned error: %v", err)
	}
	if d.Base != 70 {
		t.Errorf("ratio=0.7 should derive base 70, got %d", d.Base)
	}
	if !d.Accepted {
		t.Error("derived base 70 with no penalty must be accepted")
	}

	// ratio 0.35: 95 - 12.5 = 82.5, floored to 82
	d, _ = e.Score(candidate(0, "0.35"))
	if d.Base != 82 {
		t.Errorf("ratio=0.35 should derive base 82 (round down), got %d", d.Base)
	}

	// Lower volume must never score lower than higher volume
	low, _ := e.Score(candidate(0, "0.2"))
	high, _ := e.Score(candidate(0, "0.6"))
	if low.Base <= high.Base {
		t.Errorf("derivation must be monotonic: ratio 0.2 gave %d, ratio 0.6 gave %d", low.Base, high.Base)
	}

	// Heavy volume clamps to the 70 floor of the derivation, not below
	d, _ = e.Score(candidate(0, "2.0"))
	if d.Base != 70 {
		t.Errorf("derived base must clamp at 70, got %d", d.Base)
	}
}

// TestInsufficientEvidence tests that no evidence means rejection, never a default
func TestInsufficientEvidence(t *testing.T) {
	e := NewEngine(0, nil)
	_, err := e.Score(candidate(0, ""))
	if err == nil {
		t.Fatal("candidate with no confidence and no ratio must be rejected")
	}
	if !errors.Is(err, ErrInsufficientEvidence) {
		t.Errorf("Expected ErrInsufficientEvidence, got %v", err)
	}
}

// TestAttachedConfidencePreferred tests that an attached confidence wins over derivation
func TestAttachedConfidencePreferred(t *testing.T) {
	e := NewEngine(0, nil)
	d, err := e.Score(candidate(90, "2.0"))
	if err != nil {
		t.Fatalf("Score returned error: %v", err)
	}
	if d.Base != 90 {
		t.Errorf("attached confidence 90 should be the base, got %d", d.Base)
	}
}
