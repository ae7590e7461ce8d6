package validation

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"wyckoff-trading-bot/internal/wyckoff"
)

func candidateWithRatio(patternType, ratio string) ValidationContext {
	r := decimal.RequireFromString(ratio)
	return ValidationContext{
		Pattern: wyckoff.PatternCandidate{
			PatternType: patternType,
			VolumeRatio: &r,
		},
		Symbol:     "BTCUSDT",
		AssetClass: "stock",
	}
}

// TestSpringBoundary tests that a spring at exactly the 0.7 maximum fails
func TestSpringBoundary(t *testing.T) {
	s, err := NewStrategy("SPRING", wyckoff.DefaultDetectionConfig())
	if err != nil {
		t.Fatalf("Failed to build spring strategy: %v", err)
	}

	if res := s.Validate(candidateWithRatio("SPRING", "0.7")); res.Status != StatusFail {
		t.Errorf("Spring at exact 0.7 threshold should FAIL, got %s (%s)", res.Status, res.Reason)
	}
	if res := s.Validate(candidateWithRatio("SPRING", "0.5")); res.Status != StatusPass {
		t.Errorf("Spring at 0.5 should PASS, got %s (%s)", res.Status, res.Reason)
	}
	if res := s.Validate(candidateWithRatio("SPRING", "0.9")); res.Status != StatusFail {
		t.Errorf("Spring at 0.9 should FAIL, got %s", res.Status)
	}
}

// TestSOSBoundary tests that an SOS at exactly the 1.5 minimum fails
func TestSOSBoundary(t *testing.T) {
	s, err := NewStrategy("SOS", wyckoff.DefaultDetectionConfig())
	if err != nil {
		t.Fatalf("Failed to build SOS strategy: %v", err)
	}

	if res := s.Validate(candidateWithRatio("SOS", "1.5")); res.Status != StatusFail {
		t.Errorf("SOS at exact 1.5 threshold should FAIL, got %s (%s)", res.Status, res.Reason)
	}
	if res := s.Validate(candidateWithRatio("SOS", "1.8")); res.Status != StatusPass {
		t.Errorf("SOS at 1.8 should PASS, got %s (%s)", res.Status, res.Reason)
	}
	if res := s.Validate(candidateWithRatio("SOS", "1.2")); res.Status != StatusFail {
		t.Errorf("SOS at 1.2 should FAIL, got %s", res.Status)
	}
}

// TestLPSBand tests the moderate band: both edges fail, the inside passes
func TestLPSBand(t *testing.T) {
	s, err := NewStrategy("LPS", wyckoff.DefaultDetectionConfig())
	if err != nil {
		t.Fatalf("Failed to build LPS strategy: %v", err)
	}

	if res := s.Validate(candidateWithRatio("LPS", "0.5")); res.Status != StatusFail {
		t.Errorf("LPS at lower band edge 0.5 should FAIL, got %s", res.Status)
	}
	if res := s.Validate(candidateWithRatio("LPS", "1.5")); res.Status != StatusFail {
		t.Errorf("LPS at upper band edge 1.5 should FAIL, got %s", res.Status)
	}
	if res := s.Validate(candidateWithRatio("LPS", "1.0")); res.Status != StatusPass {
		t.Errorf("LPS at 1.0 should PASS, got %s (%s)", res.Status, res.Reason)
	}
	if res := s.Validate(candidateWithRatio("LPS", "0.51")); res.Status != StatusPass {
		t.Errorf("LPS at 0.51 should PASS, got %s", res.Status)
	}
}

// TestUTADBoundary tests the upthrust bar volume minimum
func TestUTADBoundary(t *testing.T) {
	s, err := NewStrategy("UTAD", wyckoff.DefaultDetectionConfig())
	if err != nil {
		t.Fatalf("Failed to build UTAD strategy: %v", err)
	}

	if res := s.Validate(candidateWithRatio("UTAD", "1.5")); res.Status != StatusFail {
		t.Errorf("UTAD at exact 1.5 threshold should FAIL, got %s", res.Status)
	}
	if res := s.Validate(candidateWithRatio("UTAD", "2.0")); res.Status != StatusPass {
		t.Errorf("UTAD at 2.0 should PASS, got %s (%s)", res.Status, res.Reason)
	}
}

// TestConfiguredThresholdsOverrideDefaults tests that per-run spring/SOS
// thresholds replace the asset-class defaults
func TestConfiguredThresholdsOverrideDefaults(t *testing.T) {
	cfg := wyckoff.DefaultDetectionConfig()
	cfg.SpringVolumeMax = decimal.RequireFromString("0.1")
	cfg.VolumeThresholdSOS = decimal.RequireFromString("2.5")

	spring, err := NewStrategy("SPRING", cfg)
	if err != nil {
		t.Fatalf("Failed to build spring strategy: %v", err)
	}
	if !spring.Threshold("stock").Equal(decimal.RequireFromString("0.1")) {
		t.Errorf("Spring threshold should be the configured 0.1, got %s", spring.Threshold("stock"))
	}
	if res := spring.Validate(candidateWithRatio("SPRING", "0.5")); res.Status != StatusFail {
		t.Errorf("Spring at 0.5 should FAIL under a 0.1 maximum, got %s", res.Status)
	}
	if res := spring.Validate(candidateWithRatio("SPRING", "0.05")); res.Status != StatusPass {
		t.Errorf("Spring at 0.05 should PASS under a 0.1 maximum, got %s", res.Status)
	}

	sos, err := NewStrategy("SOS", cfg)
	if err != nil {
		t.Fatalf("Failed to build SOS strategy: %v", err)
	}
	if res := sos.Validate(candidateWithRatio("SOS", "2.3")); res.Status != StatusFail {
		t.Errorf("SOS at 2.3 should FAIL under a 2.5 minimum, got %s", res.Status)
	}
	if res := sos.Validate(candidateWithRatio("SOS", "3.0")); res.Status != StatusPass {
		t.Errorf("SOS at 3.0 should PASS under a 2.5 minimum, got %s", res.Status)
	}

	// A zero-valued config threshold keeps the asset-class default
	zero, _ := NewStrategy("SPRING", wyckoff.DetectionConfig{})
	if !zero.Threshold("stock").Equal(decimal.RequireFromString("0.7")) {
		t.Errorf("Zero config threshold should fall back to 0.7, got %s", zero.Threshold("stock"))
	}
}

// TestMissingRatioFails tests that a nil volume ratio never passes
func TestMissingRatioFails(t *testing.T) {
	for _, pattern := range []string{"SPRING", "SOS", "LPS", "UTAD"} {
		s, err := NewStrategy(pattern, wyckoff.DefaultDetectionConfig())
		if err != nil {
			t.Fatalf("Failed to build %s strategy: %v", pattern, err)
		}
		ctx := ValidationContext{
			Pattern:    wyckoff.PatternCandidate{PatternType: pattern, VolumeRatio: nil},
			AssetClass: "stock",
		}
		res := s.Validate(ctx)
		if res.Status != StatusFail {
			t.Errorf("%s with nil ratio should FAIL, got %s", pattern, res.Status)
		}
		if res.Reason == "" {
			t.Errorf("%s nil-ratio failure should carry a descriptive reason", pattern)
		}
	}
}

// TestUnknownPatternType tests that the factory fails loudly on unknown tags
func TestUnknownPatternType(t *testing.T) {
	_, err := NewStrategy("FOO", wyckoff.DefaultDetectionConfig())
	if err == nil {
		t.Fatal("Unknown pattern type should return an error, not a strategy")
	}
	if !errors.Is(err, ErrUnknownPattern) {
		t.Errorf("Expected ErrUnknownPattern, got %v", err)
	}
}

// TestFactoryNormalizesKey tests trimming and upper-casing of the pattern key
func TestFactoryNormalizesKey(t *testing.T) {
	s, err := NewStrategy("  spring ", wyckoff.DefaultDetectionConfig())
	if err != nil {
		t.Fatalf("Lower-case padded key should resolve: %v", err)
	}
	if s.PatternType() != "SPRING" {
		t.Errorf("Expected SPRING strategy, got %s", s.PatternType())
	}
	if s.ThresholdType() != ThresholdMax {
		t.Errorf("Spring should use a max threshold, got %s", s.ThresholdType())
	}
}

// TestAssetClassThresholdsIdentical tests stock and forex share the ratio today
func TestAssetClassThresholdsIdentical(t *testing.T) {
	s, _ := NewStrategy("SPRING", wyckoff.DefaultDetectionConfig())
	if !s.Threshold("stock").Equal(s.Threshold("forex")) {
		t.Error("Stock and forex spring thresholds should be identical")
	}
}
