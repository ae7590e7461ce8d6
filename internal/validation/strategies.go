package validation

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Default thresholds per asset class. Stock and forex carry the same ratio
// today; the split exists so they can diverge without an interface change.
var (
	springMaxThresholds = map[string]decimal.Decimal{
		"stock": decimal.RequireFromString("0.7"),
		"forex": decimal.RequireFromString("0.7"),
	}
	sosMinThresholds = map[string]decimal.Decimal{
		"stock": decimal.RequireFromString("1.5"),
		"forex": decimal.RequireFromString("1.5"),
	}
	utadMinThresholds = map[string]decimal.Decimal{
		"stock": decimal.RequireFromString("1.5"),
		"forex": decimal.RequireFromString("1.5"),
	}
)

// LPS moderate band: lighter than an SOS breakout, heavier than a Spring.
// TODO: promote the band bounds to DetectionConfig alongside the Spring/SOS
// thresholds instead of keeping them local constants.
var (
	lpsBandLow  = decimal.RequireFromString("0.5")
	lpsBandHigh = decimal.RequireFromString("1.5")
)

func thresholdFor(m map[string]decimal.Decimal, assetClass string) decimal.Decimal {
	if t, ok := m[assetClass]; ok {
		return t
	}
	return m["stock"]
}

// springStrategy: a spring must print on dried-up volume. Ratio at or above
// the maximum fails — the boundary itself is a failure. max is the run's
// configured maximum; zero means use the asset-class default.
type springStrategy struct {
	max decimal.Decimal
}

func (s *springStrategy) PatternType() string          { return "SPRING" }
func (s *springStrategy) ThresholdType() ThresholdType { return ThresholdMax }
func (s *springStrategy) Threshold(assetClass string) decimal.Decimal {
	if s.max.IsPositive() {
		return s.max
	}
	return thresholdFor(springMaxThresholds, assetClass)
}

func (s *springStrategy) Validate(ctx ValidationContext) StageValidationResult {
	r := ctx.Pattern.VolumeRatio
	if r == nil {
		return failMissingRatio(s.PatternType())
	}
	threshold := s.Threshold(ctx.AssetClass)
	if r.Cmp(threshold) >= 0 {
		return StageValidationResult{
			Status: StatusFail,
			Reason: fmt.Sprintf("spring volume ratio %s is not below the %s maximum", r.String(), threshold.String()),
			Metadata: map[string]interface{}{
				"volume_ratio": r.String(),
				"threshold":    threshold.String(),
			},
		}
	}
	return StageValidationResult{
		Status: StatusPass,
		Reason: fmt.Sprintf("spring volume ratio %s below %s maximum", r.String(), threshold.String()),
	}
}

// sosStrategy: a sign of strength needs expanding volume behind the
// breakout. Ratio at or below the minimum fails. min is the run's
// configured minimum; zero means use the asset-class default.
type sosStrategy struct {
	min decimal.Decimal
}

func (s *sosStrategy) PatternType() string          { return "SOS" }
func (s *sosStrategy) ThresholdType() ThresholdType { return ThresholdMin }
func (s *sosStrategy) Threshold(assetClass string) decimal.Decimal {
	if s.min.IsPositive() {
		return s.min
	}
	return thresholdFor(sosMinThresholds, assetClass)
}

func (s *sosStrategy) Validate(ctx ValidationContext) StageValidationResult {
	r := ctx.Pattern.VolumeRatio
	if r == nil {
		return failMissingRatio(s.PatternType())
	}
	threshold := s.Threshold(ctx.AssetClass)
	if r.Cmp(threshold) <= 0 {
		return StageValidationResult{
			Status: StatusFail,
			Reason: fmt.Sprintf("SOS volume ratio %s is not above the %s minimum", r.String(), threshold.String()),
			Metadata: map[string]interface{}{
				"volume_ratio": r.String(),
				"threshold":    threshold.String(),
			},
		}
	}
	return StageValidationResult{
		Status: StatusPass,
		Reason: fmt.Sprintf("SOS volume ratio %s above %s minimum", r.String(), threshold.String()),
	}
}

// lpsStrategy: the pullback should come on moderate volume, strictly inside
// the band. Both band edges fail.
type lpsStrategy struct{}

func (s *lpsStrategy) PatternType() string          { return "LPS" }
func (s *lpsStrategy) ThresholdType() ThresholdType { return ThresholdModerate }
func (s *lpsStrategy) Threshold(assetClass string) decimal.Decimal {
	return lpsBandHigh
}

func (s *lpsStrategy) Validate(ctx ValidationContext) StageValidationResult {
	r := ctx.Pattern.VolumeRatio
	if r == nil {
		return failMissingRatio(s.PatternType())
	}
	if r.Cmp(lpsBandLow) <= 0 || r.Cmp(lpsBandHigh) >= 0 {
		return StageValidationResult{
			Status: StatusFail,
			Reason: fmt.Sprintf("LPS volume ratio %s outside the moderate band (%s, %s)", r.String(), lpsBandLow.String(), lpsBandHigh.String()),
			Metadata: map[string]interface{}{
				"volume_ratio": r.String(),
				"band_low":     lpsBandLow.String(),
				"band_high":    lpsBandHigh.String(),
			},
		}
	}
	return StageValidationResult{
		Status: StatusPass,
		Reason: fmt.Sprintf("LPS volume ratio %s inside the moderate band", r.String()),
	}
}

// utadStrategy: the upthrust bar itself must show climactic volume; the
// failure bar's volume is not separately modeled, which validates only one
// of the two classical UTAD volume signatures.
type utadStrategy struct{}

func (s *utadStrategy) PatternType() string          { return "UTAD" }
func (s *utadStrategy) ThresholdType() ThresholdType { return ThresholdMin }
func (s *utadStrategy) Threshold(assetClass string) decimal.Decimal {
	return thresholdFor(utadMinThresholds, assetClass)
}

func (s *utadStrategy) Validate(ctx ValidationContext) StageValidationResult {
	r := ctx.Pattern.VolumeRatio
	if r == nil {
		return failMissingRatio(s.PatternType())
	}
	threshold := s.Threshold(ctx.AssetClass)
	if r.Cmp(threshold) <= 0 {
		return StageValidationResult{
			Status: StatusFail,
			Reason: fmt.Sprintf("UTAD upthrust volume ratio %s is not above the %s minimum", r.String(), threshold.String()),
			Metadata: map[string]interface{}{
				"volume_ratio": r.String(),
				"threshold":    threshold.String(),
			},
		}
	}
	return StageValidationResult{
		Status: StatusPass,
		Reason: fmt.Sprintf("UTAD upthrust volume ratio %s above %s minimum", r.String(), threshold.String()),
	}
}
