package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"wyckoff-trading-bot/internal/wyckoff"
)

// Status is the outcome of one validation stage. There is deliberately no
// third "warn" state for volume rules: a candidate either passes or fails.
type Status string

const (
	StatusPass Status = "PASS"
	StatusFail Status = "FAIL"
)

// ThresholdType describes how a strategy's threshold is applied.
type ThresholdType string

const (
	ThresholdMax      ThresholdType = "max"      // ratio must stay below the threshold
	ThresholdMin      ThresholdType = "min"      // ratio must exceed the threshold
	ThresholdModerate ThresholdType = "moderate" // ratio must sit strictly inside a band
)

// ErrUnknownPattern is returned by the factory for pattern types without a
// registered strategy. Misconfiguration must be loud, never a silent pass.
var ErrUnknownPattern = errors.New("no volume validation strategy registered for pattern type")

// ValidationContext is the ephemeral input to one validation call.
type ValidationContext struct {
	Pattern    wyckoff.PatternCandidate
	Symbol     string
	AssetClass string
}

// StageValidationResult is the PASS/FAIL outcome with a human-readable
// reason and optional metadata.
type StageValidationResult struct {
	Status   Status
	Reason   string
	Metadata map[string]interface{}
}

// VolumeStrategy checks one pattern type's volume evidence against its
// threshold. All comparisons use exact decimal arithmetic; a missing ratio
// fails explicitly.
type VolumeStrategy interface {
	PatternType() string
	ThresholdType() ThresholdType
	Threshold(assetClass string) decimal.Decimal
	Validate(ctx ValidationContext) StageValidationResult
}

// NewStrategy selects the strategy for a pattern type, bound to the run's
// configured thresholds. Zero-valued thresholds fall back to the asset-class
// defaults. The key is trimmed and upper-cased; unknown types return
// ErrUnknownPattern.
func NewStrategy(patternType string, cfg wyckoff.DetectionConfig) (VolumeStrategy, error) {
	key := strings.ToUpper(strings.TrimSpace(patternType))
	switch key {
	case "SPRING":
		return &springStrategy{max: cfg.SpringVolumeMax}, nil
	case "SOS":
		return &sosStrategy{min: cfg.VolumeThresholdSOS}, nil
	case "LPS":
		return &lpsStrategy{}, nil
	case "UTAD":
		return &utadStrategy{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPattern, patternType)
	}
}

// failMissingRatio is the shared fail-closed path for absent volume
// evidence. A naive float comparison against NaN would evaluate false and
// silently pass; the nil check makes the rejection explicit instead.
func failMissingRatio(patternType string) StageValidationResult {
	return StageValidationResult{
		Status: StatusFail,
		Reason: fmt.Sprintf("%s candidate has no volume ratio, cannot validate volume evidence", patternType),
	}
}
