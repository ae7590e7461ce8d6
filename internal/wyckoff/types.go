package wyckoff

import (
	"time"

	"github.com/shopspring/decimal"
)

// OHLCVBar is a single candlestick. Immutable once ingested.
type OHLCVBar struct {
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// EventType identifies a Wyckoff structural event.
type EventType string

const (
	EventSC     EventType = "SC"     // Selling Climax
	EventAR     EventType = "AR"     // Automatic Rally
	EventST     EventType = "ST"     // Secondary Test
	EventSpring EventType = "SPRING" // Spring (Phase C undercut and recovery)
	EventUTAD   EventType = "UTAD"   // Upthrust After Distribution
	EventSOS    EventType = "SOS"    // Sign of Strength
	EventSOW    EventType = "SOW"    // Sign of Weakness (not detected, distribution side)
	EventLPS    EventType = "LPS"    // Last Point of Support
	EventLPSY   EventType = "LPSY"   // Last Point of Supply (not detected, distribution side)
)

// PhaseEvent is a discrete structural event emitted by a detector.
// Immutable once created. Confidence 0 means the detector attached no
// confidence of its own; downstream scoring derives one from the volume
// ratio or rejects the candidate.
type PhaseEvent struct {
	Type        EventType
	Timestamp   time.Time
	BarIndex    int
	Price       float64
	VolumeRatio *decimal.Decimal
	Confidence  int
	Metadata    map[string]interface{}
}

// Phase is one of the five Wyckoff accumulation stages.
type Phase int

const (
	PhaseNone Phase = iota
	PhaseA
	PhaseB
	PhaseC
	PhaseD
	PhaseE
)

func (p Phase) String() string {
	switch p {
	case PhaseA:
		return "A"
	case PhaseB:
		return "B"
	case PhaseC:
		return "C"
	case PhaseD:
		return "D"
	case PhaseE:
		return "E"
	default:
		return "NONE"
	}
}

// PhaseResult is the outcome of classifying one symbol's bars. Owned and
// mutated only by the PhaseClassifier during a single classification call;
// a fresh instance per symbol and per run.
type PhaseResult struct {
	Symbol          string
	Phase           Phase
	Confidence      int
	Events          []PhaseEvent
	StartBar        int
	DurationBars    int
	TradingAllowed  bool
	RejectionReason string
}

// TradingRangeContext carries the externally supplied support ("Creek") and
// resistance ("Ice") reference levels. Read-only to this package.
type TradingRangeContext struct {
	Support    float64
	Resistance float64
}

// DetectionConfig holds the per-run detection thresholds. Thresholds are
// volume ratios and stay constant regardless of timeframe. Immutable per run.
type DetectionConfig struct {
	MinPhaseDuration    int
	SpringVolumeMax     decimal.Decimal
	VolumeThresholdSOS  decimal.Decimal
	VolumeThresholdSC   decimal.Decimal
	ConfidenceThreshold int
	LookbackBars        int
	VolumeWindow        int
}

// DefaultDetectionConfig returns the standard thresholds.
func DefaultDetectionConfig() DetectionConfig {
	return DetectionConfig{
		MinPhaseDuration:    10,
		SpringVolumeMax:     decimal.RequireFromString("0.7"),
		VolumeThresholdSOS:  decimal.RequireFromString("1.5"),
		VolumeThresholdSC:   decimal.RequireFromString("2.0"),
		ConfidenceThreshold: 70,
		LookbackBars:        100,
		VolumeWindow:        20,
	}
}

// PatternCandidate is produced by the classifier from a detected event and
// consumed by the validation and confidence stages, then discarded.
// Confidence 0 means no pre-computed confidence is attached.
type PatternCandidate struct {
	PatternType string
	Symbol      string
	AssetClass  string
	Phase       Phase
	BarIndex    int
	Timestamp   time.Time
	Price       float64
	VolumeRatio *decimal.Decimal
	Confidence  int
}
