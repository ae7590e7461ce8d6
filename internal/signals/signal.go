package signals

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"wyckoff-trading-bot/internal/wyckoff"
)

// TradeSignal is an accepted, fully scored pattern ready for persistence
// and broadcast. Immutable after creation.
type TradeSignal struct {
	ID              uuid.UUID        `json:"id"`
	Symbol          string           `json:"symbol"`
	AssetClass      string           `json:"asset_class"`
	Timeframe       string           `json:"timeframe"`
	PatternType     string           `json:"pattern_type"`
	Phase           wyckoff.Phase    `json:"phase"`
	ConfidenceScore int              `json:"confidence_score"`
	VolumeRatio     *decimal.Decimal `json:"volume_ratio,omitempty"`
	Price           float64          `json:"price"`
	BarTimestamp    time.Time        `json:"bar_timestamp"`
	DetectedAt      time.Time        `json:"detected_at"`
}

// New builds a signal from an accepted candidate and its final confidence.
func New(c wyckoff.PatternCandidate, timeframe string, confidence int) TradeSignal {
	return TradeSignal{
		ID:              uuid.New(),
		Symbol:          c.Symbol,
		AssetClass:      c.AssetClass,
		Timeframe:       timeframe,
		PatternType:     c.PatternType,
		Phase:           c.Phase,
		ConfidenceScore: confidence,
		VolumeRatio:     c.VolumeRatio,
		Price:           c.Price,
		BarTimestamp:    c.Timestamp,
		DetectedAt:      time.Now().UTC(),
	}
}
