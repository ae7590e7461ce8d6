package wyckoff

import (
	"wyckoff-trading-bot/internal/analysis"
)

// DetectUpthrust is the single distribution-side check implemented today:
// a bar that pokes above the range resistance but closes back below it.
// Only the upthrust bar's volume is recorded; the failure bar's volume is
// not separately modeled, so the event metadata keeps the failure bar index
// for a later extension.
func DetectUpthrust(bars []OHLCVBar, vols *analysis.VolumeSeries, rng *TradingRangeContext, from int) *PhaseEvent {
	if rng == nil {
		return nil
	}

	for i := from; i < len(bars); i++ {
		if bars[i].High > rng.Resistance && bars[i].Close < rng.Resistance {
			failureBar := -1
			if i+1 < len(bars) && bars[i+1].Close < bars[i].Close {
				failureBar = i + 1
			}
			return &PhaseEvent{
				Type:        EventUTAD,
				Timestamp:   bars[i].Timestamp,
				BarIndex:    i,
				Price:       bars[i].High,
				VolumeRatio: vols.Ratio(i),
				Confidence:  75,
				Metadata:    map[string]interface{}{"failure_bar": failureBar},
			}
		}
	}

	return nil
}
