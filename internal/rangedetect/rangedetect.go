// Package rangedetect derives the trading-range reference levels (the
// Creek support and the Ice resistance) from a bar window, so the phase
// classifier has externally supplied levels to test springs and breakouts
// against.
package rangedetect

import (
	"wyckoff-trading-bot/internal/wyckoff"
)

const (
	// rallyWindow bounds how far past the range low the range high is
	// sought. Matches the automatic-rally search horizon.
	rallyWindow = 10

	minRangeBars = 6
)

// Detect returns the support/resistance pair for the bar window, or nil
// when the window is too short to establish a range.
//
// The Creek is the lowest low of the window (the climax area); the Ice is
// the highest high of the rally that follows it. A window whose low sits
// at the very end has no rally yet and yields no range.
func Detect(bars []wyckoff.OHLCVBar) *wyckoff.TradingRangeContext {
	if len(bars) < minRangeBars {
		return nil
	}

	lowIdx := 0
	for i := 1; i < len(bars); i++ {
		if bars[i].Low < bars[lowIdx].Low {
			lowIdx = i
		}
	}
	support := bars[lowIdx].Low

	end := lowIdx + 1 + rallyWindow
	if end > len(bars) {
		end = len(bars)
	}

	resistance := support
	for i := lowIdx + 1; i < end; i++ {
		if bars[i].High > resistance {
			resistance = bars[i].High
		}
	}

	if resistance <= support {
		return nil
	}

	return &wyckoff.TradingRangeContext{
		Support:    support,
		Resistance: resistance,
	}
}
