package wyckoff

import (
	"github.com/shopspring/decimal"

	"wyckoff-trading-bot/internal/analysis"
)

// LPS distance-quality tiers, from the pullback low's distance to the
// broken resistance.
const (
	TierPremium    = "PREMIUM"
	TierQuality    = "QUALITY"
	TierAcceptable = "ACCEPTABLE"

	tierPremiumMaxPct = 0.3
	tierQualityMaxPct = 1.0

	lpsPullbackBand = 1.01
	lpsHoldBand     = 0.995
)

// SpringDetector finds a Phase C undercut of the range support (the Creek)
// that recovers back above it within the same bar. The volume gate is
// enforced downstream by the validation stage, not here, but out-of-phase
// candidates are rejected at the detector.
type SpringDetector struct{}

func (d *SpringDetector) EventType() EventType { return EventSpring }

func (d *SpringDetector) Detect(bars []OHLCVBar, vols *analysis.VolumeSeries, cfg DetectionConfig, ctx *DetectionContext) []PhaseEvent {
	if ctx.Phase != PhaseC || ctx.Range == nil {
		return nil
	}

	support := ctx.Range.Support
	for i := ctx.PhaseStartBar; i < len(bars); i++ {
		if bars[i].Low < support && bars[i].Close > support {
			return []PhaseEvent{{
				Type:        EventSpring,
				Timestamp:   bars[i].Timestamp,
				BarIndex:    i,
				Price:       bars[i].Low,
				VolumeRatio: vols.Ratio(i),
			}}
		}
	}

	return nil
}

// SignOfStrengthDetector flags Phase D breakout bars: a close crossing
// above the range resistance (the Ice) from below.
type SignOfStrengthDetector struct{}

func (d *SignOfStrengthDetector) EventType() EventType { return EventSOS }

func (d *SignOfStrengthDetector) Detect(bars []OHLCVBar, vols *analysis.VolumeSeries, cfg DetectionConfig, ctx *DetectionContext) []PhaseEvent {
	if ctx.Phase != PhaseD || ctx.Range == nil {
		return nil
	}

	resistance := ctx.Range.Resistance
	var events []PhaseEvent
	for i := ctx.PhaseStartBar; i < len(bars); i++ {
		if bars[i].Close <= resistance {
			continue
		}
		if i > 0 && bars[i-1].Close > resistance {
			continue // already above, not a breakout bar
		}

		r := vols.Ratio(i)
		conf := 82
		if r != nil && r.Cmp(decimal.NewFromInt(2)) >= 0 {
			conf = 87
		}
		events = append(events, PhaseEvent{
			Type:        EventSOS,
			Timestamp:   bars[i].Timestamp,
			BarIndex:    i,
			Price:       bars[i].Close,
			VolumeRatio: r,
			Confidence:  conf,
		})
	}

	return events
}

// LastPointOfSupportDetector finds the pullback toward the broken
// resistance after a confirmed SOS. The pullback's distance to the
// resistance level sets a quality tier which feeds confidence.
type LastPointOfSupportDetector struct{}

func (d *LastPointOfSupportDetector) EventType() EventType { return EventLPS }

func (d *LastPointOfSupportDetector) Detect(bars []OHLCVBar, vols *analysis.VolumeSeries, cfg DetectionConfig, ctx *DetectionContext) []PhaseEvent {
	sos := ctx.FirstEvent(EventSOS)
	if sos == nil || ctx.Range == nil {
		return nil
	}

	resistance := ctx.Range.Resistance
	for i := sos.BarIndex + 1; i < len(bars); i++ {
		low := bars[i].Low
		if low > resistance*lpsPullbackBand {
			continue
		}
		if bars[i].Close < resistance*lpsHoldBand {
			continue
		}

		tier, conf := lpsQualityTier(low, resistance)
		return []PhaseEvent{{
			Type:        EventLPS,
			Timestamp:   bars[i].Timestamp,
			BarIndex:    i,
			Price:       low,
			VolumeRatio: vols.Ratio(i),
			Confidence:  conf,
			Metadata:    map[string]interface{}{"quality_tier": tier},
		}}
	}

	return nil
}

func lpsQualityTier(low, resistance float64) (string, int) {
	dist := low - resistance
	if dist < 0 {
		dist = -dist
	}
	distPct := dist / resistance * 100

	switch {
	case distPct <= tierPremiumMaxPct:
		return TierPremium, 90
	case distPct <= tierQualityMaxPct:
		return TierQuality, 85
	default:
		return TierAcceptable, 78
	}
}
