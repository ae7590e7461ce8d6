package wyckoff

import (
	"github.com/shopspring/decimal"

	"wyckoff-trading-bot/internal/analysis"
)

const (
	// arSearchWindow bounds how far past the climax the rally high is sought.
	arSearchWindow = 10
	// arMinRallyPct is the minimum rally off the climax low to qualify as an AR.
	arMinRallyPct = 1.03
	// stMaxTests caps how many secondary tests are recorded.
	stMaxTests = 10
	// stLowerBand / stUpperBand bound how close a test low must come to the
	// climax low (slight undercut tolerated).
	stLowerBand = 0.995
	stUpperBand = 1.02
)

// SellingClimaxDetector flags bars where panic selling exhausts supply:
// climactic volume on a sharp down bar. The starting point of the chain,
// no prerequisite.
type SellingClimaxDetector struct{}

func (d *SellingClimaxDetector) EventType() EventType { return EventSC }

func (d *SellingClimaxDetector) Detect(bars []OHLCVBar, vols *analysis.VolumeSeries, cfg DetectionConfig, ctx *DetectionContext) []PhaseEvent {
	var events []PhaseEvent

	for i := 1; i < len(bars); i++ {
		r := vols.Ratio(i)
		if r == nil {
			continue
		}
		if r.Cmp(cfg.VolumeThresholdSC) < 0 {
			continue
		}
		if !isSharpDownBar(bars[i], bars[i-1]) {
			continue
		}

		conf := 80
		if r.Cmp(decimal.NewFromInt(3)) >= 0 {
			conf = 85
		}
		events = append(events, PhaseEvent{
			Type:        EventSC,
			Timestamp:   bars[i].Timestamp,
			BarIndex:    i,
			Price:       bars[i].Low,
			VolumeRatio: r,
			Confidence:  conf,
		})
	}

	return events
}

// isSharpDownBar requires a down bar whose body dominates its range and
// whose close breaks the prior bar's low.
func isSharpDownBar(bar, prev OHLCVBar) bool {
	if bar.Close >= bar.Open {
		return false
	}
	body := bar.Open - bar.Close
	rng := bar.High - bar.Low
	if rng <= 0 || body < rng*0.6 {
		return false
	}
	return bar.Close < prev.Low
}

// AutomaticRallyDetector finds the rally high following a selling climax.
// Requires a prior SC event.
type AutomaticRallyDetector struct{}

func (d *AutomaticRallyDetector) EventType() EventType { return EventAR }

func (d *AutomaticRallyDetector) Detect(bars []OHLCVBar, vols *analysis.VolumeSeries, cfg DetectionConfig, ctx *DetectionContext) []PhaseEvent {
	sc := ctx.FirstEvent(EventSC)
	if sc == nil {
		return nil
	}

	end := sc.BarIndex + 1 + arSearchWindow
	if end > len(bars) {
		end = len(bars)
	}

	bestIdx := -1
	bestHigh := 0.0
	for i := sc.BarIndex + 1; i < end; i++ {
		if bars[i].High > bestHigh {
			bestHigh = bars[i].High
			bestIdx = i
		}
	}
	if bestIdx < 0 {
		return nil
	}

	scLow := bars[sc.BarIndex].Low
	if bestHigh < scLow*arMinRallyPct {
		return nil
	}

	return []PhaseEvent{{
		Type:        EventAR,
		Timestamp:   bars[bestIdx].Timestamp,
		BarIndex:    bestIdx,
		Price:       bestHigh,
		VolumeRatio: vols.Ratio(bestIdx),
		Confidence:  75,
	}}
}

// SecondaryTestDetector finds retests of the climax low on diminished
// volume. Requires prior SC and AR events; records up to ten tests, each
// validated independently.
type SecondaryTestDetector struct{}

func (d *SecondaryTestDetector) EventType() EventType { return EventST }

func (d *SecondaryTestDetector) Detect(bars []OHLCVBar, vols *analysis.VolumeSeries, cfg DetectionConfig, ctx *DetectionContext) []PhaseEvent {
	sc := ctx.FirstEvent(EventSC)
	ar := ctx.FirstEvent(EventAR)
	if sc == nil || ar == nil {
		return nil
	}

	scLow := bars[sc.BarIndex].Low
	var events []PhaseEvent

	for i := ar.BarIndex + 1; i < len(bars) && len(events) < stMaxTests; i++ {
		low := bars[i].Low
		if low < scLow*stLowerBand || low > scLow*stUpperBand {
			continue
		}
		if bars[i].Close <= scLow {
			continue
		}
		r := vols.Ratio(i)
		if r == nil || sc.VolumeRatio == nil || r.Cmp(*sc.VolumeRatio) >= 0 {
			continue
		}

		conf := 72
		if r.Cmp(decimal.NewFromInt(1)) < 0 {
			conf = 80
		}
		events = append(events, PhaseEvent{
			Type:        EventST,
			Timestamp:   bars[i].Timestamp,
			BarIndex:    i,
			Price:       low,
			VolumeRatio: r,
			Confidence:  conf,
		})
	}

	return events
}
