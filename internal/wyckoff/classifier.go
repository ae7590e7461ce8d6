package wyckoff

import (
	"github.com/rs/zerolog/log"

	"wyckoff-trading-bot/internal/analysis"
)

// validTransitions is the fixed one-directional transition table. Any
// other transition request is rejected, logged, and the phase stays
// unchanged.
var validTransitions = map[Phase]Phase{
	PhaseNone: PhaseA,
	PhaseA:    PhaseB,
	PhaseB:    PhaseC,
	PhaseC:    PhaseD,
	PhaseD:    PhaseE,
}

// PhaseClassifier walks one symbol's bars through the Wyckoff phase state
// machine. One classifier per symbol per analysis — never shared across
// symbols. Classify evaluates the full bar window from a clean state and
// keeps the resulting phase for inspection until Reset.
type PhaseClassifier struct {
	cfg      DetectionConfig
	phase    Phase
	startBar int

	sc     SellingClimaxDetector
	ar     AutomaticRallyDetector
	st     SecondaryTestDetector
	spring SpringDetector
	sos    SignOfStrengthDetector
	lps    LastPointOfSupportDetector
}

// NewPhaseClassifier creates a classifier with the given immutable config.
func NewPhaseClassifier(cfg DetectionConfig) *PhaseClassifier {
	return &PhaseClassifier{cfg: cfg, phase: PhaseNone}
}

// Phase returns the phase reached by the last Classify call.
func (c *PhaseClassifier) Phase() Phase { return c.phase }

// Reset starts a fresh state machine cycle.
func (c *PhaseClassifier) Reset() {
	c.phase = PhaseNone
	c.startBar = 0
}

// RequestTransition applies one transition against the fixed table. A
// transition out of Phase B additionally requires the minimum phase
// duration. Invalid requests are logged and ignored.
func (c *PhaseClassifier) RequestTransition(to Phase, barIndex int) bool {
	if validTransitions[c.phase] != to {
		log.Warn().
			Str("from", c.phase.String()).
			Str("to", to.String()).
			Int("bar_index", barIndex).
			Msg("invalid phase transition requested, phase unchanged")
		return false
	}
	if c.phase == PhaseB && barIndex-c.startBar < c.cfg.MinPhaseDuration {
		log.Warn().
			Int("duration_bars", barIndex-c.startBar).
			Int("min_phase_duration", c.cfg.MinPhaseDuration).
			Msg("phase B below minimum duration, transition rejected")
		return false
	}

	c.phase = to
	c.startBar = barIndex
	return true
}

// Classify runs the sequential detection chain SC → AR → ST → (Spring |
// continue) → SOS → LPS over the bars and advances the phase state machine
// as the structure confirms. Deterministic: the same bars and config always
// produce the same result.
func (c *PhaseClassifier) Classify(symbol string, bars []OHLCVBar, rng *TradingRangeContext) *PhaseResult {
	c.Reset()

	result := &PhaseResult{Symbol: symbol, Phase: PhaseNone}
	if len(bars) == 0 {
		result.RejectionReason = "no bars supplied"
		return result
	}

	volumes := make([]float64, len(bars))
	for i := range bars {
		volumes[i] = bars[i].Volume
	}
	vols := analysis.ComputeVolumeSeries(volumes, c.cfg.VolumeWindow)

	ctx := &DetectionContext{Phase: c.phase, PhaseStartBar: c.startBar, Range: rng}
	lastIdx := len(bars) - 1

	// Phase A: selling climax starts the cycle.
	if scEvents := c.sc.Detect(bars, vols, c.cfg, ctx); len(scEvents) > 0 {
		ctx.Events = append(ctx.Events, scEvents[0])
		c.RequestTransition(PhaseA, scEvents[0].BarIndex)
	}
	c.syncContext(ctx)

	if arEvents := c.ar.Detect(bars, vols, c.cfg, ctx); len(arEvents) > 0 {
		ctx.Events = append(ctx.Events, arEvents[0])
	}
	ctx.Events = append(ctx.Events, c.st.Detect(bars, vols, c.cfg, ctx)...)

	// A exits to B only once the rally and at least one test are present.
	if c.phase == PhaseA && ctx.HasEvent(EventAR) && ctx.HasEvent(EventST) {
		c.RequestTransition(PhaseB, ctx.FirstEvent(EventST).BarIndex)
	}
	c.syncContext(ctx)

	// Distribution-side upthrust check while the range is still building.
	if c.phase == PhaseB {
		if ut := DetectUpthrust(bars, vols, rng, c.startBar); ut != nil {
			ctx.Events = append(ctx.Events, *ut)
		}
	}

	// B matures into C after the minimum duration, once a trading range
	// exists to test against.
	if c.phase == PhaseB && rng != nil {
		if entry := c.startBar + c.cfg.MinPhaseDuration; entry <= lastIdx {
			c.RequestTransition(PhaseC, entry)
		}
	}
	c.syncContext(ctx)

	// C: spring test of the Creek.
	var springEvent *PhaseEvent
	if c.phase == PhaseC {
		if springs := c.spring.Detect(bars, vols, c.cfg, ctx); len(springs) > 0 {
			ctx.Events = append(ctx.Events, springs[0])
			springEvent = &ctx.Events[len(ctx.Events)-1]
		}

		if springEvent != nil {
			// C resolves once a later bar recovers above the spring bar's high.
			for j := springEvent.BarIndex + 1; j <= lastIdx; j++ {
				if bars[j].Close > bars[springEvent.BarIndex].High {
					c.RequestTransition(PhaseD, j)
					break
				}
			}
		} else if lastIdx-c.startBar >= c.cfg.MinPhaseDuration {
			// Supply absorbed without an undercut.
			c.RequestTransition(PhaseD, c.startBar+c.cfg.MinPhaseDuration)
		}
	}
	c.syncContext(ctx)

	// D: breakout and its retest.
	if c.phase == PhaseD {
		ctx.Events = append(ctx.Events, c.sos.Detect(bars, vols, c.cfg, ctx)...)
		if lpsEvents := c.lps.Detect(bars, vols, c.cfg, ctx); len(lpsEvents) > 0 {
			ctx.Events = append(ctx.Events, lpsEvents[0])
		}

		sos := ctx.FirstEvent(EventSOS)
		lps := ctx.FirstEvent(EventLPS)
		if sos != nil && lps != nil {
			for k := lps.BarIndex + 1; k <= lastIdx; k++ {
				if bars[k].Close > sos.Price {
					c.RequestTransition(PhaseE, k)
					break
				}
			}
		}
	}

	duration := lastIdx - c.startBar

	result.Phase = c.phase
	result.Events = ctx.Events
	result.StartBar = c.startBar
	result.DurationBars = duration
	result.Confidence = c.resultConfidence(ctx.Events, duration)
	result.TradingAllowed, result.RejectionReason = c.tradingEligibility(duration)

	return result
}

func (c *PhaseClassifier) syncContext(ctx *DetectionContext) {
	ctx.Phase = c.phase
	ctx.PhaseStartBar = c.startBar
}

// tradingEligibility enforces that trading is disallowed while the
// structure is in Phase A or in Phase B below the minimum duration.
func (c *PhaseClassifier) tradingEligibility(duration int) (bool, string) {
	switch {
	case c.phase == PhaseNone:
		return false, "no accumulation structure detected"
	case c.phase == PhaseA:
		return false, "phase A accumulation not confirmed"
	case c.phase == PhaseB && duration < c.cfg.MinPhaseDuration:
		return false, "phase B duration below minimum"
	default:
		return true, ""
	}
}

// resultConfidence derives the phase confidence from the constituent
// events' confidences and the current duration.
func (c *PhaseClassifier) resultConfidence(events []PhaseEvent, duration int) int {
	sum, n := 0, 0
	for i := range events {
		if events[i].Confidence > 0 {
			sum += events[i].Confidence
			n++
		}
	}
	if n == 0 {
		return 0
	}

	conf := sum / n
	if duration >= c.cfg.MinPhaseDuration {
		conf += 5
	}
	if conf > 95 {
		conf = 95
	}
	return conf
}
