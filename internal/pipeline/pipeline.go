package pipeline

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"wyckoff-trading-bot/internal/confidence"
	"wyckoff-trading-bot/internal/signals"
	"wyckoff-trading-bot/internal/validation"
	"wyckoff-trading-bot/internal/wyckoff"
)

// signalPatterns are the event types that become trade candidates. The
// remaining events (SC, AR, ST, upthrusts) shape the phase but are not
// tradeable on their own.
var signalPatterns = map[wyckoff.EventType]bool{
	wyckoff.EventSpring: true,
	wyckoff.EventSOS:    true,
	wyckoff.EventLPS:    true,
	wyckoff.EventUTAD:   true,
}

// Result bundles one analysis pass: the phase outcome plus every signal
// that survived validation and scoring.
type Result struct {
	Phase   *wyckoff.PhaseResult
	Signals []signals.TradeSignal
}

// Pipeline runs classification, volume validation and confidence scoring
// as one pass over a bar window. Stateless between calls: each Analyze
// uses a fresh classifier, so the same input always yields the same
// signals (signal IDs and detection timestamps aside).
type Pipeline struct {
	cfg    wyckoff.DetectionConfig
	engine *confidence.Engine
}

// New builds a pipeline. The config's thresholds and confidence floor bind
// every stage for the run; penaltyFn may be nil for no session weighting.
func New(cfg wyckoff.DetectionConfig, penaltyFn confidence.SessionPenaltyFunc) *Pipeline {
	return &Pipeline{
		cfg:    cfg,
		engine: confidence.NewEngine(cfg.ConfidenceThreshold, penaltyFn),
	}
}

// Analyze classifies the bars and filters the resulting pattern candidates
// through validation and scoring. A candidate failing any stage is dropped
// and logged without affecting the others; only an unregistered pattern
// type aborts the pass, since that is a configuration error rather than a
// market condition.
func (p *Pipeline) Analyze(symbol, assetClass, timeframe string, bars []wyckoff.OHLCVBar, rng *wyckoff.TradingRangeContext) (*Result, error) {
	classifier := wyckoff.NewPhaseClassifier(p.cfg)
	phase := classifier.Classify(symbol, bars, rng)

	result := &Result{Phase: phase}
	if !phase.TradingAllowed {
		log.Debug().
			Str("symbol", symbol).
			Str("phase", phase.Phase.String()).
			Str("reason", phase.RejectionReason).
			Msg("trading not allowed for current phase, no signals emitted")
		return result, nil
	}

	for _, c := range extractCandidates(phase, symbol, assetClass) {
		strategy, err := validation.NewStrategy(c.PatternType, p.cfg)
		if err != nil {
			return nil, fmt.Errorf("analyze %s: %w", symbol, err)
		}

		v := strategy.Validate(validation.ValidationContext{
			Pattern:    c,
			Symbol:     symbol,
			AssetClass: assetClass,
		})
		if v.Status != validation.StatusPass {
			log.Info().
				Str("symbol", symbol).
				Str("pattern_type", c.PatternType).
				Str("reason", v.Reason).
				Msg("candidate failed volume validation")
			continue
		}

		decision, err := p.engine.Score(c)
		if err != nil {
			log.Warn().
				Err(err).
				Str("symbol", symbol).
				Str("pattern_type", c.PatternType).
				Msg("candidate could not be scored")
			continue
		}
		if !decision.Accepted {
			continue // rejection already logged by the engine
		}

		result.Signals = append(result.Signals, signals.New(c, timeframe, decision.Confidence))
	}

	return result, nil
}

// extractCandidates lifts the tradeable events out of a phase result.
func extractCandidates(phase *wyckoff.PhaseResult, symbol, assetClass string) []wyckoff.PatternCandidate {
	var out []wyckoff.PatternCandidate
	for _, ev := range phase.Events {
		if !signalPatterns[ev.Type] {
			continue
		}
		out = append(out, wyckoff.PatternCandidate{
			PatternType: string(ev.Type),
			Symbol:      symbol,
			AssetClass:  assetClass,
			Phase:       phase.Phase,
			BarIndex:    ev.BarIndex,
			Timestamp:   ev.Timestamp,
			Price:       ev.Price,
			VolumeRatio: ev.VolumeRatio,
			Confidence:  ev.Confidence,
		})
	}
	return out
}
