package confidence

import (
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"wyckoff-trading-bot/internal/wyckoff"
)

const (
	// DefaultFloor is the standard rejection floor: a final confidence
	// strictly below the floor rejects the candidate.
	DefaultFloor = 70
	// Cap bounds the emitted confidence. Applied only after the floor
	// decision so it can never mask a rejection.
	Cap = 95
)

// ErrInsufficientEvidence is returned when a candidate carries neither an
// attached confidence nor a volume ratio. No fallback value is ever
// substituted.
var ErrInsufficientEvidence = errors.New("no confidence evidence available for candidate")

// SessionPenaltyFunc maps a candidate's bar timestamp to an integer session
// penalty (typically negative). A nil func means penalty 0.
type SessionPenaltyFunc func(ts time.Time) int

// Decision is the outcome of scoring one candidate. The base, penalty and
// final values are always populated so a rejection can be reconstructed
// from the log record alone.
type Decision struct {
	Accepted   bool
	Confidence int
	Base       int
	Penalty    int
	Reason     string
}

// Engine combines base confidence, session penalty, the hard floor and the
// cap into a final accept/reject decision. The floor is fixed at
// construction from the run's configured confidence threshold.
type Engine struct {
	floor     int
	penaltyFn SessionPenaltyFunc
}

// NewEngine creates an engine. A non-positive floor falls back to
// DefaultFloor; penaltyFn may be nil.
func NewEngine(floor int, penaltyFn SessionPenaltyFunc) *Engine {
	if floor <= 0 {
		floor = DefaultFloor
	}
	return &Engine{floor: floor, penaltyFn: penaltyFn}
}

// Score computes the final confidence for a candidate. Base confidence is
// the pattern's own attached confidence when present, otherwise derived
// from the volume ratio; with neither, the candidate is rejected with
// ErrInsufficientEvidence. The penalty is applied before the floor check —
// the floor is evaluated on the final value, never on the base.
func (e *Engine) Score(c wyckoff.PatternCandidate) (Decision, error) {
	var base int
	switch {
	case c.Confidence > 0:
		base = c.Confidence
	case c.VolumeRatio != nil:
		base = deriveFromVolume(*c.VolumeRatio)
	default:
		return Decision{}, ErrInsufficientEvidence
	}

	penalty := 0
	if e.penaltyFn != nil {
		penalty = e.penaltyFn(c.Timestamp)
	}

	final := base + penalty
	if final < e.floor {
		d := Decision{
			Accepted:   false,
			Confidence: final,
			Base:       base,
			Penalty:    penalty,
			Reason:     "final confidence below floor",
		}
		log.Warn().
			Str("pattern_type", c.PatternType).
			Str("symbol", c.Symbol).
			Int("computed_confidence", final).
			Int("base_confidence", base).
			Int("session_penalty", penalty).
			Int("floor", e.floor).
			Msg("candidate rejected below confidence floor")
		return d, nil
	}

	if final > Cap {
		final = Cap
	}
	return Decision{
		Accepted:   true,
		Confidence: final,
		Base:       base,
		Penalty:    penalty,
	}, nil
}

// deriveFromVolume maps a volume ratio to a base confidence:
// floor(95 − ratio/0.7 × 25), clamped to [70, 95]. Monotonic — the lighter
// the volume, the higher the confidence.
func deriveFromVolume(ratio decimal.Decimal) int {
	derived := decimal.NewFromInt(95).Sub(
		ratio.Div(decimal.RequireFromString("0.7")).Mul(decimal.NewFromInt(25)),
	)
	base := int(derived.Floor().IntPart())

	if base < 70 {
		return 70
	}
	if base > 95 {
		return 95
	}
	return base
}
