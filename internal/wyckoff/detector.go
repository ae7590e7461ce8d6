package wyckoff

import (
	"wyckoff-trading-bot/internal/analysis"
)

// Detector finds one event type in a bar sequence. Detectors are stateless;
// everything they need arrives through the arguments. A detector whose
// prerequisite event is absent returns an empty slice — absence of a
// dependency is "not yet observed", never an error.
type Detector interface {
	EventType() EventType
	Detect(bars []OHLCVBar, vols *analysis.VolumeSeries, cfg DetectionConfig, ctx *DetectionContext) []PhaseEvent
}

// DetectionContext threads the accumulated event chain and phase state
// through the sequential detector pipeline. Short-lived: one per
// classification call.
type DetectionContext struct {
	Phase         Phase
	PhaseStartBar int
	Events        []PhaseEvent
	Range         *TradingRangeContext
}

// FirstEvent returns the earliest event of the given type, or nil.
func (c *DetectionContext) FirstEvent(t EventType) *PhaseEvent {
	for i := range c.Events {
		if c.Events[i].Type == t {
			return &c.Events[i]
		}
	}
	return nil
}

// HasEvent reports whether at least one event of the given type exists.
func (c *DetectionContext) HasEvent(t EventType) bool {
	return c.FirstEvent(t) != nil
}

// CountEvents returns the number of events of the given type.
func (c *DetectionContext) CountEvents(t EventType) int {
	n := 0
	for i := range c.Events {
		if c.Events[i].Type == t {
			n++
		}
	}
	return n
}
