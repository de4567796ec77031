package obs

import (
	"sync/atomic"
	"time"
)

// TraceGenerator hands out the trace IDs stamped on event headers. IDs
// from one generator are strictly increasing, so a trace also orders
// the actions it spans.
type TraceGenerator struct {
	last atomic.Uint64
}

// NewTraceGenerator returns a generator whose first ID is seed+1. A
// zero seed falls back to the clock, keeping separate runs apart.
func NewTraceGenerator(seed uint64) *TraceGenerator {
	if seed == 0 {
		seed = uint64(time.Now().UTC().UnixNano())
	}
	g := &TraceGenerator{}
	g.last.Store(seed)
	return g
}

// Next returns the next trace ID. A nil generator yields zero, which
// headers treat as "no trace".
func (g *TraceGenerator) Next() uint64 {
	if g == nil {
		return 0
	}
	return g.last.Add(1)
}
