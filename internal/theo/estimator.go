// Package theo estimates the drifting offset between the ETF and the
// future. The estimate mu is the running mean of the ETF half-spread
// sampled at mid-price crossings while holding inventory.
package theo

// Estimator tracks mu and the crossing flag. It is owned by the
// dispatcher goroutine and is not safe for concurrent use.
type Estimator struct {
	mu             float64
	sumMu          float64
	crossCount     int64
	etfAboveFuture bool
}

// State is the recoverable estimator state.
type State struct {
	Mu             float64 `json:"mu"`
	SumMu          float64 `json:"sum_mu"`
	CrossCount     int64   `json:"cross_count"`
	ETFAboveFuture bool    `json:"etf_above_future"`
}

// NewEstimator returns a zero-valued estimator.
func NewEstimator() *Estimator {
	return &Estimator{}
}

// Restore rebuilds an estimator from a recovered state.
func Restore(s State) *Estimator {
	return &Estimator{
		mu:             s.Mu,
		sumMu:          s.SumMu,
		crossCount:     s.CrossCount,
		etfAboveFuture: s.ETFAboveFuture,
	}
}

// Prime seeds mu with the ETF half-spread. It applies on every decision
// cycle until the first crossing has been observed, then becomes a no-op.
func (e *Estimator) Prime(etfMid, etfBid float64) {
	if e.crossCount == 0 {
		e.mu = etfMid - etfBid
	}
}

// Observe checks whether the ETF/future mid relationship flipped since
// the previous cycle. A flip while holding a position folds the current
// half-spread into the running mean. The stored relationship flag is
// updated on every call.
func (e *Estimator) Observe(etfMid, futureMid, etfBid float64, position int64) {
	above := etfMid > futureMid
	if above != e.etfAboveFuture && position != 0 {
		e.sumMu += etfMid - etfBid
		e.crossCount++
		e.mu = e.sumMu / float64(e.crossCount)
	}
	e.etfAboveFuture = above
}

// Mu returns the current offset estimate.
func (e *Estimator) Mu() float64 {
	return e.mu
}

// CrossCount returns the number of crossings folded into mu.
func (e *Estimator) CrossCount() int64 {
	return e.crossCount
}

// ETFAboveFuture returns the stored mid relationship flag.
func (e *Estimator) ETFAboveFuture() bool {
	return e.etfAboveFuture
}

// State captures the estimator for a snapshot.
func (e *Estimator) State() State {
	return State{
		Mu:             e.mu,
		SumMu:          e.sumMu,
		CrossCount:     e.crossCount,
		ETFAboveFuture: e.etfAboveFuture,
	}
}
