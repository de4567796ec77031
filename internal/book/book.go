// Package book tracks the top-of-book state of the two instruments. The
// future side keeps the raw price arrays from the latest update; the ETF
// side keeps the full snapshot that drives a decision cycle.
package book

import "main/internal/schema"

// Tracker stores the latest book state per instrument. It is owned by
// the dispatcher goroutine and is not safe for concurrent use.
type Tracker struct {
	futureAskPrices [schema.TopLevels]schema.Price
	futureBidPrices [schema.TopLevels]schema.Price
	futureSeq       uint32
	futureSeen      bool

	etf     schema.OrderBook
	etfSeen bool
}

// NewTracker returns an empty tracker. Until the first future update the
// future arrays read zero, which flows into the decision arithmetic
// unchanged.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Apply stores a book update and reports whether it belongs to the ETF,
// i.e. whether a decision cycle should follow.
func (t *Tracker) Apply(update schema.OrderBook) bool {
	if update.Instrument == schema.InstrumentFuture {
		t.futureAskPrices = update.AskPrices
		t.futureBidPrices = update.BidPrices
		t.futureSeq = update.Seq
		t.futureSeen = true
		return false
	}
	t.etf = update
	t.etfSeen = true
	return true
}

// FutureBestAsk returns the level-0 future ask price.
func (t *Tracker) FutureBestAsk() schema.Price {
	return t.futureAskPrices[0]
}

// FutureBestBid returns the level-0 future bid price.
func (t *Tracker) FutureBestBid() schema.Price {
	return t.futureBidPrices[0]
}

// ETF returns the latest ETF snapshot.
func (t *Tracker) ETF() schema.OrderBook {
	return t.etf
}

// ETFQuotable reports whether the latest ETF snapshot has non-zero
// level-0 prices on both sides. A zero on either side suppresses the
// decision cycle.
func (t *Tracker) ETFQuotable() bool {
	return t.etfSeen && t.etf.AskPrices[0] != 0 && t.etf.BidPrices[0] != 0
}

// Seq returns the last stored sequence number for an instrument. The
// values are observability only; they never gate processing.
func (t *Tracker) Seq(inst schema.Instrument) uint32 {
	if inst == schema.InstrumentFuture {
		return t.futureSeq
	}
	return t.etf.Seq
}

// Seen reports whether an update for the instrument has arrived.
func (t *Tracker) Seen(inst schema.Instrument) bool {
	if inst == schema.InstrumentFuture {
		return t.futureSeen
	}
	return t.etfSeen
}
