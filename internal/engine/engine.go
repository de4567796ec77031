/*
Engine implements the quoting strategy executor.

# Module
  - book tracker: latest future prices and the ETF snapshot
  - offset estimator: drifting ETF/future offset mu
  - order ledger: per-order state, live slots, position, hedge flow
  - risk engine: static limit checks on outgoing quotes

# Source
 1. venue events decoded from a live session
 2. synthetic events from the paper trading venue
 3. journal replay during recovery

# Produce
  - order insert/cancel/hedge actions and risk decisions to the out queue

All handlers run on the dispatcher goroutine; nothing here locks.
*/
package engine

import (
	"time"

	"github.com/yanun0323/logs"

	"main/internal/book"
	"main/internal/codec"
	"main/internal/ledger"
	"main/internal/obs"
	"main/internal/risk"
	"main/internal/schema"
	"main/internal/theo"
)

// Spread parameters in ticks. Only gamma enters the quoted width;
// epsilon is a tuning knob left at its calibrated value.
const (
	epsilonTicks = 0.8
	gammaTicks   = 0.0
)

// Emit delivers an engine-produced event to the out queue. A nil Emit
// mutes the engine, used when replaying the journal during recovery.
type Emit func(header schema.EventHeader, payload []byte)

// Config assembles an engine. Nil components default to fresh ones.
type Config struct {
	Limits    *risk.Engine
	Metrics   *obs.Metrics
	Traces    *obs.TraceGenerator
	Estimator *theo.Estimator
	Orders    *ledger.Ledger
	Emit      Emit
	Now       func() int64
}

// Engine turns venue events into quoting actions.
type Engine struct {
	books     *book.Tracker
	estimator *theo.Estimator
	orders    *ledger.Ledger
	limits    *risk.Engine
	metrics   *obs.Metrics
	traces    *obs.TraceGenerator

	emit Emit
	now  func() int64
	seq  uint64
}

// New builds an engine from a config.
func New(cfg Config) *Engine {
	e := &Engine{
		books:     book.NewTracker(),
		estimator: cfg.Estimator,
		orders:    cfg.Orders,
		limits:    cfg.Limits,
		metrics:   cfg.Metrics,
		traces:    cfg.Traces,
		emit:      cfg.Emit,
		now:       cfg.Now,
	}
	if e.estimator == nil {
		e.estimator = theo.NewEstimator()
	}
	if e.orders == nil {
		e.orders = ledger.New()
	}
	if e.limits == nil {
		e.limits = risk.NewEngine(risk.Config{})
	}
	if e.metrics == nil {
		e.metrics = obs.NewMetrics()
	}
	if e.traces == nil {
		e.traces = obs.NewTraceGenerator(0)
	}
	if e.now == nil {
		e.now = func() int64 { return time.Now().UTC().UnixNano() }
	}
	return e
}

// OnOrderBook stores the update and, for a quotable ETF snapshot, runs
// one decision cycle.
func (e *Engine) OnOrderBook(h schema.EventHeader, update schema.OrderBook) {
	e.metrics.ObserveEvent(h)
	if !e.books.Apply(update) {
		return
	}
	if !e.books.ETFQuotable() {
		return
	}
	start := time.Now()
	e.decide(h)
	e.metrics.ObserveDecide(time.Since(start))
}

// OnTradeTicks counts the event. Traded volume does not feed the
// strategy.
func (e *Engine) OnTradeTicks(h schema.EventHeader, _ schema.TradeTicks) {
	e.metrics.ObserveEvent(h)
}

// OnOrderFilled moves the position and hedges the fill on the future.
func (e *Engine) OnOrderFilled(h schema.EventHeader, fill schema.OrderFilled) {
	e.metrics.ObserveEvent(h)
	hedge, ok := e.orders.ApplyFilled(fill)
	if !ok {
		return
	}
	e.send(schema.EventOrderHedge, codec.EncodeOrderHedge(nil, hedge), e.traceFor(h))
}

// OnOrderStatus applies an order status report to the ledger.
func (e *Engine) OnOrderStatus(h schema.EventHeader, status schema.OrderStatus) {
	e.metrics.ObserveEvent(h)
	e.orders.ApplyStatus(status)
}

// OnHedgeFilled records the hedge execution against the future position.
func (e *Engine) OnHedgeFilled(h schema.EventHeader, fill schema.HedgeFilled) {
	e.metrics.ObserveEvent(h)
	e.orders.ApplyHedgeFilled(fill)
}

// OnVenueError logs the error and, when it names an outstanding order,
// treats it as that order's terminal status report.
func (e *Engine) OnVenueError(h schema.EventHeader, venueErr schema.VenueError) {
	e.metrics.ObserveEvent(h)
	logs.Warnf("venue error: order=%d message=%q", venueErr.OrderID, venueErr.MessageString())
	if e.orders.ShouldSynthesizeStatus(venueErr.OrderID) {
		e.orders.ApplyStatus(schema.OrderStatus{OrderID: venueErr.OrderID})
	}
}

func (e *Engine) decide(h schema.EventHeader) {
	etf := e.books.ETF()
	etfAsk := etf.AskPrices[0]
	etfBid := etf.BidPrices[0]
	futureAsk := e.books.FutureBestAsk()
	futureBid := e.books.FutureBestBid()

	futureMid := (float64(futureAsk) + float64(futureBid)) / 2
	etfMid := (float64(etfBid) + float64(etfAsk)) / 2

	e.estimator.Prime(etfMid, float64(etfBid))

	tick := float64(schema.TickSize)
	delta := gammaTicks*tick + tick + e.estimator.Mu()

	tid := e.traceFor(h)

	if id := e.orders.TakeLiveBid(); id != 0 {
		e.sendCancel(id, tid)
	}
	if id := e.orders.TakeLiveAsk(); id != 0 {
		e.sendCancel(id, tid)
	}

	// One branch per cycle. The branch commits before the volume check:
	// a matching condition with no headroom quotes nothing.
	position := e.orders.Position()
	switch {
	case float64(futureBid-etfAsk) > delta:
		e.quote(tid, schema.SideBuy, etfAsk, schema.PositionLimit-position)
	case float64(etfBid-futureAsk) > delta:
		e.quote(tid, schema.SideSell, etfBid, absVolume(-schema.PositionLimit-position))
	case float64(futureBid-etfBid-schema.TickSize) > delta:
		e.quote(tid, schema.SideBuy, etfBid+schema.TickSize, schema.PositionLimit-position)
	case float64(etfAsk-futureAsk-schema.TickSize) > delta:
		e.quote(tid, schema.SideSell, etfAsk-schema.TickSize, absVolume(-schema.PositionLimit-position))
	}

	e.estimator.Observe(etfMid, futureMid, float64(etfBid), int64(position))
}

func (e *Engine) quote(tid uint64, side schema.Side, price schema.Price, volume schema.Volume) {
	if volume <= 0 {
		return
	}
	id := e.orders.NextOrderID()
	decision := e.limits.Evaluate(id, side, price, volume, e.orders.Position())
	e.metrics.IncRiskReason(decision.Reason)
	e.send(schema.EventRiskDecision, codec.EncodeRiskDecision(nil, decision), tid)
	if decision.Action != schema.RiskActionAllow {
		logs.Warnf("quote denied: order=%d side=%s reason=%s", id, side.Name(), decision.Reason.Name())
		return
	}
	insert := schema.OrderInsert{
		OrderID:  id,
		Side:     side,
		Lifespan: schema.LifespanGoodForDay,
		Price:    price,
		Volume:   volume,
	}
	e.send(schema.EventOrderInsert, codec.EncodeOrderInsert(nil, insert), tid)
	if err := e.orders.TrackQuote(id, side, price, volume); err != nil {
		logs.Errorf("track quote %d: %v", id, err)
	}
}

func (e *Engine) sendCancel(id uint64, tid uint64) {
	e.send(schema.EventOrderCancel, codec.EncodeOrderCancel(nil, schema.OrderCancel{OrderID: id}), tid)
}

func (e *Engine) send(t schema.EventType, payload []byte, tid uint64) {
	if e.emit == nil {
		return
	}
	e.seq++
	now := e.now()
	header := schema.NewHeader(t, schema.SourceEngine, e.seq, now, now)
	header.TraceID = tid
	e.metrics.ObserveAction(t)
	e.emit(header, payload)
}

func (e *Engine) traceFor(h schema.EventHeader) uint64 {
	if h.TraceID != 0 {
		return h.TraceID
	}
	return e.traces.Next()
}

// SetEmit attaches the out queue to a previously muted engine. Recovery
// replays the journal with emission off, then goes live through here.
func (e *Engine) SetEmit(emit Emit) {
	e.emit = emit
}

// Books exposes the book tracker.
func (e *Engine) Books() *book.Tracker {
	return e.books
}

// Estimator exposes the offset estimator.
func (e *Engine) Estimator() *theo.Estimator {
	return e.estimator
}

// Orders exposes the order ledger.
func (e *Engine) Orders() *ledger.Ledger {
	return e.orders
}

// Metrics exposes the metrics container.
func (e *Engine) Metrics() *obs.Metrics {
	return e.metrics
}

// ActionSeq returns the sequence number of the last emitted action.
func (e *Engine) ActionSeq() uint64 {
	return e.seq
}

func absVolume(v schema.Volume) schema.Volume {
	if v < 0 {
		return -v
	}
	return v
}
