package engine

import (
	"testing"

	"main/internal/codec"
	"main/internal/risk"
	"main/internal/schema"
)

type capturedEvent struct {
	header  schema.EventHeader
	payload []byte
}

type capture struct {
	events []capturedEvent
}

func (c *capture) emit(h schema.EventHeader, payload []byte) {
	buf := append([]byte(nil), payload...)
	c.events = append(c.events, capturedEvent{header: h, payload: buf})
}

func (c *capture) ofType(t schema.EventType) []capturedEvent {
	var out []capturedEvent
	for _, e := range c.events {
		if e.header.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func (c *capture) reset() {
	c.events = nil
}

func newTestEngine(limits risk.Config) (*Engine, *capture) {
	c := &capture{}
	e := New(Config{
		Limits: risk.NewEngine(limits),
		Emit:   c.emit,
		Now:    func() int64 { return 42 },
	})
	return e, c
}

func venueHeader(t schema.EventType, seq uint64) schema.EventHeader {
	return schema.NewHeader(t, schema.SourceVenue, seq, 1, 1)
}

func futureBook(seq uint32, bid, ask schema.Price) schema.OrderBook {
	ob := schema.OrderBook{Instrument: schema.InstrumentFuture, Seq: seq}
	ob.BidPrices[0] = bid
	ob.AskPrices[0] = ask
	ob.BidVolumes[0] = 50
	ob.AskVolumes[0] = 50
	return ob
}

func etfBook(seq uint32, bid, ask schema.Price) schema.OrderBook {
	ob := schema.OrderBook{Instrument: schema.InstrumentETF, Seq: seq}
	ob.BidPrices[0] = bid
	ob.AskPrices[0] = ask
	ob.BidVolumes[0] = 50
	ob.AskVolumes[0] = 50
	return ob
}

// primeBidQuote feeds a future book at (10000,10100) and an ETF book at
// (9700,9800), which lands in the buy-cross branch and inserts a bid for
// the full headroom. It returns the inserted order id.
func primeBidQuote(t *testing.T, e *Engine, c *capture) uint64 {
	t.Helper()
	e.OnOrderBook(venueHeader(schema.EventOrderBook, 1), futureBook(1, 10000, 10100))
	e.OnOrderBook(venueHeader(schema.EventOrderBook, 2), etfBook(2, 9700, 9800))
	inserts := c.ofType(schema.EventOrderInsert)
	if len(inserts) != 1 {
		t.Fatalf("inserts = %d, want 1", len(inserts))
	}
	insert, ok := codec.DecodeOrderInsert(inserts[0].payload)
	if !ok {
		t.Fatal("DecodeOrderInsert failed")
	}
	c.reset()
	return insert.OrderID
}

func TestBuyCrossInsertsAtETFAsk(t *testing.T) {
	e, c := newTestEngine(risk.Config{})

	e.OnOrderBook(venueHeader(schema.EventOrderBook, 1), futureBook(1, 10000, 10100))
	if len(c.events) != 0 {
		t.Fatalf("future update emitted %d events, want 0", len(c.events))
	}

	e.OnOrderBook(venueHeader(schema.EventOrderBook, 2), etfBook(2, 9700, 9800))

	if cancels := c.ofType(schema.EventOrderCancel); len(cancels) != 0 {
		t.Fatalf("cancels = %d, want 0 on first quote", len(cancels))
	}
	inserts := c.ofType(schema.EventOrderInsert)
	if len(inserts) != 1 {
		t.Fatalf("inserts = %d, want 1", len(inserts))
	}
	insert, ok := codec.DecodeOrderInsert(inserts[0].payload)
	if !ok {
		t.Fatal("DecodeOrderInsert failed")
	}
	if insert.Side != schema.SideBuy || insert.Price != 9800 || insert.Volume != 100 {
		t.Fatalf("insert = %+v, want Buy 100@9800", insert)
	}
	if insert.Lifespan != schema.LifespanGoodForDay {
		t.Fatalf("lifespan = %v, want GoodForDay", insert.Lifespan)
	}
	if insert.OrderID != 1 {
		t.Fatalf("order id = %d, want 1", insert.OrderID)
	}
	if e.Orders().LiveBid() != insert.OrderID {
		t.Fatalf("LiveBid = %d, want %d", e.Orders().LiveBid(), insert.OrderID)
	}
}

func TestRequoteCancelsLiveBidFirst(t *testing.T) {
	e, c := newTestEngine(risk.Config{})
	first := primeBidQuote(t, e, c)

	e.OnOrderBook(venueHeader(schema.EventOrderBook, 3), etfBook(3, 9700, 9800))

	if len(c.events) < 2 {
		t.Fatalf("events = %d, want cancel then insert", len(c.events))
	}
	if c.events[0].header.Type != schema.EventOrderCancel {
		t.Fatalf("first event = %s, want OrderCancel", c.events[0].header.Type.Name())
	}
	cancel, ok := codec.DecodeOrderCancel(c.events[0].payload)
	if !ok {
		t.Fatal("DecodeOrderCancel failed")
	}
	if cancel.OrderID != first {
		t.Fatalf("cancelled id = %d, want %d", cancel.OrderID, first)
	}

	inserts := c.ofType(schema.EventOrderInsert)
	if len(inserts) != 1 {
		t.Fatalf("inserts = %d, want 1", len(inserts))
	}
	insert, _ := codec.DecodeOrderInsert(inserts[0].payload)
	if insert.OrderID <= first {
		t.Fatalf("new id = %d, want > %d", insert.OrderID, first)
	}
	if e.Orders().LiveBid() != insert.OrderID {
		t.Fatalf("LiveBid = %d, want %d", e.Orders().LiveBid(), insert.OrderID)
	}
}

func TestSellCrossInsertsAtETFBid(t *testing.T) {
	e, c := newTestEngine(risk.Config{})

	e.OnOrderBook(venueHeader(schema.EventOrderBook, 1), futureBook(1, 10000, 10100))
	e.OnOrderBook(venueHeader(schema.EventOrderBook, 2), etfBook(2, 10400, 10500))

	inserts := c.ofType(schema.EventOrderInsert)
	if len(inserts) != 1 {
		t.Fatalf("inserts = %d, want 1", len(inserts))
	}
	insert, _ := codec.DecodeOrderInsert(inserts[0].payload)
	if insert.Side != schema.SideSell || insert.Price != 10400 || insert.Volume != 100 {
		t.Fatalf("insert = %+v, want Sell 100@10400", insert)
	}
	if e.Orders().LiveAsk() != insert.OrderID {
		t.Fatalf("LiveAsk = %d, want %d", e.Orders().LiveAsk(), insert.OrderID)
	}
}

func TestBuyNearImprovesETFBid(t *testing.T) {
	e, c := newTestEngine(risk.Config{})

	e.OnOrderBook(venueHeader(schema.EventOrderBook, 1), futureBook(1, 10400, 10500))
	e.OnOrderBook(venueHeader(schema.EventOrderBook, 2), etfBook(2, 10000, 10300))

	inserts := c.ofType(schema.EventOrderInsert)
	if len(inserts) != 1 {
		t.Fatalf("inserts = %d, want 1", len(inserts))
	}
	insert, _ := codec.DecodeOrderInsert(inserts[0].payload)
	if insert.Side != schema.SideBuy || insert.Price != 10100 || insert.Volume != 100 {
		t.Fatalf("insert = %+v, want Buy 100@10100 (one tick above ETF bid)", insert)
	}
}

func TestSellNearImprovesETFAsk(t *testing.T) {
	e, c := newTestEngine(risk.Config{})

	e.OnOrderBook(venueHeader(schema.EventOrderBook, 1), futureBook(1, 9700, 9800))
	e.OnOrderBook(venueHeader(schema.EventOrderBook, 2), etfBook(2, 10000, 10300))

	inserts := c.ofType(schema.EventOrderInsert)
	if len(inserts) != 1 {
		t.Fatalf("inserts = %d, want 1", len(inserts))
	}
	insert, _ := codec.DecodeOrderInsert(inserts[0].payload)
	if insert.Side != schema.SideSell || insert.Price != 10200 || insert.Volume != 100 {
		t.Fatalf("insert = %+v, want Sell 100@10200 (one tick below ETF ask)", insert)
	}
}

func TestParityQuotesNothing(t *testing.T) {
	e, c := newTestEngine(risk.Config{})

	e.OnOrderBook(venueHeader(schema.EventOrderBook, 1), futureBook(1, 10000, 10100))
	e.OnOrderBook(venueHeader(schema.EventOrderBook, 2), etfBook(2, 10000, 10100))

	if len(c.events) != 0 {
		t.Fatalf("events = %d, want 0 at parity", len(c.events))
	}
}

func TestUnquotableSnapshotFreezesCycle(t *testing.T) {
	e, c := newTestEngine(risk.Config{})
	id := primeBidQuote(t, e, c)

	crippled := schema.OrderBook{Instrument: schema.InstrumentETF, Seq: 3}
	crippled.BidPrices[0] = 9700
	crippled.BidVolumes[0] = 50
	e.OnOrderBook(venueHeader(schema.EventOrderBook, 3), crippled)

	if len(c.events) != 0 {
		t.Fatalf("events = %d, want 0 for unquotable snapshot", len(c.events))
	}
	if e.Orders().LiveBid() != id {
		t.Fatalf("LiveBid = %d, want %d (no cancel without a cycle)", e.Orders().LiveBid(), id)
	}
	if e.Estimator().CrossCount() != 0 || e.Estimator().Mu() != 50 {
		t.Fatalf("estimator = cross %d mu %v, want 0/50 untouched",
			e.Estimator().CrossCount(), e.Estimator().Mu())
	}
}

func TestFullPositionSuppressesMatchedBranch(t *testing.T) {
	e, c := newTestEngine(risk.Config{})
	id := primeBidQuote(t, e, c)

	e.OnOrderFilled(venueHeader(schema.EventOrderFilled, 3), schema.OrderFilled{OrderID: id, Price: 9800, Volume: 100})
	e.OnOrderStatus(venueHeader(schema.EventOrderStatus, 4), schema.OrderStatus{OrderID: id, FillVolume: 100, RemainingVolume: 0, Fees: 40})
	if e.Orders().Position() != 100 {
		t.Fatalf("Position = %d, want 100", e.Orders().Position())
	}
	c.reset()

	// The buy-cross branch still matches but headroom is zero: the branch
	// commits and quotes nothing, and no other branch is tried.
	e.OnOrderBook(venueHeader(schema.EventOrderBook, 5), etfBook(5, 9700, 9800))
	if len(c.events) != 0 {
		t.Fatalf("events = %d, want 0 at full position", len(c.events))
	}

	// The sell side still quotes, sized to swing to the opposite limit.
	e.OnOrderBook(venueHeader(schema.EventOrderBook, 6), etfBook(6, 10400, 10500))
	inserts := c.ofType(schema.EventOrderInsert)
	if len(inserts) != 1 {
		t.Fatalf("inserts = %d, want 1", len(inserts))
	}
	insert, _ := codec.DecodeOrderInsert(inserts[0].payload)
	if insert.Side != schema.SideSell || insert.Price != 10400 || insert.Volume != 200 {
		t.Fatalf("insert = %+v, want Sell 200@10400", insert)
	}
}

func TestBidFillHedgesSellAtFloor(t *testing.T) {
	e, c := newTestEngine(risk.Config{})
	id := primeBidQuote(t, e, c)

	e.OnOrderFilled(venueHeader(schema.EventOrderFilled, 3), schema.OrderFilled{OrderID: id, Price: 9800, Volume: 30})

	if e.Orders().Position() != 30 {
		t.Fatalf("Position = %d, want 30", e.Orders().Position())
	}
	hedges := c.ofType(schema.EventOrderHedge)
	if len(hedges) != 1 {
		t.Fatalf("hedges = %d, want 1", len(hedges))
	}
	hedge, ok := codec.DecodeOrderHedge(hedges[0].payload)
	if !ok {
		t.Fatal("DecodeOrderHedge failed")
	}
	if hedge.Side != schema.SideSell || hedge.Price != schema.MinBidNearestTick || hedge.Volume != 30 {
		t.Fatalf("hedge = %+v, want Sell 30@%d", hedge, schema.MinBidNearestTick)
	}
	if hedge.OrderID == 0 || hedge.OrderID == id {
		t.Fatalf("hedge id = %d, want a fresh id", hedge.OrderID)
	}
}

func TestAskFillHedgesBuyAtCap(t *testing.T) {
	e, c := newTestEngine(risk.Config{})

	e.OnOrderBook(venueHeader(schema.EventOrderBook, 1), futureBook(1, 10000, 10100))
	e.OnOrderBook(venueHeader(schema.EventOrderBook, 2), etfBook(2, 10400, 10500))
	inserts := c.ofType(schema.EventOrderInsert)
	if len(inserts) != 1 {
		t.Fatalf("inserts = %d, want 1", len(inserts))
	}
	insert, _ := codec.DecodeOrderInsert(inserts[0].payload)
	c.reset()

	e.OnOrderFilled(venueHeader(schema.EventOrderFilled, 3), schema.OrderFilled{OrderID: insert.OrderID, Price: 10400, Volume: 50})

	if e.Orders().Position() != -50 {
		t.Fatalf("Position = %d, want -50", e.Orders().Position())
	}
	hedges := c.ofType(schema.EventOrderHedge)
	if len(hedges) != 1 {
		t.Fatalf("hedges = %d, want 1", len(hedges))
	}
	hedge, _ := codec.DecodeOrderHedge(hedges[0].payload)
	if hedge.Side != schema.SideBuy || hedge.Price != schema.MaxAskNearestTick || hedge.Volume != 50 {
		t.Fatalf("hedge = %+v, want Buy 50@%d", hedge, schema.MaxAskNearestTick)
	}
}

func TestHedgeFilledMovesFuturePosition(t *testing.T) {
	e, c := newTestEngine(risk.Config{})
	id := primeBidQuote(t, e, c)

	e.OnOrderFilled(venueHeader(schema.EventOrderFilled, 3), schema.OrderFilled{OrderID: id, Price: 9800, Volume: 30})
	hedges := c.ofType(schema.EventOrderHedge)
	hedge, _ := codec.DecodeOrderHedge(hedges[0].payload)

	e.OnHedgeFilled(venueHeader(schema.EventHedgeFilled, 4), schema.HedgeFilled{OrderID: hedge.OrderID, AveragePrice: 9900, Volume: 30})

	if e.Orders().FuturePosition() != -30 {
		t.Fatalf("FuturePosition = %d, want -30", e.Orders().FuturePosition())
	}
	if e.Orders().Position() != 30 {
		t.Fatalf("Position = %d, want 30 (ETF side untouched)", e.Orders().Position())
	}
}

func TestVenueErrorFreesTrackedOrder(t *testing.T) {
	e, c := newTestEngine(risk.Config{})
	id := primeBidQuote(t, e, c)

	e.OnVenueError(venueHeader(schema.EventVenueError, 3), schema.NewVenueError(id, "order rejected"))

	if e.Orders().LiveBid() != 0 {
		t.Fatalf("LiveBid = %d, want 0 after venue error", e.Orders().LiveBid())
	}
	if e.Orders().OutstandingBids() != 0 {
		t.Fatalf("OutstandingBids = %d, want 0", e.Orders().OutstandingBids())
	}
	if len(c.events) != 0 {
		t.Fatalf("events = %d, want 0 (synthesized status stays internal)", len(c.events))
	}

	// The next cycle quotes the side again without a cancel.
	e.OnOrderBook(venueHeader(schema.EventOrderBook, 4), etfBook(4, 9700, 9800))
	if len(c.events) == 0 || c.events[0].header.Type == schema.EventOrderCancel {
		t.Fatalf("first event after error = %v, want a fresh quote with no cancel", c.events)
	}
	inserts := c.ofType(schema.EventOrderInsert)
	if len(inserts) != 1 {
		t.Fatalf("inserts = %d, want 1", len(inserts))
	}
}

func TestVenueErrorForUnknownOrderOnlyLogs(t *testing.T) {
	e, c := newTestEngine(risk.Config{})
	id := primeBidQuote(t, e, c)

	e.OnVenueError(venueHeader(schema.EventVenueError, 3), schema.NewVenueError(0, "invalid price"))
	e.OnVenueError(venueHeader(schema.EventVenueError, 4), schema.NewVenueError(7777, "unknown order"))

	if e.Orders().LiveBid() != id {
		t.Fatalf("LiveBid = %d, want %d untouched", e.Orders().LiveBid(), id)
	}
	if len(c.events) != 0 {
		t.Fatalf("events = %d, want 0", len(c.events))
	}
}

func TestCrossingWhileFlatOnlyUpdatesFlag(t *testing.T) {
	e, c := newTestEngine(risk.Config{})

	e.OnOrderBook(venueHeader(schema.EventOrderBook, 1), futureBook(1, 10000, 10100))
	e.OnOrderBook(venueHeader(schema.EventOrderBook, 2), etfBook(2, 9700, 9800))
	if e.Estimator().ETFAboveFuture() {
		t.Fatal("flag = true, want false while ETF mid below future mid")
	}
	c.reset()

	// ETF mid moves above the future mid with zero position: the flag
	// flips but nothing folds into mu.
	e.OnOrderBook(venueHeader(schema.EventOrderBook, 3), etfBook(3, 10200, 10300))

	if !e.Estimator().ETFAboveFuture() {
		t.Fatal("flag = false, want true after crossing")
	}
	if e.Estimator().CrossCount() != 0 {
		t.Fatalf("CrossCount = %d, want 0 while flat", e.Estimator().CrossCount())
	}
	if e.Estimator().Mu() != 50 {
		t.Fatalf("Mu = %v, want 50 (still primed)", e.Estimator().Mu())
	}
}

func TestCrossingWithPositionFoldsMu(t *testing.T) {
	e, c := newTestEngine(risk.Config{})
	id := primeBidQuote(t, e, c)

	e.OnOrderFilled(venueHeader(schema.EventOrderFilled, 3), schema.OrderFilled{OrderID: id, Price: 9800, Volume: 10})
	c.reset()

	// First crossing: ETF mid 10250 above future mid 10050, position 10.
	// Folds 10250-10200 = 50 into the mean.
	e.OnOrderBook(venueHeader(schema.EventOrderBook, 4), etfBook(4, 10200, 10300))
	if e.Estimator().CrossCount() != 1 || e.Estimator().Mu() != 50 {
		t.Fatalf("after first cross: count %d mu %v, want 1/50",
			e.Estimator().CrossCount(), e.Estimator().Mu())
	}
	if !e.Estimator().ETFAboveFuture() {
		t.Fatal("flag = false, want true")
	}
	c.reset()

	// Second crossing back down folds 9800-9700 = 100; mean becomes 75.
	e.OnOrderBook(venueHeader(schema.EventOrderBook, 5), etfBook(5, 9700, 9900))
	if e.Estimator().CrossCount() != 2 || e.Estimator().Mu() != 75 {
		t.Fatalf("after second cross: count %d mu %v, want 2/75",
			e.Estimator().CrossCount(), e.Estimator().Mu())
	}
	if e.Estimator().ETFAboveFuture() {
		t.Fatal("flag = true, want false")
	}

	// Priming is permanently off: delta used mu=50 this cycle, and the
	// buy-near branch fired with the reduced headroom.
	inserts := c.ofType(schema.EventOrderInsert)
	if len(inserts) != 1 {
		t.Fatalf("inserts = %d, want 1", len(inserts))
	}
	insert, _ := codec.DecodeOrderInsert(inserts[0].payload)
	if insert.Side != schema.SideBuy || insert.Price != 9800 || insert.Volume != 90 {
		t.Fatalf("insert = %+v, want Buy 90@9800", insert)
	}
}

func TestNoFutureDataSellsAgainstZero(t *testing.T) {
	e, c := newTestEngine(risk.Config{})

	// Without a future update both future prices read zero, so the ETF
	// bid clears the sell-cross threshold on its own.
	e.OnOrderBook(venueHeader(schema.EventOrderBook, 1), etfBook(1, 10000, 10100))

	inserts := c.ofType(schema.EventOrderInsert)
	if len(inserts) != 1 {
		t.Fatalf("inserts = %d, want 1", len(inserts))
	}
	insert, _ := codec.DecodeOrderInsert(inserts[0].payload)
	if insert.Side != schema.SideSell || insert.Price != 10000 || insert.Volume != 100 {
		t.Fatalf("insert = %+v, want Sell 100@10000", insert)
	}
}

func TestRiskDenialSuppressesInsert(t *testing.T) {
	e, c := newTestEngine(risk.Config{MaxOrderVolume: 50})

	e.OnOrderBook(venueHeader(schema.EventOrderBook, 1), futureBook(1, 10000, 10100))
	e.OnOrderBook(venueHeader(schema.EventOrderBook, 2), etfBook(2, 9700, 9800))

	if len(c.events) != 1 {
		t.Fatalf("events = %d, want only the risk decision", len(c.events))
	}
	decision, ok := codec.DecodeRiskDecision(c.events[0].payload)
	if !ok {
		t.Fatal("DecodeRiskDecision failed")
	}
	if decision.Action != schema.RiskActionDeny || decision.Reason != schema.RiskReasonMaxVolume {
		t.Fatalf("decision = %s/%s, want Deny/MaxVolume", decision.Action.Name(), decision.Reason.Name())
	}
	if e.Orders().LiveBid() != 0 || e.Orders().OutstandingBids() != 0 {
		t.Fatal("denied quote must not claim the slot or the set")
	}

	snap := e.Metrics().Snapshot()
	if snap.RiskReasonCounts[schema.RiskReasonMaxVolume] != 1 {
		t.Fatalf("MaxVolume count = %d, want 1", snap.RiskReasonCounts[schema.RiskReasonMaxVolume])
	}
}

func TestTraceIDPropagatesToActions(t *testing.T) {
	e, c := newTestEngine(risk.Config{})

	e.OnOrderBook(venueHeader(schema.EventOrderBook, 1), futureBook(1, 10000, 10100))
	h := venueHeader(schema.EventOrderBook, 2)
	h.TraceID = 7
	e.OnOrderBook(h, etfBook(2, 9700, 9800))

	if len(c.events) == 0 {
		t.Fatal("no events emitted")
	}
	for i, ev := range c.events {
		if ev.header.TraceID != 7 {
			t.Fatalf("event %d trace = %d, want 7", i, ev.header.TraceID)
		}
	}
}

func TestActionSeqIncrements(t *testing.T) {
	e, c := newTestEngine(risk.Config{})
	primeBidQuote(t, e, c)

	// Risk decision + insert.
	if e.ActionSeq() != 2 {
		t.Fatalf("ActionSeq = %d, want 2", e.ActionSeq())
	}

	e.OnOrderBook(venueHeader(schema.EventOrderBook, 3), etfBook(3, 9700, 9800))
	// Cancel + risk decision + insert.
	if e.ActionSeq() != 5 {
		t.Fatalf("ActionSeq = %d, want 5", e.ActionSeq())
	}
	for i := 1; i < len(c.events); i++ {
		if c.events[i].header.Seq <= c.events[i-1].header.Seq {
			t.Fatalf("event %d seq %d not increasing", i, c.events[i].header.Seq)
		}
	}
}

func TestApplyDecodesAndDispatches(t *testing.T) {
	e, c := newTestEngine(risk.Config{})

	if err := e.Apply(venueHeader(schema.EventOrderBook, 1), codec.EncodeOrderBook(nil, futureBook(1, 10000, 10100))); err != nil {
		t.Fatalf("Apply future book: %v", err)
	}
	if err := e.Apply(venueHeader(schema.EventOrderBook, 2), codec.EncodeOrderBook(nil, etfBook(2, 9700, 9800))); err != nil {
		t.Fatalf("Apply etf book: %v", err)
	}
	if inserts := c.ofType(schema.EventOrderInsert); len(inserts) != 1 {
		t.Fatalf("inserts = %d, want 1 via Apply", len(inserts))
	}

	if err := e.Apply(venueHeader(schema.EventOrderBook, 3), []byte{1, 2, 3}); err == nil {
		t.Fatal("Apply with truncated payload: want error")
	}
	if snap := e.Metrics().Snapshot(); snap.DecodeErrors != 1 {
		t.Fatalf("DecodeErrors = %d, want 1", snap.DecodeErrors)
	}

	// Action types in a replayed stream pass through untouched.
	if err := e.Apply(venueHeader(schema.EventOrderInsert, 4), []byte{9}); err != nil {
		t.Fatalf("Apply action type: %v", err)
	}
}

func TestMutedEngineAppliesStateWithoutEmitting(t *testing.T) {
	e := New(Config{Now: func() int64 { return 42 }})

	e.OnOrderBook(venueHeader(schema.EventOrderBook, 1), futureBook(1, 10000, 10100))
	e.OnOrderBook(venueHeader(schema.EventOrderBook, 2), etfBook(2, 9700, 9800))

	if e.Orders().LiveBid() == 0 {
		t.Fatal("muted engine must still track the quote")
	}
	if e.ActionSeq() != 0 {
		t.Fatalf("ActionSeq = %d, want 0 while muted", e.ActionSeq())
	}
}
