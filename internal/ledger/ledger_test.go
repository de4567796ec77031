package ledger

import (
	"errors"
	"testing"

	"main/internal/schema"
)

func TestTrackQuoteClaimsSlot(t *testing.T) {
	l := New()

	bid := l.NextOrderID()
	if err := l.TrackQuote(bid, schema.SideBuy, 15000, 40); err != nil {
		t.Fatalf("TrackQuote bid: %v", err)
	}
	ask := l.NextOrderID()
	if err := l.TrackQuote(ask, schema.SideSell, 15200, 60); err != nil {
		t.Fatalf("TrackQuote ask: %v", err)
	}

	if got := l.LiveBid(); got != bid {
		t.Fatalf("LiveBid = %d, want %d", got, bid)
	}
	if got := l.LiveAsk(); got != ask {
		t.Fatalf("LiveAsk = %d, want %d", got, ask)
	}
	if l.OutstandingBids() != 1 || l.OutstandingAsks() != 1 {
		t.Fatalf("outstanding = %d/%d, want 1/1", l.OutstandingBids(), l.OutstandingAsks())
	}

	o, ok := l.Order(bid)
	if !ok {
		t.Fatalf("Order(%d) not found", bid)
	}
	if o.State != OrderStatePending || o.Remaining != 40 {
		t.Fatalf("order = %+v, want Pending with remaining 40", o)
	}
}

func TestTrackQuoteRejectsDuplicateAndZero(t *testing.T) {
	l := New()

	id := l.NextOrderID()
	if err := l.TrackQuote(id, schema.SideBuy, 15000, 10); err != nil {
		t.Fatalf("TrackQuote: %v", err)
	}
	if err := l.TrackQuote(id, schema.SideBuy, 15000, 10); !errors.Is(err, ErrDuplicateOrder) {
		t.Fatalf("duplicate TrackQuote err = %v, want ErrDuplicateOrder", err)
	}
	if err := l.TrackQuote(0, schema.SideSell, 15000, 10); !errors.Is(err, ErrZeroOrderID) {
		t.Fatalf("zero id TrackQuote err = %v, want ErrZeroOrderID", err)
	}
}

func TestNextOrderIDNeverRepeats(t *testing.T) {
	l := New()

	prev := l.NextOrderID()
	for i := 0; i < 5; i++ {
		id := l.NextOrderID()
		if id <= prev {
			t.Fatalf("NextOrderID = %d after %d, want strictly increasing", id, prev)
		}
		prev = id
	}
}

func TestBidFillMovesPositionAndHedgesSell(t *testing.T) {
	l := New()

	id := l.NextOrderID()
	if err := l.TrackQuote(id, schema.SideBuy, 15000, 40); err != nil {
		t.Fatalf("TrackQuote: %v", err)
	}

	hedge, ok := l.ApplyFilled(schema.OrderFilled{OrderID: id, Price: 15000, Volume: 25})
	if !ok {
		t.Fatal("ApplyFilled: fill for tracked bid ignored")
	}
	if l.Position() != 25 {
		t.Fatalf("Position = %d, want 25", l.Position())
	}
	if hedge.Side != schema.SideSell {
		t.Fatalf("hedge side = %v, want Sell", hedge.Side)
	}
	if hedge.Price != schema.MinBidNearestTick {
		t.Fatalf("hedge price = %d, want %d", hedge.Price, schema.MinBidNearestTick)
	}
	if hedge.Volume != 25 {
		t.Fatalf("hedge volume = %d, want 25", hedge.Volume)
	}
	if hedge.OrderID == id || hedge.OrderID == 0 {
		t.Fatalf("hedge id = %d, want a fresh nonzero id", hedge.OrderID)
	}

	o, _ := l.Order(id)
	if o.State != OrderStatePartiallyFilled || o.Remaining != 15 {
		t.Fatalf("order after fill = %+v, want PartiallyFilled remaining 15", o)
	}
}

func TestAskFillMovesPositionAndHedgesBuy(t *testing.T) {
	l := New()

	id := l.NextOrderID()
	if err := l.TrackQuote(id, schema.SideSell, 15200, 60); err != nil {
		t.Fatalf("TrackQuote: %v", err)
	}

	hedge, ok := l.ApplyFilled(schema.OrderFilled{OrderID: id, Price: 15200, Volume: 60})
	if !ok {
		t.Fatal("ApplyFilled: fill for tracked ask ignored")
	}
	if l.Position() != -60 {
		t.Fatalf("Position = %d, want -60", l.Position())
	}
	if hedge.Side != schema.SideBuy {
		t.Fatalf("hedge side = %v, want Buy", hedge.Side)
	}
	if hedge.Price != schema.MaxAskNearestTick {
		t.Fatalf("hedge price = %d, want %d", hedge.Price, schema.MaxAskNearestTick)
	}
}

func TestFillForUnknownOrderIgnored(t *testing.T) {
	l := New()
	if _, ok := l.ApplyFilled(schema.OrderFilled{OrderID: 99, Price: 15000, Volume: 10}); ok {
		t.Fatal("ApplyFilled: fill for unknown id produced a hedge")
	}
	if l.Position() != 0 {
		t.Fatalf("Position = %d, want 0", l.Position())
	}
}

func TestStatusZeroRemainingClosesOrder(t *testing.T) {
	l := New()

	id := l.NextOrderID()
	if err := l.TrackQuote(id, schema.SideSell, 15200, 60); err != nil {
		t.Fatalf("TrackQuote: %v", err)
	}
	if _, ok := l.ApplyFilled(schema.OrderFilled{OrderID: id, Price: 15200, Volume: 60}); !ok {
		t.Fatal("ApplyFilled ignored")
	}

	l.ApplyStatus(schema.OrderStatus{OrderID: id, FillVolume: 60, RemainingVolume: 0, Fees: 182})

	if l.LiveAsk() != 0 {
		t.Fatalf("LiveAsk = %d, want 0 after close", l.LiveAsk())
	}
	if l.OutstandingAsks() != 0 {
		t.Fatalf("OutstandingAsks = %d, want 0", l.OutstandingAsks())
	}
	o, _ := l.Order(id)
	if o.State != OrderStateClosed {
		t.Fatalf("state = %v, want Closed", o.State)
	}
	if l.TotalFees() != 182 {
		t.Fatalf("TotalFees = %d, want 182", l.TotalFees())
	}

	// A duplicate close must change nothing.
	l.ApplyStatus(schema.OrderStatus{OrderID: id, FillVolume: 0, RemainingVolume: 0, Fees: 0})
	if l.Position() != -60 || l.TotalFees() != 182 {
		t.Fatalf("after duplicate close position/fees = %d/%d, want -60/182", l.Position(), l.TotalFees())
	}
}

func TestLateStatusDoesNotClearSuccessorSlot(t *testing.T) {
	l := New()

	old := l.NextOrderID()
	if err := l.TrackQuote(old, schema.SideSell, 15200, 60); err != nil {
		t.Fatalf("TrackQuote old: %v", err)
	}
	l.ApplyStatus(schema.OrderStatus{OrderID: old, FillVolume: 0, RemainingVolume: 0})

	next := l.NextOrderID()
	if err := l.TrackQuote(next, schema.SideSell, 15300, 50); err != nil {
		t.Fatalf("TrackQuote next: %v", err)
	}

	// A replayed close for the old id must leave the new slot alone.
	l.ApplyStatus(schema.OrderStatus{OrderID: old, FillVolume: 0, RemainingVolume: 0})
	if got := l.LiveAsk(); got != next {
		t.Fatalf("LiveAsk = %d, want %d", got, next)
	}
}

func TestPartialStatusKeepsSlot(t *testing.T) {
	l := New()

	id := l.NextOrderID()
	if err := l.TrackQuote(id, schema.SideBuy, 15000, 40); err != nil {
		t.Fatalf("TrackQuote: %v", err)
	}
	l.ApplyStatus(schema.OrderStatus{OrderID: id, FillVolume: 10, RemainingVolume: 30, Fees: 30})

	if l.LiveBid() != id {
		t.Fatalf("LiveBid = %d, want %d after partial status", l.LiveBid(), id)
	}
	o, _ := l.Order(id)
	if o.State != OrderStatePartiallyFilled || o.Remaining != 30 {
		t.Fatalf("order = %+v, want PartiallyFilled remaining 30", o)
	}
}

func TestShouldSynthesizeStatus(t *testing.T) {
	l := New()

	id := l.NextOrderID()
	if err := l.TrackQuote(id, schema.SideBuy, 15000, 40); err != nil {
		t.Fatalf("TrackQuote: %v", err)
	}

	if !l.ShouldSynthesizeStatus(id) {
		t.Fatal("ShouldSynthesizeStatus(tracked) = false, want true")
	}
	if l.ShouldSynthesizeStatus(0) {
		t.Fatal("ShouldSynthesizeStatus(0) = true, want false")
	}
	if l.ShouldSynthesizeStatus(77) {
		t.Fatal("ShouldSynthesizeStatus(untracked) = true, want false")
	}

	l.ApplyStatus(schema.OrderStatus{OrderID: id, RemainingVolume: 0})
	if l.ShouldSynthesizeStatus(id) {
		t.Fatal("ShouldSynthesizeStatus(closed) = true, want false")
	}
}

func TestHedgeFilledSignsFuturePosition(t *testing.T) {
	l := New()

	bid := l.NextOrderID()
	if err := l.TrackQuote(bid, schema.SideBuy, 15000, 40); err != nil {
		t.Fatalf("TrackQuote: %v", err)
	}
	hedge, ok := l.ApplyFilled(schema.OrderFilled{OrderID: bid, Price: 15000, Volume: 40})
	if !ok {
		t.Fatal("ApplyFilled ignored")
	}

	if !l.ApplyHedgeFilled(schema.HedgeFilled{OrderID: hedge.OrderID, AveragePrice: 14900, Volume: 40}) {
		t.Fatal("ApplyHedgeFilled: known hedge ignored")
	}
	if l.FuturePosition() != -40 {
		t.Fatalf("FuturePosition = %d, want -40", l.FuturePosition())
	}

	// The id is consumed: a duplicate report is dropped.
	if l.ApplyHedgeFilled(schema.HedgeFilled{OrderID: hedge.OrderID, AveragePrice: 14900, Volume: 40}) {
		t.Fatal("ApplyHedgeFilled: duplicate hedge report applied")
	}
	if l.ApplyHedgeFilled(schema.HedgeFilled{OrderID: 4242, AveragePrice: 14900, Volume: 40}) {
		t.Fatal("ApplyHedgeFilled: unknown hedge id applied")
	}
	if l.FuturePosition() != -40 {
		t.Fatalf("FuturePosition = %d, want -40 after ignored reports", l.FuturePosition())
	}
}

func TestTakeLiveSlots(t *testing.T) {
	l := New()

	bid := l.NextOrderID()
	if err := l.TrackQuote(bid, schema.SideBuy, 15000, 40); err != nil {
		t.Fatalf("TrackQuote: %v", err)
	}

	if got := l.TakeLiveBid(); got != bid {
		t.Fatalf("TakeLiveBid = %d, want %d", got, bid)
	}
	if got := l.TakeLiveBid(); got != 0 {
		t.Fatalf("second TakeLiveBid = %d, want 0", got)
	}
	if got := l.TakeLiveAsk(); got != 0 {
		t.Fatalf("TakeLiveAsk = %d, want 0", got)
	}

	// Cancelling frees the slot but the id stays outstanding until the
	// venue confirms with a zero-remaining status.
	if l.OutstandingBids() != 1 {
		t.Fatalf("OutstandingBids = %d, want 1", l.OutstandingBids())
	}
}

func TestStateRoundTrip(t *testing.T) {
	l := New()

	bid := l.NextOrderID()
	if err := l.TrackQuote(bid, schema.SideBuy, 15000, 40); err != nil {
		t.Fatalf("TrackQuote bid: %v", err)
	}
	closed := l.NextOrderID()
	if err := l.TrackQuote(closed, schema.SideSell, 15200, 60); err != nil {
		t.Fatalf("TrackQuote ask: %v", err)
	}
	if _, ok := l.ApplyFilled(schema.OrderFilled{OrderID: bid, Price: 15000, Volume: 15}); !ok {
		t.Fatal("ApplyFilled ignored")
	}
	l.ApplyStatus(schema.OrderStatus{OrderID: closed, RemainingVolume: 0, Fees: 9})

	restored := FromState(l.State())

	if restored.Position() != l.Position() || restored.FuturePosition() != l.FuturePosition() {
		t.Fatalf("positions = %d/%d, want %d/%d",
			restored.Position(), restored.FuturePosition(), l.Position(), l.FuturePosition())
	}
	if restored.TotalFees() != 9 {
		t.Fatalf("TotalFees = %d, want 9", restored.TotalFees())
	}
	if restored.LiveBid() != bid || restored.LiveAsk() != 0 {
		t.Fatalf("slots = %d/%d, want %d/0", restored.LiveBid(), restored.LiveAsk(), bid)
	}
	if restored.OutstandingBids() != 1 || restored.OutstandingAsks() != 0 {
		t.Fatalf("outstanding = %d/%d, want 1/0 (closed ask dropped)",
			restored.OutstandingBids(), restored.OutstandingAsks())
	}
	o, ok := restored.Order(bid)
	if !ok || o.State != OrderStatePartiallyFilled || o.Remaining != 25 {
		t.Fatalf("restored order = %+v ok=%v, want PartiallyFilled remaining 25", o, ok)
	}
	if _, ok := restored.Order(closed); ok {
		t.Fatal("closed order should not survive a state round trip")
	}

	// The allocator continues where it left off. Two quotes and one
	// hedge were allocated, so the next id is 4.
	if id := restored.NextOrderID(); id != 4 {
		t.Fatalf("NextOrderID = %d, want 4", id)
	}

	// The in-flight hedge report still lands after restore.
	hedgeID := uint64(3)
	if !restored.ApplyHedgeFilled(schema.HedgeFilled{OrderID: hedgeID, AveragePrice: 14900, Volume: 15}) {
		t.Fatal("ApplyHedgeFilled: restored pending hedge ignored")
	}
	if restored.FuturePosition() != -15 {
		t.Fatalf("FuturePosition = %d, want -15", restored.FuturePosition())
	}
}

func TestNegativeFeesAccumulate(t *testing.T) {
	l := New()

	id := l.NextOrderID()
	if err := l.TrackQuote(id, schema.SideBuy, 15000, 40); err != nil {
		t.Fatalf("TrackQuote: %v", err)
	}
	l.ApplyStatus(schema.OrderStatus{OrderID: id, FillVolume: 10, RemainingVolume: 30, Fees: -6})
	l.ApplyStatus(schema.OrderStatus{OrderID: id, FillVolume: 30, RemainingVolume: 0, Fees: -18})

	if l.TotalFees() != -24 {
		t.Fatalf("TotalFees = %d, want -24", l.TotalFees())
	}
}
