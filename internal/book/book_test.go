package book

import (
	"testing"

	"main/internal/schema"
)

func futureUpdate(seq uint32, bid, ask schema.Price) schema.OrderBook {
	ob := schema.OrderBook{Instrument: schema.InstrumentFuture, Seq: seq}
	ob.BidPrices[0] = bid
	ob.AskPrices[0] = ask
	return ob
}

func etfUpdate(seq uint32, bid, ask schema.Price) schema.OrderBook {
	ob := schema.OrderBook{Instrument: schema.InstrumentETF, Seq: seq}
	ob.BidPrices[0] = bid
	ob.AskPrices[0] = ask
	return ob
}

func TestApplyRoutesByInstrument(t *testing.T) {
	tr := NewTracker()
	if decide := tr.Apply(futureUpdate(1, 14500, 14600)); decide {
		t.Fatal("future update must not trigger a decision cycle")
	}
	if decide := tr.Apply(etfUpdate(1, 14400, 14700)); !decide {
		t.Fatal("etf update must trigger a decision cycle")
	}
	if tr.FutureBestBid() != 14500 || tr.FutureBestAsk() != 14600 {
		t.Fatalf("future top = %d/%d, want 14500/14600", tr.FutureBestBid(), tr.FutureBestAsk())
	}
	if etf := tr.ETF(); etf.BidPrices[0] != 14400 || etf.AskPrices[0] != 14700 {
		t.Fatalf("etf top = %d/%d, want 14400/14700", etf.BidPrices[0], etf.AskPrices[0])
	}
}

func TestFutureArraysStoredVerbatim(t *testing.T) {
	tr := NewTracker()
	ob := schema.OrderBook{Instrument: schema.InstrumentFuture, Seq: 5}
	for i := 0; i < schema.TopLevels; i++ {
		ob.AskPrices[i] = schema.Price(14600 + 100*i)
		ob.BidPrices[i] = schema.Price(14500 - 100*i)
	}
	tr.Apply(ob)
	if tr.futureAskPrices != ob.AskPrices || tr.futureBidPrices != ob.BidPrices {
		t.Fatal("future arrays not stored verbatim")
	}
	if tr.Seq(schema.InstrumentFuture) != 5 {
		t.Fatalf("future seq = %d, want 5", tr.Seq(schema.InstrumentFuture))
	}
}

func TestETFQuotableRequiresBothSides(t *testing.T) {
	tr := NewTracker()
	if tr.ETFQuotable() {
		t.Fatal("empty tracker must not be quotable")
	}
	tr.Apply(etfUpdate(1, 0, 14700))
	if tr.ETFQuotable() {
		t.Fatal("zero bid must suppress quoting")
	}
	tr.Apply(etfUpdate(2, 14400, 0))
	if tr.ETFQuotable() {
		t.Fatal("zero ask must suppress quoting")
	}
	tr.Apply(etfUpdate(3, 14400, 14700))
	if !tr.ETFQuotable() {
		t.Fatal("two-sided book must be quotable")
	}
}

func TestUnseenFutureReadsZero(t *testing.T) {
	tr := NewTracker()
	tr.Apply(etfUpdate(1, 14400, 14700))
	if tr.FutureBestBid() != 0 || tr.FutureBestAsk() != 0 {
		t.Fatal("unseen future must read zero")
	}
	if tr.Seen(schema.InstrumentFuture) {
		t.Fatal("future must be unseen")
	}
	if !tr.Seen(schema.InstrumentETF) {
		t.Fatal("etf must be seen")
	}
}
