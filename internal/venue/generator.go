// Package venue simulates the exchange side of a session: a correlated
// future/ETF book generator, a matcher for client orders, and decimal
// fee accounting.
package venue

import (
	"math/rand"

	"main/internal/schema"
)

// GeneratorConfig controls the synthetic market. Zero values resolve to
// defaults.
type GeneratorConfig struct {
	Seed       int64
	BasePrice  schema.Price
	Offset     schema.Price
	MidStep    schema.Price
	OffsetStep schema.Price
	Spread     schema.Price
	BaseVolume schema.Volume
}

const (
	defaultBasePrice  schema.Price  = 120000
	defaultMidStep    schema.Price  = 200
	defaultOffsetStep schema.Price  = 60
	defaultSpread     schema.Price  = 100
	defaultBaseVolume schema.Volume = 50

	// The walk floor keeps five bid levels above the venue minimum.
	minFutureMid = 20 * schema.TickSize
)

// Generator produces alternating future/ETF book snapshots. The ETF mid
// tracks the future mid plus a drifting offset, so the spread between
// the two instruments crosses back and forth the way the strategy
// expects.
type Generator struct {
	cfg GeneratorConfig
	rng *rand.Rand

	futureMid schema.Price
	offset    schema.Price

	turn      int
	futureSeq uint32
	etfSeq    uint32
}

// NewGenerator creates a seeded generator.
func NewGenerator(cfg GeneratorConfig) *Generator {
	if cfg.BasePrice <= 0 {
		cfg.BasePrice = defaultBasePrice
	}
	if cfg.MidStep <= 0 {
		cfg.MidStep = defaultMidStep
	}
	if cfg.OffsetStep <= 0 {
		cfg.OffsetStep = defaultOffsetStep
	}
	if cfg.Spread <= 0 {
		cfg.Spread = defaultSpread
	}
	if cfg.BaseVolume <= 0 {
		cfg.BaseVolume = defaultBaseVolume
	}
	return &Generator{
		cfg:       cfg,
		rng:       rand.New(rand.NewSource(cfg.Seed)),
		futureMid: cfg.BasePrice,
		offset:    cfg.Offset,
	}
}

// Next returns the next book snapshot, future first, then ETF, then the
// walk advances.
func (g *Generator) Next() schema.OrderBook {
	if g.turn == 0 {
		g.turn = 1
		g.futureSeq++
		return g.book(schema.InstrumentFuture, g.futureMid, g.futureSeq)
	}
	g.turn = 0
	g.etfSeq++
	book := g.book(schema.InstrumentETF, g.futureMid+g.offset, g.etfSeq)
	g.advance()
	return book
}

func (g *Generator) advance() {
	g.futureMid += g.step(g.cfg.MidStep)
	if g.futureMid < minFutureMid {
		g.futureMid = minFutureMid
	}
	g.offset += g.step(g.cfg.OffsetStep)
}

// step draws a uniform move in [-max, max].
func (g *Generator) step(max schema.Price) schema.Price {
	return schema.Price(g.rng.Int63n(int64(2*max+1))) - max
}

func (g *Generator) book(inst schema.Instrument, mid schema.Price, seq uint32) schema.OrderBook {
	book := schema.OrderBook{Instrument: inst, Seq: seq}

	bid := alignDown(mid - g.cfg.Spread)
	ask := alignUp(mid + g.cfg.Spread)
	if ask <= bid {
		ask = bid + schema.TickSize
	}

	for i := 0; i < schema.TopLevels; i++ {
		level := schema.Price(i) * schema.TickSize
		if p := bid - level; p >= schema.MinBidNearestTick {
			book.BidPrices[i] = p
			book.BidVolumes[i] = g.cfg.BaseVolume + schema.Volume(g.rng.Int63n(int64(g.cfg.BaseVolume)+1))
		}
		if p := ask + level; p <= schema.MaxAskNearestTick {
			book.AskPrices[i] = p
			book.AskVolumes[i] = g.cfg.BaseVolume + schema.Volume(g.rng.Int63n(int64(g.cfg.BaseVolume)+1))
		}
	}
	return book
}

func alignDown(p schema.Price) schema.Price {
	if p < 0 {
		return 0
	}
	return p / schema.TickSize * schema.TickSize
}

func alignUp(p schema.Price) schema.Price {
	if p < 0 {
		return 0
	}
	return (p + schema.TickSize - 1) / schema.TickSize * schema.TickSize
}
