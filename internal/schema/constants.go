package schema

// Venue trading constants. Prices are cents, volumes are lots.
const (
	// LotSize is the venue lot granularity. Quote sizing works off the
	// position headroom, so the constant is declared for venue parity
	// rather than consulted by the decision cycle.
	LotSize Volume = 10

	// PositionLimit is the hard cap on the absolute ETF position.
	PositionLimit Volume = 100

	// TickSize is the venue price increment in cents.
	TickSize Price = 100

	// MinimumBid and MaximumAsk are the venue price bounds.
	MinimumBid Price = 1
	MaximumAsk Price = 1<<31 - 1

	// MinBidNearestTick and MaxAskNearestTick are the venue bounds
	// rounded to the tick grid. Hedge orders price at these bounds.
	MinBidNearestTick = (MinimumBid + TickSize) / TickSize * TickSize
	MaxAskNearestTick = MaximumAsk / TickSize * TickSize
)
