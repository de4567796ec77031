package venue

import (
	"sort"
	"time"

	"github.com/yanun0323/logs"

	"main/internal/codec"
	"main/internal/schema"
)

// Emit hands an encoded venue event to the transport.
type Emit func(header schema.EventHeader, payload []byte)

// Config assembles an exchange.
type Config struct {
	Generator *Generator
	Account   *Account
	Registry  *schema.Registry
	Emit      Emit
	Now       func() int64
}

type restingOrder struct {
	id     uint64
	side   schema.Side
	price  schema.Price
	volume schema.Volume
	filled schema.Volume
}

func (o *restingOrder) remaining() schema.Volume {
	return o.volume - o.filled
}

// Exchange is the simulated venue. Client limit orders rest against a
// generator-driven market: an insert that crosses the book fills as a
// taker at the resting levels, a resting order fills as a maker at its
// own price when the market trades through it. Status reports carry the
// per-event fill volume and fee delta. Hedge orders fill in full at the
// future's best opposite price.
//
// The exchange is owned by one goroutine; the server loop serializes
// client traffic and generator steps.
type Exchange struct {
	gen     *Generator
	account *Account
	reg     *schema.Registry
	emit    Emit
	now     func() int64

	seq      uint64
	loggedIn bool

	orders map[uint64]*restingOrder
	seen   map[uint64]struct{}

	future schema.OrderBook
	etf    schema.OrderBook

	tick     schema.TradeTicks
	tickBids int
	tickAsks int
}

// NewExchange builds an exchange from a config.
func NewExchange(cfg Config) *Exchange {
	e := &Exchange{
		gen:     cfg.Generator,
		account: cfg.Account,
		reg:     cfg.Registry,
		emit:    cfg.Emit,
		now:     cfg.Now,
		orders:  make(map[uint64]*restingOrder),
		seen:    make(map[uint64]struct{}),
	}
	if e.gen == nil {
		e.gen = NewGenerator(GeneratorConfig{})
	}
	if e.reg == nil {
		e.reg = schema.NewRegistry()
	}
	if e.account == nil {
		e.account = NewAccount(e.reg)
	}
	if e.now == nil {
		e.now = nowNanos
	}
	return e
}

// Step publishes the next generated book and runs maker matching when
// the ETF side updated.
func (e *Exchange) Step() {
	book := e.gen.Next()
	if book.Instrument == schema.InstrumentFuture {
		e.future = book
	} else {
		e.etf = book
	}
	e.send(schema.EventOrderBook, codec.EncodeOrderBook(nil, book), 0)

	if book.Instrument == schema.InstrumentETF {
		e.matchResting()
	}
}

// OnLogin validates the handshake. A successful login is acked with a
// login echo, then the current book snapshots so the client starts from
// live market state.
func (e *Exchange) OnLogin(h schema.EventHeader, login schema.Login) {
	if e.loggedIn {
		e.reject(h, 0, "already logged in")
		return
	}
	if login.NameString() == "" {
		e.reject(h, 0, "invalid login")
		return
	}
	e.loggedIn = true
	logs.Infof("venue login: name=%s", login.NameString())

	login.Secret = [schema.LoginFieldCap]byte{}
	e.send(schema.EventLogin, codec.EncodeLogin(nil, login), h.TraceID)

	if e.future.AskPrices[0] != 0 || e.future.BidPrices[0] != 0 {
		e.send(schema.EventOrderBook, codec.EncodeOrderBook(nil, e.future), h.TraceID)
	}
	if e.etf.AskPrices[0] != 0 || e.etf.BidPrices[0] != 0 {
		e.send(schema.EventOrderBook, codec.EncodeOrderBook(nil, e.etf), h.TraceID)
	}
}

// OnOrderInsert validates a limit order, acks it, and matches the
// crossing part as a taker. A GoodForDay remainder rests; a FillAndKill
// remainder dies with a closing status.
func (e *Exchange) OnOrderInsert(h schema.EventHeader, insert schema.OrderInsert) {
	if !e.accept(h, insert.OrderID, insert.Price, insert.Volume) {
		return
	}

	e.sendStatus(h.TraceID, insert.OrderID, 0, insert.Volume, 0)

	order := &restingOrder{
		id:     insert.OrderID,
		side:   insert.Side,
		price:  insert.Price,
		volume: insert.Volume,
	}
	e.matchTaker(h.TraceID, order)

	switch {
	case order.remaining() == 0:
		// Fully filled on entry; the last fill status closed it.
	case insert.Lifespan == schema.LifespanGoodForDay:
		e.orders[order.id] = order
	default:
		e.sendStatus(h.TraceID, order.id, 0, 0, 0)
	}
}

// OnOrderCancel removes a resting order. The closing status is the only
// reply; canceling an unknown or already closed id is an error.
func (e *Exchange) OnOrderCancel(h schema.EventHeader, cancel schema.OrderCancel) {
	if !e.loggedIn {
		e.reject(h, cancel.OrderID, "not logged in")
		return
	}
	if _, ok := e.orders[cancel.OrderID]; !ok {
		e.reject(h, cancel.OrderID, "order not found")
		return
	}
	delete(e.orders, cancel.OrderID)
	e.sendStatus(h.TraceID, cancel.OrderID, 0, 0, 0)
}

// OnOrderHedge fills a future order in full at the best opposite price.
func (e *Exchange) OnOrderHedge(h schema.EventHeader, hedge schema.OrderHedge) {
	if !e.accept(h, hedge.OrderID, hedge.Price, hedge.Volume) {
		return
	}

	var price schema.Price
	if hedge.Side == schema.SideBuy {
		price = e.future.AskPrices[0]
	} else {
		price = e.future.BidPrices[0]
	}
	if price == 0 {
		e.reject(h, hedge.OrderID, "no liquidity")
		return
	}

	e.account.Fill(schema.InstrumentFuture, price, hedge.Volume, false)
	fill := schema.HedgeFilled{
		OrderID:      hedge.OrderID,
		AveragePrice: price,
		Volume:       hedge.Volume,
	}
	e.send(schema.EventHedgeFilled, codec.EncodeHedgeFilled(nil, fill), h.TraceID)
}

// accept runs the shared order validations and registers the id.
func (e *Exchange) accept(h schema.EventHeader, id uint64, price schema.Price, volume schema.Volume) bool {
	if !e.loggedIn {
		e.reject(h, id, "not logged in")
		return false
	}
	if id == 0 {
		e.reject(h, id, "invalid order id")
		return false
	}
	if _, ok := e.seen[id]; ok {
		e.reject(h, id, "duplicate order id")
		return false
	}
	if volume <= 0 {
		e.reject(h, id, "invalid volume")
		return false
	}
	if price < schema.MinimumBid || price > schema.MaximumAsk || price%schema.TickSize != 0 {
		e.reject(h, id, "invalid price")
		return false
	}
	e.seen[id] = struct{}{}
	return true
}

// matchTaker sweeps the ETF book levels an incoming order crosses.
func (e *Exchange) matchTaker(traceID uint64, order *restingOrder) {
	for i := 0; i < schema.TopLevels && order.remaining() > 0; i++ {
		var price schema.Price
		var available schema.Volume
		if order.side == schema.SideBuy {
			price, available = e.etf.AskPrices[i], e.etf.AskVolumes[i]
			if price == 0 || price > order.price {
				return
			}
		} else {
			price, available = e.etf.BidPrices[i], e.etf.BidVolumes[i]
			if price == 0 || price < order.price {
				return
			}
		}
		if available <= 0 {
			continue
		}
		e.fill(traceID, order, price, min(order.remaining(), available), false)
	}
}

// matchResting fills resting orders the latest ETF snapshot traded
// through, in id order, then publishes the trades as one tick event.
func (e *Exchange) matchResting() {
	if len(e.orders) == 0 {
		return
	}
	ids := make([]uint64, 0, len(e.orders))
	for id := range e.orders {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	e.tick = schema.TradeTicks{Instrument: schema.InstrumentETF, Seq: e.etf.Seq}
	e.tickBids, e.tickAsks = 0, 0
	traded := false

	for _, id := range ids {
		order := e.orders[id]
		var available schema.Volume
		if order.side == schema.SideBuy {
			ask := e.etf.AskPrices[0]
			if ask == 0 || ask > order.price {
				continue
			}
			available = e.etf.AskVolumes[0]
		} else {
			bid := e.etf.BidPrices[0]
			if bid == 0 || bid < order.price {
				continue
			}
			available = e.etf.BidVolumes[0]
		}
		if available <= 0 {
			continue
		}
		e.fill(0, order, order.price, min(order.remaining(), available), true)
		traded = true
		if order.remaining() == 0 {
			delete(e.orders, id)
		}
	}

	if traded {
		e.send(schema.EventTradeTicks, codec.EncodeTradeTicks(nil, e.tick), 0)
	}
}

// fill books one trade: fee accounting, the fill report, its status
// delta, and the tick aggregation.
func (e *Exchange) fill(traceID uint64, order *restingOrder, price schema.Price, volume schema.Volume, maker bool) {
	order.filled += volume
	fee := e.account.Fill(schema.InstrumentETF, price, volume, maker)

	filled := schema.OrderFilled{OrderID: order.id, Price: price, Volume: volume}
	e.send(schema.EventOrderFilled, codec.EncodeOrderFilled(nil, filled), traceID)
	e.sendStatus(traceID, order.id, volume, order.remaining(), fee)

	if order.side == schema.SideBuy {
		if e.tickBids < schema.TopLevels {
			e.tick.BidPrices[e.tickBids] = price
			e.tick.BidVolumes[e.tickBids] = volume
			e.tickBids++
		}
	} else if e.tickAsks < schema.TopLevels {
		e.tick.AskPrices[e.tickAsks] = price
		e.tick.AskVolumes[e.tickAsks] = volume
		e.tickAsks++
	}
}

func (e *Exchange) sendStatus(traceID, id uint64, fillVolume, remaining schema.Volume, fees schema.Fees) {
	status := schema.OrderStatus{
		OrderID:         id,
		FillVolume:      fillVolume,
		RemainingVolume: remaining,
		Fees:            fees,
	}
	e.send(schema.EventOrderStatus, codec.EncodeOrderStatus(nil, status), traceID)
}

func (e *Exchange) reject(h schema.EventHeader, id uint64, message string) {
	logs.Warnf("venue reject: order=%d message=%q", id, message)
	ve := schema.NewVenueError(id, message)
	e.send(schema.EventVenueError, codec.EncodeVenueError(nil, ve), h.TraceID)
}

func (e *Exchange) send(t schema.EventType, payload []byte, traceID uint64) {
	if e.emit == nil {
		return
	}
	e.seq++
	ts := e.now()
	header := schema.NewHeader(t, schema.SourceVenue, e.seq, ts, ts)
	header.TraceID = traceID
	e.emit(header, payload)
}

// Logout releases the session slot. Resting orders survive so a
// reconnecting client can keep working them.
func (e *Exchange) Logout() {
	if e.loggedIn {
		logs.Info("venue logout")
	}
	e.loggedIn = false
}

// RestingOrders returns the number of live client orders.
func (e *Exchange) RestingOrders() int {
	return len(e.orders)
}

// Account exposes the venue-side fee book.
func (e *Exchange) Account() *Account {
	return e.account
}

// Seq returns the last issued venue sequence number.
func (e *Exchange) Seq() uint64 {
	return e.seq
}

func nowNanos() int64 {
	return time.Now().UTC().UnixNano()
}
