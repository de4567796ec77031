// Package ledger owns the order book side of the engine: per-order
// lifecycle state, the one-live-order-per-side slots, the outstanding id
// sets, and the fill-confirmed position with its hedge flow.
package ledger

import (
	"errors"
	"sort"

	"main/internal/schema"
)

var (
	ErrDuplicateOrder = errors.New("order already exists")
	ErrZeroOrderID    = errors.New("order id is zero")
)

// OrderState tracks the lifecycle of a quote order.
//
//go:generate enumgen -type=OrderState
type OrderState uint16

const (
	OrderStateUnknown OrderState = iota
	OrderStatePending
	OrderStatePartiallyFilled
	OrderStateClosed
)

// IsTerminal reports whether the state admits no further transitions.
func (s OrderState) IsTerminal() bool {
	return s == OrderStateClosed
}

// Order holds the ledger's view of one quote order.
type Order struct {
	ID        uint64
	Side      schema.Side
	Price     schema.Price
	Volume    schema.Volume
	Remaining schema.Volume
	State     OrderState
}

// Ledger tracks orders, slots, sets and positions. It is owned by the
// dispatcher goroutine and is not safe for concurrent use.
type Ledger struct {
	orders map[uint64]*Order
	bids   map[uint64]struct{}
	asks   map[uint64]struct{}

	bidID uint64
	askID uint64

	nextID uint64

	// pendingHedges remembers the side of in-flight hedge orders so a
	// later HedgeFilled can sign the future position.
	pendingHedges map[uint64]schema.Side

	position       schema.Volume
	futurePosition schema.Volume
	totalFees      schema.Fees
}

// New returns an empty ledger. Order ids start at 1.
func New() *Ledger {
	return &Ledger{
		orders:        make(map[uint64]*Order),
		bids:          make(map[uint64]struct{}),
		asks:          make(map[uint64]struct{}),
		pendingHedges: make(map[uint64]schema.Side),
	}
}

// PendingHedge is an in-flight hedge order awaiting its fill report.
type PendingHedge struct {
	OrderID uint64
	Side    schema.Side
}

// State is the recoverable ledger state. Closed orders are dropped: a
// late event for one is a no-op either way.
type State struct {
	Position       schema.Volume
	FuturePosition schema.Volume
	TotalFees      schema.Fees
	NextOrderID    uint64
	BidID          uint64
	AskID          uint64
	Orders         []Order
	PendingHedges  []PendingHedge
}

// State captures the ledger for a snapshot. Orders and hedges come out
// sorted by id.
func (l *Ledger) State() State {
	s := State{
		Position:       l.position,
		FuturePosition: l.futurePosition,
		TotalFees:      l.totalFees,
		NextOrderID:    l.nextID,
		BidID:          l.bidID,
		AskID:          l.askID,
	}
	for _, o := range l.orders {
		if o.State.IsTerminal() {
			continue
		}
		s.Orders = append(s.Orders, *o)
	}
	sort.Slice(s.Orders, func(i, j int) bool { return s.Orders[i].ID < s.Orders[j].ID })
	for id, side := range l.pendingHedges {
		s.PendingHedges = append(s.PendingHedges, PendingHedge{OrderID: id, Side: side})
	}
	sort.Slice(s.PendingHedges, func(i, j int) bool { return s.PendingHedges[i].OrderID < s.PendingHedges[j].OrderID })
	return s
}

// FromState rebuilds a ledger from a snapshot. Set membership follows
// from order state: every non-closed order is outstanding on its side.
func FromState(s State) *Ledger {
	l := New()
	l.position = s.Position
	l.futurePosition = s.FuturePosition
	l.totalFees = s.TotalFees
	l.nextID = s.NextOrderID
	l.bidID = s.BidID
	l.askID = s.AskID
	for _, o := range s.Orders {
		cp := o
		l.orders[o.ID] = &cp
		if o.Side == schema.SideBuy {
			l.bids[o.ID] = struct{}{}
		} else {
			l.asks[o.ID] = struct{}{}
		}
	}
	for _, h := range s.PendingHedges {
		l.pendingHedges[h.OrderID] = h.Side
	}
	return l
}

// NextOrderID allocates a fresh order id. Ids strictly increase and are
// never reused, shared between quotes and hedges.
func (l *Ledger) NextOrderID() uint64 {
	l.nextID++
	return l.nextID
}

// LastOrderID returns the most recently allocated id.
func (l *Ledger) LastOrderID() uint64 {
	return l.nextID
}

// TrackQuote records a freshly inserted quote order as Pending and
// claims the side's live slot.
func (l *Ledger) TrackQuote(id uint64, side schema.Side, price schema.Price, volume schema.Volume) error {
	if id == 0 {
		return ErrZeroOrderID
	}
	if _, ok := l.orders[id]; ok {
		return ErrDuplicateOrder
	}
	l.orders[id] = &Order{
		ID:        id,
		Side:      side,
		Price:     price,
		Volume:    volume,
		Remaining: volume,
		State:     OrderStatePending,
	}
	if side == schema.SideBuy {
		l.bids[id] = struct{}{}
		l.bidID = id
	} else {
		l.asks[id] = struct{}{}
		l.askID = id
	}
	return nil
}

// TakeLiveBid clears and returns the live bid slot; zero means none.
func (l *Ledger) TakeLiveBid() uint64 {
	id := l.bidID
	l.bidID = 0
	return id
}

// TakeLiveAsk clears and returns the live ask slot; zero means none.
func (l *Ledger) TakeLiveAsk() uint64 {
	id := l.askID
	l.askID = 0
	return id
}

// LiveBid returns the live bid order id; zero means none.
func (l *Ledger) LiveBid() uint64 {
	return l.bidID
}

// LiveAsk returns the live ask order id; zero means none.
func (l *Ledger) LiveAsk() uint64 {
	return l.askID
}

// ApplyFilled processes a fill against a tracked quote order. It moves
// the fill-confirmed position and returns the offsetting hedge order to
// send. Fills for untracked ids are ignored.
func (l *Ledger) ApplyFilled(fill schema.OrderFilled) (schema.OrderHedge, bool) {
	var hedge schema.OrderHedge
	if _, ok := l.asks[fill.OrderID]; ok {
		l.position -= fill.Volume
		hedge = schema.OrderHedge{
			OrderID: l.NextOrderID(),
			Side:    schema.SideBuy,
			Price:   schema.MaxAskNearestTick,
			Volume:  fill.Volume,
		}
	} else if _, ok := l.bids[fill.OrderID]; ok {
		l.position += fill.Volume
		hedge = schema.OrderHedge{
			OrderID: l.NextOrderID(),
			Side:    schema.SideSell,
			Price:   schema.MinBidNearestTick,
			Volume:  fill.Volume,
		}
	} else {
		return schema.OrderHedge{}, false
	}

	l.pendingHedges[hedge.OrderID] = hedge.Side

	if o, ok := l.orders[fill.OrderID]; ok && !o.State.IsTerminal() {
		o.Remaining -= fill.Volume
		if o.Remaining < 0 {
			o.Remaining = 0
		}
		o.State = OrderStatePartiallyFilled
	}
	return hedge, true
}

// ApplyStatus processes an order status report. Remaining volume zero
// closes the order: the matching live slot is freed and the id leaves
// both sets. Closing an unknown or already closed id is a no-op.
func (l *Ledger) ApplyStatus(status schema.OrderStatus) {
	l.totalFees += status.Fees

	if status.RemainingVolume == 0 {
		if status.OrderID == l.askID {
			l.askID = 0
		} else if status.OrderID == l.bidID {
			l.bidID = 0
		}
		delete(l.asks, status.OrderID)
		delete(l.bids, status.OrderID)
		if o, ok := l.orders[status.OrderID]; ok {
			o.Remaining = 0
			o.State = OrderStateClosed
		}
		return
	}

	if o, ok := l.orders[status.OrderID]; ok && !o.State.IsTerminal() {
		o.Remaining = status.RemainingVolume
		if status.FillVolume > 0 {
			o.State = OrderStatePartiallyFilled
		}
	}
}

// ShouldSynthesizeStatus reports whether a venue error for the id must
// be translated into a zero status report: only errors for ids still in
// an outstanding set count.
func (l *Ledger) ShouldSynthesizeStatus(orderID uint64) bool {
	if orderID == 0 {
		return false
	}
	if _, ok := l.asks[orderID]; ok {
		return true
	}
	_, ok := l.bids[orderID]
	return ok
}

// ApplyHedgeFilled signs the hedge volume into the future position.
// Unknown hedge ids are ignored.
func (l *Ledger) ApplyHedgeFilled(fill schema.HedgeFilled) bool {
	side, ok := l.pendingHedges[fill.OrderID]
	if !ok {
		return false
	}
	delete(l.pendingHedges, fill.OrderID)
	if side == schema.SideBuy {
		l.futurePosition += fill.Volume
	} else {
		l.futurePosition -= fill.Volume
	}
	return true
}

// Order returns the tracked order for an id.
func (l *Ledger) Order(id uint64) (Order, bool) {
	o, ok := l.orders[id]
	if !ok {
		return Order{}, false
	}
	return *o, true
}

// Position returns the fill-confirmed ETF position.
func (l *Ledger) Position() schema.Volume {
	return l.position
}

// FuturePosition returns the hedge-confirmed future position.
func (l *Ledger) FuturePosition() schema.Volume {
	return l.futurePosition
}

// TotalFees returns the accumulated fees across all status reports.
func (l *Ledger) TotalFees() schema.Fees {
	return l.totalFees
}

// OutstandingBids returns the number of ids in the bid set.
func (l *Ledger) OutstandingBids() int {
	return len(l.bids)
}

// OutstandingAsks returns the number of ids in the ask set.
func (l *Ledger) OutstandingAsks() int {
	return len(l.asks)
}
