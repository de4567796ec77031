package schema

// Price is an integer number of cents.
type Price int64

// Volume is an integer number of lots.
type Volume int64

// Fees is a signed fee amount in cents. Negative values are rebates.
type Fees int64

// Instrument identifies one of the two tradable instruments. The values
// are fixed by the venue protocol.
//
//go:generate enumgen -type=Instrument
type Instrument uint8

const (
	InstrumentFuture Instrument = 0
	InstrumentETF    Instrument = 1
)

// Side is the order direction. The values are fixed by the venue protocol.
//
//go:generate enumgen -type=Side
type Side uint8

const (
	SideSell Side = 0
	SideBuy  Side = 1

	// Venue aliases: the ask side sells, the bid side buys.
	SideAsk = SideSell
	SideBid = SideBuy
)

// Lifespan is the order lifetime policy.
//
//go:generate enumgen -type=Lifespan
type Lifespan uint8

const (
	LifespanFillAndKill Lifespan = 0
	LifespanGoodForDay  Lifespan = 1
)

// TopLevels is the book depth carried per side in book and tick events.
const TopLevels = 5

// ErrorMessageCap is the fixed capacity of a venue error message.
const ErrorMessageCap = 48

// LoginFieldCap is the fixed capacity of login name and secret fields.
const LoginFieldCap = 32

// OrderBook is the payload for EventOrderBook: a top-of-book snapshot for
// one instrument. Zero prices mark empty levels.
type OrderBook struct {
	Instrument Instrument
	Seq        uint32
	AskPrices  [TopLevels]Price
	AskVolumes [TopLevels]Volume
	BidPrices  [TopLevels]Price
	BidVolumes [TopLevels]Volume
}

// TradeTicks is the payload for EventTradeTicks. Same shape as OrderBook:
// per-level traded prices and volumes since the last tick event.
type TradeTicks struct {
	Instrument Instrument
	Seq        uint32
	AskPrices  [TopLevels]Price
	AskVolumes [TopLevels]Volume
	BidPrices  [TopLevels]Price
	BidVolumes [TopLevels]Volume
}

// OrderStatus is the payload for EventOrderStatus, sent whenever the
// state of a client order changes. RemainingVolume zero means the order
// is no longer active.
type OrderStatus struct {
	OrderID         uint64
	FillVolume      Volume
	RemainingVolume Volume
	Fees            Fees
}

// OrderFilled is the payload for EventOrderFilled: one trade against a
// client order.
type OrderFilled struct {
	OrderID uint64
	Price   Price
	Volume  Volume
}

// HedgeFilled is the payload for EventHedgeFilled: a hedge order traded
// on the future at the reported average price.
type HedgeFilled struct {
	OrderID      uint64
	AveragePrice Price
	Volume       Volume
}

// VenueError is the payload for EventVenueError. OrderID is zero when the
// error is not tied to a particular order.
type VenueError struct {
	OrderID uint64
	Message [ErrorMessageCap]byte
}

// MessageString returns the message with zero padding stripped.
func (e VenueError) MessageString() string {
	n := 0
	for n < len(e.Message) && e.Message[n] != 0 {
		n++
	}
	return string(e.Message[:n])
}

// NewVenueError builds a VenueError, truncating the message to capacity.
func NewVenueError(orderID uint64, message string) VenueError {
	ve := VenueError{OrderID: orderID}
	copy(ve.Message[:], message)
	return ve
}

// Login is the payload for EventLogin, the first frame of a session.
type Login struct {
	Name   [LoginFieldCap]byte
	Secret [LoginFieldCap]byte
}

// NewLogin builds a Login payload, truncating fields to capacity.
func NewLogin(name, secret string) Login {
	var l Login
	copy(l.Name[:], name)
	copy(l.Secret[:], secret)
	return l
}

// NameString returns the login name with zero padding stripped.
func (l Login) NameString() string {
	n := 0
	for n < len(l.Name) && l.Name[n] != 0 {
		n++
	}
	return string(l.Name[:n])
}

// SecretString returns the login secret with zero padding stripped.
func (l Login) SecretString() string {
	n := 0
	for n < len(l.Secret) && l.Secret[n] != 0 {
		n++
	}
	return string(l.Secret[:n])
}

// OrderInsert is the payload for EventOrderInsert: a new limit order on
// the ETF.
type OrderInsert struct {
	OrderID  uint64
	Side     Side
	Lifespan Lifespan
	Price    Price
	Volume   Volume
}

// OrderCancel is the payload for EventOrderCancel.
type OrderCancel struct {
	OrderID uint64
}

// OrderHedge is the payload for EventOrderHedge: a fill-and-kill order on
// the future offsetting an ETF fill.
type OrderHedge struct {
	OrderID uint64
	Side    Side
	Price   Price
	Volume  Volume
}

// RiskAction is the outcome of a risk decision.
//
//go:generate enumgen -type=RiskAction
type RiskAction uint16

const (
	RiskActionUnknown RiskAction = iota
	RiskActionAllow
	RiskActionDeny
)

// RiskReason is a coarse reason code for risk decisions.
//
//go:generate enumgen -type=RiskReason
type RiskReason uint16

const (
	RiskReasonNone RiskReason = iota
	RiskReasonKillSwitch
	RiskReasonQuotingDisabled
	RiskReasonMaxVolume
	RiskReasonPriceBand
	RiskReasonPositionLimit
)

// RiskDecision is the payload for EventRiskDecision. Only denials are
// journaled; the allow path stays off the hot path.
type RiskDecision struct {
	OrderID  uint64
	Action   RiskAction
	Reason   RiskReason
	Side     Side
	Price    Price
	Volume   Volume
	Position Volume
	Limit    Volume
}
