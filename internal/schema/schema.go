package schema

// SchemaVersion is the current event schema version.
const SchemaVersion uint16 = 1

// Header sources identify who stamped an event.
const (
	SourceVenue  uint16 = 1
	SourceEngine uint16 = 2
	SourceReplay uint16 = 3
)

// EventType defines the category of an event carried on the wire and in
// the journal. Venue-to-client events and client-to-venue actions share
// one type space so a single journal stream covers a whole session.
//
//go:generate enumgen -type=EventType
type EventType uint16

const (
	EventUnknown EventType = iota
	EventOrderBook
	EventTradeTicks
	EventOrderStatus
	EventOrderFilled
	EventHedgeFilled
	EventVenueError
	EventLogin
	EventOrderInsert
	EventOrderCancel
	EventOrderHedge
	EventRiskDecision
)

// IsAction reports whether the type is a client-to-venue action.
func (t EventType) IsAction() bool {
	switch t {
	case EventLogin, EventOrderInsert, EventOrderCancel, EventOrderHedge:
		return true
	default:
		return false
	}
}

// EventHeader is the common metadata attached to every event.
type EventHeader struct {
	Type    EventType
	Version uint16
	Source  uint16
	Flags   uint16
	Seq     uint64
	TsEvent int64
	TsRecv  int64
	TraceID uint64
}

// NewHeader builds a header with the current schema version.
func NewHeader(eventType EventType, source uint16, seq uint64, tsEvent, tsRecv int64) EventHeader {
	return EventHeader{
		Type:    eventType,
		Version: SchemaVersion,
		Source:  source,
		Seq:     seq,
		TsEvent: tsEvent,
		TsRecv:  tsRecv,
	}
}
