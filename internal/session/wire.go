package session

import (
	"encoding/json"

	"github.com/bytedance/sonic"
	"github.com/yanun0323/errors"

	"main/internal/codec"
	"main/internal/schema"
	"main/pkg/exception"
	"main/pkg/scanner"
)

// Envelope is the websocket wire form of one event. Data holds the
// type-specific body. The sender's role fixes the header source, so it
// is not carried on the wire.
type Envelope struct {
	Type    string          `json:"type"`
	Seq     uint64          `json:"seq"`
	TsEvent int64           `json:"tsEvent"`
	TsRecv  int64           `json:"tsRecv"`
	TraceID uint64          `json:"traceId,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Wire type names.
const (
	WireLogin       = "login"
	WireOrderBook   = "order_book"
	WireTradeTicks  = "trade_ticks"
	WireOrderInsert = "order_insert"
	WireOrderCancel = "order_cancel"
	WireOrderHedge  = "order_hedge"
	WireOrderStatus = "order_status"
	WireOrderFilled = "order_filled"
	WireHedgeFilled = "hedge_filled"
	WireVenueError  = "venue_error"
)

var (
	keyType    = []byte(`"type"`)
	keyTraceID = []byte(`"traceId"`)
)

// SniffType returns the envelope type name without a full decode.
func SniffType(raw []byte) (string, bool) {
	name, ok := scanner.ScanStringField(raw, keyType)
	if !ok {
		return "", false
	}
	return string(name), true
}

// SniffTraceID returns the envelope trace id without a full decode, or
// zero when absent.
func SniffTraceID(raw []byte) uint64 {
	v, ok := scanner.ScanUintField(raw, keyTraceID)
	if !ok {
		return 0
	}
	return v
}

func wireName(t schema.EventType) (string, bool) {
	switch t {
	case schema.EventLogin:
		return WireLogin, true
	case schema.EventOrderBook:
		return WireOrderBook, true
	case schema.EventTradeTicks:
		return WireTradeTicks, true
	case schema.EventOrderInsert:
		return WireOrderInsert, true
	case schema.EventOrderCancel:
		return WireOrderCancel, true
	case schema.EventOrderHedge:
		return WireOrderHedge, true
	case schema.EventOrderStatus:
		return WireOrderStatus, true
	case schema.EventOrderFilled:
		return WireOrderFilled, true
	case schema.EventHedgeFilled:
		return WireHedgeFilled, true
	case schema.EventVenueError:
		return WireVenueError, true
	default:
		return "", false
	}
}

func wireType(name string) (schema.EventType, bool) {
	switch name {
	case WireLogin:
		return schema.EventLogin, true
	case WireOrderBook:
		return schema.EventOrderBook, true
	case WireTradeTicks:
		return schema.EventTradeTicks, true
	case WireOrderInsert:
		return schema.EventOrderInsert, true
	case WireOrderCancel:
		return schema.EventOrderCancel, true
	case WireOrderHedge:
		return schema.EventOrderHedge, true
	case WireOrderStatus:
		return schema.EventOrderStatus, true
	case WireOrderFilled:
		return schema.EventOrderFilled, true
	case WireHedgeFilled:
		return schema.EventHedgeFilled, true
	case WireVenueError:
		return schema.EventVenueError, true
	default:
		return schema.EventUnknown, false
	}
}

// JSON bodies mirror the binary payloads. Sides and lifespans stay
// numeric for parity with the binary codec.

type wireBookData struct {
	Instrument schema.Instrument               `json:"instrument"`
	Seq        uint32                          `json:"seq"`
	AskPrices  [schema.TopLevels]schema.Price  `json:"askPrices"`
	AskVolumes [schema.TopLevels]schema.Volume `json:"askVolumes"`
	BidPrices  [schema.TopLevels]schema.Price  `json:"bidPrices"`
	BidVolumes [schema.TopLevels]schema.Volume `json:"bidVolumes"`
}

type wireLoginData struct {
	Name   string `json:"name"`
	Secret string `json:"secret,omitempty"`
}

type wireOrderInsertData struct {
	OrderID  uint64          `json:"orderId"`
	Side     schema.Side     `json:"side"`
	Lifespan schema.Lifespan `json:"lifespan"`
	Price    schema.Price    `json:"price"`
	Volume   schema.Volume   `json:"volume"`
}

type wireOrderCancelData struct {
	OrderID uint64 `json:"orderId"`
}

type wireOrderHedgeData struct {
	OrderID uint64        `json:"orderId"`
	Side    schema.Side   `json:"side"`
	Price   schema.Price  `json:"price"`
	Volume  schema.Volume `json:"volume"`
}

type wireOrderStatusData struct {
	OrderID         uint64        `json:"orderId"`
	FillVolume      schema.Volume `json:"fillVolume"`
	RemainingVolume schema.Volume `json:"remainingVolume"`
	Fees            schema.Fees   `json:"fees"`
}

type wireOrderFilledData struct {
	OrderID uint64        `json:"orderId"`
	Price   schema.Price  `json:"price"`
	Volume  schema.Volume `json:"volume"`
}

type wireHedgeFilledData struct {
	OrderID      uint64        `json:"orderId"`
	AveragePrice schema.Price  `json:"averagePrice"`
	Volume       schema.Volume `json:"volume"`
}

type wireVenueErrorData struct {
	OrderID uint64 `json:"orderId"`
	Message string `json:"message"`
}

// BuildEnvelope converts a header and binary payload into the JSON
// envelope form.
func BuildEnvelope(h schema.EventHeader, payload []byte) (Envelope, error) {
	name, ok := wireName(h.Type)
	if !ok {
		return Envelope{}, exception.ErrNotOnWire
	}

	var (
		data any
		okP  bool
	)
	switch h.Type {
	case schema.EventLogin:
		var login schema.Login
		if login, okP = codec.DecodeLogin(payload); okP {
			data = wireLoginData{Name: login.NameString(), Secret: login.SecretString()}
		}
	case schema.EventOrderBook:
		var book schema.OrderBook
		if book, okP = codec.DecodeOrderBook(payload); okP {
			data = wireBookData{
				Instrument: book.Instrument,
				Seq:        book.Seq,
				AskPrices:  book.AskPrices,
				AskVolumes: book.AskVolumes,
				BidPrices:  book.BidPrices,
				BidVolumes: book.BidVolumes,
			}
		}
	case schema.EventTradeTicks:
		var ticks schema.TradeTicks
		if ticks, okP = codec.DecodeTradeTicks(payload); okP {
			data = wireBookData{
				Instrument: ticks.Instrument,
				Seq:        ticks.Seq,
				AskPrices:  ticks.AskPrices,
				AskVolumes: ticks.AskVolumes,
				BidPrices:  ticks.BidPrices,
				BidVolumes: ticks.BidVolumes,
			}
		}
	case schema.EventOrderInsert:
		var insert schema.OrderInsert
		if insert, okP = codec.DecodeOrderInsert(payload); okP {
			data = wireOrderInsertData{
				OrderID:  insert.OrderID,
				Side:     insert.Side,
				Lifespan: insert.Lifespan,
				Price:    insert.Price,
				Volume:   insert.Volume,
			}
		}
	case schema.EventOrderCancel:
		var cancel schema.OrderCancel
		if cancel, okP = codec.DecodeOrderCancel(payload); okP {
			data = wireOrderCancelData{OrderID: cancel.OrderID}
		}
	case schema.EventOrderHedge:
		var hedge schema.OrderHedge
		if hedge, okP = codec.DecodeOrderHedge(payload); okP {
			data = wireOrderHedgeData{
				OrderID: hedge.OrderID,
				Side:    hedge.Side,
				Price:   hedge.Price,
				Volume:  hedge.Volume,
			}
		}
	case schema.EventOrderStatus:
		var status schema.OrderStatus
		if status, okP = codec.DecodeOrderStatus(payload); okP {
			data = wireOrderStatusData{
				OrderID:         status.OrderID,
				FillVolume:      status.FillVolume,
				RemainingVolume: status.RemainingVolume,
				Fees:            status.Fees,
			}
		}
	case schema.EventOrderFilled:
		var fill schema.OrderFilled
		if fill, okP = codec.DecodeOrderFilled(payload); okP {
			data = wireOrderFilledData{OrderID: fill.OrderID, Price: fill.Price, Volume: fill.Volume}
		}
	case schema.EventHedgeFilled:
		var fill schema.HedgeFilled
		if fill, okP = codec.DecodeHedgeFilled(payload); okP {
			data = wireHedgeFilledData{OrderID: fill.OrderID, AveragePrice: fill.AveragePrice, Volume: fill.Volume}
		}
	case schema.EventVenueError:
		var ve schema.VenueError
		if ve, okP = codec.DecodeVenueError(payload); okP {
			data = wireVenueErrorData{OrderID: ve.OrderID, Message: ve.MessageString()}
		}
	}
	if !okP {
		return Envelope{}, errors.Errorf("short %s payload: %d bytes", name, len(payload))
	}

	raw, err := sonic.ConfigFastest.Marshal(data)
	if err != nil {
		return Envelope{}, errors.Wrapf(err, "marshal %s data", name)
	}
	return Envelope{
		Type:    name,
		Seq:     h.Seq,
		TsEvent: h.TsEvent,
		TsRecv:  h.TsRecv,
		TraceID: h.TraceID,
		Data:    raw,
	}, nil
}

// OpenEnvelope converts an envelope back into a header and binary
// payload. The caller supplies the source its peer speaks for.
func OpenEnvelope(env Envelope, source uint16) (schema.EventHeader, []byte, error) {
	t, ok := wireType(env.Type)
	if !ok {
		return schema.EventHeader{}, nil, exception.ErrNotOnWire
	}
	h := schema.NewHeader(t, source, env.Seq, env.TsEvent, env.TsRecv)
	h.TraceID = env.TraceID

	var payload []byte
	switch t {
	case schema.EventLogin:
		var data wireLoginData
		if err := sonic.ConfigFastest.Unmarshal(env.Data, &data); err != nil {
			return h, nil, errors.Wrapf(err, "unmarshal %s data", env.Type)
		}
		payload = codec.EncodeLogin(nil, schema.NewLogin(data.Name, data.Secret))
	case schema.EventOrderBook:
		var data wireBookData
		if err := sonic.ConfigFastest.Unmarshal(env.Data, &data); err != nil {
			return h, nil, errors.Wrapf(err, "unmarshal %s data", env.Type)
		}
		payload = codec.EncodeOrderBook(nil, schema.OrderBook{
			Instrument: data.Instrument,
			Seq:        data.Seq,
			AskPrices:  data.AskPrices,
			AskVolumes: data.AskVolumes,
			BidPrices:  data.BidPrices,
			BidVolumes: data.BidVolumes,
		})
	case schema.EventTradeTicks:
		var data wireBookData
		if err := sonic.ConfigFastest.Unmarshal(env.Data, &data); err != nil {
			return h, nil, errors.Wrapf(err, "unmarshal %s data", env.Type)
		}
		payload = codec.EncodeTradeTicks(nil, schema.TradeTicks{
			Instrument: data.Instrument,
			Seq:        data.Seq,
			AskPrices:  data.AskPrices,
			AskVolumes: data.AskVolumes,
			BidPrices:  data.BidPrices,
			BidVolumes: data.BidVolumes,
		})
	case schema.EventOrderInsert:
		var data wireOrderInsertData
		if err := sonic.ConfigFastest.Unmarshal(env.Data, &data); err != nil {
			return h, nil, errors.Wrapf(err, "unmarshal %s data", env.Type)
		}
		payload = codec.EncodeOrderInsert(nil, schema.OrderInsert{
			OrderID:  data.OrderID,
			Side:     data.Side,
			Lifespan: data.Lifespan,
			Price:    data.Price,
			Volume:   data.Volume,
		})
	case schema.EventOrderCancel:
		var data wireOrderCancelData
		if err := sonic.ConfigFastest.Unmarshal(env.Data, &data); err != nil {
			return h, nil, errors.Wrapf(err, "unmarshal %s data", env.Type)
		}
		payload = codec.EncodeOrderCancel(nil, schema.OrderCancel{OrderID: data.OrderID})
	case schema.EventOrderHedge:
		var data wireOrderHedgeData
		if err := sonic.ConfigFastest.Unmarshal(env.Data, &data); err != nil {
			return h, nil, errors.Wrapf(err, "unmarshal %s data", env.Type)
		}
		payload = codec.EncodeOrderHedge(nil, schema.OrderHedge{
			OrderID: data.OrderID,
			Side:    data.Side,
			Price:   data.Price,
			Volume:  data.Volume,
		})
	case schema.EventOrderStatus:
		var data wireOrderStatusData
		if err := sonic.ConfigFastest.Unmarshal(env.Data, &data); err != nil {
			return h, nil, errors.Wrapf(err, "unmarshal %s data", env.Type)
		}
		payload = codec.EncodeOrderStatus(nil, schema.OrderStatus{
			OrderID:         data.OrderID,
			FillVolume:      data.FillVolume,
			RemainingVolume: data.RemainingVolume,
			Fees:            data.Fees,
		})
	case schema.EventOrderFilled:
		var data wireOrderFilledData
		if err := sonic.ConfigFastest.Unmarshal(env.Data, &data); err != nil {
			return h, nil, errors.Wrapf(err, "unmarshal %s data", env.Type)
		}
		payload = codec.EncodeOrderFilled(nil, schema.OrderFilled{
			OrderID: data.OrderID,
			Price:   data.Price,
			Volume:  data.Volume,
		})
	case schema.EventHedgeFilled:
		var data wireHedgeFilledData
		if err := sonic.ConfigFastest.Unmarshal(env.Data, &data); err != nil {
			return h, nil, errors.Wrapf(err, "unmarshal %s data", env.Type)
		}
		payload = codec.EncodeHedgeFilled(nil, schema.HedgeFilled{
			OrderID:      data.OrderID,
			AveragePrice: data.AveragePrice,
			Volume:       data.Volume,
		})
	case schema.EventVenueError:
		var data wireVenueErrorData
		if err := sonic.ConfigFastest.Unmarshal(env.Data, &data); err != nil {
			return h, nil, errors.Wrapf(err, "unmarshal %s data", env.Type)
		}
		payload = codec.EncodeVenueError(nil, schema.NewVenueError(data.OrderID, data.Message))
	}
	return h, payload, nil
}

// EncodeEnvelope renders a header and binary payload as envelope JSON.
func EncodeEnvelope(h schema.EventHeader, payload []byte) ([]byte, error) {
	env, err := BuildEnvelope(h, payload)
	if err != nil {
		return nil, err
	}
	raw, err := sonic.ConfigFastest.Marshal(env)
	if err != nil {
		return nil, errors.Wrap(err, "marshal envelope")
	}
	return raw, nil
}

// DecodeEnvelope parses envelope JSON into a header and binary payload.
func DecodeEnvelope(raw []byte, source uint16) (schema.EventHeader, []byte, error) {
	var env Envelope
	if err := sonic.ConfigFastest.Unmarshal(raw, &env); err != nil {
		return schema.EventHeader{}, nil, errors.Wrap(err, "unmarshal envelope")
	}
	return OpenEnvelope(env, source)
}
