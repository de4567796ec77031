package codec

import (
	"encoding/binary"

	"main/internal/schema"
)

// HeaderWireSize is the encoded size of an event header on the wire.
const HeaderWireSize = 40

// EncodeHeader serializes an event header for framing.
func EncodeHeader(dst []byte, header schema.EventHeader) []byte {
	if cap(dst) < HeaderWireSize {
		dst = make([]byte, HeaderWireSize)
	} else {
		dst = dst[:HeaderWireSize]
	}

	binary.LittleEndian.PutUint16(dst[0:2], uint16(header.Type))
	binary.LittleEndian.PutUint16(dst[2:4], header.Version)
	binary.LittleEndian.PutUint16(dst[4:6], header.Source)
	binary.LittleEndian.PutUint16(dst[6:8], header.Flags)
	binary.LittleEndian.PutUint64(dst[8:16], header.Seq)
	binary.LittleEndian.PutUint64(dst[16:24], uint64(header.TsEvent))
	binary.LittleEndian.PutUint64(dst[24:32], uint64(header.TsRecv))
	binary.LittleEndian.PutUint64(dst[32:40], header.TraceID)

	return dst
}

// DecodeHeader parses a framed event header.
func DecodeHeader(src []byte) (schema.EventHeader, bool) {
	if len(src) < HeaderWireSize {
		return schema.EventHeader{}, false
	}
	return schema.EventHeader{
		Type:    schema.EventType(binary.LittleEndian.Uint16(src[0:2])),
		Version: binary.LittleEndian.Uint16(src[2:4]),
		Source:  binary.LittleEndian.Uint16(src[4:6]),
		Flags:   binary.LittleEndian.Uint16(src[6:8]),
		Seq:     binary.LittleEndian.Uint64(src[8:16]),
		TsEvent: int64(binary.LittleEndian.Uint64(src[16:24])),
		TsRecv:  int64(binary.LittleEndian.Uint64(src[24:32])),
		TraceID: binary.LittleEndian.Uint64(src[32:40]),
	}, true
}

// LoginPayloadSize is two fixed login fields.
const LoginPayloadSize = 2 * schema.LoginFieldCap

// EncodeLogin serializes a login payload.
func EncodeLogin(dst []byte, login schema.Login) []byte {
	if cap(dst) < LoginPayloadSize {
		dst = make([]byte, LoginPayloadSize)
	} else {
		dst = dst[:LoginPayloadSize]
	}

	copy(dst[0:schema.LoginFieldCap], login.Name[:])
	copy(dst[schema.LoginFieldCap:LoginPayloadSize], login.Secret[:])

	return dst
}

// DecodeLogin parses a fixed-size login payload.
func DecodeLogin(src []byte) (schema.Login, bool) {
	if len(src) < LoginPayloadSize {
		return schema.Login{}, false
	}
	var login schema.Login
	copy(login.Name[:], src[0:schema.LoginFieldCap])
	copy(login.Secret[:], src[schema.LoginFieldCap:LoginPayloadSize])
	return login, true
}

// PayloadSize returns the fixed payload size for an event type, or -1 for
// unknown types.
func PayloadSize(t schema.EventType) int {
	switch t {
	case schema.EventOrderBook:
		return OrderBookPayloadSize
	case schema.EventTradeTicks:
		return TradeTicksPayloadSize
	case schema.EventOrderStatus:
		return OrderStatusPayloadSize
	case schema.EventOrderFilled:
		return OrderFilledPayloadSize
	case schema.EventHedgeFilled:
		return HedgeFilledPayloadSize
	case schema.EventVenueError:
		return VenueErrorPayloadSize
	case schema.EventLogin:
		return LoginPayloadSize
	case schema.EventOrderInsert:
		return OrderInsertPayloadSize
	case schema.EventOrderCancel:
		return OrderCancelPayloadSize
	case schema.EventOrderHedge:
		return OrderHedgePayloadSize
	case schema.EventRiskDecision:
		return RiskDecisionPayloadSize
	default:
		return -1
	}
}
