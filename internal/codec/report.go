package codec

import (
	"encoding/binary"

	"main/internal/schema"
)

const OrderStatusPayloadSize = 32

// EncodeOrderStatus serializes an order status report into a fixed-size payload.
func EncodeOrderStatus(dst []byte, status schema.OrderStatus) []byte {
	if cap(dst) < OrderStatusPayloadSize {
		dst = make([]byte, OrderStatusPayloadSize)
	} else {
		dst = dst[:OrderStatusPayloadSize]
	}

	binary.LittleEndian.PutUint64(dst[0:8], status.OrderID)
	binary.LittleEndian.PutUint64(dst[8:16], uint64(status.FillVolume))
	binary.LittleEndian.PutUint64(dst[16:24], uint64(status.RemainingVolume))
	binary.LittleEndian.PutUint64(dst[24:32], uint64(status.Fees))

	return dst
}

// DecodeOrderStatus parses a fixed-size order status payload.
func DecodeOrderStatus(src []byte) (schema.OrderStatus, bool) {
	if len(src) < OrderStatusPayloadSize {
		return schema.OrderStatus{}, false
	}
	return schema.OrderStatus{
		OrderID:         binary.LittleEndian.Uint64(src[0:8]),
		FillVolume:      schema.Volume(int64(binary.LittleEndian.Uint64(src[8:16]))),
		RemainingVolume: schema.Volume(int64(binary.LittleEndian.Uint64(src[16:24]))),
		Fees:            schema.Fees(int64(binary.LittleEndian.Uint64(src[24:32]))),
	}, true
}

const OrderFilledPayloadSize = 24

// EncodeOrderFilled serializes a fill report into a fixed-size payload.
func EncodeOrderFilled(dst []byte, fill schema.OrderFilled) []byte {
	if cap(dst) < OrderFilledPayloadSize {
		dst = make([]byte, OrderFilledPayloadSize)
	} else {
		dst = dst[:OrderFilledPayloadSize]
	}

	binary.LittleEndian.PutUint64(dst[0:8], fill.OrderID)
	binary.LittleEndian.PutUint64(dst[8:16], uint64(fill.Price))
	binary.LittleEndian.PutUint64(dst[16:24], uint64(fill.Volume))

	return dst
}

// DecodeOrderFilled parses a fixed-size fill report payload.
func DecodeOrderFilled(src []byte) (schema.OrderFilled, bool) {
	if len(src) < OrderFilledPayloadSize {
		return schema.OrderFilled{}, false
	}
	return schema.OrderFilled{
		OrderID: binary.LittleEndian.Uint64(src[0:8]),
		Price:   schema.Price(int64(binary.LittleEndian.Uint64(src[8:16]))),
		Volume:  schema.Volume(int64(binary.LittleEndian.Uint64(src[16:24]))),
	}, true
}

const HedgeFilledPayloadSize = 24

// EncodeHedgeFilled serializes a hedge fill report into a fixed-size payload.
func EncodeHedgeFilled(dst []byte, fill schema.HedgeFilled) []byte {
	if cap(dst) < HedgeFilledPayloadSize {
		dst = make([]byte, HedgeFilledPayloadSize)
	} else {
		dst = dst[:HedgeFilledPayloadSize]
	}

	binary.LittleEndian.PutUint64(dst[0:8], fill.OrderID)
	binary.LittleEndian.PutUint64(dst[8:16], uint64(fill.AveragePrice))
	binary.LittleEndian.PutUint64(dst[16:24], uint64(fill.Volume))

	return dst
}

// DecodeHedgeFilled parses a fixed-size hedge fill payload.
func DecodeHedgeFilled(src []byte) (schema.HedgeFilled, bool) {
	if len(src) < HedgeFilledPayloadSize {
		return schema.HedgeFilled{}, false
	}
	return schema.HedgeFilled{
		OrderID:      binary.LittleEndian.Uint64(src[0:8]),
		AveragePrice: schema.Price(int64(binary.LittleEndian.Uint64(src[8:16]))),
		Volume:       schema.Volume(int64(binary.LittleEndian.Uint64(src[16:24]))),
	}, true
}

// VenueErrorPayloadSize is 8 (order id) + the fixed message buffer.
const VenueErrorPayloadSize = 8 + schema.ErrorMessageCap

// EncodeVenueError serializes an error report into a fixed-size payload.
func EncodeVenueError(dst []byte, ve schema.VenueError) []byte {
	if cap(dst) < VenueErrorPayloadSize {
		dst = make([]byte, VenueErrorPayloadSize)
	} else {
		dst = dst[:VenueErrorPayloadSize]
	}

	binary.LittleEndian.PutUint64(dst[0:8], ve.OrderID)
	copy(dst[8:VenueErrorPayloadSize], ve.Message[:])

	return dst
}

// DecodeVenueError parses a fixed-size error report payload.
func DecodeVenueError(src []byte) (schema.VenueError, bool) {
	if len(src) < VenueErrorPayloadSize {
		return schema.VenueError{}, false
	}
	ve := schema.VenueError{
		OrderID: binary.LittleEndian.Uint64(src[0:8]),
	}
	copy(ve.Message[:], src[8:VenueErrorPayloadSize])
	return ve, true
}
