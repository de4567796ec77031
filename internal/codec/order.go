package codec

import (
	"encoding/binary"

	"main/internal/schema"
)

const OrderInsertPayloadSize = 26

// EncodeOrderInsert serializes an insert action into a fixed-size payload.
func EncodeOrderInsert(dst []byte, order schema.OrderInsert) []byte {
	if cap(dst) < OrderInsertPayloadSize {
		dst = make([]byte, OrderInsertPayloadSize)
	} else {
		dst = dst[:OrderInsertPayloadSize]
	}

	binary.LittleEndian.PutUint64(dst[0:8], order.OrderID)
	dst[8] = byte(order.Side)
	dst[9] = byte(order.Lifespan)
	binary.LittleEndian.PutUint64(dst[10:18], uint64(order.Price))
	binary.LittleEndian.PutUint64(dst[18:26], uint64(order.Volume))

	return dst
}

// DecodeOrderInsert parses a fixed-size insert action payload.
func DecodeOrderInsert(src []byte) (schema.OrderInsert, bool) {
	if len(src) < OrderInsertPayloadSize {
		return schema.OrderInsert{}, false
	}
	return schema.OrderInsert{
		OrderID:  binary.LittleEndian.Uint64(src[0:8]),
		Side:     schema.Side(src[8]),
		Lifespan: schema.Lifespan(src[9]),
		Price:    schema.Price(int64(binary.LittleEndian.Uint64(src[10:18]))),
		Volume:   schema.Volume(int64(binary.LittleEndian.Uint64(src[18:26]))),
	}, true
}

const OrderCancelPayloadSize = 8

// EncodeOrderCancel serializes a cancel action into a fixed-size payload.
func EncodeOrderCancel(dst []byte, cancel schema.OrderCancel) []byte {
	if cap(dst) < OrderCancelPayloadSize {
		dst = make([]byte, OrderCancelPayloadSize)
	} else {
		dst = dst[:OrderCancelPayloadSize]
	}
	binary.LittleEndian.PutUint64(dst[0:8], cancel.OrderID)
	return dst
}

// DecodeOrderCancel parses a fixed-size cancel action payload.
func DecodeOrderCancel(src []byte) (schema.OrderCancel, bool) {
	if len(src) < OrderCancelPayloadSize {
		return schema.OrderCancel{}, false
	}
	return schema.OrderCancel{
		OrderID: binary.LittleEndian.Uint64(src[0:8]),
	}, true
}

const OrderHedgePayloadSize = 25

// EncodeOrderHedge serializes a hedge action into a fixed-size payload.
func EncodeOrderHedge(dst []byte, hedge schema.OrderHedge) []byte {
	if cap(dst) < OrderHedgePayloadSize {
		dst = make([]byte, OrderHedgePayloadSize)
	} else {
		dst = dst[:OrderHedgePayloadSize]
	}

	binary.LittleEndian.PutUint64(dst[0:8], hedge.OrderID)
	dst[8] = byte(hedge.Side)
	binary.LittleEndian.PutUint64(dst[9:17], uint64(hedge.Price))
	binary.LittleEndian.PutUint64(dst[17:25], uint64(hedge.Volume))

	return dst
}

// DecodeOrderHedge parses a fixed-size hedge action payload.
func DecodeOrderHedge(src []byte) (schema.OrderHedge, bool) {
	if len(src) < OrderHedgePayloadSize {
		return schema.OrderHedge{}, false
	}
	return schema.OrderHedge{
		OrderID: binary.LittleEndian.Uint64(src[0:8]),
		Side:    schema.Side(src[8]),
		Price:   schema.Price(int64(binary.LittleEndian.Uint64(src[9:17]))),
		Volume:  schema.Volume(int64(binary.LittleEndian.Uint64(src[17:25]))),
	}, true
}
