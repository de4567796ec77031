package codec

import (
	"encoding/binary"

	"main/internal/schema"
)

// OrderBookPayloadSize is 1 (instrument) + 4 (seq) + 4*5*8 (level arrays).
const OrderBookPayloadSize = 165

// TradeTicksPayloadSize matches OrderBookPayloadSize; the payloads share
// one wire layout.
const TradeTicksPayloadSize = OrderBookPayloadSize

// EncodeOrderBook serializes a book snapshot into a fixed-size payload.
func EncodeOrderBook(dst []byte, book schema.OrderBook) []byte {
	if cap(dst) < OrderBookPayloadSize {
		dst = make([]byte, OrderBookPayloadSize)
	} else {
		dst = dst[:OrderBookPayloadSize]
	}

	dst[0] = byte(book.Instrument)
	binary.LittleEndian.PutUint32(dst[1:5], book.Seq)
	off := 5
	off = putPriceLevels(dst, off, &book.AskPrices)
	off = putVolumeLevels(dst, off, &book.AskVolumes)
	off = putPriceLevels(dst, off, &book.BidPrices)
	putVolumeLevels(dst, off, &book.BidVolumes)

	return dst
}

// DecodeOrderBook parses a fixed-size book snapshot payload.
func DecodeOrderBook(src []byte) (schema.OrderBook, bool) {
	if len(src) < OrderBookPayloadSize {
		return schema.OrderBook{}, false
	}
	book := schema.OrderBook{
		Instrument: schema.Instrument(src[0]),
		Seq:        binary.LittleEndian.Uint32(src[1:5]),
	}
	off := 5
	off = getPriceLevels(src, off, &book.AskPrices)
	off = getVolumeLevels(src, off, &book.AskVolumes)
	off = getPriceLevels(src, off, &book.BidPrices)
	getVolumeLevels(src, off, &book.BidVolumes)
	return book, true
}

// EncodeTradeTicks serializes a trade tick report into a fixed-size payload.
func EncodeTradeTicks(dst []byte, ticks schema.TradeTicks) []byte {
	return EncodeOrderBook(dst, schema.OrderBook(ticks))
}

// DecodeTradeTicks parses a fixed-size trade tick payload.
func DecodeTradeTicks(src []byte) (schema.TradeTicks, bool) {
	book, ok := DecodeOrderBook(src)
	return schema.TradeTicks(book), ok
}

func putPriceLevels(dst []byte, off int, levels *[schema.TopLevels]schema.Price) int {
	for i := 0; i < schema.TopLevels; i++ {
		binary.LittleEndian.PutUint64(dst[off:off+8], uint64(levels[i]))
		off += 8
	}
	return off
}

func putVolumeLevels(dst []byte, off int, levels *[schema.TopLevels]schema.Volume) int {
	for i := 0; i < schema.TopLevels; i++ {
		binary.LittleEndian.PutUint64(dst[off:off+8], uint64(levels[i]))
		off += 8
	}
	return off
}

func getPriceLevels(src []byte, off int, levels *[schema.TopLevels]schema.Price) int {
	for i := 0; i < schema.TopLevels; i++ {
		levels[i] = schema.Price(int64(binary.LittleEndian.Uint64(src[off : off+8])))
		off += 8
	}
	return off
}

func getVolumeLevels(src []byte, off int, levels *[schema.TopLevels]schema.Volume) int {
	for i := 0; i < schema.TopLevels; i++ {
		levels[i] = schema.Volume(int64(binary.LittleEndian.Uint64(src[off : off+8])))
		off += 8
	}
	return off
}
