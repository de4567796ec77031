package engine

import (
	"github.com/yanun0323/errors"

	"main/internal/codec"
	"main/internal/schema"
)

// Apply decodes an inbound venue event and dispatches it to the matching
// handler. Action types pass through untouched, so a whole journal
// stream can be replayed without filtering.
func (e *Engine) Apply(h schema.EventHeader, payload []byte) error {
	switch h.Type {
	case schema.EventOrderBook:
		update, ok := codec.DecodeOrderBook(payload)
		if !ok {
			return e.decodeError(h)
		}
		e.OnOrderBook(h, update)
	case schema.EventTradeTicks:
		ticks, ok := codec.DecodeTradeTicks(payload)
		if !ok {
			return e.decodeError(h)
		}
		e.OnTradeTicks(h, ticks)
	case schema.EventOrderStatus:
		status, ok := codec.DecodeOrderStatus(payload)
		if !ok {
			return e.decodeError(h)
		}
		e.OnOrderStatus(h, status)
	case schema.EventOrderFilled:
		fill, ok := codec.DecodeOrderFilled(payload)
		if !ok {
			return e.decodeError(h)
		}
		e.OnOrderFilled(h, fill)
	case schema.EventHedgeFilled:
		fill, ok := codec.DecodeHedgeFilled(payload)
		if !ok {
			return e.decodeError(h)
		}
		e.OnHedgeFilled(h, fill)
	case schema.EventVenueError:
		venueErr, ok := codec.DecodeVenueError(payload)
		if !ok {
			return e.decodeError(h)
		}
		e.OnVenueError(h, venueErr)
	}
	return nil
}

func (e *Engine) decodeError(h schema.EventHeader) error {
	e.metrics.IncDecodeError()
	return errors.Errorf("decode %s event: seq=%d", h.Type.Name(), h.Seq)
}
