package venue

import (
	"github.com/yanun0323/errors"

	"main/internal/codec"
	"main/internal/schema"
)

// Apply decodes an inbound client action and dispatches it to the
// matching handler. Non-action types are ignored so a mixed stream can
// be fed straight through.
func (e *Exchange) Apply(h schema.EventHeader, payload []byte) error {
	switch h.Type {
	case schema.EventLogin:
		login, ok := codec.DecodeLogin(payload)
		if !ok {
			return decodeError(h)
		}
		e.OnLogin(h, login)
	case schema.EventOrderInsert:
		insert, ok := codec.DecodeOrderInsert(payload)
		if !ok {
			return decodeError(h)
		}
		e.OnOrderInsert(h, insert)
	case schema.EventOrderCancel:
		cancel, ok := codec.DecodeOrderCancel(payload)
		if !ok {
			return decodeError(h)
		}
		e.OnOrderCancel(h, cancel)
	case schema.EventOrderHedge:
		hedge, ok := codec.DecodeOrderHedge(payload)
		if !ok {
			return decodeError(h)
		}
		e.OnOrderHedge(h, hedge)
	}
	return nil
}

func decodeError(h schema.EventHeader) error {
	return errors.Errorf("decode %s action: seq=%d", h.Type.Name(), h.Seq)
}
