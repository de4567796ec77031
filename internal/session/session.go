package session

import (
	"context"

	"main/internal/schema"
)

// Handler receives one decoded venue event. The payload may alias a
// read buffer and is only valid during the call.
type Handler func(h schema.EventHeader, payload []byte)

// Client is a live venue connection: a handshake, venue events flowing
// into the handler, and a way to send actions back.
type Client interface {
	Start(ctx context.Context) error
	Login(ctx context.Context, login schema.Login) error
	Send(h schema.EventHeader, payload []byte) error
	Close() error
}
