package session

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/bytedance/sonic"
	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"
	"github.com/yanun0323/pkg/sys"
	"github.com/yanun0323/pkg/ws"

	"main/internal/schema"
	"main/pkg/exception"
)

// WSClient speaks JSON envelopes over a websocket.
type WSClient struct {
	wss     *ws.WebSocket
	handler Handler
	trace   atomic.Uint64
}

// NewWSClient prepares a client for the venue stream URL.
func NewWSClient(ctx context.Context, url string, handler Handler) *WSClient {
	if handler == nil {
		handler = func(schema.EventHeader, []byte) {}
	}
	return &WSClient{
		wss:     ws.New(ctx, url),
		handler: handler,
	}
}

// Start connects and spawns the observe loop.
func (s *WSClient) Start(ctx context.Context) error {
	if err := s.wss.Start(ctx); err != nil {
		return errors.Wrap(err, "start websocket")
	}
	s.observe(ctx)
	return nil
}

func (s *WSClient) observe(ctx context.Context) {
	ch, cancel := s.wss.Subscribe()

	go func() {
		defer cancel()
		for {
			select {
			case <-sys.Shutdown():
				return
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok {
					return
				}

				env, ok := ws.ReadMessage[Envelope](m)
				if !ok {
					continue
				}
				h, payload, err := OpenEnvelope(env, schema.SourceVenue)
				if err != nil {
					logs.Warnf("ws session: drop %q envelope: %v", env.Type, err)
					continue
				}
				s.handler(h, payload)
			}
		}
	}()
}

// Login sends the handshake and waits for the venue's echo, matched by
// trace id. The sidecar re-registers so a reconnect logs in again.
func (s *WSClient) Login(ctx context.Context, login schema.Login) error {
	trace := s.trace.Add(1)
	env := Envelope{Type: WireLogin, TsEvent: time.Now().UTC().UnixNano(), TraceID: trace}
	raw, err := sonic.ConfigFastest.Marshal(wireLoginData{
		Name:   login.NameString(),
		Secret: login.SecretString(),
	})
	if err != nil {
		return errors.Wrap(err, "marshal login")
	}
	env.Data = raw

	appendIntoRegister := true
	if err := s.wss.SendAndWait(ctx, ws.Sidecar{
		Sender: func(ctx context.Context, client *ws.WebSocket) error {
			if err := client.WriteJSON(env); err != nil {
				return errors.Wrap(err, "write login").With("name", login.NameString())
			}
			return nil
		},
		Waiter: func(ctx context.Context, m ws.Message) (bool, error) {
			resp, ok := ws.ReadMessage[Envelope](m)
			if !ok || resp.TraceID != trace {
				return false, nil
			}

			switch resp.Type {
			case WireLogin:
				return true, nil
			case WireVenueError:
				var data wireVenueErrorData
				if err := sonic.ConfigFastest.Unmarshal(resp.Data, &data); err != nil {
					return false, errors.Wrap(err, "unmarshal login rejection")
				}
				return false, errors.Wrapf(exception.ErrLoginRejected, "%s", data.Message)
			}
			return false, nil
		},
	}, appendIntoRegister); err != nil {
		return errors.Wrap(err, "login and wait")
	}

	return nil
}

// Send converts one action to its envelope form and writes it.
func (s *WSClient) Send(h schema.EventHeader, payload []byte) error {
	env, err := BuildEnvelope(h, payload)
	if err != nil {
		return err
	}
	if err := s.wss.WriteJSON(env); err != nil {
		return errors.Wrapf(err, "write %s envelope", env.Type)
	}
	return nil
}

// Close tears the connection down.
func (s *WSClient) Close() error {
	s.wss.Close()
	return nil
}
