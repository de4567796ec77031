package session

import (
	"bufio"
	"context"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"

	"main/internal/codec"
	"main/internal/schema"
	"main/pkg/exception"
	"main/pkg/uds"
)

const readBufferSize = 64 << 10

// UDSClient speaks binary frames over a Unix domain socket.
type UDSClient struct {
	client  *uds.Client
	handler Handler

	writeMu  sync.Mutex
	conn     *net.UnixConn
	writeBuf []byte

	loginMu   sync.Mutex
	loginWait chan error

	trace  atomic.Uint64
	closed atomic.Bool
	done   chan struct{}
}

// NewUDSClient prepares a client for the socket path. Events read from
// the venue are passed to handler in arrival order.
func NewUDSClient(path string, handler Handler) (*UDSClient, error) {
	client, err := uds.NewClient(path)
	if err != nil {
		return nil, err
	}
	if handler == nil {
		handler = func(schema.EventHeader, []byte) {}
	}
	return &UDSClient{
		client:  client,
		handler: handler,
		done:    make(chan struct{}),
	}, nil
}

// Start dials the socket and spawns the read loop. The connection is
// closed when ctx ends.
func (s *UDSClient) Start(ctx context.Context) error {
	conn, err := s.client.DialContext(ctx)
	if err != nil {
		return errors.Wrapf(err, "dial %s", s.client.Path())
	}
	s.writeMu.Lock()
	s.conn = conn
	s.writeMu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			_ = s.Close()
		case <-s.done:
		}
	}()
	go s.readLoop(ctx)
	return nil
}

// Login sends the handshake and waits for the venue's echo or a
// rejection.
func (s *UDSClient) Login(ctx context.Context, login schema.Login) error {
	wait := make(chan error, 1)
	s.loginMu.Lock()
	s.loginWait = wait
	s.loginMu.Unlock()
	defer func() {
		s.loginMu.Lock()
		s.loginWait = nil
		s.loginMu.Unlock()
	}()

	now := time.Now().UTC().UnixNano()
	h := schema.NewHeader(schema.EventLogin, schema.SourceEngine, 0, now, now)
	h.TraceID = s.trace.Add(1)
	if err := s.Send(h, codec.EncodeLogin(nil, login)); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-wait:
		return err
	}
}

// Send frames and writes one action.
func (s *UDSClient) Send(h schema.EventHeader, payload []byte) error {
	if s.closed.Load() {
		return exception.ErrSessionClosed
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if s.conn == nil {
		return exception.ErrSessionClosed
	}
	buf, err := WriteFrame(s.conn, s.writeBuf, h, payload)
	s.writeBuf = buf
	return err
}

// Close shuts the connection down. The read loop drains and exits.
func (s *UDSClient) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	s.writeMu.Lock()
	conn := s.conn
	s.writeMu.Unlock()
	if conn == nil {
		return nil
	}
	return conn.Close()
}

func (s *UDSClient) readLoop(ctx context.Context) {
	defer close(s.done)

	r := bufio.NewReaderSize(s.conn, readBufferSize)
	var buf []byte
	for {
		h, payload, nextBuf, err := ReadFrame(r, buf)
		buf = nextBuf
		if err != nil {
			if !s.closed.Load() && ctx.Err() == nil && err != io.EOF {
				logs.Errorf("uds session read: %v", err)
			}
			s.failLogin(exception.ErrSessionClosed)
			return
		}
		s.settleLogin(h, payload)
		s.handler(h, payload)
	}
}

// settleLogin completes a pending Login call when its echo or rejection
// arrives. The events still reach the handler afterwards.
func (s *UDSClient) settleLogin(h schema.EventHeader, payload []byte) {
	s.loginMu.Lock()
	wait := s.loginWait
	s.loginMu.Unlock()
	if wait == nil {
		return
	}

	switch h.Type {
	case schema.EventLogin:
		select {
		case wait <- nil:
		default:
		}
	case schema.EventVenueError:
		ve, ok := codec.DecodeVenueError(payload)
		if !ok || ve.OrderID != 0 {
			return
		}
		select {
		case wait <- errors.Wrapf(exception.ErrLoginRejected, "%s", ve.MessageString()):
		default:
		}
	}
}

func (s *UDSClient) failLogin(err error) {
	s.loginMu.Lock()
	wait := s.loginWait
	s.loginMu.Unlock()
	if wait == nil {
		return
	}
	select {
	case wait <- err:
	default:
	}
}
