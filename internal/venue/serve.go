package venue

import (
	"bufio"
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/yanun0323/logs"

	"main/internal/schema"
	"main/internal/session"
	"main/pkg/exception"
	"main/pkg/uds"
)

const (
	connReadBufferSize = 64 << 10
	writeTimeout       = 5 * time.Second
)

// ServerConfig builds the exchange a Server fronts.
type ServerConfig struct {
	Generator *Generator
	Account   *Account
	Registry  *schema.Registry
	Now       func() int64

	// StepInterval paces Run's market data. Zero picks a default.
	StepInterval time.Duration
}

// Server serializes transport sessions onto one Exchange and fans its
// events back out: binary frames over Unix domain sockets, JSON
// envelopes over websocket. One client may hold the login at a time;
// its orders survive a disconnect.
type Server struct {
	mu         sync.Mutex
	ex         *Exchange
	subs       map[uint64]func(schema.EventHeader, []byte) error
	nextSub    uint64
	loginOwner uint64

	step     time.Duration
	upgrader websocket.Upgrader
}

// NewServer wires an exchange whose events broadcast to every
// connected session.
func NewServer(cfg ServerConfig) *Server {
	s := &Server{
		subs: make(map[uint64]func(schema.EventHeader, []byte) error),
		step: cfg.StepInterval,
	}
	if s.step <= 0 {
		s.step = 100 * time.Millisecond
	}
	s.ex = NewExchange(Config{
		Generator: cfg.Generator,
		Account:   cfg.Account,
		Registry:  cfg.Registry,
		Emit:      s.broadcast,
		Now:       cfg.Now,
	})
	return s
}

// Exchange exposes the underlying exchange for in-process callers.
func (s *Server) Exchange() *Exchange {
	return s.ex
}

// Run paces generated market data until ctx ends.
func (s *Server) Run(ctx context.Context) {
	ticker := time.NewTicker(s.step)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.Lock()
			s.ex.Step()
			s.mu.Unlock()
		}
	}
}

// ServeUDS accepts socket sessions until ctx ends. The caller owns the
// listener lifecycle.
func (s *Server) ServeUDS(ctx context.Context, srv *uds.Server) error {
	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()

	var wg sync.WaitGroup
	for {
		conn, err := srv.Accept()
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			logs.Warnf("venue uds accept: %v", err)
			continue
		}
		wg.Add(1)
		go func(c *net.UnixConn) {
			defer wg.Done()
			s.handleUDS(ctx, c)
		}(conn)
	}
	wg.Wait()
	return nil
}

func (s *Server) handleUDS(ctx context.Context, conn *net.UnixConn) {
	defer conn.Close()

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()
	defer close(done)

	var (
		writeMu  sync.Mutex
		writeBuf []byte
	)
	id := s.subscribe(func(h schema.EventHeader, payload []byte) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		var err error
		writeBuf, err = session.WriteFrame(conn, writeBuf, h, payload)
		return err
	})
	defer s.unsubscribe(id)

	r := bufio.NewReaderSize(conn, connReadBufferSize)
	var buf []byte
	for {
		h, payload, nextBuf, err := session.ReadFrame(r, buf)
		buf = nextBuf
		if err != nil {
			return
		}
		s.apply(id, h, payload)
	}
}

// WSHandler upgrades HTTP requests into websocket sessions.
func (s *Server) WSHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			logs.Warnf("venue ws upgrade: %v", err)
			return
		}
		s.handleWS(c)
	})
}

func (s *Server) handleWS(c *websocket.Conn) {
	defer c.Close()

	var writeMu sync.Mutex
	id := s.subscribe(func(h schema.EventHeader, payload []byte) error {
		raw, err := session.EncodeEnvelope(h, payload)
		if err != nil {
			if err == exception.ErrNotOnWire {
				return nil
			}
			return err
		}
		writeMu.Lock()
		defer writeMu.Unlock()
		_ = c.SetWriteDeadline(time.Now().Add(writeTimeout))
		return c.WriteMessage(websocket.TextMessage, raw)
	})
	defer s.unsubscribe(id)

	for {
		_, raw, err := c.ReadMessage()
		if err != nil {
			return
		}
		name, ok := session.SniffType(raw)
		if !ok {
			continue
		}
		h, payload, err := session.DecodeEnvelope(raw, schema.SourceEngine)
		if err != nil {
			logs.Warnf("venue ws: drop %q envelope: trace=%d err=%v", name, session.SniffTraceID(raw), err)
			continue
		}
		s.apply(id, h, payload)
	}
}

func (s *Server) subscribe(send func(schema.EventHeader, []byte) error) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSub++
	s.subs[s.nextSub] = send
	return s.nextSub
}

func (s *Server) unsubscribe(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drop(id)
}

// drop removes a session and releases the login if it held it. Callers
// hold s.mu.
func (s *Server) drop(id uint64) {
	if _, ok := s.subs[id]; !ok {
		return
	}
	delete(s.subs, id)
	if s.loginOwner == id {
		s.ex.Logout()
		s.loginOwner = 0
	}
}

// apply feeds one client action into the exchange and records which
// session won the login.
func (s *Server) apply(id uint64, h schema.EventHeader, payload []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wasLoggedIn := s.ex.loggedIn
	if err := s.ex.Apply(h, payload); err != nil {
		logs.Warnf("venue apply: %v", err)
		return
	}
	if !wasLoggedIn && s.ex.loggedIn {
		s.loginOwner = id
	}
}

// broadcast fans one venue event out to every session. The exchange
// calls it with s.mu held.
func (s *Server) broadcast(h schema.EventHeader, payload []byte) {
	var dead []uint64
	for id, send := range s.subs {
		if err := send(h, payload); err != nil {
			logs.Warnf("venue session %d dropped: %v", id, err)
			dead = append(dead, id)
		}
	}
	for _, id := range dead {
		s.drop(id)
	}
}
