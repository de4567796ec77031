package journal

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"main/internal/schema"
)

var (
	ErrQueueFull       = errors.New("journal queue full")
	ErrClosed          = errors.New("journal writer closed")
	ErrNotStarted      = errors.New("journal writer not started")
	ErrAlreadyStarted  = errors.New("journal writer already started")
	ErrPayloadTooLarge = errors.New("journal payload too large")
)

// Writer appends events to journal segments from a buffered queue. The
// hot path hands records to a single writer goroutine and never blocks.
type Writer struct {
	cfg Config
	ch  chan appendRequest
	wg  sync.WaitGroup
	err atomic.Value

	started atomic.Bool
	closed  atomic.Bool
}

type appendRequest struct {
	header  schema.EventHeader
	payload []byte
}

// NewWriter creates a journal writer and ensures the target directory
// exists.
func NewWriter(cfg Config) (*Writer, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, err
	}
	return &Writer{
		cfg: cfg,
		ch:  make(chan appendRequest, cfg.QueueSize),
	}, nil
}

// Start runs the writer loop in a new goroutine.
func (w *Writer) Start(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.run(ctx)
	}()
	return nil
}

// Close stops the writer, waits for the queue to drain and flushes
// buffered data to disk.
func (w *Writer) Close() error {
	if w.closed.CompareAndSwap(false, true) {
		close(w.ch)
	}
	w.wg.Wait()
	return w.Err()
}

// Err returns the first error observed by the writer, if any.
func (w *Writer) Err() error {
	if v := w.err.Load(); v != nil {
		return v.(error)
	}
	return nil
}

// TryAppend enqueues an event without blocking. The payload must stay
// untouched until the writer consumes it unless CopyPayload is set.
func (w *Writer) TryAppend(header schema.EventHeader, payload []byte) error {
	switch {
	case w.closed.Load():
		return ErrClosed
	case !w.started.Load():
		return ErrNotStarted
	}
	if err := w.Err(); err != nil {
		return err
	}
	if uint64(len(payload)) > maxPayloadLen {
		return ErrPayloadTooLarge
	}
	if header.Version == 0 {
		header.Version = schema.SchemaVersion
	}
	if w.cfg.CopyPayload && len(payload) > 0 {
		payload = append([]byte(nil), payload...)
	}

	select {
	case w.ch <- appendRequest{header: header, payload: payload}:
		return nil
	default:
		return ErrQueueFull
	}
}

func (w *Writer) run(ctx context.Context) {
	out := &segmentChain{cfg: w.cfg}
	defer func() {
		if err := out.close(); err != nil {
			w.setErr(err)
		}
	}()

	var flushC, syncC <-chan time.Time
	if w.cfg.FlushInterval > 0 {
		t := time.NewTicker(w.cfg.FlushInterval)
		defer t.Stop()
		flushC = t.C
	}
	if w.cfg.SyncInterval > 0 {
		t := time.NewTicker(w.cfg.SyncInterval)
		defer t.Stop()
		syncC = t.C
	}

	for {
		select {
		case <-ctx.Done():
			w.drainQueued(out)
			return
		case req, ok := <-w.ch:
			if !ok {
				return
			}
			if err := out.append(req); err != nil {
				w.setErr(err)
				return
			}
		case <-flushC:
			if err := out.flush(); err != nil {
				w.setErr(err)
				return
			}
		case <-syncC:
			if err := out.sync(); err != nil {
				w.setErr(err)
				return
			}
		}
	}
}

// drainQueued writes records already sitting in the channel without
// waiting for more.
func (w *Writer) drainQueued(out *segmentChain) {
	for {
		select {
		case req, ok := <-w.ch:
			if !ok {
				return
			}
			if err := out.append(req); err != nil {
				w.setErr(err)
				return
			}
		default:
			return
		}
	}
}

func (w *Writer) setErr(err error) {
	if err == nil || w.err.Load() != nil {
		return
	}
	w.err.Store(err)
}

// segmentChain owns the current segment file and rolls to a fresh one
// when size or age limits are hit.
type segmentChain struct {
	cfg    Config
	seq    uint64
	file   *os.File
	buf    *bufio.Writer
	size   int64
	opened time.Time

	head [recordHeaderSize]byte
	foot [recordChecksumSize]byte
}

func (s *segmentChain) append(req appendRequest) error {
	if uint64(len(req.payload)) > maxPayloadLen {
		return ErrPayloadTooLarge
	}

	now := time.Now().UTC()
	size := recordSize(len(req.payload))
	if s.needsRoll(now, size) {
		if err := s.roll(now); err != nil {
			return err
		}
	}

	encodeHeader(s.head[:], req.header, len(req.payload))
	binary.LittleEndian.PutUint32(s.foot[:], checksum(s.head[:], req.payload))

	if _, err := s.buf.Write(s.head[:]); err != nil {
		return err
	}
	if len(req.payload) > 0 {
		if _, err := s.buf.Write(req.payload); err != nil {
			return err
		}
	}
	if _, err := s.buf.Write(s.foot[:]); err != nil {
		return err
	}
	s.size += size
	return nil
}

func (s *segmentChain) needsRoll(now time.Time, next int64) bool {
	if s.file == nil {
		return true
	}
	if s.cfg.SegmentMaxBytes > 0 && s.size+next > s.cfg.SegmentMaxBytes {
		return true
	}
	return s.cfg.SegmentMaxDuration > 0 && now.Sub(s.opened) >= s.cfg.SegmentMaxDuration
}

func (s *segmentChain) roll(now time.Time) error {
	if err := s.close(); err != nil {
		return err
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}
	stamp := now.Format("20060102-150405")
	for {
		s.seq++
		name := fmt.Sprintf("%s-%s-%06d.jrnl", s.cfg.FilePrefix, stamp, s.seq)
		file, err := os.OpenFile(filepath.Join(s.cfg.Dir, name), os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return err
		}
		s.file = file
		s.buf = bufio.NewWriterSize(file, s.cfg.BufferSize)
		s.size = 0
		s.opened = now
		return nil
	}
}

func (s *segmentChain) flush() error {
	if s.file == nil {
		return nil
	}
	return s.buf.Flush()
}

func (s *segmentChain) sync() error {
	if s.file == nil {
		return nil
	}
	if err := s.buf.Flush(); err != nil {
		return err
	}
	return s.file.Sync()
}

func (s *segmentChain) close() error {
	if s.file == nil {
		return nil
	}
	file := s.file
	s.file = nil
	if err := s.buf.Flush(); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Sync(); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}
