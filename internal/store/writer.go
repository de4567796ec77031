// Package store mirrors a run's order flow into a relational database
// for offline analysis. Events are decoded on the caller's goroutine,
// queued, and written by a single background goroutine; when the queue
// is full records are dropped rather than stalling the event path.
package store

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"
	"gorm.io/gorm"

	"main/internal/codec"
	"main/internal/schema"
	"main/pkg/conn"
)

const queueSize = 1024

// RunInfo identifies the run being recorded. An empty ID gets a fresh
// uuid on Open.
type RunInfo struct {
	ID        string
	LoginName string
	Transport string
}

// Writer persists order lifecycle events and position marks for one
// run. Observe and Mark never block.
type Writer struct {
	client *conn.Client
	db     *gorm.DB
	runID  string

	ch   chan record
	done chan struct{}

	closed  uint32
	dropped uint64
}

type recordKind uint8

const (
	recordOrder recordKind = iota + 1
	recordStatus
	recordFill
	recordHedge
	recordHedgeFill
	recordMark
)

type record struct {
	kind      recordKind
	order     OrderRow
	status    statusUpdate
	fill      FillRow
	hedge     HedgeRow
	hedgeFill hedgeFill
	mark      PositionMark
}

type statusUpdate struct {
	OrderID   uint64
	Remaining int64
	FeeDelta  int64
	Closed    bool
}

type hedgeFill struct {
	OrderID      uint64
	AveragePrice int64
}

// Open connects to the database behind dsn, migrates the tables, and
// registers the run.
func Open(dsn string, info RunInfo) (*Writer, error) {
	client, err := conn.New(conn.Option{ConnString: dsn})
	if err != nil {
		return nil, errors.Wrapf(err, "open store %s", dsn)
	}

	db := client.DB()
	if err := db.AutoMigrate(&Run{}, &OrderRow{}, &FillRow{}, &HedgeRow{}, &PositionMark{}); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "migrate store")
	}

	if info.ID == "" {
		info.ID = uuid.NewString()
	}
	run := Run{
		ID:        info.ID,
		LoginName: info.LoginName,
		Transport: info.Transport,
		StartedAt: time.Now().UTC(),
	}
	if err := db.Create(&run).Error; err != nil {
		_ = client.Close()
		return nil, errors.Wrapf(err, "register run %s", info.ID)
	}

	w := &Writer{
		client: client,
		db:     db,
		runID:  info.ID,
		ch:     make(chan record, queueSize),
		done:   make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

// RunID returns the id rows of this run are keyed by.
func (w *Writer) RunID() string {
	return w.runID
}

// Dropped reports how many records were discarded because the queue was
// full.
func (w *Writer) Dropped() uint64 {
	return atomic.LoadUint64(&w.dropped)
}

// Observe records an order lifecycle event. Market data and events the
// store has no table for are ignored.
func (w *Writer) Observe(h schema.EventHeader, payload []byte) {
	if atomic.LoadUint32(&w.closed) != 0 {
		return
	}
	rec, ok := w.decode(h, payload)
	if !ok {
		return
	}
	w.enqueue(rec)
}

// Mark samples the engine's exposure and fair-value estimate after the
// event at seq.
func (w *Writer) Mark(seq uint64, position, futurePosition schema.Volume, fees schema.Fees, mu float64) {
	if atomic.LoadUint32(&w.closed) != 0 {
		return
	}
	w.enqueue(record{kind: recordMark, mark: PositionMark{
		RunID:          w.runID,
		Seq:            seq,
		Position:       int64(position),
		FuturePosition: int64(futurePosition),
		TotalFees:      int64(fees),
		Mu:             mu,
		At:             time.Now().UTC(),
	}})
}

// Close drains queued records, stamps the run as stopped, and closes
// the pool.
func (w *Writer) Close() error {
	if !atomic.CompareAndSwapUint32(&w.closed, 0, 1) {
		return nil
	}
	close(w.ch)
	<-w.done

	now := time.Now().UTC()
	if err := w.db.Model(&Run{}).Where("id = ?", w.runID).Update("stopped_at", now).Error; err != nil {
		_ = w.client.Close()
		return errors.Wrap(err, "stamp run stopped")
	}
	return w.client.Close()
}

func (w *Writer) enqueue(rec record) {
	select {
	case w.ch <- rec:
	default:
		atomic.AddUint64(&w.dropped, 1)
	}
}

func (w *Writer) decode(h schema.EventHeader, payload []byte) (record, bool) {
	now := time.Now().UTC()

	switch h.Type {
	case schema.EventOrderInsert:
		ins, ok := codec.DecodeOrderInsert(payload)
		if !ok {
			break
		}
		return record{kind: recordOrder, order: OrderRow{
			RunID:     w.runID,
			OrderID:   ins.OrderID,
			Side:      uint8(ins.Side),
			Lifespan:  uint8(ins.Lifespan),
			Price:     int64(ins.Price),
			Volume:    int64(ins.Volume),
			Remaining: int64(ins.Volume),
			UpdatedAt: now,
		}}, true

	case schema.EventOrderStatus:
		st, ok := codec.DecodeOrderStatus(payload)
		if !ok {
			break
		}
		return record{kind: recordStatus, status: statusUpdate{
			OrderID:   st.OrderID,
			Remaining: int64(st.RemainingVolume),
			FeeDelta:  int64(st.Fees),
			Closed:    st.RemainingVolume == 0,
		}}, true

	case schema.EventOrderFilled:
		fl, ok := codec.DecodeOrderFilled(payload)
		if !ok {
			break
		}
		return record{kind: recordFill, fill: FillRow{
			RunID:   w.runID,
			OrderID: fl.OrderID,
			Price:   int64(fl.Price),
			Volume:  int64(fl.Volume),
			Seq:     h.Seq,
			At:      now,
		}}, true

	case schema.EventOrderHedge:
		hed, ok := codec.DecodeOrderHedge(payload)
		if !ok {
			break
		}
		return record{kind: recordHedge, hedge: HedgeRow{
			RunID:      w.runID,
			OrderID:    hed.OrderID,
			Side:       uint8(hed.Side),
			LimitPrice: int64(hed.Price),
			Volume:     int64(hed.Volume),
			Seq:        h.Seq,
			At:         now,
		}}, true

	case schema.EventHedgeFilled:
		hf, ok := codec.DecodeHedgeFilled(payload)
		if !ok {
			break
		}
		return record{kind: recordHedgeFill, hedgeFill: hedgeFill{
			OrderID:      hf.OrderID,
			AveragePrice: int64(hf.AveragePrice),
		}}, true

	default:
		return record{}, false
	}

	logs.Warnf("store: short %s payload, %d bytes", h.Type.Name(), len(payload))
	return record{}, false
}

func (w *Writer) loop() {
	defer close(w.done)
	for rec := range w.ch {
		if err := w.write(rec); err != nil {
			logs.Warnf("store write: %v", err)
		}
	}
}

func (w *Writer) write(rec record) error {
	switch rec.kind {
	case recordOrder:
		return w.db.Create(&rec.order).Error

	case recordStatus:
		return w.db.Model(&OrderRow{}).
			Where("run_id = ? AND order_id = ?", w.runID, rec.status.OrderID).
			Updates(map[string]any{
				"remaining":  rec.status.Remaining,
				"fees":       gorm.Expr("fees + ?", rec.status.FeeDelta),
				"closed":     rec.status.Closed,
				"updated_at": time.Now().UTC(),
			}).Error

	case recordFill:
		return w.db.Create(&rec.fill).Error

	case recordHedge:
		return w.db.Create(&rec.hedge).Error

	case recordHedgeFill:
		return w.db.Model(&HedgeRow{}).
			Where("run_id = ? AND order_id = ?", w.runID, rec.hedgeFill.OrderID).
			Updates(map[string]any{
				"average_price": rec.hedgeFill.AveragePrice,
				"filled":        true,
			}).Error

	case recordMark:
		return w.db.Create(&rec.mark).Error
	}
	return nil
}
