// Package state persists and recovers the engine's durable state: a
// JSON snapshot of positions, open orders and estimator history, plus a
// journal tail replay for the venue events the snapshot missed.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"main/internal/engine"
	"main/internal/ledger"
	"main/internal/schema"
	"main/internal/theo"
)

// OrderEntry is one open order in a snapshot.
type OrderEntry struct {
	ID        uint64        `json:"id"`
	Side      schema.Side   `json:"side"`
	Price     schema.Price  `json:"price"`
	Volume    schema.Volume `json:"volume"`
	Remaining schema.Volume `json:"remaining"`
	State     uint16        `json:"state"`
}

// HedgeEntry is one hedge order still awaiting its fill report.
type HedgeEntry struct {
	ID   uint64      `json:"id"`
	Side schema.Side `json:"side"`
}

// Snapshot captures the engine's durable state at a point in time. Book
// state is not carried; the next snapshots off the feed rebuild it.
type Snapshot struct {
	RunID          string        `json:"runId"`
	Timestamp      int64         `json:"timestamp"`
	LastSeq        uint64        `json:"lastSeq"`
	LastEventTs    int64         `json:"lastEventTs"`
	Position       schema.Volume `json:"position"`
	FuturePosition schema.Volume `json:"futurePosition"`
	TotalFees      schema.Fees   `json:"totalFees"`
	LastOrderID    uint64        `json:"lastOrderId"`
	BidID          uint64        `json:"bidId"`
	AskID          uint64        `json:"askId"`
	Orders         []OrderEntry  `json:"orders"`
	PendingHedges  []HedgeEntry  `json:"pendingHedges"`
	Theo           theo.State    `json:"theo"`
}

// Capture builds a snapshot from a live engine. An empty runID gets a
// fresh one.
func Capture(e *engine.Engine, runID string, lastSeq uint64, lastEventTs int64) Snapshot {
	if runID == "" {
		runID = uuid.NewString()
	}
	ls := e.Orders().State()
	snap := Snapshot{
		RunID:          runID,
		Timestamp:      time.Now().UTC().UnixNano(),
		LastSeq:        lastSeq,
		LastEventTs:    lastEventTs,
		Position:       ls.Position,
		FuturePosition: ls.FuturePosition,
		TotalFees:      ls.TotalFees,
		LastOrderID:    ls.NextOrderID,
		BidID:          ls.BidID,
		AskID:          ls.AskID,
		Theo:           e.Estimator().State(),
	}
	for _, o := range ls.Orders {
		snap.Orders = append(snap.Orders, OrderEntry{
			ID:        o.ID,
			Side:      o.Side,
			Price:     o.Price,
			Volume:    o.Volume,
			Remaining: o.Remaining,
			State:     uint16(o.State),
		})
	}
	for _, h := range ls.PendingHedges {
		snap.PendingHedges = append(snap.PendingHedges, HedgeEntry{ID: h.OrderID, Side: h.Side})
	}
	return snap
}

// LedgerState converts the snapshot back into the ledger's restore form.
func (s Snapshot) LedgerState() ledger.State {
	ls := ledger.State{
		Position:       s.Position,
		FuturePosition: s.FuturePosition,
		TotalFees:      s.TotalFees,
		NextOrderID:    s.LastOrderID,
		BidID:          s.BidID,
		AskID:          s.AskID,
	}
	for _, o := range s.Orders {
		ls.Orders = append(ls.Orders, ledger.Order{
			ID:        o.ID,
			Side:      o.Side,
			Price:     o.Price,
			Volume:    o.Volume,
			Remaining: o.Remaining,
			State:     ledger.OrderState(o.State),
		})
	}
	for _, h := range s.PendingHedges {
		ls.PendingHedges = append(ls.PendingHedges, ledger.PendingHedge{OrderID: h.ID, Side: h.Side})
	}
	return ls
}

// WriteSnapshot writes a snapshot to disk as JSON.
func WriteSnapshot(path string, snapshot Snapshot) error {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadSnapshot loads a snapshot from disk.
func ReadSnapshot(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// CompareSnapshots checks that a recovered state matches an expected
// snapshot. RunID and timestamps are metadata and not compared.
func CompareSnapshots(expected, actual Snapshot) error {
	if expected.Position != actual.Position {
		return fmt.Errorf("snapshot position mismatch: expected=%d actual=%d", expected.Position, actual.Position)
	}
	if expected.FuturePosition != actual.FuturePosition {
		return fmt.Errorf("snapshot future position mismatch: expected=%d actual=%d", expected.FuturePosition, actual.FuturePosition)
	}
	if expected.TotalFees != actual.TotalFees {
		return fmt.Errorf("snapshot fees mismatch: expected=%d actual=%d", expected.TotalFees, actual.TotalFees)
	}
	if expected.LastOrderID != actual.LastOrderID {
		return fmt.Errorf("snapshot order id mismatch: expected=%d actual=%d", expected.LastOrderID, actual.LastOrderID)
	}
	if expected.BidID != actual.BidID || expected.AskID != actual.AskID {
		return fmt.Errorf("snapshot slot mismatch: expected=%d/%d actual=%d/%d",
			expected.BidID, expected.AskID, actual.BidID, actual.AskID)
	}
	if len(expected.Orders) != len(actual.Orders) {
		return fmt.Errorf("snapshot order count mismatch: expected=%d actual=%d", len(expected.Orders), len(actual.Orders))
	}
	for i := range expected.Orders {
		if expected.Orders[i] != actual.Orders[i] {
			return fmt.Errorf("snapshot order mismatch at %d: expected=%+v actual=%+v",
				i, expected.Orders[i], actual.Orders[i])
		}
	}
	if len(expected.PendingHedges) != len(actual.PendingHedges) {
		return fmt.Errorf("snapshot hedge count mismatch: expected=%d actual=%d",
			len(expected.PendingHedges), len(actual.PendingHedges))
	}
	for i := range expected.PendingHedges {
		if expected.PendingHedges[i] != actual.PendingHedges[i] {
			return fmt.Errorf("snapshot hedge mismatch at %d: expected=%+v actual=%+v",
				i, expected.PendingHedges[i], actual.PendingHedges[i])
		}
	}
	if expected.Theo != actual.Theo {
		return fmt.Errorf("snapshot estimator mismatch: expected=%+v actual=%+v", expected.Theo, actual.Theo)
	}
	return nil
}
