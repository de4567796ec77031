// Package chaos perturbs recorded market data to stress replay and
// recovery: drops, duplicates, delays and bounded reordering of book
// and trade events. Order-lifecycle events pass through untouched and
// keep their mutual order, so a perturbed journal still describes a
// venue that never lies about orders.
package chaos

import (
	"fmt"
	"math/rand"
	"time"

	"main/internal/schema"
)

// Event is one journal record: a header plus its encoded payload.
type Event struct {
	Header  schema.EventHeader
	Payload []byte
}

// Config controls the perturbation rules.
type Config struct {
	Seed          int64
	DropRate      float64
	DuplicateRate float64
	ReorderWindow int
	MaxDelay      time.Duration
}

// Validate checks if the configuration is usable.
func (c Config) Validate() error {
	if c.DropRate < 0 || c.DropRate > 1 {
		return fmt.Errorf("invalid chaos config: DropRate must be between 0 and 1")
	}
	if c.DuplicateRate < 0 || c.DuplicateRate > 1 {
		return fmt.Errorf("invalid chaos config: DuplicateRate must be between 0 and 1")
	}
	if c.ReorderWindow <= 0 {
		return fmt.Errorf("invalid chaos config: ReorderWindow must be >= 1")
	}
	if c.MaxDelay < 0 {
		return fmt.Errorf("invalid chaos config: MaxDelay must be >= 0")
	}
	return nil
}

// Stats counts what the engine did to the stream.
type Stats struct {
	In          uint64
	Out         uint64
	Dropped     uint64
	Duplicated  uint64
	Delayed     uint64
	Passthrough uint64
}

// Engine applies the perturbation rules to an event stream.
type Engine struct {
	cfg     Config
	rng     *rand.Rand
	pending []Event
	stats   Stats
}

// NewEngine validates the config and seeds the generator. Seed 0 picks
// a wall-clock seed, so reproducible runs must set one explicitly.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.ReorderWindow <= 0 {
		cfg.ReorderWindow = 1
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UTC().UnixNano()
	}
	return &Engine{
		cfg: cfg,
		rng: rand.New(rand.NewSource(cfg.Seed)),
	}, nil
}

// perturbable reports whether the rules may touch this event. Only
// market data qualifies; statuses, fills, errors and recorded actions
// are the ground truth the replay is judged against.
func perturbable(h schema.EventHeader) bool {
	return h.Type == schema.EventOrderBook || h.Type == schema.EventTradeTicks
}

// Process feeds one event through the rules and returns what comes out
// now. Market data may be held back by the reorder window; everything
// else is returned immediately and unchanged.
func (e *Engine) Process(ev Event) []Event {
	if e == nil {
		return []Event{ev}
	}
	e.stats.In++

	if !perturbable(ev.Header) {
		e.stats.Passthrough++
		e.stats.Out++
		return []Event{ev}
	}
	if e.cfg.DropRate > 0 && e.rng.Float64() < e.cfg.DropRate {
		e.stats.Dropped++
		return nil
	}
	ev = e.delay(ev)
	if e.cfg.ReorderWindow <= 1 {
		return e.duplicate(ev)
	}
	e.pending = append(e.pending, ev)
	if len(e.pending) < e.cfg.ReorderWindow {
		return nil
	}
	return e.duplicate(e.takePending())
}

// Flush drains the reorder window in random order. Call it once the
// input stream ends.
func (e *Engine) Flush() []Event {
	if e == nil || len(e.pending) == 0 {
		return nil
	}
	out := make([]Event, 0, len(e.pending))
	for len(e.pending) > 0 {
		out = append(out, e.duplicate(e.takePending())...)
	}
	return out
}

// Stats returns the counters so far.
func (e *Engine) Stats() Stats {
	if e == nil {
		return Stats{}
	}
	return e.stats
}

func (e *Engine) takePending() Event {
	idx := e.rng.Intn(len(e.pending))
	ev := e.pending[idx]
	e.pending = append(e.pending[:idx], e.pending[idx+1:]...)
	return ev
}

func (e *Engine) duplicate(ev Event) []Event {
	out := []Event{ev}
	e.stats.Out++
	if e.cfg.DuplicateRate > 0 && e.rng.Float64() < e.cfg.DuplicateRate {
		out = append(out, ev)
		e.stats.Duplicated++
		e.stats.Out++
	}
	return out
}

// delay pushes the receive timestamp forward by a bounded random
// amount, simulating a slow feed without rewriting event time.
func (e *Engine) delay(ev Event) Event {
	if e.cfg.MaxDelay <= 0 {
		return ev
	}
	d := e.rng.Int63n(e.cfg.MaxDelay.Nanoseconds() + 1)
	if d == 0 {
		return ev
	}
	e.stats.Delayed++
	if ev.Header.TsRecv > 0 {
		ev.Header.TsRecv += d
	} else if ev.Header.TsEvent > 0 {
		ev.Header.TsRecv = ev.Header.TsEvent + d
	}
	return ev
}
