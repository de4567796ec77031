package obs

import (
	"sync/atomic"
	"time"

	"main/internal/schema"
)

const (
	maxEventType  = int(schema.EventRiskDecision)
	maxRiskReason = int(schema.RiskReasonPositionLimit)
)

// Metrics collects lightweight counters and latency stats for a quoting
// session. Everything is atomic; the dispatcher writes, anyone reads.
type Metrics struct {
	events  typeCounters
	actions typeCounters
	reasons [maxRiskReason + 1]atomic.Uint64

	queueDrops   atomic.Uint64
	journalDrops atomic.Uint64
	decodeErrors atomic.Uint64

	decide LatencyStats
}

// typeCounters holds one counter per event type. Types outside the
// known range are ignored rather than counted.
type typeCounters [maxEventType + 1]atomic.Uint64

func (c *typeCounters) inc(t schema.EventType) {
	if idx := int(t); idx >= 0 && idx < len(c) {
		c[idx].Add(1)
	}
}

func (c *typeCounters) collect() map[schema.EventType]uint64 {
	out := make(map[schema.EventType]uint64)
	for i := range c {
		if v := c[i].Load(); v > 0 {
			out[schema.EventType(i)] = v
		}
	}
	return out
}

// LatencySnapshot is a point-in-time view of latency stats.
type LatencySnapshot struct {
	Count uint64
	Min   time.Duration
	Max   time.Duration
	Avg   time.Duration
}

// Snapshot captures the current metrics values.
type Snapshot struct {
	EventCounts      map[schema.EventType]uint64
	ActionCounts     map[schema.EventType]uint64
	RiskReasonCounts map[schema.RiskReason]uint64
	QueueDrops       uint64
	JournalDrops     uint64
	DecodeErrors     uint64
	DecideLatency    LatencySnapshot
}

// NewMetrics allocates a metrics container.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// ObserveEvent counts an inbound venue event.
func (m *Metrics) ObserveEvent(header schema.EventHeader) {
	if m == nil {
		return
	}
	m.events.inc(header.Type)
}

// ObserveAction counts an emitted action.
func (m *Metrics) ObserveAction(t schema.EventType) {
	if m == nil {
		return
	}
	m.actions.inc(t)
}

// IncRiskReason increments the risk denial reason counter.
func (m *Metrics) IncRiskReason(reason schema.RiskReason) {
	if m == nil {
		return
	}
	if idx := int(reason); idx >= 0 && idx <= maxRiskReason {
		m.reasons[idx].Add(1)
	}
}

// IncQueueDrop records an event dropped by a full queue.
func (m *Metrics) IncQueueDrop() {
	if m == nil {
		return
	}
	m.queueDrops.Add(1)
}

// IncJournalDrop records an event the journal writer could not accept.
func (m *Metrics) IncJournalDrop() {
	if m == nil {
		return
	}
	m.journalDrops.Add(1)
}

// IncDecodeError records a payload that failed to decode.
func (m *Metrics) IncDecodeError() {
	if m == nil {
		return
	}
	m.decodeErrors.Add(1)
}

// ObserveDecide measures one decision-cycle duration.
func (m *Metrics) ObserveDecide(d time.Duration) {
	if m == nil {
		return
	}
	m.decide.Observe(d)
}

// Snapshot returns a copy of the current metrics values.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	reasons := make(map[schema.RiskReason]uint64)
	for i := range m.reasons {
		if v := m.reasons[i].Load(); v > 0 {
			reasons[schema.RiskReason(i)] = v
		}
	}
	return Snapshot{
		EventCounts:      m.events.collect(),
		ActionCounts:     m.actions.collect(),
		RiskReasonCounts: reasons,
		QueueDrops:       m.queueDrops.Load(),
		JournalDrops:     m.journalDrops.Load(),
		DecodeErrors:     m.decodeErrors.Load(),
		DecideLatency:    m.decide.Snapshot(),
	}
}

// LatencyStats aggregates duration samples in nanoseconds. A zero min
// slot counts as unset.
type LatencyStats struct {
	count atomic.Uint64
	sum   atomic.Uint64
	min   atomic.Uint64
	max   atomic.Uint64
}

// Observe records a duration sample. Negative durations are discarded.
func (l *LatencyStats) Observe(d time.Duration) {
	if d < 0 {
		return
	}
	nanos := uint64(d)
	l.count.Add(1)
	l.sum.Add(nanos)
	lowerTo(&l.min, nanos)
	raiseTo(&l.max, nanos)
}

func lowerTo(slot *atomic.Uint64, v uint64) {
	for {
		cur := slot.Load()
		if cur != 0 && v >= cur {
			return
		}
		if slot.CompareAndSwap(cur, v) {
			return
		}
	}
}

func raiseTo(slot *atomic.Uint64, v uint64) {
	for {
		cur := slot.Load()
		if v <= cur {
			return
		}
		if slot.CompareAndSwap(cur, v) {
			return
		}
	}
}

// Snapshot returns the aggregated latency stats.
func (l *LatencyStats) Snapshot() LatencySnapshot {
	count := l.count.Load()
	if count == 0 {
		return LatencySnapshot{}
	}
	return LatencySnapshot{
		Count: count,
		Min:   time.Duration(l.min.Load()),
		Max:   time.Duration(l.max.Load()),
		Avg:   time.Duration(l.sum.Load() / count),
	}
}
