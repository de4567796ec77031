package obs

import (
	"context"
	"log"
	"runtime"
	"strconv"
	"time"
)

// MemoryReporter periodically samples runtime memory statistics and
// writes one line per sample through the standard logger. Formatting
// appends into a fixed buffer.
type MemoryReporter struct {
	buf        [1024]byte
	prev, curr runtime.MemStats
	prevAt     time.Time
	currAt     time.Time
}

// Run samples and reports on the given interval until the context is
// canceled.
func (r *MemoryReporter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sample()
			r.Report()
		}
	}
}

// Sample rotates the previous reading and takes a new one.
func (r *MemoryReporter) Sample() {
	r.prev, r.curr = r.curr, r.prev
	r.prevAt = r.currAt
	r.currAt = time.Now()
	runtime.ReadMemStats(&r.curr)
	if r.prevAt.IsZero() {
		r.prevAt = r.currAt
	}
}

// Report writes one formatted line for the latest sample.
func (r *MemoryReporter) Report() {
	line := r.buf[:0]
	line = append(line, "[MEM] alloc="...)
	line = appendBytes(line, r.curr.HeapAlloc)
	line = append(line, " inuse="...)
	line = appendBytes(line, r.curr.HeapInuse)
	line = append(line, " objects="...)
	line = strconv.AppendUint(line, r.curr.HeapObjects, 10)

	dt := r.currAt.Sub(r.prevAt).Seconds()
	if dt <= 0 {
		dt = 1
	}
	line = append(line, " alloc_rate="...)
	line = appendBytes(line, uint64(float64(r.curr.TotalAlloc-r.prev.TotalAlloc)/dt))
	line = append(line, "/s gc="...)
	line = strconv.AppendUint(line, uint64(r.curr.NumGC-r.prev.NumGC), 10)
	line = append(line, " pause_ms="...)
	line = strconv.AppendFloat(line, float64(r.curr.PauseTotalNs-r.prev.PauseTotalNs)/1e6, 'f', 3, 64)
	line = append(line, " gc_cpu="...)
	line = strconv.AppendFloat(line, r.curr.GCCPUFraction, 'f', 6, 64)
	line = append(line, " live="...)
	line = strconv.AppendInt(line, int64(r.curr.Mallocs)-int64(r.curr.Frees), 10)
	line = append(line, '\n')
	_, _ = log.Writer().Write(line)
}

const byteCarry = 1 << 15

// appendBytes renders a byte count with a carried unit.
func appendBytes(dst []byte, v uint64) []byte {
	unit := "B"
	switch {
	case v >= byteCarry<<20:
		v >>= 30
		unit = "GB"
	case v >= byteCarry<<10:
		v >>= 20
		unit = "MB"
	case v >= byteCarry:
		v >>= 10
		unit = "KB"
	}
	dst = strconv.AppendUint(dst, v, 10)
	return append(dst, unit...)
}
