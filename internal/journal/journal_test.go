package journal

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"main/internal/schema"
)

func testHeader(t schema.EventType, seq uint64, ts int64) schema.EventHeader {
	h := schema.NewHeader(t, schema.SourceVenue, seq, ts, ts)
	h.TraceID = seq
	return h
}

func writeRecords(t *testing.T, dir string, cfg Config, records []appendRequest) {
	t.Helper()
	cfg.Dir = dir
	w, err := NewWriter(cfg)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	for i, rec := range records {
		if err := w.TryAppend(rec.header, rec.payload); err != nil {
			t.Fatalf("TryAppend %d: %v", i, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func collect(t *testing.T, cfg PlaybackConfig) ([]schema.EventHeader, [][]byte) {
	t.Helper()
	pb, err := NewPlayback(cfg)
	if err != nil {
		t.Fatalf("NewPlayback: %v", err)
	}
	var headers []schema.EventHeader
	var payloads [][]byte
	err = pb.Run(context.Background(), func(h schema.EventHeader, p []byte) error {
		headers = append(headers, h)
		payloads = append(payloads, append([]byte(nil), p...))
		return nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return headers, payloads
}

func TestWriteAndPlayBack(t *testing.T) {
	dir := t.TempDir()
	records := []appendRequest{
		{header: testHeader(schema.EventOrderBook, 1, 100), payload: []byte("book update")},
		{header: testHeader(schema.EventOrderInsert, 2, 200), payload: []byte("insert")},
		{header: testHeader(schema.EventTradeTicks, 3, 300), payload: nil},
		{header: testHeader(schema.EventOrderStatus, 4, 400), payload: []byte("s")},
	}
	writeRecords(t, dir, Config{}, records)

	headers, payloads := collect(t, PlaybackConfig{Dir: dir})

	if len(headers) != len(records) {
		t.Fatalf("records = %d, want %d", len(headers), len(records))
	}
	for i, rec := range records {
		if headers[i] != rec.header {
			t.Fatalf("header %d = %+v, want %+v", i, headers[i], rec.header)
		}
		if string(payloads[i]) != string(rec.payload) {
			t.Fatalf("payload %d = %q, want %q", i, payloads[i], rec.payload)
		}
	}
}

func TestSegmentRotationBySize(t *testing.T) {
	dir := t.TempDir()
	var records []appendRequest
	for i := 0; i < 5; i++ {
		records = append(records, appendRequest{
			header:  testHeader(schema.EventOrderBook, uint64(i+1), int64(i+1)*100),
			payload: []byte("12345678"),
		})
	}
	writeRecords(t, dir, Config{SegmentMaxBytes: 64}, records)

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 5 {
		t.Fatalf("segments = %d, want 5 with 64-byte cap", len(entries))
	}

	headers, _ := collect(t, PlaybackConfig{Dir: dir})
	if len(headers) != 5 {
		t.Fatalf("records = %d, want 5 across segments", len(headers))
	}
	for i := 1; i < len(headers); i++ {
		if headers[i].Seq <= headers[i-1].Seq {
			t.Fatalf("record %d out of order: seq %d after %d", i, headers[i].Seq, headers[i-1].Seq)
		}
	}
}

func TestTornTailToleratedDuringRecovery(t *testing.T) {
	dir := t.TempDir()
	records := []appendRequest{
		{header: testHeader(schema.EventOrderBook, 1, 100), payload: []byte("intact")},
		{header: testHeader(schema.EventOrderBook, 2, 200), payload: []byte("also intact")},
	}
	writeRecords(t, dir, Config{}, records)

	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) != 1 {
		t.Fatalf("ReadDir: %v entries=%d", err, len(entries))
	}
	segment := filepath.Join(dir, entries[0].Name())
	f, err := os.OpenFile(segment, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	if _, err := f.Write([]byte{0xde, 0xad, 0xbe, 0xef, 1, 2, 3}); err != nil {
		t.Fatalf("Write garbage: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Strict playback surfaces the damage.
	pb, err := NewPlayback(PlaybackConfig{Dir: dir})
	if err != nil {
		t.Fatalf("NewPlayback: %v", err)
	}
	err = pb.Run(context.Background(), func(schema.EventHeader, []byte) error { return nil })
	if err == nil {
		t.Fatal("strict playback over torn tail: want error")
	}

	// Tolerant playback stops at the tear with everything before it.
	headers, _ := collect(t, PlaybackConfig{Dir: dir, TolerateTorn: true})
	if len(headers) != 2 {
		t.Fatalf("records = %d, want the 2 intact ones", len(headers))
	}
}

func TestChecksumMismatchDetected(t *testing.T) {
	dir := t.TempDir()
	writeRecords(t, dir, Config{}, []appendRequest{
		{header: testHeader(schema.EventOrderBook, 1, 100), payload: []byte("payload under guard")},
	})

	entries, _ := os.ReadDir(dir)
	segment := filepath.Join(dir, entries[0].Name())
	data, err := os.ReadFile(segment)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	data[recordHeaderSize+3] ^= 0xff
	if err := os.WriteFile(segment, data, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	f, err := os.Open(segment)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	_, _, err = NewReader(f, ReaderOptions{}).Next()
	if !errors.Is(err, ErrChecksumMismatch) {
		t.Fatalf("Next err = %v, want ErrChecksumMismatch", err)
	}
	if !IsTornTail(err) {
		t.Fatal("checksum mismatch should count as a torn tail")
	}

	// Disabling validation reads the record through.
	if _, err := f.Seek(0, 0); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	_, payload, err := NewReader(f, ReaderOptions{DisableChecksum: true}).Next()
	if err != nil {
		t.Fatalf("Next with checksum disabled: %v", err)
	}
	if len(payload) == 0 {
		t.Fatal("payload empty with checksum disabled")
	}
}

func TestWriterLifecycleErrors(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(Config{Dir: dir})
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}

	h := testHeader(schema.EventOrderBook, 1, 100)
	if err := w.TryAppend(h, nil); !errors.Is(err, ErrNotStarted) {
		t.Fatalf("TryAppend before Start: %v, want ErrNotStarted", err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := w.Start(context.Background()); !errors.Is(err, ErrAlreadyStarted) {
		t.Fatalf("second Start: %v, want ErrAlreadyStarted", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := w.TryAppend(h, nil); !errors.Is(err, ErrClosed) {
		t.Fatalf("TryAppend after Close: %v, want ErrClosed", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestPlaybackPacesBetweenRecords(t *testing.T) {
	dir := t.TempDir()
	writeRecords(t, dir, Config{}, []appendRequest{
		{header: testHeader(schema.EventOrderBook, 1, 1_000_000), payload: []byte("a")},
		{header: testHeader(schema.EventOrderBook, 2, 3_000_000), payload: []byte("b")},
	})

	pb, err := NewPlayback(PlaybackConfig{Dir: dir, Speed: 2})
	if err != nil {
		t.Fatalf("NewPlayback: %v", err)
	}
	clock := &fakeClock{}
	pb.WithClock(clock)

	if err := pb.Run(context.Background(), func(schema.EventHeader, []byte) error { return nil }); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(clock.sleeps) != 1 {
		t.Fatalf("sleeps = %d, want 1", len(clock.sleeps))
	}
	if clock.sleeps[0] != time.Millisecond {
		t.Fatalf("sleep = %v, want 1ms (2ms gap at speed 2)", clock.sleeps[0])
	}
}

type fakeClock struct {
	sleeps []time.Duration
}

func (c *fakeClock) Sleep(_ context.Context, d time.Duration) error {
	c.sleeps = append(c.sleeps, d)
	return nil
}
