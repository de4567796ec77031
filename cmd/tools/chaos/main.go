// Chaos rewrites a journal with market-data faults: dropped, duplicated,
// delayed and locally reordered book updates. Order-lifecycle events
// pass through untouched. The perturbed journal feeds recovery drills;
// replaying it must still reproduce the run's position and fees.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"main/internal/chaos"
	"main/internal/journal"
	"main/internal/schema"
)

func main() {
	if err := run(); err != nil {
		log.Printf("chaos: %v", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		in         = flag.String("in", "testdata/journal", "journal directory to read")
		out        = flag.String("out", "", "directory for the perturbed journal")
		prefix     = flag.String("prefix", "", "input file prefix, empty for the default")
		seed       = flag.Int64("seed", 1, "perturbation seed, 0 for a wall-clock seed")
		drop       = flag.Float64("drop", 0.01, "probability of dropping a book update")
		dup        = flag.Float64("dup", 0.01, "probability of duplicating a book update")
		reorder    = flag.Int("reorder", 4, "reorder window in events, 1 disables reordering")
		maxDelay   = flag.Duration("max-delay", 5*time.Millisecond, "upper bound on injected receive delay")
		noChecksum = flag.Bool("no-checksum", false, "skip record checksum verification on the input")
	)
	flag.Parse()

	inDir := strings.TrimSpace(*in)
	outDir := strings.TrimSpace(*out)
	if outDir == "" {
		return fmt.Errorf("-out is required")
	}
	if filepath.Clean(inDir) == filepath.Clean(outDir) {
		return fmt.Errorf("input and output directories must differ")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eng, err := chaos.NewEngine(chaos.Config{
		Seed:          *seed,
		DropRate:      *drop,
		DuplicateRate: *dup,
		ReorderWindow: *reorder,
		MaxDelay:      *maxDelay,
	})
	if err != nil {
		return err
	}

	pb, err := journal.NewPlayback(journal.PlaybackConfig{
		Dir:             inDir,
		FilePrefix:      strings.TrimSpace(*prefix),
		DisableChecksum: *noChecksum,
		TolerateTorn:    true,
	})
	if err != nil {
		return fmt.Errorf("open input journal: %w", err)
	}

	jw, err := journal.NewWriter(journal.DefaultConfig(outDir))
	if err != nil {
		return fmt.Errorf("open output journal: %w", err)
	}
	// Background context: Close must flush every queued record before
	// the writer goroutine exits.
	if err := jw.Start(context.Background()); err != nil {
		return fmt.Errorf("start output journal: %w", err)
	}

	err = pb.Run(ctx, func(h schema.EventHeader, payload []byte) error {
		// The reader reuses its payload buffer and the reorder window
		// holds events across calls, so every event owns a copy.
		cp := make([]byte, len(payload))
		copy(cp, payload)
		return appendAll(jw, eng.Process(chaos.Event{Header: h, Payload: cp}))
	})
	if err != nil {
		_ = jw.Close()
		return fmt.Errorf("playback: %w", err)
	}
	if err := appendAll(jw, eng.Flush()); err != nil {
		_ = jw.Close()
		return err
	}

	if err := jw.Close(); err != nil {
		return fmt.Errorf("close output journal: %w", err)
	}
	if err := jw.Err(); err != nil {
		return fmt.Errorf("output journal: %w", err)
	}

	stats := eng.Stats()
	log.Printf("chaos %s -> %s: in=%d out=%d dropped=%d duplicated=%d delayed=%d passthrough=%d",
		inDir, outDir, stats.In, stats.Out, stats.Dropped, stats.Duplicated, stats.Delayed, stats.Passthrough)
	return nil
}

// appendAll writes events to the output journal, waiting out short
// queue-full windows instead of dropping.
func appendAll(jw *journal.Writer, events []chaos.Event) error {
	for _, ev := range events {
		for {
			err := jw.TryAppend(ev.Header, ev.Payload)
			if err == nil {
				break
			}
			if errors.Is(err, journal.ErrQueueFull) {
				time.Sleep(time.Millisecond)
				continue
			}
			return fmt.Errorf("append %s seq=%d: %w", ev.Header.Type.Name(), ev.Header.Seq, err)
		}
	}
	return nil
}
