// Paper runs the quoting engine against an in-process venue for a fixed
// number of book updates and prints the run's economics. With a journal
// directory it produces the same segment files a live run would, so the
// replay and chaos tools can work on synthetic data.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"main/internal/codec"
	"main/internal/engine"
	"main/internal/journal"
	"main/internal/obs"
	"main/internal/ops"
	"main/internal/risk"
	"main/internal/schema"
	"main/internal/state"
	"main/internal/store"
	"main/internal/venue"
)

type queuedEvent struct {
	header  schema.EventHeader
	payload []byte
}

func main() {
	if err := run(); err != nil {
		log.Printf("paper: %v", err)
		os.Exit(1)
	}
}

func run() error {
	steps := flag.Int("steps", 2000, "Book updates to simulate")
	seed := flag.Int64("seed", 1, "Market data seed")
	configPath := flag.String("config", "", "Path to JSON config")
	journalDir := flag.String("journal-dir", "", "Journal output directory (empty=no journal)")
	snapshotPath := flag.String("snapshot-path", "", "Snapshot output path (empty=no snapshot)")
	storeDSN := flag.String("store-dsn", "", "Analytics database DSN (empty=no store)")
	flag.Parse()

	if *steps <= 0 {
		return fmt.Errorf("steps must be > 0")
	}

	loaded, err := ops.Load(*configPath)
	if err != nil {
		return err
	}
	runID := uuid.NewString()

	var jw *journal.Writer
	if *journalDir != "" {
		cfg := loaded.Journal
		cfg.Dir = *journalDir
		jw, err = journal.NewWriter(cfg)
		if err != nil {
			return err
		}
		if err := jw.Start(context.Background()); err != nil {
			return err
		}
	}

	var sink *store.Writer
	if *storeDSN != "" {
		sink, err = store.Open(*storeDSN, store.RunInfo{
			ID:        runID,
			LoginName: "paper",
			Transport: "inproc",
		})
		if err != nil {
			return err
		}
		defer func() {
			_ = sink.Close()
		}()
	}

	metrics := obs.NewMetrics()
	limits := risk.NewEngine(loaded.Risk)
	eng := engine.New(engine.Config{
		Limits:  limits,
		Metrics: metrics,
		Traces:  obs.NewTraceGenerator(uint64(*seed)),
	})

	var toEngine, toVenue []queuedEvent

	ex := venue.NewExchange(venue.Config{
		Generator: venue.NewGenerator(venue.GeneratorConfig{Seed: *seed}),
		Account:   venue.NewAccount(loaded.Registry),
		Registry:  loaded.Registry,
		Emit: func(h schema.EventHeader, payload []byte) {
			toEngine = append(toEngine, queuedEvent{header: h, payload: payload})
		},
	})
	eng.SetEmit(func(h schema.EventHeader, payload []byte) {
		toVenue = append(toVenue, queuedEvent{header: h, payload: payload})
	})

	var lastSeq uint64
	var lastEventTs int64

	// The venue and the engine feed each other through these queues so
	// neither applies events while the other is mid-call. A drain runs
	// both sides dry before the next generator step.
	drain := func() error {
		for len(toEngine) > 0 || len(toVenue) > 0 {
			for len(toEngine) > 0 {
				ev := toEngine[0]
				toEngine = toEngine[1:]
				if jw != nil {
					if err := jw.TryAppend(ev.header, ev.payload); err != nil {
						metrics.IncJournalDrop()
					}
				}
				if ev.header.Seq > lastSeq {
					lastSeq = ev.header.Seq
				}
				if ev.header.TsEvent > lastEventTs {
					lastEventTs = ev.header.TsEvent
				}
				if err := eng.Apply(ev.header, ev.payload); err != nil {
					return err
				}
				if sink != nil {
					sink.Observe(ev.header, ev.payload)
					if ev.header.Type == schema.EventOrderFilled || ev.header.Type == schema.EventHedgeFilled {
						sink.Mark(ev.header.Seq, eng.Orders().Position(), eng.Orders().FuturePosition(),
							eng.Orders().TotalFees(), eng.Estimator().Mu())
					}
				}
			}
			for len(toVenue) > 0 {
				ev := toVenue[0]
				toVenue = toVenue[1:]
				if jw != nil && loaded.Features.JournalActions {
					if err := jw.TryAppend(ev.header, ev.payload); err != nil {
						metrics.IncJournalDrop()
					}
				}
				if sink != nil {
					sink.Observe(ev.header, ev.payload)
				}
				if err := ex.Apply(ev.header, ev.payload); err != nil {
					return err
				}
			}
		}
		return nil
	}

	now := time.Now().UTC().UnixNano()
	loginHeader := schema.NewHeader(schema.EventLogin, schema.SourceEngine, 0, now, now)
	if err := ex.Apply(loginHeader, codec.EncodeLogin(nil, schema.NewLogin("paper", ""))); err != nil {
		return err
	}
	if err := drain(); err != nil {
		return err
	}

	start := time.Now()
	for i := 0; i < *steps; i++ {
		ex.Step()
		if err := drain(); err != nil {
			return err
		}
	}
	elapsed := time.Since(start)

	led := eng.Orders()
	acct := ex.Account()
	log.Printf("paper run %s: steps=%d elapsed=%s", runID, *steps, elapsed.Round(time.Millisecond))
	log.Printf("position=%d future=%d fees=%d open_bids=%d open_asks=%d",
		led.Position(), led.FuturePosition(), led.TotalFees(),
		led.OutstandingBids(), led.OutstandingAsks())
	log.Printf("venue: resting=%d maker_fees=%d taker_fees=%d notional=%s",
		ex.RestingOrders(), acct.MakerFees(), acct.TakerFees(), acct.TradedNotional().String())
	log.Printf("estimator: mu=%.3f crossings=%d", eng.Estimator().Mu(), eng.Estimator().CrossCount())

	snap := metrics.Snapshot()
	log.Printf("metrics: events=%v actions=%v risk=%v journal_drops=%d decide=%+v",
		snap.EventCounts, snap.ActionCounts, snap.RiskReasonCounts, snap.JournalDrops, snap.DecideLatency)

	if *snapshotPath != "" {
		if err := state.WriteSnapshot(*snapshotPath, state.Capture(eng, runID, lastSeq, lastEventTs)); err != nil {
			return err
		}
		log.Printf("snapshot written: %s", *snapshotPath)
	}
	if jw != nil {
		if err := jw.Close(); err != nil {
			return err
		}
		if err := jw.Err(); err != nil {
			return err
		}
	}
	if sink != nil {
		if err := sink.Close(); err != nil {
			return err
		}
	}
	return nil
}
