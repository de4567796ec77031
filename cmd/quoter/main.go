package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/uuid"
	pyroscope "github.com/grafana/pyroscope-go"

	"main/internal/bus"
	"main/internal/engine"
	"main/internal/journal"
	"main/internal/obs"
	"main/internal/ops"
	"main/internal/risk"
	"main/internal/schema"
	"main/internal/session"
	"main/internal/state"
	"main/internal/store"
)

type runtimeConfig struct {
	v atomic.Value
}

func newRuntimeConfig(loaded ops.Loaded) *runtimeConfig {
	var rc runtimeConfig
	rc.v.Store(loaded)
	return &rc
}

func (r *runtimeConfig) Load() ops.Loaded {
	return r.v.Load().(ops.Loaded)
}

func (r *runtimeConfig) Update(loaded ops.Loaded) {
	r.v.Store(loaded)
}

func main() {
	if err := run(); err != nil {
		log.Printf("quoter: %v", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "Path to JSON config")
	configReload := flag.Duration("config-reload-interval", 2*time.Second, "Config reload interval (0=disable)")
	recoverEnabled := flag.Bool("recover", false, "Rebuild state from snapshot + journal before going live")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loaded, err := ops.Load(*configPath)
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}
	runtime := newRuntimeConfig(loaded)
	if *configPath != "" && *configReload > 0 {
		go ops.Watch(ctx, *configPath, *configReload, runtime.Update)
	}

	if addr := loaded.Profiling.ServerAddress; addr != "" {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: loaded.Profiling.AppName,
			ServerAddress:   addr,
			Logger:          emptyLogger{},
			ProfileTypes: []pyroscope.ProfileType{
				pyroscope.ProfileCPU,
				pyroscope.ProfileAllocObjects,
				pyroscope.ProfileAllocSpace,
				pyroscope.ProfileInuseObjects,
				pyroscope.ProfileInuseSpace,
			},
		})
		if err != nil {
			return fmt.Errorf("pyroscope start failed: %w", err)
		}
		defer func() {
			_ = profiler.Stop()
		}()
	}

	if secs := loaded.Profiling.MemoryReportSeconds; secs > 0 {
		var reporter obs.MemoryReporter
		go reporter.Run(ctx, time.Duration(secs)*time.Second)
	}

	return runQuoter(ctx, runtime, *recoverEnabled)
}

func runQuoter(ctx context.Context, runtime *runtimeConfig, recoverEnabled bool) error {
	loaded := runtime.Load()
	runID := uuid.NewString()
	snapshotPath := resolveSnapshotPath(loaded)

	limits := risk.NewEngine(loaded.Risk)
	metrics := obs.NewMetrics()
	traces := obs.NewTraceGenerator(uint64(time.Now().UTC().UnixNano()))
	engineCfg := engine.Config{Limits: limits, Metrics: metrics, Traces: traces}

	var (
		eng         *engine.Engine
		lastSeq     uint64
		lastEventTs int64
	)
	if recoverEnabled {
		recoverCfg := state.RecoverConfig{
			JournalDir:   loaded.Journal.Dir,
			SnapshotPath: snapshotPath,
		}
		if _, err := os.Stat(snapshotPath); os.IsNotExist(err) {
			log.Printf("no snapshot at %s, replaying the whole journal", snapshotPath)
			recoverCfg.SnapshotPath = ""
		}
		result, err := state.RecoverEngine(ctx, recoverCfg, engineCfg)
		if err != nil {
			return fmt.Errorf("recover failed: %w", err)
		}
		eng = result.Engine
		lastSeq = result.LastSeq
		lastEventTs = result.LastEventTs
		log.Printf("recovered: replayed=%d last_seq=%d position=%d open_orders=%d",
			result.Replayed, result.LastSeq, eng.Orders().Position(),
			eng.Orders().OutstandingBids()+eng.Orders().OutstandingAsks())
	} else {
		eng = engine.New(engineCfg)
	}

	jw, err := journal.NewWriter(loaded.Journal)
	if err != nil {
		return err
	}
	if err := jw.Start(ctx); err != nil {
		return err
	}

	var sink *store.Writer
	if loaded.StoreDSN != "" {
		sink, err = store.Open(loaded.StoreDSN, store.RunInfo{
			ID:        runID,
			LoginName: loaded.Venue.LoginName,
			Transport: loaded.Venue.Transport,
		})
		if err != nil {
			_ = jw.Close()
			return fmt.Errorf("store open failed: %w", err)
		}
		defer func() {
			_ = sink.Close()
		}()
		log.Printf("store run: %s", runID)
	}

	inQueue := bus.NewQueue(4096)
	outQueue := bus.NewQueue(1024)

	eng.SetEmit(func(h schema.EventHeader, payload []byte) {
		if err := outQueue.TryPublish(bus.Event{Header: h, Payload: payload}); err != nil {
			metrics.IncQueueDrop()
		}
	})

	client, err := buildClient(ctx, loaded.Venue, func(h schema.EventHeader, payload []byte) {
		var copied []byte
		if len(payload) > 0 {
			copied = make([]byte, len(payload))
			copy(copied, payload)
		}
		if err := inQueue.TryPublish(bus.Event{Header: h, Payload: copied}); err != nil {
			metrics.IncQueueDrop()
		}
	})
	if err != nil {
		_ = jw.Close()
		return err
	}

	var wg sync.WaitGroup

	// Engine loop: one goroutine owns the engine, the risk limits and
	// the seq watermarks.
	wg.Add(1)
	go func() {
		defer wg.Done()
		lastRisk := loaded.Risk
		inQueue.Run(context.Background(), func(e bus.Event) {
			if cfg := runtime.Load(); cfg.Risk != lastRisk {
				limits.SetConfig(cfg.Risk)
				lastRisk = cfg.Risk
				log.Printf("risk limits reloaded")
			}
			if err := jw.TryAppend(e.Header, e.Payload); err != nil {
				metrics.IncJournalDrop()
			}
			if e.Header.Seq > lastSeq {
				lastSeq = e.Header.Seq
			}
			if e.Header.TsEvent > lastEventTs {
				lastEventTs = e.Header.TsEvent
			}
			if err := eng.Apply(e.Header, e.Payload); err != nil {
				log.Printf("apply %s seq=%d: %v", e.Header.Type.Name(), e.Header.Seq, err)
			}
			if sink != nil {
				sink.Observe(e.Header, e.Payload)
				if e.Header.Type == schema.EventOrderFilled || e.Header.Type == schema.EventHedgeFilled {
					sink.Mark(e.Header.Seq, eng.Orders().Position(), eng.Orders().FuturePosition(),
						eng.Orders().TotalFees(), eng.Estimator().Mu())
				}
			}
		})
	}()

	// Action loop: ships engine output to the venue and mirrors it to
	// the journal and the store.
	wg.Add(1)
	go func() {
		defer wg.Done()
		outQueue.Run(context.Background(), func(e bus.Event) {
			if err := client.Send(e.Header, e.Payload); err != nil {
				log.Printf("send %s: %v", e.Header.Type.Name(), err)
			}
			if runtime.Load().Features.JournalActions {
				if err := jw.TryAppend(e.Header, e.Payload); err != nil {
					metrics.IncJournalDrop()
				}
			}
			if sink != nil {
				sink.Observe(e.Header, e.Payload)
			}
		})
	}()

	shutdown := func() {
		_ = client.Close()
		inQueue.Close()
		outQueue.Close()
		wg.Wait()
	}

	if err := client.Start(ctx); err != nil {
		shutdown()
		_ = jw.Close()
		return fmt.Errorf("session start failed: %w", err)
	}

	loginCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	err = client.Login(loginCtx, schema.NewLogin(loaded.Venue.LoginName, loaded.Venue.LoginSecret))
	cancel()
	if err != nil {
		shutdown()
		_ = jw.Close()
		return fmt.Errorf("login failed: %w", err)
	}
	log.Printf("logged in as %s via %s %s", loaded.Venue.LoginName, loaded.Venue.Transport, loaded.Venue.Addr)

	<-ctx.Done()
	log.Printf("shutting down")
	shutdown()

	snapshot := state.Capture(eng, runID, lastSeq, lastEventTs)
	if err := state.WriteSnapshot(snapshotPath, snapshot); err != nil {
		_ = jw.Close()
		return fmt.Errorf("snapshot write failed: %w", err)
	}
	log.Printf("snapshot written: %s position=%d", snapshotPath, snapshot.Position)

	if err := jw.Close(); err != nil {
		return err
	}
	if err := jw.Err(); err != nil {
		log.Printf("journal: %v", err)
	}
	if sink != nil {
		if err := sink.Close(); err != nil {
			log.Printf("store close: %v", err)
		}
		if dropped := sink.Dropped(); dropped > 0 {
			log.Printf("store dropped %d records", dropped)
		}
	}

	snap := metrics.Snapshot()
	log.Printf("metrics: events=%v actions=%v risk=%v queue_drops=%d journal_drops=%d decode_errors=%d decide=%+v",
		snap.EventCounts, snap.ActionCounts, snap.RiskReasonCounts,
		snap.QueueDrops, snap.JournalDrops, snap.DecodeErrors, snap.DecideLatency)
	return nil
}

func buildClient(ctx context.Context, spec ops.VenueSpec, handler session.Handler) (session.Client, error) {
	switch spec.Transport {
	case ops.TransportUDS:
		return session.NewUDSClient(spec.Addr, handler)
	case ops.TransportWS:
		return session.NewWSClient(ctx, spec.Addr, handler), nil
	default:
		return nil, fmt.Errorf("unknown transport %q", spec.Transport)
	}
}

func resolveSnapshotPath(loaded ops.Loaded) string {
	if loaded.SnapshotPath != "" {
		return loaded.SnapshotPath
	}
	return filepath.Join(loaded.Journal.Dir, "state.json")
}

type emptyLogger struct{}

func (emptyLogger) Infof(_ string, _ ...interface{})  {}
func (emptyLogger) Debugf(_ string, _ ...interface{}) {}
func (emptyLogger) Errorf(_ string, _ ...interface{}) {}
