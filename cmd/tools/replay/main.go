// Replay reads a journal directory and reports what is in it. With
// -rebuild it feeds the venue events through a fresh engine and prints
// the position and estimator state the run ended with; -verify-snapshot
// checks that state against a written snapshot and -verify-actions
// checks the engine's regenerated actions against the recorded ones.
// Both checks prove a journal sufficient to recover its run. Pass the
// run's config so the rebuild applies the same risk limits.
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"main/internal/codec"
	"main/internal/engine"
	"main/internal/journal"
	"main/internal/ops"
	"main/internal/risk"
	"main/internal/schema"
	"main/internal/state"
)

type action struct {
	typ     schema.EventType
	payload []byte
}

func main() {
	if err := run(); err != nil {
		log.Printf("replay: %v", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		dir           = flag.String("journal-dir", "testdata/journal", "journal directory to read")
		prefix        = flag.String("prefix", "", "journal file prefix, empty for the default")
		configPath    = flag.String("config", "", "config of the recorded run, for its risk limits")
		speed         = flag.Float64("speed", 0, "pacing multiplier, 0 replays as fast as possible")
		show          = flag.Bool("print", false, "print every event")
		decode        = flag.Bool("decode", false, "decode payloads when printing")
		rebuild       = flag.Bool("rebuild", false, "replay venue events through a fresh engine")
		verifyPath    = flag.String("verify-snapshot", "", "snapshot to verify the rebuilt state against")
		verifyActions = flag.Bool("verify-actions", false, "compare regenerated actions with recorded ones")
		noChecksum    = flag.Bool("no-checksum", false, "skip record checksum verification")
	)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pb, err := journal.NewPlayback(journal.PlaybackConfig{
		Dir:             strings.TrimSpace(*dir),
		FilePrefix:      strings.TrimSpace(*prefix),
		Speed:           *speed,
		DisableChecksum: *noChecksum,
		TolerateTorn:    true,
	})
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}

	verify := strings.TrimSpace(*verifyPath)
	var (
		eng      *engine.Engine
		emitted  []action
		recorded []action
	)
	if *rebuild || verify != "" || *verifyActions {
		loaded, err := ops.Load(strings.TrimSpace(*configPath))
		if err != nil {
			return fmt.Errorf("config load failed: %w", err)
		}
		engineCfg := engine.Config{Limits: risk.NewEngine(loaded.Risk)}
		if *verifyActions {
			engineCfg.Emit = func(h schema.EventHeader, payload []byte) {
				emitted = append(emitted, action{typ: h.Type, payload: payload})
			}
		}
		eng = engine.New(engineCfg)
	}

	var (
		counts      = make(map[schema.EventType]int)
		total       int
		lastSeq     uint64
		lastEventTs int64
	)
	err = pb.Run(ctx, func(h schema.EventHeader, payload []byte) error {
		counts[h.Type]++
		total++
		if *show {
			printEvent(total, h, payload, *decode)
		}
		if eng == nil {
			return nil
		}
		switch h.Source {
		case schema.SourceVenue:
			if h.Seq > lastSeq {
				lastSeq = h.Seq
			}
			if h.TsEvent > lastEventTs {
				lastEventTs = h.TsEvent
			}
			if err := eng.Apply(h, payload); err != nil {
				return fmt.Errorf("apply %s seq=%d: %w", h.Type.Name(), h.Seq, err)
			}
		case schema.SourceEngine:
			// The session logs in outside the engine, so recorded
			// logins have no regenerated counterpart.
			if *verifyActions && h.Type != schema.EventLogin {
				cp := make([]byte, len(payload))
				copy(cp, payload)
				recorded = append(recorded, action{typ: h.Type, payload: cp})
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("playback: %w", err)
	}

	log.Printf("journal %s: %d events", *dir, total)
	for _, typ := range sortedTypes(counts) {
		log.Printf("  %-14s %d", typ.Name(), counts[typ])
	}

	if eng != nil {
		led := eng.Orders()
		est := eng.Estimator()
		log.Printf("rebuilt: position=%d future=%d fees=%d open_bids=%d open_asks=%d",
			led.Position(), led.FuturePosition(), led.TotalFees(),
			led.OutstandingBids(), led.OutstandingAsks())
		log.Printf("rebuilt: mu=%.3f crossings=%d", est.Mu(), est.CrossCount())
	}

	if *verifyActions {
		if err := compareActions(recorded, emitted); err != nil {
			return err
		}
		log.Printf("actions verified: %d", len(recorded))
	}

	if verify != "" {
		expected, err := state.ReadSnapshot(verify)
		if err != nil {
			return fmt.Errorf("read snapshot: %w", err)
		}
		actual := state.Capture(eng, expected.RunID, lastSeq, lastEventTs)
		if err := state.CompareSnapshots(expected, actual); err != nil {
			return fmt.Errorf("snapshot mismatch: %w", err)
		}
		log.Printf("snapshot verified: %s", verify)
	}
	return nil
}

// compareActions checks the recorded action stream against the rebuilt
// one. Types and payloads must match element for element; headers are
// not compared because sequence, timestamps and trace ids are assigned
// per run.
func compareActions(recorded, emitted []action) error {
	n := len(recorded)
	if len(emitted) < n {
		n = len(emitted)
	}
	for i := 0; i < n; i++ {
		if recorded[i].typ != emitted[i].typ {
			return fmt.Errorf("action %d: journal %s, rebuilt %s", i, recorded[i].typ.Name(), emitted[i].typ.Name())
		}
		if !bytes.Equal(recorded[i].payload, emitted[i].payload) {
			return fmt.Errorf("action %d: %s payload differs", i, recorded[i].typ.Name())
		}
	}
	if len(recorded) != len(emitted) {
		return fmt.Errorf("action count: journal %d, rebuilt %d", len(recorded), len(emitted))
	}
	return nil
}

func sortedTypes(counts map[schema.EventType]int) []schema.EventType {
	types := make([]schema.EventType, 0, len(counts))
	for typ := range counts {
		types = append(types, typ)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

func printEvent(n int, h schema.EventHeader, payload []byte, decode bool) {
	detail := fmt.Sprintf("%d bytes", len(payload))
	if decode {
		if s := describe(h, payload); s != "" {
			detail = s
		}
	}
	log.Printf("%6d %-14s src=%d seq=%d ts=%d %s", n, h.Type.Name(), h.Source, h.Seq, h.TsEvent, detail)
}

// describe renders a payload as a short human-readable line. Unknown or
// truncated payloads come back empty and the caller falls back to the
// byte count.
func describe(h schema.EventHeader, payload []byte) string {
	switch h.Type {
	case schema.EventOrderBook:
		book, ok := codec.DecodeOrderBook(payload)
		if !ok {
			return ""
		}
		return fmt.Sprintf("inst=%d bid=%d/%d ask=%d/%d",
			book.Instrument, book.BidPrices[0], book.BidVolumes[0], book.AskPrices[0], book.AskVolumes[0])
	case schema.EventTradeTicks:
		ticks, ok := codec.DecodeTradeTicks(payload)
		if !ok {
			return ""
		}
		return fmt.Sprintf("inst=%d sold=%d/%d bought=%d/%d",
			ticks.Instrument, ticks.BidPrices[0], ticks.BidVolumes[0], ticks.AskPrices[0], ticks.AskVolumes[0])
	case schema.EventOrderInsert:
		ins, ok := codec.DecodeOrderInsert(payload)
		if !ok {
			return ""
		}
		return fmt.Sprintf("order=%d %s %s price=%d vol=%d",
			ins.OrderID, ins.Side.Name(), ins.Lifespan.Name(), ins.Price, ins.Volume)
	case schema.EventOrderCancel:
		cancel, ok := codec.DecodeOrderCancel(payload)
		if !ok {
			return ""
		}
		return fmt.Sprintf("order=%d", cancel.OrderID)
	case schema.EventOrderHedge:
		hedge, ok := codec.DecodeOrderHedge(payload)
		if !ok {
			return ""
		}
		return fmt.Sprintf("order=%d %s price=%d vol=%d", hedge.OrderID, hedge.Side.Name(), hedge.Price, hedge.Volume)
	case schema.EventOrderStatus:
		st, ok := codec.DecodeOrderStatus(payload)
		if !ok {
			return ""
		}
		return fmt.Sprintf("order=%d fill=%d remaining=%d fees=%d", st.OrderID, st.FillVolume, st.RemainingVolume, st.Fees)
	case schema.EventOrderFilled:
		fill, ok := codec.DecodeOrderFilled(payload)
		if !ok {
			return ""
		}
		return fmt.Sprintf("order=%d price=%d vol=%d", fill.OrderID, fill.Price, fill.Volume)
	case schema.EventHedgeFilled:
		hf, ok := codec.DecodeHedgeFilled(payload)
		if !ok {
			return ""
		}
		return fmt.Sprintf("order=%d avg=%d vol=%d", hf.OrderID, hf.AveragePrice, hf.Volume)
	case schema.EventVenueError:
		ve, ok := codec.DecodeVenueError(payload)
		if !ok {
			return ""
		}
		return fmt.Sprintf("order=%d msg=%q", ve.OrderID, ve.MessageString())
	case schema.EventRiskDecision:
		dec, ok := codec.DecodeRiskDecision(payload)
		if !ok {
			return ""
		}
		return fmt.Sprintf("%s %s order=%d %s price=%d vol=%d position=%d",
			dec.Action.Name(), dec.Reason.Name(), dec.OrderID, dec.Side.Name(), dec.Price, dec.Volume, dec.Position)
	case schema.EventLogin:
		login, ok := codec.DecodeLogin(payload)
		if !ok {
			return ""
		}
		return fmt.Sprintf("name=%s", login.NameString())
	}
	return ""
}
