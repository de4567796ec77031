package state

import (
	"context"
	"fmt"

	"main/internal/engine"
	"main/internal/journal"
	"main/internal/ledger"
	"main/internal/schema"
	"main/internal/theo"
)

// RecoverConfig controls snapshot + journal recovery.
type RecoverConfig struct {
	JournalDir      string
	SnapshotPath    string
	FilePrefix      string
	DisableChecksum bool
	MaxPayloadSize  int
	UseRecvTime     bool
}

// RecoverResult carries the rebuilt engine and replay metadata.
type RecoverResult struct {
	Engine      *engine.Engine
	LastSeq     uint64
	LastEventTs int64
	Replayed    int
}

// RecoverEngine loads the snapshot, then replays the journal tail of
// venue events through a muted engine to roll positions, open orders
// and estimator history forward and rebuild the books. The caller
// attaches the out queue with SetEmit before going live; nothing is
// re-sent during replay.
func RecoverEngine(ctx context.Context, cfg RecoverConfig, engineCfg engine.Config) (RecoverResult, error) {
	if cfg.JournalDir == "" {
		return RecoverResult{}, fmt.Errorf("journal dir is empty")
	}

	var lastSeq uint64
	var lastEventTs int64

	if cfg.SnapshotPath != "" {
		snapshot, err := ReadSnapshot(cfg.SnapshotPath)
		if err != nil {
			return RecoverResult{}, err
		}
		engineCfg.Estimator = theo.Restore(snapshot.Theo)
		engineCfg.Orders = ledger.FromState(snapshot.LedgerState())
		lastSeq = snapshot.LastSeq
		lastEventTs = snapshot.LastEventTs
	}

	engineCfg.Emit = nil
	e := engine.New(engineCfg)

	pb, err := journal.NewPlayback(journal.PlaybackConfig{
		Dir:             cfg.JournalDir,
		FilePrefix:      cfg.FilePrefix,
		Speed:           0,
		UseRecvTime:     cfg.UseRecvTime,
		DisableChecksum: cfg.DisableChecksum,
		MaxPayloadSize:  cfg.MaxPayloadSize,
		TolerateTorn:    true,
	})
	if err != nil {
		return RecoverResult{}, err
	}

	replayed := 0
	err = pb.Run(ctx, func(header schema.EventHeader, payload []byte) error {
		// The journal interleaves venue events with the engine's own
		// actions; only venue events replay, in their own seq space.
		if header.Source != schema.SourceVenue {
			return nil
		}
		if lastSeq > 0 && header.Seq <= lastSeq {
			return nil
		}
		if lastSeq == 0 && lastEventTs > 0 {
			ts := header.TsEvent
			if cfg.UseRecvTime {
				ts = header.TsRecv
			}
			if ts <= lastEventTs {
				return nil
			}
		}
		if header.Seq > lastSeq {
			lastSeq = header.Seq
		}
		if header.TsEvent > lastEventTs {
			lastEventTs = header.TsEvent
		}
		replayed++
		return e.Apply(header, payload)
	})
	if err != nil {
		return RecoverResult{}, err
	}

	return RecoverResult{
		Engine:      e,
		LastSeq:     lastSeq,
		LastEventTs: lastEventTs,
		Replayed:    replayed,
	}, nil
}
