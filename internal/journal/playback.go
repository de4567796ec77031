package journal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"main/internal/schema"
)

// PlaybackConfig controls journal playback behavior.
type PlaybackConfig struct {
	Dir             string
	FilePrefix      string
	Speed           float64
	UseRecvTime     bool
	DisableChecksum bool
	MaxPayloadSize  int
	TolerateTorn    bool
}

// Validate checks if the config is usable.
func (c PlaybackConfig) Validate() error {
	switch {
	case c.Dir == "":
		return fmt.Errorf("invalid playback config: Dir is empty")
	case c.Speed < 0:
		return fmt.Errorf("invalid playback config: Speed must be >= 0")
	case c.MaxPayloadSize < 0:
		return fmt.Errorf("invalid playback config: MaxPayloadSize must be >= 0")
	}
	return nil
}

// Clock is the sleep source used for pacing. Tests substitute one to
// check pacing without waiting.
type Clock interface {
	Sleep(ctx context.Context, d time.Duration) error
}

type wallClock struct{}

func (wallClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Playback replays journal records in file order. With Speed zero the
// records stream flat out; otherwise the gaps between record timestamps
// are reproduced, divided by Speed.
type Playback struct {
	cfg   PlaybackConfig
	clock Clock
}

// NewPlayback validates the config and creates a playback engine.
func NewPlayback(cfg PlaybackConfig) (*Playback, error) {
	if cfg.FilePrefix == "" {
		cfg.FilePrefix = defaultFilePrefix
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Playback{cfg: cfg, clock: wallClock{}}, nil
}

// WithClock swaps the sleep source and returns the same playback.
func (p *Playback) WithClock(clock Clock) *Playback {
	if clock != nil {
		p.clock = clock
	}
	return p
}

// Run replays journal records and calls the handler for each event.
func (p *Playback) Run(ctx context.Context, handler func(schema.EventHeader, []byte) error) error {
	if handler == nil {
		return errors.New("playback handler is nil")
	}
	files, err := p.segments()
	if err != nil {
		return err
	}

	pace := &pacer{cfg: p.cfg, clock: p.clock}
	for _, path := range files {
		if err := p.playFile(ctx, path, pace, handler); err != nil {
			return err
		}
	}
	return nil
}

// segments lists the matching segment files in lexical order, which is
// write order under the timestamp-and-counter naming.
func (p *Playback) segments() ([]string, error) {
	entries, err := os.ReadDir(p.cfg.Dir)
	if err != nil {
		return nil, err
	}
	prefix := p.cfg.FilePrefix + "-"
	var files []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".jrnl") {
			continue
		}
		files = append(files, filepath.Join(p.cfg.Dir, name))
	}
	sort.Strings(files)
	return files, nil
}

func (p *Playback) playFile(ctx context.Context, path string, pace *pacer, handler func(schema.EventHeader, []byte) error) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	reader := NewReader(file, ReaderOptions{
		DisableChecksum: p.cfg.DisableChecksum,
		MaxPayloadSize:  p.cfg.MaxPayloadSize,
	})

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		header, payload, err := reader.Next()
		switch {
		case err == io.EOF:
			return nil
		case err != nil && p.cfg.TolerateTorn && IsTornTail(err):
			return nil
		case err != nil:
			return fmt.Errorf("read %s: %w", path, err)
		}

		if err := pace.wait(ctx, header); err != nil {
			return err
		}
		if err := handler(header, payload); err != nil {
			return err
		}
	}
}

// pacer reproduces inter-record gaps scaled by Speed. Gaps across
// segment boundaries count like any other gap.
type pacer struct {
	cfg   PlaybackConfig
	clock Clock
	prev  int64
}

func (p *pacer) wait(ctx context.Context, header schema.EventHeader) error {
	if p.cfg.Speed <= 0 {
		return nil
	}
	ts := header.TsEvent
	if p.cfg.UseRecvTime {
		ts = header.TsRecv
	}
	if ts <= 0 {
		return nil
	}
	if p.prev > 0 {
		if gap := ts - p.prev; gap > 0 {
			if err := p.clock.Sleep(ctx, time.Duration(float64(gap)/p.cfg.Speed)); err != nil {
				return err
			}
		}
	}
	p.prev = ts
	return nil
}
