// Package ops loads and validates the JSON runtime configuration and
// polls the file for reloads of the mutable subset.
package ops

import (
	"encoding/json"
	"fmt"
	"os"

	"main/internal/journal"
	"main/internal/risk"
	"main/internal/schema"
)

const (
	TransportUDS = "uds"
	TransportWS  = "ws"

	defaultTransport  = TransportUDS
	defaultUDSAddr    = "/tmp/etf-venue.sock"
	defaultWSAddr     = "ws://127.0.0.1:9301/stream"
	defaultLoginName  = "quoter"
	defaultJournalDir = "testdata/journal"
)

// FileConfig mirrors the JSON config layout.
type FileConfig struct {
	Venue       VenueConfig        `json:"venue"`
	Instruments []InstrumentConfig `json:"instruments"`
	Risk        risk.Config        `json:"risk"`
	Journal     journal.Config     `json:"journal"`
	Snapshot    SnapshotConfig     `json:"snapshot"`
	Store       StoreConfig        `json:"store"`
	Profiling   ProfilingConfig    `json:"profiling"`
	Features    FeatureFlagsConfig `json:"features"`
}

// VenueConfig describes how to reach the venue and log in.
type VenueConfig struct {
	Transport   string `json:"transport"`
	Addr        string `json:"addr"`
	LoginName   string `json:"loginName"`
	LoginSecret string `json:"loginSecret"`
}

// InstrumentConfig describes one instrument entry.
type InstrumentConfig struct {
	ID       uint8          `json:"id"`
	Name     string         `json:"name"`
	TickSize schema.Price   `json:"tickSize"`
	LotSize  schema.Volume  `json:"lotSize"`
	MakerFee schema.FeeRate `json:"makerFee"`
	TakerFee schema.FeeRate `json:"takerFee"`
}

// SnapshotConfig controls snapshot output.
type SnapshotConfig struct {
	Path string `json:"path"`
}

// StoreConfig controls the optional analytics database. Postgres URLs
// go through the Postgres driver, any other value is treated as a
// SQLite path. An empty DSN disables the store.
type StoreConfig struct {
	DSN string `json:"dsn"`
}

// ProfilingConfig controls optional continuous profiling. An empty
// server address disables it. MemoryReportSeconds enables periodic
// runtime memory lines in the log when positive.
type ProfilingConfig struct {
	ServerAddress       string `json:"serverAddress"`
	AppName             string `json:"appName"`
	MemoryReportSeconds int    `json:"memoryReportSeconds"`
}

// FeatureFlagsConfig captures optional runtime flags.
type FeatureFlagsConfig struct {
	QuotingEnabled *bool `json:"quotingEnabled"`
	JournalActions *bool `json:"journalActions"`
}

// FeatureFlags are resolved runtime flags.
type FeatureFlags struct {
	QuotingEnabled bool
	JournalActions bool
}

// VenueSpec is the resolved venue endpoint.
type VenueSpec struct {
	Transport   string
	Addr        string
	LoginName   string
	LoginSecret string
}

// Loaded is the resolved configuration ready for use.
type Loaded struct {
	Venue        VenueSpec
	Registry     *schema.Registry
	Risk         risk.Config
	Journal      journal.Config
	SnapshotPath string
	StoreDSN     string
	Profiling    ProfilingConfig
	Features     FeatureFlags
}

// Load reads a JSON config file and resolves it. An empty path resolves
// the defaults.
func Load(path string) (Loaded, error) {
	var cfg FileConfig
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Loaded{}, err
		}
		if err := json.Unmarshal(data, &cfg); err != nil {
			return Loaded{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	return resolve(cfg)
}

func resolve(cfg FileConfig) (Loaded, error) {
	venue, err := resolveVenue(cfg.Venue)
	if err != nil {
		return Loaded{}, err
	}
	registry, err := buildRegistry(cfg.Instruments)
	if err != nil {
		return Loaded{}, err
	}
	features := resolveFeatures(cfg.Features)

	riskCfg := cfg.Risk
	if !features.QuotingEnabled {
		riskCfg.QuotingDisabled = true
	}

	journalCfg := cfg.Journal
	if journalCfg.Dir == "" {
		journalCfg.Dir = defaultJournalDir
	}

	profiling := cfg.Profiling
	if profiling.ServerAddress != "" && profiling.AppName == "" {
		profiling.AppName = "quoter"
	}

	return Loaded{
		Venue:        venue,
		Registry:     registry,
		Risk:         riskCfg,
		Journal:      journalCfg,
		SnapshotPath: cfg.Snapshot.Path,
		StoreDSN:     cfg.Store.DSN,
		Profiling:    profiling,
		Features:     features,
	}, nil
}

func resolveVenue(cfg VenueConfig) (VenueSpec, error) {
	spec := VenueSpec{
		Transport:   cfg.Transport,
		Addr:        cfg.Addr,
		LoginName:   cfg.LoginName,
		LoginSecret: cfg.LoginSecret,
	}
	if spec.Transport == "" {
		spec.Transport = defaultTransport
	}
	switch spec.Transport {
	case TransportUDS:
		if spec.Addr == "" {
			spec.Addr = defaultUDSAddr
		}
	case TransportWS:
		if spec.Addr == "" {
			spec.Addr = defaultWSAddr
		}
	default:
		return VenueSpec{}, fmt.Errorf("unknown venue transport: %s", spec.Transport)
	}
	if spec.LoginName == "" {
		spec.LoginName = defaultLoginName
	}
	if len(spec.LoginName) > schema.LoginFieldCap {
		return VenueSpec{}, fmt.Errorf("login name exceeds %d bytes", schema.LoginFieldCap)
	}
	if len(spec.LoginSecret) > schema.LoginFieldCap {
		return VenueSpec{}, fmt.Errorf("login secret exceeds %d bytes", schema.LoginFieldCap)
	}
	return spec, nil
}

// DefaultInstruments returns the built-in future/ETF pair with the venue
// fee schedule.
func DefaultInstruments() []InstrumentConfig {
	return []InstrumentConfig{
		{
			ID:       uint8(schema.InstrumentFuture),
			Name:     "FUT",
			TickSize: schema.TickSize,
			LotSize:  schema.LotSize,
			MakerFee: -1,
			TakerFee: 2,
		},
		{
			ID:       uint8(schema.InstrumentETF),
			Name:     "ETF",
			TickSize: schema.TickSize,
			LotSize:  schema.LotSize,
			MakerFee: -1,
			TakerFee: 2,
		},
	}
}

func buildRegistry(instruments []InstrumentConfig) (*schema.Registry, error) {
	if len(instruments) == 0 {
		instruments = DefaultInstruments()
	}
	reg := schema.NewRegistry()
	for _, inst := range instruments {
		if inst.ID > uint8(schema.InstrumentETF) {
			return nil, fmt.Errorf("unknown instrument id: %d", inst.ID)
		}
		err := reg.Add(schema.InstrumentSpec{
			Instrument: schema.Instrument(inst.ID),
			Name:       inst.Name,
			TickSize:   inst.TickSize,
			LotSize:    inst.LotSize,
			MakerFee:   inst.MakerFee,
			TakerFee:   inst.TakerFee,
		})
		if err != nil {
			return nil, err
		}
	}
	for _, inst := range []schema.Instrument{schema.InstrumentFuture, schema.InstrumentETF} {
		if _, ok := reg.Spec(inst); !ok {
			return nil, fmt.Errorf("config registers no %s instrument", inst.Name())
		}
	}
	return reg, nil
}

func resolveFeatures(cfg FeatureFlagsConfig) FeatureFlags {
	flags := FeatureFlags{
		QuotingEnabled: true,
		JournalActions: true,
	}
	if cfg.QuotingEnabled != nil {
		flags.QuotingEnabled = *cfg.QuotingEnabled
	}
	if cfg.JournalActions != nil {
		flags.JournalActions = *cfg.JournalActions
	}
	return flags
}
