package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/tabherd/tabherd/pkg/config"
	"github.com/tabherd/tabherd/pkg/journal"
)

const (
	defaultDir    = ".tabherd"
	defaultConfig = ".tabherd/config.yaml"
	defaultDB     = ".tabherd/journal.db"
)

// app holds shared state for all CLI subcommands.
type app struct {
	cfg     *config.Config
	log     *zap.Logger
	journal journal.JournalInterface

	nc *nats.Conn // nil when nats.url is unconfigured
}

// newApp loads configuration, opens the journal, and connects to NATS
// when a URL is configured. Creates the .tabherd/ directory if using
// the default journal path.
func newApp() (*app, error) {
	cfg, err := config.Load(envOr("TABHERD_CONFIG", defaultConfig))
	if err != nil {
		return nil, err
	}

	log, err := newLogger()
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}

	dbPath := cfg.Journal.Path
	if dbPath == "" {
		dbPath = defaultDB
		if err := os.MkdirAll(defaultDir, 0755); err != nil {
			return nil, fmt.Errorf("cannot create %s: %w", defaultDir, err)
		}
	}
	j, err := journal.New(dbPath)
	if err != nil {
		return nil, fmt.Errorf("cannot open journal %q: %w", dbPath, err)
	}

	a := &app{cfg: cfg, log: log, journal: j}
	if cfg.NATS.URL != "" {
		nc, err := nats.Connect(cfg.NATS.URL, nats.Name(cfg.NATS.Name))
		if err != nil {
			j.Close()
			return nil, fmt.Errorf("cannot connect to NATS at %q: %w", cfg.NATS.URL, err)
		}
		a.nc = nc
	}
	return a, nil
}

// newLogger builds a stderr logger so stdout stays parseable.
// TABHERD_DEBUG switches to the verbose development encoder.
func newLogger() (*zap.Logger, error) {
	if os.Getenv("TABHERD_DEBUG") != "" {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}

// Close releases the NATS connection and the journal.
func (a *app) Close() {
	if a.nc != nil {
		a.nc.Close()
	}
	if a.journal != nil {
		a.journal.Close()
	}
	_ = a.log.Sync()
}

// connected reports whether the messaging channel is configured.
func (a *app) connected() bool { return a.nc != nil }

// printJSON writes v to stdout as indented JSON.
func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

// configPath returns the active config file location.
func configPath() string {
	p := envOr("TABHERD_CONFIG", defaultConfig)
	return filepath.Clean(p)
}
