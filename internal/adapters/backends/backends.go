// Package backends opens the storage and sampling backends selected in
// configuration and hands them out behind the core ports.
package backends

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samirrijal/streetpool/internal/adapters/filestore"
	"github.com/samirrijal/streetpool/internal/adapters/geonames"
	"github.com/samirrijal/streetpool/internal/adapters/memory"
	"github.com/samirrijal/streetpool/internal/adapters/postgres"
	"github.com/samirrijal/streetpool/internal/adapters/valkey"
	"github.com/samirrijal/streetpool/internal/core/ports"
	"github.com/samirrijal/streetpool/internal/pkg/config"
)

// Set holds the connections opened for one command. Either may be nil.
type Set struct {
	DB    *postgres.DB
	Cache *valkey.Cache

	cfg *config.Config
}

// Open connects to Postgres when any backend needs it and to Valkey when
// possible. Valkey is only mandatory for the valkey daily backend.
func Open(ctx context.Context, cfg *config.Config) (*Set, error) {
	s := &Set{cfg: cfg}

	if cfg.UsesPostgres() {
		db, err := postgres.New(ctx, cfg.Database, cfg.Telemetry.ServiceName)
		if err != nil {
			return nil, fmt.Errorf("database: %w", err)
		}
		s.DB = db
	}

	cache, err := valkey.New(cfg.Valkey.Addr)
	switch {
	case err == nil:
		s.Cache = cache
	case cfg.Storage.DailyBackend == config.BackendValkey:
		s.Close()
		return nil, fmt.Errorf("valkey: %w", err)
	default:
		slog.Warn("valkey unavailable", "addr", cfg.Valkey.Addr, "error", err)
	}

	return s, nil
}

// Close releases every open connection.
func (s *Set) Close() {
	if s.DB != nil {
		s.DB.Close()
	}
	if s.Cache != nil {
		s.Cache.Close()
	}
}

// CorpusStore returns the configured corpus store.
func (s *Set) CorpusStore() ports.CorpusStore {
	if s.cfg.Storage.Backend == config.BackendPostgres {
		return postgres.NewCorpusRepo(s.DB)
	}
	return filestore.NewCorpusFile(s.cfg.Storage.CorpusPath)
}

// DailyStore returns the configured daily selection store.
func (s *Set) DailyStore() ports.DailySelectionStore {
	switch s.cfg.Storage.DailyBackend {
	case config.BackendPostgres:
		return postgres.NewDailyRepo(s.DB)
	case config.BackendValkey:
		return valkey.NewDailyStore(s.Cache.Client(), s.cfg.Storage.DailyTTL)
	case config.BackendMemory:
		return memory.NewDailyStore()
	default:
		return filestore.NewDailyDir(s.cfg.Storage.DailyDir)
	}
}

// CandidateSource returns the configured populated-places source. The file
// backend reads the whole dataset into memory.
func (s *Set) CandidateSource(ctx context.Context) (ports.CandidateSource, error) {
	if s.cfg.Places.Backend == config.BackendPostgres {
		repo := postgres.NewPlaceRepo(s.DB, s.cfg.Acquisition.Seed)
		n, err := repo.Count(ctx)
		if err != nil {
			return nil, fmt.Errorf("count places: %w", err)
		}
		slog.Info("places loaded", "backend", config.BackendPostgres, "count", n)
		return repo, nil
	}

	places, err := geonames.LoadFile(s.cfg.Places.Path, s.cfg.Places.MinPopulation)
	if err != nil {
		return nil, fmt.Errorf("load places: %w", err)
	}
	slog.Info("places loaded", "backend", config.BackendFile, "path", s.cfg.Places.Path, "count", len(places))
	return geonames.NewSource(places, s.cfg.Acquisition.Seed), nil
}
