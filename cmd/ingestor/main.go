package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/samirrijal/streetpool/internal/adapters/geonames"
	"github.com/samirrijal/streetpool/internal/adapters/postgres"
	"github.com/samirrijal/streetpool/internal/pkg/config"
	"github.com/samirrijal/streetpool/internal/pkg/logging"
)

const (
	batchSize   = 1000
	maxInFlight = 4
)

// ingestor loads a GeoNames dump or Natural Earth CSV into the places table.
// Usage: ingestor [path]   (defaults to places.path)
func main() {
	cfg, err := config.Load("streetpool-ingestor")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	path := cfg.Places.Path
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	ctx := context.Background()
	start := time.Now()

	places, err := geonames.LoadFile(path, cfg.Places.MinPopulation)
	if err != nil {
		log.Fatalf("read places: %v", err)
	}
	slog.Info("places read", "path", path, "count", len(places), "min_population", cfg.Places.MinPopulation)

	db, err := postgres.New(ctx, cfg.Database, cfg.Telemetry.ServiceName)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	repo := postgres.NewPlaceRepo(db, 0)

	var written atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxInFlight)

	for i := 0; i < len(places); i += batchSize {
		batch := places[i:min(i+batchSize, len(places))]
		g.Go(func() error {
			if err := repo.UpsertBatch(gctx, batch); err != nil {
				return err
			}
			n := written.Add(int64(len(batch)))
			slog.Debug("batch stored", "written", n, "total", len(places))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.Fatalf("upsert places: %v", err)
	}

	total, err := repo.Count(ctx)
	if err != nil {
		slog.Warn("count places", "error", err)
	}
	slog.Info("ingestion complete",
		"written", written.Load(),
		"table_size", total,
		"elapsed", time.Since(start).Round(time.Millisecond).String(),
	)
}
