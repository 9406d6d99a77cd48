package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/samirrijal/streetpool/internal/adapters/backends"
	natsadapter "github.com/samirrijal/streetpool/internal/adapters/nats"
	"github.com/samirrijal/streetpool/internal/adapters/streetview"
	"github.com/samirrijal/streetpool/internal/core/ports"
	"github.com/samirrijal/streetpool/internal/core/usecases"
	"github.com/samirrijal/streetpool/internal/pkg/config"
	"github.com/samirrijal/streetpool/internal/pkg/logging"
	"github.com/samirrijal/streetpool/internal/pkg/telemetry"
)

// acquire runs one acquisition pass and replaces the stored corpus.
// It exits 0 whether the target was reached or the attempt budget ran out.
func main() {
	cfg, err := config.Load("streetpool-acquire")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.RequireProbe(); err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Acquisition.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Acquisition.Deadline)
		defer cancel()
	}

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	set, err := backends.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("backends: %v", err)
	}
	defer set.Close()

	source, err := set.CandidateSource(ctx)
	if err != nil {
		log.Fatalf("places: %v", err)
	}

	var probe ports.ValidationProbe = streetview.NewProbe(streetview.Config{
		BaseURL:     cfg.StreetView.BaseURL,
		APIKey:      cfg.StreetView.APIKey,
		Timeout:     cfg.StreetView.Timeout,
		OutdoorOnly: cfg.StreetView.OutdoorOnly,
	})
	if set.Cache != nil && cfg.StreetView.VerdictCacheTTL > 0 {
		probe = streetview.NewCachedProbe(probe, set.Cache, cfg.StreetView.VerdictCacheTTL)
	}

	var publisher ports.EventPublisher
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable, events will not be published", "error", err)
	} else {
		defer pub.Close()
		publisher = pub
	}

	a := cfg.Acquisition
	svc, err := usecases.NewAcquisitionService(source, probe, set.CorpusStore(), publisher, usecases.AcquisitionConfig{
		Target:              a.Target,
		MaxAttempts:         a.MaxAttempts,
		Workers:             a.Workers,
		SubmitDelay:         a.SubmitDelay,
		FallbackProbability: a.FallbackProbability,
		Seed:                a.Seed,
		ProgressEvery:       a.ProgressEvery,
	})
	if err != nil {
		log.Fatalf("acquisition: %v", err)
	}

	slog.Info("acquisition starting",
		"target", a.Target,
		"max_attempts", a.MaxAttempts,
		"workers", a.Workers,
		"submit_delay", a.SubmitDelay.String(),
	)

	corpus, stats := svc.Run(ctx)

	slog.Info("acquisition done",
		"run_id", stats.RunID,
		"size", len(corpus),
		"target_reached", stats.TargetReached,
		"cancelled", ctx.Err() != nil,
	)
}
