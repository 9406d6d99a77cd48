package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/samirrijal/streetpool/internal/adapters/backends"
	"github.com/samirrijal/streetpool/internal/adapters/http"
	natsadapter "github.com/samirrijal/streetpool/internal/adapters/nats"
	"github.com/samirrijal/streetpool/internal/core/ports"
	"github.com/samirrijal/streetpool/internal/core/usecases"
	"github.com/samirrijal/streetpool/internal/pkg/config"
	"github.com/samirrijal/streetpool/internal/pkg/logging"
	"github.com/samirrijal/streetpool/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("streetpool-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

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

	// NATS is optional: without it there is no event relay and no reload on rebuild.
	var publisher ports.EventPublisher
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable", "error", err)
	} else {
		defer pub.Close()
		publisher = pub
	}

	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	} else {
		defer natsConn.Close()
	}

	corpusSvc := usecases.NewCorpusService(set.CorpusStore())
	corpusSvc.Load(ctx)

	dailySvc := usecases.NewDailyService(set.DailyStore(), publisher)

	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats subscriber unavailable, corpus reload on rebuild disabled", "error", err)
	} else {
		defer sub.Close()
		if err := sub.SubscribeCorpusRebuilt(ctx, corpusSvc.HandleRebuilt); err != nil {
			slog.Warn("subscribe corpus rebuilt", "error", err)
		}
	}

	deps := &http.Dependencies{
		Corpus: corpusSvc,
		Daily:  dailySvc,
		NATS:   natsConn,
		DB:     set.DB,
		Cache:  set.Cache,
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    64 * 1024,
		AppName:      "Streetpool API",
		ErrorHandler: http.ErrorHandler,
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, If-None-Match",
		MaxAge:       3600,
	}))

	http.SetupRoutes(app, deps, http.DefaultRouterConfig)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "corpus_size", len(corpusSvc.Current()))
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
