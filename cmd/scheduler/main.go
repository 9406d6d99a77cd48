package main

import (
	"context"
	"log"
	"log/slog"

	"go.temporal.io/sdk/client"
	tlog "go.temporal.io/sdk/log"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/samirrijal/streetpool/internal/adapters/backends"
	natsadapter "github.com/samirrijal/streetpool/internal/adapters/nats"
	"github.com/samirrijal/streetpool/internal/core/ports"
	"github.com/samirrijal/streetpool/internal/core/usecases"
	"github.com/samirrijal/streetpool/internal/pkg/config"
	"github.com/samirrijal/streetpool/internal/pkg/logging"
	"github.com/samirrijal/streetpool/internal/workflows"
)

const rolloverWorkflowID = "streetpool-daily-rollover"

// scheduler runs the Temporal worker for the daily rollover and makes sure
// the cron workflow is started.
func main() {
	cfg, err := config.Load("streetpool-scheduler")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx := context.Background()

	set, err := backends.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("backends: %v", err)
	}
	defer set.Close()

	var publisher ports.EventPublisher
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable, daily selections will not be announced", "error", err)
	} else {
		defer pub.Close()
		publisher = pub
	}

	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
		Logger:    tlog.NewStructuredLogger(logger),
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(workflows.DailyRolloverWorkflow, workflow.RegisterOptions{
		Name: workflows.DailyRolloverWorkflowName,
	})
	w.RegisterActivity(&workflows.DailyActivities{
		Corpus: usecases.NewCorpusService(set.CorpusStore()),
		Daily:  usecases.NewDailyService(set.DailyStore(), publisher),
	})

	// Starting an already running cron workflow returns the existing run.
	run, err := c.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:           rolloverWorkflowID,
		TaskQueue:    cfg.Temporal.TaskQueue,
		CronSchedule: cfg.Temporal.Cron,
	}, workflows.DailyRolloverWorkflowName, workflows.DailyRolloverInput{Days: cfg.Temporal.LookaheadDays})
	if err != nil {
		log.Fatalf("start rollover workflow: %v", err)
	}
	slog.Info("rollover workflow scheduled",
		"workflow_id", run.GetID(),
		"run_id", run.GetRunID(),
		"cron", cfg.Temporal.Cron,
	)

	slog.Info("scheduler worker started", "task_queue", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
