package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"

	"github.com/samirrijal/streetpool/internal/core/domain"
	"github.com/samirrijal/streetpool/internal/core/ports"
	"github.com/samirrijal/streetpool/internal/pkg/metrics"
)

var tracer = otel.Tracer("github.com/samirrijal/streetpool/internal/core/usecases")

// AcquisitionConfig bounds a single pipeline run.
type AcquisitionConfig struct {
	Target              int
	MaxAttempts         int
	Workers             int
	SubmitDelay         time.Duration
	FallbackProbability float64

	// Seed drives heading generation. Zero picks a time-based seed.
	Seed int64

	// ProgressEvery publishes a progress event every N attempts. Zero disables.
	ProgressEvery int
}

func (c AcquisitionConfig) validate() error {
	switch {
	case c.Target <= 0:
		return fmt.Errorf("target must be positive, got %d", c.Target)
	case c.MaxAttempts <= 0:
		return fmt.Errorf("max attempts must be positive, got %d", c.MaxAttempts)
	case c.Workers <= 0:
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	case c.SubmitDelay < 0:
		return fmt.Errorf("submit delay must not be negative")
	case c.FallbackProbability < 0 || c.FallbackProbability > 1:
		return fmt.Errorf("fallback probability must be in [0,1], got %g", c.FallbackProbability)
	}
	return nil
}

// AcquisitionService samples candidate points and validates them concurrently
// until the corpus reaches its target or the attempt budget runs out.
type AcquisitionService struct {
	source    ports.CandidateSource
	probe     ports.ValidationProbe
	store     ports.CorpusStore
	publisher ports.EventPublisher
	cfg       AcquisitionConfig
}

// NewAcquisitionService creates a new AcquisitionService. store and publisher may be nil.
func NewAcquisitionService(
	source ports.CandidateSource,
	probe ports.ValidationProbe,
	store ports.CorpusStore,
	publisher ports.EventPublisher,
	cfg AcquisitionConfig,
) (*AcquisitionService, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("acquisition config: %w", err)
	}
	if cfg.MaxAttempts < cfg.Target {
		slog.Warn("attempt budget below target, corpus will be short",
			"target", cfg.Target, "max_attempts", cfg.MaxAttempts)
	}
	return &AcquisitionService{
		source:    source,
		probe:     probe,
		store:     store,
		publisher: publisher,
		cfg:       cfg,
	}, nil
}

type probeResult struct {
	point      domain.CandidatePoint
	validation domain.Validation
	panicked   any
}

// Run executes the pipeline, persists the corpus and publishes the final stats.
// Failing to persist or publish is logged and does not fail the run.
func (s *AcquisitionService) Run(ctx context.Context) (domain.Corpus, domain.AcquisitionStats) {
	corpus, stats := s.Collect(ctx)

	if s.store != nil {
		if err := s.store.Save(context.WithoutCancel(ctx), corpus); err != nil {
			slog.Warn("corpus save failed, result kept in memory only", "error", err, "size", len(corpus))
		} else {
			slog.Info("corpus saved", "size", len(corpus))
		}
	}
	if s.publisher != nil {
		if err := s.publisher.PublishCorpusRebuilt(context.WithoutCancel(ctx), stats); err != nil {
			slog.Warn("publish corpus rebuilt", "error", err)
		}
	}
	return corpus, stats
}

// Collect runs sampling and validation without persisting anything.
//
// A single coordinator goroutine owns the corpus and the stats. Probes run on
// at most cfg.Workers goroutines and report through a channel sized so they
// never block. Cancelling ctx stops new submissions; in-flight probes are
// always drained before Collect returns. Probes do not inherit ctx's
// cancellation; each one is bounded by the probe's own timeout.
func (s *AcquisitionService) Collect(ctx context.Context) (domain.Corpus, domain.AcquisitionStats) {
	ctx, span := tracer.Start(ctx, "acquisition.collect")
	defer span.End()

	start := time.Now()
	rng := newRand(s.cfg.Seed)

	limit := rate.Inf
	if s.cfg.SubmitDelay > 0 {
		limit = rate.Every(s.cfg.SubmitDelay)
	}
	limiter := rate.NewLimiter(limit, 1)

	probeCtx := context.WithoutCancel(ctx)
	results := make(chan probeResult, s.cfg.Workers)
	corpus := make(domain.Corpus, 0, s.cfg.Target)
	seen := make(map[string]struct{}, s.cfg.Target)
	stats := domain.AcquisitionStats{RunID: uuid.NewString(), Target: s.cfg.Target}
	inflight := 0

	record := func(r probeResult) {
		inflight--
		metrics.AcquisitionInflight.Set(float64(inflight))
		metrics.AcquisitionVerdicts.WithLabelValues(r.validation.Verdict.String()).Inc()

		switch r.validation.Verdict {
		case domain.VerdictValid:
			loc := domain.NewLocation(r.point, r.validation.Classification)
			if _, dup := seen[loc.Key()]; dup {
				stats.Duplicates++
				return
			}
			if len(corpus) >= s.cfg.Target {
				stats.Surplus++
				return
			}
			seen[loc.Key()] = struct{}{}
			corpus = append(corpus, loc)
			stats.Successes++
		case domain.VerdictFault:
			stats.Failures++
			slog.Error("validation task crashed", "lat", r.point.Lat, "lon", r.point.Lon, "panic", r.panicked)
		default:
			stats.Failures++
		}
	}

	drain := func() {
		for {
			select {
			case r := <-results:
				record(r)
			default:
				return
			}
		}
	}

loop:
	for len(corpus) < s.cfg.Target && stats.Attempts < s.cfg.MaxAttempts {
		drain()
		if len(corpus) >= s.cfg.Target {
			break
		}

		if inflight >= s.cfg.Workers {
			select {
			case r := <-results:
				record(r)
				continue
			case <-ctx.Done():
				break loop
			}
		}

		if err := limiter.Wait(ctx); err != nil {
			break
		}

		stats.Attempts++
		metrics.AcquisitionAttempts.Inc()

		pt, err := s.sample(ctx, rng)
		if err != nil {
			stats.Skipped++
			slog.Debug("attempt skipped", "attempt", stats.Attempts, "error", err)
			s.progress(ctx, stats, start)
			continue
		}

		inflight++
		metrics.AcquisitionInflight.Set(float64(inflight))
		go s.validate(probeCtx, pt, results)

		s.progress(ctx, stats, start)
	}

	for inflight > 0 {
		record(<-results)
	}

	stats.Elapsed = time.Since(start)
	stats.TargetReached = len(corpus) >= s.cfg.Target
	metrics.CorpusSize.Set(float64(len(corpus)))

	span.SetAttributes(
		attribute.String("acquisition.run_id", stats.RunID),
		attribute.Int("acquisition.attempts", stats.Attempts),
		attribute.Int("acquisition.successes", stats.Successes),
		attribute.Int("acquisition.failures", stats.Failures),
		attribute.Bool("acquisition.target_reached", stats.TargetReached),
	)

	level := slog.LevelInfo
	if !stats.TargetReached {
		level = slog.LevelWarn
	}
	slog.Log(ctx, level, "acquisition finished",
		"run_id", stats.RunID,
		"target", stats.Target,
		"size", len(corpus),
		"attempts", stats.Attempts,
		"successes", stats.Successes,
		"failures", stats.Failures,
		"duplicates", stats.Duplicates,
		"surplus", stats.Surplus,
		"skipped", stats.Skipped,
		"elapsed", stats.Elapsed.Round(time.Millisecond).String(),
		"throughput", fmt.Sprintf("%.2f/s", stats.Throughput()),
		"target_reached", stats.TargetReached,
	)

	return corpus, stats
}

// sample draws a biased point, falling back to the unrestricted set when the
// supercontinent filter yields nothing.
func (s *AcquisitionService) sample(ctx context.Context, rng *rand.Rand) (domain.CandidatePoint, error) {
	p, err := s.source.SampleBiased(ctx, domain.SupercontinentBounds, s.cfg.FallbackProbability)
	if errors.Is(err, domain.ErrNoCandidate) {
		p, err = s.source.Sample(ctx)
	}
	if err != nil {
		return domain.CandidatePoint{}, err
	}
	return domain.CandidatePoint{Lat: p.Lat, Lon: p.Lon, Heading: rng.IntN(360)}, nil
}

func (s *AcquisitionService) validate(ctx context.Context, pt domain.CandidatePoint, out chan<- probeResult) {
	res := probeResult{point: pt}
	defer func() {
		if r := recover(); r != nil {
			res.validation = domain.Validation{Verdict: domain.VerdictFault}
			res.panicked = r
		}
		out <- res
	}()
	res.validation = s.probe.Validate(ctx, pt.Lat, pt.Lon)
}

func (s *AcquisitionService) progress(ctx context.Context, stats domain.AcquisitionStats, start time.Time) {
	if s.cfg.ProgressEvery <= 0 || stats.Attempts%s.cfg.ProgressEvery != 0 {
		return
	}
	stats.Elapsed = time.Since(start)
	slog.Info("acquisition progress",
		"run_id", stats.RunID,
		"attempts", stats.Attempts,
		"successes", stats.Successes,
		"failures", stats.Failures,
		"target", stats.Target,
	)
	if s.publisher != nil {
		if err := s.publisher.PublishProgress(ctx, stats); err != nil {
			slog.Debug("publish progress", "error", err)
		}
	}
}

func newRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)>>1|1))
}
