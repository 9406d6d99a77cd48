package usecases

import (
	"context"
	"errors"
	"hash/fnv"
	"log/slog"
	"math/rand/v2"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/samirrijal/streetpool/internal/core/domain"
	"github.com/samirrijal/streetpool/internal/core/ports"
	"github.com/samirrijal/streetpool/internal/pkg/metrics"
)

// Region weights for daily draws: p < 0.5 Europe, p < 0.8 US, else Other.
const (
	europeCutoff = 0.5
	usCutoff     = 0.8
)

// DailyService draws the per-day location set and keeps it stable for the day.
type DailyService struct {
	store     ports.DailySelectionStore
	publisher ports.EventPublisher
	group     singleflight.Group
	now       func() time.Time
}

// NewDailyService creates a new DailyService. store and publisher may be nil;
// without a store every call recomputes from the date seed.
func NewDailyService(store ports.DailySelectionStore, publisher ports.EventPublisher) *DailyService {
	return &DailyService{store: store, publisher: publisher, now: time.Now}
}

// Today returns the UTC calendar date key for the current time.
func (s *DailyService) Today() string {
	return domain.DateKey(s.now().UTC())
}

// Select returns the selection for date. Without force, a stored selection is
// returned verbatim, otherwise one is drawn from a date-seeded generator and
// stored if absent. With force, a fresh random draw is returned and never stored.
// Store failures are logged and the in-memory result is returned.
func (s *DailyService) Select(ctx context.Context, corpus domain.Corpus, date string, force bool) (*domain.DailySelection, error) {
	if _, err := domain.ParseDate(date); err != nil {
		return nil, err
	}

	if force {
		metrics.DailySelections.WithLabelValues("forced").Inc()
		return &domain.DailySelection{Date: date, Entries: Draw(corpus, rand.Uint64())}, nil
	}

	v, _, _ := s.group.Do(date, func() (any, error) {
		return s.selectStored(ctx, corpus, date), nil
	})
	return v.(*domain.DailySelection), nil
}

func (s *DailyService) selectStored(ctx context.Context, corpus domain.Corpus, date string) *domain.DailySelection {
	if s.store != nil {
		sel, err := s.store.Get(ctx, date)
		switch {
		case err == nil:
			metrics.DailySelections.WithLabelValues("stored").Inc()
			return sel
		case !errors.Is(err, domain.ErrNotFound):
			slog.Warn("daily selection read failed", "date", date, "error", err)
		}
	}

	sel := &domain.DailySelection{Date: date, Entries: Draw(corpus, DateSeed(date))}
	metrics.DailySelections.WithLabelValues("computed").Inc()

	// An empty draw is not stored so the day can still be filled once a corpus loads.
	if len(sel.Entries) == 0 || s.store == nil {
		return sel
	}

	stored, err := s.store.PutIfAbsent(ctx, sel)
	if err != nil {
		slog.Warn("daily selection write failed", "date", date, "error", err)
		return sel
	}

	if s.publisher != nil {
		if err := s.publisher.PublishDailySelection(ctx, stored); err != nil {
			slog.Debug("publish daily selection", "date", date, "error", err)
		}
	}
	return stored
}

// DateSeed derives the generator seed for a date key.
func DateSeed(date string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(date))
	return h.Sum64()
}

// Draw picks domain.DailyEntries locations with replacement, weighting by
// region. An empty corpus yields an empty, non-nil slice.
func Draw(corpus domain.Corpus, seed uint64) []domain.Location {
	entries := make([]domain.Location, 0, domain.DailyEntries)
	if len(corpus) == 0 {
		return entries
	}

	pools := corpus.Partition()
	eu, us, other := pools[domain.RegionEurope], pools[domain.RegionUS], pools[domain.RegionOther]
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	for range domain.DailyEntries {
		var pool []domain.Location
		p := r.Float64()
		switch {
		case p < europeCutoff && len(eu) > 0:
			pool = eu
		case p < usCutoff && len(us) > 0:
			pool = us
		case len(other) > 0:
			pool = other
		case len(eu) > 0:
			pool = eu
		default:
			pool = us
		}
		entries = append(entries, pool[r.IntN(len(pool))].Normalize())
	}
	return entries
}
