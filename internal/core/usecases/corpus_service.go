package usecases

import (
	"context"
	"log/slog"
	"sync"

	"github.com/samirrijal/streetpool/internal/core/domain"
	"github.com/samirrijal/streetpool/internal/core/ports"
	"github.com/samirrijal/streetpool/internal/pkg/metrics"
)

// CorpusService owns the corpus loaded by readers. It is loaded once at
// start-up and replaced wholesale when a rebuild is announced.
type CorpusService struct {
	store ports.CorpusStore

	mu     sync.RWMutex
	corpus domain.Corpus
}

// NewCorpusService creates a new CorpusService with an empty corpus.
func NewCorpusService(store ports.CorpusStore) *CorpusService {
	return &CorpusService{store: store}
}

// Load reads the stored corpus and makes it current. A read failure leaves
// an empty corpus in place and is only logged.
func (s *CorpusService) Load(ctx context.Context) domain.Corpus {
	corpus, err := s.store.Load(ctx)
	if err != nil {
		slog.Warn("corpus load failed, serving empty corpus", "error", err)
		corpus = domain.Corpus{}
	}
	s.Replace(corpus)
	slog.Info("corpus loaded", "size", len(corpus))
	return corpus
}

// Replace swaps in a new corpus.
func (s *CorpusService) Replace(corpus domain.Corpus) {
	s.mu.Lock()
	s.corpus = corpus
	s.mu.Unlock()
	metrics.CorpusSize.Set(float64(len(corpus)))
}

// Current returns the current corpus. Callers must not modify it.
func (s *CorpusService) Current() domain.Corpus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.corpus
}

// Stats returns region and classification counts for the current corpus.
func (s *CorpusService) Stats() domain.CorpusStats {
	return s.Current().Stats()
}

// Page returns up to limit locations starting at offset, plus the total size.
func (s *CorpusService) Page(offset, limit int) ([]domain.Location, int) {
	c := s.Current()
	total := len(c)
	if offset < 0 {
		offset = 0
	}
	if offset >= total {
		return []domain.Location{}, total
	}
	end := min(offset+limit, total)
	page := make([]domain.Location, 0, end-offset)
	for _, loc := range c[offset:end] {
		page = append(page, loc.Normalize())
	}
	return page, total
}

// HandleRebuilt reloads the corpus after an acquisition run finished.
func (s *CorpusService) HandleRebuilt(ctx context.Context, stats domain.AcquisitionStats) error {
	slog.Info("corpus rebuilt, reloading", "attempts", stats.Attempts, "successes", stats.Successes)
	s.Load(ctx)
	return nil
}
