package memory

import (
	"context"
	"sync"

	"github.com/samirrijal/streetpool/internal/core/domain"
)

// DailyStore implements ports.DailySelectionStore in process memory.
type DailyStore struct {
	mu   sync.RWMutex
	data map[string]*domain.DailySelection
}

func NewDailyStore() *DailyStore {
	return &DailyStore{data: make(map[string]*domain.DailySelection)}
}

func (s *DailyStore) Get(_ context.Context, date string) (*domain.DailySelection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sel, ok := s.data[date]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return sel, nil
}

func (s *DailyStore) PutIfAbsent(_ context.Context, sel *domain.DailySelection) (*domain.DailySelection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.data[sel.Date]; ok {
		return existing, nil
	}
	s.data[sel.Date] = sel
	return sel, nil
}
