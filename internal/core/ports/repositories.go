package ports

import (
	"context"

	"github.com/samirrijal/streetpool/internal/core/domain"
)

// CorpusStore persists the full corpus as a single artifact.
type CorpusStore interface {
	// Save replaces any previously stored corpus.
	Save(ctx context.Context, corpus domain.Corpus) error
	// Load returns the stored corpus. A missing artifact yields an empty
	// corpus and a nil error.
	Load(ctx context.Context) (domain.Corpus, error)
}

// DailySelectionStore is a date-keyed store with compute-if-absent semantics.
type DailySelectionStore interface {
	// Get returns the selection for date or domain.ErrNotFound.
	Get(ctx context.Context, date string) (*domain.DailySelection, error)
	// PutIfAbsent stores sel unless a selection already exists for its date.
	// It returns whichever selection is stored after the call.
	PutIfAbsent(ctx context.Context, sel *domain.DailySelection) (*domain.DailySelection, error)
}

// PlaceRepository persists the populated-places corpus used for sampling.
type PlaceRepository interface {
	UpsertBatch(ctx context.Context, places []domain.Place) error
	Count(ctx context.Context) (int, error)
}
