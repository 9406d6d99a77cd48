package workflows

import (
	"context"
	"fmt"

	"github.com/samirrijal/streetpool/internal/core/usecases"
)

// DailyActivities holds the activity implementations for the rollover workflow.
type DailyActivities struct {
	Corpus *usecases.CorpusService
	Daily  *usecases.DailyService
}

// LoadCorpus reloads the stored corpus and returns its size.
func (a *DailyActivities) LoadCorpus(ctx context.Context) (int, error) {
	return len(a.Corpus.Load(ctx)), nil
}

// EnsureDaily computes the selection for date if none is stored yet and
// returns the number of entries served for it.
func (a *DailyActivities) EnsureDaily(ctx context.Context, date string) (int, error) {
	sel, err := a.Daily.Select(ctx, a.Corpus.Current(), date, false)
	if err != nil {
		return 0, fmt.Errorf("select %s: %w", date, err)
	}
	return len(sel.Entries), nil
}
