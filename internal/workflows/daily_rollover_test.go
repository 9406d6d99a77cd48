package workflows_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/testsuite"

	"github.com/samirrijal/streetpool/internal/adapters/memory"
	"github.com/samirrijal/streetpool/internal/core/domain"
	"github.com/samirrijal/streetpool/internal/core/usecases"
	"github.com/samirrijal/streetpool/internal/workflows"
)

type staticCorpusStore struct{ corpus domain.Corpus }

func (s *staticCorpusStore) Save(context.Context, domain.Corpus) error { return nil }
func (s *staticCorpusStore) Load(context.Context) (domain.Corpus, error) {
	return s.corpus, nil
}

func newEnv(t *testing.T, corpus domain.Corpus) (*testsuite.TestWorkflowEnvironment, *memory.DailyStore) {
	t.Helper()
	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestWorkflowEnvironment()
	env.SetStartTime(time.Date(2024, 6, 1, 0, 5, 0, 0, time.UTC))

	store := memory.NewDailyStore()
	env.RegisterWorkflow(workflows.DailyRolloverWorkflow)
	env.RegisterActivity(&workflows.DailyActivities{
		Corpus: usecases.NewCorpusService(&staticCorpusStore{corpus: corpus}),
		Daily:  usecases.NewDailyService(store, nil),
	})
	return env, store
}

func TestDailyRollover_StoresTodayAndLookahead(t *testing.T) {
	corpus := domain.Corpus{
		{Lat: 40, Lon: -100}, {Lat: 48, Lon: 2}, {Lat: -33, Lon: 151},
	}
	env, store := newEnv(t, corpus)

	env.ExecuteWorkflow(workflows.DailyRolloverWorkflow, workflows.DailyRolloverInput{Days: 2})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var result workflows.DailyRolloverResult
	require.NoError(t, env.GetWorkflowResult(&result))
	assert.Equal(t, 3, result.CorpusSize)
	assert.Equal(t, []string{"2024-06-01", "2024-06-02"}, result.Dates)

	for _, date := range result.Dates {
		sel, err := store.Get(context.Background(), date)
		require.NoError(t, err)
		assert.Len(t, sel.Entries, domain.DailyEntries)
	}
}

func TestDailyRollover_KeepsExistingSelection(t *testing.T) {
	env, store := newEnv(t, domain.Corpus{{Lat: 48, Lon: 2}})
	existing := &domain.DailySelection{Date: "2024-06-01", Entries: []domain.Location{domain.FallbackLocation}}
	_, err := store.PutIfAbsent(context.Background(), existing)
	require.NoError(t, err)

	env.ExecuteWorkflow(workflows.DailyRolloverWorkflow, workflows.DailyRolloverInput{})
	require.NoError(t, env.GetWorkflowError())

	sel, err := store.Get(context.Background(), "2024-06-01")
	require.NoError(t, err)
	assert.Equal(t, existing.Entries, sel.Entries)
}

func TestDailyRollover_EmptyCorpusStoresNothing(t *testing.T) {
	env, store := newEnv(t, domain.Corpus{})

	env.ExecuteWorkflow(workflows.DailyRolloverWorkflow, workflows.DailyRolloverInput{Days: 1})
	require.NoError(t, env.GetWorkflowError())

	var result workflows.DailyRolloverResult
	require.NoError(t, env.GetWorkflowResult(&result))
	assert.Empty(t, result.Dates)

	_, err := store.Get(context.Background(), "2024-06-01")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
