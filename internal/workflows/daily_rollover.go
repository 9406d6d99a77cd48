package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/samirrijal/streetpool/internal/core/domain"
)

// DailyRolloverWorkflowName is the registered workflow type.
const DailyRolloverWorkflowName = "DailyRolloverWorkflow"

// DailyRolloverInput is the input for the rollover workflow.
type DailyRolloverInput struct {
	// Days is how many consecutive days, starting with the current UTC day,
	// get a stored selection. Values below 1 mean 1.
	Days int
}

// DailyRolloverResult reports what each run ensured.
type DailyRolloverResult struct {
	CorpusSize int
	Dates      []string
}

// DailyRolloverWorkflow reloads the corpus and makes sure the selection for
// the current UTC day (and any lookahead days) is stored and announced.
// It is meant to run on a cron schedule shortly after midnight UTC.
func DailyRolloverWorkflow(ctx workflow.Context, input DailyRolloverInput) (DailyRolloverResult, error) {
	logger := workflow.GetLogger(ctx)

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval: 5 * time.Second,
			MaximumAttempts: 3,
		},
	})

	var result DailyRolloverResult
	if err := workflow.ExecuteActivity(ctx, "LoadCorpus").Get(ctx, &result.CorpusSize); err != nil {
		return result, err
	}
	if result.CorpusSize == 0 {
		logger.Warn("corpus empty, no selection stored")
		return result, nil
	}

	days := max(input.Days, 1)
	today := workflow.Now(ctx).UTC()
	for i := range days {
		date := domain.DateKey(today.AddDate(0, 0, i))

		var entries int
		if err := workflow.ExecuteActivity(ctx, "EnsureDaily", date).Get(ctx, &entries); err != nil {
			return result, err
		}
		result.Dates = append(result.Dates, date)
		logger.Info("daily selection ensured", "date", date, "entries", entries)
	}
	return result, nil
}
