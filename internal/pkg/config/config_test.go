package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("streetpool-test")
	require.NoError(t, err)

	assert.Equal(t, 1000, cfg.Acquisition.Target)
	assert.Equal(t, 100*time.Millisecond, cfg.Acquisition.SubmitDelay)
	assert.Equal(t, time.Duration(0), cfg.Storage.DailyTTL, "daily selections never expire by default")
	assert.Equal(t, "streetpool-test", cfg.Telemetry.ServiceName)
}

func TestLoad_BudgetBelowTargetAccepted(t *testing.T) {
	t.Setenv("STREETPOOL_ACQUISITION_TARGET", "500")
	t.Setenv("STREETPOOL_ACQUISITION_MAX_ATTEMPTS", "100")

	cfg, err := Load("streetpool-test")
	require.NoError(t, err)
	assert.Equal(t, 500, cfg.Acquisition.Target)
	assert.Equal(t, 100, cfg.Acquisition.MaxAttempts)
}

func TestValidate_RejectsBadAcquisition(t *testing.T) {
	cfg, err := Load("streetpool-test")
	require.NoError(t, err)

	cfg.Acquisition.MaxAttempts = 0
	cfg.Acquisition.Workers = 300
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "acquisition.max_attempts must be positive")
	assert.Contains(t, err.Error(), "acquisition.workers must be 1-256")
}

func TestValidate_DailyBackendEnum(t *testing.T) {
	cfg, err := Load("streetpool-test")
	require.NoError(t, err)

	cfg.Storage.DailyBackend = "s3"
	assert.ErrorContains(t, cfg.Validate(), "storage.daily_backend")
}
