package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/streetpool/internal/pkg/config"
)

func testDatabaseConfig() config.DatabaseConfig {
	return config.DatabaseConfig{
		Host: "localhost", Port: 5432, User: "streetpool", DBName: "streetpool", SSLMode: "disable",
	}
}

func TestPoolConfig_Defaults(t *testing.T) {
	pcfg, err := poolConfig(testDatabaseConfig(), "")
	require.NoError(t, err)

	assert.Equal(t, int32(defaultMaxConns), pcfg.MaxConns)
	assert.Equal(t, "localhost", pcfg.ConnConfig.Host)
	assert.Equal(t, uint16(5432), pcfg.ConnConfig.Port)
	_, ok := pcfg.ConnConfig.RuntimeParams["application_name"]
	assert.False(t, ok)
}

func TestPoolConfig_Tuning(t *testing.T) {
	cfg := testDatabaseConfig()
	cfg.MaxConns = 4
	cfg.MinConns = 10
	cfg.MaxConnIdleTime = time.Minute

	pcfg, err := poolConfig(cfg, "streetpool-acquire")
	require.NoError(t, err)

	assert.Equal(t, int32(4), pcfg.MaxConns)
	assert.Equal(t, int32(4), pcfg.MinConns, "min conns capped at max conns")
	assert.Equal(t, time.Minute, pcfg.MaxConnIdleTime)
	assert.Equal(t, "streetpool-acquire", pcfg.ConnConfig.RuntimeParams["application_name"])
}

func TestPlaceRepo_SeededDrawsRepeat(t *testing.T) {
	a := NewPlaceRepo(nil, 42)
	b := NewPlaceRepo(nil, 42)
	c := NewPlaceRepo(nil, 43)

	differ := false
	for i := 0; i < 8; i++ {
		x, y, z := a.float(), b.float(), c.float()
		assert.Equal(t, x, y)
		assert.GreaterOrEqual(t, x, 0.0)
		assert.Less(t, x, 1.0)
		if x != z {
			differ = true
		}
	}
	assert.True(t, differ, "different seeds give different draws")
}
