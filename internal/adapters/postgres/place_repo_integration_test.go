//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/streetpool/internal/core/domain"
	"github.com/samirrijal/streetpool/internal/pkg/config"
)

// The schema must already be migrated.
func openTestDB(t *testing.T) *DB {
	t.Helper()
	cfg, err := config.Load("streetpool-test")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	db, err := New(ctx, cfg.Database, "streetpool-test")
	require.NoError(t, err)
	t.Cleanup(db.Close)
	return db
}

func TestPlaceRepo_SameSeedSameSequence(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	var places []domain.Place
	for i := range 40 {
		off := float64(i) / 10
		places = append(places, domain.Place{
			GeonameID: 9_000_000_000 + int64(i),
			Name:      "test",
			Location:  domain.GeoPoint{Lat: 30 + off, Lon: -10 + off},
		})
	}
	require.NoError(t, NewPlaceRepo(db, 1).UpsertBatch(ctx, places))
	t.Cleanup(func() {
		_, _ = db.Pool.Exec(context.Background(), `DELETE FROM places WHERE geoname_id >= 9000000000`)
	})

	draw := func(seed int64) []domain.GeoPoint {
		repo := NewPlaceRepo(db, seed)
		var out []domain.GeoPoint
		for range 10 {
			p, err := repo.SampleBiased(ctx, domain.SupercontinentBounds, 0.3)
			require.NoError(t, err)
			out = append(out, p)
		}
		return out
	}

	assert.Equal(t, draw(7), draw(7))
}

func TestPlaceRepo_EmptyBoundsNoCandidate(t *testing.T) {
	db := openTestDB(t)
	repo := NewPlaceRepo(db, 1)

	_, err := repo.SampleBiased(context.Background(), domain.Bounds{MinLat: -89.9, MinLon: -179.9, MaxLat: -89.8, MaxLon: -179.8}, 0)
	assert.ErrorIs(t, err, domain.ErrNoCandidate)
}
