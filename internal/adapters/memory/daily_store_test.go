package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/streetpool/internal/core/domain"
)

func TestDailyStore_PutIfAbsent(t *testing.T) {
	ctx := context.Background()
	s := NewDailyStore()

	_, err := s.Get(ctx, "2024-05-01")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	first := &domain.DailySelection{Date: "2024-05-01", Entries: []domain.Location{{Lat: 1, Lon: 2}}}
	got, err := s.PutIfAbsent(ctx, first)
	require.NoError(t, err)
	assert.Same(t, first, got)

	second := &domain.DailySelection{Date: "2024-05-01", Entries: []domain.Location{{Lat: 3, Lon: 4}}}
	got, err = s.PutIfAbsent(ctx, second)
	require.NoError(t, err)
	assert.Same(t, first, got, "first writer wins")

	got, err = s.Get(ctx, "2024-05-01")
	require.NoError(t, err)
	assert.Equal(t, first, got)
}
