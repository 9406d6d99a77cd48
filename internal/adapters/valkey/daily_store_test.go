package valkey

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valkey-io/valkey-go"

	"github.com/samirrijal/streetpool/internal/core/domain"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, valkey.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress:  []string{mr.Addr()},
		DisableCache: true,
	})
	require.NoError(t, err)
	t.Cleanup(client.Close)
	return mr, client
}

func TestDailyStore_PutIfAbsent(t *testing.T) {
	ctx := context.Background()
	_, client := newTestClient(t)
	s := NewDailyStore(client, 0)

	_, err := s.Get(ctx, "2024-05-01")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	first := &domain.DailySelection{Date: "2024-05-01", Entries: []domain.Location{{Lat: 48.8, Lon: 2.3, Region: domain.RegionEurope}}}
	got, err := s.PutIfAbsent(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, first, got)

	second := &domain.DailySelection{Date: "2024-05-01", Entries: []domain.Location{{Lat: 40, Lon: -74, Region: domain.RegionUS}}}
	got, err = s.PutIfAbsent(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, first, got, "first writer wins")

	got, err = s.Get(ctx, "2024-05-01")
	require.NoError(t, err)
	assert.Equal(t, first, got)
}

func TestDailyStore_NoTTLKeepsSelection(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestClient(t)
	s := NewDailyStore(client, 0)

	first := &domain.DailySelection{Date: "2024-03-01", Entries: []domain.Location{{Lat: 48.8, Lon: 2.3}}}
	_, err := s.PutIfAbsent(ctx, first)
	require.NoError(t, err)

	mr.FastForward(73 * time.Hour)

	got, err := s.PutIfAbsent(ctx, &domain.DailySelection{Date: "2024-03-01", Entries: []domain.Location{{Lat: 40, Lon: -74}}})
	require.NoError(t, err)
	assert.Equal(t, first, got)
	assert.Equal(t, time.Duration(0), mr.TTL(dailyKeyPrefix+"2024-03-01"))
}

func TestDailyStore_TTLApplied(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestClient(t)
	s := NewDailyStore(client, time.Hour)

	_, err := s.PutIfAbsent(ctx, &domain.DailySelection{Date: "2024-03-02", Entries: []domain.Location{{Lat: 1, Lon: 2}}})
	require.NoError(t, err)
	assert.Equal(t, time.Hour, mr.TTL(dailyKeyPrefix+"2024-03-02"))
}

func TestDailyStore_MalformedValue(t *testing.T) {
	mr, client := newTestClient(t)
	require.NoError(t, mr.Set(dailyKeyPrefix+"2024-03-03", "{not json"))

	_, err := NewDailyStore(client, 0).Get(context.Background(), "2024-03-03")
	assert.ErrorIs(t, err, domain.ErrMalformed)
}
