package filestore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/streetpool/internal/core/domain"
)

func TestCorpusFile_RoundTrip(t *testing.T) {
	ctx := context.Background()
	f := NewCorpusFile(filepath.Join(t.TempDir(), "streetview_locations.json"))

	corpus := domain.Corpus{
		domain.NewLocation(domain.CandidatePoint{Lat: 40.7, Lon: -74.0, Heading: 90}, domain.ClassificationOutdoor),
		domain.NewLocation(domain.CandidatePoint{Lat: 48.85, Lon: 2.29, Heading: 10}, domain.ClassificationOutdoor),
	}
	require.NoError(t, f.Save(ctx, corpus))

	got, err := f.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, corpus, got)
}

func TestCorpusFile_SaveOverwrites(t *testing.T) {
	ctx := context.Background()
	f := NewCorpusFile(filepath.Join(t.TempDir(), "corpus.json"))

	require.NoError(t, f.Save(ctx, domain.Corpus{{Lat: 1, Lon: 1}, {Lat: 2, Lon: 2}}))
	require.NoError(t, f.Save(ctx, domain.Corpus{{Lat: 3, Lon: 3}}))

	got, err := f.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 3.0, got[0].Lat)
}

func TestCorpusFile_MissingIsEmpty(t *testing.T) {
	f := NewCorpusFile(filepath.Join(t.TempDir(), "nope.json"))
	got, err := f.Load(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestCorpusFile_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"lat":`), 0o644))

	_, err := NewCorpusFile(path).Load(context.Background())
	assert.ErrorIs(t, err, domain.ErrMalformed)
}

func TestCorpusFile_LegacyRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"lat":40.0,"lon":-74.0,"heading":45}]`), 0o644))

	got, err := NewCorpusFile(path).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, domain.RegionUS, got[0].Region)
	assert.Equal(t, domain.ClassificationUnknown, got[0].Classification)
}

func TestDailyDir_ComputeIfAbsent(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	d := NewDailyDir(dir)

	_, err := d.Get(ctx, "2024-06-01")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	first := &domain.DailySelection{Date: "2024-06-01", Entries: []domain.Location{
		{Lat: 48.8, Lon: 2.3, Heading: 1, Region: domain.RegionEurope, Classification: domain.ClassificationOutdoor},
	}}
	got, err := d.PutIfAbsent(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, first, got)
	assert.FileExists(t, filepath.Join(dir, "daily_locations_2024-06-01.json"))

	second := &domain.DailySelection{Date: "2024-06-01", Entries: []domain.Location{{Lat: 1, Lon: 1}}}
	got, err = d.PutIfAbsent(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, first, got, "stored selection is kept")

	got, err = d.Get(ctx, "2024-06-01")
	require.NoError(t, err)
	assert.Equal(t, first, got)
}

func TestDailyDir_RejectsBadDate(t *testing.T) {
	d := NewDailyDir(t.TempDir())
	_, err := d.Get(context.Background(), "../../etc/passwd")
	assert.Error(t, err)
	_, err = d.PutIfAbsent(context.Background(), &domain.DailySelection{Date: "x"})
	assert.Error(t, err)
}

func TestDailyDir_Malformed(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "daily_locations_2024-06-02.json"), []byte("not json"), 0o644))

	_, err := NewDailyDir(dir).Get(context.Background(), "2024-06-02")
	assert.ErrorIs(t, err, domain.ErrMalformed)
}
