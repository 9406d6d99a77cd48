package domain_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/streetpool/internal/core/domain"
)

func TestNewLocation(t *testing.T) {
	loc := domain.NewLocation(domain.CandidatePoint{Lat: 40.12345678, Lon: -74.98765432, Heading: 270}, "")

	assert.Equal(t, 40.123457, loc.Lat)
	assert.Equal(t, -74.987654, loc.Lon)
	assert.Equal(t, 270, loc.Heading)
	assert.Equal(t, domain.RegionUS, loc.Region)
	assert.Equal(t, domain.ClassificationUnknown, loc.Classification)
}

func TestLocation_LegacyRecordNormalized(t *testing.T) {
	var loc domain.Location
	require.NoError(t, json.Unmarshal([]byte(`{"lat":48.8566,"lon":2.3522,"heading":90}`), &loc))

	loc = loc.Normalize()
	assert.Equal(t, domain.RegionEurope, loc.Region)
	assert.Equal(t, domain.ClassificationUnknown, loc.Classification)
}

func TestCoordKey(t *testing.T) {
	assert.Equal(t, domain.CoordKey(1.0000001, 2), domain.CoordKey(1.0000004, 2))
	assert.NotEqual(t, domain.CoordKey(1.000001, 2), domain.CoordKey(1.000002, 2))
}

func TestCorpus_Partition(t *testing.T) {
	c := domain.Corpus{
		{Lat: 40, Lon: -74},
		{Lat: 48.8, Lon: 2.3},
		{Lat: 41, Lon: -75},
		{Lat: -33.9, Lon: 151.2, Region: domain.RegionEurope}, // stale label is ignored
	}
	p := c.Partition()

	assert.Len(t, p[domain.RegionUS], 2)
	assert.Len(t, p[domain.RegionEurope], 1)
	assert.Len(t, p[domain.RegionOther], 1)
	assert.Equal(t, 41.0, p[domain.RegionUS][1].Lat, "order within a region is preserved")
}

func TestDateKey(t *testing.T) {
	d := time.Date(2024, 2, 29, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, "2024-02-29", domain.DateKey(d))

	_, err := domain.ParseDate("2024-02-30")
	assert.Error(t, err)
}

func TestVerdictString(t *testing.T) {
	assert.Equal(t, "valid", domain.VerdictValid.String())
	assert.Equal(t, "invalid", domain.VerdictInvalid.String())
	assert.Equal(t, "transient_error", domain.VerdictTransient.String())
	assert.Equal(t, "fault", domain.VerdictFault.String())
}

func TestAcquisitionStats_Throughput(t *testing.T) {
	assert.Zero(t, domain.AcquisitionStats{Attempts: 10}.Throughput())
	assert.InDelta(t, 5.0, domain.AcquisitionStats{Attempts: 10, Elapsed: 2 * time.Second}.Throughput(), 1e-9)
}
