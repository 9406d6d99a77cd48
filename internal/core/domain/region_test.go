package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/streetpool/internal/core/domain"
)

func TestClassifyRegion(t *testing.T) {
	cases := []struct {
		name     string
		lat, lon float64
		want     domain.Region
	}{
		{"new york", 40.0, -74.0, domain.RegionUS},
		{"paris", 48.8, 2.3, domain.RegionEurope},
		{"sydney", -33.9, 151.2, domain.RegionOther},
		{"us corner inclusive", 24, -125, domain.RegionUS},
		{"us corner upper", 50, -66, domain.RegionUS},
		{"europe corner inclusive", 70, 40, domain.RegionEurope},
		{"just outside europe", 70.0001, 40, domain.RegionOther},
		{"alaska", 61.2, -149.9, domain.RegionOther},
		{"tokyo", 35.7, 139.7, domain.RegionOther},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, domain.ClassifyRegion(tc.lat, tc.lon))
		})
	}
}

func TestSupercontinentBounds(t *testing.T) {
	b := domain.SupercontinentBounds
	assert.Equal(t, domain.Bounds{MinLat: 24, MinLon: -125, MaxLat: 70, MaxLon: 40}, b)
	assert.True(t, b.Contains(40, -74))
	assert.True(t, b.Contains(48.8, 2.3))
	assert.False(t, b.Contains(-33.9, 151.2))
}

func TestParseRegion(t *testing.T) {
	r, err := domain.ParseRegion("Europe")
	require.NoError(t, err)
	assert.Equal(t, domain.RegionEurope, r)

	_, err = domain.ParseRegion("Atlantis")
	assert.Error(t, err)
}
