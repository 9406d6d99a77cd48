package domain

import "fmt"

// Region is the coarse geographic bucket used for labelling and daily weighting.
type Region string

const (
	RegionUS     Region = "US"
	RegionEurope Region = "Europe"
	RegionOther  Region = "Other"
)

// Regions lists every region in classification priority order.
var Regions = []Region{RegionUS, RegionEurope, RegionOther}

var (
	// USBounds covers the contiguous United States.
	USBounds = Bounds{MinLat: 24, MinLon: -125, MaxLat: 50, MaxLon: -66}

	// EuropeBounds covers continental Europe.
	EuropeBounds = Bounds{MinLat: 35, MinLon: -10, MaxLat: 70, MaxLon: 40}

	// SupercontinentBounds is the union of the US and Europe boxes, used as
	// the coarse sampling bias during acquisition.
	SupercontinentBounds = USBounds.Union(EuropeBounds)
)

// ClassifyRegion maps a coordinate to its region. US is checked before Europe.
func ClassifyRegion(lat, lon float64) Region {
	switch {
	case USBounds.Contains(lat, lon):
		return RegionUS
	case EuropeBounds.Contains(lat, lon):
		return RegionEurope
	default:
		return RegionOther
	}
}

// ParseRegion converts a stored label back to a Region.
func ParseRegion(s string) (Region, error) {
	for _, r := range Regions {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown region %q", s)
}
