package geonames

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/golang/geo/r1"
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"

	"github.com/samirrijal/streetpool/internal/core/domain"
)

// Source implements ports.CandidateSource over an in-memory place list.
// Bounded subsets are indexed on first use, so later draws are O(1).
type Source struct {
	places []domain.Place

	mu      sync.Mutex
	rng     *rand.Rand
	subsets map[domain.Bounds][]int
}

// NewSource creates a Source. A zero seed picks a time-based one.
func NewSource(places []domain.Place, seed int64) *Source {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Source{
		places:  places,
		rng:     rand.New(rand.NewPCG(uint64(seed), 0x5eed)),
		subsets: make(map[domain.Bounds][]int),
	}
}

// Len returns the number of places available.
func (s *Source) Len() int {
	return len(s.places)
}

func (s *Source) Sample(_ context.Context) (domain.GeoPoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sampleLocked()
}

func (s *Source) SampleBiased(_ context.Context, bounds domain.Bounds, fallbackProbability float64) (domain.GeoPoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rng.Float64() < fallbackProbability {
		return s.sampleLocked()
	}

	idx := s.subsetLocked(bounds)
	if len(idx) == 0 {
		return domain.GeoPoint{}, domain.ErrNoCandidate
	}
	return s.places[idx[s.rng.IntN(len(idx))]].Location, nil
}

func (s *Source) sampleLocked() (domain.GeoPoint, error) {
	if len(s.places) == 0 {
		return domain.GeoPoint{}, domain.ErrNoCandidate
	}
	return s.places[s.rng.IntN(len(s.places))].Location, nil
}

func (s *Source) subsetLocked(bounds domain.Bounds) []int {
	if idx, ok := s.subsets[bounds]; ok {
		return idx
	}

	rect := RectFromBounds(bounds)
	var idx []int
	for i, p := range s.places {
		if rect.ContainsLatLng(s2.LatLngFromDegrees(p.Location.Lat, p.Location.Lon)) {
			idx = append(idx, i)
		}
	}
	s.subsets[bounds] = idx
	return idx
}

// RectFromBounds converts a degree box into an s2.Rect with closed edges.
func RectFromBounds(b domain.Bounds) s2.Rect {
	return s2.Rect{
		Lat: r1.Interval{
			Lo: (s1.Angle(b.MinLat) * s1.Degree).Radians(),
			Hi: (s1.Angle(b.MaxLat) * s1.Degree).Radians(),
		},
		Lng: s1.IntervalFromEndpoints(
			(s1.Angle(b.MinLon) * s1.Degree).Radians(),
			(s1.Angle(b.MaxLon) * s1.Degree).Radians(),
		),
	}
}
