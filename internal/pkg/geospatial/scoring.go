package geospatial

import "math"

// MaxRoundScore is awarded for a perfect guess.
const MaxRoundScore = 1000

const kmPerMile = 0.621371

// Tier buckets a guess by how close it landed.
type Tier string

const (
	TierGreen  Tier = "green"  // under 5 km
	TierYellow Tier = "yellow" // under 50 km
	TierOrange Tier = "orange" // under 500 km
	TierRed    Tier = "red"
)

// RoundResult is the scored outcome of a single guess.
type RoundResult struct {
	DistanceKm float64 `json:"distance_km"`
	DistanceMi float64 `json:"distance_mi"`
	Score      int     `json:"round_score"`
	Tier       Tier    `json:"tier"`
}

// ScoreGuess scores a guess against the actual location. Distance is
// rounded to 0.1 km before scoring.
func ScoreGuess(actualLat, actualLon, guessLat, guessLon float64) RoundResult {
	km := round1(DistanceKm(actualLat, actualLon, guessLat, guessLon))
	return RoundResult{
		DistanceKm: km,
		DistanceMi: round1(km * kmPerMile),
		Score:      RoundScore(km),
		Tier:       ProximityTier(km),
	}
}

// RoundScore converts a distance into points: 1000 minus one per km, floored at 0.
func RoundScore(distanceKm float64) int {
	return max(0, int(MaxRoundScore-distanceKm))
}

// ProximityTier buckets a distance for share summaries.
func ProximityTier(distanceKm float64) Tier {
	switch {
	case distanceKm < 5:
		return TierGreen
	case distanceKm < 50:
		return TierYellow
	case distanceKm < 500:
		return TierOrange
	default:
		return TierRed
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
