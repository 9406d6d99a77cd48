package ports

import (
	"context"

	"github.com/samirrijal/streetpool/internal/core/domain"
)

// CandidateSource draws candidate coordinates from a populated-places corpus.
// Both methods return domain.ErrNoCandidate instead of blocking when nothing
// matches.
type CandidateSource interface {
	Sample(ctx context.Context) (domain.GeoPoint, error)
	// SampleBiased draws from places inside bounds with probability
	// 1-fallbackProbability and from the whole corpus otherwise.
	SampleBiased(ctx context.Context, bounds domain.Bounds, fallbackProbability float64) (domain.GeoPoint, error)
}

// ValidationProbe asks the imagery metadata service whether a coordinate has
// coverage. Implementations must not retry.
type ValidationProbe interface {
	Validate(ctx context.Context, lat, lon float64) domain.Validation
}

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishCorpusRebuilt(ctx context.Context, stats domain.AcquisitionStats) error
	PublishDailySelection(ctx context.Context, sel *domain.DailySelection) error
	PublishProgress(ctx context.Context, stats domain.AcquisitionStats) error
}

// EventSubscriber subscribes to domain events from a message broker.
type EventSubscriber interface {
	SubscribeCorpusRebuilt(ctx context.Context, handler func(ctx context.Context, stats domain.AcquisitionStats) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
