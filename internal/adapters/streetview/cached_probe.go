package streetview

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/samirrijal/streetpool/internal/core/domain"
	"github.com/samirrijal/streetpool/internal/core/ports"
	"github.com/samirrijal/streetpool/internal/pkg/metrics"
)

const verdictKeyPrefix = "streetpool:verdict:"

type cachedVerdict struct {
	Verdict        domain.Verdict        `json:"verdict"`
	Classification domain.Classification `json:"classification,omitempty"`
}

// CachedProbe remembers definitive verdicts per rounded coordinate so
// repeated acquisition runs do not pay for the same lookup twice.
// Transient results always go to the wrapped probe again.
type CachedProbe struct {
	next  ports.ValidationProbe
	cache ports.CacheService
	ttl   time.Duration
}

// NewCachedProbe wraps next with cache.
func NewCachedProbe(next ports.ValidationProbe, cache ports.CacheService, ttl time.Duration) *CachedProbe {
	return &CachedProbe{next: next, cache: cache, ttl: ttl}
}

func (c *CachedProbe) Validate(ctx context.Context, lat, lon float64) domain.Validation {
	key := verdictKeyPrefix + domain.CoordKey(lat, lon)

	if data, err := c.cache.Get(ctx, key); err == nil {
		var v cachedVerdict
		if err := json.Unmarshal(data, &v); err == nil {
			metrics.CacheHits.WithLabelValues("verdict").Inc()
			return domain.Validation{Verdict: v.Verdict, Classification: v.Classification}
		}
	}
	metrics.CacheMisses.WithLabelValues("verdict").Inc()

	res := c.next.Validate(ctx, lat, lon)
	if res.Verdict != domain.VerdictValid && res.Verdict != domain.VerdictInvalid {
		return res
	}

	data, err := json.Marshal(cachedVerdict{Verdict: res.Verdict, Classification: res.Classification})
	if err != nil {
		return res
	}
	if err := c.cache.Set(ctx, key, data, int(c.ttl.Seconds())); err != nil {
		slog.Debug("cache verdict", "key", key, "error", err)
	}
	return res
}
