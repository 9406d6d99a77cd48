package streetview

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/samirrijal/streetpool/internal/core/domain"
	"github.com/samirrijal/streetpool/internal/pkg/metrics"
)

var tracer = otel.Tracer("github.com/samirrijal/streetpool/internal/adapters/streetview")

// Metadata response statuses.
const (
	StatusOK          = "OK"
	StatusZeroResults = "ZERO_RESULTS"
	StatusNotFound    = "NOT_FOUND"
)

// metadataResponse is the subset of the imagery metadata payload we read.
type metadataResponse struct {
	Status  string `json:"status"`
	PanoID  string `json:"pano_id"`
	Date    string `json:"date"`
	Message string `json:"error_message"`
}

// Config configures a Probe.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration

	// OutdoorOnly asks the service to ignore indoor panoramas.
	OutdoorOnly bool
}

// Probe implements ports.ValidationProbe against the Street View metadata API.
// Each call is one request; it never retries.
type Probe struct {
	cfg    Config
	client *http.Client
}

// NewProbe creates a Probe whose client is bounded by cfg.Timeout.
func NewProbe(cfg Config) *Probe {
	return &Probe{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// Validate queries coverage for one coordinate. Transport failures, non-200
// responses, undecodable bodies and unexpected statuses are transient.
func (p *Probe) Validate(ctx context.Context, lat, lon float64) domain.Validation {
	ctx, span := tracer.Start(ctx, "streetview.metadata")
	defer span.End()
	span.SetAttributes(attribute.Float64("lat", lat), attribute.Float64("lon", lon))

	start := time.Now()
	v := p.validate(ctx, lat, lon)
	metrics.ProbeDuration.Observe(time.Since(start).Seconds())

	span.SetAttributes(attribute.String("verdict", v.Verdict.String()))
	return v
}

func (p *Probe) validate(ctx context.Context, lat, lon float64) domain.Validation {
	transient := domain.Validation{Verdict: domain.VerdictTransient}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.requestURL(lat, lon), nil)
	if err != nil {
		slog.Warn("build metadata request", "error", err)
		return transient
	}

	resp, err := p.client.Do(req)
	if err != nil {
		slog.Debug("metadata request failed", "lat", lat, "lon", lon, "error", err)
		return transient
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		slog.Debug("metadata non-200", "lat", lat, "lon", lon, "status", resp.StatusCode)
		return transient
	}

	var body metadataResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&body); err != nil {
		slog.Debug("metadata decode failed", "lat", lat, "lon", lon, "error", err)
		return transient
	}

	switch body.Status {
	case StatusOK:
		cls := domain.ClassificationUnknown
		if p.cfg.OutdoorOnly {
			cls = domain.ClassificationOutdoor
		}
		return domain.Validation{Verdict: domain.VerdictValid, Classification: cls}
	case StatusZeroResults, StatusNotFound:
		return domain.Validation{Verdict: domain.VerdictInvalid}
	default:
		// OVER_QUERY_LIMIT, REQUEST_DENIED, INVALID_REQUEST, UNKNOWN_ERROR
		slog.Warn("metadata service refused request", "status", body.Status, "message", body.Message)
		return transient
	}
}

func (p *Probe) requestURL(lat, lon float64) string {
	q := url.Values{}
	q.Set("location", strconv.FormatFloat(lat, 'f', 6, 64)+","+strconv.FormatFloat(lon, 'f', 6, 64))
	q.Set("key", p.cfg.APIKey)
	if p.cfg.OutdoorOnly {
		q.Set("source", "outdoor")
	}
	return p.cfg.BaseURL + "?" + q.Encode()
}
