package http

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/streetpool/internal/core/domain"
	"github.com/samirrijal/streetpool/internal/pkg/geospatial"
)

var errFutureDate = errors.New("no selection is served for future dates")

// DailyResponse is the daily selection as served to the game layer.
type DailyResponse struct {
	Date     string            `json:"date"`
	Entries  []domain.Location `json:"entries"`
	Fallback bool              `json:"fallback,omitempty"` // corpus empty, fallback location served
	Forced   bool              `json:"forced,omitempty"`   // refresh draw, never stored
}

// ScoreRequest is the body of POST /v1/score.
type ScoreRequest struct {
	Actual domain.GeoPoint `json:"actual"`
	Guess  domain.GeoPoint `json:"guess"`
}

// dailyFor resolves the selection for date ("" means today, UTC).
func dailyFor(ctx context.Context, deps *Dependencies, date string, force bool) (*DailyResponse, error) {
	today := deps.Daily.Today()
	if date == "" {
		date = today
	}
	if _, err := domain.ParseDate(date); err != nil {
		return nil, err
	}
	if date > today {
		return nil, errFutureDate
	}

	sel, err := deps.Daily.Select(ctx, deps.Corpus.Current(), date, force)
	if err != nil {
		return nil, err
	}

	resp := &DailyResponse{Date: sel.Date, Entries: sel.Entries, Forced: force}
	if len(resp.Entries) == 0 {
		resp.Entries = []domain.Location{domain.FallbackLocation}
		resp.Fallback = true
	}
	return resp, nil
}

// DailyHandler serves GET /v1/daily and GET /v1/daily/:date.
// ?refresh=true returns a fresh random draw that is not stored.
func DailyHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		force := c.QueryBool("refresh", false)

		resp, err := dailyFor(ctx, deps, c.Params("date"), force)
		switch {
		case errors.Is(err, errFutureDate):
			return errNotFound(c, err.Error())
		case err != nil:
			return errBadRequest(c, err.Error())
		}

		if resp.Fallback {
			LoggerFromCtx(ctx).Warn("corpus empty, serving fallback location", "date", resp.Date)
		}

		switch {
		case resp.Forced || resp.Fallback:
			c.Set(fiber.HeaderCacheControl, "no-store")
		case resp.Date == deps.Daily.Today():
			c.Set(fiber.HeaderCacheControl, fmt.Sprintf("public, max-age=%d", secondsUntilMidnightUTC(time.Now())))
		default:
			c.Set(fiber.HeaderCacheControl, "public, max-age=86400")
		}
		return c.JSON(resp)
	}
}

// secondsUntilMidnightUTC is how long today's selection stays current.
func secondsUntilMidnightUTC(now time.Time) int {
	now = now.UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, time.UTC)
	return max(int(midnight.Sub(now).Seconds()), 1)
}

// ListLocationsHandler returns a page of the current corpus.
func ListLocationsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		offset, limit, err := parsePage(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		locations, total := deps.Corpus.Page(offset, limit)

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: locations, Pagination: pg})
	}
}

// CorpusStatsHandler returns region and classification counts.
func CorpusStatsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(deps.Corpus.Stats())
	}
}

// ScoreHandler scores a guess against an actual location.
func ScoreHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req ScoreRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if !req.Actual.Valid() || !req.Guess.Valid() {
			return errBadRequest(c, "coordinates out of range")
		}

		c.Set(fiber.HeaderCacheControl, "no-store")
		return c.JSON(geospatial.ScoreGuess(req.Actual.Lat, req.Actual.Lon, req.Guess.Lat, req.Guess.Lon))
	}
}
