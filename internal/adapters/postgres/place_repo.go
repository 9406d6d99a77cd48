package postgres

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/streetpool/internal/core/domain"
)

// PlaceRepo implements ports.PlaceRepository and ports.CandidateSource over
// the places table. Draws are positioned by a seeded generator so a fixed
// seed over the same table reproduces the same sequence.
type PlaceRepo struct {
	db *DB

	mu  sync.Mutex
	rng *rand.Rand
}

// NewPlaceRepo creates a new PlaceRepo. A zero seed picks a time-based one.
func NewPlaceRepo(db *DB, seed int64) *PlaceRepo {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &PlaceRepo{db: db, rng: rand.New(rand.NewPCG(uint64(seed), 0x9e3779b9))}
}

func (r *PlaceRepo) float() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Float64()
}

// UpsertBatch inserts many places using pgx.Batch.
func (r *PlaceRepo) UpsertBatch(ctx context.Context, places []domain.Place) error {
	batch := &pgx.Batch{}
	for _, p := range places {
		batch.Queue(`
			INSERT INTO places (geoname_id, name, country, location, population)
			VALUES ($1, $2, $3, ST_SetSRID(ST_MakePoint($4, $5), 4326)::geography, $6)
			ON CONFLICT (geoname_id) DO UPDATE
			SET name = EXCLUDED.name, country = EXCLUDED.country,
			    location = EXCLUDED.location, population = EXCLUDED.population
		`, p.GeonameID, p.Name, p.Country, p.Location.Lon, p.Location.Lat, p.Population)
	}
	br := r.db.Pool.SendBatch(ctx, batch)
	defer br.Close()
	for range places {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch exec: %w", err)
		}
	}
	return nil
}

// Count returns the number of stored places.
func (r *PlaceRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.Pool.QueryRow(ctx, `SELECT count(*) FROM places`).Scan(&n)
	return n, err
}

// Sample draws one place by a random seek into the seq index. Gaps left by
// upserts skew the draw slightly toward the row after each gap.
func (r *PlaceRepo) Sample(ctx context.Context) (domain.GeoPoint, error) {
	var p domain.GeoPoint
	err := r.db.Pool.QueryRow(ctx, `
		SELECT ST_Y(location::geometry), ST_X(location::geometry)
		FROM places
		WHERE seq >= (SELECT floor($1 * max(seq))::bigint FROM places)
		ORDER BY seq
		LIMIT 1
	`, r.float()).Scan(&p.Lat, &p.Lon)
	return p, noCandidate(err)
}

// SampleBiased draws from places inside bounds, or from all places with
// probability fallbackProbability. Inside bounds it seeks to a random seq and
// wraps to the start of the table when nothing in bounds follows.
func (r *PlaceRepo) SampleBiased(ctx context.Context, b domain.Bounds, fallbackProbability float64) (domain.GeoPoint, error) {
	if r.float() < fallbackProbability {
		return r.Sample(ctx)
	}

	const query = `
		SELECT ST_Y(location::geometry), ST_X(location::geometry)
		FROM places
		WHERE location && ST_MakeEnvelope($1, $2, $3, $4, 4326)::geography
		  AND seq >= (SELECT floor($5 * max(seq))::bigint FROM places)
		ORDER BY seq
		LIMIT 1
	`
	var p domain.GeoPoint
	err := r.db.Pool.QueryRow(ctx, query, b.MinLon, b.MinLat, b.MaxLon, b.MaxLat, r.float()).Scan(&p.Lat, &p.Lon)
	if errors.Is(err, pgx.ErrNoRows) {
		err = r.db.Pool.QueryRow(ctx, query, b.MinLon, b.MinLat, b.MaxLon, b.MaxLat, 0.0).Scan(&p.Lat, &p.Lon)
	}
	return p, noCandidate(err)
}

func noCandidate(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNoCandidate
	}
	if err != nil {
		return fmt.Errorf("sample place: %w", err)
	}
	return nil
}
