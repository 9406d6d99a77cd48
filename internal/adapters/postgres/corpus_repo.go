package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/streetpool/internal/core/domain"
)

// CorpusRepo implements ports.CorpusStore. Save replaces the whole table in
// one transaction so readers never see a half-written corpus.
type CorpusRepo struct {
	db *DB
}

// NewCorpusRepo creates a new CorpusRepo.
func NewCorpusRepo(db *DB) *CorpusRepo {
	return &CorpusRepo{db: db}
}

func (r *CorpusRepo) Save(ctx context.Context, corpus domain.Corpus) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM corpus_locations`); err != nil {
		return fmt.Errorf("clear corpus: %w", err)
	}

	batch := &pgx.Batch{}
	for i, loc := range corpus {
		loc = loc.Normalize()
		batch.Queue(`
			INSERT INTO corpus_locations (position, lat, lon, heading, region, classification)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, i, loc.Lat, loc.Lon, loc.Heading, string(loc.Region), string(loc.Classification))
	}
	br := tx.SendBatch(ctx, batch)
	for range corpus {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("batch exec: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("batch close: %w", err)
	}

	return tx.Commit(ctx)
}

func (r *CorpusRepo) Load(ctx context.Context) (domain.Corpus, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT lat, lon, heading, region, classification
		FROM corpus_locations
		ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("query corpus: %w", err)
	}
	defer rows.Close()

	corpus := domain.Corpus{}
	for rows.Next() {
		var (
			loc         domain.Location
			region, cls string
		)
		if err := rows.Scan(&loc.Lat, &loc.Lon, &loc.Heading, &region, &cls); err != nil {
			return nil, err
		}
		loc.Region = domain.Region(region)
		loc.Classification = domain.Classification(cls)
		corpus = append(corpus, loc.Normalize())
	}
	return corpus, rows.Err()
}
