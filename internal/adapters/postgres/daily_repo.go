package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/streetpool/internal/core/domain"
)

// DailyRepo implements ports.DailySelectionStore over daily_selections.
// The date primary key makes the first insert win.
type DailyRepo struct {
	db *DB
}

// NewDailyRepo creates a new DailyRepo.
func NewDailyRepo(db *DB) *DailyRepo {
	return &DailyRepo{db: db}
}

func (r *DailyRepo) Get(ctx context.Context, date string) (*domain.DailySelection, error) {
	day, err := domain.ParseDate(date)
	if err != nil {
		return nil, err
	}

	var raw []byte
	err = r.db.Pool.QueryRow(ctx, `SELECT entries FROM daily_selections WHERE day = $1`, day).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get daily %s: %w", date, err)
	}

	var entries []domain.Location
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("decode daily %s: %w", date, domain.ErrMalformed)
	}
	return &domain.DailySelection{Date: date, Entries: entries}, nil
}

func (r *DailyRepo) PutIfAbsent(ctx context.Context, sel *domain.DailySelection) (*domain.DailySelection, error) {
	day, err := domain.ParseDate(sel.Date)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(sel.Entries)
	if err != nil {
		return nil, err
	}

	tag, err := r.db.Pool.Exec(ctx, `
		INSERT INTO daily_selections (day, entries)
		VALUES ($1, $2)
		ON CONFLICT (day) DO NOTHING
	`, day, raw)
	if err != nil {
		return nil, fmt.Errorf("put daily %s: %w", sel.Date, err)
	}
	if tag.RowsAffected() == 1 {
		return sel, nil
	}
	return r.Get(ctx, sel.Date)
}
