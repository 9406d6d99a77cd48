package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/samirrijal/streetpool/internal/core/domain"
)

// DailyDir implements ports.DailySelectionStore with one JSON file per date,
// named daily_locations_<date>.json.
type DailyDir struct {
	dir string
	mu  sync.Mutex
}

// NewDailyDir creates a DailyDir rooted at dir.
func NewDailyDir(dir string) *DailyDir {
	return &DailyDir{dir: dir}
}

func (d *DailyDir) path(date string) string {
	return filepath.Join(d.dir, "daily_locations_"+date+".json")
}

func (d *DailyDir) Get(_ context.Context, date string) (*domain.DailySelection, error) {
	if _, err := domain.ParseDate(date); err != nil {
		return nil, err
	}
	return d.read(date)
}

// PutIfAbsent writes sel unless a file for its date exists. Writers within
// this process are serialised; the rename keeps cross-process readers safe.
func (d *DailyDir) PutIfAbsent(_ context.Context, sel *domain.DailySelection) (*domain.DailySelection, error) {
	if _, err := domain.ParseDate(sel.Date); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	existing, err := d.read(sel.Date)
	switch {
	case err == nil:
		return existing, nil
	case !errors.Is(err, domain.ErrNotFound):
		return nil, err
	}

	if err := writeJSON(d.path(sel.Date), sel.Entries); err != nil {
		return nil, err
	}
	return sel, nil
}

// read decodes the artifact, which holds the bare entry list.
func (d *DailyDir) read(date string) (*domain.DailySelection, error) {
	data, err := os.ReadFile(d.path(date))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read daily %s: %w", date, err)
	}

	var entries []domain.Location
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode daily %s: %w: %v", date, domain.ErrMalformed, err)
	}
	for i := range entries {
		entries[i] = entries[i].Normalize()
	}
	return &domain.DailySelection{Date: date, Entries: entries}, nil
}
