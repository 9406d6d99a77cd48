//go:build integration

package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	handler "github.com/samirrijal/streetpool/internal/adapters/http"
	"github.com/samirrijal/streetpool/internal/adapters/postgres"
	"github.com/samirrijal/streetpool/internal/core/domain"
	"github.com/samirrijal/streetpool/internal/core/usecases"
	"github.com/samirrijal/streetpool/internal/pkg/config"
)

// setupTestDB connects to the database named by the STREETPOOL_DATABASE_* settings.
// The schema must already be migrated.
func setupTestDB(t *testing.T) *postgres.DB {
	t.Helper()
	cfg, err := config.Load("streetpool-test")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	db, err := postgres.New(ctx, cfg.Database, cfg.Telemetry.ServiceName)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(db.Close)
	return db
}

// setupTestDeps wires the corpus and daily services to the real tables.
func setupTestDeps(t *testing.T, db *postgres.DB) *handler.Dependencies {
	t.Helper()
	corpus := usecases.NewCorpusService(postgres.NewCorpusRepo(db))
	corpus.Load(context.Background())
	return &handler.Dependencies{
		Corpus: corpus,
		Daily:  usecases.NewDailyService(postgres.NewDailyRepo(db), nil),
		DB:     db,
	}
}

func seedCorpus(t *testing.T, db *postgres.DB) domain.Corpus {
	t.Helper()
	var c domain.Corpus
	for i := range 12 {
		off := float64(i) / 100
		c = append(c,
			domain.NewLocation(domain.CandidatePoint{Lat: 40 + off, Lon: -100 + off, Heading: i}, domain.ClassificationOutdoor),
			domain.NewLocation(domain.CandidatePoint{Lat: 48 + off, Lon: 2 + off, Heading: i}, domain.ClassificationOutdoor),
			domain.NewLocation(domain.CandidatePoint{Lat: -33 - off, Lon: 151 + off, Heading: i}, ""),
		)
	}
	if err := postgres.NewCorpusRepo(db).Save(context.Background(), c); err != nil {
		t.Fatalf("seed corpus: %v", err)
	}
	return c
}

// uniqueDate picks a past date unlikely to be stored by another run.
func uniqueDate() string {
	n := time.Now().UnixNano() % 36500
	return domain.DateKey(time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, int(n)))
}

func TestCorpusStats_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	seeded := seedCorpus(t, db)
	app := setupApp(setupTestDeps(t, db))

	status, body, _ := get(t, app, "/v1/corpus/stats")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	var stats domain.CorpusStats
	if err := json.Unmarshal(body, &stats); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if stats.Total != len(seeded) {
		t.Errorf("expected %d locations, got %d", len(seeded), stats.Total)
	}
	if stats.ByClassification[domain.ClassificationOutdoor] != 24 {
		t.Errorf("expected 24 outdoor, got %v", stats.ByClassification)
	}
}

// TestDaily_Integration_SharedAcrossInstances checks two API instances
// backed by the same table serve the same selection for a date.
func TestDaily_Integration_SharedAcrossInstances(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	seedCorpus(t, db)
	first := setupApp(setupTestDeps(t, db))
	second := setupApp(setupTestDeps(t, db))

	date := uniqueDate()
	target := fmt.Sprintf("/v1/daily/%s", date)

	_, a, _ := get(t, first, target)
	_, b, _ := get(t, second, target)

	var selA, selB handler.DailyResponse
	json.Unmarshal(a, &selA)
	json.Unmarshal(b, &selB)
	if len(selA.Entries) != domain.DailyEntries {
		t.Fatalf("expected %d entries, got %d", domain.DailyEntries, len(selA.Entries))
	}
	for i := range selA.Entries {
		if selA.Entries[i] != selB.Entries[i] {
			t.Errorf("entry %d differs: %+v vs %+v", i, selA.Entries[i], selB.Entries[i])
		}
	}
}

func TestReady_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	app := setupApp(setupTestDeps(t, db))

	status, body, _ := get(t, app, "/v1/ready")
	if status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}
}
