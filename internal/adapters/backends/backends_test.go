package backends

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/streetpool/internal/adapters/filestore"
	"github.com/samirrijal/streetpool/internal/adapters/geonames"
	"github.com/samirrijal/streetpool/internal/adapters/memory"
	"github.com/samirrijal/streetpool/internal/pkg/config"
)

func fileConfig(dir string) *config.Config {
	return &config.Config{
		Places: config.PlacesConfig{Backend: config.BackendFile, Path: filepath.Join(dir, "places.csv")},
		Storage: config.StorageConfig{
			Backend:      config.BackendFile,
			CorpusPath:   filepath.Join(dir, "corpus.json"),
			DailyBackend: config.BackendFile,
			DailyDir:     dir,
		},
	}
}

func TestSet_FileBackends(t *testing.T) {
	s := &Set{cfg: fileConfig(t.TempDir())}

	assert.IsType(t, &filestore.CorpusFile{}, s.CorpusStore())
	assert.IsType(t, &filestore.DailyDir{}, s.DailyStore())
}

func TestSet_MemoryDailyBackend(t *testing.T) {
	cfg := fileConfig(t.TempDir())
	cfg.Storage.DailyBackend = config.BackendMemory
	s := &Set{cfg: cfg}

	assert.IsType(t, &memory.DailyStore{}, s.DailyStore())
}

func TestSet_FileCandidateSource(t *testing.T) {
	dir := t.TempDir()
	csv := "name,latitude,longitude,pop_max,iso_a2\n" +
		"Paris,48.8566,2.3522,11000000,FR\n" +
		"Sydney,-33.8688,151.2093,5000000,AU\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "places.csv"), []byte(csv), 0o644))

	s := &Set{cfg: fileConfig(dir)}
	src, err := s.CandidateSource(context.Background())
	require.NoError(t, err)
	require.IsType(t, &geonames.Source{}, src)
	assert.Equal(t, 2, src.(*geonames.Source).Len())
}

func TestSet_FileCandidateSourceMissing(t *testing.T) {
	s := &Set{cfg: fileConfig(t.TempDir())}
	_, err := s.CandidateSource(context.Background())
	assert.Error(t, err)
}
