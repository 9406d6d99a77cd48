package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/samirrijal/streetpool/internal/core/domain"
)

// CorpusFile implements ports.CorpusStore as a single JSON array on disk.
type CorpusFile struct {
	path string
}

// NewCorpusFile creates a CorpusFile at path.
func NewCorpusFile(path string) *CorpusFile {
	return &CorpusFile{path: path}
}

// Save overwrites the artifact with corpus.
func (f *CorpusFile) Save(_ context.Context, corpus domain.Corpus) error {
	if corpus == nil {
		corpus = domain.Corpus{}
	}
	return writeJSON(f.path, corpus)
}

// Load reads the artifact. A missing file yields an empty corpus; an
// undecodable one yields domain.ErrMalformed. Records written without region
// or classification are filled in.
func (f *CorpusFile) Load(_ context.Context) (domain.Corpus, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return domain.Corpus{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}

	var corpus domain.Corpus
	if err := json.Unmarshal(data, &corpus); err != nil {
		return nil, fmt.Errorf("decode %s: %w: %v", f.path, domain.ErrMalformed, err)
	}
	for i := range corpus {
		corpus[i] = corpus[i].Normalize()
	}
	if corpus == nil {
		corpus = domain.Corpus{}
	}
	return corpus, nil
}
