package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/harvest-cli/internal/core/domain"
	"github.com/custodia-labs/harvest-cli/internal/core/ports/driven"
)

// Ensure CorpusStore implements the interface.
var _ driven.CorpusStore = (*CorpusStore)(nil)

// CorpusStore persists raw corpora under <dir>/<name>.json.
type CorpusStore struct {
	dir string
}

// NewCorpusStore creates a corpus store rooted at dir.
func NewCorpusStore(dir string) *CorpusStore {
	return &CorpusStore{dir: dir}
}

// SaveCorpus implements driven.CorpusStore.
func (s *CorpusStore) SaveCorpus(ctx context.Context, name string, corpus domain.Corpus) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := writeJSONAtomic(s.path(name), corpus); err != nil {
		return fmt.Errorf("save corpus %q: %w", name, err)
	}
	return nil
}

// LoadCorpus implements driven.CorpusStore.
func (s *CorpusStore) LoadCorpus(ctx context.Context, name string) (domain.Corpus, error) {
	if err := ctx.Err(); err != nil {
		return domain.Corpus{}, err
	}

	data, err := os.ReadFile(s.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return domain.Corpus{}, fmt.Errorf("corpus %q: %w", name, domain.ErrNotFound)
		}
		return domain.Corpus{}, fmt.Errorf("read corpus %q: %w", name, err)
	}

	var corpus domain.Corpus
	if err := json.Unmarshal(data, &corpus); err != nil {
		return domain.Corpus{}, fmt.Errorf("parse corpus %q: %w", name, err)
	}
	return corpus, nil
}

func (s *CorpusStore) path(name string) string {
	return filepath.Join(s.dir, name+".json")
}
