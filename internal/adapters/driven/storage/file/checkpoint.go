package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/custodia-labs/harvest-cli/internal/core/domain"
	"github.com/custodia-labs/harvest-cli/internal/core/ports/driven"
)

// Ensure CheckpointStore implements the interface.
var _ driven.CheckpointStore = (*CheckpointStore)(nil)

// CheckpointStore persists the synthesis checkpoint at a fixed path.
// Every save rewrites the whole snapshot; recovery is always a single
// read.
type CheckpointStore struct {
	path string
}

// NewCheckpointStore creates a checkpoint store at path.
func NewCheckpointStore(path string) *CheckpointStore {
	return &CheckpointStore{path: path}
}

// Save implements driven.CheckpointStore.
func (s *CheckpointStore) Save(ctx context.Context, cp domain.Checkpoint) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := writeJSONAtomic(s.path, cp); err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}

// Load implements driven.CheckpointStore.
func (s *CheckpointStore) Load(ctx context.Context) (domain.Checkpoint, error) {
	if err := ctx.Err(); err != nil {
		return domain.Checkpoint{}, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.Checkpoint{}, fmt.Errorf("checkpoint: %w", domain.ErrNotFound)
		}
		return domain.Checkpoint{}, fmt.Errorf("read checkpoint: %w", err)
	}

	var cp domain.Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return domain.Checkpoint{}, fmt.Errorf("parse checkpoint: %w", err)
	}
	return cp, nil
}
