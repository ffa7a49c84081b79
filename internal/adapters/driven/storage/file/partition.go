package file

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/harvest-cli/internal/core/domain"
	"github.com/custodia-labs/harvest-cli/internal/core/ports/driven"
)

// Ensure PartitionWriter implements the interface.
var _ driven.PartitionWriter = (*PartitionWriter)(nil)

// PartitionWriter writes partitions as <dir>/<name>.jsonl, one example
// per line.
type PartitionWriter struct {
	dir string
}

// NewPartitionWriter creates a partition writer rooted at dir.
func NewPartitionWriter(dir string) *PartitionWriter {
	return &PartitionWriter{dir: dir}
}

// WritePartition implements driven.PartitionWriter.
func (w *PartitionWriter) WritePartition(ctx context.Context, name string, examples []domain.TrainingExample) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}

	path := filepath.Join(w.dir, name+".jsonl")
	tmp, err := os.CreateTemp(w.dir, name+".jsonl.tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	bw := bufio.NewWriter(tmp)
	enc := json.NewEncoder(bw)
	for _, ex := range examples {
		if err := enc.Encode(ex); err != nil {
			cleanup()
			return fmt.Errorf("encode example: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		cleanup()
		return fmt.Errorf("flush: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

// WriteManifest implements driven.PartitionWriter. The manifest lands
// at <dir>/manifest.json.
func (w *PartitionWriter) WriteManifest(ctx context.Context, m domain.DatasetManifest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return writeJSONAtomic(filepath.Join(w.dir, "manifest.json"), m)
}
