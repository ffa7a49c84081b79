package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/harvest-cli/internal/core/domain"
)

// CorpusStore persists raw per-source corpora as whole-file JSON
// envelopes. Saves always rewrite the full file.
type CorpusStore interface {
	// SaveCorpus writes the corpus under the given name, replacing any
	// previous version atomically.
	SaveCorpus(ctx context.Context, name string, corpus domain.Corpus) error

	// LoadCorpus reads a previously saved corpus. Returns
	// domain.ErrNotFound if no corpus exists under the name.
	LoadCorpus(ctx context.Context, name string) (domain.Corpus, error)
}

// CheckpointStore persists synthesis checkpoints. A save replaces the
// previous snapshot atomically (write to temp file, rename) so a crash
// mid-write never leaves a truncated checkpoint. Single writer only;
// concurrent writers must be serialised by the caller.
type CheckpointStore interface {
	// Save atomically replaces the checkpoint.
	Save(ctx context.Context, cp domain.Checkpoint) error

	// Load reads the current checkpoint. Returns domain.ErrNotFound if
	// none has been written.
	Load(ctx context.Context) (domain.Checkpoint, error)
}

// PartitionWriter emits the final train/eval partitions as
// line-delimited JSON, one self-contained training example per line.
type PartitionWriter interface {
	// WritePartition writes examples to the named partition
	// ("train" or "eval"), replacing any previous content.
	WritePartition(ctx context.Context, name string, examples []domain.TrainingExample) error

	// WriteManifest writes the dataset manifest next to the
	// partitions, replacing any previous version.
	WriteManifest(ctx context.Context, m domain.DatasetManifest) error
}

// RunRecord is one row in the run ledger: a completed (or failed)
// harvest, synthesis, or assembly run with its headline counters.
type RunRecord struct {
	ID         string
	Kind       string // "harvest", "synthesize", "assemble"
	Source     string
	StartedAt  time.Time
	FinishedAt time.Time
	Scanned    int
	Kept       int
	Failed     int
	Notes      string
}

// RunStore records pipeline runs for audit. Implementations must be
// safe for use from a single process; cross-process locking is not
// required.
type RunStore interface {
	// RecordRun appends one run record.
	RecordRun(ctx context.Context, rec RunRecord) error

	// ListRuns returns the most recent runs, newest first.
	ListRuns(ctx context.Context, limit int) ([]RunRecord, error)

	// Close releases the underlying database handle.
	Close() error
}
