package driving

import (
	"context"

	"github.com/custodia-labs/harvest-cli/internal/core/domain"
)

// Harvester orchestrates collection across all configured sources and
// units, applying the quality filter and deduplication, and persisting
// the per-source raw corpora.
type Harvester interface {
	// Harvest runs collection for every unit in the plan. A unit
	// failure is logged and skipped; only a storage failure aborts the
	// run. Returns aggregate stats across all sources.
	Harvest(ctx context.Context) (domain.HarvestStats, error)
}

// SynthesisReport summarises a synthesis run.
type SynthesisReport struct {
	Stats    domain.GenerationStats
	Examples []domain.TrainingExample
}

// Synthesizer drives batched LLM generation against scenario templates
// until the target quota is met, checkpointing progress.
type Synthesizer interface {
	// Synthesize generates up to target examples. Counters start at
	// zero for each run; callers wanting true resumption supply a
	// target net of a prior checkpoint's contents.
	Synthesize(ctx context.Context, target int) (SynthesisReport, error)
}

// AssembleResult reports the final split sizes.
type AssembleResult struct {
	Train int
	Eval  int
}

// Assembler merges curated and synthetic examples into deterministic
// train/eval partitions.
type Assembler interface {
	// Assemble shuffles with the configured seed, cuts at
	// floor(N*ratio), and writes both partitions. Re-running with
	// identical inputs reproduces byte-identical files.
	Assemble(ctx context.Context) (AssembleResult, error)
}
