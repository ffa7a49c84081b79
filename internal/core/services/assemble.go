package services

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/harvest-cli/internal/core/domain"
	"github.com/custodia-labs/harvest-cli/internal/core/ports/driven"
	"github.com/custodia-labs/harvest-cli/internal/core/ports/driving"
	"github.com/custodia-labs/harvest-cli/internal/logger"
)

// Ensure AssembleService implements the interface.
var _ driving.Assembler = (*AssembleService)(nil)

// reviewSystemPrompt frames review-sourced examples; the assistant
// plays a code reviewer rather than an incident responder.
const reviewSystemPrompt = "You are an expert code reviewer. You spot " +
	"bugs, misconfigurations, and risky patterns in code changes and " +
	"explain how to fix them."

// AssembleConfig holds split parameters.
type AssembleConfig struct {
	// Sources are the corpus names to load. Missing corpora are
	// skipped with a log line.
	Sources []string

	// TrainRatio is the train share, in (0, 1].
	TrainRatio float64

	// Seed drives the shuffle. Identical inputs and seed reproduce
	// identical partitions.
	Seed int64

	// IncludeSynthetic controls whether the checkpoint contributes.
	IncludeSynthetic bool
}

// AssembleService merges curated corpora with the synthesis checkpoint
// into deterministic train/eval partitions.
type AssembleService struct {
	corpusStore driven.CorpusStore
	checkpoints driven.CheckpointStore
	partitions  driven.PartitionWriter
	runStore    driven.RunStore
	cfg         AssembleConfig

	now   func() time.Time
	newID func() string
}

// NewAssembleService creates an assembler. checkpoints and runStore
// may be nil.
func NewAssembleService(
	corpusStore driven.CorpusStore,
	checkpoints driven.CheckpointStore,
	partitions driven.PartitionWriter,
	runStore driven.RunStore,
	cfg AssembleConfig,
) *AssembleService {
	return &AssembleService{
		corpusStore: corpusStore,
		checkpoints: checkpoints,
		partitions:  partitions,
		runStore:    runStore,
		cfg:         cfg,
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

// Assemble implements driving.Assembler.
func (a *AssembleService) Assemble(ctx context.Context) (driving.AssembleResult, error) {
	if a.cfg.TrainRatio <= 0 || a.cfg.TrainRatio > 1 {
		return driving.AssembleResult{}, fmt.Errorf("%w: train ratio %v outside (0, 1]",
			domain.ErrInvalidInput, a.cfg.TrainRatio)
	}

	started := a.now().UTC()

	var examples []domain.TrainingExample
	for _, name := range a.cfg.Sources {
		corpus, err := a.corpusStore.LoadCorpus(ctx, name)
		if err != nil {
			if isNotFound(err) {
				logger.Warn("assemble: no corpus %q, skipping", name)
				continue
			}
			return driving.AssembleResult{}, fmt.Errorf("load corpus %q: %w", name, err)
		}
		for _, c := range corpus.Examples {
			examples = append(examples, formatCandidate(c))
		}
	}

	if a.cfg.IncludeSynthetic && a.checkpoints != nil {
		cp, err := a.checkpoints.Load(ctx)
		switch {
		case err == nil:
			examples = append(examples, cp.Examples...)
		case isNotFound(err):
			logger.Warn("assemble: no synthesis checkpoint, harvested data only")
		default:
			return driving.AssembleResult{}, fmt.Errorf("load checkpoint: %w", err)
		}
	}

	examples = dedupeExamples(examples)
	if len(examples) == 0 {
		return driving.AssembleResult{}, domain.ErrEmptyCorpus
	}

	// Deterministic shuffle: same inputs and seed, same order.
	rng := rand.New(rand.NewSource(a.cfg.Seed))
	rng.Shuffle(len(examples), func(i, j int) {
		examples[i], examples[j] = examples[j], examples[i]
	})

	cut := int(float64(len(examples)) * a.cfg.TrainRatio)
	train, eval := examples[:cut], examples[cut:]

	if err := a.partitions.WritePartition(ctx, "train", train); err != nil {
		return driving.AssembleResult{}, fmt.Errorf("write train partition: %w", err)
	}
	if err := a.partitions.WritePartition(ctx, "eval", eval); err != nil {
		return driving.AssembleResult{}, fmt.Errorf("write eval partition: %w", err)
	}

	bySource := make(map[string]int, 4)
	for _, ex := range examples {
		bySource[ex.Meta.Source]++
	}
	manifest := domain.DatasetManifest{
		GeneratedAt: a.now().UTC(),
		Seed:        a.cfg.Seed,
		TrainRatio:  a.cfg.TrainRatio,
		Train:       len(train),
		Eval:        len(eval),
		BySource:    bySource,
	}
	if err := a.partitions.WriteManifest(ctx, manifest); err != nil {
		return driving.AssembleResult{}, fmt.Errorf("write manifest: %w", err)
	}

	result := driving.AssembleResult{Train: len(train), Eval: len(eval)}
	logger.Info("assemble: %d examples, train=%d eval=%d", len(examples), result.Train, result.Eval)

	a.recordRun(ctx, driven.RunRecord{
		ID:         a.newID(),
		Kind:       "assemble",
		StartedAt:  started,
		FinishedAt: a.now().UTC(),
		Scanned:    len(examples),
		Kept:       len(examples),
		Notes:      fmt.Sprintf("train=%d eval=%d seed=%d", result.Train, result.Eval, a.cfg.Seed),
	})

	return result, nil
}

func (a *AssembleService) recordRun(ctx context.Context, rec driven.RunRecord) {
	if a.runStore == nil {
		return
	}
	if err := a.runStore.RecordRun(ctx, rec); err != nil {
		logger.Warn("assemble: record run: %v", err)
	}
}

// formatCandidate turns a curated candidate into the 3-role
// conversation. The user turn embeds the title and problem; the
// assistant turn is the mined solution.
func formatCandidate(c domain.Candidate) domain.TrainingExample {
	system := synthSystemPrompt
	if c.Source == domain.SourceGitHubReviews {
		system = reviewSystemPrompt
	}

	var user strings.Builder
	if c.Title != "" && !strings.Contains(c.Problem, c.Title) {
		user.WriteString(c.Title)
		user.WriteString("\n\n")
	}
	if strings.Contains(c.Problem, "```") {
		// Already carries its own fences (review hunks, pasted logs).
		user.WriteString(c.Problem)
	} else {
		user.WriteString("```\n")
		user.WriteString(c.Problem)
		user.WriteString("\n```")
	}

	return domain.NewTrainingExample(system, user.String(), c.Solution, domain.ExampleMeta{
		ID:       c.Key,
		Source:   c.Source,
		Tech:     c.Tech,
		URL:      c.URL,
		Category: c.Category,
	})
}
