package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/harvest-cli/internal/core/domain"
	"github.com/custodia-labs/harvest-cli/internal/core/ports/driven"
	"github.com/custodia-labs/harvest-cli/internal/core/ports/driving"
	"github.com/custodia-labs/harvest-cli/internal/jsonx"
	"github.com/custodia-labs/harvest-cli/internal/logger"
	"github.com/custodia-labs/harvest-cli/internal/plan"
)

// Ensure SynthesisService implements the interface.
var _ driving.Synthesizer = (*SynthesisService)(nil)

// synthSystemPrompt is the system message attached to every synthetic
// training example.
const synthSystemPrompt = "You are an expert DevOps and SRE engineer. " +
	"You diagnose infrastructure and deployment problems precisely and " +
	"respond with concrete, actionable fixes."

// batchInstruction is appended to every scenario prompt so completions
// come back as a parseable array.
const batchInstruction = "\n\nReturn ONLY a JSON array, no other text. " +
	`Each element must be an object of the form ` +
	`{"situation": "<the engineer's message>", "response": "<your expert reply>"}.`

// apiErrorBackoff is the fixed pause after a failed generation call
// before moving on to the next batch.
const apiErrorBackoff = 5 * time.Second

// SynthesisConfig holds batching parameters.
type SynthesisConfig struct {
	// BatchSize is how many examples one prompt requests.
	BatchSize int

	// CheckpointInterval is how many accepted examples pass between
	// checkpoint saves. A final save always happens at the end.
	CheckpointInterval int

	// MaxTokens bounds each completion.
	MaxTokens int

	// Temperature for generation.
	Temperature float64
}

// SynthesisService generates synthetic training examples scenario by
// scenario, checkpointing progress so an interrupted run resumes
// without losing accepted work.
type SynthesisService struct {
	llm         driven.LLMService
	checkpoints driven.CheckpointStore
	runStore    driven.RunStore
	techs       []string
	scenarios   []plan.Scenario
	cfg         SynthesisConfig

	now   func() time.Time
	newID func() string
	sleep func(ctx context.Context, d time.Duration) error
}

// NewSynthesisService creates a synthesizer. runStore may be nil.
func NewSynthesisService(
	llm driven.LLMService,
	checkpoints driven.CheckpointStore,
	runStore driven.RunStore,
	techs []string,
	scenarios []plan.Scenario,
	cfg SynthesisConfig,
) *SynthesisService {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	if cfg.CheckpointInterval <= 0 {
		cfg.CheckpointInterval = 50
	}
	return &SynthesisService{
		llm:         llm,
		checkpoints: checkpoints,
		runStore:    runStore,
		techs:       techs,
		scenarios:   scenarios,
		cfg:         cfg,
		now:         time.Now,
		newID:       uuid.NewString,
		sleep: func(ctx context.Context, d time.Duration) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(d):
				return nil
			}
		},
	}
}

// Synthesize implements driving.Synthesizer. The target is divided
// evenly across (technology, scenario) pairs; a failed batch costs its
// pair one attempt's worth of time but the quota stays owed until the
// pair's attempt budget runs out.
func (s *SynthesisService) Synthesize(ctx context.Context, target int) (driving.SynthesisReport, error) {
	if s.llm == nil {
		return driving.SynthesisReport{}, domain.ErrLLMUnavailable
	}
	if target <= 0 {
		return driving.SynthesisReport{}, fmt.Errorf("%w: target must be positive", domain.ErrInvalidInput)
	}
	if len(s.techs) == 0 || len(s.scenarios) == 0 {
		return driving.SynthesisReport{}, fmt.Errorf("%w: need at least one technology and scenario", domain.ErrInvalidInput)
	}

	started := s.now().UTC()

	cp, err := s.checkpoints.Load(ctx)
	if err != nil {
		if !isNotFound(err) {
			return driving.SynthesisReport{}, fmt.Errorf("load checkpoint: %w", err)
		}
		cp = domain.Checkpoint{Stats: domain.NewGenerationStats()}
	}
	cp.Model = s.llm.ModelName()

	stats := domain.NewGenerationStats()
	sinceSave := 0

	quotas := splitQuota(target, len(s.techs)*len(s.scenarios))
	pair := 0
	for _, tech := range s.techs {
		for _, sc := range s.scenarios {
			quota := quotas[pair]
			pair++
			if quota == 0 {
				continue
			}

			if err := s.fillPair(ctx, tech, sc, quota, &cp, &stats, &sinceSave); err != nil {
				// Persist accepted work before surfacing the failure.
				saveErr := s.saveCheckpoint(ctx, &cp)
				if saveErr != nil {
					logger.Warn("synthesize: checkpoint on abort: %v", saveErr)
				}
				return driving.SynthesisReport{Stats: stats}, err
			}
		}
	}

	if err := s.saveCheckpoint(ctx, &cp); err != nil {
		return driving.SynthesisReport{Stats: stats}, fmt.Errorf("final checkpoint: %w", err)
	}

	s.recordRun(ctx, driven.RunRecord{
		ID:         s.newID(),
		Kind:       "synthesize",
		Source:     domain.SourceSynthetic,
		StartedAt:  started,
		FinishedAt: s.now().UTC(),
		Kept:       stats.Total,
		Failed:     stats.FailedBatches,
	})

	return driving.SynthesisReport{Stats: stats, Examples: cp.Examples}, nil
}

// fillPair generates batches for one (tech, scenario) pair until its
// quota is met or the attempt budget is spent. Parse failures discard
// the batch with zero progress and are never retried with the same
// completion; API failures back off once and move on.
func (s *SynthesisService) fillPair(
	ctx context.Context,
	tech string,
	sc plan.Scenario,
	quota int,
	cp *domain.Checkpoint,
	stats *domain.GenerationStats,
	sinceSave *int,
) error {
	accepted := 0
	// Enough attempts to cover the quota plus headroom for failures.
	maxAttempts := quota/s.cfg.BatchSize + 4

	for attempt := 0; attempt < maxAttempts && accepted < quota; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		n := s.cfg.BatchSize
		if remaining := quota - accepted; remaining < n {
			n = remaining
		}

		prompt := buildPrompt(sc.Prompt, tech, n)
		completion, err := s.llm.Generate(ctx, prompt, driven.GenerateOptions{
			MaxTokens:   s.cfg.MaxTokens,
			Temperature: s.cfg.Temperature,
		})
		if err != nil {
			stats.FailedBatches++
			cp.Stats.FailedBatches++
			logger.Warn("synthesize: %s/%s: generate: %v", tech, sc.Name, err)
			if serr := s.sleep(ctx, apiErrorBackoff); serr != nil {
				return serr
			}
			continue
		}

		pairs := extractPairs(completion, sc.Prompt, tech)
		if len(pairs) == 0 {
			stats.FailedBatches++
			cp.Stats.FailedBatches++
			logger.Warn("synthesize: %s/%s: %v", tech, sc.Name, domain.ErrNoArrayFound)
			continue
		}

		for _, p := range pairs {
			if accepted >= quota {
				break
			}
			ex := domain.NewTrainingExample(synthSystemPrompt, p.situation, p.response, domain.ExampleMeta{
				ID:       s.newID(),
				Source:   domain.SourceSynthetic,
				Tech:     tech,
				Scenario: sc.Name,
				Category: sc.Category,
			})
			if cp.HasExample(ex.Meta.ID) {
				// Resumed checkpoints keep their ids; never append twice.
				continue
			}
			cp.Examples = append(cp.Examples, ex)
			cp.Stats.Count(tech, sc.Category)
			stats.Count(tech, sc.Category)
			accepted++
			*sinceSave++

			if *sinceSave >= s.cfg.CheckpointInterval {
				if err := s.saveCheckpoint(ctx, cp); err != nil {
					return fmt.Errorf("checkpoint: %w", err)
				}
				*sinceSave = 0
			}
		}
	}

	if accepted < quota {
		logger.Warn("synthesize: %s/%s: quota not met (%d/%d)", tech, sc.Name, accepted, quota)
	}
	return nil
}

func (s *SynthesisService) saveCheckpoint(ctx context.Context, cp *domain.Checkpoint) error {
	cp.GeneratedAt = s.now().UTC()
	return s.checkpoints.Save(ctx, *cp)
}

func (s *SynthesisService) recordRun(ctx context.Context, rec driven.RunRecord) {
	if s.runStore == nil {
		return
	}
	if err := s.runStore.RecordRun(ctx, rec); err != nil {
		logger.Warn("synthesize: record run: %v", err)
	}
}

// synthPair is one situation/response couple parsed from a completion.
type synthPair struct {
	situation string
	response  string
}

// extractPairs pulls usable examples out of a completion. Full
// situation/response objects are preferred; a completion carrying only
// response fields still yields examples with the instantiated scenario
// text standing in as the situation.
func extractPairs(completion, scenarioPrompt, tech string) []synthPair {
	objs, ok := jsonx.ExtractObjects(completion)
	if ok {
		pairs := make([]synthPair, 0, len(objs))
		for _, obj := range objs {
			situation, _ := obj["situation"].(string)
			response, _ := obj["response"].(string)
			if situation == "" || response == "" {
				continue
			}
			pairs = append(pairs, synthPair{situation: situation, response: response})
		}
		if len(pairs) > 0 {
			return pairs
		}
	}

	responses, ok := jsonx.ExtractStrings(completion, "response")
	if !ok || len(responses) == 0 {
		return nil
	}
	fallback := instantiate(scenarioPrompt, tech, 1)
	pairs := make([]synthPair, 0, len(responses))
	for _, r := range responses {
		pairs = append(pairs, synthPair{situation: fallback, response: r})
	}
	return pairs
}

// buildPrompt instantiates a scenario template and appends the batch
// format instruction.
func buildPrompt(template, tech string, n int) string {
	return instantiate(template, tech, n) + batchInstruction
}

func instantiate(template, tech string, n int) string {
	out := strings.ReplaceAll(template, "{tech}", tech)
	out = strings.ReplaceAll(out, "{n}", strconv.Itoa(n))
	return strings.TrimSpace(out)
}

// splitQuota divides target across n buckets, spreading the remainder
// over the first buckets.
func splitQuota(target, n int) []int {
	out := make([]int, n)
	base := target / n
	rem := target % n
	for i := range out {
		out[i] = base
		if i < rem {
			out[i]++
		}
	}
	return out
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
