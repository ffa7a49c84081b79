package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/harvest-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/harvest-cli/internal/core/domain"
	"github.com/custodia-labs/harvest-cli/internal/core/ports/driven"
	"github.com/custodia-labs/harvest-cli/internal/plan"
)

// fakeLLM scripts Generate responses in order, then repeats the last.
type fakeLLM struct {
	responses []generation
	calls     int
	prompts   []string
}

type generation struct {
	text string
	err  error
}

func (f *fakeLLM) Generate(_ context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	f.prompts = append(f.prompts, prompt)
	i := f.calls
	if i >= len(f.responses) {
		i = len(f.responses) - 1
	}
	f.calls++
	g := f.responses[i]
	return g.text, g.err
}

func (f *fakeLLM) ModelName() string { return "fake-model" }

func (f *fakeLLM) Ping(context.Context) error { return nil }

func (f *fakeLLM) Close() error { return nil }

func batchText(n int) string {
	out := "Sure, here you go:\n["
	for i := 0; i < n; i++ {
		if i > 0 {
			out += ","
		}
		out += fmt.Sprintf(`{"situation":"situation %d","response":"response %d"}`, i, i)
	}
	return out + "]\nHope this helps!"
}

func testScenarios() []plan.Scenario {
	return []plan.Scenario{
		{Name: "triage", Category: "troubleshooting", Prompt: "Produce {n} cases for {tech}."},
	}
}

func newSynth(llm driven.LLMService, cps *memory.CheckpointStore, cfg SynthesisConfig) *SynthesisService {
	svc := NewSynthesisService(llm, cps, nil, []string{"kubernetes", "docker"}, testScenarios(), cfg)
	svc.sleep = func(context.Context, time.Duration) error { return nil }
	return svc
}

func TestSynthesize(t *testing.T) {
	llm := &fakeLLM{responses: []generation{{text: batchText(5)}}}
	cps := memory.NewCheckpointStore()
	svc := newSynth(llm, cps, SynthesisConfig{BatchSize: 5, CheckpointInterval: 50})

	report, err := svc.Synthesize(context.Background(), 10)
	require.NoError(t, err)

	assert.Equal(t, 10, report.Stats.Total)
	assert.Equal(t, 5, report.Stats.ByTech["kubernetes"])
	assert.Equal(t, 5, report.Stats.ByTech["docker"])
	assert.Equal(t, 10, report.Stats.ByCategory["troubleshooting"])
	assert.Zero(t, report.Stats.FailedBatches)
	require.Len(t, report.Examples, 10)

	ex := report.Examples[0]
	require.Len(t, ex.Messages, 3)
	assert.Equal(t, "system", ex.Messages[0].Role)
	assert.Equal(t, "situation 0", ex.Messages[1].Content)
	assert.Equal(t, "response 0", ex.Messages[2].Content)
	assert.Equal(t, domain.SourceSynthetic, ex.Meta.Source)
	assert.Equal(t, "triage", ex.Meta.Scenario)
	assert.NotEmpty(t, ex.Meta.ID)

	// Prompt carries the instantiated template.
	assert.Contains(t, llm.prompts[0], "Produce 5 cases for kubernetes.")
	assert.Contains(t, llm.prompts[0], "JSON array")

	// Final checkpoint holds everything.
	cp, err := cps.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, cp.Examples, 10)
	assert.Equal(t, "fake-model", cp.Model)
}

func TestSynthesizeCheckpointCadence(t *testing.T) {
	llm := &fakeLLM{responses: []generation{{text: batchText(4)}}}
	cps := memory.NewCheckpointStore()
	svc := newSynth(llm, cps, SynthesisConfig{BatchSize: 4, CheckpointInterval: 4})

	_, err := svc.Synthesize(context.Background(), 8)
	require.NoError(t, err)

	// One save per interval boundary plus the final save.
	assert.Equal(t, 3, cps.Saves)
}

func TestSynthesizeParseFailureDiscardsBatch(t *testing.T) {
	llm := &fakeLLM{responses: []generation{
		{text: "I cannot produce JSON today."},
		{text: batchText(2)},
	}}
	cps := memory.NewCheckpointStore()
	svc := NewSynthesisService(llm, cps, nil, []string{"kubernetes"}, testScenarios(),
		SynthesisConfig{BatchSize: 2, CheckpointInterval: 50})
	svc.sleep = func(context.Context, time.Duration) error { return nil }

	report, err := svc.Synthesize(context.Background(), 2)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Stats.Total)
	assert.Equal(t, 1, report.Stats.FailedBatches)
}

func TestSynthesizeAPIErrorBacksOffAndSkips(t *testing.T) {
	llm := &fakeLLM{responses: []generation{
		{err: errors.New("overloaded")},
		{text: batchText(2)},
	}}
	cps := memory.NewCheckpointStore()
	svc := NewSynthesisService(llm, cps, nil, []string{"kubernetes"}, testScenarios(),
		SynthesisConfig{BatchSize: 2, CheckpointInterval: 50})

	var slept []time.Duration
	svc.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	report, err := svc.Synthesize(context.Background(), 2)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Stats.Total)
	assert.Equal(t, 1, report.Stats.FailedBatches)
	require.Len(t, slept, 1)
	assert.Equal(t, apiErrorBackoff, slept[0])
}

func TestSynthesizeGivesUpAfterAttemptBudget(t *testing.T) {
	llm := &fakeLLM{responses: []generation{{text: "never json"}}}
	cps := memory.NewCheckpointStore()
	svc := NewSynthesisService(llm, cps, nil, []string{"kubernetes"}, testScenarios(),
		SynthesisConfig{BatchSize: 5, CheckpointInterval: 50})
	svc.sleep = func(context.Context, time.Duration) error { return nil }

	report, err := svc.Synthesize(context.Background(), 5)
	require.NoError(t, err)

	assert.Zero(t, report.Stats.Total)
	assert.Positive(t, report.Stats.FailedBatches)
	assert.Less(t, llm.calls, 10)
}

func TestSynthesizeResumesFromCheckpoint(t *testing.T) {
	cps := memory.NewCheckpointStore()
	prior := domain.Checkpoint{
		Model: "fake-model",
		Stats: domain.NewGenerationStats(),
		Examples: []domain.TrainingExample{
			domain.NewTrainingExample("s", "u", "a", domain.ExampleMeta{ID: "prior-1", Source: domain.SourceSynthetic}),
		},
	}
	require.NoError(t, cps.Save(context.Background(), prior))

	llm := &fakeLLM{responses: []generation{{text: batchText(2)}}}
	svc := NewSynthesisService(llm, cps, nil, []string{"kubernetes"}, testScenarios(),
		SynthesisConfig{BatchSize: 2, CheckpointInterval: 50})
	svc.sleep = func(context.Context, time.Duration) error { return nil }

	report, err := svc.Synthesize(context.Background(), 2)
	require.NoError(t, err)

	// This run produced 2, and the prior example survives.
	assert.Equal(t, 2, report.Stats.Total)
	require.Len(t, report.Examples, 3)

	cp, err := cps.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, cp.HasExample("prior-1"))
}

func TestSynthesizeNeverAppendsDuplicateID(t *testing.T) {
	cps := memory.NewCheckpointStore()
	prior := domain.Checkpoint{
		Model: "fake-model",
		Stats: domain.NewGenerationStats(),
		Examples: []domain.TrainingExample{
			domain.NewTrainingExample("s", "u", "a", domain.ExampleMeta{ID: "prior-1", Source: domain.SourceSynthetic}),
		},
	}
	require.NoError(t, cps.Save(context.Background(), prior))

	llm := &fakeLLM{responses: []generation{{text: batchText(2)}}}
	svc := NewSynthesisService(llm, cps, nil, []string{"kubernetes"}, testScenarios(),
		SynthesisConfig{BatchSize: 2, CheckpointInterval: 50})
	svc.sleep = func(context.Context, time.Duration) error { return nil }

	// An id generator that first re-issues the checkpointed id.
	ids := []string{"prior-1", "gen-1", "gen-2", "gen-3"}
	svc.newID = func() string {
		id := ids[0]
		if len(ids) > 1 {
			ids = ids[1:]
		}
		return id
	}

	report, err := svc.Synthesize(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Stats.Total)

	cp, err := cps.Load(context.Background())
	require.NoError(t, err)
	seen := map[string]int{}
	for _, ex := range cp.Examples {
		seen[ex.Meta.ID]++
	}
	assert.Equal(t, 1, seen["prior-1"], "checkpointed id must not be appended again")
	for id, n := range seen {
		assert.Equal(t, 1, n, "id %s appears %d times", id, n)
	}
}

func TestSynthesizeResponseOnlyFallback(t *testing.T) {
	llm := &fakeLLM{responses: []generation{
		{text: `[{"response":"check the kubelet logs first"},{"response":"drain and reboot the node"}]`},
	}}
	cps := memory.NewCheckpointStore()
	svc := NewSynthesisService(llm, cps, nil, []string{"kubernetes"}, testScenarios(),
		SynthesisConfig{BatchSize: 2, CheckpointInterval: 50})
	svc.sleep = func(context.Context, time.Duration) error { return nil }

	report, err := svc.Synthesize(context.Background(), 2)
	require.NoError(t, err)

	require.Len(t, report.Examples, 2)
	assert.Equal(t, "check the kubelet logs first", report.Examples[0].Assistant())
	// The instantiated scenario stands in for the missing situation.
	assert.NotEmpty(t, report.Examples[0].Messages[1].Content)
}

func TestSynthesizeInputValidation(t *testing.T) {
	cps := memory.NewCheckpointStore()

	t.Run("nil llm", func(t *testing.T) {
		svc := NewSynthesisService(nil, cps, nil, []string{"k"}, testScenarios(), SynthesisConfig{})
		_, err := svc.Synthesize(context.Background(), 10)
		assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
	})

	t.Run("bad target", func(t *testing.T) {
		svc := NewSynthesisService(&fakeLLM{responses: []generation{{text: "[]"}}}, cps, nil,
			[]string{"k"}, testScenarios(), SynthesisConfig{})
		_, err := svc.Synthesize(context.Background(), 0)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("no scenarios", func(t *testing.T) {
		svc := NewSynthesisService(&fakeLLM{responses: []generation{{text: "[]"}}}, cps, nil,
			[]string{"k"}, nil, SynthesisConfig{})
		_, err := svc.Synthesize(context.Background(), 10)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestSplitQuota(t *testing.T) {
	assert.Equal(t, []int{4, 3, 3}, splitQuota(10, 3))
	assert.Equal(t, []int{5, 5}, splitQuota(10, 2))
	assert.Equal(t, []int{1, 1, 0, 0}, splitQuota(2, 4))
}
