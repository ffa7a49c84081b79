package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	configfile "github.com/custodia-labs/harvest-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/harvest-cli/internal/adapters/driven/llm/anthropic"
	"github.com/custodia-labs/harvest-cli/internal/adapters/driven/llm/ollama"
	filestore "github.com/custodia-labs/harvest-cli/internal/adapters/driven/storage/file"
	"github.com/custodia-labs/harvest-cli/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/harvest-cli/internal/core/ports/driven"
	"github.com/custodia-labs/harvest-cli/internal/core/services"
)

var (
	flagCount     int
	flagBatchSize int
	flagModel     string
	flagProvider  string
)

var synthesizeCmd = &cobra.Command{
	Use:   "synthesize",
	Short: "Generate synthetic training examples",
	Long: `Generates synthetic troubleshooting examples batch by batch against
the scenario templates in the plan, checkpointing progress so an
interrupted run loses at most one checkpoint interval of work.

Requires ANTHROPIC_API_KEY unless the provider is ollama.`,
	RunE: runSynthesize,
}

func init() {
	synthesizeCmd.Flags().IntVar(&flagCount, "count", 100, "number of examples to generate this run")
	synthesizeCmd.Flags().IntVar(&flagBatchSize, "batch", 0, "examples requested per prompt (0 uses config)")
	synthesizeCmd.Flags().StringVar(&flagModel, "model", "", "model override (empty uses config)")
	synthesizeCmd.Flags().StringVar(&flagProvider, "provider", "", "completion backend, anthropic or ollama (empty uses config)")
	rootCmd.AddCommand(synthesizeCmd)
}

// newLLM builds the configured completion backend.
func newLLM(provider, model string) (driven.LLMService, error) {
	switch provider {
	case "anthropic":
		return anthropic.NewLLMService(anthropic.Config{
			APIKey:  configfile.AnthropicAPIKey(),
			BaseURL: settings.Synthesis.BaseURL,
			Model:   model,
		})
	case "ollama":
		return ollama.NewLLMService(ollama.Config{
			BaseURL: settings.Synthesis.BaseURL,
			Model:   model,
		}), nil
	default:
		return nil, fmt.Errorf("unknown synthesis provider %q (anthropic or ollama)", provider)
	}
}

func runSynthesize(cmd *cobra.Command, _ []string) error {
	pl, err := loadPlan()
	if err != nil {
		return err
	}
	if len(pl.Scenarios) == 0 {
		return errors.New("the plan has no synthesis scenarios")
	}

	model := settings.Synthesis.Model
	if flagModel != "" {
		model = flagModel
	}
	provider := settings.Synthesis.Provider
	if flagProvider != "" {
		provider = flagProvider
	}
	llm, err := newLLM(provider, model)
	if err != nil {
		return err
	}
	defer llm.Close()

	if err := llm.Ping(cmd.Context()); err != nil {
		return err
	}

	batchSize := settings.Synthesis.BatchSize
	if flagBatchSize > 0 {
		batchSize = flagBatchSize
	}

	runStore, err := sqlite.NewRunStore(settings.DataDir)
	if err != nil {
		return err
	}
	defer runStore.Close()

	svc := services.NewSynthesisService(
		llm,
		filestore.NewCheckpointStore(checkpointPath()),
		runStore,
		pl.TechNames(),
		pl.Scenarios,
		services.SynthesisConfig{
			BatchSize:          batchSize,
			CheckpointInterval: settings.Synthesis.CheckpointInterval,
			MaxTokens:          settings.Synthesis.MaxTokens,
			Temperature:        settings.Synthesis.Temperature,
		},
	)

	report, err := svc.Synthesize(cmd.Context(), flagCount)
	if err != nil {
		return err
	}

	cmd.Printf("Generated %d examples with %s (%d in checkpoint)\n",
		report.Stats.Total, llm.ModelName(), len(report.Examples))
	if report.Stats.FailedBatches > 0 {
		cmd.Printf("  failed batches: %d\n", report.Stats.FailedBatches)
	}
	printCounts(cmd, "by tech", report.Stats.ByTech)
	printCounts(cmd, "by category", report.Stats.ByCategory)
	return nil
}
