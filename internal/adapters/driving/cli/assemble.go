package cli

import (
	"github.com/spf13/cobra"

	filestore "github.com/custodia-labs/harvest-cli/internal/adapters/driven/storage/file"
	"github.com/custodia-labs/harvest-cli/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/harvest-cli/internal/core/services"
)

var (
	flagRatio       float64
	flagSeed        int64
	flagNoSynthetic bool
	flagFromCorpora []string
)

var assembleCmd = &cobra.Command{
	Use:   "assemble",
	Short: "Assemble the train/eval dataset partitions",
	Long: `Merges the harvested corpora with the synthesis checkpoint,
deduplicates, and writes shuffled train/eval JSONL partitions plus a
manifest. The split is deterministic: the same inputs, ratio, and seed
always reproduce identical files.`,
	RunE: runAssemble,
}

func init() {
	assembleCmd.Flags().Float64Var(&flagRatio, "ratio", 0, "train share in (0, 1] (0 uses config)")
	assembleCmd.Flags().Int64Var(&flagSeed, "seed", 0, "shuffle seed (0 uses config)")
	assembleCmd.Flags().BoolVar(&flagNoSynthetic, "no-synthetic", false, "exclude the synthesis checkpoint")
	assembleCmd.Flags().StringSliceVar(&flagFromCorpora, "corpus", nil, "corpus names to include (default all harvested sources)")
	rootCmd.AddCommand(assembleCmd)
}

func runAssemble(cmd *cobra.Command, _ []string) error {
	sources := flagFromCorpora
	if len(sources) == 0 {
		sources = knownSources()
	}
	ratio := settings.Assembly.TrainRatio
	if flagRatio > 0 {
		ratio = flagRatio
	}
	seed := settings.Assembly.Seed
	if flagSeed != 0 {
		seed = flagSeed
	}

	runStore, err := sqlite.NewRunStore(settings.DataDir)
	if err != nil {
		return err
	}
	defer runStore.Close()

	svc := services.NewAssembleService(
		filestore.NewCorpusStore(corporaDir()),
		filestore.NewCheckpointStore(checkpointPath()),
		filestore.NewPartitionWriter(datasetDir()),
		runStore,
		services.AssembleConfig{
			Sources:          sources,
			TrainRatio:       ratio,
			Seed:             seed,
			IncludeSynthetic: !flagNoSynthetic,
		},
	)

	result, err := svc.Assemble(cmd.Context())
	if err != nil {
		return err
	}

	cmd.Printf("Dataset written to %s\n", datasetDir())
	cmd.Printf("  train: %d\n", result.Train)
	cmd.Printf("  eval:  %d\n", result.Eval)
	return nil
}
