package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/harvest-cli/internal/adapters/driven/storage/sqlite"
)

var flagRunsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Show recent pipeline runs",
	Long:  `Lists the most recent harvest, synthesis, and assembly runs from the run ledger, newest first.`,
	RunE:  runRuns,
}

func init() {
	runsCmd.Flags().IntVar(&flagRunsLimit, "limit", 20, "maximum number of runs to show")
	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, _ []string) error {
	runStore, err := sqlite.NewRunStore(settings.DataDir)
	if err != nil {
		return err
	}
	defer runStore.Close()

	recs, err := runStore.ListRuns(cmd.Context(), flagRunsLimit)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		cmd.Println("No runs recorded yet.")
		return nil
	}

	cmd.Printf("%-20s %-11s %-20s %8s %8s %7s  %s\n",
		"FINISHED", "KIND", "SOURCE", "SCANNED", "KEPT", "FAILED", "NOTES")
	for _, r := range recs {
		cmd.Printf("%-20s %-11s %-20s %8d %8d %7d  %s\n",
			r.FinishedAt.Format("2006-01-02 15:04:05"),
			r.Kind, r.Source, r.Scanned, r.Kept, r.Failed, r.Notes)
	}
	return nil
}
