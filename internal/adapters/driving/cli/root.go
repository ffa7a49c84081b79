// Package cli wires the harvest pipeline behind a cobra command tree.
// Commands build their services from the loaded settings and the
// environment; secrets never come from flags or the config file.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	configfile "github.com/custodia-labs/harvest-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/harvest-cli/internal/logger"
	"github.com/custodia-labs/harvest-cli/internal/plan"
)

// version is stamped at build time via Execute.
var version = "dev"

var (
	flagVerbose  bool
	flagConfig   string
	flagDataDir  string
	flagPlanPath string

	settings configfile.Settings
)

var rootCmd = &cobra.Command{
	Use:   "harvest",
	Short: "Harvest and curate troubleshooting corpora for model training",
	Long: `Collects real-world troubleshooting exchanges from GitHub issues,
pull request reviews, discussions, and Stack Exchange, filters them for
quality, supplements them with synthetic examples, and assembles
deterministic train/eval partitions.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadSettings,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file (default ~/.harvest/config.toml)")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "override the data directory")
	rootCmd.PersistentFlags().StringVar(&flagPlanPath, "plan", "", "path to a harvest plan YAML (default built-in)")
}

func loadSettings(_ *cobra.Command, _ []string) error {
	logger.SetVerbose(flagVerbose)

	path := flagConfig
	if path == "" {
		p, err := configfile.DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}

	s, err := configfile.Load(path)
	if err != nil {
		return err
	}
	if flagDataDir != "" {
		s.DataDir = flagDataDir
	}
	if flagPlanPath != "" {
		s.PlanPath = flagPlanPath
	}
	settings = s
	return nil
}

// loadPlan returns the configured plan file, or the built-in plan when
// none is configured.
func loadPlan() (*plan.Plan, error) {
	if settings.PlanPath == "" {
		return plan.Default(), nil
	}
	p, err := plan.Load(settings.PlanPath)
	if err != nil {
		return nil, fmt.Errorf("plan %s: %w", settings.PlanPath, err)
	}
	return p, nil
}

// Execute runs the root command. v overrides the build version when
// non-empty.
func Execute(v string) error {
	if v != "" {
		version = v
	}
	return rootCmd.Execute()
}
