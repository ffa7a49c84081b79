package cli

import (
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"

	configfile "github.com/custodia-labs/harvest-cli/internal/adapters/driven/config/file"
	filestore "github.com/custodia-labs/harvest-cli/internal/adapters/driven/storage/file"
	"github.com/custodia-labs/harvest-cli/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/harvest-cli/internal/connectors/discussions"
	"github.com/custodia-labs/harvest-cli/internal/connectors/github"
	"github.com/custodia-labs/harvest-cli/internal/connectors/stackexchange"
	"github.com/custodia-labs/harvest-cli/internal/core/domain"
	"github.com/custodia-labs/harvest-cli/internal/core/ports/driven"
	"github.com/custodia-labs/harvest-cli/internal/core/services"
	"github.com/custodia-labs/harvest-cli/internal/filter"
	"github.com/custodia-labs/harvest-cli/internal/logger"
	"github.com/custodia-labs/harvest-cli/internal/plan"
)

var (
	flagSources  []string
	flagCap      int
	flagMinDate  string
	flagMaxPulls int
)

var harvestCmd = &cobra.Command{
	Use:   "collect",
	Short: "Collect and filter candidates from the configured sources",
	Long: `Scans every repository and tag in the harvest plan, filters the
candidates for quality, deduplicates them, and writes one corpus file
per source plus a combined file under the data directory.

Requires GITHUB_TOKEN for the GitHub sources. STACKAPPS_KEY raises the
Stack Exchange quota but is optional.`,
	RunE: runHarvest,
}

func init() {
	harvestCmd.Flags().StringSliceVar(&flagSources, "source", nil,
		fmt.Sprintf("restrict to specific sources (%v)", knownSources()))
	harvestCmd.Flags().IntVar(&flagCap, "cap", 0, "per-repo/tag candidate cap (0 uses config)")
	harvestCmd.Flags().StringVar(&flagMinDate, "min-date", "", "creation-date floor, YYYY-MM-DD (empty uses config)")
	harvestCmd.Flags().IntVar(&flagMaxPulls, "max-pulls", 0, "closed pull requests scanned per repo for review comments")
	rootCmd.AddCommand(harvestCmd)
}

func knownSources() []string {
	return []string{
		domain.SourceGitHubIssues,
		domain.SourceGitHubDiscussions,
		domain.SourceGitHubReviews,
		domain.SourceStackOverflow,
	}
}

// selectSources normalises the --source flag into a membership test.
// An empty selection means every source.
func selectSources(requested []string) (func(string) bool, error) {
	if len(requested) == 0 {
		return func(string) bool { return true }, nil
	}
	valid := make(map[string]bool, 4)
	for _, s := range knownSources() {
		valid[s] = true
	}
	want := make(map[string]bool, len(requested))
	for _, s := range requested {
		if !valid[s] {
			return nil, fmt.Errorf("%w: unknown source %q (valid: %v)",
				domain.ErrUnsupportedSource, s, knownSources())
		}
		want[s] = true
	}
	return func(s string) bool { return want[s] }, nil
}

// planUnits flattens one source's repos or tags across every
// technology in the plan.
func planUnits(p *plan.Plan, pick func(t plan.Technology) []string) []driven.SourceUnit {
	var units []driven.SourceUnit
	for _, t := range p.Technologies {
		for _, origin := range pick(t) {
			units = append(units, driven.SourceUnit{Tech: t.Name, Origin: origin})
		}
	}
	return units
}

// reviewFilter is the lighter chain for review comments; their length
// bounds are enforced during collection, where code and remark are
// still separate.
func reviewFilter() *filter.Filter {
	return filter.New(
		filter.ASCIIRatio(filter.DefaultMinASCIIRatio),
		filter.NotAuthorResponse(),
		filter.NotLowValue(),
	)
}

func runHarvest(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	pl, err := loadPlan()
	if err != nil {
		return err
	}
	wanted, err := selectSources(flagSources)
	if err != nil {
		return err
	}

	if flagMinDate != "" {
		settings.Harvest.MinDate = flagMinDate
	}
	minDate, err := settings.MinDate()
	if err != nil {
		return err
	}
	perUnitCap := settings.Harvest.PerUnitCap
	if flagCap > 0 {
		perUnitCap = flagCap
	}

	defaultFilter := filter.NewDefault(filter.Config{})
	var jobs []services.HarvestJob

	needGitHub := wanted(domain.SourceGitHubIssues) || wanted(domain.SourceGitHubReviews)
	if needGitHub || wanted(domain.SourceGitHubDiscussions) {
		token := configfile.GitHubToken()

		if needGitHub {
			ghc, err := github.NewClient(ctx, token)
			if err != nil {
				return err
			}
			ghCfg := github.Config{Token: token, MinDate: minDate, MaxPulls: flagMaxPulls}

			if wanted(domain.SourceGitHubIssues) {
				jobs = append(jobs, services.HarvestJob{
					Collector: github.NewIssuesCollector(ghc, ghCfg),
					Units:     planUnits(pl, func(t plan.Technology) []string { return t.IssueRepos }),
					Filter:    defaultFilter,
				})
			}
			if wanted(domain.SourceGitHubReviews) {
				jobs = append(jobs, services.HarvestJob{
					Collector: github.NewReviewsCollector(ghc, ghCfg),
					Units:     planUnits(pl, func(t plan.Technology) []string { return t.ReviewRepos }),
					Filter:    reviewFilter(),
				})
			}
		}
		if wanted(domain.SourceGitHubDiscussions) {
			dc, err := discussions.NewClient(token)
			if err != nil {
				return err
			}
			jobs = append(jobs, services.HarvestJob{
				Collector: discussions.New(dc, discussions.Config{MinDate: minDate}),
				Units:     planUnits(pl, func(t plan.Technology) []string { return t.DiscussionRepos }),
				Filter:    defaultFilter,
			})
		}
	}

	if wanted(domain.SourceStackOverflow) {
		sec := stackexchange.NewClient(settings.Harvest.Site, configfile.StackAppKey())
		jobs = append(jobs, services.HarvestJob{
			Collector: stackexchange.New(sec, stackexchange.Config{MinDate: minDate}),
			Units:     planUnits(pl, func(t plan.Technology) []string { return t.Tags }),
			Filter:    defaultFilter,
		})
	}

	runStore, err := sqlite.NewRunStore(settings.DataDir)
	if err != nil {
		return err
	}
	defer runStore.Close()

	svc := services.NewHarvestService(
		jobs,
		filestore.NewCorpusStore(corporaDir()),
		runStore,
		services.HarvestConfig{
			PerUnitCap: perUnitCap,
			MinDate:    minDate.Format("2006-01-02"),
		},
	)

	start := time.Now()
	stats, err := svc.Harvest(ctx)
	if err != nil {
		return err
	}

	cmd.Printf("Harvest finished in %s\n", time.Since(start).Round(time.Second))
	cmd.Printf("  scanned:    %d\n", stats.Scanned)
	cmd.Printf("  kept:       %d\n", stats.Kept)
	cmd.Printf("  duplicates: %d\n", stats.Duplicates)
	printCounts(cmd, "by tech", stats.ByTech)
	printCounts(cmd, "filtered", stats.Filtered)
	logger.Debug("corpora written under %s", corporaDir())
	return nil
}

func printCounts(cmd *cobra.Command, label string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	cmd.Printf("  %s:\n", label)
	for _, k := range keys {
		cmd.Printf("    %-24s %d\n", k, counts[k])
	}
}

func corporaDir() string {
	return filepath.Join(settings.DataDir, "corpora")
}

func checkpointPath() string {
	return filepath.Join(settings.DataDir, "checkpoint.json")
}

func datasetDir() string {
	return filepath.Join(settings.DataDir, "dataset")
}
