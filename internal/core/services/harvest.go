package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/harvest-cli/internal/core/domain"
	"github.com/custodia-labs/harvest-cli/internal/core/ports/driven"
	"github.com/custodia-labs/harvest-cli/internal/core/ports/driving"
	"github.com/custodia-labs/harvest-cli/internal/filter"
	"github.com/custodia-labs/harvest-cli/internal/logger"
)

// Ensure HarvestService implements the interface.
var _ driving.Harvester = (*HarvestService)(nil)

// HarvestJob pairs one collector with the units it should scan and the
// filter its candidates must pass. Review material carries different
// bounds than prose, so the filter travels with the job.
type HarvestJob struct {
	Collector driven.Collector
	Units     []driven.SourceUnit
	Filter    *filter.Filter
}

// HarvestConfig holds harvest-wide settings.
type HarvestConfig struct {
	// PerUnitCap bounds candidates per unit. Zero means unlimited.
	PerUnitCap int

	// MinDate is recorded in each corpus envelope, "YYYY-MM-DD".
	MinDate string
}

// HarvestService runs every job, filters and deduplicates the stream,
// and persists one corpus per source.
type HarvestService struct {
	jobs        []HarvestJob
	corpusStore driven.CorpusStore
	runStore    driven.RunStore
	cfg         HarvestConfig

	now   func() time.Time
	newID func() string
}

// NewHarvestService creates a harvester. runStore may be nil to skip
// ledger recording.
func NewHarvestService(
	jobs []HarvestJob,
	corpusStore driven.CorpusStore,
	runStore driven.RunStore,
	cfg HarvestConfig,
) *HarvestService {
	return &HarvestService{
		jobs:        jobs,
		corpusStore: corpusStore,
		runStore:    runStore,
		cfg:         cfg,
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

// Harvest implements driving.Harvester. Unit failures are isolated:
// the failing unit's partial results are kept and its siblings still
// run. Only corpus persistence failures abort.
func (h *HarvestService) Harvest(ctx context.Context) (domain.HarvestStats, error) {
	total := domain.NewHarvestStats()
	deduper := NewDeduper()
	var allKept []domain.Candidate

	for _, job := range h.jobs {
		source := job.Collector.Source()
		started := h.now().UTC()
		stats := domain.NewHarvestStats()
		var kept []domain.Candidate
		failedUnits := 0

		logger.Section(fmt.Sprintf("harvest %s", source))

		for _, unit := range job.Units {
			if err := ctx.Err(); err != nil {
				return total, err
			}

			unitKept, unitErr := h.collectUnit(ctx, job, unit, &stats, deduper)
			kept = append(kept, unitKept...)
			if unitErr != nil {
				failedUnits++
				logger.Warn("harvest: unit %s/%s failed: %v", source, unit.Origin, unitErr)
			}
		}

		corpus := domain.Corpus{
			ScrapedAt: h.now().UTC(),
			Source:    source,
			MinDate:   h.cfg.MinDate,
			Stats:     stats,
			Examples:  kept,
		}
		if err := h.corpusStore.SaveCorpus(ctx, source, corpus); err != nil {
			return total, fmt.Errorf("save corpus %s: %w", source, err)
		}

		logger.Info("harvest %s: scanned=%d kept=%d dups=%d failed_units=%d",
			source, stats.Scanned, stats.Kept, stats.Duplicates, failedUnits)

		h.recordRun(ctx, driven.RunRecord{
			ID:         h.newID(),
			Kind:       "harvest",
			Source:     source,
			StartedAt:  started,
			FinishedAt: h.now().UTC(),
			Scanned:    stats.Scanned,
			Kept:       stats.Kept,
			Failed:     failedUnits,
		})

		mergeStats(&total, stats)
		allKept = append(allKept, kept...)
	}

	// One envelope with everything, alongside the per-source files.
	if len(h.jobs) > 0 {
		combined := domain.Corpus{
			ScrapedAt: h.now().UTC(),
			Source:    "combined",
			MinDate:   h.cfg.MinDate,
			Stats:     total,
			Examples:  allKept,
		}
		if err := h.corpusStore.SaveCorpus(ctx, "combined", combined); err != nil {
			return total, fmt.Errorf("save combined corpus: %w", err)
		}
	}

	return total, nil
}

// collectUnit drains one unit's candidate stream. The returned error
// reflects a provider failure; any candidates already received are
// still returned.
func (h *HarvestService) collectUnit(
	ctx context.Context,
	job HarvestJob,
	unit driven.SourceUnit,
	stats *domain.HarvestStats,
	deduper *Deduper,
) ([]domain.Candidate, error) {
	out, errs := job.Collector.Collect(ctx, unit, h.cfg.PerUnitCap)

	var kept []domain.Candidate
	for c := range out {
		stats.Scanned++

		verdict := job.Filter.Classify(c)
		if !verdict.Pass {
			stats.CountFiltered(verdict.Reason)
			continue
		}
		if !deduper.Admit(c) {
			stats.Duplicates++
			continue
		}

		stats.CountKept(c)
		kept = append(kept, c)
	}

	return kept, <-errs
}

func (h *HarvestService) recordRun(ctx context.Context, rec driven.RunRecord) {
	if h.runStore == nil {
		return
	}
	if err := h.runStore.RecordRun(ctx, rec); err != nil {
		// The ledger is audit data; losing a row never fails the run.
		logger.Warn("harvest: record run: %v", err)
	}
}

// mergeStats folds src into dst.
func mergeStats(dst *domain.HarvestStats, src domain.HarvestStats) {
	dst.Scanned += src.Scanned
	dst.Kept += src.Kept
	dst.Duplicates += src.Duplicates
	for k, v := range src.Filtered {
		dst.Filtered[k] += v
	}
	for k, v := range src.ByTech {
		dst.ByTech[k] += v
	}
	for k, v := range src.ByOrigin {
		dst.ByOrigin[k] += v
	}
}
