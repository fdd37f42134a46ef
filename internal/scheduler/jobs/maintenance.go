// Package jobs holds the concrete scheduled jobs.
package jobs

import (
	"context"
	"time"

	"github.com/WENLIN-CHANG/BackTester/internal/history"
	"github.com/WENLIN-CHANG/BackTester/pkg/logger"
)

// HistoryPruneJob deletes backtest run records older than the retention
// window.
type HistoryPruneJob struct {
	repo      *history.Repository
	retention time.Duration
	logger    *logger.Logger
}

// NewHistoryPruneJob creates a new history prune job.
func NewHistoryPruneJob(repo *history.Repository, retention time.Duration, log *logger.Logger) *HistoryPruneJob {
	return &HistoryPruneJob{
		repo:      repo,
		retention: retention,
		logger:    log,
	}
}

// Name returns the job name
func (j *HistoryPruneJob) Name() string {
	return "history_prune"
}

// Schedule returns the cron schedule (every day at 4 AM)
func (j *HistoryPruneJob) Schedule() string {
	return "0 0 4 * * *"
}

// Run executes the prune
func (j *HistoryPruneJob) Run(ctx context.Context) error {
	cutoff := time.Now().Add(-j.retention)

	removed, err := j.repo.PruneOlderThan(ctx, cutoff)
	if err != nil {
		return err
	}

	if removed > 0 {
		j.logger.WithFields(map[string]interface{}{
			"removed": removed,
			"cutoff":  cutoff.Format("2006-01-02"),
		}).Info("Pruned old backtest runs")
	}

	return nil
}
