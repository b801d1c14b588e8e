package maintenance

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/casapulse/pulse-core/internal/infrastructure/config"
)

// Pruner deletes telemetry history older than a cutoff.
type Pruner interface {
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Rebuilder refreshes the cache's derived home state from the store.
type Rebuilder interface {
	Rebuild(ctx context.Context) error
}

// Logger is the minimal logging interface the runner needs.
type Logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

// Runner owns the cron scheduler for housekeeping jobs.
type Runner struct {
	cfg    config.MaintenanceConfig
	store  Pruner
	cache  Rebuilder
	logger Logger
	cron   *cron.Cron

	// now is the clock used to compute the prune cutoff. Injectable for tests.
	now func() time.Time
}

// New creates a maintenance runner. Jobs are registered and started by Start.
func New(cfg config.MaintenanceConfig, store Pruner, cache Rebuilder, logger Logger) *Runner {
	return &Runner{
		cfg:    cfg,
		store:  store,
		cache:  cache,
		logger: logger,
		cron:   cron.New(cron.WithSeconds()),
		now:    time.Now,
	}
}

// Start registers the configured jobs and starts the scheduler.
// A zero retention disables pruning; an empty schedule disables its job.
func (r *Runner) Start() error {
	if r.cfg.RetentionDays > 0 && r.cfg.PruneSchedule != "" {
		if _, err := r.cron.AddFunc(r.cfg.PruneSchedule, r.runPrune); err != nil {
			return fmt.Errorf("registering prune schedule %q: %w", r.cfg.PruneSchedule, err)
		}
	}
	if r.cfg.RebuildSchedule != "" {
		if _, err := r.cron.AddFunc(r.cfg.RebuildSchedule, r.runRebuild); err != nil {
			return fmt.Errorf("registering rebuild schedule %q: %w", r.cfg.RebuildSchedule, err)
		}
	}

	r.cron.Start()
	r.logger.Info("maintenance scheduler started",
		"prune_schedule", r.cfg.PruneSchedule,
		"rebuild_schedule", r.cfg.RebuildSchedule,
		"retention_days", r.cfg.RetentionDays,
	)
	return nil
}

// Stop halts the scheduler and waits for running jobs to finish.
func (r *Runner) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
}

// runPrune deletes history rows older than the retention window.
func (r *Runner) runPrune() {
	cutoff := r.now().AddDate(0, 0, -r.cfg.RetentionDays)
	pruned, err := r.store.PruneBefore(context.Background(), cutoff)
	if err != nil {
		r.logger.Error("history prune failed", "error", err)
		return
	}
	r.logger.Info("history pruned", "rows", pruned, "cutoff", cutoff.Format(time.RFC3339))
}

// runRebuild refreshes the cache's membership sets and home mappings.
func (r *Runner) runRebuild() {
	if err := r.cache.Rebuild(context.Background()); err != nil {
		r.logger.Error("cache rebuild failed", "error", err)
		return
	}
	r.logger.Info("cache rebuilt")
}
