package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/markdave123-py/Wikifaq/internal/core"
	"github.com/markdave123-py/Wikifaq/internal/metrics"
	"github.com/markdave123-py/Wikifaq/internal/models"
)

// OrchestratorConfig tunes the wave scheduler.
//
// Concurrency:  page pipelines in flight inside one wave.
// BatchSize:    pending rows pulled per batch; 1 degenerates to the
//               single-page path.
// WaveDelay:    pause between settled waves.
// PollInterval: idle sleep when the queue has no pending rows.
type OrchestratorConfig struct {
	Concurrency  int
	BatchSize    int
	WaveDelay    time.Duration
	PollInterval time.Duration
}

// Orchestrator pulls pending queue rows and runs page pipelines in
// fixed-size concurrent waves. A wave fully settles before the next starts.
type Orchestrator struct {
	db       core.DbClient
	pipeline *PagePipeline
	metrics  *metrics.Metrics
	cfg      OrchestratorConfig
	logger   *slog.Logger
}

func NewOrchestrator(db core.DbClient, p *PagePipeline, m *metrics.Metrics, cfg OrchestratorConfig) *Orchestrator {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 3
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = cfg.Concurrency
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 30 * time.Second
	}
	return &Orchestrator{
		db:       db,
		pipeline: p,
		metrics:  m,
		cfg:      cfg,
		logger:   slog.Default().With("component", "orchestrator"),
	}
}

// Run polls the queue until ctx is cancelled, sleeping PollInterval when no
// pending work exists.
func (o *Orchestrator) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		processed, err := o.RunBatch(ctx)
		if err != nil {
			o.logger.Error("batch run failed", "error", err)
		}
		if processed > 0 {
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(o.cfg.PollInterval):
		}
	}
}

// RunBatch claims and processes up to BatchSize pending entries in waves of
// Concurrency. Returns the number of entries taken to a terminal status.
func (o *Orchestrator) RunBatch(ctx context.Context) (int, error) {
	entries, err := o.db.ReadPendingQueue(ctx, o.cfg.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("read pending queue: %w", err)
	}
	if len(entries) == 0 {
		o.updateQueueDepth(ctx)
		return 0, nil
	}

	var processed atomic.Int64
	for start := 0; start < len(entries); start += o.cfg.Concurrency {
		end := start + o.cfg.Concurrency
		if end > len(entries) {
			end = len(entries)
		}

		g, waveCtx := errgroup.WithContext(ctx)
		g.SetLimit(o.cfg.Concurrency)
		for i := start; i < end; i++ {
			entry := entries[i]
			g.Go(func() error {
				if o.processEntry(waveCtx, &entry) {
					processed.Add(1)
				}
				// Sibling pages must not be aborted by one page's failure;
				// every error is converted to a terminal status above.
				return nil
			})
		}
		_ = g.Wait()

		if end < len(entries) && o.cfg.WaveDelay > 0 {
			select {
			case <-ctx.Done():
				o.updateQueueDepth(ctx)
				return int(processed.Load()), nil
			case <-time.After(o.cfg.WaveDelay):
			}
		}
	}

	o.updateQueueDepth(ctx)
	return int(processed.Load()), nil
}

// processEntry claims one entry and runs its pipeline, converting any error
// or panic into a terminal failed status for that page only. Returns true
// when the entry reached a terminal status through this worker.
func (o *Orchestrator) processEntry(ctx context.Context, entry *models.QueueEntry) bool {
	claimed, err := o.db.ClaimQueueEntry(ctx, entry.ID)
	if err != nil {
		o.logger.Error("claim failed", "slug", entry.Slug, "error", err)
		return false
	}
	if !claimed {
		// Another worker won the row between read and claim.
		return false
	}

	start := time.Now()
	runErr := o.runSafely(ctx, entry)
	if o.metrics != nil {
		o.metrics.PageDuration.Observe(time.Since(start).Seconds())
	}

	if runErr != nil {
		o.logger.Warn("page failed", "slug", entry.Slug, "error", runErr)
		if err := o.db.TransitionQueue(ctx, entry.ID, models.StatusFailed, runErr.Error()); err != nil {
			o.logger.Error("failed to record terminal failure", "slug", entry.Slug, "error", err)
		}
		if o.metrics != nil {
			o.metrics.PagesProcessedTotal.WithLabelValues("failed").Inc()
		}
		return true
	}

	if err := o.db.TransitionQueue(ctx, entry.ID, models.StatusCompleted, ""); err != nil {
		o.logger.Error("failed to record completion", "slug", entry.Slug, "error", err)
		return true
	}
	if o.metrics != nil {
		o.metrics.PagesProcessedTotal.WithLabelValues("completed").Inc()
	}
	return true
}

func (o *Orchestrator) runSafely(ctx context.Context, entry *models.QueueEntry) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pipeline panic: %v", r)
		}
	}()
	return o.pipeline.ProcessPage(ctx, entry)
}

func (o *Orchestrator) updateQueueDepth(ctx context.Context) {
	if o.metrics == nil {
		return
	}
	stats, err := o.db.QueueStats(ctx)
	if err != nil {
		return
	}
	o.metrics.QueueDepth.WithLabelValues(models.StatusPending).Set(float64(stats.Pending))
	o.metrics.QueueDepth.WithLabelValues(models.StatusProcessing).Set(float64(stats.Processing))
	o.metrics.QueueDepth.WithLabelValues(models.StatusCompleted).Set(float64(stats.Completed))
	o.metrics.QueueDepth.WithLabelValues(models.StatusFailed).Set(float64(stats.Failed))
}
