// Package cycle orchestrates one full poll: catalogue sync, tweet ingestion,
// correlation, prioritization, and broadcast, with a persistent record per
// run.
package cycle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"newsalpha/internal/alpha"
	"newsalpha/internal/config"
	"newsalpha/internal/db"
	"newsalpha/internal/models"
	"newsalpha/internal/repository"
)

type catalogueSyncer interface {
	Sync(ctx context.Context, since time.Time) (int64, error)
}

type tweetIngester interface {
	Ingest(ctx context.Context, since, until time.Time) (int64, error)
}

type correlator interface {
	Run(ctx context.Context) (int, error)
}

type packageBuilder interface {
	Prioritize(ctx context.Context) ([]alpha.Package, error)
}

type packageSender interface {
	Broadcast(ctx context.Context, packages []alpha.Package) (int, error)
}

type Runner struct {
	store       repository.Store
	catalogue   catalogueSyncer
	tweets      tweetIngester
	engine      correlator
	prioritizer packageBuilder
	scheduler   packageSender

	cycleCfg config.CycleConfig
	dedupCfg config.DedupConfig
	logger   *zap.Logger

	mu sync.Mutex
}

func NewRunner(
	store repository.Store,
	catalogue catalogueSyncer,
	tweets tweetIngester,
	engine correlator,
	prioritizer packageBuilder,
	scheduler packageSender,
	cycleCfg config.CycleConfig,
	dedupCfg config.DedupConfig,
	logger *zap.Logger,
) *Runner {
	return &Runner{
		store:       store,
		catalogue:   catalogue,
		tweets:      tweets,
		engine:      engine,
		prioritizer: prioritizer,
		scheduler:   scheduler,
		cycleCfg:    cycleCfg,
		dedupCfg:    dedupCfg,
		logger:      logger,
	}
}

// RunOnce executes a single cycle. An overlapping invocation is skipped
// rather than queued: a slow cycle must not pile up behind itself. Stage
// failures are recorded and the cycle presses on, so a broken upstream never
// stops already-ingested news from being adjudicated and delivered.
func (r *Runner) RunOnce(ctx context.Context) {
	if !r.mu.TryLock() {
		r.logger.Warn("previous cycle still running, skipping this tick")
		return
	}
	defer r.mu.Unlock()

	now := db.NowUTC()
	record := &models.CycleRecord{
		RunID:     uuid.NewString(),
		StartedAt: now,
		Status:    models.CycleStatusPending,
	}
	if number, err := r.store.NextCycleNumber(ctx); err == nil {
		record.Number = number
	} else {
		r.logger.Warn("cycle numbering unavailable", zap.Error(err))
	}
	if err := r.store.InsertCycleRecord(ctx, record); err != nil {
		r.logger.Warn("insert cycle record failed", zap.Error(err))
	}

	logger := r.logger.With(zap.String("run_id", record.RunID), zap.Int64("cycle", record.Number))
	logger.Info("cycle started")

	defer func() {
		if rec := recover(); rec != nil {
			record.Status = models.CycleStatusFailed
			record.Note = fmt.Sprintf("panic: %v", rec)
			logger.Error("cycle panicked", zap.Any("panic", rec))
		}
		finished := db.NowUTC()
		record.FinishedAt = &finished
		if record.Status == models.CycleStatusPending {
			record.Status = models.CycleStatusSuccess
		}
		if err := r.store.FinalizeCycleRecord(ctx, record); err != nil {
			logger.Warn("finalize cycle record failed", zap.Error(err))
		}
		logger.Info("cycle finished",
			zap.String("status", record.Status),
			zap.Int("tweets_fetched", record.TweetsFetched),
			zap.Int("markets_fetched", record.MarketsFetched),
			zap.Int("correlations_found", record.CorrelationsFound),
			zap.Int("packages_sent", record.PackagesSent),
		)
	}()

	since := now.Add(-r.cycleCfg.PollInterval)

	marketsFetched, err := r.catalogue.Sync(ctx, since)
	if err != nil {
		r.fail(record, logger, "catalogue sync", err)
	}
	record.MarketsFetched = int(marketsFetched)

	tweetsFetched, err := r.tweets.Ingest(ctx, since, now)
	if err != nil {
		r.fail(record, logger, "tweet ingestion", err)
	}
	record.TweetsFetched = int(tweetsFetched)

	found, err := r.engine.Run(ctx)
	if err != nil {
		r.fail(record, logger, "correlation", err)
	}
	record.CorrelationsFound = found

	packages, err := r.prioritizer.Prioritize(ctx)
	if err != nil {
		r.fail(record, logger, "prioritization", err)
		return
	}
	packages = alpha.FilterDuplicatePackages(packages, r.crossThreshold(), logger)

	sent, err := r.scheduler.Broadcast(ctx, packages)
	if err != nil {
		r.fail(record, logger, "broadcast", err)
	}
	record.PackagesSent = sent
}

func (r *Runner) fail(record *models.CycleRecord, logger *zap.Logger, stage string, err error) {
	record.Status = models.CycleStatusFailed
	if record.Note == "" {
		record.Note = stage + ": " + err.Error()
	}
	logger.Error("cycle stage failed", zap.String("stage", stage), zap.Error(err))
}

func (r *Runner) crossThreshold() float64 {
	if r.dedupCfg.SimilarityThreshold > 0 {
		return r.dedupCfg.SimilarityThreshold
	}
	return 0.95
}
