package worker

import (
	"context"
	"fmt"
	"time"

	"timeTracker/internal/logger"
	"timeTracker/internal/models/entry"
	"timeTracker/internal/service"

	"go.uber.org/zap"
)

// StaleEntryWorker периодически ищет таймеры, запущенные слишком давно,
// и пишет о них предупреждение. Останавливать их автоматически нельзя:
// забытый таймер должен закрыть владелец, иначе агрегаты получат мусорную
// длительность.
type StaleEntryWorker struct {
	repo      service.EntryRepository
	interval  time.Duration
	threshold time.Duration
	batchSize int
}

func NewStaleEntryWorker(repo service.EntryRepository, interval, threshold *time.Duration, batchSize *int) *StaleEntryWorker {
	var intervalToSet time.Duration
	if interval == nil {
		intervalToSet = 5 * time.Minute
	} else {
		intervalToSet = *interval
	}

	var thresholdToSet time.Duration
	if threshold == nil {
		thresholdToSet = 12 * time.Hour
	} else {
		thresholdToSet = *threshold
	}

	var batchToSet int
	if batchSize == nil {
		batchToSet = 100
	} else {
		batchToSet = *batchSize
	}

	return &StaleEntryWorker{
		repo:      repo,
		interval:  intervalToSet,
		threshold: thresholdToSet,
		batchSize: batchToSet,
	}
}

func (w *StaleEntryWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			logger.Info("Worker: Фоновая проверка зависших таймеров", zap.Time("started_at", time.Now()))
			w.Check(ctx)
		case <-ctx.Done():
			logger.Info("Worker: Фоновая проверка останавливается")
			return
		}
	}
}

func (w *StaleEntryWorker) Check(ctx context.Context) {
	start := time.Now()

	entries, err := w.getStaleEntries(ctx)
	if err != nil {
		logger.Warn("Worker: ошибка получения таймеров", zap.Error(err))
		return
	}

	for _, e := range entries {
		logger.Warn("Worker: Таймер запущен подозрительно долго",
			zap.String("entry_id", e.UUID.String()),
			zap.String("user_id", e.UserID.String()),
			zap.Time("started_at", e.StartedAt),
			zap.Duration("running_for", time.Since(e.StartedAt)),
		)
	}

	logger.Info(
		"Worker: Завершение проверки таймеров",
		zap.Duration("ms", time.Since(start)),
		zap.Int("stale", len(entries)),
	)
}

func (w *StaleEntryWorker) getStaleEntries(ctx context.Context) ([]*entry.TimeEntry, error) {
	cutoff := time.Now().Add(-w.threshold)

	entries, err := w.repo.GetActiveOlderThan(ctx, cutoff, w.batchSize)
	if err != nil {
		return nil, fmt.Errorf("получение зависших таймеров: %w", err)
	}
	return entries, nil
}
