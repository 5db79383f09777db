package worker

import (
	"context"
	"time"

	"taskapi/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type OverdueCounter interface {
	CountOverdue(ctx context.Context, ownerID *uuid.UUID, now time.Time) (int, error)
}

// OverdueWorker периодически считает просроченные задачи по всей системе.
// Статусы не трогает: просроченность — производный предикат, а не состояние.
type OverdueWorker struct {
	repo     OverdueCounter
	interval time.Duration
}

func NewOverdueWorker(repo OverdueCounter, interval time.Duration) *OverdueWorker {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &OverdueWorker{
		repo:     repo,
		interval: interval,
	}
}

func (w *OverdueWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.Check(ctx)
		case <-ctx.Done():
			logger.Info("Worker: Фоновая проверка останавливается")
			return
		}
	}
}

func (w *OverdueWorker) Check(ctx context.Context) {
	start := time.Now()

	count, err := w.repo.CountOverdue(ctx, nil, start)
	if err != nil {
		logger.Warn("Worker: ошибка подсчёта просроченных задач", zap.Error(err))
		return
	}

	if count > 0 {
		logger.Warn("Worker: Обнаружены просроченные задачи",
			zap.Int("overdue", count),
			zap.Duration("ms", time.Since(start)))
		return
	}

	logger.Info("Worker: Просроченных задач нет", zap.Duration("ms", time.Since(start)))
}
