package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// ResyncWorker periodically runs the resync repair job so clicks missed by
// the best-effort conversion write heal without operator action.
type ResyncWorker struct {
	admin    *AdminService
	interval time.Duration
}

func NewResyncWorker(admin *AdminService, interval time.Duration) *ResyncWorker {
	return &ResyncWorker{admin: admin, interval: interval}
}

func (w *ResyncWorker) Start(ctx context.Context) {
	if w.interval <= 0 {
		return
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	zap.L().Info("resync worker started", zap.Duration("interval", w.interval))

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("resync worker stopped")
			return
		case <-ticker.C:
			if _, err := w.admin.Resync(ctx); err != nil && ctx.Err() == nil {
				zap.L().Error("scheduled resync failed", zap.Error(err))
			}
		}
	}
}
