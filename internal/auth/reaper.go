package auth

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type ExpiredSessionReaper interface {
	ReapExpired(ctx context.Context) (int64, error)
}

// ScheduleReaper registers the expired-session cleanup on c.
func ScheduleReaper(c *cron.Cron, schedule string, reaper ExpiredSessionReaper, timeout time.Duration, logger *zap.Logger) (cron.EntryID, error) {
	return c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		n, err := reaper.ReapExpired(ctx)
		if err != nil {
			logger.Warn("session reaper failed", zap.Error(err))
			return
		}
		if n > 0 {
			logger.Info("expired sessions removed", zap.Int64("count", n))
		}
	})
}
