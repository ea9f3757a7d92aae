package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/runemikla/hallaien-2/internal/config"
	"github.com/runemikla/hallaien-2/internal/repository"
)

// StartRetentionJob periodically deletes share codes and access grants that
// expired longer than the retention age ago. Expired rows are inert either
// way; this only keeps the tables from growing without bound. Unexpired rows
// are never touched.
func StartRetentionJob(ctx context.Context, cfg config.Config, store *repository.Store, logger *zap.Logger) {
	if !cfg.RetentionJobEnabled {
		return
	}
	interval := cfg.RetentionJobInterval
	if interval <= 0 {
		interval = time.Hour
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cutoff := time.Now().UTC().Add(-cfg.RetentionAge)
				codes, err := store.DeleteShareCodesExpiredBefore(ctx, cutoff)
				if err != nil {
					logger.Error("retention job: share codes", zap.Error(err))
					continue
				}
				grants, err := store.DeleteAccessGrantsExpiredBefore(ctx, cutoff)
				if err != nil {
					logger.Error("retention job: access grants", zap.Error(err))
					continue
				}
				if codes > 0 || grants > 0 {
					logger.Info("retention job swept expired rows",
						zap.Int64("share_codes", codes),
						zap.Int64("access_grants", grants))
				}
			}
		}
	}()
}
