package db

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// TokenSweeper removes session tokens that outlived the retention window.
type TokenSweeper interface {
	SweepExpired(ctx context.Context) (int64, error)
}

// StartTokenSweeper sweeps expired tokens on the given interval until the
// context is cancelled.
func StartTokenSweeper(
	ctx context.Context,
	sweeper TokenSweeper,
	interval time.Duration,
	log *zap.Logger,
) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed, err := sweeper.SweepExpired(ctx)
				if err != nil {
					log.Error("failed to sweep expired tokens", zap.Error(err))
					continue
				}
				if removed > 0 {
					log.Info("swept expired tokens", zap.Int64("removed", removed))
				}
			}
		}
	}()
}
