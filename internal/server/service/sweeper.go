package service

import (
	"context"
	"log/slog"
	"time"
)

// RunSweeper calls Sweep every interval until ctx is cancelled
func RunSweeper(ctx context.Context, hangouts *HangoutService, interval time.Duration) {
	if interval <= 0 {
		slog.Info("Sweeper disabled")
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.Info("Sweeper started", "interval", interval)
	for {
		select {
		case <-ctx.Done():
			slog.Info("Sweeper stopped")
			return
		case t := <-ticker.C:
			if _, err := hangouts.Sweep(ctx, t.UTC()); err != nil {
				slog.Error("Sweep failed", "error", err)
			}
		}
	}
}
