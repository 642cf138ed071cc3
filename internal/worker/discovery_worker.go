package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/teamboard/teamboard/internal/predictor"
)

// StartDiscoveryWarmer probes inference models once at startup and again every interval, so
// the model cache is warm before prediction requests arrive. A zero interval probes once.
// It returns when ctx is cancelled.
func StartDiscoveryWarmer(ctx context.Context, discoverer *predictor.Discoverer, interval time.Duration, logger *zap.Logger) {
	if discoverer == nil {
		return
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	warm := func() {
		models := discoverer.Available(ctx)
		logger.Debug("inference models warmed", zap.Int("available", len(models)))
	}
	warm()
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			warm()
		}
	}
}
