package jobs

import (
	"context"
	"log/slog"
	"time"
)

// Expirer deletes pending reservations whose checkout was abandoned.
type Expirer interface {
	ExpireAbandoned(ctx context.Context, ttl time.Duration, limit int) (int, error)
}

type ExpiryWorker struct {
	svc       Expirer
	logger    *slog.Logger
	interval  time.Duration
	ttl       time.Duration
	batchSize int
}

type ExpiryConfig struct {
	Interval  time.Duration
	TTL       time.Duration
	BatchSize int
}

func NewExpiryWorker(svc Expirer, logger *slog.Logger, cfg ExpiryConfig) *ExpiryWorker {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	return &ExpiryWorker{
		svc:       svc,
		logger:    logger,
		interval:  cfg.Interval,
		ttl:       cfg.TTL,
		batchSize: cfg.BatchSize,
	}
}

// Run sweeps every interval until ctx is done. A zero TTL disables it.
func (w *ExpiryWorker) Run(ctx context.Context) {
	if w.ttl <= 0 {
		w.logger.Info("pending expiry disabled")
		return
	}
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Sweep(ctx)
		}
	}
}

// Sweep drains expired groups batch by batch.
func (w *ExpiryWorker) Sweep(ctx context.Context) int {
	total := 0
	for ctx.Err() == nil {
		n, err := w.svc.ExpireAbandoned(ctx, w.ttl, w.batchSize)
		if err != nil {
			w.logger.Error("pending expiry failed", "err", err)
			break
		}
		total += n
		if n < w.batchSize {
			break
		}
	}
	if total > 0 {
		w.logger.Info("expired pending reservation groups", "groups", total)
	}
	return total
}
