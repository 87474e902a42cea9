package monitoring

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/spacesedan/wctweets/internal/metrics"
)

const (
	HEALTHCHECK_INTERVAL = 15 * time.Second
	HEALTHCHECK_TIMEOUT  = 3 * time.Second
)

// Pinger is anything with a liveness check, such as a db.Sink.
type Pinger interface {
	Ping(ctx context.Context) error
}

// CheckOnce pings p, stores the result in healthy and reports it.
func CheckOnce(ctx context.Context, p Pinger, healthy *atomic.Bool) bool {
	ctx, cancel := context.WithTimeout(ctx, HEALTHCHECK_TIMEOUT)
	defer cancel()

	err := p.Ping(ctx)
	ok := err == nil
	was := healthy.Swap(ok)
	if ok {
		metrics.SinkUp.Set(1)
		if !was {
			slog.Info("[HealthCheck] Sink is healthy")
		}
	} else {
		metrics.SinkUp.Set(0)
		slog.Warn("[HealthCheck] Sink is unhealthy", slog.String("error", err.Error()))
	}
	return ok
}

// MonitorSinkHealth checks p every interval until ctx is done.
func MonitorSinkHealth(ctx context.Context, p Pinger, healthy *atomic.Bool, interval time.Duration) {
	if interval <= 0 {
		interval = HEALTHCHECK_INTERVAL
	}
	CheckOnce(ctx, p, healthy)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			CheckOnce(ctx, p, healthy)
		}
	}
}
