package metrics

import (
	"context"
	"time"

	"go.uber.org/zap"

	"wikilinks/internal/logger"
)

// Monitor logs queue depths and throughput every interval until ctx is
// done. It is meant to run on its own goroutine.
func Monitor(ctx context.Context, interval time.Duration, log logger.Logger, s *Stats, queues ...Queue) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	start := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap := s.Snapshot()
			snap.Elapsed = time.Since(start)
			fields := make([]zap.Field, 0, len(queues)+4)
			for _, q := range queues {
				fields = append(fields, zap.Int("queue_"+q.Name, q.Len()))
			}
			fields = append(fields,
				zap.Int64("pages", snap.Pages),
				zap.Int64("records", snap.Records),
				zap.Int64("bytes", snap.Bytes),
				zap.Float64("pages_per_sec", snap.Rate()),
			)
			log.Info("pipeline progress", fields...)
		}
	}
}
