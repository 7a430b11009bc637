package pipeline

import (
	"context"
	"fmt"

	"github.com/sourcegraph/conc/panics"
	"go.uber.org/zap"

	"wikilinks/internal/concurrency"
	"wikilinks/internal/logger"
	"wikilinks/internal/metrics"
	"wikilinks/internal/sink"
	"wikilinks/internal/wiki"
)

type worker struct {
	id    int
	ext   Extractor
	in    <-chan wiki.Batch
	out   chan<- sink.Message
	stats *metrics.Stats
	log   logger.Logger
}

// run consumes batches until in is closed or ctx is done. It sends exactly
// one end-of-stream marker on every exit path, including panics.
func (w *worker) run(ctx context.Context) {
	defer func() { w.out <- sink.EOS() }()

	for {
		batch, ok := concurrency.TryRecv(ctx, w.in)
		if !ok {
			return
		}
		for _, page := range batch {
			rec, err := w.extract(page)
			if err != nil {
				w.stats.ExtractErrors.Add(1)
				w.log.Warn("skipping page",
					zap.Int("worker", w.id),
					zap.String("title", page.Title),
					zap.Error(err))
				continue
			}
			if !concurrency.TrySend(ctx, sink.Message{Record: rec}, w.out) {
				return
			}
		}
	}
}

// extract isolates a single page: a panic becomes that page's error.
func (w *worker) extract(page wiki.PageRecord) (rec wiki.SiteRecord, err error) {
	recovered := panics.Try(func() {
		rec, err = w.ext.Extract(page)
	})
	if recovered != nil {
		return wiki.SiteRecord{}, fmt.Errorf("%w: %w", wiki.ErrExtraction, recovered.AsError())
	}
	return rec, err
}
