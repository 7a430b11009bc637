package sink

import (
	"context"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"wikilinks/internal/logger"
	"wikilinks/internal/metrics"
	"wikilinks/internal/wiki"
)

// Message carries either one record or a producer's end-of-stream marker.
type Message struct {
	Record wiki.SiteRecord
	EOS    bool
}

// EOS is the end-of-stream marker each producer sends exactly once.
func EOS() Message { return Message{EOS: true} }

// Result summarizes one Run.
type Result struct {
	Records   int
	Links     int
	Sentinels int
}

type Options struct {
	Stats  *metrics.Stats
	Logger logger.Logger
	// OnError is called once, at the first write failure, while Run keeps
	// draining.
	OnError func(error)
}

// Run writes every record received on in to w until producers end-of-stream
// markers have arrived, then closes w.
//
// Run keeps receiving after ctx is done or after a write fails so that
// producers blocked on in are always released; it just stops writing. A
// closed in is treated as the end of all producers.
func Run(ctx context.Context, in <-chan Message, producers int, w *Writer, opt Options) (Result, error) {
	if opt.Stats == nil {
		opt.Stats = &metrics.Stats{}
	}
	if opt.Logger == nil {
		opt.Logger = logger.NewNoopLogger()
	}

	var (
		res      Result
		writeErr error
	)
	for res.Sentinels < producers {
		msg, ok := <-in
		if !ok {
			break
		}
		if msg.EOS {
			res.Sentinels++
			continue
		}
		if writeErr != nil || ctx.Err() != nil {
			continue
		}
		if err := w.Write(msg.Record); err != nil {
			writeErr = err
			if opt.OnError != nil {
				opt.OnError(err)
			}
			if !IsBrokenPipe(err) {
				opt.Logger.Error("output write failed, draining", zap.String("output", w.Path), zap.Error(err))
			}
			continue
		}
		res.Records++
		res.Links += len(msg.Record.Links)
		opt.Stats.Records.Add(1)
		opt.Stats.Links.Add(int64(len(msg.Record.Links)))
	}

	if err := multierr.Append(writeErr, w.Close()); err != nil {
		return res, fmt.Errorf("sink %s: %w", w.Path, err)
	}
	return res, nil
}
