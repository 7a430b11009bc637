package pipeline

import (
	"context"
	"io"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"wikilinks/internal/archive"
	"wikilinks/internal/logger"
	"wikilinks/internal/metrics"
	"wikilinks/internal/sink"
	"wikilinks/internal/wiki"
	"wikilinks/internal/wikixml"
)

// Config controls queue sizes and parallelism. Zero values take defaults.
type Config struct {
	Workers         int           // extraction goroutines; 0 = NumCPU
	BatchSize       int           // pages per batch
	ChunkSize       int           // bytes per decompressed chunk
	ChannelCapacity int           // decompressor to parser queue, in chunks
	BatchQueue      int           // parser to workers queue, in batches; 0 = 2*Workers
	ResultQueue     int           // workers to sink queue, in records
	MonitorInterval time.Duration // progress log period; 0 disables
}

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.BatchSize <= 0 {
		c.BatchSize = wikixml.DefaultBatchSize
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = archive.DefaultChunkSize
	}
	if c.ChannelCapacity <= 0 {
		c.ChannelCapacity = archive.DefaultCapacity
	}
	if c.BatchQueue <= 0 {
		c.BatchQueue = 2 * c.Workers
	}
	if c.ResultQueue <= 0 {
		c.ResultQueue = 1000
	}
	return c
}

// Summary describes a finished run.
type Summary struct {
	metrics.Snapshot
	Workers   int `json:"workers"`
	Sentinels int `json:"sentinels"`
}

type Pipeline struct {
	cfg      Config
	ext      Extractor
	log      logger.Logger
	stats    *metrics.Stats
	registry prometheus.Registerer
}

type Option func(*Pipeline)

func WithExtractor(e Extractor) Option { return func(p *Pipeline) { p.ext = e } }

func WithLogger(l logger.Logger) Option { return func(p *Pipeline) { p.log = l } }

// WithStats shares live counters with the caller, e.g. for metrics export.
func WithStats(s *metrics.Stats) Option { return func(p *Pipeline) { p.stats = s } }

// WithRegisterer exports queue depths as gauges while Run is active. The
// gauges are registered once per Run, so each Run needs a fresh registry.
func WithRegisterer(r prometheus.Registerer) Option { return func(p *Pipeline) { p.registry = r } }

func New(cfg Config, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:   cfg.withDefaults(),
		ext:   Links,
		log:   logger.NewNoopLogger(),
		stats: &metrics.Stats{},
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

func (p *Pipeline) Config() Config { return p.cfg }

// Run streams src through every stage into dst and closes both. It returns
// after every stage has stopped. Stage failures are joined; a cancelled ctx
// is reported as ctx.Err() once the stages have drained. A failing sink
// stops the upstream stages early.
func (p *Pipeline) Run(ctx context.Context, src io.ReadCloser, dst *sink.Writer) (Summary, error) {
	start := time.Now()
	cfg := p.cfg

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()
	// The decompressor gets its own context so a parser that stops early
	// releases it without cancelling the downstream stages.
	srcCtx, stopSrc := context.WithCancel(runCtx)
	defer stopSrc()

	chunks, srcErr := archive.Decompress(srcCtx, src, archive.Options{
		ChunkSize: cfg.ChunkSize,
		Capacity:  cfg.ChannelCapacity,
		OnChunk:   p.stats.AddChunk,
	})
	batches := make(chan wiki.Batch, cfg.BatchQueue)
	results := make(chan sink.Message, cfg.ResultQueue)

	queues := []metrics.Queue{
		{Name: "chunks", Len: func() int { return len(chunks) }, Cap: cfg.ChannelCapacity},
		metrics.QueueOf("batches", batches),
		metrics.QueueOf("results", results),
	}
	if p.registry != nil {
		metrics.RegisterQueues(p.registry, queues...)
	}

	monCtx, stopMonitor := context.WithCancel(ctx)
	var monitor conc.WaitGroup
	monitor.Go(func() {
		metrics.Monitor(monCtx, cfg.MonitorInterval, p.log, p.stats, queues...)
	})

	var res sink.Result
	stages := pool.New().WithErrors()
	stages.Go(func() error {
		select {
		case err := <-srcErr:
			return err
		case <-srcCtx.Done():
		}
		// The error is sent before the chunk channel closes, so a failure the
		// parser already saw is never lost here. A source still blocked in a
		// read that cannot be interrupted is left behind.
		select {
		case err := <-srcErr:
			return err
		default:
			return nil
		}
	})
	stages.Go(func() error {
		defer stopSrc()
		err := wikixml.Parse(runCtx, archive.NewChunkReader(runCtx, chunks), batches, wikixml.Options{
			BatchSize: cfg.BatchSize,
			Stats:     p.stats,
			Logger:    p.log,
		})
		p.log.Debug("parser stopped", zap.Error(err))
		return err
	})
	stages.Go(func() error {
		workers := pool.New().WithMaxGoroutines(cfg.Workers)
		for i := 0; i < cfg.Workers; i++ {
			w := &worker{id: i, ext: p.ext, in: batches, out: results, stats: p.stats, log: p.log}
			workers.Go(func() { w.run(runCtx) })
		}
		workers.Wait()
		p.log.Debug("workers stopped", zap.Int("workers", cfg.Workers))
		return nil
	})
	stages.Go(func() error {
		var err error
		res, err = sink.Run(runCtx, results, cfg.Workers, dst, sink.Options{
			Stats:   p.stats,
			Logger:  p.log,
			OnError: func(error) { cancelRun() },
		})
		p.log.Debug("sink stopped", zap.Int("sentinels", res.Sentinels), zap.Error(err))
		return err
	})
	err := stages.Wait()

	stopMonitor()
	monitor.Wait()

	sum := Summary{Snapshot: p.stats.Snapshot(), Workers: cfg.Workers, Sentinels: res.Sentinels}
	sum.Elapsed = time.Since(start)
	if ctx.Err() != nil {
		return sum, ctx.Err()
	}
	return sum, err
}
