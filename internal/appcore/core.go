package appcore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"wikilinks/internal/archive"
	"wikilinks/internal/config"
	"wikilinks/internal/logger"
	"wikilinks/internal/metrics"
	"wikilinks/internal/pipeline"
	"wikilinks/internal/sink"
	"wikilinks/internal/version"
)

// Exit codes.
const (
	ExitOK        = 0
	ExitUsage     = 2
	ExitFailure   = 3
	ExitCancelled = 130
)

// PipelineConfig maps the run configuration onto the pipeline knobs.
func PipelineConfig(cfg *config.Config) pipeline.Config {
	return pipeline.Config{
		Workers:         cfg.Workers,
		BatchSize:       cfg.BatchSize,
		ChunkSize:       cfg.ChunkSize,
		ChannelCapacity: cfg.ChannelCapacity,
		BatchQueue:      cfg.BatchQueue,
		ResultQueue:     cfg.ResultQueue,
		MonitorInterval: cfg.Monitor.Interval,
	}
}

// Run executes one extraction and returns the process exit code. Logs go to
// stderr; stdout receives the records when the output is "-".
func Run(parent context.Context, stdout, stderr io.Writer, cfg *config.Config) int {
	if err := cfg.Verify(); err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return ExitUsage
	}
	log, err := logger.NewLogger(stderr, cfg.Log.Format, cfg.Log.Level)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return ExitUsage
	}
	defer func() { _ = log.Sync() }()
	runID := uuid.NewString()
	runLog := log.With(zap.String("run_id", runID))

	src, err := archive.Open(cfg.Archive)
	if err != nil {
		runLog.Error("cannot open archive", zap.Error(err))
		fmt.Fprintln(stderr, "error:", err)
		return ExitUsage
	}

	var dst *sink.Writer
	if cfg.Output == "-" {
		dst = sink.NewWriter(stdout)
	} else if dst, err = sink.Create(cfg.Output); err != nil {
		_ = src.Close()
		runLog.Error("cannot create output", zap.Error(err))
		fmt.Fprintln(stderr, "error:", err)
		return ExitUsage
	}

	stats := &metrics.Stats{}
	opts := []pipeline.Option{pipeline.WithLogger(runLog), pipeline.WithStats(stats)}
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics.RegisterStats(reg, stats)
		srv, err := metrics.Serve(cfg.Metrics.Addr, reg, runLog)
		if err != nil {
			_ = src.Close()
			_ = dst.Close()
			runLog.Error("cannot start metrics server", zap.Error(err))
			fmt.Fprintln(stderr, "error:", err)
			return ExitUsage
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		}()
		opts = append(opts, pipeline.WithRegisterer(reg))
	}

	p := pipeline.New(PipelineConfig(cfg), opts...)
	runLog.Info("extraction started",
		zap.String("version", version.Version),
		zap.String("archive", src.Path),
		zap.String("codec", src.Codec),
		zap.String("output", dst.Path),
		zap.Int("workers", p.Config().Workers),
		zap.Int("batch_size", p.Config().BatchSize))

	sum, err := p.Run(parent, src, dst)
	logSummary(runLog, sum)

	code, status := ExitOK, "ok"
	switch {
	case err == nil, sink.IsBrokenPipe(err):
	case errors.Is(err, context.Canceled):
		runLog.Warn("extraction cancelled")
		code, status = ExitCancelled, "cancelled"
	default:
		runLog.Error("extraction failed", zap.Error(err))
		fmt.Fprintln(stderr, "error:", err)
		code, status = ExitFailure, "failed"
	}

	if cfg.Report != "" {
		rep := Report{
			RunID:   runID,
			Version: version.Version,
			Archive: src.Path,
			Codec:   src.Codec,
			Output:  dst.Path,
			Status:  status,
			Summary: sum,
		}
		if code != ExitOK {
			rep.Error = err.Error()
		}
		if werr := WriteReport(cfg.Report, rep); werr != nil {
			runLog.Error("cannot write report", zap.Error(werr))
			fmt.Fprintln(stderr, "error:", werr)
			if code == ExitOK {
				code = ExitFailure
			}
		}
	}
	return code
}

func logSummary(log logger.Logger, sum pipeline.Summary) {
	log.Info("extraction finished",
		zap.String("pages", humanize.Comma(sum.Pages)),
		zap.String("records", humanize.Comma(sum.Records)),
		zap.String("links", humanize.Comma(sum.Links)),
		zap.Int64("redirects", sum.Redirects),
		zap.Int64("malformed", sum.Malformed),
		zap.Int64("extract_errors", sum.ExtractErrors),
		zap.String("decompressed", humanize.Bytes(uint64(sum.Bytes))),
		zap.Duration("elapsed", sum.Elapsed),
		zap.String("pages_per_sec", humanize.FormatFloat("#,###.#", sum.Rate())),
		zap.Int("sentinels", sum.Sentinels))
}
