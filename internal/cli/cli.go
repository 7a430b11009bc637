// Package cli provides spf13/cobra and spf13/viper helpers shared by the
// wikilinks commands.
package cli

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"wikilinks/internal/config"
)

// NewViper returns a viper instance that reads flags, environment variables
// prefixed with WIKILINKS, or wikilinks.yaml from the working directory or
// $HOME/.wikilinks (in that order).
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetConfigName("wikilinks")
	v.SetConfigType("yaml")

	v.SetEnvPrefix(config.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	for _, path := range []string{".", "$HOME/.wikilinks"} {
		v.AddConfigPath(path)
	}
	return v
}

// MustBindPFlag attempts to bind a specific key to a pflag (as used by cobra) and panics
// if the binding fails with a non-nil error.
func MustBindPFlag(v *viper.Viper, key string, flag *pflag.Flag) {
	if err := v.BindPFlag(key, flag); err != nil {
		panic("failed to bind pflag: " + err.Error())
	}
}

func MustBindEnv(v *viper.Viper, input ...string) {
	if err := v.BindEnv(input...); err != nil {
		panic("failed to bind env key: " + err.Error())
	}
}

// BindExtractFlags registers the extract command flags and binds each one to
// its config key and environment variable.
func BindExtractFlags(command *cobra.Command, v *viper.Viper) {
	defaultConfig := config.DefaultConfig()
	flags := command.Flags()

	flags.StringP("output", "o", defaultConfig.Output, "JSONL output path ('-' for stdout; .gz/.zst suffix compresses)")
	MustBindPFlag(v, "output", flags.Lookup("output"))
	MustBindEnv(v, "output", "WIKILINKS_OUTPUT")

	flags.String("report", defaultConfig.Report, "write the run summary as JSON to this path")
	MustBindPFlag(v, "report", flags.Lookup("report"))
	MustBindEnv(v, "report", "WIKILINKS_REPORT")

	flags.String("config", "", "read configuration from this file instead of searching for wikilinks.yaml")

	flags.Int("batch-size", defaultConfig.BatchSize, "pages per batch handed to a worker")
	MustBindPFlag(v, "batchSize", flags.Lookup("batch-size"))
	MustBindEnv(v, "batchSize", "WIKILINKS_BATCH_SIZE", "WIKILINKS_BATCHSIZE")

	flags.IntP("workers", "w", defaultConfig.Workers, "extraction workers (0 = all CPUs)")
	MustBindPFlag(v, "workers", flags.Lookup("workers"))
	MustBindEnv(v, "workers", "WIKILINKS_WORKERS")

	flags.Int("channel-capacity", defaultConfig.ChannelCapacity, "decompressed chunks buffered ahead of the parser")
	MustBindPFlag(v, "channelCapacity", flags.Lookup("channel-capacity"))
	MustBindEnv(v, "channelCapacity", "WIKILINKS_CHANNEL_CAPACITY", "WIKILINKS_CHANNELCAPACITY")

	flags.Int("chunk-size", defaultConfig.ChunkSize, "bytes per decompressed chunk")
	MustBindPFlag(v, "chunkSize", flags.Lookup("chunk-size"))
	MustBindEnv(v, "chunkSize", "WIKILINKS_CHUNK_SIZE", "WIKILINKS_CHUNKSIZE")

	flags.Int("batch-queue", defaultConfig.BatchQueue, "batches buffered ahead of the workers (0 = 2 x workers)")
	MustBindPFlag(v, "batchQueue", flags.Lookup("batch-queue"))
	MustBindEnv(v, "batchQueue", "WIKILINKS_BATCH_QUEUE", "WIKILINKS_BATCHQUEUE")

	flags.Int("result-queue", defaultConfig.ResultQueue, "records buffered ahead of the writer")
	MustBindPFlag(v, "resultQueue", flags.Lookup("result-queue"))
	MustBindEnv(v, "resultQueue", "WIKILINKS_RESULT_QUEUE", "WIKILINKS_RESULTQUEUE")

	flags.String("log-format", defaultConfig.Log.Format, "the log format to output logs in: 'text' or 'json'")
	MustBindPFlag(v, "log.format", flags.Lookup("log-format"))
	MustBindEnv(v, "log.format", "WIKILINKS_LOG_FORMAT")

	flags.String("log-level", defaultConfig.Log.Level, "the log level to use: 'none', 'debug', 'info', 'warn' or 'error'")
	MustBindPFlag(v, "log.level", flags.Lookup("log-level"))
	MustBindEnv(v, "log.level", "WIKILINKS_LOG_LEVEL")

	flags.Bool("metrics-enabled", defaultConfig.Metrics.Enabled, "serve Prometheus metrics while the run is active")
	MustBindPFlag(v, "metrics.enabled", flags.Lookup("metrics-enabled"))
	MustBindEnv(v, "metrics.enabled", "WIKILINKS_METRICS_ENABLED")

	flags.String("metrics-addr", defaultConfig.Metrics.Addr, "the host:port address to serve metrics on")
	MustBindPFlag(v, "metrics.addr", flags.Lookup("metrics-addr"))
	MustBindEnv(v, "metrics.addr", "WIKILINKS_METRICS_ADDR")

	flags.Duration("monitor-interval", defaultConfig.Monitor.Interval, "log queue depths and throughput at this interval (0 disables)")
	MustBindPFlag(v, "monitor.interval", flags.Lookup("monitor-interval"))
	MustBindEnv(v, "monitor.interval", "WIKILINKS_MONITOR_INTERVAL")

	MustBindEnv(v, "archive", "WIKILINKS_ARCHIVE")
}
