// Package config contains all knobs and defaults used to configure a
// wikilinks run.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultOutput          = "links.jsonl"
	DefaultBatchSize       = 1000
	DefaultChannelCapacity = 1000
	DefaultChunkSize       = 8 << 10
	DefaultResultQueue     = 1000
	DefaultMetricsAddr     = ":2112"

	// EnvPrefix prefixes every environment variable, e.g. WIKILINKS_BATCHSIZE.
	EnvPrefix = "WIKILINKS"
)

// ErrInvalidConfig marks a configuration that cannot start a run.
var ErrInvalidConfig = errors.New("invalid config")

type LogConfig struct {
	// Format is the log format to use in the log output (e.g. 'text' or 'json')
	Format string

	// Level is the log level to use in the log output (e.g. 'none', 'debug', or 'info')
	Level string
}

type MetricsConfig struct {
	// Enabled starts a Prometheus endpoint for the duration of the run.
	Enabled bool
	Addr    string
}

type MonitorConfig struct {
	// Interval between progress log lines; 0 disables them.
	Interval time.Duration
}

type Config struct {
	// Archive is the compressed dump to read; "-" reads stdin.
	Archive string
	// Output is the JSONL destination; "-" writes stdout.
	Output string
	// Report, when set, receives the run summary as indented JSON.
	Report string

	BatchSize       int
	Workers         int
	ChannelCapacity int
	ChunkSize       int
	BatchQueue      int
	ResultQueue     int

	Log     LogConfig
	Metrics MetricsConfig
	Monitor MonitorConfig
}

// DefaultConfig returns the configuration used when nothing overrides it.
func DefaultConfig() *Config {
	return &Config{
		Output:          DefaultOutput,
		BatchSize:       DefaultBatchSize,
		ChannelCapacity: DefaultChannelCapacity,
		ChunkSize:       DefaultChunkSize,
		ResultQueue:     DefaultResultQueue,
		Log: LogConfig{
			Format: "text",
			Level:  "info",
		},
		Metrics: MetricsConfig{
			Addr: DefaultMetricsAddr,
		},
	}
}

// Verify reports every invalid field at once.
func (cfg *Config) Verify() error {
	var errs []error
	if cfg.Archive == "" {
		errs = append(errs, errors.New("archive path is required"))
	}
	if cfg.Output == "" {
		errs = append(errs, errors.New("output path is required"))
	}
	for _, f := range []struct {
		name string
		v    int
		min  int
	}{
		{"batchSize", cfg.BatchSize, 1},
		{"chunkSize", cfg.ChunkSize, 1},
		{"channelCapacity", cfg.ChannelCapacity, 1},
		{"resultQueue", cfg.ResultQueue, 1},
		{"workers", cfg.Workers, 0},
		{"batchQueue", cfg.BatchQueue, 0},
	} {
		if f.v < f.min {
			errs = append(errs, fmt.Errorf("%s must be >= %d, got %d", f.name, f.min, f.v))
		}
	}
	switch cfg.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("config 'log.format' must be one of ['text', 'json'], got %q", cfg.Log.Format))
	}
	switch cfg.Log.Level {
	case "none", "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("config 'log.level' must be one of ['none', 'debug', 'info', 'warn', 'error'], got %q", cfg.Log.Level))
	}
	if cfg.Metrics.Enabled && cfg.Metrics.Addr == "" {
		errs = append(errs, errors.New("config 'metrics.addr' is required when metrics are enabled"))
	}
	if cfg.Monitor.Interval < 0 {
		errs = append(errs, fmt.Errorf("config 'monitor.interval' must not be negative, got %s", cfg.Monitor.Interval))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}

// Read loads the configuration managed by v: the wikilinks.yaml file found
// on v's config paths, then environment variables and bound flags. A
// missing config file is not an error.
func Read(v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()

	v.SetTypeByDefaultValue(true)
	if err := v.ReadInConfig(); err != nil {
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("%w: failed to load config: %w", ErrInvalidConfig, err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal config: %w", ErrInvalidConfig, err)
	}
	return cfg, nil
}
