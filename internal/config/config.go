// Package config loads the mappy CLI configuration.
//
// Order: DefaultConfig -> YAML file -> MAPPY_* environment -> Validate.
// Command-line flags are applied by the caller after Load.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"mappy/internal/align"
	"mappy/internal/errs"
	"mappy/internal/index"
	"mappy/internal/queue"
)

// Config holds the CLI configuration.
type Config struct {
	Index   index.Options `yaml:"index"`
	Map     align.Options `yaml:"map"`
	Engine  EngineConfig  `yaml:"engine"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
}

// EngineConfig sizes the worker pool and work queue.
type EngineConfig struct {
	Threads       int           `yaml:"threads"` // 0 = all CPUs
	QueueCapacity int           `yaml:"queue_capacity"`
	BackOff       bool          `yaml:"back_off"`
	Backoff       queue.Backoff `yaml:"backoff"`
}

// OutputConfig selects the result format.
type OutputConfig struct {
	Format string `yaml:"format"` // paf | jsonl | json
	Sort   bool   `yaml:"sort"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // console, json
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Index: index.Options{K: index.DefaultK, W: index.DefaultW, MaxOcc: index.DefaultMaxOcc},
		Map: align.Options{
			MinChainScore:  align.DefaultMinChainScore,
			MinCount:       align.DefaultMinCount,
			MaxGap:         align.DefaultMaxGap,
			Bandwidth:      align.DefaultBandwidth,
			BestN:          align.DefaultBestN,
			SecondaryRatio: align.DefaultSecondaryRatio,
			ZDrop:          align.DefaultZDrop,
		},
		Engine: EngineConfig{
			QueueCapacity: queue.DefaultCapacity,
			BackOff:       true,
			Backoff:       queue.DefaultBackoff,
		},
		Output:  OutputConfig{Format: "paf"},
		Logging: LoggingConfig{Level: "warn", Format: "console"},
	}
}

// Load builds the configuration. An empty path skips the file; a path that
// does not exist is an error.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, err
		}
	}
	if err := cfg.ApplyEnvOverrides(); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errs.Wrap(errs.KindConfig, err, "read config %s", path)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return errs.Wrap(errs.KindConfig, err, "parse config %s", path)
	}
	return nil
}

// ApplyEnvOverrides applies MAPPY_* environment variables.
func (c *Config) ApplyEnvOverrides() error {
	ints := []struct {
		key string
		dst *int
	}{
		{"MAPPY_THREADS", &c.Engine.Threads},
		{"MAPPY_QUEUE_CAPACITY", &c.Engine.QueueCapacity},
		{"MAPPY_K", &c.Index.K},
		{"MAPPY_W", &c.Index.W},
	}
	for _, e := range ints {
		if v := os.Getenv(e.key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return errs.Wrap(errs.KindConfig, err, "%s", e.key)
			}
			*e.dst = n
		}
	}
	if v := os.Getenv("MAPPY_BACK_OFF"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errs.Wrap(errs.KindConfig, err, "MAPPY_BACK_OFF")
		}
		c.Engine.BackOff = b
	}
	if v := os.Getenv("MAPPY_BACKOFF_MAX"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return errs.Wrap(errs.KindConfig, err, "MAPPY_BACKOFF_MAX")
		}
		c.Engine.Backoff.Max = d
	}
	if v := os.Getenv("MAPPY_OUTPUT"); v != "" {
		c.Output.Format = v
	}
	if v := os.Getenv("MAPPY_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("MAPPY_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	return nil
}

// Validate returns an error wrapping ErrConfig if c is unusable.
func (c *Config) Validate() error {
	if err := c.Index.Validate(); err != nil {
		return err
	}
	if err := c.Map.Validate(); err != nil {
		return err
	}
	if c.Engine.Threads < 0 {
		return errs.New(errs.KindConfig, "threads must be >= 0, got %d", c.Engine.Threads)
	}
	if c.Engine.QueueCapacity < 0 {
		return errs.New(errs.KindConfig, "queue_capacity must be >= 0, got %d", c.Engine.QueueCapacity)
	}
	if c.Engine.Backoff.Initial < 0 || c.Engine.Backoff.Max < 0 {
		return errs.New(errs.KindConfig, "backoff durations must be >= 0")
	}
	switch c.Output.Format {
	case "paf", "jsonl", "json":
	default:
		return errs.New(errs.KindConfig, "invalid output format %q", c.Output.Format)
	}
	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		return errs.Wrap(errs.KindConfig, err, "logging level")
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return errs.New(errs.KindConfig, "invalid logging format %q", c.Logging.Format)
	}
	return nil
}

// EffectiveThreads resolves Threads = 0 to the CPU count.
func (c *Config) EffectiveThreads() int {
	if c.Engine.Threads > 0 {
		return c.Engine.Threads
	}
	return runtime.NumCPU()
}

// String renders c as YAML, for --print-config.
func (c Config) String() string {
	out, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Sprintf("config: %v", err)
	}
	return string(out)
}
