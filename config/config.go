package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	Legistar LegistarConfig `yaml:"legistar"`
}

// LegistarConfig is the project configuration.
type LegistarConfig struct {
	Source   SourceConfig   `yaml:"source"`
	Input    InputConfig    `yaml:"input"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Matching MatchingConfig `yaml:"matching"`
	Output   OutputConfig   `yaml:"output"`
	State    StateConfig    `yaml:"state"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// SourceConfig controls the Legistar web API client.
type SourceConfig struct {
	BaseURL         string        `yaml:"base_url"`
	Client          string        `yaml:"client"` // e.g. seattle
	Timeout         time.Duration `yaml:"timeout"`
	RetryCount      int           `yaml:"retry_count"`
	RetryWait       time.Duration `yaml:"retry_wait"`
	RetryMaxWait    time.Duration `yaml:"retry_max_wait"`
	Concurrency     int           `yaml:"concurrency"`
	PersonCacheSize int           `yaml:"person_cache_size"`
	Window          time.Duration `yaml:"window"`
	Timezone        string        `yaml:"timezone"`
}

// InputConfig controls the job queue reader.
type InputConfig struct {
	Redis RedisConfig `yaml:"redis"`
}

// RedisConfig controls a Redis connection.
type RedisConfig struct {
	Addr         string        `yaml:"addr"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	Key          string        `yaml:"key"`
	BlockTimeout time.Duration `yaml:"block_timeout"`
}

// PipelineConfig controls pipeline behavior.
type PipelineConfig struct {
	Workers       int           `yaml:"workers"`
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
}

// MatchingConfig supplies default targets and the ignore list.
type MatchingConfig struct {
	Targets     []string `yaml:"targets"`
	TargetsFile string   `yaml:"targets_file"`
	IgnoreNames []string `yaml:"ignore_names"`
}

// OutputConfig controls where canonical events go.
type OutputConfig struct {
	Mode       string                 `yaml:"mode"` // file|http|clickhouse
	File       FileOutputConfig       `yaml:"file"`
	HTTP       HTTPOutputConfig       `yaml:"http"`
	ClickHouse ClickHouseOutputConfig `yaml:"clickhouse"`
	MatchFile  string                 `yaml:"match_file"` // optional JSONL of match records
}

// FileOutputConfig config for local JSON output.
type FileOutputConfig struct {
	Path string `yaml:"path"`
}

// HTTPOutputConfig config for remote output.
type HTTPOutputConfig struct {
	URL     string            `yaml:"url"`
	Timeout time.Duration     `yaml:"timeout"`
	Headers map[string]string `yaml:"headers"`
}

// ClickHouseOutputConfig config for ClickHouse HTTP output.
type ClickHouseOutputConfig struct {
	URL      string            `yaml:"url"`
	Database string            `yaml:"database"`
	Table    string            `yaml:"table"`
	Username string            `yaml:"username"`
	Password string            `yaml:"password"`
	Timeout  time.Duration     `yaml:"timeout"`
	Headers  map[string]string `yaml:"headers"`
}

// StateConfig controls the Redis match-state index.
type StateConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Redis     RedisConfig   `yaml:"redis"`
	KeyPrefix string        `yaml:"key_prefix"`
	TTL       time.Duration `yaml:"ttl"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	Path    string `yaml:"path"`
}

// LoggingConfig controls logging output.
type LoggingConfig struct {
	Enabled bool   `yaml:"enabled"`
	Level   string `yaml:"level"`
	File    string `yaml:"file"`
	Console bool   `yaml:"console"`
}

// LoadConfig reads and parses a YAML config file and fills in defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()

	if _, err := cfg.Location(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	l := &c.Legistar

	if l.Source.BaseURL == "" {
		l.Source.BaseURL = "https://webapi.legistar.com/v1"
	}
	if l.Source.Timeout <= 0 {
		l.Source.Timeout = 30 * time.Second
	}
	if l.Source.RetryCount < 0 {
		l.Source.RetryCount = 0
	} else if l.Source.RetryCount == 0 {
		l.Source.RetryCount = 3
	}
	if l.Source.RetryWait <= 0 {
		l.Source.RetryWait = 500 * time.Millisecond
	}
	if l.Source.RetryMaxWait <= 0 {
		l.Source.RetryMaxWait = 5 * time.Second
	}
	if l.Source.Concurrency <= 0 {
		l.Source.Concurrency = 4
	}
	if l.Source.PersonCacheSize <= 0 {
		l.Source.PersonCacheSize = 512
	}
	if l.Source.Window <= 0 {
		l.Source.Window = 24 * time.Hour
	}

	if l.Input.Redis.Addr == "" {
		l.Input.Redis.Addr = "127.0.0.1:6379"
	}
	if l.Input.Redis.Key == "" {
		l.Input.Redis.Key = "legistar_match_jobs"
	}
	if l.Input.Redis.BlockTimeout == 0 {
		l.Input.Redis.BlockTimeout = 5 * time.Second
	}

	if l.Pipeline.Workers <= 0 {
		l.Pipeline.Workers = 4
	}
	if l.Pipeline.BatchSize <= 0 {
		l.Pipeline.BatchSize = 50
	}
	if l.Pipeline.FlushInterval <= 0 {
		l.Pipeline.FlushInterval = 2 * time.Second
	}

	if l.Output.Mode == "" {
		l.Output.Mode = "file"
	}
	if l.Output.File.Path == "" {
		l.Output.File.Path = "output/events.jsonl"
	}

	if l.State.Redis.Addr == "" {
		l.State.Redis.Addr = l.Input.Redis.Addr
		l.State.Redis.Password = l.Input.Redis.Password
		l.State.Redis.DB = l.Input.Redis.DB
	}
	if l.State.KeyPrefix == "" {
		l.State.KeyPrefix = "legistar:match_state"
	}
	if l.State.TTL <= 0 {
		l.State.TTL = 30 * 24 * time.Hour
	}

	if l.Metrics.Addr == "" {
		l.Metrics.Addr = ":9464"
	}
	if l.Metrics.Path == "" {
		l.Metrics.Path = "/metrics"
	}

	if l.Logging.Level == "" {
		l.Logging.Level = "info"
	}
}

// Location resolves the configured event time zone. Empty means UTC.
func (c *Config) Location() (*time.Location, error) {
	tz := strings.TrimSpace(c.Legistar.Source.Timezone)
	if tz == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", tz, err)
	}
	return loc, nil
}

// Targets returns the configured targets, reading targets_file when set.
func (c *Config) Targets(parse func([]byte) []string) ([]string, error) {
	out := append([]string(nil), c.Legistar.Matching.Targets...)
	if path := strings.TrimSpace(c.Legistar.Matching.TargetsFile); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read targets file: %w", err)
		}
		out = append(out, parse(data)...)
	}
	return out, nil
}
