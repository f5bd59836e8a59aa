package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const EnvPrefix = "SEGQUERY"

var (
	ErrInvalidDefaultTimeout = errors.New("default query timeout must be positive")
	ErrInvalidConfig         = errors.New("invalid config")
)

type QueryConfig struct {
	MaxDocsPerBatch   int `mapstructure:"max_docs_per_batch"`
	Workers           int `mapstructure:"workers"`
	DenseGroupKeyBits int `mapstructure:"dense_group_key_bits"`

	SlowSegmentThreshold time.Duration `mapstructure:"slow_segment_threshold"`
}

type ResponseConfig struct {
	// lz4, zstd or none
	Compression string `mapstructure:"compression"`
}

type MetricsConfig struct {
	Namespace string `mapstructure:"namespace"`
}

type Config struct {
	Query    QueryConfig    `mapstructure:"query"`
	Timeout  TimeoutConfig  `mapstructure:"timeout"`
	Response ResponseConfig `mapstructure:"response"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("query.max_docs_per_batch", 10_000)
	v.SetDefault("query.workers", 8)
	v.SetDefault("query.dense_group_key_bits", 16)
	v.SetDefault("query.slow_segment_threshold", "1s")

	v.SetDefault("timeout.default", "15s")
	v.SetDefault("timeout.resources", map[string]string{})

	v.SetDefault("response.compression", "lz4")
	v.SetDefault("metrics.namespace", "segquery")
}

// Default is the configuration used when nothing is configured
func Default() Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("default config is invalid: %s", err.Error()))
	}
	return *cfg
}

// Load reads an optional config file (yaml, json or toml by extension) and
// SEGQUERY_* environment variables, for example SEGQUERY_TIMEOUT_DEFAULT=30s
func Load(path string) (*Config, error) {

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("unable to read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {

	if err := c.Timeout.Validate(); err != nil {
		return err
	}

	if c.Query.MaxDocsPerBatch <= 0 {
		return fmt.Errorf("query.max_docs_per_batch must be positive: %w", ErrInvalidConfig)
	}
	if c.Query.Workers <= 0 {
		return fmt.Errorf("query.workers must be positive: %w", ErrInvalidConfig)
	}
	if c.Query.DenseGroupKeyBits < 0 || c.Query.DenseGroupKeyBits > 24 {
		return fmt.Errorf("query.dense_group_key_bits must be within [0, 24]: %w", ErrInvalidConfig)
	}

	return nil
}
