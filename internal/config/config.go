// Package config loads valact configuration from a YAML file with
// environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/carractuarial/valact/internal/logging"
	"github.com/carractuarial/valact/internal/rates"
)

// Source kinds accepted in data.source.
const (
	SourceCSV    = "csv"
	SourceSQLite = "sqlite"
)

// ErrUnknownSource is returned by Validate for an unrecognised data.source.
var ErrUnknownSource = errors.New("unknown data source")

// Config represents the complete application configuration.
type Config struct {
	Data        DataConfig        `mapstructure:"data"        yaml:"data"`
	Assumptions AssumptionsConfig `mapstructure:"assumptions" yaml:"assumptions"`
	Batch       BatchConfig       `mapstructure:"batch"       yaml:"batch"`
	Logging     LoggingConfig     `mapstructure:"logging"     yaml:"logging"`
}

// DataConfig says where rate tables are read from.
type DataConfig struct {
	Source     string `mapstructure:"source"      yaml:"source"` // "csv" or "sqlite"
	Dir        string `mapstructure:"dir"         yaml:"dir"`
	SQLitePath string `mapstructure:"sqlite_path" yaml:"sqlite_path"`
}

// AssumptionsConfig holds the product's scalar rates. All rates are annual.
type AssumptionsConfig struct {
	PremiumLoad      float64 `mapstructure:"premium_load"       yaml:"premium_load"`
	PolicyFee        float64 `mapstructure:"policy_fee"         yaml:"policy_fee"`
	NAARDiscountRate float64 `mapstructure:"naar_discount_rate" yaml:"naar_discount_rate"`
	InterestRate     float64 `mapstructure:"interest_rate"      yaml:"interest_rate"`
}

// Rates converts the configured assumptions for rates.Build.
func (a AssumptionsConfig) Rates() rates.Assumptions {
	return rates.Assumptions{
		PremiumLoad:      a.PremiumLoad,
		PolicyFee:        a.PolicyFee,
		NAARDiscountRate: a.NAARDiscountRate,
		InterestRate:     a.InterestRate,
	}
}

// BatchConfig tunes batch pricing.
type BatchConfig struct {
	Workers int `mapstructure:"workers" yaml:"workers"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/valact.yaml
//  2. ~/.valact/valact.yaml
//
// Environment variables override config file values.
// Format: VALACT_<SECTION>_<KEY>, e.g. VALACT_DATA_DIR
func Load() (*Config, error) {
	v := newViper()
	v.SetConfigName("valact")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".valact"))
	}

	// a missing file is fine; defaults and env vars still apply
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return decode(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("VALACT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults sets defaults for all config values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("data.source", SourceCSV)
	v.SetDefault("data.dir", "./data")
	v.SetDefault("data.sqlite_path", "./data/rates.db")

	d := rates.DefaultAssumptions()
	v.SetDefault("assumptions.premium_load", d.PremiumLoad)
	v.SetDefault("assumptions.policy_fee", d.PolicyFee)
	v.SetDefault("assumptions.naar_discount_rate", d.NAARDiscountRate)
	v.SetDefault("assumptions.interest_rate", d.InterestRate)

	v.SetDefault("batch.workers", 4)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Validate checks values that would otherwise fail later and less clearly.
func (c *Config) Validate() error {
	switch c.Data.Source {
	case SourceCSV, SourceSQLite:
	default:
		return fmt.Errorf("data.source %q: %w", c.Data.Source, ErrUnknownSource)
	}
	if c.Batch.Workers < 1 {
		return fmt.Errorf("batch.workers must be at least 1, got %d", c.Batch.Workers)
	}
	if err := c.Assumptions.Rates().Validate(); err != nil {
		return fmt.Errorf("assumptions: %w", err)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	return nil
}
