// Package config loads marketlens configuration from defaults, an optional
// YAML file and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/seenimoa/marketlens/internal/analysis"
	"github.com/seenimoa/marketlens/internal/datasource"
	"github.com/seenimoa/marketlens/internal/fiscal"
	"github.com/seenimoa/marketlens/internal/llm"
	"github.com/seenimoa/marketlens/internal/logger"
	"github.com/seenimoa/marketlens/internal/market"
	"github.com/seenimoa/marketlens/internal/notion"
	"github.com/seenimoa/marketlens/internal/summary"
)

// EnvPrefix prefixes every environment override, e.g. MARKETLENS_SERVER_PORT.
const EnvPrefix = "MARKETLENS"

// Config represents the complete application configuration.
type Config struct {
	Server   ServerConfig            `mapstructure:"server"   yaml:"server"`
	Log      logger.Config           `mapstructure:"log"      yaml:"log"`
	Provider datasource.ClientConfig `mapstructure:"provider" yaml:"provider"`
	Chart    market.Config           `mapstructure:"chart"    yaml:"chart"`
	Fiscal   fiscal.Config           `mapstructure:"fiscal"   yaml:"fiscal"`
	Universe summary.Universe        `mapstructure:"universe" yaml:"universe"`
	LLM      llm.Config              `mapstructure:"llm"      yaml:"llm"`
	Earnings analysis.EarningsConfig `mapstructure:"earnings" yaml:"earnings"`
	Notion   notion.Config           `mapstructure:"notion"   yaml:"notion"`
}

// ServerConfig holds HTTP API server settings.
type ServerConfig struct {
	Host           string        `mapstructure:"host"            yaml:"host"`
	Port           int           `mapstructure:"port"            yaml:"port"            validate:"gte=1,lte=65535"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"    yaml:"read_timeout"    validate:"gte=0"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"   yaml:"write_timeout"   validate:"gte=0"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout" validate:"gte=0"`
	CORSOrigins    []string      `mapstructure:"cors_origins"    yaml:"cors_origins"`
	StaticDir      string        `mapstructure:"static_dir"      yaml:"static_dir"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           8080,
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   5 * time.Minute,
			RequestTimeout: 4 * time.Minute,
			CORSOrigins:    []string{"*"},
			StaticDir:      "static",
		},
		Log:      logger.Config{Level: "info"},
		Provider: datasource.DefaultClientConfig(),
		Chart:    market.DefaultConfig(),
		Fiscal:   fiscal.DefaultConfig(),
		Universe: summary.DefaultUniverse(),
		LLM:      llm.DefaultConfig(),
		Earnings: analysis.DefaultEarningsConfig(),
		Notion:   notion.DefaultConfig(),
	}
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config.yaml
//  2. ./config/config.yaml
//  3. ~/.marketlens/config.yaml
//
// Environment variables override config file values.
// Format: MARKETLENS_<SECTION>_<KEY>, e.g. MARKETLENS_SERVER_PORT
func Load() (*Config, error) {
	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".marketlens"))

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
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	// Start from Default so list-valued sections without viper defaults
	// (the universe) survive a file that does not mention them.
	cfg := Default()
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	overrideFromEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// setDefaults registers every scalar key so AutomaticEnv can override it.
func setDefaults(v *viper.Viper) {
	d := Default()

	// Server
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.request_timeout", d.Server.RequestTimeout)
	v.SetDefault("server.cors_origins", d.Server.CORSOrigins)
	v.SetDefault("server.static_dir", d.Server.StaticDir)

	// Logging
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.pretty", d.Log.Pretty)

	// Market data provider
	v.SetDefault("provider.user_agent", d.Provider.UserAgent)
	v.SetDefault("provider.timeout", d.Provider.Timeout)
	v.SetDefault("provider.requests_per_second", d.Provider.RequestsPerSecond)
	v.SetDefault("provider.burst", d.Provider.Burst)
	v.SetDefault("provider.cache_ttl", d.Provider.CacheTTL)

	// Chart
	v.SetDefault("chart.moving_averages", d.Chart.MovingAverages)
	v.SetDefault("chart.news_limit", d.Chart.NewsLimit)

	// Fiscal alignment
	v.SetDefault("fiscal.quarter_shift_days", d.Fiscal.QuarterShiftDays)
	v.SetDefault("fiscal.annual_columns", d.Fiscal.AnnualColumns)
	v.SetDefault("fiscal.quarterly_columns", d.Fiscal.QuarterlyColumns)

	// Summary universe
	v.SetDefault("universe.new_high_threshold", d.Universe.NewHighThreshold)
	v.SetDefault("universe.new_high_min_market_cap", d.Universe.NewHighMinMarketCap)
	v.SetDefault("universe.top_movers", d.Universe.TopMovers)
	v.SetDefault("universe.news_per_source", d.Universe.NewsPerSource)
	v.SetDefault("universe.market_news_limit", d.Universe.MarketNewsLimit)
	v.SetDefault("universe.concurrency", d.Universe.Concurrency)

	// LLM
	v.SetDefault("llm.primary", d.LLM.Primary)
	v.SetDefault("llm.gemini_key", "")
	v.SetDefault("llm.anthropic_key", "")
	v.SetDefault("llm.gemini_model", d.LLM.GeminiModel)
	v.SetDefault("llm.anthropic_model", d.LLM.AnthropicModel)
	v.SetDefault("llm.temperature", d.LLM.Temperature)
	v.SetDefault("llm.max_tokens", d.LLM.MaxTokens)
	v.SetDefault("llm.timeout", d.LLM.Timeout)
	v.SetDefault("llm.max_retries", d.LLM.MaxRetries)
	v.SetDefault("llm.language", d.LLM.Language)

	// Earnings calls
	v.SetDefault("earnings.root", d.Earnings.Root)
	v.SetDefault("earnings.cache_max_age", d.Earnings.CacheMaxAge)
	v.SetDefault("earnings.prune_schedule", d.Earnings.PruneSchedule)

	// Notion
	v.SetDefault("notion.api_key", "")
	v.SetDefault("notion.database_id", "")
	v.SetDefault("notion.version", d.Notion.Version)
	v.SetDefault("notion.base_url", d.Notion.BaseURL)
	v.SetDefault("notion.title_property", d.Notion.TitleProperty)
	v.SetDefault("notion.timeout", d.Notion.Timeout)
}

// overrideFromEnv fills unset secrets from the provider SDKs' conventional
// environment variables.
func overrideFromEnv(cfg *Config) {
	fill := func(dst *string, env string) {
		if *dst == "" {
			*dst = os.Getenv(env)
		}
	}
	fill(&cfg.LLM.GeminiKey, EnvGeminiKey)
	fill(&cfg.LLM.GeminiKey, EnvGoogleKey)
	fill(&cfg.LLM.AnthropicKey, EnvAnthropicKey)
	fill(&cfg.Notion.APIKey, EnvNotionKey)
	fill(&cfg.Notion.DatabaseID, EnvNotionDatabase)
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
