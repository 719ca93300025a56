package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Catalog   CatalogConfig   `yaml:"catalog" mapstructure:"catalog"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Insight   InsightConfig   `yaml:"insight" mapstructure:"insight"`
	Scoring   ScoringConfig   `yaml:"scoring" mapstructure:"scoring"`
	Bumper    BumperConfig    `yaml:"bumper" mapstructure:"bumper"`
	Report    ReportConfig    `yaml:"report" mapstructure:"report"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the key-value backend for session state.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // memory, sqlite, postgres
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// CatalogConfig configures where tools and criteria come from.
type CatalogConfig struct {
	Source      string `yaml:"source" mapstructure:"source"` // defaults, file, postgres
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	RefreshSecs int    `yaml:"refresh_secs" mapstructure:"refresh_secs"`
}

// AnthropicConfig holds Anthropic API settings. An empty key disables
// generated insights; the deterministic fallbacks are used instead.
type AnthropicConfig struct {
	Key         string  `yaml:"key" mapstructure:"key"`
	Model       string  `yaml:"model" mapstructure:"model"`
	MaxTokens   int64   `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature float64 `yaml:"temperature" mapstructure:"temperature"`
}

// InsightConfig tunes the generated-text guard and text budgets.
type InsightConfig struct {
	TimeoutMs        int     `yaml:"timeout_ms" mapstructure:"timeout_ms"`
	CellBudget       int     `yaml:"cell_budget" mapstructure:"cell_budget"`
	HeadlineBudget   int     `yaml:"headline_budget" mapstructure:"headline_budget"`
	RatePerSec       float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	RateBurst        int     `yaml:"rate_burst" mapstructure:"rate_burst"`
	Concurrency      int     `yaml:"concurrency" mapstructure:"concurrency"`
	FailureThreshold int     `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ResetTimeoutSecs int     `yaml:"reset_timeout_secs" mapstructure:"reset_timeout_secs"`
}

// ScoringConfig selects the scoring variant and top-N views.
type ScoringConfig struct {
	Variant      string `yaml:"variant" mapstructure:"variant"`
	ReportTopN   int    `yaml:"report_top_n" mapstructure:"report_top_n"`
	ChartTopN    int    `yaml:"chart_top_n" mapstructure:"chart_top_n"`
	HonorableMax int    `yaml:"honorable_max" mapstructure:"honorable_max"`
}

// BumperConfig holds the overlay timing thresholds.
type BumperConfig struct {
	InitialDelaySecs      int `yaml:"initial_delay_secs" mapstructure:"initial_delay_secs"`
	MouseIdleSecs         int `yaml:"mouse_idle_secs" mapstructure:"mouse_idle_secs"`
	ExitFloorSecs         int `yaml:"exit_floor_secs" mapstructure:"exit_floor_secs"`
	ExitCooldownSecs      int `yaml:"exit_cooldown_secs" mapstructure:"exit_cooldown_secs"`
	MouseQuietMs          int `yaml:"mouse_quiet_ms" mapstructure:"mouse_quiet_ms"`
	PollIntervalMs        int `yaml:"poll_interval_ms" mapstructure:"poll_interval_ms"`
	SessionIdleTTLMinutes int `yaml:"session_idle_ttl_minutes" mapstructure:"session_idle_ttl_minutes"`
}

// ReportConfig configures report rendering and dispatch.
type ReportConfig struct {
	OutputDir string `yaml:"output_dir" mapstructure:"output_dir"`
	FromEmail string `yaml:"from_email" mapstructure:"from_email"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("PPMFINDER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.database_url", "")
	v.SetDefault("catalog.path", "")
	v.SetDefault("catalog.database_url", "")
	v.SetDefault("anthropic.key", "")
	v.SetDefault("catalog.source", "defaults")
	v.SetDefault("catalog.refresh_secs", 300)
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 120)
	v.SetDefault("anthropic.temperature", 0.7)
	v.SetDefault("insight.timeout_ms", 4000)
	v.SetDefault("insight.cell_budget", 80)
	v.SetDefault("insight.headline_budget", 160)
	v.SetDefault("insight.rate_per_sec", 5.0)
	v.SetDefault("insight.rate_burst", 5)
	v.SetDefault("insight.concurrency", 3)
	v.SetDefault("insight.failure_threshold", 3)
	v.SetDefault("insight.reset_timeout_secs", 60)
	v.SetDefault("scoring.variant", "snap")
	v.SetDefault("scoring.report_top_n", 3)
	v.SetDefault("scoring.chart_top_n", 10)
	v.SetDefault("scoring.honorable_max", 3)
	v.SetDefault("bumper.initial_delay_secs", 23)
	v.SetDefault("bumper.mouse_idle_secs", 3)
	v.SetDefault("bumper.exit_floor_secs", 120)
	v.SetDefault("bumper.exit_cooldown_secs", 23)
	v.SetDefault("bumper.mouse_quiet_ms", 100)
	v.SetDefault("bumper.poll_interval_ms", 1000)
	v.SetDefault("bumper.session_idle_ttl_minutes", 60)
	v.SetDefault("report.output_dir", "")
	v.SetDefault("report.from_email", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command needs. mode is the command name
// ("serve", "score", "report", "catalog").
func (c *Config) Validate(mode string) error {
	var errs []string

	switch c.Store.Driver {
	case "memory":
	case "sqlite", "postgres":
		if c.Store.DatabaseURL == "" {
			errs = append(errs, fmt.Sprintf("store.database_url is required for driver %s", c.Store.Driver))
		}
	default:
		errs = append(errs, fmt.Sprintf("store.driver %q must be memory, sqlite or postgres", c.Store.Driver))
	}

	switch c.Catalog.Source {
	case "defaults":
	case "file":
		if c.Catalog.Path == "" {
			errs = append(errs, "catalog.path is required for source file")
		}
	case "postgres":
		if c.Catalog.DatabaseURL == "" && c.Store.DatabaseURL == "" {
			errs = append(errs, "catalog.database_url (or store.database_url) is required for source postgres")
		}
	default:
		errs = append(errs, fmt.Sprintf("catalog.source %q must be defaults, file or postgres", c.Catalog.Source))
	}

	if c.Insight.TimeoutMs <= 0 {
		errs = append(errs, "insight.timeout_ms must be > 0")
	}
	if c.Insight.CellBudget <= 0 || c.Insight.HeadlineBudget <= 0 {
		errs = append(errs, "insight budgets must be > 0")
	}

	if mode == "serve" {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server.port must be between 1 and 65535, got %d", c.Server.Port))
		}
	}

	if len(errs) > 0 {
		return eris.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// CatalogDatabaseURL returns the catalog DSN, falling back to the store DSN.
func (c *Config) CatalogDatabaseURL() string {
	if c.Catalog.DatabaseURL != "" {
		return c.Catalog.DatabaseURL
	}
	return c.Store.DatabaseURL
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
