package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/ratings-cli/internal/model"
	"github.com/sells-group/ratings-cli/internal/similarity"
)

// Config holds the full application configuration.
type Config struct {
	Store       StoreConfig       `yaml:"store" mapstructure:"store"`
	Google      ProviderConfig    `yaml:"google" mapstructure:"google"`
	Yandex      ProviderConfig    `yaml:"yandex" mapstructure:"yandex"`
	Tabiturient TabiturientConfig `yaml:"tabiturient" mapstructure:"tabiturient"`
	Matching    MatchingConfig    `yaml:"matching" mapstructure:"matching"`
	Reconcile   ReconcileConfig   `yaml:"reconcile" mapstructure:"reconcile"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
}

// StoreConfig selects and configures the university store.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// ProviderConfig configures a places API. An empty key disables the provider.
type ProviderConfig struct {
	Key       string  `yaml:"key" mapstructure:"key"`
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"` // requests per second, 0 = unlimited
}

// TabiturientConfig configures the leaderboard source.
type TabiturientConfig struct {
	URL         string  `yaml:"url" mapstructure:"url"`
	MinRating   float64 `yaml:"min_rating" mapstructure:"min_rating"`
	MaxRating   float64 `yaml:"max_rating" mapstructure:"max_rating"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int     `yaml:"max_retries" mapstructure:"max_retries"`
}

// Timeout returns the page download timeout.
func (t TabiturientConfig) Timeout() time.Duration {
	return time.Duration(t.TimeoutSecs) * time.Second
}

// MatchingConfig configures batch name matching.
type MatchingConfig struct {
	Threshold float64 `yaml:"threshold" mapstructure:"threshold"`
	Metric    string  `yaml:"metric" mapstructure:"metric"`
}

// ReconcileConfig holds the default pause between per-university fetches,
// in seconds, for each source.
type ReconcileConfig struct {
	GoogleDelay      float64 `yaml:"google_delay" mapstructure:"google_delay"`
	YandexDelay      float64 `yaml:"yandex_delay" mapstructure:"yandex_delay"`
	TabiturientDelay float64 `yaml:"tabiturient_delay" mapstructure:"tabiturient_delay"`
}

// Delay returns the configured delay for src.
func (r ReconcileConfig) Delay(src model.Source) time.Duration {
	var secs float64
	switch src {
	case model.SourceGoogle:
		secs = r.GoogleDelay
	case model.SourceYandex:
		secs = r.YandexDelay
	case model.SourceTabiturient:
		secs = r.TabiturientDelay
	}
	return time.Duration(secs * float64(time.Second))
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// legacyEnv maps keys onto the variable names older deployments set in .env.
var legacyEnv = map[string]string{
	"google.key": "GOOGLE_PLACES_API_KEY",
	"yandex.key": "YANDEX_MAPS_API_KEY",
}

// Load reads configuration from .env, file and environment.
func Load() (*Config, error) {
	// .env never overrides variables already set in the environment.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, eris.Wrap(err, "config: load .env")
	}

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("RATINGS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, legacy := range legacyEnv {
		prefixed := "RATINGS_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, legacy); err != nil {
			return nil, eris.Wrapf(err, "config: bind %s", key)
		}
	}

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "ratings.db")
	v.SetDefault("store.max_conns", 4)
	v.SetDefault("store.min_conns", 1)
	v.SetDefault("google.key", "")
	v.SetDefault("google.rate_limit", 0.0)
	v.SetDefault("yandex.key", "")
	v.SetDefault("yandex.rate_limit", 0.0)
	v.SetDefault("tabiturient.url", "https://tabiturient.ru/globalrating/")
	v.SetDefault("tabiturient.min_rating", 10.0)
	v.SetDefault("tabiturient.max_rating", 200.0)
	v.SetDefault("tabiturient.timeout_secs", 30)
	v.SetDefault("tabiturient.max_retries", 1)
	v.SetDefault("matching.threshold", 0.7)
	v.SetDefault("matching.metric", similarity.MetricRatio)
	v.SetDefault("reconcile.google_delay", 1.0)
	v.SetDefault("reconcile.yandex_delay", 1.0)
	v.SetDefault("reconcile.tabiturient_delay", 0.5)
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

// Validate checks ranges and, when src is set, the settings that source
// needs. A missing API key is not an error: the provider is just skipped.
func (c *Config) Validate(src model.Source) error {
	var problems []string

	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		problems = append(problems, "store.driver must be sqlite or postgres")
	}
	if c.Store.Driver == "postgres" && c.Store.DatabaseURL == "" {
		problems = append(problems, "store.database_url is required for postgres")
	}
	if c.Matching.Threshold <= 0 || c.Matching.Threshold >= 1 {
		problems = append(problems, "matching.threshold must be between 0 and 1")
	}
	if _, err := similarity.ByName(c.Matching.Metric); err != nil {
		problems = append(problems, "matching.metric is unknown")
	}
	if c.Google.RateLimit < 0 || c.Yandex.RateLimit < 0 {
		problems = append(problems, "rate_limit must not be negative")
	}

	switch src {
	case "":
	case model.SourceTabiturient:
		t := c.Tabiturient
		if t.URL == "" {
			problems = append(problems, "tabiturient.url is required")
		}
		if t.MinRating < 0 || t.MinRating >= t.MaxRating {
			problems = append(problems, "tabiturient.min_rating must be below tabiturient.max_rating")
		}
		if t.TimeoutSecs <= 0 {
			problems = append(problems, "tabiturient.timeout_secs must be positive")
		}
	case model.SourceGoogle, model.SourceYandex:
	default:
		problems = append(problems, "unknown source "+string(src))
	}
	if src != "" && c.Reconcile.Delay(src) < 0 {
		problems = append(problems, "reconcile."+string(src)+"_delay must not be negative")
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
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
