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
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Google  GoogleConfig  `yaml:"google" mapstructure:"google"`
	Here    HereConfig    `yaml:"here" mapstructure:"here"`
	Geocode GeocodeConfig `yaml:"geocode" mapstructure:"geocode"`
	Scrape  ScrapeConfig  `yaml:"scrape" mapstructure:"scrape"`
	Fixed   FixedConfig   `yaml:"fixed" mapstructure:"fixed"`
	Publish PublishConfig `yaml:"publish" mapstructure:"publish"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend shared by the geocode cache and the publisher.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// GoogleConfig holds Google Geocoding API settings.
type GoogleConfig struct {
	APIKey  string  `yaml:"api_key" mapstructure:"api_key"`
	BaseURL string  `yaml:"base_url" mapstructure:"base_url"`
	RPS     float64 `yaml:"rps" mapstructure:"rps"`
}

// HereConfig holds HERE Geocoding & Search API settings.
type HereConfig struct {
	APIKey  string  `yaml:"api_key" mapstructure:"api_key"`
	BaseURL string  `yaml:"base_url" mapstructure:"base_url"`
	RPS     float64 `yaml:"rps" mapstructure:"rps"`
}

// GeocodeConfig configures mobile point geocoding.
type GeocodeConfig struct {
	Provider          string `yaml:"provider" mapstructure:"provider"`
	Country           string `yaml:"country" mapstructure:"country"`
	LowScoreThreshold int    `yaml:"low_score_threshold" mapstructure:"low_score_threshold"`
	CacheTable        string `yaml:"cache_table" mapstructure:"cache_table"`
}

// ScrapeConfig configures access to the donation points website.
type ScrapeConfig struct {
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	UserAgent   string  `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RPS         float64 `yaml:"rps" mapstructure:"rps"`
}

// FixedConfig configures the fixed point import.
type FixedConfig struct {
	ExtraPointsFile string `yaml:"extra_points_file" mapstructure:"extra_points_file"`
}

// PublishConfig configures optional file exports written alongside the database tables.
type PublishConfig struct {
	ShapefileDir string `yaml:"shapefile_dir" mapstructure:"shapefile_dir"`
	XLSXDir      string `yaml:"xlsx_dir" mapstructure:"xlsx_dir"`
}

// ServerConfig configures the points API server.
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
	v.SetEnvPrefix("HIRUDO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.database_url", "")
	v.SetDefault("google.api_key", "")
	v.SetDefault("google.base_url", "https://maps.googleapis.com/maps/api/geocode/json")
	v.SetDefault("google.rps", 10)
	v.SetDefault("here.api_key", "")
	v.SetDefault("here.base_url", "https://geocode.search.hereapi.com/v1/geocode")
	v.SetDefault("here.rps", 5)
	v.SetDefault("geocode.provider", "google")
	v.SetDefault("geocode.country", "ES")
	v.SetDefault("geocode.low_score_threshold", 4)
	v.SetDefault("geocode.cache_table", "geocoding_cache")
	v.SetDefault("scrape.base_url", "https://donarsangre.sanidadmadrid.org/")
	v.SetDefault("scrape.user_agent", "hirudo-etl/1.0")
	v.SetDefault("scrape.timeout_secs", 60)
	v.SetDefault("scrape.rps", 2)
	v.SetDefault("fixed.extra_points_file", "")
	v.SetDefault("publish.shapefile_dir", "")
	v.SetDefault("publish.xlsx_dir", "")
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

// Validate checks that the settings a command needs are present.
// Mode is one of "fixed", "mobile", "run" or "serve". All problems are reported at once.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch c.Store.Driver {
	case "postgres":
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required (HIRUDO_STORE_DATABASE_URL)")
		}
	case "sqlite":
	default:
		errs = append(errs, fmt.Sprintf("store.driver %q is not supported (postgres, sqlite)", c.Store.Driver))
	}

	switch mode {
	case "fixed":
		errs = append(errs, c.scrapeErrors()...)
	case "mobile", "run":
		errs = append(errs, c.scrapeErrors()...)
		errs = append(errs, c.geocodeErrors()...)
	case "serve":
		if c.Store.Driver != "postgres" {
			errs = append(errs, "serve requires store.driver postgres")
		}
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) scrapeErrors() []string {
	var errs []string
	if c.Scrape.BaseURL == "" {
		errs = append(errs, "scrape.base_url is required")
	}
	if c.Scrape.TimeoutSecs <= 0 {
		errs = append(errs, "scrape.timeout_secs must be > 0")
	}
	return errs
}

func (c *Config) geocodeErrors() []string {
	var errs []string
	switch c.Geocode.Provider {
	case "google":
		if c.Google.APIKey == "" {
			errs = append(errs, "google.api_key is required (HIRUDO_GOOGLE_API_KEY)")
		}
	case "here":
		if c.Here.APIKey == "" {
			errs = append(errs, "here.api_key is required (HIRUDO_HERE_API_KEY)")
		}
	default:
		errs = append(errs, fmt.Sprintf("geocode.provider %q is not supported (google, here)", c.Geocode.Provider))
	}
	if c.Geocode.CacheTable == "" {
		errs = append(errs, "geocode.cache_table is required")
	}
	return errs
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
