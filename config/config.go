package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Server   ServerConfig   `mapstructure:"server"`
	Scraper  ScraperConfig  `mapstructure:"scraper"`
	SMTP     SMTPConfig     `mapstructure:"smtp"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Log      LogConfig      `mapstructure:"log"`
}

type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           string        `mapstructure:"port"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	RateLimit      float64       `mapstructure:"rate_limit"` // requests per second per client
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// Addr returns host:port for the listener
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

// ScraperConfig selects and configures the page fetcher
type ScraperConfig struct {
	Driver         string        `mapstructure:"driver"` // "rod" or "unlocker"
	BrowserBin     string        `mapstructure:"browser_bin"`
	SettleDelay    time.Duration `mapstructure:"settle_delay"`
	UnlockerURL    string        `mapstructure:"unlocker_url"`
	UnlockerZone   string        `mapstructure:"unlocker_zone"`
	UnlockerAPIKey string        `mapstructure:"unlocker_api_key"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

// PipelineConfig holds the scheduled run settings and decision policy
type PipelineConfig struct {
	Schedule              string  `mapstructure:"schedule"`
	Concurrency           int     `mapstructure:"concurrency"`
	DiscountThreshold     float64 `mapstructure:"discount_threshold"`
	DescriptionMaxLength  int     `mapstructure:"description_max_length"`
	DescriptionMaxBullets int     `mapstructure:"description_max_bullets"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads .env (if present), an optional config.yaml and PRICEWATCH_*
// environment variables, in increasing order of precedence.
func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/pricewatch/")

	v.SetEnvPrefix("PRICEWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults registers every key so AutomaticEnv can override it
func setDefaults(v *viper.Viper) {
	v.SetDefault("database.url", "")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.rate_limit", 5)
	v.SetDefault("server.request_timeout", "30s")

	v.SetDefault("scraper.driver", "unlocker")
	v.SetDefault("scraper.browser_bin", "")
	v.SetDefault("scraper.settle_delay", "2s")
	v.SetDefault("scraper.unlocker_url", "https://api.brightdata.com/request")
	v.SetDefault("scraper.unlocker_zone", "")
	v.SetDefault("scraper.unlocker_api_key", "")
	v.SetDefault("scraper.timeout", "60s")

	v.SetDefault("smtp.host", "")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.username", "")
	v.SetDefault("smtp.password", "")
	v.SetDefault("smtp.from", "")

	v.SetDefault("pipeline.schedule", "0 0 */12 * * *")
	v.SetDefault("pipeline.concurrency", 5)
	v.SetDefault("pipeline.discount_threshold", 40)
	v.SetDefault("pipeline.description_max_length", 450)
	v.SetDefault("pipeline.description_max_bullets", 6)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

func validate(config *Config) error {
	if config.Database.URL == "" {
		return fmt.Errorf("database url is required (set PRICEWATCH_DATABASE_URL)")
	}

	switch config.Scraper.Driver {
	case "rod":
	case "unlocker":
		if config.Scraper.UnlockerAPIKey == "" {
			return fmt.Errorf("unlocker api key is required when scraper driver is 'unlocker'")
		}
	default:
		return fmt.Errorf("scraper driver must be 'rod' or 'unlocker', got: %s", config.Scraper.Driver)
	}

	if config.Pipeline.Concurrency < 1 {
		return fmt.Errorf("pipeline concurrency must be at least 1, got: %d", config.Pipeline.Concurrency)
	}

	if config.Pipeline.DiscountThreshold < 0 || config.Pipeline.DiscountThreshold > 100 {
		return fmt.Errorf("discount threshold must be between 0 and 100, got: %v", config.Pipeline.DiscountThreshold)
	}

	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	if _, err := parser.Parse(config.Pipeline.Schedule); err != nil {
		return fmt.Errorf("invalid pipeline schedule %q: %w", config.Pipeline.Schedule, err)
	}

	if config.SMTP.Host != "" && config.SMTP.From == "" {
		return fmt.Errorf("smtp from address is required when smtp host is set")
	}

	return nil
}
