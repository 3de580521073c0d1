package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the ingestion service
type Config struct {
	General GeneralConfig  `mapstructure:"general"`
	Server  ServerConfig   `mapstructure:"server"`
	LLM     LLMConfig      `mapstructure:"llm"`
	Storage StorageConfig  `mapstructure:"storage"`
	Search  SearchConfig   `mapstructure:"search"`
	Scraper ScraperConfig  `mapstructure:"scraper"`
	Vendors []VendorConfig `mapstructure:"vendors"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Debug          bool          `mapstructure:"debug"`
	LogLevel       string        `mapstructure:"log_level"`
	DefaultTimeout time.Duration `mapstructure:"default_timeout"`
}

// ServerConfig contains HTTP server and auth settings
type ServerConfig struct {
	Address      string `mapstructure:"address"`
	ServiceToken string `mapstructure:"service_token"`
	// APIBaseURL is the address scraper runs use to reach the internal
	// REST surface. Empty means scrapers write to Postgres directly.
	APIBaseURL string `mapstructure:"api_base_url"`
}

func (s ServerConfig) Validate() error {
	if strings.TrimSpace(s.ServiceToken) == "" {
		return fmt.Errorf("server.service_token is required")
	}
	return nil
}

// LLMConfig contains the relevance-classifier provider settings
type LLMConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

func (l LLMConfig) Validate() error {
	if strings.TrimSpace(l.APIKey) == "" {
		return fmt.Errorf("llm.api_key is required")
	}
	return nil
}

// StorageConfig contains storage and persistence settings
type StorageConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// PostgresConfig contains Postgres connection settings
type PostgresConfig struct {
	URL      string        `mapstructure:"url"`
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	User     string        `mapstructure:"user"`
	Password string        `mapstructure:"password"`
	DBName   string        `mapstructure:"dbname"`
	SSLMode  string        `mapstructure:"sslmode"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

func (p PostgresConfig) Validate() error {
	if strings.TrimSpace(p.URL) != "" {
		return nil
	}
	if strings.TrimSpace(p.Host) == "" {
		return fmt.Errorf("storage.postgres.host required when url is not provided")
	}
	if strings.TrimSpace(p.DBName) == "" {
		return fmt.Errorf("storage.postgres.dbname required when url is not provided")
	}
	return nil
}

// DSN builds a postgres connection string from the configured pieces.
func (p PostgresConfig) DSN() string {
	if strings.TrimSpace(p.URL) != "" {
		return p.URL
	}
	port := p.Port
	if port == "" {
		port = "5432"
	}
	ssl := p.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", p.User, p.Password, p.Host, port, p.DBName, ssl)
}

// RedisConfig contains Redis connection settings (scheduler locks)
type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

// SearchConfig controls the local full-text mirror.
type SearchConfig struct {
	IndexPath string `mapstructure:"index_path"`
}

// Normalize applies defaults for unset search values.
func (s SearchConfig) Normalize() SearchConfig {
	if strings.TrimSpace(s.IndexPath) == "" {
		s.IndexPath = "data/solicitations.bleve"
	}
	return s
}

// ScraperConfig holds the shared pagination-driver knobs.
type ScraperConfig struct {
	Concurrency     int           `mapstructure:"concurrency"`
	MaxPages        int           `mapstructure:"max_pages"`
	SkipStreakLimit int           `mapstructure:"skip_streak_limit"`
	ExpiryGrace     time.Duration `mapstructure:"expiry_grace"`
	PageTimeout     time.Duration `mapstructure:"page_timeout"`
	EnrichDetails   bool          `mapstructure:"enrich_details"`
	ChromeBin       string        `mapstructure:"chrome_bin"`
}

// Normalize applies the pipeline defaults observed in production runs.
func (s ScraperConfig) Normalize() ScraperConfig {
	if s.Concurrency <= 0 {
		s.Concurrency = 5
	}
	if s.MaxPages <= 0 {
		s.MaxPages = 20
	}
	if s.SkipStreakLimit <= 0 {
		s.SkipStreakLimit = 25
	}
	if s.ExpiryGrace <= 0 {
		s.ExpiryGrace = 72 * time.Hour
	}
	if s.PageTimeout <= 0 {
		s.PageTimeout = 90 * time.Second
	}
	return s
}

// VendorConfig describes one external bid-listing site.
type VendorConfig struct {
	Name     string `mapstructure:"name"`
	Enabled  bool   `mapstructure:"enabled"`
	BaseURL  string `mapstructure:"base_url"`
	CronSpec string `mapstructure:"cron_spec"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	// RateLimitMs is the minimum delay between page loads for this site.
	RateLimitMs int `mapstructure:"rate_limit_ms"`
}

// Vendor returns the configuration for a named vendor, if present.
func (c *Config) Vendor(name string) (VendorConfig, bool) {
	for _, v := range c.Vendors {
		if v.Name == name {
			return v, true
		}
	}
	return VendorConfig{}, false
}

// EnabledVendors returns the names of all vendors enabled for fan-out runs.
func (c *Config) EnabledVendors() []string {
	var names []string
	for _, v := range c.Vendors {
		if v.Enabled {
			names = append(names, v.Name)
		}
	}
	return names
}

// LoadConfig loads config from file
func LoadConfig(path string) *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("json")
	viper.SetDefault("general.log_level", "info")
	viper.SetDefault("general.default_timeout", "30s")
	viper.SetDefault("server.address", ":10210")
	viper.SetDefault("llm.model", "gpt-4o-mini")
	viper.SetDefault("llm.timeout", "60s")
	viper.SetDefault("scraper.concurrency", 5)
	viper.SetDefault("scraper.max_pages", 20)
	viper.SetDefault("scraper.skip_streak_limit", 25)
	viper.SetDefault("scraper.expiry_grace", "72h")

	if path == "" {
		viper.AddConfigPath("./config")
		viper.AddConfigPath(".")
		exe, _ := os.Executable()
		exeDir := filepath.Dir(exe)
		viper.AddConfigPath(exeDir)
		viper.AddConfigPath(filepath.Join(exeDir, ".."))
	} else {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("BIDWATCH")
	replacer := strings.NewReplacer(".", "_")
	viper.SetEnvKeyReplacer(replacer)
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}
	config.Search = config.Search.Normalize()
	config.Scraper = config.Scraper.Normalize()

	if err := config.Server.Validate(); err != nil {
		panic(err)
	}
	if err := config.Storage.Postgres.Validate(); err != nil {
		panic(err)
	}
	return &config
}
