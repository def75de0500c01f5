package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const (
	CatalogSourceFile     = "file"
	CatalogSourcePostgres = "postgres"

	configPathEnvVar  = "CONFIG_PATH"
	defaultConfigPath = "config.yaml"
)

type Config struct {
	Port int `koanf:"port"`

	// Catalog, scaler and model artifacts
	CatalogSource string `koanf:"catalog_source"`
	CatalogPath   string `koanf:"catalog_path"`
	ScalerPath    string `koanf:"scaler_path"`
	ModelPath     string `koanf:"model_path"`

	// Optional backing services. Empty disables them.
	DatabaseURL string        `koanf:"database_url"`
	DBPoolSize  int           `koanf:"db_pool_size"`
	RedisURL    string        `koanf:"redis_url"`
	CacheTTL    time.Duration `koanf:"cache_ttl"`

	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitRequests int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RequestTimeout    time.Duration `koanf:"request_timeout"`

	LogLevel  string `koanf:"log_level"`
	LogFormat string `koanf:"log_format"`
}

func defaultConfig() Config {
	return Config{
		Port:              8080,
		CatalogSource:     CatalogSourceFile,
		CatalogPath:       "data/food_data.csv",
		ScalerPath:        "models/scaler.json",
		ModelPath:         "models/model.json",
		DBPoolSize:        20,
		CacheTTL:          10 * time.Minute,
		CORSOrigins:       []string{"*"},
		RateLimitRequests: 100,
		RateLimitWindow:   time.Minute,
		RequestTimeout:    30 * time.Second,
		LogLevel:          "info",
		LogFormat:         "json",
	}
}

// Environment variable names and the config keys they set.
var envKeys = map[string]string{
	"PORT":                "port",
	"CATALOG_SOURCE":      "catalog_source",
	"CATALOG_PATH":        "catalog_path",
	"SCALER_PATH":         "scaler_path",
	"MODEL_PATH":          "model_path",
	"DATABASE_URL":        "database_url",
	"DB_POOL_SIZE":        "db_pool_size",
	"REDIS_URL":           "redis_url",
	"CACHE_TTL":           "cache_ttl",
	"CORS_ORIGINS":        "cors_origins",
	"RATE_LIMIT_REQUESTS": "rate_limit_requests",
	"RATE_LIMIT_WINDOW":   "rate_limit_window",
	"REQUEST_TIMEOUT":     "request_timeout",
	"LOG_LEVEL":           "log_level",
	"LOG_FORMAT":          "log_format",
}

// Load configuration: defaults, then an optional YAML file, then env
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := configFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	// CORS_ORIGINS arrives as a comma separated string
	if s, ok := k.Get("cors_origins").(string); ok {
		if err := k.Set("cors_origins", splitList(s)); err != nil {
			return nil, fmt.Errorf("set cors_origins: %w", err)
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) Validate() error {
	var errs []error
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	switch c.CatalogSource {
	case CatalogSourceFile:
		if c.CatalogPath == "" {
			errs = append(errs, errors.New("catalog_path is required for the file catalog source"))
		}
	case CatalogSourcePostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("database_url is required for the postgres catalog source"))
		}
	default:
		errs = append(errs, fmt.Errorf("catalog_source must be %q or %q, got %q",
			CatalogSourceFile, CatalogSourcePostgres, c.CatalogSource))
	}
	if c.ScalerPath == "" || c.ModelPath == "" {
		errs = append(errs, errors.New("scaler_path and model_path are required"))
	}
	if c.DBPoolSize < 1 {
		errs = append(errs, fmt.Errorf("db_pool_size must be positive, got %d", c.DBPoolSize))
	}
	if c.RateLimitRequests > 0 && c.RateLimitWindow <= 0 {
		errs = append(errs, errors.New("rate_limit_window must be positive when rate limiting is on"))
	}
	if c.RequestTimeout < 0 || c.CacheTTL < 0 {
		errs = append(errs, errors.New("durations must not be negative"))
	}
	return errors.Join(errs...)
}

func configFile() string {
	if p := os.Getenv(configPathEnvVar); p != "" {
		return p
	}
	if _, err := os.Stat(defaultConfigPath); err == nil {
		return defaultConfigPath
	}
	return ""
}

// envKey maps a known variable to its config key; unknown variables are skipped.
func envKey(name string) string {
	return envKeys[name]
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
