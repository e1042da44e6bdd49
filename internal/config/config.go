package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config captures all runtime configuration derived from environment variables
// and an optional dotenv file.
type Config struct {
	Port              string
	DBURL             string
	VPICURL           string
	VPICTimeoutSecs   int
	VPICMaxRetries    int
	VPICRateLimit     float64
	VPICRateBurst     int
	PopularLimit      int
	ReadTimeoutSecs   int
	WriteTimeoutSecs  int
	IdleTimeoutSecs   int
	DBMaxConns        int
	DBMinConns        int
	DBMaxIdleSecs     int
	DBMaxLifeSecs     int
	DBConnTimeoutSecs int
	DBStatementCache  int
	LogLevel          string
	LogFormat         string
	LogFile           string
}

var defaults = map[string]interface{}{
	"PORT":                        "8080",
	"VPIC_URL":                    "https://vpic.nhtsa.dot.gov/api",
	"VPIC_TIMEOUT_SECS":           5,
	"VPIC_MAX_RETRIES":            1,
	"VPIC_RATE_LIMIT":             5.0,
	"VPIC_RATE_BURST":             10,
	"POPULAR_LIMIT":               0,
	"SERVER_READ_TIMEOUT":         15,
	"SERVER_WRITE_TIMEOUT":        15,
	"SERVER_IDLE_TIMEOUT":         60,
	"DB_MAX_CONNS":                20,
	"DB_MIN_CONNS":                2,
	"DB_MAX_CONN_IDLE_SECS":       300,
	"DB_MAX_CONN_LIFETIME_SECS":   3600,
	"DB_CONN_TIMEOUT_SECS":        10,
	"DB_STATEMENT_CACHE_CAPACITY": 256,
	"LOG_LEVEL":                   "info",
	"LOG_FORMAT":                  "json",
}

// Load reads configuration from the environment, applying defaults and validation.
// When CONFIG_FILE (default ".env") exists it is read first; real environment
// variables always win over values from the file.
func Load() (Config, error) {
	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}

	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		}
	} else if os.Getenv("CONFIG_FILE") != "" {
		return Config{}, fmt.Errorf("CONFIG_FILE %s: %w", path, err)
	}
	v.AutomaticEnv()

	cfg := Config{
		Port:              v.GetString("PORT"),
		DBURL:             v.GetString("DB_URL"),
		VPICURL:           strings.TrimRight(v.GetString("VPIC_URL"), "/"),
		VPICTimeoutSecs:   v.GetInt("VPIC_TIMEOUT_SECS"),
		VPICMaxRetries:    v.GetInt("VPIC_MAX_RETRIES"),
		VPICRateLimit:     v.GetFloat64("VPIC_RATE_LIMIT"),
		VPICRateBurst:     v.GetInt("VPIC_RATE_BURST"),
		PopularLimit:      v.GetInt("POPULAR_LIMIT"),
		ReadTimeoutSecs:   v.GetInt("SERVER_READ_TIMEOUT"),
		WriteTimeoutSecs:  v.GetInt("SERVER_WRITE_TIMEOUT"),
		IdleTimeoutSecs:   v.GetInt("SERVER_IDLE_TIMEOUT"),
		DBMaxConns:        v.GetInt("DB_MAX_CONNS"),
		DBMinConns:        v.GetInt("DB_MIN_CONNS"),
		DBMaxIdleSecs:     v.GetInt("DB_MAX_CONN_IDLE_SECS"),
		DBMaxLifeSecs:     v.GetInt("DB_MAX_CONN_LIFETIME_SECS"),
		DBConnTimeoutSecs: v.GetInt("DB_CONN_TIMEOUT_SECS"),
		DBStatementCache:  v.GetInt("DB_STATEMENT_CACHE_CAPACITY"),
		LogLevel:          strings.ToLower(v.GetString("LOG_LEVEL")),
		LogFormat:         strings.ToLower(v.GetString("LOG_FORMAT")),
		LogFile:           v.GetString("LOG_FILE"),
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (cfg Config) validate() error {
	if cfg.DBURL == "" {
		return errors.New("DB_URL is required")
	}
	if cfg.VPICURL == "" {
		return errors.New("VPIC_URL is required")
	}
	if u, err := url.Parse(cfg.VPICURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("VPIC_URL must be an absolute URL")
	}
	if cfg.VPICTimeoutSecs <= 0 {
		return errors.New("VPIC_TIMEOUT_SECS must be positive")
	}
	if cfg.VPICMaxRetries < 0 {
		return errors.New("VPIC_MAX_RETRIES must be non-negative")
	}
	if cfg.VPICRateLimit <= 0 {
		return errors.New("VPIC_RATE_LIMIT must be positive")
	}
	if cfg.VPICRateBurst <= 0 {
		return errors.New("VPIC_RATE_BURST must be positive")
	}
	if cfg.PopularLimit < 0 {
		return errors.New("POPULAR_LIMIT must be non-negative")
	}
	if cfg.DBMaxConns <= 0 {
		return errors.New("DB_MAX_CONNS must be positive")
	}
	if cfg.DBMinConns < 0 {
		return errors.New("DB_MIN_CONNS must be non-negative")
	}
	if cfg.DBMinConns > cfg.DBMaxConns {
		return errors.New("DB_MIN_CONNS cannot exceed DB_MAX_CONNS")
	}
	if cfg.DBStatementCache < 0 {
		return errors.New("DB_STATEMENT_CACHE_CAPACITY must be non-negative")
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error")
	}
	switch cfg.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console")
	}
	return nil
}
