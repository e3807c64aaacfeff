// Package config loads and validates server configuration from defaults,
// an optional YAML file, a .env file, and environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Redis    RedisConfig    `yaml:"redis"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	ReadTimeout  int    `yaml:"read_timeout_seconds"`
	WriteTimeout int    `yaml:"write_timeout_seconds"`
}

// StorageConfig represents entry storage configuration
type StorageConfig struct {
	// Provider selects the backend: sqlite, postgres, or memory
	Provider string `yaml:"provider"`
	// Path is the SQLite database file
	Path string `yaml:"path"`
	// DSN is the PostgreSQL connection string when provider is postgres
	DSN string `yaml:"-"`
}

// RedisConfig represents the optional analysis result cache
type RedisConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Addr       string `yaml:"addr"`
	Password   string `yaml:"-"` // Never serialize credentials
	DB         int    `yaml:"db"`
	TTLSeconds int    `yaml:"ttl_seconds"`
}

// AnalysisConfig carries the tunable analysis parameters
type AnalysisConfig struct {
	EntryCap        int     `yaml:"entry_cap"`
	ScanCap         int     `yaml:"scan_cap"`
	MinLength       int     `yaml:"min_pattern_length"`
	MaxLength       int     `yaml:"max_pattern_length"`
	MinSignificance float64 `yaml:"min_significance"`
	WindowDays      int     `yaml:"window_days"`
	// DebounceMs is how long entry writes must stay quiet before the
	// live re-analysis broadcast fires
	DebounceMs int `yaml:"debounce_ms"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "localhost",
			Port:         8085,
			ReadTimeout:  30,
			WriteTimeout: 30,
		},
		Storage: StorageConfig{
			Provider: "sqlite",
			Path:     "./data/insights.db",
		},
		Redis: RedisConfig{
			Enabled:    false,
			Addr:       "localhost:6379",
			DB:         0,
			TTLSeconds: 300,
		},
		Analysis: AnalysisConfig{
			EntryCap:        200,
			ScanCap:         50,
			MinLength:       2,
			MaxLength:       4,
			MinSignificance: 0.25,
			WindowDays:      28,
			DebounceMs:      750,
		},
		Logging: LoggingConfig{
			Level: "info",
			JSON:  true,
		},
	}
}

// LoadConfig loads configuration from defaults, an optional YAML file named
// by INSIGHTS_CONFIG_FILE, a .env file, and environment variables, in that
// order of increasing precedence.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// Don't fail if .env doesn't exist
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	config := DefaultConfig()

	if path := os.Getenv("INSIGHTS_CONFIG_FILE"); path != "" {
		if err := loadFromFile(config, path); err != nil {
			return nil, err
		}
	}

	loadFromEnv(config)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

func loadFromFile(config *Config, path string) error {
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from the operator's environment
	if err != nil {
		return fmt.Errorf("error reading config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("error parsing config file %s: %w", path, err)
	}
	return nil
}

func loadFromEnv(config *Config) {
	loadServerConfig(config)
	loadStorageConfig(config)
	loadRedisConfig(config)
	loadAnalysisConfig(config)
	loadLoggingConfig(config)
}

func loadServerConfig(config *Config) {
	if host := os.Getenv("INSIGHTS_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("INSIGHTS_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if readTimeout := os.Getenv("INSIGHTS_READ_TIMEOUT_SECONDS"); readTimeout != "" {
		if rt, err := strconv.Atoi(readTimeout); err == nil {
			config.Server.ReadTimeout = rt
		}
	}
	if writeTimeout := os.Getenv("INSIGHTS_WRITE_TIMEOUT_SECONDS"); writeTimeout != "" {
		if wt, err := strconv.Atoi(writeTimeout); err == nil {
			config.Server.WriteTimeout = wt
		}
	}
}

func loadStorageConfig(config *Config) {
	if provider := os.Getenv("INSIGHTS_STORAGE_PROVIDER"); provider != "" {
		config.Storage.Provider = provider
	}
	if path := os.Getenv("INSIGHTS_SQLITE_PATH"); path != "" {
		config.Storage.Path = path
	}
	if dsn := os.Getenv("INSIGHTS_POSTGRES_DSN"); dsn != "" {
		config.Storage.DSN = dsn
	}
}

func loadRedisConfig(config *Config) {
	if enabled := os.Getenv("INSIGHTS_REDIS_ENABLED"); enabled != "" {
		if e, err := strconv.ParseBool(enabled); err == nil {
			config.Redis.Enabled = e
		}
	}
	if addr := os.Getenv("INSIGHTS_REDIS_ADDR"); addr != "" {
		config.Redis.Addr = addr
	}
	if password := os.Getenv("INSIGHTS_REDIS_PASSWORD"); password != "" {
		config.Redis.Password = password
	}
	if db := os.Getenv("INSIGHTS_REDIS_DB"); db != "" {
		if d, err := strconv.Atoi(db); err == nil {
			config.Redis.DB = d
		}
	}
	if ttl := os.Getenv("INSIGHTS_REDIS_TTL_SECONDS"); ttl != "" {
		if t, err := strconv.Atoi(ttl); err == nil {
			config.Redis.TTLSeconds = t
		}
	}
}

func loadAnalysisConfig(config *Config) {
	if entryCap := os.Getenv("INSIGHTS_ENTRY_CAP"); entryCap != "" {
		if c, err := strconv.Atoi(entryCap); err == nil {
			config.Analysis.EntryCap = c
		}
	}
	if scanCap := os.Getenv("INSIGHTS_SCAN_CAP"); scanCap != "" {
		if c, err := strconv.Atoi(scanCap); err == nil {
			config.Analysis.ScanCap = c
		}
	}
	if minSig := os.Getenv("INSIGHTS_MIN_SIGNIFICANCE"); minSig != "" {
		if s, err := strconv.ParseFloat(minSig, 64); err == nil {
			config.Analysis.MinSignificance = s
		}
	}
	if windowDays := os.Getenv("INSIGHTS_WINDOW_DAYS"); windowDays != "" {
		if w, err := strconv.Atoi(windowDays); err == nil {
			config.Analysis.WindowDays = w
		}
	}
	if debounce := os.Getenv("INSIGHTS_DEBOUNCE_MS"); debounce != "" {
		if d, err := strconv.Atoi(debounce); err == nil {
			config.Analysis.DebounceMs = d
		}
	}
}

func loadLoggingConfig(config *Config) {
	if level := os.Getenv("INSIGHTS_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if jsonOut := os.Getenv("LOG_JSON"); jsonOut != "" {
		if j, err := strconv.ParseBool(jsonOut); err == nil {
			config.Logging.JSON = j
		}
	}
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	switch c.Storage.Provider {
	case "sqlite":
		if c.Storage.Path == "" {
			return fmt.Errorf("sqlite storage requires a path")
		}
	case "postgres":
		if c.Storage.DSN == "" {
			return fmt.Errorf("postgres storage requires INSIGHTS_POSTGRES_DSN")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown storage provider: %s", c.Storage.Provider)
	}
	if c.Analysis.EntryCap < 3 {
		return fmt.Errorf("entry cap must be at least 3, got %d", c.Analysis.EntryCap)
	}
	if c.Analysis.ScanCap < 2 {
		return fmt.Errorf("scan cap must be at least 2, got %d", c.Analysis.ScanCap)
	}
	if c.Analysis.MinLength < 2 || c.Analysis.MaxLength > 4 || c.Analysis.MinLength > c.Analysis.MaxLength {
		return fmt.Errorf("pattern length bounds [%d,%d] outside supported range [2,4]",
			c.Analysis.MinLength, c.Analysis.MaxLength)
	}
	if c.Analysis.MinSignificance < 0 || c.Analysis.MinSignificance >= 1 {
		return fmt.Errorf("min significance %f outside [0,1)", c.Analysis.MinSignificance)
	}
	if c.Analysis.WindowDays < 1 {
		return fmt.Errorf("window days must be positive, got %d", c.Analysis.WindowDays)
	}
	return nil
}
