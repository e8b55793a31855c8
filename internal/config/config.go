package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config stores all configuration of the application.
// The values are read by viper from a config file or environment variables.
type Config struct {
	DBSource          string        `mapstructure:"DB_SOURCE"`
	ServerAddress     string        `mapstructure:"SERVER_ADDRESS"`
	RedisAddr         string        `mapstructure:"REDIS_ADDR"`
	CacheTTL          time.Duration `mapstructure:"CACHE_TTL"`
	Dataset           string        `mapstructure:"DATASET"`
	AdminLevels       string        `mapstructure:"ADMIN_LEVELS"`
	AdminWeight       float64       `mapstructure:"ADMIN_DEFAULT_WEIGHT"`
	CityLevel         int           `mapstructure:"CITY_LEVEL"`
	CodeNamespace     string        `mapstructure:"CODE_NAMESPACE"`
	CodeTag           string        `mapstructure:"CODE_TAG"`
	RawSource         string        `mapstructure:"RAW_SOURCE"`
	RequireBoundaries bool          `mapstructure:"REQUIRE_BOUNDARIES"`
	Workers           int           `mapstructure:"WORKERS"`
	BatchSize         int           `mapstructure:"BATCH_SIZE"`
	LogLevel          string        `mapstructure:"LOG_LEVEL"`
	LogFormat         string        `mapstructure:"LOG_FORMAT"`
}

// LoadConfig reads configuration from app.env in path, then environment variables.
// A missing app.env is not an error.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("env")

	v.SetDefault("SERVER_ADDRESS", "0.0.0.0:8080")
	v.SetDefault("CACHE_TTL", time.Hour)
	v.SetDefault("DATASET", "fr")
	v.SetDefault("ADMIN_LEVELS", "2,4,6,8")
	v.SetDefault("ADMIN_DEFAULT_WEIGHT", 1.0)
	v.SetDefault("CITY_LEVEL", 8)
	v.SetDefault("CODE_NAMESPACE", "fr")
	v.SetDefault("CODE_TAG", "ref:INSEE")
	v.SetDefault("RAW_SOURCE", "osm")
	v.SetDefault("WORKERS", 4)
	v.SetDefault("BATCH_SIZE", 5000)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")

	// Keys with defaults are bound automatically; the others need explicit binding.
	for _, key := range []string{"DB_SOURCE", "REDIS_ADDR", "REQUIRE_BOUNDARIES"} {
		if err = v.BindEnv(key); err != nil {
			return
		}
	}
	v.AutomaticEnv()

	if err = v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return config, fmt.Errorf("config: failed to read config: %w", err)
		}
	}

	if err = v.Unmarshal(&config); err != nil {
		return config, fmt.Errorf("config: failed to decode config: %w", err)
	}
	err = config.Validate()
	return
}

// Levels parses ADMIN_LEVELS.
func (c Config) Levels() ([]int, error) {
	var levels []int
	for _, part := range strings.Split(c.AdminLevels, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		l, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("config: invalid admin level %q", part)
		}
		levels = append(levels, l)
	}
	if len(levels) == 0 {
		return nil, fmt.Errorf("config: no admin level to keep")
	}
	return levels, nil
}

// Validate checks the values the import pipelines depend on.
func (c Config) Validate() error {
	if _, err := c.Levels(); err != nil {
		return err
	}
	if c.AdminWeight < 0 {
		return fmt.Errorf("config: ADMIN_DEFAULT_WEIGHT must not be negative, got %g", c.AdminWeight)
	}
	if c.CityLevel <= 0 {
		return fmt.Errorf("config: CITY_LEVEL must be positive, got %d", c.CityLevel)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("config: WORKERS must be positive, got %d", c.Workers)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("config: BATCH_SIZE must be positive, got %d", c.BatchSize)
	}
	if c.Dataset == "" {
		return fmt.Errorf("config: DATASET is required")
	}
	return nil
}
