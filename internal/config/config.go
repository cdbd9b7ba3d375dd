// Package config loads the settings of the hybrid command: defaults, then an optional YAML file,
// then HYBRID_* environment variables.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of environment overrides: HYBRID_DATABASE_DSN sets database.dsn.
const EnvPrefix = "HYBRID_"

type Config struct {
	Database DatabaseConfig `koanf:"database"`
	Log      LogConfig      `koanf:"log"`
}

type DatabaseConfig struct {
	Driver   string `koanf:"driver"`
	DSN      string `koanf:"dsn"`
	LogLevel string `koanf:"loglevel"` // gorm: silent, error, warn, info
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"database.driver":   "sqlite",
		"database.dsn":      "file:hybrid?mode=memory&cache=shared",
		"database.loglevel": "silent",
		"log.level":         "INFO",
		"log.format":        "text",
	}
}

// Load reads the configuration. path may be empty. DATABASE_URL is used for the DSN when neither
// the file nor HYBRID_DATABASE_DSN sets one.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}
	dsnDefault := k.String("database.dsn")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	if url := os.Getenv("DATABASE_URL"); url != "" && k.String("database.dsn") == dsnDefault {
		if err := k.Set("database.dsn", url); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// envKey maps HYBRID_DATABASE_DSN to database.dsn
func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", ".")
}
