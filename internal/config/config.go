package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/studyloop/revise/internal/domain/revision"
)

// Config defines server configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	DB     DBConfig     `yaml:"db"`
	Log    LogConfig    `yaml:"log"`
	Engine EngineConfig `yaml:"engine"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DBConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// EngineConfig tunes the scheduling engine per deployment.
type EngineConfig struct {
	CatchupMaxPerDay int `yaml:"catchup_max_per_day"`
	SpawnedExtraCap  int `yaml:"spawned_extra_cap"`
	// CatchupHourUTC is when the daily catch-up job runs.
	CatchupHourUTC int `yaml:"catchup_hour_utc"`
	// Policy overrides the built-in interval table when set.
	Policy *revision.IntervalPolicy `yaml:"policy"`
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		DB: DBConfig{
			Path: "revise.db",
		},
		Log: LogConfig{
			Level: "info",
		},
		Engine: EngineConfig{
			CatchupMaxPerDay: 5,
			SpawnedExtraCap:  3,
			CatchupHourUTC:   3,
		},
	}

	if path := os.Getenv("REVISE_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if host := os.Getenv("REVISE_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if portStr := os.Getenv("REVISE_SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid REVISE_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if dbPath := os.Getenv("REVISE_DB_PATH"); dbPath != "" {
		cfg.DB.Path = dbPath
	}
	if level := os.Getenv("REVISE_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if capStr := os.Getenv("REVISE_CATCHUP_MAX_PER_DAY"); capStr != "" {
		maxPerDay, err := strconv.Atoi(capStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid REVISE_CATCHUP_MAX_PER_DAY: %w", err)
		}
		cfg.Engine.CatchupMaxPerDay = maxPerDay
	}

	if cfg.Engine.Policy != nil {
		if err := cfg.Engine.Policy.Validate(); err != nil {
			return Config{}, fmt.Errorf("invalid interval policy: %w", err)
		}
	}

	return cfg, nil
}

// IntervalPolicy returns the configured policy, falling back to the default table.
func (c Config) IntervalPolicy() revision.IntervalPolicy {
	if c.Engine.Policy != nil {
		return *c.Engine.Policy
	}
	return revision.DefaultPolicy()
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
