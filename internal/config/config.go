package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the service configuration. Values come from Defaults, then the
// optional YAML file, then environment variables.
type Config struct {
	Port           string `yaml:"port"`
	LogLevel       string `yaml:"log_level"`
	LogDevelopment bool   `yaml:"log_development"`

	// "api" or "sqlite"
	FleetBackend    string        `yaml:"fleet_backend"`
	FleetAPIURL     string        `yaml:"fleet_api_url"`
	FleetAPIToken   string        `yaml:"fleet_api_token"`
	FleetAPITimeout time.Duration `yaml:"fleet_api_timeout"`

	DBPath      string `yaml:"db_path"`
	SeedPath    string `yaml:"seed_path"`
	DatabaseURL string `yaml:"database_url"`

	// "memory", "redis", "sqlite" or "postgres"
	PreferenceStore string        `yaml:"preference_store"`
	RedisAddr       string        `yaml:"redis_addr"`
	RedisPassword   string        `yaml:"redis_password"`
	RedisDB         int           `yaml:"redis_db"`
	PreferenceTTL   time.Duration `yaml:"preference_ttl"`

	RefreshInterval time.Duration `yaml:"refresh_interval"`

	// Hosts allowed to open the board websocket besides the serving host.
	WSOriginPatterns []string `yaml:"ws_origin_patterns"`
}

func Defaults() *Config {
	return &Config{
		Port:            "8080",
		LogLevel:        "info",
		FleetBackend:    "sqlite",
		FleetAPITimeout: 10 * time.Second,
		DBPath:          "data/app.db",
		SeedPath:        "data/seeds/fleet.json",
		PreferenceStore: "sqlite",
		RedisAddr:       "localhost:6379",
		PreferenceTTL:   30 * 24 * time.Hour,
		RefreshInterval: 5 * time.Minute,
	}
}

// Load builds the configuration. A missing YAML file is not an error.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("load config: parse %q: %w", path, err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("load config: read %q: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Port = Get("PORT", c.Port)
	c.LogLevel = Get("LOG_LEVEL", c.LogLevel)
	c.LogDevelopment = getBool("LOG_DEVELOPMENT", c.LogDevelopment)

	c.FleetBackend = strings.ToLower(Get("FLEET_BACKEND", c.FleetBackend))
	c.FleetAPIURL = Get("FLEET_API_URL", c.FleetAPIURL)
	c.FleetAPIToken = Get("FLEET_API_TOKEN", c.FleetAPIToken)
	c.FleetAPITimeout = getDuration("FLEET_API_TIMEOUT", c.FleetAPITimeout)

	c.DBPath = Get("DB_PATH", c.DBPath)
	c.SeedPath = Get("SEED_PATH", c.SeedPath)
	c.DatabaseURL = Get("DATABASE_URL", c.DatabaseURL)

	c.PreferenceStore = strings.ToLower(Get("PREFERENCE_STORE", c.PreferenceStore))
	c.RedisAddr = Get("REDIS_ADDR", c.RedisAddr)
	c.RedisPassword = Get("REDIS_PASSWORD", c.RedisPassword)
	c.RedisDB = getInt("REDIS_DB", c.RedisDB)
	c.PreferenceTTL = getDuration("PREFERENCE_TTL", c.PreferenceTTL)

	c.RefreshInterval = getDuration("REFRESH_INTERVAL", c.RefreshInterval)

	c.WSOriginPatterns = getList("WS_ORIGIN_PATTERNS", c.WSOriginPatterns)
}

// Validate reports the first inconsistent setting.
func (c *Config) Validate() error {
	switch c.FleetBackend {
	case "api":
		if strings.TrimSpace(c.FleetAPIURL) == "" {
			return errors.New("FLEET_API_URL is required when FLEET_BACKEND=api")
		}
	case "sqlite":
	default:
		return fmt.Errorf("unknown FLEET_BACKEND %q", c.FleetBackend)
	}

	switch c.PreferenceStore {
	case "memory", "redis", "sqlite":
	case "postgres":
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return errors.New("DATABASE_URL is required when PREFERENCE_STORE=postgres")
		}
	default:
		return fmt.Errorf("unknown PREFERENCE_STORE %q", c.PreferenceStore)
	}

	if c.RefreshInterval <= 0 {
		return fmt.Errorf("REFRESH_INTERVAL must be positive, got %s", c.RefreshInterval)
	}
	if c.FleetAPITimeout <= 0 {
		return fmt.Errorf("FLEET_API_TIMEOUT must be positive, got %s", c.FleetAPITimeout)
	}
	return nil
}

// Get returns the environment value of key, or fallback when unset or empty.
func Get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

// getList splits a comma separated value, dropping empty entries.
func getList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
