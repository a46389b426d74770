// Package config reads service and CLI settings from the environment,
// after loading an optional .env file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// DefaultStatsHost is the stats service queried by default.
const DefaultStatsHost = "stella.prod.gamespy.com"

type Config struct {
	HTTPPort    string
	LogLevel    string
	DatabaseURL string

	JWTSecret    string
	JWTExpiresIn time.Duration

	// AdminEmail is seeded as an administrator on start. An empty
	// AdminPassword gets a random one, logged once.
	AdminEmail    string
	AdminPassword string

	StatsHost      string
	StatsTimeout   time.Duration
	StatsCacheSize int
	StatsAuthPID   uint32
}

// Load reads the configuration. A missing .env file is not an error.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from an environment lookup function.
func FromLookup(lookup func(string) (string, bool)) (Config, error) {
	get := func(key, def string) string {
		if v, ok := lookup(key); ok && v != "" {
			return v
		}
		return def
	}

	cfg := Config{
		HTTPPort:      get("HTTP_PORT", "8080"),
		LogLevel:      get("LOG_LEVEL", "info"),
		DatabaseURL:   get("DATABASE_URL", ""),
		JWTSecret:     get("JWT_SECRET", ""),
		AdminEmail:    get("ADMIN_EMAIL", "admin@bfstats.local"),
		AdminPassword: get("ADMIN_PASSWORD", ""),
		StatsHost:     get("STATS_HOST", DefaultStatsHost),
	}

	var err error
	if cfg.JWTExpiresIn, err = time.ParseDuration(get("JWT_EXPIRES_IN", "24h")); err != nil {
		return Config{}, fmt.Errorf("config: JWT_EXPIRES_IN: %w", err)
	}
	if cfg.StatsTimeout, err = time.ParseDuration(get("STATS_TIMEOUT", "10s")); err != nil {
		return Config{}, fmt.Errorf("config: STATS_TIMEOUT: %w", err)
	}
	if cfg.StatsCacheSize, err = strconv.Atoi(get("STATS_CACHE_SIZE", "256")); err != nil {
		return Config{}, fmt.Errorf("config: STATS_CACHE_SIZE: %w", err)
	}
	if cfg.StatsCacheSize < 0 {
		return Config{}, fmt.Errorf("config: STATS_CACHE_SIZE must not be negative")
	}
	pid, err := strconv.ParseUint(get("STATS_AUTH_PID", "0"), 10, 32)
	if err != nil {
		return Config{}, fmt.Errorf("config: STATS_AUTH_PID: %w", err)
	}
	cfg.StatsAuthPID = uint32(pid)
	return cfg, nil
}
