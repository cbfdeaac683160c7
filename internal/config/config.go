package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server  ServerConfig
	Monitor MonitorConfig
	Worker  WorkerConfig
	Janitor JanitorConfig
	API     APIConfig
	DB      DatabaseConfig
	Logging LoggingConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type MonitorConfig struct {
	Enabled          bool
	SweepInterval    time.Duration
	DedupWindow      time.Duration
	ActiveAlertLimit int
}

type WorkerConfig struct {
	Count      int
	BufferSize int
}

type JanitorConfig struct {
	Enabled   bool
	Schedule  string // cron expression
	Retention time.Duration
}

type APIConfig struct {
	RateLimitRPS int
}

type DatabaseConfig struct {
	Path string
}

type LoggingConfig struct {
	Level string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "localhost"),
			Port: getEnvInt("SERVER_PORT", 8080),
		},
		Monitor: MonitorConfig{
			Enabled:          getEnvBool("MONITOR_ENABLED", true),
			SweepInterval:    getEnvDuration("MONITOR_SWEEP_INTERVAL", 30*time.Second),
			DedupWindow:      getEnvDuration("MONITOR_DEDUP_WINDOW", time.Hour),
			ActiveAlertLimit: getEnvInt("MONITOR_ACTIVE_ALERT_LIMIT", 50),
		},
		Worker: WorkerConfig{
			Count:      getEnvInt("WORKER_COUNT", 2),
			BufferSize: getEnvInt("WORKER_BUFFER_SIZE", 50),
		},
		Janitor: JanitorConfig{
			Enabled:   getEnvBool("JANITOR_ENABLED", true),
			Schedule:  getEnv("JANITOR_SCHEDULE", "@hourly"),
			Retention: getEnvDuration("JANITOR_RETENTION", 72*time.Hour),
		},
		API: APIConfig{
			RateLimitRPS: getEnvInt("API_RATE_LIMIT_RPS", 10),
		},
		DB: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/geofence.db"),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	if c.Monitor.SweepInterval < time.Second {
		return fmt.Errorf("sweep interval must be at least 1 second")
	}
	if c.Monitor.DedupWindow < time.Minute {
		return fmt.Errorf("dedup window must be at least 1 minute")
	}
	if c.Monitor.ActiveAlertLimit < 1 {
		return fmt.Errorf("active alert limit must be positive")
	}
	if c.Janitor.Retention < c.Monitor.DedupWindow {
		return fmt.Errorf("janitor retention must not be shorter than the dedup window")
	}

	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}
