package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Scheduler SchedulerConfig
	SyncTool  SyncToolConfig
	Notifier  NotifierConfig
}

type ServerConfig struct {
	Port string
	Host string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type SchedulerConfig struct {
	// Timezone is an IANA identifier; invalid names fall back to UTC.
	Timezone     string
	TickInterval time.Duration
	StartupDelay time.Duration
	// DebounceWindow is the minimum time between two trigger attempts
	// for the same job.
	DebounceWindow time.Duration
	// MaxConcurrent caps simultaneously running jobs; 0 means unlimited.
	MaxConcurrent int
}

type SyncToolConfig struct {
	// BinaryPath is the sync-tool executable invoked for every run.
	BinaryPath string
	// ConfigPath is passed to the tool via its config-file flag when set.
	ConfigPath string
	// BandwidthLimit is passed through verbatim when set, e.g. "4M".
	BandwidthLimit string
	// SnapshotInterval gates how often progress is persisted mid-run.
	SnapshotInterval time.Duration
	// StopGracePeriod is how long a stopped process gets before SIGKILL.
	StopGracePeriod time.Duration
}

type NotifierConfig struct {
	WebhookURL string
	Timeout    time.Duration
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Host: getEnv("HOST", "localhost"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "syncdeck"),
			Password: getEnv("DB_PASSWORD", "syncdeck"),
			DBName:   getEnv("DB_NAME", "syncdeck"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Scheduler: SchedulerConfig{
			Timezone:       getEnv("SCHEDULER_TIMEZONE", "UTC"),
			TickInterval:   getEnvAsDuration("SCHEDULER_TICK_INTERVAL", time.Minute),
			StartupDelay:   getEnvAsDuration("SCHEDULER_STARTUP_DELAY", 20*time.Second),
			DebounceWindow: getEnvAsDuration("SCHEDULER_DEBOUNCE_WINDOW", 7*time.Minute),
			MaxConcurrent:  getEnvAsInt("SCHEDULER_MAX_CONCURRENT", 0),
		},
		SyncTool: SyncToolConfig{
			BinaryPath:       getEnv("SYNC_TOOL_PATH", "rclone"),
			ConfigPath:       getEnv("SYNC_TOOL_CONFIG", ""),
			BandwidthLimit:   getEnv("SYNC_TOOL_BWLIMIT", ""),
			SnapshotInterval: getEnvAsDuration("SYNC_TOOL_SNAPSHOT_INTERVAL", 5*time.Second),
			StopGracePeriod:  getEnvAsDuration("SYNC_TOOL_STOP_GRACE", 5*time.Second),
		},
		Notifier: NotifierConfig{
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
			Timeout:    getEnvAsDuration("NOTIFY_TIMEOUT", 10*time.Second),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func (c *Config) DatabaseURL() string {
	// If DATABASE_URL is set, use it directly
	if databaseURL := os.Getenv("DATABASE_URL"); databaseURL != "" {
		return databaseURL
	}

	// Otherwise, construct from individual components
	return "postgres://" + c.Database.User + ":" + c.Database.Password +
		"@" + c.Database.Host + ":" + c.Database.Port +
		"/" + c.Database.DBName + "?sslmode=" + c.Database.SSLMode
}
