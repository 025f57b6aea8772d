package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the root configuration for the sync pipeline and API server.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	LocalDB LocalDBConfig `mapstructure:"local_db"`
	Source  SourceConfig  `mapstructure:"source"`
	Neon    NeonConfig    `mapstructure:"neon"`
	Sync    SyncConfig    `mapstructure:"sync"`
	Backup  BackupConfig  `mapstructure:"backup"`
}

type ServerConfig struct {
	Port int        `mapstructure:"port"`
	Mode string     `mapstructure:"mode"`
	CORS CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	AllowAllOrigins bool     `mapstructure:"allow_all_origins"`
}

// LocalDBConfig configures the embedded SQLite store that holds the current
// enriched snapshot and the analytics cache.
type LocalDBConfig struct {
	Path            string        `mapstructure:"path"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// SourceConfig configures extraction from the authoritative source store.
// When DSN is set the postgres adapter is used; otherwise, when APIBaseURL
// is set, the HTTP job-board adapter is used.
type SourceConfig struct {
	DSN          string        `mapstructure:"dsn"`
	APIBaseURL   string        `mapstructure:"api_base_url"`
	QueryTimeout time.Duration `mapstructure:"query_timeout"`
	MaxConns     int           `mapstructure:"max_conns"`
	RetryCount   int           `mapstructure:"retry_count"`
}

// NeonConfig configures the downstream production store. Leaving DSN empty
// disables the downstream leg: the publisher becomes a no-op that reports
// success with zero rows moved.
type NeonConfig struct {
	DSN          string        `mapstructure:"dsn"`
	QueryTimeout time.Duration `mapstructure:"query_timeout"`
	MaxConns     int           `mapstructure:"max_conns"`
}

// SyncConfig controls the orchestrator.
type SyncConfig struct {
	BatchSize int           `mapstructure:"batch_size"`
	CacheTTL  time.Duration `mapstructure:"cache_ttl"`
	// Schedule is an optional cron spec; empty disables the scheduler.
	Schedule string `mapstructure:"schedule"`
}

// BackupConfig configures the optional post-sync snapshot upload. Leaving
// Bucket empty disables backups.
type BackupConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Bucket    string `mapstructure:"bucket"`
}

// Load reads configuration from the given yaml file (or ./configs/config.yaml
// when empty) with environment variable overrides.
// Parameters:
//   - configPath: explicit config file path, may be empty.
// Returns:
//   - *Config: resolved configuration.
//   - error: non-nil if reading or unmarshaling fails.
func Load(configPath string) (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	v := viper.New()

	// Set config file path
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	// Enable environment variable override
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.cors.allow_all_origins", true)
	v.SetDefault("server.cors.allowed_origins", []string{})
	v.SetDefault("local_db.path", "./data/jobs.db")
	v.SetDefault("local_db.max_idle_conns", 2)
	v.SetDefault("local_db.max_open_conns", 1)
	v.SetDefault("local_db.conn_max_lifetime", time.Hour)
	v.SetDefault("local_db.auto_migrate", true)
	v.SetDefault("source.query_timeout", 30*time.Second)
	v.SetDefault("source.max_conns", 4)
	v.SetDefault("source.retry_count", 3)
	v.SetDefault("neon.query_timeout", 30*time.Second)
	v.SetDefault("neon.max_conns", 4)
	v.SetDefault("sync.batch_size", 500)
	v.SetDefault("sync.cache_ttl", 24*time.Hour)
	v.SetDefault("sync.schedule", "")
	v.SetDefault("backup.use_ssl", true)
	v.SetDefault("backup.region", "auto")

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Bind environment variables explicitly for sensitive data
	v.BindEnv("source.dsn", "SOURCE_DATABASE_URL")
	v.BindEnv("source.api_base_url", "SOURCE_API_BASE_URL")
	v.BindEnv("neon.dsn", "NEON_DATABASE_URL")
	v.BindEnv("local_db.path", "LOCAL_DB_PATH")
	v.BindEnv("backup.endpoint", "BACKUP_S3_ENDPOINT")
	v.BindEnv("backup.access_key", "BACKUP_S3_ACCESS_KEY")
	v.BindEnv("backup.secret_key", "BACKUP_S3_SECRET_KEY")
	v.BindEnv("backup.bucket", "BACKUP_S3_BUCKET")
	v.BindEnv("sync.schedule", "SYNC_SCHEDULE")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
