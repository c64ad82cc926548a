package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/liyxianren/mmyq/core/constants"
	"github.com/liyxianren/mmyq/core/logger"
)

type ServerConfig struct {
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
	BaseURL string `mapstructure:"base_url"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type JWTConfig struct {
	Secret   string `mapstructure:"secret"`
	TTLHours int    `mapstructure:"ttl_hours"`
}

type UploadConfig struct {
	// Driver is "s3" or "local".
	Driver            string   `mapstructure:"driver"`
	LocalDir          string   `mapstructure:"local_dir"`
	Bucket            string   `mapstructure:"bucket"`
	Region            string   `mapstructure:"region"`
	AccessKeyID       string   `mapstructure:"access_key_id"`
	SecretAccessKey   string   `mapstructure:"secret_access_key"`
	Endpoint          string   `mapstructure:"endpoint"`
	MaxBytes          int64    `mapstructure:"max_bytes"`
	AllowedExtensions []string `mapstructure:"allowed_extensions"`
}

// TimeSlot pairs a stable slot key with its display label.
type TimeSlot struct {
	Key   string `mapstructure:"key" json:"key"`
	Label string `mapstructure:"label" json:"label"`
}

type VenueConfig struct {
	MaxNumber        int        `mapstructure:"max_number"`
	FreeVenueCount   int        `mapstructure:"free_venue_count"`
	ApprovalCutoffHr int        `mapstructure:"approval_cutoff_hour"`
	RetentionDays    int        `mapstructure:"retention_days"`
	Groups           []string   `mapstructure:"groups"`
	TimeSlots        []TimeSlot `mapstructure:"time_slots"`
}

type AdminSeed struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type CleanupConfig struct {
	WorkerEnabled bool   `mapstructure:"worker_enabled"`
	Schedule      string `mapstructure:"schedule"`
}

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Upload   UploadConfig   `mapstructure:"upload"`
	Venue    VenueConfig    `mapstructure:"venue"`
	Admins   []AdminSeed    `mapstructure:"admins"`
	Cleanup  CleanupConfig  `mapstructure:"cleanup"`
	LogLevel string         `mapstructure:"log_level"`
}

var (
	instance *Config
	mu       sync.RWMutex
)

// Load reads config.yaml (optional), .env (optional) and environment
// variables, in increasing order of precedence, and caches the result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug("Config:Load:NoDotEnv")
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.SetEnvPrefix("MMYQ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	mu.Lock()
	instance = cfg
	mu.Unlock()

	logger.Info("Config:Load:Done",
		"server_port", cfg.Server.Port,
		"database", cfg.Database.DBName,
		"upload_driver", cfg.Upload.Driver,
		"max_venue_number", cfg.Venue.MaxNumber,
	)
	return cfg, nil
}

// Get returns the loaded configuration. It panics when Load was never called.
func Get() *Config {
	mu.RLock()
	defer mu.RUnlock()
	if instance == nil {
		panic("config not initialized, call config.Load first")
	}
	return instance
}

// GetSafe returns the loaded configuration and whether it is available.
func GetSafe() (*Config, bool) {
	mu.RLock()
	defer mu.RUnlock()
	return instance, instance != nil
}

// Set replaces the cached configuration. Intended for tests.
func Set(cfg *Config) {
	mu.Lock()
	instance = cfg
	mu.Unlock()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 7070)
	v.SetDefault("server.base_url", "")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "mmyq")
	v.SetDefault("database.sslmode", constants.DatabaseSSLMode)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("jwt.secret", "mmyq-venue-booking-system-2024")
	v.SetDefault("jwt.ttl_hours", constants.DefaultTokenTTLHours)

	v.SetDefault("upload.driver", "local")
	v.SetDefault("upload.local_dir", "uploads")
	v.SetDefault("upload.max_bytes", int64(constants.DefaultMaxUploadBytes))
	v.SetDefault("upload.allowed_extensions", []string{"png", "jpg", "jpeg", "gif"})

	v.SetDefault("venue.max_number", constants.DefaultMaxVenueNumber)
	v.SetDefault("venue.free_venue_count", constants.DefaultFreeVenueCount)
	v.SetDefault("venue.approval_cutoff_hour", constants.DefaultApprovalCutoffHr)
	v.SetDefault("venue.retention_days", constants.DefaultRetentionDays)
	v.SetDefault("venue.groups", []string{"Group One", "Group Two"})
	v.SetDefault("venue.time_slots", []map[string]string{
		{"key": "12:00-13:00", "label": "12:00 - 13:00"},
		{"key": "13:00-14:00", "label": "13:00 - 14:00"},
		{"key": "14:00-15:00", "label": "14:00 - 15:00"},
	})

	v.SetDefault("cleanup.worker_enabled", false)
	v.SetDefault("cleanup.schedule", "0 4 * * *")

	v.SetDefault("log_level", "info")
}

// SlotLabel resolves a slot key to its display label, falling back to the key.
func (vc VenueConfig) SlotLabel(key string) string {
	for _, s := range vc.TimeSlots {
		if s.Key == key {
			return s.Label
		}
	}
	return key
}

// ValidSlot reports whether key is one of the configured time slots.
func (vc VenueConfig) ValidSlot(key string) bool {
	for _, s := range vc.TimeSlots {
		if s.Key == key {
			return true
		}
	}
	return false
}

// ValidGroup reports whether name is one of the configured groups.
func (vc VenueConfig) ValidGroup(name string) bool {
	for _, g := range vc.Groups {
		if g == name {
			return true
		}
	}
	return false
}
