package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
	School   SchoolConfig
	Realtime RealtimeConfig
	Exports  ExportsConfig
	Cache    CacheConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret            string
	Expiration        time.Duration
	RefreshExpiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// SchoolConfig carries institution-wide settings that gate domain behaviour.
type SchoolConfig struct {
	// Timezone is used for calendar-day boundaries (e.g. clinic visits today).
	Timezone string
	// ActiveSchoolYear is the default year tag applied to new records.
	ActiveSchoolYear string
}

// RealtimeConfig tunes the change-notification hub and its Redis bridge.
type RealtimeConfig struct {
	// BridgeEnabled republishes events over Redis Pub/Sub for multi-instance fan-out.
	BridgeEnabled bool
	// BridgeChannel is the Redis channel carrying cross-instance events.
	BridgeChannel string
	// SubscriberBuffer is the per-subscriber event buffer before drops occur.
	SubscriberBuffer int
	// Workers sizes the broadcast worker pool.
	Workers int
	// KeepAlive is the SSE ping interval.
	KeepAlive time.Duration
}

// ExportsConfig governs transcript export behaviour.
type ExportsConfig struct {
	Enabled    bool
	SchoolName string
	SchoolID   string
}

// CacheConfig tunes read caching for transcript payloads.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:            v.GetString("JWT_SECRET"),
		Expiration:        parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		RefreshExpiration: parseDuration(v.GetString("REFRESH_TOKEN_EXPIRATION"), 7*24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.School = SchoolConfig{
		Timezone:         v.GetString("SCHOOL_TIMEZONE"),
		ActiveSchoolYear: v.GetString("SCHOOL_ACTIVE_YEAR"),
	}

	cfg.Realtime = RealtimeConfig{
		BridgeEnabled:    v.GetBool("REALTIME_BRIDGE_ENABLED"),
		BridgeChannel:    v.GetString("REALTIME_BRIDGE_CHANNEL"),
		SubscriberBuffer: v.GetInt("REALTIME_SUBSCRIBER_BUFFER"),
		Workers:          v.GetInt("REALTIME_WORKERS"),
		KeepAlive:        parseDuration(v.GetString("REALTIME_KEEPALIVE"), 25*time.Second),
	}

	cfg.Exports = ExportsConfig{
		Enabled:    v.GetBool("ENABLE_EXPORTS"),
		SchoolName: v.GetString("EXPORT_SCHOOL_NAME"),
		SchoolID:   v.GetString("EXPORT_SCHOOL_ID"),
	}

	cfg.Cache = CacheConfig{
		Enabled: v.GetBool("ENABLE_CACHE"),
		TTL:     parseDuration(v.GetString("CACHE_TTL"), 10*time.Minute),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "jhs_sis")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("REFRESH_TOKEN_EXPIRATION", "168h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SCHOOL_TIMEZONE", "Asia/Manila")
	v.SetDefault("SCHOOL_ACTIVE_YEAR", "")

	v.SetDefault("REALTIME_BRIDGE_ENABLED", false)
	v.SetDefault("REALTIME_BRIDGE_CHANNEL", "jhs-sis:events")
	v.SetDefault("REALTIME_SUBSCRIBER_BUFFER", 16)
	v.SetDefault("REALTIME_WORKERS", 4)
	v.SetDefault("REALTIME_KEEPALIVE", "25s")

	v.SetDefault("ENABLE_EXPORTS", true)
	v.SetDefault("EXPORT_SCHOOL_NAME", "")
	v.SetDefault("EXPORT_SCHOOL_ID", "")

	v.SetDefault("ENABLE_CACHE", false)
	v.SetDefault("CACHE_TTL", "10m")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
