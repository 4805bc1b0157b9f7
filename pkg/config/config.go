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
	CORS     CORSConfig
	Log      LogConfig
	Auth     AuthConfig
	Scoring  ScoringConfig
	Ingest   IngestConfig
	Exports  ExportsConfig
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

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// AuthConfig holds the static API key required on ingestion endpoints.
type AuthConfig struct {
	APIKey string
}

// ScoringConfig tunes the reliability scoring engine.
type ScoringConfig struct {
	// HighRiskThreshold and MediumRiskThreshold are 30-day reschedule rate
	// percentages; a rate at or above the threshold takes the upper label.
	HighRiskThreshold   float64
	MediumRiskThreshold float64
	// CountNoShows controls whether no_show sessions count toward the
	// denominator of the reschedule rate.
	CountNoShows  bool
	CacheTTL      time.Duration
	RecalcTimeout time.Duration
}

// IngestConfig tunes the asynchronous session ingestion pipeline.
type IngestConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
}

// ExportsConfig gates the operator risk-roster export endpoints.
type ExportsConfig struct {
	Enabled bool
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

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Auth = AuthConfig{APIKey: v.GetString("API_KEY")}

	cfg.Scoring = ScoringConfig{
		HighRiskThreshold:   v.GetFloat64("SCORING_HIGH_RISK_THRESHOLD"),
		MediumRiskThreshold: v.GetFloat64("SCORING_MEDIUM_RISK_THRESHOLD"),
		CountNoShows:        v.GetBool("SCORING_COUNT_NO_SHOWS"),
		CacheTTL:            parseDuration(v.GetString("SCORING_CACHE_TTL"), 5*time.Minute),
		RecalcTimeout:       parseDuration(v.GetString("SCORING_RECALC_TIMEOUT"), 10*time.Second),
	}

	cfg.Ingest = IngestConfig{
		Workers:    v.GetInt("INGEST_WORKERS"),
		BufferSize: v.GetInt("INGEST_BUFFER_SIZE"),
		MaxRetries: v.GetInt("INGEST_MAX_RETRIES"),
		RetryDelay: parseDuration(v.GetString("INGEST_RETRY_DELAY"), time.Second),
	}

	cfg.Exports = ExportsConfig{
		Enabled: v.GetBool("ENABLE_EXPORTS"),
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
	v.SetDefault("DB_NAME", "tutor_reliability")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("API_KEY", "dev_api_key")

	v.SetDefault("SCORING_HIGH_RISK_THRESHOLD", 15.0)
	v.SetDefault("SCORING_MEDIUM_RISK_THRESHOLD", 10.0)
	v.SetDefault("SCORING_COUNT_NO_SHOWS", true)
	v.SetDefault("SCORING_CACHE_TTL", "5m")
	v.SetDefault("SCORING_RECALC_TIMEOUT", "10s")

	v.SetDefault("INGEST_WORKERS", 4)
	v.SetDefault("INGEST_BUFFER_SIZE", 64)
	v.SetDefault("INGEST_MAX_RETRIES", 3)
	v.SetDefault("INGEST_RETRY_DELAY", "1s")

	v.SetDefault("ENABLE_EXPORTS", true)
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
