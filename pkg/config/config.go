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

	Database      DatabaseConfig
	Redis         RedisConfig
	JWT           JWTConfig
	CORS          CORSConfig
	Log           LogConfig
	Scheduler     SchedulerConfig
	Notifications NotificationsConfig
	Earnings      EarningsConfig
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

// SchedulerConfig controls the lesson-status and earnings ticker.
type SchedulerConfig struct {
	Enabled  bool
	Interval time.Duration
}

// NotificationsConfig configures outbound email delivery.
type NotificationsConfig struct {
	Provider     string // "sendgrid" or "console"
	AppName      string
	FromEmail    string
	SendgridKey  string
	DashboardURL string
	Workers      int
	MaxRetries   int
	RetryDelay   time.Duration
}

// EarningsConfig holds bi-weekly period and reporting parameters.
type EarningsConfig struct {
	PeriodEpoch    string // anchor Monday for bi-weekly periods, YYYY-MM-DD
	ReportCacheTTL time.Duration
	ReportPeriods  int
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

	cfg.Scheduler = SchedulerConfig{
		Enabled:  v.GetBool("ENABLE_SCHEDULER"),
		Interval: parseDuration(v.GetString("SCHEDULER_INTERVAL"), 5*time.Minute),
	}

	cfg.Notifications = NotificationsConfig{
		Provider:     v.GetString("NOTIFICATIONS_PROVIDER"),
		AppName:      v.GetString("APP_NAME"),
		FromEmail:    v.GetString("FROM_EMAIL"),
		SendgridKey:  v.GetString("SENDGRID_API_KEY"),
		DashboardURL: v.GetString("DASHBOARD_URL"),
		Workers:      v.GetInt("NOTIFICATIONS_WORKERS"),
		MaxRetries:   v.GetInt("NOTIFICATIONS_MAX_RETRIES"),
		RetryDelay:   parseDuration(v.GetString("NOTIFICATIONS_RETRY_DELAY"), 30*time.Second),
	}

	cfg.Earnings = EarningsConfig{
		PeriodEpoch:    v.GetString("EARNINGS_PERIOD_EPOCH"),
		ReportCacheTTL: parseDuration(v.GetString("EARNINGS_REPORT_CACHE_TTL"), 10*time.Minute),
		ReportPeriods:  v.GetInt("EARNINGS_REPORT_PERIODS"),
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
	v.SetDefault("DB_NAME", "tutorapp")
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

	v.SetDefault("ENABLE_SCHEDULER", true)
	v.SetDefault("SCHEDULER_INTERVAL", "5m")

	v.SetDefault("NOTIFICATIONS_PROVIDER", "console")
	v.SetDefault("APP_NAME", "Ebbas Mattehjelp")
	v.SetDefault("FROM_EMAIL", "noreply@ebbasmattehjelp.com")
	v.SetDefault("SENDGRID_API_KEY", "")
	v.SetDefault("DASHBOARD_URL", "http://localhost:5173")
	v.SetDefault("NOTIFICATIONS_WORKERS", 2)
	v.SetDefault("NOTIFICATIONS_MAX_RETRIES", 3)
	v.SetDefault("NOTIFICATIONS_RETRY_DELAY", "30s")

	v.SetDefault("EARNINGS_PERIOD_EPOCH", "2024-01-01")
	v.SetDefault("EARNINGS_REPORT_CACHE_TTL", "10m")
	v.SetDefault("EARNINGS_REPORT_PERIODS", 6)
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
