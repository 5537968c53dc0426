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

	Database  DatabaseConfig
	Redis     RedisConfig
	Principal PrincipalConfig
	CORS      CORSConfig
	Log       LogConfig
	Portal    PortalConfig
	Audit     AuditConfig
	Mail      MailConfig
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

// PrincipalConfig holds settings for verifying upstream-issued identity tokens.
type PrincipalConfig struct {
	JWTSecret string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// PortalConfig governs resident portal token issuance and throttling.
type PortalConfig struct {
	TokenTTL      time.Duration
	RateLimit     int
	RateWindow    time.Duration
	RateLimitedOn bool
}

// AuditConfig tunes the audit query and export endpoints.
type AuditConfig struct {
	QueryMaxLimit     int
	QueryDefaultLimit int
	ExportMaxRows     int
}

// MailConfig allows per-type response due-day overrides.
type MailConfig struct {
	DueDaysRFI     int
	DueDaysSI      int
	DueDaysQRY     int
	DueDaysDefault int
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

	cfg.Principal = PrincipalConfig{
		JWTSecret: v.GetString("PRINCIPAL_JWT_SECRET"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Portal = PortalConfig{
		TokenTTL:      parseDuration(v.GetString("PORTAL_TOKEN_TTL"), 90*24*time.Hour),
		RateLimit:     v.GetInt("PORTAL_RATE_LIMIT"),
		RateWindow:    parseDuration(v.GetString("PORTAL_RATE_WINDOW"), time.Minute),
		RateLimitedOn: v.GetBool("PORTAL_RATE_LIMIT_ENABLED"),
	}

	cfg.Audit = AuditConfig{
		QueryMaxLimit:     v.GetInt("AUDIT_QUERY_MAX_LIMIT"),
		QueryDefaultLimit: v.GetInt("AUDIT_QUERY_DEFAULT_LIMIT"),
		ExportMaxRows:     v.GetInt("AUDIT_EXPORT_MAX_ROWS"),
	}

	cfg.Mail = MailConfig{
		DueDaysRFI:     v.GetInt("MAIL_DUE_DAYS_RFI"),
		DueDaysSI:      v.GetInt("MAIL_DUE_DAYS_SI"),
		DueDaysQRY:     v.GetInt("MAIL_DUE_DAYS_QRY"),
		DueDaysDefault: v.GetInt("MAIL_DUE_DAYS_DEFAULT"),
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
	v.SetDefault("DB_NAME", "cde")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("PRINCIPAL_JWT_SECRET", "dev_secret")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("PORTAL_TOKEN_TTL", "2160h")
	v.SetDefault("PORTAL_RATE_LIMIT", 30)
	v.SetDefault("PORTAL_RATE_WINDOW", "1m")
	v.SetDefault("PORTAL_RATE_LIMIT_ENABLED", false)

	v.SetDefault("AUDIT_QUERY_MAX_LIMIT", 500)
	v.SetDefault("AUDIT_QUERY_DEFAULT_LIMIT", 100)
	v.SetDefault("AUDIT_EXPORT_MAX_ROWS", 5000)

	v.SetDefault("MAIL_DUE_DAYS_RFI", 10)
	v.SetDefault("MAIL_DUE_DAYS_SI", 5)
	v.SetDefault("MAIL_DUE_DAYS_QRY", 7)
	v.SetDefault("MAIL_DUE_DAYS_DEFAULT", 7)
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
