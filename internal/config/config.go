package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig
	Server   ServerConfig
	JWT      JWTConfig
	Auth     AuthConfig
	Logging  LoggingConfig
	Scoping  ScopingConfig
	CORS     CORSConfig
}

type CORSConfig struct {
	AllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	AllowedMethods   []string `env:"CORS_ALLOWED_METHODS" envSeparator:"," envDefault:"GET,POST,PUT,PATCH,DELETE,OPTIONS"`
	AllowedHeaders   []string `env:"CORS_ALLOWED_HEADERS" envSeparator:"," envDefault:"Accept,Authorization,Content-Type"`
	ExposedHeaders   []string `env:"CORS_EXPOSED_HEADERS" envSeparator:","`
	AllowCredentials bool     `env:"CORS_ALLOW_CREDENTIALS" envDefault:"false"`
	MaxAge           int      `env:"CORS_MAX_AGE" envDefault:"300"`
}

type DatabaseConfig struct {
	Host     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	Port     string `env:"POSTGRES_PORT" envDefault:"5432"`
	User     string `env:"POSTGRES_USER" envDefault:"postgres"`
	Password string `env:"POSTGRES_PASSWORD"`
	DBName   string `env:"POSTGRES_DB" envDefault:"evwheels"`
	SSLMode  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

type ServerConfig struct {
	Port string `env:"SERVER_PORT" envDefault:"8080"`
}

type JWTConfig struct {
	SigningKey string        `env:"JWT_SIGNING_KEY" envDefault:"default-signing-key-change-in-production"`
	Issuer     string        `env:"JWT_ISSUER" envDefault:"ev-wheels"`
	Expiry     time.Duration `env:"JWT_EXPIRY" envDefault:"15m"`
}

type AuthConfig struct {
	RefreshExpiry time.Duration `env:"AUTH_REFRESH_EXPIRY" envDefault:"168h"`
}

type LoggingConfig struct {
	Filename   string `env:"LOG_FILENAME" envDefault:"logs/evwheels.log"`
	Level      string `env:"LOG_LEVEL" envDefault:"info"`
	Format     string `env:"LOG_FORMAT" envDefault:"text"`
	MaxSize    int    `env:"LOG_MAX_SIZE_MB" envDefault:"100"`
	MaxBackups int    `env:"LOG_MAX_BACKUPS" envDefault:"3"`
	MaxAge     int    `env:"LOG_MAX_AGE_DAYS" envDefault:"28"`
	Compress   bool   `env:"LOG_COMPRESS" envDefault:"true"`
}

// ScopingConfig carries the single feature flag for location scoping.
// The raw value is kept so Enabled can fail closed on anything malformed.
type ScopingConfig struct {
	LocationScoping string `env:"LOCATION_SCOPING_ENABLED"`
}

// Enabled reports whether location scoping is enforced. Only an explicit,
// recognized "off" value disables it; unset or malformed means enabled.
func (s ScopingConfig) Enabled() bool {
	switch strings.ToLower(strings.TrimSpace(s.LocationScoping)) {
	case "false", "0", "no", "off":
		return false
	default:
		return true
	}
}

// Load reads configuration from the environment. A .env file is optional
// and only used for local development.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return cfg, nil
}

func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}
