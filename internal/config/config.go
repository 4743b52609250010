// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const defaultJWTSecret = "your-secret-key-change-in-production"

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	Env            string `mapstructure:"APP_ENV"`
	Port           string `mapstructure:"PORT"`
	JWTSecret      string `mapstructure:"JWT_SECRET"`
	JWTTTLHours    int    `mapstructure:"JWT_TTL_HOURS"`
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`

	DBDriver                      string `mapstructure:"DB_DRIVER"`
	DBHost                        string `mapstructure:"DB_HOST"`
	DBPort                        string `mapstructure:"DB_PORT"`
	DBUser                        string `mapstructure:"DB_USER"`
	DBPassword                    string `mapstructure:"DB_PASSWORD"`
	DBName                        string `mapstructure:"DB_NAME"`
	DBSSLMode                     string `mapstructure:"DB_SSLMODE"`
	DBReadHost                    string `mapstructure:"DB_READ_HOST"`
	DBReadPort                    string `mapstructure:"DB_READ_PORT"`
	DBReadUser                    string `mapstructure:"DB_READ_USER"`
	DBReadPassword                string `mapstructure:"DB_READ_PASSWORD"`
	DBSQLitePath                  string `mapstructure:"DB_SQLITE_PATH"`
	DBSchemaMode                  string `mapstructure:"DB_SCHEMA_MODE"`
	DBAutoMigrateAllowDestructive bool   `mapstructure:"DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE"`
	DBMaxOpenConns                int    `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBMaxIdleConns                int    `mapstructure:"DB_MAX_IDLE_CONNS"`
	DBSlowQueryMS                 int    `mapstructure:"DB_SLOW_QUERY_MS"`

	RedisURL    string `mapstructure:"REDIS_URL"`
	TrendingTTL int    `mapstructure:"TRENDING_TTL_SECONDS"`
	PostTTL     int    `mapstructure:"POST_TTL_SECONDS"`

	FeedPageSize     int  `mapstructure:"FEED_PAGE_SIZE"`
	RateLimitEnabled bool `mapstructure:"RATE_LIMIT_ENABLED"`

	SpotifyClientID       string  `mapstructure:"SPOTIFY_CLIENT_ID"`
	SpotifyClientSecret   string  `mapstructure:"SPOTIFY_CLIENT_SECRET"`
	SpotifyAPIURL         string  `mapstructure:"SPOTIFY_API_URL"`
	SpotifyTokenURL       string  `mapstructure:"SPOTIFY_TOKEN_URL"`
	CatalogTimeoutSeconds int     `mapstructure:"CATALOG_TIMEOUT_SECONDS"`
	CatalogRatePerSecond  float64 `mapstructure:"CATALOG_RATE_PER_SECOND"`
	CatalogBurst          int     `mapstructure:"CATALOG_BURST"`
	CatalogBreakerFails   int     `mapstructure:"CATALOG_BREAKER_FAILURES"`

	TracingEnabled  bool    `mapstructure:"TRACING_ENABLED"`
	TracingExporter string  `mapstructure:"TRACING_EXPORTER"`
	OTLPEndpoint    string  `mapstructure:"OTLP_ENDPOINT"`
	TracingSampler  float64 `mapstructure:"TRACING_SAMPLER_RATIO"`
}

// LoadConfig loads application configuration from .env, config files and environment variables.
func LoadConfig() (*Config, error) {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	// The base config file is optional.
	_ = viper.ReadInConfig()

	env := viper.GetString("APP_ENV")
	if env != "" && env != "development" && env != "test" {
		viper.SetConfigName("config." + env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("required profile-specific config 'config.%s.yml' not found: %w", env, err)
		}
		log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
	}

	SetDefaults(viper.GetViper())

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// SetDefaults registers development defaults on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("PORT", "8375")
	v.SetDefault("JWT_SECRET", defaultJWTSecret)
	v.SetDefault("JWT_TTL_HOURS", 24*7)
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173")

	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "user")
	v.SetDefault("DB_PASSWORD", "password")
	v.SetDefault("DB_NAME", "resonate")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_READ_HOST", "")
	v.SetDefault("DB_READ_PORT", "5432")
	v.SetDefault("DB_READ_USER", "user")
	v.SetDefault("DB_READ_PASSWORD", "password")
	v.SetDefault("DB_SQLITE_PATH", "resonate.db")
	v.SetDefault("DB_SCHEMA_MODE", "hybrid")
	v.SetDefault("DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE", false)
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_SLOW_QUERY_MS", 200)

	v.SetDefault("REDIS_URL", "localhost:6379")
	v.SetDefault("TRENDING_TTL_SECONDS", 60)
	v.SetDefault("POST_TTL_SECONDS", 30)

	v.SetDefault("FEED_PAGE_SIZE", 10)
	v.SetDefault("RATE_LIMIT_ENABLED", true)

	v.SetDefault("SPOTIFY_CLIENT_ID", "")
	v.SetDefault("SPOTIFY_CLIENT_SECRET", "")
	v.SetDefault("SPOTIFY_API_URL", "https://api.spotify.com/v1")
	v.SetDefault("SPOTIFY_TOKEN_URL", "https://accounts.spotify.com/api/token")
	v.SetDefault("CATALOG_TIMEOUT_SECONDS", 5)
	v.SetDefault("CATALOG_RATE_PER_SECOND", 5.0)
	v.SetDefault("CATALOG_BURST", 10)
	v.SetDefault("CATALOG_BREAKER_FAILURES", 5)

	v.SetDefault("TRACING_ENABLED", false)
	v.SetDefault("TRACING_EXPORTER", "stdout")
	v.SetDefault("OTLP_ENDPOINT", "localhost:4318")
	v.SetDefault("TRACING_SAMPLER_RATIO", 1.0)
}

// IsProduction reports whether the config targets a production-like environment.
func (c *Config) IsProduction() bool {
	e := strings.ToLower(strings.TrimSpace(c.Env))
	return e == "production" || e == "prod"
}

// JWTTTL returns the session token lifetime.
func (c *Config) JWTTTL() time.Duration {
	if c.JWTTTLHours <= 0 {
		return 7 * 24 * time.Hour
	}
	return time.Duration(c.JWTTTLHours) * time.Hour
}

// CatalogTimeout returns the per-request timeout for catalog lookups.
func (c *Config) CatalogTimeout() time.Duration {
	if c.CatalogTimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.CatalogTimeoutSeconds) * time.Second
}

// TrendingCacheTTL returns how long trending rankings are cached.
func (c *Config) TrendingCacheTTL() time.Duration {
	return time.Duration(c.TrendingTTL) * time.Second
}

// PostCacheTTL returns how long anonymous single-post reads are cached.
func (c *Config) PostCacheTTL() time.Duration {
	return time.Duration(c.PostTTL) * time.Second
}

// Validate ensures that required configuration values are present and meet security standards.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}

	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}

	if c.IsProduction() {
		if c.JWTSecret == defaultJWTSecret {
			return errors.New("JWT_SECRET must be changed from the default value in production")
		}
		if len(c.JWTSecret) < 32 {
			return errors.New("JWT_SECRET must be at least 32 characters in production")
		}
		if c.DBDriver == "sqlite" {
			return errors.New("DB_DRIVER=sqlite is not supported in production")
		}
		if c.DBPassword == "password" || c.DBPassword == "" {
			return errors.New("a strong DB_PASSWORD is required in production")
		}
		if c.DBSSLMode == "disable" || c.DBSSLMode == "" {
			log.Println("WARNING: DB_SSLMODE is 'disable' in production. It is highly recommended to use SSL for database connections.")
		}
		if c.AllowedOrigins == "*" {
			log.Println("WARNING: ALLOWED_ORIGINS is set to '*' in production. This is insecure.")
		}
	} else if len(c.JWTSecret) < 32 {
		log.Println("WARNING: JWT_SECRET is shorter than 32 characters. Consider using a stronger secret for production.")
	}

	if c.SpotifyClientID == "" || c.SpotifyClientSecret == "" {
		log.Println("WARNING: Spotify credentials are not set; catalog lookups will return no result.")
	}

	return nil
}
