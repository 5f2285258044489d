package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Log       LogConfig
	Auth      AuthConfig
	Hub       HubConfig
	RateLimit RateLimitConfig
	Order     OrderConfig
	App       AppConfig
}

type ServerConfig struct {
	Port int
	// TrustProxy takes the client address from X-Forwarded-For and X-Real-IP.
	// Enable only behind a proxy that overwrites those headers.
	TrustProxy bool
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	QueryTimeout    time.Duration
}

type LogConfig struct {
	Level string
}

type AuthConfig struct {
	CredentialsFile string
	SessionTTL      time.Duration
	CookieName      string
	CookieSecure    bool
	ReapSchedule    string
}

type HubConfig struct {
	SendBuffer   int
	WriteTimeout time.Duration
	PingInterval time.Duration
}

type RateLimitConfig struct {
	LoginPerSecond float64
	LoginBurst     int
}

type OrderConfig struct {
	MaxRetryAttempts int
}

type AppConfig struct {
	Timezone *time.Location
}

func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", 8080)
	viper.SetDefault("SERVER_TRUST_PROXY", false)
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", 3306)
	viper.SetDefault("DB_USER", "courier")
	viper.SetDefault("DB_PASSWORD", "secret")
	viper.SetDefault("DB_NAME", "courierhub")
	viper.SetDefault("DB_MAX_OPEN_CONNS", 25)
	viper.SetDefault("DB_MAX_IDLE_CONNS", 5)
	viper.SetDefault("DB_CONN_MAX_LIFETIME", "5m")
	viper.SetDefault("DB_QUERY_TIMEOUT", "5s")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("AUTH_CREDENTIALS_FILE", "config/credentials.yaml")
	viper.SetDefault("AUTH_SESSION_TTL", "168h")
	viper.SetDefault("AUTH_COOKIE_NAME", "courier.sid")
	viper.SetDefault("AUTH_COOKIE_SECURE", false)
	viper.SetDefault("AUTH_REAP_SCHEDULE", "@every 1h")
	viper.SetDefault("HUB_SEND_BUFFER", 32)
	viper.SetDefault("HUB_WRITE_TIMEOUT", "10s")
	viper.SetDefault("HUB_PING_INTERVAL", "30s")
	viper.SetDefault("RATE_LIMIT_LOGIN_PER_SECOND", 1.0)
	viper.SetDefault("RATE_LIMIT_LOGIN_BURST", 5)
	viper.SetDefault("ORDER_MAX_RETRY_ATTEMPTS", 3)
	viper.SetDefault("APP_TIMEZONE", "Local")

	durations := map[string]*time.Duration{}
	cfg := &Config{
		Server: ServerConfig{
			Port:       viper.GetInt("SERVER_PORT"),
			TrustProxy: viper.GetBool("SERVER_TRUST_PROXY"),
		},
		Database: DatabaseConfig{
			Host:         viper.GetString("DB_HOST"),
			Port:         viper.GetInt("DB_PORT"),
			User:         viper.GetString("DB_USER"),
			Password:     viper.GetString("DB_PASSWORD"),
			Name:         viper.GetString("DB_NAME"),
			MaxOpenConns: viper.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns: viper.GetInt("DB_MAX_IDLE_CONNS"),
		},
		Log: LogConfig{
			Level: viper.GetString("LOG_LEVEL"),
		},
		Auth: AuthConfig{
			CredentialsFile: viper.GetString("AUTH_CREDENTIALS_FILE"),
			CookieName:      viper.GetString("AUTH_COOKIE_NAME"),
			CookieSecure:    viper.GetBool("AUTH_COOKIE_SECURE"),
			ReapSchedule:    viper.GetString("AUTH_REAP_SCHEDULE"),
		},
		Hub: HubConfig{
			SendBuffer: viper.GetInt("HUB_SEND_BUFFER"),
		},
		RateLimit: RateLimitConfig{
			LoginPerSecond: viper.GetFloat64("RATE_LIMIT_LOGIN_PER_SECOND"),
			LoginBurst:     viper.GetInt("RATE_LIMIT_LOGIN_BURST"),
		},
		Order: OrderConfig{
			MaxRetryAttempts: viper.GetInt("ORDER_MAX_RETRY_ATTEMPTS"),
		},
	}

	durations["DB_CONN_MAX_LIFETIME"] = &cfg.Database.ConnMaxLifetime
	durations["DB_QUERY_TIMEOUT"] = &cfg.Database.QueryTimeout
	durations["AUTH_SESSION_TTL"] = &cfg.Auth.SessionTTL
	durations["HUB_WRITE_TIMEOUT"] = &cfg.Hub.WriteTimeout
	durations["HUB_PING_INTERVAL"] = &cfg.Hub.PingInterval

	for key, target := range durations {
		d, err := time.ParseDuration(viper.GetString(key))
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", key, err)
		}
		*target = d
	}

	loc, err := time.LoadLocation(viper.GetString("APP_TIMEZONE"))
	if err != nil {
		return nil, fmt.Errorf("parsing APP_TIMEZONE: %w", err)
	}
	cfg.App.Timezone = loc

	if cfg.Order.MaxRetryAttempts < 1 {
		return nil, fmt.Errorf("ORDER_MAX_RETRY_ATTEMPTS must be positive, got %d", cfg.Order.MaxRetryAttempts)
	}

	if cfg.Hub.SendBuffer < 1 {
		return nil, fmt.Errorf("HUB_SEND_BUFFER must be positive, got %d", cfg.Hub.SendBuffer)
	}

	return cfg, nil
}
