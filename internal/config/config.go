package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Env      string `env:"ENV" envDefault:"local"`
	HTTPAddr string `env:"HTTP_ADDR" envDefault:"0.0.0.0:8080"`

	Postgres PostgresConfig
	Auth     AuthConfig
	Telegram TelegramConfig
	Voting   VotingConfig

	RedisURL     string        `env:"REDIS_URL"`
	CORSOrigins  []string      `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`
	SweepTimeout time.Duration `env:"SWEEP_TIMEOUT" envDefault:"5m"`
}

type PostgresConfig struct {
	Host     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	Port     string `env:"POSTGRES_PORT" envDefault:"5432"`
	User     string `env:"POSTGRES_USER"`
	Password string `env:"POSTGRES_PASSWORD"`
	DB       string `env:"POSTGRES_DB"`
	SSLMode  string `env:"POSTGRES_SSLMODE" envDefault:"disable"`
}

// ConnString renders the lib/pq connection URL.
func (p PostgresConfig) ConnString() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(p.User, p.Password),
		Host:     p.Host + ":" + p.Port,
		Path:     "/" + p.DB,
		RawQuery: "sslmode=" + url.QueryEscape(p.SSLMode),
	}
	return u.String()
}

type AuthConfig struct {
	JWTSecret string `env:"JWT_SECRET"`
	// GuardGrace delays the loading indicator of a long-lived guard.Guard.
	// The HTTP middleware resolves each request synchronously with a fresh
	// guard, so it never reaches a loading state and this has no effect there.
	GuardGrace time.Duration `env:"GUARD_GRACE" envDefault:"300ms"`
}

// TelegramConfig holds the driver bot credentials. Both must be set for
// Telegram delivery to be enabled.
type TelegramConfig struct {
	BotToken string `env:"TELEGRAM_BOT_TOKEN"`
	ChatID   string `env:"TELEGRAM_CHAT_ID"`
	APIURL   string `env:"TELEGRAM_API_URL" envDefault:"https://api.telegram.org"`
}

func (t TelegramConfig) Enabled() bool {
	return t.BotToken != "" && t.ChatID != ""
}

type VotingConfig struct {
	Threshold         float64       `env:"VOTE_THRESHOLD" envDefault:"1"`
	SameRegionWeight  float64       `env:"SAME_REGION_WEIGHT" envDefault:"1"`
	OtherRegionWeight float64       `env:"OTHER_REGION_WEIGHT" envDefault:"0.5"`
	RefreshInterval   time.Duration `env:"REFRESH_INTERVAL" envDefault:"5m"`
	NotificationTTL   time.Duration `env:"NOTIFICATION_TTL" envDefault:"1h"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}
	return Parse()
}

// Parse reads configuration from the process environment only.
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Voting.Threshold <= 0 {
		return fmt.Errorf("VOTE_THRESHOLD must be positive, got %v", c.Voting.Threshold)
	}
	if c.Voting.SameRegionWeight < 0 || c.Voting.OtherRegionWeight < 0 {
		return errors.New("region weights must not be negative")
	}
	if c.Voting.RefreshInterval <= 0 {
		return fmt.Errorf("REFRESH_INTERVAL must be positive, got %s", c.Voting.RefreshInterval)
	}
	return nil
}

// ValidateServer checks the settings only the API server needs.
func (c *Config) ValidateServer() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	return nil
}
