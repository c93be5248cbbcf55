package config

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

// Config holds all application configuration
type Config struct {
	// Server configuration (health/metrics endpoints)
	Server ServerConfig `env:",prefix=SERVER_"`

	// Database configuration
	Database DatabaseConfig `env:",prefix=DB_"`

	// Telegram bot configuration
	Telegram TelegramConfig `env:",prefix=TELEGRAM_"`

	// Instagram Graph API configuration
	Instagram InstagramConfig `env:",prefix=INSTAGRAM_"`

	// Application configuration
	App AppConfig `env:",prefix=APP_"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port         string `env:"PORT,default=8080"`
	Host         string `env:"HOST,default=0.0.0.0"`
	ReadTimeout  int    `env:"READ_TIMEOUT,default=30"`  // seconds
	WriteTimeout int    `env:"WRITE_TIMEOUT,default=30"` // seconds
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string `env:"HOST,default=localhost"`
	Port     string `env:"PORT,default=5432"`
	User     string `env:"USER,default=postgres"`
	Password string `env:"PASSWORD,default=postgres"`
	Name     string `env:"NAME,default=promo_bot"`
	SSLMode  string `env:"SSL_MODE,default=disable"`
	MaxConns int    `env:"MAX_CONNS,default=25"`
	MinConns int    `env:"MIN_CONNS,default=5"`
}

// TelegramConfig holds bot token and chat-facing settings
type TelegramConfig struct {
	Token          string `env:"TOKEN,required"`
	ExportPassword string `env:"EXPORT_PASSWORD,required"`
	PollTimeout    int    `env:"POLL_TIMEOUT,default=30"` // seconds
	Debug          bool   `env:"DEBUG,default=false"`
}

// InstagramConfig holds Graph API access settings for the comment check
type InstagramConfig struct {
	AccessToken       string  `env:"ACCESS_TOKEN,required"`
	MediaID           string  `env:"MEDIA_ID,required"`
	BaseURL           string  `env:"BASE_URL,default=https://graph.facebook.com/v22.0"`
	PageSize          int     `env:"PAGE_SIZE,default=100"`
	RequestTimeout    int     `env:"REQUEST_TIMEOUT,default=15"` // seconds
	RequestsPerSecond float64 `env:"REQUESTS_PER_SECOND,default=5"`
}

// AppConfig holds application-specific configuration
type AppConfig struct {
	Environment string `env:"ENVIRONMENT,default=development"`
	LogLevel    string `env:"LOG_LEVEL,default=info"`
	Debug       bool   `env:"DEBUG,default=false"`
}

// Load loads configuration from environment variables
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}
	return &cfg, nil
}

// GetDatabaseURL returns the PostgreSQL connection URL
func (c *DatabaseConfig) GetDatabaseURL() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// GetServerAddr returns the server address
func (c *ServerConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDevelopment returns true if running in development environment
func (c *AppConfig) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production environment
func (c *AppConfig) IsProduction() bool {
	return c.Environment == "production"
}
