package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	PostgreSQL PostgreSQLConfig
	Redis      RedisConfig
	Server     ServerConfig
	Session    SessionConfig
	LLM        LLMConfig
	WebSearch  WebSearchConfig
	Logging    LoggingConfig
}

// PostgreSQLConfig holds PostgreSQL database configuration
type PostgreSQLConfig struct {
	DSN                string // full connection string, takes precedence
	Host               string
	Port               int
	User               string
	Password           string
	Database           string
	SSLMode            string
	MaxConnections     int
	MaxIdleConnections int
}

// RedisConfig holds the session store connection settings
type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int
	Host           string
	GinMode        string
	AllowedOrigins string
}

// SessionConfig holds conversation session settings
type SessionConfig struct {
	TTL time.Duration
}

// LLMConfig holds the OpenRouter-compatible completion API configuration
type LLMConfig struct {
	APIKey      string
	APIBase     string
	Model       string
	Temperature float64
	Timeout     time.Duration
	Referer     string // HTTP-Referer header, recommended by OpenRouter
	Title       string // X-Title header
}

// WebSearchConfig holds the optional project web-search endpoint
type WebSearchConfig struct {
	APIURL  string // empty disables web search
	Timeout time.Duration
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (optional)
	_ = godotenv.Load()

	cfg := &Config{
		PostgreSQL: PostgreSQLConfig{
			DSN:                getEnv("DATABASE_URL", getEnv("PG_DSN", "")),
			Host:               getEnv("PG_HOST", "localhost"),
			Port:               getEnvAsInt("PG_PORT", 5432),
			User:               getEnv("PG_USER", "postgres"),
			Password:           getEnv("PG_PASSWORD", ""),
			Database:           getEnv("PG_DATABASE", "silverland"),
			SSLMode:            getEnv("PG_SSLMODE", "disable"),
			MaxConnections:     getEnvAsInt("PG_MAX_CONNECTIONS", 25),
			MaxIdleConnections: getEnvAsInt("PG_MAX_IDLE_CONNECTIONS", 5),
		},
		Redis: RedisConfig{
			Address:  getEnv("REDIS_ADDRESS", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Server: ServerConfig{
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			GinMode:        getEnv("GIN_MODE", "release"),
			AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
		},
		Session: SessionConfig{
			TTL: time.Duration(getEnvAsInt("SESSION_TTL_HOURS", 72)) * time.Hour,
		},
		LLM: LLMConfig{
			APIKey:      getEnv("OPENROUTER_API_KEY", ""),
			APIBase:     getEnv("OPENROUTER_API_BASE", "https://openrouter.ai/api/v1"),
			Model:       getEnv("OPENROUTER_MODEL", "openai/gpt-4o"),
			Temperature: getEnvAsFloat("OPENROUTER_TEMPERATURE", 0.3),
			Timeout:     time.Duration(getEnvAsInt("OPENROUTER_TIMEOUT", 30)) * time.Second,
			Referer:     getEnv("OPENROUTER_REFERER", "silverland.ai"),
			Title:       getEnv("OPENROUTER_TITLE", "SilverLand Property Assistant"),
		},
		WebSearch: WebSearchConfig{
			APIURL:  getEnv("WEB_SEARCH_API_URL", ""),
			Timeout: time.Duration(getEnvAsInt("WEB_SEARCH_TIMEOUT", 8)) * time.Second,
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if cfg.LLM.APIKey == "" {
		return nil, fmt.Errorf("OPENROUTER_API_KEY missing - add it to .env")
	}

	return cfg, nil
}

// GetPostgreSQLDSN returns PostgreSQL connection string
func (c *Config) GetPostgreSQLDSN() string {
	if c.PostgreSQL.DSN != "" {
		return c.PostgreSQL.DSN
	}

	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgreSQL.Host,
		c.PostgreSQL.Port,
		c.PostgreSQL.User,
		c.PostgreSQL.Password,
		c.PostgreSQL.Database,
		c.PostgreSQL.SSLMode,
	)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer value for %s, using default %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Warning: Invalid float value for %s, using default %f", key, defaultValue)
		return defaultValue
	}
	return value
}
