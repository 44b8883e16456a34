// Package config provides application configuration.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Store drivers accepted by STORE_DRIVER.
const (
	DriverAuto     = "auto"
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DemoUserID is the owner seeded into the in-memory store.
const DemoUserID = "11111111-1111-1111-1111-111111111111"

// Config holds all application configuration.
type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	FrontendURL string `envconfig:"FRONTEND_URL" default:""`

	StoreDriver         string `envconfig:"STORE_DRIVER" default:"auto"`
	DBPath              string `envconfig:"DB_PATH" default:"./data/pawtine.db"`
	DatabaseURL         string `envconfig:"DATABASE_URL" default:""`
	PostgresAutoMigrate bool   `envconfig:"POSTGRES_AUTO_MIGRATE" default:"true"`
	PostgresMaxConns    int32  `envconfig:"POSTGRES_MAX_CONNS" default:"10"`

	// DemoUser pins every request to one owner instead of issuing anonymous
	// identities. It defaults to the seeded owner when the memory store is used.
	DemoUser string `envconfig:"DEMO_USER_ID" default:""`

	OpenAI          OpenAIConfig
	RateLimit       RateLimitConfig
	ConversationLog ConversationLogConfig

	GRPCHealthPort      string        `envconfig:"GRPC_HEALTH_PORT" default:"9090"`
	HealthProbeInterval time.Duration `envconfig:"HEALTH_PROBE_INTERVAL" default:"30s"`
	HealthCheckTimeout  time.Duration `envconfig:"HEALTH_CHECK_TIMEOUT" default:"5s"`
}

// OpenAIConfig points the chat assistant at an OpenAI compatible endpoint.
type OpenAIConfig struct {
	APIKey  string        `envconfig:"OPENAI_API_KEY" default:""`
	Model   string        `envconfig:"OPENAI_MODEL" default:"gpt-4-turbo"`
	BaseURL string        `envconfig:"OPENAI_BASE_URL" default:"https://api.openai.com/v1"`
	Timeout time.Duration `envconfig:"OPENAI_TIMEOUT" default:"30s"`
}

// RateLimitConfig bounds chat requests per owner.
type RateLimitConfig struct {
	RequestsPerWindow int           `envconfig:"CHAT_RATE_LIMIT" default:"10"`
	WindowDuration    time.Duration `envconfig:"CHAT_RATE_WINDOW" default:"1m"`
}

// ConversationLogConfig controls JSON conversation logging.
type ConversationLogConfig struct {
	Enabled       bool   `envconfig:"CONVERSATION_LOG_ENABLED" default:"true"`
	Dir           string `envconfig:"CONVERSATION_LOG_DIR" default:"./data/logs/conversations"`
	GlobalEnabled bool   `envconfig:"CONVERSATION_LOG_GLOBAL_ENABLED" default:"false"`
	GlobalPath    string `envconfig:"CONVERSATION_LOG_GLOBAL_PATH" default:"./data/logs/conversations/all.ndjson"`
	QueueSize     int    `envconfig:"CONVERSATION_LOG_QUEUE_SIZE" default:"1000"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}

	cfg.resolveDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func (c *Config) resolveDefaults() {
	c.StoreDriver = strings.ToLower(strings.TrimSpace(c.StoreDriver))
	if c.StoreDriver == "" || c.StoreDriver == DriverAuto {
		if c.DatabaseURL != "" {
			c.StoreDriver = DriverPostgres
		} else {
			c.StoreDriver = DriverMemory
		}
	}
	if c.StoreDriver == DriverMemory && c.DemoUser == "" {
		c.DemoUser = DemoUserID
	}
	if c.ConversationLog.QueueSize <= 0 {
		c.ConversationLog.QueueSize = 1000
	}
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	switch c.StoreDriver {
	case DriverMemory:
	case DriverSQLite:
		if c.DBPath == "" {
			return fmt.Errorf("DB_PATH cannot be empty")
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres store")
		}
	default:
		return fmt.Errorf("unsupported STORE_DRIVER: %s", c.StoreDriver)
	}
	if c.ConversationLog.Dir == "" {
		return fmt.Errorf("CONVERSATION_LOG_DIR cannot be empty")
	}
	if c.ConversationLog.GlobalPath == "" {
		return fmt.Errorf("CONVERSATION_LOG_GLOBAL_PATH cannot be empty")
	}
	if c.RateLimit.RequestsPerWindow <= 0 {
		return fmt.Errorf("CHAT_RATE_LIMIT must be > 0")
	}
	if c.RateLimit.WindowDuration <= 0 {
		return fmt.Errorf("CHAT_RATE_WINDOW must be > 0")
	}
	if c.HealthProbeInterval <= 0 {
		return fmt.Errorf("HEALTH_PROBE_INTERVAL must be > 0")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

// ChatEnabled reports whether an LLM key is configured.
func (c *Config) ChatEnabled() bool {
	return strings.TrimSpace(c.OpenAI.APIKey) != ""
}

// AllowedOrigins returns the CORS origins for the configured frontend.
func (c *Config) AllowedOrigins() []string {
	if c.IsDevelopment() {
		return []string{"*"}
	}
	return []string{strings.TrimRight(c.FrontendURL, "/")}
}
