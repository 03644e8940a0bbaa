package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
)

type LLMProvider string

const (
	ProviderOpenAI LLMProvider = "openai"
	ProviderYandex LLMProvider = "yandex"
)

type Environment string

const (
	EnvDev  Environment = "dev"
	EnvProd Environment = "prod"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverFile     = "file"
)

type Config struct {
	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN,required"`

	// App
	AppName     string      `env:"APP_NAME" envDefault:"Running Bot"`
	Debug       bool        `env:"DEBUG" envDefault:"true"`
	Environment Environment `env:"ENVIRONMENT" envDefault:"dev"`
	ListenAddr  string      `env:"LISTEN_ADDR" envDefault:":8000"`

	// Delivery
	WebhookBaseURL    string        `env:"WEBHOOK_BASE_URL"`
	ReconcileInterval time.Duration `env:"RECONCILE_INTERVAL" envDefault:"60s"`
	PollTimeout       int           `env:"POLL_TIMEOUT" envDefault:"60"`

	// LLM settings
	LLMProvider      LLMProvider `env:"LLM_PROVIDER" envDefault:"openai"`
	AIAPIKey         string      `env:"AI_API_KEY"`
	AIBaseURL        string      `env:"AI_BASE_URL" envDefault:"https://generativelanguage.googleapis.com/v1beta/openai/"`
	AIModel          string      `env:"AI_MODEL" envDefault:"gemini-2.5-flash-lite"`
	YandexOAuthToken string      `env:"YANDEX_OAUTH_TOKEN"`
	YandexFolderID   string      `env:"YANDEX_FOLDER_ID"`

	// Prompts
	SystemPromptPath string `env:"SYSTEM_PROMPT_PATH"`

	// Storage
	DBDriver        string `env:"DB_DRIVER" envDefault:"postgres"`
	DatabaseURL     string `env:"DATABASE_URL"`
	DatabaseKey     string `env:"DATABASE_KEY"`
	RecordsFilePath string `env:"RECORDS_FILE_PATH" envDefault:"data/records.jsonl"`

	// Transport bounds shared by the Telegram and LLM HTTP clients and the webhook server
	HTTPConnectTimeout time.Duration `env:"HTTP_CONNECT_TIMEOUT" envDefault:"10s"`
	HTTPReadTimeout    time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"90s"`
	HTTPWriteTimeout   time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
	HTTPPoolTimeout    time.Duration `env:"HTTP_POOL_TIMEOUT" envDefault:"90s"`
}

// Parse reads the configuration from the environment and validates it.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.Environment = Environment(strings.ToLower(strings.TrimSpace(string(cfg.Environment))))
	cfg.DBDriver = strings.ToLower(strings.TrimSpace(cfg.DBDriver))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func New() *Config {
	cfg, err := Parse()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	return cfg
}

func (c *Config) Validate() error {
	switch c.Environment {
	case EnvDev, EnvProd:
	default:
		return fmt.Errorf("ENVIRONMENT must be %q or %q, got %q", EnvDev, EnvProd, c.Environment)
	}
	if c.Environment == EnvProd && c.WebhookBaseURL == "" {
		return fmt.Errorf("WEBHOOK_BASE_URL is required when ENVIRONMENT=%s", EnvProd)
	}
	switch c.DBDriver {
	case DriverPostgres, DriverSQLite:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for DB_DRIVER=%s", c.DBDriver)
		}
	case DriverFile:
		if c.RecordsFilePath == "" {
			return fmt.Errorf("RECORDS_FILE_PATH is required for DB_DRIVER=%s", DriverFile)
		}
	default:
		return fmt.Errorf("unknown DB_DRIVER: %s", c.DBDriver)
	}
	if c.ReconcileInterval < time.Second {
		return fmt.Errorf("RECONCILE_INTERVAL must be at least 1s, got %s", c.ReconcileInterval)
	}
	if c.PollTimeout < 0 {
		return fmt.Errorf("POLL_TIMEOUT must not be negative")
	}
	return nil
}

// UsePush reports whether updates are delivered by webhook.
func (c *Config) UsePush() bool { return c.Environment == EnvProd }

// ClientDebug reports whether Telegram request logging may be enabled. It is
// forced off in push mode because setWebhook params carry the bot token.
func (c *Config) ClientDebug() bool { return c.Debug && !c.UsePush() }

// WebhookURL is the externally reachable delivery target registered with Telegram.
func (c *Config) WebhookURL() string {
	return strings.TrimRight(c.WebhookBaseURL, "/") + "/webhook/" + c.TelegramBotToken
}
