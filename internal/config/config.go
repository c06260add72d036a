package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	WeRead   WeReadConfig   `yaml:"weread"`
	Notion   NotionConfig   `yaml:"notion"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	Sync     SyncConfig     `yaml:"sync"`
	LogLevel string         `yaml:"log_level"`
}

type WeReadConfig struct {
	Cookie      string            `yaml:"cookie"`
	CookieCloud CookieCloudConfig `yaml:"cookiecloud"`
	Timeout     time.Duration     `yaml:"timeout"`
	Retry       RetryConfig       `yaml:"retry"`
}

// CookieCloudConfig points at a CookieCloud instance holding the reader
// session cookie; when fully set it takes precedence over the static
// cookie.
type CookieCloudConfig struct {
	URL      string `yaml:"url"`
	ID       string `yaml:"id"`
	Password string `yaml:"password"`
}

func (c CookieCloudConfig) Enabled() bool {
	return c.URL != "" && c.ID != "" && c.Password != ""
}

type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	Wait        time.Duration `yaml:"wait"`
}

type NotionConfig struct {
	Token               string        `yaml:"token"`
	BookDatabaseID      string        `yaml:"book_database_id"`
	NoteDatabaseID      string        `yaml:"note_database_id"`
	HighlightDatabaseID string        `yaml:"highlight_database_id"`
	Timeout             time.Duration `yaml:"timeout"`
	Pacing              time.Duration `yaml:"pacing"`
}

// RabbitMQConfig enables the optional sync-event publisher when URL is set.
type RabbitMQConfig struct {
	URL        string `yaml:"url"`
	Exchange   string `yaml:"exchange"`
	RoutingKey string `yaml:"routing_key"`
	QueueName  string `yaml:"queue_name"`
}

type SyncConfig struct {
	ForceAll   bool          `yaml:"force_all"`
	Interval   time.Duration `yaml:"interval"`
	Pacing     time.Duration `yaml:"pacing"`
	BookPacing time.Duration `yaml:"book_pacing"`
}

func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.WeRead.Timeout == 0 {
		c.WeRead.Timeout = 30 * time.Second
	}
	if c.WeRead.Retry.MaxAttempts == 0 {
		c.WeRead.Retry.MaxAttempts = 3
	}
	if c.WeRead.Retry.Wait == 0 {
		c.WeRead.Retry.Wait = 5 * time.Second
	}
	if c.Notion.Timeout == 0 {
		c.Notion.Timeout = 30 * time.Second
	}
	if c.Notion.Pacing == 0 {
		c.Notion.Pacing = 300 * time.Millisecond
	}
	if c.Sync.Pacing == 0 {
		c.Sync.Pacing = 300 * time.Millisecond
	}
	if c.Sync.BookPacing == 0 {
		c.Sync.BookPacing = 500 * time.Millisecond
	}
	if c.RabbitMQ.URL != "" {
		if c.RabbitMQ.Exchange == "" {
			c.RabbitMQ.Exchange = "weread_syncer"
		}
		if c.RabbitMQ.RoutingKey == "" {
			c.RabbitMQ.RoutingKey = "sync_events"
		}
		if c.RabbitMQ.QueueName == "" {
			c.RabbitMQ.QueueName = "sync_events"
		}
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

func (c *Config) validate() error {
	if c.Notion.Token == "" {
		return fmt.Errorf("notion.token is required")
	}
	if c.Notion.BookDatabaseID == "" || c.Notion.NoteDatabaseID == "" || c.Notion.HighlightDatabaseID == "" {
		return fmt.Errorf("notion book/note/highlight database ids are required")
	}
	if c.WeRead.Cookie == "" && !c.WeRead.CookieCloud.Enabled() {
		return fmt.Errorf("weread.cookie or a complete weread.cookiecloud section is required")
	}
	return nil
}
