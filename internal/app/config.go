package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/kbukum/convoview/auth"
	"github.com/kbukum/convoview/config"
	"github.com/kbukum/convoview/database"
	"github.com/kbukum/convoview/internal/client"
	"github.com/kbukum/convoview/internal/conversation"
	"github.com/kbukum/convoview/internal/media"
	"github.com/kbukum/convoview/observability"
	"github.com/kbukum/convoview/server"
	"github.com/kbukum/convoview/storage"
	"github.com/kbukum/convoview/version"
)

// ServiceName names the binary in logs, telemetry and config lookup.
const ServiceName = "convoview"

// Conversation store backends.
const (
	StoreDatabase = "database"
	StoreStorage  = "storage"
)

// Config is the whole convoview configuration.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Server        server.Config        `yaml:"server" mapstructure:"server"`
	Database      database.Config      `yaml:"database" mapstructure:"database"`
	Storage       storage.Config       `yaml:"storage" mapstructure:"storage"`
	Conversations ConversationsConfig  `yaml:"conversations" mapstructure:"conversations"`
	Auth          auth.Config          `yaml:"auth" mapstructure:"auth"`
	Analysis      AnalysisConfig       `yaml:"analysis" mapstructure:"analysis"`
	Media         media.Config         `yaml:"media" mapstructure:"media"`
	Events        EventsConfig         `yaml:"events" mapstructure:"events"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
	Viewer        client.Config        `yaml:"viewer" mapstructure:"viewer"`
}

// ConversationsConfig selects where conversation documents live.
type ConversationsConfig struct {
	// Store is "database" (the conversations table) or "storage" (one JSON
	// file per conversation under Prefix).
	Store  string `yaml:"store" mapstructure:"store"`
	Prefix string `yaml:"prefix" mapstructure:"prefix"`

	// MigrateOnStart applies the SQL migrations when serve starts.
	MigrateOnStart bool `yaml:"migrate_on_start" mapstructure:"migrate_on_start"`
}

// AnalysisConfig holds the classifier settings.
type AnalysisConfig struct {
	ClassLabel string `yaml:"class_label" mapstructure:"class_label"`
}

// EventsConfig configures the server-sent event stream.
type EventsConfig struct {
	KeepAlive time.Duration `yaml:"keep_alive" mapstructure:"keep_alive"`
}

type sectionCheck struct {
	section string
	check   func() error
}

// ApplyDefaults fills every section.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = ServiceName
	}
	if c.Version == "" {
		c.Version = version.Short()
	}
	c.ServiceConfig.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Database.ApplyDefaults()
	c.Storage.ApplyDefaults()
	c.Auth.ApplyDefaults()
	c.Media.ApplyDefaults()
	c.Observability.ApplyDefaults()
	c.Viewer.ApplyDefaults()

	if c.Conversations.Store == "" {
		c.Conversations.Store = StoreDatabase
	}
	if c.Conversations.Prefix == "" {
		c.Conversations.Prefix = conversation.DefaultFilePrefix
	}
	if c.Analysis.ClassLabel == "" {
		c.Analysis.ClassLabel = conversation.DefaultClassLabel
	}
	if c.Events.KeepAlive == 0 {
		c.Events.KeepAlive = 15 * time.Second
	}
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	checks := []sectionCheck{
		{"server", c.Server.Validate},
		{"storage", c.Storage.Validate},
		{"auth", c.Auth.Validate},
		{"media", c.Media.Validate},
		{"observability", c.Observability.Validate},
		{"viewer", c.Viewer.Validate},
	}
	if c.NeedsDatabase() {
		checks = append(checks, sectionCheck{"database", c.Database.Validate})
	}
	for _, ch := range checks {
		if err := ch.check(); err != nil {
			if strings.HasPrefix(err.Error(), ch.section) {
				return err
			}
			return fmt.Errorf("%s: %w", ch.section, err)
		}
	}

	switch c.Conversations.Store {
	case StoreDatabase, StoreStorage:
	default:
		return fmt.Errorf("conversations.store must be %q or %q (got: %q)", StoreDatabase, StoreStorage, c.Conversations.Store)
	}
	if c.Events.KeepAlive < 0 {
		return fmt.Errorf("events.keep_alive must be non-negative (got: %s)", c.Events.KeepAlive)
	}
	return nil
}

// NeedsDatabase reports whether any enabled feature reads the database.
func (c *Config) NeedsDatabase() bool {
	return c.Conversations.Store == StoreDatabase || c.Auth.Enabled
}

// Load reads config.yml, .env and the environment. An empty file means the
// standard search locations.
func Load(file string) (*Config, error) {
	var opts []config.LoaderOption
	if file != "" {
		opts = append(opts, config.WithConfigFile(file))
	}
	cfg := &Config{}
	if err := config.LoadConfig(ServiceName, cfg, opts...); err != nil {
		return nil, err
	}
	return cfg, nil
}
