package auth

import (
	"fmt"

	"github.com/kbukum/convoview/auth/jwt"
	"github.com/kbukum/convoview/auth/password"
)

// Config holds authentication configuration.
type Config struct {
	// Enabled protects the conversation routes with bearer tokens.
	Enabled bool `mapstructure:"enabled"`

	JWT      jwt.Config      `mapstructure:"jwt"`
	Password password.Config `mapstructure:"password"`
}

// ApplyDefaults sets defaults on both sub-configurations.
func (c *Config) ApplyDefaults() {
	c.JWT.ApplyDefaults()
	c.Password.ApplyDefaults()
}

// Validate checks the sub-configurations. A disabled config still validates
// the hasher since accounts can be created from the CLI.
func (c *Config) Validate() error {
	if err := c.Password.Validate(); err != nil {
		return fmt.Errorf("auth.password: %w", err)
	}
	if !c.Enabled {
		return nil
	}
	if err := c.JWT.Validate(); err != nil {
		return fmt.Errorf("auth.jwt: %w", err)
	}
	return nil
}

// Describe returns a one-line summary for startup logs.
func (c *Config) Describe() string {
	if !c.Enabled {
		return "disabled"
	}
	return fmt.Sprintf("JWT(%s) TTL=%s password=%s", c.JWT.Method, c.JWT.AccessTokenTTL, c.Password.Algorithm)
}
