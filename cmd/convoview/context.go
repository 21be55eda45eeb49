package main

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/kbukum/convoview/internal/app"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *app.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

// ensureConfig loads, defaults and validates the configuration once.
func (c *commandContext) ensureConfig() (*app.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		if path != "" {
			if _, err := os.Stat(path); err != nil {
				c.configErr = fmt.Errorf("config file: %w", err)
				return
			}
		}
		cfg, err := app.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		cfg.ApplyDefaults()
		if err := cfg.Validate(); err != nil {
			c.configErr = fmt.Errorf("invalid configuration: %w", err)
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// newApp builds the process on the loaded configuration.
func (c *commandContext) newApp(opts app.Options) (*app.App, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return app.New(cfg, opts)
}
