package main

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/liyanghua/xhs-video-tool/internal/config"
	"github.com/liyanghua/xhs-video-tool/internal/logging"
	"github.com/liyanghua/xhs-video-tool/internal/services"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configSeen bool
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			c.configErr = services.Wrap(services.ErrConfiguration, "startup", "load config", "", err)
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = services.Wrap(services.ErrConfiguration, "startup", "ensure directories", "", err)
			return
		}
		c.config = cfg
		c.configPath = resolved
		c.configSeen = exists
	})
	return c.config, c.configErr
}

// consoleLogger builds the terminal logger from the loaded config.
func (c *commandContext) consoleLogger() (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return logging.NewFromConfig(cfg)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
