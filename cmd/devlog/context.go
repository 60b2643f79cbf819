package main

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"devlog/internal/config"
	"devlog/internal/session"
)

// skipConfigAnnotation marks commands that must run without a config file.
const skipConfigAnnotation = "skipConfigLoad"

// loadedConfig is the result of resolving --config once per invocation.
type loadedConfig struct {
	cfg    *config.Config
	path   string
	exists bool
	err    error
}

type commandContext struct {
	configFlag *string

	once   sync.Once
	loaded loadedConfig
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.once.Do(func() {
		var flag string
		if c.configFlag != nil {
			flag = strings.TrimSpace(*c.configFlag)
		}
		cfg, path, exists, err := config.Load(flag)
		if err == nil {
			err = cfg.EnsureDirectories()
		}
		c.loaded = loadedConfig{cfg: cfg, path: path, exists: exists, err: err}
		if err != nil {
			c.loaded.cfg = nil
		}
	})
	return c.loaded.cfg, c.loaded.err
}

// configSource describes where the active configuration came from.
func (c *commandContext) configSource() string {
	if c.loaded.exists {
		return c.loaded.path
	}
	return fmt.Sprintf("%s (not found, defaults used)", c.loaded.path)
}

// openSession starts a logging session writing to the command's output.
func (c *commandContext) openSession(cmd *cobra.Command, script string) (*session.Session, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return session.Open(session.Options{
		Config:  cfg,
		Console: cmd.OutOrStdout(),
		Input:   cmd.InOrStdin(),
		Script:  script,
	})
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[skipConfigAnnotation] == "true" {
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
