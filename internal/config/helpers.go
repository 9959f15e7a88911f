package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// ConfigHelpers provides convenient access to global configuration paths.
type ConfigHelpers struct {
	config *GlobalConfig
}

// NewConfigHelpers creates a new config helpers instance.
func NewConfigHelpers(config *GlobalConfig) *ConfigHelpers {
	return &ConfigHelpers{config: config}
}

// Jobs returns the build parallelism.
func (c *ConfigHelpers) Jobs() int {
	return c.config.Jobs
}

// WorkDir returns the absolute path to the work directory.
func (c *ConfigHelpers) WorkDir() (string, error) {
	return filepath.Abs(c.config.WorkDir)
}

// AssetsDir returns the absolute path to the static assets directory.
func (c *ConfigHelpers) AssetsDir() (string, error) {
	return filepath.Abs(c.config.AssetsDir)
}

// LogLevel returns the configured log level.
func (c *ConfigHelpers) LogLevel() string {
	return c.config.Logging.Level
}

// IsDebugMode returns true if debug logging is enabled.
func (c *ConfigHelpers) IsDebugMode() bool {
	return c.config.Logging.Level == "debug"
}

// GetConfig returns the underlying global config (for advanced usage).
func (c *ConfigHelpers) GetConfig() *GlobalConfig {
	return c.config
}

// CreateWorkDir ensures the work directory exists.
func (c *ConfigHelpers) CreateWorkDir() error {
	workDir, err := c.WorkDir()
	if err != nil {
		return fmt.Errorf("resolving work directory: %w", err)
	}
	return createDirIfNotExists(workDir)
}

// Helper function to create directories
func createDirIfNotExists(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return os.MkdirAll(dir, 0755)
	}
	return nil
}
