package config

import (
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

// PackageMeta is the static metadata handed to the packaging tool.
type PackageMeta struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	URL         string `yaml:"url" json:"url"`
	License     string `yaml:"license" json:"license"`
	Maintainer  string `yaml:"maintainer" json:"maintainer"`
}

// LoggingConfig holds the logging settings.
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
}

// ToolsConfig names the external tools the pipeline shells out to.
type ToolsConfig struct {
	Git string `yaml:"git" json:"git"`
	Fpm string `yaml:"fpm" json:"fpm"`
}

// GlobalConfig is the ambient configuration, loaded once from YAML.
// Per-run parameters live in BuildRequest, not here.
type GlobalConfig struct {
	WorkDir        string        `yaml:"workDir" json:"workDir"`
	AssetsDir      string        `yaml:"assetsDir" json:"assetsDir"`
	Jobs           int           `yaml:"jobs" json:"jobs"`
	ZookeeperConn  string        `yaml:"zookeeperConn" json:"zookeeperConn"`
	ArchiveStaging bool          `yaml:"archiveStaging" json:"archiveStaging"`
	VerifyPackages bool          `yaml:"verifyPackages" json:"verifyPackages"`
	SigningKey     string        `yaml:"signingKey" json:"signingKey"`
	Package        PackageMeta   `yaml:"package" json:"package"`
	Tools          ToolsConfig   `yaml:"tools" json:"tools"`
	Logging        LoggingConfig `yaml:"logging" json:"logging"`
}

// DefaultGlobalConfig returns the configuration used when no config file is
// given.
func DefaultGlobalConfig() *GlobalConfig {
	return &GlobalConfig{
		WorkDir:        "build",
		AssetsDir:      "assets",
		Jobs:           runtime.NumCPU(),
		ZookeeperConn:  "zk://localhost:2181/mesos",
		ArchiveStaging: false,
		VerifyPackages: true,
		Package: PackageMeta{
			Name:        "mesos",
			Description: "Cluster resource manager with efficient resource isolation",
			URL:         "https://mesos.apache.org/",
			License:     "Apache-2.0",
			Maintainer:  "dev@mesos.apache.org",
		},
		Tools: ToolsConfig{
			Git: "git",
			Fpm: "fpm",
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// LoadGlobalConfig reads and validates a YAML config file, layering it over
// the defaults. Unknown keys are rejected by schema validation.
func LoadGlobalConfig(path string) (*GlobalConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := ValidateConfigYAML(data); err != nil {
		return nil, fmt.Errorf("config file %s failed validation: %w", path, err)
	}

	cfg := DefaultGlobalConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if cfg.Jobs < 1 {
		return nil, fmt.Errorf("config file %s: jobs must be at least 1", path)
	}
	return cfg, nil
}
