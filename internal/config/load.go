package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// DefaultPath is looked up when no config file is given.
const DefaultPath = "./proptrace.yaml"

// Load loads configuration with priority: defaults < file < flags. flags may be nil.
func Load(flags *Flags) (*Config, error) {
	cfg := Default()

	if flags == nil {
		flags = &Flags{}
	}

	configPath := flags.Config
	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, errors.Wrapf(err, "loading config from %s", configPath)
		}
	}

	flags.apply(cfg)

	if cfg.Game.BaseGameDir == "" {
		cfg.Game.BaseGameDir = cfg.Game.GameDir
	}

	if cfg.Trace.Workers < 1 {
		cfg.Trace.Workers = 1
	}

	return cfg, nil
}

func findConfigFile() string {
	if _, err := os.Stat(DefaultPath); err == nil {
		return DefaultPath
	}

	return ""
}

// loadFromFile loads config from a YAML file, merging with existing values.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, cfg)
}
