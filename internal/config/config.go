// Package config handles proptrace configuration loading.
package config

import "runtime"

// Config holds all proptrace settings.
type Config struct {
	Game    GameConfig    `yaml:"game"`
	Trace   TraceConfig   `yaml:"trace"`
	Logging LoggingConfig `yaml:"logging"`
}

// GameConfig holds where models are searched.
type GameConfig struct {
	GameDir     string   `yaml:"game_dir"`
	BaseGameDir string   `yaml:"base_game_dir"` // searched after game_dir
	VPKs        []string `yaml:"vpks"`          // pak01 or pak01_dir.vpk style paths
}

// TraceConfig holds ray tracing settings.
type TraceConfig struct {
	Workers int `yaml:"workers"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Trace: TraceConfig{
			Workers: runtime.NumCPU(),
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
