package config

import (
	"flag"
	"strings"
)

// Flags are the command line overrides.
type Flags struct {
	Config      string
	Debug       bool
	GameDir     string
	BaseGameDir string
	VPKs        string
	Workers     int
}

// RegisterFlags defines the overrides on fs.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{}

	fs.StringVar(&f.Config, "config", "", "Path to config file")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	fs.StringVar(&f.GameDir, "game", "", "Game directory")
	fs.StringVar(&f.BaseGameDir, "basegame", "", "Base game directory")
	fs.StringVar(&f.VPKs, "vpk", "", "Comma separated VPK archives")
	fs.IntVar(&f.Workers, "workers", 0, "Number of trace workers")

	return f
}

// apply applies flag overrides to the config.
func (f *Flags) apply(cfg *Config) {
	if f.Debug {
		cfg.Logging.Level = "debug"
	}

	if f.GameDir != "" {
		cfg.Game.GameDir = f.GameDir
	}

	if f.BaseGameDir != "" {
		cfg.Game.BaseGameDir = f.BaseGameDir
	}

	if f.VPKs != "" {
		cfg.Game.VPKs = strings.Split(f.VPKs, ",")
	}

	if f.Workers > 0 {
		cfg.Trace.Workers = f.Workers
	}
}
