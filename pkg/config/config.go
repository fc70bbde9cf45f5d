package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// ConfigFile is the optional project-local configuration file.
const ConfigFile = "dot2bgraph.toml"

// Config holds all configuration for the application
type Config struct {
	MaxRowWidth int      `koanf:"max-row-width"`
	Padding     int      `koanf:"padding"`
	PortSpacing int      `koanf:"port-spacing"`
	Formats     []string `koanf:"format"`
	Output      string   `koanf:"output"`
	Addr        string   `koanf:"addr"`
	Workers     int      `koanf:"workers"`
	NoCache     bool     `koanf:"no-cache"`
	Verbose     bool     `koanf:"verbose"`
}

// Load loads configuration from defaults, config file, environment variables, and flags.
// Priority: Flags > Env > Config File > Defaults
func Load(f *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	defaults := map[string]interface{}{
		"max-row-width": 48,
		"padding":       2,
		"port-spacing":  1,
		"format":        []string{"json"},
		"output":        "",
		"addr":          "localhost:8485",
		"workers":       4,
		"no-cache":      false,
		"verbose":       false,
	}
	if err := k.Load(makeMapProvider(defaults), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config File (optional) - dot2bgraph.toml
	// We ignore errors here as the file might not exist
	_ = k.Load(file.Provider(ConfigFile), toml.Parser())

	// 3. Environment Variables
	// Prefix: DOT2BGRAPH_ (e.g., DOT2BGRAPH_MAX_ROW_WIDTH=64)
	if err := k.Load(env.Provider("DOT2BGRAPH_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(
			strings.TrimPrefix(s, "DOT2BGRAPH_")), "_", "-")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags
	if f != nil {
		if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// Unmarshal into struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Helper to use map as a provider
type mapProvider struct {
	m map[string]interface{}
}

func makeMapProvider(m map[string]interface{}) *mapProvider {
	return &mapProvider{m: m}
}

func (p *mapProvider) Read() (map[string]interface{}, error) {
	return p.m, nil
}

func (p *mapProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("not implemented")
}
