package config

import (
	"testing"

	"github.com/spf13/pflag"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.MaxRowWidth != 48 {
		t.Errorf("MaxRowWidth = %d, want 48", cfg.MaxRowWidth)
	}
	if cfg.Padding != 2 {
		t.Errorf("Padding = %d, want 2", cfg.Padding)
	}
	if cfg.PortSpacing != 1 {
		t.Errorf("PortSpacing = %d, want 1", cfg.PortSpacing)
	}
	if len(cfg.Formats) != 1 || cfg.Formats[0] != "json" {
		t.Errorf("Formats = %v, want [json]", cfg.Formats)
	}
	if cfg.Workers != 4 {
		t.Errorf("Workers = %d, want 4", cfg.Workers)
	}
	if cfg.NoCache {
		t.Error("NoCache should default to false")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("DOT2BGRAPH_MAX_ROW_WIDTH", "64")
	t.Setenv("DOT2BGRAPH_VERBOSE", "true")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.MaxRowWidth != 64 {
		t.Errorf("MaxRowWidth = %d, want 64 from env", cfg.MaxRowWidth)
	}
	if !cfg.Verbose {
		t.Error("Verbose should be true from env")
	}
}

func TestLoadFlagsBeatEnv(t *testing.T) {
	t.Setenv("DOT2BGRAPH_PADDING", "9")

	f := pflag.NewFlagSet("test", pflag.ContinueOnError)
	f.Int("padding", 2, "")
	if err := f.Parse([]string{"--padding=5"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(f)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Padding != 5 {
		t.Errorf("Padding = %d, want 5 from flag", cfg.Padding)
	}
}
