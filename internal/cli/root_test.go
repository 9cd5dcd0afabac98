package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoadConfig_Layers(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("recovery:\n  gazetteer: false\nsink:\n  kind: json\n  table: audit_rows\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfgFile = path
	defer func() { cfgFile = "" }()
	t.Setenv("CANONICA_SINK_KIND", "sqlite")

	initConfig()
	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}

	if cfg.Recovery.Gazetteer {
		t.Error("Expected config file to disable the gazetteer")
	}
	if cfg.Sink.Table != "audit_rows" {
		t.Errorf("Expected table from config file, got %q", cfg.Sink.Table)
	}
	if cfg.Sink.Kind != "sqlite" {
		t.Errorf("Expected environment to override sink kind, got %q", cfg.Sink.Kind)
	}
	if cfg.Normalize.InsurerCutoff != 0.80 {
		t.Errorf("Expected default insurer cutoff 0.80, got %v", cfg.Normalize.InsurerCutoff)
	}
	if cfg.Normalize.CacheTTL != time.Hour {
		t.Errorf("Expected default cache TTL 1h, got %v", cfg.Normalize.CacheTTL)
	}
}

func TestLoadMasters_BuiltIn(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	cfg, err := loadConfig()
	if err != nil {
		t.Fatal(err)
	}
	masters, err := loadMasters(cfg)
	if err != nil {
		t.Fatalf("loadMasters failed: %v", err)
	}
	if len(masters.Municipalities.Canonical) == 0 {
		t.Error("Expected built-in municipalities")
	}

	cfg.MastersFile = filepath.Join(t.TempDir(), "missing.yaml")
	if _, err := loadMasters(cfg); err == nil {
		t.Error("Expected error for a missing masters file")
	}
}
