package config

import (
	"os"
	"path/filepath"
	"testing"
)

func setHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("GURUKUKOMI_DATA_DIR", "")
	t.Setenv("GURUKUKOMI_TELEGRAM_TOKEN", "")
	t.Setenv("GURUKUKOMI_MEMORY_DB", "")
	t.Setenv("GURUKUKOMI_RESEARCH_DB", "")
	t.Setenv("GURUKUKOMI_PERSONA_FILE", "")
	t.Setenv("GURUKUKOMI_MAX_QUERIES", "")
	t.Setenv("GURUKUKOMI_RESULTS_PER_QUERY", "")
	return home
}

func TestDefaultConfig(t *testing.T) {
	setHome(t)
	cfg := DefaultConfig()
	if cfg.Search.MaxQueries != 3 || cfg.Search.ResultsPerQuery != 3 {
		t.Errorf("search limits = %d/%d, want 3/3", cfg.Search.MaxQueries, cfg.Search.ResultsPerQuery)
	}
	if cfg.Search.MaxSources != 5 {
		t.Errorf("MaxSources = %d", cfg.Search.MaxSources)
	}
	if cfg.Gateway.Port != DefaultPort {
		t.Errorf("port = %d", cfg.Gateway.Port)
	}
}

func TestLoadConfigNoFileUsesDefaults(t *testing.T) {
	home := setHome(t)
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	wantData := filepath.Join(home, ".gurukukomi", "data")
	if cfg.DataDir != wantData {
		t.Errorf("DataDir = %q, want %q", cfg.DataDir, wantData)
	}
	if cfg.Memory.DBPath != filepath.Join(wantData, "memory.db") {
		t.Errorf("Memory.DBPath = %q", cfg.Memory.DBPath)
	}
	if cfg.Research.DBPath != filepath.Join(wantData, "research.db") {
		t.Errorf("Research.DBPath = %q", cfg.Research.DBPath)
	}
	if cfg.Persona.SnapshotPath != filepath.Join(wantData, "persona_state.json") {
		t.Errorf("Persona.SnapshotPath = %q", cfg.Persona.SnapshotPath)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	setHome(t)
	cfg := DefaultConfig()
	cfg.Channels.Telegram.Enabled = true
	cfg.Channels.Telegram.Token = "tok123"
	cfg.Channels.Telegram.AllowFrom = []string{"1001"}
	cfg.Search.MaxQueries = 2
	if err := SaveConfig(cfg); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}
	if _, err := os.Stat(ConfigPath()); err != nil {
		t.Fatalf("config file missing: %v", err)
	}

	loaded, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if !loaded.Channels.Telegram.Enabled || loaded.Channels.Telegram.Token != "tok123" {
		t.Errorf("telegram config lost: %+v", loaded.Channels.Telegram)
	}
	if loaded.Search.MaxQueries != 2 {
		t.Errorf("MaxQueries = %d, want 2", loaded.Search.MaxQueries)
	}
}

func TestEnvOverrides(t *testing.T) {
	setHome(t)
	t.Setenv("GURUKUKOMI_DATA_DIR", "/tmp/guru-data")
	t.Setenv("GURUKUKOMI_TELEGRAM_TOKEN", "env-token")
	t.Setenv("GURUKUKOMI_MAX_QUERIES", "5")
	t.Setenv("GURUKUKOMI_RESULTS_PER_QUERY", "bogus")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.DataDir != "/tmp/guru-data" {
		t.Errorf("DataDir = %q", cfg.DataDir)
	}
	if cfg.Channels.Telegram.Token != "env-token" {
		t.Errorf("Token = %q", cfg.Channels.Telegram.Token)
	}
	if cfg.Search.MaxQueries != 5 {
		t.Errorf("MaxQueries = %d, want 5", cfg.Search.MaxQueries)
	}
	// Unparseable override falls back to the default.
	if cfg.Search.ResultsPerQuery != DefaultResultsPerQuery {
		t.Errorf("ResultsPerQuery = %d", cfg.Search.ResultsPerQuery)
	}
	// Derived paths follow the overridden data dir.
	if cfg.Memory.DBPath != filepath.Join("/tmp/guru-data", "memory.db") {
		t.Errorf("Memory.DBPath = %q", cfg.Memory.DBPath)
	}
}
