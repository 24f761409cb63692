package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

const (
	DefaultMaxQueries      = 3
	DefaultResultsPerQuery = 3
	DefaultSearchTimeout   = 12
	DefaultMaxSources      = 5
	DefaultHost            = "0.0.0.0"
	DefaultPort            = 18690
	DefaultBufSize         = 100
)

type Config struct {
	DataDir  string         `json:"dataDir"`
	Search   SearchConfig   `json:"search"`
	Persona  PersonaConfig  `json:"persona"`
	Memory   MemoryConfig   `json:"memory"`
	Research ResearchConfig `json:"research"`
	Channels ChannelsConfig `json:"channels"`
	Gateway  GatewayConfig  `json:"gateway"`
}

type SearchConfig struct {
	// MaxQueries and ResultsPerQuery are the canonical limits; earlier
	// revisions of the assistant shipped with 6/6 but the consent-aware
	// pipeline settled on 3/3.
	MaxQueries      int `json:"maxQueries"`
	ResultsPerQuery int `json:"resultsPerQuery"`
	TimeoutSeconds  int `json:"timeoutSeconds"`
	MaxSources      int `json:"maxSources"`
}

type PersonaConfig struct {
	DefinitionPath string `json:"definitionPath,omitempty"`
	SnapshotPath   string `json:"snapshotPath,omitempty"`
}

type MemoryConfig struct {
	DBPath string `json:"dbPath,omitempty"`
}

type ResearchConfig struct {
	DBPath string `json:"dbPath,omitempty"`
}

type ChannelsConfig struct {
	Telegram TelegramConfig `json:"telegram"`
	WebUI    WebUIConfig    `json:"webui"`
}

type TelegramConfig struct {
	Enabled   bool     `json:"enabled"`
	Token     string   `json:"token"`
	AllowFrom []string `json:"allowFrom"`
	Proxy     string   `json:"proxy,omitempty"`
}

type WebUIConfig struct {
	Enabled   bool     `json:"enabled"`
	AllowFrom []string `json:"allowFrom"`
}

type GatewayConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

func DefaultConfig() *Config {
	return &Config{
		DataDir: filepath.Join(ConfigDir(), "data"),
		Search: SearchConfig{
			MaxQueries:      DefaultMaxQueries,
			ResultsPerQuery: DefaultResultsPerQuery,
			TimeoutSeconds:  DefaultSearchTimeout,
			MaxSources:      DefaultMaxSources,
		},
		Channels: ChannelsConfig{},
		Gateway: GatewayConfig{
			Host: DefaultHost,
			Port: DefaultPort,
		},
	}
}

func ConfigDir() string {
	home := os.Getenv("HOME")
	if home == "" {
		home, _ = os.UserHomeDir()
	}
	return filepath.Join(home, ".gurukukomi")
}

func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.json")
}

func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if dir := os.Getenv("GURUKUKOMI_DATA_DIR"); dir != "" {
		cfg.DataDir = dir
	}
	if token := os.Getenv("GURUKUKOMI_TELEGRAM_TOKEN"); token != "" {
		cfg.Channels.Telegram.Token = token
	}
	if path := os.Getenv("GURUKUKOMI_MEMORY_DB"); path != "" {
		cfg.Memory.DBPath = path
	}
	if path := os.Getenv("GURUKUKOMI_RESEARCH_DB"); path != "" {
		cfg.Research.DBPath = path
	}
	if path := os.Getenv("GURUKUKOMI_PERSONA_FILE"); path != "" {
		cfg.Persona.DefinitionPath = path
	}
	if v := os.Getenv("GURUKUKOMI_MAX_QUERIES"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			cfg.Search.MaxQueries = parsed
		}
	}
	if v := os.Getenv("GURUKUKOMI_RESULTS_PER_QUERY"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			cfg.Search.ResultsPerQuery = parsed
		}
	}

	if cfg.DataDir == "" {
		cfg.DataDir = DefaultConfig().DataDir
	}
	if cfg.Search.MaxQueries <= 0 {
		cfg.Search.MaxQueries = DefaultMaxQueries
	}
	if cfg.Search.ResultsPerQuery <= 0 {
		cfg.Search.ResultsPerQuery = DefaultResultsPerQuery
	}
	if cfg.Search.TimeoutSeconds <= 0 {
		cfg.Search.TimeoutSeconds = DefaultSearchTimeout
	}
	if cfg.Search.MaxSources <= 0 {
		cfg.Search.MaxSources = DefaultMaxSources
	}
	if cfg.Memory.DBPath == "" {
		cfg.Memory.DBPath = filepath.Join(cfg.DataDir, "memory.db")
	}
	if cfg.Research.DBPath == "" {
		cfg.Research.DBPath = filepath.Join(cfg.DataDir, "research.db")
	}
	if cfg.Persona.SnapshotPath == "" {
		cfg.Persona.SnapshotPath = filepath.Join(cfg.DataDir, "persona_state.json")
	}

	return cfg, nil
}

func SaveConfig(cfg *Config) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(ConfigPath(), data, 0644)
}
