// Package config provides configuration management for smartcalc.
// Configuration is loaded from (highest to lowest priority):
// 1. Command-line flags
// 2. Environment variables (SMARTCALC_*)
// 3. Project config (.smartcalc.yaml in cwd, or SMARTCALC_CONFIG)
// 4. Home config (~/.smartcalc/config.yaml)
// 5. Defaults
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mfateev/smartcalc/internal/history"
	"github.com/mfateev/smartcalc/internal/llm"
	"github.com/mfateev/smartcalc/internal/models"
)

// Storage backends.
const (
	StorageFile   = "file"
	StorageBadger = "badger"
	StorageMemory = "memory"
)

// Config holds all smartcalc configuration.
type Config struct {
	// DataDir holds the history store and log file (default: ~/.smartcalc).
	DataDir string `yaml:"data_dir" json:"data_dir"`

	Storage     StorageConfig          `yaml:"storage" json:"storage"`
	Assistant   models.AssistantConfig `yaml:"assistant" json:"assistant"`
	Credentials llm.Credentials        `yaml:"credentials,omitempty" json:"-"`
	Temporal    TemporalConfig         `yaml:"temporal" json:"temporal"`
	Log         LogConfig              `yaml:"log" json:"log"`
	UI          UIConfig               `yaml:"ui" json:"ui"`
}

// StorageConfig selects where history is persisted.
type StorageConfig struct {
	// Backend is "file" (default), "badger" or "memory".
	Backend string `yaml:"backend" json:"backend"`

	// Path overrides the backend's default location under DataDir.
	Path string `yaml:"path" json:"path"`

	// HistoryLimit caps the number of records kept (default 50).
	HistoryLimit int `yaml:"history_limit" json:"history_limit"`
}

// TemporalConfig routes assistant calls through Temporal workflows.
type TemporalConfig struct {
	Enabled   bool   `yaml:"enabled" json:"enabled"`
	HostPort  string `yaml:"host_port" json:"host_port"`
	Namespace string `yaml:"namespace" json:"namespace"`
	TaskQueue string `yaml:"task_queue" json:"task_queue"`
}

// LogConfig controls the log file.
type LogConfig struct {
	Level string `yaml:"level" json:"level"`
	Path  string `yaml:"path" json:"path"`
}

// UIConfig controls the terminal UI.
type UIConfig struct {
	NoColor bool `yaml:"no_color" json:"no_color"`
	Inline  bool `yaml:"inline" json:"inline"`
}

const (
	defaultDirName   = ".smartcalc"
	defaultTaskQueue = "smartcalc"
	defaultLogLevel  = "info"
)

// Default returns the default configuration.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		DataDir: filepath.Join(homeDir, defaultDirName),
		Storage: StorageConfig{
			Backend:      StorageFile,
			HistoryLimit: history.DefaultLimit,
		},
		Assistant: models.DefaultAssistantConfig(),
		Temporal: TemporalConfig{
			TaskQueue: defaultTaskQueue,
		},
		Log: LogConfig{
			Level: defaultLogLevel,
		},
	}
}

// Load loads configuration with proper precedence.
// Priority: flags > env > project > home > defaults
func Load(flagOverrides *Config) (*Config, error) {
	cfg := Default()

	homeConfig, err := loadFromPath(homeConfigPath())
	if err != nil {
		return nil, err
	}
	if homeConfig != nil {
		cfg = merge(cfg, homeConfig)
	}

	projectConfig, err := loadFromPath(projectConfigPath())
	if err != nil {
		return nil, err
	}
	if projectConfig != nil {
		cfg = merge(cfg, projectConfig)
	}

	cfg, err = applyEnv(cfg)
	if err != nil {
		return nil, err
	}

	if flagOverrides != nil {
		cfg = merge(cfg, flagOverrides)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports configuration errors.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case StorageFile, StorageBadger, StorageMemory:
	default:
		return fmt.Errorf("unknown storage backend %q (supported: file, badger, memory)", c.Storage.Backend)
	}
	if c.Storage.HistoryLimit < 0 {
		return errors.New("storage.history_limit must not be negative")
	}
	for name, m := range map[string]models.ModelConfig{"explain": c.Assistant.Explain, "solve": c.Assistant.Solve} {
		if m.Model == "" {
			return fmt.Errorf("assistant.%s.model must be set", name)
		}
		switch m.Provider {
		case "", models.ProviderOpenAI, models.ProviderAnthropic:
		default:
			return fmt.Errorf("assistant.%s.provider %q is not supported (supported: openai, anthropic)", name, m.Provider)
		}
	}
	return nil
}

// StoragePath returns the resolved history store location.
func (c *Config) StoragePath() string {
	if c.Storage.Path != "" {
		return expandHome(c.Storage.Path)
	}
	switch c.Storage.Backend {
	case StorageBadger:
		return filepath.Join(expandHome(c.DataDir), "history.db")
	default:
		return filepath.Join(expandHome(c.DataDir), "storage.json")
	}
}

// LogPath returns the resolved log file location.
func (c *Config) LogPath() string {
	if c.Log.Path != "" {
		return expandHome(c.Log.Path)
	}
	return filepath.Join(expandHome(c.DataDir), "smartcalc.log")
}

// homeConfigPath returns the home config path.
func homeConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, defaultDirName, "config.yaml")
}

// projectConfigPath returns the project config path.
func projectConfigPath() string {
	if override := strings.TrimSpace(os.Getenv("SMARTCALC_CONFIG")); override != "" {
		return override
	}
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return filepath.Join(cwd, ".smartcalc.yaml")
}

// loadFromPath loads config from a YAML file. A missing file yields nil.
func loadFromPath(path string) (*Config, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}

// applyEnv applies environment variable overrides.
func applyEnv(cfg *Config) (*Config, error) {
	if v := os.Getenv("SMARTCALC_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("SMARTCALC_STORAGE"); v != "" {
		cfg.Storage.Backend = v
	}
	if v := os.Getenv("SMARTCALC_STORAGE_PATH"); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv("SMARTCALC_HISTORY_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("SMARTCALC_HISTORY_LIMIT: %w", err)
		}
		cfg.Storage.HistoryLimit = n
	}
	if v := os.Getenv("SMARTCALC_EXPLAIN_MODEL"); v != "" {
		cfg.Assistant.Explain.Model = v
		cfg.Assistant.Explain.Provider = llm.DetectProvider(v)
	}
	if v := os.Getenv("SMARTCALC_SOLVE_MODEL"); v != "" {
		cfg.Assistant.Solve.Model = v
		cfg.Assistant.Solve.Provider = llm.DetectProvider(v)
	}
	if isTruthy(os.Getenv("SMARTCALC_TEMPORAL")) {
		cfg.Temporal.Enabled = true
	}
	if v := os.Getenv("SMARTCALC_TEMPORAL_HOST"); v != "" {
		cfg.Temporal.HostPort = v
	}
	if v := os.Getenv("SMARTCALC_TEMPORAL_NAMESPACE"); v != "" {
		cfg.Temporal.Namespace = v
	}
	if v := os.Getenv("SMARTCALC_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if os.Getenv("NO_COLOR") != "" {
		cfg.UI.NoColor = true
	}
	return cfg, nil
}

func isTruthy(v string) bool {
	return v == "true" || v == "1"
}

// mergeStr overwrites dst with src when src is non-empty.
func mergeStr(dst *string, src string) {
	if src != "" {
		*dst = src
	}
}

// mergeInt overwrites dst with src when src is non-zero.
func mergeInt(dst *int, src int) {
	if src != 0 {
		*dst = src
	}
}

// merge merges src into dst, with src values taking precedence.
// Booleans can only be switched on by a higher layer.
func merge(dst, src *Config) *Config {
	mergeStr(&dst.DataDir, src.DataDir)

	mergeStr(&dst.Storage.Backend, src.Storage.Backend)
	mergeStr(&dst.Storage.Path, src.Storage.Path)
	mergeInt(&dst.Storage.HistoryLimit, src.Storage.HistoryLimit)

	mergeModel(&dst.Assistant.Explain, &src.Assistant.Explain)
	mergeModel(&dst.Assistant.Solve, &src.Assistant.Solve)

	mergeStr(&dst.Credentials.OpenAIKey, src.Credentials.OpenAIKey)
	mergeStr(&dst.Credentials.AnthropicKey, src.Credentials.AnthropicKey)

	if src.Temporal.Enabled {
		dst.Temporal.Enabled = true
	}
	mergeStr(&dst.Temporal.HostPort, src.Temporal.HostPort)
	mergeStr(&dst.Temporal.Namespace, src.Temporal.Namespace)
	mergeStr(&dst.Temporal.TaskQueue, src.Temporal.TaskQueue)

	mergeStr(&dst.Log.Level, src.Log.Level)
	mergeStr(&dst.Log.Path, src.Log.Path)

	if src.UI.NoColor {
		dst.UI.NoColor = true
	}
	if src.UI.Inline {
		dst.UI.Inline = true
	}
	return dst
}

// mergeModel merges one task's model settings. A model named without a
// provider has its provider re-detected.
func mergeModel(dst, src *models.ModelConfig) {
	if src.Model != "" {
		dst.Model = src.Model
		dst.Provider = src.Provider
		if dst.Provider == "" {
			dst.Provider = llm.DetectProvider(src.Model)
		}
	} else {
		mergeStr(&dst.Provider, src.Provider)
	}
	if src.Temperature != 0 {
		dst.Temperature = src.Temperature
	}
	mergeInt(&dst.MaxTokens, src.MaxTokens)
}

// expandHome replaces a leading "~/" with the user's home directory.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

// Marshal renders the effective configuration as YAML, without credentials.
func (c *Config) Marshal() ([]byte, error) {
	redacted := *c
	redacted.Credentials = llm.Credentials{}
	return yaml.Marshal(&redacted)
}
