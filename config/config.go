package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig       `toml:"app"`
	Hotkey    HotkeyConfig    `toml:"hotkey"`
	Clipboard ClipboardConfig `toml:"clipboard"`
	Output    OutputConfig    `toml:"output"`
	OpenAI    OpenAIConfig    `toml:"openai"`
	Log       LogConfig       `toml:"log"`
	History   HistoryConfig   `toml:"history"`
	Web       WebConfig       `toml:"web"`
	Notify    NotifyConfig    `toml:"notify"`

	// Env is resolved once from the process environment and never written to disk
	Env Env `toml:"-"`
}

type AppConfig struct {
	StartEnabled   bool   `toml:"start_enabled"`
	PollIntervalMs int    `toml:"poll_interval_ms"`
	Overlap        string `toml:"overlap"` // allow | skip
}

type HotkeyConfig struct {
	Combo      string `toml:"combo"`
	Strategy   string `toml:"strategy"` // register | hook
	DebounceMs int    `toml:"debounce_ms"`
}

type ClipboardConfig struct {
	Mode             string `toml:"mode"` // selection | clipboard
	CaptureTimeoutMs int    `toml:"capture_timeout_ms"`
}

type OutputConfig struct {
	AutoPaste    bool `toml:"auto_paste"`
	PasteDelayMs int  `toml:"paste_delay_ms"`
}

type OpenAIConfig struct {
	BaseURL        string  `toml:"base_url"`
	Model          string  `toml:"model"`
	MaxTokens      int     `toml:"max_tokens"`
	Temperature    float32 `toml:"temperature"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
}

type LogConfig struct {
	Level      string `toml:"level"`
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
}

type HistoryConfig struct {
	Enabled bool `toml:"enabled"`
}

type WebConfig struct {
	Enabled bool `toml:"enabled"`
	Port    int  `toml:"port"`
}

type NotifyConfig struct {
	Enabled bool `toml:"enabled"`
}

// Env holds the values that come from the environment (or a .env file)
type Env struct {
	OpenAIAPIKey string `env:"OPENAI_API_KEY"`
	LogLevel     string `env:"REFIX_LOG_LEVEL"`
}

const (
	OverlapAllow = "allow"
	OverlapSkip  = "skip"

	StrategyRegister = "register"
	StrategyHook     = "hook"

	ModeSelection = "selection"
	ModeClipboard = "clipboard"
)

// Default configuration
func defaultConfig() *Config {
	return &Config{
		App: AppConfig{
			StartEnabled:   false,
			PollIntervalMs: 100,
			Overlap:        OverlapAllow,
		},
		Hotkey: HotkeyConfig{
			Combo:      "super+shift+e",
			Strategy:   StrategyRegister,
			DebounceMs: 1000,
		},
		Clipboard: ClipboardConfig{
			Mode:             ModeSelection,
			CaptureTimeoutMs: 1000,
		},
		Output: OutputConfig{
			AutoPaste:    true,
			PasteDelayMs: 100,
		},
		OpenAI: OpenAIConfig{
			BaseURL:        "https://api.openai.com/v1",
			Model:          "gpt-4o-mini",
			MaxTokens:      1000,
			Temperature:    0.7,
			TimeoutSeconds: 30,
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
		Web: WebConfig{
			Port: 8765,
		},
	}
}

// Dir returns the per-user configuration directory, creating it if needed
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate user config directory: %w", err)
	}

	dir := filepath.Join(base, "refix")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	return dir, nil
}

// ConfigPath returns the path to the default configuration file
func ConfigPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads the configuration from path (the default location when empty).
// A missing file is created with default values. Environment values are
// layered on top and the result is validated.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg := defaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := save(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	} else if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := loadEnv(&cfg.Env); err != nil {
		return nil, err
	}
	if cfg.Env.LogLevel != "" {
		cfg.Log.Level = cfg.Env.LogLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadEnv reads an optional .env from the working directory, then the process environment
func loadEnv(e *Env) error {
	_ = godotenv.Load()

	if err := env.Parse(e); err != nil {
		return fmt.Errorf("failed to parse environment: %w", err)
	}
	e.OpenAIAPIKey = strings.TrimSpace(e.OpenAIAPIKey)
	return nil
}

// Validate checks enum values, intervals and the hotkey combo
func (c *Config) Validate() error {
	switch c.App.Overlap {
	case OverlapAllow, OverlapSkip:
	default:
		return fmt.Errorf("invalid app.overlap %q (want %q or %q)", c.App.Overlap, OverlapAllow, OverlapSkip)
	}
	switch c.Hotkey.Strategy {
	case StrategyRegister, StrategyHook:
	default:
		return fmt.Errorf("invalid hotkey.strategy %q (want %q or %q)", c.Hotkey.Strategy, StrategyRegister, StrategyHook)
	}
	switch c.Clipboard.Mode {
	case ModeSelection, ModeClipboard:
	default:
		return fmt.Errorf("invalid clipboard.mode %q (want %q or %q)", c.Clipboard.Mode, ModeSelection, ModeClipboard)
	}

	if c.App.PollIntervalMs <= 0 {
		return fmt.Errorf("app.poll_interval_ms must be positive")
	}
	if c.Hotkey.DebounceMs < 0 {
		return fmt.Errorf("hotkey.debounce_ms must not be negative")
	}
	if c.Clipboard.CaptureTimeoutMs <= 0 {
		return fmt.Errorf("clipboard.capture_timeout_ms must be positive")
	}
	if c.OpenAI.MaxTokens <= 0 {
		return fmt.Errorf("openai.max_tokens must be positive")
	}
	// go-openai omits a zero temperature from the request, so 0 would mean the server default
	if c.OpenAI.Temperature <= 0 || c.OpenAI.Temperature > 2 {
		return fmt.Errorf("openai.temperature must be in (0, 2], got %v", c.OpenAI.Temperature)
	}
	if c.Web.Enabled && (c.Web.Port <= 0 || c.Web.Port > 65535) {
		return fmt.Errorf("web.port out of range: %d", c.Web.Port)
	}

	if _, err := ParseHotkey(c.Hotkey.Combo); err != nil {
		return fmt.Errorf("invalid hotkey.combo: %w", err)
	}
	return nil
}

// PollInterval returns the shell tick period
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.App.PollIntervalMs) * time.Millisecond
}

// Debounce returns the minimum interval between forwarded shortcut events
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.Hotkey.DebounceMs) * time.Millisecond
}

// CaptureTimeout bounds how long a selection copy may take
func (c *Config) CaptureTimeout() time.Duration {
	return time.Duration(c.Clipboard.CaptureTimeoutMs) * time.Millisecond
}

// PasteDelay is the pause between writing the clipboard and pasting
func (c *Config) PasteDelay() time.Duration {
	return time.Duration(c.Output.PasteDelayMs) * time.Millisecond
}

// RequestTimeout bounds one completion request
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.OpenAI.TimeoutSeconds) * time.Second
}

// HasAPIKey reports whether the improvement pipeline can be enabled
func (c *Config) HasAPIKey() bool {
	return c.Env.OpenAIAPIKey != ""
}

// save writes the configuration to the TOML file
func save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}
