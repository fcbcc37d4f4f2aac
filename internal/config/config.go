package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	AppName               = "daycal"
	DefaultConfigFileName = "config.toml"
	DefaultLogFileName    = "daycal.log"
	DefaultServerURL      = "http://localhost:5001"
	DefaultTimeoutSeconds = 5

	// ServerURLEnv overrides server_url from the config file.
	ServerURLEnv = "DAYCAL_SERVER_URL"
)

type Keymap struct {
	Quit      string `toml:"quit"`
	Left      string `toml:"left"`
	Right     string `toml:"right"`
	Up        string `toml:"up"`
	Down      string `toml:"down"`
	PrevMonth string `toml:"prev_month"`
	NextMonth string `toml:"next_month"`
	Today     string `toml:"today"`
	Focus     string `toml:"focus"`
	Add       string `toml:"add"`
	Toggle    string `toml:"toggle"`
	Delete    string `toml:"delete"`
	Edit      string `toml:"edit"`
	Priority  string `toml:"priority"`
	Confirm   string `toml:"confirm"`
	Cancel    string `toml:"cancel"`
	Reload    string `toml:"reload"`
}

type Config struct {
	ServerURL      string `toml:"server_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	LogFile        string `toml:"log_file"`
	LogLevel       string `toml:"log_level"`
	LogFormat      string `toml:"log_format"`
	Keys           Keymap `toml:"keys"`
}

// ResolveConfigPath returns $XDG_CONFIG_HOME/daycal/config.toml, falling back to
// ~/.config/daycal/config.toml.
func ResolveConfigPath() string {
	return filepath.Join(DefaultConfigDir(), DefaultConfigFileName)
}

func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// LoadOrCreate reads the config at path, writing the defaults there first if the
// file does not exist yet. Empty fields fall back to their defaults.
func LoadOrCreate(path string) (Config, error) {
	cfg := defaultConfig(filepath.Dir(path))
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := write(path, cfg); err != nil {
			return cfg, err
		}
		applyEnv(&cfg)
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	fillDefaults(&cfg, filepath.Dir(path))
	applyEnv(&cfg)
	return cfg, nil
}

func write(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(ServerURLEnv)); v != "" {
		cfg.ServerURL = v
	}
}

func fillDefaults(cfg *Config, dir string) {
	def := defaultConfig(dir)
	if cfg.ServerURL == "" {
		cfg.ServerURL = def.ServerURL
	}
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = def.TimeoutSeconds
	}
	if cfg.LogFile == "" {
		cfg.LogFile = def.LogFile
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = def.LogLevel
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = def.LogFormat
	}
	fillKey(&cfg.Keys.Quit, def.Keys.Quit)
	fillKey(&cfg.Keys.Left, def.Keys.Left)
	fillKey(&cfg.Keys.Right, def.Keys.Right)
	fillKey(&cfg.Keys.Up, def.Keys.Up)
	fillKey(&cfg.Keys.Down, def.Keys.Down)
	fillKey(&cfg.Keys.PrevMonth, def.Keys.PrevMonth)
	fillKey(&cfg.Keys.NextMonth, def.Keys.NextMonth)
	fillKey(&cfg.Keys.Today, def.Keys.Today)
	fillKey(&cfg.Keys.Focus, def.Keys.Focus)
	fillKey(&cfg.Keys.Add, def.Keys.Add)
	fillKey(&cfg.Keys.Toggle, def.Keys.Toggle)
	fillKey(&cfg.Keys.Delete, def.Keys.Delete)
	fillKey(&cfg.Keys.Edit, def.Keys.Edit)
	fillKey(&cfg.Keys.Priority, def.Keys.Priority)
	fillKey(&cfg.Keys.Confirm, def.Keys.Confirm)
	fillKey(&cfg.Keys.Cancel, def.Keys.Cancel)
	fillKey(&cfg.Keys.Reload, def.Keys.Reload)
}

func fillKey(k *string, def string) {
	if *k == "" {
		*k = def
	}
}

// Default returns the built-in configuration with logs written under dir.
func Default(dir string) Config {
	return defaultConfig(dir)
}

func defaultConfig(dir string) Config {
	return Config{
		ServerURL:      DefaultServerURL,
		TimeoutSeconds: DefaultTimeoutSeconds,
		LogFile:        filepath.Join(dir, DefaultLogFileName),
		LogLevel:       "info",
		LogFormat:      "text",
		Keys: Keymap{
			Quit:      "q",
			Left:      "h",
			Right:     "l",
			Up:        "k",
			Down:      "j",
			PrevMonth: "[",
			NextMonth: "]",
			Today:     "t",
			Focus:     "tab",
			Add:       "a",
			Toggle:    " ",
			Delete:    "d",
			Edit:      "e",
			Priority:  "tab",
			Confirm:   "enter",
			Cancel:    "esc",
			Reload:    "r",
		},
	}
}
