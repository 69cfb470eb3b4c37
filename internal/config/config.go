package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	DataDir        string        `mapstructure:"data_dir"`
	Backend        string        `mapstructure:"backend"`
	BaseURL        string        `mapstructure:"base_url"`
	Debounce       time.Duration `mapstructure:"debounce"`
	StartPreview   bool          `mapstructure:"start_preview"`
	Style          string        `mapstructure:"style"`
	HighlightStyle string        `mapstructure:"highlight_style"`
	MaxFragment    int           `mapstructure:"max_fragment"`
	LogFile        string        `mapstructure:"log_file"`
	LogLevel       string        `mapstructure:"log_level"`
	LogFormat      string        `mapstructure:"log_format"`
}

// New returns a viper instance with notex defaults and NOTEX_* environment
// overrides. Flags can be bound to it before Load.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault("data_dir", defaultDataDir())
	v.SetDefault("backend", BackendFile)
	v.SetDefault("base_url", "https://notex.app/")
	v.SetDefault("debounce", 300*time.Millisecond)
	v.SetDefault("start_preview", true)
	v.SetDefault("style", "auto")
	v.SetDefault("highlight_style", "monokai")
	v.SetDefault("max_fragment", 0)
	v.SetDefault("log_file", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	v.SetEnvPrefix("NOTEX")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the config file (path, or the default location when empty)
// into v and returns the resolved configuration. A missing default file is
// not an error. The data directory is created.
func Load(v *viper.Viper, path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if _, err := os.Stat(path); err == nil || explicit {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.LogFile == "" {
		cfg.LogFile = filepath.Join(cfg.DataDir, "notex.log")
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Backend {
	case BackendFile, BackendSQLite:
	default:
		return fmt.Errorf("backend %q (want %s or %s): %w", c.Backend, BackendFile, BackendSQLite, ErrInvalid)
	}
	if c.Debounce < 0 {
		return fmt.Errorf("negative debounce %s: %w", c.Debounce, ErrInvalid)
	}
	if c.MaxFragment < 0 {
		return fmt.Errorf("negative max_fragment: %w", ErrInvalid)
	}
	if c.DataDir == "" {
		return fmt.Errorf("empty data_dir: %w", ErrInvalid)
	}
	return nil
}

// StorePath is where the selected backend keeps its data.
func (c *Config) StorePath() string {
	if c.Backend == BackendSQLite {
		return filepath.Join(c.DataDir, "notex.db")
	}
	return filepath.Join(c.DataDir, "kv")
}

func DefaultPath() string {
	return filepath.Join(xdgConfig(), "notex", "config.json")
}

func xdgConfig() string {
	if d := os.Getenv("XDG_CONFIG_HOME"); d != "" {
		return d
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config")
}

func defaultDataDir() string {
	if d := os.Getenv("XDG_DATA_HOME"); d != "" {
		return filepath.Join(d, "notex")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "notex")
}
