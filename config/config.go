// Package config loads settings from a YAML file, a .env file and PEECHES_*
// environment variables, in that order of increasing precedence. Command
// line flags are applied on top by main.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var ErrInvalid = errors.New("invalid config")

const FileName = "peeches.yaml"

type Config struct {
	History HistoryConfig `yaml:"history"`
	Assets  AssetsConfig  `yaml:"assets"`
	Store   StoreConfig   `yaml:"store"`
	Engine  EngineConfig  `yaml:"engine"`
	DataDir string        `yaml:"data_dir"`
	LogPath string        `yaml:"log_path"`
	Debug   bool          `yaml:"debug"`
}

type HistoryConfig struct {
	SamplePeriod    int           `yaml:"sample_period"`
	FocusDelay      time.Duration `yaml:"focus_delay"`
	IdleDelay       time.Duration `yaml:"idle_delay"`
	BottomTolerance int           `yaml:"bottom_tolerance"` // rows in the terminal view
}

type AssetsConfig struct {
	ModelDir         string        `yaml:"model_dir"`
	SettleDelay      time.Duration `yaml:"settle_delay"`
	DownloadThrottle time.Duration `yaml:"download_throttle"`
}

type StoreConfig struct {
	Driver string      `yaml:"driver"`
	Path   string      `yaml:"path"`
	Redis  RedisConfig `yaml:"redis"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

type EngineConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// Default returns a config with every field set. Paths are left empty and
// filled from DataDir by Load.
func Default() *Config {
	return &Config{
		History: HistoryConfig{
			SamplePeriod:    4,
			FocusDelay:      100 * time.Millisecond,
			IdleDelay:       200 * time.Millisecond,
			BottomTolerance: 2,
		},
		Assets: AssetsConfig{
			SettleDelay:      100 * time.Millisecond,
			DownloadThrottle: 200 * time.Millisecond,
		},
		Store:  StoreConfig{Driver: "file"},
		Engine: EngineConfig{Interval: 700 * time.Millisecond},
	}
}

// DefaultDataDir is <user config dir>/peeches.
func DefaultDataDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return "peeches"
	}
	return filepath.Join(base, "peeches")
}

// Load builds the config. An explicit path must exist; with an empty path
// the file in the data dir is used if present.
func Load(path string) (*Config, error) {
	cfg := Default()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	cfg.DataDir = envString("PEECHES_DATA_DIR", cfg.DataDir)

	explicit := path != ""
	if !explicit {
		dir := cfg.DataDir
		if dir == "" {
			dir = DefaultDataDir()
		}
		path = filepath.Join(dir, FileName)
	}
	if err := cfg.readFile(path); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.fillPaths()
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.DataDir = envString("PEECHES_DATA_DIR", c.DataDir)
	c.LogPath = envString("PEECHES_LOG_PATH", c.LogPath)
	c.Assets.ModelDir = envString("PEECHES_MODEL_DIR", c.Assets.ModelDir)
	c.Store.Driver = envString("PEECHES_STORE", c.Store.Driver)
	c.Store.Path = envString("PEECHES_STORE_PATH", c.Store.Path)
	c.Store.Redis.Addr = envString("PEECHES_REDIS_ADDR", c.Store.Redis.Addr)
	c.Store.Redis.Username = envString("PEECHES_REDIS_USERNAME", c.Store.Redis.Username)
	c.Store.Redis.Password = envString("PEECHES_REDIS_PASSWORD", c.Store.Redis.Password)
	c.Store.Redis.Prefix = envString("PEECHES_REDIS_PREFIX", c.Store.Redis.Prefix)

	var err error
	if c.Store.Redis.DB, err = envInt("PEECHES_REDIS_DB", c.Store.Redis.DB); err != nil {
		return err
	}
	if c.History.SamplePeriod, err = envInt("PEECHES_SAMPLE_PERIOD", c.History.SamplePeriod); err != nil {
		return err
	}
	if v, ok := os.LookupEnv("PEECHES_DEBUG"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: PEECHES_DEBUG=%q", ErrInvalid, v)
		}
		c.Debug = b
	}
	return nil
}

// fillPaths derives empty paths from the data dir.
func (c *Config) fillPaths() {
	if c.DataDir == "" {
		c.DataDir = DefaultDataDir()
	}
	if c.Assets.ModelDir == "" {
		c.Assets.ModelDir = filepath.Join(c.DataDir, "models")
	}
	if c.Store.Path == "" {
		c.Store.Path = filepath.Join(c.DataDir, "models.dat")
	}
}

func (c *Config) Validate() error {
	switch {
	case c.History.SamplePeriod < 1:
		return fmt.Errorf("%w: history.sample_period must be at least 1, got %d", ErrInvalid, c.History.SamplePeriod)
	case c.History.FocusDelay < 0 || c.History.IdleDelay < 0:
		return fmt.Errorf("%w: history delays must not be negative", ErrInvalid)
	case c.History.BottomTolerance < 0:
		return fmt.Errorf("%w: history.bottom_tolerance must not be negative", ErrInvalid)
	case c.Assets.SettleDelay < 0 || c.Assets.DownloadThrottle < 0:
		return fmt.Errorf("%w: asset delays must not be negative", ErrInvalid)
	case c.Assets.ModelDir == "":
		return fmt.Errorf("%w: assets.model_dir is empty", ErrInvalid)
	case c.Engine.Interval <= 0:
		return fmt.Errorf("%w: engine.interval must be positive", ErrInvalid)
	}

	switch c.Store.Driver {
	case "file":
		if c.Store.Path == "" {
			return fmt.Errorf("%w: store.path is empty", ErrInvalid)
		}
	case "redis":
		if c.Store.Redis.Addr == "" {
			return fmt.Errorf("%w: store.redis.addr is required for the redis driver", ErrInvalid)
		}
	case "prefs", "memory":
	default:
		return fmt.Errorf("%w: unknown store driver %q", ErrInvalid, c.Store.Driver)
	}
	return nil
}

func envString(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback, fmt.Errorf("%w: %s=%q", ErrInvalid, key, v)
	}
	return n, nil
}
