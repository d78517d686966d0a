// Package config loads runtime settings for the tycoon server.
//
// Precedence, lowest first: built-in defaults, the YAML config file, a .env
// file in the working directory, then TYCOON_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	ListenAddr   string        `yaml:"listen_addr"`
	CatalogPath  string        `yaml:"catalog_path"`  // Empty = built-in catalog
	TickInterval time.Duration `yaml:"tick_interval"` // Accrual loop period
	SaveInterval time.Duration `yaml:"save_interval"` // Accrued time between periodic saves
	OfflineCap   time.Duration `yaml:"offline_cap"`   // Max absence credited at boot

	Store StoreConfig `yaml:"store"`

	// Per-connection websocket intents per second (burst is twice this)
	MaxMessagesPerSecond int `yaml:"max_messages_per_second"`
}

type StoreConfig struct {
	Driver string `yaml:"driver"` // file | sqlite | memory
	Path   string `yaml:"path"`
	Slot   string `yaml:"slot"`
}

func Default() Config {
	return Config{
		ListenAddr:   ":8081",
		CatalogPath:  "",
		TickInterval: 100 * time.Millisecond,
		SaveInterval: 5 * time.Second,
		OfflineCap:   6 * time.Hour,
		Store: StoreConfig{
			Driver: "file",
			Path:   "data/tycoon_save_v1.json",
			Slot:   "tycoon_save_v1",
		},
		MaxMessagesPerSecond: 30,
	}
}

// Load builds the configuration. A missing file at path is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	// 1. YAML file
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	// 2. .env (optional)
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}

	// 3. Environment
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}

	return cfg, cfg.Validate()
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("TYCOON_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("TYCOON_CATALOG_PATH"); v != "" {
		cfg.CatalogPath = v
	}
	if v := os.Getenv("TYCOON_STORE_DRIVER"); v != "" {
		cfg.Store.Driver = v
	}
	if v := os.Getenv("TYCOON_STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("TYCOON_STORE_SLOT"); v != "" {
		cfg.Store.Slot = v
	}

	durations := map[string]*time.Duration{
		"TYCOON_TICK_INTERVAL": &cfg.TickInterval,
		"TYCOON_SAVE_INTERVAL": &cfg.SaveInterval,
		"TYCOON_OFFLINE_CAP":   &cfg.OfflineCap,
	}
	for key, dst := range durations {
		v := os.Getenv(key)
		if v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = d
	}

	if v := os.Getenv("TYCOON_MAX_MESSAGES_PER_SECOND"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("TYCOON_MAX_MESSAGES_PER_SECOND: %w", err)
		}
		cfg.MaxMessagesPerSecond = n
	}
	return nil
}

// Validate rejects settings the server cannot run with.
func (c Config) Validate() error {
	if c.TickInterval <= 0 {
		return fmt.Errorf("tick_interval must be positive, got %s", c.TickInterval)
	}
	if c.SaveInterval <= 0 {
		return fmt.Errorf("save_interval must be positive, got %s", c.SaveInterval)
	}
	if c.OfflineCap < 0 {
		return fmt.Errorf("offline_cap must not be negative, got %s", c.OfflineCap)
	}
	if c.MaxMessagesPerSecond <= 0 {
		return fmt.Errorf("max_messages_per_second must be positive, got %d", c.MaxMessagesPerSecond)
	}
	switch c.Store.Driver {
	case "file", "sqlite", "memory":
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	return nil
}
