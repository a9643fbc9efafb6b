// Package config loads runtime settings from a YAML file, an optional .env
// file and STICKMAN_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/ayusman/stickman/internal/capture"
	"github.com/ayusman/stickman/internal/detector"
	"github.com/ayusman/stickman/internal/game"
)

// UI modes.
const (
	UITray = "tray"
	UITUI  = "tui"
	UINone = "none"
)

// ErrInvalid is returned when a loaded configuration fails validation.
var ErrInvalid = errors.New("invalid config")

// Config is the complete runtime configuration.
type Config struct {
	Addr        string        `yaml:"addr"`
	DataDir     string        `yaml:"data_dir"`
	DBPath      string        `yaml:"db_path"`
	StaticDir   string        `yaml:"static_dir"`
	PluginDir   string        `yaml:"plugin_dir"`
	LogLevel    string        `yaml:"log_level"`
	LogFile     string        `yaml:"log_file"`
	UI          string        `yaml:"ui"`
	Mute        bool          `yaml:"mute"`
	PlayerName  string        `yaml:"player_name"`
	TickRate    int           `yaml:"tick_rate"`
	MotionThres float64       `yaml:"motion_threshold"`
	HookTimeout time.Duration `yaml:"hook_timeout"`

	Control  ControlConfig   `yaml:"control"`
	Camera   capture.Config  `yaml:"camera"`
	Detector detector.Config `yaml:"detector"`
	Game     game.Tuning     `yaml:"game"`
}

// ControlConfig limits manual override commands over HTTP.
type ControlConfig struct {
	Rate  float64 `yaml:"rate"`
	Burst int     `yaml:"burst"`
}

// Default returns the configuration used when nothing overrides it. Paths
// live under ~/.stickman.
func Default() Config {
	dataDir := ".stickman"
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(home, ".stickman")
	}

	return Config{
		Addr:        ":8080",
		DataDir:     dataDir,
		LogLevel:    "info",
		UI:          UITray,
		TickRate:    60,
		MotionThres: 1.0,
		HookTimeout: 5 * time.Second,
		Control:     ControlConfig{Rate: 20, Burst: 5},
		Camera:      capture.DefaultConfig(),
		Detector:    detector.DefaultConfig(),
		Game:        game.DefaultTuning(),
	}
}

// Load builds the configuration. path names a YAML file; when empty,
// config.yaml in the data directory is read if it exists. A .env file in
// the working directory supplies STICKMAN_* values that the process
// environment has not set.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		candidate := filepath.Join(cfg.DataDir, "config.yaml")
		if _, err := os.Stat(candidate); err == nil {
			path = candidate
		}
	}
	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return Config{}, err
		}
	}

	dotenv, err := godotenv.Read(".env")
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("read .env: %w", err)
	}
	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}
	if err := cfg.applyEnv(lookup); err != nil {
		return Config{}, err
	}

	cfg.fillPaths()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// applyEnv overrides fields from STICKMAN_* variables.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"STICKMAN_ADDR":        &c.Addr,
		"STICKMAN_DATA_DIR":    &c.DataDir,
		"STICKMAN_DB":          &c.DBPath,
		"STICKMAN_STATIC_DIR":  &c.StaticDir,
		"STICKMAN_PLUGIN_DIR":  &c.PluginDir,
		"STICKMAN_LOG_LEVEL":   &c.LogLevel,
		"STICKMAN_LOG_FILE":    &c.LogFile,
		"STICKMAN_UI":          &c.UI,
		"STICKMAN_PLAYER_NAME": &c.PlayerName,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"STICKMAN_CAMERA":    &c.Camera.DeviceID,
		"STICKMAN_TICK_RATE": &c.TickRate,
	}
	for key, dst := range ints {
		v, ok := lookup(key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not an integer", ErrInvalid, key, v)
		}
		*dst = n
	}

	if v, ok := lookup("STICKMAN_MUTE"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: STICKMAN_MUTE=%q is not a boolean", ErrInvalid, v)
		}
		c.Mute = b
	}
	return nil
}

// fillPaths derives unset file locations from the data directory.
func (c *Config) fillPaths() {
	if c.DBPath == "" {
		c.DBPath = filepath.Join(c.DataDir, "stickman.db")
	}
	if c.PluginDir == "" {
		c.PluginDir = filepath.Join(c.DataDir, "plugins")
	}
	if c.LogFile == "" {
		c.LogFile = filepath.Join(c.DataDir, "stickman.log")
	}
}

// Validate checks values that would otherwise fail later at startup.
func (c Config) Validate() error {
	switch c.UI {
	case UITray, UITUI, UINone:
	default:
		return fmt.Errorf("%w: ui %q, want tray, tui or none", ErrInvalid, c.UI)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: log_level %q", ErrInvalid, c.LogLevel)
	}
	if c.TickRate <= 0 || c.TickRate > 240 {
		return fmt.Errorf("%w: tick_rate %d out of range", ErrInvalid, c.TickRate)
	}
	if c.Camera.DeviceID < 0 {
		return fmt.Errorf("%w: camera device %d", ErrInvalid, c.Camera.DeviceID)
	}
	if c.Control.Rate < 0 || c.Control.Burst < 0 {
		return fmt.Errorf("%w: negative control limits", ErrInvalid)
	}
	return nil
}
