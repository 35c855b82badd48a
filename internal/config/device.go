package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DeviceConfig configures the device runtime (ironlog-device).
type DeviceConfig struct {
	ServerURL   string            `yaml:"server_url"`
	Token       string            `yaml:"token"`
	UserID      string            `yaml:"user_id"`
	Email       string            `yaml:"email"`
	DeviceID    string            `yaml:"device_id"`
	StateDir    string            `yaml:"state_dir"`
	Sync        DeviceSyncConfig  `yaml:"sync"`
	Progression ProgressionConfig `yaml:"progression"`
}

type DeviceSyncConfig struct {
	Interval    time.Duration `yaml:"interval"`
	MinGap      time.Duration `yaml:"min_gap"`
	SignInDelay time.Duration `yaml:"sign_in_delay"`
}

// ProgressionConfig is the fallback used until the user's settings are synced.
type ProgressionConfig struct {
	Increment       float64 `yaml:"increment"`
	AutoProgression *bool   `yaml:"auto_progression"`
	Unit            string  `yaml:"unit"`
}

// SyncEnabled reports whether the device has enough to reach a server.
func (c *DeviceConfig) SyncEnabled() bool {
	return c.ServerURL != "" && c.Token != ""
}

// LoadDotEnv loads KEY=VALUE pairs from the given files into the environment
// without overriding variables that are already set. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

// LoadDevice reads the device config. An empty path skips the file and relies on
// IRONLOG_DEVICE_* variables:
//
//	IRONLOG_DEVICE_SERVER_URL, IRONLOG_DEVICE_TOKEN, IRONLOG_DEVICE_USER_ID,
//	IRONLOG_DEVICE_EMAIL, IRONLOG_DEVICE_ID, IRONLOG_DEVICE_STATE_DIR,
//	IRONLOG_DEVICE_SYNC_INTERVAL, IRONLOG_DEVICE_SYNC_MIN_GAP,
//	IRONLOG_DEVICE_PROGRESSION_INCREMENT, IRONLOG_DEVICE_PROGRESSION_UNIT
func LoadDevice(path string) (*DeviceConfig, error) {
	cfg := &DeviceConfig{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyDeviceEnvOverrides(cfg)
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func applyDeviceEnvOverrides(cfg *DeviceConfig) {
	if v := os.Getenv("IRONLOG_DEVICE_SERVER_URL"); v != "" {
		cfg.ServerURL = v
	}
	if v := os.Getenv("IRONLOG_DEVICE_TOKEN"); v != "" {
		cfg.Token = v
	}
	if v := os.Getenv("IRONLOG_DEVICE_USER_ID"); v != "" {
		cfg.UserID = v
	}
	if v := os.Getenv("IRONLOG_DEVICE_EMAIL"); v != "" {
		cfg.Email = v
	}
	if v := os.Getenv("IRONLOG_DEVICE_ID"); v != "" {
		cfg.DeviceID = v
	}
	if v := os.Getenv("IRONLOG_DEVICE_STATE_DIR"); v != "" {
		cfg.StateDir = v
	}
	if v := os.Getenv("IRONLOG_DEVICE_SYNC_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Sync.Interval = d
		}
	}
	if v := os.Getenv("IRONLOG_DEVICE_SYNC_MIN_GAP"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Sync.MinGap = d
		}
	}
	if v := os.Getenv("IRONLOG_DEVICE_PROGRESSION_INCREMENT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Progression.Increment = f
		}
	}
	if v := os.Getenv("IRONLOG_DEVICE_PROGRESSION_UNIT"); v != "" {
		cfg.Progression.Unit = v
	}
}

func (c *DeviceConfig) applyDefaults() {
	if c.StateDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			c.StateDir = filepath.Join(home, ".ironlog")
		} else {
			c.StateDir = ".ironlog"
		}
	}
	if c.Sync.Interval == 0 {
		c.Sync.Interval = 5 * time.Minute
	}
	if c.Sync.MinGap == 0 {
		c.Sync.MinGap = 60 * time.Second
	}
	if c.Sync.SignInDelay == 0 {
		c.Sync.SignInDelay = 2 * time.Second
	}
	if c.Progression.Increment == 0 {
		c.Progression.Increment = 2.5
	}
	if c.Progression.AutoProgression == nil {
		on := true
		c.Progression.AutoProgression = &on
	}
	if c.Progression.Unit == "" {
		c.Progression.Unit = "kg"
	}
}

func (c *DeviceConfig) validate() error {
	if c.UserID == "" {
		return fmt.Errorf("user_id is required")
	}
	if c.Progression.Unit != "kg" && c.Progression.Unit != "lb" {
		return fmt.Errorf("progression.unit must be kg or lb, got %q", c.Progression.Unit)
	}
	if c.Progression.Increment < 0 {
		return fmt.Errorf("progression.increment must be positive")
	}
	if c.Sync.Interval < 0 || c.Sync.MinGap < 0 || c.Sync.SignInDelay < 0 {
		return fmt.Errorf("sync durations must not be negative")
	}
	if c.Token != "" && c.ServerURL == "" {
		return fmt.Errorf("server_url is required when token is set")
	}
	return nil
}
