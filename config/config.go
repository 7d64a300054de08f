// Package config defines the Minder application configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level Minder configuration.
type Config struct {
	Data      DataConfig     `json:"data" yaml:"data"`
	Server    ServerConfig   `json:"server" yaml:"server"`
	Auth      AuthConfig     `json:"auth" yaml:"auth"`
	Reminders ReminderConfig `json:"reminders" yaml:"reminders"`
	LogLevel  string         `json:"log_level" yaml:"log_level"`
}

// DataConfig locates the persisted documents.
type DataConfig struct {
	Dir         string `json:"dir" yaml:"dir"`                   // defaults to the platform config dir
	TasksFile   string `json:"tasks_file" yaml:"tasks_file"`     // relative to Dir unless absolute
	RemindersDB string `json:"reminders_db" yaml:"reminders_db"` // relative to Dir unless absolute
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr"` // listen address, e.g., ":9190"
}

// AuthConfig controls bridge authentication.
type AuthConfig struct {
	JWTSecret string `json:"jwt_secret" yaml:"jwt_secret"`
	AdminUser string `json:"admin_user" yaml:"admin_user"`
	AdminPass string `json:"admin_pass" yaml:"admin_pass"` // bcrypt hash
}

// ReminderConfig controls the reminder scheduler.
type ReminderConfig struct {
	CheckInterval time.Duration `json:"check_interval" yaml:"check_interval"`
}

// UnmarshalYAML accepts check_interval as a duration string such as "30s".
func (r *ReminderConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		CheckInterval string `yaml:"check_interval"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if raw.CheckInterval != "" {
		d, err := time.ParseDuration(raw.CheckInterval)
		if err != nil {
			return fmt.Errorf("parse check_interval: %w", err)
		}
		r.CheckInterval = d
	}
	return nil
}

// DefaultConfig returns a config with sensible defaults. The data directory
// falls back to the platform config dir; a final fallback of ./data covers
// environments without one.
func DefaultConfig() *Config {
	dataDir := "./data"
	if base, err := os.UserConfigDir(); err == nil {
		dataDir = filepath.Join(base, "minder")
	}
	return &Config{
		Data: DataConfig{
			Dir:         dataDir,
			TasksFile:   "tasks.json",
			RemindersDB: "reminders.db",
		},
		Server: ServerConfig{
			Addr: ":9190",
		},
		Auth: AuthConfig{
			AdminUser: "admin",
		},
		Reminders: ReminderConfig{
			CheckInterval: time.Minute,
		},
		LogLevel: "info",
	}
}

// Load reads a YAML config file over the defaults. An empty path returns the
// defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// TasksPath resolves the task document location.
func (c *Config) TasksPath() string {
	return resolve(c.Data.Dir, c.Data.TasksFile)
}

// RemindersPath resolves the reminder database location.
func (c *Config) RemindersPath() string {
	return resolve(c.Data.Dir, c.Data.RemindersDB)
}

func resolve(dir, file string) string {
	if filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(dir, file)
}
