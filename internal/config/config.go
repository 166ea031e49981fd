// Package config defines the gasrun configuration: where artifacts live,
// how they are encoded, and which scheduler receives submitted tasks.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/maxkimambo/gasrun/internal/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	CodecJSON     = "json"
	CodecProtobuf = "protobuf"

	// DefaultFileName is looked up in the user's home directory when no
	// --config flag is given.
	DefaultFileName = ".gasrun.yaml"
)

// Config is the top-level configuration.
type Config struct {
	CacheRoot string          `yaml:"cache_root"`
	Codec     string          `yaml:"codec"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	LogLevel  string          `yaml:"log_level"`
}

// SchedulerConfig locates the shared scheduler daemon.
type SchedulerConfig struct {
	Host       string        `yaml:"host"`
	Port       int           `yaml:"port"`
	Workers    int           `yaml:"workers"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries uint64        `yaml:"max_retries"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		CacheRoot: filepath.Join(os.TempDir(), "gasrun", "cache"),
		Codec:     CodecJSON,
		Scheduler: SchedulerConfig{
			Host:       "localhost",
			Port:       8082,
			Workers:    1,
			Timeout:    30 * time.Second,
			MaxRetries: 3,
		},
		LogLevel: "info",
	}
}

// Load reads a YAML config file, applies environment overrides and
// validates the result. An empty path yields the defaults plus overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultPath returns $HOME/.gasrun.yaml if it exists, else "".
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	p := filepath.Join(home, DefaultFileName)
	if _, err := os.Stat(p); err != nil {
		return ""
	}
	return p
}

// envOverrides reads GASRUN_<KEY> variables, dots in nested keys becoming
// underscores (scheduler.port is GASRUN_SCHEDULER_PORT). Empty values count
// as unset.
func envOverrides() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("GASRUN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func (c *Config) applyEnv() error {
	v := envOverrides()
	for key, field := range map[string]*string{
		"cache_root":     &c.CacheRoot,
		"codec":          &c.Codec,
		"scheduler.host": &c.Scheduler.Host,
		"log_level":      &c.LogLevel,
	} {
		if v.IsSet(key) {
			*field = v.GetString(key)
		}
	}
	if v.IsSet("scheduler.port") {
		raw := v.GetString("scheduler.port")
		port, err := strconv.Atoi(raw)
		if err != nil {
			return errors.NewConfigurationError("GASRUN_SCHEDULER_PORT", fmt.Sprintf("'%s' is not a port number", raw))
		}
		c.Scheduler.Port = port
	}
	return nil
}

// Validate checks that every field holds a usable value.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.CacheRoot) == "" {
		return errors.NewConfigurationError("cache_root", "must not be empty")
	}
	switch c.Codec {
	case CodecJSON, CodecProtobuf:
	default:
		return errors.NewConfigurationError("codec", fmt.Sprintf("unknown codec '%s' (want %s or %s)", c.Codec, CodecJSON, CodecProtobuf))
	}
	if c.Scheduler.Port < 0 || c.Scheduler.Port > 65535 {
		return errors.NewConfigurationError("scheduler.port", fmt.Sprintf("%d is out of range", c.Scheduler.Port))
	}
	if c.Scheduler.Workers < 1 {
		return errors.NewConfigurationError("scheduler.workers", "must be at least 1")
	}
	if c.Scheduler.Timeout <= 0 {
		return errors.NewConfigurationError("scheduler.timeout", "must be positive")
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return errors.NewConfigurationError("log_level", fmt.Sprintf("unknown level '%s'", c.LogLevel))
	}
	return nil
}

// SchedulerAddress returns host:port of the shared scheduler.
func (c *Config) SchedulerAddress() string {
	return fmt.Sprintf("%s:%d", c.Scheduler.Host, c.Scheduler.Port)
}
