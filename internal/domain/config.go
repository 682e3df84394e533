package domain

import (
	"fmt"
	"time"
)

// Config represents the application configuration.
type Config struct {
	Server   ServerConfig   `toml:"server" yaml:"server"`
	Store    StoreConfig    `toml:"store" yaml:"store"`
	Log      LogConfig      `toml:"log" yaml:"log"`
	Queue    QueueConfig    `toml:"queue" yaml:"queue"`
	Spawn    SpawnConfig    `toml:"spawn" yaml:"spawn"`
	Redis    RedisConfig    `toml:"redis" yaml:"redis"`
	Launcher LauncherConfig `toml:"launcher" yaml:"launcher"`
}

// ServerConfig holds HTTP settings from the [server] section.
type ServerConfig struct {
	Address   string `toml:"address" yaml:"address"`       // Listen address
	PublicURL string `toml:"public_url" yaml:"public_url"` // URL workers use to reach the server
}

// StoreConfig holds persistence settings from the [store] section.
type StoreConfig struct {
	Kind string `toml:"kind" yaml:"kind"` // memory or json
	Path string `toml:"path" yaml:"path"` // JSON file path (json kind only)
}

// LogConfig holds logging settings from the [log] section.
type LogConfig struct {
	Level string `toml:"level,omitempty" yaml:"level,omitempty"` // Log level: debug, info, warn, error
	Dir   string `toml:"dir,omitempty" yaml:"dir,omitempty"`     // Log directory (empty = stderr)
}

// QueueConfig holds worker polling settings from the [queue] section.
type QueueConfig struct {
	PollInterval     string `toml:"poll_interval" yaml:"poll_interval"`           // Go duration
	PollTimeout      string `toml:"poll_timeout" yaml:"poll_timeout"`             // Go duration
	MaxConnectErrors int    `toml:"max_connect_errors" yaml:"max_connect_errors"` // Consecutive transport failures tolerated
}

// SpawnConfig holds the worker command from the [spawn] section.
type SpawnConfig struct {
	Env     map[string]string `toml:"env,omitempty" yaml:"env,omitempty"` // Extra variables; MAESTRO_* cannot be overridden
	Command string            `toml:"command" yaml:"command"`
	Args    []string          `toml:"args,omitempty" yaml:"args,omitempty"`
}

// RedisConfig holds the event bridge settings from the [redis] section.
type RedisConfig struct {
	Addr     string `toml:"addr" yaml:"addr"`
	Password string `toml:"password,omitempty" yaml:"password,omitempty"`
	Channel  string `toml:"channel" yaml:"channel"`
	DB       int    `toml:"db" yaml:"db"`
	Enabled  bool   `toml:"enabled" yaml:"enabled"`
}

// LauncherConfig holds the built-in launcher switch from the [launcher] section.
type LauncherConfig struct {
	Enabled bool `toml:"enabled" yaml:"enabled"`
}

// Store kinds.
const (
	StoreKindMemory = "memory"
	StoreKindJSON   = "json"
)

// Default configuration values.
const (
	DefaultLogLevel         = "info"
	DefaultAddress          = "127.0.0.1:3000"
	DefaultPublicURL        = "http://127.0.0.1:3000"
	DefaultStorePath        = ".maestro/state.json"
	DefaultPollInterval     = "5s"
	DefaultPollTimeout      = "30m"
	DefaultMaxConnectErrors = 20
	DefaultSpawnCommand     = "claude"
	DefaultRedisAddr        = "127.0.0.1:6379"
	DefaultRedisChannel     = "maestro:events"
	ConfigFileName          = "maestro.toml"
)

// NewDefaultConfig returns a Config with default values.
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Address:   DefaultAddress,
			PublicURL: DefaultPublicURL,
		},
		Store: StoreConfig{
			Kind: StoreKindMemory,
			Path: DefaultStorePath,
		},
		Log: LogConfig{
			Level: DefaultLogLevel,
		},
		Queue: QueueConfig{
			PollInterval:     DefaultPollInterval,
			PollTimeout:      DefaultPollTimeout,
			MaxConnectErrors: DefaultMaxConnectErrors,
		},
		Spawn: SpawnConfig{
			Command: DefaultSpawnCommand,
		},
		Redis: RedisConfig{
			Addr:    DefaultRedisAddr,
			Channel: DefaultRedisChannel,
		},
	}
}

// Validate checks values that cannot be caught by decoding.
func (c *Config) Validate() error {
	switch c.Store.Kind {
	case StoreKindMemory:
	case StoreKindJSON:
		if c.Store.Path == "" {
			return NewValidationError("store.path", "required for the json store")
		}
	default:
		return NewValidationError("store.kind", fmt.Sprintf("unknown store %q", c.Store.Kind))
	}
	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return NewValidationError("log.level", fmt.Sprintf("unknown level %q", c.Log.Level))
	}
	if _, _, err := c.Queue.Durations(); err != nil {
		return err
	}
	if c.Spawn.Command == "" {
		return NewValidationError("spawn.command", "cannot be empty")
	}
	for name := range c.Spawn.Env {
		if !IsValidEnvVarName(name) {
			return NewValidationError("spawn.env", fmt.Sprintf("invalid variable name %q", name))
		}
	}
	return nil
}

// Durations parses the poll interval and timeout.
func (q QueueConfig) Durations() (interval, timeout time.Duration, err error) {
	interval, err = time.ParseDuration(q.PollInterval)
	if err != nil || interval <= 0 {
		return 0, 0, NewValidationError("queue.poll_interval", fmt.Sprintf("bad duration %q", q.PollInterval))
	}
	timeout, err = time.ParseDuration(q.PollTimeout)
	if err != nil || timeout <= 0 {
		return 0, 0, NewValidationError("queue.poll_timeout", fmt.Sprintf("bad duration %q", q.PollTimeout))
	}
	return interval, timeout, nil
}
