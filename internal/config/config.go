// Package config loads the optional task-tracker.toml file.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"task-tracker/internal/storage"
)

// Default values. Without a config file the tracker behaves exactly as if
// these were written out.
const (
	DefaultStorageDriver = storage.DriverJSON
	DefaultStoragePath   = storage.DefaultJSONPath
	DefaultLogLevel      = "warn"
	DefaultLogFormat     = "text"
	DefaultServerAddr    = "127.0.0.1:8080"
)

// ProjectFiles are looked up in the working directory, in order.
var ProjectFiles = []string{"task-tracker.toml", ".task-tracker.toml"}

type Config struct {
	Storage StorageConfig `toml:"storage"`
	Log     LogConfig     `toml:"log"`
	Server  ServerConfig  `toml:"server"`

	// Source is the file the config was read from, empty for defaults.
	Source string `toml:"-"`
}

type StorageConfig struct {
	Driver string `toml:"driver"`
	Path   string `toml:"path"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	File   string `toml:"file"`
}

type ServerConfig struct {
	Addr string `toml:"addr"`
}

func Default() *Config {
	return &Config{
		Storage: StorageConfig{Driver: DefaultStorageDriver, Path: DefaultStoragePath},
		Log:     LogConfig{Level: DefaultLogLevel, Format: DefaultLogFormat},
		Server:  ServerConfig{Addr: DefaultServerAddr},
	}
}

// Load reads path, or the first project file found when path is empty. A
// missing project file is not an error; a missing explicit path is.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = findProjectFile()
		if path == "" {
			return cfg, nil
		}
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("loading config file %s: %w", path, err)
	}
	cfg.Source = path

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

func findProjectFile() string {
	for _, name := range ProjectFiles {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

func (c *Config) finalize() error {
	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	switch c.Storage.Driver {
	case "":
		c.Storage.Driver = DefaultStorageDriver
	case storage.DriverJSON, storage.DriverMemory:
	case storage.DriverSQLite:
		// The JSON default path makes no sense for a database.
		if c.Storage.Path == DefaultStoragePath {
			c.Storage.Path = storage.DefaultSQLitePath
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Storage.Path == "" {
		c.Storage.Path = DefaultStoragePath
		if c.Storage.Driver == storage.DriverSQLite {
			c.Storage.Path = storage.DefaultSQLitePath
		}
	}

	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json", "logfmt":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}

	if c.Server.Addr == "" {
		c.Server.Addr = DefaultServerAddr
	}
	return nil
}
