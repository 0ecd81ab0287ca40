// Package config loads stampclock settings from an optional YAML file and
// the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is read when no -config flag is given. It may be absent.
const DefaultPath = "stampclock.yaml"

// Store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Logger *log.Logger `yaml:"-"`

	Store struct {
		Driver      string `yaml:"driver"`
		SQLitePath  string `yaml:"sqlite_path"`
		DatabaseURL string `yaml:"database_url"`
	} `yaml:"store"`

	HTTP struct {
		Addr            string        `yaml:"addr"`
		GinMode         string        `yaml:"gin_mode"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"http"`

	// UserID is the user the terminal client acts for when the settings
	// table has none.
	UserID int64 `yaml:"user_id"`
}

// Load reads path, expands ${VAR} placeholders, then applies defaults and
// STAMPCLOCK_* overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config file: %w", err)
	default:
		if err := yaml.Unmarshal([]byte(expandEnv(string(data))), &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyDefaults()
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.Logger = NewLogger()
	return &cfg, nil
}

// NewLogger returns the logger shared by the binary's commands.
func NewLogger() *log.Logger {
	return log.New(os.Stderr, "stampclock ", log.LstdFlags|log.Lmsgprefix)
}

// expandEnv replaces ${VAR} with the value of VAR. Unset variables are left
// as written.
func expandEnv(content string) string {
	for _, env := range os.Environ() {
		pair := strings.SplitN(env, "=", 2)
		if len(pair) != 2 {
			continue
		}
		content = strings.ReplaceAll(content, "${"+pair[0]+"}", pair[1])
	}
	return content
}

func (c *Config) applyDefaults() {
	if c.Store.Driver == "" {
		c.Store.Driver = DriverSQLite
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
	if c.HTTP.GinMode == "" {
		c.HTTP.GinMode = "release"
	}
	if c.HTTP.ShutdownTimeout <= 0 {
		c.HTTP.ShutdownTimeout = 10 * time.Second
	}
}

func (c *Config) applyEnv() error {
	c.Store.Driver = getEnvOrDefault("STAMPCLOCK_STORE", c.Store.Driver)
	c.Store.SQLitePath = getEnvOrDefault("STAMPCLOCK_SQLITE_PATH", c.Store.SQLitePath)
	c.Store.DatabaseURL = getEnvOrDefault("DATABASE_URL", c.Store.DatabaseURL)
	c.HTTP.Addr = getEnvOrDefault("STAMPCLOCK_HTTP_ADDR", c.HTTP.Addr)
	c.HTTP.GinMode = getEnvOrDefault("STAMPCLOCK_GIN_MODE", c.HTTP.GinMode)

	if v := os.Getenv("STAMPCLOCK_USER_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid STAMPCLOCK_USER_ID value: %w", err)
		}
		c.UserID = id
	}
	return nil
}

// Validate reports settings that cannot work together.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverSQLite, DriverMemory:
	case DriverPostgres:
		if strings.TrimSpace(c.Store.DatabaseURL) == "" {
			return fmt.Errorf("store driver %q needs DATABASE_URL", DriverPostgres)
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	switch c.HTTP.GinMode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("unknown gin mode %q", c.HTTP.GinMode)
	}
	return nil
}

func getEnvOrDefault(key, def string) string {
	val := os.Getenv(key)
	if val == "" {
		return def
	}
	return val
}
