package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Transport selects how the MCP server is exposed.
const (
	TransportHTTP  = "http"
	TransportStdio = "stdio"
)

// Config defines server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	DB        DBConfig        `yaml:"db"`
	Log       LogConfig       `yaml:"log"`
	Auth      AuthConfig      `yaml:"auth"`
	Heartbeat HeartbeatConfig `yaml:"heartbeat"`
	Rebuild   RebuildConfig   `yaml:"rebuild"`
}

type ServerConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	Transport string `yaml:"transport"`
}

type DBConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	// Path, when set, also writes logs to a size-capped file.
	Path string `yaml:"path"`
}

type AuthConfig struct {
	Enabled bool `yaml:"enabled"`
}

type HeartbeatConfig struct {
	// IntervalSec is the heartbeat interval clients are expected to honor.
	IntervalSec int64 `yaml:"interval_sec"`
}

type RebuildConfig struct {
	// Chunk splits each user's history into windows of this length. Zero
	// rebuilds the whole span in one pass.
	Chunk time.Duration `yaml:"chunk"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:      "0.0.0.0",
			Port:      3001,
			Transport: TransportHTTP,
		},
		DB: DBConfig{
			Path: "chronos.db",
		},
		Log: LogConfig{
			Level: "info",
		},
		Auth: AuthConfig{
			Enabled: true,
		},
		Heartbeat: HeartbeatConfig{
			IntervalSec: 120,
		},
	}
}

// Load reads configuration from the YAML file named by CHRONOS_CONFIG_PATH,
// if any, and environment variables.
func Load() (Config, error) {
	return LoadFrom(os.Getenv("CHRONOS_CONFIG_PATH"))
}

// LoadFrom is Load with an explicit config file path. An empty path skips
// the file. Environment variables override file values.
func LoadFrom(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if host := os.Getenv("CHRONOS_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if portStr := os.Getenv("CHRONOS_SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("invalid CHRONOS_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if transport := os.Getenv("CHRONOS_TRANSPORT"); transport != "" {
		cfg.Server.Transport = strings.ToLower(transport)
	}
	if dbPath := os.Getenv("CHRONOS_DB_PATH"); dbPath != "" {
		cfg.DB.Path = dbPath
	}
	if level := os.Getenv("CHRONOS_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if logPath := os.Getenv("CHRONOS_LOG_PATH"); logPath != "" {
		cfg.Log.Path = logPath
	}
	if authStr := os.Getenv("CHRONOS_AUTH_ENABLED"); authStr != "" {
		enabled, err := strconv.ParseBool(authStr)
		if err != nil {
			return fmt.Errorf("invalid CHRONOS_AUTH_ENABLED: %w", err)
		}
		cfg.Auth.Enabled = enabled
	}
	if intervalStr := os.Getenv("CHRONOS_HEARTBEAT_INTERVAL_SEC"); intervalStr != "" {
		interval, err := strconv.ParseInt(intervalStr, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid CHRONOS_HEARTBEAT_INTERVAL_SEC: %w", err)
		}
		cfg.Heartbeat.IntervalSec = interval
	}
	if chunkStr := os.Getenv("CHRONOS_REBUILD_CHUNK"); chunkStr != "" {
		chunk, err := time.ParseDuration(chunkStr)
		if err != nil {
			return fmt.Errorf("invalid CHRONOS_REBUILD_CHUNK: %w", err)
		}
		cfg.Rebuild.Chunk = chunk
	}
	return nil
}

// Validate rejects settings the server cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Server.Transport != TransportHTTP && c.Server.Transport != TransportStdio {
		errs = append(errs, fmt.Errorf("server.transport must be %q or %q, got %q", TransportHTTP, TransportStdio, c.Server.Transport))
	}
	if strings.TrimSpace(c.DB.Path) == "" {
		errs = append(errs, errors.New("db.path is required"))
	}
	if c.Heartbeat.IntervalSec <= 0 || c.Heartbeat.IntervalSec >= 3600 {
		errs = append(errs, fmt.Errorf("heartbeat.interval_sec must be between 1 and 3599, got %d", c.Heartbeat.IntervalSec))
	}
	if c.Rebuild.Chunk < 0 {
		errs = append(errs, errors.New("rebuild.chunk must not be negative"))
	}
	return errors.Join(errs...)
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
