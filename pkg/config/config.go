// Package config loads toolsrv settings from defaults, an optional YAML file and
// TOOLSRV_* environment variables. Command-line flags are applied by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultFileName = "toolsrv.yaml"

	TransportStdio = "stdio"
	TransportHTTP  = "http"

	// DefaultJournalDSN keeps the call journal in memory for the life of the process.
	DefaultJournalDSN = "sqlite:file:toolsrv-journal?mode=memory&cache=shared"
)

type Config struct {
	Server    Server    `yaml:"server"`
	Workspace Workspace `yaml:"workspace"`
	Log       Log       `yaml:"log"`
	Telemetry Telemetry `yaml:"telemetry"`
	Journal   Journal   `yaml:"journal"`
}

type Server struct {
	Name      string `yaml:"name"`
	Version   string `yaml:"version"`
	Transport string `yaml:"transport"`
	Addr      string `yaml:"addr"`
}

// Workspace bounds the file tools. Root is resolved to an absolute path by Load.
type Workspace struct {
	Root string `yaml:"root"`
}

type Log struct {
	Level string `yaml:"level"`
}

type Telemetry struct {
	Exporter    string `yaml:"exporter"`
	Endpoint    string `yaml:"endpoint"`
	Insecure    bool   `yaml:"insecure"`
	ServiceName string `yaml:"service_name"`
}

// Journal configures the call journal. An empty DSN disables it.
type Journal struct {
	DSN string `yaml:"dsn"`
}

// InMemory reports whether DSN names a sqlite database that lives only inside the
// process that opened it.
func (j Journal) InMemory() bool {
	dsn := strings.ToLower(j.DSN)
	if !strings.HasPrefix(dsn, "sqlite:") {
		return false
	}
	rest := strings.TrimPrefix(dsn, "sqlite:")
	return strings.HasPrefix(rest, ":memory:") ||
		strings.Contains(rest, "mode=memory") ||
		strings.Contains(rest, "vfs=memdb")
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: Server{
			Name:      "toolsrv",
			Version:   "dev",
			Transport: TransportStdio,
			Addr:      ":8080",
		},
		Workspace: Workspace{Root: "."},
		Log:       Log{Level: "info"},
		Telemetry: Telemetry{Exporter: "none", ServiceName: "toolsrv"},
		Journal:   Journal{DSN: DefaultJournalDSN},
	}
}

// Load layers defaults, the YAML file and the environment. With an empty path it
// looks for toolsrv.yaml in the working directory and skips it when absent; an
// explicit path that does not exist is an error.
func Load(path string) (Config, error) {
	cfg := Default()
	file, found, err := discover(path)
	if err != nil {
		return Config{}, err
	}
	if found {
		data, err := os.ReadFile(file)
		if err != nil {
			return Config{}, fmt.Errorf("reading config %q: %w", file, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config %q: %w", file, err)
		}
	}
	cfg.applyEnv()
	if cfg.Workspace.Root != "" {
		abs, err := filepath.Abs(cfg.Workspace.Root)
		if err != nil {
			return Config{}, fmt.Errorf("resolve workspace root: %w", err)
		}
		cfg.Workspace.Root = abs
	}
	return cfg, nil
}

func discover(explicit string) (string, bool, error) {
	if p := strings.TrimSpace(explicit); p != "" {
		info, err := os.Stat(p)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return "", false, fmt.Errorf("config file %q not found", p)
			}
			return "", false, fmt.Errorf("checking config path %q: %w", p, err)
		}
		if info.IsDir() {
			return "", false, fmt.Errorf("config path %q is a directory", p)
		}
		return p, true, nil
	}
	info, err := os.Stat(DefaultFileName)
	if err == nil && !info.IsDir() {
		return DefaultFileName, true, nil
	}
	return "", false, nil
}

func (c *Config) applyEnv() {
	c.Server.Name = getEnv("TOOLSRV_NAME", c.Server.Name)
	c.Server.Version = getEnv("TOOLSRV_VERSION", c.Server.Version)
	c.Server.Transport = getEnv("TOOLSRV_TRANSPORT", c.Server.Transport)
	c.Server.Addr = getEnv("TOOLSRV_ADDR", c.Server.Addr)
	c.Workspace.Root = getEnv("TOOLSRV_WORKSPACE", c.Workspace.Root)
	c.Log.Level = getEnv("TOOLSRV_LOG_LEVEL", c.Log.Level)
	c.Telemetry.Exporter = getEnv("TOOLSRV_TELEMETRY_EXPORTER", c.Telemetry.Exporter)
	c.Telemetry.Endpoint = getEnv("TOOLSRV_TELEMETRY_ENDPOINT", c.Telemetry.Endpoint)
	c.Telemetry.ServiceName = getEnv("TOOLSRV_SERVICE_NAME", c.Telemetry.ServiceName)
	if v, ok := os.LookupEnv("TOOLSRV_JOURNAL_DSN"); ok {
		// set-but-empty turns the journal off
		c.Journal.DSN = v
	}
}

// Validate checks enumerated fields and required values.
func (c Config) Validate() error {
	var errs []error
	switch c.Server.Transport {
	case TransportStdio, TransportHTTP:
	default:
		errs = append(errs, fmt.Errorf("server.transport must be stdio or http, got %q", c.Server.Transport))
	}
	if c.Server.Transport == TransportHTTP && c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required for http transport"))
	}
	if c.Server.Name == "" {
		errs = append(errs, errors.New("server.name is required"))
	}
	if c.Workspace.Root == "" {
		errs = append(errs, errors.New("workspace.root is required"))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level))
	}
	switch c.Telemetry.Exporter {
	case "", "none", "stdout", "otlp":
	default:
		errs = append(errs, fmt.Errorf("telemetry.exporter must be none, stdout or otlp, got %q", c.Telemetry.Exporter))
	}
	return errors.Join(errs...)
}

func getEnv(key string, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
