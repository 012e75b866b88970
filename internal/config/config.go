// Package config handles loading, validating, and writing the mediator's
// server configuration from config.yaml in the mediatorctl config
// directory (~/.mediator by default).
//
// The config defines:
//   - Server bind address (host:port) for the control channel
//   - Default target URL (used when a project doesn't set its own)
//   - Replay timeout and mediated-dispatch client timeout knobs
//   - On-disk locations of the rule file and the project store
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level mediator configuration.
// Loaded from config.yaml in the config directory, with sensible defaults for
// fields that are not explicitly set.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Target  TargetConfig  `yaml:"target"`
	Replay  ReplayConfig  `yaml:"replay"`
	Storage StorageConfig `yaml:"storage"`
}

// ServerConfig defines where the control channel listens.
// Default: 127.0.0.1:8787 (loopback only — never bind to 0.0.0.0).
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// TargetConfig holds the default upstream the mediator mediates traffic
// for when a project doesn't override it.
type TargetConfig struct {
	DefaultURL string `yaml:"defaultUrl"`
}

// ReplayConfig controls the browser-context replayer (internal/replayer)
// and the mediated-mode dispatcher (internal/mediator/dispatch.go).
//
// TimeoutMs: maximum time to wait for a single replay round-trip before
// failing with a timeout result. Default: 30000ms.
//
// ClientTimeoutMs: maximum time the mediated-mode dispatcher waits for an
// upstream response before failing the pipeline stage. Default: 60000ms.
type ReplayConfig struct {
	TimeoutMs       int `yaml:"timeoutMs"`
	ClientTimeoutMs int `yaml:"clientTimeoutMs"`
}

// StorageConfig holds the on-disk locations the mediator reads and
// writes its persisted state from.
type StorageConfig struct {
	RulesPath   string `yaml:"rulesPath"`
	ProjectsDir string `yaml:"projectsDir"`
}

// Load reads and parses config.yaml from the given path.
// If the file doesn't exist, returns defaults (not an error).
// Invalid YAML or validation failures return an error.
func Load(path string) (*Config, error) {
	cfg := applyDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// No config file — use defaults. Normal on first run;
			// mediatorctl never creates the file itself.
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// WriteDefault writes a default config.yaml with all fields populated
// and a comment header. No mediatorctl command calls it.
func WriteDefault(path string) error {
	cfg := applyDefaults()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling default config: %w", err)
	}

	header := `# antigravity mediator configuration
#
# server:
#   host: Bind address for the control channel (default: 127.0.0.1, loopback only)
#   port: Listen port (default: 8787)
#
# target:
#   defaultUrl: Upstream used when a project has no targetUrl of its own
#
# replay:
#   timeoutMs: Max time to wait for a browser-context replay round-trip
#   clientTimeoutMs: Max time to wait for a mediated-mode upstream response
#
# storage:
#   rulesPath: YAML file holding the active match/replace rule list
#   projectsDir: Directory holding saved projects

`
	return os.WriteFile(path, []byte(header+string(data)), 0o644)
}

// applyDefaults returns a Config with all fields set to their default values.
func applyDefaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8787,
		},
		Target: TargetConfig{
			DefaultURL: "https://example.com",
		},
		Replay: ReplayConfig{
			TimeoutMs:       30000,
			ClientTimeoutMs: 60000,
		},
		Storage: StorageConfig{
			RulesPath:   "rules.yaml",
			ProjectsDir: "projects",
		},
	}
}

// validate checks the config for logical errors after parsing.
func validate(cfg *Config) error {
	if cfg.Server.Host == "" {
		return fmt.Errorf("server.host must not be empty")
	}
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range (1-65535)", cfg.Server.Port)
	}
	if cfg.Target.DefaultURL == "" {
		return fmt.Errorf("target.defaultUrl must not be empty")
	}
	if cfg.Replay.TimeoutMs < 0 {
		return fmt.Errorf("replay.timeoutMs must be non-negative")
	}
	if cfg.Replay.ClientTimeoutMs < 0 {
		return fmt.Errorf("replay.clientTimeoutMs must be non-negative")
	}
	if cfg.Storage.RulesPath == "" {
		return fmt.Errorf("storage.rulesPath must not be empty")
	}
	if cfg.Storage.ProjectsDir == "" {
		return fmt.Errorf("storage.projectsDir must not be empty")
	}
	return nil
}
