package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_NonexistentFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	if err != nil {
		t.Fatalf("Load with nonexistent file should not error: %v", err)
	}

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("default host: expected 127.0.0.1, got %q", cfg.Server.Host)
	}
	if cfg.Server.Port != 8787 {
		t.Errorf("default port: expected 8787, got %d", cfg.Server.Port)
	}
	if cfg.Target.DefaultURL != "https://example.com" {
		t.Errorf("default target: expected https://example.com, got %q", cfg.Target.DefaultURL)
	}
	if cfg.Replay.TimeoutMs != 30000 {
		t.Errorf("default replay timeout: expected 30000, got %d", cfg.Replay.TimeoutMs)
	}
	if cfg.Replay.ClientTimeoutMs != 60000 {
		t.Errorf("default client timeout: expected 60000, got %d", cfg.Replay.ClientTimeoutMs)
	}
	if cfg.Storage.RulesPath != "rules.yaml" {
		t.Errorf("default rules path: expected rules.yaml, got %q", cfg.Storage.RulesPath)
	}
	if cfg.Storage.ProjectsDir != "projects" {
		t.Errorf("default projects dir: expected projects, got %q", cfg.Storage.ProjectsDir)
	}
}

func TestLoad_ValidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  host: "0.0.0.0"
  port: 9090
target:
  defaultUrl: "https://staging.example.com"
replay:
  timeoutMs: 5000
  clientTimeoutMs: 10000
storage:
  rulesPath: "/tmp/rules.yaml"
  projectsDir: "/tmp/projects"
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("host: expected 0.0.0.0, got %q", cfg.Server.Host)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("port: expected 9090, got %d", cfg.Server.Port)
	}
	if cfg.Target.DefaultURL != "https://staging.example.com" {
		t.Errorf("target: got %q", cfg.Target.DefaultURL)
	}
	if cfg.Replay.TimeoutMs != 5000 || cfg.Replay.ClientTimeoutMs != 10000 {
		t.Errorf("replay: got %+v", cfg.Replay)
	}
	if cfg.Storage.RulesPath != "/tmp/rules.yaml" || cfg.Storage.ProjectsDir != "/tmp/projects" {
		t.Errorf("storage: got %+v", cfg.Storage)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(`{{{invalid yaml`), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path)
	if err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoad_PartialOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  port: 9090
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("port: expected 9090, got %d", cfg.Server.Port)
	}
	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("host should be default 127.0.0.1, got %q", cfg.Server.Host)
	}
	if cfg.Target.DefaultURL != "https://example.com" {
		t.Errorf("target should retain default, got %q", cfg.Target.DefaultURL)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name:    "valid",
			cfg:     *applyDefaults(),
			wantErr: false,
		},
		{
			name: "empty host",
			cfg: Config{
				Server:  ServerConfig{Host: "", Port: 8787},
				Target:  TargetConfig{DefaultURL: "https://x"},
				Storage: StorageConfig{RulesPath: "r.yaml", ProjectsDir: "p"},
			},
			wantErr: true,
		},
		{
			name: "port 0",
			cfg: Config{
				Server:  ServerConfig{Host: "127.0.0.1", Port: 0},
				Target:  TargetConfig{DefaultURL: "https://x"},
				Storage: StorageConfig{RulesPath: "r.yaml", ProjectsDir: "p"},
			},
			wantErr: true,
		},
		{
			name: "port 65536",
			cfg: Config{
				Server:  ServerConfig{Host: "127.0.0.1", Port: 65536},
				Target:  TargetConfig{DefaultURL: "https://x"},
				Storage: StorageConfig{RulesPath: "r.yaml", ProjectsDir: "p"},
			},
			wantErr: true,
		},
		{
			name: "empty target",
			cfg: Config{
				Server:  ServerConfig{Host: "127.0.0.1", Port: 8787},
				Target:  TargetConfig{DefaultURL: ""},
				Storage: StorageConfig{RulesPath: "r.yaml", ProjectsDir: "p"},
			},
			wantErr: true,
		},
		{
			name: "negative replay timeout",
			cfg: Config{
				Server:  ServerConfig{Host: "127.0.0.1", Port: 8787},
				Target:  TargetConfig{DefaultURL: "https://x"},
				Replay:  ReplayConfig{TimeoutMs: -1},
				Storage: StorageConfig{RulesPath: "r.yaml", ProjectsDir: "p"},
			},
			wantErr: true,
		},
		{
			name: "empty rules path",
			cfg: Config{
				Server:  ServerConfig{Host: "127.0.0.1", Port: 8787},
				Target:  TargetConfig{DefaultURL: "https://x"},
				Storage: StorageConfig{RulesPath: "", ProjectsDir: "p"},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validate(&tt.cfg)
			if tt.wantErr && err == nil {
				t.Error("expected error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestWriteDefault_Roundtrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	if err := WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("file not created: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load after WriteDefault: %v", err)
	}

	if cfg.Server.Port != 8787 {
		t.Errorf("roundtrip port: expected 8787, got %d", cfg.Server.Port)
	}
	if cfg.Replay.TimeoutMs != 30000 {
		t.Error("roundtrip replay timeout: expected 30000")
	}
}
