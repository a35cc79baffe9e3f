package config_test

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"substudio/internal/config"
)

func TestLoadDefaultConfigExpandsPathsAndUsesEnvToken(t *testing.T) {
	t.Setenv(config.APITokenEnv, "secret-token")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantLogDir := filepath.Join(tempHome, ".local", "share", "substudio", "logs")
	if cfg.Paths.LogDir != wantLogDir {
		t.Fatalf("unexpected log dir: got %q want %q", cfg.Paths.LogDir, wantLogDir)
	}
	if cfg.Paths.SocketPath != filepath.Join(tempHome, ".local", "share", "substudio", "substudio.sock") {
		t.Fatalf("unexpected socket path: %q", cfg.Paths.SocketPath)
	}
	if cfg.Backend.APIToken != "secret-token" {
		t.Fatalf("expected token from env, got %q", cfg.Backend.APIToken)
	}
	if cfg.Stream.LogBufferLines != 100 || cfg.Stream.InitialProgress != 5 {
		t.Fatalf("unexpected stream defaults: %+v", cfg.Stream)
	}
	if cfg.Defaults.SourceLang != "auto" || cfg.Defaults.WorkflowMode != "hybrid" {
		t.Fatalf("unexpected session defaults: %+v", cfg.Defaults)
	}
	if got := cfg.Backend.RequestTimeoutDuration(); got != 30*time.Second {
		t.Fatalf("unexpected request timeout %v", got)
	}
	if got := cfg.Stream.ReconnectDelay(); got != 500*time.Millisecond {
		t.Fatalf("unexpected reconnect delay %v", got)
	}
}

func TestLoadCustomConfigNormalizesValues(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv(config.APITokenEnv, "from-env")

	configPath := filepath.Join(t.TempDir(), "config.toml")
	content := `[paths]
library_root = "~/media"

[backend]
base_url = "https://pipeline.example.com/"
api_token = "from-file"

[defaults]
source_lang = "Japanese"
target_languages = ["EN", "fr", "en", "pt-BR"]
workflow_mode = "SRT"
model_size = " Small "

[logging]
format = "JSON"
level = "Debug"
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected config at %q to be used, got %q exists=%v", configPath, resolved, exists)
	}
	if cfg.Paths.LibraryRoot != filepath.Join(tempHome, "media") {
		t.Fatalf("unexpected library root %q", cfg.Paths.LibraryRoot)
	}
	if cfg.Backend.BaseURL != "https://pipeline.example.com" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Backend.BaseURL)
	}
	if cfg.Backend.APIToken != "from-file" {
		t.Fatalf("expected file token to win over env, got %q", cfg.Backend.APIToken)
	}
	if cfg.Defaults.SourceLang != "ja" {
		t.Fatalf("unexpected source language %q", cfg.Defaults.SourceLang)
	}
	if want := []string{"en", "fr", "pt-BR"}; !reflect.DeepEqual(cfg.Defaults.TargetLanguages, want) {
		t.Fatalf("unexpected target languages %v, want %v", cfg.Defaults.TargetLanguages, want)
	}
	if cfg.Defaults.WorkflowMode != "srt" || cfg.Defaults.ModelSize != "small" {
		t.Fatalf("unexpected defaults %+v", cfg.Defaults)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected logging %+v", cfg.Logging)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"bad scheme", "[backend]\nbase_url = \"ftp://host\"\n", "backend.base_url"},
		{"bad mode", "[defaults]\nworkflow_mode = \"magic\"\n", "defaults.workflow_mode"},
		{"bad model", "[defaults]\nmodel_size = \"huge\"\n", "defaults.model_size"},
		{"auto target", "[defaults]\ntarget_languages = [\"auto\"]\n", "defaults.target_languages"},
		{"bad progress", "[stream]\ninitial_progress = 150\n", "stream.initial_progress"},
		{"bad backoff", "[stream]\nreconnect_delay_ms = 2000\nreconnect_max_delay_ms = 1000\n", "stream.reconnect_max_delay_ms"},
		{"bad format", "[logging]\nformat = \"xml\"\n", "logging.format"},
		{"unknown key", "[backend]\nbase_uri = \"http://x\"\n", "parse config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			_, _, _, err := config.Load(path)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	var decoded config.Config
	if err := toml.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("sample is not valid TOML: %v", err)
	}
	if decoded.Stream.LogBufferLines != 100 {
		t.Fatalf("unexpected sample log buffer %d", decoded.Stream.LogBufferLines)
	}
	if _, _, _, err := config.Load(path); err != nil {
		t.Fatalf("sample config failed to load: %v", err)
	}
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.SocketPath = filepath.Join(base, "run", "substudio.sock")
	cfg.Paths.LockPath = filepath.Join(base, "run", "substudio.lock")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, dir := range []string{cfg.Paths.LogDir, filepath.Join(base, "run")} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s: %v", dir, err)
		}
	}
}
