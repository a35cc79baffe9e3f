package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains local file locations used by the session host.
type Paths struct {
	LogDir      string `toml:"log_dir"`
	SocketPath  string `toml:"socket_path"`
	LockPath    string `toml:"lock_path"`
	LibraryRoot string `toml:"library_root"`
}

// Backend contains the remote processing pipeline connection settings.
type Backend struct {
	BaseURL        string `toml:"base_url"`
	APIToken       string `toml:"api_token"`
	RequestTimeout int    `toml:"request_timeout"`
	UploadTimeout  int    `toml:"upload_timeout"`
}

// Stream contains live progress subscription settings.
type Stream struct {
	LogBufferLines      int `toml:"log_buffer_lines"`
	ReconnectDelayMS    int `toml:"reconnect_delay_ms"`
	ReconnectMaxDelayMS int `toml:"reconnect_max_delay_ms"`
	InitialProgress     int `toml:"initial_progress"`
}

// Session contains scan behaviour for the working session.
type Session struct {
	DefaultScanPath string `toml:"default_scan_path"`
	Recursive       bool   `toml:"recursive"`
	LocalScan       bool   `toml:"local_scan"`
}

// Defaults seeds the global processing settings when a session starts.
type Defaults struct {
	SourceLang           string   `toml:"source_lang"`
	TargetLanguages      []string `toml:"target_languages"`
	WorkflowMode         string   `toml:"workflow_mode"`
	ModelSize            string   `toml:"model_size"`
	AutoGenerate         bool     `toml:"auto_generate"`
	ShouldMux            bool     `toml:"should_mux"`
	ShouldRemoveOriginal bool     `toml:"should_remove_original"`
	StripExistingSubs    bool     `toml:"strip_existing_subs"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for SubStudio.
//
// Configuration sections by subsystem:
//   - Paths: log directory, IPC socket, session lock and local library root
//   - Backend: remote pipeline base URL, token and timeouts
//   - Stream: progress subscription buffers and reconnect back-off
//   - Session: default scan location and scanner selection
//   - Defaults: global processing settings applied at session start
//   - Logging: log format and level
type Config struct {
	Paths    Paths    `toml:"paths"`
	Backend  Backend  `toml:"backend"`
	Stream   Stream   `toml:"stream"`
	Session  Session  `toml:"session"`
	Defaults Defaults `toml:"defaults"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("substudio.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the session host writes into.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.LogDir, filepath.Dir(c.Paths.SocketPath), filepath.Dir(c.Paths.LockPath)}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// SampleConfig returns the embedded sample configuration.
func SampleConfig() string {
	return sampleConfig
}

// RequestTimeoutDuration returns the backend request timeout.
func (b Backend) RequestTimeoutDuration() time.Duration {
	return time.Duration(b.RequestTimeout) * time.Second
}

// UploadTimeoutDuration returns the backend upload timeout.
func (b Backend) UploadTimeoutDuration() time.Duration {
	return time.Duration(b.UploadTimeout) * time.Second
}

// ReconnectDelay returns the first reconnect back-off step.
func (s Stream) ReconnectDelay() time.Duration {
	return time.Duration(s.ReconnectDelayMS) * time.Millisecond
}

// ReconnectMaxDelay returns the reconnect back-off ceiling.
func (s Stream) ReconnectMaxDelay() time.Duration {
	return time.Duration(s.ReconnectMaxDelayMS) * time.Millisecond
}
