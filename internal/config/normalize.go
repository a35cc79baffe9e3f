package config

import (
	"fmt"
	"os"
	"strings"

	"substudio/internal/language"
)

// APITokenEnv names the environment variable consulted when no token is configured.
const APITokenEnv = "SUBSTUDIO_API_TOKEN"

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeBackend()
	c.normalizeStream()
	c.normalizeSession()
	if err := c.normalizeDefaults(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.SocketPath) == "" {
		c.Paths.SocketPath = defaultSocketPath
	}
	if c.Paths.SocketPath, err = expandPath(c.Paths.SocketPath); err != nil {
		return fmt.Errorf("paths.socket_path: %w", err)
	}
	if strings.TrimSpace(c.Paths.LockPath) == "" {
		c.Paths.LockPath = defaultLockPath
	}
	if c.Paths.LockPath, err = expandPath(c.Paths.LockPath); err != nil {
		return fmt.Errorf("paths.lock_path: %w", err)
	}
	c.Paths.LibraryRoot = strings.TrimSpace(c.Paths.LibraryRoot)
	if c.Paths.LibraryRoot != "" {
		if c.Paths.LibraryRoot, err = expandPath(c.Paths.LibraryRoot); err != nil {
			return fmt.Errorf("paths.library_root: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeBackend() {
	c.Backend.BaseURL = strings.TrimRight(strings.TrimSpace(c.Backend.BaseURL), "/")
	if c.Backend.BaseURL == "" {
		c.Backend.BaseURL = defaultBackendBaseURL
	}
	c.Backend.APIToken = strings.TrimSpace(c.Backend.APIToken)
	if c.Backend.APIToken == "" {
		if value, ok := os.LookupEnv(APITokenEnv); ok {
			c.Backend.APIToken = strings.TrimSpace(value)
		}
	}
	if c.Backend.RequestTimeout <= 0 {
		c.Backend.RequestTimeout = defaultRequestTimeout
	}
	if c.Backend.UploadTimeout <= 0 {
		c.Backend.UploadTimeout = defaultUploadTimeout
	}
}

func (c *Config) normalizeStream() {
	if c.Stream.LogBufferLines <= 0 {
		c.Stream.LogBufferLines = defaultLogBufferLines
	}
	if c.Stream.ReconnectDelayMS <= 0 {
		c.Stream.ReconnectDelayMS = defaultReconnectDelayMS
	}
	if c.Stream.ReconnectMaxDelayMS <= 0 {
		c.Stream.ReconnectMaxDelayMS = defaultReconnectMaxDelayMS
	}
}

func (c *Config) normalizeSession() {
	c.Session.DefaultScanPath = strings.TrimSpace(c.Session.DefaultScanPath)
	if c.Session.DefaultScanPath == "" {
		c.Session.DefaultScanPath = defaultScanPath
	}
}

func (c *Config) normalizeDefaults() error {
	source := strings.TrimSpace(c.Defaults.SourceLang)
	if source == "" {
		source = defaultSourceLang
	}
	code, err := language.Normalize(source)
	if err != nil {
		return fmt.Errorf("defaults.source_lang: %w", err)
	}
	c.Defaults.SourceLang = code

	targets, err := language.NormalizeList(c.Defaults.TargetLanguages)
	if err != nil {
		return fmt.Errorf("defaults.target_languages: %w", err)
	}
	if targets == nil {
		targets = []string{}
	}
	c.Defaults.TargetLanguages = targets

	c.Defaults.WorkflowMode = strings.ToLower(strings.TrimSpace(c.Defaults.WorkflowMode))
	if c.Defaults.WorkflowMode == "" {
		c.Defaults.WorkflowMode = defaultWorkflowMode
	}
	c.Defaults.ModelSize = strings.ToLower(strings.TrimSpace(c.Defaults.ModelSize))
	if c.Defaults.ModelSize == "" {
		c.Defaults.ModelSize = defaultModelSize
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
