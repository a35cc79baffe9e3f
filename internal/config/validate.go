package config

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
)

var (
	workflowModes = []string{"hybrid", "whisper", "force_ai", "srt", "embedded"}
	modelSizes    = []string{"tiny", "base", "small", "medium", "large"}
	logFormats    = []string{"console", "json"}
	logLevels     = []string{"debug", "info", "warn", "error"}
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateBackend(); err != nil {
		return err
	}
	if err := c.validateStream(); err != nil {
		return err
	}
	if err := c.validateDefaults(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateBackend() error {
	parsed, err := url.Parse(c.Backend.BaseURL)
	if err != nil {
		return fmt.Errorf("backend.base_url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("backend.base_url must use http or https, got %q", c.Backend.BaseURL)
	}
	if parsed.Host == "" {
		return fmt.Errorf("backend.base_url must include a host, got %q", c.Backend.BaseURL)
	}
	return nil
}

func (c *Config) validateStream() error {
	if c.Stream.InitialProgress < 0 || c.Stream.InitialProgress > 100 {
		return errors.New("stream.initial_progress must be between 0 and 100")
	}
	if c.Stream.ReconnectMaxDelayMS < c.Stream.ReconnectDelayMS {
		return errors.New("stream.reconnect_max_delay_ms must be at least stream.reconnect_delay_ms")
	}
	return nil
}

func (c *Config) validateDefaults() error {
	if !slices.Contains(workflowModes, c.Defaults.WorkflowMode) {
		return fmt.Errorf("defaults.workflow_mode must be one of %v, got %q", workflowModes, c.Defaults.WorkflowMode)
	}
	if !slices.Contains(modelSizes, c.Defaults.ModelSize) {
		return fmt.Errorf("defaults.model_size must be one of %v, got %q", modelSizes, c.Defaults.ModelSize)
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !slices.Contains(logFormats, c.Logging.Format) {
		return fmt.Errorf("logging.format must be one of %v, got %q", logFormats, c.Logging.Format)
	}
	if !slices.Contains(logLevels, c.Logging.Level) {
		return fmt.Errorf("logging.level must be one of %v, got %q", logLevels, c.Logging.Level)
	}
	return nil
}
