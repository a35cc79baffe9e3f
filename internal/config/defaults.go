package config

const (
	defaultConfigPath          = "~/.config/substudio/config.toml"
	defaultLogDir              = "~/.local/share/substudio/logs"
	defaultSocketPath          = "~/.local/share/substudio/substudio.sock"
	defaultLockPath            = "~/.local/share/substudio/substudio.lock"
	defaultBackendBaseURL      = "http://127.0.0.1:8000"
	defaultRequestTimeout      = 30
	defaultUploadTimeout       = 120
	defaultLogBufferLines      = 100
	defaultReconnectDelayMS    = 500
	defaultReconnectMaxDelayMS = 15000
	defaultInitialProgress     = 5
	defaultScanPath            = "/data"
	defaultSourceLang          = "auto"
	defaultWorkflowMode        = "hybrid"
	defaultModelSize           = "base"
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:     defaultLogDir,
			SocketPath: defaultSocketPath,
			LockPath:   defaultLockPath,
		},
		Backend: Backend{
			BaseURL:        defaultBackendBaseURL,
			RequestTimeout: defaultRequestTimeout,
			UploadTimeout:  defaultUploadTimeout,
		},
		Stream: Stream{
			LogBufferLines:      defaultLogBufferLines,
			ReconnectDelayMS:    defaultReconnectDelayMS,
			ReconnectMaxDelayMS: defaultReconnectMaxDelayMS,
			InitialProgress:     defaultInitialProgress,
		},
		Session: Session{
			DefaultScanPath: defaultScanPath,
			Recursive:       true,
		},
		Defaults: Defaults{
			SourceLang:      defaultSourceLang,
			TargetLanguages: []string{"en"},
			WorkflowMode:    defaultWorkflowMode,
			ModelSize:       defaultModelSize,
			AutoGenerate:    true,
			ShouldMux:       true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
