package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"substudio/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The socket lives under a short temp dir so it stays within the Unix socket
// path limit.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	runDir, err := os.MkdirTemp("", "ss")
	if err != nil {
		t.Fatalf("mkdir run dir: %v", err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(runDir) })

	cfgVal := config.Default()
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.SocketPath = filepath.Join(runDir, "s.sock")
	cfgVal.Paths.LockPath = filepath.Join(runDir, "s.lock")
	cfgVal.Backend.BaseURL = "http://127.0.0.1:1"
	cfgVal.Backend.RequestTimeout = 5
	cfgVal.Backend.UploadTimeout = 5
	cfgVal.Stream.ReconnectDelayMS = 5
	cfgVal.Stream.ReconnectMaxDelayMS = 20
	cfgVal.Logging.Level = "debug"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithBackendURL points the config at a fake pipeline.
func WithBackendURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Backend.BaseURL = url
	}
}

// WithAPIToken sets the backend bearer token.
func WithAPIToken(token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Backend.APIToken = token
	}
}

// WithLocalLibrary enables the filesystem scanner rooted at a fresh
// "library" directory below the test base dir.
func WithLocalLibrary() ConfigOption {
	return func(b *configBuilder) {
		root := filepath.Join(b.baseDir, "library")
		if err := os.MkdirAll(root, 0o755); err != nil {
			b.t.Fatalf("mkdir library: %v", err)
		}
		b.cfg.Paths.LibraryRoot = root
		b.cfg.Session.DefaultScanPath = root
		b.cfg.Session.LocalScan = true
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.LogDir)
}
