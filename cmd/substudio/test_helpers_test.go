package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"substudio/internal/api"
	"substudio/internal/backend"
	"substudio/internal/config"
	"substudio/internal/daemon"
	"substudio/internal/daemonrun"
	"substudio/internal/ipc"
	"substudio/internal/logging"
	"substudio/internal/session"
	"substudio/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	pipeline   *testsupport.Pipeline
	daemon     *daemon.Daemon
	socketPath string
	configPath string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	pipeline := testsupport.NewPipeline(t)
	cfg := testsupport.NewConfig(t, testsupport.WithBackendURL(pipeline.URL()))
	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, configPath, cfg)

	logger := logging.NewNop()
	client, err := backend.New(backend.Options{BaseURL: cfg.Backend.BaseURL, RequestTimeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("backend.New: %v", err)
	}
	sess, err := session.New(session.Options{
		Backend:           client,
		Settings:          daemonrun.GlobalFromConfig(cfg.Defaults),
		Logger:            logger,
		ReconnectDelay:    cfg.Stream.ReconnectDelay(),
		ReconnectMaxDelay: cfg.Stream.ReconnectMaxDelay(),
		NewCorrelationID:  func() string { return "batch-cli" },
	})
	if err != nil {
		t.Fatalf("session.New: %v", err)
	}
	d, err := daemon.New(cfg, sess, logger, daemon.Options{Scanner: "backend", BackendURL: cfg.Backend.BaseURL})
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("daemon start: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	srv, err := ipc.NewServer(ctx, cfg.Paths.SocketPath, d, logger)
	if err != nil {
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()
	t.Cleanup(srv.Close)

	pipeline.SetScan(api.ScanResponse{
		CurrentPath: "/data",
		Files: []api.File{
			{
				ID: "/data/Show", Name: "Show", Path: "/data/Show", IsDirectory: true,
				Children: []api.File{
					{ID: "ep1.mp4", Name: "ep1.mp4", Path: "/data/Show/ep1.mp4"},
					{ID: "ep2.mkv", Name: "ep2.mkv", Path: "/data/Show/ep2.mkv", SubtitleInfo: &api.SubtitleInfo{HasSubtitles: true, SubType: "embedded", Languages: []string{"ja"}, Count: 1}},
				},
			},
		},
	})

	return &cliTestEnv{
		cfg:        cfg,
		pipeline:   pipeline,
		daemon:     d,
		socketPath: cfg.Paths.SocketPath,
		configPath: configPath,
	}
}

func (e *cliTestEnv) run(t *testing.T, args ...string) string {
	t.Helper()
	out, _, err := runCLI(t, args, e.socketPath, e.configPath)
	if err != nil {
		t.Fatalf("%s: %v", strings.Join(args, " "), err)
	}
	return out
}

func runCLI(t *testing.T, args []string, socket, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if socket != "" {
		flags = append(flags, "--socket", socket)
	}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
