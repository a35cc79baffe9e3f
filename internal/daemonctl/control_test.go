package daemonctl_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"substudio/internal/daemonctl"
	"substudio/internal/ipc"
	"substudio/internal/testsupport"
)

func TestStopWithoutSessionReportsNotRunning(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	_, err := daemonctl.StopAndTerminate(cfg.Paths.SocketPath, cfg, 100*time.Millisecond)
	if !errors.Is(err, daemonctl.ErrDaemonNotRunning) {
		t.Fatalf("expected ErrDaemonNotRunning, got %v", err)
	}
	alive, pid, err := daemonctl.ProcessInfo(cfg.Paths.SocketPath)
	if err != nil || alive || pid != 0 {
		t.Fatalf("expected no session, got alive=%v pid=%d err=%v", alive, pid, err)
	}
}

func TestForceKillRefusesCurrentProcess(t *testing.T) {
	dir := t.TempDir()
	pidPath := filepath.Join(dir, "substudio.pid")
	if err := os.WriteFile(pidPath, []byte("0\n"), 0o644); err != nil {
		t.Fatalf("write pid: %v", err)
	}
	if _, err := daemonctl.ForceKillProcess(pidPath, "", os.Getpid()); err == nil || !strings.Contains(err.Error(), "refusing") {
		t.Fatalf("expected refusal, got %v", err)
	}
	if _, err := daemonctl.ForceKillProcess(filepath.Join(dir, "missing.pid"), "", 0); err == nil {
		t.Fatal("expected error without a pid")
	}
}

func TestBuildSystemChecks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(server.Close)

	cfg := testsupport.NewConfig(t, testsupport.WithBackendURL(server.URL), testsupport.WithLocalLibrary())
	lines := daemonctl.BuildSystemChecks(context.Background(), cfg, &ipc.StatusResponse{Running: true, PID: 42})
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %+v", lines)
	}
	want := map[string]string{"Session": "ok", "Backend": "ok", "API Token": "info", "Library": "ok"}
	for _, line := range lines {
		if want[line.Label] != line.Severity {
			t.Fatalf("unexpected severity for %s: %+v", line.Label, line)
		}
	}

	offline := daemonctl.CheckBackend(context.Background(), "http://127.0.0.1:1", time.Second)
	if offline.Severity != "error" {
		t.Fatalf("expected unreachable backend to be an error, got %+v", offline)
	}
	if got := daemonctl.CheckDirectory("Library", filepath.Join(t.TempDir(), "missing")); got.Severity != "error" {
		t.Fatalf("expected missing directory to be an error, got %+v", got)
	}
}
