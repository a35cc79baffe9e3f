package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestScanTreeAndSelection(t *testing.T) {
	env := setupCLITestEnv(t)

	out := env.run(t, "scan", "/data")
	requireContains(t, out, "Scanned /data: 2 files in 1 directories")

	out = env.run(t, "tree")
	requireContains(t, out, "ep1.mp4")
	requireContains(t, out, "whisper")
	requireContains(t, out, "embedded (Japanese)")
	requireContains(t, out, "2 files: 0 done")

	out = env.run(t, "select", "/data/Show")
	requireContains(t, out, "/data/Show selected")
	requireContains(t, out, "3 items selected")

	out = env.run(t, "selection")
	requireContains(t, out, "directory")
	requireContains(t, out, "ep2.mkv")

	out = env.run(t, "select", "--clear")
	requireContains(t, out, "0 items selected")
}

func TestProcessWatchFollowsJobsToCompletion(t *testing.T) {
	env := setupCLITestEnv(t)
	env.run(t, "scan", "/data")

	env.pipeline.Emit("ep1.mp4", map[string]any{"type": "status", "status": "done", "progress": 100})
	env.pipeline.Emit("ep2.mkv", map[string]any{"type": "status", "status": "error", "progress": 30, "currentTask": "Mux failed"})

	out := env.run(t, "process", "--watch", "--interval", "20ms", "ep1.mp4", "ep2.mkv")
	requireContains(t, out, "Batch batch-cli: 2 submitted, 0 skipped (backend: accepted)")
	requireContains(t, out, "All jobs finished: 1 done, 1 failed, 0 cancelled")

	out = env.run(t, "logs", "ep1.mp4")
	requireContains(t, out, "submitted with whisper workflow")
}

func TestProcessWithoutSelectionFails(t *testing.T) {
	env := setupCLITestEnv(t)
	env.run(t, "scan", "/data")
	if _, _, err := runCLI(t, []string{"process"}, env.socketPath, env.configPath); err == nil {
		t.Fatal("expected process with an empty selection to fail")
	}
}

func TestSettingsAndOverrides(t *testing.T) {
	env := setupCLITestEnv(t)
	env.run(t, "scan", "/data")

	out := env.run(t, "settings", "set", "--source-lang", "ja", "--targets", "en,fr")
	requireContains(t, out, "Japanese")
	requireContains(t, out, "French (fr)")
	requireContains(t, out, "2 files updated")

	out = env.run(t, "override", "ep2.mkv", "--mode", "whisper", "--sync-offset", "1.5")
	requireContains(t, out, "1.5s")
	requireContains(t, out, "workflow_mode, sync_offset")

	out = env.run(t, "override", "ep2.mkv", "--resync")
	requireContains(t, out, "Resynced 1 files")
	requireContains(t, out, "embedded")

	if _, _, err := runCLI(t, []string{"settings", "set", "--mode", "bogus"}, env.socketPath, env.configPath); err == nil {
		t.Fatal("expected invalid workflow mode to be rejected")
	}
}

func TestUploadSubtitle(t *testing.T) {
	env := setupCLITestEnv(t)
	env.run(t, "scan", "/data")

	srt := filepath.Join(t.TempDir(), "English.srt")
	if err := os.WriteFile(srt, []byte("1\n00:00:01,000 --> 00:00:02,500\nHello\n"), 0o644); err != nil {
		t.Fatalf("write srt: %v", err)
	}
	out := env.run(t, "upload", "ep1.mp4", srt)
	requireContains(t, out, "Uploaded 1 cues to /data/Show/ep1.srt")

	out = env.run(t, "tree")
	requireContains(t, out, "uploaded")
	requireContains(t, out, "external")
}

func TestCancelAndAbort(t *testing.T) {
	env := setupCLITestEnv(t)
	env.run(t, "scan", "/data")
	env.run(t, "process", "ep1.mp4")

	out := env.run(t, "cancel", "ep1.mp4")
	requireContains(t, out, "Cancel requested for ep1.mp4")

	out = env.run(t, "abort", "--remote")
	requireContains(t, out, "closed 1 streams, backend jobs cancelled")
	if env.pipeline.Aborts() != 1 {
		t.Fatalf("expected one backend abort, got %d", env.pipeline.Aborts())
	}
}

func TestSessionStatus(t *testing.T) {
	env := setupCLITestEnv(t)
	env.run(t, "scan", "/data")

	out := env.run(t, "session", "status")
	requireContains(t, out, "System Status")
	requireContains(t, out, "Running (pid")
	requireContains(t, out, "/data")
	requireContains(t, out, "Total")

	out = env.run(t, "session", "status", "--json")
	requireContains(t, out, `"running": true`)
}

func TestCommandsWithoutSession(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	socket := filepath.Join(t.TempDir(), "missing.sock")
	_, _, err := runCLI(t, []string{"--config", filepath.Join(t.TempDir(), "none.toml"), "tree"}, socket, "")
	if err == nil || !strings.Contains(err.Error(), "substudio session start") {
		t.Fatalf("expected start hint, got %v", err)
	}
}

func TestSubsSearch(t *testing.T) {
	out, _, err := runCLI(t, []string{"subs-search", "The.Matrix.1999.mkv"}, "", "")
	if err != nil {
		t.Fatalf("subs-search: %v", err)
	}
	requireContains(t, out, "Search: The Matrix 1999")
	requireContains(t, out, "opensubtitles.com")
	requireContains(t, out, "subdl.com/search/The%20Matrix%201999")

	out, _, err = runCLI(t, []string{"subs-search", "--provider", "yts", "Heat"}, "", "")
	if err != nil {
		t.Fatalf("subs-search --provider: %v", err)
	}
	if strings.TrimSpace(out) != "https://yts-subs.com/search/Heat" {
		t.Fatalf("unexpected link %q", out)
	}
}

func TestSubsInspect(t *testing.T) {
	srt := filepath.Join(t.TempDir(), "movie.srt")
	content := "1\n00:00:01,000 --> 00:00:02,000\nHi\n\n2\n00:01:05,250 --> 00:01:07,500\nBye\n"
	if err := os.WriteFile(srt, []byte(content), 0o644); err != nil {
		t.Fatalf("write srt: %v", err)
	}
	out, _, err := runCLI(t, []string{"subs-search", "inspect", srt}, "", "")
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	requireContains(t, out, "2 cues from 00:00:01,000 to 00:01:07,500")
}

func TestConfigInitAndValidate(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err := runCLI(t, []string{"config", "init", "--path", target}, "", "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, "", ""); err == nil {
		t.Fatal("expected second init without --overwrite to fail")
	}

	out, _, err = runCLI(t, []string{"config", "validate"}, "", target)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
}
