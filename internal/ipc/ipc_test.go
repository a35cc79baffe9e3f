package ipc_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"substudio/internal/api"
	"substudio/internal/backend"
	"substudio/internal/daemon"
	"substudio/internal/ipc"
	"substudio/internal/logging"
	"substudio/internal/media"
	"substudio/internal/session"
	"substudio/internal/settings"
	"substudio/internal/testsupport"
)

type harness struct {
	pipeline *testsupport.Pipeline
	daemon   *daemon.Daemon
	client   *ipc.Client
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	pipeline := testsupport.NewPipeline(t)
	cfg := testsupport.NewConfig(t, testsupport.WithBackendURL(pipeline.URL()))
	logger := logging.NewNop()

	client, err := backend.New(backend.Options{BaseURL: cfg.Backend.BaseURL, RequestTimeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("backend.New: %v", err)
	}
	sess, err := session.New(session.Options{
		Backend: client,
		Settings: settings.Global{
			TargetLanguages: []string{"en"},
			WorkflowMode:    media.ModeHybrid,
			AutoGenerate:    true,
		},
		Logger:            logger,
		ReconnectDelay:    5 * time.Millisecond,
		ReconnectMaxDelay: 20 * time.Millisecond,
		NewCorrelationID:  func() string { return "batch-ipc" },
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
		t.Fatalf("Start: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	srv, err := ipc.NewServer(ctx, cfg.Paths.SocketPath, d, logger)
	if err != nil {
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping IPC server test: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()
	t.Cleanup(srv.Close)

	rpcClient, err := ipc.Dial(cfg.Paths.SocketPath)
	if err != nil {
		t.Fatalf("ipc.Dial: %v", err)
	}
	t.Cleanup(func() { _ = rpcClient.Close() })

	pipeline.SetScan(api.ScanResponse{
		CurrentPath: "/data",
		Files: []api.File{
			{
				ID: "/data/Show", Name: "Show", Path: "/data/Show", IsDirectory: true,
				Children: []api.File{
					{ID: "ep1.mp4", Name: "ep1.mp4", Path: "/data/Show/ep1.mp4"},
					{ID: "ep2.mkv", Name: "ep2.mkv", Path: "/data/Show/ep2.mkv", SubtitleInfo: &api.SubtitleInfo{HasSubtitles: true, SubType: "embedded", Count: 1}},
				},
			},
		},
	})
	return &harness{pipeline: pipeline, daemon: d, client: rpcClient}
}

func TestIPCStatusAndScan(t *testing.T) {
	h := newHarness(t)

	status, err := h.client.Status()
	if err != nil {
		t.Fatalf("Status RPC failed: %v", err)
	}
	if !status.Running || status.PID == 0 || status.Scanner != "backend" {
		t.Fatalf("unexpected status %+v", status)
	}

	scan, err := h.client.Scan(ipc.ScanRequest{Path: "/data", Recursive: true})
	if err != nil {
		t.Fatalf("Scan RPC failed: %v", err)
	}
	if scan.CurrentPath != "/data" || scan.Files != 2 || scan.Directories != 1 {
		t.Fatalf("unexpected scan response %+v", scan)
	}

	tree, err := h.client.Tree()
	if err != nil {
		t.Fatalf("Tree RPC failed: %v", err)
	}
	if len(tree.Items) != 1 || len(tree.Items[0].Children) != 2 {
		t.Fatalf("unexpected tree %+v", tree.Items)
	}
	if tree.Strategies["ep1.mp4"] != string(media.StrategyWhisper) || tree.Strategies["ep2.mkv"] != string(media.StrategyEmbedded) {
		t.Fatalf("unexpected strategies %v", tree.Strategies)
	}
	if tree.Summary.Total != 2 || tree.Summary.Idle != 2 {
		t.Fatalf("unexpected summary %+v", tree.Summary)
	}
}

func TestIPCSelectionAndProcess(t *testing.T) {
	h := newHarness(t)
	if _, err := h.client.Scan(ipc.ScanRequest{Path: "/data", Recursive: true}); err != nil {
		t.Fatalf("Scan RPC failed: %v", err)
	}

	toggled, err := h.client.Toggle(ipc.ToggleRequest{IDs: []string{"/data/Show"}})
	if err != nil {
		t.Fatalf("Toggle RPC failed: %v", err)
	}
	if len(toggled.Results) != 1 || !toggled.Results[0].Selected || len(toggled.Selection) != 3 {
		t.Fatalf("unexpected toggle response %+v", toggled)
	}

	resp, err := h.client.Process(ipc.ProcessRequest{})
	if err != nil {
		t.Fatalf("Process RPC failed: %v", err)
	}
	if resp.CorrelationID != "batch-ipc" || len(resp.Submitted) != 2 || resp.AckStatus != "accepted" {
		t.Fatalf("unexpected process response %+v", resp)
	}
	if processed := h.pipeline.Processed(); len(processed) != 1 || len(processed[0].Items) != 2 {
		t.Fatalf("unexpected backend batches %+v", processed)
	}

	if _, err := h.client.Process(ipc.ProcessRequest{IDs: []string{"ep1.mp4"}}); err == nil {
		t.Fatal("expected resubmitting an active job to fail")
	}

	h.pipeline.Emit("ep1.mp4", map[string]any{"type": "log", "message": "extracting audio"})
	deadline := time.Now().Add(2 * time.Second)
	for {
		logs, err := h.client.Logs(ipc.LogsRequest{ID: "ep1.mp4"})
		if err != nil {
			t.Fatalf("Logs RPC failed: %v", err)
		}
		if len(logs.Lines) >= 2 {
			if !logs.Active {
				t.Fatalf("expected job to be active, got %+v", logs)
			}
			since := logs.Lines[len(logs.Lines)-1].Time
			newer, err := h.client.Logs(ipc.LogsRequest{ID: "ep1.mp4", Since: since})
			if err != nil {
				t.Fatalf("Logs RPC failed: %v", err)
			}
			if len(newer.Lines) != 0 {
				t.Fatalf("expected no lines after %v, got %+v", since, newer.Lines)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for log lines, got %+v", logs.Lines)
		}
		time.Sleep(10 * time.Millisecond)
	}

	if _, err := h.client.Cancel("ep1.mp4"); err != nil {
		t.Fatalf("Cancel RPC failed: %v", err)
	}
	abort, err := h.client.Abort(true)
	if err != nil {
		t.Fatalf("Abort RPC failed: %v", err)
	}
	if abort.StreamsClosed == 0 || !abort.Remote {
		t.Fatalf("unexpected abort response %+v", abort)
	}
	if h.pipeline.Aborts() != 1 || len(h.pipeline.Cancelled()) != 1 {
		t.Fatalf("expected backend cancel and abort, got %v / %d", h.pipeline.Cancelled(), h.pipeline.Aborts())
	}
}

func TestIPCSettingsAndOverrides(t *testing.T) {
	h := newHarness(t)
	if _, err := h.client.Scan(ipc.ScanRequest{Path: "/data", Recursive: true}); err != nil {
		t.Fatalf("Scan RPC failed: %v", err)
	}

	src := "ja"
	set, err := h.client.SetSettings(ipc.SetSettingsRequest{SourceLang: &src})
	if err != nil {
		t.Fatalf("SetSettings RPC failed: %v", err)
	}
	if set.Settings.SourceLang != "ja" || set.Updated != 2 {
		t.Fatalf("unexpected settings response %+v", set)
	}

	mode := "whisper"
	override, err := h.client.SetOverride(ipc.SetOverrideRequest{ID: "ep2.mkv", WorkflowMode: &mode})
	if err != nil {
		t.Fatalf("SetOverride RPC failed: %v", err)
	}
	if override.Strategy != string(media.StrategyWhisper) {
		t.Fatalf("expected whisper strategy after override, got %q", override.Strategy)
	}

	resync, err := h.client.SetOverride(ipc.SetOverrideRequest{ID: "ep2.mkv", Resync: true})
	if err != nil {
		t.Fatalf("SetOverride resync failed: %v", err)
	}
	if resync.Resynced != 1 || resync.Strategy != string(media.StrategyEmbedded) {
		t.Fatalf("unexpected resync response %+v", resync)
	}

	bad := "klingon-classic"
	if _, err := h.client.SetSettings(ipc.SetSettingsRequest{ModelSize: &bad}); err == nil {
		t.Fatal("expected invalid model size to be rejected")
	}
}

func TestIPCUpload(t *testing.T) {
	h := newHarness(t)
	if _, err := h.client.Scan(ipc.ScanRequest{Path: "/data", Recursive: true}); err != nil {
		t.Fatalf("Scan RPC failed: %v", err)
	}
	body := "1\n00:00:01,000 --> 00:00:02,000\nHello\n"
	resp, err := h.client.Upload(ipc.UploadRequest{ID: "ep1.mp4", FileName: "ep1.srt", Content: []byte(body)})
	if err != nil {
		t.Fatalf("Upload RPC failed: %v", err)
	}
	if resp.Cues != 1 || resp.StoredPath == "" {
		t.Fatalf("unexpected upload response %+v", resp)
	}
	if _, err := h.client.Upload(ipc.UploadRequest{ID: "ep1.mp4", FileName: "ep1.txt", Content: []byte(body)}); err == nil {
		t.Fatal("expected non-srt upload to be rejected")
	}
}

func TestIPCShutdown(t *testing.T) {
	h := newHarness(t)
	resp, err := h.client.Shutdown()
	if err != nil {
		t.Fatalf("Shutdown RPC failed: %v", err)
	}
	if !resp.Stopping {
		t.Fatal("expected Stopping=true")
	}
	select {
	case <-h.daemon.ShutdownRequested():
	case <-time.After(time.Second):
		t.Fatal("expected shutdown to be requested")
	}
}
