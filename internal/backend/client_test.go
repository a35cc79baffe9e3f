package backend_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"substudio/internal/api"
	"substudio/internal/backend"
	"substudio/internal/testsupport"
)

func newClient(t *testing.T, pipeline *testsupport.Pipeline, token string) *backend.Client {
	t.Helper()
	client, err := backend.New(backend.Options{BaseURL: pipeline.URL(), Token: token, RequestTimeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return client
}

func TestScanDecodesSnapshot(t *testing.T) {
	pipeline := testsupport.NewPipeline(t)
	pipeline.SetScan(api.ScanResponse{
		CurrentPath: "/data",
		Files: []api.File{{
			ID: "/data/Show", Name: "Show", Path: "/data/Show", IsDirectory: true,
			Children: []api.File{{ID: "/data/Show/ep1.mp4", Name: "ep1.mp4", Path: "/data/Show/ep1.mp4"}},
		}},
	})
	client := newClient(t, pipeline, "")

	resp, err := client.Scan(context.Background(), "/data", true)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if resp.CurrentPath != "/data" || len(resp.Files) != 1 || len(resp.Files[0].Children) != 1 {
		t.Fatalf("unexpected response %+v", resp)
	}
	scans := pipeline.Scans()
	if len(scans) != 1 || scans[0].Path != "/data" || !scans[0].Recursive {
		t.Fatalf("unexpected recorded scans %+v", scans)
	}
}

func TestStatusErrorCarriesDetail(t *testing.T) {
	pipeline := testsupport.NewPipeline(t)
	pipeline.FailProcess(http.StatusServiceUnavailable)
	client := newClient(t, pipeline, "")

	_, err := client.StartJobs(context.Background(), api.ProcessRequest{Items: []api.ProcessItem{{FileID: "a"}}})
	var statusErr *backend.StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if statusErr.Code != http.StatusServiceUnavailable || statusErr.Detail != "pipeline busy" {
		t.Fatalf("unexpected status error %+v", statusErr)
	}
	if backend.IsUnavailable(err) {
		t.Fatal("a rejected request is not an unavailable backend")
	}
}

func TestBearerTokenIsSent(t *testing.T) {
	pipeline := testsupport.NewPipeline(t)
	pipeline.Token = "secret"

	if _, err := newClient(t, pipeline, "").Scan(context.Background(), "/data", false); err == nil {
		t.Fatal("expected unauthorized without token")
	}
	if _, err := newClient(t, pipeline, "secret").Scan(context.Background(), "/data", false); err != nil {
		t.Fatalf("Scan with token: %v", err)
	}
}

func TestCancelAndAbort(t *testing.T) {
	pipeline := testsupport.NewPipeline(t)
	client := newClient(t, pipeline, "")
	ctx := context.Background()

	if err := client.Cancel(ctx, "/data/Show/ep1.mp4"); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if err := client.Abort(ctx); err != nil {
		t.Fatalf("Abort: %v", err)
	}
	if got := pipeline.Cancelled(); len(got) != 1 || got[0] != "/data/Show/ep1.mp4" {
		t.Fatalf("unexpected cancelled ids %v", got)
	}
	if pipeline.Aborts() != 1 {
		t.Fatalf("expected one abort, got %d", pipeline.Aborts())
	}
}

func TestUploadSubtitleSendsMultipart(t *testing.T) {
	pipeline := testsupport.NewPipeline(t)
	client := newClient(t, pipeline, "")

	path, err := client.UploadSubtitle(context.Background(), backend.Upload{
		FileName:        "downloaded.srt",
		TargetName:      "ep1.srt",
		DestinationPath: "/data/Show",
		Body:            strings.NewReader("1\n00:00:01,000 --> 00:00:02,000\nHello\n"),
	})
	if err != nil {
		t.Fatalf("UploadSubtitle: %v", err)
	}
	if path != "/data/Show/ep1.srt" {
		t.Fatalf("unexpected stored path %q", path)
	}
	uploads := pipeline.Uploads()
	if len(uploads) != 1 || uploads[0].FileName != "downloaded.srt" || !strings.Contains(uploads[0].Body, "Hello") {
		t.Fatalf("unexpected uploads %+v", uploads)
	}
}

func TestUnreachableBackendIsUnavailable(t *testing.T) {
	client, err := backend.New(backend.Options{BaseURL: "http://127.0.0.1:1", RequestTimeout: time.Second})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = client.Scan(context.Background(), "/data", true)
	if !backend.IsUnavailable(err) || !errors.Is(err, backend.ErrUnavailable) {
		t.Fatalf("expected unavailable error, got %v", err)
	}
}

func TestStreamDeliversEventData(t *testing.T) {
	pipeline := testsupport.NewPipeline(t)
	client := newClient(t, pipeline, "")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var got []string
	done := make(chan error, 1)
	go func() {
		done <- client.Stream(ctx, "/data/a.mkv", func(data []byte) {
			mu.Lock()
			got = append(got, string(data))
			mu.Unlock()
		})
	}()

	pipeline.Emit("/data/a.mkv", map[string]any{"type": "status", "status": "transcribing", "progress": 10})
	pipeline.EmitRaw("/data/a.mkv", []byte(`{"type":"log","message":"hi"}`))

	deadline := time.Now().Add(2 * time.Second)
	for {
		mu.Lock()
		n := len(got)
		mu.Unlock()
		if n == 2 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for events, got %v", got)
		}
		time.Sleep(5 * time.Millisecond)
	}
	if pipeline.OpenStreams("/data/a.mkv") != 1 {
		t.Fatal("expected one open stream")
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context cancellation, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not stop after cancel")
	}
	mu.Lock()
	defer mu.Unlock()
	if !strings.Contains(got[0], `"transcribing"`) || got[1] != `{"type":"log","message":"hi"}` {
		t.Fatalf("unexpected payloads %v", got)
	}
}
