package testsupport

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"substudio/internal/api"
)

// UploadRecord captures one multipart subtitle upload.
type UploadRecord struct {
	FileName        string
	TargetName      string
	DestinationPath string
	Body            string
}

// Pipeline is an in-process fake of the remote processing backend.
type Pipeline struct {
	Server *httptest.Server
	Token  string

	mu          sync.Mutex
	scan        api.ScanResponse
	scanFail    int
	processFail int
	scans       []api.ScanRequest
	processed   []api.ProcessRequest
	cancelled   []string
	aborts      int
	uploads     []UploadRecord
	feeds       map[string]chan []byte
	open        map[string]int
	connects    map[string]int
	done        chan struct{}
}

// NewPipeline starts a fake backend that is shut down with the test.
func NewPipeline(t testing.TB) *Pipeline {
	t.Helper()
	p := &Pipeline{
		feeds:    make(map[string]chan []byte),
		open:     make(map[string]int),
		connects: make(map[string]int),
		done:     make(chan struct{}),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/scan", p.handleScan)
	mux.HandleFunc("POST /api/process", p.handleProcess)
	mux.HandleFunc("DELETE /api/cancel/{id...}", p.handleCancel)
	mux.HandleFunc("POST /api/abort", p.handleAbort)
	mux.HandleFunc("POST /api/subtitles", p.handleUpload)
	mux.HandleFunc("GET /api/events", p.handleEvents)
	p.Server = httptest.NewServer(p.authorize(mux))
	t.Cleanup(p.Server.Close)
	t.Cleanup(func() { close(p.done) })
	return p
}

// URL returns the base URL of the fake.
func (p *Pipeline) URL() string {
	return p.Server.URL
}

// SetScan sets the snapshot returned by the next scans.
func (p *Pipeline) SetScan(resp api.ScanResponse) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.scan = resp
}

// FailScan makes scans answer with code until reset with 0.
func (p *Pipeline) FailScan(code int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.scanFail = code
}

// FailProcess makes start-job calls answer with code until reset with 0.
func (p *Pipeline) FailProcess(code int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.processFail = code
}

// Emit queues one event for the job's stream.
func (p *Pipeline) Emit(fileID string, event map[string]any) {
	data, err := json.Marshal(event)
	if err != nil {
		panic(err)
	}
	p.EmitRaw(fileID, data)
}

// EmitRaw queues a raw data payload for the job's stream.
func (p *Pipeline) EmitRaw(fileID string, data []byte) {
	p.feed(fileID) <- data
}

// OpenStreams returns the number of currently connected streams for the job.
func (p *Pipeline) OpenStreams(fileID string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.open[fileID]
}

// Connects returns how many times the job's stream was opened.
func (p *Pipeline) Connects(fileID string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connects[fileID]
}

// Scans returns the recorded scan requests.
func (p *Pipeline) Scans() []api.ScanRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]api.ScanRequest(nil), p.scans...)
}

// Processed returns the recorded start-job requests.
func (p *Pipeline) Processed() []api.ProcessRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]api.ProcessRequest(nil), p.processed...)
}

// Cancelled returns the job identifiers cancelled so far.
func (p *Pipeline) Cancelled() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.cancelled...)
}

// Aborts returns how many global aborts were received.
func (p *Pipeline) Aborts() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.aborts
}

// Uploads returns the recorded subtitle uploads.
func (p *Pipeline) Uploads() []UploadRecord {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]UploadRecord(nil), p.uploads...)
}

func (p *Pipeline) feed(fileID string) chan []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	ch, ok := p.feeds[fileID]
	if !ok {
		ch = make(chan []byte, 64)
		p.feeds[fileID] = ch
	}
	return ch
}

func (p *Pipeline) authorize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p.Token != "" && r.Header.Get("Authorization") != "Bearer "+p.Token {
			writeJSON(w, http.StatusUnauthorized, api.ErrorResponse{Detail: "missing or invalid token"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (p *Pipeline) handleScan(w http.ResponseWriter, r *http.Request) {
	var req api.ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, api.ErrorResponse{Detail: err.Error()})
		return
	}
	p.mu.Lock()
	p.scans = append(p.scans, req)
	fail := p.scanFail
	resp := p.scan
	p.mu.Unlock()
	if fail != 0 {
		writeJSON(w, fail, api.ErrorResponse{Detail: "scan failed"})
		return
	}
	if resp.CurrentPath == "" {
		resp.CurrentPath = req.Path
	}
	writeJSON(w, http.StatusOK, resp)
}

func (p *Pipeline) handleProcess(w http.ResponseWriter, r *http.Request) {
	var req api.ProcessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, api.ErrorResponse{Detail: err.Error()})
		return
	}
	p.mu.Lock()
	p.processed = append(p.processed, req)
	fail := p.processFail
	p.mu.Unlock()
	if fail != 0 {
		writeJSON(w, fail, api.ErrorResponse{Detail: "pipeline busy"})
		return
	}
	writeJSON(w, http.StatusOK, api.Ack{Status: "accepted", JobCount: len(req.Items)})
}

func (p *Pipeline) handleCancel(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	p.cancelled = append(p.cancelled, r.PathValue("id"))
	p.mu.Unlock()
	writeJSON(w, http.StatusOK, api.Ack{Status: "cancelled"})
}

func (p *Pipeline) handleAbort(w http.ResponseWriter, _ *http.Request) {
	p.mu.Lock()
	p.aborts++
	p.mu.Unlock()
	writeJSON(w, http.StatusOK, api.Ack{Status: "aborted"})
}

func (p *Pipeline) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, api.ErrorResponse{Detail: err.Error()})
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, api.ErrorResponse{Detail: err.Error()})
		return
	}
	defer file.Close()
	body, _ := io.ReadAll(file)
	record := UploadRecord{
		FileName:        header.Filename,
		TargetName:      r.FormValue("targetName"),
		DestinationPath: r.FormValue("destinationPath"),
		Body:            string(body),
	}
	p.mu.Lock()
	p.uploads = append(p.uploads, record)
	p.mu.Unlock()
	stored := strings.TrimRight(record.DestinationPath, "/") + "/" + record.TargetName
	writeJSON(w, http.StatusOK, api.UploadResponse{Path: stored})
}

func (p *Pipeline) handleEvents(w http.ResponseWriter, r *http.Request) {
	fileID := r.URL.Query().Get("fileId")
	flusher, ok := w.(http.Flusher)
	if !ok || fileID == "" {
		http.Error(w, "streaming unsupported", http.StatusBadRequest)
		return
	}
	feed := p.feed(fileID)

	p.mu.Lock()
	p.open[fileID]++
	p.connects[fileID]++
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		p.open[fileID]--
		p.mu.Unlock()
	}()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, ": connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-p.done:
			return
		case data := <-feed:
			if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}
