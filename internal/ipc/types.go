package ipc

import (
	"time"

	"substudio/internal/api"
)

// StatusRequest fetches host status.
type StatusRequest struct{}

// Summary counts files by outcome.
type Summary struct {
	Total     int `json:"total"`
	Idle      int `json:"idle"`
	Active    int `json:"active"`
	Done      int `json:"done"`
	Failed    int `json:"failed"`
	Cancelled int `json:"cancelled"`
	Percent   int `json:"percent"`
}

// StreamInfo describes one open live update stream.
type StreamInfo struct {
	JobID      string    `json:"job_id"`
	Opened     time.Time `json:"opened"`
	LastEvent  time.Time `json:"last_event"`
	Events     int       `json:"events"`
	Reconnects int       `json:"reconnects"`
}

// StatusResponse represents host and session status.
type StatusResponse struct {
	Running     bool         `json:"running"`
	PID         int          `json:"pid"`
	Started     time.Time    `json:"started"`
	LockPath    string       `json:"lock_path"`
	LogPath     string       `json:"log_path"`
	Scanner     string       `json:"scanner"`
	BackendURL  string       `json:"backend_url"`
	CurrentPath string       `json:"current_path"`
	Selected    int          `json:"selected"`
	Streams     []StreamInfo `json:"streams"`
	Summary     Summary      `json:"summary"`
	Batch       string       `json:"batch"`
}

// ScanRequest lists a library directory.
type ScanRequest struct {
	Path      string `json:"path"`
	Recursive bool   `json:"recursive"`
}

// ScanResponse summarises the installed snapshot.
type ScanResponse struct {
	CurrentPath string   `json:"current_path"`
	Files       int      `json:"files"`
	Directories int      `json:"directories"`
	Dangling    []string `json:"dangling"`
}

// TreeRequest fetches the library tree.
type TreeRequest struct{}

// TreeResponse carries a full copy of the tree with derived state.
type TreeResponse struct {
	CurrentPath   string            `json:"current_path"`
	Items         []api.File        `json:"items"`
	Selection     []string          `json:"selection"`
	FullySelected []string          `json:"fully_selected"`
	Dangling      []string          `json:"dangling"`
	Strategies    map[string]string `json:"strategies"`
	Streams       []StreamInfo      `json:"streams"`
	Summary       Summary           `json:"summary"`
}

// ToggleRequest flips the selection of each identifier in order. Clear
// empties the selection first.
type ToggleRequest struct {
	IDs   []string `json:"ids"`
	Clear bool     `json:"clear"`
}

// ToggleResult reports the selection state of one identifier.
type ToggleResult struct {
	ID       string `json:"id"`
	Selected bool   `json:"selected"`
}

// ToggleResponse carries the per-identifier results and the new selection.
type ToggleResponse struct {
	Results   []ToggleResult `json:"results"`
	Selection []string       `json:"selection"`
}

// GlobalSettings mirrors the session-wide processing settings.
type GlobalSettings struct {
	SourceLang           string   `json:"source_lang"`
	TargetLanguages      []string `json:"target_languages"`
	WorkflowMode         string   `json:"workflow_mode"`
	ModelSize            string   `json:"model_size"`
	AutoGenerate         bool     `json:"auto_generate"`
	ShouldMux            bool     `json:"should_mux"`
	ShouldRemoveOriginal bool     `json:"should_remove_original"`
	StripExistingSubs    bool     `json:"strip_existing_subs"`
}

// SettingsRequest fetches the global settings.
type SettingsRequest struct{}

// SettingsResponse carries the global settings.
type SettingsResponse struct {
	Settings GlobalSettings `json:"settings"`
}

// SetSettingsRequest changes the provided global settings.
type SetSettingsRequest struct {
	SourceLang           *string  `json:"source_lang,omitempty"`
	TargetLanguages      []string `json:"target_languages,omitempty"`
	WorkflowMode         *string  `json:"workflow_mode,omitempty"`
	ModelSize            *string  `json:"model_size,omitempty"`
	AutoGenerate         *bool    `json:"auto_generate,omitempty"`
	ShouldMux            *bool    `json:"should_mux,omitempty"`
	ShouldRemoveOriginal *bool    `json:"should_remove_original,omitempty"`
	StripExistingSubs    *bool    `json:"strip_existing_subs,omitempty"`
}

// SetSettingsResponse carries the updated settings and propagation count.
type SetSettingsResponse struct {
	Settings GlobalSettings `json:"settings"`
	Updated  int            `json:"updated"`
}

// SetOverrideRequest edits the per-file settings of one file. Resync drops
// direct edits instead and is applied before any other field.
type SetOverrideRequest struct {
	ID                string   `json:"id"`
	SourceLang        *string  `json:"source_lang,omitempty"`
	TargetLanguages   []string `json:"target_languages,omitempty"`
	WorkflowMode      *string  `json:"workflow_mode,omitempty"`
	SyncOffset        *float64 `json:"sync_offset,omitempty"`
	StripExistingSubs *bool    `json:"strip_existing_subs,omitempty"`
	Resync            bool     `json:"resync,omitempty"`
}

// SetOverrideResponse returns the edited node.
type SetOverrideResponse struct {
	Item     api.File `json:"item"`
	Strategy string   `json:"strategy"`
	Resynced int      `json:"resynced"`
}

// ProcessRequest submits files. Empty IDs submit the selection.
type ProcessRequest struct {
	IDs []string `json:"ids"`
}

// SubmittedJob is one submitted file.
type SubmittedJob struct {
	ID       string `json:"id"`
	Workflow string `json:"workflow"`
	Reason   string `json:"reason"`
}

// SkippedJob is one requested file that was not submitted.
type SkippedJob struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// ProcessResponse describes the submitted batch.
type ProcessResponse struct {
	CorrelationID string         `json:"correlation_id"`
	Submitted     []SubmittedJob `json:"submitted"`
	Skipped       []SkippedJob   `json:"skipped"`
	AckStatus     string         `json:"ack_status"`
	AckMessage    string         `json:"ack_message"`
}

// CancelRequest cancels one job.
type CancelRequest struct {
	ID string `json:"id"`
}

// CancelResponse confirms the cancel request.
type CancelResponse struct {
	Requested bool `json:"requested"`
}

// AbortRequest closes every stream and optionally cancels every remote job.
type AbortRequest struct {
	Remote bool `json:"remote"`
}

// AbortResponse reports the abort outcome.
type AbortResponse struct {
	StreamsClosed int  `json:"streams_closed"`
	Remote        bool `json:"remote"`
}

// UploadRequest attaches an SRT file to a video.
type UploadRequest struct {
	ID       string `json:"id"`
	FileName string `json:"file_name"`
	Content  []byte `json:"content"`
}

// UploadResponse reports where the subtitle was stored.
type UploadResponse struct {
	StoredPath string `json:"stored_path"`
	Cues       int    `json:"cues"`
}

// LogsRequest fetches the buffered log lines of a job. With Since set only
// newer lines are returned.
type LogsRequest struct {
	ID    string    `json:"id"`
	Since time.Time `json:"since"`
}

// LogLine is one buffered job log line.
type LogLine struct {
	Time    time.Time `json:"time"`
	Level   string    `json:"level"`
	Message string    `json:"message"`
}

// LogsResponse carries log lines and the job's current state.
type LogsResponse struct {
	Lines    []LogLine `json:"lines"`
	Status   string    `json:"status"`
	Progress int       `json:"progress"`
	Active   bool      `json:"active"`
}

// ShutdownRequest asks the host to exit.
type ShutdownRequest struct{}

// ShutdownResponse acknowledges the shutdown.
type ShutdownResponse struct {
	Stopping bool `json:"stopping"`
}
