package api

import "encoding/json"

// SubtitleInfo is the scanner's subtitle discovery result for one file.
type SubtitleInfo struct {
	HasSubtitles bool     `json:"hasSubtitles"`
	SubType      string   `json:"subType,omitempty"`
	Languages    []string `json:"languages,omitempty"`
	Count        int      `json:"count"`
	SRTPath      string   `json:"srtPath,omitempty"`
}

// Overrides mirrors media.Overrides for JSON output.
type Overrides struct {
	SourceLang        string   `json:"sourceLang,omitempty"`
	TargetLanguages   []string `json:"targetLanguages,omitempty"`
	WorkflowMode      string   `json:"workflowMode,omitempty"`
	SyncOffset        float64  `json:"syncOffset"`
	StripExistingSubs bool     `json:"stripExistingSubs"`
	Touched           []string `json:"touched,omitempty"`
}

// File is one node of a scan snapshot.
type File struct {
	ID               string        `json:"id"`
	Name             string        `json:"name"`
	Path             string        `json:"path"`
	IsDirectory      bool          `json:"isDirectory"`
	Children         []File        `json:"children,omitempty"`
	Status           string        `json:"status,omitempty"`
	Progress         int           `json:"progress"`
	StatusText       string        `json:"statusText,omitempty"`
	SubtitleInfo     *SubtitleInfo `json:"subtitleInfo,omitempty"`
	Overrides        *Overrides    `json:"overrides,omitempty"`
	ExternalSubtitle string        `json:"externalSubtitle,omitempty"`
}

// UnmarshalJSON accepts the legacy field spellings alongside the canonical ones.
func (f *File) UnmarshalJSON(data []byte) error {
	type canonical File
	var wire struct {
		canonical
		FileName    string `json:"fileName"`
		FilePath    string `json:"filePath"`
		IsDirLegacy *bool  `json:"is_directory"`
		CurrentTask string `json:"currentTask"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*f = File(wire.canonical)
	if f.Name == "" {
		f.Name = wire.FileName
	}
	if f.Path == "" {
		f.Path = wire.FilePath
	}
	if wire.IsDirLegacy != nil && !f.IsDirectory {
		f.IsDirectory = *wire.IsDirLegacy
	}
	if f.StatusText == "" {
		f.StatusText = wire.CurrentTask
	}
	if f.ID == "" {
		f.ID = f.Path
	}
	return nil
}

// ScanRequest asks the backend to scan a directory.
type ScanRequest struct {
	Path      string `json:"path"`
	Recursive bool   `json:"recursive"`
}

// ScanResponse carries a complete scan snapshot.
type ScanResponse struct {
	CurrentPath string `json:"currentPath"`
	Files       []File `json:"files"`
}

// UnmarshalJSON accepts rootPath as an alias of currentPath.
func (r *ScanResponse) UnmarshalJSON(data []byte) error {
	type canonical ScanResponse
	var wire struct {
		canonical
		RootPath string `json:"rootPath"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*r = ScanResponse(wire.canonical)
	if r.CurrentPath == "" {
		r.CurrentPath = wire.RootPath
	}
	return nil
}

// ProcessItem is the resolved submission record for one file.
type ProcessItem struct {
	FileID            string   `json:"fileId"`
	Name              string   `json:"name"`
	Path              string   `json:"path"`
	SourceLang        string   `json:"sourceLang"`
	TargetLanguages   []string `json:"targetLanguages"`
	EffectiveWorkflow string   `json:"effectiveWorkflow"`
	SyncOffset        float64  `json:"syncOffset"`
	StripExistingSubs bool     `json:"stripExistingSubs"`
	ExternalSubtitle  string   `json:"externalSubtitle,omitempty"`
}

// GlobalOptions carries the batch-wide options of a start-job request.
type GlobalOptions struct {
	TranscriptionEngine string `json:"transcriptionEngine"`
	GenerateSRT         bool   `json:"generateSRT"`
	MuxIntoMKV          bool   `json:"muxIntoMkv"`
	CleanUp             bool   `json:"cleanUp"`
	ModelSize           string `json:"modelSize,omitempty"`
	CorrelationID       string `json:"correlationId,omitempty"`
}

// ProcessRequest submits a batch of jobs in one call.
type ProcessRequest struct {
	Items         []ProcessItem `json:"items"`
	GlobalOptions GlobalOptions `json:"globalOptions"`
}

// Ack is the generic acknowledgement body.
type Ack struct {
	Status   string `json:"status,omitempty"`
	Message  string `json:"message,omitempty"`
	JobCount int    `json:"jobCount,omitempty"`
}

// UploadResponse reports where an uploaded subtitle was stored.
type UploadResponse struct {
	Path string `json:"path"`
}

// ErrorResponse is the error body shape returned by the backend.
type ErrorResponse struct {
	Detail string `json:"detail"`
	Error  string `json:"error"`
}
