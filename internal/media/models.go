package media

import "strings"

// Status represents the processing lifecycle of a library item.
type Status string

const (
	StatusIdle            Status = "idle"
	StatusQueued          Status = "queued"
	StatusProcessing      Status = "processing"
	StatusContextualizing Status = "contextualizing"
	StatusTranscribing    Status = "transcribing"
	StatusRefining        Status = "refining"
	StatusTranslating     Status = "translating"
	StatusMuxing          Status = "muxing"
	StatusDone            Status = "done"
	StatusError           Status = "error"
	StatusInterrupted     Status = "interrupted"
	StatusCancelled       Status = "cancelled"
	// StatusFolder is the sentinel carried by directories. It never transitions.
	StatusFolder Status = "folder"
)

var allStatuses = []Status{
	StatusIdle,
	StatusQueued,
	StatusProcessing,
	StatusContextualizing,
	StatusTranscribing,
	StatusRefining,
	StatusTranslating,
	StatusMuxing,
	StatusDone,
	StatusError,
	StatusInterrupted,
	StatusCancelled,
	StatusFolder,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

var terminalStatuses = map[Status]struct{}{
	StatusDone:        {},
	StatusError:       {},
	StatusCancelled:   {},
	StatusInterrupted: {},
}

// ParseStatus converts a wire value into a Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if _, ok := statusSet[normalized]; !ok {
		return "", false
	}
	return normalized, true
}

// AllStatuses returns every known status in lifecycle order.
func AllStatuses() []Status {
	out := make([]Status, len(allStatuses))
	copy(out, allStatuses)
	return out
}

// IsTerminal reports whether no further events are expected for the status.
func (s Status) IsTerminal() bool {
	_, ok := terminalStatuses[s]
	return ok
}

// IsActive reports whether a job is in flight for an item with this status.
func (s Status) IsActive() bool {
	switch s {
	case StatusIdle, StatusFolder, "":
		return false
	}
	return !s.IsTerminal()
}

// SubtitleType describes where discovered subtitles live.
type SubtitleType string

const (
	SubtitleNone     SubtitleType = "none"
	SubtitleEmbedded SubtitleType = "embedded"
	SubtitleExternal SubtitleType = "external"
	SubtitleMixed    SubtitleType = "mixed"
)

// ParseSubtitleType maps scanner spellings onto a SubtitleType. Unknown and
// empty values map to SubtitleNone.
func ParseSubtitleType(value string) SubtitleType {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "embedded":
		return SubtitleEmbedded
	case "external", "external_isolated":
		return SubtitleExternal
	case "mixed":
		return SubtitleMixed
	default:
		return SubtitleNone
	}
}

// SubtitleInfo captures subtitle metadata discovered at scan time.
type SubtitleInfo struct {
	HasSubtitles bool
	SubType      SubtitleType
	Languages    []string
	Count        int
	SRTPath      string
}

// Mode is the configured workflow policy for an item or the whole session.
type Mode string

const (
	ModeHybrid   Mode = "hybrid"
	ModeWhisper  Mode = "whisper"
	ModeForceAI  Mode = "force_ai"
	ModeSRT      Mode = "srt"
	ModeEmbedded Mode = "embedded"
)

// ParseMode converts a user or wire value into a Mode.
func ParseMode(value string) (Mode, bool) {
	switch Mode(strings.ToLower(strings.TrimSpace(value))) {
	case ModeHybrid:
		return ModeHybrid, true
	case ModeWhisper:
		return ModeWhisper, true
	case ModeForceAI:
		return ModeForceAI, true
	case ModeSRT:
		return ModeSRT, true
	case ModeEmbedded:
		return ModeEmbedded, true
	}
	return "", false
}

// ForcesTranscription reports whether the mode unconditionally selects AI transcription.
func (m Mode) ForcesTranscription() bool {
	return m == ModeWhisper || m == ModeForceAI
}

// Strategy is the effective processing workflow resolved for one file.
type Strategy string

const (
	StrategyWhisper  Strategy = "whisper"
	StrategySRT      Strategy = "srt"
	StrategyEmbedded Strategy = "embedded"
	StrategyExternal Strategy = "external"
)

// Field identifies an override field for touched tracking.
type Field uint8

const (
	FieldSourceLang Field = 1 << iota
	FieldTargetLanguages
	FieldWorkflowMode
	FieldSyncOffset
	FieldStripExistingSubs
)

// FieldSet is a bit set of override fields.
type FieldSet uint8

// Has reports whether f is in the set.
func (s FieldSet) Has(f Field) bool { return s&FieldSet(f) != 0 }

// With returns the set with f added.
func (s FieldSet) With(f Field) FieldSet { return s | FieldSet(f) }

// Names lists the set members using their configuration names.
func (s FieldSet) Names() []string {
	var names []string
	for _, entry := range []struct {
		field Field
		name  string
	}{
		{FieldSourceLang, "source_lang"},
		{FieldTargetLanguages, "target_languages"},
		{FieldWorkflowMode, "workflow_mode"},
		{FieldSyncOffset, "sync_offset"},
		{FieldStripExistingSubs, "strip_existing_subs"},
	} {
		if s.Has(entry.field) {
			names = append(names, entry.name)
		}
	}
	return names
}

// Overrides holds per-item processing settings. Values are seeded from the
// global settings at scan time; Touched records the fields the operator edited
// directly on this item.
type Overrides struct {
	SourceLang        string
	TargetLanguages   []string
	WorkflowMode      Mode
	SyncOffset        float64
	StripExistingSubs bool
	Touched           FieldSet
}

// Item is one node (folder or file) of the media library tree.
type Item struct {
	ID          string
	Name        string
	Path        string
	IsDirectory bool
	// Children is non-nil only for directories. An empty slice means the
	// subtree was not loaded by the scan.
	Children []*Item

	Status     Status
	Progress   int
	StatusText string

	SubtitleInfo SubtitleInfo
	Overrides    Overrides
	// ExternalSubtitle is the stored path of an operator-uploaded subtitle.
	ExternalSubtitle string
}

// HasExternalSubtitle reports whether an uploaded subtitle is attached.
func (i *Item) HasExternalSubtitle() bool {
	return i != nil && strings.TrimSpace(i.ExternalSubtitle) != ""
}

// Clone returns a deep copy of the item and its subtree.
func (i *Item) Clone() *Item {
	if i == nil {
		return nil
	}
	cp := *i
	cp.SubtitleInfo.Languages = cloneStrings(i.SubtitleInfo.Languages)
	cp.Overrides.TargetLanguages = cloneStrings(i.Overrides.TargetLanguages)
	if i.Children != nil {
		cp.Children = make([]*Item, len(i.Children))
		for idx, child := range i.Children {
			cp.Children[idx] = child.Clone()
		}
	}
	return &cp
}

// Descendants returns every node below the item in depth-first order.
func (i *Item) Descendants() []*Item {
	if i == nil {
		return nil
	}
	var out []*Item
	var walk func(nodes []*Item)
	walk = func(nodes []*Item) {
		for _, node := range nodes {
			if node == nil {
				continue
			}
			out = append(out, node)
			walk(node.Children)
		}
	}
	walk(i.Children)
	return out
}

func cloneStrings(values []string) []string {
	if values == nil {
		return nil
	}
	out := make([]string, len(values))
	copy(out, values)
	return out
}
