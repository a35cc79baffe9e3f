package api

import (
	"encoding/json"
	"reflect"
	"testing"

	"substudio/internal/media"
)

func TestScanResponseAcceptsLegacySpellings(t *testing.T) {
	payload := `{
		"status": "success",
		"rootPath": "/data",
		"files": [
			{"id": "/data/Show", "fileName": "Show", "filePath": "/data/Show", "is_directory": true, "children": [
				{"fileName": "ep1.mp4", "filePath": "/data/Show/ep1.mp4", "subtitleInfo": {"hasSubtitles": true, "subType": "external_isolated", "languages": ["fr"], "count": 1}}
			]}
		]
	}`
	var resp ScanResponse
	if err := json.Unmarshal([]byte(payload), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.CurrentPath != "/data" {
		t.Fatalf("expected rootPath alias, got %q", resp.CurrentPath)
	}
	show := resp.Files[0]
	if !show.IsDirectory || show.Name != "Show" || len(show.Children) != 1 {
		t.Fatalf("unexpected directory %+v", show)
	}
	ep := show.Children[0]
	if ep.ID != "/data/Show/ep1.mp4" {
		t.Fatalf("expected id to fall back to path, got %q", ep.ID)
	}

	items := ToItems(resp.Files)
	child := items[0].Children[0]
	if child.SubtitleInfo.SubType != media.SubtitleExternal || !reflect.DeepEqual(child.SubtitleInfo.Languages, []string{"fr"}) {
		t.Fatalf("unexpected subtitle info %+v", child.SubtitleInfo)
	}
}

func TestScanResponseCanonicalWins(t *testing.T) {
	var resp ScanResponse
	if err := json.Unmarshal([]byte(`{"currentPath":"/a","rootPath":"/b","files":[]}`), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.CurrentPath != "/a" {
		t.Fatalf("expected canonical currentPath, got %q", resp.CurrentPath)
	}
}

func TestFromItemIncludesOverrides(t *testing.T) {
	item := &media.Item{
		ID:   "/data/a.mkv",
		Name: "a.mkv",
		Path: "/data/a.mkv",
		Overrides: media.Overrides{
			SourceLang:      "en",
			TargetLanguages: []string{"fr"},
			WorkflowMode:    media.ModeSRT,
			Touched:         media.FieldSet(0).With(media.FieldTargetLanguages),
		},
		Status: media.StatusQueued,
	}
	dto := FromItem(item)
	if dto.Overrides == nil || !reflect.DeepEqual(dto.Overrides.Touched, []string{"target_languages"}) {
		t.Fatalf("unexpected overrides %+v", dto.Overrides)
	}
	if dto.Status != "queued" || dto.SubtitleInfo == nil {
		t.Fatalf("unexpected dto %+v", dto)
	}

	dir := FromItem(&media.Item{ID: "/data", IsDirectory: true, Children: []*media.Item{item}})
	if dir.Overrides != nil || len(dir.Children) != 1 {
		t.Fatalf("unexpected directory dto %+v", dir)
	}
}

func TestNewProcessItem(t *testing.T) {
	item := &media.Item{
		ID:               "/data/a.mkv",
		Name:             "a.mkv",
		Path:             "/data/a.mkv",
		ExternalSubtitle: "/data/a.srt",
		Overrides:        media.Overrides{SourceLang: "auto", SyncOffset: 1.25},
	}
	got := NewProcessItem(item, media.StrategyExternal)
	if got.EffectiveWorkflow != "external" || got.ExternalSubtitle != "/data/a.srt" || got.SyncOffset != 1.25 {
		t.Fatalf("unexpected process item %+v", got)
	}
	if got.TargetLanguages == nil {
		t.Fatal("expected empty target list to encode as []")
	}
	if other := NewProcessItem(item, media.StrategyWhisper); other.ExternalSubtitle != "" {
		t.Fatal("expected upload path only for the external strategy")
	}
}
