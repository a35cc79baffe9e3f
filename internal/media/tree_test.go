package media_test

import (
	"errors"
	"reflect"
	"testing"

	"substudio/internal/media"
)

func sampleTree(t *testing.T) *media.Tree {
	t.Helper()
	tree := media.NewTree()
	items := []*media.Item{
		{
			ID:          "/data/Show",
			Name:        "Show",
			Path:        "/data/Show",
			IsDirectory: true,
			Children: []*media.Item{
				{ID: "/data/Show/ep1.mp4", Name: "ep1.mp4", Path: "/data/Show/ep1.mp4"},
				{ID: "/data/Show/ep2.mp4", Name: "ep2.mp4", Path: "/data/Show/ep2.mp4", Progress: 140},
				{
					ID:          "/data/Show/Extras",
					Name:        "Extras",
					IsDirectory: true,
					Children: []*media.Item{
						{ID: "/data/Show/Extras/bts.mkv", Name: "bts.mkv"},
					},
				},
			},
		},
		{ID: "/data/movie.mkv", Name: "movie.mkv", Status: "bogus"},
	}
	if err := tree.Replace("/data", items); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	return tree
}

func TestReplaceNormalizesNodes(t *testing.T) {
	tree := sampleTree(t)

	if tree.Len() != 6 {
		t.Fatalf("expected 6 indexed nodes, got %d", tree.Len())
	}
	if tree.CurrentPath() != "/data" {
		t.Fatalf("unexpected current path %q", tree.CurrentPath())
	}
	show, ok := tree.Lookup("/data/Show")
	if !ok || show.Status != media.StatusFolder {
		t.Fatalf("expected folder status on directory, got %+v", show)
	}
	ep2, _ := tree.Lookup("/data/Show/ep2.mp4")
	if ep2.Progress != 100 {
		t.Fatalf("expected progress clamped to 100, got %d", ep2.Progress)
	}
	if ep2.Children != nil {
		t.Fatal("expected files to have nil children")
	}
	movie, _ := tree.Lookup("/data/movie.mkv")
	if movie.Status != media.StatusIdle {
		t.Fatalf("expected unknown status to normalize to idle, got %q", movie.Status)
	}
	if movie.SubtitleInfo.SubType != media.SubtitleNone {
		t.Fatalf("expected subtype none, got %q", movie.SubtitleInfo.SubType)
	}
	if got := len(tree.Files()); got != 4 {
		t.Fatalf("expected 4 files, got %d", got)
	}
}

func TestReplaceRejectsDuplicateIDsAndKeepsPreviousTree(t *testing.T) {
	tree := sampleTree(t)
	err := tree.Replace("/other", []*media.Item{
		{ID: "a", Name: "a.mp4"},
		{ID: "dir", IsDirectory: true, Children: []*media.Item{{ID: "a", Name: "a.mp4"}}},
	})
	if !errors.Is(err, media.ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
	if tree.CurrentPath() != "/data" || !tree.Contains("/data/movie.mkv") {
		t.Fatal("expected previous tree to survive a rejected snapshot")
	}
}

func TestUpdateMergesIntoNestedNode(t *testing.T) {
	tree := sampleTree(t)
	status := media.StatusTranscribing
	progress := 42
	text := "Transcribing audio"

	if !tree.Update("/data/Show/Extras/bts.mkv", media.Patch{Status: &status, Progress: &progress, StatusText: &text}) {
		t.Fatal("expected nested node to be updated")
	}
	node, _ := tree.Lookup("/data/Show/Extras/bts.mkv")
	if node.Status != status || node.Progress != 42 || node.StatusText != text {
		t.Fatalf("unexpected node after update: %+v", node)
	}
	sibling, _ := tree.Lookup("/data/Show/ep1.mp4")
	if sibling.Status != media.StatusIdle || sibling.Progress != 0 {
		t.Fatalf("expected sibling untouched, got %+v", sibling)
	}
}

func TestUpdateIgnoresStatusOnDirectories(t *testing.T) {
	tree := sampleTree(t)
	status := media.StatusDone
	tree.Update("/data/Show", media.Patch{Status: &status})
	show, _ := tree.Lookup("/data/Show")
	if show.Status != media.StatusFolder {
		t.Fatalf("expected directory status to stay folder, got %q", show.Status)
	}
}

func TestUpdateUnknownIDIsNoop(t *testing.T) {
	tree := sampleTree(t)
	before := tree.Clone()
	status := media.StatusDone
	if tree.Update("/missing.mp4", media.Patch{Status: &status}) {
		t.Fatal("expected unknown id to report no match")
	}
	if !reflect.DeepEqual(before, tree.Clone()) {
		t.Fatal("expected tree to be unchanged after unknown update")
	}
}

func TestCloneIsDeep(t *testing.T) {
	tree := sampleTree(t)
	clone := tree.Clone()
	clone[0].Children[0].Status = media.StatusDone
	clone[0].Children = nil

	ep1, _ := tree.Lookup("/data/Show/ep1.mp4")
	if ep1.Status != media.StatusIdle {
		t.Fatal("expected clone mutation not to leak into the tree")
	}
	show, _ := tree.Lookup("/data/Show")
	if len(show.Children) != 3 {
		t.Fatal("expected original children to be intact")
	}
}

func TestStatusClassification(t *testing.T) {
	tests := []struct {
		status   media.Status
		terminal bool
		active   bool
	}{
		{media.StatusIdle, false, false},
		{media.StatusFolder, false, false},
		{media.StatusQueued, false, true},
		{media.StatusProcessing, false, true},
		{media.StatusMuxing, false, true},
		{media.StatusDone, true, false},
		{media.StatusError, true, false},
		{media.StatusCancelled, true, false},
		{media.StatusInterrupted, true, false},
	}
	for _, tt := range tests {
		if got := tt.status.IsTerminal(); got != tt.terminal {
			t.Fatalf("%s: IsTerminal = %v, want %v", tt.status, got, tt.terminal)
		}
		if got := tt.status.IsActive(); got != tt.active {
			t.Fatalf("%s: IsActive = %v, want %v", tt.status, got, tt.active)
		}
	}
}

func TestParseSubtitleTypeAcceptsBackendSpellings(t *testing.T) {
	if got := media.ParseSubtitleType("external_isolated"); got != media.SubtitleExternal {
		t.Fatalf("expected external, got %q", got)
	}
	if got := media.ParseSubtitleType(""); got != media.SubtitleNone {
		t.Fatalf("expected none, got %q", got)
	}
}
