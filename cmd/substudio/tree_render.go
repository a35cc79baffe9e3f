package main

import (
	"fmt"
	"slices"
	"strings"

	"substudio/internal/api"
	"substudio/internal/ipc"
	"substudio/internal/language"
)

func treeRows(tree *ipc.TreeResponse) [][]string {
	selected := make(map[string]struct{}, len(tree.Selection))
	for _, id := range tree.Selection {
		selected[id] = struct{}{}
	}
	full := make(map[string]struct{}, len(tree.FullySelected))
	for _, id := range tree.FullySelected {
		full[id] = struct{}{}
	}

	var rows [][]string
	var walk func(files []api.File, depth int)
	walk = func(files []api.File, depth int) {
		for _, file := range files {
			name := strings.Repeat("  ", depth) + file.Name
			if file.IsDirectory {
				name += "/"
				rows = append(rows, []string{selectionMarker(file, selected, full), name, "", "", "", ""})
				walk(file.Children, depth+1)
				continue
			}
			rows = append(rows, []string{
				selectionMarker(file, selected, full),
				name,
				statusLabel(file),
				fmt.Sprintf("%d%%", file.Progress),
				subtitleSummary(file),
				tree.Strategies[file.ID],
			})
		}
	}
	walk(tree.Items, 0)
	return rows
}

func selectionMarker(file api.File, selected, full map[string]struct{}) string {
	if _, ok := selected[file.ID]; ok {
		return "[x]"
	}
	if _, ok := full[file.ID]; ok {
		return "[x]"
	}
	return "[ ]"
}

func statusLabel(file api.File) string {
	status := file.Status
	if status == "" {
		status = "idle"
	}
	if text := strings.TrimSpace(file.StatusText); text != "" && status != "idle" {
		return status + ": " + text
	}
	return status
}

func subtitleSummary(file api.File) string {
	if file.ExternalSubtitle != "" {
		return "uploaded"
	}
	info := file.SubtitleInfo
	if info == nil || !info.HasSubtitles {
		return "none"
	}
	kind := info.SubType
	if kind == "" {
		kind = "found"
	}
	if len(info.Languages) == 0 {
		return kind
	}
	names := make([]string, 0, len(info.Languages))
	for _, code := range info.Languages {
		names = append(names, language.DisplayName(code))
	}
	return kind + " (" + strings.Join(names, ", ") + ")"
}

func selectionRows(tree *ipc.TreeResponse) [][]string {
	ids := slices.Clone(tree.Selection)
	slices.Sort(ids)
	dangling := make(map[string]struct{}, len(tree.Dangling))
	for _, id := range tree.Dangling {
		dangling[id] = struct{}{}
	}
	rows := make([][]string, 0, len(ids))
	for _, id := range ids {
		note := ""
		workflow, isFile := tree.Strategies[id]
		switch {
		case hasKey(dangling, id):
			note = "not in current tree"
		case !isFile:
			note = "directory"
		}
		rows = append(rows, []string{id, workflow, note})
	}
	return rows
}

func hasKey(set map[string]struct{}, key string) bool {
	_, ok := set[key]
	return ok
}
