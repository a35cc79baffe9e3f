package api

import (
	"substudio/internal/media"
)

// FromItem converts a tree node and its subtree to the wire representation.
func FromItem(item *media.Item) File {
	if item == nil {
		return File{}
	}
	dto := File{
		ID:               item.ID,
		Name:             item.Name,
		Path:             item.Path,
		IsDirectory:      item.IsDirectory,
		Status:           string(item.Status),
		Progress:         item.Progress,
		StatusText:       item.StatusText,
		ExternalSubtitle: item.ExternalSubtitle,
	}
	if item.IsDirectory {
		dto.Children = FromItems(item.Children)
		return dto
	}
	info := item.SubtitleInfo
	dto.SubtitleInfo = &SubtitleInfo{
		HasSubtitles: info.HasSubtitles,
		SubType:      string(info.SubType),
		Languages:    append([]string(nil), info.Languages...),
		Count:        info.Count,
		SRTPath:      info.SRTPath,
	}
	ov := item.Overrides
	dto.Overrides = &Overrides{
		SourceLang:        ov.SourceLang,
		TargetLanguages:   append([]string(nil), ov.TargetLanguages...),
		WorkflowMode:      string(ov.WorkflowMode),
		SyncOffset:        ov.SyncOffset,
		StripExistingSubs: ov.StripExistingSubs,
		Touched:           ov.Touched.Names(),
	}
	return dto
}

// FromItems converts a list of nodes.
func FromItems(items []*media.Item) []File {
	out := make([]File, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		out = append(out, FromItem(item))
	}
	return out
}

// ToItem converts a scanned node into a fresh tree node. Processing state
// and overrides are not taken from the wire; they are owned locally.
func ToItem(file File) *media.Item {
	item := &media.Item{
		ID:          file.ID,
		Name:        file.Name,
		Path:        file.Path,
		IsDirectory: file.IsDirectory,
	}
	if status, ok := media.ParseStatus(file.Status); ok {
		item.Status = status
	}
	item.Progress = file.Progress
	item.StatusText = file.StatusText
	if file.IsDirectory {
		item.Children = ToItems(file.Children)
		return item
	}
	if info := file.SubtitleInfo; info != nil {
		item.SubtitleInfo = media.SubtitleInfo{
			HasSubtitles: info.HasSubtitles,
			SubType:      media.ParseSubtitleType(info.SubType),
			Languages:    append([]string(nil), info.Languages...),
			Count:        info.Count,
			SRTPath:      info.SRTPath,
		}
	}
	return item
}

// ToItems converts a list of scanned nodes.
func ToItems(files []File) []*media.Item {
	out := make([]*media.Item, 0, len(files))
	for _, file := range files {
		out = append(out, ToItem(file))
	}
	return out
}

// NewProcessItem builds the submission record for item with its resolved strategy.
func NewProcessItem(item *media.Item, strategy media.Strategy) ProcessItem {
	ov := item.Overrides
	targets := append([]string(nil), ov.TargetLanguages...)
	if targets == nil {
		targets = []string{}
	}
	out := ProcessItem{
		FileID:            item.ID,
		Name:              item.Name,
		Path:              item.Path,
		SourceLang:        ov.SourceLang,
		TargetLanguages:   targets,
		EffectiveWorkflow: string(strategy),
		SyncOffset:        ov.SyncOffset,
		StripExistingSubs: ov.StripExistingSubs,
	}
	if strategy == media.StrategyExternal {
		out.ExternalSubtitle = item.ExternalSubtitle
	}
	return out
}
