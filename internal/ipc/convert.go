package ipc

import (
	"strings"

	"substudio/internal/session"
	"substudio/internal/settings"
)

func convertSettings(g settings.Global) GlobalSettings {
	return GlobalSettings{
		SourceLang:           g.SourceLang,
		TargetLanguages:      append([]string{}, g.TargetLanguages...),
		WorkflowMode:         string(g.WorkflowMode),
		ModelSize:            g.ModelSize,
		AutoGenerate:         g.AutoGenerate,
		ShouldMux:            g.ShouldMux,
		ShouldRemoveOriginal: g.ShouldRemoveOriginal,
		StripExistingSubs:    g.StripExistingSubs,
	}
}

func convertSummary(sum session.Summary) Summary {
	return Summary{
		Total:     sum.Total,
		Idle:      sum.Idle,
		Active:    sum.Active,
		Done:      sum.Done,
		Failed:    sum.Failed,
		Cancelled: sum.Cancelled,
		Percent:   sum.Percent,
	}
}

func convertStreams(snap session.Snapshot) []StreamInfo {
	out := make([]StreamInfo, 0, len(snap.Streams))
	for _, h := range snap.Streams {
		out = append(out, StreamInfo{
			JobID:      h.JobID,
			Opened:     h.Opened,
			LastEvent:  h.LastEvent,
			Events:     h.Events,
			Reconnects: h.Reconnects,
		})
	}
	return out
}

func describeSkips(skips []session.Skip) string {
	parts := make([]string, 0, len(skips))
	for _, skip := range skips {
		parts = append(parts, skip.ID+": "+skip.Reason)
	}
	return strings.Join(parts, "; ")
}
