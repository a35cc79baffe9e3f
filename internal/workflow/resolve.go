// Package workflow resolves the effective subtitle workflow for one file.
//
// Resolve is a pure function of the discovered subtitle metadata, the
// per-item and global workflow modes, and whether an operator upload is
// attached. It is evaluated at submission time and never cached on items.
package workflow

import "substudio/internal/media"

// Input carries everything the resolver looks at.
type Input struct {
	Info             media.SubtitleInfo
	ItemMode         media.Mode
	GlobalMode       media.Mode
	ExternalAttached bool
}

// Resolve returns the effective strategy for in.
func Resolve(in Input) media.Strategy {
	strategy, _ := Explain(in)
	return strategy
}

// Explain returns the effective strategy and the rule that produced it.
func Explain(in Input) (media.Strategy, string) {
	if in.ItemMode.ForcesTranscription() || in.GlobalMode.ForcesTranscription() {
		return media.StrategyWhisper, "transcription forced by workflow mode"
	}
	if in.ExternalAttached {
		return media.StrategyExternal, "uploaded subtitle attached"
	}

	switch effectiveMode(in) {
	case media.ModeSRT:
		if in.Info.HasSubtitles {
			return media.StrategySRT, "srt mode with discovered subtitles"
		}
		return media.StrategyWhisper, "srt mode without discovered subtitles"
	case media.ModeEmbedded:
		if in.Info.HasSubtitles {
			return media.StrategyEmbedded, "embedded mode with discovered subtitles"
		}
		return media.StrategyWhisper, "embedded mode without discovered subtitles"
	}

	switch {
	case in.Info.SubType == media.SubtitleEmbedded:
		return media.StrategyEmbedded, "hybrid: embedded subtitle track found"
	case in.Info.HasSubtitles:
		return media.StrategySRT, "hybrid: sidecar subtitle found"
	default:
		return media.StrategyWhisper, "hybrid: no subtitles discovered"
	}
}

func effectiveMode(in Input) media.Mode {
	if mode, ok := media.ParseMode(string(in.ItemMode)); ok {
		return mode
	}
	if mode, ok := media.ParseMode(string(in.GlobalMode)); ok {
		return mode
	}
	return media.ModeHybrid
}

// ForItem builds the resolver input for item under the given global mode.
func ForItem(item *media.Item, globalMode media.Mode) Input {
	if item == nil {
		return Input{GlobalMode: globalMode}
	}
	return Input{
		Info:             item.SubtitleInfo,
		ItemMode:         item.Overrides.WorkflowMode,
		GlobalMode:       globalMode,
		ExternalAttached: item.HasExternalSubtitle(),
	}
}
