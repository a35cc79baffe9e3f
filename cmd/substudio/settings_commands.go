package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"substudio/internal/api"
	"substudio/internal/ipc"
	"substudio/internal/language"
	"substudio/internal/settings"
)

func newSettingsCommand(ctx *commandContext) *cobra.Command {
	settingsCmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change the global processing settings",
	}

	var jsonOutput bool
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the global settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Settings()
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, resp.Settings)
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable([]string{"Setting", "Value"}, settingsRows(resp.Settings), nil))
				return nil
			})
		},
	}
	showCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	var (
		sourceLang   string
		targets      []string
		mode         string
		modelSize    string
		autoGenerate bool
		mux          bool
		removeOrig   bool
		strip        bool
	)
	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Change global settings; files without direct edits follow",
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			req := ipc.SetSettingsRequest{
				SourceLang:           changedString(flags, "source-lang", sourceLang),
				WorkflowMode:         changedString(flags, "mode", mode),
				ModelSize:            changedString(flags, "model-size", modelSize),
				AutoGenerate:         changedBool(flags, "auto-generate", autoGenerate),
				ShouldMux:            changedBool(flags, "mux", mux),
				ShouldRemoveOriginal: changedBool(flags, "remove-original", removeOrig),
				StripExistingSubs:    changedBool(flags, "strip-existing", strip),
			}
			if flags.Changed("targets") {
				req.TargetLanguages = targets
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.SetSettings(req)
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				fmt.Fprint(stdout, renderTable([]string{"Setting", "Value"}, settingsRows(resp.Settings), nil))
				fmt.Fprintf(stdout, "%d files updated\n", resp.Updated)
				return nil
			})
		},
	}
	setFlags := setCmd.Flags()
	setFlags.StringVar(&sourceLang, "source-lang", "", "Source language code or \"auto\"")
	setFlags.StringSliceVar(&targets, "targets", nil, "Target language codes (comma separated)")
	setFlags.StringVar(&mode, "mode", "", "Workflow mode: hybrid, whisper, force_ai, srt or embedded")
	setFlags.StringVar(&modelSize, "model-size", "", "Transcription model size: "+strings.Join(settings.ModelSizes(), ", "))
	setFlags.BoolVar(&autoGenerate, "auto-generate", false, "Generate SRT output")
	setFlags.BoolVar(&mux, "mux", false, "Mux subtitles into an MKV")
	setFlags.BoolVar(&removeOrig, "remove-original", false, "Remove the original file after muxing")
	setFlags.BoolVar(&strip, "strip-existing", false, "Strip existing subtitle tracks")

	settingsCmd.AddCommand(showCmd, setCmd)
	return settingsCmd
}

func newOverrideCommand(ctx *commandContext) *cobra.Command {
	var (
		sourceLang string
		targets    []string
		mode       string
		syncOffset float64
		strip      bool
		resync     bool
	)
	cmd := &cobra.Command{
		Use:   "override <id>",
		Short: "Edit the settings of one file, or resync it with the global settings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			req := ipc.SetOverrideRequest{
				ID:                args[0],
				SourceLang:        changedString(flags, "source-lang", sourceLang),
				WorkflowMode:      changedString(flags, "mode", mode),
				StripExistingSubs: changedBool(flags, "strip-existing", strip),
				Resync:            resync,
			}
			if flags.Changed("targets") {
				req.TargetLanguages = targets
			}
			if flags.Changed("sync-offset") {
				req.SyncOffset = &syncOffset
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.SetOverride(req)
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if resync {
					fmt.Fprintf(stdout, "Resynced %d files\n", resp.Resynced)
				}
				if !resp.Item.IsDirectory {
					fmt.Fprint(stdout, renderTable([]string{"Setting", "Value"}, overrideRows(resp.Item, resp.Strategy), nil))
				}
				return nil
			})
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&sourceLang, "source-lang", "", "Source language code or \"auto\"")
	flags.StringSliceVar(&targets, "targets", nil, "Target language codes (comma separated)")
	flags.StringVar(&mode, "mode", "", "Workflow mode: hybrid, whisper, force_ai, srt or embedded")
	flags.Float64Var(&syncOffset, "sync-offset", 0, "Subtitle sync offset in seconds")
	flags.BoolVar(&strip, "strip-existing", false, "Strip existing subtitle tracks")
	flags.BoolVar(&resync, "resync", false, "Drop direct edits and follow the global settings again")
	return cmd
}

func changedString(flags *pflag.FlagSet, name, value string) *string {
	if !flags.Changed(name) {
		return nil
	}
	return &value
}

func changedBool(flags *pflag.FlagSet, name string, value bool) *bool {
	if !flags.Changed(name) {
		return nil
	}
	return &value
}

func languageList(codes []string) string {
	if len(codes) == 0 {
		return "-"
	}
	names := make([]string, 0, len(codes))
	for _, code := range codes {
		names = append(names, fmt.Sprintf("%s (%s)", language.DisplayName(code), code))
	}
	return strings.Join(names, ", ")
}

func settingsRows(g ipc.GlobalSettings) [][]string {
	return [][]string{
		{"Source language", language.DisplayName(g.SourceLang)},
		{"Target languages", languageList(g.TargetLanguages)},
		{"Workflow mode", g.WorkflowMode},
		{"Model size", g.ModelSize},
		{"Generate SRT", yesNo(g.AutoGenerate)},
		{"Mux into MKV", yesNo(g.ShouldMux)},
		{"Remove original", yesNo(g.ShouldRemoveOriginal)},
		{"Strip existing subs", yesNo(g.StripExistingSubs)},
	}
}

func overrideRows(item api.File, strategy string) [][]string {
	var o api.Overrides
	if item.Overrides != nil {
		o = *item.Overrides
	}
	touched := strings.Join(o.Touched, ", ")
	if touched == "" {
		touched = "-"
	}
	return [][]string{
		{"File", item.Path},
		{"Source language", language.DisplayName(o.SourceLang)},
		{"Target languages", languageList(o.TargetLanguages)},
		{"Workflow mode", o.WorkflowMode},
		{"Sync offset", strconv.FormatFloat(o.SyncOffset, 'f', -1, 64) + "s"},
		{"Strip existing subs", yesNo(o.StripExistingSubs)},
		{"Edited", touched},
		{"Workflow", strategy},
	}
}
