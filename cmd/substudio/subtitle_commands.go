package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"substudio/internal/subtitles"
)

func newSubsSearchCommand() *cobra.Command {
	var provider string
	cmd := &cobra.Command{
		Use:         "subs-search <video name>",
		Short:       "Print subtitle site search links for a video",
		Args:        cobra.MinimumNArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.Join(args, " ")
			stdout := cmd.OutOrStdout()
			if p := strings.TrimSpace(provider); p != "" {
				query := subtitles.SearchQuery(name)
				target, err := subtitles.SearchURL(subtitles.Provider(strings.ToLower(p)), query)
				if err != nil {
					return err
				}
				fmt.Fprintln(stdout, target)
				return nil
			}
			links := subtitles.SearchLinks(name)
			if len(links) == 0 {
				return fmt.Errorf("no searchable words in %q", name)
			}
			rows := make([][]string, 0, len(links))
			for _, link := range links {
				rows = append(rows, []string{link.Provider.Label(), link.URL})
			}
			fmt.Fprintf(stdout, "Search: %s\n", links[0].Query)
			fmt.Fprint(stdout, renderTable([]string{"Provider", "URL"}, rows, nil))
			return nil
		},
	}
	cmd.Flags().StringVar(&provider, "provider", "", "Print only the link for one provider (opensubtitles, subdl, yts)")

	cmd.AddCommand(&cobra.Command{
		Use:   "inspect <file.srt>",
		Short: "Check an SRT file before uploading it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := subtitles.CheckFileName(args[0]); err != nil {
				return err
			}
			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open subtitle: %w", err)
			}
			defer file.Close()
			report, _, err := subtitles.Inspect(file)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d cues from %s to %s\n", report.Cues, formatSeconds(report.First), formatSeconds(report.Last))
			return nil
		},
	})
	return cmd
}

func formatSeconds(value float64) string {
	total := int(value)
	millis := int((value - float64(total)) * 1000)
	return fmt.Sprintf("%02d:%02d:%02d,%03d", total/3600, total/60%60, total%60, millis)
}
