package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"substudio/internal/ipc"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var follow bool
	var jsonOutput bool
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "logs <id>",
		Short: "Show the buffered log lines of a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Logs(ipc.LogsRequest{ID: id})
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, resp)
				}
				stdout := cmd.OutOrStdout()
				if len(resp.Lines) == 0 && !follow {
					fmt.Fprintf(stdout, "No log lines for %s\n", id)
					return nil
				}
				since := printLogLines(stdout, resp.Lines, time.Time{})
				if !follow {
					return nil
				}
				if interval <= 0 {
					interval = 500 * time.Millisecond
				}
				ticker := time.NewTicker(interval)
				defer ticker.Stop()
				for resp.Active {
					select {
					case <-cmd.Context().Done():
						return cmd.Context().Err()
					case <-ticker.C:
					}
					resp, err = client.Logs(ipc.LogsRequest{ID: id, Since: since})
					if err != nil {
						return err
					}
					since = printLogLines(stdout, resp.Lines, since)
				}
				fmt.Fprintf(stdout, "Job %s is %s\n", id, resp.Status)
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines while the job is active")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().DurationVar(&interval, "interval", 500*time.Millisecond, "Polling interval for --follow")
	return cmd
}

// printLogLines writes lines and returns the newest timestamp seen.
func printLogLines(w io.Writer, lines []ipc.LogLine, since time.Time) time.Time {
	for _, line := range lines {
		fmt.Fprintf(w, "%s %-5s %s\n", line.Time.Local().Format("15:04:05"), strings.ToUpper(line.Level), line.Message)
		if line.Time.After(since) {
			since = line.Time
		}
	}
	return since
}
