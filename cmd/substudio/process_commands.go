package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"substudio/internal/api"
	"substudio/internal/ipc"
	"substudio/internal/media"
)

func newProcessCommand(ctx *commandContext) *cobra.Command {
	var watch bool
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "process [id]...",
		Short: "Submit files to the backend (defaults to the selection)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Process(ipc.ProcessRequest{IDs: args})
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				fmt.Fprintf(stdout, "Batch %s: %d submitted, %d skipped", resp.CorrelationID, len(resp.Submitted), len(resp.Skipped))
				if resp.AckStatus != "" {
					fmt.Fprintf(stdout, " (backend: %s)", resp.AckStatus)
				}
				fmt.Fprintln(stdout)
				rows := make([][]string, 0, len(resp.Submitted)+len(resp.Skipped))
				for _, job := range resp.Submitted {
					rows = append(rows, []string{job.ID, job.Workflow, job.Reason})
				}
				for _, job := range resp.Skipped {
					rows = append(rows, []string{job.ID, "skipped", job.Reason})
				}
				fmt.Fprint(stdout, renderTable([]string{"ID", "Workflow", "Reason"}, rows, nil))
				if !watch {
					return nil
				}
				ids := make([]string, 0, len(resp.Submitted))
				for _, job := range resp.Submitted {
					ids = append(ids, job.ID)
				}
				return watchJobs(cmd, client, ids, interval)
			})
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Follow progress until every submitted job finishes")
	cmd.Flags().DurationVar(&interval, "interval", 500*time.Millisecond, "Polling interval for --watch")
	return cmd
}

// watchJobs prints one line per observed status or progress change until
// every job is terminal.
func watchJobs(cmd *cobra.Command, client *ipc.Client, ids []string, interval time.Duration) error {
	if len(ids) == 0 {
		return nil
	}
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	stdout := cmd.OutOrStdout()
	last := make(map[string]string, len(ids))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		tree, err := client.Tree()
		if err != nil {
			return err
		}
		files := indexFiles(tree.Items)
		finished := 0
		for _, id := range ids {
			file, ok := files[id]
			if !ok {
				finished++
				continue
			}
			line := fmt.Sprintf("%s %s %d%%", progressBar(file.Progress, 20), statusLabel(file), file.Progress)
			if last[id] != line {
				last[id] = line
				fmt.Fprintf(stdout, "%s %s\n", id, line)
			}
			if status, ok := media.ParseStatus(file.Status); ok && status.IsTerminal() {
				finished++
			}
		}
		if finished == len(ids) {
			printWatchSummary(stdout, tree.Summary)
			return nil
		}
		select {
		case <-cmd.Context().Done():
			return cmd.Context().Err()
		case <-ticker.C:
		}
	}
}

func printWatchSummary(w io.Writer, sum ipc.Summary) {
	fmt.Fprintf(w, "All jobs finished: %d done, %d failed, %d cancelled\n", sum.Done, sum.Failed, sum.Cancelled)
}

func indexFiles(items []api.File) map[string]api.File {
	out := make(map[string]api.File)
	var walk func(files []api.File)
	walk = func(files []api.File) {
		for _, file := range files {
			if file.IsDirectory {
				walk(file.Children)
				continue
			}
			out[file.ID] = file
		}
	}
	walk(items)
	return out
}

func newCancelCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <id>",
		Short: "Ask the backend to cancel one job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				if _, err := client.Cancel(args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cancel requested for %s\n", args[0])
				return nil
			})
		},
	}
}

func newAbortCommand(ctx *commandContext) *cobra.Command {
	var remote bool
	cmd := &cobra.Command{
		Use:   "abort",
		Short: "Stop following every job, optionally cancelling them on the backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Abort(remote)
				if err != nil {
					return err
				}
				parts := []string{fmt.Sprintf("closed %d streams", resp.StreamsClosed)}
				if resp.Remote {
					parts = append(parts, "backend jobs cancelled")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Aborted: %s\n", strings.Join(parts, ", "))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&remote, "remote", false, "Also cancel every job on the backend")
	return cmd
}
