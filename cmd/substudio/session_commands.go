package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"substudio/internal/daemonctl"
	"substudio/internal/daemonrun"
	"substudio/internal/ipc"
)

func newSessionCommand(ctx *commandContext) *cobra.Command {
	sessionCmd := &cobra.Command{
		Use:   "session",
		Short: "Manage the background session host",
	}

	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the session host",
		RunE: func(cmd *cobra.Command, args []string) error {
			exe, err := os.Executable()
			if err != nil {
				return fmt.Errorf("resolve executable: %w", err)
			}
			result, err := daemonctl.EnsureStarted(
				ctx.socketPath(),
				exe,
				daemonctl.LaunchOptions{ConfigPath: ctx.configPath()},
				10*time.Second,
			)
			if err != nil {
				return err
			}
			stdout := cmd.OutOrStdout()
			switch result.State {
			case daemonctl.StartStateStarted:
				fmt.Fprintf(stdout, "Session started (pid %d)\n", result.PID)
			case daemonctl.StartStateAlreadyRunning:
				fmt.Fprintf(stdout, "Session already running (pid %d)\n", result.PID)
			}
			return nil
		},
	}

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the session host",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			result, err := daemonctl.StopAndTerminate(ctx.socketPath(), ctx.configValue(), 5*time.Second)
			if errors.Is(err, daemonctl.ErrDaemonNotRunning) {
				fmt.Fprintln(stdout, "Session is not running")
				return nil
			}
			if err != nil {
				return err
			}
			if !result.StopAcknowledged {
				fmt.Fprintln(stdout, "Stop request sent")
			}
			if result.ForcedKill && result.PID > 0 {
				fmt.Fprintf(stdout, "Killed session process (pid %d)\n", result.PID)
			}
			fmt.Fprintln(stdout, "Session stopped")
			return nil
		},
	}

	var statusJSON bool
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show session, backend and batch status",
		RunE: func(cmd *cobra.Command, args []string) error {
			var status *ipc.StatusResponse
			socket := ctx.socketPath()
			if client, err := ipc.Dial(socket); err == nil {
				status, err = client.Status()
				_ = client.Close()
				if err != nil {
					return err
				}
			}
			if statusJSON {
				if status == nil {
					status = &ipc.StatusResponse{}
				}
				return writeJSON(cmd, status)
			}
			renderSessionStatus(cmd, ctx, status)
			return nil
		},
	}
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Output as JSON")

	runCmd := &cobra.Command{
		Use:    "run",
		Short:  "Run the session host in the foreground",
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if socket := strings.TrimSpace(*ctx.socketFlag); socket != "" {
				cfg.Paths.SocketPath = socket
			}
			return daemonrun.Run(cmd.Context(), cfg)
		},
	}

	sessionCmd.AddCommand(startCmd, stopCmd, statusCmd, runCmd)
	return sessionCmd
}

func renderSessionStatus(cmd *cobra.Command, ctx *commandContext, status *ipc.StatusResponse) {
	stdout := cmd.OutOrStdout()
	colorize := shouldColorize(stdout)

	for _, line := range renderSectionHeader("System Status", colorize) {
		fmt.Fprintln(stdout, line)
	}
	for _, line := range daemonctl.BuildSystemChecks(cmd.Context(), ctx.configValue(), status) {
		fmt.Fprintln(stdout, renderStatusLine(line.Label, statusKindFromSeverity(line.Severity), line.Detail, colorize))
	}
	if status == nil {
		return
	}

	fmt.Fprintln(stdout)
	for _, line := range renderSectionHeader("Session", colorize) {
		fmt.Fprintln(stdout, line)
	}
	current := status.CurrentPath
	if current == "" {
		current = "(not scanned)"
	}
	fmt.Fprintln(stdout, renderStatusLine("Library", statusInfo, current, colorize))
	fmt.Fprintln(stdout, renderStatusLine("Selected", statusInfo, strconv.Itoa(status.Selected), colorize))
	fmt.Fprintln(stdout, renderStatusLine("Streams", statusInfo, strconv.Itoa(len(status.Streams)), colorize))
	if status.Batch != "" {
		fmt.Fprintln(stdout, renderStatusLine("Last batch", statusInfo, status.Batch, colorize))
	}

	sum := status.Summary
	if sum.Total == 0 {
		return
	}
	fmt.Fprintln(stdout)
	for _, line := range renderSectionHeader("Progress", colorize) {
		fmt.Fprintln(stdout, line)
	}
	fmt.Fprintf(stdout, "%s%s %d%%\n", statusIndent, progressBar(sum.Percent, 30), sum.Percent)
	rows := [][]string{
		{"Idle", strconv.Itoa(sum.Idle)},
		{"Active", strconv.Itoa(sum.Active)},
		{"Done", strconv.Itoa(sum.Done)},
		{"Failed", strconv.Itoa(sum.Failed)},
		{"Cancelled", strconv.Itoa(sum.Cancelled)},
		{"Total", strconv.Itoa(sum.Total)},
	}
	fmt.Fprint(stdout, renderTable([]string{"Status", "Files"}, rows, []columnAlignment{alignLeft, alignRight}))
}
