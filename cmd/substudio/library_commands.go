package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"substudio/internal/ipc"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	var recursive bool
	cmd := &cobra.Command{
		Use:   "scan [path]",
		Short: "Scan a library directory and load it as the current tree",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = strings.TrimSpace(args[0])
			}
			if path == "" {
				if cfg := ctx.configValue(); cfg != nil {
					path = cfg.Session.DefaultScanPath
				}
			}
			if !cmd.Flags().Changed("recursive") {
				if cfg := ctx.configValue(); cfg != nil {
					recursive = cfg.Session.Recursive
				}
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Scan(ipc.ScanRequest{Path: path, Recursive: recursive})
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				fmt.Fprintf(stdout, "Scanned %s: %d files in %d directories\n", resp.CurrentPath, resp.Files, resp.Directories)
				if len(resp.Dangling) > 0 {
					fmt.Fprintf(stdout, "%d selected items are no longer in the tree: %s\n", len(resp.Dangling), strings.Join(resp.Dangling, ", "))
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", true, "Load the whole subtree")
	return cmd
}

func newTreeCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Show the library tree with selection, status and workflow",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				tree, err := client.Tree()
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, tree)
				}
				stdout := cmd.OutOrStdout()
				if len(tree.Items) == 0 {
					fmt.Fprintln(stdout, "Library tree is empty (run `substudio scan`)")
					return nil
				}
				fmt.Fprintln(stdout, tree.CurrentPath)
				fmt.Fprint(stdout, renderTable(
					[]string{"Sel", "Name", "Status", "Progress", "Subtitles", "Workflow"},
					treeRows(tree),
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
				))
				sum := tree.Summary
				fmt.Fprintf(stdout, "%d files: %d done, %d active, %d failed, %d cancelled (%d%%)\n",
					sum.Total, sum.Done, sum.Active, sum.Failed, sum.Cancelled, sum.Percent)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newSelectCommand(ctx *commandContext) *cobra.Command {
	var clear bool
	cmd := &cobra.Command{
		Use:   "select <id>...",
		Short: "Toggle the selection of files or directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && !clear {
				return fmt.Errorf("at least one id is required (or --clear)")
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Toggle(ipc.ToggleRequest{IDs: args, Clear: clear})
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if clear {
					fmt.Fprintln(stdout, "Selection cleared")
				}
				for _, result := range resp.Results {
					state := "deselected"
					if result.Selected {
						state = "selected"
					}
					fmt.Fprintf(stdout, "%s %s\n", result.ID, state)
				}
				fmt.Fprintf(stdout, "%d items selected\n", len(resp.Selection))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&clear, "clear", false, "Clear the selection before toggling")
	return cmd
}

func newSelectionCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "selection",
		Short: "List selected items and the workflow each file will use",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				tree, err := client.Tree()
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, struct {
						Selection     []string `json:"selection"`
						FullySelected []string `json:"fully_selected"`
						Dangling      []string `json:"dangling"`
					}{tree.Selection, tree.FullySelected, tree.Dangling})
				}
				stdout := cmd.OutOrStdout()
				if len(tree.Selection) == 0 {
					fmt.Fprintln(stdout, "Nothing selected")
					return nil
				}
				fmt.Fprint(stdout, renderTable([]string{"ID", "Workflow", "Note"}, selectionRows(tree), nil))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
