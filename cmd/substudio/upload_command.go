package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"substudio/internal/ipc"
	"substudio/internal/subtitles"
)

func newUploadCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <id> <file.srt>",
		Short: "Attach an SRT file to a video so it is processed with the external workflow",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, source := args[0], args[1]
			if err := subtitles.CheckFileName(source); err != nil {
				return err
			}
			content, err := readSubtitle(source)
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Upload(ipc.UploadRequest{ID: id, FileName: filepath.Base(source), Content: content})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %d cues to %s\n", resp.Cues, resp.StoredPath)
				return nil
			})
		},
	}
}

func readSubtitle(path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open subtitle: %w", err)
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, subtitles.MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read subtitle: %w", err)
	}
	if len(data) > subtitles.MaxUploadBytes {
		return nil, fmt.Errorf("subtitle %s is larger than %d bytes", path, subtitles.MaxUploadBytes)
	}
	return data, nil
}
