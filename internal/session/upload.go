package session

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"substudio/internal/backend"
	"substudio/internal/logging"
	"substudio/internal/media"
	"substudio/internal/subtitles"
)

// UploadResult describes a stored subtitle.
type UploadResult struct {
	ID         string
	StoredPath string
	Cues       int
}

// UploadSubtitle sends an operator-supplied SRT file for the video id. The
// file is stored next to the video as <video basename>.srt and attached to
// the item, after which the item resolves to the external workflow.
func (s *Session) UploadSubtitle(ctx context.Context, id, fileName string, body io.Reader) (UploadResult, error) {
	if err := subtitles.CheckFileName(fileName); err != nil {
		return UploadResult{}, err
	}
	if body == nil {
		return UploadResult{}, fmt.Errorf("upload %s: %w", fileName, subtitles.ErrEmptySubtitle)
	}
	report, data, err := subtitles.Inspect(body)
	if err != nil {
		return UploadResult{}, fmt.Errorf("upload %s: %w", fileName, err)
	}

	var videoPath string
	var opErr error
	if err := s.do(ctx, func() {
		node, ok := s.tree.Lookup(id)
		switch {
		case !ok:
			opErr = unknownItem(id)
		case node.IsDirectory:
			opErr = fmt.Errorf("upload: %s is a directory", id)
		default:
			videoPath = node.Path
			if strings.TrimSpace(videoPath) == "" {
				videoPath = node.ID
			}
		}
	}); err != nil {
		return UploadResult{}, err
	}
	if opErr != nil {
		return UploadResult{}, opErr
	}

	upload := backend.Upload{
		FileName:        path.Base(fileName),
		TargetName:      subtitles.TargetName(videoPath),
		DestinationPath: path.Dir(videoPath),
		Body:            bytes.NewReader(data),
	}
	stored, err := s.backend.UploadSubtitle(ctx, upload)
	if err != nil {
		logging.WarnWithContext(s.logger, "subtitle upload failed", "upload_failed",
			logging.String(logging.FieldJobID, id),
			logging.Error(err),
		)
		return UploadResult{}, fmt.Errorf("upload %s: %w", fileName, err)
	}
	if strings.TrimSpace(stored) == "" {
		stored = path.Join(upload.DestinationPath, upload.TargetName)
	}

	if err := s.do(context.Background(), func() {
		node, ok := s.tree.Lookup(id)
		if !ok {
			return
		}
		info := node.SubtitleInfo
		info.Languages = append([]string(nil), info.Languages...)
		info.HasSubtitles = true
		info.SRTPath = stored
		switch info.SubType {
		case media.SubtitleEmbedded, media.SubtitleMixed:
			info.SubType = media.SubtitleMixed
		default:
			info.SubType = media.SubtitleExternal
		}
		if info.Count == 0 {
			info.Count = 1
		}
		s.tree.Update(id, media.Patch{SubtitleInfo: &info, ExternalSubtitle: &stored})
	}); err != nil {
		return UploadResult{}, err
	}
	s.logger.Info("subtitle attached",
		logging.String(logging.FieldJobID, id),
		logging.String("stored_path", stored),
		logging.Int("cues", report.Cues),
	)
	return UploadResult{ID: id, StoredPath: stored, Cues: report.Cues}, nil
}
