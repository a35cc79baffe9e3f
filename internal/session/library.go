package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"substudio/internal/api"
	"substudio/internal/logging"
	"substudio/internal/media"
	"substudio/internal/settings"
	"substudio/internal/stream"
	"substudio/internal/workflow"
)

// ScanResult summarises an installed snapshot.
type ScanResult struct {
	CurrentPath string
	Files       int
	Directories int
	// Dangling lists selected identifiers that the new snapshot no longer contains.
	Dangling []string
}

// Scan lists path through the scanner and replaces the tree with the result.
// On any failure the previous tree is kept.
func (s *Session) Scan(ctx context.Context, path string, recursive bool) (ScanResult, error) {
	if err := s.open(); err != nil {
		return ScanResult{}, err
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return ScanResult{}, errors.New("scan path is required")
	}
	resp, err := s.scanner.Scan(ctx, path, recursive)
	if err != nil {
		logging.WarnWithContext(s.logger, "scan failed", "scan_failed",
			logging.String("path", path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the backend address and that the path exists on the backend host"),
		)
		return ScanResult{}, fmt.Errorf("scan %s: %w", path, err)
	}
	current := strings.TrimSpace(resp.CurrentPath)
	if current == "" {
		current = path
	}
	items := api.ToItems(resp.Files)

	var result ScanResult
	var replaceErr error
	err = s.do(ctx, func() {
		if replaceErr = s.tree.Replace(current, items); replaceErr != nil {
			return
		}
		s.registry.Seed(s.tree)
		result.CurrentPath = current
		s.tree.Walk(func(item *media.Item, _ int) bool {
			if item.IsDirectory {
				result.Directories++
			} else {
				result.Files++
			}
			return true
		})
		result.Dangling = s.selection.Dangling(s.tree)
	})
	if err != nil {
		return ScanResult{}, err
	}
	if replaceErr != nil {
		return ScanResult{}, fmt.Errorf("scan %s: %w", path, replaceErr)
	}
	s.logger.Info("library scanned",
		logging.String("path", current),
		logging.Bool("recursive", recursive),
		logging.Int("files", result.Files),
		logging.Int("directories", result.Directories),
	)
	return result, nil
}

// Toggle flips the selection of id and, for directories, of its whole
// subtree. It reports whether id is selected afterwards.
func (s *Session) Toggle(ctx context.Context, id string) (bool, error) {
	var selected bool
	var opErr error
	err := s.do(ctx, func() {
		node, ok := s.tree.Lookup(id)
		if !ok {
			opErr = unknownItem(id)
			return
		}
		selected = s.selection.Toggle(node.ID, node.IsDirectory, node.Children)
	})
	if err != nil {
		return false, err
	}
	return selected, opErr
}

// ClearSelection empties the selection.
func (s *Session) ClearSelection(ctx context.Context) error {
	return s.do(ctx, func() { s.selection.Clear() })
}

// Settings returns the global settings.
func (s *Session) Settings(ctx context.Context) (settings.Global, error) {
	var global settings.Global
	err := s.do(ctx, func() { global = s.registry.Global() })
	return global, err
}

// SetSettings merges patch into the global settings. Changed values reach
// every file whose matching override was not edited directly. It returns the
// number of files that received a value.
func (s *Session) SetSettings(ctx context.Context, patch settings.Patch) (int, error) {
	var updated int
	var opErr error
	err := s.do(ctx, func() {
		updated, opErr = s.registry.Set(s.tree, patch)
	})
	if err != nil {
		return 0, err
	}
	if opErr != nil {
		return 0, opErr
	}
	s.logger.Debug("global settings updated", logging.Int("files_updated", updated))
	return updated, nil
}

// SetOverride edits the per-file settings of id. Edited fields stop
// following the global settings until Resync.
func (s *Session) SetOverride(ctx context.Context, id string, patch settings.OverridePatch) error {
	var opErr error
	err := s.do(ctx, func() {
		node, ok := s.tree.Lookup(id)
		if !ok {
			opErr = unknownItem(id)
			return
		}
		if patch.Empty() {
			return
		}
		opErr = s.registry.Override(node, patch)
	})
	if err != nil {
		return err
	}
	return opErr
}

// Resync drops the direct edits of id and re-seeds it from the global
// settings. For a directory every file below it is resynced. It returns the
// number of files affected.
func (s *Session) Resync(ctx context.Context, id string) (int, error) {
	var count int
	var opErr error
	err := s.do(ctx, func() {
		node, ok := s.tree.Lookup(id)
		if !ok {
			opErr = unknownItem(id)
			return
		}
		targets := []*media.Item{node}
		if node.IsDirectory {
			targets = node.Descendants()
		}
		for _, item := range targets {
			if item.IsDirectory {
				continue
			}
			s.registry.Resync(item)
			count++
		}
	})
	if err != nil {
		return 0, err
	}
	return count, opErr
}

// Logs returns the buffered log lines of a job, oldest first.
func (s *Session) Logs(ctx context.Context, id string) ([]stream.LogLine, error) {
	var lines []stream.LogLine
	var opErr error
	err := s.do(ctx, func() {
		lines = s.logs.Lines(id)
		if len(lines) == 0 && !s.tree.Contains(id) {
			opErr = unknownItem(id)
		}
	})
	if err != nil {
		return nil, err
	}
	return lines, opErr
}

// Item returns a copy of one node and, for files, its resolved workflow.
func (s *Session) Item(ctx context.Context, id string) (*media.Item, media.Strategy, error) {
	var item *media.Item
	var strategy media.Strategy
	err := s.do(ctx, func() {
		node, ok := s.tree.Lookup(id)
		if !ok {
			return
		}
		item = node.Clone()
		if !node.IsDirectory {
			strategy = workflow.Resolve(workflow.ForItem(node, s.registry.Global().WorkflowMode))
		}
	})
	if err != nil {
		return nil, "", err
	}
	if item == nil {
		return nil, "", unknownItem(id)
	}
	return item, strategy, nil
}
