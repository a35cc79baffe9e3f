package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/charlievieth/fastwalk"

	"substudio/internal/api"
	"substudio/internal/language"
	"substudio/internal/logging"
)

var videoExtensions = map[string]struct{}{
	".mp4": {},
	".mkv": {},
	".avi": {},
	".mov": {},
}

// IsVideo reports whether name has a supported video extension.
func IsVideo(name string) bool {
	_, ok := videoExtensions[strings.ToLower(filepath.Ext(name))]
	return ok
}

// Scanner walks directories below a fixed library root.
type Scanner struct {
	root   string
	logger *slog.Logger
}

// New returns a scanner confined to root.
func New(root string, logger *slog.Logger) (*Scanner, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, errors.New("scanner requires a library root")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve library root: %w", err)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Scanner{root: filepath.Clean(abs), logger: logging.NewComponentLogger(logger, "scanner")}, nil
}

// Root returns the library root.
func (s *Scanner) Root() string {
	return s.root
}

// Clamp maps path onto the library. Paths outside the root resolve to the root.
func (s *Scanner) Clamp(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return s.root
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.root, path)
	}
	path = filepath.Clean(path)
	rel, err := filepath.Rel(s.root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return s.root
	}
	return path
}

type listing struct {
	dirs   []fs.DirEntry
	videos []fs.DirEntry
	subs   []string
}

// Scan lists path. Directories come first, then videos, each in
// case-insensitive name order. Without recursive, subdirectories are
// returned unloaded. A missing path yields an empty listing.
func (s *Scanner) Scan(ctx context.Context, path string, recursive bool) (api.ScanResponse, error) {
	target := s.Clamp(path)
	resp := api.ScanResponse{CurrentPath: target, Files: []api.File{}}

	info, err := os.Stat(target)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return resp, nil
		}
		return resp, fmt.Errorf("stat %s: %w", target, err)
	}
	if !info.IsDir() {
		return resp, fmt.Errorf("scan %s: not a directory", target)
	}

	var mu sync.Mutex
	dirs := map[string]*listing{target: {}}
	get := func(dir string) *listing {
		l, ok := dirs[dir]
		if !ok {
			l = &listing{}
			dirs[dir] = l
		}
		return l
	}

	walkErr := fastwalk.Walk(&fastwalk.Config{}, target, func(fullPath string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			s.logger.Debug("walk entry skipped", logging.String("path", fullPath), logging.Error(err))
			return nil
		}
		if fullPath == target {
			return nil
		}
		parent := filepath.Dir(fullPath)
		name := d.Name()

		mu.Lock()
		defer mu.Unlock()
		switch {
		case d.IsDir():
			get(parent).dirs = append(get(parent).dirs, d)
			if !recursive {
				return fastwalk.SkipDir
			}
			get(fullPath)
		case !d.Type().IsRegular():
		case IsVideo(name):
			get(parent).videos = append(get(parent).videos, d)
		case strings.EqualFold(filepath.Ext(name), ".srt"):
			get(parent).subs = append(get(parent).subs, name)
		}
		return nil
	})
	if walkErr != nil {
		return api.ScanResponse{}, fmt.Errorf("walk %s: %w", target, walkErr)
	}

	resp.Files = build(target, dirs, recursive)
	s.logger.Debug("local scan complete",
		logging.String("path", target),
		logging.Bool("recursive", recursive),
		logging.Int("directories", len(dirs)-1),
	)
	return resp, nil
}

func build(dir string, dirs map[string]*listing, recursive bool) []api.File {
	l, ok := dirs[dir]
	if !ok {
		return []api.File{}
	}
	sortEntries(l.dirs)
	sortEntries(l.videos)
	sort.Strings(l.subs)

	out := make([]api.File, 0, len(l.dirs)+len(l.videos))
	for _, d := range l.dirs {
		full := filepath.Join(dir, d.Name())
		folder := api.File{ID: full, Name: d.Name(), Path: full, IsDirectory: true, Status: "folder", Children: []api.File{}}
		if recursive {
			folder.Children = build(full, dirs, recursive)
		}
		out = append(out, folder)
	}
	for _, d := range l.videos {
		full := filepath.Join(dir, d.Name())
		info := sidecars(dir, d.Name(), l.subs)
		out = append(out, api.File{ID: full, Name: d.Name(), Path: full, Status: "idle", SubtitleInfo: &info})
	}
	return out
}

func sortEntries(entries []fs.DirEntry) {
	sort.Slice(entries, func(i, j int) bool {
		a, b := strings.ToLower(entries[i].Name()), strings.ToLower(entries[j].Name())
		if a == b {
			return entries[i].Name() < entries[j].Name()
		}
		return a < b
	})
}

// sidecars matches "<base>.srt" and "<base>.<lang>.srt" next to the video.
func sidecars(dir, video string, subs []string) api.SubtitleInfo {
	base := strings.TrimSuffix(video, filepath.Ext(video))
	info := api.SubtitleInfo{SubType: "none"}
	seen := make(map[string]struct{})
	for _, sub := range subs {
		stem := strings.TrimSuffix(sub, filepath.Ext(sub))
		var tag string
		switch {
		case stem == base:
		case strings.HasPrefix(stem, base+"."):
			tag = strings.TrimPrefix(stem, base+".")
		default:
			continue
		}
		info.Count++
		if info.SRTPath == "" || tag == "" {
			info.SRTPath = filepath.Join(dir, sub)
		}
		if tag == "" {
			continue
		}
		code, err := language.Normalize(tag)
		if err != nil || code == language.Auto {
			continue
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		info.Languages = append(info.Languages, code)
	}
	if info.Count > 0 {
		info.HasSubtitles = true
		info.SubType = "external"
	}
	return info
}
