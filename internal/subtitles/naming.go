package subtitles

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

// Extension is the only subtitle format accepted for upload.
const Extension = ".srt"

// ErrNotSubtitle is returned for uploads that are not SRT files.
var ErrNotSubtitle = errors.New("not an .srt subtitle file")

// BaseName strips the directory and the final extension from a video name:
// "/data/Show/ep1.mp4" becomes "ep1".
func BaseName(videoName string) string {
	name := path.Base(strings.ReplaceAll(strings.TrimSpace(videoName), "\\", "/"))
	if name == "." || name == "/" {
		return ""
	}
	if ext := path.Ext(name); len(ext) > 1 && ext != name {
		name = strings.TrimSuffix(name, ext)
	}
	return name
}

// TargetName returns the stored file name for a subtitle uploaded for videoName.
func TargetName(videoName string) string {
	return BaseName(videoName) + Extension
}

// CheckFileName rejects anything that is not named like an SRT file.
func CheckFileName(fileName string) error {
	if !strings.EqualFold(path.Ext(strings.TrimSpace(fileName)), Extension) {
		return fmt.Errorf("%w: %q", ErrNotSubtitle, fileName)
	}
	return nil
}
