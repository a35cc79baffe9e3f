package subtitles

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// MaxUploadBytes bounds the size of an uploaded subtitle file.
const MaxUploadBytes = 8 << 20

// ErrEmptySubtitle is returned for SRT content without a single cue.
var ErrEmptySubtitle = errors.New("subtitle file has no cues")

// Report summarises SRT content.
type Report struct {
	Cues int
	// First and Last are the earliest cue start and latest cue end in seconds.
	First float64
	Last  float64
}

// Inspect reads SRT content from r and reports its cues. It fails when the
// input is larger than MaxUploadBytes, has no cues, or has no parsable
// timestamp line.
func Inspect(r io.Reader) (Report, []byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		return Report{}, nil, fmt.Errorf("read srt: %w", err)
	}
	if len(data) > MaxUploadBytes {
		return Report{}, nil, fmt.Errorf("srt larger than %d bytes", MaxUploadBytes)
	}
	content := strings.TrimPrefix(string(data), "\ufeff")
	content = strings.ReplaceAll(content, "\r\n", "\n")

	report := Report{Cues: countCues(content)}
	if report.Cues == 0 {
		return report, data, ErrEmptySubtitle
	}
	first, last, found := bounds(content)
	if !found {
		return report, data, errors.New("srt has no valid timestamps")
	}
	report.First = first
	report.Last = last
	return report, data, nil
}

func countCues(content string) int {
	content = strings.TrimSpace(content)
	if content == "" {
		return 0
	}
	count := 0
	for _, block := range strings.Split(content, "\n\n") {
		if strings.TrimSpace(block) != "" {
			count++
		}
	}
	return count
}

func bounds(content string) (float64, float64, bool) {
	first := math.Inf(1)
	var last float64
	found := false
	for _, line := range strings.Split(content, "\n") {
		start, end, ok := strings.Cut(line, "-->")
		if !ok {
			continue
		}
		if seconds, err := parseTimestamp(start); err == nil {
			first = math.Min(first, seconds)
			found = true
		}
		if seconds, err := parseTimestamp(end); err == nil {
			last = math.Max(last, seconds)
		}
	}
	if !found {
		return 0, 0, false
	}
	return first, last, true
}

func parseTimestamp(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, errors.New("empty timestamp")
	}
	// Cue settings may follow the end time.
	if idx := strings.IndexAny(value, " \t"); idx > 0 {
		value = value[:idx]
	}
	value = strings.ReplaceAll(value, ".", ",")
	clock, fraction, ok := strings.Cut(value, ",")
	if !ok {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hms := strings.Split(clock, ":")
	if len(hms) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hours, errH := strconv.Atoi(hms[0])
	minutes, errM := strconv.Atoi(hms[1])
	seconds, errS := strconv.Atoi(hms[2])
	millis, errMS := strconv.Atoi(fraction)
	if errH != nil || errM != nil || errS != nil || errMS != nil {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	return float64(hours*3600+minutes*60+seconds) + float64(millis)/1000, nil
}
