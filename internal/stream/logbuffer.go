package stream

import (
	"sort"
	"time"
)

// DefaultLogLines is the per-job log retention used when none is configured.
const DefaultLogLines = 100

// LogLine is one retained log entry for a job.
type LogLine struct {
	Time    time.Time
	Level   string
	Message string
}

// LogBuffer keeps the most recent lines for one job.
type LogBuffer struct {
	limit int
	lines []LogLine
}

// NewLogBuffer returns a buffer retaining at most limit lines.
func NewLogBuffer(limit int) *LogBuffer {
	if limit <= 0 {
		limit = DefaultLogLines
	}
	return &LogBuffer{limit: limit}
}

// Append adds line, discarding the oldest entries beyond the limit.
func (b *LogBuffer) Append(line LogLine) {
	b.lines = append(b.lines, line)
	if overflow := len(b.lines) - b.limit; overflow > 0 {
		kept := make([]LogLine, b.limit)
		copy(kept, b.lines[overflow:])
		b.lines = kept
	}
}

// Lines returns a copy of the retained lines, oldest first.
func (b *LogBuffer) Lines() []LogLine {
	out := make([]LogLine, len(b.lines))
	copy(out, b.lines)
	return out
}

// Len returns the number of retained lines.
func (b *LogBuffer) Len() int {
	return len(b.lines)
}

// Reset discards every retained line.
func (b *LogBuffer) Reset() {
	b.lines = nil
}

// Logs holds lazily created buffers keyed by job identifier. It is owned by
// the event loop and not safe for concurrent use.
type Logs struct {
	limit   int
	buffers map[string]*LogBuffer
}

// NewLogs returns an empty collection with the given per-job limit.
func NewLogs(limit int) *Logs {
	if limit <= 0 {
		limit = DefaultLogLines
	}
	return &Logs{limit: limit, buffers: make(map[string]*LogBuffer)}
}

// Append adds a line to the job's buffer, creating it on first use.
func (l *Logs) Append(jobID string, line LogLine) {
	buf, ok := l.buffers[jobID]
	if !ok {
		buf = NewLogBuffer(l.limit)
		l.buffers[jobID] = buf
	}
	buf.Append(line)
}

// Lines returns the retained lines for the job, or nil when it has none.
func (l *Logs) Lines(jobID string) []LogLine {
	buf, ok := l.buffers[jobID]
	if !ok {
		return nil
	}
	return buf.Lines()
}

// Reset clears the job's buffer.
func (l *Logs) Reset(jobID string) {
	if buf, ok := l.buffers[jobID]; ok {
		buf.Reset()
	}
}

// Jobs lists the job identifiers that have a buffer, sorted.
func (l *Logs) Jobs() []string {
	out := make([]string, 0, len(l.buffers))
	for id := range l.buffers {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
