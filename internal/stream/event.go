package stream

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"substudio/internal/media"
)

// Event types carried on a job stream.
const (
	TypeStatus = "status"
	TypeLog    = "log"
)

// ErrMalformedEvent reports a payload that could not be decoded.
var ErrMalformedEvent = errors.New("malformed stream event")

// Event is one decoded stream message.
type Event struct {
	Type     string
	FileID   string
	Status   media.Status
	Progress *int
	Message  string
	Level    string
}

type wireEvent struct {
	Type        string   `json:"type"`
	FileID      string   `json:"fileId"`
	Status      string   `json:"status"`
	Progress    *float64 `json:"progress"`
	Message     string   `json:"message"`
	CurrentTask string   `json:"currentTask"`
	Level       string   `json:"level"`
}

// DecodeEvent parses one JSON event. A payload without a type is treated as
// a status event when it carries a status, and as a log line otherwise.
func DecodeEvent(data []byte) (Event, error) {
	var wire wireEvent
	if err := json.Unmarshal(data, &wire); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	event := Event{
		Type:    strings.ToLower(strings.TrimSpace(wire.Type)),
		FileID:  strings.TrimSpace(wire.FileID),
		Message: wire.Message,
		Level:   strings.ToLower(strings.TrimSpace(wire.Level)),
	}
	if event.Message == "" {
		event.Message = wire.CurrentTask
	}
	if event.Type == "" {
		if wire.Status != "" {
			event.Type = TypeStatus
		} else {
			event.Type = TypeLog
		}
	}

	switch event.Type {
	case TypeStatus:
		status, ok := media.ParseStatus(wire.Status)
		if !ok || status == media.StatusFolder {
			return Event{}, fmt.Errorf("%w: unknown status %q", ErrMalformedEvent, wire.Status)
		}
		event.Status = status
		if wire.Progress != nil {
			progress := int(math.Round(math.Max(0, math.Min(100, *wire.Progress))))
			event.Progress = &progress
		}
	case TypeLog:
		if event.Level == "" {
			event.Level = "info"
		}
	default:
		return Event{}, fmt.Errorf("%w: unknown type %q", ErrMalformedEvent, wire.Type)
	}
	return event, nil
}
