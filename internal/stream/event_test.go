package stream

import (
	"errors"
	"testing"

	"substudio/internal/media"
)

func TestDecodeEvent(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		wantType string
		status   media.Status
		progress int
		message  string
		wantErr  bool
	}{
		{name: "status", payload: `{"type":"status","fileId":"a","status":"muxing","progress":90,"message":"Muxing"}`, wantType: TypeStatus, status: media.StatusMuxing, progress: 90, message: "Muxing"},
		{name: "currentTask alias", payload: `{"status":"refining","progress":55.6,"currentTask":"Refining timing"}`, wantType: TypeStatus, status: media.StatusRefining, progress: 56, message: "Refining timing"},
		{name: "progress above range", payload: `{"type":"status","status":"muxing","progress":1e300}`, wantType: TypeStatus, status: media.StatusMuxing, progress: 100},
		{name: "progress below range", payload: `{"type":"status","status":"queued","progress":-12.5}`, wantType: TypeStatus, status: media.StatusQueued, progress: 0},
		{name: "log default level", payload: `{"type":"log","message":"hello"}`, wantType: TypeLog, message: "hello"},
		{name: "untyped log", payload: `{"message":"plain"}`, wantType: TypeLog, message: "plain"},
		{name: "garbage", payload: `{oops`, wantErr: true},
		{name: "unknown status", payload: `{"type":"status","status":"exploded"}`, wantErr: true},
		{name: "folder status", payload: `{"type":"status","status":"folder"}`, wantErr: true},
		{name: "unknown type", payload: `{"type":"heartbeat"}`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, err := DecodeEvent([]byte(tt.payload))
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedEvent) {
					t.Fatalf("expected ErrMalformedEvent, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeEvent: %v", err)
			}
			if event.Type != tt.wantType || event.Message != tt.message {
				t.Fatalf("unexpected event %+v", event)
			}
			if tt.wantType == TypeStatus {
				if event.Status != tt.status || event.Progress == nil || *event.Progress != tt.progress {
					t.Fatalf("unexpected status fields %+v", event)
				}
			}
			if tt.wantType == TypeLog && event.Level != "info" {
				t.Fatalf("expected default info level, got %q", event.Level)
			}
		})
	}
}
