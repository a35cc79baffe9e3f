// Package ipc exposes the session host over JSON-RPC Unix sockets and ships
// the matching client used by the CLI.
//
// It owns socket lifecycle management, the request/response DTOs, and the
// conversions between session state and wire representations. The client
// dials with a short timeout so CLI commands fail fast when no session is
// running.
package ipc
