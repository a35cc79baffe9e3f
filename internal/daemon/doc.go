// Package daemon hosts one operator session for the lifetime of a
// `substudio session start` process.
//
// It guards the session with a flock-based lock so a second host cannot
// start against the same lock file, reports host status, and carries the
// shutdown request raised over IPC back to the runtime loop.
package daemon
