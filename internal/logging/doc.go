// Package logging assembles the structured slog loggers used by the session
// host and CLI.
//
// It owns the console and JSON handlers, level parsing, stdout plus log-file
// fan-out, and the standard field keys. Context helpers carry job and batch
// correlation identifiers so stream and session code tag their lines
// consistently. NewNop provides a silent logger for tests.
package logging
