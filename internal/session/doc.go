// Package session owns the operator's working state: the scanned library
// tree, the selection, the global and per-file settings, the per-job log
// buffers and the live update streams.
//
// All of it is mutated on one event-loop goroutine. Exported methods are
// safe for concurrent use; backend calls run on the caller's goroutine and
// post their results back to the loop.
package session
