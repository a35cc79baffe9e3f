// Package backend is the HTTP client for the remote subtitle pipeline.
//
// It covers directory scans, batched job submission, per-job and global
// cancellation, subtitle uploads, and the per-job server-sent event stream
// that feeds live progress. Transport failures are returned wrapped;
// IsUnavailable tells an unreachable backend apart from a rejected request.
package backend
