// Package api defines the wire-format types exchanged with the processing
// backend and between the session host and the CLI, plus converters to and
// from the internal media model.
//
// # Key Types
//
// File: one scanned tree node (folder or video) with subtitle metadata,
// processing status and per-item overrides.
//
// ScanRequest/ScanResponse, ProcessRequest, UploadResponse, Ack: backend
// request and response bodies.
//
// # Converters
//
// FromItem/FromItems: media.Item -> File for JSON output.
// ToItem/ToItems: File -> media.Item when a scan snapshot arrives.
// NewProcessItem: resolved submission record for the start-job call.
//
// # Design Notes
//
// DTOs use camelCase JSON tags. Decoding also accepts the snake_case and
// legacy spellings older backends emit (fileName, filePath, is_directory,
// rootPath, external_isolated), so snapshots from either generation load.
package api
