// Package media defines the media library data model shared by the session
// engine: folder/file items, discovered subtitle metadata, processing
// statuses, workflow modes and per-item overrides.
//
// Tree is the in-memory store for one scan snapshot. It keeps a flat
// identifier index next to the owned child collections so status events can
// be merged into any node without a recursive search. Tree is not safe for
// concurrent use; the session engine owns it and mutates it from a single
// goroutine.
package media
