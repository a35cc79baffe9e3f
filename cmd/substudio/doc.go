// Package main hosts the SubStudio CLI entrypoint and command graph.
//
// The Cobra command tree turns terminal invocations into IPC calls against
// the session host: scanning the library, toggling the selection, editing
// settings, submitting batches, and following job progress. It also launches
// and stops the host itself and scaffolds configuration. Subtitle search
// links and SRT inspection run locally without a session.
package main
