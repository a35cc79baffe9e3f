// Package subtitles holds the helpers behind operator-supplied subtitles.
//
// It names uploaded files after their video, validates SRT content before
// it is sent to the pipeline, and builds search links for the public
// subtitle providers so an operator can fetch a file by hand.
package subtitles
