// Package scanner lists a local media library in the shape the pipeline's
// scan endpoint returns, for sessions that browse a directory mounted on the
// operator's host.
package scanner
