// Package language normalizes the language codes operators type for source
// and target languages.
//
// A small ISO 639 table covers the common codes, three-letter variants and
// English word forms ("french"); anything else must parse as a BCP 47 tag.
package language
