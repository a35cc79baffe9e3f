// Package config loads, normalizes, and validates SubStudio configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the SUBSTUDIO_API_TOKEN
// environment fallback. The Config type centralizes every knob the session
// host and CLI need: the backend connection, stream back-off, scan defaults
// and the global processing settings a new session starts with.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical language codes, and clear validation errors.
package config
