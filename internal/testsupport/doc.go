// Package testsupport holds helpers shared by package tests: a config
// builder with per-test directories, filesystem fixtures, and an in-process
// fake of the processing backend.
package testsupport
