// Package testutil provides shared fixtures for tests: the TestSchema class
// layouts, a stub geometry codec and deterministic id/trace generators.
package testutil
