// Package testutil provides deterministic fakes shared by modelbridge tests:
// a word-vector embedder with fixed dimensionality and small helpers for
// building content. Nothing in this package performs network calls.
package testutil
