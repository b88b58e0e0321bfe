// Package logging provides a minimal logging interface and adapters for modelbridge.
//
// The Logger interface defines the standard logging methods (Debug, Info,
// Warn, Error) used across the client, adapters and the tool-call loop:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// The design intentionally keeps the interface minimal to avoid vendor
// lock-in while supporting structured logging where available. Credentials
// are never part of any log attribute emitted by this module.
package logging
