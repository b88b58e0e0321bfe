package core

import (
	"fmt"
)

// AuthError indicates the provider rejected the supplied credentials.
// Fatal for the call; retrying with the same credentials cannot succeed.
type AuthError struct {
	Provider string // Provider id ("openai", "anthropic", ...)
	Message  string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error (%s): %s", e.Provider, e.Message)
}

// ProviderError indicates a non-2xx vendor response that is not an
// authentication failure. StatusCode carries the vendor HTTP status.
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error (%s, status %d): %s", e.Provider, e.StatusCode, e.Message)
}

// Retryable reports whether the vendor response class is worth retrying
// (server errors and rate limits). Retrying is always a caller decision,
// see the retry package.
func (e *ProviderError) Retryable() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}

// TimeoutError indicates no response arrived within the configured deadline.
type TimeoutError struct {
	Provider string
	Message  string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timeout (%s): %s", e.Provider, e.Message)
}

// SchemaMismatchError indicates model output failed validation against the
// declared schema. Path is the dotted location of the offending field
// (e.g. "steps[2].duration"); empty for document-level failures.
type SchemaMismatchError struct {
	Path    string
	Message string
}

func (e *SchemaMismatchError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("schema mismatch: %s", e.Message)
	}
	return fmt.Sprintf("schema mismatch at %q: %s", e.Path, e.Message)
}

// DimensionMismatchError indicates an embedding comparison between vectors of
// incompatible dimensions.
type DimensionMismatchError struct {
	LenA int
	LenB int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("dimension mismatch: %d vs %d", e.LenA, e.LenB)
}

// ToolExecutionError indicates a registered tool failed or the model
// requested an unknown tool. It aborts a running tool-call loop.
type ToolExecutionError struct {
	Tool    string
	Unknown bool  // true if the tool name was not registered
	Err     error // underlying execution error (nil when Unknown)
}

func (e *ToolExecutionError) Error() string {
	if e.Unknown {
		return fmt.Sprintf("unknown tool %q", e.Tool)
	}
	return fmt.Sprintf("tool %q failed: %v", e.Tool, e.Err)
}

// Unwrap exposes the underlying execution error for errors.Is / errors.As.
func (e *ToolExecutionError) Unwrap() error { return e.Err }
