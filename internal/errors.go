package internal

import (
	"errors"
	"fmt"
)

// ErrNotAuthenticated is returned when an operation needs a logged in session
var ErrNotAuthenticated = errors.New("not authenticated: run 'voiceflow-portal login' first")

// InvalidTokenError is returned when an access token is rejected
type InvalidTokenError struct {
	Length int // rune length of the rejected token
}

func (e *InvalidTokenError) Error() string {
	return fmt.Sprintf("invalid access token (length %d)", e.Length)
}

// IsInvalidToken reports whether err is or wraps an InvalidTokenError
func IsInvalidToken(err error) bool {
	var target *InvalidTokenError
	return errors.As(err, &target)
}

// NetworkError represents a failed request against the backend API
type NetworkError struct {
	Op         string // "validate", "transcripts", "logs", "metrics", "live"
	URL        string
	StatusCode int // zero when no response was received
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("network error: %s %s: status %d: %v", e.Op, e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("network error: %s %s: %v", e.Op, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// StreamError represents a malformed frame on the live event stream
type StreamError struct {
	SessionID string
	Frame     string
	Err       error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("stream error [%s] %q: %v", e.SessionID, e.Frame, e.Err)
}

func (e *StreamError) Unwrap() error {
	return e.Err
}

// StorageError represents errors accessing the session or cache storage
type StorageError struct {
	Path string
	Op   string // "open", "read", "write", "delete"
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ExportError represents errors during export
type ExportError struct {
	Format string
	Path   string
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export error [%s] %s: %v", e.Format, e.Path, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}
