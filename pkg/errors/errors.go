package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents different types of errors that can occur
type ErrorType string

const (
	ErrorTypeNetwork     ErrorType = "network"
	ErrorTypeRateLimit   ErrorType = "rate_limit"
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeServerError ErrorType = "server_error"
	ErrorTypeDisallowed  ErrorType = "disallowed"
	ErrorTypeClient      ErrorType = "client_error"
	ErrorTypeUnknown     ErrorType = "unknown"
)

// Error is a transport-level failure talking to the remote site.
// Every NetworkError surfaced by the HTTP client is an *Error.
type Error struct {
	Type    ErrorType
	Message string
	Code    int
	URL     string
}

func (e *Error) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("%s error (code %d) for %s: %s", e.Type, e.Code, e.URL, e.Message)
	}
	return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
}

// IsRetryable checks if an error type should be retried
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeNetwork, ErrorTypeRateLimit, ErrorTypeServerError:
		return true
	default:
		return false
	}
}

// TypeForStatus maps an HTTP status code to an error type.
func TypeForStatus(statusCode int) ErrorType {
	switch {
	case statusCode == 0:
		return ErrorTypeNetwork
	case statusCode == 429:
		return ErrorTypeRateLimit
	case statusCode == 404 || statusCode == 410:
		return ErrorTypeNotFound
	case statusCode >= 500:
		return ErrorTypeServerError
	case statusCode >= 400:
		return ErrorTypeClient
	default:
		return ErrorTypeUnknown
	}
}

// IsNetworkError reports whether err carries a transport *Error.
func IsNetworkError(err error) bool {
	var e *Error
	return errors.As(err, &e)
}

// DiscoveryKind distinguishes an unreachable index from one whose
// structure no longer matches the expected listing.
type DiscoveryKind string

const (
	DiscoveryUnreachable   DiscoveryKind = "unreachable"
	DiscoveryFormatChanged DiscoveryKind = "format_changed"
)

// DiscoveryError is returned when the tomb listing cannot be produced.
// It is the only error that aborts a run.
type DiscoveryError struct {
	Kind DiscoveryKind
	URL  string
	Err  error
}

func (e *DiscoveryError) Error() string {
	switch e.Kind {
	case DiscoveryFormatChanged:
		return fmt.Sprintf("tomb index %s no longer matches the expected listing format", e.URL)
	default:
		return fmt.Sprintf("tomb index %s unreachable: %v", e.URL, e.Err)
	}
}

func (e *DiscoveryError) Unwrap() error { return e.Err }

// FilesystemError wraps a failure to create a directory or write a file.
type FilesystemError struct {
	Op   string
	Path string
	Err  error
}

func (e *FilesystemError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FilesystemError) Unwrap() error { return e.Err }

// DownloadError is a per-image failure. It never aborts the run.
type DownloadError struct {
	URL string
	Err error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download %s: %v", e.URL, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }

// ClassificationWarning records an image that could not be assigned a section.
type ClassificationWarning struct {
	TombID   string
	ImageURL string
	State    string
	Reason   string
}

func (w ClassificationWarning) String() string {
	return fmt.Sprintf("tomb %s: image %s unclassified (%s): %s", w.TombID, w.ImageURL, w.State, w.Reason)
}
