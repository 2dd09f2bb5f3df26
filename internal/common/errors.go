// Package common holds small cross-cutting pieces shared by every stage of
// the pipeline: typed error kinds, the base64 error-string round trip used
// to survive arbitrary bytes through the catalog, and humanized progress
// formatting.
package common

import "fmt"

// Kind classifies the errors the pipeline can produce, per the error
// handling design: ConfigError, CatalogError, IoError, DecodeError,
// MetricError, Cancelled.
type Kind int

// The error kinds a worker or the driver can surface.
const (
	// KindConfig covers missing paths, non-contained subdirectories, and
	// conflicting options. Fatal when detected by the driver.
	KindConfig Kind = iota
	// KindCatalog covers constraint violations and corrupted schema.
	// Fatal when detected by the driver.
	KindCatalog
	// KindIO covers missing files and permission errors.
	KindIO
	// KindDecode covers unreadable images.
	KindDecode
	// KindMetric covers shape mismatches and NaN results.
	KindMetric
	// KindCancelled marks a cooperative shutdown in progress; never
	// reported as a per-row failure.
	KindCancelled
)

// String returns the human-readable name of the kind.
func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "ConfigError"
	case KindCatalog:
		return "CatalogError"
	case KindIO:
		return "IoError"
	case KindDecode:
		return "DecodeError"
	case KindMetric:
		return "MetricError"
	case KindCancelled:
		return "Cancelled"
	default:
		return "UnknownError"
	}
}

// Error is the typed error carried across worker/result-queue boundaries
// and into the catalog's error columns.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

// NewError builds a typed Error, optionally wrapping an underlying cause.
func NewError(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: cause}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// Unwrap allows errors.As/errors.Is to see through to the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether the first *Error in err's unwrap chain has the
// given Kind.
func IsKind(err error, kind Kind) bool {
	var typed *Error
	for err != nil {
		if asErr, ok := err.(*Error); ok {
			typed = asErr
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return typed != nil && typed.Kind == kind
}

// Fatal reports whether a Kind is fatal to the whole run when detected by
// the driver (ConfigError, CatalogError), as opposed to a per-row failure
// recorded and skipped (IoError, DecodeError, MetricError).
func (k Kind) Fatal() bool {
	return k == KindConfig || k == KindCatalog
}
