// Package dberr holds the error kinds shared by every backend. Callers match
// them with errors.As / errors.Is; nothing in this module panics on bad input.
package dberr

import (
	"errors"
	"fmt"
	"net/url"
)

var (
	// ErrUnsupportedOperation is returned when a backend has no catalog concept
	// for the requested operation (users and roles on SQLite).
	ErrUnsupportedOperation = errors.New("operation not supported on this platform")

	// ErrUnrecognizedType marks a cell whose wire type the codec does not model.
	ErrUnrecognizedType = errors.New("unrecognized wire type")

	// ErrMalformedValue marks a cell whose bytes do not match its wire type.
	ErrMalformedValue = errors.New("malformed wire value")
)

// ConvertError reports a failed try-conversion from a Value to a Go type.
type ConvertError struct {
	Source string
	Target string
	Err    error
}

func (e *ConvertError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cannot convert %s to %s: %v", e.Source, e.Target, e.Err)
	}
	return fmt.Sprintf("conversion not supported: %s to %s", e.Source, e.Target)
}

func (e *ConvertError) Unwrap() error { return e.Err }

// NotSupported builds the ConvertError for a variant that is not compatible
// with the requested target.
func NotSupported(source, target string) *ConvertError {
	return &ConvertError{Source: source, Target: target}
}

type DataErrorKind int

const (
	ZeroRecordReturned DataErrorKind = iota
	MoreThanOneRecordReturned
)

// DataError distinguishes an absent record from an ambiguous one.
type DataError struct {
	Kind DataErrorKind
	SQL  string
}

func (e *DataError) Error() string {
	switch e.Kind {
	case ZeroRecordReturned:
		return fmt.Sprintf("zero records returned: %s", e.SQL)
	default:
		return fmt.Sprintf("more than one record returned: %s", e.SQL)
	}
}

type ConnectErrorKind int

const (
	UnsupportedScheme ConnectErrorKind = iota
	NoSuchPool
	AcquireTimeout
	ConnectFailed
)

// ConnectError is returned to the connection management layer.
type ConnectError struct {
	Kind ConnectErrorKind
	URL  string
	Err  error
}

func (e *ConnectError) Error() string {
	var msg string
	switch e.Kind {
	case UnsupportedScheme:
		msg = "unsupported url scheme"
	case NoSuchPool:
		msg = "no pool has been set up for"
	case AcquireTimeout:
		msg = "timed out acquiring connection to"
	default:
		msg = "failed to connect to"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %v", msg, Redact(e.URL), e.Err)
	}
	return fmt.Sprintf("%s %s", msg, Redact(e.URL))
}

func (e *ConnectError) Unwrap() error { return e.Err }

// Redact hides the password of a connection URL.
func Redact(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.User == nil {
		return rawURL
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "xxxxx")
	}
	return u.String()
}

// PlatformError carries a backend failure together with the statement that
// triggered it. Decode failures surface as PlatformError too.
type PlatformError struct {
	Platform string
	SQL      string
	Err      error
}

func (e *PlatformError) Error() string {
	if e.SQL == "" {
		return fmt.Sprintf("%s: %v", e.Platform, e.Err)
	}
	return fmt.Sprintf("%s: %v (sql: %s)", e.Platform, e.Err, e.SQL)
}

func (e *PlatformError) Unwrap() error { return e.Err }

// UnsupportedDataTypeError is returned for a raw type string the reflector
// cannot map, or a Value the active backend cannot encode.
type UnsupportedDataTypeError struct {
	Platform string
	Type     string
	Context  string
}

func (e *UnsupportedDataTypeError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("%s: unsupported data type %q (%s)", e.Platform, e.Type, e.Context)
	}
	return fmt.Sprintf("%s: unsupported data type %q", e.Platform, e.Type)
}
