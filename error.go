package catalogqa

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// General error codes.
const (
	ECONFLICT = "conflict"
	EINTERNAL = "internal"
	EINVALID  = "invalid"
	ENOTFOUND = "not_found"
)

// Retrieval pipeline error codes.
const (
	ESOURCE   = "source_unavailable" // catalog listing unreachable or unparseable
	EFETCH    = "fetch"              // page fetch failed
	EEXTRACT  = "extraction"         // content region missing from page
	ECHUNK    = "chunking"           // page text could not be split
	EEMBED    = "embedding"          // embedding backend failed
	EEMPTY    = "empty_chunk_set"    // nothing to retrieve from
	ETIMEOUT  = "timeout"            // external call exceeded its deadline
	EGENERATE = "generation"         // language model call failed
	EDECODE   = "deserialization"    // cache record has the wrong shape
)

// Error represents an application-specific error. Application errors can be
// unwrapped by the caller to extract out the code & message.
//
// Any non-application error (such as a disk error) should be reported as an
// EINTERNAL error and the human user should only see "Internal error" as the
// message. These low-level internal error details should only be logged and
// reported to the operator of the application (not the end user).
type Error struct {
	// Machine-readable error code.
	Code string

	// Human-readable error message.
	Message string
}

// Error implements the error interface. Not used by the application otherwise.
func (e *Error) Error() string {
	return fmt.Sprintf("catalogqa error: code=%s message=%s", e.Code, e.Message)
}

// ErrorCode unwraps an application error and returns its code.
// Non-application errors always return EINTERNAL.
func ErrorCode(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Code
	}
	return EINTERNAL
}

// ErrorMessage unwraps an application error and returns its message.
// Non-application errors always return "Internal error".
func ErrorMessage(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Message
	}
	return "Internal error."
}

// Errorf is a helper function to return an Error with a given code and formatted message.
func Errorf(code string, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// IsTimeout reports whether err was caused by an expired deadline, either a
// context deadline or a network-level timeout. Application errors with code
// ETIMEOUT also count.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if ErrorCode(err) == ETIMEOUT {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
