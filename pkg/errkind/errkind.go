// Package errkind defines Luna's coded error taxonomy.
//
// Every failure that crosses a research-source or client boundary is
// converted into an *Error carrying a Kind and a stable code. The four
// upstream-facing kinds (network, auth, timeout, format) are the only ones a
// research outcome may carry; validation and internal errors are for the
// service layer.
package errkind

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"
)

// Kind classifies an error by how the caller should interpret it.
type Kind string

const (
	Network    Kind = "network"    // connection, DNS, refused, upstream down
	Auth       Kind = "auth"       // credential missing, rejected or expired
	Timeout    Kind = "timeout"    // operation exceeded its bound
	Format     Kind = "format"     // upstream response could not be interpreted
	Validation Kind = "validation" // caller supplied bad input
	Internal   Kind = "internal"   // unexpected failure, including panics
)

// Stable error codes. The first digit after the prefix selects the family:
// 1xxx infrastructure, 2xxx auth, 3xxx validation, 4xxx upstream format,
// 5xxx system.
const (
	CodeConnectionFailed   = "LUNA-1001"
	CodeServiceUnavailable = "LUNA-1002"
	CodeTimeout            = "LUNA-1003"
	CodeRateLimited        = "LUNA-1004"

	CodeAuthMissing  = "LUNA-2001"
	CodeAuthRejected = "LUNA-2002"

	CodeInvalidInput    = "LUNA-3001"
	CodeMissingRequired = "LUNA-3002"

	CodeBadUpstreamFormat = "LUNA-4001"

	CodeInternal = "LUNA-5001"
	CodePanic    = "LUNA-5002"
)

// Error is a classified error with a stable code and correlation ID.
type Error struct {
	Code          string    `json:"code"`
	Kind          Kind      `json:"kind"`
	Message       string    `json:"message"`
	Retryable     bool      `json:"retryable"`
	CorrelationID string    `json:"correlation_id"`
	Timestamp     time.Time `json:"timestamp"`

	cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Kind, e.Message)
}

// Unwrap exposes the wrapped cause for errors.Is / errors.As.
func (e *Error) Unwrap() error {
	return e.cause
}

// New creates a classified error.
func New(kind Kind, code, message string) *Error {
	return &Error{
		Code:          code,
		Kind:          kind,
		Message:       message,
		Retryable:     retryableCode(code),
		CorrelationID: uuid.NewString(),
		Timestamp:     time.Now().UTC(),
	}
}

// Newf creates a classified error with a formatted message.
func Newf(kind Kind, code, format string, args ...any) *Error {
	return New(kind, code, fmt.Sprintf(format, args...))
}

// Wrap classifies an existing error, prefixing its message with the failing
// operation. A nil err yields nil. An err that is already an *Error is
// returned unchanged so classification done close to the failure wins.
func Wrap(err error, kind Kind, code, message string) *Error {
	if err == nil {
		return nil
	}
	var classified *Error
	if errors.As(err, &classified) {
		return classified
	}
	e := New(kind, code, message+": "+err.Error())
	e.cause = err
	return e
}

// From converts an arbitrary error into a classified one, inferring the kind
// when possible. Context deadline expiry and net timeouts map to Timeout;
// other net errors map to Network; everything else is Internal.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var classified *Error
	if errors.As(err, &classified) {
		return classified
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return Wrap(err, Timeout, CodeTimeout, "deadline exceeded")
	case errors.Is(err, context.Canceled):
		return Wrap(err, Timeout, CodeTimeout, "cancelled")
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return Wrap(err, Timeout, CodeTimeout, "network timeout")
		}
		return Wrap(err, Network, CodeConnectionFailed, "network failure")
	}

	return Wrap(err, Internal, CodeInternal, "unexpected failure")
}

// KindOf returns the kind of a classified error, or Internal for anything
// unclassified.
func KindOf(err error) Kind {
	var classified *Error
	if errors.As(err, &classified) {
		return classified.Kind
	}
	return Internal
}

// IsRetryable reports whether a retry could plausibly succeed.
func IsRetryable(err error) bool {
	var classified *Error
	if errors.As(err, &classified) {
		return classified.Retryable
	}
	// Unclassified transport errors default to retryable.
	var netErr net.Error
	return errors.As(err, &netErr)
}

func retryableCode(code string) bool {
	switch code {
	case CodeConnectionFailed, CodeServiceUnavailable, CodeTimeout, CodeRateLimited:
		return true
	default:
		return false
	}
}
