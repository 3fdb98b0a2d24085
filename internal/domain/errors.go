package domain

import "errors"

// Error classes. Callers wrap these with fmt.Errorf("%w: ...") and classify
// with errors.Is. Only ErrTransient is retried.
var (
	// ErrProtocol marks an unexpected upstream response: a redirect, an error
	// status, or a missing ETag.
	ErrProtocol = errors.New("protocol error")

	// ErrFormat marks content whose layout no longer matches what the parsers
	// expect. It needs an operator, not a retry.
	ErrFormat = errors.New("format error")

	// ErrTransient marks an I/O failure that may succeed on another attempt.
	ErrTransient = errors.New("transient io error")

	// ErrConsistency marks a violated invariant such as a row-count mismatch.
	ErrConsistency = errors.New("consistency error")

	// ErrUnknownTimeZone is returned by TzOffsetHours for unmapped abbreviations.
	ErrUnknownTimeZone = errors.New("unknown time zone")

	// ErrInvalidInput marks arguments a function cannot work with.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound marks a missing inventory record.
	ErrNotFound = errors.New("not found")
)

// IsRetryable reports whether err is worth another attempt.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransient)
}
