package download

import (
	"errors"
	"fmt"
)

var (
	// ErrContentLengthMismatch indicates the byte count did not match Content-Length.
	ErrContentLengthMismatch = errors.New("content length mismatch")
	// ErrChecksumMismatch indicates the downloaded bytes failed the integrity check.
	ErrChecksumMismatch = errors.New("checksum mismatch")
	// ErrDownloadCancelled indicates the download was cancelled via context.
	ErrDownloadCancelled = errors.New("download cancelled")
	// ErrGroupShutdown indicates the download queue was shut down.
	ErrGroupShutdown = errors.New("download queue shut down")
	// ErrFilesystem indicates the destination could not be written or replaced.
	ErrFilesystem = errors.New("filesystem error")
	// ErrInvalidDestination indicates a destination path the caller should
	// never have passed, such as one without a parent directory.
	ErrInvalidDestination = errors.New("invalid destination")
)

// Error wraps a sentinel error with additional detail.
type Error struct {
	Detail string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v: %s", e.Err, e.Detail)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IntegrityError is returned when the digest of the downloaded bytes
// does not match the expected checksum.
type IntegrityError struct {
	Expected string
	Actual   string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("%v: expected %s, got %s", ErrChecksumMismatch, e.Expected, e.Actual)
}

func (e *IntegrityError) Unwrap() error {
	return ErrChecksumMismatch
}
