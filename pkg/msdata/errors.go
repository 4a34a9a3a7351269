package msdata

import (
	"errors"
	"fmt"
)

var (
	// ErrNotSupported is returned by readers for hooks their format cannot answer.
	ErrNotSupported = errors.New("msdata: operation not supported by this reader")
	// ErrScanOutOfRange means a spectrum number lies outside [first, last].
	ErrScanOutOfRange = errors.New("msdata: spectrum number out of range")
	// ErrScanNotFound means the reader has no scan with the requested number.
	ErrScanNotFound = errors.New("msdata: scan not found")
	// ErrScanNumberMismatch means a reader returned a scan with another number.
	ErrScanNumberMismatch = errors.New("msdata: reader returned wrong scan number")
	// ErrFileClosed is returned by every query after Close.
	ErrFileClosed = errors.New("msdata: file is closed")
	// ErrCachingDisabled is returned by LoadAllScansInMemory when caching is off.
	ErrCachingDisabled = errors.New("msdata: scan caching is disabled")
)

// ValidationError represents an invalid field found while building a scan.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error in %s: %s", e.Field, e.Message)
}
