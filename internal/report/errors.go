package report

import (
	"errors"
	"fmt"
)

// ErrNoReport is returned when a document has none of the known top-level
// report keys.
var ErrNoReport = errors.New("could not extract report data")

// DecodeError is returned when a report is not valid JSON after fence
// stripping. It carries previews of the input for debugging.
type DecodeError struct {
	// Path is the report file, empty when parsed from memory.
	Path string
	// Err is the underlying JSON error.
	Err error
	// RawPreview is the first 1000 characters of the input.
	RawPreview string
	// StrippedPreview is the first 500 characters after fence stripping.
	StrippedPreview string
}

// Error implements error.
func (e *DecodeError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("error parsing JSON in %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("error parsing JSON: %v", e.Err)
}

// Unwrap returns the underlying JSON error.
func (e *DecodeError) Unwrap() error {
	return e.Err
}
