package core

import (
	"errors"
	"fmt"
)

// Source-level failures. ErrUnsupportedSourceType and ErrMissingConform are
// soft failures for batch callers: skip the source, log a warning, continue.
var (
	ErrMissingConform           = errors.New("source has no conform section")
	ErrUnsupportedSourceType    = errors.New("unsupported source type")
	ErrUnsupportedConfiguration = errors.New("unsupported conform configuration")
	ErrSourceNotFound           = errors.New("source file not found")
	ErrSourceAmbiguous          = errors.New("source selection ambiguous")
	ErrDecompression            = errors.New("decompression failed")
)

// MissingFieldError reports a merge, split or extract stage that referenced
// a field absent from the row. It aborts the whole file.
type MissingFieldError struct {
	Stage string
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s: missing field %q", e.Stage, e.Field)
}

// MissingRequiredFieldError reports that NUMBER or STREET had no value
// after schema projection.
type MissingRequiredFieldError struct {
	Field string
}

func (e *MissingRequiredFieldError) Error() string {
	return fmt.Sprintf("missing required output field %s", e.Field)
}

// RowError attaches the 1-based CSV line number to a per-row failure.
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// IsSoftFailure reports whether err means "skip this source" rather than
// a failed conform.
func IsSoftFailure(err error) bool {
	return errors.Is(err, ErrUnsupportedSourceType) || errors.Is(err, ErrMissingConform)
}
