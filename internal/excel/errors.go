package excel

import (
	"errors"
	"fmt"
)

// Common spreadsheet errors
var (
	// ErrEmptyWorkbook is returned when a workbook has no sheets or no rows.
	ErrEmptyWorkbook = errors.New("workbook contains no data")

	// ErrRowOutOfRange is returned when an edit targets a missing row.
	ErrRowOutOfRange = errors.New("row index out of range")

	// ErrUnknownColumn is returned when an edit targets a column absent
	// from the sheet header.
	ErrUnknownColumn = errors.New("unknown column")

	// ErrRowWithoutKey is returned when an edited row lacks the username
	// value needed to address it server-side.
	ErrRowWithoutKey = errors.New("row has no username key")

	// ErrNoEdits is returned when Save is called with an empty edit log.
	ErrNoEdits = errors.New("sheet has no edits to save")
)

// DecodeError wraps a workbook parsing failure with the file it came from.
type DecodeError struct {
	FileID string
	Err    error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("excel: decoding %s failed: %v", e.FileID, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *DecodeError) Unwrap() error {
	return e.Err
}
