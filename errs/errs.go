// Package errs defines the error kinds reported while opening workbooks and
// decoding sheets. Callers classify failures with errors.Is / errors.As.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrArgument indicates invalid caller input such as an empty path or an
	// impossible first data row.
	ErrArgument = errors.New("invalid argument")
	// ErrNotFound indicates the input file does not exist.
	ErrNotFound = errors.New("file not found")
	// ErrCorruptData indicates an unreadable package or malformed row/cell data.
	ErrCorruptData = errors.New("corrupt workbook data")
	// ErrConfiguration indicates a binding that cannot be applied to the workbook.
	ErrConfiguration = errors.New("invalid binding configuration")
	// ErrAuthentication indicates a wrong workbook password.
	ErrAuthentication = errors.New("workbook password rejected")
	// ErrTypeMismatch indicates a cell value that cannot convert to its field type.
	ErrTypeMismatch = errors.New("type mismatch")
)

// ErrSheetNotFound is returned when a binding names a sheet the workbook does
// not contain. It is a configuration error.
var ErrSheetNotFound = fmt.Errorf("%w: sheet not found", ErrConfiguration)

// CellError locates a decode failure inside a sheet.
type CellError struct {
	Sheet  string
	Column string
	Row    int
	Value  string
	Err    error
}

func (e *CellError) Error() string {
	return fmt.Sprintf("decode sheet %q column %s row %d value %q: %v", e.Sheet, e.Column, e.Row, e.Value, e.Err)
}

func (e *CellError) Unwrap() error {
	return e.Err
}

// NewCellError creates a new CellError.
func NewCellError(sheet, column string, row int, value string, err error) *CellError {
	return &CellError{
		Sheet:  sheet,
		Column: column,
		Row:    row,
		Value:  value,
		Err:    err,
	}
}
