package importer

import (
	"errors"
	"fmt"
	"path/filepath"

	"sheetmap/errs"
	"sheetmap/xlsx"
)

type mapState int

const (
	stateSeekingSheet mapState = iota
	stateScanningHeader
	stateScanningRows
	stateDone
	stateFailed
)

func (s mapState) String() string {
	switch s {
	case stateSeekingSheet:
		return "seeking-sheet"
	case stateScanningHeader:
		return "scanning-header"
	case stateScanningRows:
		return "scanning-rows"
	case stateDone:
		return "done"
	default:
		return "failed"
	}
}

// rowMapper streams one sheet into records of T. It keeps the position of
// the cell being decoded so failures can be reported with their location.
type rowMapper[T any] struct {
	pkg     *xlsx.Package
	binding Binding[T]
	columns columnMap[T]
	opts    Options

	state    mapState
	pool     *xlsx.SharedStrings
	headers  map[string]string
	firstRow int

	column string
	row    int
	value  string
}

func mapRows[T any](pkg *xlsx.Package, b Binding[T], columns columnMap[T], opts Options) ([]T, error) {
	if err := validateOptions(opts); err != nil {
		return nil, err
	}

	m := &rowMapper[T]{
		pkg:     pkg,
		binding: b,
		columns: columns,
		opts:    opts,
		state:   stateSeekingSheet,
	}
	return m.run()
}

func validateOptions(opts Options) error {
	if opts.FirstDataRow < 1 {
		return fmt.Errorf("%w: first data row must be at least 1, got %d", errs.ErrArgument, opts.FirstDataRow)
	}
	if opts.UseFirstRowHeaders && opts.FirstDataRow <= 1 {
		return fmt.Errorf("%w: first data row %d overlaps the header row", errs.ErrArgument, opts.FirstDataRow)
	}
	return nil
}

func (m *rowMapper[T]) run() ([]T, error) {
	sheet, ok := m.pkg.Sheet(m.binding.Sheet)
	if !ok {
		m.state = stateFailed
		return nil, fmt.Errorf("%w: %q in %s", errs.ErrSheetNotFound, m.binding.Sheet, filepath.Base(m.pkg.Path()))
	}

	pool, err := m.pkg.SharedStrings()
	if err != nil {
		m.state = stateFailed
		return nil, fmt.Errorf("read sheet %q: %w", sheet.Name, err)
	}
	m.pool = pool

	cursor, err := m.pkg.Rows(sheet)
	if err != nil {
		m.state = stateFailed
		return nil, fmt.Errorf("read sheet %q: %w", sheet.Name, err)
	}
	defer cursor.Close()

	m.state = stateScanningRows
	if m.opts.UseFirstRowHeaders {
		m.state = stateScanningHeader
		m.headers = make(map[string]string)
	}

	records := make([]T, 0, 64)
	for cursor.Next() {
		row := cursor.Row()
		if !row.HasRef {
			continue
		}
		m.row = row.Number

		if m.firstRow == 0 {
			m.firstRow = row.Number
			if m.opts.FirstDataRow < row.Number {
				m.state = stateFailed
				return nil, fmt.Errorf("%w: first data row %d is above the first populated row %d of sheet %q",
					errs.ErrArgument, m.opts.FirstDataRow, row.Number, sheet.Name)
			}
		}

		if m.state == stateScanningHeader {
			m.state = stateScanningRows
			if row.Number == 1 {
				if err := m.scanHeader(row); err != nil {
					m.state = stateFailed
					return nil, err
				}
				continue
			}
		}

		if row.Number < m.opts.FirstDataRow {
			continue
		}

		rec, err := m.decodeRow(row)
		if err != nil {
			m.state = stateFailed
			return nil, err
		}
		records = append(records, rec)
	}

	if err := cursor.Err(); err != nil {
		m.state = stateFailed
		return nil, m.fail(err)
	}

	m.state = stateDone
	return records, nil
}

// scanHeader records the column letter of every row 1 cell whose text is a
// bound header. A repeated header keeps its rightmost column.
func (m *rowMapper[T]) scanHeader(row xlsx.Row) error {
	for _, cell := range row.Cells {
		m.column = cell.Column
		m.value = ""

		raw, err := cellValue(cell, m.pool)
		if err != nil {
			return m.fail(err)
		}
		if raw == nil {
			continue
		}
		m.value = *raw
		if _, ok := m.columns.lookup(*raw); ok {
			m.headers[cell.Column] = *raw
		}
	}
	return nil
}

func (m *rowMapper[T]) decodeRow(row xlsx.Row) (T, error) {
	var rec T
	seen := make(map[string]bool, len(m.columns.keys))

	for _, cell := range row.Cells {
		m.column = cell.Column
		m.value = ""

		raw, err := cellValue(cell, m.pool)
		if err != nil {
			return rec, m.fail(err)
		}
		if raw != nil {
			m.value = *raw
		}

		key := cell.Column
		if m.opts.UseFirstRowHeaders {
			header, ok := m.headers[cell.Column]
			if !ok {
				continue
			}
			key = header
		}

		col, ok := m.columns.lookup(key)
		if !ok {
			continue
		}
		if err := col.assign(&rec, raw); err != nil {
			return rec, m.fail(err)
		}
		seen[key] = true
	}

	// Bound columns with no cell in this row are absent values.
	for _, key := range m.columns.keys {
		if seen[key] {
			continue
		}
		m.column = m.letterFor(key)
		m.value = ""
		col, _ := m.columns.lookup(key)
		if err := col.assign(&rec, nil); err != nil {
			return rec, m.fail(err)
		}
	}

	if m.binding.RowNumber != nil {
		m.binding.RowNumber(&rec, row.Number)
	}
	return rec, nil
}

func (m *rowMapper[T]) letterFor(key string) string {
	if !m.opts.UseFirstRowHeaders {
		return key
	}
	letter := ""
	for col, header := range m.headers {
		if header == key && (letter == "" || len(col) > len(letter) || (len(col) == len(letter) && col > letter)) {
			letter = col
		}
	}
	if letter == "" {
		return key
	}
	return letter
}

// fail wraps err with the current position. A type mismatch on row 1, when
// decoding starts there, usually means the first data row points at a header
// row and is reported as an argument error too.
func (m *rowMapper[T]) fail(err error) error {
	cellErr := errs.NewCellError(m.binding.Sheet, m.column, m.row, m.value, err)
	if !m.opts.UseFirstRowHeaders && m.row == 1 && m.opts.FirstDataRow == 1 && errors.Is(err, errs.ErrTypeMismatch) {
		return fmt.Errorf("%w: first data row 1 of sheet %q looks like a header row: %w",
			errs.ErrArgument, m.binding.Sheet, cellErr)
	}
	return cellErr
}
