package xlsx

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"sheetmap/errs"
)

// Kind is the storage kind of a cell value, taken from the cell's t attribute.
type Kind int

const (
	KindNumber Kind = iota
	KindSharedString
	KindInlineString
	KindFormulaString
	KindBoolean
	KindError
	KindDate
)

func (k Kind) String() string {
	switch k {
	case KindSharedString:
		return "shared-string"
	case KindInlineString:
		return "inline-string"
	case KindFormulaString:
		return "formula-string"
	case KindBoolean:
		return "boolean"
	case KindError:
		return "error"
	case KindDate:
		return "date"
	default:
		return "number"
	}
}

func kindOf(t string) Kind {
	switch t {
	case "s":
		return KindSharedString
	case "inlineStr":
		return KindInlineString
	case "str":
		return KindFormulaString
	case "b":
		return KindBoolean
	case "e":
		return KindError
	case "d":
		return KindDate
	default:
		return KindNumber
	}
}

// Cell is one raw <c> element. Value holds the stored text exactly as written:
// for shared strings it is the table index.
type Cell struct {
	Ref      string
	Column   string
	Kind     Kind
	Value    string
	HasValue bool
}

// Row is one <row> element with its cells in document order. HasRef is false
// when the row carries no r attribute.
type Row struct {
	Number int
	HasRef bool
	Cells  []Cell
}

type xlsxC struct {
	R  string  `xml:"r,attr"`
	T  string  `xml:"t,attr"`
	V  *string `xml:"v"`
	IS *xlsxIS `xml:"is"`
}

type xlsxIS struct {
	T string  `xml:"t"`
	R []xlsxR `xml:"r"`
}

type xlsxR struct {
	T string `xml:"t"`
}

func (is *xlsxIS) text() string {
	if len(is.R) == 0 {
		return is.T
	}
	var b strings.Builder
	b.WriteString(is.T)
	for _, run := range is.R {
		b.WriteString(run.T)
	}
	return b.String()
}

// RowCursor walks a worksheet's <sheetData> one row at a time. It never
// moves backwards.
type RowCursor struct {
	part string
	rc   io.ReadCloser
	dec  *xml.Decoder
	row  Row
	err  error
	done bool
}

// Rows opens a cursor positioned at the start of the sheet's row data.
func (p *Package) Rows(sheet Sheet) (*RowCursor, error) {
	f, ok := p.files[sheet.Part]
	if !ok {
		return nil, fmt.Errorf("%w: worksheet part %s for sheet %q missing", errs.ErrCorruptData, sheet.Part, sheet.Name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: open worksheet part %s: %v", errs.ErrCorruptData, sheet.Part, err)
	}

	cursor := &RowCursor{
		part: sheet.Part,
		rc:   rc,
		dec:  xml.NewDecoder(bufio.NewReaderSize(rc, 64*1024)),
	}
	if err := cursor.seekSheetData(); err != nil {
		_ = rc.Close()
		return nil, err
	}
	return cursor, nil
}

func (c *RowCursor) seekSheetData() error {
	for {
		token, err := c.dec.Token()
		if err == io.EOF {
			c.done = true
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: read worksheet %s: %v", errs.ErrCorruptData, c.part, err)
		}
		if se, ok := token.(xml.StartElement); ok && se.Name.Local == "sheetData" {
			return nil
		}
	}
}

// Next advances to the next row. It returns false at the end of the row data
// or on error; check Err afterwards.
func (c *RowCursor) Next() bool {
	if c.done || c.err != nil {
		return false
	}

	for {
		token, err := c.dec.Token()
		if err == io.EOF {
			c.err = fmt.Errorf("%w: worksheet %s ends inside sheetData", errs.ErrCorruptData, c.part)
			return false
		}
		if err != nil {
			c.err = fmt.Errorf("%w: read worksheet %s: %v", errs.ErrCorruptData, c.part, err)
			return false
		}

		switch t := token.(type) {
		case xml.StartElement:
			if t.Name.Local != "row" {
				if err := c.dec.Skip(); err != nil {
					c.err = fmt.Errorf("%w: read worksheet %s: %v", errs.ErrCorruptData, c.part, err)
					return false
				}
				continue
			}
			row, err := c.readRow(t)
			if err != nil {
				c.err = err
				return false
			}
			c.row = row
			return true
		case xml.EndElement:
			if t.Name.Local == "sheetData" {
				c.done = true
				return false
			}
		}
	}
}

// Row returns the row loaded by the last successful Next.
func (c *RowCursor) Row() Row {
	return c.row
}

// Err returns the first error met while reading.
func (c *RowCursor) Err() error {
	return c.err
}

// Close releases the worksheet stream.
func (c *RowCursor) Close() error {
	if c.rc == nil {
		return nil
	}
	err := c.rc.Close()
	c.rc = nil
	c.done = true
	return err
}

func (c *RowCursor) readRow(start xml.StartElement) (Row, error) {
	row := Row{}
	for _, attr := range start.Attr {
		if attr.Name.Local != "r" {
			continue
		}
		number, err := strconv.Atoi(strings.TrimSpace(attr.Value))
		if err != nil || number < 1 {
			return Row{}, fmt.Errorf("%w: invalid row number %q in %s", errs.ErrCorruptData, attr.Value, c.part)
		}
		row.Number = number
		row.HasRef = true
	}

	column := 0
	for {
		token, err := c.dec.Token()
		if err != nil {
			return Row{}, fmt.Errorf("%w: read row %d of %s: %v", errs.ErrCorruptData, row.Number, c.part, err)
		}

		switch t := token.(type) {
		case xml.StartElement:
			if t.Name.Local != "c" {
				if err := c.dec.Skip(); err != nil {
					return Row{}, fmt.Errorf("%w: read row %d of %s: %v", errs.ErrCorruptData, row.Number, c.part, err)
				}
				continue
			}
			var raw xlsxC
			if err := c.dec.DecodeElement(&raw, &t); err != nil {
				return Row{}, fmt.Errorf("%w: decode cell in row %d of %s: %v", errs.ErrCorruptData, row.Number, c.part, err)
			}
			cell, next, err := toCell(raw, column, row.Number)
			if err != nil {
				return Row{}, fmt.Errorf("%w: row %d of %s: %v", errs.ErrCorruptData, row.Number, c.part, err)
			}
			column = next
			row.Cells = append(row.Cells, cell)
		case xml.EndElement:
			if t.Name.Local == "row" {
				return row, nil
			}
		}
	}
}

// toCell converts a decoded <c>. Cells without a reference continue from the
// previous column.
func toCell(raw xlsxC, previous, rowNumber int) (Cell, int, error) {
	cell := Cell{Ref: raw.R, Kind: kindOf(raw.T)}

	column := previous + 1
	if raw.R != "" {
		name, _, err := excelize.SplitCellName(raw.R)
		if err != nil {
			return Cell{}, previous, fmt.Errorf("invalid cell reference %q: %v", raw.R, err)
		}
		cell.Column = strings.ToUpper(name)
		number, err := excelize.ColumnNameToNumber(cell.Column)
		if err != nil {
			return Cell{}, previous, fmt.Errorf("invalid cell reference %q: %v", raw.R, err)
		}
		column = number
	} else {
		name, err := excelize.ColumnNumberToName(column)
		if err != nil {
			return Cell{}, previous, fmt.Errorf("column %d out of range: %v", column, err)
		}
		cell.Column = name
		if rowNumber > 0 {
			cell.Ref = name + strconv.Itoa(rowNumber)
		}
	}

	switch {
	case cell.Kind == KindInlineString && raw.IS != nil:
		cell.Value = raw.IS.text()
		cell.HasValue = true
	case raw.V != nil:
		cell.Value = *raw.V
		cell.HasValue = true
	}

	return cell, column, nil
}
