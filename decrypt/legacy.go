package decrypt

import (
	"fmt"
	"math"
	"path/filepath"
	"strconv"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"

	"sheetmap/errs"
)

// convertLegacy copies every sheet of a BIFF .xls workbook into a new .xlsx
// file. Numeric text is written as numbers so serial dates and amounts keep
// their stored form.
func (w *Workbook) convertLegacy(source, target string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: read legacy workbook %s: %v", errs.ErrCorruptData, filepath.Base(source), r)
		}
	}()

	charset := w.Charset
	if charset == "" {
		charset = "utf-8"
	}

	wb, err := xls.Open(source, charset)
	if err != nil {
		return fmt.Errorf("%w: open legacy workbook %s: %v", errs.ErrCorruptData, filepath.Base(source), err)
	}

	out := excelize.NewFile()
	defer out.Close()

	defaultSheet := out.GetSheetName(0)
	written := 0
	for i := 0; i < wb.NumSheets(); i++ {
		sheet := wb.GetSheet(i)
		if sheet == nil {
			continue
		}

		name := sheet.Name
		if written == 0 {
			if err := out.SetSheetName(defaultSheet, name); err != nil {
				return fmt.Errorf("convert sheet %q: %w", name, err)
			}
		} else if _, err := out.NewSheet(name); err != nil {
			return fmt.Errorf("convert sheet %q: %w", name, err)
		}
		written++

		for r := 0; r <= int(sheet.MaxRow); r++ {
			row := sheet.Row(r)
			if row == nil {
				continue
			}
			for c := row.FirstCol(); c < row.LastCol(); c++ {
				text := row.Col(c)
				if text == "" {
					continue
				}
				cell, err := excelize.CoordinatesToCellName(c+1, r+1)
				if err != nil {
					return fmt.Errorf("convert sheet %q: %w", name, err)
				}
				if err := out.SetCellValue(name, cell, legacyValue(text)); err != nil {
					return fmt.Errorf("convert sheet %q cell %s: %w", name, cell, err)
				}
			}
		}
	}

	if err := out.SaveAs(target); err != nil {
		return fmt.Errorf("save converted workbook %s: %w", target, err)
	}
	return nil
}

// legacyValue returns text as a number only when the number prints back to
// the same text. Leading zeros, signs and exponents stay text.
func legacyValue(text string) any {
	f, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return text
	}
	if strconv.FormatFloat(f, 'f', -1, 64) != text {
		return text
	}
	return f
}
