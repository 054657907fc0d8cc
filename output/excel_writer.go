package output

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"sheetmap/record"
)

type ExcelWriter struct{}

func (w *ExcelWriter) Write(path string, fields []string, rows []record.Row) error {
	file := excelize.NewFile()
	defer file.Close()

	sheet := file.GetSheetName(0)
	if err := setRow(file, sheet, 1, stringsToAny(headers(fields))); err != nil {
		return err
	}

	for i, row := range rows {
		values := make([]any, 0, len(fields)+2)
		for _, field := range fields {
			values = append(values, excelValue(row.Get(field)))
		}
		values = append(values, row.SourceFile, row.Number)
		if err := setRow(file, sheet, i+2, values); err != nil {
			return err
		}
	}

	if err := file.SaveAs(path); err != nil {
		return fmt.Errorf("save excel output %s: %w", path, err)
	}

	return nil
}

func setRow(file *excelize.File, sheet string, row int, values []any) error {
	for col, value := range values {
		if value == nil {
			continue
		}
		cell, _ := excelize.CoordinatesToCellName(col+1, row)
		if err := file.SetCellValue(sheet, cell, value); err != nil {
			return fmt.Errorf("set excel value %s: %w", cell, err)
		}
	}
	return nil
}

// excelValue keeps numbers, booleans and dates typed. Decimals are written as
// text when a float64 would not hold them exactly.
func excelValue(value any) any {
	switch v := value.(type) {
	case nil:
		return nil
	case int64, float64, bool, string:
		return v
	case time.Time:
		return v
	case decimal.Decimal:
		if f, exact := v.Float64(); exact {
			return f
		}
		return v.String()
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n
		}
		return v.String()
	default:
		return record.FormatValue(v)
	}
}

func stringsToAny(values []string) []any {
	out := make([]any, len(values))
	for i, value := range values {
		out[i] = value
	}
	return out
}
