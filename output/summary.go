package output

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/xuri/excelize/v2"

	"sheetmap/record"
)

// SourceSummary counts the stored rows of one binding and source file.
type SourceSummary struct {
	Binding    string
	SourceFile string
	Rows       int
	FirstRow   int
	LastRow    int
}

var summaryHeaders = []string{"Binding", "SourceFile", "Rows", "FirstRow", "LastRow"}

func BuildSourceSummaries(rows []record.Row) []SourceSummary {
	if len(rows) == 0 {
		return []SourceSummary{}
	}

	type key struct{ binding, source string }
	bySource := make(map[key]*SourceSummary)
	for _, row := range rows {
		k := key{binding: row.Binding, source: row.SourceFile}
		summary, ok := bySource[k]
		if !ok {
			summary = &SourceSummary{Binding: row.Binding, SourceFile: row.SourceFile, FirstRow: row.Number, LastRow: row.Number}
			bySource[k] = summary
		}
		summary.Rows++
		if row.Number < summary.FirstRow {
			summary.FirstRow = row.Number
		}
		if row.Number > summary.LastRow {
			summary.LastRow = row.Number
		}
	}

	summaries := make([]SourceSummary, 0, len(bySource))
	for _, summary := range bySource {
		summaries = append(summaries, *summary)
	}
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].Binding == summaries[j].Binding {
			return summaries[i].SourceFile < summaries[j].SourceFile
		}
		return summaries[i].Binding < summaries[j].Binding
	})

	return summaries
}

// WriteSourceSummaries writes summaries as csv or excel.
func WriteSourceSummaries(path, format string, summaries []SourceSummary) error {
	switch normalizeFormat(format) {
	case "csv":
		return writeSourceSummariesCSV(path, summaries)
	case "excel", "xlsx":
		return writeSourceSummariesExcel(path, summaries)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

func (s SourceSummary) values() []string {
	return []string{
		s.Binding,
		s.SourceFile,
		strconv.Itoa(s.Rows),
		strconv.Itoa(s.FirstRow),
		strconv.Itoa(s.LastRow),
	}
}

func writeSourceSummariesCSV(path string, summaries []SourceSummary) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv output %s: %w", path, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(summaryHeaders); err != nil {
		return fmt.Errorf("write csv headers: %w", err)
	}
	for _, summary := range summaries {
		if err := writer.Write(summary.values()); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv output: %w", err)
	}

	return nil
}

func writeSourceSummariesExcel(path string, summaries []SourceSummary) error {
	file := excelize.NewFile()
	defer file.Close()

	sheet := file.GetSheetName(0)
	if err := setRow(file, sheet, 1, stringsToAny(summaryHeaders)); err != nil {
		return err
	}
	for i, summary := range summaries {
		values := []any{summary.Binding, summary.SourceFile, summary.Rows, summary.FirstRow, summary.LastRow}
		if err := setRow(file, sheet, i+2, values); err != nil {
			return err
		}
	}

	if err := file.SaveAs(path); err != nil {
		return fmt.Errorf("save excel output %s: %w", path, err)
	}

	return nil
}
