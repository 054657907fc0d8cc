package output

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/unicode"

	"sheetmap/record"
)

func sampleRows() []record.Row {
	return []record.Row{
		{
			Binding: "trades", SourceFile: "b.xlsx", Number: 2,
			Values: map[string]any{
				"id":    "T-1",
				"price": decimal.RequireFromString("123000"),
				"date":  time.Date(2016, 4, 13, 0, 0, 0, 0, time.UTC),
			},
		},
		{
			Binding: "trades", SourceFile: "b.xlsx", Number: 5,
			Values: map[string]any{"id": "Ü-2", "price": decimal.RequireFromString("0.1"), "date": nil},
		},
		{
			Binding: "trades", SourceFile: "a.xlsx", Number: 3,
			Values: map[string]any{"id": "T-3"},
		},
	}
}

func TestWriterForFormat(t *testing.T) {
	t.Parallel()

	if w, err := WriterForFormat("CSV", "UTF_16LE"); err != nil || w.(*CSVWriter).Encoding != EncodingUTF16LE {
		t.Fatalf("unexpected writer %#v, err %v", w, err)
	}
	if _, err := WriterForFormat("xlsx", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := WriterForFormat("json", ""); err == nil {
		t.Fatalf("expected error for unsupported format")
	}
	if _, err := WriterForFormat("csv", "latin1"); err == nil {
		t.Fatalf("expected error for unsupported encoding")
	}
	if FormatForPath("out.CSV") != "csv" || FormatForPath("out.xlsx") != "excel" || FormatForPath("out.txt") != "" {
		t.Fatalf("unexpected format inference")
	}
}

func TestCSVWriter_UTF8(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.csv")
	w := &CSVWriter{}
	if err := w.Write(path, []string{"id", "price", "date"}, sampleRows()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := strings.Join([]string{
		"id,price,date,source_file,row_number",
		"T-1,123000,2016-04-13,b.xlsx,2",
		"Ü-2,0.1,,b.xlsx,5",
		"T-3,,,a.xlsx,3",
		"",
	}, "\n")
	if string(data) != want {
		t.Fatalf("unexpected csv:\n%s", data)
	}
}

func TestCSVWriter_UTF16LE(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.csv")
	w := &CSVWriter{Encoding: EncodingUTF16LE}
	if err := w.Write(path, []string{"id"}, sampleRows()[1:2]); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte{0xFF, 0xFE}) {
		t.Fatalf("expected UTF-16LE BOM, got % x", data[:2])
	}

	decoded, err := unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder().Bytes(data)
	if err != nil {
		t.Fatalf("decode utf-16: %v", err)
	}
	if string(decoded) != "id,source_file,row_number\nÜ-2,b.xlsx,5\n" {
		t.Fatalf("unexpected content %q", decoded)
	}
}

func TestCSVWriter_Windows1252(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.csv")
	w, err := WriterForFormat("csv", "CP1252")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rows := []record.Row{{SourceFile: "a.xlsx", Number: 2, Values: map[string]any{"id": "Ü-€-世"}}}
	if err := w.Write(path, []string{"id"}, rows); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	// Ü is 0xDC, € is 0x80, 世 is replaced by 0x1A.
	want := append([]byte("id,source_file,row_number\n"), 0xDC, '-', 0x80, '-', 0x1A)
	want = append(want, []byte(",a.xlsx,2\n")...)
	if !bytes.Equal(data, want) {
		t.Fatalf("unexpected bytes % x", data)
	}
}

func TestExcelWriter_WritesTypedCells(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.xlsx")
	w := &ExcelWriter{}
	if err := w.Write(path, []string{"id", "price"}, sampleRows()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		t.Fatalf("read rows: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected header and 3 rows, got %d", len(rows))
	}
	if strings.Join(rows[0], ",") != "id,price,source_file,row_number" {
		t.Fatalf("unexpected header %v", rows[0])
	}
	if rows[1][0] != "T-1" || rows[1][1] != "123000" || rows[1][3] != "2" {
		t.Fatalf("unexpected first row %v", rows[1])
	}

	cellType, err := f.GetCellType(f.GetSheetName(0), "B2")
	if err != nil {
		t.Fatalf("cell type: %v", err)
	}
	if cellType == excelize.CellTypeSharedString || cellType == excelize.CellTypeInlineString {
		t.Fatalf("expected numeric price cell, got %v", cellType)
	}
}

func TestBuildSourceSummaries(t *testing.T) {
	t.Parallel()

	summaries := BuildSourceSummaries(sampleRows())
	if len(summaries) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(summaries))
	}
	if summaries[0].SourceFile != "a.xlsx" || summaries[0].Rows != 1 {
		t.Fatalf("unexpected first summary %+v", summaries[0])
	}
	if got := summaries[1]; got.SourceFile != "b.xlsx" || got.Rows != 2 || got.FirstRow != 2 || got.LastRow != 5 {
		t.Fatalf("unexpected second summary %+v", got)
	}

	if len(BuildSourceSummaries(nil)) != 0 {
		t.Fatalf("expected no summaries for no rows")
	}
}

func TestWriteSourceSummaries(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	summaries := BuildSourceSummaries(sampleRows())

	csvPath := filepath.Join(dir, "summary.csv")
	if err := WriteSourceSummaries(csvPath, "csv", summaries); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := os.ReadFile(csvPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "trades,b.xlsx,2,2,5") {
		t.Fatalf("unexpected summary csv:\n%s", data)
	}

	if err := WriteSourceSummaries(filepath.Join(dir, "summary.xlsx"), "excel", summaries); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := WriteSourceSummaries(filepath.Join(dir, "summary.txt"), "txt", summaries); err == nil {
		t.Fatalf("expected error for unsupported format")
	}
}
