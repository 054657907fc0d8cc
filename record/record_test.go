package record

import (
	"encoding/json"
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"sheetmap/config"
	"sheetmap/errs"
	"sheetmap/importer"
)

func tradesBinding() config.Binding {
	return config.Binding{
		Name:         "trades",
		Sheet:        "Trades",
		FileTemplate: "trades*.xlsx",
		Columns: []config.Column{
			{Key: "A", Field: "id", Type: "string"},
			{Key: "B", Field: "quantity", Type: "int"},
			{Key: "C", Field: "price", Type: "decimal"},
			{Key: "D", Field: "trade_date", Type: "date"},
			{Key: "E", Field: "note", Type: "string", Nullable: true},
		},
	}
}

func testConfig(t *testing.T) config.Config {
	return config.Config{
		Decode:   config.DecodeConfig{FirstDataRow: 2},
		Decrypt:  config.DecryptConfig{WorkDir: t.TempDir(), DeleteAfterUse: true},
		Bindings: []config.Binding{tradesBinding()},
	}
}

func writeTrades(t *testing.T, dir, name string, cells map[string]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", "Trades"); err != nil {
		t.Fatal(err)
	}
	for ref, value := range cells {
		if err := f.SetCellValue("Trades", ref, value); err != nil {
			t.Fatal(err)
		}
	}
	path := filepath.Join(dir, name)
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
	return path
}

func quietLogger() log.FieldLogger {
	logger := log.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestRun_DecodesWithTemplateBinding(t *testing.T) {
	t.Parallel()

	path := writeTrades(t, t.TempDir(), "trades-2026.xlsx", map[string]any{
		"A1": "ID", "B1": "Qty", "C1": "Price", "D1": "Date", "E1": "Note",
		"A2": "T-1", "B2": 3, "C2": "1.5E+2", "D2": 42474,
		"A3": "T-2", "B3": 4, "C3": 2, "D3": 42475, "E3": "late",
	})

	result, err := Run([]string{path}, testConfig(t), RunOptions{
		Decode: importer.DefaultOptions(),
		Logger: quietLogger(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.FilesProcessed != 1 || result.RowsDecoded != 2 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if _, err := uuid.Parse(result.RunID); err != nil {
		t.Fatalf("expected uuid run id, got %q", result.RunID)
	}

	first := result.Rows[0]
	if first.RunID != result.RunID || first.Binding != "trades" || first.Sheet != "Trades" || first.SourceFile != path || first.Number != 2 {
		t.Fatalf("unexpected row metadata: %+v", first)
	}
	if first.Get("id") != "T-1" || first.Get("quantity") != int64(3) {
		t.Fatalf("unexpected values: %+v", first.Values)
	}
	if price := first.Get("price").(decimal.Decimal); !price.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("unexpected price %s", price)
	}
	if note, ok := first.Values["note"]; !ok || note != nil {
		t.Fatalf("expected absent note to be stored as nil, got %#v", note)
	}
	if got := result.Rows[1].Get("note"); got != "late" {
		t.Fatalf("unexpected note %#v", got)
	}
}

func TestRun_BindingErrors(t *testing.T) {
	t.Parallel()

	path := writeTrades(t, t.TempDir(), "other.xlsx", map[string]any{"A2": "T-1"})
	cfg := testConfig(t)

	if _, err := Run([]string{path}, cfg, RunOptions{Decode: importer.DefaultOptions(), Logger: quietLogger()}); err == nil {
		t.Fatalf("expected error when no template matches")
	}
	if _, err := Run([]string{path}, cfg, RunOptions{Binding: "missing", Decode: importer.DefaultOptions(), Logger: quietLogger()}); err == nil {
		t.Fatalf("expected error for unknown binding")
	}

	_, err := Run([]string{path}, cfg, RunOptions{Binding: "TRADES", Decode: importer.DefaultOptions(), Logger: quietLogger()})
	if !errors.Is(err, errs.ErrTypeMismatch) {
		t.Fatalf("expected type mismatch for missing quantity, got %v", err)
	}
}

func TestNewBinding_RejectsUnknownType(t *testing.T) {
	t.Parallel()

	binding := tradesBinding()
	binding.Columns[1].Type = "money"
	if _, err := NewBinding(binding); !errors.Is(err, errs.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestFields(t *testing.T) {
	t.Parallel()

	fields := Fields(tradesBinding())
	if len(fields) != 5 || fields[0] != "id" || fields[4] != "note" {
		t.Fatalf("unexpected fields: %v", fields)
	}
}

func TestFieldsForRows(t *testing.T) {
	t.Parallel()

	rows := []Row{
		{Binding: "trades", Values: map[string]any{"id": "T-1"}},
		{Binding: "unknown", Values: map[string]any{"zeta": 1, "alpha": 2, "id": "x"}},
		{Binding: "TRADES", Values: map[string]any{"id": "T-2"}},
	}
	got := FieldsForRows([]config.Binding{tradesBinding()}, rows)
	want := []string{"id", "quantity", "price", "trade_date", "note", "alpha", "zeta"}
	if len(got) != len(want) {
		t.Fatalf("unexpected fields: %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unexpected fields: %v", got)
		}
	}
}

func TestFormatValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value any
		want  string
	}{
		{value: nil, want: ""},
		{value: "text", want: "text"},
		{value: int64(-3), want: "-3"},
		{value: 2.5, want: "2.5"},
		{value: true, want: "true"},
		{value: decimal.RequireFromString("123000"), want: "123000"},
		{value: time.Date(2016, 4, 13, 0, 0, 0, 0, time.UTC), want: "2016-04-13"},
		{value: time.Date(2016, 4, 13, 18, 30, 0, 0, time.UTC), want: "2016-04-13 18:30:00"},
		{value: time.Date(2016, 4, 13, 0, 0, 0, 5, time.UTC), want: "2016-04-13 00:00:00"},
		{value: json.Number("42"), want: "42"},
	}

	for _, tc := range tests {
		if got := FormatValue(tc.value); got != tc.want {
			t.Errorf("FormatValue(%#v) = %q, want %q", tc.value, got, tc.want)
		}
	}
}

func TestValuesRoundTripKeepsDecimals(t *testing.T) {
	t.Parallel()

	values := map[string]any{
		"price": decimal.RequireFromString("0.1000000000000000000000001"),
		"qty":   int64(7),
		"note":  nil,
	}
	data, err := MarshalValues(values)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	decoded, err := UnmarshalValues(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if FormatValue(decoded["price"]) != "0.1000000000000000000000001" {
		t.Fatalf("decimal precision lost: %#v", decoded["price"])
	}
	if FormatValue(decoded["qty"]) != "7" || decoded["note"] != nil {
		t.Fatalf("unexpected decoded values: %#v", decoded)
	}
}
