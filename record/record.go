// Package record decodes sheets through bindings declared in configuration
// rather than Go types. Every decoded row keeps its values by field name.
package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"sheetmap/config"
	"sheetmap/importer"
	"sheetmap/internal/timeutil"
)

// Row is one decoded sheet row of a configured binding.
type Row struct {
	ID         int64
	// RunID identifies the Run call that decoded the row.
	RunID      string
	Binding    string
	Sheet      string
	SourceFile string
	Number     int
	Values     map[string]any
}

func (r Row) Get(field string) any {
	return r.Values[field]
}

// NewBinding builds an importer binding over Row from a configured binding.
func NewBinding(cfg config.Binding) (importer.Binding[Row], error) {
	b := importer.Binding[Row]{
		Sheet:     cfg.Sheet,
		Columns:   make([]importer.Column[Row], 0, len(cfg.Columns)),
		RowNumber: func(r *Row, number int) { r.Number = number },
	}

	for _, column := range cfg.Columns {
		kind, err := importer.ParseKind(column.Type)
		if err != nil {
			return importer.Binding[Row]{}, fmt.Errorf("binding %s field %s: %w", cfg.Name, column.Field, err)
		}
		field := column.Field
		b.Columns = append(b.Columns, importer.Field(column.Key, field, kind, column.Nullable,
			func(r *Row, value any) error {
				if r.Values == nil {
					r.Values = make(map[string]any, len(cfg.Columns))
				}
				r.Values[field] = value
				return nil
			},
			func(r *Row) any {
				return r.Values[field]
			},
		))
	}

	return b, nil
}

// Fields lists the field names of a binding in column order.
func Fields(cfg config.Binding) []string {
	fields := make([]string, 0, len(cfg.Columns))
	for _, column := range cfg.Columns {
		fields = append(fields, column.Field)
	}
	return fields
}

// FieldsForRows lists the fields of every binding present in rows, in order of
// first appearance. Rows of bindings missing from bindings contribute their
// value keys sorted by name.
func FieldsForRows(bindings []config.Binding, rows []Row) []string {
	fields := make([]string, 0, 16)
	seenField := make(map[string]struct{})
	seenBinding := make(map[string]struct{})
	add := func(field string) {
		if _, ok := seenField[field]; ok {
			return
		}
		seenField[field] = struct{}{}
		fields = append(fields, field)
	}

	for _, row := range rows {
		if _, ok := seenBinding[row.Binding]; ok {
			continue
		}
		seenBinding[row.Binding] = struct{}{}

		if binding, ok := (config.Config{Bindings: bindings}).BindingByName(row.Binding); ok {
			for _, field := range Fields(binding) {
				add(field)
			}
			continue
		}

		keys := make([]string, 0, len(row.Values))
		for key := range row.Values {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			add(key)
		}
	}
	return fields
}

// FormatValue renders a decoded value as cell text. Dates without a time of
// day are written as plain dates.
func FormatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case decimal.Decimal:
		return v.String()
	case time.Time:
		if timeutil.StartOfDay(v).Equal(v) {
			return v.Format("2006-01-02")
		}
		return v.Format("2006-01-02 15:04:05")
	case json.Number:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// MarshalValues encodes row values for storage. Decimals are kept as strings
// and dates as RFC 3339 text.
func MarshalValues(values map[string]any) ([]byte, error) {
	if values == nil {
		values = map[string]any{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("encode row values: %w", err)
	}
	return data, nil
}

// UnmarshalValues decodes stored row values. Numbers come back as json.Number
// so no precision is lost.
func UnmarshalValues(data []byte) (map[string]any, error) {
	values := make(map[string]any)
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&values); err != nil {
		return nil, fmt.Errorf("decode row values: %w", err)
	}
	return values, nil
}
