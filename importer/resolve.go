package importer

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"sheetmap/errs"
)

// columnMap is the resolved key -> column table for one decode call. keys
// keeps binding declaration order.
type columnMap[T any] struct {
	byKey map[string]Column[T]
	keys  []string
}

func (m columnMap[T]) lookup(key string) (Column[T], bool) {
	col, ok := m.byKey[key]
	return col, ok
}

// resolveColumns validates a binding and builds its column map. Columns with
// an empty key are unbound and ignored. In letter mode keys are uppercased
// column letters; in header mode they are header text, matched verbatim.
func resolveColumns[T any](b Binding[T], headers bool) (columnMap[T], error) {
	if strings.TrimSpace(b.Sheet) == "" {
		return columnMap[T]{}, fmt.Errorf("%w: binding has no sheet name", errs.ErrConfiguration)
	}

	resolved := columnMap[T]{
		byKey: make(map[string]Column[T], len(b.Columns)),
		keys:  make([]string, 0, len(b.Columns)),
	}
	for _, col := range b.Columns {
		key := col.Key
		if strings.TrimSpace(key) == "" {
			continue
		}
		if col.set == nil || col.get == nil {
			return columnMap[T]{}, fmt.Errorf("%w: column %q (field %s) has no accessors", errs.ErrConfiguration, key, col.Field)
		}
		if !headers {
			key = strings.ToUpper(strings.TrimSpace(key))
			if _, err := excelize.ColumnNameToNumber(key); err != nil {
				return columnMap[T]{}, fmt.Errorf("%w: field %s: %q is not a column letter", errs.ErrConfiguration, col.Field, col.Key)
			}
		}
		if existing, ok := resolved.byKey[key]; ok {
			return columnMap[T]{}, fmt.Errorf("%w: column %q bound to both %s and %s", errs.ErrConfiguration, key, existing.Field, col.Field)
		}
		resolved.byKey[key] = col
		resolved.keys = append(resolved.keys, key)
	}

	return resolved, nil
}

func normalizeKey(input string) string {
	trimmed := strings.TrimSpace(strings.ToLower(input))
	trimmed = strings.ReplaceAll(trimmed, "_", "")
	trimmed = strings.ReplaceAll(trimmed, "-", "")
	trimmed = strings.ReplaceAll(trimmed, " ", "")
	return trimmed
}
