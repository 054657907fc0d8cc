package importer

import (
	"fmt"
	"strconv"
	"strings"

	"sheetmap/errs"
	"sheetmap/xlsx"
)

// cellValue returns the logical text of a raw cell, or nil when the cell
// stores no value. Shared-string cells are looked up in pool on every call.
func cellValue(cell xlsx.Cell, pool *xlsx.SharedStrings) (*string, error) {
	if !cell.HasValue {
		return nil, nil
	}

	if cell.Kind == xlsx.KindSharedString {
		index, err := strconv.Atoi(strings.TrimSpace(cell.Value))
		if err != nil {
			return nil, fmt.Errorf("%w: shared string index %q is not a number", errs.ErrCorruptData, cell.Value)
		}
		text, err := pool.At(index)
		if err != nil {
			return nil, err
		}
		return &text, nil
	}

	value := cell.Value
	return &value, nil
}
