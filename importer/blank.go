package importer

// removeBlankRows drops records whose bound fields are all empty. A record
// stays as soon as any bound field holds a value; order is kept.
func removeBlankRows[T any](records []T, columns columnMap[T]) []T {
	if len(columns.keys) == 0 {
		return records
	}

	kept := records[:0]
	for i := range records {
		if !isBlank(&records[i], columns) {
			kept = append(kept, records[i])
		}
	}
	return kept
}

func isBlank[T any](rec *T, columns columnMap[T]) bool {
	for _, key := range columns.keys {
		col, _ := columns.lookup(key)
		if !col.empty(rec) {
			return false
		}
	}
	return true
}
