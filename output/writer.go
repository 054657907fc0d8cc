package output

import (
	"fmt"
	"strings"

	"sheetmap/record"
)

const (
	EncodingUTF8    = "utf-8"
	EncodingUTF16LE = "utf-16le"

	// EncodingWindows1252 suits spreadsheet tools that assume an ANSI code page.
	EncodingWindows1252 = "windows-1252"
)

// Writer writes decoded rows with one column per bound field, followed by the
// source file and row number of each row.
type Writer interface {
	Write(path string, fields []string, rows []record.Row) error
}

func WriterForFormat(format, encoding string) (Writer, error) {
	switch normalizeFormat(format) {
	case "csv":
		enc := normalizeFormat(encoding)
		switch enc {
		case "", "utf8", EncodingUTF8:
			return &CSVWriter{Encoding: EncodingUTF8}, nil
		case "utf16le", "utf16", EncodingUTF16LE:
			return &CSVWriter{Encoding: EncodingUTF16LE}, nil
		case "cp1252", "windows1252", EncodingWindows1252:
			return &CSVWriter{Encoding: EncodingWindows1252}, nil
		default:
			return nil, fmt.Errorf("unsupported csv encoding: %s", encoding)
		}
	case "excel", "xlsx":
		return &ExcelWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// FormatForPath infers the output format from a file extension.
func FormatForPath(path string) string {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".csv"):
		return "csv"
	case strings.HasSuffix(lower, ".xlsx"):
		return "excel"
	default:
		return ""
	}
}

func headers(fields []string) []string {
	out := make([]string, 0, len(fields)+2)
	out = append(out, fields...)
	return append(out, "source_file", "row_number")
}

func normalizeFormat(value string) string {
	return strings.ReplaceAll(strings.TrimSpace(strings.ToLower(value)), "_", "-")
}
