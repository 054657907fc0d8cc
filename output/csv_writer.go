package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"sheetmap/record"
)

type CSVWriter struct {
	// Encoding is utf-8 (default), utf-16le or windows-1252. utf-16le output
	// starts with a BOM; windows-1252 replaces characters it cannot encode.
	Encoding string
}

func (w *CSVWriter) Write(path string, fields []string, rows []record.Row) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv output %s: %w", path, err)
	}
	defer file.Close()

	var (
		out     io.Writer = file
		encoded io.WriteCloser
	)
	if encoder := encoderFor(w.Encoding); encoder != nil {
		encoded = transform.NewWriter(file, encoder)
		out = encoded
	}

	writer := csv.NewWriter(out)
	if err := writer.Write(headers(fields)); err != nil {
		return fmt.Errorf("write csv headers: %w", err)
	}

	for _, row := range rows {
		values := make([]string, 0, len(fields)+2)
		for _, field := range fields {
			values = append(values, record.FormatValue(row.Get(field)))
		}
		values = append(values, row.SourceFile, strconv.Itoa(row.Number))
		if err := writer.Write(values); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv output: %w", err)
	}
	if encoded != nil {
		if err := encoded.Close(); err != nil {
			return fmt.Errorf("encode csv output: %w", err)
		}
	}

	return nil
}

func encoderFor(name string) *encoding.Encoder {
	switch name {
	case EncodingUTF16LE:
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()
	case EncodingWindows1252:
		return encoding.ReplaceUnsupported(charmap.Windows1252.NewEncoder())
	default:
		return nil
	}
}
