package xlsx

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"sheetmap/errs"
)

// SharedStrings is the workbook's shared string table. It is read-only once
// loaded.
type SharedStrings struct {
	items []string
}

// NewSharedStrings builds a pool from already decoded items.
func NewSharedStrings(items ...string) *SharedStrings {
	return &SharedStrings{items: items}
}

// Len returns the number of entries.
func (s *SharedStrings) Len() int {
	if s == nil {
		return 0
	}
	return len(s.items)
}

// At returns entry i. An index outside the table is corrupt data.
func (s *SharedStrings) At(i int) (string, error) {
	if i < 0 || i >= s.Len() {
		return "", fmt.Errorf("%w: shared string index %d out of range (%d entries)", errs.ErrCorruptData, i, s.Len())
	}
	return s.items[i], nil
}

// SharedStrings loads the table on first use. Packages without a table
// yield an empty pool.
func (p *Package) SharedStrings() (*SharedStrings, error) {
	if p.sst != nil {
		return p.sst, nil
	}

	f, ok := p.files[p.sstPart]
	if !ok {
		p.sst = &SharedStrings{}
		return p.sst, nil
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: open part %s: %v", errs.ErrCorruptData, p.sstPart, err)
	}
	defer rc.Close()

	items, err := readSharedStrings(rc)
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", errs.ErrCorruptData, p.sstPart, err)
	}
	p.sst = &SharedStrings{items: items}
	return p.sst, nil
}

// readSharedStrings concatenates the text runs of every <si>. Phonetic runs
// (<rPh>) are not part of the cell text.
func readSharedStrings(r io.Reader) ([]string, error) {
	decoder := xml.NewDecoder(bufio.NewReader(r))
	items := make([]string, 0, 64)

	var (
		inItem   bool
		inText   bool
		phonetic int
		current  strings.Builder
	)

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := token.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "si":
				inItem = true
				current.Reset()
			case "rPh":
				phonetic++
			case "t":
				inText = inItem && phonetic == 0
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "si":
				items = append(items, current.String())
				inItem = false
			case "rPh":
				phonetic--
			case "t":
				inText = false
			}
		case xml.CharData:
			if inText {
				current.Write(t)
			}
		}
	}

	return items, nil
}
