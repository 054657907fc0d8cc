// Package xlsx reads the parts of an OOXML spreadsheet package that row
// decoding needs: the sheet list, the shared string table and a forward-only
// cursor over each worksheet's rows.
package xlsx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"sheetmap/errs"
)

const (
	workbookPart     = "xl/workbook.xml"
	workbookRelsPart = "xl/_rels/workbook.xml.rels"
	sharedStringPart = "xl/sharedStrings.xml"
)

// oleSignature prefixes compound files: encrypted OOXML packages and legacy .xls.
var oleSignature = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// Sheet is one declared worksheet of the workbook.
type Sheet struct {
	Name string
	ID   string
	Part string
}

// Package is an opened, read-only spreadsheet package.
type Package struct {
	path    string
	zr      *zip.ReadCloser
	files   map[string]*zip.File
	sheets  []Sheet
	sstPart string
	sst     *SharedStrings
}

// Open opens the package at path. A missing file reports errs.ErrNotFound;
// anything that is not a readable OOXML package reports errs.ErrCorruptData.
func Open(filePath string) (*Package, error) {
	if strings.TrimSpace(filePath) == "" {
		return nil, fmt.Errorf("%w: workbook path is required", errs.ErrArgument)
	}

	info, err := os.Stat(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", errs.ErrNotFound, filePath)
		}
		return nil, fmt.Errorf("stat workbook %s: %w", filePath, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", errs.ErrArgument, filePath)
	}

	if encrypted, err := IsCompoundFile(filePath); err != nil {
		return nil, fmt.Errorf("read workbook %s: %w", filePath, err)
	} else if encrypted {
		return nil, fmt.Errorf("%w: %s is encrypted or in legacy binary format", errs.ErrCorruptData, filePath)
	}

	zr, err := zip.OpenReader(filePath)
	if err != nil {
		return nil, fmt.Errorf("%w: open package %s: %v", errs.ErrCorruptData, filePath, err)
	}

	p := &Package{
		path:  filePath,
		zr:    zr,
		files: make(map[string]*zip.File, len(zr.File)),
	}
	for _, f := range zr.File {
		p.files[strings.TrimPrefix(f.Name, "/")] = f
	}

	if err := p.loadWorkbook(); err != nil {
		_ = zr.Close()
		return nil, err
	}

	return p, nil
}

// Path returns the file the package was opened from.
func (p *Package) Path() string {
	return p.path
}

// Sheets returns the declared sheets in workbook order.
func (p *Package) Sheets() []Sheet {
	out := make([]Sheet, len(p.sheets))
	copy(out, p.sheets)
	return out
}

// Sheet looks a sheet up by its exact name.
func (p *Package) Sheet(name string) (Sheet, bool) {
	for _, sheet := range p.sheets {
		if sheet.Name == name {
			return sheet, true
		}
	}
	return Sheet{}, false
}

// Close releases the underlying archive.
func (p *Package) Close() error {
	if p.zr == nil {
		return nil
	}
	err := p.zr.Close()
	p.zr = nil
	return err
}

func (p *Package) loadWorkbook() error {
	workbookXML, err := p.readPart(workbookPart)
	if err != nil {
		return err
	}
	relsXML, err := p.readPart(workbookRelsPart)
	if err != nil {
		return err
	}

	declared, err := parseWorkbookSheets(workbookXML)
	if err != nil {
		return fmt.Errorf("%w: parse %s: %v", errs.ErrCorruptData, workbookPart, err)
	}
	rels, err := parseWorkbookRels(relsXML)
	if err != nil {
		return fmt.Errorf("%w: parse %s: %v", errs.ErrCorruptData, workbookRelsPart, err)
	}

	p.sheets = make([]Sheet, 0, len(declared))
	for _, sheet := range declared {
		target, ok := rels[sheet.ID]
		if !ok {
			return fmt.Errorf("%w: sheet %q has no relationship %s", errs.ErrCorruptData, sheet.Name, sheet.ID)
		}
		sheet.Part = resolvePartPath(target.target)
		p.sheets = append(p.sheets, sheet)
	}

	p.sstPart = sharedStringPart
	for _, rel := range rels {
		if strings.HasSuffix(rel.relType, "/sharedStrings") {
			p.sstPart = resolvePartPath(rel.target)
			break
		}
	}

	return nil
}

func (p *Package) readPart(name string) ([]byte, error) {
	f, ok := p.files[name]
	if !ok {
		return nil, fmt.Errorf("%w: package part %s missing", errs.ErrCorruptData, name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: open part %s: %v", errs.ErrCorruptData, name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("%w: read part %s: %v", errs.ErrCorruptData, name, err)
	}
	return data, nil
}

type relationship struct {
	target  string
	relType string
}

func parseWorkbookSheets(data []byte) ([]Sheet, error) {
	var sheets []Sheet
	decoder := xml.NewDecoder(bytes.NewReader(data))
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		se, ok := token.(xml.StartElement)
		if !ok || se.Name.Local != "sheet" {
			continue
		}
		var sheet Sheet
		for _, attr := range se.Attr {
			switch attr.Name.Local {
			case "name":
				sheet.Name = attr.Value
			case "id":
				sheet.ID = attr.Value
			}
		}
		if sheet.Name != "" && sheet.ID != "" {
			sheets = append(sheets, sheet)
		}
	}
	return sheets, nil
}

func parseWorkbookRels(data []byte) (map[string]relationship, error) {
	result := make(map[string]relationship)
	decoder := xml.NewDecoder(bytes.NewReader(data))
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		se, ok := token.(xml.StartElement)
		if !ok || se.Name.Local != "Relationship" {
			continue
		}
		var id string
		var rel relationship
		for _, attr := range se.Attr {
			switch attr.Name.Local {
			case "Id":
				id = attr.Value
			case "Target":
				rel.target = attr.Value
			case "Type":
				rel.relType = attr.Value
			}
		}
		if id != "" {
			result[id] = rel
		}
	}
	return result, nil
}

// resolvePartPath turns a workbook relationship target into a package part name.
func resolvePartPath(target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(path.Clean(target), "/")
	}
	return path.Clean(path.Join("xl", target))
}

// IsCompoundFile reports whether filePath starts with the OLE compound file
// signature used by encrypted and legacy workbooks.
func IsCompoundFile(filePath string) (bool, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return false, err
	}
	defer f.Close()

	header := make([]byte, len(oleSignature))
	n, err := io.ReadFull(f, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return false, err
	}
	return n == len(oleSignature) && bytes.Equal(header, oleSignature), nil
}
