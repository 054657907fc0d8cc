// Package importer decodes worksheet rows into typed records.
//
// An Importer owns one open workbook and, when the source had to be
// decrypted or converted, the unprotected working copy. Records are
// produced by Decode from a Binding that maps columns to fields:
//
//	im := importer.New()
//	defer im.Close()
//	if _, err := im.Open("trades.xlsx", "", true); err != nil {
//		return err
//	}
//	trades, err := importer.Decode(im, tradeBinding)
package importer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"

	"sheetmap/decrypt"
	"sheetmap/errs"
	"sheetmap/xlsx"
)

// Options control how rows are decoded. They are read on every Decode call.
type Options struct {
	// FirstDataRow is the 1-based row where records start.
	FirstDataRow int
	// IgnoreBlankRows drops records whose bound fields are all empty.
	IgnoreBlankRows bool
	// UseFirstRowHeaders matches column keys against the text of row 1
	// instead of column letters.
	UseFirstRowHeaders bool
}

func DefaultOptions() Options {
	return Options{FirstDataRow: 2}
}

type Importer struct {
	Options Options

	decrypter Decrypter
	workDir   string
	logger    log.FieldLogger

	pkg            *xlsx.Package
	source         string
	active         string
	artifact       string
	deleteAfterUse bool
	opened         bool
	closed         bool
}

type Option func(*Importer)

// WithDecrypter replaces the collaborator used for protected and legacy files.
func WithDecrypter(d Decrypter) Option {
	return func(im *Importer) { im.decrypter = d }
}

// WithWorkDir sets where decrypted copies are written.
func WithWorkDir(dir string) Option {
	return func(im *Importer) { im.workDir = dir }
}

func WithLogger(logger log.FieldLogger) Option {
	return func(im *Importer) {
		if logger != nil {
			im.logger = logger
		}
	}
}

func New(opts ...Option) *Importer {
	im := &Importer{
		Options:        DefaultOptions(),
		decrypter:      decrypt.NewWorkbook(),
		logger:         log.StandardLogger(),
		deleteAfterUse: true,
	}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// Open opens path for decoding. Legacy .xls files and files opened with a
// password are first written to an unprotected copy in the work directory;
// that copy is removed on Close unless deleteAfterUse is false.
func (im *Importer) Open(path, password string, deleteAfterUse bool) (bool, error) {
	if im.closed {
		return false, fmt.Errorf("%w: importer is closed", errs.ErrArgument)
	}
	if im.opened {
		return false, fmt.Errorf("%w: importer already opened %s; create a new importer", errs.ErrArgument, im.source)
	}
	if strings.TrimSpace(path) == "" {
		return false, fmt.Errorf("%w: workbook path is required", errs.ErrArgument)
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, fmt.Errorf("%w: %s", errs.ErrNotFound, path)
		}
		return false, fmt.Errorf("stat workbook %s: %w", path, err)
	}
	if info.IsDir() {
		return false, fmt.Errorf("%w: %s is a directory", errs.ErrArgument, path)
	}

	im.opened = true
	im.source = path
	im.active = path
	im.deleteAfterUse = deleteAfterUse
	logger := im.logger.WithField("file", path)

	if mustDecrypt(path, password) {
		artifact, err := im.decryptToWorkDir(path, password)
		if err != nil {
			return false, err
		}
		im.artifact = artifact
		im.active = artifact
	}

	pkg, err := xlsx.Open(im.active)
	if err != nil {
		if im.artifact != "" {
			im.deleteAfterUse = true
			im.cleanupArtifact()
		}
		return false, fmt.Errorf("open workbook %s: %w", filepath.Base(path), err)
	}
	im.pkg = pkg

	logger.WithField("sheets", len(pkg.Sheets())).Debug("workbook opened")
	return true, nil
}

// OpenFile opens an unprotected workbook.
func (im *Importer) OpenFile(path string) (bool, error) {
	return im.Open(path, "", true)
}

// Sheets lists the sheet names of the open workbook in workbook order.
func (im *Importer) Sheets() ([]string, error) {
	if im.pkg == nil {
		return nil, fmt.Errorf("%w: no workbook open", errs.ErrArgument)
	}
	sheets := im.pkg.Sheets()
	names := make([]string, 0, len(sheets))
	for _, sheet := range sheets {
		names = append(names, sheet.Name)
	}
	return names, nil
}

// String returns the path of the file being read, which is the decrypted
// copy when one was made.
func (im *Importer) String() string {
	return im.active
}

// Close releases the workbook and removes the decrypted copy when owed. It is
// safe to call more than once.
func (im *Importer) Close() error {
	if im.closed {
		return nil
	}
	im.closed = true

	var err error
	if im.pkg != nil {
		err = im.pkg.Close()
		im.pkg = nil
	}
	im.cleanupArtifact()
	return err
}

// Decode reads every record of b's sheet from the open workbook.
func Decode[T any](im *Importer, b Binding[T]) ([]T, error) {
	columns, err := resolveColumns(b, im.Options.UseFirstRowHeaders)
	if err != nil {
		return nil, err
	}
	if im.pkg == nil {
		return nil, fmt.Errorf("%w: no workbook open", errs.ErrArgument)
	}

	records, err := mapRows(im.pkg, b, columns, im.Options)
	if err != nil {
		return nil, err
	}

	read := len(records)
	if im.Options.IgnoreBlankRows {
		records = removeBlankRows(records, columns)
	}

	im.logger.WithFields(log.Fields{
		"file":    filepath.Base(im.source),
		"sheet":   b.Sheet,
		"rows":    read,
		"records": len(records),
	}).Debug("sheet decoded")
	return records, nil
}
