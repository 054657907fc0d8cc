// Package decrypt writes unprotected copies of password-protected and legacy
// workbooks so they can be read as plain packages.
package decrypt

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"sheetmap/errs"
	"sheetmap/xlsx"
)

// Workbook removes workbook protection with excelize and converts legacy
// .xls files.
type Workbook struct {
	// Charset is used to decode text in legacy workbooks.
	Charset string
}

func NewWorkbook() *Workbook {
	return &Workbook{Charset: "utf-8"}
}

// Decrypt writes an unprotected copy of source to target. A wrong password
// is reported as errs.ErrAuthentication. A source without protection is
// saved again unchanged.
func (w *Workbook) Decrypt(source, password, target string) error {
	if strings.EqualFold(filepath.Ext(source), ".xls") {
		return w.convertLegacy(source, target)
	}
	return removePassword(source, password, target)
}

func removePassword(source, password, target string) error {
	compound, err := xlsx.IsCompoundFile(source)
	if err != nil {
		return fmt.Errorf("read %s: %w", source, err)
	}

	f, err := excelize.OpenFile(source, excelize.Options{Password: password})
	if err != nil {
		switch {
		case errors.Is(err, excelize.ErrWorkbookPassword), compound && password != "":
			return fmt.Errorf("%w: %s: %v", errs.ErrAuthentication, filepath.Base(source), err)
		case compound:
			return fmt.Errorf("%w: %s is encrypted and no password was given", errs.ErrAuthentication, filepath.Base(source))
		}
		return fmt.Errorf("%w: open %s: %v", errs.ErrCorruptData, filepath.Base(source), err)
	}
	defer f.Close()

	// An empty Options clears the password carried over from opening.
	if err := f.SaveAs(target, excelize.Options{}); err != nil {
		return fmt.Errorf("save unprotected copy %s: %w", target, err)
	}
	return nil
}
