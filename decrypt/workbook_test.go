package decrypt

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"sheetmap/errs"
	"sheetmap/xlsx"
)

func writeProtected(t *testing.T, dir, password string) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetCellValue("Sheet1", "A1", "Trade"); err != nil {
		t.Fatal(err)
	}
	if err := f.SetCellValue("Sheet1", "A2", "T-1"); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(dir, "protected.xlsx")
	opts := excelize.Options{Password: password}
	if err := f.SaveAs(path, opts); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
	return path
}

func TestDecrypt_RemovesPassword(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	source := writeProtected(t, dir, "s3cret")
	target := filepath.Join(dir, "protected_nopass.xlsx")

	if err := NewWorkbook().Decrypt(source, "s3cret", target); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	compound, err := xlsx.IsCompoundFile(target)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if compound {
		t.Fatalf("expected unprotected package at %s", target)
	}

	pkg, err := xlsx.Open(target)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer pkg.Close()
	if _, ok := pkg.Sheet("Sheet1"); !ok {
		t.Fatalf("expected Sheet1 in decrypted copy")
	}
}

func TestDecrypt_WrongPassword(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	source := writeProtected(t, dir, "s3cret")

	err := NewWorkbook().Decrypt(source, "wrong", filepath.Join(dir, "out.xlsx"))
	if !errors.Is(err, errs.ErrAuthentication) {
		t.Fatalf("expected authentication error, got %v", err)
	}
}

func TestDecrypt_UnprotectedSourceIsCopied(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	source := writeProtected(t, dir, "")
	target := filepath.Join(dir, "copy.xlsx")

	if err := NewWorkbook().Decrypt(source, "ignored", target); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected copy at %s: %v", target, err)
	}
}

func TestDecrypt_LegacyGarbageIsCorrupt(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	source := filepath.Join(dir, "old.xls")
	if err := os.WriteFile(source, []byte("not a biff workbook"), 0o644); err != nil {
		t.Fatal(err)
	}

	err := NewWorkbook().Decrypt(source, "", filepath.Join(dir, "old_nopass.xlsx"))
	if !errors.Is(err, errs.ErrCorruptData) {
		t.Fatalf("expected corrupt data error, got %v", err)
	}
}

func TestLegacyValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  any
	}{
		{input: "42474", want: float64(42474)},
		{input: "12.5", want: 12.5},
		{input: " 12", want: " 12"},
		{input: "-3.25", want: -3.25},
		{input: "NaN", want: "NaN"},
		{input: "00123", want: "00123"},
		{input: "+7", want: "+7"},
		{input: "1e5", want: "1e5"},
		{input: "12.50", want: "12.50"},
		{input: "Trade", want: "Trade"},
	}

	for _, tc := range tests {
		if got := legacyValue(tc.input); got != tc.want {
			t.Errorf("legacyValue(%q) = %#v, want %#v", tc.input, got, tc.want)
		}
	}
}
