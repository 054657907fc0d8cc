package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"sheetmap/record"
	"sheetmap/storage"
)

func TestConfirmDeletePrompt(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{name: "uppercase Y confirms", input: "Y\n", want: true},
		{name: "lowercase y does not confirm", input: "y\n", want: false},
		{name: "N does not confirm", input: "N\n", want: false},
		{name: "empty does not confirm", input: "\n", want: false},
		{name: "Y without newline confirms", input: "Y", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			got, err := confirmDeletePrompt(bytes.NewBufferString(tt.input), &out, `database file "./sheetmap.db"`)
			if err != nil {
				t.Fatalf("confirm prompt returned error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
			if out.Len() == 0 {
				t.Fatalf("expected prompt output")
			}
		})
	}
}

func TestDeleteStoredRows(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "sheetmap.db")
	store, err := storage.OpenSQLite(dbPath)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	rows := []record.Row{
		{RunID: "run-1", Binding: "trades", Sheet: "Trades", SourceFile: "a.xlsx", Number: 2, Values: map[string]any{"id": "T-1"}},
		{RunID: "run-2", Binding: "positions", Sheet: "Positions", SourceFile: "b.xlsx", Number: 2, Values: map[string]any{"isin": "DE1"}},
	}
	if _, err := store.InsertRecords(rows); err != nil {
		t.Fatalf("insert records: %v", err)
	}
	_ = store.Close()

	deleted, err := deleteStoredRows(dbPath, "trades", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected 1 deleted row, got %d", deleted)
	}

	deleted, err = deleteStoredRows(dbPath, "", "run-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected 1 deleted row, got %d", deleted)
	}

	if _, err := deleteStoredRows(filepath.Join(t.TempDir(), "missing.db"), "trades", ""); err == nil {
		t.Fatalf("expected error for missing database")
	}
}

func TestRemoveDatabaseFile(t *testing.T) {
	t.Run("deletes existing file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "sheetmap.db")
		if err := os.WriteFile(path, []byte("x"), 0o600); err != nil {
			t.Fatalf("write temp db file: %v", err)
		}

		if err := removeDatabaseFile(path); err != nil {
			t.Fatalf("remove db file: %v", err)
		}
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Fatalf("expected file to be deleted")
		}
	})

	t.Run("fails for directory path", func(t *testing.T) {
		dir := t.TempDir()
		if err := removeDatabaseFile(dir); err == nil {
			t.Fatalf("expected error for directory path")
		}
	})

	t.Run("fails for missing file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing.db")
		if err := removeDatabaseFile(path); err == nil {
			t.Fatalf("expected error for missing file")
		}
	})
}
