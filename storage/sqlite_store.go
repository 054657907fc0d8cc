package storage

import (
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"sheetmap/record"
)

type SQLiteStore struct {
	db *sql.DB
}

var ErrRecordNotFound = errors.New("record not found")

func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.ensureSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ensureSchema() error {
	// Rows are keyed by binding, source file and row number, so importing a
	// file twice adds nothing.
	const schema = `
CREATE TABLE IF NOT EXISTS records (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL DEFAULT '',
	binding TEXT NOT NULL,
	sheet TEXT NOT NULL,
	source_file TEXT NOT NULL,
	row_number INTEGER NOT NULL CHECK(row_number > 0),
	payload TEXT NOT NULL,
	created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(binding, source_file, row_number)
);
`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_records_binding ON records(binding);`); err != nil {
		return fmt.Errorf("create binding index: %w", err)
	}
	if _, err := s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_records_run ON records(run_id);`); err != nil {
		return fmt.Errorf("create run index: %w", err)
	}
	return nil
}

// InsertRecords stores rows in one transaction and returns how many were new.
func (s *SQLiteStore) InsertRecords(rows []record.Row) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}

	const insertStmt = `
INSERT OR IGNORE INTO records (
	run_id,
	binding,
	sheet,
	source_file,
	row_number,
	payload
) VALUES (?, ?, ?, ?, ?, ?);`

	stmt, err := tx.Prepare(insertStmt)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("prepare insert statement: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, row := range rows {
		payload, err := record.MarshalValues(row.Values)
		if err != nil {
			_ = tx.Rollback()
			return inserted, err
		}

		res, err := stmt.Exec(row.RunID, row.Binding, row.Sheet, row.SourceFile, row.Number, string(payload))
		if err != nil {
			_ = tx.Rollback()
			return inserted, fmt.Errorf("insert record %s row %d: %w", row.SourceFile, row.Number, err)
		}

		affected, err := res.RowsAffected()
		if err == nil && affected > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return inserted, fmt.Errorf("commit transaction: %w", err)
	}

	return inserted, nil
}

// ListRecords returns the stored rows of a binding, or of all bindings when
// binding is empty, ordered by binding, source file and row.
func (s *SQLiteStore) ListRecords(binding string) ([]record.Row, error) {
	const query = `
SELECT
	id,
	run_id,
	binding,
	sheet,
	source_file,
	row_number,
	payload
FROM records
WHERE ? = '' OR binding = ?
ORDER BY binding, source_file, row_number, id;
`

	rows, err := s.db.Query(query, binding, binding)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	result := make([]record.Row, 0, 256)
	for rows.Next() {
		var (
			row     record.Row
			payload string
		)
		if err := rows.Scan(&row.ID, &row.RunID, &row.Binding, &row.Sheet, &row.SourceFile, &row.Number, &payload); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}

		row.Values, err = record.UnmarshalValues([]byte(payload))
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", row.ID, err)
		}
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}

	return result, nil
}

// DeleteRecord removes the row with the given ID.
func (s *SQLiteStore) DeleteRecord(id int64) error {
	if id <= 0 {
		return fmt.Errorf("record id must be > 0")
	}

	res, err := s.db.Exec(`DELETE FROM records WHERE id = ?;`, id)
	if err != nil {
		return fmt.Errorf("delete record %d: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("read deleted row count: %w", err)
	}
	if affected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (s *SQLiteStore) DeleteRecords(binding string) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM records WHERE binding = ?;`, binding)
	if err != nil {
		return 0, fmt.Errorf("delete records of %s: %w", binding, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("read deleted row count: %w", err)
	}
	return affected, nil
}

// DeleteRun removes the rows stored by one import run.
func (s *SQLiteStore) DeleteRun(runID string) (int64, error) {
	if runID == "" {
		return 0, fmt.Errorf("run id is required")
	}

	res, err := s.db.Exec(`DELETE FROM records WHERE run_id = ?;`, runID)
	if err != nil {
		return 0, fmt.Errorf("delete run %s: %w", runID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("read deleted row count: %w", err)
	}
	return affected, nil
}

func (s *SQLiteStore) DeleteAllRecords() (int64, error) {
	res, err := s.db.Exec(`DELETE FROM records;`)
	if err != nil {
		return 0, fmt.Errorf("delete records: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("read deleted row count: %w", err)
	}
	return affected, nil
}
