package index

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Row represents a row in the resolutions table.
type Row struct {
	Path         string    `json:"path"`
	Line         int       `json:"line"`
	TaskID       string    `json:"task_id"`
	Text         string    `json:"text"`
	TimeText     string    `json:"time_text"`
	ResolvedDate string    `json:"resolved_date"`
	Source       string    `json:"source"`
	Confidence   string    `json:"confidence"`
	UsedFallback bool      `json:"used_fallback"`
	Explanation  string    `json:"explanation"`
	Checksum     string    `json:"checksum"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ReplaceFile records the file checksum and swaps its rows within a transaction.
func (db *DB) ReplaceFile(path, checksum string, rows []Row) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	now := time.Now().UTC()
	_, err = tx.Exec(`
		INSERT INTO files (path, checksum, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			checksum   = excluded.checksum,
			updated_at = excluded.updated_at
	`, path, checksum, now)
	if err != nil {
		return fmt.Errorf("index: upsert file: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM resolutions WHERE path = ?`, path); err != nil {
		return fmt.Errorf("index: clear rows: %w", err)
	}
	if len(rows) > 0 {
		stmt, err := tx.Prepare(`
			INSERT INTO resolutions (path, line, task_id, text, time_text, resolved_date,
				source, confidence, used_fallback, explanation, checksum, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare row insert: %w", err)
		}
		defer stmt.Close()
		for _, r := range rows {
			_, err := stmt.Exec(path, r.Line, r.TaskID, r.Text, r.TimeText, r.ResolvedDate,
				r.Source, r.Confidence, r.UsedFallback, r.Explanation, checksum, now)
			if err != nil {
				return fmt.Errorf("index: insert row: %w", err)
			}
		}
	}

	return tx.Commit()
}

// DeleteFile removes a file and its rows.
func (db *DB) DeleteFile(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, _ = tx.Exec(`DELETE FROM resolutions WHERE path = ?`, path)
	_, _ = tx.Exec(`DELETE FROM files WHERE path = ?`, path)

	return tx.Commit()
}

// FileChecksum returns the stored checksum for a file, or empty string if not indexed.
func (db *DB) FileChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM files WHERE path = ?`, path).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: checksum: %w", err)
	}
	return cs, nil
}

// AllChecksums returns path → checksum for every indexed file.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM files`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

const rowColumns = `path, line, task_id, text, time_text, resolved_date, source,
	confidence, used_fallback, explanation, checksum, updated_at`

// ListByDate returns the tasks resolved to date (YYYY-MM-DD), by path and line.
func (db *DB) ListByDate(date string) ([]Row, error) {
	return db.queryRows(`SELECT `+rowColumns+` FROM resolutions
		WHERE resolved_date = ? ORDER BY path, line`, date)
}

// ListByFile returns a file's rows in line order.
func (db *DB) ListByFile(path string) ([]Row, error) {
	return db.queryRows(`SELECT `+rowColumns+` FROM resolutions
		WHERE path = ? ORDER BY line`, path)
}

// CountBySource returns how many rows each resolution source produced.
func (db *DB) CountBySource() (map[string]int, error) {
	rows, err := db.conn.Query(`SELECT source, count(*) FROM resolutions GROUP BY source`)
	if err != nil {
		return nil, fmt.Errorf("index: count by source: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var s string
		var n int
		if err := rows.Scan(&s, &n); err != nil {
			return nil, err
		}
		out[s] = n
	}
	return out, rows.Err()
}

func (db *DB) queryRows(query string, args ...any) ([]Row, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("index: query: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		if err := rows.Scan(&r.Path, &r.Line, &r.TaskID, &r.Text, &r.TimeText, &r.ResolvedDate,
			&r.Source, &r.Confidence, &r.UsedFallback, &r.Explanation, &r.Checksum, &r.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
