package sheet

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/briangreenhill/sheetcoach/internal/workout"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS workouts (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	date        TEXT NOT NULL DEFAULT '',
	category    TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	notes       TEXT NOT NULL DEFAULT '',
	output      TEXT NOT NULL DEFAULT ''
);`

// SQLiteStore keeps the workout tab in a local SQLite file, in the
// standard five-column layout.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore opens or creates the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &SQLiteStore{db: db, path: path}, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Values(ctx context.Context) ([][]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT date, category, description, notes, output FROM workouts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query workouts: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	out := [][]string{s.header()}
	for rows.Next() {
		r := make([]string, 5)
		if err := rows.Scan(&r[0], &r[1], &r[2], &r[3], &r[4]); err != nil {
			return nil, fmt.Errorf("scan workout: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Header(context.Context) ([]string, error) {
	return s.header(), nil
}

func (s *SQLiteStore) Append(ctx context.Context, row []string) error {
	cols := padRow(row)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO workouts (date, category, description, notes, output) VALUES (?, ?, ?, ?, ?)`,
		cols[0], cols[1], cols[2], cols[3], cols[4],
	)
	if err != nil {
		return fmt.Errorf("insert workout: %w", err)
	}
	return nil
}

func (s *SQLiteStore) header() []string {
	return append([]string(nil), workout.StandardHeader...)
}

// padRow fits a row to the five standard columns; extra cells are dropped.
func padRow(row []string) [5]string {
	var cols [5]string
	copy(cols[:], row)
	return cols
}

var _ workout.Store = (*SQLiteStore)(nil)
