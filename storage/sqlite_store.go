package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"realestate-summary/models"
)

// SQLiteStore persists tables in a single SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database at path.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: ping %q: %w", path, err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) exists(ctx context.Context, name string) (bool, error) {
	const q = `SELECT count(*) FROM sqlite_master WHERE type='table' AND name = ?`
	var n int
	if err := s.db.QueryRowContext(ctx, q, name).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// LoadTable reads every row of the named table.
func (s *SQLiteStore) LoadTable(ctx context.Context, name string) (*models.Table, error) {
	ok, err := s.exists(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("sqlite: lookup %q: %w", name, err)
	}
	if !ok {
		return nil, fmt.Errorf("sqlite: load %q: %w", name, ErrTableNotFound)
	}

	rows, err := s.db.QueryContext(ctx, "SELECT * FROM "+quoteIdent(name))
	if err != nil {
		return nil, fmt.Errorf("sqlite: load %q: %w", name, err)
	}
	defer rows.Close()

	table, err := scanTable(rows)
	if err != nil {
		return nil, fmt.Errorf("sqlite: load %q: %w", name, err)
	}
	return table, nil
}

// SaveTable drops and recreates the named table, then inserts every row in
// one transaction.
func (s *SQLiteStore) SaveTable(ctx context.Context, name string, table *models.Table) (err error) {
	cols := table.Columns()
	if len(cols) == 0 {
		return fmt.Errorf("sqlite: save %q: table has no columns", name)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	kinds := make([]models.Kind, len(cols))
	defs := make([]string, len(cols))
	qCols := make([]string, len(cols))
	for i, c := range cols {
		kinds[i] = columnType(table.Column(c))
		defs[i] = quoteIdent(c) + " " + sqliteType(kinds[i])
		qCols[i] = quoteIdent(c)
	}

	if _, err = tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdent(name)); err != nil {
		return fmt.Errorf("sqlite: drop %q: %w", name, err)
	}
	if _, err = tx.ExecContext(ctx, "CREATE TABLE "+quoteIdent(name)+" ("+strings.Join(defs, ",")+")"); err != nil {
		return fmt.Errorf("sqlite: create %q: %w", name, err)
	}

	ph := strings.TrimRight(strings.Repeat("?,", len(cols)), ",")
	stmt, err := tx.PrepareContext(ctx, "INSERT INTO "+quoteIdent(name)+" ("+strings.Join(qCols, ",")+") VALUES ("+ph+")")
	if err != nil {
		return fmt.Errorf("sqlite: prepare insert %q: %w", name, err)
	}
	defer stmt.Close()

	args := make([]any, len(cols))
	for i := 0; i < table.Len(); i++ {
		for j, v := range table.Row(i) {
			args[j] = cellValue(v, kinds[j])
		}
		if _, err = stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("sqlite: insert into %q: %w", name, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit %q: %w", name, err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func sqliteType(k models.Kind) string {
	switch k {
	case models.KindInt:
		return "INTEGER"
	case models.KindFloat:
		return "REAL"
	default:
		return "TEXT"
	}
}

// scanTable reads a result set into a Table, preserving column order.
func scanTable(rows *sql.Rows) (*models.Table, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	table := models.NewTable(cols...)

	values := make([]any, len(cols))
	scans := make([]any, len(cols))
	for i := range values {
		scans[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(scans...); err != nil {
			return nil, err
		}
		row := make([]models.Value, len(cols))
		for i, v := range values {
			row[i] = models.FromAny(v)
		}
		if err := table.AppendRow(row); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return table, nil
}

var _ TableStore = (*SQLiteStore)(nil)
