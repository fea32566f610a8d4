package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"realestate-summary/models"
	"realestate-summary/utils"
)

const postgresBatchSize = 200

// PostgresStore persists tables in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection to PostgreSQL, retrying the initial ping.
func NewPostgresStore(ctx context.Context, dsn string, maxRetries int, logger *utils.Logger) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	retry := &utils.RetryConfig{MaxAttempts: maxRetries, BaseDelay: 2 * time.Second, Logger: logger}
	if err := retry.Do("postgres ping", func() error { return db.PingContext(ctx) }); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// LoadTable reads every row of the named table.
func (ps *PostgresStore) LoadTable(ctx context.Context, name string) (*models.Table, error) {
	var exists bool
	if err := ps.db.QueryRowContext(ctx, `SELECT to_regclass($1) IS NOT NULL`, quoteIdent(name)).Scan(&exists); err != nil {
		return nil, fmt.Errorf("postgres: lookup %q: %w", name, err)
	}
	if !exists {
		return nil, fmt.Errorf("postgres: load %q: %w", name, ErrTableNotFound)
	}

	rows, err := ps.db.QueryContext(ctx, "SELECT * FROM "+quoteIdent(name))
	if err != nil {
		return nil, fmt.Errorf("postgres: load %q: %w", name, err)
	}
	defer rows.Close()

	table, err := scanTable(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan %q: %w", name, err)
	}
	return table, nil
}

// SaveTable replaces the named table and batch-inserts all rows.
func (ps *PostgresStore) SaveTable(ctx context.Context, name string, table *models.Table) (err error) {
	cols := table.Columns()
	if len(cols) == 0 {
		return fmt.Errorf("postgres: save %q: table has no columns", name)
	}

	tx, err := ps.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
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
		defs[i] = quoteIdent(c) + " " + postgresType(kinds[i])
		qCols[i] = quoteIdent(c)
	}

	if _, err = tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdent(name)); err != nil {
		return fmt.Errorf("postgres: drop %q: %w", name, err)
	}
	if _, err = tx.ExecContext(ctx, "CREATE TABLE "+quoteIdent(name)+" ("+strings.Join(defs, ", ")+")"); err != nil {
		return fmt.Errorf("postgres: create %q: %w", name, err)
	}

	for start := 0; start < table.Len(); start += postgresBatchSize {
		end := start + postgresBatchSize
		if end > table.Len() {
			end = table.Len()
		}
		if err = insertBatch(ctx, tx, name, qCols, kinds, table, start, end); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("postgres: commit %q: %w", name, err)
	}
	return nil
}

func insertBatch(ctx context.Context, tx *sql.Tx, name string, qCols []string, kinds []models.Kind, table *models.Table, start, end int) error {
	n := len(qCols)
	valueStrings := make([]string, 0, end-start)
	valueArgs := make([]any, 0, (end-start)*n)

	for i := start; i < end; i++ {
		ph := make([]string, n)
		base := (i - start) * n
		for j, v := range table.Row(i) {
			ph[j] = fmt.Sprintf("$%d", base+j+1)
			valueArgs = append(valueArgs, cellValue(v, kinds[j]))
		}
		valueStrings = append(valueStrings, "("+strings.Join(ph, ",")+")")
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		quoteIdent(name), strings.Join(qCols, ","), strings.Join(valueStrings, ","))

	if _, err := tx.ExecContext(ctx, query, valueArgs...); err != nil {
		return fmt.Errorf("postgres: insert into %q: %w", name, err)
	}
	return nil
}

func (ps *PostgresStore) Close() error {
	return ps.db.Close()
}

func postgresType(k models.Kind) string {
	switch k {
	case models.KindInt:
		return "BIGINT"
	case models.KindFloat:
		return "DOUBLE PRECISION"
	default:
		return "TEXT"
	}
}

var _ TableStore = (*PostgresStore)(nil)
