package storage

import (
	"context"
	"errors"
	"strings"

	"realestate-summary/models"
)

// ErrTableNotFound is returned by LoadTable when the named table does not exist.
var ErrTableNotFound = errors.New("table not found")

// TableStore is the interface any storage backend must satisfy.
// SaveTable always replaces an existing table of the same name.
type TableStore interface {
	LoadTable(ctx context.Context, name string) (*models.Table, error)
	SaveTable(ctx context.Context, name string, table *models.Table) error
	Close() error
}

// Opener opens a fresh store session. Each city run opens and closes its own.
type Opener func(ctx context.Context) (TableStore, error)

// TableName derives a store table name from a city, facet or file identifier:
// lowercased, spaces replaced by underscores.
func TableName(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "_")
}

// SummaryTableName is the table a city's summary is persisted under.
func SummaryTableName(city string) string {
	return TableName(city) + "_summary"
}

// columnType classifies a column for typed SQL backends.
func columnType(col *models.Column) models.Kind {
	kind := models.KindNull
	for _, v := range col.Values {
		switch v.Kind() {
		case models.KindText:
			return models.KindText
		case models.KindFloat:
			kind = models.KindFloat
		case models.KindInt:
			if kind == models.KindNull {
				kind = models.KindInt
			}
		}
	}
	if kind == models.KindNull {
		return models.KindText
	}
	return kind
}

// cellValue converts a cell to what a typed SQL column of kind accepts.
func cellValue(v models.Value, kind models.Kind) any {
	if v.IsNull() {
		return nil
	}
	if kind == models.KindText {
		return v.String()
	}
	return v.Any()
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
