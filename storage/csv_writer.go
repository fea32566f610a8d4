package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"realestate-summary/models"
)

// WriteTableCSV creates (or truncates) the file at path and writes the table
// with a header row. Null cells are written empty. Intermediate directories
// are created automatically.
func WriteTableCSV(path string, table *models.Table) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("csv: create file %q: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("csv: close %q: %w", path, cerr)
		}
	}()

	w := csv.NewWriter(f)
	if err := w.Write(table.Columns()); err != nil {
		return fmt.Errorf("csv: write header: %w", err)
	}

	record := make([]string, len(table.Columns()))
	for i := 0; i < table.Len(); i++ {
		for j, v := range table.Row(i) {
			record[j] = v.String()
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("csv: write row %d: %w", i, err)
		}
	}

	w.Flush()
	return w.Error()
}
