package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"realestate-summary/storage"
	"realestate-summary/utils"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func sqliteOpener(t *testing.T) storage.Opener {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ingest.db")
	return func(ctx context.Context) (storage.TableStore, error) {
		return storage.NewSQLiteStore(ctx, path)
	}
}

func TestTableNameForFile(t *testing.T) {
	tests := []struct{ in, want string }{
		{"mumbai.csv", "mumbai"},
		{"Gurgaon 10K.csv", "gurgaon_10k"},
		{"facing_direction.csv", "facing_direction"},
	}
	for _, tt := range tests {
		if got := TableNameForFile(tt.in); got != tt.want {
			t.Errorf("TableNameForFile(%q) = %q; want %q", tt.in, got, tt.want)
		}
	}
}

func TestRunIngestsCitiesAndFacets(t *testing.T) {
	raw := t.TempDir()
	facets := filepath.Join(raw, "facets")
	writeFile(t, filepath.Join(raw, "mumbai.csv"), "PRICE,FACING\n₹1.5 Cr,2\n85 L,1\n")
	writeFile(t, filepath.Join(raw, "Gurgaon 10K.csv"), "PRICE,AREA\n1 Cr,1000\n")
	writeFile(t, filepath.Join(raw, "README.csv"), "about\nthis folder\n")
	writeFile(t, filepath.Join(raw, "notes.txt"), "ignored")
	writeFile(t, filepath.Join(facets, "facing_direction.csv"), "id,label\n1,North\n2,East\n")

	open := sqliteOpener(t)
	report, err := New(raw, facets, open, utils.NopLogger()).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	got := strings.Join(report.Tables, ",")
	if got != "gurgaon_10k,mumbai,facing_direction" {
		t.Errorf("tables: got %s", got)
	}
	if len(report.Failed) != 0 {
		t.Errorf("failed: %v", report.Failed)
	}

	store, err := open(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	mumbai, err := store.LoadTable(context.Background(), "mumbai")
	if err != nil {
		t.Fatalf("load mumbai: %v", err)
	}
	if mumbai.Len() != 2 {
		t.Errorf("mumbai rows: got %d, want 2", mumbai.Len())
	}
	if _, err := store.LoadTable(context.Background(), "readme"); !errors.Is(err, storage.ErrTableNotFound) {
		t.Errorf("README.csv must not be ingested, got %v", err)
	}
}

func TestRunWithoutFacetsFolder(t *testing.T) {
	raw := t.TempDir()
	writeFile(t, filepath.Join(raw, "kolkata.csv"), "PRICE\n50 L\n")

	report, err := New(raw, filepath.Join(raw, "missing"), sqliteOpener(t), utils.NopLogger()).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.Tables) != 1 || report.Tables[0] != "kolkata" {
		t.Errorf("tables: got %v", report.Tables)
	}
}

func TestRunSkipsUnreadableFile(t *testing.T) {
	raw := t.TempDir()
	writeFile(t, filepath.Join(raw, "empty.csv"), "")
	writeFile(t, filepath.Join(raw, "pune.csv"), "PRICE\n50 L\n")

	report, err := New(raw, filepath.Join(raw, "facets"), sqliteOpener(t), utils.NopLogger()).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.Failed) != 1 || filepath.Base(report.Failed[0]) != "empty.csv" {
		t.Errorf("failed: got %v", report.Failed)
	}
	if len(report.Tables) != 1 || report.Tables[0] != "pune" {
		t.Errorf("tables: got %v", report.Tables)
	}
}

func TestRunMissingRawDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nope")
	if _, err := New(dir, dir, sqliteOpener(t), utils.NopLogger()).Run(context.Background()); err == nil {
		t.Error("expected error for missing raw directory")
	}
}
