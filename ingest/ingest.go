package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"realestate-summary/storage"
	"realestate-summary/utils"
)

const readmeFile = "README.csv"

// Report summarises one ingestion run.
type Report struct {
	Tables   []string
	Failed   []string
	Duration time.Duration
}

// Ingester loads raw city files and facet files into the store, one table per file.
type Ingester struct {
	rawDir    string
	facetsDir string
	open      storage.Opener
	logger    *utils.Logger
}

// New creates an Ingester reading rawDir and facetsDir.
func New(rawDir, facetsDir string, open storage.Opener, logger *utils.Logger) *Ingester {
	return &Ingester{rawDir: rawDir, facetsDir: facetsDir, open: open, logger: logger}
}

// Run ingests every city file, then every facet file. A file that fails is
// logged and skipped. Only a missing raw directory or a store that cannot be
// opened is returned as an error.
func (in *Ingester) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	in.logger.Info("starting ingestion", "raw_dir", in.rawDir, "facets_dir", in.facetsDir)

	store, err := in.open(ctx)
	if err != nil {
		return nil, fmt.Errorf("ingest: open store: %w", err)
	}
	defer store.Close()

	report := &Report{}
	seen := utils.NewStringSet()

	cityFiles, err := csvFiles(in.rawDir, readmeFile)
	if err != nil {
		return nil, fmt.Errorf("ingest: list %q: %w", in.rawDir, err)
	}
	for _, path := range cityFiles {
		in.ingestFile(ctx, store, path, "city", seen, report)
	}

	facetFiles, err := csvFiles(in.facetsDir, "")
	switch {
	case errors.Is(err, os.ErrNotExist):
		in.logger.Warn("facets folder not found", "path", in.facetsDir)
	case err != nil:
		in.logger.Error("failed to list facets folder", "path", in.facetsDir, "error", err)
	default:
		for _, path := range facetFiles {
			in.ingestFile(ctx, store, path, "facet", seen, report)
		}
	}

	report.Duration = time.Since(start)
	in.logger.Info("ingestion complete", "tables", len(report.Tables), "failed", len(report.Failed),
		"duration", report.Duration.Round(time.Millisecond))
	return report, nil
}

func (in *Ingester) ingestFile(ctx context.Context, store storage.TableStore, path, kind string, seen *utils.StringSet, report *Report) {
	name := TableNameForFile(filepath.Base(path))
	log := in.logger.With("file", filepath.Base(path), "table", name, "kind", kind)

	table, warnings, err := storage.ReadTableCSV(path)
	if err != nil {
		log.Error("failed to ingest file", "error", err)
		report.Failed = append(report.Failed, path)
		return
	}
	for _, w := range warnings {
		log.Debug("csv warning", "row", w.Row, "message", w.Message)
	}
	if len(warnings) > 0 {
		log.Warn("file had malformed rows", "count", len(warnings))
	}

	if !seen.Add(name) {
		log.Warn("table name already ingested in this run, replacing it")
	}

	if err := store.SaveTable(ctx, name, table); err != nil {
		log.Error("failed to ingest file", "error", err)
		report.Failed = append(report.Failed, path)
		return
	}
	report.Tables = append(report.Tables, name)
	log.Info("ingested", "rows", table.Len(), "columns", len(table.Columns()))
}

// TableNameForFile strips the extension and normalises the rest
// ("Gurgaon 10K.csv" → "gurgaon_10k").
func TableNameForFile(file string) string {
	return storage.TableName(strings.TrimSuffix(file, filepath.Ext(file)))
}

// csvFiles lists the .csv files directly inside dir, sorted, minus exclude.
func csvFiles(dir, exclude string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".csv") || e.Name() == exclude {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}
