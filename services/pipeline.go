package services

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"realestate-summary/models"
	"realestate-summary/storage"
	"realestate-summary/utils"
)

// AreaColumnPriority lists the area columns in order of preference.
var AreaColumnPriority = []string{
	models.ColSuperBuiltUpSqft,
	models.ColArea,
	models.ColMaxAreaSqft,
	models.ColMinAreaSqft,
}

// CityResult is what one city run produced. Warnings holds every recovered
// failure; Err is set only when the run was aborted.
type CityResult struct {
	City              string
	RowsLoaded        int
	RowsDropped       int
	DuplicatesRemoved int
	RowsOut           int
	AreaColumn        string
	Decoded           []string
	Warnings          []error
	SummaryTable      string
	ExportPath        string
	Saved             bool
	Exported          bool
	Duration          time.Duration
	Summary           *models.Table
	Err               error
}

// CityPipeline builds the summary table of a single city.
type CityPipeline struct {
	open         storage.Opener
	processedDir string
	logger       *utils.Logger
}

// NewCityPipeline creates a pipeline that opens a store session per run and
// exports summaries into processedDir.
func NewCityPipeline(open storage.Opener, processedDir string, logger *utils.Logger) *CityPipeline {
	return &CityPipeline{open: open, processedDir: processedDir, logger: logger}
}

// ExportPath is the flat file a city's summary is written to.
func (p *CityPipeline) ExportPath(city string) string {
	return filepath.Join(p.processedDir, storage.SummaryTableName(city)+".csv")
}

// Run loads the raw table of city, decodes, cleans and deduplicates it, then
// saves and exports the summary. Only a failure to open the store or load the
// raw table is returned as an error; everything else is logged and recorded
// in the result.
func (p *CityPipeline) Run(ctx context.Context, city string) (*CityResult, error) {
	start := time.Now()
	name := storage.TableName(city)
	log := p.logger.With("city", name)
	res := &CityResult{City: name}
	defer func() { res.Duration = time.Since(start) }()

	log.Info("processing city")

	store, err := p.open(ctx)
	if err != nil {
		res.Err = sourceLoadFailure(name, name, fmt.Errorf("open store: %w", err))
		return res, res.Err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			log.Warn("failed to close store", "error", cerr)
		}
	}()

	table, err := store.LoadTable(ctx, name)
	if err != nil {
		res.Err = sourceLoadFailure(name, name, err)
		return res, res.Err
	}
	res.RowsLoaded = table.Len()
	log.Info("loaded table", "table", name, "rows", table.Len(), "columns", len(table.Columns()))

	table = p.decodeAll(ctx, store, table, res, log)
	log.Info("decoding finished", "rows", table.Len(), "columns", len(table.Columns()), "decoded", len(res.Decoded))

	p.derive(table, res, log)

	res.DuplicatesRemoved = table.DropDuplicates()
	res.RowsOut = table.Len()
	res.Summary = table
	log.Info("final shape", "rows", table.Len(), "columns", len(table.Columns()),
		"duplicates_removed", res.DuplicatesRemoved)

	p.persist(ctx, store, table, res, log)
	return res, nil
}

func (p *CityPipeline) decodeAll(ctx context.Context, store storage.TableStore, table *models.Table, res *CityResult, log *utils.Logger) *models.Table {
	for _, spec := range DecoderSpecs {
		if !table.HasColumn(spec.Column) {
			p.record(res, log, missingColumn(spec.Column,
				fmt.Sprintf("column %s not found in city dataset, skipping", spec.Column)))
			continue
		}

		decoder, err := store.LoadTable(ctx, spec.Table)
		if err != nil {
			p.record(res, log, decodeLookupFailure(spec.Column, spec.Table, err))
			continue
		}

		decoded, outcome := Decode(table, decoder, spec.KeyField, spec.ValueField, spec.Column)
		if outcome.Err != nil {
			outcome.Err.Table = spec.Table
			p.record(res, log, outcome.Err)
			continue
		}
		table = decoded
		res.Decoded = append(res.Decoded, spec.Column)
		log.Debug("column decoded", "column", spec.Column, "table", spec.Table,
			"matched", outcome.Matched, "unmatched", outcome.Unmatched)
	}
	return table
}

// derive adds PRICE_CLEANED, AREA_CLEANED and PRICE_PER_UNIT_AREA, dropping
// rows without a usable price or area. Tables without a price column or any
// area column are left without derived columns.
func (p *CityPipeline) derive(table *models.Table, res *CityResult, log *utils.Logger) {
	areaCol := SelectAreaColumn(table)
	if areaCol == "" {
		p.record(res, log, missingColumn("", "no valid area column found, skipping price per unit area"))
		return
	}
	price := table.Column(models.ColPrice)
	if price == nil {
		p.record(res, log, missingColumn(models.ColPrice, "no price column found, skipping price per unit area"))
		return
	}
	res.AreaColumn = areaCol
	area := table.Column(areaCol)

	prices := make([]models.Value, table.Len())
	areas := make([]models.Value, table.Len())
	badPrice, badArea := 0, 0
	for i := 0; i < table.Len(); i++ {
		if n, ok := PriceOf(price.Values[i]); ok {
			prices[i] = models.Float(n)
		} else {
			badPrice++
		}
		if n, ok := AreaOf(area.Values[i]); ok {
			areas[i] = models.Float(n)
		} else {
			badArea++
		}
	}
	if badPrice > 0 {
		p.record(res, log, parseFailure(models.ColPrice, badPrice))
	}
	if badArea > 0 {
		p.record(res, log, parseFailure(areaCol, badArea))
	}

	// SetColumn only fails on a length mismatch, which cannot happen here.
	_ = table.SetColumn(models.ColPriceCleaned, prices)
	_ = table.SetColumn(models.ColAreaCleaned, areas)

	priceCol := table.Column(models.ColPriceCleaned)
	areaClean := table.Column(models.ColAreaCleaned)
	res.RowsDropped = table.Filter(func(i int) bool {
		a, ok := areaClean.Values[i].Number()
		return ok && a != 0 && !priceCol.Values[i].IsNull()
	})

	ppua := make([]models.Value, table.Len())
	for i := range ppua {
		pr, _ := priceCol.Values[i].Number()
		ar, _ := areaClean.Values[i].Number()
		ppua[i] = models.Float(pr / ar)
	}
	_ = table.SetColumn(models.ColPricePerUnitArea, ppua)

	log.Info("computed price per unit area", "area_column", areaCol,
		"rows_dropped", res.RowsDropped, "rows", table.Len())
}

func (p *CityPipeline) persist(ctx context.Context, store storage.TableStore, table *models.Table, res *CityResult, log *utils.Logger) {
	res.SummaryTable = storage.SummaryTableName(res.City)
	res.ExportPath = p.ExportPath(res.City)

	if len(table.Columns()) == 0 {
		log.Error("summary has no columns, nothing to persist", "table", res.SummaryTable)
		return
	}

	if err := store.SaveTable(ctx, res.SummaryTable, table); err != nil {
		log.Error("failed to save summary", "table", res.SummaryTable, "error", err)
	} else {
		res.Saved = true
		log.Info("saved summary", "table", res.SummaryTable, "rows", table.Len())
	}

	if err := storage.WriteTableCSV(res.ExportPath, table); err != nil {
		log.Error("failed to export summary", "path", res.ExportPath, "error", err)
	} else {
		res.Exported = true
		log.Info("exported summary", "path", res.ExportPath)
	}
}

func (p *CityPipeline) record(res *CityResult, log *utils.Logger, err *PipelineError) {
	err.City = res.City
	res.Warnings = append(res.Warnings, err)

	args := []any{"kind", err.Kind}
	if err.Column != "" {
		args = append(args, "column", err.Column)
	}
	if err.Table != "" {
		args = append(args, "table", err.Table)
	}
	if err.Err != nil {
		args = append(args, "error", err.Err)
	}
	log.LogAt(err.Severity(), err.Message, args...)
}

// SelectAreaColumn returns the first column of AreaColumnPriority present in
// table, or "" when none is.
func SelectAreaColumn(table *models.Table) string {
	for _, c := range AreaColumnPriority {
		if table.HasColumn(c) {
			return c
		}
	}
	return ""
}
