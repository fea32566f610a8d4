package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"realestate-summary/models"
	"realestate-summary/storage"
	"realestate-summary/utils"
)

func sqliteOpener(t *testing.T) storage.Opener {
	t.Helper()
	path := filepath.Join(t.TempDir(), "real_estate.db")
	return func(ctx context.Context) (storage.TableStore, error) {
		return storage.NewSQLiteStore(ctx, path)
	}
}

func seed(t *testing.T, open storage.Opener, tables map[string]*models.Table) {
	t.Helper()
	ctx := context.Background()
	store, err := open(ctx)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()
	for name, tbl := range tables {
		if err := store.SaveTable(ctx, name, tbl); err != nil {
			t.Fatalf("seed %s: %v", name, err)
		}
	}
}

func load(t *testing.T, open storage.Opener, name string) *models.Table {
	t.Helper()
	ctx := context.Background()
	store, err := open(ctx)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()
	tbl, err := store.LoadTable(ctx, name)
	if err != nil {
		t.Fatalf("load %s: %v", name, err)
	}
	return tbl
}

func number(t *testing.T, tbl *models.Table, col string, row int) float64 {
	t.Helper()
	c := tbl.Column(col)
	if c == nil {
		t.Fatalf("column %s missing", col)
	}
	n, ok := c.Values[row].Number()
	if !ok {
		t.Fatalf("%s[%d] is not numeric: %v", col, row, c.Values[row])
	}
	return n
}

func TestPipelineEndToEnd(t *testing.T) {
	open := sqliteOpener(t)
	raw := mustTable(t, []string{"PRICE", "SUPERBUILTUP_SQFT", "AREA", "FACING"},
		[]models.Value{models.Text("₹1.5 Cr"), models.Text("1000-1100"), models.Text("5 sqft"), models.Int(2)},
	)
	seed(t, open, map[string]*models.Table{
		"mumbai":           raw,
		"facing_direction": facingDecoder(t),
	})

	processed := t.TempDir()
	p := NewCityPipeline(open, processed, utils.NopLogger())
	res, err := p.Run(context.Background(), "mumbai")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.AreaColumn != "SUPERBUILTUP_SQFT" {
		t.Errorf("AreaColumn: got %q, want SUPERBUILTUP_SQFT", res.AreaColumn)
	}
	if !res.Saved || !res.Exported {
		t.Errorf("Saved/Exported: got %v/%v, want true/true", res.Saved, res.Exported)
	}

	summary := load(t, open, "mumbai_summary")
	if summary.Len() != 1 {
		t.Fatalf("rows: got %d, want 1", summary.Len())
	}
	assertColumn(t, summary, "FACING", []string{"East"})
	if got := number(t, summary, "PRICE_CLEANED", 0); got != 15000000 {
		t.Errorf("PRICE_CLEANED: got %v, want 15000000", got)
	}
	if got := number(t, summary, "AREA_CLEANED", 0); got != 1050 {
		t.Errorf("AREA_CLEANED: got %v, want 1050", got)
	}
	if got := number(t, summary, "PRICE_PER_UNIT_AREA", 0); !almostEqual(got, 15000000.0/1050.0) {
		t.Errorf("PRICE_PER_UNIT_AREA: got %v, want ~14285.71", got)
	}

	if _, err := os.Stat(filepath.Join(processed, "mumbai_summary.csv")); err != nil {
		t.Errorf("export file missing: %v", err)
	}
}

func TestPipelineDropsInvalidRowsAndDuplicates(t *testing.T) {
	open := sqliteOpener(t)
	raw := mustTable(t, []string{"PRICE", "AREA"},
		[]models.Value{models.Text("50 L"), models.Text("1,000")},
		[]models.Value{models.Text("50 L"), models.Text("1,000")},
		[]models.Value{models.Text("Price on Request"), models.Text("900")},
		[]models.Value{models.Text("75 L"), models.Text("0")},
		[]models.Value{models.Text("80 L"), models.Text("invalid")},
		[]models.Value{models.Null(), models.Text("1200")},
		[]models.Value{models.Text("1.2 Cr"), models.Text("1000-1400 sqft")},
	)
	seed(t, open, map[string]*models.Table{"kolkata": raw})

	p := NewCityPipeline(open, t.TempDir(), utils.NopLogger())
	res, err := p.Run(context.Background(), "kolkata")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.RowsDropped != 4 {
		t.Errorf("RowsDropped: got %d, want 4", res.RowsDropped)
	}
	if res.DuplicatesRemoved != 1 {
		t.Errorf("DuplicatesRemoved: got %d, want 1", res.DuplicatesRemoved)
	}
	if res.RowsOut != 2 {
		t.Fatalf("RowsOut: got %d, want 2", res.RowsOut)
	}

	summary := res.Summary
	for i := 0; i < summary.Len(); i++ {
		price := number(t, summary, "PRICE_CLEANED", i)
		area := number(t, summary, "AREA_CLEANED", i)
		ppua := number(t, summary, "PRICE_PER_UNIT_AREA", i)
		if area == 0 {
			t.Errorf("row %d: AREA_CLEANED is zero", i)
		}
		if !almostEqual(ppua, price/area) {
			t.Errorf("row %d: PRICE_PER_UNIT_AREA %v != %v / %v", i, ppua, price, area)
		}
	}

	parseWarnings := 0
	for _, w := range res.Warnings {
		if IsKind(w, KindParseFailure) {
			parseWarnings++
		}
	}
	if parseWarnings != 2 {
		t.Errorf("parse failure warnings: got %d, want 2 (price and area)", parseWarnings)
	}
}

func TestPipelineAreaPriority(t *testing.T) {
	tests := []struct {
		cols []string
		want string
	}{
		{[]string{"MIN_AREA_SQFT", "MAX_AREA_SQFT", "AREA", "SUPERBUILTUP_SQFT"}, "SUPERBUILTUP_SQFT"},
		{[]string{"MIN_AREA_SQFT", "MAX_AREA_SQFT", "AREA"}, "AREA"},
		{[]string{"MIN_AREA_SQFT", "MAX_AREA_SQFT"}, "MAX_AREA_SQFT"},
		{[]string{"MIN_AREA_SQFT"}, "MIN_AREA_SQFT"},
		{[]string{"PRICE"}, ""},
	}
	for _, tt := range tests {
		if got := SelectAreaColumn(models.NewTable(tt.cols...)); got != tt.want {
			t.Errorf("SelectAreaColumn(%v) = %q; want %q", tt.cols, got, tt.want)
		}
	}
}

func TestPipelineWithoutAreaColumn(t *testing.T) {
	open := sqliteOpener(t)
	raw := mustTable(t, []string{"PRICE", "FACING"},
		[]models.Value{models.Text("1 Cr"), models.Int(1)},
		[]models.Value{models.Text("1 Cr"), models.Int(1)},
		[]models.Value{models.Text("Price on Request"), models.Int(3)},
	)
	seed(t, open, map[string]*models.Table{
		"hyderabad":        raw,
		"facing_direction": facingDecoder(t),
	})

	p := NewCityPipeline(open, t.TempDir(), utils.NopLogger())
	res, err := p.Run(context.Background(), "hyderabad")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	summary := load(t, open, "hyderabad_summary")
	for _, c := range []string{"PRICE_CLEANED", "AREA_CLEANED", "PRICE_PER_UNIT_AREA"} {
		if summary.HasColumn(c) {
			t.Errorf("summary should not have %s", c)
		}
	}
	if summary.Len() != 2 {
		t.Errorf("rows: got %d, want 2", summary.Len())
	}
	if res.AreaColumn != "" {
		t.Errorf("AreaColumn: got %q, want empty", res.AreaColumn)
	}
	assertColumn(t, summary, "FACING", []string{"North", "South"})
}

func TestPipelineRerunOverwrites(t *testing.T) {
	open := sqliteOpener(t)
	raw := mustTable(t, []string{"PRICE", "AREA"},
		[]models.Value{models.Text("50 L"), models.Text("1000")},
		[]models.Value{models.Text("60 L"), models.Text("1200")},
	)
	seed(t, open, map[string]*models.Table{"gurgaon_10k": raw})

	p := NewCityPipeline(open, t.TempDir(), utils.NopLogger())
	for i := 0; i < 2; i++ {
		if _, err := p.Run(context.Background(), "gurgaon_10k"); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}

	summary := load(t, open, "gurgaon_10k_summary")
	if summary.Len() != 2 {
		t.Fatalf("rows after rerun: got %d, want 2", summary.Len())
	}
	if summary.DropDuplicates() != 0 {
		t.Error("rerun accumulated duplicate rows")
	}
}

func TestPipelineSourceLoadFailure(t *testing.T) {
	store := newMemStore()
	p := NewCityPipeline(store.opener(), t.TempDir(), utils.NopLogger())

	res, err := p.Run(context.Background(), "pune")
	if err == nil {
		t.Fatal("expected error for missing raw table")
	}
	if !IsKind(err, KindSourceLoadFailure) {
		t.Errorf("expected SOURCE_LOAD_FAILURE, got %v", err)
	}
	if !errors.Is(err, storage.ErrTableNotFound) {
		t.Errorf("expected wrapped ErrTableNotFound, got %v", err)
	}
	if res.Err == nil {
		t.Error("result should carry the failure")
	}
	if store.opens != 1 || store.closes != 1 {
		t.Errorf("opens/closes: got %d/%d, want 1/1", store.opens, store.closes)
	}
}

func TestPipelineDecoderFailuresAreRecovered(t *testing.T) {
	store := newMemStore()
	store.tables["mumbai"] = mustTable(t, []string{"FACING", "AGE", "OWNTYPE", "PRICE", "AREA"},
		[]models.Value{models.Int(2), models.Int(1), models.Int(1), models.Text("1 Cr"), models.Text("1000")},
	)
	store.tables["facing_direction"] = facingDecoder(t)
	store.tables["age"] = mustTable(t, []string{"id", "name"}, []models.Value{models.Int(1), models.Text("New")})
	store.loadErrs["ownership_type"] = errors.New("disk I/O error")

	p := NewCityPipeline(store.opener(), t.TempDir(), utils.NopLogger())
	res, err := p.Run(context.Background(), "mumbai")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Decoded) != 1 || res.Decoded[0] != "FACING" {
		t.Errorf("Decoded: got %v, want [FACING]", res.Decoded)
	}

	severities := map[string]string{}
	for _, w := range res.Warnings {
		var pe *PipelineError
		if errors.As(w, &pe) && pe.Kind == KindDecodeLookupFailure {
			severities[pe.Column] = pe.Severity()
		}
	}
	if severities["AGE"] != "warn" {
		t.Errorf("malformed decoder severity: got %q, want warn", severities["AGE"])
	}
	if severities["OWNTYPE"] != "warn" {
		t.Errorf("failed decoder load severity: got %q, want warn", severities["OWNTYPE"])
	}

	summary := store.tables["mumbai_summary"]
	assertColumn(t, summary, "FACING", []string{"East"})
	assertColumn(t, summary, "AGE", []string{"1"})
	if store.closes != store.opens {
		t.Errorf("store sessions leaked: opens %d closes %d", store.opens, store.closes)
	}
}

func TestPipelineMissingDecoderTableIsInfo(t *testing.T) {
	store := newMemStore()
	store.tables["kolkata"] = mustTable(t, []string{"FACING", "PRICE", "AREA"},
		[]models.Value{models.Int(2), models.Text("1 Cr"), models.Text("1000")},
	)

	p := NewCityPipeline(store.opener(), t.TempDir(), utils.NopLogger())
	res, err := p.Run(context.Background(), "kolkata")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	found := false
	for _, w := range res.Warnings {
		var pe *PipelineError
		if errors.As(w, &pe) && pe.Kind == KindDecodeLookupFailure && pe.Column == "FACING" {
			found = true
			if pe.Severity() != "info" {
				t.Errorf("severity: got %q, want info", pe.Severity())
			}
		}
	}
	if !found {
		t.Error("expected a decode lookup failure for FACING")
	}
}

func TestPipelineSaveFailureIsRecorded(t *testing.T) {
	store := newMemStore()
	store.tables["mumbai"] = mustTable(t, []string{"PRICE", "AREA"},
		[]models.Value{models.Text("1 Cr"), models.Text("1000")},
	)
	store.saveErr = errors.New("read-only database")

	p := NewCityPipeline(store.opener(), t.TempDir(), utils.NopLogger())
	res, err := p.Run(context.Background(), "mumbai")
	if err != nil {
		t.Fatalf("save failure should not abort the run: %v", err)
	}
	if res.Saved {
		t.Error("Saved should be false")
	}
	if !res.Exported {
		t.Error("flat-file export should still happen")
	}
}
