package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"realestate-summary/models"
	"realestate-summary/utils"
)

const maxSheetNameLen = 31

var sheetNameReplacer = strings.NewReplacer(
	":", "_", `\`, "_", "/", "_", "?", "_", "*", "_", "[", "_", "]", "_",
)

// WorkbookExporter collects per-city CSV files into one multi-sheet workbook.
type WorkbookExporter struct {
	sourceDir    string
	sourceSuffix string
	logger       *utils.Logger
}

// ExportReport summarises one workbook export.
type ExportReport struct {
	Path    string
	Sheets  []string
	Skipped []string
}

// NewWorkbookExporter reads <sourceDir>/<city><sourceSuffix>.csv for each city.
func NewWorkbookExporter(sourceDir, sourceSuffix string, logger *utils.Logger) *WorkbookExporter {
	return &WorkbookExporter{sourceDir: sourceDir, sourceSuffix: sourceSuffix, logger: logger}
}

// SourcePath is the CSV file read for city.
func (e *WorkbookExporter) SourcePath(city string) string {
	return filepath.Join(e.sourceDir, TableName(city)+e.sourceSuffix+".csv")
}

// Export writes one sheet per city to outputPath. Cities whose file is missing
// or unreadable are logged and skipped. No file is written when no sheet
// could be produced.
func (e *WorkbookExporter) Export(cities []string, outputPath string) (*ExportReport, error) {
	f := excelize.NewFile()
	defer f.Close()

	report := &ExportReport{Path: outputPath}
	defaultSheet := f.GetSheetName(0)

	for _, city := range cities {
		src := e.SourcePath(city)
		table, _, err := ReadTableCSV(src)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				e.logger.Warn("export source missing, skipping city", "city", city, "path", src)
			} else {
				e.logger.Error("export source unreadable, skipping city", "city", city, "path", src, "error", err)
			}
			report.Skipped = append(report.Skipped, city)
			continue
		}

		sheet := SheetName(city)
		if err := writeSheet(f, sheet, table); err != nil {
			e.logger.Error("failed to write sheet", "city", city, "sheet", sheet, "error", err)
			report.Skipped = append(report.Skipped, city)
			continue
		}
		report.Sheets = append(report.Sheets, sheet)
		e.logger.Info("sheet written", "city", city, "sheet", sheet, "rows", table.Len())
	}

	if len(report.Sheets) == 0 {
		return report, fmt.Errorf("xlsx: no sheets to write to %q", outputPath)
	}

	if err := f.DeleteSheet(defaultSheet); err != nil {
		return report, fmt.Errorf("xlsx: remove default sheet: %w", err)
	}
	f.SetActiveSheet(0)

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return report, fmt.Errorf("xlsx: create output dir: %w", err)
	}
	if err := f.SaveAs(outputPath); err != nil {
		return report, fmt.Errorf("xlsx: save %q: %w", outputPath, err)
	}
	return report, nil
}

func writeSheet(f *excelize.File, sheet string, table *models.Table) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	header := make([]interface{}, 0, len(table.Columns()))
	for _, c := range table.Columns() {
		header = append(header, c)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	for i := 0; i < table.Len(); i++ {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := make([]interface{}, 0, len(header))
		for _, v := range table.Row(i) {
			row = append(row, v.Any())
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

// SheetName capitalizes a city identifier ("mumbai" → "Mumbai",
// "gurgaon_10k" → "Gurgaon_10k") and makes it a legal sheet name.
func SheetName(city string) string {
	city = strings.TrimSpace(city)
	if city == "" {
		return "Sheet"
	}
	_, size := utf8.DecodeRuneInString(city)
	name := cases.Upper(language.Und).String(city[:size]) + cases.Lower(language.Und).String(city[size:])
	name = sheetNameReplacer.Replace(name)

	if utf8.RuneCountInString(name) > maxSheetNameLen {
		name = string([]rune(name)[:maxSheetNameLen])
	}
	return name
}
