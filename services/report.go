package services

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"realestate-summary/models"
	"realestate-summary/utils"
)

type ReportService struct {
	logger *utils.Logger
}

func NewReportService(logger *utils.Logger) *ReportService {
	return &ReportService{logger: logger}
}

func (s *ReportService) Generate(results []*CityResult) *models.BatchReport {
	report := &models.BatchReport{TotalCities: len(results)}

	for _, res := range results {
		stats := &models.CityStats{
			City:       res.City,
			RowsIn:     res.RowsLoaded,
			RowsOut:    res.RowsOut,
			Warnings:   len(res.Warnings),
			AreaColumn: res.AreaColumn,
		}
		report.Cities = append(report.Cities, stats)

		if res.Err != nil {
			stats.Failed = true
			stats.FailureReason = res.Err.Error()
			report.FailedCities++
			continue
		}
		report.TotalRowsIn += res.RowsLoaded
		report.TotalRowsOut += res.RowsOut

		if res.Summary == nil {
			continue
		}
		col := res.Summary.Column(models.ColPricePerUnitArea)
		if col == nil {
			continue
		}
		var vals []float64
		for _, v := range col.Values {
			if n, ok := v.Number(); ok {
				vals = append(vals, n)
			}
		}
		if len(vals) == 0 {
			continue
		}

		sort.Float64s(vals)
		var total float64
		for _, v := range vals {
			total += v
		}
		stats.HasMetric = true
		stats.MinPPUA = round2(vals[0])
		stats.MaxPPUA = round2(vals[len(vals)-1])
		stats.AveragePPUA = round2(total / float64(len(vals)))
		stats.MedianPPUA = round2(median(vals))
	}

	s.logger.Info("batch report generated",
		"cities", report.TotalCities, "failed", report.FailedCities,
		"rows_in", report.TotalRowsIn, "rows_out", report.TotalRowsOut)
	return report
}

func (s *ReportService) Print(w io.Writer, r *models.BatchReport) {
	sep := strings.Repeat("═", 72)
	thin := strings.Repeat("─", 72)

	fmt.Fprintf(w, "\n%s\n", sep)
	fmt.Fprintf(w, "  PROPERTY SUMMARY BUILD\n")
	fmt.Fprintf(w, "%s\n\n", sep)

	fmt.Fprintf(w, "  Cities processed : %d (%d failed)\n", r.TotalCities, r.FailedCities)
	fmt.Fprintf(w, "  Rows in / out    : %d / %d\n\n", r.TotalRowsIn, r.TotalRowsOut)

	fmt.Fprintf(w, "  %-16s %8s %8s %10s %10s %10s %10s\n",
		"City", "Rows in", "Rows out", "Avg/sqft", "Median", "Min", "Max")
	fmt.Fprintf(w, "  %s\n", thin)

	for _, c := range r.Cities {
		name := truncate(c.City, 16)
		switch {
		case c.Failed:
			fmt.Fprintf(w, "  %-16s FAILED: %s\n", name, truncate(c.FailureReason, 50))
		case !c.HasMetric:
			fmt.Fprintf(w, "  %-16s %8d %8d %10s\n", name, c.RowsIn, c.RowsOut, "n/a")
		default:
			fmt.Fprintf(w, "  %-16s %8d %8d %10.2f %10.2f %10.2f %10.2f\n",
				name, c.RowsIn, c.RowsOut, c.AveragePPUA, c.MedianPPUA, c.MinPPUA, c.MaxPPUA)
		}
	}

	fmt.Fprintf(w, "\n%s\n\n", sep)
}

func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func round2(f float64) float64 {
	return float64(int64(f*100+0.5)) / 100
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
