package main

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"realestate-summary/config"
	"realestate-summary/ingest"
	"realestate-summary/services"
	"realestate-summary/storage"
	"realestate-summary/utils"
)

func main() {
	cfg := config.Load()
	runID := uuid.NewString()

	var output io.Writer = os.Stdout
	if cfg.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0755); err == nil {
			if f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644); err == nil {
				defer f.Close()
				output = io.MultiWriter(os.Stdout, f)
			}
		}
	}
	logger := utils.NewLogger(utils.LogConfig{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Output: output,
		RunID:  runID,
	})

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", "error", err)
	}

	logger.Info("=== property summary batch starting ===",
		"driver", cfg.StoreDriver, "cities", cfg.Cities, "stages", cfg.Stages,
		"concurrency", cfg.MaxConcurrency)

	open, err := storage.NewOpener(cfg, logger)
	if err != nil {
		logger.Fatal("failed to configure store", "error", err)
	}

	ctx := context.Background()

	if cfg.HasStage(config.StageIngest) {
		ingester := ingest.New(cfg.RawDataDir, cfg.FacetsDir, open, logger.With("stage", config.StageIngest))
		if _, err := ingester.Run(ctx); err != nil {
			logger.Error("ingestion failed", "error", err)
		}
	}

	if cfg.HasStage(config.StageBuild) {
		stageLog := logger.With("stage", config.StageBuild)
		pipeline := services.NewCityPipeline(open, cfg.ProcessedDir, stageLog)
		runner := services.NewPipelineRunner(pipeline, cfg.MaxConcurrency, stageLog)
		results := runner.RunAll(ctx, cfg.Cities)

		reportSvc := services.NewReportService(stageLog)
		reportSvc.Print(os.Stdout, reportSvc.Generate(results))
	}

	if cfg.HasStage(config.StageExport) {
		exporter := storage.NewWorkbookExporter(cfg.ProcessedDir, cfg.ExportSourceSuffix,
			logger.With("stage", config.StageExport))
		report, err := exporter.Export(cfg.Cities, cfg.ExportPath)
		if err != nil {
			logger.Error("workbook export failed", "error", err)
		} else {
			logger.Info("workbook exported", "path", report.Path, "sheets", len(report.Sheets),
				"skipped", len(report.Skipped))
		}
	}

	logger.Info("=== property summary batch finished ===")
}
