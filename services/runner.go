package services

import (
	"context"
	"fmt"
	"time"

	"realestate-summary/utils"
)

// CityRunner is the per-city unit of work driven by PipelineRunner.
type CityRunner interface {
	Run(ctx context.Context, city string) (*CityResult, error)
}

// PipelineRunner drives a city runner over a fixed list of cities.
type PipelineRunner struct {
	pipeline    CityRunner
	concurrency int
	logger      *utils.Logger
}

// NewPipelineRunner creates a runner; concurrency 1 processes cities one after
// another in list order.
func NewPipelineRunner(pipeline CityRunner, concurrency int, logger *utils.Logger) *PipelineRunner {
	if concurrency < 1 {
		concurrency = 1
	}
	return &PipelineRunner{pipeline: pipeline, concurrency: concurrency, logger: logger}
}

// RunAll processes every city and returns one result per city, in the order
// given. A failing city is logged and recorded; the remaining cities still run.
func (r *PipelineRunner) RunAll(ctx context.Context, cities []string) []*CityResult {
	start := time.Now()
	results := make([]*CityResult, len(cities))

	r.logger.Info("starting batch", "cities", len(cities), "concurrency", r.concurrency)

	if r.concurrency == 1 {
		for i, city := range cities {
			results[i] = r.runOne(ctx, city)
		}
	} else {
		pool := utils.NewWorkerPool(r.concurrency)
		for i, city := range cities {
			i, city := i, city
			pool.Submit(func() {
				results[i] = r.runOne(ctx, city)
			})
		}
		pool.Wait()
	}

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
		}
	}
	r.logger.Info("batch finished", "cities", len(cities), "failed", failed,
		"duration", time.Since(start).Round(time.Millisecond))
	return results
}

// runOne isolates a single city: errors and panics become a failed result.
func (r *PipelineRunner) runOne(ctx context.Context, city string) (res *CityResult) {
	defer func() {
		if p := recover(); p != nil {
			err := fmt.Errorf("panic: %v", p)
			r.logger.Error("city run panicked", "city", city, "error", err)
			res = &CityResult{City: city, Err: err}
		}
	}()

	res, err := r.pipeline.Run(ctx, city)
	if res == nil {
		res = &CityResult{City: city}
	}
	if err != nil {
		res.Err = err
		r.logger.Error("city run failed", "city", city, "error", err)
	}
	return res
}
