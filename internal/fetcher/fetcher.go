// Package fetcher walks a bounding box cell by cell and accumulates a
// deduplicated well set from the GIS map service.
package fetcher

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/well-data-etl/internal/adapter/gis"
	"github.com/couchcryptid/well-data-etl/internal/domain"
	"github.com/couchcryptid/well-data-etl/internal/observability"
)

// CellQuerier is the slice of the GIS client the fetcher needs.
type CellQuerier interface {
	QueryCell(ctx context.Context, env domain.Envelope, offset, count int) (gis.Page, error)
}

// CellError records a cell whose pagination was cut short. Partial coverage
// is non-fatal, but callers are always told which cells were incomplete.
type CellError struct {
	Cell   domain.Envelope
	Offset int
	Err    error
}

// Result is the outcome of one grid fetch. RawFeatures counts features seen
// before dedup, for sanity-checking against cell overlap expectations.
type Result struct {
	Wells       *domain.WellSet
	RawFeatures int
	Incomplete  []CellError
}

// GridFetcher pages through every grid cell of a bounding box.
type GridFetcher struct {
	client    CellQuerier
	box       domain.Envelope
	lonStep   float64
	latStep   float64
	batchSize int
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// New creates a GridFetcher over the given box and cell step sizes.
func New(client CellQuerier, box domain.Envelope, lonStep, latStep float64, batchSize int, logger *slog.Logger, metrics *observability.Metrics) *GridFetcher {
	return &GridFetcher{
		client:    client,
		box:       box,
		lonStep:   lonStep,
		latStep:   latStep,
		batchSize: batchSize,
		logger:    logger,
		metrics:   metrics,
	}
}

// Fetch iterates cells in row-major order, paging each with offset
// increments of the batch size. A transport or decode error aborts only the
// failing cell's pagination; remaining cells still run. Single attempt per
// page, no retry. Returns ctx.Err when cancelled mid-grid.
func (f *GridFetcher) Fetch(ctx context.Context) (Result, error) {
	result := Result{Wells: domain.NewWellSet()}

	for _, cell := range f.box.Cells(f.lonStep, f.latStep) {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		f.fetchCell(ctx, cell, &result)
	}

	f.metrics.WellsUnique.Set(float64(result.Wells.Len()))
	f.logger.Info("grid fetch complete",
		"unique_wells", result.Wells.Len(),
		"raw_features", result.RawFeatures,
		"incomplete_cells", len(result.Incomplete),
	)
	return result, nil
}

// fetchCell pages through one cell until exhaustion or error.
func (f *GridFetcher) fetchCell(ctx context.Context, cell domain.Envelope, result *Result) {
	f.metrics.CellsFetched.Inc()

	offset := 0
	for {
		page, err := f.client.QueryCell(ctx, cell, offset, f.batchSize)
		f.metrics.GISRequests.WithLabelValues(outcome(err)).Inc()
		if err != nil {
			f.logger.Warn("grid cell fetch failed, skipping remainder of cell",
				"xmin", cell.XMin, "ymin", cell.YMin, "offset", offset, "error", err)
			f.metrics.CellsIncomplete.Inc()
			result.Incomplete = append(result.Incomplete, CellError{Cell: cell, Offset: offset, Err: err})
			return
		}

		if len(page.Features) == 0 {
			return
		}

		result.RawFeatures += len(page.Features)
		f.metrics.RawFeatures.Add(float64(len(page.Features)))
		for _, feat := range page.Features {
			rec, ok := feat.Well()
			if !ok {
				continue
			}
			result.Wells.Add(rec)
		}

		f.logger.Debug("grid cell page",
			"xmin", cell.XMin, "ymin", cell.YMin,
			"offset", offset, "features", len(page.Features),
			"unique_wells", result.Wells.Len(),
		)

		if !page.HasMore(f.batchSize) {
			return
		}
		offset += f.batchSize
	}
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
