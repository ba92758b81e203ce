// Package pipeline orchestrates the batch run: grid fetch, operator
// resolution, join and classification, artifact write.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/well-data-etl/internal/domain"
	"github.com/couchcryptid/well-data-etl/internal/fetcher"
	"github.com/couchcryptid/well-data-etl/internal/observability"
	"github.com/couchcryptid/well-data-etl/internal/resolver"
)

// Fetcher produces the deduplicated well set for the configured box.
type Fetcher interface {
	Fetch(ctx context.Context) (fetcher.Result, error)
}

// OperatorResolver maps identifiers to raw operator names.
type OperatorResolver interface {
	Resolve(ctx context.Context, wells *domain.WellSet) (resolver.Result, error)
}

// ArtifactWriter persists the final record collection.
type ArtifactWriter interface {
	Write(records []domain.OutputRecord) error
}

// RecordPublisher streams the final record collection to a message sink.
type RecordPublisher interface {
	Publish(ctx context.Context, result domain.JoinResult) error
}

// Pipeline runs the stages in order. One batch execution, no checkpoint
// state: a failure mid-run means a full restart.
type Pipeline struct {
	fetcher    Fetcher
	resolver   OperatorResolver
	classifier domain.Classifier
	artifact   ArtifactWriter
	publisher  RecordPublisher // nil when the Kafka sink is disabled
	logger     *slog.Logger
	metrics    *observability.Metrics

	stage atomic.Value // string, for readiness reporting
}

// New creates a Pipeline. publisher may be nil.
func New(f Fetcher, r OperatorResolver, classifier domain.Classifier, artifact ArtifactWriter, publisher RecordPublisher, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	p := &Pipeline{
		fetcher:    f,
		resolver:   r,
		classifier: classifier,
		artifact:   artifact,
		publisher:  publisher,
		logger:     logger,
		metrics:    metrics,
	}
	p.stage.Store("pending")
	return p
}

// CheckReadiness reports nil once the spatial fetch has produced data; until
// then the error names the stage the run is in.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	stage := p.stage.Load().(string)
	switch stage {
	case "pending", "fetch":
		return fmt.Errorf("pipeline still in stage %q", stage)
	default:
		return nil
	}
}

// Stage returns the stage the run is currently in: pending, fetch, resolve,
// join, sink, or done.
func (p *Pipeline) Stage() string {
	return p.stage.Load().(string)
}

// Run executes the batch. The only fatal data condition is an empty spatial
// fetch (ErrNoWells): per-cell and per-group failures degrade to partial
// results instead of aborting the run.
func (p *Pipeline) Run(ctx context.Context) (domain.JoinResult, error) {
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	fetched, err := p.runFetch(ctx)
	if err != nil {
		return domain.JoinResult{}, err
	}

	resolved, err := p.runResolve(ctx, fetched.Wells)
	if err != nil {
		return domain.JoinResult{}, err
	}

	result := p.runJoin(fetched.Wells, resolved.Operators)

	if err := p.runSink(ctx, result); err != nil {
		return result, err
	}

	p.stage.Store("done")
	return result, nil
}

func (p *Pipeline) runFetch(ctx context.Context) (fetcher.Result, error) {
	p.stage.Store("fetch")
	defer p.observeStage("fetch")()

	fetched, err := p.fetcher.Fetch(ctx)
	if err != nil {
		return fetcher.Result{}, fmt.Errorf("spatial fetch: %w", err)
	}
	if fetched.Wells.Len() == 0 {
		return fetcher.Result{}, domain.ErrNoWells
	}
	for _, incomplete := range fetched.Incomplete {
		p.logger.Warn("cell coverage incomplete",
			"xmin", incomplete.Cell.XMin, "ymin", incomplete.Cell.YMin,
			"offset", incomplete.Offset, "error", incomplete.Err)
	}
	return fetched, nil
}

func (p *Pipeline) runResolve(ctx context.Context, wells *domain.WellSet) (resolver.Result, error) {
	p.stage.Store("resolve")
	defer p.observeStage("resolve")()

	resolved, err := p.resolver.Resolve(ctx, wells)
	if err != nil {
		return resolver.Result{}, fmt.Errorf("operator resolution: %w", err)
	}
	p.logger.Info("operator resolution complete",
		"resolved", len(resolved.Operators), "wells", wells.Len(), "groups", len(resolved.Groups))
	return resolved, nil
}

func (p *Pipeline) runJoin(wells *domain.WellSet, operators map[string]string) domain.JoinResult {
	p.stage.Store("join")
	defer p.observeStage("join")()

	result := domain.JoinAndClassify(wells, operators, p.classifier)
	for operator, count := range result.Counts {
		p.metrics.WellsClassified.WithLabelValues(operator).Add(float64(count))
	}
	p.logDistribution(result.Counts)
	return result
}

func (p *Pipeline) runSink(ctx context.Context, result domain.JoinResult) error {
	p.stage.Store("sink")
	defer p.observeStage("sink")()

	if err := p.artifact.Write(result.Records); err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}
	if p.publisher != nil {
		// The artifact is already on disk; a publish failure loses only the
		// stream copy, so it is logged rather than failing the run.
		if err := p.publisher.Publish(ctx, result); err != nil {
			p.logger.Error("publish to sink topic failed", "error", err)
		}
	}
	return nil
}

// logDistribution logs operator counts largest-first.
func (p *Pipeline) logDistribution(counts map[string]int) {
	type entry struct {
		name  string
		count int
	}
	entries := make([]entry, 0, len(counts))
	for name, count := range counts {
		entries = append(entries, entry{name, count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].name < entries[j].name
	})
	for _, e := range entries {
		p.logger.Info("operator distribution", "operator", e.name, "wells", e.count)
	}
}

func (p *Pipeline) observeStage(stage string) func() {
	start := time.Now()
	return func() {
		p.metrics.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	}
}

// IsFatal reports whether a pipeline error should produce a non-zero exit.
// Context cancellation from a signal is an orderly stop, not a failure.
func IsFatal(err error) bool {
	return err != nil && !errors.Is(err, context.Canceled)
}
