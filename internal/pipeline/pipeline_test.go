package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/well-data-etl/internal/domain"
	"github.com/couchcryptid/well-data-etl/internal/fetcher"
	"github.com/couchcryptid/well-data-etl/internal/observability"
	"github.com/couchcryptid/well-data-etl/internal/resolver"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeFetcher struct {
	result fetcher.Result
	err    error
}

func (f *fakeFetcher) Fetch(_ context.Context) (fetcher.Result, error) {
	return f.result, f.err
}

type fakeResolver struct {
	result resolver.Result
	err    error
}

func (r *fakeResolver) Resolve(_ context.Context, _ *domain.WellSet) (resolver.Result, error) {
	return r.result, r.err
}

type fakeArtifact struct {
	records []domain.OutputRecord
	err     error
	calls   int
}

func (a *fakeArtifact) Write(records []domain.OutputRecord) error {
	a.calls++
	a.records = records
	return a.err
}

type fakePublisher struct {
	result domain.JoinResult
	err    error
	calls  int
}

func (p *fakePublisher) Publish(_ context.Context, result domain.JoinResult) error {
	p.calls++
	p.result = result
	return p.err
}

func fetchedWells(apis ...string) fetcher.Result {
	wells := domain.NewWellSet()
	for _, api := range apis {
		wells.Add(domain.WellRecord{API: api, Lat: 31.5, Lng: -102.5, Type: "Oil"})
	}
	return fetcher.Result{Wells: wells, RawFeatures: len(apis)}
}

func newPipeline(f Fetcher, r OperatorResolver, artifact ArtifactWriter, publisher RecordPublisher) *Pipeline {
	return New(f, r, domain.NewClassifier(domain.DefaultRules()), artifact, publisher,
		discardLogger(), observability.NewMetricsForTesting())
}

func TestRunEndToEnd(t *testing.T) {
	f := &fakeFetcher{result: fetchedWells("32900001", "32900002", "47500001")}
	r := &fakeResolver{result: resolver.Result{
		Operators: map[string]string{
			"32900001": "EOG RESOURCES, INC.",
			"47500001": "UNKNOWN LOCAL OPERATOR",
		},
		Groups: []resolver.GroupStats{
			{County: "329", Total: 2, Resolved: 1},
			{County: "475", Total: 1, Resolved: 1},
		},
	}}
	artifact := &fakeArtifact{}
	publisher := &fakePublisher{}

	p := newPipeline(f, r, artifact, publisher)
	result, err := p.Run(context.Background())
	require.NoError(t, err)

	// Every fetched well appears exactly once, in first-seen order.
	require.Len(t, result.Records, 3)
	assert.Equal(t, "32900001", result.Records[0].ID)
	assert.Equal(t, "EOG", result.Records[0].Operator)
	assert.Equal(t, "Other", result.Records[1].Operator, "unresolved wells classify to the catch-all")
	assert.Equal(t, "Other", result.Records[2].Operator, "unmatched raw names classify to the catch-all")

	assert.Equal(t, map[string]int{"EOG": 1, "Other": 2}, result.Counts)

	assert.Equal(t, 1, artifact.calls)
	assert.Equal(t, result.Records, artifact.records)
	assert.Equal(t, 1, publisher.calls)

	assert.Equal(t, "done", p.Stage())
	assert.NoError(t, p.CheckReadiness(context.Background()))
}

func TestRunEmptyFetchIsFatal(t *testing.T) {
	f := &fakeFetcher{result: fetcher.Result{Wells: domain.NewWellSet()}}
	p := newPipeline(f, &fakeResolver{}, &fakeArtifact{}, nil)

	_, err := p.Run(context.Background())
	assert.ErrorIs(t, err, domain.ErrNoWells)
	assert.True(t, IsFatal(err))
}

func TestRunFetchErrorPropagates(t *testing.T) {
	f := &fakeFetcher{err: errors.New("gis unreachable")}
	artifact := &fakeArtifact{}
	p := newPipeline(f, &fakeResolver{}, artifact, nil)

	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "spatial fetch")
	assert.Zero(t, artifact.calls)
}

func TestRunArtifactWriteErrorIsFatal(t *testing.T) {
	f := &fakeFetcher{result: fetchedWells("32900001")}
	artifact := &fakeArtifact{err: errors.New("disk full")}
	p := newPipeline(f, &fakeResolver{result: resolver.Result{Operators: map[string]string{}}}, artifact, nil)

	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write artifact")
	assert.True(t, IsFatal(err))
}

// TestRunPublishErrorIsNotFatal verifies the stream copy is best-effort once
// the artifact is on disk.
func TestRunPublishErrorIsNotFatal(t *testing.T) {
	f := &fakeFetcher{result: fetchedWells("32900001")}
	artifact := &fakeArtifact{}
	publisher := &fakePublisher{err: errors.New("broker down")}
	p := newPipeline(f, &fakeResolver{result: resolver.Result{Operators: map[string]string{}}}, artifact, publisher)

	_, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, artifact.calls)
	assert.Equal(t, 1, publisher.calls)
}

func TestRunWithoutPublisher(t *testing.T) {
	f := &fakeFetcher{result: fetchedWells("32900001")}
	p := newPipeline(f, &fakeResolver{result: resolver.Result{Operators: map[string]string{}}}, &fakeArtifact{}, nil)

	_, err := p.Run(context.Background())
	assert.NoError(t, err)
}

func TestCheckReadiness(t *testing.T) {
	p := newPipeline(&fakeFetcher{}, &fakeResolver{}, &fakeArtifact{}, nil)

	assert.Equal(t, "pending", p.Stage())
	assert.Error(t, p.CheckReadiness(context.Background()), "not ready before the fetch completes")

	f := &fakeFetcher{result: fetchedWells("32900001")}
	p = newPipeline(f, &fakeResolver{result: resolver.Result{Operators: map[string]string{}}}, &fakeArtifact{}, nil)
	_, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.NoError(t, p.CheckReadiness(context.Background()))
}

func TestIsFatal(t *testing.T) {
	assert.False(t, IsFatal(nil))
	assert.False(t, IsFatal(context.Canceled))
	assert.True(t, IsFatal(domain.ErrNoWells))
	assert.True(t, IsFatal(errors.New("anything else")))
}
