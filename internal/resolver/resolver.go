// Package resolver batches operator-of-record lookups against the EWA
// session client, one query group per county.
package resolver

import (
	"context"
	"log/slog"
	"sort"

	"golang.org/x/time/rate"

	"github.com/couchcryptid/well-data-etl/internal/adapter/ewa"
	"github.com/couchcryptid/well-data-etl/internal/domain"
	"github.com/couchcryptid/well-data-etl/internal/observability"
)

// OperatorSearcher is the slice of the EWA client the resolver needs.
type OperatorSearcher interface {
	SearchByAPI(ctx context.Context, prefix, suffix string) (ewa.Operator, bool, error)
	SearchByCounty(ctx context.Context, county string, page, pageSize int) (ewa.PageResult, error)
}

// GroupStats is the per-county resolution accounting. When a county
// overflowed the EWA cap, Resolved covers only the sampled identifiers:
// "Resolved of Total" is a deliberate completeness/cost tradeoff surfaced to
// the caller, not hidden.
type GroupStats struct {
	County     string
	Total      int
	Resolved   int
	Overflowed bool
	// ServerCount is the match count the server reported alongside the
	// overflow signal, zero otherwise.
	ServerCount int
}

// Result is the merged identifier→operator-name mapping plus per-group
// accounting in county order.
type Result struct {
	Operators map[string]string
	Groups    []GroupStats
}

// Resolver resolves operator names county by county, falling back to a
// bounded sample of by-identifier lookups when a county overflows.
type Resolver struct {
	client    OperatorSearcher
	pageSize  int
	sampleCap int
	limiter   *rate.Limiter
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// New creates a Resolver. The limiter is a token bucket shared across all
// EWA traffic rather than a fixed per-call sleep, so any future parallelism
// cannot amplify load on the remote service.
func New(client OperatorSearcher, pageSize, sampleCap int, limiter *rate.Limiter, logger *slog.Logger, metrics *observability.Metrics) *Resolver {
	return &Resolver{
		client:    client,
		pageSize:  pageSize,
		sampleCap: sampleCap,
		limiter:   limiter,
		logger:    logger,
		metrics:   metrics,
	}
}

// Resolve groups the well set by county code and resolves each group
// sequentially. A transport error on a group's query logs the group as zero
// results and moves on; groups are independently retryable by rerunning.
// Returns ctx.Err when cancelled between requests.
func (r *Resolver) Resolve(ctx context.Context, wells *domain.WellSet) (Result, error) {
	groups := groupByCounty(wells)

	counties := make([]string, 0, len(groups))
	for county := range groups {
		counties = append(counties, county)
	}
	sort.Strings(counties)

	result := Result{Operators: make(map[string]string)}
	for _, county := range counties {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		stats, err := r.resolveGroup(ctx, county, groups[county], result.Operators)
		if err != nil {
			return result, err
		}
		result.Groups = append(result.Groups, stats)
		r.logger.Info("county resolved",
			"county", county, "resolved", stats.Resolved, "total", stats.Total, "overflow", stats.Overflowed)
	}

	r.metrics.OperatorsResolved.Set(float64(len(result.Operators)))
	return result, nil
}

// resolveGroup handles one county. The only error it returns is a context
// error from the limiter; remote failures degrade to zero results.
func (r *Resolver) resolveGroup(ctx context.Context, county string, apis []string, ops map[string]string) (GroupStats, error) {
	stats := GroupStats{County: county, Total: len(apis)}

	if err := r.limiter.Wait(ctx); err != nil {
		return stats, err
	}
	page, err := r.client.SearchByCounty(ctx, county, 1, r.pageSize)
	r.metrics.EWARequests.WithLabelValues("county", pageOutcome(page, err)).Inc()
	if err != nil {
		r.logger.Warn("county query failed, treating as zero results", "county", county, "error", err)
		return stats, nil
	}

	if page.Overflow {
		stats.Overflowed = true
		stats.ServerCount = page.TotalCount
		r.metrics.GroupsOverflowed.Inc()
		r.logger.Info("county overflowed grouped query, sampling by identifier",
			"county", county, "server_count", page.TotalCount, "sample_cap", r.sampleCap)
		if err := r.resolveSample(ctx, apis, ops); err != nil {
			return stats, err
		}
	} else {
		if err := r.paginate(ctx, county, page, ops); err != nil {
			return stats, err
		}
	}

	for _, api := range apis {
		if _, ok := ops[api]; ok {
			stats.Resolved++
		}
	}
	return stats, nil
}

// resolveSample falls back to sequential by-identifier lookups for the first
// sampleCap identifiers of an overflowing group, in original order.
// Identifiers beyond the cap are left unresolved for this group.
func (r *Resolver) resolveSample(ctx context.Context, apis []string, ops map[string]string) error {
	sample := apis
	if len(sample) > r.sampleCap {
		sample = sample[:r.sampleCap]
	}

	for _, api := range sample {
		if err := r.limiter.Wait(ctx); err != nil {
			return err
		}
		prefix, suffix := domain.SplitAPI(api)
		op, ok, err := r.client.SearchByAPI(ctx, prefix, suffix)
		r.metrics.EWARequests.WithLabelValues("api", apiOutcome(ok, err)).Inc()
		if err != nil {
			r.logger.Warn("identifier lookup failed", "api", api, "error", err)
			continue
		}
		if ok {
			r.merge(ops, api, op.Name)
		}
	}
	return nil
}

// paginate follows a successful grouped query until a short or empty page.
func (r *Resolver) paginate(ctx context.Context, county string, first ewa.PageResult, ops map[string]string) error {
	for _, pair := range first.Pairs {
		r.merge(ops, pair.API, pair.Name)
	}

	if len(first.Pairs) < r.pageSize {
		return nil
	}
	for pageNum := 2; ; pageNum++ {
		if err := r.limiter.Wait(ctx); err != nil {
			return err
		}
		page, err := r.client.SearchByCounty(ctx, county, pageNum, r.pageSize)
		r.metrics.EWARequests.WithLabelValues("county", pageOutcome(page, err)).Inc()
		if err != nil {
			r.logger.Warn("county page failed, stopping pagination", "county", county, "page", pageNum, "error", err)
			return nil
		}
		if page.Overflow || page.Empty() {
			return nil
		}
		for _, pair := range page.Pairs {
			r.merge(ops, pair.API, pair.Name)
		}
		if len(page.Pairs) < r.pageSize {
			return nil
		}
	}
}

// merge inserts if absent. Identifiers are globally unique so collisions
// should not occur; if one does, the first value is kept and the collision
// logged rather than silently overwritten.
func (r *Resolver) merge(ops map[string]string, api, name string) {
	if existing, ok := ops[api]; ok {
		if existing != name {
			r.logger.Warn("identifier resolved twice with different operators, keeping first",
				"api", api, "kept", existing, "dropped", name)
		}
		return
	}
	ops[api] = name
}

// groupByCounty buckets API numbers by county code, preserving first-seen
// order within each bucket.
func groupByCounty(wells *domain.WellSet) map[string][]string {
	groups := make(map[string][]string)
	for _, api := range wells.APIs() {
		county := domain.CountyCode(api)
		groups[county] = append(groups[county], api)
	}
	return groups
}

func pageOutcome(page ewa.PageResult, err error) string {
	switch {
	case err != nil:
		return "error"
	case page.Overflow:
		return "overflow"
	case page.Empty():
		return "empty"
	default:
		return "success"
	}
}

func apiOutcome(ok bool, err error) string {
	switch {
	case err != nil:
		return "error"
	case !ok:
		return "empty"
	default:
		return "success"
	}
}
