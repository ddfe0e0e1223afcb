// Package aggregator fans a single fetch out to every configured source,
// tolerates independent failures, and merges the survivors into one
// deterministically ordered list.
package aggregator

import (
	"context"
	"sort"
	"time"

	"github.com/brewkit/orderboard/internal/logging"
	"github.com/brewkit/orderboard/internal/server/models"
	"github.com/brewkit/orderboard/internal/server/upstream"
	"golang.org/x/sync/errgroup"
)

// SourceStatus reports how one source fared during a fetch.
type SourceStatus struct {
	OK    bool   `json:"ok"`
	Count int    `json:"count"`
	Err   string `json:"error,omitempty"`
}

// Result is the merged outcome of one aggregation pass.
type Result struct {
	Orders  []models.Order
	Sources map[string]SourceStatus
}

// Aggregator invokes all sources concurrently and joins their results.
type Aggregator struct {
	sources []upstream.Source
	timeout time.Duration
	logger  logging.Logger
}

func New(sources []upstream.Source, timeout time.Duration, logger logging.Logger) *Aggregator {
	return &Aggregator{
		sources: sources,
		timeout: timeout,
		logger:  logger,
	}
}

// FetchAll runs every source's FetchToday concurrently, each bounded by the
// per-call timeout, and waits for all of them. A failed or timed-out source
// contributes a failure entry in Sources; it never suppresses the others'
// orders. The merged list is sorted by CreatedAt descending, ties broken by
// source then id, so the ordering does not depend on which source finished
// first.
func (a *Aggregator) FetchAll(ctx context.Context) Result {
	type outcome struct {
		orders []models.Order
		err    error
	}
	outcomes := make([]outcome, len(a.sources))

	var g errgroup.Group
	for i, src := range a.sources {
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(ctx, a.timeout)
			defer cancel()

			orders, err := src.FetchToday(callCtx)
			outcomes[i] = outcome{orders: orders, err: err}
			return nil
		})
	}
	_ = g.Wait()

	result := Result{
		Sources: make(map[string]SourceStatus, len(a.sources)),
	}

	for i, src := range a.sources {
		out := outcomes[i]
		if out.err != nil {
			a.logger.Warn(ctx, "source fetch failed", "source", src.Name(), "error", out.err.Error())
			result.Sources[src.Name()] = SourceStatus{OK: false, Err: out.err.Error()}
			continue
		}
		result.Sources[src.Name()] = SourceStatus{OK: true, Count: len(out.orders)}
		result.Orders = append(result.Orders, out.orders...)
	}

	sortOrders(result.Orders)
	return result
}

func sortOrders(orders []models.Order) {
	sort.Slice(orders, func(i, j int) bool {
		a, b := orders[i], orders[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		return a.ID < b.ID
	})
}
