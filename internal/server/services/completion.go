// Package services contains the application services of the order display:
// completion tracking on top of a pluggable repository, with optional
// best-effort notification of the owning source.
package services

import (
	"context"
	"fmt"

	"github.com/brewkit/orderboard/internal/clock"
	"github.com/brewkit/orderboard/internal/common"
	"github.com/brewkit/orderboard/internal/logging"
	"github.com/brewkit/orderboard/internal/server/models"
	"github.com/brewkit/orderboard/internal/server/repositories/completions"
	"github.com/brewkit/orderboard/internal/server/upstream"
)

// FilterMode selects what FilterCompleted does with completed orders.
type FilterMode int

const (
	// Annotate keeps every order and sets the Completed flag.
	Annotate FilterMode = iota
	// Exclude removes completed orders from the result.
	Exclude
)

// CompletionService tracks which orders staff have marked done.
type CompletionService struct {
	repo    completions.Repository
	remotes map[string]upstream.RemoteCompleter
	clock   clock.Clock
	logger  logging.Logger
}

// NewCompletionService wires the service to its store and to the sources that
// accept remote completion. Sources that do not implement RemoteCompleter are
// simply not notified.
func NewCompletionService(repo completions.Repository, sources []upstream.Source, clk clock.Clock, logger logging.Logger) *CompletionService {
	remotes := make(map[string]upstream.RemoteCompleter)
	for _, src := range sources {
		if rc, ok := src.(upstream.RemoteCompleter); ok {
			remotes[src.Name()] = rc
		}
	}
	return &CompletionService{
		repo:    repo,
		remotes: remotes,
		clock:   clk,
		logger:  logger,
	}
}

// MarkComplete records that the order was completed. Marking an already
// completed id is a no-op returning nil. If the owning source supports remote
// completion it is notified best-effort: a remote failure is logged, never
// surfaced, because local state is authoritative for the display. A store
// failure is surfaced, wrapped in common.ErrStore.
func (s *CompletionService) MarkComplete(ctx context.Context, orderID, source string) error {
	if orderID == "" {
		return fmt.Errorf("orderId is required: %w", common.ErrValidation)
	}

	rec := models.CompletionRecord{
		OrderID:     orderID,
		CompletedAt: s.clock.Now(),
	}
	if err := s.repo.Add(ctx, rec); err != nil {
		return err
	}

	if remote, ok := s.remotes[source]; ok {
		if err := remote.CompleteRemote(ctx, orderID); err != nil {
			s.logger.Warn(ctx, "remote completion failed", "source", source, "order", orderID, "error", err.Error())
		}
	}

	return nil
}

// FilterCompleted joins the orders against the completion set. In Annotate
// mode every order is kept and Completed is set; in Exclude mode completed
// orders are dropped. If the store cannot be read, the orders are returned
// as if nothing were completed, with a warning, so the display stays usable.
func (s *CompletionService) FilterCompleted(ctx context.Context, orders []models.Order, mode FilterMode) []models.Order {
	ids, err := s.repo.ListIDs(ctx)
	if err != nil {
		s.logger.Warn(ctx, "completion store unavailable, treating all orders as open", "error", err.Error())
		ids = nil
	}

	completed := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		completed[id] = struct{}{}
	}

	result := make([]models.Order, 0, len(orders))
	for _, o := range orders {
		_, done := completed[o.ID]
		if mode == Exclude && done {
			continue
		}
		o.Completed = done
		result = append(result, o)
	}
	return result
}

// ListCompletedIDs exposes the raw completion set for diagnostics and for
// clients doing their own exclusion.
func (s *CompletionService) ListCompletedIDs(ctx context.Context) ([]string, error) {
	return s.repo.ListIDs(ctx)
}
