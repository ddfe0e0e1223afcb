// Package upstream defines the contract source adapters implement and the
// day-boundary helper they share. Each adapter wraps one ordering backend
// and normalizes its orders into the canonical schema.
package upstream

import (
	"context"
	"time"

	"github.com/brewkit/orderboard/internal/server/models"
)

// Source fetches today's orders from one upstream backend.
//
// Contract:
//   - Name is a stable identifier, used as the Order.Source tag and as the
//     key in per-source aggregation status.
//   - FetchToday returns the orders created since local midnight in the shop
//     time zone. Errors wrap one of common.ErrAuth, common.ErrUpstream or
//     common.ErrSchema.
type Source interface {
	Name() string
	FetchToday(ctx context.Context) ([]models.Order, error)
}

// RemoteCompleter is an optional capability: sources that can be told about
// completed orders implement it in addition to Source. Remote completion is
// best-effort; local completion state stays authoritative.
type RemoteCompleter interface {
	CompleteRemote(ctx context.Context, orderID string) error
}

// StartOfDay returns the instant of 00:00:00 of now's calendar day in loc.
// The result carries loc but denotes an absolute instant, so it can be
// formatted in UTC for upstream queries. Using loc here is what keeps the
// boundary correct for non-UTC shops.
func StartOfDay(now time.Time, loc *time.Location) time.Time {
	local := now.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}
