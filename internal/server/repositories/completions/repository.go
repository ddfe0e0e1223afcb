// Package completions persists the set of completed order ids behind a
// pluggable Repository. Every backend must make Add durable before
// returning, keep it idempotent per id, and keep inserts additive so
// concurrent completions of different orders never lose a write.
package completions

import (
	"context"

	"github.com/brewkit/orderboard/internal/server/models"
)

// Repository is the storage contract for completion records.
//
// Contract:
//   - Add stores the record; adding an id that is already present is a no-op
//     returning nil. The write is synchronous.
//   - ListIDs returns every completed order id.
//
// Failures wrap common.ErrStore.
type Repository interface {
	Add(ctx context.Context, rec models.CompletionRecord) error
	ListIDs(ctx context.Context) ([]string, error)
}
