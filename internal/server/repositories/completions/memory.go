package completions

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/brewkit/orderboard/internal/server/models"
)

// MemoryRepository keeps completions in process memory. Suitable for tests
// and single-instance development runs; state is lost on restart.
type MemoryRepository struct {
	mu      sync.Mutex
	records map[string]time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{records: make(map[string]time.Time)}
}

func (r *MemoryRepository) Add(_ context.Context, rec models.CompletionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[rec.OrderID]; ok {
		return nil
	}
	r.records[rec.OrderID] = rec.CompletedAt
	return nil
}

func (r *MemoryRepository) ListIDs(_ context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.records))
	for id := range r.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
