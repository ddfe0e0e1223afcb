package completions

import (
	"context"
	"fmt"

	"github.com/brewkit/orderboard/internal/common"
	"github.com/brewkit/orderboard/internal/dbx"
	"github.com/brewkit/orderboard/internal/server/models"
)

// SQLiteRepository stores completions in a local sqlite file, the lightweight
// durable option for a single-display shop.
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Bootstrap creates the completions table if it does not exist yet.
func (r *SQLiteRepository) Bootstrap(ctx context.Context) error {
	query := `
CREATE TABLE IF NOT EXISTS completed_orders (
  order_id     TEXT PRIMARY KEY,
  completed_at TIMESTAMP NOT NULL
);`
	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("bootstrap completions schema: %v: %w", err, common.ErrStore)
	}
	return nil
}

func (r *SQLiteRepository) Add(ctx context.Context, rec models.CompletionRecord) error {
	query := `INSERT OR IGNORE INTO completed_orders (order_id, completed_at) VALUES (?, ?)`
	if _, err := r.db.ExecContext(ctx, query, rec.OrderID, rec.CompletedAt); err != nil {
		return fmt.Errorf("insert completion: %v: %w", err, common.ErrStore)
	}
	return nil
}

func (r *SQLiteRepository) ListIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT order_id FROM completed_orders ORDER BY order_id`)
	if err != nil {
		return nil, fmt.Errorf("select completions: %v: %w", err, common.ErrStore)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan completion: %v: %w", err, common.ErrStore)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate completions: %v: %w", err, common.ErrStore)
	}
	return ids, nil
}
