package completions

import (
	"context"
	"fmt"

	"github.com/brewkit/orderboard/internal/common"
	"github.com/brewkit/orderboard/internal/dbx"
	"github.com/brewkit/orderboard/internal/server/models"
)

// PostgresRepository stores completions in PostgreSQL, for shops running more
// than one display against a shared database. Schema is managed by the goose
// migrations in internal/server/migrations.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Add(ctx context.Context, rec models.CompletionRecord) error {
	query := `
INSERT INTO completed_orders (order_id, completed_at)
VALUES ($1, $2)
ON CONFLICT (order_id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, rec.OrderID, rec.CompletedAt); err != nil {
		return fmt.Errorf("insert completion: %v: %w", err, common.ErrStore)
	}
	return nil
}

func (r *PostgresRepository) ListIDs(ctx context.Context) ([]string, error) {
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
