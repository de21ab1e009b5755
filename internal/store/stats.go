package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/gearup/storefront/internal/models"
)

// GetStats totals the dashboard counters in a single round trip. Cancelled
// orders do not count towards revenue.
func GetStats(ctx context.Context, db *sql.DB) (*models.Stats, error) {
	var stats models.Stats
	err := db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM orders),
			(SELECT COALESCE(SUM(total), 0) FROM orders WHERE status <> 'CANCELLED'),
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM products)`).Scan(
		&stats.TotalOrders,
		&stats.TotalRevenue,
		&stats.TotalUsers,
		&stats.TotalProducts,
	)
	if err != nil {
		return nil, fmt.Errorf("get stats: %w", err)
	}
	return &stats, nil
}
