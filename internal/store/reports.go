package store

import (
	"context"
	"time"

	"storefront/internal/models"
)

// GetSalesByDay aggregates paid-and-later orders per day in the range
func (s *Store) GetSalesByDay(ctx context.Context, from, to time.Time) ([]models.SalesReportRow, error) {
	var rows []models.SalesReportRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT date_trunc('day', created_at) AS day,
		       COUNT(*) AS orders,
		       COALESCE(SUM(total_amount), 0) AS revenue
		FROM orders
		WHERE status NOT IN ('PENDING', 'CANCELLED')
		  AND created_at >= $1 AND created_at < $2
		GROUP BY 1
		ORDER BY 1`, from, to)
	return rows, err
}

// GetTopProducts ranks products by units sold in the range
func (s *Store) GetTopProducts(ctx context.Context, from, to time.Time, limit int) ([]models.TopProductRow, error) {
	var rows []models.TopProductRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT oi.product_id,
		       oi.name,
		       SUM(oi.quantity) AS units,
		       SUM(oi.unit_price * oi.quantity) AS revenue
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE o.status NOT IN ('PENDING', 'CANCELLED')
		  AND o.created_at >= $1 AND o.created_at < $2
		GROUP BY oi.product_id, oi.name
		ORDER BY units DESC
		LIMIT $3`, from, to, limit)
	return rows, err
}

// CountOrders returns total order count and revenue excluding
// pending/cancelled orders
func (s *Store) CountOrders(ctx context.Context) (int, int64, error) {
	var row struct {
		Orders  int   `db:"orders"`
		Revenue int64 `db:"revenue"`
	}
	err := s.db.GetContext(ctx, &row, `
		SELECT COUNT(*) AS orders, COALESCE(SUM(total_amount), 0) AS revenue
		FROM orders
		WHERE status NOT IN ('PENDING', 'CANCELLED')`)
	return row.Orders, row.Revenue, err
}
