package store

import (
	"context"
	"fmt"

	"storefront/internal/models"
)

// AdjustStock applies a signed delta to a product's stock with a single
// UPDATE evaluated by the database, so concurrent adjustments cannot lose
// writes. The audit row is written in the same transaction. Deltas that
// would drive stock negative are rejected.
func (s *Store) AdjustStock(ctx context.Context, productID int64, delta int, updatedBy int64) (*models.StockHistory, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var prev, next int
	err = tx.QueryRowxContext(ctx, `
		UPDATE products
		SET stock = stock + $1, updated_at = NOW()
		WHERE id = $2 AND stock + $1 >= 0
		RETURNING stock - $1, stock`,
		delta, productID,
	).Scan(&prev, &next)
	if err != nil {
		return nil, fmt.Errorf("stock adjustment rejected for product %d: %w", productID, err)
	}

	history := &models.StockHistory{
		ProductID:     productID,
		PreviousStock: prev,
		NewStock:      next,
		UpdatedBy:     updatedBy,
	}

	err = tx.QueryRowxContext(ctx, `
		INSERT INTO stock_history (product_id, previous_stock, new_stock, updated_by)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		history.ProductID, history.PreviousStock, history.NewStock, history.UpdatedBy,
	).Scan(&history.ID, &history.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to record stock history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return history, nil
}

// GetStockHistory lists adjustments for a product, newest first
func (s *Store) GetStockHistory(ctx context.Context, productID int64, limit int) ([]models.StockHistory, error) {
	var history []models.StockHistory
	err := s.db.SelectContext(ctx, &history, `
		SELECT * FROM stock_history
		WHERE product_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, productID, limit)
	return history, err
}

// GetLowStockProducts returns products at or below the threshold
func (s *Store) GetLowStockProducts(ctx context.Context, threshold int) ([]models.Product, error) {
	var products []models.Product
	err := s.db.SelectContext(ctx, &products,
		"SELECT * FROM products WHERE stock <= $1 ORDER BY stock, id", threshold)
	return products, err
}

// CountLowStockProducts counts products at or below the threshold
func (s *Store) CountLowStockProducts(ctx context.Context, threshold int) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM products WHERE stock <= $1", threshold)
	return count, err
}
