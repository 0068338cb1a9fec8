package store

import (
	"context"
	"database/sql"
	"fmt"

	"storefront/internal/models"
)

// CreateOrder persists an order and its item snapshots in one transaction
func (s *Store) CreateOrder(ctx context.Context, order *models.Order, items []models.OrderItem) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO orders (user_id, address_id, total_amount, status, payment_session_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`

	err = tx.QueryRowxContext(ctx, query,
		order.UserID, order.AddressID, order.TotalAmount, order.Status, order.PaymentSessionID,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	for i := range items {
		items[i].OrderID = order.ID
		err = tx.QueryRowxContext(ctx, `
			INSERT INTO order_items (order_id, product_id, name, unit_price, quantity)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id`,
			items[i].OrderID, items[i].ProductID, items[i].Name,
			items[i].UnitPrice, items[i].Quantity,
		).Scan(&items[i].ID)
		if err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}
	}

	return tx.Commit()
}

// GetOrderByID retrieves an order by ID
func (s *Store) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("order not found: %d", id)
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrderBySessionID retrieves an order by payment session identifier
func (s *Store) GetOrderBySessionID(ctx context.Context, sessionID string) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order,
		"SELECT * FROM orders WHERE payment_session_id = $1", sessionID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("order not found for session: %s", sessionID)
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateOrderStatus updates order status
func (s *Store) UpdateOrderStatus(ctx context.Context, orderID int64, status string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2",
		status, orderID)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("order not found: %d", orderID)
	}
	return nil
}

// SetOrderSessionID attaches the payment session to an order
func (s *Store) SetOrderSessionID(ctx context.Context, orderID int64, sessionID string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE orders SET payment_session_id = $1, updated_at = NOW() WHERE id = $2",
		sessionID, orderID)
	return err
}

// GetOrdersByUserID retrieves orders for a user, newest first
func (s *Store) GetOrdersByUserID(ctx context.Context, userID int64) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.SelectContext(ctx, &orders,
		"SELECT * FROM orders WHERE user_id = $1 ORDER BY created_at DESC", userID)
	return orders, err
}

// GetOrders retrieves all orders with paging, newest first
func (s *Store) GetOrders(ctx context.Context, limit, offset int) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.SelectContext(ctx, &orders,
		"SELECT * FROM orders ORDER BY created_at DESC LIMIT $1 OFFSET $2", limit, offset)
	return orders, err
}

// GetOrderItemsByOrderID retrieves all items for an order
func (s *Store) GetOrderItemsByOrderID(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := s.db.SelectContext(ctx, &items,
		"SELECT * FROM order_items WHERE order_id = $1", orderID)
	return items, err
}

// IsEventProcessed checks if an event has been processed
func (s *Store) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM processed_events WHERE event_id = $1)", eventID)
	return exists, err
}

// MarkEventProcessed marks an event as processed
func (s *Store) MarkEventProcessed(ctx context.Context, eventID, eventType string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO processed_events (event_id, event_type) VALUES ($1, $2) ON CONFLICT (event_id) DO NOTHING",
		eventID, eventType)
	return err
}
