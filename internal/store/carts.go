package store

import (
	"context"
	"database/sql"
	"fmt"

	"storefront/internal/models"
)

// GetOrCreateCart returns the user's cart, creating it lazily
func (s *Store) GetOrCreateCart(ctx context.Context, userID int64) (*models.Cart, error) {
	var cart models.Cart
	err := s.db.GetContext(ctx, &cart, "SELECT * FROM carts WHERE user_id = $1", userID)
	if err == nil {
		return &cart, nil
	}
	if err != sql.ErrNoRows {
		return nil, err
	}

	err = s.db.QueryRowxContext(ctx, `
		INSERT INTO carts (user_id) VALUES ($1)
		ON CONFLICT (user_id) DO UPDATE SET updated_at = NOW()
		RETURNING id, user_id, created_at, updated_at`, userID,
	).StructScan(&cart)
	if err != nil {
		return nil, fmt.Errorf("failed to create cart: %w", err)
	}
	return &cart, nil
}

// UpsertCartItem adds a product to the cart, incrementing quantity when
// the product is already present
func (s *Store) UpsertCartItem(ctx context.Context, cartID, productID int64, quantity int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cart_items (cart_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (cart_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity`,
		cartID, productID, quantity)
	return err
}

// SetCartItemQuantity replaces the quantity for a cart line
func (s *Store) SetCartItemQuantity(ctx context.Context, cartID, productID int64, quantity int) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE cart_items SET quantity = $1 WHERE cart_id = $2 AND product_id = $3",
		quantity, cartID, productID)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("cart item not found: product %d", productID)
	}
	return nil
}

// RemoveCartItem deletes one product line from a cart
func (s *Store) RemoveCartItem(ctx context.Context, cartID, productID int64) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM cart_items WHERE cart_id = $1 AND product_id = $2", cartID, productID)
	return err
}

// GetCartLines returns cart items joined with product snapshots
func (s *Store) GetCartLines(ctx context.Context, cartID int64) ([]models.CartLine, error) {
	var lines []models.CartLine
	err := s.db.SelectContext(ctx, &lines, `
		SELECT ci.product_id, p.name, p.price, p.images, ci.quantity
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = $1
		ORDER BY ci.id`, cartID)
	return lines, err
}

// ClearCart removes all items from a cart
func (s *Store) ClearCart(ctx context.Context, cartID int64) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM cart_items WHERE cart_id = $1", cartID)
	return err
}

// DeleteCart removes the cart row and its items, scoped to the owner so
// a forged cart id cannot touch another user's cart
func (s *Store) DeleteCart(ctx context.Context, cartID, userID int64) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM carts WHERE id = $1 AND user_id = $2", cartID, userID)
	return err
}
