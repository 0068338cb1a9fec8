package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"storefront/internal/models"
	"storefront/internal/store"
	"storefront/internal/util"
)

// CartService handles per-user carts
type CartService struct {
	store  *store.Store
	logger *zap.Logger
}

// NewCartService creates a new cart service
func NewCartService(store *store.Store) *CartService {
	return &CartService{
		store:  store,
		logger: util.GetLogger(),
	}
}

// CartView is the cart returned to clients with a computed subtotal
type CartView struct {
	CartID   int64             `json:"cart_id"`
	Items    []models.CartLine `json:"items"`
	Subtotal int64             `json:"subtotal"`
}

// GetCart returns the user's cart, created lazily on first access
func (s *CartService) GetCart(ctx context.Context, userID int64) (*CartView, error) {
	cart, err := s.store.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	lines, err := s.store.GetCartLines(ctx, cart.ID)
	if err != nil {
		return nil, err
	}

	return &CartView{
		CartID:   cart.ID,
		Items:    lines,
		Subtotal: Subtotal(lines),
	}, nil
}

// AddItem adds a product to the cart. Adding a product already in the
// cart increments its quantity.
func (s *CartService) AddItem(ctx context.Context, userID, productID int64, quantity int) (*CartView, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("quantity must be at least 1")
	}
	if _, err := s.store.GetProductByID(ctx, productID); err != nil {
		return nil, err
	}

	cart, err := s.store.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.store.UpsertCartItem(ctx, cart.ID, productID, quantity); err != nil {
		return nil, fmt.Errorf("failed to add cart item: %w", err)
	}
	return s.GetCart(ctx, userID)
}

// UpdateItem sets a cart line quantity; zero removes the line
func (s *CartService) UpdateItem(ctx context.Context, userID, productID int64, quantity int) (*CartView, error) {
	if quantity < 0 {
		return nil, fmt.Errorf("quantity must not be negative")
	}

	cart, err := s.store.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	if quantity == 0 {
		err = s.store.RemoveCartItem(ctx, cart.ID, productID)
	} else {
		err = s.store.SetCartItemQuantity(ctx, cart.ID, productID, quantity)
	}
	if err != nil {
		return nil, err
	}
	return s.GetCart(ctx, userID)
}

// RemoveItem deletes a product line from the cart
func (s *CartService) RemoveItem(ctx context.Context, userID, productID int64) (*CartView, error) {
	cart, err := s.store.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.store.RemoveCartItem(ctx, cart.ID, productID); err != nil {
		return nil, err
	}
	return s.GetCart(ctx, userID)
}

// Clear removes every item from the user's cart
func (s *CartService) Clear(ctx context.Context, userID int64) error {
	cart, err := s.store.GetOrCreateCart(ctx, userID)
	if err != nil {
		return err
	}
	return s.store.ClearCart(ctx, cart.ID)
}

// Subtotal sums price times quantity over cart lines
func Subtotal(lines []models.CartLine) int64 {
	var total int64
	for _, line := range lines {
		total += line.Price * int64(line.Quantity)
	}
	return total
}
