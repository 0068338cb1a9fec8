package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"storefront/internal/broker"
	"storefront/internal/models"
	"storefront/internal/payment"
	"storefront/internal/redisclient"
	"storefront/internal/store"
	"storefront/internal/util"
)

// OrderService handles checkout, order creation, and the payment
// webhook driven status lifecycle
type OrderService struct {
	store          *store.Store
	redis          *redisclient.Client
	eventPublisher *broker.EventPublisher
	gateway        *payment.Gateway
	logger         *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(
	store *store.Store,
	redis *redisclient.Client,
	eventPublisher *broker.EventPublisher,
	gateway *payment.Gateway,
) *OrderService {
	return &OrderService{
		store:          store,
		redis:          redis,
		eventPublisher: eventPublisher,
		gateway:        gateway,
		logger:         util.GetLogger(),
	}
}

const webhookSeenTTL = 24 * time.Hour

// orderTransitions is the allowed status transition table. CANCELLED is
// reachable from every non-terminal state; terminal states have no
// outgoing transitions.
var orderTransitions = map[string][]string{
	models.OrderStatusPending:    {models.OrderStatusPaid, models.OrderStatusCancelled},
	models.OrderStatusPaid:       {models.OrderStatusProcessing, models.OrderStatusCancelled},
	models.OrderStatusProcessing: {models.OrderStatusShipped, models.OrderStatusCancelled},
	models.OrderStatusShipped:    {models.OrderStatusDelivered, models.OrderStatusCancelled},
	models.OrderStatusDelivered:  {},
	models.OrderStatusCancelled:  {},
}

// CanTransition reports whether an order may move between two statuses
func CanTransition(from, to string) bool {
	for _, allowed := range orderTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// CreateOrderRequest represents a request to create an order. Payment
// session ids are never taken from the client; they are attached
// server-side when a checkout session is created for the order.
type CreateOrderRequest struct {
	UserID    int64              `json:"user_id"`
	AddressID int64              `json:"address_id" binding:"required"`
	Items     []OrderItemRequest `json:"items" binding:"required,min=1"`
	CartID    int64              `json:"-"`
}

// OrderItemRequest represents an item in an order. Prices are loaded
// server-side; any client-supplied price is ignored.
type OrderItemRequest struct {
	ProductID int64 `json:"product_id" binding:"required"`
	Quantity  int   `json:"quantity" binding:"required,min=1"`
}

// OrderView is an order with its item snapshots
type OrderView struct {
	Order *models.Order      `json:"order"`
	Items []models.OrderItem `json:"items"`
}

// CreateOrder persists an order with item snapshots and publishes the
// confirmation event. The order survives a failed publish; notification
// delivery is the worker's responsibility.
func (s *OrderService) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*OrderView, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.CreateOrder")
	defer span.End()

	if req.UserID == 0 || req.AddressID == 0 || len(req.Items) == 0 {
		util.OrdersFailedTotal.WithLabelValues("invalid_request").Inc()
		return nil, fmt.Errorf("user, address and at least one item are required")
	}

	user, err := s.store.GetUserByID(ctx, req.UserID)
	if err != nil {
		util.OrdersFailedTotal.WithLabelValues("unknown_user").Inc()
		return nil, err
	}
	if _, err := s.store.GetAddressByID(ctx, req.AddressID, req.UserID); err != nil {
		util.OrdersFailedTotal.WithLabelValues("unknown_address").Inc()
		return nil, err
	}

	products, err := s.validateOrderItems(ctx, req.Items)
	if err != nil {
		util.OrdersFailedTotal.WithLabelValues("invalid_items").Inc()
		return nil, err
	}

	order := &models.Order{
		UserID:      req.UserID,
		AddressID:   req.AddressID,
		TotalAmount: s.calculateTotal(req.Items, products),
		Status:      models.OrderStatusPending,
	}

	items := make([]models.OrderItem, 0, len(req.Items))
	eventItems := make([]models.OrderItemData, 0, len(req.Items))
	for _, item := range req.Items {
		product := products[item.ProductID]
		items = append(items, models.OrderItem{
			ProductID: item.ProductID,
			Name:      product.Name,
			UnitPrice: product.Price,
			Quantity:  item.Quantity,
		})
		eventItems = append(eventItems, models.OrderItemData{
			ProductID: item.ProductID,
			Name:      product.Name,
			Quantity:  item.Quantity,
			UnitPrice: product.Price,
		})
	}

	if err := s.store.CreateOrder(ctx, order, items); err != nil {
		util.OrdersFailedTotal.WithLabelValues("db_error").Inc()
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	util.OrdersCreatedTotal.Inc()
	s.logger.Info("Order created",
		zap.Int64("order_id", order.ID),
		zap.Int64("total", order.TotalAmount))

	if req.CartID > 0 {
		if err := s.store.DeleteCart(ctx, req.CartID, req.UserID); err != nil {
			s.logger.Warn("Failed to delete cart after order creation",
				zap.Int64("cart_id", req.CartID), zap.Error(err))
		}
	}

	event := &models.OrderCreatedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderCreated,
			Timestamp: time.Now(),
		},
		OrderID:     order.ID,
		UserID:      order.UserID,
		UserEmail:   user.Email,
		TotalAmount: order.TotalAmount,
		Items:       eventItems,
	}
	if err := s.eventPublisher.PublishOrderCreated(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderCreated event", zap.Error(err))
	}

	return &OrderView{Order: order, Items: items}, nil
}

// CheckoutResponse returns the hosted session to redirect the user to
type CheckoutResponse struct {
	OrderID   int64  `json:"order_id"`
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

// Checkout turns the user's cart into a pending order and requests a
// hosted payment session for it. The session id is attached to the
// order server-side so the webhook can resolve it without trusting
// client input.
func (s *OrderService) Checkout(ctx context.Context, userID, addressID int64) (*CheckoutResponse, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.Checkout")
	defer span.End()

	start := time.Now()
	defer func() {
		util.CheckoutSessionLatency.Observe(time.Since(start).Seconds())
	}()

	cart, err := s.store.GetOrCreateCart(ctx, userID)
	if err != nil {
		util.CheckoutSessionsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	lines, err := s.store.GetCartLines(ctx, cart.ID)
	if err != nil {
		util.CheckoutSessionsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	if len(lines) == 0 {
		util.CheckoutSessionsTotal.WithLabelValues("empty_cart").Inc()
		return nil, fmt.Errorf("cart is empty")
	}

	items := make([]OrderItemRequest, 0, len(lines))
	paymentLines := make([]payment.Line, 0, len(lines))
	for _, line := range lines {
		items = append(items, OrderItemRequest{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
		})
		image := ""
		if len(line.Images) > 0 {
			image = line.Images[0]
		}
		paymentLines = append(paymentLines, payment.Line{
			Name:      line.Name,
			UnitPrice: line.Price,
			Quantity:  line.Quantity,
			ImageURL:  image,
		})
	}

	view, err := s.CreateOrder(ctx, &CreateOrderRequest{
		UserID:    userID,
		AddressID: addressID,
		Items:     items,
		CartID:    cart.ID,
	})
	if err != nil {
		util.CheckoutSessionsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	// A gateway failure here leaves the order PENDING; it stays payable
	// through the per-order checkout call.
	session, err := s.gateway.CreateSession(ctx, userID, paymentLines)
	if err != nil {
		util.CheckoutSessionsTotal.WithLabelValues("gateway_error").Inc()
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}
	if err := s.store.SetOrderSessionID(ctx, view.Order.ID, session.ID); err != nil {
		return nil, fmt.Errorf("failed to attach payment session: %w", err)
	}

	util.CheckoutSessionsTotal.WithLabelValues("ok").Inc()
	s.logger.Info("Checkout session created",
		zap.Int64("user_id", userID),
		zap.Int64("order_id", view.Order.ID),
		zap.String("session_id", session.ID))

	return &CheckoutResponse{OrderID: view.Order.ID, SessionID: session.ID, URL: session.URL}, nil
}

// CheckoutOrder creates a hosted payment session for an existing
// pending order and attaches the session id to it, so the webhook can
// find the order without client help.
func (s *OrderService) CheckoutOrder(ctx context.Context, userID, orderID int64) (*CheckoutResponse, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.CheckoutOrder")
	defer span.End()

	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, fmt.Errorf("order not found")
	}
	if order.Status != models.OrderStatusPending {
		return nil, fmt.Errorf("order is not awaiting payment")
	}

	items, err := s.store.GetOrderItemsByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	paymentLines := make([]payment.Line, 0, len(items))
	for _, item := range items {
		paymentLines = append(paymentLines, payment.Line{
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
		})
	}

	session, err := s.gateway.CreateSession(ctx, userID, paymentLines)
	if err != nil {
		util.CheckoutSessionsTotal.WithLabelValues("gateway_error").Inc()
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	if err := s.store.SetOrderSessionID(ctx, orderID, session.ID); err != nil {
		return nil, fmt.Errorf("failed to attach payment session: %w", err)
	}

	util.CheckoutSessionsTotal.WithLabelValues("ok").Inc()
	return &CheckoutResponse{OrderID: orderID, SessionID: session.ID, URL: session.URL}, nil
}

// PaymentMethods lists the payment methods the gateway holds for a user
func (s *OrderService) PaymentMethods(ctx context.Context, userID int64) ([]payment.Method, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.PaymentMethods")
	defer span.End()
	return s.gateway.ListPaymentMethods(ctx, userID)
}

// HandleWebhookEvent applies a verified gateway event to the matching
// order. Replayed events are dropped via the processed_events guard so
// duplicate notifications are never published.
func (s *OrderService) HandleWebhookEvent(ctx context.Context, event *payment.WebhookEvent) error {
	ctx, span := util.StartSpan(ctx, "OrderService.HandleWebhookEvent")
	defer span.End()

	// Fast-path replay guard. The key is read-only here and written only
	// after the event is fully applied, so a transient failure below
	// never swallows the gateway's retry. The durable processed_events
	// check still applies when Redis is unavailable.
	if s.redis != nil {
		seen, err := s.redis.WebhookSeen(ctx, event.ID)
		if err != nil {
			s.logger.Warn("Webhook dedup check failed", zap.Error(err))
		} else if seen {
			util.WebhooksReceivedTotal.WithLabelValues(event.Type, "replay").Inc()
			return nil
		}
	}

	processed, err := s.store.IsEventProcessed(ctx, event.ID)
	if err != nil {
		return fmt.Errorf("failed to check event processed: %w", err)
	}
	if processed {
		s.logger.Info("Webhook event already processed", zap.String("event_id", event.ID))
		util.WebhooksReceivedTotal.WithLabelValues(event.Type, "replay").Inc()
		return nil
	}

	order, err := s.store.GetOrderBySessionID(ctx, event.SessionID())
	if err != nil {
		util.WebhooksReceivedTotal.WithLabelValues(event.Type, "unmatched").Inc()
		return err
	}

	user, err := s.store.GetUserByID(ctx, order.UserID)
	if err != nil {
		return err
	}

	switch event.Type {
	case payment.EventCheckoutCompleted:
		if err := s.store.UpdateOrderStatus(ctx, order.ID, models.OrderStatusPaid); err != nil {
			return fmt.Errorf("failed to mark order paid: %w", err)
		}
		util.OrdersPaidTotal.Inc()

		paidEvent := &models.OrderPaidEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeOrderPaid,
				Timestamp: time.Now(),
			},
			OrderID:   order.ID,
			UserID:    order.UserID,
			UserEmail: user.Email,
			SessionID: event.SessionID(),
			Amount:    order.TotalAmount,
		}
		if err := s.eventPublisher.PublishOrderPaid(ctx, paidEvent); err != nil {
			s.logger.Error("Failed to publish OrderPaid event", zap.Error(err))
		}

	case payment.EventPaymentFailed:
		if err := s.store.UpdateOrderStatus(ctx, order.ID, models.OrderStatusCancelled); err != nil {
			return fmt.Errorf("failed to cancel order: %w", err)
		}
		util.OrdersCancelledTotal.Inc()

		cancelEvent := &models.OrderCancelledEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeOrderCancelled,
				Timestamp: time.Now(),
			},
			OrderID:   order.ID,
			UserID:    order.UserID,
			UserEmail: user.Email,
			Reason:    "payment failed",
		}
		if err := s.eventPublisher.PublishOrderCancelled(ctx, cancelEvent); err != nil {
			s.logger.Error("Failed to publish OrderCancelled event", zap.Error(err))
		}

	default:
		s.logger.Info("Ignoring webhook event type", zap.String("type", event.Type))
		util.WebhooksReceivedTotal.WithLabelValues(event.Type, "ignored").Inc()
		return nil
	}

	if err := s.store.MarkEventProcessed(ctx, event.ID, event.Type); err != nil {
		s.logger.Error("Failed to mark webhook event processed", zap.Error(err))
	}
	if s.redis != nil {
		if _, err := s.redis.MarkWebhookSeen(ctx, event.ID, webhookSeenTTL); err != nil {
			s.logger.Warn("Failed to record webhook dedup key", zap.Error(err))
		}
	}

	util.WebhooksReceivedTotal.WithLabelValues(event.Type, "ok").Inc()
	s.logger.Info("Webhook applied",
		zap.String("event_id", event.ID),
		zap.Int64("order_id", order.ID))
	return nil
}

// UpdateStatus applies an admin status transition after checking the
// transition table
func (s *OrderService) UpdateStatus(ctx context.Context, orderID int64, newStatus string) (*models.Order, error) {
	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !CanTransition(order.Status, newStatus) {
		return nil, fmt.Errorf("illegal status transition: %s -> %s", order.Status, newStatus)
	}

	if err := s.store.UpdateOrderStatus(ctx, orderID, newStatus); err != nil {
		return nil, err
	}

	user, err := s.store.GetUserByID(ctx, order.UserID)
	if err != nil {
		return nil, err
	}

	event := &models.OrderStatusChangedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderStatusChanged,
			Timestamp: time.Now(),
		},
		OrderID:   orderID,
		UserID:    order.UserID,
		UserEmail: user.Email,
		OldStatus: order.Status,
		NewStatus: newStatus,
	}
	if err := s.eventPublisher.PublishOrderStatusChanged(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderStatusChanged event", zap.Error(err))
	}

	order.Status = newStatus
	return order, nil
}

// GetOrder retrieves an order with its items
func (s *OrderService) GetOrder(ctx context.Context, orderID int64) (*OrderView, error) {
	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	items, err := s.store.GetOrderItemsByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return &OrderView{Order: order, Items: items}, nil
}

// ListOrdersForUser lists a user's orders
func (s *OrderService) ListOrdersForUser(ctx context.Context, userID int64) ([]models.Order, error) {
	return s.store.GetOrdersByUserID(ctx, userID)
}

// ListOrders lists all orders for the back office
func (s *OrderService) ListOrders(ctx context.Context, limit, offset int) ([]models.Order, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.store.GetOrders(ctx, limit, offset)
}

// validateOrderItems validates that all products exist
func (s *OrderService) validateOrderItems(ctx context.Context, items []OrderItemRequest) (map[int64]*models.Product, error) {
	productIDs := make([]int64, len(items))
	for i, item := range items {
		productIDs[i] = item.ProductID
	}

	products, err := s.store.GetProductsByIDs(ctx, productIDs)
	if err != nil {
		return nil, err
	}

	productMap := make(map[int64]*models.Product)
	for i := range products {
		productMap[products[i].ID] = &products[i]
	}

	for _, item := range items {
		if _, ok := productMap[item.ProductID]; !ok {
			return nil, fmt.Errorf("product not found: %d", item.ProductID)
		}
	}
	return productMap, nil
}

// calculateTotal computes the order total server-side
func (s *OrderService) calculateTotal(items []OrderItemRequest, products map[int64]*models.Product) int64 {
	var total int64
	for _, item := range items {
		product := products[item.ProductID]
		total += product.Price * int64(item.Quantity)
	}
	return total
}
