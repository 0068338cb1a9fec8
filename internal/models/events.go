package models

import "time"

// Event types
const (
	EventTypeOrderCreated       = "ORDER_CREATED"
	EventTypeOrderPaid          = "ORDER_PAID"
	EventTypeOrderCancelled     = "ORDER_CANCELLED"
	EventTypeOrderStatusChanged = "ORDER_STATUS_CHANGED"
	EventTypeLowStockAlert      = "LOW_STOCK_ALERT"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderItemData represents item data in events
type OrderItemData struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
}

// OrderCreatedEvent published when an order is persisted
type OrderCreatedEvent struct {
	BaseEvent
	OrderID     int64           `json:"order_id"`
	UserID      int64           `json:"user_id"`
	UserEmail   string          `json:"user_email"`
	TotalAmount int64           `json:"total_amount"`
	Items       []OrderItemData `json:"items"`
}

// OrderPaidEvent published when the payment webhook confirms a session
type OrderPaidEvent struct {
	BaseEvent
	OrderID   int64  `json:"order_id"`
	UserID    int64  `json:"user_id"`
	UserEmail string `json:"user_email"`
	SessionID string `json:"session_id"`
	Amount    int64  `json:"amount"`
}

// OrderCancelledEvent published when payment fails or an admin cancels
type OrderCancelledEvent struct {
	BaseEvent
	OrderID   int64  `json:"order_id"`
	UserID    int64  `json:"user_id"`
	UserEmail string `json:"user_email"`
	Reason    string `json:"reason"`
}

// OrderStatusChangedEvent published on admin status transitions
type OrderStatusChangedEvent struct {
	BaseEvent
	OrderID   int64  `json:"order_id"`
	UserID    int64  `json:"user_id"`
	UserEmail string `json:"user_email"`
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
}

// LowStockProduct is one product at or below the alert threshold
type LowStockProduct struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Stock     int    `json:"stock"`
}

// LowStockAlertEvent published after a bulk stock update leaves
// products at or below the threshold
type LowStockAlertEvent struct {
	BaseEvent
	Threshold int               `json:"threshold"`
	Products  []LowStockProduct `json:"products"`
}
