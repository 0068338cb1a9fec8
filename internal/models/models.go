package models

import (
	"encoding/json"
	"time"

	"github.com/lib/pq"
)

// User roles
const (
	RoleUser    = "USER"
	RoleAdmin   = "ADMIN"
	RoleManager = "MANAGER"
)

// User represents a registered account
type User struct {
	ID           int64     `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         string    `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Category groups products
type Category struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Slug        string    `db:"slug" json:"slug"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Product represents a catalog item. Price and Discount are in cents.
type Product struct {
	ID          int64           `db:"id" json:"id"`
	Name        string          `db:"name" json:"name"`
	Description string          `db:"description" json:"description"`
	Price       int64           `db:"price" json:"price"`
	Discount    int64           `db:"discount" json:"discount"`
	Stock       int             `db:"stock" json:"stock"`
	Images      pq.StringArray  `db:"images" json:"images"`
	CategoryID  int64           `db:"category_id" json:"category_id"`
	Specs       json.RawMessage `db:"specs" json:"specs,omitempty"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

// Cart is one per user, created lazily
type Cart struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// CartItem pairs a product with a quantity inside a cart
type CartItem struct {
	ID        int64 `db:"id" json:"id"`
	CartID    int64 `db:"cart_id" json:"cart_id"`
	ProductID int64 `db:"product_id" json:"product_id"`
	Quantity  int   `db:"quantity" json:"quantity"`
}

// CartLine is a cart item joined with its product snapshot
type CartLine struct {
	ProductID int64          `db:"product_id" json:"product_id"`
	Name      string         `db:"name" json:"name"`
	Price     int64          `db:"price" json:"price"`
	Images    pq.StringArray `db:"images" json:"images"`
	Quantity  int            `db:"quantity" json:"quantity"`
}

// Order statuses
const (
	OrderStatusPending    = "PENDING"
	OrderStatusPaid       = "PAID"
	OrderStatusProcessing = "PROCESSING"
	OrderStatusShipped    = "SHIPPED"
	OrderStatusDelivered  = "DELIVERED"
	OrderStatusCancelled  = "CANCELLED"
)

// Order represents a placed order. Item snapshots are immutable.
type Order struct {
	ID               int64     `db:"id" json:"id"`
	UserID           int64     `db:"user_id" json:"user_id"`
	AddressID        int64     `db:"address_id" json:"address_id"`
	TotalAmount      int64     `db:"total_amount" json:"total_amount"`
	Status           string    `db:"status" json:"status"`
	PaymentSessionID string    `db:"payment_session_id" json:"payment_session_id,omitempty"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// OrderItem snapshots name and price at purchase time
type OrderItem struct {
	ID        int64  `db:"id" json:"id"`
	OrderID   int64  `db:"order_id" json:"order_id"`
	ProductID int64  `db:"product_id" json:"product_id"`
	Name      string `db:"name" json:"name"`
	UnitPrice int64  `db:"unit_price" json:"unit_price"`
	Quantity  int    `db:"quantity" json:"quantity"`
}

// Address belongs to a user; at most one per user is the default
type Address struct {
	ID         int64     `db:"id" json:"id"`
	UserID     int64     `db:"user_id" json:"user_id"`
	Street     string    `db:"street" json:"street"`
	City       string    `db:"city" json:"city"`
	State      string    `db:"state" json:"state"`
	PostalCode string    `db:"postal_code" json:"postal_code"`
	Country    string    `db:"country" json:"country"`
	IsDefault  bool      `db:"is_default" json:"is_default"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// StockHistory is the append-only audit trail of stock adjustments
type StockHistory struct {
	ID            int64     `db:"id" json:"id"`
	ProductID     int64     `db:"product_id" json:"product_id"`
	PreviousStock int       `db:"previous_stock" json:"previous_stock"`
	NewStock      int       `db:"new_stock" json:"new_stock"`
	UpdatedBy     int64     `db:"updated_by" json:"updated_by"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// UserPreferences is 1:1 with User, upserted
type UserPreferences struct {
	UserID        int64     `db:"user_id" json:"user_id"`
	Newsletter    bool      `db:"newsletter" json:"newsletter"`
	Language      string    `db:"language" json:"language"`
	Notifications bool      `db:"notifications" json:"notifications"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// ProcessedEvent for webhook/event idempotency
type ProcessedEvent struct {
	EventID     string    `db:"event_id"`
	EventType   string    `db:"event_type"`
	ProcessedAt time.Time `db:"processed_at"`
}

// SalesReportRow aggregates revenue per day
type SalesReportRow struct {
	Day     time.Time `db:"day" json:"day"`
	Orders  int       `db:"orders" json:"orders"`
	Revenue int64     `db:"revenue" json:"revenue"`
}

// TopProductRow aggregates units sold per product
type TopProductRow struct {
	ProductID int64  `db:"product_id" json:"product_id"`
	Name      string `db:"name" json:"name"`
	Units     int    `db:"units" json:"units"`
	Revenue   int64  `db:"revenue" json:"revenue"`
}

// StoreStats is the cached admin dashboard summary
type StoreStats struct {
	TotalOrders   int   `json:"total_orders"`
	TotalRevenue  int64 `json:"total_revenue"`
	TotalUsers    int   `json:"total_users"`
	TotalProducts int   `json:"total_products"`
	LowStockCount int   `json:"low_stock_count"`
}
