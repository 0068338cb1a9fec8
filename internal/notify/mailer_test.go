package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"storefront/internal/models"
)

func TestOrderConfirmationBody(t *testing.T) {
	subject, body := OrderConfirmationBody(&models.OrderCreatedEvent{
		OrderID:     17,
		TotalAmount: 25000,
		Items: []models.OrderItemData{
			{Name: "Headphones", Quantity: 2, UnitPrice: 10000},
			{Name: "Cable", Quantity: 1, UnitPrice: 5000},
		},
	})

	assert.Equal(t, "Order #17 confirmed", subject)
	assert.Contains(t, body, "Headphones x2 - $200.00")
	assert.Contains(t, body, "Cable x1 - $50.00")
	assert.Contains(t, body, "Total: $250.00")
}

func TestLowStockBody(t *testing.T) {
	subject, body := LowStockBody(&models.LowStockAlertEvent{
		Threshold: 5,
		Products: []models.LowStockProduct{
			{ProductID: 1, Name: "Webcam", Stock: 0},
			{ProductID: 2, Name: "Mouse", Stock: 3},
		},
	})

	assert.Equal(t, "Low stock alert", subject)
	assert.Contains(t, body, "2 products are at or below the stock threshold of 5")
	assert.Contains(t, body, "#1 Webcam - 0 left")
	assert.Contains(t, body, "#2 Mouse - 3 left")
}

func TestStatusUpdateBody(t *testing.T) {
	subject, body := StatusUpdateBody(&models.OrderStatusChangedEvent{
		OrderID:   9,
		OldStatus: models.OrderStatusPaid,
		NewStatus: models.OrderStatusShipped,
	})

	assert.Equal(t, "Order #9 update: SHIPPED", subject)
	assert.Contains(t, body, "from PAID to SHIPPED")
}
