package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"storefront/internal/models"
)

// Mailer sends transactional email through the outbound email API
type Mailer struct {
	apiKey     string
	apiURL     string
	sender     string
	httpClient *http.Client
}

// NewMailer creates an email API client
func NewMailer(apiKey, apiURL, sender string) *Mailer {
	return &Mailer{
		apiKey:     apiKey,
		apiURL:     apiURL,
		sender:     sender,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type emailRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Text    string   `json:"text"`
}

// Send delivers one email. Non-2xx responses are errors so the caller
// can retry.
func (m *Mailer) Send(ctx context.Context, to []string, subject, body string) error {
	payload, err := json.Marshal(emailRequest{
		From:    m.sender,
		To:      to,
		Subject: subject,
		Text:    body,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.apiURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("email send failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("email API returned %d: %s", resp.StatusCode, body)
	}
	return nil
}

// OrderConfirmationBody renders the order confirmation email
func OrderConfirmationBody(event *models.OrderCreatedEvent) (subject, body string) {
	var b strings.Builder
	fmt.Fprintf(&b, "Thank you for your order #%d.\n\n", event.OrderID)
	for _, item := range event.Items {
		fmt.Fprintf(&b, "  %s x%d - %s\n", item.Name, item.Quantity,
			formatCents(item.UnitPrice*int64(item.Quantity)))
	}
	fmt.Fprintf(&b, "\nTotal: %s\n", formatCents(event.TotalAmount))
	return fmt.Sprintf("Order #%d confirmed", event.OrderID), b.String()
}

// StatusUpdateBody renders the status transition email
func StatusUpdateBody(event *models.OrderStatusChangedEvent) (subject, body string) {
	subject = fmt.Sprintf("Order #%d update: %s", event.OrderID, event.NewStatus)
	body = fmt.Sprintf("Your order #%d moved from %s to %s.\n",
		event.OrderID, event.OldStatus, event.NewStatus)
	return subject, body
}

// PaymentReceivedBody renders the payment confirmation email
func PaymentReceivedBody(event *models.OrderPaidEvent) (subject, body string) {
	subject = fmt.Sprintf("Payment received for order #%d", event.OrderID)
	body = fmt.Sprintf("We received your payment of %s for order #%d.\n",
		formatCents(event.Amount), event.OrderID)
	return subject, body
}

// CancellationBody renders the cancellation email
func CancellationBody(event *models.OrderCancelledEvent) (subject, body string) {
	subject = fmt.Sprintf("Order #%d cancelled", event.OrderID)
	body = fmt.Sprintf("Your order #%d was cancelled (%s). You have not been charged.\n",
		event.OrderID, event.Reason)
	return subject, body
}

// LowStockBody renders the batched admin alert
func LowStockBody(event *models.LowStockAlertEvent) (subject, body string) {
	var b strings.Builder
	fmt.Fprintf(&b, "%d products are at or below the stock threshold of %d:\n\n",
		len(event.Products), event.Threshold)
	for _, p := range event.Products {
		fmt.Fprintf(&b, "  #%d %s - %d left\n", p.ProductID, p.Name, p.Stock)
	}
	return "Low stock alert", b.String()
}

func formatCents(cents int64) string {
	return fmt.Sprintf("$%d.%02d", cents/100, cents%100)
}
