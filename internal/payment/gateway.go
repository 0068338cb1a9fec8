package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Line is one checkout line sent to the hosted payment page
type Line struct {
	Name      string
	UnitPrice int64
	Quantity  int
	ImageURL  string
}

// Session is the hosted checkout session returned by the gateway
type Session struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Method is a payment method saved with the gateway
type Method struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Brand string `json:"brand"`
	Last4 string `json:"last4"`
}

// Gateway creates hosted checkout sessions over the gateway's HTTP API
type Gateway struct {
	secretKey  string
	sessionURL string
	methodsURL string
	successURL string
	cancelURL  string
	baseURL    string
	httpClient *http.Client
}

// NewGateway creates a payment gateway client
func NewGateway(secretKey, sessionURL, methodsURL, successURL, cancelURL, baseURL string) *Gateway {
	return &Gateway{
		secretKey:  secretKey,
		sessionURL: sessionURL,
		methodsURL: methodsURL,
		successURL: successURL,
		cancelURL:  cancelURL,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// CreateSession requests a hosted checkout session for the given lines
// and returns the session identifier
func (g *Gateway) CreateSession(ctx context.Context, userID int64, lines []Line) (*Session, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("no lines to check out")
	}

	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", g.successURL)
	form.Set("cancel_url", g.cancelURL)
	form.Set("client_reference_id", strconv.FormatInt(userID, 10))

	for i, line := range lines {
		prefix := fmt.Sprintf("line_items[%d]", i)
		form.Set(prefix+"[quantity]", strconv.Itoa(line.Quantity))
		form.Set(prefix+"[price_data][currency]", "usd")
		form.Set(prefix+"[price_data][unit_amount]", strconv.FormatInt(line.UnitPrice, 10))
		form.Set(prefix+"[price_data][product_data][name]", line.Name)
		if img := g.AbsoluteImageURL(line.ImageURL); img != "" {
			form.Set(prefix+"[price_data][product_data][images][0]", img)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.sessionURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+g.secretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gateway returned %d: %s", resp.StatusCode, body)
	}

	var session Session
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	if session.ID == "" {
		return nil, fmt.Errorf("gateway returned empty session id")
	}
	return &session, nil
}

// ListPaymentMethods returns the payment methods the gateway holds for
// a customer. Customers are keyed by our user id, the same reference
// sent on session creation.
func (g *Gateway) ListPaymentMethods(ctx context.Context, userID int64) ([]Method, error) {
	endpoint := fmt.Sprintf("%s?customer=%d", g.methodsURL, userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+g.secretKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gateway returned %d: %s", resp.StatusCode, body)
	}

	var out struct {
		Data []Method `json:"data"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to decode payment methods: %w", err)
	}
	return out.Data, nil
}

// AbsoluteImageURL resolves a stored image path against the public base
// URL. Already-absolute URLs pass through; empty paths fall back to a
// placeholder the gateway will accept.
func (g *Gateway) AbsoluteImageURL(path string) string {
	if path == "" {
		return g.baseURL + "/images/placeholder.png"
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return g.baseURL + path
}
