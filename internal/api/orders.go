package api

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"storefront/internal/auth"
	"storefront/internal/models"
	"storefront/internal/service"
)

// getCart returns the authenticated user's cart
func (h *Handler) getCart(c *gin.Context) {
	cart, err := h.carts.GetCart(c.Request.Context(), auth.UserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load cart", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, cart)
}

// addCartItem adds a product to the cart
func (h *Handler) addCartItem(c *gin.Context) {
	var req struct {
		ProductID int64 `json:"product_id" binding:"required"`
		Quantity  int   `json:"quantity" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	cart, err := h.carts.AddItem(c.Request.Context(), auth.UserID(c), req.ProductID, req.Quantity)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to add item", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, cart)
}

// updateCartItem sets a line quantity; zero removes the line
func (h *Handler) updateCartItem(c *gin.Context) {
	productID, ok := idParam(c, "productId")
	if !ok {
		return
	}
	var req struct {
		Quantity *int `json:"quantity" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	cart, err := h.carts.UpdateItem(c.Request.Context(), auth.UserID(c), productID, *req.Quantity)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to update item", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, cart)
}

// removeCartItem deletes a line from the cart
func (h *Handler) removeCartItem(c *gin.Context) {
	productID, ok := idParam(c, "productId")
	if !ok {
		return
	}
	cart, err := h.carts.RemoveItem(c.Request.Context(), auth.UserID(c), productID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove item", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, cart)
}

// checkout turns the user's cart into a pending order and returns the
// hosted payment session for it
func (h *Handler) checkout(c *gin.Context) {
	var req struct {
		AddressID int64 `json:"address_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	resp, err := h.orders.Checkout(c.Request.Context(), auth.UserID(c), req.AddressID)
	if err != nil {
		status := http.StatusInternalServerError
		if err.Error() == "cart is empty" {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": "Checkout failed", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// checkoutOrder creates a payment session for an existing pending order
func (h *Handler) checkoutOrder(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.orders.CheckoutOrder(c.Request.Context(), auth.UserID(c), id)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Checkout failed", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// clearCart removes every item from the caller's cart
func (h *Handler) clearCart(c *gin.Context) {
	if err := h.carts.Clear(c.Request.Context(), auth.UserID(c)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear cart", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cleared": true})
}

// createOrder persists an order for the authenticated user
func (h *Handler) createOrder(c *gin.Context) {
	var req service.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	req.UserID = auth.UserID(c)

	view, err := h.orders.CreateOrder(c.Request.Context(), &req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to create order", "details": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, view)
}

// listOrders lists the caller's orders; staff can list everything
func (h *Handler) listOrders(c *gin.Context) {
	role := c.GetString(auth.CtxRole)
	if role == models.RoleAdmin || role == models.RoleManager {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
		offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
		orders, err := h.orders.ListOrders(c.Request.Context(), limit, offset)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list orders", "details": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"orders": orders})
		return
	}

	orders, err := h.orders.ListOrdersForUser(c.Request.Context(), auth.UserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list orders", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// getOrder returns one order with items; users may only read their own
func (h *Handler) getOrder(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	view, err := h.orders.GetOrder(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found", "details": err.Error()})
		return
	}

	role := c.GetString(auth.CtxRole)
	if view.Order.UserID != auth.UserID(c) && role != models.RoleAdmin && role != models.RoleManager {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not your order"})
		return
	}
	c.JSON(http.StatusOK, view)
}

// updateOrderStatus applies a staff status transition
func (h *Handler) updateOrderStatus(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	order, err := h.orders.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Status update rejected", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, order)
}

// paymentWebhook verifies and applies gateway callbacks
func (h *Handler) paymentWebhook(c *gin.Context) {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, 1<<20))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read payload"})
		return
	}

	event, err := h.verifier.VerifyAndParse(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Webhook verification failed", "details": err.Error()})
		return
	}

	if err := h.orders.HandleWebhookEvent(c.Request.Context(), event); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Webhook processing failed", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
