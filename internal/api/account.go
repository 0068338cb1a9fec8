package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/auth"
	"storefront/internal/models"
	"storefront/internal/service"
	"storefront/internal/store"
)

// register creates an account and sets the session cookie
func (h *Handler) register(c *gin.Context) {
	var req service.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	resp, err := h.accounts.Register(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Email already registered"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Registration failed", "details": err.Error()})
		return
	}

	h.setSessionCookie(c, resp.Token)
	c.JSON(http.StatusCreated, resp)
}

// login checks credentials and sets the session cookie
func (h *Handler) login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	resp, err := h.accounts.Login(c.Request.Context(), &req)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	h.setSessionCookie(c, resp.Token)
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) setSessionCookie(c *gin.Context, token string) {
	c.SetCookie(auth.SessionCookie, token, int(h.cookieTTL.Seconds()), "/", "", false, true)
}

// getProfile returns the caller's account
func (h *Handler) getProfile(c *gin.Context) {
	user, err := h.accounts.GetProfile(c.Request.Context(), auth.UserID(c))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, user)
}

// updateProfile edits username/email
func (h *Handler) updateProfile(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Email    string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	user, err := h.accounts.UpdateProfile(c.Request.Context(), auth.UserID(c), req.Username, req.Email)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Email already registered"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Profile update failed", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, user)
}

// changePassword rotates the password after verifying the current one
func (h *Handler) changePassword(c *gin.Context) {
	var req struct {
		OldPassword string `json:"old_password" binding:"required"`
		NewPassword string `json:"new_password" binding:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := h.accounts.ChangePassword(c.Request.Context(), auth.UserID(c), req.OldPassword, req.NewPassword); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Password change failed", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"changed": true})
}

// deleteAccount removes the caller's account
func (h *Handler) deleteAccount(c *gin.Context) {
	if err := h.accounts.DeleteAccount(c.Request.Context(), auth.UserID(c)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Account deletion failed", "details": err.Error()})
		return
	}
	c.SetCookie(auth.SessionCookie, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// listAddresses lists the caller's addresses
func (h *Handler) listAddresses(c *gin.Context) {
	addresses, err := h.accounts.ListAddresses(c.Request.Context(), auth.UserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list addresses", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"addresses": addresses})
}

type addressRequest struct {
	Street     string `json:"street" binding:"required"`
	City       string `json:"city" binding:"required"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country" binding:"required"`
	IsDefault  bool   `json:"is_default"`
}

// createAddress adds an address for the caller
func (h *Handler) createAddress(c *gin.Context) {
	var req addressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	address := &models.Address{
		UserID:     auth.UserID(c),
		Street:     req.Street,
		City:       req.City,
		State:      req.State,
		PostalCode: req.PostalCode,
		Country:    req.Country,
		IsDefault:  req.IsDefault,
	}
	if err := h.accounts.CreateAddress(c.Request.Context(), address); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to create address", "details": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, address)
}

// updateAddress edits an address the caller owns
func (h *Handler) updateAddress(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req addressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	address := &models.Address{
		ID:         id,
		UserID:     auth.UserID(c),
		Street:     req.Street,
		City:       req.City,
		State:      req.State,
		PostalCode: req.PostalCode,
		Country:    req.Country,
		IsDefault:  req.IsDefault,
	}
	if err := h.accounts.UpdateAddress(c.Request.Context(), address); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Address not found", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, address)
}

// setDefaultAddress flips the default flag to one address
func (h *Handler) setDefaultAddress(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.accounts.SetDefaultAddress(c.Request.Context(), auth.UserID(c), id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Address not found", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"default": id})
}

// deleteAddress removes an address the caller owns
func (h *Handler) deleteAddress(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.accounts.DeleteAddress(c.Request.Context(), auth.UserID(c), id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Address not found", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

// listPaymentMethods returns the payment methods the gateway holds for
// the caller
func (h *Handler) listPaymentMethods(c *gin.Context) {
	methods, err := h.orders.PaymentMethods(c.Request.Context(), auth.UserID(c))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to list payment methods", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment_methods": methods})
}

// getPreferences returns the caller's preferences
func (h *Handler) getPreferences(c *gin.Context) {
	prefs, err := h.accounts.GetPreferences(c.Request.Context(), auth.UserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load preferences", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, prefs)
}

// savePreferences upserts the caller's preferences
func (h *Handler) savePreferences(c *gin.Context) {
	var req struct {
		Newsletter    bool   `json:"newsletter"`
		Language      string `json:"language"`
		Notifications bool   `json:"notifications"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	prefs := &models.UserPreferences{
		UserID:        auth.UserID(c),
		Newsletter:    req.Newsletter,
		Language:      req.Language,
		Notifications: req.Notifications,
	}
	if err := h.accounts.SavePreferences(c.Request.Context(), prefs); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save preferences", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, prefs)
}
