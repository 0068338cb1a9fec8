package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"storefront/internal/auth"
	"storefront/internal/models"
	"storefront/internal/service"
)

// listUsers pages over registered users
func (h *Handler) listUsers(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	users, err := h.accounts.ListUsers(c.Request.Context(), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list users", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// updateUserRole changes a user's role
func (h *Handler) updateUserRole(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Role string `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	switch req.Role {
	case models.RoleUser, models.RoleAdmin, models.RoleManager:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown role: " + req.Role})
		return
	}

	if err := h.accounts.SetUserRole(c.Request.Context(), id, req.Role); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": id, "role": req.Role})
}

// lowStock lists products at or below the alert threshold
func (h *Handler) lowStock(c *gin.Context) {
	products, err := h.inventory.LowStock(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query inventory", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

// stockHistory lists the audit trail for a product
func (h *Handler) stockHistory(c *gin.Context) {
	productID, ok := idParam(c, "productId")
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	history, err := h.inventory.History(c.Request.Context(), productID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load stock history", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": history})
}

// bulkUpdateStock applies one signed delta to several products
func (h *Handler) bulkUpdateStock(c *gin.Context) {
	var req service.BulkAdjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	req.UpdatedBy = auth.UserID(c)

	result, err := h.inventory.BulkAdjust(c.Request.Context(), &req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Bulk update rejected", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// salesReport returns the aggregated sales report as JSON
func (h *Handler) salesReport(c *gin.Context) {
	from, to, err := reportRange(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid report range", "details": err.Error()})
		return
	}

	report, err := h.reports.Sales(c.Request.Context(), from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build report", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}

// exportSalesReport streams the report as a CSV attachment
func (h *Handler) exportSalesReport(c *gin.Context) {
	from, to, err := reportRange(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid report range", "details": err.Error()})
		return
	}

	filename := fmt.Sprintf("sales-%s-%s.csv", from.Format("20060102"), to.Format("20060102"))
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)

	if err := h.reports.WriteSalesCSV(c.Request.Context(), c.Writer, from, to); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export report", "details": err.Error()})
		return
	}
}

// adminStats returns the cached dashboard summary
func (h *Handler) adminStats(c *gin.Context) {
	stats, err := h.reports.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load stats", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// reportRange parses from/to query params, defaulting to the last 30 days
func reportRange(c *gin.Context) (time.Time, time.Time, error) {
	now := time.Now().UTC()
	from := now.AddDate(0, 0, -30)
	to := now

	if v := c.Query("from"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("from must be YYYY-MM-DD")
		}
		from = parsed
	}
	if v := c.Query("to"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("to must be YYYY-MM-DD")
		}
		// inclusive end date
		to = parsed.AddDate(0, 0, 1)
	}
	return from, to, nil
}
