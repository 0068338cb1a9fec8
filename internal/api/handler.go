package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"storefront/internal/auth"
	"storefront/internal/models"
	"storefront/internal/payment"
	"storefront/internal/service"
	"storefront/internal/util"
)

// Handler contains HTTP handlers
type Handler struct {
	catalog   *service.CatalogService
	carts     *service.CartService
	orders    *service.OrderService
	inventory *service.InventoryService
	accounts  *service.AccountService
	reports   *service.ReportService
	authMW    *auth.Middleware
	verifier  *payment.WebhookVerifier
	uploadDir string
	cookieTTL time.Duration
}

// NewHandler creates a new HTTP handler
func NewHandler(
	catalog *service.CatalogService,
	carts *service.CartService,
	orders *service.OrderService,
	inventory *service.InventoryService,
	accounts *service.AccountService,
	reports *service.ReportService,
	authMW *auth.Middleware,
	verifier *payment.WebhookVerifier,
	uploadDir string,
	cookieTTL time.Duration,
) *Handler {
	return &Handler{
		catalog:   catalog,
		carts:     carts,
		orders:    orders,
		inventory: inventory,
		accounts:  accounts,
		reports:   reports,
		authMW:    authMW,
		verifier:  verifier,
		uploadDir: uploadDir,
		cookieTTL: cookieTTL,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.Static("/uploads", h.uploadDir)

	api := router.Group("/api")
	{
		api.POST("/auth/register", h.register)
		api.POST("/auth/login", h.login)

		api.GET("/products", h.listProducts)
		api.GET("/products/:id", h.getProduct)
		api.GET("/categories", h.listCategories)
		api.GET("/categories/:slug", h.getCategoryBySlug)

		api.POST("/webhooks/stripe", h.paymentWebhook)
	}

	authed := api.Group("")
	authed.Use(h.authMW.RequireAuth())
	{
		authed.GET("/cart", h.getCart)
		authed.POST("/cart/items", h.addCartItem)
		authed.PUT("/cart/items/:productId", h.updateCartItem)
		authed.DELETE("/cart/items/:productId", h.removeCartItem)
		authed.DELETE("/cart", h.clearCart)

		authed.POST("/checkout", h.checkout)

		authed.GET("/orders", h.listOrders)
		authed.POST("/orders", h.createOrder)
		authed.GET("/orders/:id", h.getOrder)
		authed.POST("/orders/:id/checkout", h.checkoutOrder)

		account := authed.Group("/account")
		{
			account.GET("/profile", h.getProfile)
			account.PUT("/profile", h.updateProfile)
			account.PUT("/security/password", h.changePassword)
			account.DELETE("/profile", h.deleteAccount)
			account.GET("/addresses", h.listAddresses)
			account.POST("/addresses", h.createAddress)
			account.PUT("/addresses/:id", h.updateAddress)
			account.PUT("/addresses/:id/default", h.setDefaultAddress)
			account.DELETE("/addresses/:id", h.deleteAddress)
			account.GET("/payment-methods", h.listPaymentMethods)
			account.GET("/preferences", h.getPreferences)
			account.PUT("/preferences", h.savePreferences)
		}
	}

	staff := api.Group("")
	staff.Use(h.authMW.RequireAuth(), h.authMW.RequireRole(models.RoleAdmin, models.RoleManager))
	{
		staff.POST("/products", h.createProduct)
		staff.PUT("/products/:id", h.updateProduct)
		staff.DELETE("/products/:id", h.deleteProduct)
		staff.POST("/categories", h.createCategory)
		staff.PATCH("/orders/:id", h.updateOrderStatus)

		admin := staff.Group("/admin")
		{
			admin.GET("/products", h.listAllProducts)
			admin.GET("/users", h.listUsers)
			admin.PATCH("/users/:id", h.updateUserRole)
			admin.GET("/inventory", h.lowStock)
			admin.GET("/inventory/:productId/history", h.stockHistory)
			admin.PATCH("/inventory/bulk-update", h.bulkUpdateStock)
			admin.GET("/reports/sales", h.salesReport)
			admin.GET("/reports/export", h.exportSalesReport)
			admin.GET("/stats", h.adminStats)
		}
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return id, true
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
