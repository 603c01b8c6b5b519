package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"smrt/config"
	"smrt/internal/service"
	"smrt/internal/store"
	"smrt/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ExternalUserHeader carries the identity provider's user id
const ExternalUserHeader = "X-External-User-ID"

// Pinger reports whether the database is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services groups the handlers' dependencies
type Services struct {
	Catalog   *service.CatalogService
	Orders    *service.OrderService
	Reviews   *service.ReviewService
	Customers *service.CustomerService
	Marketing *service.MarketingService
}

// Handler contains HTTP handlers
type Handler struct {
	svc   Services
	db    Pinger
	users UserResolver
	site  config.SiteConfig
}

// NewHandler creates a new HTTP handler
func NewHandler(svc Services, db Pinger, users UserResolver, site config.SiteConfig) *Handler {
	return &Handler{
		svc:   svc,
		db:    db,
		users: users,
		site:  site,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/site", h.getSite)

		v1.GET("/categories", h.listCategories)
		v1.GET("/products", h.listProducts)
		v1.GET("/products/:slug", h.getProduct)
		v1.GET("/products/:slug/reviews", h.listReviews)
		v1.GET("/reviews/:id", h.getReview)

		v1.POST("/users", h.syncUser)

		v1.POST("/newsletter", h.subscribe)
		v1.DELETE("/newsletter/:email", h.unsubscribe)
		v1.POST("/contact", h.submitContact)
	}

	authed := v1.Group("", h.authenticate)
	{
		authed.POST("/reviews", h.submitReview)
		authed.POST("/reviews/:id/helpful", h.markHelpful)
		authed.POST("/reviews/:id/feedback", h.addFeedback)

		authed.POST("/orders", h.placeOrder)
		authed.GET("/orders/:id", h.getOrder)
		authed.POST("/orders/:id/checkout-session", h.attachCheckoutSession)
	}

	account := v1.Group("/users/:id", h.authenticate, requireAccountOwner)
	{
		account.GET("/addresses", h.listAddresses)
		account.POST("/addresses", h.addAddress)
		account.PUT("/addresses/:addressId/default", h.setDefaultAddress)
		account.GET("/orders", h.listUserOrders)
	}

	admin := v1.Group("", h.authenticate, requireAdmin)
	{
		admin.POST("/categories", h.createCategory)
		admin.DELETE("/categories/:id", h.deleteCategory)

		admin.POST("/products", h.createProduct)
		admin.PATCH("/products/:id", h.updateProduct)
		admin.DELETE("/products/:id", h.deleteProduct)
		admin.POST("/products/:id/images", h.addProductImage)

		admin.PUT("/users/:id/role", h.updateRole)
		admin.POST("/orders/:id/status", h.transitionOrder)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck reports ready once the database answers
func (h *Handler) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unavailable",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// statusFor maps domain and storage errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrUnknownUser):
		return http.StatusUnauthorized
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrAlreadyReviewed),
		errors.Is(err, service.ErrDuplicateContact),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, store.ErrUniqueViolation),
		errors.Is(err, store.ErrForeignKeyViolation):
		return http.StatusConflict
	case errors.Is(err, store.ErrDomainViolation):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, message string, err error) {
	c.JSON(statusFor(err), gin.H{
		"error":   message,
		"details": err.Error(),
	})
}

func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return false
	}
	return true
}

func paramUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid " + name,
		})
		return uuid.Nil, false
	}
	return id, true
}

func queryInt(c *gin.Context, name string, def int) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil || v < 0 {
		return def
	}
	return v
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
