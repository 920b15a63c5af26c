package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"catalog-service/internal/models"
	"catalog-service/internal/store"
	"catalog-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const (
	defaultAnalogLimit = 10
	maxAnalogLimit     = 50
)

// SearchResolver resolves storefront search queries
type SearchResolver interface {
	Resolve(ctx context.Context, query, lang string) (*models.SearchResult, error)
}

// AnalogProvider returns similar products
type AnalogProvider interface {
	GetDefaultAnalogs(ctx context.Context, product *models.Product, limit int) ([]models.ProductCard, error)
}

// ProductProcessor runs the catalog pipeline on demand
type ProductProcessor interface {
	Process(ctx context.Context, productID int64) (*models.Product, error)
	Delete(ctx context.Context, productID int64) error
}

// ProductReader loads products
type ProductReader interface {
	GetProduct(ctx context.Context, productID int64) (*models.Product, error)
}

// Pinger is a dependency checked by the readiness probe
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler contains HTTP handlers
type Handler struct {
	search    SearchResolver
	analogs   AnalogProvider
	processor ProductProcessor
	products  ProductReader
	checks    map[string]Pinger
	logger    *zap.Logger
}

// NewHandler creates a new HTTP handler. checks are probed by /ready.
func NewHandler(
	search SearchResolver,
	analogs AnalogProvider,
	processor ProductProcessor,
	products ProductReader,
	checks map[string]Pinger,
) *Handler {
	return &Handler{
		search:    search,
		analogs:   analogs,
		processor: processor,
		products:  products,
		checks:    checks,
		logger:    util.GetLogger(),
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
		v1.GET("/search", h.searchProducts)
		v1.GET("/products/:id/analogs", h.getAnalogs)
		v1.POST("/products/:id/reprocess", h.processProduct)
		v1.DELETE("/products/:id", h.deleteProduct)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck pings every dependency
func (h *Handler) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	failed := gin.H{}
	for name, dep := range h.checks {
		if err := dep.Ping(ctx); err != nil {
			failed[name] = err.Error()
		}
	}

	if len(failed) > 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"failed": failed,
			"time":   time.Now().Unix(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// searchProducts resolves a storefront query into product codes
func (h *Handler) searchProducts(c *gin.Context) {
	result, err := h.search.Resolve(c.Request.Context(), c.Query("q"), c.DefaultQuery("lang", models.LangRu))
	if err != nil {
		h.logger.Error("Search failed", zap.String("query", c.Query("q")), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "Search failed",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// getAnalogs returns sellable products similar to the given one
func (h *Handler) getAnalogs(c *gin.Context) {
	productID, ok := productIDParam(c)
	if !ok {
		return
	}

	limit := defaultAnalogLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxAnalogLimit {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid limit",
			})
			return
		}
		limit = n
	}

	product, err := h.products.GetProduct(c.Request.Context(), productID)
	if err != nil {
		h.respondProductError(c, productID, err)
		return
	}

	cards, err := h.analogs.GetDefaultAnalogs(c.Request.Context(), product, limit)
	if err != nil {
		h.respondProductError(c, productID, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"product_id": productID,
		"analogs":    cards,
	})
}

// processProduct reruns the catalog pipeline for a product
func (h *Handler) processProduct(c *gin.Context) {
	productID, ok := productIDParam(c)
	if !ok {
		return
	}

	product, err := h.processor.Process(c.Request.Context(), productID)
	if err != nil {
		h.respondProductError(c, productID, err)
		return
	}

	c.JSON(http.StatusOK, product)
}

// deleteProduct hard deletes a product
func (h *Handler) deleteProduct(c *gin.Context) {
	productID, ok := productIDParam(c)
	if !ok {
		return
	}

	if err := h.processor.Delete(c.Request.Context(), productID); err != nil {
		h.respondProductError(c, productID, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func productIDParam(c *gin.Context) (int64, bool) {
	productID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || productID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid product ID",
		})
		return 0, false
	}
	return productID, true
}

func (h *Handler) respondProductError(c *gin.Context, productID int64, err error) {
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Product not found",
		})
		return
	}

	h.logger.Error("Product request failed", zap.Int64("product_id", productID), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":   "Product request failed",
		"details": err.Error(),
	})
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
