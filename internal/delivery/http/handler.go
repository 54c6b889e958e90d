package http

import (
	"errors"
	"net/http"

	"github.com/allergyscan/backend/internal/domain"
	"github.com/allergyscan/backend/internal/usecase"
	"github.com/gin-gonic/gin"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	scanService *usecase.ScanService
}

// NewHandler creates a new HTTP handler
func NewHandler(scanService *usecase.ScanService) *Handler {
	return &Handler{scanService: scanService}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "allergyscan-backend",
		"version": "1.0.0",
	})
}

// Scan handles barcode scan requests: resolves the product through the
// cache and evaluates allergen risk for the supplied profile
func (h *Handler) Scan(c *gin.Context) {
	if h.scanService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "scan service not configured"})
		return
	}

	var req domain.ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "barcode is required"})
		return
	}

	allergens, err := domain.ParseCategories(req.Allergens)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.scanService.Scan(c.Request.Context(), req.Barcode, allergens)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetProduct handles cache-only product lookups, no risk evaluation
func (h *Handler) GetProduct(c *gin.Context) {
	if h.scanService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "scan service not configured"})
		return
	}

	barcode := c.Param("barcode")
	record, err := h.scanService.GetProduct(c.Request.Context(), barcode)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, record)
}

// CacheStats returns the product cache hit/miss counters
func (h *Handler) CacheStats(c *gin.Context) {
	if h.scanService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "scan service not configured"})
		return
	}

	c.JSON(http.StatusOK, h.scanService.CacheStats())
}

// respondError maps domain errors to HTTP status codes
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		c.JSON(http.StatusBadGateway, gin.H{"error": "product lookup temporarily unavailable"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
