package security

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"tes/survey-portal/survey-portal-backend/internal/auth"
	"tes/survey-portal/survey-portal-backend/internal/surveys"
	"tes/survey-portal/survey-portal-backend/internal/watermark"
	"tes/survey-portal/survey-portal-backend/pkg/storage"
)

// Default viewport for the overlay endpoint when the client sends no size.
const (
	defaultOverlayWidth  = 1040
	defaultOverlayHeight = 640
)

// Handler handles HTTP requests for security events and live previews
type Handler struct {
	audit    *AuditLogger
	previews *PreviewService
	logger   *zap.Logger
}

// NewHandler creates a new security handler
func NewHandler(audit *AuditLogger, previews *PreviewService, logger *zap.Logger) *Handler {
	return &Handler{audit: audit, previews: previews, logger: logger}
}

// RegisterRoutes registers security and diagram routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/security/events", h.logEvent)

	diagrams := router.Group("/diagrams")
	{
		diagrams.GET("/overlay.svg", h.overlay)
		diagrams.GET("/preview/:assetType", h.preview)
	}
}

// EventRequest is the client-reported security event payload
type EventRequest struct {
	Action   string         `json:"action" binding:"required"`
	Metadata map[string]any `json:"metadata"`
}

// logEvent handles POST /api/v1/security/events. The response always carries
// a success flag; a failing audit sink never surfaces as an HTTP error.
func (h *Handler) logEvent(c *gin.Context) {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, err := uuid.Parse(identity.UserID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	recorded := h.audit.Record(c.Request.Context(), Event{
		UserID:   userID,
		Action:   req.Action,
		Metadata: req.Metadata,
	})

	c.JSON(http.StatusOK, gin.H{"success": recorded})
}

// preview handles GET /api/v1/diagrams/preview/:assetType
func (h *Handler) preview(c *gin.Context) {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	assetType := c.Param("assetType")
	jobRef := c.DefaultQuery("ref", surveys.ProjectRefFallback)

	png, err := h.previews.RenderPreview(c.Request.Context(), assetType, jobRef, identity)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Diagram not found"})
			return
		}
		h.logger.Error("Failed to render diagram preview",
			zap.String("asset_type", assetType), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render preview"})
		return
	}

	// Previews carry per-user watermarks; they must never be cached.
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", png)
}

// overlay handles GET /api/v1/diagrams/overlay.svg
func (h *Handler) overlay(c *gin.Context) {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	size := watermark.Size{
		W: queryFloat(c, "w", defaultOverlayWidth),
		H: queryFloat(c, "h", defaultOverlayHeight),
	}
	jobRef := c.DefaultQuery("ref", surveys.ProjectRefFallback)

	svg, err := h.previews.OverlaySVG(identity, jobRef, size)
	if err != nil {
		h.logger.Error("Failed to render overlay", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render overlay"})
		return
	}

	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/svg+xml", svg)
}

func queryFloat(c *gin.Context, name string, fallback float64) float64 {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
