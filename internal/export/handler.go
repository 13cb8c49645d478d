package export

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"tes/survey-portal/survey-portal-backend/internal/auth"
	"tes/survey-portal/survey-portal-backend/internal/surveys"
)

// Handler handles HTTP requests for survey exports
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new export handler
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes registers survey routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/surveys")
	{
		group.GET("", h.listSurveys)
		group.GET("/:id", h.getSurvey)
		group.GET("/:id/export", h.exportSurvey)
		group.GET("/:id/register.xlsx", h.exportRegister)
	}
}

// exportSurvey handles GET /api/v1/surveys/:id/export
func (h *Handler) exportSurvey(c *gin.Context) {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid survey ID"})
		return
	}

	result, err := h.service.ExportSurveyPDF(c.Request.Context(), id, identity)
	if err != nil {
		if errors.Is(err, surveys.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Survey not found"})
			return
		}
		h.logger.Error("Failed to export survey", zap.Error(err), zap.String("survey_id", id.String()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch assets"})
		return
	}

	h.stream(c, result)
}

// exportRegister handles GET /api/v1/surveys/:id/register.xlsx
func (h *Handler) exportRegister(c *gin.Context) {
	if _, ok := auth.IdentityFromContext(c); !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid survey ID"})
		return
	}

	result, err := h.service.ExportAssetRegister(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, surveys.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Survey not found"})
			return
		}
		h.logger.Error("Failed to export register", zap.Error(err), zap.String("survey_id", id.String()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch assets"})
		return
	}

	h.stream(c, result)
}

// getSurvey handles GET /api/v1/surveys/:id
func (h *Handler) getSurvey(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid survey ID"})
		return
	}

	survey, err := h.service.GetSurvey(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, surveys.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Survey not found"})
			return
		}
		h.logger.Error("Failed to get survey", zap.Error(err), zap.String("survey_id", id.String()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, survey)
}

// listSurveys handles GET /api/v1/surveys
func (h *Handler) listSurveys(c *gin.Context) {
	list, err := h.service.ListSurveys(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list surveys", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"surveys": list})
}

func (h *Handler) stream(c *gin.Context, result *Result) {
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, result.FileName))
	c.Data(http.StatusOK, result.ContentType, result.Data)
}
