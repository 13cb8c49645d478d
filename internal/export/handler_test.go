package export

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"tes/survey-portal/survey-portal-backend/internal/auth"
	"tes/survey-portal/survey-portal-backend/internal/surveys"
	"tes/survey-portal/survey-portal-backend/internal/watermark"
)

func setupRouter(t *testing.T, repo surveys.Repository, store DiagramStore, identity *watermark.Identity) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	if identity != nil {
		router.Use(func(c *gin.Context) {
			auth.SetIdentity(c, *identity)
			c.Next()
		})
	}

	handler := NewHandler(newTestService(t, repo, store), zap.NewNop())
	api := router.Group("/api/v1")
	handler.RegisterRoutes(api)
	return router
}

func TestExportSurveyUnauthorized(t *testing.T) {
	router := setupRouter(t, new(MockRepository), new(MockDiagramStore), nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/surveys/"+testSurvey().ID.String()+"/export", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestExportSurveyNotFound(t *testing.T) {
	repo := new(MockRepository)
	survey := testSurvey()
	repo.On("GetSurvey", mock.Anything, survey.ID).Return(nil, surveys.ErrNotFound)

	identity := testIdentity()
	router := setupRouter(t, repo, new(MockDiagramStore), &identity)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/surveys/"+survey.ID.String()+"/export", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Survey not found")
}

func TestExportSurveyInvalidID(t *testing.T) {
	identity := testIdentity()
	router := setupRouter(t, new(MockRepository), new(MockDiagramStore), &identity)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/surveys/not-a-uuid/export", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExportSurveyAssetQueryFailure(t *testing.T) {
	repo := new(MockRepository)
	survey := testSurvey()
	repo.On("GetSurvey", mock.Anything, survey.ID).Return(survey, nil)
	repo.On("ListAssets", mock.Anything, survey.ID).Return(nil, errors.New("db gone"))

	identity := testIdentity()
	router := setupRouter(t, repo, new(MockDiagramStore), &identity)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/surveys/"+survey.ID.String()+"/export", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Failed to fetch assets")
}

func TestExportSurveyStreamsAttachment(t *testing.T) {
	repo := new(MockRepository)
	survey := testSurvey()
	repo.On("GetSurvey", mock.Anything, survey.ID).Return(survey, nil)
	repo.On("ListAssets", mock.Anything, survey.ID).Return([]*surveys.Asset{testAsset("CV-001", "Check Valve")}, nil)

	store := new(MockDiagramStore)
	store.On("Download", mock.Anything, mock.Anything).Return(testPNG(t, 100, 60), nil)

	identity := testIdentity()
	router := setupRouter(t, repo, store, &identity)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/surveys/"+survey.ID.String()+"/export", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="TES_Survey_PRJ-2026-001.pdf"`, w.Header().Get("Content-Disposition"))
	assert.NotZero(t, w.Body.Len())
}
