package export

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tes/survey-portal/survey-portal-backend/internal/surveys"
	"tes/survey-portal/survey-portal-backend/internal/watermark"
)

// Result is one finished export, ready to stream.
type Result struct {
	FileName    string
	ContentType string
	Data        []byte
}

// Service provides business logic for survey exports
type Service struct {
	repo      surveys.Repository
	assembler *Assembler
	logger    *zap.Logger
}

// NewService creates a new export service
func NewService(repo surveys.Repository, assembler *Assembler, logger *zap.Logger) *Service {
	return &Service{
		repo:      repo,
		assembler: assembler,
		logger:    logger,
	}
}

// ExportSurveyPDF produces the watermarked PDF report for one survey.
// A missing survey surfaces surveys.ErrNotFound; a failing asset query
// surfaces as a wrapped error (both mapped to HTTP statuses by the handler).
// Per-asset diagram failures never surface here: the assembler degrades
// those pages to placeholders.
func (s *Service) ExportSurveyPDF(ctx context.Context, surveyID uuid.UUID, identity watermark.Identity) (*Result, error) {
	survey, err := s.repo.GetSurvey(ctx, surveyID)
	if err != nil {
		return nil, err
	}

	assets, err := s.repo.ListAssets(ctx, surveyID)
	if err != nil {
		return nil, fmt.Errorf("load assets: %w", err)
	}

	data, err := s.assembler.AssembleReport(ctx, survey, assets, identity)
	if err != nil {
		return nil, fmt.Errorf("assemble report: %w", err)
	}

	s.logger.Info("Survey report exported",
		zap.String("survey_id", surveyID.String()),
		zap.Int("assets", len(assets)),
		zap.String("user_id", identity.UserID))

	return &Result{
		FileName:    fmt.Sprintf("%s_Survey_%s.pdf", watermark.Org, survey.ProjectRef()),
		ContentType: "application/pdf",
		Data:        data,
	}, nil
}

// ExportAssetRegister produces the asset register workbook for one survey
func (s *Service) ExportAssetRegister(ctx context.Context, surveyID uuid.UUID) (*Result, error) {
	survey, err := s.repo.GetSurvey(ctx, surveyID)
	if err != nil {
		return nil, err
	}

	assets, err := s.repo.ListAssets(ctx, surveyID)
	if err != nil {
		return nil, fmt.Errorf("load assets: %w", err)
	}

	exporter := NewRegisterExporter()
	defer exporter.Close()

	if err := exporter.Write(survey, assets); err != nil {
		return nil, fmt.Errorf("write register: %w", err)
	}
	data, err := exporter.Bytes()
	if err != nil {
		return nil, err
	}

	return &Result{
		FileName:    fmt.Sprintf("%s_Register_%s.xlsx", watermark.Org, survey.ProjectRef()),
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Data:        data,
	}, nil
}

// GetSurvey returns one survey for the capture UI
func (s *Service) GetSurvey(ctx context.Context, surveyID uuid.UUID) (*surveys.Survey, error) {
	return s.repo.GetSurvey(ctx, surveyID)
}

// ListSurveys returns all surveys for the capture UI
func (s *Service) ListSurveys(ctx context.Context) ([]*surveys.Survey, error) {
	return s.repo.ListSurveys(ctx)
}
