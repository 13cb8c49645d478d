package surveys

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// ErrNotFound marks a lookup that matched no row. Callers use errors.Is to
// distinguish it from genuine query failures, which map to HTTP 500.
var ErrNotFound = errors.New("surveys: not found")

// Repository defines read access for the export and auth paths
type Repository interface {
	GetSurvey(ctx context.Context, id uuid.UUID) (*Survey, error)
	ListSurveys(ctx context.Context) ([]*Survey, error)
	// ListAssets returns the survey's assets in stable creation order; an
	// empty slice is a valid result, distinct from a query error.
	ListAssets(ctx context.Context, surveyID uuid.UUID) ([]*Asset, error)

	GetProfile(ctx context.Context, userID uuid.UUID) (*Profile, error)
	GetProfileByEmail(ctx context.Context, email string) (*Profile, error)
}

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetSurvey retrieves a survey by ID
func (r *PostgresRepository) GetSurvey(ctx context.Context, id uuid.UUID) (*Survey, error) {
	var survey Survey
	query := `SELECT * FROM surveys WHERE id = $1`
	if err := r.db.GetContext(ctx, &survey, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get survey: %w", err)
	}
	return &survey, nil
}

// ListSurveys returns all surveys, newest first
func (r *PostgresRepository) ListSurveys(ctx context.Context) ([]*Survey, error) {
	surveys := []*Survey{}
	query := `SELECT * FROM surveys ORDER BY created_at DESC`
	if err := r.db.SelectContext(ctx, &surveys, query); err != nil {
		return nil, fmt.Errorf("list surveys: %w", err)
	}
	return surveys, nil
}

// ListAssets returns all assets for a survey in creation order
func (r *PostgresRepository) ListAssets(ctx context.Context, surveyID uuid.UUID) ([]*Asset, error) {
	assets := []*Asset{}
	query := `SELECT * FROM assets WHERE survey_id = $1 ORDER BY created_at, id`
	if err := r.db.SelectContext(ctx, &assets, query, surveyID); err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	return assets, nil
}

// GetProfile retrieves a user profile by user ID
func (r *PostgresRepository) GetProfile(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	var profile Profile
	query := `SELECT * FROM profiles WHERE id = $1`
	if err := r.db.GetContext(ctx, &profile, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &profile, nil
}

// GetProfileByEmail retrieves a user profile by email
func (r *PostgresRepository) GetProfileByEmail(ctx context.Context, email string) (*Profile, error) {
	var profile Profile
	query := `SELECT * FROM profiles WHERE email = $1`
	if err := r.db.GetContext(ctx, &profile, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get profile by email: %w", err)
	}
	return &profile, nil
}
