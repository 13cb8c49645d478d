package surveys

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"tes/survey-portal/survey-portal-backend/internal/watermark"
)

// =====================================================
// Enums and Constants
// =====================================================

// SurveyStatus represents the lifecycle state of a site survey
type SurveyStatus string

const (
	SurveyStatusInProgress SurveyStatus = "in_progress"
	SurveyStatusComplete   SurveyStatus = "complete"
	SurveyStatusSynced     SurveyStatus = "synced"
)

// ProjectRefFallback is used wherever a survey has no project reference yet
const ProjectRefFallback = "REF-UNKNOWN"

// =====================================================
// Models
// =====================================================

// Survey represents one site visit; read-only during export
type Survey struct {
	ID               uuid.UUID    `db:"id" json:"id"`
	ClientName       string       `db:"client_name" json:"client_name"`
	SiteName         string       `db:"site_name" json:"site_name"`
	SiteAddress      *string      `db:"site_address" json:"site_address,omitempty"`
	SurveyDate       time.Time    `db:"survey_date" json:"survey_date"`
	SurveyorName     string       `db:"surveyor_name" json:"surveyor_name"`
	ProjectReference *string      `db:"project_reference" json:"project_reference,omitempty"`
	GeneralNotes     *string      `db:"general_notes" json:"general_notes,omitempty"`
	Status           SurveyStatus `db:"status" json:"status"`
	CreatedAt        time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time    `db:"updated_at" json:"updated_at"`
}

// ProjectRef returns the survey's project reference, falling back to the
// sentinel used in watermark text and export filenames.
func (s *Survey) ProjectRef() string {
	if s.ProjectReference == nil || strings.TrimSpace(*s.ProjectReference) == "" {
		return ProjectRefFallback
	}
	return *s.ProjectReference
}

// Asset represents one physical component recorded during a survey. The
// export pipeline treats each asset as exactly one report page.
type Asset struct {
	ID                  uuid.UUID `db:"id" json:"id"`
	SurveyID            uuid.UUID `db:"survey_id" json:"survey_id"`
	AssetTag            string    `db:"asset_tag" json:"asset_tag"`
	AssetType           string    `db:"asset_type" json:"asset_type"`
	Quantity            int       `db:"quantity" json:"quantity"`
	LocationArea        *string   `db:"location_area" json:"location_area,omitempty"`
	Service             *string   `db:"service" json:"service,omitempty"`
	ComplexityLevel     int       `db:"complexity_level" json:"complexity_level"`
	ObstructionPresent  bool      `db:"obstruction_present" json:"obstruction_present"`
	ObstructionType     *string   `db:"obstruction_type" json:"obstruction_type,omitempty"`
	ObstructionOffsetMM *float64  `db:"obstruction_offset_mm" json:"obstruction_offset_mm,omitempty"`
	ObstructionNotes    *string   `db:"obstruction_notes" json:"obstruction_notes,omitempty"`
	CapEndPresent       bool      `db:"cap_end_present" json:"cap_end_present"`
	CapEndType          *string   `db:"cap_end_type" json:"cap_end_type,omitempty"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time `db:"updated_at" json:"updated_at"`
}

// Location returns the location area or a display fallback.
func (a *Asset) Location() string {
	if a.LocationArea == nil || *a.LocationArea == "" {
		return "N/A"
	}
	return *a.LocationArea
}

// Profile maps a user id to the details the watermark pipeline needs.
type Profile struct {
	ID           uuid.UUID      `db:"id" json:"id"`
	Email        string         `db:"email" json:"email"`
	PasswordHash string         `db:"password_hash" json:"-"`
	Role         watermark.Role `db:"role" json:"role"`
	CompanyName  *string        `db:"company_name" json:"company_name,omitempty"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
}

// =====================================================
// Diagram addressing
// =====================================================

var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9]`)

// DiagramPath resolves the blob-store path of an asset type's reference
// diagram. The mapping is deterministic: non-alphanumerics collapse to
// underscores and the result is lowercased, e.g.
// "Check Valve" -> "templates/check_valve.png".
func DiagramPath(assetType string) string {
	sanitized := strings.ToLower(nonAlphanumeric.ReplaceAllString(assetType, "_"))
	return "templates/" + sanitized + ".png"
}
