package watermark

import (
	"fmt"
	"strings"
	"time"
)

// Org is the short organisation name stamped into every watermark layer.
const Org = "TES"

// Role is the closed set of portal roles. It parameterizes watermark text
// and decides whether diagonal tiling is rendered on live views.
type Role string

const (
	RoleAdmin         Role = "admin"
	RoleInternal      Role = "internal"
	RoleClient        Role = "client"
	RoleManufacturing Role = "manufacturing"
)

// Identity is the caller's identity tuple, resolved once per request by the
// auth layer and threaded explicitly through every watermark consumer.
type Identity struct {
	UserID      string `json:"user_id"`
	Role        Role   `json:"role"`
	CompanyName string `json:"company_name"`
	// UserLabel is the human-readable attribution string (email when known,
	// user id otherwise).
	UserLabel string `json:"user_label"`
}

// ShowDiagonals is the single role policy for diagonal tiling on live
// viewing surfaces: internal staff get a clean drawing, everyone else sees
// the full pattern. The footer/attribution bar is rendered regardless of
// role; this policy only governs the diagonals.
func ShowDiagonals(role Role) bool {
	return role != RoleInternal
}

// Spec describes one watermark rendering. It is derived fresh per render
// from the identity, the job reference and the current date — never cached
// across requests.
type Spec struct {
	Lines           []string `json:"lines"`
	FooterText      string   `json:"footer_text"`
	TileSize        Size     `json:"tile_size"`
	RotationDegrees float64  `json:"rotation_degrees"`
	Opacity         float64  `json:"opacity"`
	ShowDiagonals   bool     `json:"show_diagonals"`
}

// NewSpec builds the overlay spec used by the live renderers.
func NewSpec(identity Identity, jobRef string, now time.Time) Spec {
	dateStr := now.UTC().Format("2006-01-02")
	return Spec{
		Lines: []string{
			Org + " - PROPRIETARY SYSTEM",
			"LICENSED TO: " + strings.ToUpper(identity.CompanyName),
			"USER: " + identity.UserID,
		},
		FooterText: fmt.Sprintf("© %s - PROPRIETARY SYSTEM | JOB: %s | %s", Org, jobRef, dateStr),
		// Matches the repeat size of the browser overlay pattern.
		TileSize:        Size{W: 520, H: 320},
		RotationDegrees: -30,
		Opacity:         0.18,
		ShowDiagonals:   ShowDiagonals(identity.Role),
	}
}
