package export

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"go.uber.org/zap"

	"tes/survey-portal/survey-portal-backend/internal/surveys"
	"tes/survey-portal/survey-portal-backend/internal/watermark"
)

// DiagramStore provides read access to reference diagrams by storage key
type DiagramStore interface {
	Download(ctx context.Context, key string) ([]byte, error)
}

// Compositor burns identity text into diagram pixels
type Compositor interface {
	Burn(imageBytes []byte, identity watermark.Identity, jobRef string) ([]byte, error)
}

// Layout constants, in PDF points on an A4 portrait page
const (
	marginX       = 50
	titleY        = 64
	assetLineY    = 92
	locationLineY = 110
	imageTopY     = 140
	imageScale    = 0.5
	footerOffsetY = 30
	placeholderX  = 50
	placeholderY  = 200
	placeholderW  = 400
	placeholderH  = 200
)

// Assembler builds the multi-page survey report: one page per asset, each
// carrying a header block, the watermarked diagram (or a placeholder) and an
// attribution footer, all over a page-level diagonal watermark.
type Assembler struct {
	diagrams   DiagramStore
	compositor Compositor
	logger     *zap.Logger
	now        func() time.Time
	compress   bool
}

// NewAssembler creates a report assembler
func NewAssembler(diagrams DiagramStore, compositor Compositor, logger *zap.Logger) *Assembler {
	return &Assembler{
		diagrams:   diagrams,
		compositor: compositor,
		logger:     logger,
		now:        time.Now,
		compress:   true,
	}
}

// diagramOutcome is the explicit per-asset result of the fetch+burn stage.
// A set err means the asset's page gets the placeholder box; it is never
// propagated past the page boundary.
type diagramOutcome struct {
	png []byte
	err error
}

// AssembleReport builds and serializes the survey report. The output always
// has max(1, len(assets)) pages: per-asset diagram failures degrade to a
// visible placeholder instead of aborting the report.
func (a *Assembler) AssembleReport(ctx context.Context, survey *surveys.Survey, assets []*surveys.Asset, identity watermark.Identity) ([]byte, error) {
	doc := a.buildDocument(ctx, survey, assets, identity)

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("serialize report: %w", err)
	}
	return buf.Bytes(), nil
}

func (a *Assembler) buildDocument(ctx context.Context, survey *surveys.Survey, assets []*surveys.Asset, identity watermark.Identity) *gofpdf.Fpdf {
	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetCompression(a.compress)
	pdf.SetAutoPageBreak(false, 0)
	jobRef := survey.ProjectRef()

	if len(assets) == 0 {
		pdf.AddPage()
		pdf.SetFont("Times", "", 20)
		pdf.SetTextColor(0, 0, 0)
		pdf.Text(marginX, 80, fmt.Sprintf("Survey Report: %s (Empty)", survey.SiteName))
		return pdf
	}

	// Assets render strictly in query order; pages must match row order.
	for i, asset := range assets {
		outcome := a.resolveDiagram(ctx, asset, identity, jobRef)
		a.drawAssetPage(pdf, i, survey, asset, identity, jobRef, outcome)
	}
	return pdf
}

// resolveDiagram fetches and watermarks one asset's diagram. Every failure
// mode (missing blob, undecodable bytes, encoding error) collapses into the
// outcome value so the caller's partial-failure policy stays in one place.
func (a *Assembler) resolveDiagram(ctx context.Context, asset *surveys.Asset, identity watermark.Identity, jobRef string) diagramOutcome {
	raw, err := a.diagrams.Download(ctx, surveys.DiagramPath(asset.AssetType))
	if err != nil {
		a.logger.Warn("Diagram fetch failed",
			zap.String("asset_tag", asset.AssetTag),
			zap.String("asset_type", asset.AssetType),
			zap.Error(err))
		return diagramOutcome{err: err}
	}

	burned, err := a.compositor.Burn(raw, identity, jobRef)
	if err != nil {
		a.logger.Warn("Diagram watermarking failed",
			zap.String("asset_tag", asset.AssetTag),
			zap.String("asset_type", asset.AssetType),
			zap.Error(err))
		return diagramOutcome{err: err}
	}
	return diagramOutcome{png: burned}
}

func (a *Assembler) drawAssetPage(pdf *gofpdf.Fpdf, index int, survey *surveys.Survey, asset *surveys.Asset, identity watermark.Identity, jobRef string, outcome diagramOutcome) {
	pdf.AddPage()
	pageW, pageH := pdf.GetPageSize()

	// Page-level diagonal watermark goes down first so the content sits on
	// top of it. It is deliberately redundant with the raster burn inside
	// the embedded diagram: stripping the image alone does not strip
	// attribution from the page.
	a.drawPageWatermark(pdf, pageW, pageH, identity, jobRef)

	tr := pdf.UnicodeTranslatorFromDescriptor("")

	// Header block
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Times", "", 20)
	pdf.Text(marginX, titleY, tr(fmt.Sprintf("Survey Report: %s", survey.SiteName)))

	pdf.SetFont("Times", "", 14)
	pdf.Text(marginX, assetLineY, tr(fmt.Sprintf("Asset Tag: %s (%s)", asset.AssetTag, asset.AssetType)))

	pdf.SetFont("Times", "", 12)
	pdf.SetTextColor(77, 77, 77)
	pdf.Text(marginX, locationLineY, tr(fmt.Sprintf("Location: %s | Qty: %d", asset.Location(), asset.Quantity)))

	if outcome.err == nil {
		a.embedDiagram(pdf, index, pageW, outcome.png, asset)
	} else {
		a.drawPlaceholder(pdf, asset)
	}

	// Footer warning
	pdf.SetFont("Times", "", 8)
	pdf.SetTextColor(128, 128, 128)
	pdf.Text(marginX, pageH-footerOffsetY, tr(fmt.Sprintf("%s PROPERTY - DO NOT DISTRIBUTE - DOWNLOADED BY %s", watermark.Org, identity.UserLabel)))
}

// embedDiagram centers the watermarked PNG at half native resolution.
func (a *Assembler) embedDiagram(pdf *gofpdf.Fpdf, index int, pageW float64, png []byte, asset *surveys.Asset) {
	name := fmt.Sprintf("diagram-%d-%s", index, asset.ID)
	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	info := pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(png))
	if info == nil || pdf.Err() {
		a.drawPlaceholder(pdf, asset)
		return
	}

	imgW := info.Width() * imageScale
	imgH := info.Height() * imageScale
	x := (pageW - imgW) / 2
	pdf.ImageOptions(name, x, imageTopY, imgW, imgH, false, opts, 0, "")
}

// drawPlaceholder renders the red-bordered DIAGRAM UNAVAILABLE box used
// when an asset's diagram cannot be fetched or watermarked.
func (a *Assembler) drawPlaceholder(pdf *gofpdf.Fpdf, asset *surveys.Asset) {
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetDrawColor(255, 0, 0)
	pdf.SetLineWidth(2)
	pdf.Rect(placeholderX, placeholderY, placeholderW, placeholderH, "D")

	pdf.SetFont("Times", "", 20)
	pdf.SetTextColor(255, 0, 0)
	pdf.Text(placeholderX+20, placeholderY+110, "DIAGRAM UNAVAILABLE")

	pdf.SetFont("Times", "", 10)
	pdf.SetTextColor(128, 0, 0)
	pdf.Text(placeholderX+20, placeholderY+140, tr(fmt.Sprintf("(System could not load template for: %s)", asset.AssetType)))
}

// drawPageWatermark tiles three diagonal attribution lines across the page
// chrome using the document's own drawing primitives.
func (a *Assembler) drawPageWatermark(pdf *gofpdf.Fpdf, pageW, pageH float64, identity watermark.Identity, jobRef string) {
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	dateStr := a.now().UTC().Format("2006-01-02")

	line1 := watermark.Org + " - PROPRIETARY SYSTEM"
	line2 := "LICENSED TO: " + tr(strings.ToUpper(identity.CompanyName))
	line3 := tr(fmt.Sprintf("REF: %s • %s • %s", jobRef, dateStr, identity.UserLabel))

	stepX := math.Max(180, math.Floor(pageW/3))
	stepY := math.Max(220, math.Floor(pageH/3))

	for y := -stepY; y < pageH+stepY; y += stepY {
		for x := -stepX; x < pageW+stepX; x += stepX {
			pdf.TransformBegin()
			pdf.TransformRotate(30, x, y)

			pdf.SetFont("Times", "", 18)
			pdf.SetTextColor(209, 0, 0)
			pdf.SetAlpha(0.12, "Normal")
			pdf.Text(x, y, line1)

			pdf.SetFont("Times", "", 12)
			pdf.SetTextColor(26, 26, 26)
			pdf.SetAlpha(0.10, "Normal")
			pdf.Text(x, y+18, line2)

			pdf.SetFont("Times", "", 9)
			pdf.SetAlpha(0.08, "Normal")
			pdf.Text(x, y+34, line3)

			pdf.TransformEnd()
		}
	}
	pdf.SetAlpha(1, "Normal")
}
