package security

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"time"

	// register decoders for diagram templates
	_ "image/jpeg"
	_ "image/png"

	"github.com/fogleman/gg"
	"go.uber.org/zap"

	"tes/survey-portal/survey-portal-backend/internal/surveys"
	"tes/survey-portal/survey-portal-backend/internal/watermark"
)

// DiagramStore fetches diagram template bytes by storage key.
type DiagramStore interface {
	Download(ctx context.Context, key string) ([]byte, error)
}

// PreviewService renders watermarked previews of diagram templates for live
// viewing. Every call works on a fresh copy of the source; the stored
// template is never modified.
type PreviewService struct {
	diagrams DiagramStore
	canvas   *CanvasRenderer
	svg      *SVGRenderer
	logger   *zap.Logger
	now      func() time.Time
}

// NewPreviewService creates a preview service
func NewPreviewService(diagrams DiagramStore, logger *zap.Logger) (*PreviewService, error) {
	canvas, err := NewCanvasRenderer()
	if err != nil {
		return nil, fmt.Errorf("init canvas renderer: %w", err)
	}
	return &PreviewService{
		diagrams: diagrams,
		canvas:   canvas,
		svg:      NewSVGRenderer(),
		logger:   logger,
		now:      time.Now,
	}, nil
}

// RenderPreview returns a PNG of the named diagram template with the live
// overlay drawn on top for the given identity.
func (s *PreviewService) RenderPreview(ctx context.Context, assetType, jobRef string, identity watermark.Identity) ([]byte, error) {
	key := surveys.DiagramPath(assetType)
	raw, err := s.diagrams.Download(ctx, key)
	if err != nil {
		return nil, err
	}

	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode diagram %s: %w", key, err)
	}

	dc := gg.NewContextForImage(src)
	size := watermark.Size{W: float64(dc.Width()), H: float64(dc.Height())}
	spec := watermark.NewSpec(identity, jobRef, s.now())
	tiles := watermark.PlanTiles(size, spec.TileSize)

	if err := s.canvas.DrawOverlay(&CanvasSurface{DC: dc}, tiles, spec); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode preview: %w", err)
	}

	s.logger.Info("Rendered diagram preview",
		zap.String("asset_type", assetType),
		zap.String("user_id", identity.UserID))
	return buf.Bytes(), nil
}

// OverlaySVG returns a standalone SVG overlay sized for the viewer, used by
// the frontend as a repeating layer above displayed images.
func (s *PreviewService) OverlaySVG(identity watermark.Identity, jobRef string, size watermark.Size) ([]byte, error) {
	spec := watermark.NewSpec(identity, jobRef, s.now())
	tiles := watermark.PlanTiles(size, spec.TileSize)

	var buf bytes.Buffer
	if err := s.svg.DrawOverlay(&SVGSurface{Writer: &buf, Size: size}, tiles, spec); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
