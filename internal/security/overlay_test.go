package security

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tes/survey-portal/survey-portal-backend/internal/watermark"
)

// MockDiagramStore is a mock implementation of the DiagramStore interface
type MockDiagramStore struct {
	mock.Mock
}

func (m *MockDiagramStore) Download(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func clientIdentity() watermark.Identity {
	return watermark.Identity{
		UserID:      "6f1e6a52-4f2a-4f6e-9f0e-27d93ab1c001",
		Role:        watermark.RoleClient,
		CompanyName: "Acme & Sons",
		UserLabel:   "surveyor@acme.example",
	}
}

func internalIdentity() watermark.Identity {
	id := clientIdentity()
	id.Role = watermark.RoleInternal
	return id
}

func renderSVG(t *testing.T, identity watermark.Identity) string {
	t.Helper()
	size := watermark.Size{W: 1040, H: 640}
	spec := watermark.NewSpec(identity, "PRJ-2026-001", time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC))
	tiles := watermark.PlanTiles(size, spec.TileSize)

	var buf bytes.Buffer
	err := NewSVGRenderer().DrawOverlay(&SVGSurface{Writer: &buf, Size: size}, tiles, spec)
	require.NoError(t, err)
	return buf.String()
}

func TestSVGOverlayClientSeesDiagonals(t *testing.T) {
	svg := renderSVG(t, clientIdentity())

	assert.Contains(t, svg, "TES - PROPRIETARY SYSTEM")
	assert.Contains(t, svg, "rotate(-30)")
	assert.Contains(t, svg, "JOB: PRJ-2026-001")
	// Company names are not trusted markup.
	assert.Contains(t, svg, "LICENSED TO: ACME &amp; SONS")
	assert.NotContains(t, svg, "ACME & SONS")
}

func TestSVGOverlayInternalSuppressesDiagonals(t *testing.T) {
	svg := renderSVG(t, internalIdentity())

	assert.NotContains(t, svg, "rotate(-30)")
	assert.NotContains(t, svg, "LICENSED TO")
	// The attribution footer is rendered for every role.
	assert.Contains(t, svg, "JOB: PRJ-2026-001")
	assert.Contains(t, svg, "2026-03-14")
}

func TestCanvasOverlayRejectsWrongSurface(t *testing.T) {
	renderer, err := NewCanvasRenderer()
	require.NoError(t, err)

	var buf bytes.Buffer
	err = renderer.DrawOverlay(&SVGSurface{Writer: &buf, Size: watermark.Size{W: 10, H: 10}}, nil, watermark.Spec{})
	assert.Error(t, err)
}

func diagramPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 240, G: 240, B: 240, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestRenderPreviewLeavesSourceUntouched(t *testing.T) {
	source := diagramPNG(t, 200, 120)
	original := append([]byte(nil), source...)

	store := new(MockDiagramStore)
	store.On("Download", mock.Anything, "templates/check_valve.png").Return(source, nil)

	service, err := NewPreviewService(store, zap.NewNop())
	require.NoError(t, err)

	out, err := service.RenderPreview(context.Background(), "Check Valve", "PRJ-2026-001", clientIdentity())
	require.NoError(t, err)

	assert.Equal(t, original, source)
	assert.NotEmpty(t, out)

	// Output is a decodable PNG with the source dimensions.
	img, _, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 200, img.Bounds().Dx())
	assert.Equal(t, 120, img.Bounds().Dy())
}

func TestRenderPreviewMissingDiagram(t *testing.T) {
	store := new(MockDiagramStore)
	notFound := errors.New("storage: object not found")
	store.On("Download", mock.Anything, mock.Anything).Return(nil, notFound)

	service, err := NewPreviewService(store, zap.NewNop())
	require.NoError(t, err)

	_, err = service.RenderPreview(context.Background(), "Check Valve", "PRJ-2026-001", clientIdentity())
	assert.ErrorIs(t, err, notFound)
}

func TestOverlaySVGSizing(t *testing.T) {
	store := new(MockDiagramStore)
	service, err := NewPreviewService(store, zap.NewNop())
	require.NoError(t, err)

	svg, err := service.OverlaySVG(clientIdentity(), "PRJ-2026-001", watermark.Size{W: 800, H: 600})
	require.NoError(t, err)

	assert.Contains(t, string(svg), `width="800"`)
	assert.Contains(t, string(svg), `height="600"`)
}
