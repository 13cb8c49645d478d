package export

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tes/survey-portal/survey-portal-backend/internal/surveys"
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

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 230, G: 230, B: 230, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func testSurvey() *surveys.Survey {
	ref := "PRJ-2026-001"
	return &surveys.Survey{
		ID:               uuid.New(),
		ClientName:       "Acme Industrial",
		SiteName:         "Unit 3 Boiler House",
		SurveyDate:       time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
		SurveyorName:     "J. Smith",
		ProjectReference: &ref,
		Status:           surveys.SurveyStatusComplete,
	}
}

func testAsset(tag, assetType string) *surveys.Asset {
	return &surveys.Asset{
		ID:        uuid.New(),
		AssetTag:  tag,
		AssetType: assetType,
		Quantity:  2,
	}
}

func testIdentity() watermark.Identity {
	return watermark.Identity{
		UserID:      "6f1e6a52-4f2a-4f6e-9f0e-27d93ab1c001",
		Role:        watermark.RoleClient,
		CompanyName: "Acme Industrial",
		UserLabel:   "surveyor@acme.example",
	}
}

func newTestAssembler(t *testing.T, store DiagramStore) *Assembler {
	t.Helper()
	compositor, err := watermark.NewCompositor()
	require.NoError(t, err)

	a := NewAssembler(store, compositor, zap.NewNop())
	a.compress = false
	return a
}

func TestAssembleReportEmptySurvey(t *testing.T) {
	store := new(MockDiagramStore)
	a := newTestAssembler(t, store)

	doc := a.buildDocument(context.Background(), testSurvey(), nil, testIdentity())
	assert.Equal(t, 1, doc.PageCount())
	assert.False(t, doc.Err())

	store.AssertNotCalled(t, "Download")
}

func TestAssembleReportOnePagePerAsset(t *testing.T) {
	store := new(MockDiagramStore)
	store.On("Download", mock.Anything, "templates/check_valve.png").Return(testPNG(t, 120, 80), nil)
	store.On("Download", mock.Anything, "templates/gate_valve.png").Return(testPNG(t, 120, 80), nil)
	store.On("Download", mock.Anything, "templates/strainer.png").Return(testPNG(t, 120, 80), nil)

	a := newTestAssembler(t, store)
	assets := []*surveys.Asset{
		testAsset("CV-001", "Check Valve"),
		testAsset("GV-002", "Gate Valve"),
		testAsset("ST-003", "Strainer"),
	}

	doc := a.buildDocument(context.Background(), testSurvey(), assets, testIdentity())
	assert.Equal(t, 3, doc.PageCount())
	assert.False(t, doc.Err())
}

func TestAssembleReportDiagramFailureDegradesToPlaceholder(t *testing.T) {
	store := new(MockDiagramStore)
	store.On("Download", mock.Anything, "templates/check_valve.png").Return(testPNG(t, 120, 80), nil)
	store.On("Download", mock.Anything, "templates/gate_valve.png").Return(nil, errors.New("connection reset"))
	store.On("Download", mock.Anything, "templates/strainer.png").Return(testPNG(t, 120, 80), nil)

	a := newTestAssembler(t, store)
	assets := []*surveys.Asset{
		testAsset("CV-001", "Check Valve"),
		testAsset("GV-002", "Gate Valve"),
		testAsset("ST-003", "Strainer"),
	}

	data, err := a.AssembleReport(context.Background(), testSurvey(), assets, testIdentity())
	require.NoError(t, err)

	// All three pages survive; the broken one carries the placeholder text.
	assert.Contains(t, string(data), "DIAGRAM UNAVAILABLE")
	assert.Contains(t, string(data), "Gate Valve")
}

func TestAssembleReportContent(t *testing.T) {
	store := new(MockDiagramStore)
	store.On("Download", mock.Anything, mock.Anything).Return(testPNG(t, 200, 150), nil)

	a := newTestAssembler(t, store)
	a.now = func() time.Time { return time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC) }

	assets := []*surveys.Asset{testAsset("CV-001", "Check Valve")}
	data, err := a.AssembleReport(context.Background(), testSurvey(), assets, testIdentity())
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))

	body := string(data)
	assert.Contains(t, body, "Unit 3 Boiler House")
	assert.Contains(t, body, "CV-001")
	assert.Contains(t, body, "PRJ-2026-001")
	assert.Contains(t, body, "2026-03-14")
	assert.Contains(t, body, "LICENSED TO: ACME INDUSTRIAL")
	assert.Contains(t, body, "DO NOT DISTRIBUTE - DOWNLOADED BY surveyor@acme.example")
}

func TestAssembleReportGarbageDiagramBytes(t *testing.T) {
	store := new(MockDiagramStore)
	store.On("Download", mock.Anything, mock.Anything).Return([]byte("not an image"), nil)

	a := newTestAssembler(t, store)
	assets := []*surveys.Asset{testAsset("CV-001", "Check Valve")}

	data, err := a.AssembleReport(context.Background(), testSurvey(), assets, testIdentity())
	require.NoError(t, err)
	assert.Contains(t, string(data), "DIAGRAM UNAVAILABLE")
}
