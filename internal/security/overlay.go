package security

import (
	"fmt"
	"io"
	"strings"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"

	"tes/survey-portal/survey-portal-backend/internal/watermark"
)

// Surface is the drawing target an overlay strategy renders onto.
type Surface interface {
	Bounds() watermark.Size
}

// CanvasSurface targets a raster drawing context (the live preview path).
type CanvasSurface struct {
	DC *gg.Context
}

// Bounds returns the canvas dimensions
func (s *CanvasSurface) Bounds() watermark.Size {
	return watermark.Size{W: float64(s.DC.Width()), H: float64(s.DC.Height())}
}

// SVGSurface targets a markup stream (the DOM/CSS-background overlay path).
type SVGSurface struct {
	Writer io.Writer
	Size   watermark.Size
}

// Bounds returns the overlay dimensions
func (s *SVGSurface) Bounds() watermark.Size {
	return s.Size
}

// Renderer renders a non-destructive watermark overlay for live viewing.
// Implementations are interchangeable strategies over the same tile plan
// and spec; none of them ever touches the underlying source bytes.
type Renderer interface {
	DrawOverlay(surface Surface, tiles []watermark.Tile, spec watermark.Spec) error
}

// =====================================================
// Canvas strategy
// =====================================================

// CanvasRenderer draws the overlay onto a raster context. Used by the
// diagram preview endpoint, which re-renders per view over a fresh copy of
// the image.
type CanvasRenderer struct {
	brand   *truetype.Font
	regular *truetype.Font
	mono    *truetype.Font
}

// NewCanvasRenderer creates a canvas overlay renderer
func NewCanvasRenderer() (*CanvasRenderer, error) {
	brand, err := truetype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse bold font: %w", err)
	}
	regular, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse regular font: %w", err)
	}
	mono, err := truetype.Parse(gomono.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse mono font: %w", err)
	}
	return &CanvasRenderer{brand: brand, regular: regular, mono: mono}, nil
}

// DrawOverlay renders diagonal tiles (when the spec allows them) and the
// mandatory footer bar onto the canvas.
func (r *CanvasRenderer) DrawOverlay(surface Surface, tiles []watermark.Tile, spec watermark.Spec) error {
	cs, ok := surface.(*CanvasSurface)
	if !ok {
		return fmt.Errorf("canvas renderer requires a CanvasSurface, got %T", surface)
	}
	dc := cs.DC
	size := cs.Bounds()

	if spec.ShowDiagonals {
		for _, t := range tiles {
			dc.Push()
			dc.RotateAbout(gg.Radians(spec.RotationDegrees), t.X, t.Y)

			dc.SetFontFace(r.face(r.brand, 22))
			dc.SetRGBA(0.82, 0, 0, spec.Opacity)
			dc.DrawStringAnchored(spec.Lines[0], t.X, t.Y-18, 0.5, 0.5)

			if len(spec.Lines) > 1 {
				dc.SetFontFace(r.face(r.brand, 16))
				dc.SetRGBA(0.07, 0.07, 0.07, spec.Opacity)
				dc.DrawStringAnchored(spec.Lines[1], t.X, t.Y+10, 0.5, 0.5)
			}
			if len(spec.Lines) > 2 {
				dc.SetFontFace(r.face(r.mono, 12))
				dc.SetRGBA(0.07, 0.07, 0.07, spec.Opacity)
				dc.DrawStringAnchored(spec.Lines[2], t.X, t.Y+34, 0.5, 0.5)
			}

			dc.Pop()
		}
	}

	// Footer bar is mandatory for every role.
	const barH = 30
	dc.SetRGBA(1, 1, 1, 0.85)
	dc.DrawRectangle(0, size.H-barH, size.W, barH)
	dc.Fill()

	dc.SetFontFace(r.face(r.mono, 10))
	dc.SetRGBA(0.2, 0.2, 0.2, 1)
	dc.DrawStringAnchored(spec.FooterText, 10, size.H-barH/2, 0, 0.5)

	return nil
}

func (r *CanvasRenderer) face(f *truetype.Font, size float64) font.Face {
	return truetype.NewFace(f, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingNone})
}

// =====================================================
// SVG strategy
// =====================================================

// SVGRenderer emits the overlay as standalone SVG markup, consumed by the
// browser as a repeating CSS background over the displayed image.
type SVGRenderer struct{}

// NewSVGRenderer creates an SVG overlay renderer
func NewSVGRenderer() *SVGRenderer {
	return &SVGRenderer{}
}

// DrawOverlay writes the SVG document for the given tile plan.
func (r *SVGRenderer) DrawOverlay(surface Surface, tiles []watermark.Tile, spec watermark.Spec) error {
	ss, ok := surface.(*SVGSurface)
	if !ok {
		return fmt.Errorf("svg renderer requires an SVGSurface, got %T", surface)
	}
	w := ss.Writer
	size := ss.Bounds()

	if _, err := fmt.Fprintf(w,
		`<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f">`+"\n",
		size.W, size.H); err != nil {
		return err
	}

	if spec.ShowDiagonals {
		for _, t := range tiles {
			fmt.Fprintf(w,
				`  <g opacity="%.2f" transform="translate(%.1f %.1f) rotate(%.0f)">`+"\n",
				spec.Opacity, t.X, t.Y, spec.RotationDegrees)
			fmt.Fprintf(w,
				`    <text x="0" y="-18" text-anchor="middle" font-family="Arial, sans-serif" font-size="22" font-weight="700" fill="#d10000">%s</text>`+"\n",
				escapeXML(spec.Lines[0]))
			if len(spec.Lines) > 1 {
				fmt.Fprintf(w,
					`    <text x="0" y="10" text-anchor="middle" font-family="Arial, sans-serif" font-size="16" font-weight="700" fill="#111">%s</text>`+"\n",
					escapeXML(spec.Lines[1]))
			}
			if len(spec.Lines) > 2 {
				fmt.Fprintf(w,
					`    <text x="0" y="34" text-anchor="middle" font-family="monospace" font-size="12" fill="#111">%s</text>`+"\n",
					escapeXML(spec.Lines[2]))
			}
			fmt.Fprintln(w, "  </g>")
		}
	}

	fmt.Fprintf(w,
		`  <rect x="0" y="%.0f" width="%.0f" height="30" fill="rgba(255,255,255,0.85)" />`+"\n",
		size.H-30, size.W)
	fmt.Fprintf(w,
		`  <text x="10" y="%.0f" font-family="monospace" font-size="10" fill="#333">%s</text>`+"\n",
		size.H-11, escapeXML(spec.FooterText))

	_, err := fmt.Fprintln(w, `</svg>`)
	return err
}

var xmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

func escapeXML(s string) string {
	return xmlEscaper.Replace(s)
}
