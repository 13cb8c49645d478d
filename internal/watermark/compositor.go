package watermark

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"math"
	"strings"
	"time"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
)

var (
	// ErrUnsupportedImage is returned when the input bytes cannot be decoded.
	// Decoding fails closed: the compositor never passes unwatermarked bytes
	// through.
	ErrUnsupportedImage = errors.New("watermark: unsupported image")

	// ErrEncoding is returned when the composited image cannot be re-encoded.
	ErrEncoding = errors.New("watermark: png encoding failed")
)

const (
	diagonalRotationDeg = -30
	captionText         = "UNAUTHORIZED REPRODUCTION PROHIBITED"
)

// Compositor burns identifying text irreversibly into image pixels. The
// output is always PNG so the diagram, a contractual manufacturing
// reference, is never degraded by lossy re-encoding.
type Compositor struct {
	brand   *truetype.Font
	regular *truetype.Font
	mono    *truetype.Font
	now     func() time.Time
}

// NewCompositor creates a compositor backed by the embedded Go font faces,
// so burning requires no font assets on disk.
func NewCompositor() (*Compositor, error) {
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
	return &Compositor{brand: brand, regular: regular, mono: mono, now: time.Now}, nil
}

// Burn decodes imageBytes, composites the diagonal tiling, footer bar and
// forensic fingerprint over the pixels, and re-encodes to PNG. The input
// slice is never mutated; a new buffer is returned on every call. Burning an
// already-burned image accumulates another layer, which is expected.
//
// The returned buffer is binary image data. It must never be written to a
// text log channel.
func (c *Compositor) Burn(imageBytes []byte, identity Identity, jobRef string) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(imageBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	fw := float64(width)
	fh := float64(height)

	dc := gg.NewContext(width, height)
	dc.DrawImage(img, 0, 0)

	canvas := Size{W: fw, H: fh}
	tiles := PlanTiles(canvas, DefaultTileSize(canvas))

	now := c.now()
	dateStr := now.UTC().Format("2006-01-02")
	brandLine := fmt.Sprintf("LICENSED TO: %s - %s", strings.ToUpper(identity.CompanyName), identity.UserID)
	footerLine := fmt.Sprintf("© %s - PROPRIETARY SYSTEM | JOB: %s | %s", Org, jobRef, dateStr)
	fingerprint := fmt.Sprintf("%s_%d", identity.UserID, now.UnixMilli())

	// All font sizes scale with image width so proportions hold for small
	// thumbnails and full-resolution diagrams alike.
	brandFace := c.face(c.brand, fontSize(fw*0.04))
	captionFace := c.face(c.brand, fontSize(fw*0.03))

	for _, t := range tiles {
		dc.Push()
		dc.RotateAbout(gg.Radians(diagonalRotationDeg), t.X, t.Y)

		dc.SetFontFace(brandFace)
		dc.SetRGBA(1, 0, 0, 0.15)
		dc.DrawStringAnchored(brandLine, t.X, t.Y, 0.5, 0.5)

		dc.SetFontFace(captionFace)
		dc.SetRGBA(0, 0, 0, 0.20)
		dc.DrawStringAnchored(captionText, t.X, t.Y+40, 0.5, 0.5)

		dc.Pop()
	}

	// Footer bar: near-opaque white strip with the job/date attribution.
	barH := math.Max(40, fh*0.04)
	dc.SetRGBA(1, 1, 1, 0.9)
	dc.DrawRectangle(0, fh-barH, fw, barH)
	dc.Fill()

	dc.SetFontFace(c.face(c.mono, 14))
	dc.SetRGBA(0, 0, 0, 1)
	dc.DrawStringAnchored(footerLine, fw/2, fh-barH/2, 0.5, 0.5)

	// Forensic fingerprint: near-invisible, survives cropping of the visible
	// layers as long as the top-left corner does.
	dc.SetFontFace(c.face(c.regular, 5))
	dc.SetRGBA(0, 0, 0, 0.01)
	dc.DrawString(fingerprint, 10, 10)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	return buf.Bytes(), nil
}

func (c *Compositor) face(f *truetype.Font, size float64) font.Face {
	return truetype.NewFace(f, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingNone})
}

func fontSize(v float64) float64 {
	s := math.Floor(v)
	if s < 6 {
		return 6
	}
	return s
}
