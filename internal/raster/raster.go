// Package raster converts SVG artifacts to PNG thumbnails.
package raster

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	xdraw "golang.org/x/image/draw"
)

// PNG rasterizes svgData at its native size and scales the result to a square
// thumbnail of the given side.
func PNG(svgData []byte, side int) ([]byte, error) {
	if side <= 0 {
		return nil, fmt.Errorf("thumbnail side must be positive: %d", side)
	}

	icon, err := oksvg.ReadIconStream(bytes.NewReader(svgData), oksvg.IgnoreErrorMode)
	if err != nil {
		return nil, fmt.Errorf("parse svg: %w", err)
	}

	w := int(icon.ViewBox.W)
	h := int(icon.ViewBox.H)
	if w <= 0 || h <= 0 {
		w = side
		h = side
		icon.ViewBox.W = float64(w)
		icon.ViewBox.H = float64(h)
	}
	icon.SetTarget(0, 0, float64(w), float64(h))

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	scanner := rasterx.NewScannerGV(w, h, img, img.Bounds())
	raster := rasterx.NewDasher(w, h, scanner)
	icon.Draw(raster, 1.0)

	out := img
	if w != side || h != side {
		scaled := image.NewRGBA(image.Rect(0, 0, side, side))
		xdraw.CatmullRom.Scale(scaled, scaled.Bounds(), img, img.Bounds(), xdraw.Over, nil)
		out = scaled
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
