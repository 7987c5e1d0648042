// Package plot renders an evaluation series as a square SVG line chart with a
// transparent background. The margin geometry is a hard contract: the
// compositor scales the board diagram into exactly the axes inset, so the
// inset rectangle must stay at [MarginLow, MarginHigh] of the figure on both
// dimensions.
package plot

import (
	"bytes"
	"fmt"

	svg "github.com/ajstarks/svgo/float"
)

type Renderer struct {
	// Scale is the symmetric Y-axis limit in pawns.
	Scale float64
	// Epsilon keeps capped values off the axis border so the line stays
	// visible when it saturates.
	Epsilon float64
	// Size is the side of the square figure in pixels.
	Size float64
	// MarginLow and MarginHigh bound the axes inset as fractions of Size:
	// the inset spans [MarginLow*Size, MarginHigh*Size].
	MarginLow  float64
	MarginHigh float64
}

// NewRenderer returns a renderer with the reference geometry: ±8 pawns,
// 360px, inset [0.05, 0.98].
func NewRenderer() Renderer {
	return Renderer{
		Scale:      8.0,
		Epsilon:    0.05,
		Size:       360,
		MarginLow:  0.05,
		MarginHigh: 0.98,
	}
}

// Render draws the series. X units are full moves (ply index times 0.5); Y is
// the evaluation clamped to ±(Scale−Epsilon).
func (r Renderer) Render(series []float64) ([]byte, error) {
	if len(series) == 0 {
		return nil, fmt.Errorf("series is empty")
	}
	if r.Scale <= 0 || r.Size <= 0 {
		return nil, fmt.Errorf("invalid plot geometry: scale=%v size=%v", r.Scale, r.Size)
	}
	if r.MarginLow < 0 || r.MarginHigh <= r.MarginLow || r.MarginHigh > 1 {
		return nil, fmt.Errorf("invalid margins: low=%v high=%v", r.MarginLow, r.MarginHigh)
	}

	var buf bytes.Buffer
	canvas := svg.New(&buf)
	canvas.Start(r.Size, r.Size)

	// Zero line first so the curve draws over it.
	canvas.Line(r.xLeft(), r.yAt(0), r.xRight(), r.yAt(0),
		"stroke:#999999;stroke-width:0.5;stroke-dasharray:4 3")

	xs := make([]float64, len(series))
	ys := make([]float64, len(series))
	for i, v := range series {
		xs[i] = r.xAt(i, len(series))
		ys[i] = r.yAt(v)
	}
	canvas.Polyline(xs, ys, "fill:none;stroke:black;stroke-width:1.5")

	// Axes box on top, framing the inset the compositor targets.
	canvas.Rect(r.xLeft(), r.yTop(), r.xRight()-r.xLeft(), r.yBottom()-r.yTop(),
		"fill:none;stroke:black;stroke-width:1")

	canvas.End()
	return buf.Bytes(), nil
}

func (r Renderer) xLeft() float64   { return r.MarginLow * r.Size }
func (r Renderer) xRight() float64  { return r.MarginHigh * r.Size }
func (r Renderer) yTop() float64    { return (1 - r.MarginHigh) * r.Size }
func (r Renderer) yBottom() float64 { return (1 - r.MarginLow) * r.Size }

// xAt maps ply index i of a length-n series onto the inset. The domain is
// [0, 0.5*(n−1)] full moves; a single-point series degenerates to the left
// edge.
func (r Renderer) xAt(i, n int) float64 {
	if n <= 1 {
		return r.xLeft()
	}
	frac := float64(i) / float64(n-1)
	return r.xLeft() + frac*(r.xRight()-r.xLeft())
}

// yAt maps an evaluation value onto the inset, clamping to ±(Scale−Epsilon).
// SVG y grows downward, so +Scale is the top edge.
func (r Renderer) yAt(v float64) float64 {
	cap := r.Scale - r.Epsilon
	if v > cap {
		v = cap
	}
	if v < -cap {
		v = -cap
	}
	frac := (v + r.Scale) / (2 * r.Scale)
	return r.yBottom() - frac*(r.yBottom()-r.yTop())
}
