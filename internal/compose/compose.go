// Package compose merges the board diagram and the evaluation plot into one
// SVG document. The board is scaled and translated to sit exactly under the
// plot's axes inset; composition is pure coordinate-space nesting, no
// rasterization.
package compose

import (
	"bytes"
	"fmt"
	"os"
	"regexp"

	"github.com/srwiley/oksvg"
)

type Compositor struct {
	// Size is the side of the combined square document.
	Size float64
	// MarginLow and MarginHigh must match the plot renderer's inset policy.
	MarginLow  float64
	MarginHigh float64
}

func NewCompositor(size, marginLow, marginHigh float64) Compositor {
	return Compositor{Size: size, MarginLow: marginLow, MarginHigh: marginHigh}
}

// Combine layers the plot over the board. The board layer is scaled by
// (MarginHigh−MarginLow) and translated so its top-left corner lands on the
// inset origin; the plot goes on top unscaled. Malformed or empty input is a
// fatal error.
func (c Compositor) Combine(boardSVG, plotSVG []byte) ([]byte, error) {
	if c.Size <= 0 {
		return nil, fmt.Errorf("size must be positive: %v", c.Size)
	}
	if c.MarginLow < 0 || c.MarginHigh <= c.MarginLow || c.MarginHigh > 1 {
		return nil, fmt.Errorf("invalid margins: low=%v high=%v", c.MarginLow, c.MarginHigh)
	}
	if err := validateSVG("board", boardSVG); err != nil {
		return nil, err
	}
	if err := validateSVG("plot", plotSVG); err != nil {
		return nil, err
	}

	scale := c.MarginHigh - c.MarginLow
	dx := c.MarginLow * c.Size
	dy := (1 - c.MarginHigh) * c.Size

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" width="%g" height="%g" viewBox="0 0 %g %g">`+"\n",
		c.Size, c.Size, c.Size, c.Size)
	fmt.Fprintf(&buf, `<g transform="translate(%g,%g) scale(%g)">`+"\n", dx, dy, scale)
	buf.Write(stripProlog(boardSVG))
	buf.WriteString("\n</g>\n<g>\n")
	buf.Write(stripProlog(plotSVG))
	buf.WriteString("\n</g>\n</svg>\n")
	return buf.Bytes(), nil
}

// CombineFiles reads both inputs from disk and writes the combined document.
// A missing input file fails the composition.
func (c Compositor) CombineFiles(boardPath, plotPath, outPath string) error {
	boardSVG, err := os.ReadFile(boardPath)
	if err != nil {
		return fmt.Errorf("read board image: %w", err)
	}
	plotSVG, err := os.ReadFile(plotPath)
	if err != nil {
		return fmt.Errorf("read plot image: %w", err)
	}
	combined, err := c.Combine(boardSVG, plotSVG)
	if err != nil {
		return err
	}
	if err := os.WriteFile(outPath, combined, 0o644); err != nil {
		return fmt.Errorf("write combined image: %w", err)
	}
	return nil
}

func validateSVG(kind string, data []byte) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return fmt.Errorf("%s image is empty", kind)
	}
	if _, err := oksvg.ReadIconStream(bytes.NewReader(data), oksvg.IgnoreErrorMode); err != nil {
		return fmt.Errorf("%s image is malformed: %w", kind, err)
	}
	return nil
}

var prologRe = regexp.MustCompile(`(?s)<\?xml.*?\?>|<!DOCTYPE[^>]*>`)

// stripProlog drops the XML declaration and doctype so the document can be
// embedded as a nested <svg> element.
func stripProlog(data []byte) []byte {
	return bytes.TrimSpace(prologRe.ReplaceAll(data, nil))
}
