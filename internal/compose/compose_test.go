package compose

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/srwiley/oksvg"
)

const (
	boardFixture = `<?xml version="1.0"?><svg xmlns="http://www.w3.org/2000/svg" width="360" height="360"><rect x="0" y="0" width="360" height="360" fill="#bb8860"/></svg>`
	plotFixture  = `<svg xmlns="http://www.w3.org/2000/svg" width="360" height="360"><polyline points="18,174.6 352.8,174.6" fill="none" stroke="black"/></svg>`
)

func TestCombineGeometry(t *testing.T) {
	c := NewCompositor(360, 0.05, 0.98)
	out, err := c.Combine([]byte(boardFixture), []byte(plotFixture))
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	s := string(out)

	// Board layer: translate(0.05*360, 0.02*360), scale(0.98-0.05).
	if !strings.Contains(s, `transform="translate(18,7.2) scale(0.93)"`) {
		t.Fatalf("board transform missing or wrong:\n%s", s)
	}
	if !strings.Contains(s, `viewBox="0 0 360 360"`) {
		t.Fatalf("combined viewBox wrong:\n%s", s)
	}
	// Both layers present, plot after board so it draws on top.
	boardIdx := strings.Index(s, "#bb8860")
	plotIdx := strings.Index(s, "<polyline")
	if boardIdx == -1 || plotIdx == -1 || plotIdx < boardIdx {
		t.Fatalf("layer order wrong (board=%d plot=%d):\n%s", boardIdx, plotIdx, s)
	}
	// XML prolog of the nested document must not survive embedding.
	if strings.Contains(s, "<?xml") {
		t.Fatalf("nested xml declaration leaked into output:\n%s", s)
	}

	// Combined output must itself be a parseable SVG document.
	if _, err := oksvg.ReadIconStream(bytes.NewReader(out), oksvg.IgnoreErrorMode); err != nil {
		t.Fatalf("combined output does not parse: %v", err)
	}
}

func TestCombineScaledBoardSide(t *testing.T) {
	c := NewCompositor(360, 0.05, 0.98)
	// 0.93 * 360 = 334.8: the documented board footprint inside the inset.
	if got := (c.MarginHigh - c.MarginLow) * c.Size; got != 334.8 {
		t.Fatalf("scaled board side = %v, want 334.8", got)
	}
}

func TestCombineRejectsMalformedInput(t *testing.T) {
	c := NewCompositor(360, 0.05, 0.98)
	if _, err := c.Combine([]byte("<svg><rect"), []byte(plotFixture)); err == nil {
		t.Fatalf("expected error for malformed board svg")
	}
	if _, err := c.Combine([]byte(boardFixture), nil); err == nil {
		t.Fatalf("expected error for empty plot svg")
	}
}

func TestCombineFiles(t *testing.T) {
	dir := t.TempDir()
	boardPath := filepath.Join(dir, "board.svg")
	plotPath := filepath.Join(dir, "plot.svg")
	outPath := filepath.Join(dir, "combined.svg")

	if err := os.WriteFile(boardPath, []byte(boardFixture), 0o644); err != nil {
		t.Fatalf("write board: %v", err)
	}
	if err := os.WriteFile(plotPath, []byte(plotFixture), 0o644); err != nil {
		t.Fatalf("write plot: %v", err)
	}

	c := NewCompositor(360, 0.05, 0.98)
	if err := c.CombineFiles(boardPath, plotPath, outPath); err != nil {
		t.Fatalf("CombineFiles: %v", err)
	}
	if _, err := os.Stat(outPath); err != nil {
		t.Fatalf("combined file missing: %v", err)
	}
}

func TestCombineFilesMissingInput(t *testing.T) {
	dir := t.TempDir()
	plotPath := filepath.Join(dir, "plot.svg")
	if err := os.WriteFile(plotPath, []byte(plotFixture), 0o644); err != nil {
		t.Fatalf("write plot: %v", err)
	}
	c := NewCompositor(360, 0.05, 0.98)
	err := c.CombineFiles(filepath.Join(dir, "missing.svg"), plotPath, filepath.Join(dir, "out.svg"))
	if err == nil {
		t.Fatalf("expected error for missing board file")
	}
}
