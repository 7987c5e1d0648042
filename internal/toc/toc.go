// Package toc assembles the browsable summary page for a set of analyzed
// games.
package toc

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

//go:embed template.html chesstoc.css
var defaultFiles embed.FS

// GameEntry is the metadata record for one game, handed to the template.
type GameEntry struct {
	Index       int
	Headers     map[string]string
	ECO         string
	Opening     string
	SVGBoard    string
	SVGPlot     string
	SVGCombined string
	PNGThumb    string
}

// White, Black, Result and Event are template conveniences over Headers.
func (g GameEntry) White() string  { return g.Headers["White"] }
func (g GameEntry) Black() string  { return g.Headers["Black"] }
func (g GameEntry) Result() string { return g.Headers["Result"] }
func (g GameEntry) Event() string  { return g.Headers["Event"] }
func (g GameEntry) Date() string   { return g.Headers["Date"] }

// Image returns the artifact to show in the grid cell: the PNG thumbnail when
// one was produced, otherwise the combined SVG.
func (g GameEntry) Image() string {
	if g.PNGThumb != "" {
		return g.PNGThumb
	}
	return g.SVGCombined
}

// Page is everything the template renders.
type Page struct {
	Games       []GameEntry
	Columns     int
	RunID       string
	GeneratedAt time.Time
	CSS         template.CSS
}

// Writer renders the table of contents. TemplateDir and CSSPath, when set,
// override the embedded defaults.
type Writer struct {
	TemplateDir string
	CSSPath     string
}

// Write renders the page to out.
func (w Writer) Write(out io.Writer, page Page) error {
	if page.Columns <= 0 {
		page.Columns = 4
	}

	css, err := w.loadCSS()
	if err != nil {
		return err
	}
	page.CSS = template.CSS(css)

	tmpl, err := w.loadTemplate()
	if err != nil {
		return err
	}
	if err := tmpl.Execute(out, page); err != nil {
		return fmt.Errorf("render table of contents: %w", err)
	}
	return nil
}

// WriteFile renders the page to path.
func (w Writer) WriteFile(path string, page Page) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create html output: %w", err)
	}
	defer f.Close()
	return w.Write(f, page)
}

func (w Writer) loadTemplate() (*template.Template, error) {
	if strings.TrimSpace(w.TemplateDir) != "" {
		path := filepath.Join(w.TemplateDir, "template.html")
		tmpl, err := template.ParseFiles(path)
		if err != nil {
			return nil, fmt.Errorf("parse template %q: %w", path, err)
		}
		return tmpl, nil
	}
	tmpl, err := template.ParseFS(defaultFiles, "template.html")
	if err != nil {
		return nil, fmt.Errorf("parse embedded template: %w", err)
	}
	return tmpl, nil
}

func (w Writer) loadCSS() (string, error) {
	if strings.TrimSpace(w.CSSPath) != "" {
		data, err := os.ReadFile(w.CSSPath)
		if err != nil {
			return "", fmt.Errorf("read stylesheet %q: %w", w.CSSPath, err)
		}
		return string(data), nil
	}
	data, err := defaultFiles.ReadFile("chesstoc.css")
	if err != nil {
		return "", fmt.Errorf("read embedded stylesheet: %w", err)
	}
	return string(data), nil
}
