// Package pipeline drives the whole run: read games, evaluate, render, and
// write the table of contents.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	nchess "github.com/corentings/chess/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pgnkit/chesstoc/internal/analysis"
	"github.com/pgnkit/chesstoc/internal/board"
	"github.com/pgnkit/chesstoc/internal/compose"
	"github.com/pgnkit/chesstoc/internal/config"
	"github.com/pgnkit/chesstoc/internal/eco"
	"github.com/pgnkit/chesstoc/internal/pgnio"
	"github.com/pgnkit/chesstoc/internal/plot"
	"github.com/pgnkit/chesstoc/internal/raster"
	"github.com/pgnkit/chesstoc/internal/toc"
	"github.com/pgnkit/chesstoc/internal/uci"
)

// Pipeline processes one PGN stream sequentially. Each game gets its own
// engine process; any failure aborts the run.
type Pipeline struct {
	cfg   *config.AppConfig
	log   *zap.Logger
	runID string

	plot  plot.Renderer
	board board.Renderer
	comp  compose.Compositor
	toc   toc.Writer
}

func New(cfg *config.AppConfig, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{
		cfg:   cfg,
		log:   log,
		runID: uuid.NewString(),
		plot: plot.Renderer{
			Scale:      cfg.PlotScale,
			Epsilon:    cfg.PlotEpsilon,
			Size:       cfg.Size,
			MarginLow:  cfg.MarginLow,
			MarginHigh: cfg.MarginHigh,
		},
		board: board.NewRenderer(cfg.Size),
		comp:  compose.NewCompositor(cfg.Size, cfg.MarginLow, cfg.MarginHigh),
		toc:   toc.Writer{TemplateDir: cfg.TemplateDir, CSSPath: cfg.CSSPath},
	}
}

// RunID identifies this run in logs and the generated page.
func (p *Pipeline) RunID() string { return p.runID }

// Run consumes the PGN stream until EOF or the configured game limit.
func (p *Pipeline) Run(ctx context.Context, pgn io.Reader) error {
	if err := os.MkdirAll(p.cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	start := time.Now()
	reader := pgnio.NewReader(pgn)
	var games []toc.GameEntry
	for {
		if p.cfg.MaxGames > 0 && len(games) >= p.cfg.MaxGames {
			p.log.Info("game limit reached", zap.Int("max_games", p.cfg.MaxGames))
			break
		}
		entry, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		rec, err := p.processGame(ctx, entry)
		if err != nil {
			return fmt.Errorf("game %d: %w", entry.Meta.Index, err)
		}
		games = append(games, rec)
	}

	if len(games) == 0 {
		return fmt.Errorf("no games in input")
	}

	if p.cfg.HTMLOutput != "" {
		page := toc.Page{
			Games:       games,
			Columns:     p.cfg.Columns,
			RunID:       p.runID,
			GeneratedAt: time.Now(),
		}
		if err := p.toc.WriteFile(p.cfg.HTMLOutput, page); err != nil {
			return err
		}
	}

	p.log.Info("run complete",
		zap.String("run_id", p.runID),
		zap.Int("games", len(games)),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

func (p *Pipeline) processGame(ctx context.Context, entry *pgnio.Entry) (toc.GameEntry, error) {
	started := time.Now()
	rec := toc.GameEntry{
		Index:   entry.Meta.Index,
		Headers: entry.Meta.Headers,
	}

	opening, ok, err := eco.Classify(entry.Game)
	switch {
	case err != nil:
		return rec, fmt.Errorf("classify opening: %w", err)
	case ok:
		rec.ECO = opening.ECO
		rec.Opening = opening.Name
	default:
		rec.ECO = entry.Meta.Headers["ECO"]
		rec.Opening = entry.Meta.Headers["Opening"]
	}

	positions := entry.Game.Positions()
	final := positions[len(positions)-1]
	boardSVG, err := p.board.Render(final)
	if err != nil {
		return rec, fmt.Errorf("render board: %w", err)
	}
	boardPath := p.artifact(entry.Meta.Index, "-board.svg")
	if err := os.WriteFile(boardPath, boardSVG, 0o644); err != nil {
		return rec, fmt.Errorf("write board svg: %w", err)
	}
	rec.SVGBoard = filepath.Base(boardPath)

	if !p.cfg.DryRun {
		series, err := p.analyzeGame(ctx, entry.Game)
		if err != nil {
			return rec, err
		}
		plotSVG, err := p.plot.Render(series)
		if err != nil {
			return rec, fmt.Errorf("render plot: %w", err)
		}
		plotPath := p.artifact(entry.Meta.Index, "-plot.svg")
		if err := os.WriteFile(plotPath, plotSVG, 0o644); err != nil {
			return rec, fmt.Errorf("write plot svg: %w", err)
		}
		rec.SVGPlot = filepath.Base(plotPath)

		combinedPath := p.artifact(entry.Meta.Index, ".svg")
		if err := p.comp.CombineFiles(boardPath, plotPath, combinedPath); err != nil {
			return rec, err
		}
		rec.SVGCombined = filepath.Base(combinedPath)

		if p.cfg.Thumbnails {
			combined, err := os.ReadFile(combinedPath)
			if err != nil {
				return rec, fmt.Errorf("read combined svg: %w", err)
			}
			png, err := raster.PNG(combined, p.cfg.ThumbSize)
			if err != nil {
				return rec, fmt.Errorf("rasterize thumbnail: %w", err)
			}
			pngPath := p.artifact(entry.Meta.Index, ".png")
			if err := os.WriteFile(pngPath, png, 0o644); err != nil {
				return rec, fmt.Errorf("write thumbnail: %w", err)
			}
			rec.PNGThumb = filepath.Base(pngPath)
		}
	}

	p.log.Info("game processed",
		zap.Int("index", entry.Meta.Index),
		zap.String("white", entry.Meta.Headers["White"]),
		zap.String("black", entry.Meta.Headers["Black"]),
		zap.Int("plies", len(positions)-1),
		zap.String("eco", rec.ECO),
		zap.Bool("dry_run", p.cfg.DryRun),
		zap.Duration("elapsed", time.Since(started)))
	return rec, nil
}

// analyzeGame runs a dedicated engine process for one game. The session is
// closed before the next game starts regardless of outcome.
func (p *Pipeline) analyzeGame(ctx context.Context, game *nchess.Game) ([]float64, error) {
	session, err := uci.NewSession(ctx, p.cfg.EnginePath, uci.Config{Threads: p.cfg.Threads})
	if err != nil {
		return nil, fmt.Errorf("start engine %q: %w", p.cfg.EnginePath, err)
	}
	defer session.Close()

	if err := session.NewGame(ctx); err != nil {
		return nil, err
	}
	analyzer := analysis.Analyzer{
		TimePerMove: p.cfg.TimePerMove,
		MateCapCP:   p.cfg.MateScoreCap,
	}
	return analyzer.Series(ctx, game, session)
}

func (p *Pipeline) artifact(index int, suffix string) string {
	return filepath.Join(p.cfg.OutputDir, fmt.Sprintf("%03d%s", index, suffix))
}
