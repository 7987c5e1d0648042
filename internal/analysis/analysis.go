// Package analysis turns a game into an evaluation series: one value per ply,
// in pawns from White's point of view.
package analysis

import (
	"context"
	"fmt"
	"time"

	nchess "github.com/corentings/chess/v2"

	"github.com/pgnkit/chesstoc/internal/uci"
)

// Evaluator scores a single position. *uci.Session satisfies it; tests supply
// stubs.
type Evaluator interface {
	Evaluate(ctx context.Context, fen string, moveTime time.Duration) (uci.Score, error)
}

// EvaluatorFunc adapts a function to the Evaluator interface.
type EvaluatorFunc func(ctx context.Context, fen string, moveTime time.Duration) (uci.Score, error)

func (f EvaluatorFunc) Evaluate(ctx context.Context, fen string, moveTime time.Duration) (uci.Score, error) {
	return f(ctx, fen, moveTime)
}

// Analyzer owns the normalization policy for one run.
type Analyzer struct {
	// TimePerMove is the budget for one full move; each position gets half.
	TimePerMove time.Duration
	// MateCapCP is the saturating centipawn magnitude substituted for mate
	// scores, and the clamp for regular scores.
	MateCapCP int
}

// Series evaluates every position of the game's mainline in ply order,
// starting position included. The result has length plies+1. Any evaluation
// failure aborts the series; no partial result is returned.
func (a Analyzer) Series(ctx context.Context, game *nchess.Game, ev Evaluator) ([]float64, error) {
	if game == nil {
		return nil, fmt.Errorf("game is nil")
	}
	if ev == nil {
		return nil, fmt.Errorf("evaluator is nil")
	}
	if a.TimePerMove <= 0 {
		return nil, fmt.Errorf("time per move must be positive: %v", a.TimePerMove)
	}
	cap := a.MateCapCP
	if cap <= 0 {
		return nil, fmt.Errorf("mate score cap must be positive: %d", cap)
	}

	positions := game.Positions()
	perPosition := a.TimePerMove / 2

	series := make([]float64, 0, len(positions))
	for ply, pos := range positions {
		score, err := ev.Evaluate(ctx, pos.String(), perPosition)
		if err != nil {
			return nil, fmt.Errorf("evaluate ply %d: %w", ply, err)
		}
		series = append(series, normalize(score, pos.Turn(), cap))
	}
	return series, nil
}

// normalize converts an engine score, reported relative to the side to move,
// into pawns from White's perspective. Mate scores saturate at capCP with the
// sign of the mating side; "mate 0" means the mover is already mated.
func normalize(score uci.Score, turn nchess.Color, capCP int) float64 {
	cp := score.CP
	if score.IsMate {
		if score.MatePlies > 0 {
			cp = capCP
		} else {
			cp = -capCP
		}
	} else {
		if cp > capCP {
			cp = capCP
		}
		if cp < -capCP {
			cp = -capCP
		}
	}
	if turn == nchess.Black {
		cp = -cp
	}
	return float64(cp) / 100
}
