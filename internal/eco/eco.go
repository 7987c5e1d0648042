// Package eco classifies a game's opening against a bundled reference set of
// ECO lines keyed by FEN prefix.
package eco

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	nchess "github.com/corentings/chess/v2"
)

//go:embed data/eco.json
var ecoData []byte

// Opening is one classified opening line.
type Opening struct {
	ECO  string `json:"eco"`
	Name string `json:"name"`
}

type record struct {
	ECO  string `json:"eco"`
	Name string `json:"name"`
	FEN  string `json:"fen"`
}

var (
	tableOnce sync.Once
	table     map[string]Opening
	tableErr  error
)

func loadTable() (map[string]Opening, error) {
	tableOnce.Do(func() {
		var records []record
		if err := json.Unmarshal(ecoData, &records); err != nil {
			tableErr = fmt.Errorf("decode opening dataset: %w", err)
			return
		}
		m := make(map[string]Opening, len(records))
		for _, r := range records {
			key := Prefix(r.FEN)
			if key == "" {
				tableErr = fmt.Errorf("opening dataset entry %q/%q has empty fen", r.ECO, r.Name)
				return
			}
			m[key] = Opening{ECO: r.ECO, Name: r.Name}
		}
		table = m
	})
	return table, tableErr
}

// Prefix reduces a FEN to its first three fields (placement, side to move,
// castling rights). En passant and the move counters are dropped so that
// transposed move orders still hit the same entry.
func Prefix(fen string) string {
	fields := strings.Fields(fen)
	if len(fields) > 3 {
		fields = fields[:3]
	}
	return strings.Join(fields, " ")
}

// Classify walks the game's positions from the final ply back to the start
// and returns the first (deepest) position found in the reference set. The
// boolean reports whether any position matched.
func Classify(game *nchess.Game) (Opening, bool, error) {
	if game == nil {
		return Opening{}, false, fmt.Errorf("game is nil")
	}
	t, err := loadTable()
	if err != nil {
		return Opening{}, false, err
	}

	positions := game.Positions()
	for i := len(positions) - 1; i >= 0; i-- {
		if op, ok := t[Prefix(positions[i].String())]; ok {
			return op, true, nil
		}
	}
	return Opening{}, false, nil
}
