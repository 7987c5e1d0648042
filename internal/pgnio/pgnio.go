// Package pgnio reads games from a PGN stream and collects the per-game
// metadata the table of contents needs.
package pgnio

import (
	"fmt"
	"io"
	"strings"

	nchess "github.com/corentings/chess/v2"
)

// headerKeys is the set of PGN tags surfaced into Meta.Headers when present.
var headerKeys = []string{
	"Event", "Site", "Date", "Round", "White", "Black", "Result",
	"WhiteElo", "BlackElo", "ECO", "Opening", "TimeControl", "Termination",
}

// Meta describes one game's position in the input file plus its headers.
// WhiteResult and BlackResult are the two halves of the Result tag, split for
// convenience of the page template.
type Meta struct {
	Index       int
	Headers     map[string]string
	WhiteResult string
	BlackResult string
}

// Entry is one parsed game with its metadata.
type Entry struct {
	Game *nchess.Game
	Meta Meta
}

// Reader iterates the games of a PGN stream in file order.
type Reader struct {
	scanner *nchess.Scanner
	index   int
}

func NewReader(r io.Reader) *Reader {
	return &Reader{scanner: nchess.NewScanner(r)}
}

// Next returns the next game, or io.EOF when the stream is exhausted. Parse
// errors and games without a reachable final position are fatal.
func (r *Reader) Next() (*Entry, error) {
	if !r.scanner.HasNext() {
		return nil, io.EOF
	}
	r.index++

	game, err := r.scanner.ParseNext()
	if err != nil {
		return nil, fmt.Errorf("parse game %d: %w", r.index, err)
	}
	if game == nil || len(game.Moves()) == 0 {
		return nil, fmt.Errorf("game %d has no moves; is the file legal PGN?", r.index)
	}

	meta := Meta{
		Index:   r.index,
		Headers: make(map[string]string, len(headerKeys)),
	}
	for _, key := range headerKeys {
		if v := game.GetTagPair(key); v != "" {
			meta.Headers[key] = v
		}
	}
	meta.WhiteResult, meta.BlackResult = splitResult(meta.Headers["Result"])

	return &Entry{Game: game, Meta: meta}, nil
}

// splitResult turns "1-0", "0-1" or "1/2-1/2" into per-color results.
// Unfinished ("*") or missing results yield empty strings.
func splitResult(result string) (white, black string) {
	parts := strings.Split(strings.TrimSpace(result), "-")
	if len(parts) != 2 {
		return "", ""
	}
	return parts[0], parts[1]
}
