// Package board renders a position as a square SVG diagram: 8×8 colored
// squares with figurine glyphs, no coordinate labels.
package board

import (
	"bytes"
	"fmt"

	svg "github.com/ajstarks/svgo/float"
	nchess "github.com/corentings/chess/v2"
)

const (
	lightSquareFill = "#e9cfa3"
	darkSquareFill  = "#bb8860"
)

type Renderer struct {
	// Size is the side of the square diagram in pixels.
	Size float64
}

func NewRenderer(size float64) Renderer {
	return Renderer{Size: size}
}

// Render draws the given position.
func (r Renderer) Render(pos *nchess.Position) ([]byte, error) {
	if pos == nil {
		return nil, fmt.Errorf("position is nil")
	}
	if r.Size <= 0 {
		return nil, fmt.Errorf("size must be positive: %v", r.Size)
	}

	square := r.Size / 8
	boardMap := pos.Board().SquareMap()

	var buf bytes.Buffer
	canvas := svg.New(&buf)
	canvas.Start(r.Size, r.Size)

	ranks := []nchess.Rank{nchess.Rank8, nchess.Rank7, nchess.Rank6, nchess.Rank5, nchess.Rank4, nchess.Rank3, nchess.Rank2, nchess.Rank1}
	files := []nchess.File{nchess.FileA, nchess.FileB, nchess.FileC, nchess.FileD, nchess.FileE, nchess.FileF, nchess.FileG, nchess.FileH}

	for row, rank := range ranks {
		for col, file := range files {
			sq := nchess.NewSquare(file, rank)
			x := float64(col) * square
			y := float64(row) * square
			canvas.Rect(x, y, square, square, "fill:"+squareFill(sq))

			piece := boardMap[sq]
			if piece == nchess.NoPiece {
				continue
			}
			glyph, err := pieceGlyph(piece)
			if err != nil {
				return nil, err
			}
			canvas.Text(x+square/2, y+square*0.72, glyph,
				fmt.Sprintf("font-size:%.2fpx;text-anchor:middle;font-family:sans-serif", square*0.78))
		}
	}

	canvas.End()
	return buf.Bytes(), nil
}

func squareFill(sq nchess.Square) string {
	if (int(sq.File())+int(sq.Rank()))%2 == 0 {
		return darkSquareFill
	}
	return lightSquareFill
}

func pieceGlyph(piece nchess.Piece) (string, error) {
	white := piece.Color() == nchess.White
	switch piece.Type() {
	case nchess.King:
		return pick(white, "♔", "♚"), nil
	case nchess.Queen:
		return pick(white, "♕", "♛"), nil
	case nchess.Rook:
		return pick(white, "♖", "♜"), nil
	case nchess.Bishop:
		return pick(white, "♗", "♝"), nil
	case nchess.Knight:
		return pick(white, "♘", "♞"), nil
	case nchess.Pawn:
		return pick(white, "♙", "♟"), nil
	}
	return "", fmt.Errorf("unknown piece %v", piece)
}

func pick(white bool, w, b string) string {
	if white {
		return w
	}
	return b
}
