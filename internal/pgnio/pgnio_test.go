package pgnio

import (
	"errors"
	"io"
	"strings"
	"testing"
)

const twoGamePGN = `[Event "Casual Game"]
[Site "?"]
[Date "2024.01.06"]
[White "Alice"]
[Black "Bob"]
[Result "1-0"]

1. e4 e5 2. Nf3 Nc6 3. Bb5 1-0

[Event "Casual Game"]
[Site "?"]
[Date "2024.01.07"]
[White "Bob"]
[Black "Alice"]
[Result "1/2-1/2"]

1. d4 d5 2. c4 e6 1/2-1/2
`

func TestReadTwoGames(t *testing.T) {
	r := NewReader(strings.NewReader(twoGamePGN))

	first, err := r.Next()
	if err != nil {
		t.Fatalf("first Next: %v", err)
	}
	if first.Meta.Index != 1 {
		t.Fatalf("first index = %d, want 1", first.Meta.Index)
	}
	if got := first.Meta.Headers["White"]; got != "Alice" {
		t.Fatalf("first White = %q", got)
	}
	if first.Meta.WhiteResult != "1" || first.Meta.BlackResult != "0" {
		t.Fatalf("first split result = %q/%q", first.Meta.WhiteResult, first.Meta.BlackResult)
	}
	if got := len(first.Game.Moves()); got != 5 {
		t.Fatalf("first game plies = %d, want 5", got)
	}

	second, err := r.Next()
	if err != nil {
		t.Fatalf("second Next: %v", err)
	}
	if second.Meta.Index != 2 {
		t.Fatalf("second index = %d, want 2", second.Meta.Index)
	}
	if second.Meta.WhiteResult != "1/2" || second.Meta.BlackResult != "1/2" {
		t.Fatalf("second split result = %q/%q", second.Meta.WhiteResult, second.Meta.BlackResult)
	}

	if _, err := r.Next(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF after last game, got %v", err)
	}
}

func TestSplitResult(t *testing.T) {
	cases := []struct {
		in           string
		white, black string
	}{
		{"1-0", "1", "0"},
		{"0-1", "0", "1"},
		{"1/2-1/2", "1/2", "1/2"},
		{"*", "", ""},
		{"", "", ""},
	}
	for _, tc := range cases {
		w, b := splitResult(tc.in)
		if w != tc.white || b != tc.black {
			t.Fatalf("splitResult(%q) = %q/%q, want %q/%q", tc.in, w, b, tc.white, tc.black)
		}
	}
}

func TestEmptyStream(t *testing.T) {
	r := NewReader(strings.NewReader(""))
	if _, err := r.Next(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF on empty stream, got %v", err)
	}
}
