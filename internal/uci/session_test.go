package uci

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

func TestParseScore(t *testing.T) {
	cases := []struct {
		name string
		line string
		want Score
		ok   bool
	}{
		{
			name: "cp",
			line: "info depth 20 seldepth 28 score cp 34 nodes 100 pv e2e4",
			want: Score{CP: 34},
			ok:   true,
		},
		{
			name: "negative cp",
			line: "info depth 12 score cp -180 pv d7d5",
			want: Score{CP: -180},
			ok:   true,
		},
		{
			name: "mate for mover",
			line: "info depth 10 score mate 3 pv h5f7",
			want: Score{MatePlies: 3, IsMate: true},
			ok:   true,
		},
		{
			name: "mate against mover",
			line: "info depth 10 score mate -2 pv g8f8",
			want: Score{MatePlies: -2, IsMate: true},
			ok:   true,
		},
		{
			name: "mated now",
			line: "info depth 0 score mate 0",
			want: Score{MatePlies: 0, IsMate: true},
			ok:   true,
		},
		{
			name: "secondary multipv ignored",
			line: "info depth 18 multipv 2 score cp 11 pv c2c4",
			ok:   false,
		},
		{
			name: "principal multipv accepted",
			line: "info depth 18 multipv 1 score cp 11 pv e2e4",
			want: Score{CP: 11},
			ok:   true,
		},
		{
			name: "no score",
			line: "info depth 5 currmove e2e4 currmovenumber 1",
			ok:   false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := parseScore(tc.line)
			if ok != tc.ok {
				t.Fatalf("ok = %v, want %v", ok, tc.ok)
			}
			if ok && got != tc.want {
				t.Fatalf("score = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestBuildPositionCommand(t *testing.T) {
	if got := buildPositionCommand("startpos"); got != "position startpos\n" {
		t.Fatalf("startpos command = %q", got)
	}
	if got := buildPositionCommand("  "); got != "position startpos\n" {
		t.Fatalf("blank fen command = %q", got)
	}
	fen := "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"
	if got := buildPositionCommand(fen); got != "position fen "+fen+"\n" {
		t.Fatalf("fen command = %q", got)
	}
}

// writeFakeEngine creates an executable shell script that speaks just enough
// UCI for the session handshake and a single kind of search reply.
func writeFakeEngine(t *testing.T, goReply string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake engine script requires a POSIX shell")
	}
	script := `#!/bin/sh
while read line; do
  case "$line" in
    uci) echo "id name fakefish"; echo "uciok";;
    isready) echo "readyok";;
    go*) ` + goReply + `;;
    quit) exit 0;;
    *) ;;
  esac
done
`
	path := filepath.Join(t.TempDir(), "fakefish")
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write fake engine: %v", err)
	}
	return path
}

func TestSessionEvaluate(t *testing.T) {
	bin := writeFakeEngine(t, `echo "info depth 10 score cp 23 pv e2e4"; echo "bestmove e2e4"`)

	ctx := context.Background()
	s, err := NewSession(ctx, bin, Config{Threads: 1})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	if err := s.NewGame(ctx); err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	sc, err := s.Evaluate(ctx, "startpos", 50*time.Millisecond)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if sc.IsMate || sc.CP != 23 {
		t.Fatalf("score = %+v, want cp 23", sc)
	}
}

func TestSessionEvaluateMate(t *testing.T) {
	bin := writeFakeEngine(t, `echo "info depth 6 score mate -4 pv e8f8"; echo "bestmove e8f8"`)

	ctx := context.Background()
	s, err := NewSession(ctx, bin, Config{Threads: 1})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	sc, err := s.Evaluate(ctx, "startpos", 50*time.Millisecond)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !sc.IsMate || sc.MatePlies != -4 {
		t.Fatalf("score = %+v, want mate -4", sc)
	}
}

func TestSessionEngineCrashIsFatal(t *testing.T) {
	// Engine that dies as soon as a search is requested.
	bin := writeFakeEngine(t, `exit 1`)

	ctx := context.Background()
	s, err := NewSession(ctx, bin, Config{Threads: 1})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	if _, err := s.Evaluate(ctx, "startpos", 50*time.Millisecond); err == nil {
		t.Fatalf("expected error after engine crash")
	}
}

func TestNewSessionMissingBinary(t *testing.T) {
	_, err := NewSession(context.Background(), filepath.Join(t.TempDir(), "nope"), Config{})
	if err == nil {
		t.Fatalf("expected error for missing binary")
	}
}
