// Package uci drives a chess engine process over the Universal Chess
// Interface. One Session wraps one engine process; its lifetime is scoped to
// the analysis of a single game.
package uci

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	defaultReadyTimeout = 4 * time.Second
	searchGrace         = 2 * time.Second
)

// Config holds the engine options applied during the handshake.
type Config struct {
	Threads int
	HashMB  int
}

// Score is a raw engine evaluation, relative to the side to move.
// Either CP is meaningful, or IsMate is set and MatePlies carries the mate
// distance (positive: the side to move mates; zero or negative: it is mated).
type Score struct {
	CP        int
	MatePlies int
	IsMate    bool
}

type Session struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Reader
	mu     sync.Mutex
	search sync.Mutex
}

// NewSession starts the engine binary, performs the uci/isready handshake and
// applies cfg. The caller must Close the session on every exit path.
func NewSession(ctx context.Context, binaryPath string, cfg Config) (*Session, error) {
	cmd := exec.CommandContext(ctx, binaryPath)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("create stdin pipe: %w", err)
	}
	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		stdin.Close()
		return nil, fmt.Errorf("create stdout pipe: %w", err)
	}
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		stdin.Close()
		stdoutPipe.Close()
		return nil, fmt.Errorf("start engine: %w", err)
	}

	s := &Session{
		cmd:    cmd,
		stdin:  stdin,
		stdout: bufio.NewReader(stdoutPipe),
	}

	if err := s.initialize(ctx, cfg); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// NewGame resets the engine state between games.
func (s *Session) NewGame(ctx context.Context) error {
	if err := s.send("ucinewgame\n"); err != nil {
		return fmt.Errorf("send ucinewgame: %w", err)
	}
	return s.ensureReady(ctx)
}

// Evaluate searches the position for moveTime and returns the score of the
// best line as reported on the final info line before bestmove.
func (s *Session) Evaluate(ctx context.Context, fen string, moveTime time.Duration) (Score, error) {
	s.search.Lock()
	defer s.search.Unlock()

	if moveTime <= 0 {
		return Score{}, fmt.Errorf("move time must be positive: %v", moveTime)
	}

	if err := s.send(buildPositionCommand(fen)); err != nil {
		return Score{}, fmt.Errorf("send position: %w", err)
	}
	goCmd := fmt.Sprintf("go movetime %d\n", moveTime.Milliseconds())
	if err := s.send(goCmd); err != nil {
		return Score{}, fmt.Errorf("send go: %w", err)
	}

	searchCtx, cancel := context.WithTimeout(ctx, moveTime*2+searchGrace)
	defer cancel()

	var (
		last     Score
		observed bool
	)
	for {
		line, err := s.readLine(searchCtx)
		if err != nil {
			return Score{}, fmt.Errorf("read engine output (fen=%s): %w", fen, err)
		}
		if line == "" {
			continue
		}

		switch {
		case strings.HasPrefix(line, "info "):
			if sc, ok := parseScore(line); ok {
				last = sc
				observed = true
			}
		case strings.HasPrefix(line, "bestmove"):
			if !observed {
				return Score{}, fmt.Errorf("engine reported no score for position %s", fen)
			}
			return last, nil
		}
	}
}

// Close shuts the engine process down. Safe to call multiple times.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stdin != nil {
		_, _ = io.WriteString(s.stdin, "quit\n")
		s.stdin.Close()
		s.stdin = nil
	}

	if s.cmd != nil && s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
	}
	if s.cmd != nil {
		err := s.cmd.Wait()
		s.cmd = nil
		return err
	}
	return nil
}

func (s *Session) initialize(ctx context.Context, cfg Config) error {
	initCtx, cancel := context.WithTimeout(ctx, defaultReadyTimeout)
	defer cancel()

	if err := s.send("uci\n"); err != nil {
		return fmt.Errorf("send uci: %w", err)
	}
	if err := s.awaitToken(initCtx, "uciok"); err != nil {
		return fmt.Errorf("wait uciok: %w", err)
	}

	threads := cfg.Threads
	if threads <= 0 {
		threads = 1
	}
	opts := []string{
		fmt.Sprintf("setoption name Threads value %d\n", threads),
	}
	if cfg.HashMB > 0 {
		opts = append(opts, fmt.Sprintf("setoption name Hash value %d\n", cfg.HashMB))
	}
	for _, opt := range opts {
		if err := s.send(opt); err != nil {
			return fmt.Errorf("apply options: %w", err)
		}
	}

	if err := s.send("isready\n"); err != nil {
		return fmt.Errorf("send isready: %w", err)
	}
	if err := s.awaitToken(initCtx, "readyok"); err != nil {
		return fmt.Errorf("wait readyok: %w", err)
	}
	return nil
}

func (s *Session) ensureReady(ctx context.Context) error {
	readyCtx, cancel := context.WithTimeout(ctx, defaultReadyTimeout)
	defer cancel()

	if err := s.send("isready\n"); err != nil {
		return fmt.Errorf("send isready: %w", err)
	}
	if err := s.awaitToken(readyCtx, "readyok"); err != nil {
		return fmt.Errorf("wait readyok: %w", err)
	}
	return nil
}

func buildPositionCommand(fen string) string {
	if strings.TrimSpace(fen) == "" || fen == "startpos" {
		return "position startpos\n"
	}
	return "position fen " + fen + "\n"
}

// parseScore extracts the score from a UCI info line. Secondary multipv lines
// are ignored so the returned score always describes the principal variation.
func parseScore(line string) (Score, bool) {
	parts := strings.Fields(line)
	var (
		sc    Score
		found bool
	)
	for i := 0; i < len(parts); i++ {
		switch parts[i] {
		case "multipv":
			if i+1 < len(parts) {
				if v, err := strconv.Atoi(parts[i+1]); err == nil && v != 1 {
					return Score{}, false
				}
				i++
			}
		case "score":
			if i+2 < len(parts) {
				val := parts[i+2]
				switch parts[i+1] {
				case "cp":
					if v, err := strconv.Atoi(val); err == nil {
						sc = Score{CP: v}
						found = true
					}
				case "mate":
					if v, err := strconv.Atoi(val); err == nil {
						sc = Score{MatePlies: v, IsMate: true}
						found = true
					}
				}
				i += 2
			}
		}
	}
	return sc, found
}

func (s *Session) send(msg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stdin == nil {
		return fmt.Errorf("session closed")
	}
	_, err := io.WriteString(s.stdin, msg)
	return err
}

func (s *Session) awaitToken(ctx context.Context, token string) error {
	for {
		line, err := s.readLine(ctx)
		if err != nil {
			return err
		}
		if strings.Contains(line, token) {
			return nil
		}
	}
}

func (s *Session) readLine(ctx context.Context) (string, error) {
	type result struct {
		line string
		err  error
	}
	ch := make(chan result, 1)

	go func() {
		line, err := s.stdout.ReadString('\n')
		ch <- result{line: strings.TrimSpace(line), err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.err != nil {
			return "", res.err
		}
		return res.line, nil
	}
}
