package enginepool

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/seekerror/logw"
	"go.uber.org/atomic"

	"github.com/chessgpt/analysiscore/pkg/analysis"
)

// engine is a UCI client wrapping one external search-engine subprocess. Unlike the teacher's
// uci.Driver, which speaks UCI as the engine side to a GUI, engine is the GUI side: it spawns the
// binary, sends position/go/stop/quit, and parses the info/bestmove stream.
type engine struct {
	id  int
	cfg EngineConfig

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	lines  <-chan string
	done   <-chan error

	busy    atomic.Bool
	crashed atomic.Bool
}

// spawnEngine starts the engine binary and brings it up through the UCI handshake.
func spawnEngine(ctx context.Context, id int, cfg EngineConfig) (*engine, error) {
	cmd := exec.Command(cfg.Path, cfg.Args...)
	if len(cfg.Env) > 0 {
		cmd.Env = append(os.Environ(), cfg.Env...)
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("engine %d: stdin pipe: %w", id, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("engine %d: stdout pipe: %w", id, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("engine %d: start %v: %w", id, cfg.Path, err)
	}

	lines, done := readEngineLines(ctx, stdout, cmd)

	e := &engine{id: id, cfg: cfg, cmd: cmd, stdin: stdin, lines: lines, done: done}
	if err := e.handshake(ctx); err != nil {
		_ = e.kill()
		return nil, err
	}
	return e, nil
}

// readEngineLines reads stdout lines into a channel, closing it (and reporting the wait error
// on done) once the subprocess's stdout stream ends. Modeled on the teacher's line-pump idiom
// (ReadStdinLines), adapted to a subprocess pipe instead of os.Stdin.
func readEngineLines(ctx context.Context, stdout io.Reader, cmd *exec.Cmd) (<-chan string, <-chan error) {
	lines := make(chan string, 64)
	done := make(chan error, 1)

	go func() {
		defer close(lines)

		scanner := bufio.NewScanner(stdout)
		scanner.Buffer(make([]byte, 64*1024), 1<<20)
		for scanner.Scan() {
			logw.Debugf(ctx, "<< %v", scanner.Text())
			lines <- scanner.Text()
		}
		done <- cmd.Wait()
		close(done)
	}()

	return lines, done
}

func (e *engine) send(ctx context.Context, format string, args ...any) error {
	line := fmt.Sprintf(format, args...)
	logw.Debugf(ctx, ">> %v", line)
	if _, err := fmt.Fprintln(e.stdin, line); err != nil {
		e.crashed.Store(true)
		return fmt.Errorf("engine %d: write failed: %w", e.id, err)
	}
	return nil
}

// awaitLine reads lines until pred matches one, or ctx is done, or the process exits. Every line
// seen (including the matching one) is passed to collect, if non-nil.
func (e *engine) awaitLine(ctx context.Context, pred func(string) bool, collect func(string)) (string, error) {
	for {
		select {
		case line, ok := <-e.lines:
			if !ok {
				e.crashed.Store(true)
				return "", fmt.Errorf("engine %d: stream closed unexpectedly", e.id)
			}
			if collect != nil {
				collect(line)
			}
			if pred(line) {
				return line, nil
			}
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

func (e *engine) handshake(ctx context.Context) error {
	if err := e.send(ctx, "uci"); err != nil {
		return err
	}
	if _, err := e.awaitLine(ctx, func(l string) bool { return l == "uciok" }, nil); err != nil {
		return fmt.Errorf("engine %d: uci handshake: %w", e.id, err)
	}

	if err := e.send(ctx, "setoption name Threads value 1"); err != nil {
		return err
	}
	if e.cfg.HashMB > 0 {
		if err := e.send(ctx, "setoption name Hash value %d", e.cfg.HashMB); err != nil {
			return err
		}
	}
	if e.cfg.MultiPV > 1 {
		if err := e.send(ctx, "setoption name MultiPV value %d", e.cfg.MultiPV); err != nil {
			return err
		}
	}
	if err := e.send(ctx, "setoption name Ponder value false"); err != nil {
		return err
	}

	if err := e.send(ctx, "isready"); err != nil {
		return err
	}
	if _, err := e.awaitLine(ctx, func(l string) bool { return l == "readyok" }, nil); err != nil {
		return fmt.Errorf("engine %d: isready: %w", e.id, err)
	}
	return nil
}

// analyze runs "go depth d" on fen and parses the resulting info/bestmove stream into an
// EvaluationPair carrying up to k variations.
func (e *engine) analyze(ctx context.Context, fenStr string, depth, k int) (analysis.EvaluationPair, error) {
	if err := e.send(ctx, "position fen %v", fenStr); err != nil {
		return analysis.EvaluationPair{}, err
	}
	if err := e.send(ctx, "go depth %d", depth); err != nil {
		return analysis.EvaluationPair{}, err
	}

	byRank := map[int]analysis.Variation{}
	_, err := e.awaitLine(ctx, func(l string) bool { return strings.HasPrefix(l, "bestmove") }, func(l string) {
		if strings.HasPrefix(l, "info") {
			if v, ok := parseInfoLine(l); ok {
				byRank[v.Rank] = v
			}
		}
	})
	if err != nil {
		return analysis.EvaluationPair{}, fmt.Errorf("engine %d: analyze %v@%d: %w", e.id, fenStr, depth, err)
	}

	var variations []analysis.Variation
	for rank := 1; rank <= len(byRank); rank++ {
		if v, ok := byRank[rank]; ok {
			variations = append(variations, v)
		}
	}
	if len(variations) == 0 {
		return analysis.EvaluationPair{}, fmt.Errorf("engine %d: no variations parsed for %v", e.id, fenStr)
	}
	if k > 0 && k < len(variations) {
		variations = variations[:k]
	}

	return analysis.EvaluationPair{
		FEN:        fenStr,
		Depth:      depth,
		Best:       variations[0],
		Variations: variations,
	}, nil
}

// staticEval requests a static-evaluator dump for fen. The protocol is a "eval" command
// returning "NNUE <piece_id> <cp>" lines and "TERM <name> <cp>" lines, terminated by "evalend".
func (e *engine) staticEval(ctx context.Context, fenStr string) (analysis.NNUEDump, error) {
	if err := e.send(ctx, "position fen %v", fenStr); err != nil {
		return analysis.NNUEDump{}, err
	}
	if err := e.send(ctx, "eval"); err != nil {
		return analysis.NNUEDump{}, err
	}

	dump := analysis.NNUEDump{FEN: fenStr, PerPiece: map[string]int{}, PerTerm: map[string]int{}}
	_, err := e.awaitLine(ctx, func(l string) bool { return l == "evalend" }, func(l string) {
		switch {
		case strings.HasPrefix(l, "NNUE "):
			fields := strings.Fields(l)
			if len(fields) == 3 {
				if cp, err := strconv.Atoi(fields[2]); err == nil {
					dump.PerPiece[fields[1]] = cp
				}
			}
		case strings.HasPrefix(l, "TERM "):
			fields := strings.Fields(l)
			if len(fields) == 3 {
				if cp, err := strconv.Atoi(fields[2]); err == nil {
					dump.PerTerm[fields[1]] = cp
				}
			}
		}
	})
	if err != nil {
		return analysis.NNUEDump{}, fmt.Errorf("engine %d: static eval %v: %w", e.id, fenStr, err)
	}
	dump.Available = true
	return dump, nil
}

func (e *engine) stop(ctx context.Context) {
	_ = e.send(ctx, "stop")
}

// close sends quit and waits briefly for a clean exit, falling back to killing the process.
func (e *engine) close(ctx context.Context) error {
	_ = e.send(ctx, "quit")

	select {
	case err := <-e.done:
		return err
	case <-time.After(2 * time.Second):
		return e.kill()
	case <-ctx.Done():
		return e.kill()
	}
}

func (e *engine) kill() error {
	if e.cmd.Process == nil {
		return nil
	}
	return e.cmd.Process.Kill()
}

func (e *engine) isCrashed() bool {
	return e.crashed.Load()
}

// parseInfoLine extracts a MultiPV variation from a UCI "info" line, if it carries a score and
// a pv. Lines that carry only nodes/time/hashfull housekeeping are ignored (ok=false).
func parseInfoLine(line string) (analysis.Variation, bool) {
	fields := strings.Fields(line)

	v := analysis.Variation{Rank: 1}
	var haveScore, havePV bool

	for i := 0; i < len(fields); i++ {
		switch fields[i] {
		case "multipv":
			if i+1 < len(fields) {
				if n, err := strconv.Atoi(fields[i+1]); err == nil {
					v.Rank = n
				}
			}
		case "depth":
			if i+1 < len(fields) {
				if n, err := strconv.Atoi(fields[i+1]); err == nil {
					v.PVDepth = n
				}
			}
		case "score":
			if i+2 < len(fields) {
				haveScore = true
				switch fields[i+1] {
				case "cp":
					if n, err := strconv.Atoi(fields[i+2]); err == nil {
						v.EvalCP = n
					}
				case "mate":
					if n, err := strconv.Atoi(fields[i+2]); err == nil {
						v.MateIn = n
						if n >= 0 {
							v.EvalCP = 10000 - n
						} else {
							v.EvalCP = -10000 - n
						}
					}
				}
			}
		case "pv":
			havePV = true
			v.PVSan = append([]string{}, fields[i+1:]...)
			i = len(fields)
		}
	}

	if !haveScore || !havePV {
		return analysis.Variation{}, false
	}
	return v, true
}
