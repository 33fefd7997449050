// Package uci implements the Universal Chess Interface protocol
// surface described in SPEC_FULL.md §6.1: a line-oriented command
// loop over stdin/stdout driving an internal/engine.Engine.
package uci

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hailam/nnueuchess/internal/board"
	"github.com/hailam/nnueuchess/internal/engine"
)

// UCI drives an Engine from lines of UCI protocol text.
type UCI struct {
	engine *engine.Engine
}

// New creates a UCI handler around eng.
func New(eng *engine.Engine) *UCI {
	return &UCI{engine: eng}
}

// Run reads commands from stdin until "quit" or EOF, one per line.
func (u *UCI) Run() {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		cmd, args := fields[0], fields[1:]

		switch cmd {
		case "uci":
			u.handleUCI()
		case "isready":
			fmt.Println("readyok")
		case "ucinewgame":
			u.engine.SetPosition(board.NewPosition(), nil)
		case "setoption":
			u.handleSetOption(args)
		case "position":
			u.handlePosition(args)
		case "go":
			u.handleGo(args)
		case "stop":
			u.engine.Stop()
		case "quit":
			u.engine.Stop()
			if err := u.engine.Close(); err != nil {
				fmt.Fprintf(os.Stderr, "info string %v\n", err)
			}
			return
		case "d":
			fmt.Println(u.engine.Position().String())
		case "perft":
			u.handlePerft(args)
		default:
			fmt.Fprintf(os.Stderr, "info string unknown command: %s\n", cmd)
		}
	}
}

func (u *UCI) handleUCI() {
	fmt.Println("id name NNUEUChess")
	fmt.Println("id author the nnueuchess contributors")
	fmt.Println("option name Threads type spin default 1 min 1 max 64")
	fmt.Println("option name Hash type spin default 16 min 1 max 33554432")
	fmt.Println("option name EvalFile type string default <empty>")
	fmt.Println("uciok")
}

// handleSetOption implements "setoption name <NAME> [value <VAL>]"
// for exactly the names §6.1 recognises; anything else is ignored to
// preserve forward-compatibility with GUIs that send extra options.
func (u *UCI) handleSetOption(args []string) {
	name, value, ok := parseSetOption(args)
	if !ok {
		return
	}
	switch strings.ToLower(name) {
	case "threads":
		n, err := strconv.Atoi(value)
		if err != nil {
			fmt.Fprintf(os.Stderr, "info string bad Threads value: %s\n", value)
			return
		}
		u.engine.SetThreads(n)
	case "hash":
		n, err := strconv.Atoi(value)
		if err != nil {
			fmt.Fprintf(os.Stderr, "info string bad Hash value: %s\n", value)
			return
		}
		u.engine.SetHash(n)
	case "evalfile":
		if err := u.engine.LoadNetwork(value); err != nil {
			fmt.Fprintf(os.Stderr, "info string %v\n", err)
		}
	default:
		fmt.Fprintf(os.Stderr, "info string unknown option: %s\n", name)
	}
}

// parseSetOption extracts NAME and VAL from "name <NAME> [value <VAL>]",
// where NAME itself may contain spaces (it doesn't for any name this
// engine recognises, but the parsing follows the UCI grammar anyway).
func parseSetOption(args []string) (name, value string, ok bool) {
	if len(args) == 0 || args[0] != "name" {
		return "", "", false
	}
	args = args[1:]
	var nameParts, valueParts []string
	inValue := false
	for _, a := range args {
		if a == "value" {
			inValue = true
			continue
		}
		if inValue {
			valueParts = append(valueParts, a)
		} else {
			nameParts = append(nameParts, a)
		}
	}
	if len(nameParts) == 0 {
		return "", "", false
	}
	return strings.Join(nameParts, " "), strings.Join(valueParts, " "), true
}

// handlePosition implements "position {startpos|fen <6 fields>} [moves ...]".
func (u *UCI) handlePosition(args []string) {
	if len(args) == 0 {
		return
	}

	var pos *board.Position
	var rest []string

	switch args[0] {
	case "startpos":
		pos = board.NewPosition()
		rest = args[1:]
	case "fen":
		fenEnd := len(args)
		for i := 1; i < len(args); i++ {
			if args[i] == "moves" {
				fenEnd = i
				break
			}
		}
		if fenEnd <= 1 {
			return
		}
		fenStr := strings.Join(args[1:fenEnd], " ")
		p, err := board.ParseFEN(fenStr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "info string invalid FEN: %v\n", err)
			return
		}
		pos = p
		rest = args[fenEnd:]
	default:
		return
	}

	var moves []string
	if len(rest) > 0 && rest[0] == "moves" {
		moves = rest[1:]
	}
	u.engine.SetPosition(pos, moves)
}

// handleGo implements "go [wtime N] [btime N] [winc N] [binc N]
// [depth N] [movetime N]" and blocks until the search returns,
// printing the single required "bestmove" line.
func (u *UCI) handleGo(args []string) {
	limits := parseGoLimits(args)
	move, _ := u.engine.Go(limits)
	if move == board.NoMove {
		fmt.Println("bestmove 0000")
		return
	}
	fmt.Printf("bestmove %s\n", move.String())
}

func parseGoLimits(args []string) engine.UCILimits {
	var limits engine.UCILimits
	for i := 0; i < len(args); i++ {
		if i+1 >= len(args) {
			break
		}
		key, val := args[i], args[i+1]
		n, err := strconv.Atoi(val)
		if err != nil {
			continue
		}
		switch key {
		case "wtime":
			limits.WTime = time.Duration(n) * time.Millisecond
		case "btime":
			limits.BTime = time.Duration(n) * time.Millisecond
		case "winc":
			limits.WInc = time.Duration(n) * time.Millisecond
		case "binc":
			limits.BInc = time.Duration(n) * time.Millisecond
		case "movetime":
			limits.MoveTime = time.Duration(n) * time.Millisecond
		case "depth":
			limits.Depth = n
		default:
			continue
		}
		i++
	}
	return limits
}

// handlePerft runs the "perft <depth>" debug extension, printing the
// per-move split and the total node count in the conventional format.
func (u *UCI) handlePerft(args []string) {
	if len(args) == 0 {
		return
	}
	depth, err := strconv.Atoi(args[0])
	if err != nil || depth < 1 {
		return
	}
	pos := u.engine.Position()
	moves := pos.GenerateLegalMoves()
	var total uint64
	for i := 0; i < moves.Len(); i++ {
		m := moves.Get(i)
		undo := pos.MakeMove(m)
		n := u.engine.Perft(depth - 1)
		pos.UnmakeMove(m, undo)
		fmt.Printf("%s: %d\n", m.String(), n)
		total += n
	}
	fmt.Printf("\nNodes searched: %d\n", total)
}
