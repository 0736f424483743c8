// Command xiangqi-replay replays a move list offline and prints the final
// board, both position strings and every move in both notations.
//
//	xiangqi-replay -format notation C2=5 N8+7 N2+3
//	xiangqi-replay -position "rnbakabnr/... w moves h2e2 h9g7"
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/park285/xiangqi-bot/internal/adapter/xiangqipresenter"
	"github.com/park285/xiangqi-bot/internal/msgcat"
	"github.com/park285/xiangqi-bot/internal/xiangqi"
	"github.com/park285/xiangqi-bot/pkg/xiangqidto"
)

func main() {
	format := flag.String("format", "coordinate", "move format: coordinate (uci) or notation")
	position := flag.String("position", "", "full position string to load instead of move arguments")
	flipped := flag.Bool("flip", false, "print the board from Black's side")
	flag.Parse()

	if err := run(os.Stdout, *format, *position, *flipped, flag.Args()); err != nil {
		log.Fatalf("replay: %v", err)
	}
}

func run(w io.Writer, formatName, position string, flipped bool, moves []string) error {
	format, err := xiangqi.ParsePositionFormat(formatName)
	if err != nil {
		return err
	}
	v := xiangqi.NewViewer()
	v.SetFlipped(flipped)

	var replayErr error
	switch {
	case strings.TrimSpace(position) != "":
		replayErr = v.LoadPosition(position, format)
	case format == xiangqi.FormatNotation:
		replayErr = v.LoadNotationMoves(moves)
	default:
		replayErr = v.LoadCoordinateMoves(moves)
	}

	cat, err := msgcat.New("")
	if err != nil {
		return err
	}
	f := xiangqipresenter.NewFormatter(cat)
	g := v.Game()
	views, _ := v.BoardAt(v.MaxIndex())
	dto := make([]xiangqidto.SquareView, len(views))
	for i, sv := range views {
		dto[i] = xiangqidto.SquareView{Row: sv.Row, Col: sv.Col, Identifier: sv.Identifier, Marks: sv.Marks}
	}

	fmt.Fprintln(w, f.Board(dto))
	fmt.Fprintln(w)
	fmt.Fprintln(w, g.Position(xiangqi.FormatCoordinate))
	fmt.Fprintln(w, g.Position(xiangqi.FormatNotation))
	notations := g.Notations()
	for i, m := range g.CoordinateMoves() {
		n := notations[i]
		if n == "" {
			n = "?"
		}
		fmt.Fprintf(w, "%3d. %s %s\n", i+1, m, n)
	}
	fmt.Fprintf(w, "status: %s, %s to move\n", g.Status(), g.Turn())
	return replayErr
}
