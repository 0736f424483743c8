package match

import (
	"github.com/park285/xiangqi-bot/internal/xiangqi"
	"github.com/park285/xiangqi-bot/pkg/xiangqidto"
)

// stateOf renders the live game. Callers hold mt.mu.
func stateOf(mt *Match) xiangqidto.MatchState {
	g := mt.viewer.Game()
	players := g.Players()
	st := xiangqidto.MatchState{
		ID:               mt.ID,
		White:            players[xiangqi.White].Name,
		Black:            players[xiangqi.Black].Name,
		Status:           g.Status().String(),
		Turn:             g.Turn().String(),
		Ply:              g.Ply(),
		InCheck:          g.IsCheck(g.Turn()),
		Flipped:          g.Flipped(),
		Encoding:         g.Board().Encode(),
		Position:         g.Position(xiangqi.FormatCoordinate),
		NotationPosition: g.Position(xiangqi.FormatNotation),
		Moves:            g.CoordinateMoves(),
		Notations:        g.Notations(),
		Board:            toDTOViews(g.Snapshot()),
	}
	if last, ok := g.LastMove(); ok {
		st.LastMove = last.Coordinate()
	}
	return st
}

func toDTOViews(views []xiangqi.SquareView) []xiangqidto.SquareView {
	out := make([]xiangqidto.SquareView, len(views))
	for i, v := range views {
		out[i] = xiangqidto.SquareView{
			Row:        v.Row,
			Col:        v.Col,
			Identifier: v.Identifier,
			Kind:       v.Kind,
			Side:       v.Side,
			Marks:      v.Marks,
		}
	}
	return out
}
