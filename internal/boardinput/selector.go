// Package boardinput turns board clicks into moves. Selection state lives
// here so the game itself only ever sees from/to pairs.
package boardinput

import (
	"github.com/park285/xiangqi-bot/internal/xiangqi"
)

// Target is what a committed click plays on. *xiangqi.Viewer satisfies it,
// so every clicked move is also recorded in its history.
type Target interface {
	Game() *xiangqi.Game
	ApplyMove(mover xiangqi.Side, from, to xiangqi.Square) error
}

// Selector tracks the square picked by the first click of a two-click move.
type Selector struct {
	selected xiangqi.Square
	active   bool
}

// Selected returns the current selection.
func (s *Selector) Selected() (xiangqi.Square, bool) {
	return s.selected, s.active
}

func (s *Selector) Clear() {
	s.active = false
}

// Click handles a click on (row, col). A click on a piece of the side to
// move selects it. With a selection held, any other square is tried as the
// destination: commit plays the move, otherwise it is only validated. The
// coordinate move is returned when it is (or would be) legal.
func (s *Selector) Click(t Target, row, col int, commit bool) (string, bool) {
	g := t.Game()
	sq, ok := g.Board().SquareAt(row, col)
	if !ok || g.Status() != xiangqi.Playing {
		return "", false
	}
	if p, occupied := g.Board().PieceAt(sq); occupied && p.Side == g.Turn() {
		s.selected, s.active = sq, true
		return "", false
	}
	if !s.active {
		return "", false
	}
	from := s.selected
	if !commit {
		if g.ValidateMove(g.Turn(), from, sq) != nil {
			return "", false
		}
		return xiangqi.CoordinateOf(from, sq), true
	}
	if err := t.ApplyMove(g.Turn(), from, sq); err != nil {
		return "", false
	}
	s.active = false
	return xiangqi.CoordinateOf(from, sq), true
}

// Annotate marks the legal destinations of the selected piece on views.
// views may be in either display order.
func (s *Selector) Annotate(g *xiangqi.Game, views []xiangqi.SquareView) {
	if !s.active {
		return
	}
	targets := make(map[xiangqi.Square]struct{})
	for _, to := range g.LegalDestinations(s.selected) {
		targets[to] = struct{}{}
	}
	for i := range views {
		if _, ok := targets[xiangqi.Square{Row: views[i].Row, Col: views[i].Col}]; ok {
			views[i].Marks = append(views[i].Marks, xiangqi.MarkPossibleMove)
		}
	}
}
