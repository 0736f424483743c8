package xiangqi

import (
	"fmt"
	"strings"
)

type snapshot struct {
	board     []SquareView
	encoding  string
	positions [2]string
}

// Viewer wraps a Game with a snapshot per ply so history can be browsed
// without touching the live game. Index 0 is the initial position.
type Viewer struct {
	game    *Game
	history []snapshot
}

// NewViewer builds a viewer over a fresh game with two computer seats.
func NewViewer(opts ...Option) *Viewer {
	return NewViewerFor(NewGame(Player{Name: "white"}, Player{Name: "black"}, opts...))
}

// NewViewerFor wraps an existing game; its current position becomes the
// first snapshot.
func NewViewerFor(g *Game) *Viewer {
	v := &Viewer{game: g}
	v.record()
	return v
}

// Game returns the live game. Moves made on it directly are not recorded.
func (v *Viewer) Game() *Game { return v.game }

func (v *Viewer) record() {
	v.history = append(v.history, snapshot{
		board:    v.game.snapshot(),
		encoding: v.game.board.Encode(),
		positions: [2]string{
			FormatCoordinate: v.game.Position(FormatCoordinate),
			FormatNotation:   v.game.Position(FormatNotation),
		},
	})
}

func (v *Viewer) rebuild() {
	v.history = v.history[:0]
	v.record()
}

// MaxIndex is the index of the live position.
func (v *Viewer) MaxIndex() int { return len(v.history) - 1 }

// BoardAt returns a copy of the board captured at index i, oriented by the
// current flip flag.
func (v *Viewer) BoardAt(i int) ([]SquareView, bool) {
	if i < 0 || i >= len(v.history) {
		return nil, false
	}
	views := cloneViews(v.history[i].board)
	if v.game.flipped {
		FlipViews(views)
	}
	return views, true
}

// EncodingAt returns the board encoding captured at index i.
func (v *Viewer) EncodingAt(i int) (string, bool) {
	if i < 0 || i >= len(v.history) {
		return "", false
	}
	return v.history[i].encoding, true
}

// PositionAt returns the position string captured at index i.
func (v *Viewer) PositionAt(i int, format PositionFormat) (string, bool) {
	if format != FormatCoordinate && format != FormatNotation {
		panic(fmt.Sprintf("xiangqi: %v", format))
	}
	if i < 0 || i >= len(v.history) {
		return "", false
	}
	return v.history[i].positions[format], true
}

// ApplyMove plays on the live game and records a snapshot on success.
func (v *Viewer) ApplyMove(mover Side, from, to Square) error {
	if err := v.game.TryMove(mover, from, to); err != nil {
		return err
	}
	v.record()
	return nil
}

func (v *Viewer) ApplyCoordinate(move string) error {
	if err := v.game.ApplyCoordinate(move); err != nil {
		return err
	}
	v.record()
	return nil
}

func (v *Viewer) ApplyNotation(notation string) error {
	if err := v.game.ApplyNotation(notation); err != nil {
		return err
	}
	v.record()
	return nil
}

// Undo takes back the last move and drops its snapshot. A resignation
// at the initial position is withdrawn without touching history.
func (v *Viewer) Undo() bool {
	ply := v.game.Ply()
	if !v.game.UndoMove() {
		return false
	}
	if v.game.Ply() < ply {
		v.history = v.history[:len(v.history)-1]
	}
	return true
}

// Reset returns the live game to its initial position.
func (v *Viewer) Reset() {
	v.game.Reset()
	v.rebuild()
}

// Initialize seats new players and resets.
func (v *Viewer) Initialize(white, black Player) {
	v.game.Reinitialize(white, black)
	v.rebuild()
}

func (v *Viewer) SetFlipped(f bool) { v.game.SetFlipped(f) }
func (v *Viewer) ToggleFlip()       { v.game.ToggleFlip() }

// LoadPosition resets and replays a position string. The coordinate flavor
// ignores its board and side fields; both flavors replay from the initial
// position.
func (v *Viewer) LoadPosition(position string, format PositionFormat) error {
	moves := movesOf(position)
	switch format {
	case FormatCoordinate:
		return v.LoadCoordinateMoves(moves)
	case FormatNotation:
		return v.LoadNotationMoves(moves)
	}
	panic(fmt.Sprintf("xiangqi: %v", format))
}

// movesOf returns the tokens after the first "moves" marker.
func movesOf(position string) []string {
	_, rest, ok := strings.Cut(position, "moves")
	if !ok {
		return nil
	}
	return strings.Fields(rest)
}

// LoadCoordinateMoves resets and replays coordinate moves. On error the
// viewer keeps the plies before the failing one.
func (v *Viewer) LoadCoordinateMoves(moves []string) error {
	return v.replay(moves, v.ApplyCoordinate)
}

// LoadNotationMoves resets and replays column-notation moves.
func (v *Viewer) LoadNotationMoves(moves []string) error {
	return v.replay(moves, v.ApplyNotation)
}

func (v *Viewer) replay(moves []string, apply func(string) error) error {
	v.Reset()
	for i, m := range moves {
		if err := apply(m); err != nil {
			return fmt.Errorf("ply %d (%s): %w", i+1, m, err)
		}
	}
	return nil
}
