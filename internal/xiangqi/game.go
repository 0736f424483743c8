package xiangqi

import (
	"fmt"
	"strings"
)

// Player describes one seat of a game.
type Player struct {
	Side  Side
	Human bool
	Name  string
}

type options struct {
	stalemateDraw bool
}

// Option configures a Game.
type Option func(*options)

// WithStalemateDraw ends the game in a Draw when the side to move has no
// legal move and is not in check. Without it the game stays Playing.
func WithStalemateDraw() Option {
	return func(o *options) { o.stalemateDraw = true }
}

// Game is the rules state machine for one match. It is not safe for
// concurrent use; callers serialize access per game.
type Game struct {
	players     [2]Player
	initial     string
	initialTurn Side
	opts        options

	board     *Board
	turn      Side
	moves     []Move
	notations []string
	status    Status
	resigned  bool
	flipped   bool
}

// NewGame starts a game from the standard position with White to move.
func NewGame(white, black Player, opts ...Option) *Game {
	g, err := NewGameFromBoard(StartingBoard, White, white, black, opts...)
	if err != nil {
		panic(err)
	}
	return g
}

// NewGameFromBoard starts a game from a custom board encoding.
func NewGameFromBoard(encoding string, turn Side, white, black Player, opts ...Option) (*Game, error) {
	b, err := ParseBoard(encoding)
	if err != nil {
		return nil, err
	}
	g := &Game{initial: encoding, initialTurn: turn}
	for _, opt := range opts {
		opt(&g.opts)
	}
	g.setPlayers(white, black)
	g.start(b)
	return g, nil
}

func (g *Game) setPlayers(white, black Player) {
	white.Side, black.Side = White, Black
	g.players = [2]Player{white, black}
}

func (g *Game) start(b *Board) {
	g.board = b
	g.turn = g.initialTurn
	g.moves = g.moves[:0]
	g.notations = g.notations[:0]
	g.status = Playing
	g.resigned = false
}

// Reset returns to the initial position, keeping players and orientation.
func (g *Game) Reset() {
	g.start(MustParseBoard(g.initial))
}

// Reinitialize seats new players and resets the board.
func (g *Game) Reinitialize(white, black Player) {
	g.setPlayers(white, black)
	g.Reset()
}

func (g *Game) Players() [2]Player   { return g.players }
func (g *Game) Player(s Side) Player { return g.players[s] }
func (g *Game) Turn() Side           { return g.turn }
func (g *Game) Status() Status       { return g.status }
func (g *Game) Flipped() bool        { return g.flipped }
func (g *Game) SetFlipped(f bool)    { g.flipped = f }
func (g *Game) ToggleFlip()          { g.flipped = !g.flipped }
func (g *Game) Ply() int             { return len(g.moves) }

// Board exposes the live board for read-only queries.
func (g *Game) Board() *Board { return g.board }

// InitialBoard returns the encoding the game started from.
func (g *Game) InitialBoard() string { return g.initial }

// LastMove returns the most recent move, if any.
func (g *Game) LastMove() (Move, bool) {
	if len(g.moves) == 0 {
		return Move{}, false
	}
	return g.moves[len(g.moves)-1], true
}

// Moves returns a copy of the move stack.
func (g *Game) Moves() []Move {
	return append([]Move(nil), g.moves...)
}

// CoordinateMoves lists every applied move in coordinate form.
func (g *Game) CoordinateMoves() []string {
	out := make([]string, len(g.moves))
	for i, m := range g.moves {
		out[i] = m.Coordinate()
	}
	return out
}

// Notations lists every applied move in column notation. A slot is empty
// when the move could not be expressed unambiguously.
func (g *Game) Notations() []string {
	return append([]string(nil), g.notations...)
}

// ApplyMove is TryMove reduced to success or failure.
func (g *Game) ApplyMove(mover Side, from, to Square) bool {
	return g.TryMove(mover, from, to) == nil
}

// TryMove validates and applies a move, then updates the status. On error
// the game is unchanged and the error is a *MoveError.
func (g *Game) TryMove(mover Side, from, to Square) error {
	if err := g.ValidateMove(mover, from, to); err != nil {
		return err
	}

	// Notation depends on the pre-move file occupancy.
	notation, err := EncodeNotation(g.board, from, to)
	if err != nil {
		notation = ""
	}

	moved := g.board.At(from)
	captured := g.board.relocate(from, to)
	g.board.setKilled(captured, true)
	g.moves = append(g.moves, Move{Mover: mover, From: from, To: to, Piece: moved, Captured: captured})
	g.notations = append(g.notations, notation)
	g.turn = mover.Opponent()

	opp := mover.Opponent()
	switch {
	case captured != NoPiece && g.board.Piece(captured).Kind == General:
		g.status = winFor(mover)
	case g.HasLegalMove(opp):
		// still playing
	case g.IsCheck(opp):
		g.status = winFor(mover)
	case g.opts.stalemateDraw:
		g.status = Draw
	}
	return nil
}

// ValidateMove runs every check TryMove does without changing the game.
func (g *Game) ValidateMove(mover Side, from, to Square) error {
	if g.status != Playing {
		return moveError(from, to, ErrGameOver)
	}
	if g.board.At(from) == NoPiece {
		return moveError(from, to, ErrNoPiece)
	}
	if mover != g.turn {
		return moveError(from, to, ErrNotYourTurn)
	}
	if err := g.pseudoLegal(mover, from, to); err != nil {
		return moveError(from, to, err)
	}
	if err := g.exposes(mover, from, to); err != nil {
		return moveError(from, to, err)
	}
	return nil
}

// pseudoLegal checks ownership and geometry, ignoring king safety.
func (g *Game) pseudoLegal(mover Side, from, to Square) error {
	p, ok := g.board.PieceAt(from)
	if !ok {
		return ErrNoPiece
	}
	if p.Side != mover {
		return ErrWrongSide
	}
	if !to.Valid() {
		return ErrIllegalGeometry
	}
	if t, ok := g.board.PieceAt(to); ok && t.Side == mover {
		return ErrOwnPiece
	}
	if !CanMove(g.board, from, to) {
		return ErrIllegalGeometry
	}
	return nil
}

// exposes plays from→to on the board, tests the mover's safety and
// restores the board before returning.
func (g *Game) exposes(mover Side, from, to Square) error {
	moved := g.board.At(from)
	captured := g.board.relocate(from, to)
	defer g.board.restore(from, to, moved, captured)

	if g.IsCheck(mover) {
		return ErrSelfCheck
	}
	if g.GeneralsFacing() {
		return ErrFlyingGeneral
	}
	return nil
}

// UndoMove pops the last move. The status always returns to Playing.
// With no move to pop, it only withdraws a resignation.
func (g *Game) UndoMove() bool {
	if len(g.moves) == 0 {
		if !g.resigned {
			return false
		}
		g.resigned = false
		g.status = Playing
		return true
	}
	m := g.moves[len(g.moves)-1]
	g.moves = g.moves[:len(g.moves)-1]
	g.notations = g.notations[:len(g.notations)-1]
	g.board.restore(m.From, m.To, m.Piece, m.Captured)
	g.board.setKilled(m.Captured, false)
	g.turn = m.Mover
	g.status = Playing
	g.resigned = false
	return true
}

// Resign ends a running game as a win for side's opponent. UndoMove
// reopens it.
func (g *Game) Resign(side Side) error {
	if g.status != Playing {
		return ErrGameOver
	}
	g.status = winFor(side.Opponent())
	g.resigned = true
	return nil
}

// IsCheck reports whether any enemy piece can reach side's General.
func (g *Game) IsCheck(side Side) bool {
	gen, ok := g.board.FindGeneral(side)
	if !ok {
		return false
	}
	enemy := side.Opponent()
	for r := 0; r < Rows; r++ {
		for c := 0; c < Cols; c++ {
			sq := Square{Row: r, Col: c}
			if p, ok := g.board.PieceAt(sq); ok && p.Side == enemy && CanMove(g.board, sq, gen) {
				return true
			}
		}
	}
	return false
}

// GeneralsFacing reports the flying-general condition: both Generals on
// one file with nothing between them.
func (g *Game) GeneralsFacing() bool {
	w, ok := g.board.FindGeneral(White)
	if !ok {
		return false
	}
	b, ok := g.board.FindGeneral(Black)
	if !ok || w.Col != b.Col {
		return false
	}
	n, _ := between(g.board, w, b)
	return n == 0
}

// HasLegalMove reports whether side has any move that leaves its General
// safe. The board is restored after every trial.
func (g *Game) HasLegalMove(side Side) bool {
	for r := 0; r < Rows; r++ {
		for c := 0; c < Cols; c++ {
			from := Square{Row: r, Col: c}
			if p, ok := g.board.PieceAt(from); !ok || p.Side != side {
				continue
			}
			for tr := 0; tr < Rows; tr++ {
				for tc := 0; tc < Cols; tc++ {
					to := Square{Row: tr, Col: tc}
					if g.pseudoLegal(side, from, to) == nil && g.exposes(side, from, to) == nil {
						return true
					}
				}
			}
		}
	}
	return false
}

// IsCheckmate reports whether side is in check with no escape.
func (g *Game) IsCheckmate(side Side) bool {
	return g.IsCheck(side) && !g.HasLegalMove(side)
}

// IsStalemate reports whether side has no legal move while not in check.
func (g *Game) IsStalemate(side Side) bool {
	return !g.IsCheck(side) && !g.HasLegalMove(side)
}

// LegalDestinations lists the squares the side to move may reach from
// from. It is empty for opponent pieces and after the game ends.
func (g *Game) LegalDestinations(from Square) []Square {
	var out []Square
	for r := 0; r < Rows; r++ {
		for c := 0; c < Cols; c++ {
			to := Square{Row: r, Col: c}
			if g.ValidateMove(g.turn, from, to) == nil {
				out = append(out, to)
			}
		}
	}
	return out
}

// ApplyCoordinate plays a 4-character coordinate move for the side to move.
func (g *Game) ApplyCoordinate(move string) error {
	from, to, err := ParseCoordinateMove(move)
	if err != nil {
		return err
	}
	return g.TryMove(g.turn, from, to)
}

// ApplyNotation plays a column-notation move for the side to move.
func (g *Game) ApplyNotation(notation string) error {
	if g.status != Playing {
		return fmt.Errorf("%s: %w", notation, ErrGameOver)
	}
	from, to, err := DecodeNotation(g.board, g.turn, notation)
	if err != nil {
		return err
	}
	return g.TryMove(g.turn, from, to)
}

// Position serializes the game. FormatCoordinate carries the current
// board and side to move followed by every move from the start.
func (g *Game) Position(format PositionFormat) string {
	var sb strings.Builder
	switch format {
	case FormatCoordinate:
		sb.WriteString(g.board.Encode())
		sb.WriteByte(' ')
		sb.WriteString(g.turn.Letter())
		sb.WriteString(" moves")
		for _, m := range g.moves {
			sb.WriteByte(' ')
			sb.WriteString(m.Coordinate())
		}
	case FormatNotation:
		sb.WriteString("moves")
		for _, n := range g.notations {
			if n == "" {
				n = "?"
			}
			sb.WriteByte(' ')
			sb.WriteString(n)
		}
	default:
		panic(fmt.Sprintf("xiangqi: %v", format))
	}
	return sb.String()
}

// SquareView is one square of a rendered board.
type SquareView struct {
	Row        int
	Col        int
	Identifier string // board-encoding letter, empty when unoccupied
	Kind       string
	Side       string
	Marks      []string
}

const (
	MarkLastMoveStart = "last-move-start"
	MarkLastMoveEnd   = "last-move-end"
	MarkPossibleMove  = "possible-move"
)

// Snapshot renders all 90 squares in display order, reversed when the
// board is flipped, with the last move marked.
func (g *Game) Snapshot() []SquareView {
	views := g.snapshot()
	if g.flipped {
		FlipViews(views)
	}
	return views
}

// snapshot renders in canonical order, row 0 first.
func (g *Game) snapshot() []SquareView {
	last, hasLast := g.LastMove()
	views := make([]SquareView, 0, Rows*Cols)
	for r := 0; r < Rows; r++ {
		for c := 0; c < Cols; c++ {
			sq := Square{Row: r, Col: c}
			v := SquareView{Row: r, Col: c}
			if p, ok := g.board.PieceAt(sq); ok {
				v.Identifier = string(p.Identifier())
				v.Kind = p.Kind.String()
				v.Side = p.Side.String()
			}
			if hasLast {
				switch sq {
				case last.From:
					v.Marks = []string{MarkLastMoveStart}
				case last.To:
					v.Marks = []string{MarkLastMoveEnd}
				}
			}
			views = append(views, v)
		}
	}
	return views
}

// FlipViews reverses a snapshot in place.
func FlipViews(views []SquareView) {
	for i, j := 0, len(views)-1; i < j; i, j = i+1, j-1 {
		views[i], views[j] = views[j], views[i]
	}
}

func cloneViews(views []SquareView) []SquareView {
	out := make([]SquareView, len(views))
	for i, v := range views {
		if v.Marks != nil {
			v.Marks = append([]string(nil), v.Marks...)
		}
		out[i] = v
	}
	return out
}
