// Package xiangqi implements the Xiangqi rules engine: board state, piece
// legality, check and mate detection, move history, and translation between
// coordinate moves and column notation.
package xiangqi

import "fmt"

// Side identifies a player. White is the red side: uppercase identifiers,
// starting on rows 5–9 and moving toward row 0.
type Side uint8

const (
	White Side = iota
	Black
)

func (s Side) Opponent() Side {
	if s == White {
		return Black
	}
	return White
}

func (s Side) String() string {
	if s == White {
		return "white"
	}
	return "black"
}

// Letter is the side-to-move token used in position strings.
func (s Side) Letter() string {
	if s == White {
		return "w"
	}
	return "b"
}

// Kind is the closed set of piece variants.
type Kind uint8

const (
	Soldier Kind = iota
	Cannon
	Chariot
	Horse
	Elephant
	Advisor
	General
	kindCount
)

var kindNames = [kindCount]string{"soldier", "cannon", "chariot", "horse", "elephant", "advisor", "general"}

// identifiers are the lowercase board-encoding letters.
var identifiers = [kindCount]byte{'p', 'c', 'r', 'n', 'b', 'a', 'k'}

func (k Kind) String() string {
	if k < kindCount {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Identifier returns the lowercase board-encoding letter.
func (k Kind) Identifier() byte {
	if k < kindCount {
		return identifiers[k]
	}
	return '?'
}

func kindFromIdentifier(c byte) (Kind, bool) {
	if c >= 'A' && c <= 'Z' {
		c += 'a' - 'A'
	}
	for k, id := range identifiers {
		if id == c {
			return Kind(k), true
		}
	}
	return 0, false
}

// Piece is a value in the board arena. A piece does not know its square.
type Piece struct {
	Kind   Kind
	Side   Side
	Killed bool
}

// Identifier returns the board-encoding letter, uppercase for White.
func (p Piece) Identifier() byte {
	c := p.Kind.Identifier()
	if p.Side == White {
		c -= 'a' - 'A'
	}
	return c
}

// PieceID indexes the board arena. NoPiece marks an empty slot.
type PieceID int16

const NoPiece PieceID = -1

type moveRule func(b *Board, p Piece, from, to Square) bool

var rules = [kindCount]moveRule{
	Soldier:  soldierCanMove,
	Cannon:   cannonCanMove,
	Chariot:  chariotCanMove,
	Horse:    horseCanMove,
	Elephant: elephantCanMove,
	Advisor:  advisorCanMove,
	General:  generalCanMove,
}

// CanMove reports whether the piece on from may move to to by its own
// geometry. It reads occupancy only; side-to-move, own-piece captures and
// king safety are the Game's concern.
func CanMove(b *Board, from, to Square) bool {
	if !from.Valid() || !to.Valid() || from == to {
		return false
	}
	id := b.At(from)
	if id == NoPiece {
		return false
	}
	p := b.Piece(id)
	if p.Killed || p.Kind >= kindCount {
		return false
	}
	return rules[p.Kind](b, p, from, to)
}

func soldierCanMove(_ *Board, p Piece, from, to Square) bool {
	if p.Side == White {
		if to.Row == from.Row-1 && to.Col == from.Col {
			return true
		}
		return to.Row == from.Row && abs(to.Col-from.Col) == 1 && from.Row <= 4
	}
	if to.Row == from.Row+1 && to.Col == from.Col {
		return true
	}
	return to.Row == from.Row && abs(to.Col-from.Col) == 1 && from.Row >= 5
}

// between counts occupied squares strictly between from and to on a shared
// row or column. ok is false when the squares are not aligned.
func between(b *Board, from, to Square) (n int, ok bool) {
	switch {
	case from.Row == to.Row:
		for c := min(from.Col, to.Col) + 1; c < max(from.Col, to.Col); c++ {
			if b.IsOccupiedAt(from.Row, c) {
				n++
			}
		}
		return n, true
	case from.Col == to.Col:
		for r := min(from.Row, to.Row) + 1; r < max(from.Row, to.Row); r++ {
			if b.IsOccupiedAt(r, from.Col) {
				n++
			}
		}
		return n, true
	}
	return 0, false
}

func cannonCanMove(b *Board, _ Piece, from, to Square) bool {
	n, ok := between(b, from, to)
	if !ok {
		return false
	}
	if b.IsOccupiedAt(to.Row, to.Col) {
		return n == 1
	}
	return n == 0
}

func chariotCanMove(b *Board, _ Piece, from, to Square) bool {
	n, ok := between(b, from, to)
	return ok && n == 0
}

func horseCanMove(b *Board, _ Piece, from, to Square) bool {
	dr, dc := abs(to.Row-from.Row), abs(to.Col-from.Col)
	switch {
	case dc == 1 && dr == 2:
		return !b.IsOccupiedAt((from.Row+to.Row)/2, from.Col)
	case dc == 2 && dr == 1:
		return !b.IsOccupiedAt(from.Row, (from.Col+to.Col)/2)
	}
	return false
}

func elephantCanMove(b *Board, p Piece, from, to Square) bool {
	if p.Side == White && to.Row < 5 || p.Side == Black && to.Row > 4 {
		return false
	}
	if abs(to.Row-from.Row) != 2 || abs(to.Col-from.Col) != 2 {
		return false
	}
	return !b.IsOccupiedAt((from.Row+to.Row)/2, (from.Col+to.Col)/2)
}

// inPalace reports whether sq lies in the side's 3×3 palace.
func inPalace(side Side, sq Square) bool {
	if sq.Col < 3 || sq.Col > 5 {
		return false
	}
	if side == White {
		return sq.Row >= 7 && sq.Row <= 9
	}
	return sq.Row >= 0 && sq.Row <= 2
}

func advisorCanMove(_ *Board, p Piece, from, to Square) bool {
	return inPalace(p.Side, to) && abs(to.Row-from.Row) == 1 && abs(to.Col-from.Col) == 1
}

func generalCanMove(_ *Board, p Piece, from, to Square) bool {
	return inPalace(p.Side, to) && abs(to.Row-from.Row)+abs(to.Col-from.Col) == 1
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
