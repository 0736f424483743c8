package xiangqi

import (
	"errors"
	"fmt"
	"strings"
)

var ErrMalformedCoordinate = errors.New("malformed coordinate move")

// Move records one applied ply. Captured is written when the move is
// applied and is NoPiece for quiet moves.
type Move struct {
	Mover    Side
	From     Square
	To       Square
	Piece    PieceID
	Captured PieceID
}

// Coordinate returns the 4-character form, e.g. "h2e2".
func (m Move) Coordinate() string {
	return m.From.Coordinate() + m.To.Coordinate()
}

func (m Move) String() string { return m.Coordinate() }

// ParseCoordinateMove splits a 4-character coordinate move.
func ParseCoordinateMove(s string) (from, to Square, err error) {
	s = strings.TrimSpace(s)
	if len(s) != 4 {
		return Square{}, Square{}, fmt.Errorf("%w: %q", ErrMalformedCoordinate, s)
	}
	from, err = ParseSquare(s[:2])
	if err != nil {
		return Square{}, Square{}, fmt.Errorf("%w: %v", ErrMalformedCoordinate, err)
	}
	to, err = ParseSquare(s[2:])
	if err != nil {
		return Square{}, Square{}, fmt.Errorf("%w: %v", ErrMalformedCoordinate, err)
	}
	return from, to, nil
}

// CoordinateOf formats a from/to pair.
func CoordinateOf(from, to Square) string {
	return from.Coordinate() + to.Coordinate()
}
