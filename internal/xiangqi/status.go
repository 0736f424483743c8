package xiangqi

import (
	"errors"
	"fmt"
	"strings"
)

// Status is the game lifecycle state. Waiting is never produced by a
// constructed Game; it exists for collaborators that show a game before it
// starts.
type Status uint8

const (
	Waiting Status = iota
	Playing
	Draw
	WhiteWin
	BlackWin
)

func (s Status) String() string {
	switch s {
	case Waiting:
		return "waiting"
	case Playing:
		return "playing"
	case Draw:
		return "draw"
	case WhiteWin:
		return "white_win"
	case BlackWin:
		return "black_win"
	}
	return fmt.Sprintf("status(%d)", uint8(s))
}

// Terminal reports whether no further moves are accepted.
func (s Status) Terminal() bool {
	return s == Draw || s == WhiteWin || s == BlackWin
}

func winFor(side Side) Status {
	if side == White {
		return WhiteWin
	}
	return BlackWin
}

var (
	ErrGameOver        = errors.New("game is over")
	ErrNoPiece         = errors.New("no piece on origin")
	ErrNotYourTurn     = errors.New("not your turn")
	ErrWrongSide       = errors.New("piece belongs to the opponent")
	ErrOwnPiece        = errors.New("destination holds own piece")
	ErrIllegalGeometry = errors.New("piece cannot move that way")
	ErrSelfCheck       = errors.New("move leaves own general in check")
	ErrFlyingGeneral   = errors.New("generals would face each other")
	ErrUnknownFormat   = errors.New("unknown position format")
)

// MoveError reports a rejected move with its coordinate form.
type MoveError struct {
	Move string
	Err  error
}

func (e *MoveError) Error() string {
	return fmt.Sprintf("move %s: %v", e.Move, e.Err)
}

func (e *MoveError) Unwrap() error { return e.Err }

func moveError(from, to Square, err error) error {
	return &MoveError{Move: CoordinateOf(from, to), Err: err}
}

// PositionFormat selects a position string flavor.
type PositionFormat uint8

const (
	// FormatCoordinate is "<board> <w|b> moves <m1> ...", the opening-book form.
	FormatCoordinate PositionFormat = iota
	// FormatNotation is "moves <n1> ...", replayed from the start position.
	FormatNotation
)

func (f PositionFormat) String() string {
	switch f {
	case FormatCoordinate:
		return "coordinate"
	case FormatNotation:
		return "notation"
	}
	return fmt.Sprintf("format(%d)", uint8(f))
}

// ParsePositionFormat maps a user-supplied selector. "chessdb" and
// "hdnum16" are accepted as aliases of the two flavors.
func ParsePositionFormat(s string) (PositionFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "coordinate", "chessdb", "uci":
		return FormatCoordinate, nil
	case "notation", "hdnum16":
		return FormatNotation, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}
