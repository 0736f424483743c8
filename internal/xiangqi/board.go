package xiangqi

import (
	"errors"
	"fmt"
	"strings"
)

const (
	Rows = 10
	Cols = 9
)

// StartingBoard is the standard initial position in board encoding.
const StartingBoard = "rnbakabnr/9/1c5c1/p1p1p1p1p/9/9/P1P1P1P1P/1C5C1/9/RNBAKABNR"

var ErrInvalidBoard = errors.New("invalid board encoding")

// Square is a board position; row 0 is Black's back rank.
type Square struct {
	Row int
	Col int
}

func (s Square) Valid() bool {
	return s.Row >= 0 && s.Row < Rows && s.Col >= 0 && s.Col < Cols
}

// Coordinate returns the file+rank form, e.g. "a9" for row 0 col 0.
func (s Square) Coordinate() string {
	return string([]byte{byte('a' + s.Col), byte('0' + Rows - 1 - s.Row)})
}

func (s Square) String() string { return s.Coordinate() }

// ParseSquare reads a two-character coordinate.
func ParseSquare(coord string) (Square, error) {
	if len(coord) != 2 {
		return Square{}, fmt.Errorf("coordinate %q: want 2 characters", coord)
	}
	f, r := coord[0], coord[1]
	if f >= 'A' && f <= 'I' {
		f += 'a' - 'A'
	}
	if f < 'a' || f > 'i' || r < '0' || r > '9' {
		return Square{}, fmt.Errorf("coordinate %q: out of range", coord)
	}
	return Square{Row: Rows - 1 - int(r-'0'), Col: int(f - 'a')}, nil
}

// Board is a 10×9 grid over an arena of pieces. Squares hold arena indices,
// so a captured piece keeps its identity while it is off the board.
type Board struct {
	pieces []Piece
	grid   [Rows][Cols]PieceID
}

func newEmptyBoard() *Board {
	b := &Board{}
	for r := range b.grid {
		for c := range b.grid[r] {
			b.grid[r][c] = NoPiece
		}
	}
	return b
}

// ParseBoard builds a board from the rank-separated encoding.
func ParseBoard(encoding string) (*Board, error) {
	ranks := strings.Split(strings.TrimSpace(encoding), "/")
	if len(ranks) != Rows {
		return nil, fmt.Errorf("%w: %d ranks, want %d", ErrInvalidBoard, len(ranks), Rows)
	}
	b := newEmptyBoard()
	generals := [2]int{}
	for row, rank := range ranks {
		col := 0
		for i := 0; i < len(rank); i++ {
			ch := rank[i]
			if ch >= '1' && ch <= '9' {
				col += int(ch - '0')
				if col > Cols {
					return nil, fmt.Errorf("%w: rank %d overflows", ErrInvalidBoard, row)
				}
				continue
			}
			kind, ok := kindFromIdentifier(ch)
			if !ok {
				return nil, fmt.Errorf("%w: unknown piece identifier %q", ErrInvalidBoard, ch)
			}
			if col >= Cols {
				return nil, fmt.Errorf("%w: rank %d overflows", ErrInvalidBoard, row)
			}
			side := Black
			if ch >= 'A' && ch <= 'Z' {
				side = White
			}
			if kind == General {
				generals[side]++
				if generals[side] > 1 {
					return nil, fmt.Errorf("%w: more than one %s general", ErrInvalidBoard, side)
				}
			}
			b.place(Square{Row: row, Col: col}, Piece{Kind: kind, Side: side})
			col++
		}
		if col != Cols {
			return nil, fmt.Errorf("%w: rank %d has %d files", ErrInvalidBoard, row, col)
		}
	}
	return b, nil
}

// MustParseBoard is ParseBoard for encodings known to be valid.
func MustParseBoard(encoding string) *Board {
	b, err := ParseBoard(encoding)
	if err != nil {
		panic(err)
	}
	return b
}

func (b *Board) place(sq Square, p Piece) PieceID {
	id := PieceID(len(b.pieces))
	b.pieces = append(b.pieces, p)
	b.grid[sq.Row][sq.Col] = id
	return id
}

// At returns the arena index on sq, or NoPiece.
func (b *Board) At(sq Square) PieceID {
	if !sq.Valid() {
		return NoPiece
	}
	return b.grid[sq.Row][sq.Col]
}

// Piece returns the arena value for id.
func (b *Board) Piece(id PieceID) Piece {
	return b.pieces[id]
}

// PieceAt returns the occupant of sq, if any.
func (b *Board) PieceAt(sq Square) (Piece, bool) {
	id := b.At(sq)
	if id == NoPiece {
		return Piece{}, false
	}
	return b.pieces[id], true
}

// SquareAt validates a row/column pair.
func (b *Board) SquareAt(row, col int) (Square, bool) {
	sq := Square{Row: row, Col: col}
	return sq, sq.Valid()
}

func (b *Board) SquareFromCoordinate(coord string) (Square, error) {
	return ParseSquare(coord)
}

func (b *Board) IsOccupiedAt(row, col int) bool {
	return b.At(Square{Row: row, Col: col}) != NoPiece
}

// isPiece reports whether sq holds a live piece of the given kind and side.
func (b *Board) isPiece(sq Square, kind Kind, side Side) bool {
	p, ok := b.PieceAt(sq)
	return ok && p.Kind == kind && p.Side == side
}

// FindGeneral scans for the side's General.
func (b *Board) FindGeneral(side Side) (Square, bool) {
	for r := 0; r < Rows; r++ {
		for c := 0; c < Cols; c++ {
			sq := Square{Row: r, Col: c}
			if b.isPiece(sq, General, side) {
				return sq, true
			}
		}
	}
	return Square{}, false
}

// relocate moves the occupant of from onto to and returns whatever was on
// to. Killed flags are left to the caller.
func (b *Board) relocate(from, to Square) (captured PieceID) {
	captured = b.grid[to.Row][to.Col]
	b.grid[to.Row][to.Col] = b.grid[from.Row][from.Col]
	b.grid[from.Row][from.Col] = NoPiece
	return captured
}

// restore reverses relocate.
func (b *Board) restore(from, to Square, moved, captured PieceID) {
	b.grid[from.Row][from.Col] = moved
	b.grid[to.Row][to.Col] = captured
}

func (b *Board) setKilled(id PieceID, killed bool) {
	if id != NoPiece {
		b.pieces[id].Killed = killed
	}
}

// Encode serializes the board, collapsing empty runs into digits.
func (b *Board) Encode() string {
	var sb strings.Builder
	for r := 0; r < Rows; r++ {
		if r > 0 {
			sb.WriteByte('/')
		}
		empty := 0
		for c := 0; c < Cols; c++ {
			id := b.grid[r][c]
			if id == NoPiece {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteByte(byte('0' + empty))
				empty = 0
			}
			sb.WriteByte(b.pieces[id].Identifier())
		}
		if empty > 0 {
			sb.WriteByte(byte('0' + empty))
		}
	}
	return sb.String()
}

func (b *Board) String() string { return b.Encode() }

// Clone returns an independent copy, arena included.
func (b *Board) Clone() *Board {
	c := &Board{grid: b.grid, pieces: make([]Piece, len(b.pieces))}
	copy(c.pieces, b.pieces)
	return c
}
