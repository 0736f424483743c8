package xiangqi

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMalformedNotation = errors.New("malformed notation")
	ErrAmbiguousNotation = errors.New("ambiguous notation")
	ErrPieceNotFound     = errors.New("no matching piece")
)

var notationLetters = [kindCount]byte{
	Soldier:  'P',
	Cannon:   'C',
	Chariot:  'R',
	Horse:    'N',
	Elephant: 'B',
	Advisor:  'A',
	General:  'K',
}

// NotationLetter returns the uppercase column-notation letter for k.
func (k Kind) NotationLetter() byte {
	if k < kindCount {
		return notationLetters[k]
	}
	return '?'
}

// kindFromNotationLetter also accepts E and H, the elephant and horse
// letters used by the external move database.
func kindFromNotationLetter(c byte) (Kind, bool) {
	switch c {
	case 'K', 'k':
		return General, true
	case 'A', 'a':
		return Advisor, true
	case 'B', 'b', 'E', 'e':
		return Elephant, true
	case 'N', 'n', 'H', 'h':
		return Horse, true
	case 'R', 'r':
		return Chariot, true
	case 'C', 'c':
		return Cannon, true
	case 'P', 'p':
		return Soldier, true
	}
	return 0, false
}

// Files are numbered 1–9 from each mover's own right.
func fileNumber(side Side, col int) int {
	if side == White {
		return Cols - col
	}
	return col + 1
}

func colFromFile(side Side, file int) int {
	if side == White {
		return Cols - file
	}
	return file - 1
}

// advance is the number of rows moved toward the enemy.
func advance(side Side, from, to Square) int {
	if side == White {
		return from.Row - to.Row
	}
	return to.Row - from.Row
}

func rowAhead(side Side, row, n int) int {
	if side == White {
		return row - n
	}
	return row + n
}

func straightKind(k Kind) bool {
	return k == Chariot || k == Cannon || k == Soldier || k == General
}

// piecesOnFile lists the side's pieces of kind on col, top row first.
func piecesOnFile(b *Board, kind Kind, side Side, col int) []Square {
	var out []Square
	for r := 0; r < Rows; r++ {
		sq := Square{Row: r, Col: col}
		if b.isPiece(sq, kind, side) {
			out = append(out, sq)
		}
	}
	return out
}

// crowdedColumns lists the columns holding two or more of the side's
// pieces of kind.
func crowdedColumns(b *Board, kind Kind, side Side) []int {
	var cols []int
	for c := 0; c < Cols; c++ {
		if len(piecesOnFile(b, kind, side, c)) >= 2 {
			cols = append(cols, c)
		}
	}
	return cols
}

// EncodeNotation translates the move from→to on b, which must still be in
// the position before the move, into column notation.
func EncodeNotation(b *Board, from, to Square) (string, error) {
	p, ok := b.PieceAt(from)
	if !ok {
		return "", fmt.Errorf("%w on %s", ErrPieceNotFound, from)
	}
	if !to.Valid() || from == to {
		return "", fmt.Errorf("%w: destination %v", ErrMalformedNotation, to)
	}

	adv := advance(p.Side, from, to)
	op := byte('=')
	switch {
	case adv > 0:
		op = '+'
	case adv < 0:
		op = '-'
	}

	var value int
	switch {
	case straightKind(p.Kind) && op == '=':
		value = fileNumber(p.Side, to.Col)
	case straightKind(p.Kind):
		if from.Col != to.Col {
			return "", fmt.Errorf("%w: %s does not move diagonally", ErrMalformedNotation, p.Kind)
		}
		value = abs(adv)
	case op == '=':
		return "", fmt.Errorf("%w: %s cannot move sideways", ErrMalformedNotation, p.Kind)
	default:
		value = fileNumber(p.Side, to.Col)
	}

	letter := p.Kind.NotationLetter()
	same := piecesOnFile(b, p.Kind, p.Side, from.Col)
	switch {
	case len(same) == 1, len(same) == 2 && (p.Kind == Advisor || p.Kind == Elephant):
		return fmt.Sprintf("%c%d%c%d", letter, fileNumber(p.Side, from.Col), op, value), nil
	case len(same) == 2:
		prefix := byte('-')
		if isFront(p.Side, from, same) {
			prefix = '+'
		}
		file := ""
		if len(crowdedColumns(b, p.Kind, p.Side)) > 1 {
			file = fmt.Sprint(fileNumber(p.Side, from.Col))
		}
		return fmt.Sprintf("%c%c%s%c%d", prefix, letter, file, op, value), nil
	}
	return "", fmt.Errorf("%w: %d %s pieces on file %d", ErrAmbiguousNotation, len(same), p.Kind, fileNumber(p.Side, from.Col))
}

// isFront reports whether sq is the piece nearest the enemy among pair.
func isFront(side Side, sq Square, pair []Square) bool {
	for _, other := range pair {
		if other == sq {
			continue
		}
		if side == White && other.Row < sq.Row || side == Black && other.Row > sq.Row {
			return false
		}
	}
	return true
}

// DecodeNotation resolves a column-notation move for side on b.
func DecodeNotation(b *Board, side Side, notation string) (from, to Square, err error) {
	s := strings.TrimSpace(notation)
	i := 0
	var prefix byte
	if len(s) > 0 && (s[0] == '+' || s[0] == '-') {
		prefix = s[0]
		i++
	}
	if i >= len(s) {
		return from, to, fmt.Errorf("%w: %q", ErrMalformedNotation, notation)
	}
	kind, ok := kindFromNotationLetter(s[i])
	if !ok {
		return from, to, fmt.Errorf("%w: unknown piece letter in %q", ErrMalformedNotation, notation)
	}
	i++
	file := 0
	if i < len(s) && isDigit(s[i]) && len(s)-i == 3 {
		file = int(s[i] - '0')
		if file == 0 {
			return from, to, fmt.Errorf("%w: file 0 in %q", ErrMalformedNotation, notation)
		}
		i++
	}
	if len(s)-i != 2 {
		return from, to, fmt.Errorf("%w: %q", ErrMalformedNotation, notation)
	}
	op, vch := s[i], s[i+1]
	if op != '+' && op != '-' && op != '=' || vch < '1' || vch > '9' {
		return from, to, fmt.Errorf("%w: %q", ErrMalformedNotation, notation)
	}
	value := int(vch - '0')

	switch {
	case prefix != 0:
		from, err = resolveByPrefix(b, side, kind, prefix, file)
	case file == 0:
		err = fmt.Errorf("%w: no file or prefix in %q", ErrMalformedNotation, notation)
	case kind == Advisor || kind == Elephant:
		from, err = resolveByGeometry(b, side, kind, colFromFile(side, file), op)
	default:
		same := piecesOnFile(b, kind, side, colFromFile(side, file))
		switch len(same) {
		case 0:
			err = fmt.Errorf("%w: %s on file %d", ErrPieceNotFound, kind, file)
		case 1:
			from = same[0]
		default:
			err = fmt.Errorf("%w: %d %s pieces on file %d", ErrAmbiguousNotation, len(same), kind, file)
		}
	}
	if err != nil {
		return Square{}, Square{}, err
	}
	to, err = destination(side, kind, from, op, value)
	if err != nil {
		return Square{}, Square{}, fmt.Errorf("%w: %q", err, notation)
	}
	return from, to, nil
}

func resolveByPrefix(b *Board, side Side, kind Kind, prefix byte, file int) (Square, error) {
	var col int
	if file != 0 {
		col = colFromFile(side, file)
	} else {
		cols := crowdedColumns(b, kind, side)
		switch len(cols) {
		case 0:
			return Square{}, fmt.Errorf("%w: no file holds two %s pieces", ErrPieceNotFound, kind)
		case 1:
			col = cols[0]
		default:
			return Square{}, fmt.Errorf("%w: %d files hold several %s pieces", ErrAmbiguousNotation, len(cols), kind)
		}
	}
	same := piecesOnFile(b, kind, side, col)
	switch {
	case len(same) < 2:
		return Square{}, fmt.Errorf("%w: file %d does not hold two %s pieces", ErrPieceNotFound, fileNumber(side, col), kind)
	case len(same) > 2:
		return Square{}, fmt.Errorf("%w: %d %s pieces on file %d", ErrAmbiguousNotation, len(same), kind, fileNumber(side, col))
	}
	front, back := same[0], same[1]
	if side == Black {
		front, back = back, front
	}
	if prefix == '+' {
		return front, nil
	}
	return back, nil
}

// resolveByGeometry finds an advisor or elephant start square from the
// fixed palace and half-board points instead of scanning the file.
func resolveByGeometry(b *Board, side Side, kind Kind, col int, op byte) (Square, error) {
	// rows are given from White's side and mirrored for Black.
	var row int
	switch kind {
	case Advisor:
		switch {
		case col == 4:
			row = 8
		case op == '+':
			row = 9
		default:
			row = 7
		}
	case Elephant:
		switch {
		case col != 2 && col != 6:
			row = 7
		case op == '+':
			row = 9
		default:
			row = 5
		}
	}
	if side == Black {
		row = Rows - 1 - row
	}
	sq := Square{Row: row, Col: col}
	if !b.isPiece(sq, kind, side) {
		return Square{}, fmt.Errorf("%w: %s %s on %s", ErrPieceNotFound, side, kind, sq)
	}
	return sq, nil
}

func destination(side Side, kind Kind, from Square, op byte, value int) (Square, error) {
	var to Square
	if straightKind(kind) {
		switch op {
		case '=':
			to = Square{Row: from.Row, Col: colFromFile(side, value)}
			if to == from {
				return Square{}, fmt.Errorf("%w: lateral move to own file", ErrMalformedNotation)
			}
		case '+':
			to = Square{Row: rowAhead(side, from.Row, value), Col: from.Col}
		default:
			to = Square{Row: rowAhead(side, from.Row, -value), Col: from.Col}
		}
	} else {
		if op == '=' {
			return Square{}, fmt.Errorf("%w: %s cannot move sideways", ErrMalformedNotation, kind)
		}
		col := colFromFile(side, value)
		dc := abs(col - from.Col)
		var dr int
		switch {
		case kind == Advisor && dc == 1:
			dr = 1
		case kind == Elephant && dc == 2:
			dr = 2
		case kind == Horse && (dc == 1 || dc == 2):
			dr = 3 - dc
		default:
			return Square{}, fmt.Errorf("%w: %s cannot reach file %d", ErrMalformedNotation, kind, value)
		}
		if op == '-' {
			dr = -dr
		}
		to = Square{Row: rowAhead(side, from.Row, dr), Col: col}
	}
	if !to.Valid() {
		return Square{}, fmt.Errorf("%w: destination off board", ErrMalformedNotation)
	}
	return to, nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
