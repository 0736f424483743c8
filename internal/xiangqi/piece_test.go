package xiangqi

import (
	"strings"
	"testing"
)

// boardWith builds an encoding where the listed rows replace empty ranks.
func boardWith(ranks map[int]string) string {
	out := make([]string, Rows)
	for r := range out {
		out[r] = "9"
		if s, ok := ranks[r]; ok {
			out[r] = s
		}
	}
	return strings.Join(out, "/")
}

func sq(row, col int) Square { return Square{Row: row, Col: col} }

func TestCannonScreen(t *testing.T) {
	tests := []struct {
		name string
		rank string
		to   Square
		want bool
	}{
		{"capture over one screen", "C3p3r", sq(5, 8), true},
		{"capture with no screen", "C7r", sq(5, 8), false},
		{"capture over two screens", "C1p1p3r", sq(5, 8), false},
		{"quiet move on clear line", "C7r", sq(5, 4), true},
		{"quiet move past a piece", "C3p3r", sq(5, 6), false},
		{"diagonal", "C7r", sq(4, 1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := MustParseBoard(boardWith(map[int]string{5: tt.rank}))
			if got := CanMove(b, sq(5, 0), tt.to); got != tt.want {
				t.Errorf("CanMove(a4 -> %s) = %v, want %v", tt.to, got, tt.want)
			}
		})
	}
}

func TestHorseLeg(t *testing.T) {
	open := MustParseBoard(boardWith(map[int]string{9: "1N7"}))
	blocked := MustParseBoard(boardWith(map[int]string{7: "2r6", 8: "1P7", 9: "1N7"}))

	tests := []struct {
		name  string
		board *Board
		to    Square
		want  bool
	}{
		{"open leg", open, sq(7, 2), true},
		{"open leg other side", open, sq(7, 0), true},
		{"blocked leg onto empty square", blocked, sq(7, 0), false},
		{"blocked leg onto enemy piece", blocked, sq(7, 2), false},
		{"sideways jump uses row leg", blocked, sq(8, 3), true},
		{"not an L", open, sq(8, 2), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanMove(tt.board, sq(9, 1), tt.to); got != tt.want {
				t.Errorf("CanMove(b0 -> %s) = %v, want %v", tt.to, got, tt.want)
			}
		})
	}
}

func TestPieceGeometry(t *testing.T) {
	tests := []struct {
		name     string
		ranks    map[int]string
		from, to Square
		want     bool
	}{
		{"white soldier forward", map[int]string{6: "P8"}, sq(6, 0), sq(5, 0), true},
		{"white soldier sideways before river", map[int]string{6: "P8"}, sq(6, 0), sq(6, 1), false},
		{"white soldier sideways after river", map[int]string{4: "P8"}, sq(4, 0), sq(4, 1), true},
		{"white soldier backwards", map[int]string{4: "P8"}, sq(4, 0), sq(5, 0), false},
		{"black soldier forward", map[int]string{3: "p8"}, sq(3, 0), sq(4, 0), true},
		{"black soldier sideways after river", map[int]string{5: "p8"}, sq(5, 0), sq(5, 1), true},
		{"chariot clear file", map[int]string{9: "R8"}, sq(9, 0), sq(0, 0), true},
		{"chariot blocked file", map[int]string{4: "p8", 9: "R8"}, sq(9, 0), sq(0, 0), false},
		{"elephant own half", map[int]string{9: "2B6"}, sq(9, 2), sq(7, 4), true},
		{"elephant eye blocked", map[int]string{8: "3p5", 9: "2B6"}, sq(9, 2), sq(7, 4), false},
		{"elephant crossing river", map[int]string{5: "2B6"}, sq(5, 2), sq(3, 4), false},
		{"black elephant crossing river", map[int]string{4: "2b6"}, sq(4, 2), sq(6, 4), false},
		{"advisor in palace", map[int]string{9: "3A5"}, sq(9, 3), sq(8, 4), true},
		{"advisor leaving palace", map[int]string{7: "3A5"}, sq(7, 3), sq(6, 2), false},
		{"general step", map[int]string{9: "4K4"}, sq(9, 4), sq(8, 4), true},
		{"general leaving palace", map[int]string{9: "3K5"}, sq(9, 3), sq(9, 2), false},
		{"general two squares", map[int]string{9: "4K4"}, sq(9, 4), sq(7, 4), false},
		{"black general in own palace", map[int]string{0: "4k4"}, sq(0, 4), sq(1, 4), true},
		{"empty origin", map[int]string{}, sq(9, 4), sq(8, 4), false},
		{"off-board destination", map[int]string{9: "R8"}, sq(9, 0), sq(10, 0), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := MustParseBoard(boardWith(tt.ranks))
			if got := CanMove(b, tt.from, tt.to); got != tt.want {
				t.Errorf("CanMove(%s -> %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestKilledPieceCannotMove(t *testing.T) {
	b := MustParseBoard(boardWith(map[int]string{9: "R8"}))
	b.setKilled(b.At(sq(9, 0)), true)
	if CanMove(b, sq(9, 0), sq(8, 0)) {
		t.Fatalf("killed chariot reported movable")
	}
}

func TestCanMoveRejectsNullMove(t *testing.T) {
	b := MustParseBoard(StartingBoard)
	for _, from := range []Square{sq(9, 0), sq(7, 1), sq(9, 4), sq(6, 0)} {
		if CanMove(b, from, from) {
			t.Errorf("CanMove(%s -> %s) = true", from, from)
		}
	}
}

func TestIdentifiers(t *testing.T) {
	for k := Soldier; k < kindCount; k++ {
		got, ok := kindFromIdentifier(k.Identifier())
		if !ok || got != k {
			t.Errorf("kindFromIdentifier(%q) = %v, %v", k.Identifier(), got, ok)
		}
		if p := (Piece{Kind: k, Side: White}); p.Identifier() != k.Identifier()-('a'-'A') {
			t.Errorf("white %s identifier = %q", k, p.Identifier())
		}
	}
	if _, ok := kindFromIdentifier('x'); ok {
		t.Errorf("x accepted as identifier")
	}
}
