package xiangqi

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func mustCoord(t *testing.T, move string) (Square, Square) {
	t.Helper()
	from, to, err := ParseCoordinateMove(move)
	if err != nil {
		t.Fatalf("ParseCoordinateMove(%q): %v", move, err)
	}
	return from, to
}

func TestEncodeNotationOpening(t *testing.T) {
	tests := []struct {
		name  string
		board string
		move  string
		want  string
	}{
		{"central cannon", StartingBoard, "h2e2", "C2=5"},
		{"white horse", StartingBoard, "b0c2", "N8+7"},
		{"black horse", StartingBoard, "h9g7", "N8+7"},
		{"black chariot", StartingBoard, "a9a8", "R1+1"},
		{"white advisor", StartingBoard, "d0e1", "A6+5"},
		{"white elephant", StartingBoard, "c0e2", "B7+5"},
		{"cannon capture", StartingBoard, "h2h9", "C2+7"},
		{"white soldier", StartingBoard, "e3e4", "P5+1"},
		{"black soldier", StartingBoard, "c6c5", "P3+1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := MustParseBoard(tt.board)
			from, to := mustCoord(t, tt.move)
			got, err := EncodeNotation(b, from, to)
			if err != nil {
				t.Fatalf("EncodeNotation: %v", err)
			}
			if got != tt.want {
				t.Fatalf("EncodeNotation(%s) = %q, want %q", tt.move, got, tt.want)
			}
		})
	}
}

func TestDecodeNotation(t *testing.T) {
	tandem := boardWith(map[int]string{0: "4k4", 6: "R8", 9: "R3K4"})
	pairs := boardWith(map[int]string{0: "4k4", 3: "P1P6", 4: "P1P6", 9: "4K4"})

	tests := []struct {
		name     string
		board    string
		side     Side
		notation string
		want     string
	}{
		{"central cannon", StartingBoard, White, "C2=5", "h2e2"},
		{"black horse", StartingBoard, Black, "N8+7", "h9g7"},
		{"horse letter H", StartingBoard, White, "H2+3", "h0g2"},
		{"elephant letter E", StartingBoard, White, "E3+5", "g0e2"},
		{"lowercase", StartingBoard, Black, "c8=5", "h7e7"},
		{"advisor from back rank", StartingBoard, White, "A4+5", "f0e1"},
		{"black advisor", StartingBoard, Black, "A4+5", "d9e8"},
		{"front chariot", tandem, White, "+R+3", "a3a6"},
		{"rear chariot", tandem, White, "-R=8", "a0b0"},
		{"front soldier with file", pairs, White, "+P9+1", "a6a7"},
		{"rear soldier with file", pairs, White, "-P7=8", "c5b5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := MustParseBoard(tt.board)
			from, to, err := DecodeNotation(b, tt.side, tt.notation)
			if err != nil {
				t.Fatalf("DecodeNotation(%q): %v", tt.notation, err)
			}
			if got := CoordinateOf(from, to); got != tt.want {
				t.Fatalf("DecodeNotation(%q) = %s, want %s", tt.notation, got, tt.want)
			}
		})
	}
}

func TestNotationErrors(t *testing.T) {
	pairs := boardWith(map[int]string{0: "4k4", 3: "P1P6", 4: "P1P6", 9: "4K4"})
	triple := boardWith(map[int]string{0: "4k4", 2: "P8", 3: "P8", 4: "P8", 9: "4K4"})

	tests := []struct {
		name     string
		board    string
		notation string
		want     error
	}{
		{"empty", StartingBoard, "", ErrMalformedNotation},
		{"unknown letter", StartingBoard, "X2=5", ErrMalformedNotation},
		{"zero value", StartingBoard, "R1+0", ErrMalformedNotation},
		{"bad operator", StartingBoard, "R1*1", ErrMalformedNotation},
		{"truncated", StartingBoard, "R1+", ErrMalformedNotation},
		{"prefix only", StartingBoard, "+R", ErrMalformedNotation},
		{"horse sideways", StartingBoard, "N2=3", ErrMalformedNotation},
		{"off board", StartingBoard, "R1-1", ErrMalformedNotation},
		{"absent piece", StartingBoard, "R5+1", ErrPieceNotFound},
		{"advisor not on point", StartingBoard, "A5+4", ErrPieceNotFound},
		{"prefix without pair", StartingBoard, "+R+1", ErrPieceNotFound},
		{"two pairs need a file", pairs, "+P+1", ErrAmbiguousNotation},
		{"three on a file", triple, "P9+1", ErrAmbiguousNotation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := MustParseBoard(tt.board)
			if _, _, err := DecodeNotation(b, White, tt.notation); !errors.Is(err, tt.want) {
				t.Fatalf("DecodeNotation(%q) error = %v, want %v", tt.notation, err, tt.want)
			}
		})
	}

	b := MustParseBoard(triple)
	if _, err := EncodeNotation(b, sq(2, 0), sq(1, 0)); !errors.Is(err, ErrAmbiguousNotation) {
		t.Fatalf("EncodeNotation with three soldiers: %v", err)
	}
	if _, err := EncodeNotation(b, sq(5, 5), sq(4, 5)); !errors.Is(err, ErrPieceNotFound) {
		t.Fatalf("EncodeNotation from empty square: %v", err)
	}
}

// legalMoves lists every legal move of the side to move as coordinate pairs.
func legalMoves(g *Game) [][2]Square {
	var out [][2]Square
	for r := 0; r < Rows; r++ {
		for c := 0; c < Cols; c++ {
			from := sq(r, c)
			if p, ok := g.board.PieceAt(from); !ok || p.Side != g.turn {
				continue
			}
			for _, to := range g.LegalDestinations(from) {
				out = append(out, [2]Square{from, to})
			}
		}
	}
	return out
}

func TestNotationRoundTripRandomGames(t *testing.T) {
	for _, seed := range []int64{1, 7, 42} {
		rng := rand.New(rand.NewSource(seed))
		g := NewGame(Player{}, Player{})
		checked := 0
		for ply := 0; ply < 80 && g.Status() == Playing; ply++ {
			moves := legalMoves(g)
			if len(moves) == 0 {
				break
			}
			for _, m := range moves {
				p, _ := g.board.PieceAt(m[0])
				if len(piecesOnFile(g.board, p.Kind, p.Side, m[0].Col)) > 2 {
					continue
				}
				n, err := EncodeNotation(g.board, m[0], m[1])
				if err != nil {
					t.Fatalf("seed %d ply %d: EncodeNotation(%s): %v", seed, ply, CoordinateOf(m[0], m[1]), err)
				}
				from, to, err := DecodeNotation(g.board, g.turn, n)
				if err != nil {
					t.Fatalf("seed %d ply %d: DecodeNotation(%q): %v\n%s", seed, ply, n, err, g.board.Encode())
				}
				if diff := cmp.Diff(m, [2]Square{from, to}); diff != "" {
					t.Fatalf("seed %d ply %d: %q round trip (-want +got):\n%s", seed, ply, n, diff)
				}
				checked++
			}
			pick := moves[rng.Intn(len(moves))]
			if err := g.TryMove(g.turn, pick[0], pick[1]); err != nil {
				t.Fatalf("seed %d ply %d: TryMove(%s): %v", seed, ply, CoordinateOf(pick[0], pick[1]), err)
			}
		}
		if checked == 0 {
			t.Fatalf("seed %d: no moves checked", seed)
		}
	}
}
