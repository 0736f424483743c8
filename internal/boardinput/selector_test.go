package boardinput

import (
	"testing"

	"github.com/park285/xiangqi-bot/internal/xiangqi"
)

func newViewer() *xiangqi.Viewer {
	return xiangqi.NewViewerFor(xiangqi.NewGame(
		xiangqi.Player{Side: xiangqi.White, Human: true, Name: "red"},
		xiangqi.Player{Side: xiangqi.Black, Human: true, Name: "black"},
	))
}

func TestClickPreviewDoesNotMutate(t *testing.T) {
	v := newViewer()
	g := v.Game()
	var s Selector
	if _, ok := s.Click(v, 7, 7, true); ok {
		t.Fatalf("first click should only select")
	}
	if sq, ok := s.Selected(); !ok || sq != (xiangqi.Square{Row: 7, Col: 7}) {
		t.Fatalf("Selected = %v, %v", sq, ok)
	}
	move, ok := s.Click(v, 7, 4, false)
	if !ok || move != "h2e2" {
		t.Fatalf("preview = %q, %v", move, ok)
	}
	if g.Ply() != 0 || g.Board().Encode() != xiangqi.StartingBoard {
		t.Fatalf("preview mutated the game")
	}
	move, ok = s.Click(v, 7, 4, true)
	if !ok || move != "h2e2" || g.Ply() != 1 || v.MaxIndex() != 1 {
		t.Fatalf("commit = %q, %v, ply %d, snapshots %d", move, ok, g.Ply(), v.MaxIndex())
	}
	if _, ok := s.Selected(); ok {
		t.Fatalf("selection should clear after a move")
	}
}

func TestClickReselectsAndRejects(t *testing.T) {
	v := newViewer()
	g := v.Game()
	var s Selector
	if _, ok := s.Click(v, 0, 0, true); ok {
		t.Fatalf("clicking an opponent piece without selection must fail")
	}
	if _, ok := s.Selected(); ok {
		t.Fatalf("opponent piece must not be selectable")
	}
	s.Click(v, 9, 0, true)
	s.Click(v, 9, 1, true)
	if sq, _ := s.Selected(); sq != (xiangqi.Square{Row: 9, Col: 1}) {
		t.Fatalf("own piece click should reselect, got %v", sq)
	}
	if _, ok := s.Click(v, 5, 5, true); ok {
		t.Fatalf("horse b0 cannot reach f4")
	}
	if g.Ply() != 0 {
		t.Fatalf("illegal click changed the game")
	}
	if _, ok := s.Click(v, 10, 0, true); ok {
		t.Fatalf("off-board click accepted")
	}
}

func TestAnnotateMarksDestinations(t *testing.T) {
	v := newViewer()
	g := v.Game()
	var s Selector
	views := g.Snapshot()
	s.Annotate(g, views)
	for _, v := range views {
		if len(v.Marks) != 0 {
			t.Fatalf("marks without a selection: %+v", v)
		}
	}

	s.Click(v, 7, 7, true)
	g.SetFlipped(true)
	views = g.Snapshot()
	s.Annotate(g, views)
	marked := 0
	captureMarked := false
	for _, v := range views {
		for _, m := range v.Marks {
			if m == xiangqi.MarkPossibleMove {
				marked++
				if v.Row == 0 && v.Col == 7 {
					captureMarked = true
				}
			}
		}
	}
	if marked != 12 || !captureMarked {
		t.Fatalf("marked %d squares, capture marked %v", marked, captureMarked)
	}
}
