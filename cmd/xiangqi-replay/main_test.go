package main

import (
	"strings"
	"testing"
)

func TestRunNotation(t *testing.T) {
	var sb strings.Builder
	if err := run(&sb, "notation", "", false, []string{"C2=5", "N8+7"}); err != nil {
		t.Fatalf("run: %v", err)
	}
	out := sb.String()
	for _, want := range []string{
		"rnbakab1r/9/1c4nc1/p1p1p1p1p/9/9/P1P1P1P1P/1C2C4/9/RNBAKABNR w moves h2e2 h9g7",
		"moves C2=5 N8+7",
		"  1. h2e2 C2=5",
		"  2. h9g7 N8+7",
		"status: playing, white to move",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRunStopsAtIllegalMove(t *testing.T) {
	var sb strings.Builder
	err := run(&sb, "uci", "", false, []string{"h2e2", "a9a5"})
	if err == nil || !strings.Contains(err.Error(), "ply 2") {
		t.Fatalf("run error = %v", err)
	}
	if !strings.Contains(sb.String(), "moves h2e2\n") {
		t.Fatalf("first ply not kept:\n%s", sb.String())
	}
	if err := run(&sb, "pgn", "", false, nil); err == nil {
		t.Fatalf("unknown format accepted")
	}
}
