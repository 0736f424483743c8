package openingbook

import (
	"fmt"
	"strconv"
	"strings"
)

// Entry is one move of a queryall answer.
type Entry struct {
	Move    string
	Score   int
	Rank    int
	Note    string
	WinRate float64
}

// ParseQueryAll reads "move:h2e2,score:1,rank:2,note:! (..),winrate:50.1|...".
// "unknown" and the terminal answers yield no entries.
func ParseQueryAll(body string) ([]Entry, error) {
	body = clean(body)
	switch body {
	case "", "unknown", "checkmate", "stalemate", "nobestmove":
		return nil, nil
	case "invalid board":
		return nil, ErrInvalidPosition
	}
	var out []Entry
	for _, item := range strings.Split(body, "|") {
		if strings.TrimSpace(item) == "" {
			continue
		}
		var e Entry
		for _, field := range strings.Split(item, ",") {
			k, v, ok := strings.Cut(field, ":")
			if !ok {
				continue
			}
			v = strings.TrimSpace(v)
			switch strings.TrimSpace(k) {
			case "move":
				e.Move = v
			case "score":
				e.Score, _ = strconv.Atoi(v) // "??" for unscored moves
			case "rank":
				e.Rank, _ = strconv.Atoi(v)
			case "note":
				e.Note = v
			case "winrate":
				e.WinRate, _ = strconv.ParseFloat(v, 64)
			}
		}
		if e.Move == "" {
			return nil, fmt.Errorf("%w: entry without move: %q", ErrMalformedAnswer, item)
		}
		out = append(out, e)
	}
	return out, nil
}

// ParseQueryScore reads "eval:<n>". known is false for "unknown".
func ParseQueryScore(body string) (score int, known bool, err error) {
	body = clean(body)
	switch body {
	case "unknown", "":
		return 0, false, nil
	case "invalid board":
		return 0, false, ErrInvalidPosition
	}
	k, v, ok := strings.Cut(body, ":")
	if !ok || strings.TrimSpace(k) != "eval" {
		return 0, false, fmt.Errorf("%w: %q", ErrMalformedAnswer, body)
	}
	score, err = strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, false, fmt.Errorf("%w: %q", ErrMalformedAnswer, body)
	}
	return score, true, nil
}

// chessdb terminates answers with a NUL byte.
func clean(body string) string {
	return strings.TrimSpace(strings.TrimRight(body, "\x00"))
}
