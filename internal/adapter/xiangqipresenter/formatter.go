package xiangqipresenter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/park285/xiangqi-bot/internal/msgcat"
	"github.com/park285/xiangqi-bot/internal/xiangqi"
	"github.com/park285/xiangqi-bot/pkg/xiangqidto"
)

const (
	emptySquare    = '.'
	fromSquare     = 'o'
	targetSquare   = '*'
	squaresPerRank = xiangqi.Cols
)

// Formatter renders match DTOs into console text with the message catalog.
type Formatter struct {
	cat *msgcat.Catalog
}

func NewFormatter(cat *msgcat.Catalog) *Formatter {
	return &Formatter{cat: cat}
}

func (f *Formatter) render(key string, data map[string]any, fallback string) string {
	if f == nil || f.cat == nil {
		return fallback
	}
	return f.cat.RenderOr(key, data, fallback)
}

// Board draws views in the order given, nine squares per rank, with rank
// labels on the left and files underneath. The vacated square of the last
// move shows as 'o' and possible destinations as '*'.
func (f *Formatter) Board(views []xiangqidto.SquareView) string {
	if len(views) == 0 {
		return ""
	}
	var sb strings.Builder
	for start := 0; start+squaresPerRank <= len(views); start += squaresPerRank {
		rank := views[start : start+squaresPerRank]
		sb.WriteString(strconv.Itoa(xiangqi.Rows - 1 - rank[0].Row))
		for _, v := range rank {
			sb.WriteByte(' ')
			sb.WriteByte(squareGlyph(v))
		}
		sb.WriteByte('\n')
	}
	sb.WriteString(" ")
	for _, v := range views[:squaresPerRank] {
		sb.WriteByte(' ')
		sb.WriteByte(byte('a' + v.Col))
	}
	return sb.String()
}

func squareGlyph(v xiangqidto.SquareView) byte {
	if v.Identifier != "" {
		return v.Identifier[0]
	}
	for _, m := range v.Marks {
		switch m {
		case xiangqi.MarkPossibleMove:
			return targetSquare
		case xiangqi.MarkLastMoveStart:
			return fromSquare
		}
	}
	return emptySquare
}

// Status is the one-line summary of a match.
func (f *Formatter) Status(st *xiangqidto.MatchState) string {
	if st == nil {
		return ""
	}
	line := f.render("match.status", map[string]any{"Status": st.Status, "Turn": st.Turn, "Ply": st.Ply},
		fmt.Sprintf("%s, %s to move, ply %d", st.Status, st.Turn, st.Ply))
	if st.InCheck && st.Status == xiangqi.Playing.String() {
		line += " (check)"
	}
	return line
}

// State prints the status line, the board and, once finished, the result.
func (f *Formatter) State(st *xiangqidto.MatchState) string {
	if st == nil {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(f.Status(st))
	sb.WriteString("\n")
	sb.WriteString(f.Board(st.Board))
	if st.Status != xiangqi.Playing.String() {
		sb.WriteString("\n")
		sb.WriteString(f.render("match.over", map[string]any{"Status": st.Status}, "Game over: "+st.Status))
	}
	return sb.String()
}

func (f *Formatter) Created(st *xiangqidto.MatchState) string {
	if st == nil {
		return ""
	}
	return f.render("match.created", map[string]any{"ID": st.ID, "White": st.White, "Black": st.Black},
		"Match "+st.ID+" created")
}

// Moved reports the last move of st.
func (f *Formatter) Moved(st *xiangqidto.MatchState) string {
	if st == nil || len(st.Moves) == 0 {
		return ""
	}
	side := "white"
	if st.Ply%2 == 0 {
		side = "black"
	}
	notation := st.Notations[len(st.Notations)-1]
	if notation == "" {
		notation = "?"
	}
	return f.render("match.moved", map[string]any{"Side": side, "Move": st.LastMove, "Notation": notation},
		side+" played "+st.LastMove)
}

func (f *Formatter) Undone(move string) string {
	if move == "" {
		return f.render("match.reopened", nil, "Resignation withdrawn")
	}
	return f.render("match.undone", map[string]any{"Move": move}, "Took back "+move)
}

func (f *Formatter) Resigned(st *xiangqidto.MatchState) string {
	if st == nil {
		return ""
	}
	winner := "white"
	if st.Status == xiangqi.BlackWin.String() {
		winner = "black"
	}
	return f.render("match.resigned", map[string]any{"Side": st.Turn, "Winner": winner}, st.Turn+" resigned")
}

func (f *Formatter) List(list []xiangqidto.MatchSummary) string {
	if len(list) == 0 {
		return f.render("match.list_empty", nil, "No active matches")
	}
	lines := make([]string, 0, len(list))
	for _, s := range list {
		if !s.Local {
			lines = append(lines, f.render("match.list_remote", map[string]any{
				"ID": s.ID, "White": s.White, "Black": s.Black, "Origin": s.Origin,
			}, s.ID+" remote"))
			continue
		}
		lines = append(lines, f.render("match.list_item", map[string]any{"ID": s.ID, "Ply": s.Ply, "Status": s.Status},
			s.ID+" "+s.Status))
	}
	return strings.Join(lines, "\n")
}

// History prints a browsed snapshot.
func (f *Formatter) History(h *xiangqidto.HistoryView) string {
	if h == nil {
		return ""
	}
	head := f.render("match.history", map[string]any{"Index": h.Index, "Max": h.Max},
		fmt.Sprintf("Position %d of %d", h.Index, h.Max))
	return head + "\n" + f.Board(h.Board) + "\n" + h.NotationPosition
}

func (f *Formatter) Book(res *xiangqidto.BookResult) string {
	if res == nil || len(res.Candidates) == 0 {
		return f.render("book.empty", nil, "No book moves for this position")
	}
	var sb strings.Builder
	sb.WriteString(f.render("book.header", map[string]any{"Ply": res.Ply}, "Book moves"))
	for _, c := range res.Candidates {
		sb.WriteString("\n")
		sb.WriteString(f.render("book.line", map[string]any{
			"Rank":     c.Rank,
			"Move":     c.Move,
			"Notation": c.Notation,
			"Score":    c.Score,
			"WinRate":  strconv.FormatFloat(c.WinRate, 'f', 2, 64),
		}, c.Move))
	}
	return sb.String()
}

func (f *Formatter) Score(res *xiangqidto.ScoreResult) string {
	if res == nil {
		return ""
	}
	if !res.Known {
		return f.render("book.score_unknown", map[string]any{"Index": res.Index}, "No evaluation")
	}
	return f.render("book.score", map[string]any{
		"Index":      res.Index,
		"Score":      res.Score,
		"Turn":       res.Turn,
		"WhiteScore": res.WhiteScore,
	}, strconv.Itoa(res.Score))
}

// Error renders a domain error for the user.
func (f *Formatter) Error(de xiangqidto.DomainError, input string) string {
	switch de.Code {
	case xiangqidto.CodeNotFound:
		return f.render("error.not_found", map[string]any{"ID": input}, de.Error())
	case xiangqidto.CodeIllegalMove:
		return f.render("error.illegal", map[string]any{"Move": input, "Reason": de.Message}, de.Error())
	case xiangqidto.CodeBadInput:
		return f.render("error.bad_input", map[string]any{"Input": input}, de.Error())
	case xiangqidto.CodeGameOver:
		return f.render("error.game_over", nil, de.Error())
	case xiangqidto.CodeLimit:
		return f.render("error.limit", nil, de.Error())
	case xiangqidto.CodeHistory:
		return f.render("error.history", map[string]any{"Index": input}, de.Error())
	case xiangqidto.CodeBook:
		return f.render("error.book", nil, de.Error())
	default:
		return f.render("error.internal", nil, de.Error())
	}
}

func (f *Formatter) Help() string {
	return strings.TrimRight(f.render("console.help", nil, "new, use, play, undo, resign, show, book, list, quit"), "\n")
}

func (f *Formatter) Unknown(cmd string) string {
	return f.render("console.unknown", map[string]any{"Command": cmd}, "Unknown command "+cmd)
}

func (f *Formatter) NoMatch() string {
	return f.render("console.no_match", nil, "No match selected")
}
