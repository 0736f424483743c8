// Package match hosts live xiangqi games in memory. Each match owns a
// Viewer guarded by its own mutex; the registry has a separate lock.
package match

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/park285/xiangqi-bot/internal/directory"
	"github.com/park285/xiangqi-bot/internal/openingbook"
	"github.com/park285/xiangqi-bot/internal/relay"
	"github.com/park285/xiangqi-bot/internal/xiangqi"
	"github.com/park285/xiangqi-bot/pkg/xiangqidto"
)

type Options struct {
	MaxMatches    int
	StalemateDraw bool
	Publisher     Publisher
	Book          BookClient
	Directory     Directory
	NodeID        string
	Logger        *zap.Logger
}

type Manager struct {
	mu      sync.RWMutex
	matches map[string]*Match

	max      int
	gameOpts []xiangqi.Option
	pub      Publisher
	book     BookClient
	dir      Directory
	node     string
	logger   *zap.Logger
	now      func() time.Time
}

func NewManager(opts Options) *Manager {
	m := &Manager{
		matches: make(map[string]*Match),
		max:     opts.MaxMatches,
		pub:     opts.Publisher,
		book:    opts.Book,
		dir:     opts.Directory,
		node:    opts.NodeID,
		logger:  opts.Logger,
		now:     time.Now,
	}
	if m.logger == nil {
		m.logger = zap.NewNop()
	}
	if opts.StalemateDraw {
		m.gameOpts = append(m.gameOpts, xiangqi.WithStalemateDraw())
	}
	return m
}

// Create starts a match from the standard position.
func (m *Manager) Create(ctx context.Context, white, black string) (*xiangqidto.MatchState, error) {
	white, black = strings.TrimSpace(white), strings.TrimSpace(black)
	if white == "" {
		white = "white"
	}
	if black == "" {
		black = "black"
	}
	mt, err := m.register(uuid.NewString(), m.node, white, black)
	if err != nil {
		return nil, err
	}
	m.logger.Info("match_create",
		zap.String("match_id", mt.ID),
		zap.String("white", white),
		zap.String("black", black),
	)
	if m.dir != nil {
		meta := directory.Meta{ID: mt.ID, White: white, Black: black, Origin: mt.Origin, CreatedAt: mt.CreatedAt}
		if derr := m.dir.Save(ctx, meta); derr != nil {
			m.logger.Warn("match_directory_save_failed", zap.String("match_id", mt.ID), zap.Error(derr))
		}
	}
	mt.mu.Lock()
	defer mt.mu.Unlock()
	st := stateOf(mt)
	return &st, nil
}

func (m *Manager) register(id, origin, white, black string) (*Match, error) {
	g := xiangqi.NewGame(
		xiangqi.Player{Side: xiangqi.White, Human: true, Name: white},
		xiangqi.Player{Side: xiangqi.Black, Human: true, Name: black},
		m.gameOpts...,
	)
	now := m.now()
	mt := &Match{
		ID:        id,
		Origin:    origin,
		CreatedAt: now,
		viewer:    xiangqi.NewViewerFor(g),
		updated:   now,
		watchers:  make(map[int]chan xiangqidto.MatchState),
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.matches[id]; exists {
		return nil, fmt.Errorf("%w: duplicate match id %s", ErrInvalidArgs, id)
	}
	if m.max > 0 && len(m.matches) >= m.max {
		return nil, ErrLimit
	}
	m.matches[id] = mt
	return mt, nil
}

// Get returns the match with id.
func (m *Manager) Get(id string) (*Match, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	mt, ok := m.matches[strings.TrimSpace(id)]
	if !ok {
		return nil, ErrNotFound
	}
	return mt, nil
}

// Remove drops a match and closes its watchers.
func (m *Manager) Remove(ctx context.Context, id string) bool {
	m.mu.Lock()
	mt, ok := m.matches[strings.TrimSpace(id)]
	delete(m.matches, strings.TrimSpace(id))
	m.mu.Unlock()
	if !ok {
		return false
	}
	mt.mu.Lock()
	for sub, ch := range mt.watchers {
		close(ch)
		delete(mt.watchers, sub)
	}
	mt.mu.Unlock()
	if m.dir != nil {
		if err := m.dir.Remove(ctx, mt.ID); err != nil {
			m.logger.Warn("match_directory_remove_failed", zap.String("match_id", mt.ID), zap.Error(err))
		}
	}
	m.logger.Info("match_remove", zap.String("match_id", mt.ID))
	return true
}

// List returns every match, oldest first. With a directory, matches
// hosted by other nodes are included as non-local rows; a directory
// failure falls back to local matches.
func (m *Manager) List(ctx context.Context) []xiangqidto.MatchSummary {
	m.mu.RLock()
	list := make([]*Match, 0, len(m.matches))
	for _, mt := range m.matches {
		list = append(list, mt)
	}
	m.mu.RUnlock()
	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID < list[j].ID
		}
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})

	out := make([]xiangqidto.MatchSummary, 0, len(list))
	local := make(map[string]bool, len(list))
	for _, mt := range list {
		mt.mu.Lock()
		g := mt.viewer.Game()
		players := g.Players()
		out = append(out, xiangqidto.MatchSummary{
			ID:        mt.ID,
			White:     players[xiangqi.White].Name,
			Black:     players[xiangqi.Black].Name,
			Origin:    mt.Origin,
			Local:     true,
			Status:    g.Status().String(),
			Turn:      g.Turn().String(),
			Ply:       g.Ply(),
			CreatedAt: mt.CreatedAt,
			UpdatedAt: mt.updated,
		})
		mt.mu.Unlock()
		local[mt.ID] = true
	}
	if m.dir == nil {
		return out
	}

	metas, err := m.dir.List(ctx)
	if err != nil {
		m.logger.Warn("match_directory_list_failed", zap.Error(err))
		return out
	}
	remote := false
	for _, meta := range metas {
		if local[meta.ID] {
			continue
		}
		remote = true
		out = append(out, xiangqidto.MatchSummary{
			ID:        meta.ID,
			White:     meta.White,
			Black:     meta.Black,
			Origin:    meta.Origin,
			CreatedAt: meta.CreatedAt,
			UpdatedAt: meta.CreatedAt,
		})
	}
	if remote {
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].CreatedAt.Equal(out[j].CreatedAt) {
				return out[i].ID < out[j].ID
			}
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		})
	}
	return out
}

// Play applies a move for the side to move. Input is read as a coordinate
// move first and as column notation otherwise.
func (m *Manager) Play(ctx context.Context, id, input string) (*xiangqidto.MatchState, error) {
	mt, err := m.Get(id)
	if err != nil {
		return nil, err
	}
	raw := strings.TrimSpace(input)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty move", xiangqi.ErrMalformedNotation)
	}

	mt.mu.Lock()
	g := mt.viewer.Game()
	mover := g.Turn()
	if _, _, perr := xiangqi.ParseCoordinateMove(raw); perr == nil {
		err = mt.viewer.ApplyCoordinate(strings.ToLower(raw))
	} else {
		err = mt.viewer.ApplyNotation(raw)
	}
	if err != nil {
		mt.mu.Unlock()
		m.logger.Info("match_move_rejected",
			zap.String("match_id", mt.ID),
			zap.String("input", raw),
			zap.Error(err),
		)
		return nil, err
	}
	last, _ := g.LastMove()
	env := relay.Envelope{MatchID: mt.ID, Ply: g.Ply(), Side: mover.String(), Move: last.Coordinate()}
	st := m.changed(mt)
	mt.mu.Unlock()

	m.logger.Info("match_move",
		zap.String("match_id", mt.ID),
		zap.String("side", env.Side),
		zap.String("move", env.Move),
		zap.String("notation", lastOf(st.Notations)),
		zap.Int("ply", env.Ply),
		zap.String("status", st.Status),
	)
	if m.pub != nil {
		if perr := m.pub.Publish(ctx, env); perr != nil {
			m.logger.Warn("match_relay_publish_failed", zap.String("match_id", mt.ID), zap.Error(perr))
		}
	}
	return &st, nil
}

// HandleRemote applies a move relayed from another node. The local engine
// validates it again; refused moves are returned as errors and leave the
// match untouched. A first-ply envelope for an unknown match adopts it.
func (m *Manager) HandleRemote(ctx context.Context, env relay.Envelope) error {
	mt, err := m.Get(env.MatchID)
	if errors.Is(err, ErrNotFound) && env.Ply == 1 {
		white, black := m.lookupPlayers(ctx, env.MatchID)
		mt, err = m.register(env.MatchID, env.Origin, white, black)
		if err == nil {
			m.logger.Info("match_adopt", zap.String("match_id", env.MatchID), zap.String("origin", env.Origin))
		}
	}
	if err != nil {
		return err
	}

	mt.mu.Lock()
	defer mt.mu.Unlock()
	g := mt.viewer.Game()
	switch {
	case env.Ply <= g.Ply():
		if env.Ply > 0 && g.Moves()[env.Ply-1].Coordinate() == env.Move {
			return nil
		}
		return fmt.Errorf("%w: ply %d already played", ErrOutOfSync, env.Ply)
	case env.Ply > g.Ply()+1:
		return fmt.Errorf("%w: got ply %d, at ply %d", ErrOutOfSync, env.Ply, g.Ply())
	}
	if env.Side != "" && env.Side != g.Turn().String() {
		return fmt.Errorf("%w: %s to move", xiangqi.ErrNotYourTurn, g.Turn())
	}
	if err := mt.viewer.ApplyCoordinate(env.Move); err != nil {
		return err
	}
	m.changed(mt)
	m.logger.Info("match_remote_move",
		zap.String("match_id", mt.ID),
		zap.String("move", env.Move),
		zap.Int("ply", env.Ply),
		zap.String("origin", env.Origin),
	)
	return nil
}

// lookupPlayers reads player names from the directory, falling back to
// side names.
func (m *Manager) lookupPlayers(ctx context.Context, id string) (string, string) {
	if m.dir == nil {
		return "white", "black"
	}
	meta, err := m.dir.Load(ctx, id)
	if err != nil {
		m.logger.Warn("match_directory_load_failed", zap.String("match_id", id), zap.Error(err))
	}
	if meta == nil {
		return "white", "black"
	}
	return meta.White, meta.Black
}

// Undo takes back the last move of a match. The returned move is empty
// when only a resignation at the initial position was withdrawn.
func (m *Manager) Undo(ctx context.Context, id string) (*xiangqidto.MatchState, string, error) {
	mt, err := m.Get(id)
	if err != nil {
		return nil, "", err
	}
	mt.mu.Lock()
	defer mt.mu.Unlock()
	var undone string
	if last, ok := mt.viewer.Game().LastMove(); ok {
		undone = last.Coordinate()
	}
	if !mt.viewer.Undo() {
		return nil, "", ErrNothingToUndo
	}
	m.logger.Info("match_undo", zap.String("match_id", mt.ID), zap.String("move", undone))
	st := m.changed(mt)
	return &st, undone, nil
}

// Resign ends the match as a loss for the side to move.
func (m *Manager) Resign(ctx context.Context, id string) (*xiangqidto.MatchState, error) {
	mt, err := m.Get(id)
	if err != nil {
		return nil, err
	}
	mt.mu.Lock()
	defer mt.mu.Unlock()
	g := mt.viewer.Game()
	side := g.Turn()
	if err := g.Resign(side); err != nil {
		return nil, err
	}
	m.logger.Info("match_resign",
		zap.String("match_id", mt.ID),
		zap.String("side", side.String()),
		zap.String("status", g.Status().String()),
	)
	st := m.changed(mt)
	return &st, nil
}

// Flip toggles the display orientation of a match.
func (m *Manager) Flip(id string) (*xiangqidto.MatchState, error) {
	mt, err := m.Get(id)
	if err != nil {
		return nil, err
	}
	mt.mu.Lock()
	defer mt.mu.Unlock()
	mt.viewer.ToggleFlip()
	st := m.changed(mt)
	return &st, nil
}

// State returns the live state of a match.
func (m *Manager) State(id string) (*xiangqidto.MatchState, error) {
	mt, err := m.Get(id)
	if err != nil {
		return nil, err
	}
	mt.mu.Lock()
	defer mt.mu.Unlock()
	st := stateOf(mt)
	return &st, nil
}

// Browse returns the snapshot at history index i without touching the game.
func (m *Manager) Browse(id string, i int) (*xiangqidto.HistoryView, error) {
	mt, err := m.Get(id)
	if err != nil {
		return nil, err
	}
	mt.mu.Lock()
	defer mt.mu.Unlock()
	v := mt.viewer
	views, ok := v.BoardAt(i)
	if !ok {
		return nil, fmt.Errorf("%w: %d not in 0..%d", ErrHistoryIndex, i, v.MaxIndex())
	}
	enc, _ := v.EncodingAt(i)
	pos, _ := v.PositionAt(i, xiangqi.FormatCoordinate)
	npos, _ := v.PositionAt(i, xiangqi.FormatNotation)
	return &xiangqidto.HistoryView{
		MatchID:          mt.ID,
		Index:            i,
		Max:              v.MaxIndex(),
		Encoding:         enc,
		Position:         pos,
		NotationPosition: npos,
		Board:            toDTOViews(views),
	}, nil
}

// Book queries the opening book for the live position. The match lock is
// not held during the request.
func (m *Manager) Book(ctx context.Context, id string) (*xiangqidto.BookResult, error) {
	if m.book == nil {
		return nil, ErrNoBook
	}
	mt, err := m.Get(id)
	if err != nil {
		return nil, err
	}
	mt.mu.Lock()
	g := mt.viewer.Game()
	position := g.Position(xiangqi.FormatCoordinate)
	board := g.Board().Clone()
	ply := g.Ply()
	mt.mu.Unlock()

	entries, err := m.book.QueryAll(ctx, position)
	if err != nil {
		return nil, m.bookError(mt.ID, "queryall", err)
	}
	res := &xiangqidto.BookResult{MatchID: mt.ID, Ply: ply, Position: position, Candidates: make([]xiangqidto.Candidate, 0, len(entries))}
	for _, e := range entries {
		c := xiangqidto.Candidate{Move: e.Move, Score: e.Score, Rank: e.Rank, Note: e.Note, WinRate: e.WinRate}
		if from, to, perr := xiangqi.ParseCoordinateMove(e.Move); perr == nil {
			c.Notation, _ = xiangqi.EncodeNotation(board, from, to)
		}
		res.Candidates = append(res.Candidates, c)
	}
	return res, nil
}

// Score asks the opening book to evaluate the position at history index
// i. A negative index selects the live position.
func (m *Manager) Score(ctx context.Context, id string, i int) (*xiangqidto.ScoreResult, error) {
	if m.book == nil {
		return nil, ErrNoBook
	}
	mt, err := m.Get(id)
	if err != nil {
		return nil, err
	}
	mt.mu.Lock()
	if i < 0 {
		i = mt.viewer.MaxIndex()
	}
	position, ok := mt.viewer.PositionAt(i, xiangqi.FormatCoordinate)
	last := mt.viewer.MaxIndex()
	mt.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %d not in 0..%d", ErrHistoryIndex, i, last)
	}

	score, known, err := m.book.QueryScore(ctx, position)
	if err != nil {
		return nil, m.bookError(mt.ID, "queryscore", err)
	}
	turn := xiangqi.White
	if f := strings.Fields(position); len(f) > 1 && f[1] == xiangqi.Black.Letter() {
		turn = xiangqi.Black
	}
	res := &xiangqidto.ScoreResult{
		MatchID:  mt.ID,
		Index:    i,
		Position: position,
		Turn:     turn.String(),
		Known:    known,
		Score:    score,
	}
	res.WhiteScore = score
	if turn == xiangqi.Black {
		res.WhiteScore = -score
	}
	return res, nil
}

// bookError passes answer errors through and wraps transport failures.
func (m *Manager) bookError(id, action string, err error) error {
	m.logger.Warn("match_book_failed", zap.String("match_id", id), zap.String("action", action), zap.Error(err))
	if errors.Is(err, openingbook.ErrInvalidPosition) || errors.Is(err, openingbook.ErrMalformedAnswer) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrBookUnavailable, err)
}

// changed stamps the match, drops any click selection and fans the new
// state out to watchers. Callers hold mt.mu.
func (m *Manager) changed(mt *Match) xiangqidto.MatchState {
	mt.updated = m.now()
	mt.selector.Clear()
	st := stateOf(mt)
	for _, ch := range mt.watchers {
		select {
		case ch <- st:
		default:
			// slow watcher: drop this update
		}
	}
	return st
}

func lastOf(s []string) string {
	if len(s) == 0 {
		return ""
	}
	return s[len(s)-1]
}

// Click feeds a board click to the match's selector. The returned board
// carries possible-move marks for the current selection. Committed moves
// are relayed like Play.
func (m *Manager) Click(ctx context.Context, id string, row, col int, commit bool) (*xiangqidto.ClickResult, error) {
	mt, err := m.Get(id)
	if err != nil {
		return nil, err
	}
	mt.mu.Lock()
	g := mt.viewer.Game()
	if g.Status() != xiangqi.Playing {
		mt.mu.Unlock()
		return nil, xiangqi.ErrGameOver
	}
	mover := g.Turn()
	move, ok := mt.selector.Click(mt.viewer, row, col, commit)
	res := &xiangqidto.ClickResult{Move: move, Played: ok && commit}
	if res.Played {
		res.State = m.changed(mt)
	} else {
		res.State = stateOf(mt)
	}
	if sq, active := mt.selector.Selected(); active {
		res.Selected = sq.Coordinate()
		views := g.Snapshot()
		mt.selector.Annotate(g, views)
		res.State.Board = toDTOViews(views)
	}
	mt.mu.Unlock()

	if res.Played {
		m.logger.Info("match_move",
			zap.String("match_id", mt.ID),
			zap.String("side", mover.String()),
			zap.String("move", move),
			zap.Int("ply", res.State.Ply),
			zap.String("input", "click"),
		)
		if m.pub != nil {
			env := relay.Envelope{MatchID: mt.ID, Ply: res.State.Ply, Side: mover.String(), Move: move}
			if perr := m.pub.Publish(ctx, env); perr != nil {
				m.logger.Warn("match_relay_publish_failed", zap.String("match_id", mt.ID), zap.Error(perr))
			}
		}
	}
	return res, nil
}
