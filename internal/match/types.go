package match

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/park285/xiangqi-bot/internal/boardinput"
	"github.com/park285/xiangqi-bot/internal/directory"
	"github.com/park285/xiangqi-bot/internal/openingbook"
	"github.com/park285/xiangqi-bot/internal/relay"
	"github.com/park285/xiangqi-bot/internal/xiangqi"
	"github.com/park285/xiangqi-bot/pkg/xiangqidto"
)

var (
	ErrNotFound        = errors.New("match not found")
	ErrLimit           = errors.New("match limit reached")
	ErrInvalidArgs     = errors.New("invalid arguments")
	ErrNothingToUndo   = errors.New("no move to take back")
	ErrHistoryIndex    = errors.New("history index out of range")
	ErrOutOfSync       = errors.New("remote move out of sequence")
	ErrNoBook          = errors.New("opening book not configured")
	ErrBookUnavailable = errors.New("opening book unavailable")
)

// Publisher relays locally played moves to other nodes.
type Publisher interface {
	Publish(ctx context.Context, env relay.Envelope) error
}

// BookClient answers opening-book queries for a coordinate position string.
// QueryScore reports known=false when the book has no evaluation.
type BookClient interface {
	QueryAll(ctx context.Context, position string) ([]openingbook.Entry, error)
	QueryScore(ctx context.Context, position string) (score int, known bool, err error)
}

// Directory shares match metadata between nodes. Load returns nil, nil
// for unknown matches.
type Directory interface {
	Save(ctx context.Context, meta directory.Meta) error
	Load(ctx context.Context, id string) (*directory.Meta, error)
	Remove(ctx context.Context, id string) error
	List(ctx context.Context) ([]directory.Meta, error)
}

// Match is one live game. All access to viewer goes through mu.
type Match struct {
	ID        string
	Origin    string // node that created the match
	CreatedAt time.Time

	mu       sync.Mutex
	viewer   *xiangqi.Viewer
	selector boardinput.Selector
	updated  time.Time
	watchers map[int]chan xiangqidto.MatchState
	nextSub  int
}
