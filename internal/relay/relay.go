// Package relay carries coordinate moves between nodes hosting the same
// match over Redis pub/sub. Receivers replay each move through their own
// rules engine and reject what it refuses.
package relay

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Envelope is the JSON payload published for every move.
type Envelope struct {
	MatchID string    `json:"match_id"`
	Ply     int       `json:"ply"` // 1-based ply this move creates
	Side    string    `json:"side"`
	Move    string    `json:"move"`
	Origin  string    `json:"origin"`
	SentAt  time.Time `json:"sent_at"`
}

// Handler applies one envelope received from another node.
type Handler func(ctx context.Context, env Envelope) error

var (
	ErrInvalidEnvelope = errf("invalid relay envelope")
	ErrClosed          = errf("relay subscription closed")
)

type staticErr string

func (e staticErr) Error() string { return string(e) }
func errf(s string) error         { return staticErr(s) }

type Relay struct {
	rdb    *redis.Client
	prefix string
	origin string
	logger *zap.Logger
}

// New builds a relay publishing on "<prefix>:<matchID>". An empty origin is
// replaced with a random node ID.
func New(rdb *redis.Client, prefix, origin string, logger *zap.Logger) *Relay {
	if logger == nil {
		logger = zap.NewNop()
	}
	if strings.TrimSpace(origin) == "" {
		origin = uuid.NewString()
	}
	return &Relay{rdb: rdb, prefix: strings.TrimSuffix(strings.TrimSpace(prefix), ":"), origin: origin, logger: logger}
}

// Origin identifies this node in published envelopes.
func (r *Relay) Origin() string { return r.origin }

func (r *Relay) Channel(matchID string) string { return r.prefix + ":" + strings.TrimSpace(matchID) }

func (r *Relay) Publish(ctx context.Context, env Envelope) error {
	if strings.TrimSpace(env.MatchID) == "" || strings.TrimSpace(env.Move) == "" || env.Ply <= 0 {
		return ErrInvalidEnvelope
	}
	env.Origin = r.origin
	if env.SentAt.IsZero() {
		env.SentAt = time.Now().UTC()
	}
	raw, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return r.rdb.Publish(ctx, r.Channel(env.MatchID), raw).Err()
}

// Subscription is a pattern subscription to every match channel.
type Subscription struct {
	r  *Relay
	ps *redis.PubSub
}

// Subscribe returns once Redis has confirmed the subscription, so moves
// published afterwards are not lost.
func (r *Relay) Subscribe(ctx context.Context) (*Subscription, error) {
	ps := r.rdb.PSubscribe(ctx, r.prefix+":*")
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, err
	}
	r.logger.Info("relay_subscribed", zap.String("pattern", r.prefix+":*"), zap.String("origin", r.origin))
	return &Subscription{r: r, ps: ps}, nil
}

func (s *Subscription) Close() error { return s.ps.Close() }

// Serve hands envelopes from other nodes to h until ctx ends or the
// subscription is closed. Handler errors are logged and skipped.
func (s *Subscription) Serve(ctx context.Context, h Handler) error {
	ch := s.ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return ErrClosed
			}
			s.deliver(ctx, msg, h)
		}
	}
}

func (s *Subscription) deliver(ctx context.Context, msg *redis.Message, h Handler) {
	var env Envelope
	if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
		s.r.logger.Warn("relay_decode_error", zap.String("channel", msg.Channel), zap.Error(err))
		return
	}
	if env.Origin == s.r.origin {
		return
	}
	if err := h(ctx, env); err != nil {
		s.r.logger.Warn("relay_reject",
			zap.String("match_id", env.MatchID),
			zap.Int("ply", env.Ply),
			zap.String("move", env.Move),
			zap.String("origin", env.Origin),
			zap.Error(err),
		)
		return
	}
	s.r.logger.Debug("relay_apply", zap.String("match_id", env.MatchID), zap.Int("ply", env.Ply), zap.String("move", env.Move))
}

// Serve subscribes and serves until ctx ends.
func (r *Relay) Serve(ctx context.Context, h Handler) error {
	sub, err := r.Subscribe(ctx)
	if err != nil {
		return err
	}
	defer sub.Close()
	return sub.Serve(ctx, h)
}
