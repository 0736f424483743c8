// Package directory keeps shared match metadata in Redis so nodes that
// adopt a relayed match know who plays it.
package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const ttlMatch = 24 * time.Hour

// Meta is stored as JSON under <prefix>:match:<id>.
type Meta struct {
	ID        string    `json:"id"`
	White     string    `json:"white"`
	Black     string    `json:"black"`
	Origin    string    `json:"origin,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Store struct {
	rdb    *redis.Client
	prefix string
}

func NewStore(rdb *redis.Client, prefix string) *Store {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "xq"
	}
	return &Store{rdb: rdb, prefix: prefix}
}

func (s *Store) keyMeta(id string) string { return s.prefix + ":match:" + strings.TrimSpace(id) }
func (s *Store) keyIndex() string         { return s.prefix + ":matches" }

// Save writes meta and adds it to the index. Both keys share one TTL.
func (s *Store) Save(ctx context.Context, meta Meta) error {
	if strings.TrimSpace(meta.ID) == "" {
		return fmt.Errorf("directory: empty match id")
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, s.keyMeta(meta.ID), raw, ttlMatch)
	pipe.SAdd(ctx, s.keyIndex(), meta.ID)
	pipe.Expire(ctx, s.keyIndex(), ttlMatch)
	_, err = pipe.Exec(ctx)
	return err
}

// Load returns nil, nil for unknown or expired matches.
func (s *Store) Load(ctx context.Context, id string) (*Meta, error) {
	raw, err := s.rdb.Get(ctx, s.keyMeta(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var m Meta
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("directory: decode %s: %w", id, err)
	}
	return &m, nil
}

func (s *Store) Remove(ctx context.Context, id string) error {
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, s.keyMeta(id))
	pipe.SRem(ctx, s.keyIndex(), strings.TrimSpace(id))
	_, err := pipe.Exec(ctx)
	return err
}

// List returns every indexed match, oldest first. Index entries whose
// metadata has expired are pruned.
func (s *Store) List(ctx context.Context) ([]Meta, error) {
	ids, err := s.rdb.SMembers(ctx, s.keyIndex()).Result()
	if err != nil {
		return nil, err
	}
	out := make([]Meta, 0, len(ids))
	for _, id := range ids {
		m, err := s.Load(ctx, id)
		if err != nil {
			return nil, err
		}
		if m == nil {
			_ = s.rdb.SRem(ctx, s.keyIndex(), id).Err()
			continue
		}
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
