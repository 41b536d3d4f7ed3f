package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	domain "photoshare/backend/internal/domain/card"

	"github.com/redis/go-redis/v9"
)

const (
	keyCardList = "photoshare:cards:list"
	keyCardGen  = "photoshare:cards:gen"
)

var errStaleGeneration = errors.New("card feed generation moved")

// CardCache caches the card feed in Redis.
type CardCache struct {
	rdb redis.UniversalClient
	ttl time.Duration
}

// NewCardCache returns a new CardCache.
func NewCardCache(rdb redis.UniversalClient, ttl time.Duration) *CardCache {
	return &CardCache{rdb: rdb, ttl: ttl}
}

// GetList returns the cached feed. ok is false on a miss.
func (c *CardCache) GetList(ctx context.Context) ([]*domain.Card, bool, error) {
	b, err := c.rdb.Get(ctx, keyCardList).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var list []*domain.Card
	if err := json.Unmarshal(b, &list); err != nil {
		return nil, false, err
	}
	if list == nil {
		list = []*domain.Card{}
	}
	return list, true, nil
}

// Generation returns the invalidation counter, 0 before the first
// invalidation.
func (c *CardCache) Generation(ctx context.Context) (int64, error) {
	gen, err := c.rdb.Get(ctx, keyCardGen).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// SetList stores the feed if the generation is still gen. A write that lost
// the race against Invalidate is dropped without error.
func (c *CardCache) SetList(ctx context.Context, gen int64, list []*domain.Card) error {
	b, err := json.Marshal(list)
	if err != nil {
		return err
	}

	err = c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, keyCardGen).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != gen {
			return errStaleGeneration
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, keyCardList, b, c.ttl)
			return nil
		})
		return err
	}, keyCardGen)
	if errors.Is(err, errStaleGeneration) || errors.Is(err, redis.TxFailedErr) {
		return nil
	}
	return err
}

// Invalidate drops the cached feed and advances the generation.
func (c *CardCache) Invalidate(ctx context.Context) error {
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, keyCardGen)
		pipe.Del(ctx, keyCardList)
		return nil
	})
	return err
}
