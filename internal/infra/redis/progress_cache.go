package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/marselbeijing/ispeech-helper/internal/domain/model"
	"github.com/marselbeijing/ispeech-helper/internal/infra/metrics"
	"github.com/marselbeijing/ispeech-helper/internal/usecase"
)

// Ensure ProgressCache satisfies the use-case port
var _ usecase.ProgressCache = (*ProgressCache)(nil)

// ProgressCache is a read-through snapshot cache of progress records. It is
// best effort: any Redis failure degrades to a repository read and is logged
// at debug, never surfaced.
type ProgressCache struct {
	client *Client
	ttl    time.Duration
	log    *zerolog.Logger
}

func NewProgressCache(client *Client, ttl time.Duration, logger *zerolog.Logger) *ProgressCache {
	l := logger.With().Str("component", "ProgressCache").Logger()
	return &ProgressCache{client: client, ttl: ttl, log: &l}
}

func progressKey(userID string) string { return "progress:" + userID }

func (c *ProgressCache) Get(ctx context.Context, userID string) (*model.ProgressRecord, bool) {
	data, err := c.client.Get(ctx, progressKey(userID))
	if err != nil {
		if !IsMiss(err) {
			c.log.Debug().Err(err).Msg("cache read failed")
		}
		metrics.IncCacheRequest("progress", "miss")
		return nil, false
	}
	var rec model.ProgressRecord
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		c.log.Debug().Err(err).Msg("cache entry corrupt, dropping")
		_ = c.client.Del(ctx, progressKey(userID))
		metrics.IncCacheRequest("progress", "miss")
		return nil, false
	}
	metrics.IncCacheRequest("progress", "hit")
	return &rec, true
}

func (c *ProgressCache) Store(ctx context.Context, rec *model.ProgressRecord) {
	data, err := json.Marshal(rec)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, progressKey(rec.UserID), data, c.ttl); err != nil {
		c.log.Debug().Err(err).Msg("cache write failed")
	}
}

func (c *ProgressCache) Invalidate(ctx context.Context, userID string) {
	if err := c.client.Del(ctx, progressKey(userID)); err != nil {
		c.log.Debug().Err(err).Msg("cache invalidation failed")
	}
}
