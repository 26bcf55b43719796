// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package source

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// searchCacheTTL bounds how long a search result page is served from cache
// before the next lookup for that (provider, keyword, page) falls through to
// the upstream provider again.
const searchCacheTTL = 10 * time.Minute

// CachedClient wraps a [SourceClient] with a Redis-backed cache of search
// results, keyed by provider, keyword, and page. Book detail, chapter list,
// and chapter content are never cached here since the download engine and
// reader already have their own freshness rules for those.
type CachedClient struct {
	SourceClient
	redis  *redis.Client
	logger *slog.Logger
}

// NewCachedClient wraps client with a Redis search cache.
func NewCachedClient(client SourceClient, redisClient *redis.Client, logger *slog.Logger) *CachedClient {
	return &CachedClient{SourceClient: client, redis: redisClient, logger: logger}
}

func (c *CachedClient) Search(ctx context.Context, keyword string, page int) (*SearchResult, error) {
	key := searchCacheKey(c.Provider(), keyword, page)

	if cached, ok := c.readCache(ctx, key); ok {
		return cached, nil
	}

	result, err := c.SourceClient.Search(ctx, keyword, page)
	if err != nil {
		return nil, err
	}

	c.writeCache(ctx, key, result)
	return result, nil
}

func (c *CachedClient) readCache(ctx context.Context, key string) (*SearchResult, bool) {
	raw, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("search_cache_read_failed", slog.String("key", key), slog.Any("error", err))
		}
		return nil, false
	}

	var result SearchResult
	if err := json.Unmarshal(raw, &result); err != nil {
		c.logger.Warn("search_cache_corrupt", slog.String("key", key), slog.Any("error", err))
		return nil, false
	}

	return &result, true
}

func (c *CachedClient) writeCache(ctx context.Context, key string, result *SearchResult) {
	raw, err := json.Marshal(result)
	if err != nil {
		c.logger.Warn("search_cache_encode_failed", slog.String("key", key), slog.Any("error", err))
		return
	}

	if err := c.redis.Set(ctx, key, raw, searchCacheTTL).Err(); err != nil {
		c.logger.Warn("search_cache_write_failed", slog.String("key", key), slog.Any("error", err))
	}
}

func searchCacheKey(provider, keyword string, page int) string {
	return fmt.Sprintf("source:search:%s:%s:%d", provider, keyword, page)
}
