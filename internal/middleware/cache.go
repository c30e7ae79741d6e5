package middleware

import (
	"context"
	"crypto/sha1"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// cachedResponse is what ResponseCache stores per key.
type cachedResponse struct {
	Status  int               `json:"status"`
	Headers map[string]string `json:"headers"`
	Body    []byte            `json:"body"`
}

// Headers replayed on a cache hit.
var replayedHeaders = []string{fiber.HeaderContentType, fiber.HeaderLink, "X-Total-Count"}

// ResponseCache caches successful GET responses of one entity in Redis.
// Every successful mutation of the entity bumps a generation counter that is
// part of the key, so stale entries are never read again and expire by TTL.
type ResponseCache struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// NewResponseCache creates a new ResponseCache. A nil client disables caching.
func NewResponseCache(rdb *redis.Client, prefix string, ttl time.Duration) *ResponseCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &ResponseCache{rdb: rdb, prefix: prefix, ttl: ttl}
}

// Handler returns the middleware for one entity.
func (rc *ResponseCache) Handler(entity string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if rc == nil || rc.rdb == nil {
			return c.Next()
		}
		ctx := c.UserContext()

		if c.Method() != fiber.MethodGet {
			if err := c.Next(); err != nil {
				return err
			}
			if c.Response().StatusCode() < fiber.StatusBadRequest {
				rc.invalidate(ctx, entity)
			}
			return nil
		}

		gen, err := rc.rdb.Get(ctx, rc.GenerationKey(entity)).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			log.Printf("Response cache unavailable for %s: %v", entity, err)
			return c.Next()
		}
		key := rc.Key(entity, gen, c.OriginalURL(), principalID(c))

		if bs, err := rc.rdb.Get(ctx, key).Bytes(); err == nil {
			var cached cachedResponse
			if err := json.Unmarshal(bs, &cached); err == nil {
				for k, v := range cached.Headers {
					c.Set(k, v)
				}
				c.Set("X-Cache", "HIT")
				return c.Status(cached.Status).Send(cached.Body)
			}
		}

		c.Set("X-Cache", "MISS")
		if err := c.Next(); err != nil {
			return err
		}
		if c.Response().StatusCode() != fiber.StatusOK {
			return nil
		}

		cached := cachedResponse{
			Status:  fiber.StatusOK,
			Headers: make(map[string]string),
			Body:    append([]byte(nil), c.Response().Body()...),
		}
		for _, h := range replayedHeaders {
			if v := c.GetRespHeader(h); v != "" {
				cached.Headers[h] = v
			}
		}
		payload, err := json.Marshal(cached)
		if err != nil {
			return nil
		}
		if err := rc.rdb.Set(ctx, key, payload, rc.ttl).Err(); err != nil {
			log.Printf("Failed to cache %s response: %v", entity, err)
		}
		return nil
	}
}

// GenerationKey is the counter bumped on every mutation of entity.
func (rc *ResponseCache) GenerationKey(entity string) string {
	return fmt.Sprintf("%s:cache:%s:gen", rc.prefix, entity)
}

// Key identifies one cached response. The principal is part of the key since
// "mine" listings differ per member.
func (rc *ResponseCache) Key(entity string, gen int64, url string, principal int64) string {
	sum := sha1.Sum([]byte(fmt.Sprintf("%s|%d", url, principal)))
	return fmt.Sprintf("%s:cache:%s:%d:%x", rc.prefix, entity, gen, sum[:])
}

func (rc *ResponseCache) invalidate(ctx context.Context, entity string) {
	if err := rc.rdb.Incr(ctx, rc.GenerationKey(entity)).Err(); err != nil {
		log.Printf("Failed to invalidate %s response cache: %v", entity, err)
	}
}

func principalID(c *fiber.Ctx) int64 {
	if p, ok := PrincipalFrom(c); ok {
		return p.MemberID
	}
	return 0
}
