package feed

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

type redisCommander interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

// RedisCache guarda payloads do upstream por TTL. Falha de cache nunca
// falha a leitura: o chamador apenas volta ao feed.
type RedisCache struct {
	redis redisCommander
	ttl   time.Duration
}

// NewRedisCache cria o cache de leitura do feed.
func NewRedisCache(client redisCommander, ttl time.Duration) *RedisCache {
	return &RedisCache{redis: client, ttl: ttl}
}

func cacheKey(url string) string {
	sum := sha256.Sum256([]byte(url))
	return "feed:" + hex.EncodeToString(sum[:16])
}

// Get devolve o payload cacheado, se houver.
func (c *RedisCache) Get(ctx context.Context, url string) ([]byte, bool) {
	val, err := c.redis.Get(ctx, cacheKey(url)).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		log.Warn().Err(err).Msg("cache do feed indisponível na leitura")
		return nil, false
	}
	return val, true
}

// Set grava o payload com o TTL configurado.
func (c *RedisCache) Set(ctx context.Context, url string, payload []byte) {
	if err := c.redis.Set(ctx, cacheKey(url), payload, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Msg("cache do feed indisponível na escrita")
	}
}
