package auth

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationStore rastreia jtis de refresh tokens ativos. Um jti ausente
// é tratado como revogado, independente da validade criptográfica.
type RevocationStore interface {
	// Registrar marca o jti como ativo até a expiração informada.
	Registrar(ctx context.Context, jti, subject string, expiry time.Time) error
	// Ativo informa se o jti ainda consta como válido.
	Ativo(ctx context.Context, jti string) (bool, error)
	// Revogar remove o jti e informa se algo foi removido. Revogar um
	// jti já ausente não é erro: logout precisa ser idempotente.
	Revogar(ctx context.Context, jti string) (bool, error)
}

type redisCommander interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RefreshRedisKey monta a chave usada para guardar estado do refresh.
func RefreshRedisKey(jti string) string {
	return "refresh:" + jti
}

// RedisRevocationStore guarda o estado no Redis com TTL igual à expiração
// do token, de modo que entradas vencidas somem sozinhas.
type RedisRevocationStore struct {
	redis redisCommander
}

// NewRedisRevocationStore cria a loja padrão sobre um cliente Redis.
func NewRedisRevocationStore(client redisCommander) *RedisRevocationStore {
	return &RedisRevocationStore{redis: client}
}

func (s *RedisRevocationStore) Registrar(ctx context.Context, jti, subject string, expiry time.Time) error {
	ttl := time.Until(expiry)
	if ttl <= 0 {
		return nil
	}
	return s.redis.Set(ctx, RefreshRedisKey(jti), subject, ttl).Err()
}

func (s *RedisRevocationStore) Ativo(ctx context.Context, jti string) (bool, error) {
	_, err := s.redis.Get(ctx, RefreshRedisKey(jti)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *RedisRevocationStore) Revogar(ctx context.Context, jti string) (bool, error) {
	removed, err := s.redis.Del(ctx, RefreshRedisKey(jti)).Result()
	if err != nil && err != redis.Nil {
		return false, err
	}
	return removed > 0, nil
}

type memoryEntry struct {
	subject string
	expiry  time.Time
}

// MemoryRevocationStore mantém o estado em processo, protegido por mutex.
// Só serve para uma instância única (e para testes); múltiplas réplicas
// não compartilham revogações.
type MemoryRevocationStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

// NewMemoryRevocationStore cria a loja em memória.
func NewMemoryRevocationStore() *MemoryRevocationStore {
	return &MemoryRevocationStore{entries: make(map[string]memoryEntry)}
}

func (s *MemoryRevocationStore) Registrar(ctx context.Context, jti, subject string, expiry time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[jti] = memoryEntry{subject: subject, expiry: expiry}
	return nil
}

func (s *MemoryRevocationStore) Ativo(ctx context.Context, jti string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[jti]
	if !ok {
		return false, nil
	}
	if time.Now().UTC().After(entry.expiry) {
		delete(s.entries, jti)
		return false, nil
	}
	return true, nil
}

func (s *MemoryRevocationStore) Revogar(ctx context.Context, jti string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.entries[jti]
	delete(s.entries, jti)
	return ok, nil
}
