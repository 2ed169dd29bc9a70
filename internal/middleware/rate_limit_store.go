package middleware

import (
	"context"
	"hash/fnv"
	"log"
	"sync"
	"time"
)

// Decision - результат проверки лимита
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// RateLimitStore считает запросы по ключу
type RateLimitStore interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (Decision, error)
}

const memoryShards = 32

type memoryShard struct {
	mu   sync.Mutex
	hits map[string][]time.Time
}

// MemoryStore - скользящее окно меток времени на ключ.
// Работает только в пределах одного процесса: несколько инстансов считают независимо.
type MemoryStore struct {
	shards [memoryShards]*memoryShard
	now    func() time.Time
}

// NewMemoryStore создает хранилище и запускает очистку неактивных ключей,
// которая останавливается вместе с ctx
func NewMemoryStore(ctx context.Context, cleanupInterval, idleTTL time.Duration) *MemoryStore {
	s := newMemoryStore(time.Now)
	if cleanupInterval > 0 {
		go s.janitor(ctx, cleanupInterval, idleTTL)
	}
	return s
}

func newMemoryStore(now func() time.Time) *MemoryStore {
	s := &MemoryStore{now: now}
	for i := range s.shards {
		s.shards[i] = &memoryShard{hits: make(map[string][]time.Time)}
	}
	return s
}

func (s *MemoryStore) shard(key string) *memoryShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return s.shards[h.Sum32()%memoryShards]
}

// Allow удаляет устаревшие метки и добавляет текущую, если лимит не исчерпан
func (s *MemoryStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (Decision, error) {
	now := s.now()
	cutoff := now.Add(-window)

	sh := s.shard(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	stamps := sh.hits[key]
	kept := stamps[:0]
	for _, ts := range stamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= limit {
		sh.hits[key] = kept
		retry := kept[0].Add(window).Sub(now)
		if retry < time.Second {
			retry = time.Second
		}
		return Decision{Allowed: false, Remaining: 0, RetryAfter: retry}, nil
	}

	kept = append(kept, now)
	sh.hits[key] = kept
	return Decision{Allowed: true, Remaining: limit - len(kept)}, nil
}

// evictIdle удаляет ключи, последний запрос которых старше idleTTL
func (s *MemoryStore) evictIdle(idleTTL time.Duration) int {
	cutoff := s.now().Add(-idleTTL)
	evicted := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		for key, stamps := range sh.hits {
			if len(stamps) == 0 || !stamps[len(stamps)-1].After(cutoff) {
				delete(sh.hits, key)
				evicted++
			}
		}
		sh.mu.Unlock()
	}
	return evicted
}

func (s *MemoryStore) janitor(ctx context.Context, interval, idleTTL time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Println("[RateLimiter] Memory store janitor stopped")
			return
		case <-ticker.C:
			if n := s.evictIdle(idleTTL); n > 0 {
				log.Printf("[RateLimiter] Evicted %d idle keys", n)
			}
		}
	}
}

// WindowCounter - атомарный счетчик окна во внешнем хранилище (redis.CacheRepo)
type WindowCounter interface {
	IncrWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// RedisStore - фиксированное окно (INCR + EXPIRE), общее для всех инстансов
type RedisStore struct {
	counter WindowCounter
}

// NewRedisStore создает RedisStore
func NewRedisStore(counter WindowCounter) *RedisStore {
	return &RedisStore{counter: counter}
}

func (s *RedisStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (Decision, error) {
	count, ttl, err := s.counter.IncrWindow(ctx, key, window)
	if err != nil {
		return Decision{}, err
	}
	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	if int(count) > limit {
		return Decision{Allowed: false, Remaining: 0, RetryAfter: ttl}, nil
	}
	return Decision{Allowed: true, Remaining: remaining}, nil
}
