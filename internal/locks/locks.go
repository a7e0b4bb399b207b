package locks

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/matchmaker-backend/internal/logger"
	"github.com/yungbote/matchmaker-backend/internal/types"
)

// PartitionLock enforces the matcher's single-writer discipline per
// (batch, partition). Acquire fails immediately when another run holds
// the lock; the caller surfaces that as a precondition failure rather
// than queueing.
type PartitionLock interface {
	Acquire(ctx context.Context, batch int, partition types.Partition) (release func(), err error)
}

func Key(batch int, partition types.Partition) string {
	return fmt.Sprintf("matchmaker:matching:%d:%s", batch, partition)
}

// New returns a redis-backed lock when REDIS_ADDR is set, otherwise an
// in-process lock. Single-instance deployments do not need redis; the
// in-process lock is enough there.
func New(log *logger.Logger) (PartitionLock, error) {
	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return NewMemoryLock(), nil
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &redisLock{
		log: log.With("service", "RedisPartitionLock"),
		rdb: rdb,
		ttl: 10 * time.Minute,
	}, nil
}

type memoryLock struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewMemoryLock() PartitionLock {
	return &memoryLock{held: make(map[string]struct{})}
}

func (m *memoryLock) Acquire(ctx context.Context, batch int, partition types.Partition) (func(), error) {
	key := Key(batch, partition)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, busy := m.held[key]; busy {
		return nil, fmt.Errorf("matching already in progress for batch %d partition %s", batch, partition)
	}
	m.held[key] = struct{}{}
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.held, key)
	}, nil
}

type redisLock struct {
	log *logger.Logger
	rdb *goredis.Client
	ttl time.Duration
}

func (r *redisLock) Acquire(ctx context.Context, batch int, partition types.Partition) (func(), error) {
	key := Key(batch, partition)
	ok, err := r.rdb.SetNX(ctx, key, "1", r.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire %s: %w", key, err)
	}
	if !ok {
		return nil, fmt.Errorf("matching already in progress for batch %d partition %s", batch, partition)
	}
	return func() {
		if err := r.rdb.Del(context.Background(), key).Err(); err != nil {
			r.log.Warn("Failed to release partition lock", "key", key, "error", err)
		}
	}, nil
}
