// Package roomlock serializes writers on the same rooms. The redis locker
// works across API replicas; the local locker covers a single process.
package roomlock

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"hotelstay/internal/pkg/apperror"
)

const (
	DefaultTTL  = 10 * time.Second
	DefaultWait = 3 * time.Second

	retryInterval = 25 * time.Millisecond
	keyPrefix     = "hotel:room-lock:"
)

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

func errLocked(roomID int64, wait time.Duration) error {
	return apperror.Conflict("ROOM_LOCKED", "room is being changed by another request, retry").
		With("room_id", roomID).
		With("waited", wait.String())
}

// ordered sorts and dedupes ids so that concurrent callers lock in the
// same order.
func ordered(ids []int64) []int64 {
	out := make([]int64, 0, len(ids))
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

type RedisLocker struct {
	rdb  *redis.Client
	ttl  time.Duration
	wait time.Duration
	log  *zap.Logger
}

func NewRedisLocker(rdb *redis.Client, ttl, wait time.Duration, log *zap.Logger) *RedisLocker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if wait <= 0 {
		wait = DefaultWait
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &RedisLocker{rdb: rdb, ttl: ttl, wait: wait, log: log}
}

// Lock takes every room lock or none. Each key holds a random token so a
// caller whose lease expired cannot release someone else's lock.
func (l *RedisLocker) Lock(ctx context.Context, roomIDs ...int64) (func(), error) {
	token := uuid.NewString()
	var held []string

	release := func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		for _, key := range held {
			if err := releaseScript.Run(ctx, l.rdb, []string{key}, token).Err(); err != nil {
				l.log.Warn("room lock release failed", zap.String("key", key), zap.Error(err))
			}
		}
	}

	for _, id := range ordered(roomIDs) {
		key := keyPrefix + strconv.FormatInt(id, 10)
		if err := l.acquire(ctx, key, token, id); err != nil {
			release()
			return nil, err
		}
		held = append(held, key)
	}
	return release, nil
}

func (l *RedisLocker) acquire(ctx context.Context, key, token string, roomID int64) error {
	deadline := time.Now().Add(l.wait)
	for {
		ok, err := l.rdb.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return fmt.Errorf("room lock %d: %w", roomID, err)
		}
		if ok {
			return nil
		}
		if time.Now().After(deadline) {
			return errLocked(roomID, l.wait)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryInterval):
		}
	}
}

// LocalLocker keeps one single-slot semaphore per room.
type LocalLocker struct {
	mu    sync.Mutex
	slots map[int64]chan struct{}
	wait  time.Duration
}

func NewLocalLocker(wait time.Duration) *LocalLocker {
	if wait <= 0 {
		wait = DefaultWait
	}
	return &LocalLocker{slots: make(map[int64]chan struct{}), wait: wait}
}

func (l *LocalLocker) slot(id int64) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.slots[id]
	if !ok {
		ch = make(chan struct{}, 1)
		l.slots[id] = ch
	}
	return ch
}

func (l *LocalLocker) Lock(ctx context.Context, roomIDs ...int64) (func(), error) {
	var held []chan struct{}
	release := func() {
		for _, ch := range held {
			<-ch
		}
	}

	timer := time.NewTimer(l.wait)
	defer timer.Stop()

	for _, id := range ordered(roomIDs) {
		ch := l.slot(id)
		select {
		case ch <- struct{}{}:
			held = append(held, ch)
		case <-timer.C:
			release()
			return nil, errLocked(id, l.wait)
		case <-ctx.Done():
			release()
			return nil, ctx.Err()
		}
	}

	var once sync.Once
	return func() { once.Do(release) }, nil
}

// IsLocked reports whether err came from a lock wait timing out.
func IsLocked(err error) bool {
	appErr, ok := apperror.As(err)
	return ok && appErr.Code == "ROOM_LOCKED" && errors.Is(err, apperror.ErrConflict)
}
