package progress

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Locker serializes progress updates of a single user.
type Locker interface {
	// Lock blocks until the user's lock is held or ctx is done.
	// The returned func releases the lock and is safe to call more than once.
	Lock(ctx context.Context, userID int) (unlock func(), err error)
}

// LocalLocker is an in-process keyed mutex.
type LocalLocker struct {
	mutex sync.Mutex
	locks map[int]*userLock
}

type userLock struct {
	sem  chan struct{}
	refs int
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{
		locks: map[int]*userLock{},
	}
}

func (l *LocalLocker) Lock(ctx context.Context, userID int) (func(), error) {
	l.mutex.Lock()
	ul, ok := l.locks[userID]
	if !ok {
		ul = &userLock{sem: make(chan struct{}, 1)}
		l.locks[userID] = ul
	}
	ul.refs++
	l.mutex.Unlock()

	select {
	case ul.sem <- struct{}{}:
	case <-ctx.Done():
		l.release(userID, ul)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-ul.sem
			l.release(userID, ul)
		})
	}, nil
}

func (l *LocalLocker) release(userID int, ul *userLock) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	ul.refs--
	if ul.refs == 0 {
		delete(l.locks, userID)
	}
}

// held returns the number of users with an active or awaited lock.
func (l *LocalLocker) held() int {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return len(l.locks)
}

const (
	userLockKeyPrefix         = "healthify||user-lock||"
	defaultLockRetryInterval  = 25 * time.Millisecond
	defaultLockReleaseTimeout = 2 * time.Second
)

// releases the lock only if it still holds our token
var unlockScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`)

// RedisLocker is a per-user lock shared by all service instances.
// A lock expires after ttl even if its holder never releases it.
type RedisLocker struct {
	redisClient   *redis.Client
	ttl           time.Duration
	retryInterval time.Duration
	// ability to inject token generator (for unit testing)
	TokenFunc func() string
}

func NewRedisLocker(redisClient *redis.Client, ttl time.Duration) *RedisLocker {
	return &RedisLocker{
		redisClient:   redisClient,
		ttl:           ttl,
		retryInterval: defaultLockRetryInterval,
		TokenFunc:     uuid.NewString,
	}
}

func userLockKey(userID int) string {
	return userLockKeyPrefix + strconv.Itoa(userID)
}

func (l *RedisLocker) Lock(ctx context.Context, userID int) (func(), error) {
	key := userLockKey(userID)
	token := l.TokenFunc()

	for {
		acquired, err := l.redisClient.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if acquired {
			break
		}

		timer := time.NewTimer(l.retryInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// the caller context may already be done
			releaseCtx, cancel := context.WithTimeout(context.Background(), defaultLockReleaseTimeout)
			defer cancel()
			if err := unlockScript.Run(releaseCtx, l.redisClient, []string{key}, token).Err(); err != nil {
				log.Errorf("release lock %s: %s", key, err)
			}
		})
	}, nil
}
