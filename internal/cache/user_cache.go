// Package cache provides a redis read-through cache in front of a UserRepository.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"exercise-tracker/internal/domain"
	"exercise-tracker/internal/observability"
	"exercise-tracker/internal/repository"
)

// UserCache serves GetByID from redis and rewrites the cached copy after every
// committed update. Redis failures degrade to the wrapped repository.
type UserCache struct {
	next   repository.UserRepository
	client redis.Cmdable
	ttl    time.Duration
	logger *logrus.Logger
}

func NewUserCache(next repository.UserRepository, client redis.Cmdable, ttl time.Duration, logger *logrus.Logger) *UserCache {
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &UserCache{
		next:   next,
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

var _ repository.UserRepository = (*UserCache)(nil)

// storeIfNewer sets KEYS[1] unless the cached user already holds at least
// ARGV[2] log entries. Logs only grow, so log_count orders snapshots.
var storeIfNewer = redis.NewScript(`
local current = redis.call('GET', KEYS[1])
if current then
  local ok, cached = pcall(cjson.decode, current)
  if ok and tonumber(cached['log_count']) and tonumber(cached['log_count']) >= tonumber(ARGV[2]) then
    return 0
  end
end
redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[3])
return 1
`)

type cachedEntry struct {
	Description string    `json:"description"`
	Duration    int       `json:"duration"`
	Date        time.Time `json:"date"`
}

type cachedUser struct {
	ID        string        `json:"id"`
	Username  string        `json:"username"`
	LogCount  int           `json:"log_count"`
	CreatedAt time.Time     `json:"created_at"`
	Log       []cachedEntry `json:"log"`
}

func (c *UserCache) Init(ctx context.Context) error {
	return c.next.Init(ctx)
}

func (c *UserCache) Create(ctx context.Context, user *domain.User) error {
	return c.next.Create(ctx, user)
}

func (c *UserCache) List(ctx context.Context) ([]domain.User, error) {
	return c.next.List(ctx)
}

func (c *UserCache) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if user, ok := c.get(ctx, id); ok {
		return user, nil
	}

	user, err := c.next.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := c.store(ctx, user); err != nil {
		c.logger.Warnf("redis set user %s: %v", user.ID, err)
	}
	return user, nil
}

func (c *UserCache) Update(ctx context.Context, id string, mutate repository.MutateFunc) (*domain.User, error) {
	user, err := c.next.Update(ctx, id, mutate)
	if err != nil {
		return nil, err
	}
	// The commit happened; the cache must follow even if the caller is gone.
	writeCtx := context.WithoutCancel(ctx)
	if err := c.store(writeCtx, user); err != nil {
		c.logger.Warnf("refresh cached user %s: %v", id, err)
		if err := c.client.Del(writeCtx, userKey(id)).Err(); err != nil {
			c.logger.Warnf("invalidate cached user %s: %v", id, err)
		}
	}
	return user, nil
}

func (c *UserCache) get(ctx context.Context, id string) (*domain.User, bool) {
	raw, err := c.client.Get(ctx, userKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		observability.RecordCacheLookup("miss")
		return nil, false
	}
	if err != nil {
		observability.RecordCacheLookup("error")
		c.logger.Warnf("redis get user %s: %v", id, err)
		return nil, false
	}

	var cached cachedUser
	if err := json.Unmarshal(raw, &cached); err != nil {
		observability.RecordCacheLookup("error")
		c.logger.Warnf("unmarshal cached user %s: %v", id, err)
		return nil, false
	}
	observability.RecordCacheLookup("hit")
	return fromCached(cached), true
}

func (c *UserCache) store(ctx context.Context, user *domain.User) error {
	payload, err := json.Marshal(toCached(user))
	if err != nil {
		return fmt.Errorf("marshal user %s: %w", user.ID, err)
	}
	keys := []string{userKey(user.ID)}
	return storeIfNewer.Run(ctx, c.client, keys, payload, user.LogCount, c.ttl.Milliseconds()).Err()
}

func userKey(id string) string {
	return fmt.Sprintf("exercise:user:%s", id)
}

func toCached(user *domain.User) cachedUser {
	out := cachedUser{
		ID:        user.ID,
		Username:  user.Username,
		LogCount:  user.LogCount,
		CreatedAt: user.CreatedAt,
		Log:       make([]cachedEntry, len(user.Log)),
	}
	for i, entry := range user.Log {
		out.Log[i] = cachedEntry{
			Description: entry.Description,
			Duration:    entry.Duration,
			Date:        entry.Date,
		}
	}
	return out
}

func fromCached(cached cachedUser) *domain.User {
	user := &domain.User{
		ID:        cached.ID,
		Username:  cached.Username,
		LogCount:  cached.LogCount,
		CreatedAt: cached.CreatedAt,
	}
	for _, entry := range cached.Log {
		user.Log = append(user.Log, domain.LogEntry{
			Description: entry.Description,
			Duration:    entry.Duration,
			Date:        entry.Date.UTC(),
		})
	}
	return user
}
