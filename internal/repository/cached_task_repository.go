package repository

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/Tomlord1122/taskboard/internal/domain"
)

const allTasksCacheKey = "tasks:all"

// cachedTaskRepository serves reads from Redis and falls back to base on a
// miss or any Redis failure. Writes go to base first, then evict.
type cachedTaskRepository struct {
	base  TaskRepository
	redis *redis.Client
	ttl   time.Duration
}

// NewCachedTaskRepository wraps base with a Redis read-through cache.
// A nil client disables caching.
func NewCachedTaskRepository(base TaskRepository, client *redis.Client, ttl time.Duration) TaskRepository {
	if base == nil {
		panic("repository.NewCachedTaskRepository: base repository is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &cachedTaskRepository{base: base, redis: client, ttl: ttl}
}

// Uncached returns the store behind repo's cache, or repo itself when it is
// not cached. Reads that feed a write must come from here: a cache entry can
// outlive a failed eviction and must never be written back.
func Uncached(repo TaskRepository) TaskRepository {
	if c, ok := repo.(*cachedTaskRepository); ok {
		return c.base
	}
	return repo
}

func (c *cachedTaskRepository) Create(ctx context.Context, task *domain.Task) error {
	if err := c.base.Create(ctx, task); err != nil {
		return err
	}
	c.evict(ctx, allTasksCacheKey)
	return nil
}

func (c *cachedTaskRepository) FindByID(ctx context.Context, id uint) (*domain.Task, error) {
	var task domain.Task
	if c.load(ctx, taskCacheKey(id), &task) {
		return &task, nil
	}

	found, err := c.base.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.store(ctx, taskCacheKey(id), found)
	return found, nil
}

func (c *cachedTaskRepository) GetAll(ctx context.Context) ([]domain.Task, error) {
	var tasks []domain.Task
	if c.load(ctx, allTasksCacheKey, &tasks) {
		return tasks, nil
	}

	tasks, err := c.base.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	c.store(ctx, allTasksCacheKey, tasks)
	return tasks, nil
}

func (c *cachedTaskRepository) Update(ctx context.Context, task *domain.Task) error {
	if err := c.base.Update(ctx, task); err != nil {
		return err
	}
	c.evict(ctx, allTasksCacheKey, taskCacheKey(task.ID))
	return nil
}

func (c *cachedTaskRepository) Delete(ctx context.Context, id uint) error {
	err := c.base.Delete(ctx, id)
	// A stale entry for a task that is already gone must not survive either.
	if err == nil || errors.Is(err, domain.ErrTaskNotFound) {
		c.evict(ctx, allTasksCacheKey, taskCacheKey(id))
	}
	return err
}

func (c *cachedTaskRepository) load(ctx context.Context, key string, dst any) bool {
	if c.redis == nil {
		return false
	}
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.WithError(err).WithField("key", key).Warn("task cache read failed")
		}
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		log.WithError(err).WithField("key", key).Warn("dropping undecodable task cache entry")
		c.evict(ctx, key)
		return false
	}
	return true
}

func (c *cachedTaskRepository) store(ctx context.Context, key string, v any) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		log.WithError(err).WithField("key", key).Warn("task cache write failed")
	}
}

func (c *cachedTaskRepository) evict(ctx context.Context, keys ...string) {
	if c.redis == nil {
		return
	}
	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		log.WithError(err).WithField("keys", keys).Warn("task cache eviction failed")
	}
}

func taskCacheKey(id uint) string {
	return "tasks:" + strconv.FormatUint(uint64(id), 10)
}
