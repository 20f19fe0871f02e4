package storage

import (
	"context"
	"errors"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"taskwise/domain"
)

// generationTTL bounds the lifetime of per-owner write counters.
const generationTTL = 24 * time.Hour

var errStaleList = errors.New("task list changed while loading")

// Cache wraps a task repository with a Redis-backed cache of task lists.
// Every write evicts the owner's cached list.
type Cache struct {
	base  domain.TaskRepository
	redis *redis.Client
	ttl   time.Duration
}

// NewCache creates a caching repository using the provided Redis client and
// TTL. A nil client disables caching.
func NewCache(base domain.TaskRepository, client *redis.Client, ttl time.Duration) *Cache {
	if base == nil {
		panic("storage.NewCache: base repository is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Cache{base: base, redis: client, ttl: ttl}
}

func (c *Cache) ListTasks(ctx context.Context, owner string) ([]domain.Task, error) {
	if tasks, ok := c.loadTasks(ctx, owner); ok {
		return tasks, nil
	}
	gen, genOK := c.generation(ctx, owner)
	tasks, err := c.base.ListTasks(ctx, owner)
	if err != nil {
		return nil, err
	}
	if genOK {
		c.storeTasks(ctx, owner, gen, tasks)
	}
	return tasks, nil
}

func (c *Cache) GetTask(ctx context.Context, owner, id string) (*domain.Task, error) {
	return c.base.GetTask(ctx, owner, id)
}

func (c *Cache) InsertTask(ctx context.Context, owner string, t domain.Task) error {
	defer c.evict(ctx, owner)
	return c.base.InsertTask(ctx, owner, t)
}

func (c *Cache) ReplaceTask(ctx context.Context, owner string, t domain.Task) error {
	defer c.evict(ctx, owner)
	return c.base.ReplaceTask(ctx, owner, t)
}

func (c *Cache) DeleteTask(ctx context.Context, owner, id string) (bool, error) {
	defer c.evict(ctx, owner)
	return c.base.DeleteTask(ctx, owner, id)
}

// cached entries keep the table row shape so internal fields such as the
// creation timestamp survive a round trip.
func (c *Cache) loadTasks(ctx context.Context, owner string) ([]domain.Task, bool) {
	if c.redis == nil {
		return nil, false
	}
	data, err := c.redis.Get(ctx, tasksCacheKey(owner)).Bytes()
	if err != nil {
		if err != redis.Nil {
			// On redis errors fall back to the backing storage without failing.
			_ = c.redis.Del(ctx, tasksCacheKey(owner)).Err()
		}
		return nil, false
	}
	var ents []taskEntity
	if err := sonic.Unmarshal(data, &ents); err != nil {
		_ = c.redis.Del(ctx, tasksCacheKey(owner)).Err()
		return nil, false
	}
	tasks := make([]domain.Task, 0, len(ents))
	for _, e := range ents {
		t, err := e.task()
		if err != nil {
			_ = c.redis.Del(ctx, tasksCacheKey(owner)).Err()
			return nil, false
		}
		tasks = append(tasks, t)
	}
	return tasks, true
}

// generation reads the owner's write counter. Writes bump it, so a list read
// from the backend is only cached if no write happened meanwhile.
func (c *Cache) generation(ctx context.Context, owner string) (string, bool) {
	if c.redis == nil || c.ttl == 0 {
		return "", false
	}
	gen, err := c.redis.Get(ctx, tasksGenKey(owner)).Result()
	switch {
	case err == redis.Nil:
		return "", true
	case err != nil:
		return "", false
	}
	return gen, true
}

// storeTasks caches tasks unless the owner's generation moved past gen.
func (c *Cache) storeTasks(ctx context.Context, owner, gen string, tasks []domain.Task) {
	ents := make([]taskEntity, 0, len(tasks))
	for _, t := range tasks {
		ents = append(ents, newTaskEntity(owner, t))
	}
	data, err := sonic.Marshal(ents)
	if err != nil {
		return
	}
	genKey := tasksGenKey(owner)
	_ = c.redis.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, genKey).Result()
		if err != nil && err != redis.Nil {
			return err
		}
		if cur != gen {
			return errStaleList
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, tasksCacheKey(owner), data, c.ttl)
			return nil
		})
		return err
	}, genKey)
}

// evict drops the cached list and bumps the generation in one transaction so
// no list computed before the write can be stored after it.
func (c *Cache) evict(ctx context.Context, owner string) {
	if c.redis == nil {
		return
	}
	genKey := tasksGenKey(owner)
	_, _ = c.redis.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, tasksCacheKey(owner))
		p.Incr(ctx, genKey)
		p.Expire(ctx, genKey, generationTTL)
		return nil
	})
}

func tasksCacheKey(owner string) string {
	return "tasks:" + owner
}

func tasksGenKey(owner string) string {
	return "tasks-gen:" + owner
}
